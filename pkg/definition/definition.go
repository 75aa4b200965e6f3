// Package definition holds the immutable record produced by a successful
// custom element registration.
package definition

import (
	"iter"
	"slices"

	"github.com/vango-dev/elements/pkg/hostvalue"
)

// CallbackName names a lifecycle hook a constructor's prototype may supply.
type CallbackName string

const (
	ConnectedCallback        CallbackName = "connectedCallback"
	DisconnectedCallback     CallbackName = "disconnectedCallback"
	AdoptedCallback          CallbackName = "adoptedCallback"
	ConnectedMoveCallback    CallbackName = "connectedMoveCallback"
	AttributeChangedCallback CallbackName = "attributeChangedCallback"

	FormAssociatedCallback   CallbackName = "formAssociatedCallback"
	FormResetCallback        CallbackName = "formResetCallback"
	FormDisabledCallback     CallbackName = "formDisabledCallback"
	FormStateRestoreCallback CallbackName = "formStateRestoreCallback"
)

// LifecycleNames are read off every prototype, in this order.
var LifecycleNames = []CallbackName{
	ConnectedCallback,
	DisconnectedCallback,
	AdoptedCallback,
	ConnectedMoveCallback,
	AttributeChangedCallback,
}

// FormNames are read off the prototype only for form-associated elements.
var FormNames = []CallbackName{
	FormAssociatedCallback,
	FormResetCallback,
	FormDisabledCallback,
	FormStateRestoreCallback,
}

// Callbacks is an ordered map from hook name to an optional callback.
// Keys keep the order they were first set in, not the order callbacks were
// found.
type Callbacks struct {
	names []CallbackName
	funcs map[CallbackName]*hostvalue.Callback
}

// NewCallbacks returns a map seeded with LifecycleNames, all unset.
func NewCallbacks() *Callbacks {
	c := &Callbacks{funcs: make(map[CallbackName]*hostvalue.Callback, len(LifecycleNames)+len(FormNames))}
	for _, name := range LifecycleNames {
		c.Set(name, nil)
	}
	return c
}

// Set stores cb under name. A nil cb records the key with no callback.
func (c *Callbacks) Set(name CallbackName, cb *hostvalue.Callback) {
	if _, ok := c.funcs[name]; !ok {
		c.names = append(c.names, name)
	}
	c.funcs[name] = cb
}

// Get returns the callback for name, or nil.
func (c *Callbacks) Get(name CallbackName) *hostvalue.Callback {
	return c.funcs[name]
}

// Contains reports whether name is a key, set or not.
func (c *Callbacks) Contains(name CallbackName) bool {
	_, ok := c.funcs[name]
	return ok
}

// All yields every key and its callback in key order.
func (c *Callbacks) All() iter.Seq2[CallbackName, *hostvalue.Callback] {
	return func(yield func(CallbackName, *hostvalue.Callback) bool) {
		for _, name := range c.names {
			if !yield(name, c.funcs[name]) {
				return
			}
		}
	}
}

// Len returns the number of keys.
func (c *Callbacks) Len() int {
	return len(c.names)
}

func (c *Callbacks) clone() *Callbacks {
	out := &Callbacks{
		names: slices.Clone(c.names),
		funcs: make(map[CallbackName]*hostvalue.Callback, len(c.funcs)),
	}
	for k, v := range c.funcs {
		out.funcs[k] = v
	}
	return out
}

// Params are the fields a Definition is built from.
type Params struct {
	Name               string
	LocalName          string
	Constructor        hostvalue.Value
	ObservedAttributes []string
	Callbacks          *Callbacks
	FormAssociated     bool
	DisableInternals   bool
	DisableShadow      bool
}

// Definition is a registered custom element. It never changes after New.
type Definition struct {
	name               string
	localName          string
	constructor        hostvalue.Value
	observedAttributes []string
	callbacks          *Callbacks
	formAssociated     bool
	disableInternals   bool
	disableShadow      bool
}

// New builds a Definition, copying every mutable input.
func New(p Params) *Definition {
	callbacks := p.Callbacks
	if callbacks == nil {
		callbacks = NewCallbacks()
	}
	observed := slices.Clone(p.ObservedAttributes)
	if observed == nil {
		observed = []string{}
	}
	return &Definition{
		name:               p.Name,
		localName:          p.LocalName,
		constructor:        p.Constructor,
		observedAttributes: observed,
		callbacks:          callbacks.clone(),
		formAssociated:     p.FormAssociated,
		disableInternals:   p.DisableInternals,
		disableShadow:      p.DisableShadow,
	}
}

// Name returns the registered name.
func (d *Definition) Name() string { return d.name }

// LocalName returns the tag the definition applies to.
func (d *Definition) LocalName() string { return d.localName }

// Constructor returns the registered constructor.
func (d *Definition) Constructor() hostvalue.Value { return d.constructor }

// ObservedAttributes returns a copy of the observed attribute names.
func (d *Definition) ObservedAttributes() []string {
	return slices.Clone(d.observedAttributes)
}

// Observes reports whether attr is an observed attribute.
func (d *Definition) Observes(attr string) bool {
	return slices.Contains(d.observedAttributes, attr)
}

// Callback returns the callback registered for name, or nil.
func (d *Definition) Callback(name CallbackName) *hostvalue.Callback {
	return d.callbacks.Get(name)
}

// Callbacks yields every lifecycle key and its callback in key order.
func (d *Definition) Callbacks() iter.Seq2[CallbackName, *hostvalue.Callback] {
	return d.callbacks.All()
}

// FormAssociated reports whether the element participates in forms.
func (d *Definition) FormAssociated() bool { return d.formAssociated }

// DisableInternals reports whether attachInternals is disabled.
func (d *Definition) DisableInternals() bool { return d.disableInternals }

// DisableShadow reports whether attachShadow is disabled.
func (d *Definition) DisableShadow() bool { return d.disableShadow }

// IsAutonomous reports whether the definition is for its own tag rather
// than a customized built-in.
func (d *Definition) IsAutonomous() bool { return d.name == d.localName }
