// Package reactions queues and runs custom element reactions: upgrades and
// lifecycle callbacks.
//
// Reactions are queued per element and run when Process is called, which
// is how callers model leaving a CEReactions scope. Errors raised by host
// code are reported, never returned: one failing element does not stop the
// others.
package reactions

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/vango-dev/elements/pkg/definition"
	"github.com/vango-dev/elements/pkg/dom"
	"github.com/vango-dev/elements/pkg/hostvalue"
)

// ErrShadowDisabled is reported when an element that already has a shadow
// root is upgraded against a definition that disables shadow roots.
var ErrShadowDisabled = errors.New("reactions: definition disables shadow but element has a shadow root")

// Lookup finds definitions for TryToUpgrade.
type Lookup interface {
	DefinitionWithNameAndLocalName(name, localName string) *definition.Definition
}

// Observer is notified after each reaction runs. err is nil on success.
type Observer interface {
	ElementUpgraded(el *dom.Node, def *definition.Definition, err error)
	CallbackInvoked(el *dom.Node, name definition.CallbackName, err error)
}

// Kind distinguishes reaction types.
type Kind uint8

const (
	KindUpgrade Kind = iota
	KindCallback
)

// Reaction is one queued reaction.
type Reaction struct {
	Kind       Kind
	Definition *definition.Definition // For KindUpgrade
	Name       definition.CallbackName
	Callback   *hostvalue.Callback // For KindCallback
	Args       []hostvalue.Value
}

// Queue holds per-element reaction queues and the element queue.
type Queue struct {
	host      hostvalue.Host
	lookup    Lookup
	logger    *slog.Logger
	observers []Observer
	onError   func(el *dom.Node, err error)

	pending  map[*dom.Node][]Reaction
	elements []*dom.Node
	queued   map[*dom.Node]bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger used to report reaction errors.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

// WithObserver adds an observer notified after each reaction.
func WithObserver(o Observer) Option {
	return func(q *Queue) {
		q.observers = append(q.observers, o)
	}
}

// WithErrorHandler sets a function called with every error raised while
// running reactions, in addition to logging it.
func WithErrorHandler(fn func(el *dom.Node, err error)) Option {
	return func(q *Queue) {
		q.onError = fn
	}
}

// New creates a Queue running host code through host.
func New(host hostvalue.Host, opts ...Option) *Queue {
	q := &Queue{
		host:    host,
		logger:  slog.Default(),
		pending: make(map[*dom.Node][]Reaction),
		queued:  make(map[*dom.Node]bool),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.logger = q.logger.With("component", "reactions")
	return q
}

// Bind sets the definition lookup used by TryToUpgrade.
func (q *Queue) Bind(l Lookup) {
	q.lookup = l
}

// EnqueueUpgradeReaction queues an upgrade of el against def.
func (q *Queue) EnqueueUpgradeReaction(el *dom.Node, def *definition.Definition) {
	q.enqueue(el, Reaction{Kind: KindUpgrade, Definition: def})
}

// TryToUpgrade queues an upgrade if a definition matches el. Elements that
// are not HTML, or that have no matching definition, are left alone.
func (q *Queue) TryToUpgrade(el *dom.Node) {
	if def := q.lookupDefinition(el); def != nil {
		q.EnqueueUpgradeReaction(el, def)
	}
}

func (q *Queue) lookupDefinition(el *dom.Node) *definition.Definition {
	if q.lookup == nil || !el.IsHTML() {
		return nil
	}
	if def := q.lookup.DefinitionWithNameAndLocalName(el.LocalName, el.LocalName); def != nil {
		return def
	}
	if el.Is() == "" {
		return nil
	}
	return q.lookup.DefinitionWithNameAndLocalName(el.Is(), el.LocalName)
}

// EnqueueCallbackReaction queues a lifecycle callback for a custom element.
// Nothing is queued when the element's definition has no such callback, or
// for attributeChangedCallback when args[0] is not an observed attribute.
func (q *Queue) EnqueueCallbackReaction(el *dom.Node, name definition.CallbackName, args ...hostvalue.Value) {
	def := el.Definition()
	if def == nil {
		return
	}
	cb := def.Callback(name)
	if cb == nil {
		return
	}
	if name == definition.AttributeChangedCallback {
		if len(args) == 0 {
			return
		}
		attr, _ := args[0].(string)
		if !def.Observes(attr) {
			return
		}
	}
	q.enqueue(el, Reaction{Kind: KindCallback, Name: name, Callback: cb, Args: args})
}

func (q *Queue) enqueue(el *dom.Node, r Reaction) {
	q.pending[el] = append(q.pending[el], r)
	if !q.queued[el] {
		q.queued[el] = true
		q.elements = append(q.elements, el)
	}
}

// Pending returns a copy of the reactions queued for el.
func (q *Queue) Pending(el *dom.Node) []Reaction {
	return append([]Reaction(nil), q.pending[el]...)
}

// Len returns the number of elements with queued reactions.
func (q *Queue) Len() int {
	return len(q.elements)
}

// Process runs queued reactions, element by element in the order elements
// were first queued, until none remain.
func (q *Queue) Process() {
	for len(q.elements) > 0 {
		el := q.elements[0]
		q.elements[0] = nil
		q.elements = q.elements[1:]
		delete(q.queued, el)

		for len(q.pending[el]) > 0 {
			r := q.pending[el][0]
			q.pending[el] = q.pending[el][1:]
			q.run(el, r)
		}
		delete(q.pending, el)
	}
}

func (q *Queue) run(el *dom.Node, r Reaction) {
	switch r.Kind {
	case KindUpgrade:
		ran, err := q.upgrade(el, r.Definition)
		if err != nil {
			q.report(el, fmt.Errorf("upgrade %s: %w", el, err))
		}
		if !ran {
			return
		}
		for _, o := range q.observers {
			o.ElementUpgraded(el, r.Definition, err)
		}
	case KindCallback:
		_, err := r.Callback.Invoke(q.host, el, r.Args...)
		if err != nil {
			q.report(el, fmt.Errorf("%s on %s: %w", r.Name, el, err))
		}
		for _, o := range q.observers {
			o.CallbackInvoked(el, r.Name, err)
		}
	}
}

// upgrade runs the HTML element upgrade steps. ran is false when el was
// already upgraded or has failed before.
func (q *Queue) upgrade(el *dom.Node, def *definition.Definition) (ran bool, err error) {
	if s := el.State(); s != dom.StateUndefined && s != dom.StateUncustomized {
		return false, nil
	}
	el.SetDefinition(def)
	el.SetState(dom.StateFailed)

	for _, attr := range el.Attrs {
		if attr.Namespace != "" {
			continue
		}
		q.EnqueueCallbackReaction(el, definition.AttributeChangedCallback, attr.Name, nil, attr.Value, nil)
	}
	if el.IsConnected() {
		q.EnqueueCallbackReaction(el, definition.ConnectedCallback)
	}

	if err := q.construct(el, def); err != nil {
		el.SetDefinition(nil)
		delete(q.pending, el)
		return true, err
	}
	el.SetState(dom.StateCustom)
	return true, nil
}

func (q *Queue) construct(el *dom.Node, def *definition.Definition) error {
	if def.DisableShadow() && el.ShadowRoot() != nil {
		return ErrShadowDisabled
	}
	el.SetState(dom.StatePrecustomized)
	ctor := def.Constructor()
	_, err := q.host.Construct(ctor, ctor, el)
	if err != nil {
		el.SetState(dom.StateFailed)
	}
	return err
}

func (q *Queue) report(el *dom.Node, err error) {
	q.logger.Error("reaction failed", "element", el.String(), "error", err)
	if q.onError != nil {
		q.onError(el, err)
	}
}
