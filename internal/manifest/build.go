package manifest

import (
	"context"

	"github.com/vango-dev/elements/internal/errors"
	"github.com/vango-dev/elements/pkg/dom"
	"github.com/vango-dev/elements/pkg/hostvalue"
	"github.com/vango-dev/elements/pkg/hostvalue/native"
	"github.com/vango-dev/elements/pkg/registry"
)

// Invocation records one lifecycle callback run.
type Invocation struct {
	Definition string
	Callback   string
	Element    *dom.Node
	Args       []hostvalue.Value
}

// Sink receives callback invocations.
type Sink func(Invocation)

// Definer is the part of a realm a manifest is applied to.
type Definer interface {
	Define(ctx context.Context, name string, ctor hostvalue.Value, opts registry.DefineOptions) error
}

// Built pairs an entry with its constructor.
type Built struct {
	Entry       *Entry
	Constructor hostvalue.Value
}

// Constructors holds built constructors by constructor key. Passing the
// same Constructors to several applies keeps identities shared between
// them, so an entry added later still collides with the definition that
// owns its key.
type Constructors map[string]hostvalue.Value

// Build creates native constructors for every entry. Entries with the same
// constructor key receive the same constructor, configured by the first
// entry that built it. ctors may be nil.
func (m *Manifest) Build(ctors Constructors, sink Sink) []Built {
	if sink == nil {
		sink = func(Invocation) {}
	}
	if ctors == nil {
		ctors = make(Constructors)
	}
	out := make([]Built, 0, len(m.Entries))
	for i := range m.Entries {
		e := &m.Entries[i]
		ctor, ok := ctors[e.ConstructorKey()]
		if !ok {
			ctor = build(e, sink)
			ctors[e.ConstructorKey()] = ctor
		}
		out = append(out, Built{Entry: e, Constructor: ctor})
	}
	return out
}

// Apply defines every entry on d in manifest order. Failed definitions do
// not stop the remaining ones; their errors are returned located at the
// entry. ctors is passed to Build.
func (m *Manifest) Apply(ctx context.Context, d Definer, ctors Constructors, sink Sink) []*errors.Error {
	var errs []*errors.Error
	for _, b := range m.Build(ctors, sink) {
		if err := d.Define(ctx, b.Entry.Name, b.Constructor, b.Entry.DefineOptions()); err != nil {
			errs = append(errs, errors.FromDefinition(err).
				WithSource(m.Source, m.data, b.Entry.Line, b.Entry.Column))
		}
	}
	return errs
}

func build(e *Entry, sink Sink) hostvalue.Value {
	className := e.ConstructorKey()

	if e.Constructs != nil && !*e.Constructs {
		return native.NewFunction(className, func(hostvalue.Value, []hostvalue.Value) (hostvalue.Value, error) {
			return native.Undefined, nil
		})
	}

	failUpgrade := e.Upgrade == UpgradeFail
	ctor := native.NewConstructor(className, func(hostvalue.Value, []hostvalue.Value) (hostvalue.Value, error) {
		if failUpgrade {
			return nil, native.Throw("Error", "%s constructor failed", className)
		}
		return native.NewObject(), nil
	})

	proto := ctor.Prototype()
	for _, cb := range e.Callbacks {
		proto.Set(cb, recorder(e.Name, cb, sink))
	}
	if len(e.ObservedAttributes) > 0 {
		ctor.Set("observedAttributes", stringArray(e.ObservedAttributes))
	}
	if len(e.DisabledFeatures) > 0 {
		ctor.Set("disabledFeatures", stringArray(e.DisabledFeatures))
	}
	if e.FormAssociated {
		ctor.Set("formAssociated", true)
		for _, cb := range e.FormCallbacks {
			proto.Set(cb, recorder(e.Name, cb, sink))
		}
	}

	switch e.Prototype {
	case PrototypeInvalid:
		ctor.Set("prototype", "not an object")
	case PrototypeThrows:
		ctor.DefineGetter("prototype", func() (hostvalue.Value, error) {
			return nil, native.Throw("Error", "%s prototype getter failed", className)
		})
	}
	return ctor
}

func recorder(name, callback string, sink Sink) *native.Function {
	return native.NewFunction(callback, func(this hostvalue.Value, args []hostvalue.Value) (hostvalue.Value, error) {
		el, _ := this.(*dom.Node)
		sink(Invocation{
			Definition: name,
			Callback:   callback,
			Element:    el,
			Args:       append([]hostvalue.Value(nil), args...),
		})
		return native.Undefined, nil
	})
}

func stringArray(values []string) *native.Object {
	out := make([]hostvalue.Value, len(values))
	for i, v := range values {
		out[i] = v
	}
	return native.NewArray(out...)
}
