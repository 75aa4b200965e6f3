package registry

import (
	"context"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/elements/pkg/customname"
	"github.com/vango-dev/elements/pkg/definition"
	"github.com/vango-dev/elements/pkg/dom"
	"github.com/vango-dev/elements/pkg/future"
	"github.com/vango-dev/elements/pkg/hostvalue"
)

// Default tracer name for registry spans.
const defaultTracerName = "github.com/vango-dev/elements/registry"

// ElementReactions is the tree-side collaborator that runs upgrades.
type ElementReactions interface {
	// EnqueueUpgradeReaction queues an upgrade of el against def.
	EnqueueUpgradeReaction(el *dom.Node, def *definition.Definition)

	// TryToUpgrade queues an upgrade if a definition matches el. It must
	// leave already-upgraded elements alone.
	TryToUpgrade(el *dom.Node)
}

// Observer is notified of registry activity.
type Observer interface {
	Defined(def *definition.Definition, candidates int)
	DefineFailed(name string, err *DefinitionError)
	UpgradeSwept(root *dom.Node, elements int)
}

// Registry is a realm's custom element registry. It is not safe for
// concurrent use; the owning realm serializes access.
type Registry struct {
	host      hostvalue.Host
	document  *dom.Node
	reactions ElementReactions
	scheduler future.Scheduler

	logger    *slog.Logger
	tracer    trace.Tracer
	observers []Observer

	definitions []*definition.Definition
	whenDefined map[string]*future.Future[hostvalue.Value]
	running     bool
	closed      bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithTracerName sets the name of the tracer taken from the global
// OpenTelemetry provider.
func WithTracerName(name string) Option {
	return func(r *Registry) {
		r.tracer = otel.Tracer(name)
	}
}

// WithObserver adds an observer for definitions and upgrade sweeps.
// Observers are notified in the order they were added.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.observers = append(r.observers, o)
	}
}

// New creates a registry for document. Upgrade reactions go to reactions
// and when-defined futures settle through scheduler.
func New(host hostvalue.Host, document *dom.Node, reactions ElementReactions, scheduler future.Scheduler, opts ...Option) *Registry {
	r := &Registry{
		host:        host,
		document:    document,
		reactions:   reactions,
		scheduler:   scheduler,
		logger:      slog.Default(),
		whenDefined: make(map[string]*future.Future[hostvalue.Value]),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(defaultTracerName)
	}
	r.logger = r.logger.With("component", "registry")
	return r
}

// Get returns the constructor registered under name.
func (r *Registry) Get(name string) (hostvalue.Value, bool) {
	if def := r.byName(name); def != nil {
		return def.Constructor(), true
	}
	return nil, false
}

// GetName returns the name ctor is registered under.
func (r *Registry) GetName(ctor hostvalue.Value) (string, bool) {
	if def := r.byConstructor(ctor); def != nil {
		return def.Name(), true
	}
	return "", false
}

// DefinitionWithNameAndLocalName returns the definition matching both
// name and local name, or nil.
func (r *Registry) DefinitionWithNameAndLocalName(name, localName string) *definition.Definition {
	for _, def := range r.definitions {
		if def.Name() == name && def.LocalName() == localName {
			return def
		}
	}
	return nil
}

// DefinitionFromNewTarget returns the definition whose constructor is
// newTarget, or nil.
func (r *Registry) DefinitionFromNewTarget(newTarget hostvalue.Value) *definition.Definition {
	return r.byConstructor(newTarget)
}

// Definitions returns the definitions in registration order.
func (r *Registry) Definitions() []*definition.Definition {
	return slices.Clone(r.definitions)
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	return len(r.definitions)
}

// DefinitionRunning reports whether a definition is being extracted.
func (r *Registry) DefinitionRunning() bool {
	return r.running
}

// PendingNames returns the names with an unresolved when-defined future,
// sorted.
func (r *Registry) PendingNames() []string {
	names := make([]string, 0, len(r.whenDefined))
	for name := range r.whenDefined {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) byName(name string) *definition.Definition {
	for _, def := range r.definitions {
		if def.Name() == name {
			return def
		}
	}
	return nil
}

func (r *Registry) byConstructor(ctor hostvalue.Value) *definition.Definition {
	for _, def := range r.definitions {
		if r.host.SameValue(def.Constructor(), ctor) {
			return def
		}
	}
	return nil
}

// WhenDefined returns a future fulfilled with the constructor once name is
// defined. It never fails directly: an invalid name yields a rejected
// future. Calls for the same undefined name share one future.
func (r *Registry) WhenDefined(name string) *future.Future[hostvalue.Value] {
	if !customname.IsValid(name) {
		return future.Rejected[hostvalue.Value](r.scheduler,
			newError(KindInvalidName, name, "%q is not a valid custom element name", name))
	}
	if def := r.byName(name); def != nil {
		return future.Resolved(r.scheduler, def.Constructor())
	}
	if r.closed {
		return future.Rejected[hostvalue.Value](r.scheduler, ErrRegistryClosed)
	}
	if f, ok := r.whenDefined[name]; ok {
		return f
	}
	f := future.New[hostvalue.Value](r.scheduler)
	r.whenDefined[name] = f
	r.logger.Debug("waiting for definition", "name", name)
	return f
}

// Upgrade tries to upgrade every element in root's shadow-including
// inclusive descendants. The elements are collected before any upgrade is
// attempted, so elements inserted by upgrades are not visited.
func (r *Registry) Upgrade(ctx context.Context, root *dom.Node) {
	_, span := r.tracer.Start(ctx, "registry.Upgrade")
	defer span.End()

	var elements []*dom.Node
	root.ForEachShadowIncludingInclusiveDescendant(func(n *dom.Node) dom.TraversalDecision {
		if n.IsElement() {
			elements = append(elements, n)
		}
		return dom.Continue
	})
	for _, el := range elements {
		r.reactions.TryToUpgrade(el)
	}

	span.SetAttributes(attribute.Int("elements.count", len(elements)))
	span.SetStatus(codes.Ok, "")
	r.logger.Debug("upgrade sweep", "root", root.String(), "elements", len(elements))
	for _, o := range r.observers {
		o.UpgradeSwept(root, len(elements))
	}
}

// Close rejects every pending when-defined future with ErrRegistryClosed.
// Definitions stay readable; WhenDefined for undefined names is rejected
// from then on.
func (r *Registry) Close() {
	if r.closed {
		return
	}
	r.closed = true
	for _, name := range r.PendingNames() {
		_ = r.whenDefined[name].Reject(ErrRegistryClosed)
		delete(r.whenDefined, name)
	}
}
