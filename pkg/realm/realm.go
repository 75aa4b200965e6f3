// Package realm ties a document, a host, an event loop, the element
// reaction queue and one custom element registry together.
//
// Realm methods that can run host code process queued reactions before they
// return, the way CEReactions operations do in a browser. All methods must
// run on the realm's loop; use Do from other goroutines.
package realm

import (
	"context"
	"log/slog"

	"github.com/vango-dev/elements/pkg/definition"
	"github.com/vango-dev/elements/pkg/dom"
	"github.com/vango-dev/elements/pkg/eventloop"
	"github.com/vango-dev/elements/pkg/hostvalue"
	"github.com/vango-dev/elements/pkg/reactions"
	"github.com/vango-dev/elements/pkg/registry"
)

// Realm is one execution realm.
type Realm struct {
	Host      hostvalue.Host
	Document  *dom.Node
	Loop      *eventloop.Loop
	Reactions *reactions.Queue
	Registry  *registry.Registry

	logger *slog.Logger
}

type options struct {
	logger       *slog.Logger
	loop         *eventloop.Loop
	registryOpts []registry.Option
	reactionOpts []reactions.Option
}

// Option configures a Realm.
type Option func(*options)

// WithLogger sets the logger shared by the realm's components.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLoop uses loop instead of creating one.
func WithLoop(loop *eventloop.Loop) Option {
	return func(o *options) {
		o.loop = loop
	}
}

// WithRegistryOptions passes options to the registry.
func WithRegistryOptions(opts ...registry.Option) Option {
	return func(o *options) {
		o.registryOpts = append(o.registryOpts, opts...)
	}
}

// WithReactionOptions passes options to the reaction queue.
func WithReactionOptions(opts ...reactions.Option) Option {
	return func(o *options) {
		o.reactionOpts = append(o.reactionOpts, opts...)
	}
}

// New creates a realm for document. A nil document gets an empty one.
func New(host hostvalue.Host, document *dom.Node, opts ...Option) *Realm {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if document == nil {
		document = dom.NewDocument()
	}
	loop := o.loop
	if loop == nil {
		loop = eventloop.New(eventloop.WithLogger(o.logger))
	}

	queue := reactions.New(host, append([]reactions.Option{reactions.WithLogger(o.logger)}, o.reactionOpts...)...)
	reg := registry.New(host, document, queue, loop,
		append([]registry.Option{registry.WithLogger(o.logger)}, o.registryOpts...)...)
	queue.Bind(reg)

	return &Realm{
		Host:      host,
		Document:  document,
		Loop:      loop,
		Reactions: queue,
		Registry:  reg,
		logger:    o.logger.With("component", "realm"),
	}
}

// Define defines a custom element and runs the resulting upgrades.
func (r *Realm) Define(ctx context.Context, name string, ctor hostvalue.Value, opts registry.DefineOptions) error {
	defer r.Reactions.Process()
	return r.Registry.Define(ctx, name, ctor, opts)
}

// Upgrade upgrades root's shadow-including inclusive descendants.
func (r *Realm) Upgrade(ctx context.Context, root *dom.Node) {
	defer r.Reactions.Process()
	r.Registry.Upgrade(ctx, root)
}

// AppendChild appends child to parent. Newly connected custom elements get
// connectedCallback; other connected elements are tried for upgrade.
func (r *Realm) AppendChild(parent, child *dom.Node) error {
	defer r.Reactions.Process()
	if err := parent.AppendChild(child); err != nil {
		return err
	}
	if !child.IsConnected() {
		return nil
	}
	child.ForEachShadowIncludingInclusiveDescendant(func(n *dom.Node) dom.TraversalDecision {
		if !n.IsElement() {
			return dom.Continue
		}
		if n.IsCustom() {
			r.Reactions.EnqueueCallbackReaction(n, definition.ConnectedCallback)
		} else {
			r.Reactions.TryToUpgrade(n)
		}
		return dom.Continue
	})
	return nil
}

// RemoveChild removes child from parent. Custom elements that were
// connected get disconnectedCallback.
func (r *Realm) RemoveChild(parent, child *dom.Node) error {
	defer r.Reactions.Process()
	wasConnected := child.IsConnected()
	if err := parent.RemoveChild(child); err != nil {
		return err
	}
	if !wasConnected {
		return nil
	}
	child.ForEachShadowIncludingInclusiveDescendant(func(n *dom.Node) dom.TraversalDecision {
		if n.IsCustom() {
			r.Reactions.EnqueueCallbackReaction(n, definition.DisconnectedCallback)
		}
		return dom.Continue
	})
	return nil
}

// SetAttribute sets an attribute, queueing attributeChangedCallback for
// custom elements that observe it.
func (r *Realm) SetAttribute(el *dom.Node, name, value string) {
	defer r.Reactions.Process()
	old, had := el.SetAttr(name, value)
	if !el.IsCustom() {
		return
	}
	var oldValue hostvalue.Value
	if had {
		oldValue = old
	}
	r.Reactions.EnqueueCallbackReaction(el, definition.AttributeChangedCallback, name, oldValue, value, nil)
}

// Do runs fn on the realm's loop and waits for it.
func (r *Realm) Do(ctx context.Context, fn func()) error {
	return r.Loop.Do(ctx, fn)
}

// Run runs the realm's loop until ctx is done or the realm is closed.
func (r *Realm) Run(ctx context.Context) error {
	return r.Loop.Run(ctx)
}

// Close tears the realm down. Pending when-defined futures are rejected
// and their reactions delivered before the loop stops. Call it from the
// loop, or after Run has returned.
func (r *Realm) Close() {
	r.Registry.Close()
	r.Loop.PerformMicrotaskCheckpoint()
	r.Loop.Close()
	r.logger.Debug("realm closed", "definitions", r.Registry.Len())
}
