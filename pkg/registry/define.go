package registry

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/elements/pkg/customname"
	"github.com/vango-dev/elements/pkg/definition"
	"github.com/vango-dev/elements/pkg/dom"
	"github.com/vango-dev/elements/pkg/hostvalue"
)

// Feature names recognised in a constructor's disabledFeatures.
const (
	FeatureInternals = "internals"
	FeatureShadow    = "shadow"
)

// DefineOptions are the options passed with a definition.
type DefineOptions struct {
	// Extends names the built-in element being customized. nil defines
	// an autonomous custom element.
	Extends *string
}

// Extends returns options customizing the built-in element tag.
func Extends(tag string) DefineOptions {
	return DefineOptions{Extends: &tag}
}

// Define registers ctor under name. On failure nothing is recorded and the
// returned error is a *DefinitionError, or ErrRegistryClosed.
//
// Getters on ctor and its prototype run during Define. A getter that calls
// Define again on the same registry gets KindRecursiveDefinition.
func (r *Registry) Define(ctx context.Context, name string, ctor hostvalue.Value, opts DefineOptions) error {
	attrs := []attribute.KeyValue{attribute.String("elements.name", name)}
	if opts.Extends != nil {
		attrs = append(attrs, attribute.String("elements.extends", *opts.Extends))
	}
	_, span := r.tracer.Start(ctx, "registry.Define", trace.WithAttributes(attrs...))
	defer span.End()

	if r.closed {
		span.RecordError(ErrRegistryClosed)
		span.SetStatus(codes.Error, ErrRegistryClosed.Error())
		return ErrRegistryClosed
	}

	def, candidates, derr := r.define(name, ctor, opts)
	if derr != nil {
		span.RecordError(derr)
		span.SetStatus(codes.Error, derr.Error())
		span.SetAttributes(attribute.String("elements.error_kind", derr.Kind.String()))
		r.logger.Debug("definition failed", "name", name, "kind", derr.Kind.String(), "error", derr)
		for _, o := range r.observers {
			o.DefineFailed(name, derr)
		}
		return derr
	}

	span.SetAttributes(
		attribute.String("elements.local_name", def.LocalName()),
		attribute.Int("elements.upgrade_candidates", candidates),
	)
	span.SetStatus(codes.Ok, "")
	r.logger.Info("element defined",
		"name", def.Name(),
		"local_name", def.LocalName(),
		"candidates", candidates,
		"form_associated", def.FormAssociated(),
	)
	for _, o := range r.observers {
		o.Defined(def, candidates)
	}
	return nil
}

func (r *Registry) define(name string, ctor hostvalue.Value, opts DefineOptions) (*definition.Definition, int, *DefinitionError) {
	if !r.host.IsConstructor(ctor) {
		return nil, 0, newError(KindNotAConstructor, name, "%s is not a constructor", r.host.Describe(ctor))
	}
	if !customname.IsValid(name) {
		return nil, 0, newError(KindInvalidName, name, "%q is not a valid custom element name", name)
	}
	if r.byName(name) != nil {
		return nil, 0, newError(KindNameAlreadyDefined, name, "this name has already been used with this registry")
	}
	if r.byConstructor(ctor) != nil {
		return nil, 0, newError(KindConstructorAlreadyInUse, name, "this constructor has already been used with this registry")
	}

	localName := name
	if opts.Extends != nil {
		extends := *opts.Extends
		if customname.IsValid(extends) {
			return nil, 0, newError(KindExtendsIsCustomName, name, "%q is a valid custom element name, so it cannot be extended", extends)
		}
		if customname.IsUnknownBaseTag(extends) {
			return nil, 0, newError(KindExtendsUnknownTag, name, "%q is not a known element", extends)
		}
		localName = extends
	}

	if r.running {
		return nil, 0, newError(KindRecursiveDefinition, name, "cannot define an element while defining another element")
	}

	params, derr := r.extract(name, ctor)
	if derr != nil {
		return nil, 0, derr
	}
	params.Name = name
	params.LocalName = localName
	params.Constructor = ctor

	def := definition.New(params)
	r.definitions = append(r.definitions, def)

	candidates := r.upgradeCandidates(def, opts.Extends != nil)
	for _, el := range candidates {
		r.reactions.EnqueueUpgradeReaction(el, def)
	}

	if f, ok := r.whenDefined[name]; ok {
		_ = f.Resolve(ctor)
		delete(r.whenDefined, name)
	}
	return def, len(candidates), nil
}

// extract reads the definition's fields off ctor. The definition-running
// flag is held for exactly the duration of the call.
func (r *Registry) extract(name string, ctor hostvalue.Value) (definition.Params, *DefinitionError) {
	r.running = true
	defer func() { r.running = false }()

	var p definition.Params

	proto, err := r.host.Get(ctor, "prototype")
	if err != nil {
		return p, extractionError(name, "get prototype", err)
	}
	if !r.host.IsObject(proto) {
		return p, newError(KindNotAnObject, name, "prototype is not an object: %s", r.host.Describe(proto))
	}

	p.Callbacks = definition.NewCallbacks()
	for _, cbName := range definition.LifecycleNames {
		cb, derr := r.callback(name, proto, cbName)
		if derr != nil {
			return p, derr
		}
		p.Callbacks.Set(cbName, cb)
	}

	if p.Callbacks.Get(definition.AttributeChangedCallback) != nil {
		observed, derr := r.stringSequence(name, ctor, "observedAttributes")
		if derr != nil {
			return p, derr
		}
		p.ObservedAttributes = observed
	}

	disabled, derr := r.stringSequence(name, ctor, "disabledFeatures")
	if derr != nil {
		return p, derr
	}
	p.DisableInternals = slices.Contains(disabled, FeatureInternals)
	p.DisableShadow = slices.Contains(disabled, FeatureShadow)

	formAssociated, err := r.host.Get(ctor, "formAssociated")
	if err != nil {
		return p, extractionError(name, "get formAssociated", err)
	}
	p.FormAssociated = r.host.ToBoolean(formAssociated)

	if p.FormAssociated {
		for _, cbName := range definition.FormNames {
			cb, derr := r.callback(name, proto, cbName)
			if derr != nil {
				return p, derr
			}
			p.Callbacks.Set(cbName, cb)
		}
	}
	return p, nil
}

// callback reads a hook off proto. Undefined hooks return nil.
func (r *Registry) callback(name string, proto hostvalue.Value, cbName definition.CallbackName) (*hostvalue.Callback, *DefinitionError) {
	v, err := r.host.Get(proto, string(cbName))
	if err != nil {
		return nil, extractionError(name, "get "+string(cbName), err)
	}
	if r.host.IsUndefined(v) {
		return nil, nil
	}
	cb, err := hostvalue.ToCallback(r.host, v)
	if err != nil {
		return nil, extractionError(name, string(cbName), err)
	}
	return cb, nil
}

// stringSequence reads key off ctor. Undefined yields nil.
func (r *Registry) stringSequence(name string, ctor hostvalue.Value, key string) ([]string, *DefinitionError) {
	v, err := r.host.Get(ctor, key)
	if err != nil {
		return nil, extractionError(name, "get "+key, err)
	}
	if r.host.IsUndefined(v) {
		return nil, nil
	}
	seq, err := hostvalue.ToStringSequence(r.host, v)
	if err != nil {
		return nil, extractionError(name, key, err)
	}
	return seq, nil
}

// upgradeCandidates returns the document's HTML elements matching def, in
// shadow-including tree order.
func (r *Registry) upgradeCandidates(def *definition.Definition, customizedBuiltin bool) []*dom.Node {
	if r.document == nil {
		return nil
	}
	var out []*dom.Node
	r.document.ForEachShadowIncludingDescendant(func(n *dom.Node) dom.TraversalDecision {
		if !n.IsHTML() || n.LocalName != def.LocalName() {
			return dom.Continue
		}
		if customizedBuiltin && n.Is() != def.Name() {
			return dom.Continue
		}
		out = append(out, n)
		return dom.Continue
	})
	return out
}
