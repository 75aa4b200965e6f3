// Package registry implements the custom element registry: define, get,
// getName, whenDefined and upgrade.
//
// # Defining
//
// Define validates its arguments in a fixed order, then reads the
// constructor's prototype, lifecycle callbacks, observedAttributes,
// disabledFeatures and formAssociated. Those reads run host getters, which
// may fail or call back into the registry. Nothing is recorded unless every
// read succeeds:
//
//	err := reg.Define(ctx, "x-counter", ctor, registry.DefineOptions{})
//	var derr *registry.DefinitionError
//	if errors.As(err, &derr) {
//	    log.Printf("%s (%s)", derr, derr.Class())
//	}
//
// Once committed, every matching element in the document is handed to the
// ElementReactions collaborator for upgrade, in shadow-including tree
// order, and a pending WhenDefined future for the name is fulfilled.
//
// # Futures
//
// WhenDefined always returns a future. Its reactions run on the registry's
// scheduler, never inside Define.
//
// # Concurrency
//
// A Registry belongs to one realm and must only be used from that realm's
// event loop.
package registry
