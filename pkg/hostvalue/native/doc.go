// Package native is an in-process script host for the element registry.
//
// It models just enough of a dynamic object system for definitions to be
// written in Go: objects with data and accessor properties, functions that
// may or may not be constructors, arrays and arbitrary iterables that follow
// the next()/done/value protocol, and string conversion that runs
// user-defined toString methods. Getters are plain Go closures, so they can
// fail or call back into the registry exactly like script getters.
package native
