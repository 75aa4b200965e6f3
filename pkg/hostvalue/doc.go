// Package hostvalue describes how the element registry talks to values owned
// by the embedding script host.
//
// The registry never assumes host values behave. Every property read may
// fail, may run arbitrary host code, and may call back into the registry.
// Host is the port through which all of that happens; the conversions in
// this package turn raw host values into the two shapes a definition needs:
//
//   - ToCallback converts a value into a Callback bound to the host's
//     incumbent context.
//   - ToStringSequence converts an iterable into an ordered []string using
//     the pull-style iterator protocol.
//
// # Iteration
//
// Host iterators are exposed as a Go range-over-func producer:
//
//	for v, err := range hostvalue.Values(it) {
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	}
//
// The producer stops at the first error; partial results are the caller's
// to discard.
package hostvalue
