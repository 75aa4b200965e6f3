package hostvalue

import "iter"

// Value is an opaque value owned by the host.
type Value any

// IterResult is the opaque result object produced by one iterator step.
type IterResult = Value

// Host is the registry's view of the script host.
//
// Methods that can run host code return an error; the error is whatever the
// host raised and is propagated unchanged.
type Host interface {
	// IsUndefined reports whether v is the host's "undefined" value.
	IsUndefined(v Value) bool

	// IsObject reports whether v is an object (functions included).
	IsObject(v Value) bool

	// IsCallable reports whether v can be called.
	IsCallable(v Value) bool

	// IsConstructor reports whether v can be used with construct.
	IsConstructor(v Value) bool

	// SameValue reports whether a and b are the same host value.
	SameValue(a, b Value) bool

	// Get reads property key from obj, running getters.
	Get(obj Value, key string) (Value, error)

	// IterationMethod returns v's iteration method, or undefined when v
	// has none. It fails if the method exists but is not callable.
	IterationMethod(v Value) (Value, error)

	// IteratorFromMethod calls method on v and returns the iterator.
	IteratorFromMethod(v Value, method Value) (Iterator, error)

	// ToString converts v to text, running host conversion hooks.
	ToString(v Value) (string, error)

	// ToBoolean converts v by truthiness.
	ToBoolean(v Value) bool

	// Describe returns a description of v without running host code.
	Describe(v Value) string

	// Incumbent returns the context callbacks should later run in.
	Incumbent() any

	// Construct runs ctor as a constructor with the given new target.
	Construct(ctor Value, newTarget Value, args ...Value) (Value, error)

	// Call invokes fn with the given receiver.
	Call(fn Value, this Value, args ...Value) (Value, error)
}

// Iterator is a host pull iterator.
type Iterator interface {
	// Step advances the iterator. ok is false at the end of the sequence.
	Step() (result IterResult, ok bool, err error)

	// Value reads the current value out of a step result.
	Value(result IterResult) (Value, error)
}

// Values returns a producer over it. Iteration stops at the end of the
// sequence or after yielding the first error.
func Values(it Iterator) iter.Seq2[Value, error] {
	return func(yield func(Value, error) bool) {
		for {
			result, ok, err := it.Step()
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok {
				return
			}
			v, err := it.Value(result)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Callback is a host function converted for later invocation.
type Callback struct {
	// Func is the callable host value.
	Func Value

	// Incumbent is the host context captured at conversion time.
	Incumbent any
}

// Invoke calls the callback with the given receiver.
func (c *Callback) Invoke(h Host, this Value, args ...Value) (Value, error) {
	return h.Call(c.Func, this, args...)
}
