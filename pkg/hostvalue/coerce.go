package hostvalue

import (
	"errors"
	"fmt"
)

var (
	// ErrNotCallable is returned when a callback conversion gets a value
	// that cannot be called.
	ErrNotCallable = errors.New("not a function")

	// ErrNotAnObject is returned when a sequence conversion gets a
	// primitive.
	ErrNotAnObject = errors.New("not an object")

	// ErrNotIterable is returned when a sequence conversion gets an object
	// without an iteration method.
	ErrNotIterable = errors.New("not iterable")

	// ErrStringifyFailed wraps a host error raised while converting a
	// sequence item to text.
	ErrStringifyFailed = errors.New("string conversion failed")
)

// TypeError is a conversion failure on a specific value.
type TypeError struct {
	// Err is one of the package sentinels.
	Err error

	// Value describes the offending value.
	Value string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s is %s", e.Value, e.Err)
}

func (e *TypeError) Unwrap() error {
	return e.Err
}

// ToCallback converts v into a Callback bound to the host's incumbent
// context.
func ToCallback(h Host, v Value) (*Callback, error) {
	if !h.IsCallable(v) {
		return nil, &TypeError{Err: ErrNotCallable, Value: h.Describe(v)}
	}
	return &Callback{Func: v, Incumbent: h.Incumbent()}, nil
}

// ToStringSequence converts an iterable host value into its items' text, in
// iteration order. Any failure discards what was collected so far.
func ToStringSequence(h Host, v Value) ([]string, error) {
	if !h.IsObject(v) {
		return nil, &TypeError{Err: ErrNotAnObject, Value: h.Describe(v)}
	}

	method, err := h.IterationMethod(v)
	if err != nil {
		return nil, err
	}
	if h.IsUndefined(method) {
		return nil, &TypeError{Err: ErrNotIterable, Value: h.Describe(v)}
	}

	it, err := h.IteratorFromMethod(v, method)
	if err != nil {
		return nil, err
	}

	out := []string{}
	for item, err := range Values(it) {
		if err != nil {
			return nil, err
		}
		s, err := h.ToString(item)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStringifyFailed, err)
		}
		out = append(out, s)
	}
	return out, nil
}
