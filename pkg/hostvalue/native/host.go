package native

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/vango-dev/elements/pkg/hostvalue"
)

// Host implements hostvalue.Host over the values in this package.
type Host struct {
	name      string
	incumbent any
}

var _ hostvalue.Host = (*Host)(nil)

// NewHost returns a host whose incumbent context is its name.
func NewHost(name string) *Host {
	return &Host{name: name, incumbent: name}
}

// Name returns the host name.
func (h *Host) Name() string {
	return h.name
}

// WithIncumbent runs fn with ctx as the incumbent context.
func (h *Host) WithIncumbent(ctx any, fn func()) {
	prev := h.incumbent
	h.incumbent = ctx
	defer func() { h.incumbent = prev }()
	fn()
}

// Incumbent implements hostvalue.Host.
func (h *Host) Incumbent() any {
	return h.incumbent
}

// IsUndefined implements hostvalue.Host.
func (h *Host) IsUndefined(v hostvalue.Value) bool {
	return isUndefined(v)
}

// IsObject implements hostvalue.Host.
func (h *Host) IsObject(v hostvalue.Value) bool {
	switch v.(type) {
	case *Object, *Function:
		return true
	}
	return false
}

// IsCallable implements hostvalue.Host.
func (h *Host) IsCallable(v hostvalue.Value) bool {
	f, ok := v.(*Function)
	return ok && (f.call != nil || f.construct != nil)
}

// IsConstructor implements hostvalue.Host.
func (h *Host) IsConstructor(v hostvalue.Value) bool {
	f, ok := v.(*Function)
	return ok && f.construct != nil
}

// SameValue implements hostvalue.Host.
func (h *Host) SameValue(a, b hostvalue.Value) bool {
	if isUndefined(a) || isUndefined(b) {
		return isUndefined(a) && isUndefined(b)
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// Get implements hostvalue.Host.
func (h *Host) Get(obj hostvalue.Value, key string) (hostvalue.Value, error) {
	return get(obj, key)
}

// IterationMethod implements hostvalue.Host.
func (h *Host) IterationMethod(v hostvalue.Value) (hostvalue.Value, error) {
	method, err := get(v, IteratorKey)
	if err != nil {
		return nil, err
	}
	if isNullish(method) {
		return Undefined, nil
	}
	if !h.IsCallable(method) {
		return nil, TypeError("%s is not a function", describe(method))
	}
	return method, nil
}

// IteratorFromMethod implements hostvalue.Host.
func (h *Host) IteratorFromMethod(v, method hostvalue.Value) (hostvalue.Iterator, error) {
	it, err := h.Call(method, v)
	if err != nil {
		return nil, err
	}
	if !h.IsObject(it) {
		return nil, TypeError("Result of the Symbol.iterator method is not an object")
	}
	next, err := get(it, "next")
	if err != nil {
		return nil, err
	}
	return &iterator{host: h, obj: it, next: next}, nil
}

// ToString implements hostvalue.Host.
func (h *Host) ToString(v hostvalue.Value) (string, error) {
	switch x := v.(type) {
	case nil, undefinedValue:
		return "undefined", nil
	case nullValue:
		return "null", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case *Symbol:
		return "", TypeError("Cannot convert a Symbol value to a string")
	case *Object, *Function:
		return h.objectToString(v)
	}
	if s, ok := formatNumber(v); ok {
		return s, nil
	}
	return describe(v), nil
}

func (h *Host) objectToString(v hostvalue.Value) (string, error) {
	toString, err := get(v, "toString")
	if err != nil {
		return "", err
	}
	if h.IsCallable(toString) {
		r, err := h.Call(toString, v)
		if err != nil {
			return "", err
		}
		if h.IsObject(r) {
			return "", TypeError("Cannot convert object to primitive value")
		}
		return h.ToString(r)
	}
	if o, ok := v.(*Object); ok && o.class == "Array" {
		return h.joinArray(o)
	}
	if f, ok := v.(*Function); ok {
		return "function " + f.name + "() { [native code] }", nil
	}
	return "[object Object]", nil
}

func (h *Host) joinArray(arr *Object) (string, error) {
	lengthValue, err := arr.get("length")
	if err != nil {
		return "", err
	}
	length, _ := lengthValue.(float64)
	parts := make([]string, 0, int(length))
	for i := 0; i < int(length); i++ {
		item, err := arr.get(strconv.Itoa(i))
		if err != nil {
			return "", err
		}
		if isNullish(item) {
			parts = append(parts, "")
			continue
		}
		s, err := h.ToString(item)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ","), nil
}

// ToBoolean implements hostvalue.Host.
func (h *Host) ToBoolean(v hostvalue.Value) bool {
	switch x := v.(type) {
	case nil, undefinedValue, nullValue:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	case int64:
		return x != 0
	}
	return true
}

// Describe implements hostvalue.Host.
func (h *Host) Describe(v hostvalue.Value) string {
	return describe(v)
}

// Construct implements hostvalue.Host.
func (h *Host) Construct(ctor, newTarget hostvalue.Value, args ...hostvalue.Value) (hostvalue.Value, error) {
	f, ok := ctor.(*Function)
	if !ok || f.construct == nil {
		return nil, TypeError("%s is not a constructor", describe(ctor))
	}
	return f.construct(newTarget, args)
}

// Call implements hostvalue.Host.
func (h *Host) Call(fn, this hostvalue.Value, args ...hostvalue.Value) (hostvalue.Value, error) {
	f, ok := fn.(*Function)
	if !ok {
		return nil, TypeError("%s is not a function", describe(fn))
	}
	if f.call == nil {
		if f.construct != nil {
			return nil, TypeError("Class constructor %s cannot be invoked without 'new'", f.name)
		}
		return nil, TypeError("%s is not a function", describe(fn))
	}
	return f.call(this, args)
}

type iterator struct {
	host *Host
	obj  hostvalue.Value
	next hostvalue.Value
}

func (it *iterator) Step() (hostvalue.IterResult, bool, error) {
	result, err := it.host.Call(it.next, it.obj)
	if err != nil {
		return nil, false, err
	}
	if !it.host.IsObject(result) {
		return nil, false, TypeError("Iterator result %s is not an object", describe(result))
	}
	done, err := get(result, "done")
	if err != nil {
		return nil, false, err
	}
	if it.host.ToBoolean(done) {
		return nil, false, nil
	}
	return result, true, nil
}

func (it *iterator) Value(result hostvalue.IterResult) (hostvalue.Value, error) {
	return get(result, "value")
}

func formatNumber(v hostvalue.Value) (string, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	default:
		return "", false
	}
	switch {
	case math.IsNaN(f):
		return "NaN", true
	case math.IsInf(f, 1):
		return "Infinity", true
	case math.IsInf(f, -1):
		return "-Infinity", true
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}
