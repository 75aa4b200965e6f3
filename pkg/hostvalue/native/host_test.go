package native

import (
	"errors"
	"math"
	"testing"

	"github.com/vango-dev/elements/pkg/hostvalue"
)

func TestHostPredicates(t *testing.T) {
	h := NewHost("test")
	fn := NewFunction("f", func(hostvalue.Value, []hostvalue.Value) (hostvalue.Value, error) { return nil, nil })
	class := NewClass("C")

	tests := []struct {
		name          string
		value         hostvalue.Value
		object        bool
		callable      bool
		constructable bool
	}{
		{"undefined", Undefined, false, false, false},
		{"string", "s", false, false, false},
		{"object", NewObject(), true, false, false},
		{"array", NewArray(), true, false, false},
		{"function", fn, true, true, false},
		{"class", class, true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.IsObject(tt.value); got != tt.object {
				t.Errorf("IsObject = %v, want %v", got, tt.object)
			}
			if got := h.IsCallable(tt.value); got != tt.callable {
				t.Errorf("IsCallable = %v, want %v", got, tt.callable)
			}
			if got := h.IsConstructor(tt.value); got != tt.constructable {
				t.Errorf("IsConstructor = %v, want %v", got, tt.constructable)
			}
		})
	}
}

func TestGetRunsGetters(t *testing.T) {
	h := NewHost("test")
	calls := 0
	obj := NewObject().DefineGetter("x", func() (hostvalue.Value, error) {
		calls++
		return float64(calls), nil
	})

	for want := 1; want <= 2; want++ {
		v, err := h.Get(obj, "x")
		if err != nil {
			t.Fatal(err)
		}
		if v != float64(want) {
			t.Errorf("read %d = %v", want, v)
		}
	}

	missing, err := h.Get(obj, "missing")
	if err != nil || !h.IsUndefined(missing) {
		t.Errorf("missing property = %v, %v", missing, err)
	}

	if _, err := h.Get(Undefined, "x"); err == nil {
		t.Error("reading from undefined should fail")
	}
}

func TestToStringAndBoolean(t *testing.T) {
	h := NewHost("test")
	tests := []struct {
		value  hostvalue.Value
		str    string
		truthy bool
	}{
		{Undefined, "undefined", false},
		{Null, "null", false},
		{"", "", false},
		{"a", "a", true},
		{float64(0), "0", false},
		{math.NaN(), "NaN", false},
		{float64(1.5), "1.5", true},
		{true, "true", true},
		{NewObject(), "[object Object]", true},
		{NewArray("a", Null, float64(2)), "a,,2", true},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			got, err := h.ToString(tt.value)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.str {
				t.Errorf("ToString = %q, want %q", got, tt.str)
			}
			if b := h.ToBoolean(tt.value); b != tt.truthy {
				t.Errorf("ToBoolean = %v, want %v", b, tt.truthy)
			}
		})
	}
}

func TestToStringObjectResultFails(t *testing.T) {
	h := NewHost("test")
	obj := NewObject().Set("toString", NewFunction("toString", func(hostvalue.Value, []hostvalue.Value) (hostvalue.Value, error) {
		return NewObject(), nil
	}))
	if _, err := h.ToString(obj); err == nil {
		t.Error("expected failure when toString returns an object")
	}
}

func TestSameValue(t *testing.T) {
	h := NewHost("test")
	a, b := NewClass("A"), NewClass("A")
	if !h.SameValue(a, a) {
		t.Error("a should equal itself")
	}
	if h.SameValue(a, b) {
		t.Error("distinct constructors must not be equal")
	}
	if h.SameValue([]int{1}, []int{1}) {
		t.Error("incomparable values must not be equal")
	}
	if !h.SameValue(nil, Undefined) {
		t.Error("nil and Undefined are the same value")
	}
}

func TestCallAndConstruct(t *testing.T) {
	h := NewHost("test")
	class := NewClass("Widget")

	if _, err := h.Call(class, Undefined); err == nil {
		t.Error("calling a class without construct should fail")
	}
	instance, err := h.Construct(class, class)
	if err != nil {
		t.Fatal(err)
	}
	if !h.IsObject(instance) {
		t.Errorf("instance = %v, want object", instance)
	}

	fn := NewFunction("f", func(hostvalue.Value, []hostvalue.Value) (hostvalue.Value, error) { return nil, nil })
	_, err = h.Construct(fn, fn)
	var exc *Exception
	if !errors.As(err, &exc) || exc.Name != "TypeError" {
		t.Errorf("Construct(non-constructor) error = %v", err)
	}
}

func TestIteratorProtocolViolations(t *testing.T) {
	h := NewHost("test")

	nonObjectIterator := NewObject().Set(IteratorKey, NewFunction("it", func(hostvalue.Value, []hostvalue.Value) (hostvalue.Value, error) {
		return "not an iterator", nil
	}))
	method, err := h.IterationMethod(nonObjectIterator)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.IteratorFromMethod(nonObjectIterator, method); err == nil {
		t.Error("expected failure for non-object iterator")
	}

	badResult := NewObject().Set(IteratorKey, NewFunction("it", func(hostvalue.Value, []hostvalue.Value) (hostvalue.Value, error) {
		return NewObject().Set("next", NewFunction("next", func(hostvalue.Value, []hostvalue.Value) (hostvalue.Value, error) {
			return float64(3), nil
		})), nil
	}))
	method, _ = h.IterationMethod(badResult)
	it, err := h.IteratorFromMethod(badResult, method)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := it.Step(); err == nil {
		t.Error("expected failure for non-object step result")
	}
}

func TestPrototypeAndKeys(t *testing.T) {
	class := NewClass("Widget")
	proto := class.Prototype()
	if proto == nil {
		t.Fatal("class has no prototype")
	}
	if got, _ := proto.get("constructor"); got != class {
		t.Errorf("prototype.constructor = %v", got)
	}

	proto.Set("a", 1).Set("b", 2)
	proto.Delete("a")
	keys := proto.Keys()
	if len(keys) != 2 || keys[0] != "constructor" || keys[1] != "b" {
		t.Errorf("Keys() = %v", keys)
	}
}
