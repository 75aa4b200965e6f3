package native

import (
	"fmt"
	"strconv"

	"github.com/vango-dev/elements/pkg/hostvalue"
)

// IteratorKey is the property key holding an object's iteration method.
const IteratorKey = "@@iterator"

type undefinedValue struct{}

type nullValue struct{}

var (
	// Undefined is the absent value. A Go nil is treated the same way.
	Undefined hostvalue.Value = undefinedValue{}

	// Null is the explicit empty value.
	Null hostvalue.Value = nullValue{}
)

// Symbol is a unique value that refuses implicit string conversion.
type Symbol struct {
	Description string
}

// Exception is an error raised by host code.
type Exception struct {
	// Name is the error class, e.g. "TypeError".
	Name string

	// Message is the error text.
	Message string
}

func (e *Exception) Error() string {
	return e.Name + ": " + e.Message
}

// Throw returns an Exception with the given class and message.
func Throw(name, format string, args ...any) *Exception {
	return &Exception{Name: name, Message: fmt.Sprintf(format, args...)}
}

// TypeError returns a TypeError exception.
func TypeError(format string, args ...any) *Exception {
	return Throw("TypeError", format, args...)
}

type property struct {
	value  hostvalue.Value
	getter func() (hostvalue.Value, error)
}

// Object is a bag of data and accessor properties.
type Object struct {
	class string
	keys  []string
	props map[string]*property
}

// NewObject returns an empty plain object.
func NewObject() *Object {
	return &Object{class: "Object", props: make(map[string]*property)}
}

// Set defines a data property, replacing any previous definition.
func (o *Object) Set(key string, v hostvalue.Value) *Object {
	o.define(key, &property{value: v})
	return o
}

// DefineGetter defines an accessor property. The getter runs on every read
// and may fail.
func (o *Object) DefineGetter(key string, getter func() (hostvalue.Value, error)) *Object {
	o.define(key, &property{getter: getter})
	return o
}

// Delete removes a property.
func (o *Object) Delete(key string) {
	if _, ok := o.props[key]; !ok {
		return
	}
	delete(o.props, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the property keys in definition order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Class returns the object's class tag ("Object", "Array", "Function").
func (o *Object) Class() string {
	return o.class
}

func (o *Object) define(key string, p *property) {
	if o.props == nil {
		o.props = make(map[string]*property)
	}
	if _, ok := o.props[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.props[key] = p
}

func (o *Object) get(key string) (hostvalue.Value, error) {
	p, ok := o.props[key]
	if !ok {
		return Undefined, nil
	}
	if p.getter != nil {
		return p.getter()
	}
	return p.value, nil
}

// CallFunc is the behaviour of a callable function.
type CallFunc func(this hostvalue.Value, args []hostvalue.Value) (hostvalue.Value, error)

// ConstructFunc is the behaviour of a constructor.
type ConstructFunc func(newTarget hostvalue.Value, args []hostvalue.Value) (hostvalue.Value, error)

// Function is a callable object. It is a constructor only when it has a
// construct behaviour.
type Function struct {
	Object
	name      string
	call      CallFunc
	construct ConstructFunc
}

// NewFunction returns a plain callable function that cannot be constructed.
func NewFunction(name string, call CallFunc) *Function {
	f := &Function{name: name, call: call}
	f.class = "Function"
	f.props = make(map[string]*property)
	return f
}

// NewConstructor returns a class-like function. Calling it without
// construct fails; its "prototype" is a fresh object whose "constructor"
// points back at it.
func NewConstructor(name string, construct ConstructFunc) *Function {
	f := &Function{name: name, construct: construct}
	f.class = "Function"
	f.props = make(map[string]*property)
	proto := NewObject()
	proto.Set("constructor", f)
	f.Set("prototype", proto)
	return f
}

// NewClass returns a constructor whose instances are plain objects.
func NewClass(name string) *Function {
	return NewConstructor(name, func(hostvalue.Value, []hostvalue.Value) (hostvalue.Value, error) {
		return NewObject(), nil
	})
}

// Name returns the function's name.
func (f *Function) Name() string {
	return f.name
}

// Prototype returns the "prototype" data property when it is a plain
// object, or nil.
func (f *Function) Prototype() *Object {
	p, ok := f.props["prototype"]
	if !ok || p.getter != nil {
		return nil
	}
	proto, _ := p.value.(*Object)
	return proto
}

// NewArray returns an array-like object holding values, iterable through
// IteratorKey like a script array.
func NewArray(values ...hostvalue.Value) *Object {
	arr := NewObject()
	arr.class = "Array"
	for i, v := range values {
		arr.Set(strconv.Itoa(i), v)
	}
	arr.Set("length", float64(len(values)))
	arr.Set(IteratorKey, arrayValues)
	return arr
}

// arrayValues walks "length" and the indexed properties of its receiver
// on every step, so getters and later mutations are observed.
var arrayValues = NewFunction("values", func(this hostvalue.Value, _ []hostvalue.Value) (hostvalue.Value, error) {
	index := 0
	it := NewObject()
	it.Set("next", NewFunction("next", func(hostvalue.Value, []hostvalue.Value) (hostvalue.Value, error) {
		lengthValue, err := get(this, "length")
		if err != nil {
			return nil, err
		}
		length, _ := lengthValue.(float64)
		result := NewObject()
		if float64(index) >= length {
			result.Set("done", true).Set("value", Undefined)
			return result, nil
		}
		v, err := get(this, strconv.Itoa(index))
		if err != nil {
			return nil, err
		}
		index++
		result.Set("done", false).Set("value", v)
		return result, nil
	}))
	return it, nil
})

// NewIterable returns an object whose iteration method yields values from
// next until it reports done. next may fail.
func NewIterable(next func() (hostvalue.Value, bool, error)) *Object {
	obj := NewObject()
	obj.Set(IteratorKey, NewFunction("[Symbol.iterator]", func(hostvalue.Value, []hostvalue.Value) (hostvalue.Value, error) {
		it := NewObject()
		it.Set("next", NewFunction("next", func(hostvalue.Value, []hostvalue.Value) (hostvalue.Value, error) {
			v, done, err := next()
			if err != nil {
				return nil, err
			}
			result := NewObject()
			if done {
				return result.Set("done", true), nil
			}
			return result.Set("done", false).Set("value", v), nil
		}))
		return it, nil
	}))
	return obj
}

func isUndefined(v hostvalue.Value) bool {
	return v == nil || v == Undefined
}

func isNullish(v hostvalue.Value) bool {
	return isUndefined(v) || v == Null
}

func get(v hostvalue.Value, key string) (hostvalue.Value, error) {
	switch o := v.(type) {
	case *Object:
		return o.get(key)
	case *Function:
		return o.get(key)
	}
	if isNullish(v) {
		return nil, TypeError("Cannot read properties of %s (reading '%s')", describe(v), key)
	}
	return Undefined, nil
}

func describe(v hostvalue.Value) string {
	switch x := v.(type) {
	case nil, undefinedValue:
		return "undefined"
	case nullValue:
		return "null"
	case string:
		return strconv.Quote(x)
	case bool:
		return strconv.FormatBool(x)
	case *Symbol:
		return "Symbol(" + x.Description + ")"
	case *Object:
		return "[object " + x.class + "]"
	case *Function:
		return "function " + x.name
	}
	if s, ok := formatNumber(v); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
