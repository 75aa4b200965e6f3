package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/elements/pkg/definition"
	"github.com/vango-dev/elements/pkg/dom"
	"github.com/vango-dev/elements/pkg/future"
	"github.com/vango-dev/elements/pkg/hostvalue"
	"github.com/vango-dev/elements/pkg/hostvalue/native"
)

type queue struct {
	tasks []func()
}

func (q *queue) QueueMicrotask(fn func()) { q.tasks = append(q.tasks, fn) }

func (q *queue) drain() {
	for len(q.tasks) > 0 {
		fn := q.tasks[0]
		q.tasks = q.tasks[1:]
		fn()
	}
}

type upgrade struct {
	el  *dom.Node
	def *definition.Definition
}

type fakeReactions struct {
	enqueued []upgrade
	tried    []*dom.Node
	onTry    func(el *dom.Node)
}

func (f *fakeReactions) EnqueueUpgradeReaction(el *dom.Node, def *definition.Definition) {
	f.enqueued = append(f.enqueued, upgrade{el, def})
}

func (f *fakeReactions) TryToUpgrade(el *dom.Node) {
	f.tried = append(f.tried, el)
	if f.onTry != nil {
		f.onTry(el)
	}
}

type fixture struct {
	host      *native.Host
	doc       *dom.Node
	reactions *fakeReactions
	sched     *queue
	reg       *Registry
}

func newFixture(t *testing.T, html string, opts ...Option) *fixture {
	t.Helper()
	doc := dom.NewDocument()
	if html != "" {
		var err error
		doc, err = dom.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatal(err)
		}
	}
	f := &fixture{
		host:      native.NewHost("test"),
		doc:       doc,
		reactions: &fakeReactions{},
		sched:     &queue{},
	}
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	f.reg = New(f.host, doc, f.reactions, f.sched, opts...)
	return f
}

func (f *fixture) define(name string, ctor hostvalue.Value, opts DefineOptions) error {
	return f.reg.Define(context.Background(), name, ctor, opts)
}

func kindOf(err error) ErrorKind {
	var derr *DefinitionError
	if errors.As(err, &derr) {
		return derr.Kind
	}
	return 0
}

func noop(name string) *native.Function {
	return native.NewFunction(name, func(hostvalue.Value, []hostvalue.Value) (hostvalue.Value, error) {
		return native.Undefined, nil
	})
}

func TestDefineThenGet(t *testing.T) {
	f := newFixture(t, "")
	ctor := native.NewClass("XFoo")
	ctor.Prototype().Set("connectedCallback", noop("connectedCallback"))

	if err := f.define("x-foo", ctor, DefineOptions{}); err != nil {
		t.Fatalf("Define() error = %v", err)
	}

	got, ok := f.reg.Get("x-foo")
	if !ok || got != hostvalue.Value(ctor) {
		t.Errorf("Get() = %v, %v", got, ok)
	}
	name, ok := f.reg.GetName(ctor)
	if !ok || name != "x-foo" {
		t.Errorf("GetName() = %q, %v", name, ok)
	}
	if _, ok := f.reg.Get("x-bar"); ok {
		t.Error("Get() found undefined name")
	}
	if _, ok := f.reg.GetName(native.NewClass("Other")); ok {
		t.Error("GetName() found unregistered constructor")
	}

	def := f.reg.DefinitionWithNameAndLocalName("x-foo", "x-foo")
	if def == nil || !def.IsAutonomous() {
		t.Fatalf("DefinitionWithNameAndLocalName() = %v", def)
	}
	if f.reg.DefinitionFromNewTarget(ctor) != def {
		t.Error("DefinitionFromNewTarget() mismatch")
	}
	if def.Callback(definition.ConnectedCallback) == nil {
		t.Error("connectedCallback not recorded")
	}
	if def.Callback(definition.DisconnectedCallback) != nil {
		t.Error("absent hook recorded")
	}
	if f.reg.Len() != 1 || len(f.reg.Definitions()) != 1 {
		t.Errorf("Len() = %d", f.reg.Len())
	}
}

func TestDefineChecksInOrder(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f *fixture) (string, hostvalue.Value, DefineOptions)
		wantKind ErrorKind
		class    string
	}{
		{
			name: "not a constructor wins over bad name",
			setup: func(*fixture) (string, hostvalue.Value, DefineOptions) {
				return "bad", noop("fn"), DefineOptions{}
			},
			wantKind: KindNotAConstructor,
			class:    ClassTypeError,
		},
		{
			name: "plain object",
			setup: func(*fixture) (string, hostvalue.Value, DefineOptions) {
				return "x-foo", native.NewObject(), DefineOptions{}
			},
			wantKind: KindNotAConstructor,
			class:    ClassTypeError,
		},
		{
			name: "invalid name",
			setup: func(*fixture) (string, hostvalue.Value, DefineOptions) {
				return "foo", native.NewClass("Foo"), DefineOptions{}
			},
			wantKind: KindInvalidName,
			class:    ClassSyntaxError,
		},
		{
			name: "reserved name",
			setup: func(*fixture) (string, hostvalue.Value, DefineOptions) {
				return "font-face", native.NewClass("Foo"), DefineOptions{}
			},
			wantKind: KindInvalidName,
			class:    ClassSyntaxError,
		},
		{
			name: "name already defined",
			setup: func(f *fixture) (string, hostvalue.Value, DefineOptions) {
				_ = f.define("x-foo", native.NewClass("First"), DefineOptions{})
				return "x-foo", native.NewClass("Second"), DefineOptions{}
			},
			wantKind: KindNameAlreadyDefined,
			class:    ClassNotSupported,
		},
		{
			name: "constructor already in use",
			setup: func(f *fixture) (string, hostvalue.Value, DefineOptions) {
				ctor := native.NewClass("Shared")
				_ = f.define("x-foo", ctor, DefineOptions{})
				return "x-bar", ctor, DefineOptions{}
			},
			wantKind: KindConstructorAlreadyInUse,
			class:    ClassNotSupported,
		},
		{
			name: "duplicate name checked before duplicate constructor",
			setup: func(f *fixture) (string, hostvalue.Value, DefineOptions) {
				ctor := native.NewClass("Shared")
				_ = f.define("x-foo", ctor, DefineOptions{})
				return "x-foo", ctor, DefineOptions{}
			},
			wantKind: KindNameAlreadyDefined,
			class:    ClassNotSupported,
		},
		{
			name: "extends a custom name",
			setup: func(*fixture) (string, hostvalue.Value, DefineOptions) {
				return "x-foo", native.NewClass("Foo"), Extends("x-bar")
			},
			wantKind: KindExtendsIsCustomName,
			class:    ClassNotSupported,
		},
		{
			name: "extends unknown tag",
			setup: func(*fixture) (string, hostvalue.Value, DefineOptions) {
				return "x-foo", native.NewClass("Foo"), Extends("nope")
			},
			wantKind: KindExtendsUnknownTag,
			class:    ClassNotSupported,
		},
		{
			name: "extends obsolete tag",
			setup: func(*fixture) (string, hostvalue.Value, DefineOptions) {
				return "x-foo", native.NewClass("Foo"), Extends("blink")
			},
			wantKind: KindExtendsUnknownTag,
			class:    ClassNotSupported,
		},
		{
			name: "extends empty string",
			setup: func(*fixture) (string, hostvalue.Value, DefineOptions) {
				return "x-foo", native.NewClass("Foo"), Extends("")
			},
			wantKind: KindExtendsUnknownTag,
			class:    ClassNotSupported,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "")
			name, ctor, opts := tt.setup(f)
			before := f.reg.Len()

			err := f.define(name, ctor, opts)
			if kindOf(err) != tt.wantKind {
				t.Fatalf("Define() error = %v, want kind %v", err, tt.wantKind)
			}
			var derr *DefinitionError
			errors.As(err, &derr)
			if derr.Class() != tt.class {
				t.Errorf("Class() = %q, want %q", derr.Class(), tt.class)
			}
			if f.reg.Len() != before {
				t.Errorf("Len() = %d, want %d", f.reg.Len(), before)
			}
		})
	}
}

func TestDefineCustomizedBuiltin(t *testing.T) {
	f := newFixture(t, `<button is="x-button" id="1"></button><button id="2"></button><div is="x-button" id="3"></div><button is="x-other" id="4"></button><x-button id="5"></x-button>`)
	ctor := native.NewClass("XButton")

	if err := f.define("x-button", ctor, Extends("button")); err != nil {
		t.Fatal(err)
	}
	def := f.reg.DefinitionWithNameAndLocalName("x-button", "button")
	if def == nil || def.IsAutonomous() {
		t.Fatalf("definition = %v", def)
	}
	if f.reg.DefinitionWithNameAndLocalName("x-button", "x-button") != nil {
		t.Error("customized built-in matched its own name as local name")
	}

	if len(f.reactions.enqueued) != 1 {
		t.Fatalf("enqueued %d upgrades, want 1", len(f.reactions.enqueued))
	}
	if id, _ := f.reactions.enqueued[0].el.Attr("id"); id != "1" {
		t.Errorf("candidate id = %s, want 1", id)
	}
}

func TestUpgradeCandidatesInShadowIncludingOrder(t *testing.T) {
	f := newFixture(t, `<div><x-foo id="1"></x-foo><p><template shadowrootmode="open"><x-foo id="2"></x-foo></template><x-foo id="3"></x-foo></p></div><svg><x-foo id="svg"></x-foo></svg>`)
	ctor := native.NewClass("XFoo")

	if err := f.define("x-foo", ctor, DefineOptions{}); err != nil {
		t.Fatal(err)
	}

	var ids []string
	for _, u := range f.reactions.enqueued {
		id, _ := u.el.Attr("id")
		ids = append(ids, id)
		if u.def.Name() != "x-foo" {
			t.Errorf("enqueued with definition %q", u.def.Name())
		}
	}
	if got := strings.Join(ids, ","); got != "1,2,3" {
		t.Errorf("candidates = %s, want 1,2,3", got)
	}
}

func TestRecursiveDefinition(t *testing.T) {
	f := newFixture(t, "")
	inner := native.NewClass("Inner")
	outer := native.NewClass("Outer")
	proto := outer.Prototype()

	var innerErr error
	var guardDuring bool
	outer.DefineGetter("prototype", func() (hostvalue.Value, error) {
		guardDuring = f.reg.DefinitionRunning()
		innerErr = f.define("x-inner", inner, DefineOptions{})
		return proto, nil
	})

	if err := f.define("x-outer", outer, DefineOptions{}); err != nil {
		t.Fatalf("outer Define() error = %v", err)
	}
	if !guardDuring {
		t.Error("guard not held during extraction")
	}
	if kindOf(innerErr) != KindRecursiveDefinition || !errors.Is(innerErr, ErrRecursiveDefinition) {
		t.Errorf("inner error = %v, want RecursiveDefinition", innerErr)
	}
	if f.reg.DefinitionRunning() {
		t.Error("guard still held after Define returned")
	}
	if _, ok := f.reg.Get("x-inner"); ok {
		t.Error("inner definition committed")
	}
	if err := f.define("x-inner", inner, DefineOptions{}); err != nil {
		t.Errorf("Define() after recursion = %v", err)
	}
}

func TestRecursiveDefinitionPropagated(t *testing.T) {
	f := newFixture(t, "")
	outer := native.NewClass("Outer")
	outer.DefineGetter("prototype", func() (hostvalue.Value, error) {
		return nil, f.define("x-inner", native.NewClass("Inner"), DefineOptions{})
	})

	err := f.define("x-outer", outer, DefineOptions{})
	if kindOf(err) != KindThrown || !errors.Is(err, ErrRecursiveDefinition) {
		t.Errorf("Define() error = %v, want thrown RecursiveDefinition", err)
	}
	if f.reg.DefinitionRunning() {
		t.Error("guard still held after failure")
	}
	if f.reg.Len() != 0 {
		t.Errorf("Len() = %d, want 0", f.reg.Len())
	}
}

func TestGuardReleasedOnPanic(t *testing.T) {
	f := newFixture(t, "")
	ctor := native.NewClass("Panics")
	ctor.DefineGetter("prototype", func() (hostvalue.Value, error) {
		panic("getter exploded")
	})

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		_ = f.define("x-panic", ctor, DefineOptions{})
	}()

	if f.reg.DefinitionRunning() {
		t.Error("guard still held after panic")
	}
	if err := f.define("x-after", native.NewClass("After"), DefineOptions{}); err != nil {
		t.Errorf("Define() after panic = %v", err)
	}
}

func TestExtractionFailures(t *testing.T) {
	boom := native.Throw("Error", "boom")

	withAttrChanged := func(ctor *native.Function) *native.Function {
		ctor.Prototype().Set("attributeChangedCallback", noop("attributeChangedCallback"))
		return ctor
	}

	tests := []struct {
		name     string
		ctor     func() *native.Function
		wantKind ErrorKind
		wantErr  error
	}{
		{
			name: "prototype is not an object",
			ctor: func() *native.Function {
				c := native.NewClass("C")
				c.Set("prototype", "nope")
				return c
			},
			wantKind: KindNotAnObject,
		},
		{
			name: "prototype getter throws",
			ctor: func() *native.Function {
				c := native.NewClass("C")
				c.DefineGetter("prototype", func() (hostvalue.Value, error) { return nil, boom })
				return c
			},
			wantKind: KindThrown,
			wantErr:  boom,
		},
		{
			name: "callback not callable",
			ctor: func() *native.Function {
				c := native.NewClass("C")
				c.Prototype().Set("disconnectedCallback", "not a function")
				return c
			},
			wantKind: KindNotCallable,
			wantErr:  hostvalue.ErrNotCallable,
		},
		{
			name: "callback getter throws",
			ctor: func() *native.Function {
				c := native.NewClass("C")
				c.Prototype().DefineGetter("adoptedCallback", func() (hostvalue.Value, error) { return nil, boom })
				return c
			},
			wantKind: KindThrown,
			wantErr:  boom,
		},
		{
			name: "observedAttributes not an object",
			ctor: func() *native.Function {
				c := withAttrChanged(native.NewClass("C"))
				c.Set("observedAttributes", float64(5))
				return c
			},
			wantKind: KindNotAnObject,
			wantErr:  hostvalue.ErrNotAnObject,
		},
		{
			name: "observedAttributes not iterable",
			ctor: func() *native.Function {
				c := withAttrChanged(native.NewClass("C"))
				c.Set("observedAttributes", native.NewObject())
				return c
			},
			wantKind: KindNotIterable,
			wantErr:  hostvalue.ErrNotIterable,
		},
		{
			name: "observedAttributes stringify fails",
			ctor: func() *native.Function {
				c := withAttrChanged(native.NewClass("C"))
				bad := native.NewObject().Set("toString", native.NewFunction("toString", func(hostvalue.Value, []hostvalue.Value) (hostvalue.Value, error) {
					return nil, boom
				}))
				c.Set("observedAttributes", native.NewArray("ok", bad))
				return c
			},
			wantKind: KindStringifyFailed,
			wantErr:  boom,
		},
		{
			name: "disabledFeatures not iterable",
			ctor: func() *native.Function {
				c := native.NewClass("C")
				c.Set("disabledFeatures", native.NewObject())
				return c
			},
			wantKind: KindNotIterable,
		},
		{
			name: "formAssociated getter throws",
			ctor: func() *native.Function {
				c := native.NewClass("C")
				c.DefineGetter("formAssociated", func() (hostvalue.Value, error) { return nil, boom })
				return c
			},
			wantKind: KindThrown,
			wantErr:  boom,
		},
		{
			name: "form callback not callable",
			ctor: func() *native.Function {
				c := native.NewClass("C")
				c.Set("formAssociated", true)
				c.Prototype().Set("formResetCallback", float64(1))
				return c
			},
			wantKind: KindNotCallable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, `<x-foo></x-foo>`)
			pending := f.reg.WhenDefined("x-foo")

			err := f.define("x-foo", tt.ctor(), DefineOptions{})
			if kindOf(err) != tt.wantKind {
				t.Fatalf("Define() error = %v, want kind %v", err, tt.wantKind)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Define() error = %v, want wrapping %v", err, tt.wantErr)
			}
			if f.reg.Len() != 0 {
				t.Error("definition committed after extraction failure")
			}
			if len(f.reactions.enqueued) != 0 {
				t.Error("upgrade enqueued after extraction failure")
			}
			if pending.State() != future.StatePending {
				t.Errorf("when-defined future = %v, want pending", pending.State())
			}
			if f.reg.DefinitionRunning() {
				t.Error("guard still held")
			}
		})
	}
}

func TestObservedAttributes(t *testing.T) {
	t.Run("read when attributeChangedCallback present", func(t *testing.T) {
		f := newFixture(t, "")
		ctor := native.NewClass("C")
		ctor.Prototype().Set("attributeChangedCallback", noop("cb"))
		ctor.Set("observedAttributes", native.NewArray("b", "a", float64(1)))

		if err := f.define("x-foo", ctor, DefineOptions{}); err != nil {
			t.Fatal(err)
		}
		got := f.reg.DefinitionFromNewTarget(ctor).ObservedAttributes()
		if strings.Join(got, ",") != "b,a,1" {
			t.Errorf("ObservedAttributes() = %v", got)
		}
	})

	t.Run("ignored without attributeChangedCallback", func(t *testing.T) {
		f := newFixture(t, "")
		ctor := native.NewClass("C")
		read := false
		ctor.DefineGetter("observedAttributes", func() (hostvalue.Value, error) {
			read = true
			return native.NewArray("a"), nil
		})

		if err := f.define("x-foo", ctor, DefineOptions{}); err != nil {
			t.Fatal(err)
		}
		if read {
			t.Error("observedAttributes read without attributeChangedCallback")
		}
		if got := f.reg.DefinitionFromNewTarget(ctor).ObservedAttributes(); len(got) != 0 {
			t.Errorf("ObservedAttributes() = %v", got)
		}
	})
}

func TestDisabledFeatures(t *testing.T) {
	f := newFixture(t, "")
	ctor := native.NewClass("C")
	ctor.Set("disabledFeatures", native.NewArray("shadow", "other"))

	if err := f.define("x-foo", ctor, DefineOptions{}); err != nil {
		t.Fatal(err)
	}
	def := f.reg.DefinitionFromNewTarget(ctor)
	if !def.DisableShadow() || def.DisableInternals() {
		t.Errorf("DisableShadow=%v DisableInternals=%v", def.DisableShadow(), def.DisableInternals())
	}
}

func TestFormAssociated(t *testing.T) {
	t.Run("reads form callbacks", func(t *testing.T) {
		f := newFixture(t, "")
		ctor := native.NewClass("C")
		ctor.Set("formAssociated", float64(1))
		ctor.Prototype().Set("formResetCallback", noop("reset"))

		if err := f.define("x-field", ctor, DefineOptions{}); err != nil {
			t.Fatal(err)
		}
		def := f.reg.DefinitionFromNewTarget(ctor)
		if !def.FormAssociated() {
			t.Error("FormAssociated() = false")
		}
		var names []string
		for name := range def.Callbacks() {
			names = append(names, string(name))
		}
		want := "connectedCallback,disconnectedCallback,adoptedCallback,connectedMoveCallback,attributeChangedCallback," +
			"formAssociatedCallback,formResetCallback,formDisabledCallback,formStateRestoreCallback"
		if strings.Join(names, ",") != want {
			t.Errorf("callback keys = %v", names)
		}
		if def.Callback(definition.FormResetCallback) == nil {
			t.Error("formResetCallback not recorded")
		}
	})

	t.Run("skips form callbacks otherwise", func(t *testing.T) {
		f := newFixture(t, "")
		ctor := native.NewClass("C")
		ctor.Prototype().DefineGetter("formResetCallback", func() (hostvalue.Value, error) {
			t.Error("form callback read for non-form-associated element")
			return native.Undefined, nil
		})

		if err := f.define("x-field", ctor, DefineOptions{}); err != nil {
			t.Fatal(err)
		}
		def := f.reg.DefinitionFromNewTarget(ctor)
		count := 0
		for range def.Callbacks() {
			count++
		}
		if count != len(definition.LifecycleNames) {
			t.Errorf("callback keys = %d, want %d", count, len(definition.LifecycleNames))
		}
	})
}

func TestWhenDefined(t *testing.T) {
	f := newFixture(t, "")
	ctor := native.NewClass("XFoo")

	first := f.reg.WhenDefined("x-foo")
	second := f.reg.WhenDefined("x-foo")
	if first != second {
		t.Error("repeated WhenDefined returned different futures")
	}
	if names := f.reg.PendingNames(); len(names) != 1 || names[0] != "x-foo" {
		t.Errorf("PendingNames() = %v", names)
	}

	var got hostvalue.Value
	first.Then(func(v hostvalue.Value) { got = v }, nil)

	if err := f.define("x-foo", ctor, DefineOptions{}); err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("when-defined reaction ran inside Define")
	}
	if first.State() != future.StateFulfilled {
		t.Errorf("State() = %v, want fulfilled", first.State())
	}
	f.sched.drain()
	if got != hostvalue.Value(ctor) {
		t.Errorf("resolved with %v, want constructor", got)
	}
	if len(f.reg.PendingNames()) != 0 {
		t.Error("pending entry not removed")
	}

	after := f.reg.WhenDefined("x-foo")
	if after.State() != future.StateFulfilled {
		t.Errorf("WhenDefined after Define = %v", after.State())
	}
	if v, _ := after.Result(); v != hostvalue.Value(ctor) {
		t.Errorf("WhenDefined after Define value = %v", v)
	}
}

func TestWhenDefinedInvalidName(t *testing.T) {
	f := newFixture(t, "")
	fut := f.reg.WhenDefined("notvalid")
	if fut.State() != future.StateRejected {
		t.Fatalf("State() = %v, want rejected", fut.State())
	}
	_, err := fut.Result()
	if kindOf(err) != KindInvalidName || !errors.Is(err, ErrInvalidName) {
		t.Errorf("rejection = %v", err)
	}
	if len(f.reg.PendingNames()) != 0 {
		t.Error("invalid name stored")
	}
}

func TestUpgradeSnapshot(t *testing.T) {
	f := newFixture(t, "")
	root := dom.NewElement(dom.HTMLNamespace, "div", "")
	a := dom.NewElement(dom.HTMLNamespace, "x-foo", "")
	b := dom.NewElement(dom.HTMLNamespace, "x-foo", "")
	_ = root.AppendChild(a)
	_ = root.AppendChild(b)
	shadow, _ := b.AttachShadow(dom.ShadowOpen)
	c := dom.NewElement(dom.HTMLNamespace, "x-foo", "")
	_ = shadow.AppendChild(c)

	inserted := false
	f.reactions.onTry = func(el *dom.Node) {
		if el == a && !inserted {
			inserted = true
			_ = root.AppendChild(dom.NewElement(dom.HTMLNamespace, "x-foo", ""))
		}
	}

	f.reg.Upgrade(context.Background(), root)

	want := []*dom.Node{root, a, b, c}
	if len(f.reactions.tried) != len(want) {
		t.Fatalf("tried %d elements, want %d", len(f.reactions.tried), len(want))
	}
	for i, el := range want {
		if f.reactions.tried[i] != el {
			t.Errorf("tried[%d] = %v, want %v", i, f.reactions.tried[i], el)
		}
	}
}

type recordingObserver struct {
	defined []string
	failed  []ErrorKind
	swept   int
}

func (o *recordingObserver) Defined(def *definition.Definition, _ int) {
	o.defined = append(o.defined, def.Name())
}

func (o *recordingObserver) DefineFailed(_ string, err *DefinitionError) {
	o.failed = append(o.failed, err.Kind)
}

func (o *recordingObserver) UpgradeSwept(_ *dom.Node, elements int) {
	o.swept += elements
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	f := newFixture(t, `<x-foo></x-foo>`, WithObserver(obs), WithTracerName("test"))

	_ = f.define("x-foo", native.NewClass("A"), DefineOptions{})
	_ = f.define("x-foo", native.NewClass("B"), DefineOptions{})
	f.reg.Upgrade(context.Background(), f.doc)

	if len(obs.defined) != 1 || obs.defined[0] != "x-foo" {
		t.Errorf("defined = %v", obs.defined)
	}
	if len(obs.failed) != 1 || obs.failed[0] != KindNameAlreadyDefined {
		t.Errorf("failed = %v", obs.failed)
	}
	if obs.swept == 0 {
		t.Error("upgrade sweep not observed")
	}
}

func TestClose(t *testing.T) {
	f := newFixture(t, "")
	_ = f.define("x-done", native.NewClass("Done"), DefineOptions{})
	pending := f.reg.WhenDefined("x-foo")

	var rejection error
	pending.Then(nil, func(err error) { rejection = err })

	f.reg.Close()
	f.reg.Close()
	f.sched.drain()

	if !errors.Is(rejection, ErrRegistryClosed) {
		t.Errorf("rejection = %v, want ErrRegistryClosed", rejection)
	}
	if err := f.define("x-foo", native.NewClass("Late"), DefineOptions{}); !errors.Is(err, ErrRegistryClosed) {
		t.Errorf("Define() after Close = %v", err)
	}
	if s := f.reg.WhenDefined("x-bar").State(); s != future.StateRejected {
		t.Errorf("WhenDefined after Close = %v", s)
	}
	if s := f.reg.WhenDefined("x-done").State(); s != future.StateFulfilled {
		t.Errorf("WhenDefined for defined name after Close = %v", s)
	}
	if _, ok := f.reg.Get("x-done"); !ok {
		t.Error("definitions dropped on Close")
	}
}

func TestErrorKindStrings(t *testing.T) {
	if KindRecursiveDefinition.String() != "RecursiveDefinition" {
		t.Error(KindRecursiveDefinition.String())
	}
	if ErrorKind(200).String() != "Unknown" {
		t.Error("unknown kind")
	}
	err := newError(KindInvalidName, "bad", "nope")
	if err.Error() != `define "bad": nope` {
		t.Errorf("Error() = %q", err.Error())
	}
}
