package internal_test

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/zephyrtronium/iocore"
	"github.com/zephyrtronium/iocore/testutils"
)

// TestPerform tests that objects can receive and possibly forward messages to
// activate slots and produce appropriate results.
func TestPerform(t *testing.T) {
	vm := testutils.VM()
	pt := &performTester{obj: vm.NewObject(nil)}
	res := vm.ObjectWith(nil, []*iocore.Object{vm.BaseObject}, pt, performTesterTag{})
	anc := vm.NewObject(iocore.Slots{"t": res})
	target := anc.Clone()
	vm.SetSlot(target, "forward", vm.NewCFunction(performTestForward, nil))
	tm := vm.IdentMessage("t")
	cases := map[string]struct {
		o       *iocore.Object
		msg     *iocore.Message
		succeed bool
	}{
		"Local":       {anc, tm, true},
		"Ancestor":    {target, tm, true},
		"Forward":     {target, vm.IdentMessage("T"), true},
		"Fail":        {anc, vm.IdentMessage("u"), false},
		"ForwardFail": {target, vm.IdentMessage("u"), false},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			r, stop := vm.Perform(c.o, c.o, c.msg)
			var n int32
			if c.succeed {
				if stop != iocore.NoStop {
					t.Errorf("wrong control flow: want NoStop, got %v (%v)", r, stop)
				}
				n = 1
			} else {
				if stop != iocore.ExceptionStop {
					t.Errorf("wrong control flow: want <anything> (ExceptionStop), got %v (%v)", r, stop)
				}
			}
			if m := atomic.LoadInt32(&pt.act); m != n {
				t.Errorf("wrong activation count: want %d, have %d", n, m)
			}
			atomic.StoreInt32(&pt.act, 0)
		})
	}
}

type performTester struct {
	act int32
	obj *iocore.Object
}

type performTesterTag struct{}

func (performTesterTag) Activate(vm *iocore.VM, self, target, locals, context *iocore.Object, msg *iocore.Message) (*iocore.Object, iocore.Stop) {
	v := self.Value.(*performTester)
	atomic.AddInt32(&v.act, 1)
	return v.obj.Activate(vm, target, locals, context, msg)
}

func (performTesterTag) CloneValue(value interface{}) interface{} {
	return &performTester{obj: value.(*performTester).obj.Clone()}
}

func (performTesterTag) String() string {
	return "performTester"
}

func performTestForward(vm *iocore.VM, target, locals *iocore.Object, msg *iocore.Message) (*iocore.Object, iocore.Stop) {
	nn := strings.ToLower(msg.Name())
	if v, proto := vm.GetSlot(target, nn); proto != nil {
		return v.Activate(vm, target, locals, proto, vm.IdentMessage(nn))
	}
	return vm.RaiseExceptionf("%s does not respond to %s", vm.TypeName(target), msg.Name())
}

func BenchmarkPerform(b *testing.B) {
	vm := testutils.VM()
	o := vm.BaseObject.Clone().Clone().Clone().Clone().Clone().Clone().Clone().Clone().Clone().Clone().Clone()
	p := vm.BaseObject.Clone()
	nm := vm.IdentMessage("type")
	cm := vm.IdentMessage("thisContext")
	cases := map[string]*iocore.Object{
		"Local":    vm.BaseObject,
		"Proto":    p,
		"Ancestor": o,
	}
	// o has the deepest search depth, so it will reserve the most space in
	// vm.protoSet and vm.protoStack. Performing once here ensures that results
	// are consistent within the actual benchmark.
	vm.Perform(o, o, nm)
	for name, o := range cases {
		b.Run(name, func(b *testing.B) {
			b.Run("Type", func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					BenchDummy, _ = vm.Perform(o, o, nm)
				}
			})
			b.Run("ThisContext", func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					BenchDummy, _ = vm.Perform(o, o, cm)
				}
			})
		})
	}
}

// TestPerformNilResult tests that VM.Perform always converts nil to VM.Nil.
func TestPerformNilResult(t *testing.T) {
	vm := testutils.VM()
	cf := vm.NewCFunction(nilResult, nil)
	o := vm.NewObject(iocore.Slots{
		"f":       cf,
		"forward": cf,
	})
	cases := map[string]struct {
		o   *iocore.Object
		msg *iocore.Message
	}{
		"HaveSlot": {o, vm.IdentMessage("f")},
		"Forward":  {o, vm.IdentMessage("g")},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			r, stop := vm.Perform(c.o, c.o, c.msg)
			if r != vm.Nil {
				t.Errorf("result not VM.Nil: want %T@%p, got %T@%p", vm.Nil, vm.Nil, r, r)
			}
			if stop != iocore.NoStop {
				t.Errorf("wrong control flow: want NoStop, got %v", stop)
			}
		})
	}
}

func nilResult(vm *iocore.VM, target, locals *iocore.Object, msg *iocore.Message) (*iocore.Object, iocore.Stop) {
	return nil, iocore.NoStop
}

// receiver is a CFunction that returns the object which received the message.
func receiver(vm *iocore.VM, target, locals *iocore.Object, msg *iocore.Message) (*iocore.Object, iocore.Stop) {
	return target, iocore.NoStop
}

// forwardName is a CFunction that returns the name of the forwarded message.
func forwardName(vm *iocore.VM, target, locals *iocore.Object, msg *iocore.Message) (*iocore.Object, iocore.Stop) {
	return vm.NewString(msg.Name()), iocore.NoStop
}

// TestPerformFallback tests the order in which Perform looks for a slot when
// the target does not have it: the sender's scope, then the target's forward,
// then the Lobby.
func TestPerformFallback(t *testing.T) {
	vm := testutils.VM()
	who := vm.NewCFunction(receiver, nil)
	fwd := vm.NewCFunction(forwardName, nil)
	// Objects without protos see none of Object's slots, so every lookup on
	// them falls back.
	bare := vm.ObjectWith(nil, nil, nil, nil)
	owner := vm.ObjectWith(iocore.Slots{"who": who}, nil, nil, nil)
	scope := vm.ObjectWith(iocore.Slots{"who": who, "x": vm.NewNumber(1)}, nil, nil, nil)
	forwarder := vm.ObjectWith(iocore.Slots{"forward": fwd}, nil, nil, nil)
	cases := map[string]struct {
		target, locals *iocore.Object
		name           string
		check          func(*iocore.Object) bool
	}{
		"Target":         {owner, scope, "who", func(r *iocore.Object) bool { return r == owner }},
		"Scope":          {bare, scope, "who", func(r *iocore.Object) bool { return r == scope }},
		"ScopeValue":     {bare, scope, "x", func(r *iocore.Object) bool { return r.Value == 1.0 }},
		"ScopeOverFwd":   {forwarder, scope, "x", func(r *iocore.Object) bool { return r.Value == 1.0 }},
		"Forward":        {forwarder, forwarder, "zap", func(r *iocore.Object) bool { return r.Value == "zap" }},
		"ForwardOverTop": {forwarder, forwarder, "Lobby", func(r *iocore.Object) bool { return r.Value == "Lobby" }},
		"Root":           {bare, bare, "Lobby", func(r *iocore.Object) bool { return r == vm.Lobby }},
		"RootReceiver":   {bare, bare, "thisContext", func(r *iocore.Object) bool { return r == vm.Lobby }},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			r, stop := vm.Perform(c.target, c.locals, vm.IdentMessage(c.name))
			if stop != iocore.NoStop {
				t.Fatalf("wrong control flow: %v (%v)", stop, iocore.AsError(r))
			}
			if !c.check(r) {
				t.Errorf("wrong result %v", r.Value)
			}
		})
	}
	t.Run("NoSuchSlot", func(t *testing.T) {
		r, stop := vm.Perform(bare, bare, vm.IdentMessage("noSuchSlotAnywhere"))
		if stop != iocore.ExceptionStop {
			t.Fatalf("wrong control flow: %v", stop)
		}
		err := iocore.AsError(r)
		if !errors.Is(err, iocore.ErrNoSuchSlot) {
			t.Errorf("wrong error: %v", err)
		}
		var se *iocore.SlotError
		if !errors.As(err, &se) || se.Slot != "noSuchSlotAnywhere" || se.Msg == nil {
			t.Errorf("error does not describe the lookup: %#v", se)
		}
	})
}

// TestHostFunctionArgs tests that host functions receive their arguments
// already evaluated in the sender's scope, and are not called when an
// argument stops.
func TestHostFunctionArgs(t *testing.T) {
	vm, _ := testutils.NewVM()
	var (
		calls int
		got   []*iocore.Object
		recv  *iocore.Object
	)
	probe := vm.NewHostFunction(func(ctx context.Context, vm *iocore.VM, target *iocore.Object, args []*iocore.Object) (*iocore.Object, error) {
		calls++
		got = args
		recv = target
		return vm.NewNumber(float64(len(args))), nil
	}, nil)
	fail := vm.NewHostFunction(func(ctx context.Context, vm *iocore.VM, target *iocore.Object, args []*iocore.Object) (*iocore.Object, error) {
		return nil, errors.New("failed on purpose")
	}, nil)
	obj := vm.NewObject(iocore.Slots{"probe": probe, "fail": fail, "y": vm.NewNumber(10)})
	vm.SetSlot(vm.Lobby, "obj", obj)
	vm.SetSlot(vm.Lobby, "y", vm.NewNumber(3))

	r, stop := vm.DoString(`obj probe(1 + 1, "a", y)`, "TestHostFunctionArgs")
	if stop != iocore.NoStop || r.Value != 3.0 {
		t.Fatalf("probe returned %v (%v)", r.Value, stop)
	}
	if recv != obj {
		t.Errorf("probe received by %v", recv)
	}
	if len(got) != 3 || got[0].Value != 2.0 || got[1].Value != "a" || got[2].Value != 3.0 {
		t.Errorf("probe got wrong arguments %v", got)
	}

	calls = 0
	_, stop = vm.DoString(`obj probe(1, Exception raise("x"))`, "TestHostFunctionArgs")
	if stop != iocore.ExceptionStop {
		t.Errorf("exception in argument gave %v", stop)
	}
	if calls != 0 {
		t.Errorf("probe called %d times despite exception in argument", calls)
	}

	r, stop = vm.DoString(`obj fail(1)`, "TestHostFunctionArgs")
	if stop != iocore.ExceptionStop {
		t.Fatalf("failing host function gave %v", stop)
	}
	var me *iocore.MessageError
	if err := iocore.AsError(r); err == nil || err.Error() != "failed on purpose" {
		t.Errorf("wrong error %v", err)
	} else if errors.As(err, &me) {
		t.Errorf("plain error became %#v", me)
	}

	r, stop = vm.DoString(`o := Object clone; o e := Exception getSlot("error"); o e`, "TestHostFunctionArgs")
	if stop != iocore.ExceptionStop || !errors.Is(iocore.AsError(r), iocore.ErrInvalidArgumentType) {
		t.Errorf("receiver check gave %v (%v)", iocore.AsError(r), stop)
	}
}

// TestEvaluation tests evaluation of chains, terminators, and non-local
// returns.
func TestEvaluation(t *testing.T) {
	vm, _ := testutils.NewVM()
	vm.MustDoString(`sign := method(n,
		if(n < 0, return 0 - 1)
		if(n > 0, return 1)
		0
	)`)
	cases := map[string]testutils.SourceTestCase{
		"literal":      {Source: `"abc" size`, Pass: testutils.PassEqual(vm.NewNumber(3))},
		"statements":   {Source: `1; 2`, Pass: testutils.PassEqual(vm.NewNumber(2))},
		"newline":      {Source: "1\n2", Pass: testutils.PassEqual(vm.NewNumber(2))},
		"reset":        {Source: `2; negate`, Pass: testutils.PassFailureIs(iocore.ErrNoSuchSlot)},
		"chain":        {Source: `2 negate negate`, Pass: testutils.PassEqual(vm.NewNumber(2))},
		"signNeg":      {Source: `sign(0 - 5)`, Pass: testutils.PassEqual(vm.NewNumber(-1))},
		"signPos":      {Source: `sign(5)`, Pass: testutils.PassEqual(vm.NewNumber(1))},
		"signZero":     {Source: `sign(0)`, Pass: testutils.PassEqual(vm.NewNumber(0))},
		"loopReturn":   {Source: `method(loop(return 7)) call`, Pass: testutils.PassEqual(vm.NewNumber(7))},
		"foreach":      {Source: `method(list(1, 2, 3) foreach(x, if(x == 2, return x * 10)); 0) call`, Pass: testutils.PassEqual(vm.NewNumber(20))},
		"blockReturn":  {Source: `method(b := block(return 1); b call; 2) call`, Pass: testutils.PassEqual(vm.NewNumber(2))},
		"topLevel":     {Source: `return 5; 6`, Pass: testutils.PassEqual(vm.NewNumber(5))},
		"bare":         {Source: `method(return; 1) call`, Pass: testutils.PassIdentical(vm.Nil)},
		"afterReturn":  {Source: `method(return 1) call + 1`, Pass: testutils.PassEqual(vm.NewNumber(2))},
		"nested":       {Source: `inner := method(return 1; 2); method(inner + 10) call`, Pass: testutils.PassEqual(vm.NewNumber(11))},
		"arity":        {Source: `doString("return(1, 2)")`, Pass: testutils.PassFailureIs(iocore.ErrReturnArity)},
		"structure":    {Source: `doString("x := ")`, Pass: testutils.PassFailureIs(iocore.ErrParseStructure)},
		"noSuchSlot":   {Source: `noSuchSlotAnywhere`, Pass: testutils.PassFailureIs(iocore.ErrNoSuchSlot)},
		"forwarded":    {Source: `o := Object clone; o forward := method(call message name); o zap`, Pass: testutils.PassEqual(vm.NewString("zap"))},
		"fwdArgs":      {Source: `o := Object clone; o forward := method(call argCount); o zap(1, 2)`, Pass: testutils.PassEqual(vm.NewNumber(2))},
		"exceptionEnd": {Source: `Exception raise("x"); 1`, Pass: testutils.PassFailure()},
		"doReturn":     {Source: `o := Object clone; m := method(o do(return 1); 2); x := m; x + 100`, Pass: testutils.PassEqual(vm.NewNumber(101))},
		"ctxReturn":    {Source: `o := Object clone; method(Message fromString("return 3") doInContext(o); 4) call + 10`, Pass: testutils.PassEqual(vm.NewNumber(13))},
		"ctxLocals":    {Source: `o := Object clone; method(Message fromString("return 3") doInContext(o, o); 4) call + 10`, Pass: testutils.PassEqual(vm.NewNumber(13))},
		"strReturn":    {Source: `o := Object clone; method(o doString("return 5"); 6) call + 10`, Pass: testutils.PassEqual(vm.NewNumber(15))},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			c.Run(t, vm, "TestEvaluation")
		})
	}
}

// TestReturnArityAtRuntime tests that a return built without the resolver is
// still checked when it is evaluated.
func TestReturnArityAtRuntime(t *testing.T) {
	vm := testutils.VM()
	msg := vm.IdentMessage("return", vm.NumberMessage(1), vm.NumberMessage(2))
	r, stop := vm.DoMessage(msg, vm.Lobby)
	if stop != iocore.ExceptionStop {
		t.Fatalf("return with two arguments gave %v", stop)
	}
	if err := iocore.AsError(r); !errors.Is(err, iocore.ErrReturnArity) {
		t.Errorf("wrong error %v", err)
	}
}

// TestMessageChain tests linking and copying message chains.
func TestMessageChain(t *testing.T) {
	vm := testutils.VM()
	t.Run("SetNext", func(t *testing.T) {
		a, b := vm.IdentMessage("a"), vm.IdentMessage("b")
		if r := a.SetNext(b); r != b {
			t.Errorf("SetNext returned %v", r)
		}
		if a.Next != b || b.Prev() != a {
			t.Errorf("SetNext did not link: a.Next %v, b.Prev %v", a.Next, b.Prev())
		}
		if a.Prev() != nil {
			t.Errorf("head has previous %v", a.Prev())
		}
		a.SetNext(nil)
		if a.Next != nil {
			t.Errorf("SetNext(nil) left %v", a.Next)
		}
		runtime.KeepAlive(a)
	})
	t.Run("InsertAfter", func(t *testing.T) {
		a, b, c := vm.IdentMessage("a"), vm.IdentMessage("b"), vm.IdentMessage("c")
		a.SetNext(c)
		a.InsertAfter(b)
		if a.Next != b || b.Next != c || c.Prev() != b || b.Prev() != a {
			t.Errorf("wrong chain after insert: %v", a)
		}
		if a.Last() != c {
			t.Errorf("Last is %v", a.Last())
		}
		runtime.KeepAlive(a)
	})
	t.Run("DeepCopy", func(t *testing.T) {
		m, err := vm.Parse(strings.NewReader(`a(b c, "d") e; f`), "TestMessageChain")
		if err != nil {
			t.Fatal(err)
		}
		c := m.DeepCopy()
		if d := testutils.Diff(m, c); d != nil {
			t.Errorf("copy differs at %v", d)
		}
		for x, y := m, c; x != nil; x, y = x.Next, y.Next {
			if x == y {
				t.Errorf("copy shares message %v", x)
			}
			if len(x.Args) > 0 && x.Args[0] == y.Args[0] {
				t.Errorf("copy shares argument %v", x.Args[0])
			}
			if y.Next != nil && y.Next.Prev() != y {
				t.Errorf("copy of %s has wrong previous link", y.Next.Name())
			}
		}
		c.Args[0].Text = "z"
		if m.Args[0].Text != "b" {
			t.Error("modifying copy changed original")
		}
		if m.DeepCopy().String() != m.String() {
			t.Errorf("copy renders differently")
		}
		runtime.KeepAlive(c)
	})
	t.Run("Predicates", func(t *testing.T) {
		m, err := vm.Parse(strings.NewReader("a \"b\"; c"), "TestMessageChain")
		if err != nil {
			t.Fatal(err)
		}
		b, semi, c := m.Next, m.Next.Next, m.Next.Next.Next
		if m.IsLiteral() || !b.IsLiteral() {
			t.Error("wrong literals")
		}
		if !semi.IsTerminator() || !semi.IsHardTerminator() || !semi.IsEndOfStatement() {
			t.Error("semicolon is not a hard terminator")
		}
		if !m.IsStart() || b.IsStart() || !c.IsStart() {
			t.Error("wrong statement starts")
		}
		var nilMsg *iocore.Message
		if !nilMsg.IsTerminator() || nilMsg.ArgCount() != 0 || nilMsg.Name() != "<nil message>" {
			t.Error("nil message is misbehaved")
		}
		if err := m.AssertArgCount("a", 1); !errors.Is(err, iocore.ErrInvalidArgumentType) {
			t.Errorf("AssertArgCount gave %v", err)
		}
		runtime.KeepAlive(m)
	})
}

// TestMessageMethods tests the slots of Message.
func TestMessageMethods(t *testing.T) {
	vm := testutils.VM()
	cases := map[string]testutils.SourceTestCase{
		"name":         {Source: `Message fromString("a b(c)") name`, Pass: testutils.PassEqual(vm.NewString("a"))},
		"next":         {Source: `Message fromString("a b(c)") next name`, Pass: testutils.PassEqual(vm.NewString("b"))},
		"argCount":     {Source: `Message fromString("a b(c)") next argCount`, Pass: testutils.PassEqual(vm.NewNumber(1))},
		"argAt":        {Source: `Message fromString("a(b, c)") argAt(1) name`, Pass: testutils.PassEqual(vm.NewString("c"))},
		"argAtNone":    {Source: `Message fromString("a") argAt(0)`, Pass: testutils.PassIdentical(vm.Nil)},
		"arguments":    {Source: `Message fromString("a(b, c)") arguments size`, Pass: testutils.PassEqual(vm.NewNumber(2))},
		"last":         {Source: `Message fromString("a b c") last name`, Pass: testutils.PassEqual(vm.NewString("c"))},
		"noNext":       {Source: `Message fromString("a") next`, Pass: testutils.PassIdentical(vm.Nil)},
		"asString":     {Source: `Message fromString("1 + 2") asString`, Pass: testutils.PassEqual(vm.NewString("1 +(2)"))},
		"isLiteral":    {Source: `Message fromString("\"x\"") isLiteral`, Pass: testutils.PassIdentical(vm.True)},
		"notLiteral":   {Source: `Message fromString("x") isLiteral`, Pass: testutils.PassIdentical(vm.False)},
		"terminator":   {Source: `Message fromString("a; b") next isEndOfStatement`, Pass: testutils.PassIdentical(vm.True)},
		"setName":      {Source: `Message fromString("a") setName("b") name`, Pass: testutils.PassEqual(vm.NewString("b"))},
		"setNext":      {Source: `Message fromString("a") setNext(Message fromString("b")) asString`, Pass: testutils.PassEqual(vm.NewString("a b"))},
		"clearNext":    {Source: `Message fromString("a b") setNext(nil) asString`, Pass: testutils.PassEqual(vm.NewString("a"))},
		"doInContext":  {Source: `Message fromString("1 + 2") doInContext(Lobby)`, Pass: testutils.PassEqual(vm.NewNumber(3))},
		"inObject":     {Source: `Message fromString("v") doInContext(Object clone do(v := 8))`, Pass: testutils.PassEqual(vm.NewNumber(8))},
		"lineNumber":   {Source: `Message fromString("\na") lineNumber`, Pass: testutils.PassEqual(vm.NewNumber(2))},
		"label":        {Source: `Message fromString("a") label`, Pass: testutils.PassEqual(vm.NewString("<string>"))},
		"opShuffle":    {Source: `Message fromString("a") opShuffle name`, Pass: testutils.PassEqual(vm.NewString("a"))},
		"syntax":       {Source: `Message fromString("(")`, Pass: testutils.PassFailureIs(iocore.ErrSyntax)},
		"callMessage":  {Source: `method(call message) call(x) argAt(0) name`, Pass: testutils.PassEqual(vm.NewString("x"))},
		"setNextType":  {Source: `Message fromString("a") setNext(1)`, Pass: testutils.PassFailureIs(iocore.ErrInvalidArgumentType)},
		"receiverType": {Source: `Object clone do(n := Message getSlot("name")) n`, Pass: testutils.PassFailureIs(iocore.ErrInvalidArgumentType)},
	}
	for name, c := range cases {
		t.Run(name, c.TestFunc("TestMessageMethods/"+name))
	}
}
