package internal_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/zephyrtronium/iocore"
	"github.com/zephyrtronium/iocore/testutils"
)

// TestNewVM tests that NewVM creates an object.
func TestNewVM(t *testing.T) {
	// We can use testVM to test NewVM.
	if testutils.VM() == nil {
		t.Fatal("testVM is nil")
	}
}

// TestNewVMAttrs tests that a new VM has the attributes we expect.
func TestNewVMAttrs(t *testing.T) {
	vm := testutils.VM()
	attrs := []string{
		"Lobby", "Core",
		"BaseObject", "True", "False", "Nil", "Operators", "Stdout",
	}
	v := reflect.ValueOf(vm).Elem()
	for _, attr := range attrs {
		t.Run("Attr"+attr, func(t *testing.T) {
			e := v.FieldByName(attr)
			if !e.IsValid() {
				t.Fatal("no VM attribute", attr)
			}
			if e.IsNil() {
				t.Fatal("VM attribute", attr, "is nil")
			}
		})
	}
}

// TestLobbySlots tests that a new VM Lobby has the slots we expect.
func TestLobbySlots(t *testing.T) {
	vm := testutils.VM()
	slots := []string{"Lobby", "Protos", "type"}
	testutils.CheckSlots(t, vm, vm.Lobby, slots)
}

// TestLobbyProtos tests that a new VM Lobby has the protos we expect.
func TestLobbyProtos(t *testing.T) {
	vm := testutils.VM()
	// Lobby's proto is a generic object that has the Core slot and Core as its
	// proto. Check that this is all correct.
	protos := vm.Lobby.Protos()
	switch len(protos) {
	case 0:
		t.Fatal("Lobby has no protos")
	case 1: // do nothing
	default:
		t.Error("Lobby has too many protos: expected 1, have", len(protos))
	}
	p := protos[0]
	testutils.CheckSlots(t, vm, p, []string{"Core", "type"})
	opro := p.Protos()
	if len(opro) != 1 {
		t.Fatal("Lobby proto has wrong number of protos: expected 1, have", len(opro))
	}
	if opro[0] != vm.Core {
		t.Errorf("Lobby proto has wrong proto: expected %T@%p (Core), have %T@%p", vm.Core, vm.Core, opro[0], opro[0])
	}
}

// TestCoreSlots tests that a new VM Core has the slots we expect.
func TestCoreSlots(t *testing.T) {
	slots := []string{
		"Block",
		"CFunction",
		"Call",
		"Exception",
		"HostFunction",
		"List",
		"Locals",
		"Map",
		"Message",
		"Number",
		"Object",
		"OperatorTable",
		"Receiver",
		"String",
		"System",
		"false",
		"nil",
		"true",
	}
	vm := testutils.VM()
	testutils.CheckSlots(t, vm, vm.Core, slots)
}

// TestCoreProtos checks that a new VM Core is an Object type.
func TestCoreProtos(t *testing.T) {
	vm := testutils.VM()
	testutils.CheckObjectIsProto(t, vm, vm.Core)
}

// TestCoreProtosAreObjects checks that every type in Core derives from Object.
func TestCoreProtosAreObjects(t *testing.T) {
	vm := testutils.VM()
	for _, name := range vm.SlotNames(vm.Core) {
		if name == "Object" || name == "Receiver" {
			continue
		}
		t.Run(name, func(t *testing.T) {
			p, _ := vm.GetLocalSlot(vm.Core, name)
			testutils.CheckObjectIsProto(t, vm, p)
		})
	}
}

// TestSystem tests the System object.
func TestSystem(t *testing.T) {
	vm, _ := testutils.NewVM(iocore.WithArgs("a", "b"))
	cases := map[string]testutils.SourceTestCase{
		"args":     {Source: `System args`, Pass: testutils.PassList(vm.NewString("a"), vm.NewString("b"))},
		"version":  {Source: `System version`, Pass: testutils.PassTag(iocore.StringTag)},
		"platform": {Source: `System platform`, Pass: testutils.PassTag(iocore.StringTag)},
		"cpus":     {Source: `System activeCpus > 0`, Pass: testutils.PassIdentical(vm.True)},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			c.Run(t, vm, "TestSystem")
		})
	}
}

// TestDoString tests the entry points that parse and evaluate source.
func TestDoString(t *testing.T) {
	vm := testutils.VM()
	t.Run("Result", func(t *testing.T) {
		r, stop := vm.DoString("1 + 2 * 3", "TestDoString")
		if stop != iocore.NoStop || r.Value != 7.0 {
			t.Errorf("wrong result %v (%v)", r.Value, stop)
		}
	})
	t.Run("Empty", func(t *testing.T) {
		r, stop := vm.DoString("", "TestDoString")
		if stop != iocore.NoStop || r != vm.Nil {
			t.Errorf("empty source gave %v (%v)", r, stop)
		}
	})
	t.Run("Comment", func(t *testing.T) {
		r, stop := vm.DoString("# nothing here\n// or here\n/* or /* here */ */", "TestDoString")
		if stop != iocore.NoStop || r != vm.Nil {
			t.Errorf("comment-only source gave %v (%v)", r, stop)
		}
	})
	t.Run("SyntaxError", func(t *testing.T) {
		r, stop := vm.DoString("f(a, b", "TestDoString")
		if stop != iocore.ExceptionStop {
			t.Fatalf("syntax error gave %v", stop)
		}
		if err := iocore.AsError(r); !errors.Is(err, iocore.ErrSyntax) {
			t.Errorf("syntax error gave wrong error %v", err)
		}
	})
	t.Run("In", func(t *testing.T) {
		obj := vm.NewObject(iocore.Slots{"x": vm.NewNumber(4)})
		r, stop := vm.DoStringIn("x * x", "TestDoString", obj)
		if stop != iocore.NoStop || r.Value != 16.0 {
			t.Errorf("wrong result %v (%v)", r.Value, stop)
		}
	})
	t.Run("Must", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("MustDoString did not panic on exception")
			}
		}()
		vm.MustDoString(`Exception raise("boom")`)
	})
}

// TestRun tests that Run reports exceptions as errors carrying their stacks
// and that host functions see the context given to Run.
func TestRun(t *testing.T) {
	type key struct{}
	vm, _ := testutils.NewVM()
	var seen interface{}
	probe := vm.NewHostFunction(func(ctx context.Context, vm *iocore.VM, target *iocore.Object, args []*iocore.Object) (*iocore.Object, error) {
		seen = ctx.Value(key{})
		return target, nil
	}, nil)
	vm.SetSlot(vm.Lobby, "probe", probe)
	ctx := context.WithValue(context.Background(), key{}, "here")
	if _, err := vm.Run(ctx, strings.NewReader("probe"), "TestRun"); err != nil {
		t.Fatal(err)
	}
	if seen != "here" {
		t.Errorf("host function saw context value %v", seen)
	}
	if vm.Context() == ctx {
		t.Error("Run did not restore the previous context")
	}

	_, err := vm.Run(context.Background(), strings.NewReader("x := method(y)\nx"), "TestRun")
	if !errors.Is(err, iocore.ErrNoSuchSlot) {
		t.Fatalf("wrong error %v", err)
	}
	var e *iocore.Exception
	if !errors.As(err, &e) {
		t.Fatalf("error is %T, not an exception", err)
	}
	if len(e.Stack) < 2 {
		t.Fatalf("exception stack has %d messages", len(e.Stack))
	}
	if e.Stack[0].Name() != "y" || e.Stack[len(e.Stack)-1].Name() != "x" {
		t.Errorf("stack runs %s to %s, want y to x", e.Stack[0].Name(), e.Stack[len(e.Stack)-1].Name())
	}
	if e.Stack[0].Line != 1 || e.Stack[len(e.Stack)-1].Line != 2 {
		t.Errorf("stack lines %d to %d, want 1 to 2", e.Stack[0].Line, e.Stack[len(e.Stack)-1].Line)
	}

	_, err = vm.Run(context.Background(), strings.NewReader("("), "TestRun")
	if !errors.Is(err, iocore.ErrSyntax) {
		t.Errorf("wrong parse error %v", err)
	}
}

// TestStopString tests the names of control flow reasons.
func TestStopString(t *testing.T) {
	cases := map[iocore.Stop]string{
		iocore.NoStop:        "normal",
		iocore.ContinueStop:  "continue",
		iocore.BreakStop:     "break",
		iocore.ReturnStop:    "return",
		iocore.ExceptionStop: "exception",
		iocore.Stop(99):      "Stop(99)",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("Stop(%d) is %q, want %q", int(s), got, want)
		}
	}
}
