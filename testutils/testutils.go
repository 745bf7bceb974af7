// Package testutils provides utilities for testing Io code in Go.
package testutils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/zephyrtronium/iocore"
)

// testVM is the VM used for all tests.
var testVM *iocore.VM

var testVMInit sync.Once

// VM returns a VM for testing Io. The VM is shared by all tests that use this
// package.
func VM() *iocore.VM {
	testVMInit.Do(ResetVM)
	return testVM
}

// ResetVM reinitializes the VM returned by VM. It is not safe to call this in
// parallel tests.
func ResetVM() {
	testVM = iocore.NewVM(iocore.WithStdout(new(bytes.Buffer)))
}

// NewVM creates a new VM whose output is captured in the returned buffer.
func NewVM(opts ...iocore.Option) (*iocore.VM, *bytes.Buffer) {
	var b bytes.Buffer
	opts = append([]iocore.Option{iocore.WithStdout(&b)}, opts...)
	return iocore.NewVM(opts...), &b
}

// A SourceTestCase is a test case containing Io source code and a predicate to
// check the result.
type SourceTestCase struct {
	// Source is the Io source code to execute.
	Source string
	// Pass is a predicate taking the result of executing Source. If Pass
	// returns false, then the test fails.
	Pass func(result *iocore.Object, control iocore.Stop) bool
}

// TestFunc returns a test function for the test case. This uses VM to parse
// and execute the code.
func (c SourceTestCase) TestFunc(name string) func(*testing.T) {
	return func(t *testing.T) {
		t.Helper()
		c.Run(t, VM(), name)
	}
}

// Run parses and executes the test case's source on vm.
func (c SourceTestCase) Run(t *testing.T, vm *iocore.VM, name string) {
	t.Helper()
	msg, err := vm.Parse(strings.NewReader(c.Source), name)
	if err != nil {
		t.Fatalf("could not parse %q: %v", c.Source, err)
	}
	r, s := vm.DoMessage(msg, vm.Lobby)
	if c.Pass(r, s) {
		return
	}
	if e, ok := r.Value.(*iocore.Exception); ok && s == iocore.ExceptionStop {
		var w strings.Builder
		fmt.Fprintf(&w, "%q produced wrong result; an exception occurred:\n", c.Source)
		for _, m := range e.Stack {
			if p := m.Prev(); p != nil && !p.IsTerminator() {
				fmt.Fprintf(&w, "\t%s %s\t%s:%d\n", p.Name(), m.Name(), m.Label, m.Line)
			} else {
				fmt.Fprintf(&w, "\t%s\t%s:%d\n", m.Name(), m.Label, m.Line)
			}
		}
		fmt.Fprint(&w, e.Error())
		t.Error(w.String())
		return
	}
	str, _ := vm.AsString(r)
	t.Errorf("%q produced wrong result; got %s@%p (%s)", c.Source, str, r, s)
}

// PassEqual returns a Pass function for a SourceTestCase that predicates on
// equality. To determine equality, this first checks for equal identities; if
// not, it checks that want and result compare equal. If the Stop is not
// NoStop, then the predicate returns false.
func PassEqual(want *iocore.Object) func(*iocore.Object, iocore.Stop) bool {
	return PassControl(want, iocore.NoStop)
}

// PassIdentical returns a Pass function for a SourceTestCase that predicates
// on identity equality, i.e. the result must be exactly the given object. If
// the Stop is not NoStop, then the predicate returns false.
func PassIdentical(want *iocore.Object) func(*iocore.Object, iocore.Stop) bool {
	return func(result *iocore.Object, control iocore.Stop) bool {
		if control != iocore.NoStop {
			return false
		}
		return want == result
	}
}

// PassControl returns a Pass function for a SourceTestCase that predicates on
// equality with a certain control flow status. The control flow check precedes
// the value check. Equality here has the same semantics as in PassEqual.
func PassControl(want *iocore.Object, stop iocore.Stop) func(*iocore.Object, iocore.Stop) bool {
	return func(result *iocore.Object, control iocore.Stop) bool {
		if control != stop {
			return false
		}
		if want == result {
			return true
		}
		return VM().Compare(want, result)
	}
}

// PassList returns a Pass function for a SourceTestCase that predicates on the
// result being a List whose items are respectively equal to those in want, in
// the same sense as PassEqual. If the Stop is not NoStop, then the predicate
// returns false.
func PassList(want ...*iocore.Object) func(*iocore.Object, iocore.Stop) bool {
	return func(result *iocore.Object, control iocore.Stop) bool {
		if control != iocore.NoStop || result.Tag() != iocore.ListTag {
			return false
		}
		l := result.Value.([]*iocore.Object)
		if len(l) != len(want) {
			return false
		}
		for i, v := range l {
			if v != want[i] && !VM().Compare(want[i], v) {
				return false
			}
		}
		return true
	}
}

// PassTag returns a Pass function for a SourceTestCase that predicates on
// equality of the Tag of the result. If the Stop is not NoStop, then the
// predicate returns false.
func PassTag(want iocore.Tag) func(*iocore.Object, iocore.Stop) bool {
	return func(result *iocore.Object, control iocore.Stop) bool {
		if control != iocore.NoStop {
			return false
		}
		return result.Tag() == want
	}
}

// PassFailure returns a Pass function for a SourceTestCase that returns true
// iff the result is a raised exception.
func PassFailure() func(*iocore.Object, iocore.Stop) bool {
	return func(result *iocore.Object, control iocore.Stop) bool {
		return control == iocore.ExceptionStop
	}
}

// PassFailureIs returns a Pass function for a SourceTestCase that returns
// true iff the result is a raised exception whose error matches target
// according to errors.Is.
func PassFailureIs(target error) func(*iocore.Object, iocore.Stop) bool {
	return func(result *iocore.Object, control iocore.Stop) bool {
		if control != iocore.ExceptionStop {
			return false
		}
		return errors.Is(iocore.AsError(result), target)
	}
}

// PassSuccess returns a Pass function for a SourceTestCase that returns true
// iff the control flow status is NoStop.
func PassSuccess() func(*iocore.Object, iocore.Stop) bool {
	return func(result *iocore.Object, control iocore.Stop) bool {
		return control == iocore.NoStop
	}
}

// PassLocalSlots returns a Pass function for a SourceTestCase that returns
// true iff the result locally has all of the slots in want and none of the
// slots in exclude. If the Stop is not NoStop, then the predicate returns
// false.
func PassLocalSlots(want, exclude []string) func(*iocore.Object, iocore.Stop) bool {
	return func(result *iocore.Object, control iocore.Stop) bool {
		if control != iocore.NoStop {
			return false
		}
		vm := VM()
		for _, slot := range want {
			if _, ok := vm.GetLocalSlot(result, slot); !ok {
				return false
			}
		}
		for _, slot := range exclude {
			if _, ok := vm.GetLocalSlot(result, slot); ok {
				return false
			}
		}
		return true
	}
}

// CheckSlots is a testing helper to check whether an object has exactly the
// slots we expect.
func CheckSlots(t *testing.T, vm *iocore.VM, obj *iocore.Object, slots []string) {
	t.Helper()
	checked := make(map[string]bool, len(slots))
	for _, name := range slots {
		checked[name] = true
		t.Run("Have_"+name, func(t *testing.T) {
			slot, ok := vm.GetLocalSlot(obj, name)
			if !ok {
				t.Fatal("no slot", name)
			}
			if slot == nil {
				t.Fatal("slot", name, "is nil")
			}
		})
	}
	for _, name := range vm.SlotNames(obj) {
		t.Run("Want_"+name, func(t *testing.T) {
			if !checked[name] {
				t.Fatal("unexpected slot", name)
			}
		})
	}
}

// CheckObjectIsProto is a testing helper to check that an object has exactly
// one proto, which is Core Object.
func CheckObjectIsProto(t *testing.T, vm *iocore.VM, obj *iocore.Object) {
	t.Helper()
	protos := obj.Protos()
	switch len(protos) {
	case 0:
		t.Fatal("no protos")
	case 1: // do nothing
	default:
		t.Error("incorrect number of protos: expected 1, have", len(protos))
	}
	if p := protos[0]; p != vm.BaseObject {
		t.Errorf("wrong proto: expected %T@%p, have %T@%p", vm.BaseObject, vm.BaseObject, p, p)
	}
}

// Diff returns nil if m has the same text as other, both or neither have a
// memo, both have the same number of arguments, their respective arguments are
// recursively equal, and their Next messages are recursively equal. Otherwise,
// the first message belonging to other that differs from m is returned. Panics
// if other is nil.
func Diff(m, other *iocore.Message) *iocore.Message {
	if m == nil {
		return other
	}
	if m.Text != other.Text {
		return other
	}
	if (m.Memo == nil) != (other.Memo == nil) {
		return other
	}
	if len(m.Args) != len(other.Args) {
		return other
	}
	for i, arg := range m.Args {
		if r := Diff(arg, other.Args[i]); r != nil {
			return r
		}
	}
	if m.Next == nil {
		return other.Next
	}
	if other.Next == nil {
		return other
	}
	return Diff(m.Next, other.Next)
}
