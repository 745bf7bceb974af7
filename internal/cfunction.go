package internal

import (
	"context"
	"reflect"
	"runtime"
)

// An Fn is a statically compiled function which can be executed in the context
// of an Io VM. It receives the unevaluated message, so it decides which of its
// arguments are evaluated and when.
type Fn func(vm *VM, target, locals *Object, msg *Message) (*Object, Stop)

// A HostFn is a plain host function. Its arguments are evaluated in order in
// the sender's scope before it is called. A non-nil error is raised as an Io
// exception.
type HostFn func(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error)

// A CFunction object represents a compiled function.
type CFunction struct {
	// Function is the compiled function.
	Function Fn
	// Type is the tag required of the receiver, or nil for any receiver.
	Type Tag
	// Name is the name of the function.
	Name string
}

// A HostFunction object represents a plain host callable.
type HostFunction struct {
	// Function is the compiled function.
	Function HostFn
	// Type is the tag required of the receiver, or nil for any receiver.
	Type Tag
	// Name is the name of the function.
	Name string
}

// tagCFunction is the Tag type for CFunction objects.
type tagCFunction struct{}

// Activate calls the wrapped function after checking the receiver's type.
func (tagCFunction) Activate(vm *VM, self, target, locals, context *Object, msg *Message) (*Object, Stop) {
	f := self.Value.(*CFunction)
	if f.Type != nil && target.tag != f.Type {
		return vm.RaiseError(receiverError(vm, f.Name, f.Type, target, msg))
	}
	return f.Function(vm, target, locals, msg)
}

// CloneValue returns value.
func (tagCFunction) CloneValue(value interface{}) interface{} {
	return value
}

// String returns "CFunction".
func (tagCFunction) String() string {
	return "CFunction"
}

// CFunctionTag is the Tag for CFunction objects. Activate calls the wrapped
// function. CloneValue returns the same function.
var CFunctionTag tagCFunction

// tagHostFunction is the Tag type for HostFunction objects.
type tagHostFunction struct{}

// Activate evaluates the message's arguments in locals and calls the wrapped
// function with them.
func (tagHostFunction) Activate(vm *VM, self, target, locals, context *Object, msg *Message) (*Object, Stop) {
	f := self.Value.(*HostFunction)
	if f.Type != nil && target.tag != f.Type {
		return vm.RaiseError(receiverError(vm, f.Name, f.Type, target, msg))
	}
	args := make([]*Object, msg.ArgCount())
	for i, arg := range msg.Args {
		r, stop := arg.Eval(vm, locals)
		if stop != NoStop {
			return r, stop
		}
		args[i] = r
	}
	r, err := f.Function(vm.Context(), vm, target, args)
	if err != nil {
		return vm.RaiseError(attribute(err, msg))
	}
	if r == nil {
		r = vm.Nil
	}
	return r, NoStop
}

// CloneValue returns value.
func (tagHostFunction) CloneValue(value interface{}) interface{} {
	return value
}

// String returns "HostFunction".
func (tagHostFunction) String() string {
	return "HostFunction"
}

// HostFunctionTag is the Tag for HostFunction objects.
var HostFunctionTag tagHostFunction

func receiverError(vm *VM, name string, want Tag, got *Object, msg *Message) error {
	return &MessageError{
		Err:    ErrInvalidArgumentType,
		Msg:    msg,
		Detail: "receiver of " + name + " must be " + want.String() + ", not " + vm.TypeName(got),
	}
}

// funcName gets the name of a compiled function.
func funcName(f interface{}) string {
	u := reflect.ValueOf(f).Pointer()
	return runtime.FuncForPC(u).Name()
}

// NewCFunction creates a new CFunction object. If kind is not nil, the function
// raises an exception when activated on a receiver with a different tag.
func (vm *VM) NewCFunction(f Fn, kind Tag) *Object {
	return vm.primitive(&CFunction{Function: f, Type: kind, Name: funcName(f)}, CFunctionTag)
}

// NewHostFunction creates a new HostFunction object. If kind is not nil, the
// function raises an exception when activated on a receiver with a different
// tag.
func (vm *VM) NewHostFunction(f HostFn, kind Tag) *Object {
	return vm.primitive(&HostFunction{Function: f, Type: kind, Name: funcName(f)}, HostFunctionTag)
}

func (vm *VM) initCFunction() {
	vm.coreInstall("CFunction", Slots{
		"asString": vm.NewHostFunction(CFunctionAsString, CFunctionTag),
		"type":     vm.NewString("CFunction"),
	}, &CFunction{Function: ObjectThisContext, Name: "CFunction"}, CFunctionTag)
	vm.coreInstall("HostFunction", Slots{
		"asString": vm.NewHostFunction(HostFunctionAsString, HostFunctionTag),
		"type":     vm.NewString("HostFunction"),
	}, &HostFunction{Function: ObjectInit, Name: "HostFunction"}, HostFunctionTag)
}

// CFunctionAsString is a CFunction method.
//
// asString returns the name of the wrapped function.
func CFunctionAsString(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewString(target.Value.(*CFunction).Name), nil
}

// HostFunctionAsString is a HostFunction method.
//
// asString returns the name of the wrapped function.
func HostFunctionAsString(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewString(target.Value.(*HostFunction).Name), nil
}

// argOrNil returns the nth argument, or nil if there are not that many.
func (vm *VM) argOrNil(args []*Object, n int) *Object {
	if n < len(args) && args[n] != nil {
		return args[n]
	}
	return vm.Nil
}

// NumberArg returns the nth argument as a float64. It is an error if the
// argument is missing or is not a Number.
func (vm *VM) NumberArg(args []*Object, n int, name string) (float64, error) {
	v := vm.argOrNil(args, n)
	if f, ok := v.Value.(float64); ok && v.tag == NumberTag {
		return f, nil
	}
	return 0, vm.argTypeError(name, n, "Number", v)
}

// StringArg returns the nth argument as a string. It is an error if the
// argument is missing or is not a String.
func (vm *VM) StringArg(args []*Object, n int, name string) (string, error) {
	v := vm.argOrNil(args, n)
	if s, ok := v.Value.(string); ok && v.tag == StringTag {
		return s, nil
	}
	return "", vm.argTypeError(name, n, "String", v)
}

// ListArg returns the nth argument as a List value along with the object
// holding it.
func (vm *VM) ListArg(args []*Object, n int, name string) ([]*Object, *Object, error) {
	v := vm.argOrNil(args, n)
	if l, ok := v.Value.([]*Object); ok && v.tag == ListTag {
		return l, v, nil
	}
	return nil, v, vm.argTypeError(name, n, "List", v)
}
