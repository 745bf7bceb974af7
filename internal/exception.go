package internal

import (
	"context"
	"errors"
	"fmt"
)

// Exception is the value of an Io exception object.
type Exception struct {
	// Err is the error the exception carries.
	Err error
	// Stack is the list of messages through which the exception has
	// unwound, innermost first.
	Stack []*Message
}

func (e *Exception) Error() string {
	return e.Err.Error()
}

// Unwrap returns e.Err.
func (e *Exception) Unwrap() error {
	return e.Err
}

// ExceptionTag is the tag for Exception objects.
const ExceptionTag = BasicTag("Exception")

// NewException creates a new Io exception carrying err. If err already is an
// *Exception, the new object shares it, including its stack.
func (vm *VM) NewException(err error) *Object {
	var e *Exception
	if !errors.As(err, &e) {
		e = &Exception{Err: err}
	}
	return vm.ObjectWith(nil, vm.CoreProto("Exception"), e, ExceptionTag)
}

// NewExceptionf creates a new Io exception with a formatted message.
func (vm *VM) NewExceptionf(format string, args ...interface{}) *Object {
	return vm.NewException(fmt.Errorf(format, args...))
}

// RaiseError returns an exception carrying err along with ExceptionStop, for
// builtins to return directly.
func (vm *VM) RaiseError(err error) (*Object, Stop) {
	return vm.NewException(err), ExceptionStop
}

// RaiseExceptionf is like RaiseError with a formatted message.
func (vm *VM) RaiseExceptionf(format string, args ...interface{}) (*Object, Stop) {
	return vm.NewExceptionf(format, args...), ExceptionStop
}

// AsError returns the error carried by an exception object, or nil if obj is
// not an exception.
func AsError(obj *Object) error {
	if obj == nil {
		return nil
	}
	if e, ok := obj.Value.(*Exception); ok {
		return e
	}
	return nil
}

// stopErr converts a result and control flow status into a result and error.
// Exceptions become their errors; other stops deliver their results.
func (vm *VM) stopErr(result *Object, stop Stop) (*Object, error) {
	if stop == ExceptionStop {
		if err := AsError(result); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s raised as exception", vm.TypeName(result))
	}
	return result, nil
}

func (vm *VM) initException() {
	slots := Slots{
		"error": vm.NewHostFunction(ExceptionError, ExceptionTag),
		"raise": vm.NewHostFunction(ExceptionRaise, nil),
		"type":  vm.NewString("Exception"),
	}
	vm.coreInstall("Exception", slots, &Exception{Err: errors.New("Exception")}, ExceptionTag)
}

// ExceptionError is an Exception method.
//
// error returns the exception's message.
func ExceptionError(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewString(target.Value.(*Exception).Err.Error()), nil
}

// ExceptionRaise is an Exception method.
//
// raise raises a new exception with the given message.
func ExceptionRaise(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	s, err := vm.StringArg(args, 0, "Exception raise")
	if err != nil {
		return nil, err
	}
	return nil, errors.New(s)
}
