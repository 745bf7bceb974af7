package internal

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Errors produced by the resolver and evaluator wrap one of these,
// so callers can use errors.Is to classify them.
var (
	// ErrSyntax indicates source text that cannot be parsed into messages.
	ErrSyntax = errors.New("syntax error")
	// ErrParseStructure indicates a malformed assignment macro: a missing
	// name or value, or a name that carries arguments.
	ErrParseStructure = errors.New("malformed assignment")
	// ErrReturnArity indicates a return with more than one argument.
	ErrReturnArity = errors.New("return takes at most one argument")
	// ErrNoSuchSlot indicates that a lookup found no slot and no forward.
	ErrNoSuchSlot = errors.New("no such slot")
	// ErrInvalidArgumentType indicates that a builtin received an argument
	// of the wrong kind.
	ErrInvalidArgumentType = errors.New("invalid argument type")
)

// MessageError is an error attributed to a particular message.
type MessageError struct {
	// Err is the kind of error, usually one of the Err variables.
	Err error
	// Msg is the offending message. It may be nil.
	Msg *Message
	// Detail describes the error. If empty, Err's text is used.
	Detail string
}

func (e *MessageError) Error() string {
	var b strings.Builder
	writePos(&b, e.Msg)
	if e.Detail != "" {
		b.WriteString(e.Detail)
	} else {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns e.Err.
func (e *MessageError) Unwrap() error {
	return e.Err
}

// SlotError is the error for a message to which its receiver does not
// respond.
type SlotError struct {
	// Type is the type name of the receiver.
	Type string
	// Slot is the name of the slot that was not found.
	Slot string
	// Msg is the message that performed the lookup, if known.
	Msg *Message
}

func (e *SlotError) Error() string {
	var b strings.Builder
	writePos(&b, e.Msg)
	fmt.Fprintf(&b, "%s does not respond to %s", e.Type, e.Slot)
	return b.String()
}

// Unwrap returns ErrNoSuchSlot.
func (e *SlotError) Unwrap() error {
	return ErrNoSuchSlot
}

// writePos writes the message's position as a prefix for an error.
func writePos(b *strings.Builder, m *Message) {
	if m == nil {
		return
	}
	if m.Label != "" {
		b.WriteString(m.Label)
		b.WriteByte(':')
	}
	if m.Line > 0 {
		fmt.Fprintf(b, "%d:%d: ", m.Line, m.Col)
	} else if m.Label != "" {
		b.WriteByte(' ')
	}
}

// argTypeError creates an error for an argument of the wrong kind.
func (vm *VM) argTypeError(name string, n int, want string, got *Object) error {
	return &MessageError{
		Err:    ErrInvalidArgumentType,
		Detail: fmt.Sprintf("argument %d to %s must be %s, not %s", n, name, want, vm.TypeName(got)),
	}
}

// attribute attaches msg to errors that name no message yet.
func attribute(err error, msg *Message) error {
	var me *MessageError
	if errors.As(err, &me) && me.Msg == nil {
		me.Msg = msg
		return err
	}
	var se *SlotError
	if errors.As(err, &se) && se.Msg == nil {
		se.Msg = msg
	}
	return err
}
