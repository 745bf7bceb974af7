/*
Package iocore implements the runtime core of the Io programming language:
message chains, the operator resolver that turns flat chains into nested
sends, prototype objects, and the evaluator.

Io is a dynamic, prototype-based language inspired by Smalltalk (everything is
an object), Self (prototypes), Lisp (even the program code is made up of
objects), and NewtonScript (differential inheritance). It was originally
developed in C by Steve Dekorte.

The interpreter is meant to be embedded in another program. To start, use the
NewVM function to create and initialize the interpreter, passing Options to
configure its output, operator table, logger, and addons. The VM's Lobby is
the default receiver of messages; make objects available to Io code by
creating them with NewNumber, NewString, NewObject, or another constructor and
setting them as slots with SetSlot. Go functions become Io methods through
NewHostFunction, which evaluates the message's arguments before the call, or
NewCFunction, which receives the unevaluated message.

Io Primer

Hello World in Io:

	"Hello, world!" println

Io code executes via message passing. The above snippet parses to two
messages: "Hello, world!", a string literal, and println. Upon evaluation, the
literal immediately becomes its string value. Then println is sent to it,
activating the slot on the string named "println".

When an object receives a message, it checks for a slot on the object with the
same name as the message text. If the object has no such slot, it checks its
protos, depth first, without visiting any object twice. If no proto has the
slot either, the message is looked up in the sender's scope, then the
receiver's "forward" slot is used, and finally the Lobby is checked. If all of
those fail, a NoSuchSlot exception is raised.

Operators are messages too. Before evaluation, the parser's flat chain is
resolved: assignments become slot messages and infix operators take the rest
of their expression as an argument, respecting precedence:

	x := 1 + 2 * 3

becomes

	setSlot("x", 1 +(2 *(3)))

The operator table can be replaced per VM, and it can be loaded from YAML or
TOML files with LoadOpTable.

Producing new "types" is done using clone:

	Point := Object clone do(
		x := 0
		y := 0
		+ := method(other,
			p := Point clone
			p x := x + other x
			p y := y + other y
			p
		)
	)

Methods evaluate their declared parameters in the caller's scope when they
are activated. Arguments beyond the declared parameters are left unevaluated;
the method can force them with call evalArgAt. Control flow such as if, and,
or, and ifNil is implemented as ordinary methods on this principle.

A return in a method ends the method, even when it is written inside the
argument of another method such as if:

	sign := method(n,
		if(n < 0, return -1)
		if(n > 0, return 1)
		0
	)
*/
package iocore

import (
	"io"

	"github.com/zephyrtronium/iocore/internal"
)

// A VM processes Io programs.
type VM = internal.VM

// Option configures a VM.
type Option = internal.Option

// Object is the basic type of Io. Everything is an Object.
//
// Always use NewObject, ObjectWith, or a type-specific constructor to obtain
// new objects. Creating objects directly will result in arbitrary failures.
type Object = internal.Object

// Slots represents the set of messages to which an object responds.
type Slots = internal.Slots

// Tag is a type indicator for iocore objects. Tag values must be comparable.
// Tags for different types must not be equal, meaning they must have different
// underlying types or different values otherwise.
type Tag = internal.Tag

// BasicTag is a special Tag type for basic primitive types which do not have
// special activation and whose clones have values that are shallow copies of
// their parents.
type BasicTag = internal.BasicTag

// A Stop represents a reason for flow control.
type Stop = internal.Stop

// A Block is a reusable, lexically scoped message. Essentially a function.
type Block = internal.Block

// Call wraps information about the activation of a Block.
type Call = internal.Call

// Arg is one argument of a Call.
type Arg = internal.Arg

// A CFunction is an object whose value is a Go function receiving the
// unevaluated message.
type CFunction = internal.CFunction

// A HostFunction is an object whose value is a Go function receiving
// evaluated arguments.
type HostFunction = internal.HostFunction

// An Exception is an Io exception.
type Exception = internal.Exception

// A Message is the fundamental syntactic element and functionality of Io.
//
// NOTE: Message values are NOT synchronized. It is a race condition to modify
// a message that might be in use, such as 'call message'.
type Message = internal.Message

// An Fn is a statically compiled function which can be executed in an Io VM.
type Fn = internal.Fn

// A HostFn is a Go function exposed to Io with its arguments evaluated.
type HostFn = internal.HostFn

// Addon extends a VM with protos provided by the embedding program.
type Addon = internal.Addon

// OpTable holds the operators the resolver rewrites.
type OpTable = internal.OpTable

// AssignKind is the slot operation an assignment operator performs.
type AssignKind = internal.AssignKind

// MessageError is an error attributed to a particular message.
type MessageError = internal.MessageError

// SlotError is the error for a message to which its receiver does not
// respond.
type SlotError = internal.SlotError

// Tag variables for core types.
var (
	BlockTag        = internal.BlockTag
	CFunctionTag    = internal.CFunctionTag
	HostFunctionTag = internal.HostFunctionTag
	ListTag         = internal.ListTag
	MapTag          = internal.MapTag
	MessageTag      = internal.MessageTag
)

// Tag constants for core types.
const (
	CallTag      = internal.CallTag
	ExceptionTag = internal.ExceptionTag
	LocalsTag    = internal.LocalsTag
	NumberTag    = internal.NumberTag
	OpTableTag   = internal.OpTableTag
	StringTag    = internal.StringTag
)

// Control flow reasons.
const (
	NoStop        = internal.NoStop
	ContinueStop  = internal.ContinueStop
	BreakStop     = internal.BreakStop
	ReturnStop    = internal.ReturnStop
	ExceptionStop = internal.ExceptionStop
)

// Assignment kinds.
const (
	NewSlot    = internal.NewSlot
	SetSlot    = internal.SetSlot
	UpdateSlot = internal.UpdateSlot
)

// Error kinds. Use errors.Is to classify errors from parsing, resolution, and
// evaluation.
var (
	ErrSyntax              = internal.ErrSyntax
	ErrParseStructure      = internal.ErrParseStructure
	ErrReturnArity         = internal.ErrReturnArity
	ErrNoSuchSlot          = internal.ErrNoSuchSlot
	ErrInvalidArgumentType = internal.ErrInvalidArgumentType
	ErrSealed              = internal.ErrSealed
)

// NewVM prepares a new VM to interpret Io code.
func NewVM(opts ...Option) *VM {
	return internal.NewVM(opts...)
}

// Options for NewVM.
var (
	WithStdout  = internal.WithStdout
	WithOpTable = internal.WithOpTable
	WithArgs    = internal.WithArgs
	WithLogger  = internal.WithLogger
	WithTrace   = internal.WithTrace
	WithAddons  = internal.WithAddons
)

// DefaultOpTable returns a new copy of the standard operator table.
func DefaultOpTable() *OpTable {
	return internal.DefaultOpTable()
}

// ReadOpTable decodes an operator table in the given format, "yaml" or "toml".
func ReadOpTable(r io.Reader, format string) (*OpTable, error) {
	return internal.ReadOpTable(r, format)
}

// LoadOpTable reads an operator table from a YAML or TOML file.
func LoadOpTable(path string) (*OpTable, error) {
	return internal.LoadOpTable(path)
}

// AsError returns the error held by an Exception object, or nil if obj is not
// an Exception.
func AsError(obj *Object) error {
	return internal.AsError(obj)
}

// ForeachArgs gets the arguments for a foreach method utilizing the standard
// foreach([[key,] value,] message) syntax.
func ForeachArgs(msg *Message) (kn, vn string, hkn, hvn bool, ev *Message) {
	return internal.ForeachArgs(msg)
}
