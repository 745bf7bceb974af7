package internal

import (
	"context"
	"strconv"
	"strings"
	"weak"
)

// A Message is the fundamental syntactic element and functionality of Io.
// Programs are chains of messages linked through Next, with argument chains
// hanging off each node.
//
// Messages are not synchronized. It is a race condition to modify a message
// that might be in use, such as 'call message'.
type Message struct {
	// Text is the name of this message.
	Text string
	// Args are the message's argument messages.
	Args []*Message
	// Next is the following message. A message owns its successors.
	Next *Message
	// prev is a weak link to the previous message. It becomes nil when the
	// predecessor is no longer reachable.
	prev weak.Pointer[Message]

	// Memo is the message's cached value. If non-nil, this is used instead of
	// performing the message.
	Memo *Object

	// Label is the message's label, generally the name of the file from which
	// it was parsed, if any.
	Label string
	// Line and Col are the one-based line and column numbers within the file
	// at which the message was parsed.
	Line, Col int

	// boundary marks a synthetic group boundary inserted by the parser.
	boundary bool
}

// tagMessage is the Tag type for Message objects.
type tagMessage struct{}

// Activate returns self.
func (tagMessage) Activate(vm *VM, self, target, locals, context *Object, msg *Message) (*Object, Stop) {
	return self, NoStop
}

// CloneValue creates a deep copy of the message.
func (tagMessage) CloneValue(value interface{}) interface{} {
	return value.(*Message).DeepCopy()
}

// String returns "Message".
func (tagMessage) String() string {
	return "Message"
}

// MessageTag is the Tag for Message objects. Activate returns self.
// CloneValue creates a deep copy of the message chain.
var MessageTag tagMessage

// IdentMessage creates a message of a given identifier. Additional messages
// may be passed as arguments.
func (vm *VM) IdentMessage(s string, args ...*Message) *Message {
	return &Message{
		Text: s,
		Args: args,
	}
}

// StringMessage creates a message carrying a string value.
func (vm *VM) StringMessage(s string) *Message {
	return &Message{
		Text: strconv.Quote(s),
		Memo: vm.NewString(s),
	}
}

// NumberMessage creates a message carrying a numeric value.
func (vm *VM) NumberMessage(v float64) *Message {
	return &Message{
		Text: strconv.FormatFloat(v, 'g', -1, 64),
		Memo: vm.NewNumber(v),
	}
}

// CachedMessage creates a message carrying a cached value.
func (vm *VM) CachedMessage(v *Object) *Message {
	text, err := vm.AsString(v)
	if err != nil {
		text = vm.TypeName(v)
	}
	if s, ok := v.Value.(string); ok && v.tag == StringTag {
		text = strconv.Quote(s)
	}
	return &Message{
		Text: text,
		Memo: v,
	}
}

// TerminatorMessage creates a statement terminator. Hard terminators are
// written as semicolons; soft ones are newlines.
func (vm *VM) TerminatorMessage(hard bool) *Message {
	if hard {
		return &Message{Text: ";"}
	}
	return &Message{Text: "\n"}
}

// BoundaryMessage creates a group boundary marker. Operator runs never extend
// past a boundary, and the resolver removes boundaries once it is done.
func (vm *VM) BoundaryMessage() *Message {
	return &Message{boundary: true}
}

// MessageObject returns an Object with the given Message value. If msg is nil,
// the result is nil.
func (vm *VM) MessageObject(msg *Message) *Object {
	if msg == nil {
		return vm.Nil
	}
	return vm.ObjectWith(nil, vm.CoreProto("Message"), msg, MessageTag)
}

// Prev returns the previous message in the chain, or nil if there is none or
// it is no longer reachable.
func (m *Message) Prev() *Message {
	if m == nil {
		return nil
	}
	return m.prev.Value()
}

// SetNext links next to follow m, replacing m's current successor, and sets
// next's previous link to m. Returns next. The caller is responsible for not
// creating cycles.
func (m *Message) SetNext(next *Message) *Message {
	m.Next = next
	if next != nil {
		next.prev = weak.Make(m)
	}
	return next
}

// InsertAfter links another message to follow this one, moving this message's
// successor to follow the new one.
func (m *Message) InsertAfter(next *Message) {
	if m == nil || next == nil {
		return
	}
	next.SetNext(m.Next)
	m.SetNext(next)
}

// Last returns the final message in the chain starting at m.
func (m *Message) Last() *Message {
	if m == nil {
		return nil
	}
	for m.Next != nil {
		m = m.Next
	}
	return m
}

// SetArgs replaces the message's arguments.
func (m *Message) SetArgs(args ...*Message) {
	m.Args = args
}

// DeepCopy creates a copy of the message linked to copies of each message
// forward.
func (m *Message) DeepCopy() *Message {
	if m == nil {
		return nil
	}
	var head, tail *Message
	for ; m != nil; m = m.Next {
		c := &Message{
			Text:     m.Text,
			Args:     make([]*Message, len(m.Args)),
			Memo:     m.Memo,
			Label:    m.Label,
			Line:     m.Line,
			Col:      m.Col,
			boundary: m.boundary,
		}
		for i, arg := range m.Args {
			c.Args[i] = arg.DeepCopy()
		}
		if head == nil {
			head = c
		} else {
			tail.SetNext(c)
		}
		tail = c
	}
	return head
}

// IsLiteral determines whether the message carries a value rather than
// sending to its receiver.
func (m *Message) IsLiteral() bool {
	return m != nil && m.Memo != nil
}

// IsTerminator determines whether this message is the end of an expression.
// This is true if it is nil or it is a semicolon or newline.
func (m *Message) IsTerminator() bool {
	if m == nil {
		return true
	}
	return m.Memo == nil && (m.Text == ";" || m.Text == "\n")
}

// IsHardTerminator determines whether the message is a semicolon terminator.
func (m *Message) IsHardTerminator() bool {
	return m != nil && m.Memo == nil && m.Text == ";"
}

// IsEndOfStatement is an alias for IsTerminator.
func (m *Message) IsEndOfStatement() bool {
	return m.IsTerminator()
}

// IsBoundary determines whether the message is a group boundary marker.
func (m *Message) IsBoundary() bool {
	return m != nil && m.boundary
}

// IsStart determines whether this message is the start of a "statement." This
// is true if it has no previous link or if the previous link is a terminator.
func (m *Message) IsStart() bool {
	if m == nil {
		return true
	}
	return m.Prev().IsTerminator()
}

// Name returns the name of the message, which is its text if it is non-nil.
func (m *Message) Name() string {
	if m != nil {
		return m.Text
	}
	return "<nil message>"
}

// ArgCount returns the number of arguments to the message.
func (m *Message) ArgCount() int {
	if m == nil {
		return 0
	}
	return len(m.Args)
}

// AssertArgCount returns an error if the message does not have the given
// number of arguments. name is the name of the message used in the generated
// error message.
func (m *Message) AssertArgCount(name string, n int) error {
	if m.ArgCount() != n {
		return &MessageError{
			Err:    ErrInvalidArgumentType,
			Msg:    m,
			Detail: name + " must have " + strconv.Itoa(n) + " arguments",
		}
	}
	return nil
}

// ArgAt returns the argument at position n, or nil if the position is out of
// bounds.
func (m *Message) ArgAt(n int) (r *Message) {
	if 0 <= n && n < m.ArgCount() {
		r = m.Args[n]
	}
	return r
}

// EvalArgAt evaluates the nth argument.
func (m *Message) EvalArgAt(vm *VM, locals *Object, n int) (result *Object, control Stop) {
	return m.ArgAt(n).Eval(vm, locals)
}

// NumberArgAt evaluates the nth argument and returns it as a float64. If a
// stop occurs during evaluation, both the result and the stop are returned. If
// the result is not a Number, an exception is returned with ExceptionStop.
func (m *Message) NumberArgAt(vm *VM, locals *Object, n int) (float64, *Object, Stop) {
	v, s := m.EvalArgAt(vm, locals, n)
	if s != NoStop {
		return 0, v, s
	}
	if f, ok := v.Value.(float64); ok && v.tag == NumberTag {
		return f, nil, NoStop
	}
	exc, s := vm.RaiseError(attribute(vm.argTypeError(m.Text, n, "Number", v), m))
	return 0, exc, s
}

// StringArgAt evaluates the nth argument and returns it as a string.
func (m *Message) StringArgAt(vm *VM, locals *Object, n int) (string, *Object, Stop) {
	v, s := m.EvalArgAt(vm, locals, n)
	if s != NoStop {
		return "", v, s
	}
	if str, ok := v.Value.(string); ok && v.tag == StringTag {
		return str, nil, NoStop
	}
	exc, s := vm.RaiseError(attribute(vm.argTypeError(m.Text, n, "String", v), m))
	return "", exc, s
}

// Eval evaluates a message in the context of the given VM. This is a proxy to
// Send using locals as the target.
func (m *Message) Eval(vm *VM, locals *Object) (result *Object, control Stop) {
	return m.Send(vm, locals, locals)
}

// Send evaluates a message chain with target as the receiver of its first
// message. Terminators reset the receiver to the original target. Any control
// flow other than NoStop ends the chain.
func (m *Message) Send(vm *VM, target, locals *Object) (result *Object, control Stop) {
	first := target
	for ; m != nil; m = m.Next {
		switch {
		case m.Memo != nil:
			// If there is a memo, the message automatically becomes it
			// instead of performing.
			result = m.Memo
			target = result
			continue
		case m.IsTerminator():
			target = first
			continue
		case m.boundary:
			continue
		case m.Text == "return":
			result, control = vm.doReturn(locals, m)
		default:
			result, control = vm.Perform(target, locals, m)
		}
		if control != NoStop {
			if control == ExceptionStop {
				if e, ok := result.Value.(*Exception); ok {
					e.Stack = append(e.Stack, m)
				}
			}
			return result, control
		}
		target = result
	}
	if result == nil {
		result = vm.Nil
	}
	return result, NoStop
}

// Perform executes a single message. The slot is looked up on target first;
// failing that, in the sender's scope, then target's forward slot, then the
// Lobby. If none of these respond, the result is a NoSuchSlot exception.
func (vm *VM) Perform(target, locals *Object, msg *Message) (result *Object, control Stop) {
	if vm.trace {
		vm.log.Debugf("%s:%d:%d: %s %s", msg.Label, msg.Line, msg.Col, vm.TypeName(target), msg.Text)
	}
	recv := target
	v, proto := vm.GetSlot(target, msg.Text)
	if proto == nil && locals != nil && locals != target {
		if v, proto = vm.GetSlot(locals, msg.Text); proto != nil {
			recv = locals
		}
	}
	if proto == nil {
		v, proto = vm.GetSlot(target, "forward")
	}
	if proto == nil && target != vm.Lobby {
		if v, proto = vm.GetSlot(vm.Lobby, msg.Text); proto != nil {
			recv = vm.Lobby
		}
	}
	if proto == nil {
		return vm.RaiseError(&SlotError{Type: vm.TypeName(target), Slot: msg.Text, Msg: msg})
	}
	result, control = v.Activate(vm, recv, locals, proto, msg)
	if result == nil {
		result = vm.Nil
	}
	return result, control
}

// String renders the message chain. Terminators render as a semicolon and a
// newline, or as "; " inside argument lists. Literals render as their quoted
// values, and sends render as name(arg, arg, ...).
func (m *Message) String() string {
	if m == nil {
		return "<nil message>"
	}
	var b strings.Builder
	m.render(&b, false)
	return b.String()
}

func (m *Message) render(b *strings.Builder, inArgs bool) {
	for ; m != nil; m = m.Next {
		switch {
		case m.boundary:
			continue
		case m.IsTerminator():
			b.WriteByte(';')
			if !inArgs {
				b.WriteByte('\n')
			} else if m.Next != nil {
				b.WriteByte(' ')
			}
			continue
		}
		b.WriteString(m.Text)
		if len(m.Args) > 0 {
			b.WriteByte('(')
			for i, arg := range m.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				arg.render(b, true)
			}
			b.WriteByte(')')
		}
		if n := m.Next; n != nil && !n.IsTerminator() && !n.boundary {
			b.WriteByte(' ')
		}
	}
}

func (vm *VM) initMessage() {
	slots := Slots{
		"argAt":            vm.NewHostFunction(MessageArgAt, MessageTag),
		"argCount":         vm.NewHostFunction(MessageArgCount, MessageTag),
		"arguments":        vm.NewHostFunction(MessageArguments, MessageTag),
		"asString":         vm.NewHostFunction(MessageAsString, MessageTag),
		"doInContext":      vm.NewCFunction(MessageDoInContext, MessageTag),
		"fromString":       vm.NewHostFunction(MessageFromString, nil),
		"isEndOfStatement": vm.NewHostFunction(MessageIsEndOfStatement, MessageTag),
		"isLiteral":        vm.NewHostFunction(MessageIsLiteral, MessageTag),
		"label":            vm.NewHostFunction(MessageLabel, MessageTag),
		"last":             vm.NewHostFunction(MessageLast, MessageTag),
		"lineNumber":       vm.NewHostFunction(MessageLineNumber, MessageTag),
		"name":             vm.NewHostFunction(MessageName, MessageTag),
		"next":             vm.NewHostFunction(MessageNext, MessageTag),
		"opShuffle":        vm.NewHostFunction(MessageOpShuffle, MessageTag),
		"previous":         vm.NewHostFunction(MessagePrevious, MessageTag),
		"setName":          vm.NewHostFunction(MessageSetName, MessageTag),
		"setNext":          vm.NewHostFunction(MessageSetNext, MessageTag),
		"type":             vm.NewString("Message"),
	}
	vm.coreInstall("Message", slots, &Message{}, MessageTag)
}

// MessageArgAt is a Message method.
//
// argAt returns the nth argument, or nil if out of bounds.
func MessageArgAt(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	n, err := vm.NumberArg(args, 0, "Message argAt")
	if err != nil {
		return nil, err
	}
	return vm.MessageObject(target.Value.(*Message).ArgAt(int(n))), nil
}

// MessageArgCount is a Message method.
//
// argCount returns the number of arguments to the message.
func MessageArgCount(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewNumber(float64(target.Value.(*Message).ArgCount())), nil
}

// MessageArguments is a Message method.
//
// arguments returns a list of the arguments to the message as messages.
func MessageArguments(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	m := target.Value.(*Message)
	l := make([]*Object, m.ArgCount())
	for k, v := range m.Args {
		l[k] = vm.MessageObject(v)
	}
	return vm.NewList(l...), nil
}

// MessageAsString is a Message method.
//
// asString renders the message chain.
func MessageAsString(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewString(target.Value.(*Message).String()), nil
}

// MessageDoInContext is a Message method.
//
// doInContext evaluates the message in the context of the given object,
// optionally with a given locals. If the locals aren't given, the context is
// the locals.
func MessageDoInContext(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	m := target.Value.(*Message)
	ctx, stop := msg.EvalArgAt(vm, locals, 0)
	if stop != NoStop {
		return ctx, stop
	}
	scope := ctx
	if msg.ArgCount() > 1 {
		scope, stop = msg.EvalArgAt(vm, locals, 1)
		if stop != NoStop {
			return scope, stop
		}
	}
	r, stop := m.Send(vm, ctx, scope)
	return vm.rescope(scope, locals, r, stop)
}

// MessageFromString is a Message method.
//
// fromString parses and resolves the string into a message chain.
func MessageFromString(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	s, err := vm.StringArg(args, 0, "Message fromString")
	if err != nil {
		return nil, err
	}
	m, err := vm.Parse(strings.NewReader(s), "<string>")
	if err != nil {
		return nil, err
	}
	return vm.MessageObject(m), nil
}

// MessageIsEndOfStatement is a Message method.
//
// isEndOfStatement returns whether the message is a terminator.
func MessageIsEndOfStatement(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.IoBool(target.Value.(*Message).IsTerminator()), nil
}

// MessageIsLiteral is a Message method.
//
// isLiteral returns whether the message carries a value.
func MessageIsLiteral(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.IoBool(target.Value.(*Message).IsLiteral()), nil
}

// MessageLabel is a Message method.
//
// label returns the message's label, typically the name of the file from which
// it was parsed.
func MessageLabel(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewString(target.Value.(*Message).Label), nil
}

// MessageLast is a Message method.
//
// last returns the last message in the chain.
func MessageLast(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	m := target.Value.(*Message)
	if m.Next == nil {
		return target, nil
	}
	return vm.MessageObject(m.Last()), nil
}

// MessageLineNumber is a Message method.
//
// lineNumber returns the line number at which the message was parsed.
func MessageLineNumber(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewNumber(float64(target.Value.(*Message).Line)), nil
}

// MessageName is a Message method.
//
// name returns the name of the message.
func MessageName(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewString(target.Value.(*Message).Name()), nil
}

// MessageNext is a Message method.
//
// next returns the next message in the chain, or nil if this is the last one.
func MessageNext(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.MessageObject(target.Value.(*Message).Next), nil
}

// MessageOpShuffle is a Message method.
//
// opShuffle resolves assignment and operator macros in the message using the
// VM's operator table.
func MessageOpShuffle(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	if err := vm.OpShuffle(target.Value.(*Message)); err != nil {
		return nil, err
	}
	return target, nil
}

// MessagePrevious is a Message method.
//
// previous returns the previous message in the chain, or nil if there is none.
func MessagePrevious(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.MessageObject(target.Value.(*Message).Prev()), nil
}

// MessageSetName is a Message method.
//
// setName sets the message name to the given string.
func MessageSetName(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	s, err := vm.StringArg(args, 0, "Message setName")
	if err != nil {
		return nil, err
	}
	target.Value.(*Message).Text = s
	return target, nil
}

// MessageSetNext is a Message method.
//
// setNext sets the next message in the chain. That message's previous link
// will be set to this message, if non-nil.
func MessageSetNext(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	m := target.Value.(*Message)
	r := vm.argOrNil(args, 0)
	if r == vm.Nil {
		m.SetNext(nil)
		return target, nil
	}
	nm, ok := r.Value.(*Message)
	if !ok {
		return nil, vm.argTypeError("Message setNext", 0, "Message", r)
	}
	m.SetNext(nm)
	return target, nil
}
