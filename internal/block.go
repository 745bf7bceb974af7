package internal

import (
	"context"
	"strings"
)

// Block is a reusable, portable set of executable messages. Essentially a
// function.
type Block struct {
	// Message is the message chain the block executes.
	Message *Message
	// Self is the scope in which the block was created. Methods have nil Self,
	// so their scope is the receiver of the activating message.
	Self *Object
	// ArgNames is the list of declared parameter names.
	ArgNames []string
	// Activatable controls whether the block executes when it is the result
	// of a slot lookup. Methods are activatable.
	Activatable bool
}

// tagBlock is the Tag type for Block objects.
type tagBlock struct{}

// Activate performs the messages in this block if the block is activatable.
// Otherwise, this block is returned.
func (tagBlock) Activate(vm *VM, self, target, locals, context *Object, msg *Message) (*Object, Stop) {
	blk := self.Value.(*Block)
	if !blk.Activatable {
		return self, NoStop
	}
	return blk.reallyActivate(vm, self, target, locals, context, msg)
}

// CloneValue creates a copy of the block.
func (tagBlock) CloneValue(value interface{}) interface{} {
	blk := *value.(*Block)
	blk.ArgNames = append([]string(nil), blk.ArgNames...)
	return &blk
}

// String returns "Block".
func (tagBlock) String() string {
	return "Block"
}

// BlockTag is the Tag for Block objects. Activate activates the block if it is
// activatable and otherwise returns the block. CloneValue creates a new block
// with the same message, scope, and argument names.
var BlockTag tagBlock

// LocalsTag is the Tag for activation scopes.
const LocalsTag = BasicTag("Locals")

// reallyActivate runs the block. Declared parameters are evaluated in the
// sender's scope and bound in a fresh Locals; the Call records the remaining
// arguments for the body to force on demand. A return evaluated directly in
// the new Locals ends the activation.
func (blk *Block) reallyActivate(vm *VM, self, target, locals, context *Object, msg *Message) (*Object, Stop) {
	scope := blk.Self
	if scope == nil {
		scope = target
	}
	c := &Call{
		Sender:    locals,
		Activated: self,
		Msg:       msg,
		Target:    target,
		Context:   context,
		Args:      make([]Arg, msg.ArgCount()),
	}
	for i := range c.Args {
		c.Args[i] = Arg{Msg: msg.ArgAt(i), Sender: locals}
	}
	blkLocals := vm.NewLocals(scope, vm.primitive(c, CallTag), blk.Self == nil)
	for i, name := range blk.ArgNames {
		x, stop := msg.EvalArgAt(vm, locals, i)
		if stop != NoStop {
			return x, stop
		}
		if i < len(c.Args) {
			c.Args[i].Value = x
			c.Args[i].Bound = true
		}
		vm.SetSlot(blkLocals, name, x)
	}
	if blk.Message == nil {
		return vm.Nil, NoStop
	}
	result, stop := blk.Message.Eval(vm, blkLocals)
	return vm.consumeReturn(blkLocals, result, stop)
}

// NewLocals instantiates a Locals object for a block activation. Method
// activations also get a self slot referring to the receiver.
func (vm *VM) NewLocals(scope, call *Object, method bool) *Object {
	slots := Slots{"call": call}
	if method {
		slots["self"] = scope
	}
	return vm.ObjectWith(slots, []*Object{scope}, nil, LocalsTag)
}

// NewBlock creates a new block object. If scope is nil, the block becomes a
// method, which is activatable and uses its receiver as its scope.
func (vm *VM) NewBlock(msg *Message, scope *Object, args ...string) *Object {
	return vm.primitive(&Block{
		Message:     msg,
		Self:        scope,
		ArgNames:    args,
		Activatable: scope == nil,
	}, BlockTag)
}

// NewMethod creates a new method object.
func (vm *VM) NewMethod(msg *Message, args ...string) *Object {
	return vm.NewBlock(msg, nil, args...)
}

func (vm *VM) initBlock() {
	slots := Slots{
		"argumentNames":    vm.NewHostFunction(BlockArgumentNames, BlockTag),
		"asString":         vm.NewHostFunction(BlockAsString, BlockTag),
		"call":             vm.NewCFunction(BlockCall, BlockTag),
		"isActivatable":    vm.NewHostFunction(BlockIsActivatable, BlockTag),
		"message":          vm.NewHostFunction(BlockMessage, BlockTag),
		"scope":            vm.NewHostFunction(BlockScope, BlockTag),
		"setArgumentNames": vm.NewHostFunction(BlockSetArgumentNames, BlockTag),
		"setIsActivatable": vm.NewHostFunction(BlockSetIsActivatable, BlockTag),
		"setMessage":       vm.NewHostFunction(BlockSetMessage, BlockTag),
		"setScope":         vm.NewHostFunction(BlockSetScope, BlockTag),
		"type":             vm.NewString("Block"),
	}
	vm.coreInstall("Block", slots, &Block{}, BlockTag)
	vm.coreInstall("Locals", Slots{"type": vm.NewString("Locals")}, nil, LocalsTag)
}

// blockArgs splits a block or method message into parameter names and body.
func blockArgs(msg *Message) (names []string, body *Message) {
	n := msg.ArgCount()
	if n == 0 {
		return nil, nil
	}
	names = make([]string, n-1)
	for i, arg := range msg.Args[:n-1] {
		names[i] = arg.Name()
	}
	return names, msg.Args[n-1]
}

// ObjectBlock is an Object method.
//
// block creates a block of messages. Argument names are supplied first, and
// the block's code is the last argument. For example, to create and call a
// block which adds 1 to its argument:
//
//	io> succ := block(x, x + 1)
//	block(x, x +(1))
//	io> succ call(3)
//	4
func ObjectBlock(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	names, body := blockArgs(msg)
	return vm.NewBlock(body, locals, names...), NoStop
}

// ObjectMethod is an Object method, which is less redundant than it sounds.
//
// method creates a block of messages referring to the method antecedent.
// Argument names are supplied first, and the method's code is the last
// argument. For example, to create and call a method on numbers which return
// the number 1 higher:
//
//	io> Number succ := method(self + 1)
//	method(self +(1))
//	io> 3 succ
//	4
func ObjectMethod(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	names, body := blockArgs(msg)
	return vm.NewMethod(body, names...), NoStop
}

// BlockArgumentNames is a Block method.
//
// argumentNames returns a list of the argument names of the block.
func BlockArgumentNames(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	blk := target.Value.(*Block)
	l := make([]*Object, len(blk.ArgNames))
	for i, name := range blk.ArgNames {
		l[i] = vm.NewString(name)
	}
	return vm.NewList(l...), nil
}

// BlockAsString is a Block method.
//
// asString creates a string representation of the block.
func BlockAsString(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	blk := target.Value.(*Block)
	var b strings.Builder
	if blk.Activatable {
		b.WriteString("method(")
	} else {
		b.WriteString("block(")
	}
	for _, name := range blk.ArgNames {
		b.WriteString(name)
		b.WriteString(", ")
	}
	if blk.Message != nil {
		blk.Message.render(&b, true)
	}
	b.WriteByte(')')
	return vm.NewString(b.String()), nil
}

// BlockCall is a Block method.
//
// call activates a block.
func BlockCall(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	blk := target.Value.(*Block)
	return blk.reallyActivate(vm, target, target, locals, target, msg)
}

// BlockIsActivatable is a Block method.
//
// isActivatable returns whether the block activates when it is looked up.
func BlockIsActivatable(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.IoBool(target.Value.(*Block).Activatable), nil
}

// BlockMessage is a Block method.
//
// message returns the block's message.
func BlockMessage(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.MessageObject(target.Value.(*Block).Message), nil
}

// BlockScope is a Block method.
//
// scope returns the scope of the block, or nil if the block is a method.
func BlockScope(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	if s := target.Value.(*Block).Self; s != nil {
		return s, nil
	}
	return vm.Nil, nil
}

// BlockSetArgumentNames is a Block method.
//
// setArgumentNames changes the names of the arguments of the block. This does
// not modify the block code, so some arguments might change to context slots
// and vice-versa.
func BlockSetArgumentNames(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	names := make([]string, len(args))
	for i := range args {
		s, err := vm.StringArg(args, i, "Block setArgumentNames")
		if err != nil {
			return nil, err
		}
		names[i] = s
	}
	target.Value.(*Block).ArgNames = names
	return target, nil
}

// BlockSetIsActivatable is a Block method.
//
// setIsActivatable changes whether the block activates when it is looked up.
func BlockSetIsActivatable(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	target.Value.(*Block).Activatable = vm.AsBool(vm.argOrNil(args, 0))
	return target, nil
}

// BlockSetMessage is a Block method.
//
// setMessage changes the message executed by the block.
func BlockSetMessage(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	v := vm.argOrNil(args, 0)
	m, ok := v.Value.(*Message)
	if !ok {
		return nil, vm.argTypeError("Block setMessage", 0, "Message", v)
	}
	target.Value.(*Block).Message = m
	return target, nil
}

// BlockSetScope is a Block method.
//
// setScope changes the context of the block. A nil scope makes the block use
// its receiver as its scope, as a method does.
func BlockSetScope(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	v := vm.argOrNil(args, 0)
	if v == vm.Nil {
		v = nil
	}
	target.Value.(*Block).Self = v
	return target, nil
}
