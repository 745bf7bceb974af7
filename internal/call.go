package internal

import "context"

// Call contains information on how a Block was activated.
type Call struct {
	// Sender is the locals in the context of the activation.
	Sender *Object
	// Activated is the (Block) object which is being activated.
	Activated *Object
	// Msg is the message received to activate the block.
	Msg *Message
	// Target is the object to which the message was sent.
	Target *Object
	// Context is the object which actually owned the activated slot.
	Context *Object
	// Args holds one entry for each argument of Msg.
	Args []Arg
}

// Arg is an argument to an activation. Arguments bound to declared parameters
// hold their values; the rest are evaluated in Sender each time they are
// forced.
type Arg struct {
	// Msg is the argument message.
	Msg *Message
	// Sender is the scope in which Msg is evaluated.
	Sender *Object
	// Value is the argument's value, if Bound.
	Value *Object
	// Bound indicates that the argument was evaluated to bind a parameter.
	Bound bool
}

// Force returns the value of the argument.
func (a Arg) Force(vm *VM) (*Object, Stop) {
	if a.Bound {
		return a.Value, NoStop
	}
	return a.Msg.Eval(vm, a.Sender)
}

// CallTag is the Tag for Call objects.
const CallTag = BasicTag("Call")

func (vm *VM) initCall() {
	slots := Slots{
		"activated":   vm.NewHostFunction(CallActivated, CallTag),
		"argAt":       vm.NewHostFunction(CallArgAt, CallTag),
		"argCount":    vm.NewHostFunction(CallArgCount, CallTag),
		"evalArgAt":   vm.NewCFunction(CallEvalArgAt, CallTag),
		"evalArgs":    vm.NewCFunction(CallEvalArgs, CallTag),
		"message":     vm.NewHostFunction(CallMessage, CallTag),
		"sender":      vm.NewHostFunction(CallSender, CallTag),
		"slotContext": vm.NewHostFunction(CallSlotContext, CallTag),
		"target":      vm.NewHostFunction(CallTarget, CallTag),
		"type":        vm.NewString("Call"),
	}
	vm.coreInstall("Call", slots, &Call{}, CallTag)
}

// CallActivated is a Call method.
//
// activated returns the activated block.
func CallActivated(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return target.Value.(*Call).Activated, nil
}

// CallArgAt is a Call method.
//
// argAt returns the nth argument to the call, or nil if n is out of bounds.
// The argument is returned as the original message and is not evaluated.
func CallArgAt(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	n, err := vm.NumberArg(args, 0, "Call argAt")
	if err != nil {
		return nil, err
	}
	return vm.MessageObject(target.Value.(*Call).Msg.ArgAt(int(n))), nil
}

// CallArgCount is a Call method.
//
// argCount returns the number of arguments passed in the call.
func CallArgCount(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewNumber(float64(len(target.Value.(*Call).Args))), nil
}

// CallEvalArgAt is a Call method.
//
// evalArgAt evaluates the nth argument to the call in the context of the
// sender. Arguments bound to parameters are not evaluated again. Control flow
// raised by the argument, including return, passes through to the caller.
func CallEvalArgAt(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	c := target.Value.(*Call)
	n, exc, stop := msg.NumberArgAt(vm, locals, 0)
	if stop != NoStop {
		return exc, stop
	}
	i := int(n)
	if i < 0 || i >= len(c.Args) {
		return vm.Nil, NoStop
	}
	return c.Args[i].Force(vm)
}

// CallEvalArgs is a Call method.
//
// evalArgs returns a list of all arguments to the call evaluated in the
// context of the sender.
func CallEvalArgs(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	c := target.Value.(*Call)
	l := make([]*Object, len(c.Args))
	for i, arg := range c.Args {
		r, stop := arg.Force(vm)
		if stop != NoStop {
			return r, stop
		}
		l[i] = r
	}
	return vm.NewList(l...), NoStop
}

// CallMessage is a Call method.
//
// message returns the message which caused the activation.
func CallMessage(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.MessageObject(target.Value.(*Call).Msg), nil
}

// CallSender is a Call method.
//
// sender returns the scope from which the activation was sent.
func CallSender(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return target.Value.(*Call).Sender, nil
}

// CallSlotContext is a Call method.
//
// slotContext returns the object that owned the activated slot.
func CallSlotContext(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return target.Value.(*Call).Context, nil
}

// CallTarget is a Call method.
//
// target returns the receiver of the activating message.
func CallTarget(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return target.Value.(*Call).Target, nil
}
