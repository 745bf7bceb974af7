package internal

import (
	"context"
	"math"
	"strconv"
)

// NumberTag is the tag for Number objects.
const NumberTag = BasicTag("Number")

const (
	numberCacheMin = -10
	numberCacheMax = 256
)

// NewNumber creates a Number object with a given value. Small integers are
// cached, so creating one always returns the same object.
func (vm *VM) NewNumber(value float64) *Object {
	if value >= numberCacheMin && value <= numberCacheMax && value == math.Trunc(value) && vm.numberCache != nil {
		return vm.numberCache[int(value)-numberCacheMin]
	}
	return vm.primitive(value, NumberTag)
}

// FormatNumber formats a number the way asString does. Integral values are
// written without a fractional part.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (vm *VM) initNumber() {
	slots := Slots{
		"%":        vm.NewHostFunction(NumberMod, NumberTag),
		"*":        vm.NewHostFunction(NumberMul, NumberTag),
		"**":       vm.NewHostFunction(NumberPow, NumberTag),
		"+":        vm.NewHostFunction(NumberAdd, NumberTag),
		"-":        vm.NewHostFunction(NumberSub, NumberTag),
		"/":        vm.NewHostFunction(NumberDiv, NumberTag),
		"<":        vm.NewHostFunction(NumberLess, NumberTag),
		"<=":       vm.NewHostFunction(NumberLessEqual, NumberTag),
		">":        vm.NewHostFunction(NumberGreater, NumberTag),
		">=":       vm.NewHostFunction(NumberGreaterEqual, NumberTag),
		"abs":      vm.NewHostFunction(NumberAbs, NumberTag),
		"asString": vm.NewHostFunction(NumberAsString, NumberTag),
		"ceil":     vm.NewHostFunction(NumberCeil, NumberTag),
		"compare":  vm.NewHostFunction(NumberCompare, NumberTag),
		"floor":    vm.NewHostFunction(NumberFloor, NumberTag),
		"max":      vm.NewHostFunction(NumberMax, NumberTag),
		"min":      vm.NewHostFunction(NumberMin, NumberTag),
		"negate":   vm.NewHostFunction(NumberNegate, NumberTag),
		"repeat":   vm.NewCFunction(NumberRepeat, NumberTag),
		"sqrt":     vm.NewHostFunction(NumberSqrt, NumberTag),
		"type":     vm.NewString("Number"),
	}
	vm.coreInstall("Number", slots, 0.0, NumberTag)
	cache := make([]*Object, numberCacheMax-numberCacheMin+1)
	for i := range cache {
		cache[i] = vm.primitive(float64(i+numberCacheMin), NumberTag)
	}
	vm.numberCache = cache
}

// numberBinary applies a binary operation to a Number receiver and a Number
// argument.
func (vm *VM) numberBinary(target *Object, args []*Object, name string, op func(x, y float64) float64) (*Object, error) {
	y, err := vm.NumberArg(args, 0, name)
	if err != nil {
		return nil, err
	}
	return vm.NewNumber(op(target.Value.(float64), y)), nil
}

// numberRelation applies a comparison to a Number receiver and a Number
// argument.
func (vm *VM) numberRelation(target *Object, args []*Object, name string, op func(x, y float64) bool) (*Object, error) {
	y, err := vm.NumberArg(args, 0, name)
	if err != nil {
		return nil, err
	}
	return vm.IoBool(op(target.Value.(float64), y)), nil
}

// NumberAdd is a Number method.
//
// + is an operator which sums two numbers.
func NumberAdd(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.numberBinary(target, args, "Number +", func(x, y float64) float64 { return x + y })
}

// NumberSub is a Number method.
//
// - is an operator which subtracts the argument from the receiver.
func NumberSub(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.numberBinary(target, args, "Number -", func(x, y float64) float64 { return x - y })
}

// NumberMul is a Number method.
//
// * is an operator which multiplies its operands.
func NumberMul(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.numberBinary(target, args, "Number *", func(x, y float64) float64 { return x * y })
}

// NumberDiv is a Number method.
//
// / is an operator which divides the left value by the right.
func NumberDiv(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.numberBinary(target, args, "Number /", func(x, y float64) float64 { return x / y })
}

// NumberMod is a Number method.
//
// % is an operator which computes the remainder of the receiver divided by the
// argument.
func NumberMod(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.numberBinary(target, args, "Number %", math.Mod)
}

// NumberPow is a Number method.
//
// ** is an operator which raises the receiver to the power of the argument.
func NumberPow(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.numberBinary(target, args, "Number **", math.Pow)
}

// NumberLess is a Number method.
func NumberLess(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.numberRelation(target, args, "Number <", func(x, y float64) bool { return x < y })
}

// NumberLessEqual is a Number method.
func NumberLessEqual(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.numberRelation(target, args, "Number <=", func(x, y float64) bool { return x <= y })
}

// NumberGreater is a Number method.
func NumberGreater(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.numberRelation(target, args, "Number >", func(x, y float64) bool { return x > y })
}

// NumberGreaterEqual is a Number method.
func NumberGreaterEqual(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.numberRelation(target, args, "Number >=", func(x, y float64) bool { return x >= y })
}

// NumberCompare is a Number method.
//
// compare returns -1 if the receiver is less than the argument, 1 if it is
// greater, or 0 if they are equal. Non-numbers compare by identity.
func NumberCompare(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	if len(args) < 1 {
		return nil, vm.argTypeError("Number compare", 0, "Number", vm.Nil)
	}
	other := args[0]
	y, ok := other.Value.(float64)
	if !ok || other.tag != NumberTag {
		return vm.NewNumber(float64(compareIDs(target, other))), nil
	}
	x := target.Value.(float64)
	switch {
	case x < y:
		return vm.NewNumber(-1), nil
	case x > y:
		return vm.NewNumber(1), nil
	}
	return vm.NewNumber(0), nil
}

// NumberAsString is a Number method.
//
// asString creates a string representation of the number.
func NumberAsString(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewString(FormatNumber(target.Value.(float64))), nil
}

// NumberAbs is a Number method.
//
// abs returns the absolute value of the receiver.
func NumberAbs(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewNumber(math.Abs(target.Value.(float64))), nil
}

// NumberCeil is a Number method.
//
// ceil returns the smallest integer greater than or equal to the receiver.
func NumberCeil(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewNumber(math.Ceil(target.Value.(float64))), nil
}

// NumberFloor is a Number method.
//
// floor returns the largest integer less than or equal to the receiver.
func NumberFloor(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewNumber(math.Floor(target.Value.(float64))), nil
}

// NumberMax is a Number method.
//
// max returns the larger of the receiver and the argument.
func NumberMax(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.numberBinary(target, args, "Number max", math.Max)
}

// NumberMin is a Number method.
//
// min returns the smaller of the receiver and the argument.
func NumberMin(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.numberBinary(target, args, "Number min", math.Min)
}

// NumberNegate is a Number method.
//
// negate returns the opposite of the receiver.
func NumberNegate(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewNumber(-target.Value.(float64)), nil
}

// NumberSqrt is a Number method.
func NumberSqrt(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewNumber(math.Sqrt(target.Value.(float64))), nil
}

// NumberRepeat is a Number method.
//
// repeat performs a loop the given number of times. If the loop takes two
// arguments, the first is the name of the loop counter.
//
//	io> 3 repeat(i, i println)
//	0
//	1
//	2
func NumberRepeat(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	var ctr string
	body := msg.ArgAt(0)
	switch msg.ArgCount() {
	case 1:
	case 2:
		ctr = msg.ArgAt(0).Name()
		body = msg.ArgAt(1)
	default:
		return vm.RaiseError(&MessageError{Err: ErrInvalidArgumentType, Msg: msg, Detail: "Number repeat requires 1 or 2 arguments"})
	}
	n := target.Value.(float64)
	result := vm.Nil
	for i := 0.0; i < n; i++ {
		if ctr != "" {
			vm.SetSlot(locals, ctr, vm.NewNumber(i))
		}
		r, stop := body.Eval(vm, locals)
		r, stop, done := loopStop(r, stop)
		result = r
		if done {
			return result, stop
		}
	}
	return result, NoStop
}
