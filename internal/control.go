package internal

import "fmt"

// Stop represents the reason for flow control.
type Stop int

// Control flow reasons.
const (
	// NoStop indicates normal execution.
	NoStop Stop = iota
	// ContinueStop should be interpreted by loops as a signal to restart the
	// loop immediately.
	ContinueStop
	// BreakStop should be interpreted by loops as a signal to exit the loop.
	BreakStop
	// ReturnStop should be interpreted by loops and blocks as a signal to
	// exit. Only the activation whose locals evaluated the return consumes
	// it; see VM.Returning.
	ReturnStop
	// ExceptionStop should be interpreted by loops, blocks, and CFunctions as
	// a signal to exit.
	ExceptionStop
)

var stopNames = [...]string{"normal", "continue", "break", "return", "exception"}

// String returns a string representation of the Stop.
func (s Stop) String() string {
	if s < NoStop || s > ExceptionStop {
		return fmt.Sprintf("Stop(%d)", int(s))
	}
	return stopNames[s]
}

// Err returns nil if s is NoStop or an error value if s is ContinueStop,
// BreakStop, ReturnStop, or ExceptionStop. Panics otherwise.
func (s Stop) Err() error {
	switch s {
	case NoStop:
		return nil
	case ContinueStop, BreakStop, ReturnStop, ExceptionStop:
		return stopError(s)
	default:
		panic(fmt.Sprintf("iocore: invalid Stop: %v", s))
	}
}

type stopError Stop

func (err stopError) Error() string {
	return Stop(err).String()
}

// doReturn evaluates a return message. The argument is evaluated in locals,
// and the escape is tagged with locals so that only the activation owning
// that scope consumes it.
func (vm *VM) doReturn(locals *Object, msg *Message) (*Object, Stop) {
	if len(msg.Args) > 1 {
		return vm.RaiseError(&MessageError{Err: ErrReturnArity, Msg: msg})
	}
	result := vm.Nil
	if len(msg.Args) == 1 {
		r, stop := msg.Args[0].Eval(vm, locals)
		if stop != NoStop {
			return r, stop
		}
		result = r
	}
	vm.returning = locals
	return result, ReturnStop
}

// Returning returns the scope that evaluated the pending return, if any.
func (vm *VM) Returning() *Object {
	return vm.returning
}

// consumeReturn converts a ReturnStop into NoStop if the return was evaluated
// in scope.
func (vm *VM) consumeReturn(scope *Object, result *Object, stop Stop) (*Object, Stop) {
	if stop == ReturnStop && vm.returning == scope {
		vm.returning = nil
		return result, NoStop
	}
	return result, stop
}

// rescope moves a pending return evaluated in scope to locals. Helpers that
// evaluate code in a scope other than their caller's use it so that the
// activation owning locals consumes the return.
func (vm *VM) rescope(scope, locals, result *Object, stop Stop) (*Object, Stop) {
	if stop == ReturnStop && vm.returning == scope {
		vm.returning = locals
	}
	return result, stop
}

// loopStop interprets a stop received by a loop body. done is true if the
// loop must exit, in which case the result and stop are what the loop
// returns.
func loopStop(result *Object, stop Stop) (r *Object, s Stop, done bool) {
	switch stop {
	case NoStop, ContinueStop:
		return result, NoStop, false
	case BreakStop:
		return result, NoStop, true
	case ReturnStop, ExceptionStop:
		return result, stop, true
	default:
		panic(fmt.Errorf("iocore: invalid Stop: %w", stop.Err()))
	}
}

// ObjectFor is an Object method.
//
// for performs a loop with a counter. For example, to print each number from 1
// to 3 inclusive:
//
//	io> for(x, 1, 3, x println)
//
// Or, to print each third number from 10 to 25:
//
//	io> for(x, 10, 25, 3, x println)
func ObjectFor(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	var (
		low, high float64
		step      = 1.0
		body      = msg.ArgAt(3)
	)
	switch msg.ArgCount() {
	case 5:
		v, exc, stop := msg.NumberArgAt(vm, locals, 3)
		if stop != NoStop {
			return exc, stop
		}
		step = v
		body = msg.ArgAt(4)
		fallthrough
	case 4:
		v, exc, stop := msg.NumberArgAt(vm, locals, 1)
		if stop != NoStop {
			return exc, stop
		}
		low = v
		if v, exc, stop = msg.NumberArgAt(vm, locals, 2); stop != NoStop {
			return exc, stop
		}
		high = v
	default:
		return vm.RaiseError(&MessageError{Err: ErrInvalidArgumentType, Msg: msg, Detail: "Object for requires 4 or 5 arguments"})
	}
	if step == 0 {
		return vm.RaiseExceptionf("Object for step must be nonzero")
	}
	ctr := msg.ArgAt(0).Name()
	result := vm.Nil
	for i := low; (step > 0 && i <= high) || (step < 0 && i >= high); i += step {
		vm.SetSlot(locals, ctr, vm.NewNumber(i))
		r, stop := body.Eval(vm, locals)
		r, stop, done := loopStop(r, stop)
		result = r
		if done {
			return result, stop
		}
	}
	return result, NoStop
}

// ObjectWhile is an Object method.
//
// while performs a loop as long as a condition, its first argument, evaluates
// to true.
func ObjectWhile(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	if err := msg.AssertArgCount("Object while", 2); err != nil {
		return vm.RaiseError(err)
	}
	cond := msg.ArgAt(0)
	body := msg.ArgAt(1)
	result := vm.Nil
	for {
		c, stop := cond.Eval(vm, locals)
		if stop != NoStop {
			return c, stop
		}
		if !vm.AsBool(c) {
			return result, NoStop
		}
		r, stop := body.Eval(vm, locals)
		r, stop, done := loopStop(r, stop)
		result = r
		if done {
			return result, stop
		}
	}
}

// ObjectLoop is an Object method.
//
// loop performs a loop until a break or return.
func ObjectLoop(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	if err := msg.AssertArgCount("Object loop", 1); err != nil {
		return vm.RaiseError(err)
	}
	body := msg.ArgAt(0)
	for {
		r, stop := body.Eval(vm, locals)
		if r, stop, done := loopStop(r, stop); done {
			return r, stop
		}
	}
}

// ObjectContinue is an Object method.
//
// continue immediately returns to the beginning of the current loop.
func ObjectContinue(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	v, stop := msg.EvalArgAt(vm, locals, 0)
	if stop != NoStop {
		return v, stop
	}
	return v, ContinueStop
}

// ObjectBreak is an Object method.
//
// break ceases execution of a loop and returns a value from it.
func ObjectBreak(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	v, stop := msg.EvalArgAt(vm, locals, 0)
	// Check against only NoStop so that an expression like break(continue)
	// uses the first-evaluated control flow.
	if stop != NoStop {
		return v, stop
	}
	return v, BreakStop
}

// ForeachArgs gets the arguments for a foreach method utilizing the standard
// foreach([[key,] value,] message) syntax.
func ForeachArgs(msg *Message) (kn, vn string, hkn, hvn bool, ev *Message) {
	switch len(msg.Args) {
	case 3:
		kn = msg.ArgAt(0).Name()
		vn = msg.ArgAt(1).Name()
		ev = msg.ArgAt(2)
		hkn, hvn = true, true
	case 2:
		vn = msg.ArgAt(0).Name()
		ev = msg.ArgAt(1)
		hvn = true
	case 1:
		ev = msg.ArgAt(0)
	}
	return
}
