package internal

// The singletons true, false, and nil are plain objects with their own slots.
// Conditionals built on them live in the initialization scripts.

func (vm *VM) initTrue() {
	slots := Slots{
		"asString": vm.NewString("true"),
		"clone":    vm.True,
		"type":     vm.NewString("true"),
	}
	vm.SetSlots(vm.True, slots)
	vm.True.SetProtos(vm.BaseObject)
	vm.SetSlot(vm.Core, "true", vm.True)
}

func (vm *VM) initFalse() {
	slots := Slots{
		"asBoolean": vm.False,
		"asString":  vm.NewString("false"),
		"clone":     vm.False,
		"isTrue":    vm.False,
		"not":       vm.True,
		"type":      vm.NewString("false"),
	}
	vm.SetSlots(vm.False, slots)
	vm.False.SetProtos(vm.BaseObject)
	vm.SetSlot(vm.Core, "false", vm.False)
}

func (vm *VM) initNil() {
	slots := Slots{
		"asBoolean": vm.False,
		"asString":  vm.NewString("nil"),
		"clone":     vm.Nil,
		"isNil":     vm.True,
		"isTrue":    vm.False,
		"not":       vm.True,
		"type":      vm.NewString("nil"),
	}
	vm.SetSlots(vm.Nil, slots)
	vm.Nil.SetProtos(vm.BaseObject)
	vm.SetSlot(vm.Core, "nil", vm.Nil)
}
