package internal

import (
	"context"
	"runtime"
)

func (vm *VM) initSystem() {
	args := make([]*Object, len(vm.args))
	for i, arg := range vm.args {
		args[i] = vm.NewString(arg)
	}
	slots := Slots{
		"activeCpus":      vm.NewHostFunction(SystemActiveCpus, nil),
		"args":            vm.NewList(args...),
		"iovmName":        vm.NewString("github.com/zephyrtronium/iocore"),
		"platform":        vm.NewString(runtime.GOOS),
		"platformVersion": vm.NewString(platformVersion()),
		"type":            vm.NewString("System"),
		"version":         vm.NewString(IoVersion),
	}
	vm.SetSlot(vm.Core, "System", vm.NewObject(slots))
}

// SystemActiveCpus is a System method.
//
// activeCpus returns the number of CPUs available to the VM's process.
func SystemActiveCpus(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewNumber(float64(runtime.NumCPU())), nil
}
