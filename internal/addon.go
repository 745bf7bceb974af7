package internal

import (
	"fmt"
	"strings"
)

// Addon is an interface via which an embedding program extends a VM with its
// own protos and host functions.
//
// Addons are installed while the VM is being created, after the core protos
// and their initialization scripts exist and before the core is sealed. Each
// addon is initialized at most once per VM.
type Addon interface {
	// Name returns the name of the addon.
	Name() string
	// Depends returns the names of addons on which this addon depends. Each
	// is initialized before this addon's Init.
	Depends() []string
	// Init installs the addon's protos on this VM, usually by calling
	// CoreInstall for each.
	Init(vm *VM) error
}

// WithAddons adds addons to install on the VM.
func WithAddons(addons ...Addon) Option {
	return func(vm *VM) {
		vm.addons = append(vm.addons, addons...)
	}
}

// addonLoader tracks dependency resolution for one set of addons.
type addonLoader struct {
	vm *VM
	// known maps addon names to addons.
	known map[string]Addon
	// inited tracks addons that have finished initializing. loading tracks
	// those on the current dependency path.
	inited  map[string]bool
	loading []string
}

// loadAddons initializes the VM's addons in order, each after its
// dependencies.
func (vm *VM) loadAddons() error {
	l := addonLoader{
		vm:     vm,
		known:  make(map[string]Addon, len(vm.addons)),
		inited: make(map[string]bool, len(vm.addons)),
	}
	for _, a := range vm.addons {
		if _, ok := l.known[a.Name()]; ok {
			return fmt.Errorf("iocore: duplicate addon %s", a.Name())
		}
		l.known[a.Name()] = a
	}
	for _, a := range vm.addons {
		if err := l.load(a); err != nil {
			return err
		}
	}
	return nil
}

func (l *addonLoader) load(a Addon) error {
	name := a.Name()
	if l.inited[name] {
		return nil
	}
	for _, n := range l.loading {
		if n == name {
			return fmt.Errorf("iocore: addon dependency cycle: %s -> %s", strings.Join(l.loading, " -> "), name)
		}
	}
	l.loading = append(l.loading, name)
	for _, dep := range a.Depends() {
		da, ok := l.known[dep]
		if !ok {
			return fmt.Errorf("iocore: unable to load %s (dependency of %s): not provided", dep, name)
		}
		if err := l.load(da); err != nil {
			return err
		}
	}
	l.loading = l.loading[:len(l.loading)-1]
	if err := a.Init(l.vm); err != nil {
		return fmt.Errorf("iocore: initializing addon %s: %w", name, err)
	}
	l.inited[name] = true
	l.vm.log.Debugf("loaded addon %s", name)
	return nil
}
