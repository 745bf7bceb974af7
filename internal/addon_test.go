package internal_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/zephyrtronium/iocore"
	"github.com/zephyrtronium/iocore/testutils"
)

// testAddon records its initialization and installs one proto named after
// itself.
type testAddon struct {
	name string
	deps []string
	err  error
	log  *[]string
}

func (a *testAddon) Name() string {
	return a.name
}

func (a *testAddon) Depends() []string {
	return a.deps
}

func (a *testAddon) Init(vm *iocore.VM) error {
	*a.log = append(*a.log, a.name)
	if a.err != nil {
		return a.err
	}
	_, err := vm.CoreInstall(a.name, iocore.Slots{
		"type": vm.NewString(a.name),
		"greet": vm.NewHostFunction(func(ctx context.Context, vm *iocore.VM, target *iocore.Object, args []*iocore.Object) (*iocore.Object, error) {
			return vm.NewString("hello from " + a.name), nil
		}, nil),
	}, nil, nil)
	return err
}

// newAddonVM creates a VM with the given addons, converting a panic from
// NewVM into an error.
func newAddonVM(addons ...iocore.Addon) (vm *iocore.VM, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				e = fmt.Errorf("%v", r)
			}
			err = e
		}
	}()
	vm, _ = testutils.NewVM(iocore.WithAddons(addons...))
	return vm, nil
}

// TestAddonOrder tests that addons are initialized once each, after their
// dependencies.
func TestAddonOrder(t *testing.T) {
	var log []string
	addons := []iocore.Addon{
		&testAddon{name: "App", deps: []string{"Net", "Store"}, log: &log},
		&testAddon{name: "Store", deps: []string{"Codec"}, log: &log},
		&testAddon{name: "Net", deps: []string{"Codec"}, log: &log},
		&testAddon{name: "Codec", log: &log},
	}
	vm, err := newAddonVM(addons...)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Codec", "Net", "Store", "App"}
	if strings.Join(log, " ") != strings.Join(want, " ") {
		t.Errorf("wrong initialization order: want %v, have %v", want, log)
	}
	r, stop := vm.DoString(`App greet .. ", " .. Codec type`, "TestAddonOrder")
	if stop != iocore.NoStop {
		t.Fatalf("using addon protos: %v", iocore.AsError(r))
	}
	if r.Value != "hello from App, Codec" {
		t.Errorf("wrong result %q", r.Value)
	}
}

// TestAddonErrors tests that failing addon sets prevent VM creation.
func TestAddonErrors(t *testing.T) {
	sentinel := errors.New("no")
	cases := map[string]struct {
		addons func(log *[]string) []iocore.Addon
		text   string
	}{
		"Missing": {
			addons: func(log *[]string) []iocore.Addon {
				return []iocore.Addon{&testAddon{name: "A", deps: []string{"B"}, log: log}}
			},
			text: "not provided",
		},
		"Cycle": {
			addons: func(log *[]string) []iocore.Addon {
				return []iocore.Addon{
					&testAddon{name: "A", deps: []string{"B"}, log: log},
					&testAddon{name: "B", deps: []string{"C"}, log: log},
					&testAddon{name: "C", deps: []string{"A"}, log: log},
				}
			},
			text: "cycle",
		},
		"SelfCycle": {
			addons: func(log *[]string) []iocore.Addon {
				return []iocore.Addon{&testAddon{name: "A", deps: []string{"A"}, log: log}}
			},
			text: "cycle",
		},
		"Duplicate": {
			addons: func(log *[]string) []iocore.Addon {
				return []iocore.Addon{&testAddon{name: "A", log: log}, &testAddon{name: "A", log: log}}
			},
			text: "duplicate",
		},
		"Init": {
			addons: func(log *[]string) []iocore.Addon {
				return []iocore.Addon{&testAddon{name: "A", err: sentinel, log: log}}
			},
			text: "initializing addon A",
		},
		"Clobber": {
			addons: func(log *[]string) []iocore.Addon {
				return []iocore.Addon{&testAddon{name: "A", log: log}, &testAddon{name: "B", deps: []string{"A"}, err: sentinel, log: log}}
			},
			text: "initializing addon B",
		},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			var log []string
			_, err := newAddonVM(c.addons(&log)...)
			if err == nil {
				t.Fatal("VM created without error")
			}
			if !strings.Contains(err.Error(), c.text) {
				t.Errorf("wrong error: want %q in %v", c.text, err)
			}
			if strings.HasPrefix(name, "Init") || name == "Clobber" {
				if !errors.Is(err, sentinel) {
					t.Errorf("error does not wrap Init's error: %v", err)
				}
			}
		})
	}
}

// TestCoreSealed tests that protos cannot be installed after creation.
func TestCoreSealed(t *testing.T) {
	vm := testutils.VM()
	r, err := vm.CoreInstall("Late", iocore.Slots{}, nil, nil)
	if !errors.Is(err, iocore.ErrSealed) {
		t.Errorf("wrong error: want ErrSealed, got %v", err)
	}
	if r != nil {
		t.Errorf("installed %v", r)
	}
	if _, ok := vm.GetLocalSlot(vm.Core, "Late"); ok {
		t.Error("Core has the late proto")
	}
}
