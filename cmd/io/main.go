package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/zephyrtronium/iocore"
)

var log = commonlog.GetLogger("iocore.cmd")

func main() {
	var (
		ops       string
		verbosity int
		trace     bool
		expr      string
	)
	flag.StringVar(&ops, "ops", "", "operator table `file` (.yaml, .yml, or .toml)")
	flag.IntVar(&verbosity, "v", 0, "log verbosity")
	flag.BoolVar(&trace, "trace", false, "log every performed message")
	flag.StringVar(&expr, "e", "", "evaluate `expr` and print the result")
	flag.Parse()
	commonlog.Configure(verbosity, nil)

	opts := []iocore.Option{iocore.WithArgs(flag.Args()...), iocore.WithTrace(trace)}
	if ops != "" {
		t, err := iocore.LoadOpTable(ops)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		opts = append(opts, iocore.WithOpTable(t))
	}
	vm := iocore.NewVM(opts...)
	vm.SetSlot(vm.Lobby, "profiled", vm.NewCFunction(profiled, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case expr != "":
		r, err := vm.Run(ctx, strings.NewReader(expr), "-e")
		if err != nil {
			exit(err)
		}
		s, _ := vm.AsString(r)
		fmt.Println(s)
	case flag.NArg() > 0:
		for _, name := range flag.Args() {
			if err := runFile(ctx, vm, name); err != nil {
				exit(err)
			}
		}
	default:
		repl(vm)
	}
}

func runFile(ctx context.Context, vm *iocore.VM, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	log.Infof("running %s", name)
	_, err = vm.Run(ctx, f, name)
	return err
}

func exit(err error) {
	var e *iocore.Exception
	if errors.As(err, &e) {
		printException(e)
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}

func repl(vm *iocore.VM) {
	vm.SetSlots(vm.Lobby, iocore.Slots{
		"ps1":       vm.NewString("io> "),
		"isRunning": vm.True,
	})
	vm.MustDoString(`Lobby setSlot("exit", method(Lobby setSlot("isRunning", false)))`)

	stdin := bufio.NewScanner(os.Stdin)
	for isRunning, _ := vm.GetSlot(vm.Lobby, "isRunning"); vm.AsBool(isRunning); isRunning, _ = vm.GetSlot(vm.Lobby, "isRunning") {
		p := "io> "
		if ps1, _ := vm.GetSlot(vm.Lobby, "ps1"); ps1 != nil {
			if s, ok := ps1.Value.(string); ok {
				p = s
			}
		}
		fmt.Print(p)
		if !stdin.Scan() {
			break
		}
		x, stop := vm.DoString(stdin.Text(), "Command Line")
		if stop == iocore.ExceptionStop {
			if ex, ok := x.Value.(*iocore.Exception); ok {
				printException(ex)
			} else {
				s, _ := vm.AsString(x)
				fmt.Println("Raised as exception:")
				fmt.Println("\t", s)
			}
			continue
		}
		s, err := vm.AsString(x)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Println(s)
	}
	if err := stdin.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

// printException prints the error and the messages an exception unwound
// through, outermost first.
func printException(ex *iocore.Exception) {
	fmt.Fprintln(os.Stderr, "Exception:", ex.Error())
	for i := len(ex.Stack) - 1; i >= 0; i-- {
		m := ex.Stack[i]
		if p := m.Prev(); p != nil && !m.IsStart() {
			fmt.Fprintf(os.Stderr, "\t%s %s\t%s:%d\n", p.Name(), m.Name(), m.Label, m.Line)
		} else {
			fmt.Fprintf(os.Stderr, "\t%s\t%s:%d\n", m.Name(), m.Label, m.Line)
		}
	}
}

// profiled evaluates its third argument while writing CPU and heap profiles to
// the files named by its first two.
func profiled(vm *iocore.VM, target, locals *iocore.Object, msg *iocore.Message) (*iocore.Object, iocore.Stop) {
	cpu, exc, stop := msg.StringArgAt(vm, locals, 0)
	if stop != iocore.NoStop {
		return exc, stop
	}
	mem, exc, stop := msg.StringArgAt(vm, locals, 1)
	if stop != iocore.NoStop {
		return exc, stop
	}
	cf, err := os.Create(cpu)
	if err != nil {
		return vm.RaiseError(err)
	}
	defer cf.Close()
	mf, err := os.Create(mem)
	if err != nil {
		return vm.RaiseError(err)
	}
	defer mf.Close()
	if err = pprof.StartCPUProfile(cf); err != nil {
		return vm.RaiseError(err)
	}
	defer pprof.StopCPUProfile()
	v, stop := msg.EvalArgAt(vm, locals, 2)
	runtime.GC()
	if err = pprof.WriteHeapProfile(mf); err != nil {
		return vm.RaiseError(err)
	}
	return v, stop
}
