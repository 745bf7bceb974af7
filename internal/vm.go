package internal

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/tliron/commonlog"
	"github.com/zephyrtronium/contains"
)

// IoVersion is the interpreter version, used for the System version slot.
const IoVersion = "1"

// VM is an object for processing Io programs. A VM is not safe for concurrent
// use; each VM is independent of all others.
type VM struct {
	// Lobby is the default target of messages.
	Lobby *Object
	// Core is the object containing the basic prototypes of Io.
	Core *Object

	// Singletons.
	BaseObject *Object
	True       *Object
	False      *Object
	Nil        *Object

	// Operators is the table used to resolve messages parsed by this VM.
	Operators *OpTable
	// Stdout is the destination of print and println.
	Stdout io.Writer

	// protoSet is the set of protos checked during GetSlot.
	protoSet contains.Set
	// protoStack is the stack of protos to check during GetSlot.
	protoStack []*Object

	// kinds maps each primitive tag to the protos used for values of that
	// kind which have no explicit protos.
	kinds map[Tag][]*Object
	// numberCache is a list of cached Number objects.
	numberCache []*Object

	// args are the strings in System args.
	args []string
	// ctx is the context passed to host functions.
	ctx context.Context
	// returning is the scope that evaluated the pending return.
	returning *Object

	// addons are installed after bootstrap.
	addons []Addon

	log   commonlog.Logger
	trace bool
	// sealed is set once bootstrap completes. Afterward, Core protos and the
	// kinds table are fixed.
	sealed bool
}

// Option configures a VM.
type Option func(*VM)

// WithStdout sets the destination of print and println. The default is
// os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(vm *VM) {
		vm.Stdout = w
	}
}

// WithOpTable sets the operator table used to resolve parsed messages. The
// default is DefaultOpTable.
func WithOpTable(t *OpTable) Option {
	return func(vm *VM) {
		vm.Operators = t
	}
}

// WithArgs sets the contents of System args.
func WithArgs(args ...string) Option {
	return func(vm *VM) {
		vm.args = args
	}
}

// WithLogger sets the VM's logger. The default is the iocore.vm logger.
func WithLogger(log commonlog.Logger) Option {
	return func(vm *VM) {
		vm.log = log
	}
}

// WithTrace enables logging every performed message at debug level.
func WithTrace(trace bool) Option {
	return func(vm *VM) {
		vm.trace = trace
	}
}

// NewVM prepares a new VM to interpret Io code. Panics if an addon fails to
// initialize.
func NewVM(opts ...Option) *VM {
	vm := &VM{
		Lobby: &Object{id: nextObject()},
		Core:  &Object{id: nextObject()},

		BaseObject: &Object{id: nextObject()},
		True:       &Object{id: nextObject()},
		False:      &Object{id: nextObject()},
		Nil:        &Object{id: nextObject()},

		Stdout: os.Stdout,
		kinds:  make(map[Tag][]*Object),
		ctx:    context.Background(),
		log:    commonlog.GetLogger("iocore.vm"),
	}
	for _, opt := range opts {
		opt(vm)
	}
	if vm.Operators == nil {
		vm.Operators = DefaultOpTable()
	}

	// Core must exist before anything can install protos into it. Primitive
	// values find their protos through the kinds table, so the remaining
	// order only matters for Object, which refers to the singletons.
	vm.initCore()
	vm.initNumber()
	vm.initString()
	vm.initCFunction()
	vm.initMessage()
	vm.initException()
	vm.initBlock()
	vm.initCall()
	vm.initList()
	vm.initMap()
	vm.initOpTable()
	vm.initObject()
	vm.initTrue()
	vm.initFalse()
	vm.initNil()
	vm.initSystem()

	vm.bootstrap()
	if err := vm.loadAddons(); err != nil {
		panic(err)
	}
	vm.sealed = true
	vm.log.Infof("bootstrap complete: %d core protos", len(vm.Core.slots))
	return vm
}

// initCore initializes Lobby and Core for this VM. This only creates room for
// other init functions to work with.
func (vm *VM) initCore() {
	vm.Core.SetProtos(vm.BaseObject)
	slots := Slots{"Core": vm.Core}
	lp := vm.ObjectWith(slots, []*Object{vm.Core}, nil, nil)
	vm.Lobby.SetProtos(lp)
	vm.SetSlots(vm.Lobby, Slots{"Protos": lp, "Lobby": vm.Lobby})
	vm.retag("Protos", lp)
	vm.retag("Lobby", vm.Lobby)
}

//go:embed io/*.io
var bootstrapFS embed.FS

// bootstrap runs the Io initialization scripts in lexical order. Panics on any
// error.
func (vm *VM) bootstrap() {
	names, err := fs.Glob(bootstrapFS, "io/*.io")
	if err != nil {
		panic(fmt.Errorf("iocore: listing initialization code: %w", err))
	}
	sort.Strings(names)
	for _, name := range names {
		f, err := bootstrapFS.Open(name)
		if err != nil {
			panic(fmt.Errorf("iocore: opening initialization code %s: %w", name, err))
		}
		msg, err := vm.Parse(f, name)
		f.Close()
		if err != nil {
			panic(fmt.Errorf("iocore: error parsing initialization code from %s: %w", name, err))
		}
		if result, stop := msg.Eval(vm, vm.Core); stop != NoStop {
			_, err := vm.stopErr(result, stop)
			panic(fmt.Errorf("iocore: error executing initialization code from %s: %v (%v)", name, err, stop))
		}
	}
}

// ErrSealed is returned by CoreInstall after the VM has finished bootstrapping.
var ErrSealed = errors.New("core is sealed")

// coreInstall installs a new Core proto that has BaseObject as its proto.
// Values with the given tag and no protos of their own use the new proto.
// Panics if the VM is sealed.
func (vm *VM) coreInstall(proto string, slots Slots, value interface{}, tag Tag) *Object {
	r, err := vm.CoreInstall(proto, slots, value, tag)
	if err != nil {
		panic(err)
	}
	return r
}

// CoreInstall installs a new Core proto that has BaseObject as its proto. It
// is an error to install protos once the VM has finished bootstrapping.
func (vm *VM) CoreInstall(proto string, slots Slots, value interface{}, tag Tag) (*Object, error) {
	if vm.sealed {
		return nil, fmt.Errorf("iocore: cannot install %s: %w", proto, ErrSealed)
	}
	r := vm.ObjectWith(slots, []*Object{vm.BaseObject}, value, tag)
	vm.SetSlot(vm.Core, proto, r)
	vm.retag(proto, r)
	if tag != nil {
		vm.kinds[tag] = []*Object{r}
	}
	return r, nil
}

// CoreProto returns a new Protos list for a type in vm.Core. Panics if there
// is no such type!
func (vm *VM) CoreProto(name string) []*Object {
	if p, ok := vm.GetLocalSlot(vm.Core, name); ok {
		return []*Object{p}
	}
	panic("iocore: no Core proto named " + name)
}

// Context returns the context of the current evaluation. Host functions
// receive it for their external effects.
func (vm *VM) Context() context.Context {
	return vm.ctx
}

// IoBool converts a bool to the appropriate Io boolean object.
func (vm *VM) IoBool(c bool) *Object {
	if c {
		return vm.True
	}
	return vm.False
}

// AsBool attempts to convert an Io object to a bool by activating its
// asBoolean slot. If the object has no such slot, it is true.
func (vm *VM) AsBool(obj *Object) bool {
	if obj == nil {
		obj = vm.Nil
	}
	switch obj {
	case vm.True:
		return true
	case vm.False, vm.Nil:
		return false
	}
	r, stop := vm.Perform(obj, obj, vm.IdentMessage("asBoolean"))
	if stop != NoStop {
		return true
	}
	return r != vm.False && r != vm.Nil
}

// AsString attempts to convert an Io object to a string by activating its
// asString slot. If asString raises an exception, the exception's error is
// returned.
func (vm *VM) AsString(obj *Object) (string, error) {
	if obj == nil {
		obj = vm.Nil
	}
	if s, ok := obj.Value.(string); ok && obj.tag == StringTag {
		return s, nil
	}
	r, stop := vm.Perform(obj, obj, vm.IdentMessage("asString"))
	if _, err := vm.stopErr(r, stop); err != nil {
		return "", err
	}
	if s, ok := r.Value.(string); ok {
		return s, nil
	}
	if s, ok := r.Value.(fmt.Stringer); ok {
		return s.String(), nil
	}
	return fmt.Sprintf("%s_0x%x", vm.TypeName(obj), obj.UniqueID()), nil
}

// CompareValues compares two objects by sending compare to a with b as the
// argument. The result must be a Number.
func (vm *VM) CompareValues(a, b *Object) (int, error) {
	msg := vm.IdentMessage("compare", &Message{Text: "<value>", Memo: b})
	r, stop := vm.Perform(a, a, msg)
	if _, err := vm.stopErr(r, stop); err != nil {
		return 0, err
	}
	n, ok := r.Value.(float64)
	if !ok || r.tag != NumberTag {
		return 0, fmt.Errorf("%s compare returned %s, not Number", vm.TypeName(a), vm.TypeName(r))
	}
	switch {
	case n < 0:
		return -1, nil
	case n > 0:
		return 1, nil
	}
	return 0, nil
}

// Compare reports whether two objects are equal according to compare.
// Exceptions compare unequal.
func (vm *VM) Compare(a, b *Object) bool {
	c, err := vm.CompareValues(a, b)
	return err == nil && c == 0
}

// DoString parses and evaluates a string in the Lobby.
func (vm *VM) DoString(src, label string) (*Object, Stop) {
	return vm.DoStringIn(src, label, vm.Lobby)
}

// DoStringIn parses and evaluates a string with locals as the scope.
func (vm *VM) DoStringIn(src, label string, locals *Object) (*Object, Stop) {
	return vm.DoReaderIn(strings.NewReader(src), label, locals)
}

// DoReader parses and evaluates an io.Reader in the Lobby.
func (vm *VM) DoReader(src io.Reader, label string) (*Object, Stop) {
	return vm.DoReaderIn(src, label, vm.Lobby)
}

// DoReaderIn parses and evaluates an io.Reader with locals as the scope.
func (vm *VM) DoReaderIn(src io.Reader, label string, locals *Object) (*Object, Stop) {
	msg, err := vm.Parse(src, label)
	if err != nil {
		vm.log.Debugf("parse %s: %v", label, err)
		return vm.RaiseError(err)
	}
	return vm.DoMessage(msg, locals)
}

// DoMessage evaluates a message with locals as the scope. A return that
// escapes every activation becomes the result.
func (vm *VM) DoMessage(msg *Message, locals *Object) (*Object, Stop) {
	result, stop := msg.Eval(vm, locals)
	if stop == ReturnStop {
		vm.returning = nil
		stop = NoStop
	}
	return result, stop
}

// MustDoString parses and evaluates a string in the Lobby, panicking on any
// control flow other than NoStop.
func (vm *VM) MustDoString(src string) *Object {
	r, stop := vm.DoString(src, "MustDoString")
	if stop != NoStop {
		_, err := vm.stopErr(r, stop)
		panic(fmt.Errorf("iocore: MustDoString: %v (%v)", err, stop))
	}
	return r
}

// Run parses src and evaluates it in the Lobby. Host functions performed
// during evaluation receive ctx. An uncaught exception is returned as an
// error, which is an *Exception wrapping the original cause.
func (vm *VM) Run(ctx context.Context, src io.Reader, label string) (*Object, error) {
	old := vm.ctx
	vm.ctx = ctx
	defer func() { vm.ctx = old }()
	msg, err := vm.Parse(src, label)
	if err != nil {
		return nil, err
	}
	result, stop := vm.DoMessage(msg, vm.Lobby)
	if stop == ExceptionStop {
		e, _ := result.Value.(*Exception)
		if e != nil {
			return nil, e
		}
	}
	return vm.stopErr(result, stop)
}
