package internal

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"github.com/zephyrtronium/contains"
)

// Object is the basic type of Io. Everything is an Object.
//
// Always use NewObject, ObjectWith, or a type-specific constructor to obtain
// new objects. Creating objects directly will result in arbitrary failures.
//
// Objects are not synchronized. A VM evaluates on a single goroutine, and any
// sharing of objects between goroutines must be serialized by the embedder.
type Object struct {
	// slots is the set of messages to which this object responds.
	slots Slots
	// protos is the object's ordered list of prototypes. Primitive values
	// created by the VM have no explicit protos; lookups on them are
	// redirected to the shared prototype for their kind.
	protos []*Object

	// Value is the object's type-specific primitive value.
	Value interface{}
	// tag is the type indicator of the object.
	tag Tag

	// id is the object's unique ID.
	id uintptr
}

// Slots represents the set of messages to which an object responds.
type Slots = map[string]*Object

// Tag is a type indicator for iocore objects. Tag values must be comparable.
// Tags for different types must not be equal, meaning they must have different
// underlying types or different values otherwise.
type Tag interface {
	// Activate activates an object that has this tag. The self argument is the
	// object which has this tag, target is the object that received the
	// message, and context is the object that actually had the slot.
	Activate(vm *VM, self, target, locals, context *Object, msg *Message) (*Object, Stop)
	// CloneValue takes the Value of an existing object and returns the Value
	// of a clone of that object.
	CloneValue(value interface{}) interface{}

	// String returns the name of the type associated with this tag.
	String() string
}

// Activate activates the object. Objects without a tag are inert and
// evaluate to themselves.
func (o *Object) Activate(vm *VM, target, locals, context *Object, msg *Message) (*Object, Stop) {
	if o.tag == nil {
		return o, NoStop
	}
	return o.tag.Activate(vm, o, target, locals, context, msg)
}

// Clone returns a new object with empty slots and this object as its only
// proto. The clone's tag is the same as its parent's, and its primitive value
// is produced by the tag's CloneValue method. Clone does not run init; use
// vm.Clone for that.
func (o *Object) Clone() *Object {
	var v interface{}
	if o.tag != nil {
		v = o.tag.CloneValue(o.Value)
	}
	return &Object{
		protos: []*Object{o},
		Value:  v,
		tag:    o.tag,
		id:     nextObject(),
	}
}

// Tag returns the object's type indicator.
func (o *Object) Tag() Tag {
	return o.tag
}

// UniqueID returns the object's unique ID.
func (o *Object) UniqueID() uintptr {
	return o.id
}

// Protos returns a copy of the object's explicit protos list.
func (o *Object) Protos() []*Object {
	if len(o.protos) == 0 {
		return nil
	}
	return append([]*Object(nil), o.protos...)
}

// SetProtos sets the object's protos to those given.
func (o *Object) SetProtos(protos ...*Object) {
	o.protos = append(o.protos[:0:0], protos...)
}

// AppendProto appends a proto to the end of the object's protos list.
func (o *Object) AppendProto(proto *Object) {
	o.protos = append(o.protos, proto)
}

// PrependProto prepends a proto to the front of the object's protos list.
func (o *Object) PrependProto(proto *Object) {
	o.protos = append([]*Object{proto}, o.protos...)
}

// RemoveProto removes all instances of a proto from the object's protos list.
// Comparison is done by identity only.
func (o *Object) RemoveProto(proto *Object) {
	r := o.protos[:0]
	for _, p := range o.protos {
		if p != proto {
			r = append(r, p)
		}
	}
	for i := len(r); i < len(o.protos); i++ {
		o.protos[i] = nil
	}
	o.protos = r
}

// BasicTag is a special Tag type for basic primitive types which do not have
// special activation and whose clones have values that are shallow copies of
// their parents.
type BasicTag string

// Activate returns self.
func (t BasicTag) Activate(vm *VM, self, target, locals, context *Object, msg *Message) (*Object, Stop) {
	return self, NoStop
}

// CloneValue returns value.
func (t BasicTag) CloneValue(value interface{}) interface{} {
	return value
}

// String returns the receiver.
func (t BasicTag) String() string {
	return string(t)
}

// objcounter is the global counter for object IDs. All accesses to this must
// be atomic.
var objcounter uintptr

// nextObject increments the object counter and returns its value as a unique
// ID for a new object.
func nextObject() uintptr {
	return atomic.AddUintptr(&objcounter, 1)
}

// NewObject creates a new object with the given slots and with the VM's
// Core Object as its proto.
func (vm *VM) NewObject(slots Slots) *Object {
	return vm.ObjectWith(slots, []*Object{vm.BaseObject}, nil, nil)
}

// ObjectWith creates a new object with the given slots, protos, value, and
// tag.
func (vm *VM) ObjectWith(slots Slots, protos []*Object, value interface{}, tag Tag) *Object {
	return &Object{
		slots:  slots,
		protos: protos,
		Value:  value,
		tag:    tag,
		id:     nextObject(),
	}
}

// primitive creates an object of a primitive kind. It has no explicit protos;
// lookups on it go to the kind's shared prototype.
func (vm *VM) primitive(value interface{}, tag Tag) *Object {
	return &Object{Value: value, tag: tag, id: nextObject()}
}

// protosOf returns the protos to search after obj's own slots. Primitive
// values with no explicit protos resolve to the shared prototype for their
// kind.
func (vm *VM) protosOf(obj *Object) []*Object {
	if len(obj.protos) == 0 && obj.tag != nil {
		return vm.kinds[obj.tag]
	}
	return obj.protos
}

// Clone creates a clone of obj and runs the init method visible from the
// clone, if there is one. If init raises an exception or otherwise stops, the
// stop is returned with its result.
func (vm *VM) Clone(obj *Object) (*Object, Stop) {
	r := obj.Clone()
	init, proto := vm.GetSlot(r, "init")
	if proto == nil {
		return r, NoStop
	}
	if result, stop := init.Activate(vm, r, r, proto, vm.IdentMessage("init")); stop != NoStop {
		return result, stop
	}
	return r, NoStop
}

// HasProto returns true if kind is obj or is reachable from obj through a
// depth-first walk of prototypes. Cycles in the graph are tolerated.
func (vm *VM) HasProto(obj, kind *Object) bool {
	if obj == nil {
		return false
	}
	// Unlike in GetSlot, we aren't in the hot path for message passing, so we
	// can use our own set and stack.
	protos := []*Object{obj}
	set := contains.Set{}
	for len(protos) > 0 {
		proto := protos[len(protos)-1]
		protos = protos[:len(protos)-1]
		if !set.Add(proto.UniqueID()) {
			continue
		}
		if proto == kind {
			return true
		}
		ps := vm.protosOf(proto)
		for i := len(ps) - 1; i >= 0; i-- {
			if !set.Contains(ps[i].UniqueID()) {
				protos = append(protos, ps[i])
			}
		}
	}
	return false
}

// TypeName gets the name of the type of an object by activating its type
// slot. If there is no such slot, the object's tag's name is returned; failing
// that, the name is "Object".
func (vm *VM) TypeName(obj *Object) string {
	if obj == nil {
		return "nil"
	}
	if typ, proto := vm.GetSlot(obj, "type"); proto != nil {
		if s, ok := typ.Value.(string); ok {
			return s
		}
	}
	if obj.tag != nil {
		return obj.tag.String()
	}
	return "Object"
}

// isCapitalized reports whether name begins with an uppercase letter.
func isCapitalized(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// retag gives value the type name if value is a plain object that does not
// yet name its own type, as happens with Contact := Object clone.
func (vm *VM) retag(name string, value *Object) {
	if value == nil || value.tag != nil || !isCapitalized(name) {
		return
	}
	if _, ok := value.slots["type"]; ok {
		return
	}
	if value.slots == nil {
		value.slots = Slots{}
	}
	value.slots["type"] = vm.NewString(name)
}

// initObject sets up the "base" object that is the first proto of all other
// built-in types.
func (vm *VM) initObject() {
	vm.BaseObject.SetProtos(vm.Lobby)
	slots := Slots{
		"":             vm.NewCFunction(ObjectEvalArg, nil),
		"-":            vm.NewHostFunction(ObjectNegate, nil),
		"!=":           vm.NewHostFunction(ObjectNotEqual, nil),
		"==":           vm.NewHostFunction(ObjectEqual, nil),
		"appendProto":  vm.NewHostFunction(ObjectAppendProto, nil),
		"asBoolean":    vm.True,
		"asString":     vm.NewHostFunction(ObjectAsString, nil),
		"block":        vm.NewCFunction(ObjectBlock, nil),    // block.go
		"break":        vm.NewCFunction(ObjectBreak, nil),    // control.go
		"clone":        vm.NewCFunction(ObjectClone, nil),
		"compare":      vm.NewHostFunction(ObjectCompare, nil),
		"continue":     vm.NewCFunction(ObjectContinue, nil), // control.go
		"do":           vm.NewCFunction(ObjectDo, nil),
		"doString":     vm.NewCFunction(ObjectDoString, nil),
		"evalArg":      vm.NewCFunction(ObjectEvalArg, nil),
		"for":          vm.NewCFunction(ObjectFor, nil), // control.go
		"getSlot":      vm.NewHostFunction(ObjectGetSlot, nil),
		"hasLocalSlot": vm.NewHostFunction(ObjectHasLocalSlot, nil),
		"hasProto":     vm.NewHostFunction(ObjectHasProto, nil),
		"hasSlot":      vm.NewHostFunction(ObjectHasSlot, nil),
		"init":         vm.NewHostFunction(ObjectInit, nil),
		"isKindOf":     vm.NewHostFunction(ObjectHasProto, nil),
		"isNil":        vm.False,
		"isTrue":       vm.True,
		"list":         vm.NewHostFunction(ObjectList, nil), // list.go
		"loop":         vm.NewCFunction(ObjectLoop, nil),    // control.go
		"method":       vm.NewCFunction(ObjectMethod, nil),  // block.go
		"newSlot":      vm.NewHostFunction(ObjectNewSlot, nil),
		"not":          vm.False,
		"prependProto": vm.NewHostFunction(ObjectPrependProto, nil),
		"print":        vm.NewHostFunction(ObjectPrint, nil),
		"println":      vm.NewHostFunction(ObjectPrintln, nil),
		"proto":        vm.NewHostFunction(ObjectProto, nil),
		"protos":       vm.NewHostFunction(ObjectProtos, nil),
		"removeProto":  vm.NewHostFunction(ObjectRemoveProto, nil),
		"removeSlot":   vm.NewHostFunction(ObjectRemoveSlot, nil),
		"setSlot":      vm.NewHostFunction(ObjectSetSlot, nil),
		"slotNames":    vm.NewHostFunction(ObjectSlotNames, nil),
		"thisContext":  vm.NewCFunction(ObjectThisContext, nil),
		"type":         vm.NewString("Object"),
		"uniqueId":     vm.NewHostFunction(ObjectUniqueID, nil),
		"updateSlot":   vm.NewHostFunction(ObjectUpdateSlot, nil),
		"while":        vm.NewCFunction(ObjectWhile, nil), // control.go
	}
	for name, value := range slots {
		vm.SetSlot(vm.BaseObject, name, value)
	}
	vm.SetSlot(vm.Core, "Object", vm.BaseObject)
	vm.SetSlot(vm.Core, "Receiver", vm.BaseObject)
}

// ObjectEvalArg is an Object method.
//
// evalArg evaluates and returns its argument. It is also the empty-named slot
// that makes parenthesized groups work.
func ObjectEvalArg(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	return msg.EvalArgAt(vm, locals, 0)
}

// ObjectNegate is an Object method.
//
// - with a receiver at the start of a statement negates its argument.
func ObjectNegate(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	n, err := vm.NumberArg(args, 0, "Object -")
	if err != nil {
		return nil, err
	}
	return vm.NewNumber(-n), nil
}

// ObjectEqual is an Object method.
//
// == compares two objects for equality using compare.
func ObjectEqual(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	c, err := vm.compareArg(target, args, "Object ==")
	if err != nil {
		return nil, err
	}
	return vm.IoBool(c == 0), nil
}

// ObjectNotEqual is an Object method.
//
// != compares two objects for inequality using compare.
func ObjectNotEqual(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	c, err := vm.compareArg(target, args, "Object !=")
	if err != nil {
		return nil, err
	}
	return vm.IoBool(c != 0), nil
}

// compareArg compares target against the first argument.
func (vm *VM) compareArg(target *Object, args []*Object, name string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%s requires 1 argument", name)
	}
	return vm.CompareValues(target, args[0])
}

// ObjectCompare is an Object method.
//
// compare returns -1, 0, or 1 based on whether the receiver is less than,
// equal to, or greater than the argument. Plain objects compare by identity.
func ObjectCompare(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("Object compare requires 1 argument")
	}
	return vm.NewNumber(float64(compareIDs(target, args[0]))), nil
}

func compareIDs(a, b *Object) int {
	switch {
	case a.UniqueID() < b.UniqueID():
		return -1
	case a.UniqueID() > b.UniqueID():
		return 1
	}
	return 0
}

// ObjectAsString is an Object method.
//
// asString creates a string representation of an object.
func ObjectAsString(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewString(fmt.Sprintf("%s_0x%x", vm.TypeName(target), target.UniqueID())), nil
}

// ObjectClone is an Object method.
//
// clone creates a new object with the receiver as its sole proto and runs the
// new object's init.
func ObjectClone(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	return vm.Clone(target)
}

// ObjectInit is an Object method.
//
// init is called on new clones. The default does nothing.
func ObjectInit(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return target, nil
}

// ObjectDo is an Object method.
//
// do evaluates its message in the context of the receiver.
func ObjectDo(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	if r, stop := msg.EvalArgAt(vm, target, 0); stop != NoStop {
		return vm.rescope(target, locals, r, stop)
	}
	return target, NoStop
}

// ObjectDoString is an Object method.
//
// doString parses and evaluates a string in the context of the receiver.
func ObjectDoString(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	src, exc, stop := msg.StringArgAt(vm, locals, 0)
	if stop != NoStop {
		return exc, stop
	}
	m, err := vm.Parse(strings.NewReader(src), "doString")
	if err != nil {
		return vm.RaiseError(err)
	}
	if m == nil {
		return vm.Nil, NoStop
	}
	r, stop := m.Eval(vm, target)
	return vm.rescope(target, locals, r, stop)
}

// ObjectGetSlot is an Object method.
//
// getSlot gets the value of a slot without activating it, or nil if the slot
// is not visible.
func ObjectGetSlot(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	name, err := vm.StringArg(args, 0, "Object getSlot")
	if err != nil {
		return nil, err
	}
	v, proto := vm.GetSlot(target, name)
	if proto == nil {
		return vm.Nil, nil
	}
	return v, nil
}

// ObjectHasSlot is an Object method.
//
// hasSlot returns whether a slot is visible on the receiver or its protos.
func ObjectHasSlot(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	name, err := vm.StringArg(args, 0, "Object hasSlot")
	if err != nil {
		return nil, err
	}
	_, proto := vm.GetSlot(target, name)
	return vm.IoBool(proto != nil), nil
}

// ObjectHasLocalSlot is an Object method.
//
// hasLocalSlot returns whether the receiver itself owns a slot.
func ObjectHasLocalSlot(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	name, err := vm.StringArg(args, 0, "Object hasLocalSlot")
	if err != nil {
		return nil, err
	}
	_, ok := vm.GetLocalSlot(target, name)
	return vm.IoBool(ok), nil
}

// ObjectHasProto is an Object method.
//
// hasProto returns whether the argument is the receiver or any of its
// ancestors.
func ObjectHasProto(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("Object hasProto requires 1 argument")
	}
	return vm.IoBool(vm.HasProto(target, args[0])), nil
}

// ObjectSetSlot is an Object method.
//
// setSlot sets the value of a slot on the receiver, creating it if needed.
// If the slot name is capitalized and the value is a plain object that does
// not yet have its own type, the value's type becomes the slot name.
func ObjectSetSlot(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	name, err := vm.StringArg(args, 0, "Object setSlot")
	if err != nil {
		return nil, err
	}
	v := vm.argOrNil(args, 1)
	vm.SetSlot(target, name, v)
	vm.retag(name, v)
	return v, nil
}

// ObjectUpdateSlot is an Object method.
//
// updateSlot is like setSlot, but it raises an exception if the slot is not
// visible from the receiver.
func ObjectUpdateSlot(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	name, err := vm.StringArg(args, 0, "Object updateSlot")
	if err != nil {
		return nil, err
	}
	v := vm.argOrNil(args, 1)
	if err := vm.UpdateSlot(target, name, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ObjectNewSlot is an Object method.
//
// newSlot creates a slot and a setter for it named set<Name>.
func ObjectNewSlot(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	name, err := vm.StringArg(args, 0, "Object newSlot")
	if err != nil {
		return nil, err
	}
	v := vm.argOrNil(args, 1)
	vm.NewSlot(target, name, v)
	vm.retag(name, v)
	return v, nil
}

// ObjectRemoveSlot is an Object method.
//
// removeSlot removes the given slots from the receiver.
func ObjectRemoveSlot(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	for i := range args {
		name, err := vm.StringArg(args, i, "Object removeSlot")
		if err != nil {
			return nil, err
		}
		vm.RemoveSlot(target, name)
	}
	return target, nil
}

// ObjectSlotNames is an Object method.
//
// slotNames returns a sorted list of the names of the receiver's own slots.
func ObjectSlotNames(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	names := vm.SlotNames(target)
	l := make([]*Object, len(names))
	for i, name := range names {
		l[i] = vm.NewString(name)
	}
	return vm.NewList(l...), nil
}

// ObjectAppendProto is an Object method.
//
// appendProto adds an object to the end of the receiver's protos.
func ObjectAppendProto(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("Object appendProto requires 1 argument")
	}
	target.AppendProto(args[0])
	return target, nil
}

// ObjectPrependProto is an Object method.
//
// prependProto adds an object to the front of the receiver's protos.
func ObjectPrependProto(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("Object prependProto requires 1 argument")
	}
	target.PrependProto(args[0])
	return target, nil
}

// ObjectRemoveProto is an Object method.
//
// removeProto removes every occurrence of an object from the receiver's protos.
func ObjectRemoveProto(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("Object removeProto requires 1 argument")
	}
	target.RemoveProto(args[0])
	return target, nil
}

// ObjectProto is an Object method.
//
// proto returns the receiver's first proto, or nil if it has none.
func ObjectProto(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	if ps := vm.protosOf(target); len(ps) > 0 {
		return ps[0], nil
	}
	return vm.Nil, nil
}

// ObjectProtos is an Object method.
//
// protos returns a list of the receiver's protos.
func ObjectProtos(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewList(append([]*Object(nil), vm.protosOf(target)...)...), nil
}

// ObjectPrint is an Object method.
//
// print writes the receiver's string representation to the VM's output.
func ObjectPrint(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	s, err := vm.AsString(target)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprint(vm.Stdout, s); err != nil {
		return nil, err
	}
	return target, nil
}

// ObjectPrintln is an Object method.
//
// println writes the receiver's string representation and a newline to the
// VM's output.
func ObjectPrintln(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	s, err := vm.AsString(target)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintln(vm.Stdout, s); err != nil {
		return nil, err
	}
	return target, nil
}

// ObjectThisContext is an Object method.
//
// thisContext returns the current locals.
func ObjectThisContext(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	return locals, NoStop
}

// ObjectUniqueID is an Object method.
//
// uniqueId returns the receiver's unique ID.
func ObjectUniqueID(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewNumber(float64(target.UniqueID())), nil
}
