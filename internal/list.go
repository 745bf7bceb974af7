package internal

import (
	"context"
	"sort"
	"strings"
)

// tagList is the Tag type for List objects.
type tagList struct{}

// Activate returns self.
func (tagList) Activate(vm *VM, self, target, locals, context *Object, msg *Message) (*Object, Stop) {
	return self, NoStop
}

// CloneValue creates a shallow copy of the list.
func (tagList) CloneValue(value interface{}) interface{} {
	return append([]*Object(nil), value.([]*Object)...)
}

// String returns "List".
func (tagList) String() string {
	return "List"
}

// ListTag is the Tag for List objects. Activate returns self. CloneValue
// creates a shallow copy of the parent's list value.
var ListTag tagList

// NewList creates a List with the given items.
func (vm *VM) NewList(items ...*Object) *Object {
	if items == nil {
		items = []*Object{}
	}
	return vm.primitive(items, ListTag)
}

// initList initializes List on this VM.
func (vm *VM) initList() {
	slots := Slots{
		"append":      vm.NewHostFunction(ListAppend, ListTag),
		"asString":    vm.NewHostFunction(ListAsString, ListTag),
		"at":          vm.NewHostFunction(ListAt, ListTag),
		"atPut":       vm.NewHostFunction(ListAtPut, ListTag),
		"contains":    vm.NewHostFunction(ListContains, ListTag),
		"first":       vm.NewHostFunction(ListFirst, ListTag),
		"foreach":     vm.NewCFunction(ListForeach, ListTag),
		"indexOf":     vm.NewHostFunction(ListIndexOf, ListTag),
		"isEmpty":     vm.NewHostFunction(ListIsEmpty, ListTag),
		"last":        vm.NewHostFunction(ListLast, ListTag),
		"map":         vm.NewCFunction(ListMap, ListTag),
		"prepend":     vm.NewHostFunction(ListPrepend, ListTag),
		"remove":      vm.NewHostFunction(ListRemove, ListTag),
		"removeAt":    vm.NewHostFunction(ListRemoveAt, ListTag),
		"reverse":     vm.NewHostFunction(ListReverse, ListTag),
		"select":      vm.NewCFunction(ListSelect, ListTag),
		"size":        vm.NewHostFunction(ListSize, ListTag),
		"sort":        vm.NewHostFunction(ListSort, ListTag),
		"sortInPlace": vm.NewHostFunction(ListSortInPlace, ListTag),
		"type":        vm.NewString("List"),
	}
	vm.coreInstall("List", slots, []*Object{}, ListTag)
}

// ObjectList is an Object method.
//
// list creates a new List with the given items.
func ObjectList(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewList(append([]*Object(nil), args...)...), nil
}

// listIndex converts the nth argument to an index into l. ok is false if the
// index is out of bounds.
func (vm *VM) listIndex(l []*Object, args []*Object, name string) (k int, ok bool, err error) {
	n, err := vm.NumberArg(args, 0, name)
	if err != nil {
		return 0, false, err
	}
	k = int(n)
	if k < 0 {
		k += len(l)
	}
	return k, 0 <= k && k < len(l), nil
}

// ListAppend is a List method.
//
// append adds items to the end of the list.
func ListAppend(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	target.Value = append(target.Value.([]*Object), args...)
	return target, nil
}

// ListAsString is a List method.
//
// asString creates a string representation of the list.
func ListAsString(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	var b strings.Builder
	b.WriteString("list(")
	for i, v := range target.Value.([]*Object) {
		if i > 0 {
			b.WriteString(", ")
		}
		s, err := vm.AsString(v)
		if err != nil {
			return nil, err
		}
		if v.tag == StringTag {
			s = `"` + s + `"`
		}
		b.WriteString(s)
	}
	b.WriteByte(')')
	return vm.NewString(b.String()), nil
}

// ListAt is a List method.
//
// at returns the item at the given index, or nil if the index is out of
// bounds. Negative indices count from the end.
func ListAt(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	l := target.Value.([]*Object)
	k, ok, err := vm.listIndex(l, args, "List at")
	if err != nil || !ok {
		return vm.Nil, err
	}
	return l[k], nil
}

// ListAtPut is a List method.
//
// atPut replaces the item at the given index.
func ListAtPut(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	l := target.Value.([]*Object)
	k, ok, err := vm.listIndex(l, args, "List atPut")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &MessageError{Err: ErrInvalidArgumentType, Detail: "List atPut index out of bounds"}
	}
	l[k] = vm.argOrNil(args, 1)
	return target, nil
}

// ListContains is a List method.
//
// contains returns true if the list contains an item equal to the argument.
func ListContains(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	k, err := vm.listFind(target.Value.([]*Object), vm.argOrNil(args, 0))
	if err != nil {
		return nil, err
	}
	return vm.IoBool(k >= 0), nil
}

// ListIndexOf is a List method.
//
// indexOf returns the first index from the left of an item equal to the
// argument. If there is no such item in the list, nil is returned.
func ListIndexOf(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	k, err := vm.listFind(target.Value.([]*Object), vm.argOrNil(args, 0))
	if err != nil {
		return nil, err
	}
	if k < 0 {
		return vm.Nil, nil
	}
	return vm.NewNumber(float64(k)), nil
}

func (vm *VM) listFind(l []*Object, v *Object) (int, error) {
	for i, x := range l {
		c, err := vm.CompareValues(x, v)
		if err != nil {
			return -1, err
		}
		if c == 0 {
			return i, nil
		}
	}
	return -1, nil
}

// ListFirst is a List method.
//
// first returns the first item in the list, or nil if the list is empty.
func ListFirst(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	l := target.Value.([]*Object)
	if len(l) == 0 {
		return vm.Nil, nil
	}
	return l[0], nil
}

// ListLast is a List method.
//
// last returns the last item in the list, or nil if the list is empty.
func ListLast(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	l := target.Value.([]*Object)
	if len(l) == 0 {
		return vm.Nil, nil
	}
	return l[len(l)-1], nil
}

// ListIsEmpty is a List method.
func ListIsEmpty(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.IoBool(len(target.Value.([]*Object)) == 0), nil
}

// ListForeach is a List method.
//
// foreach evaluates a message for each item in the list, optionally binding
// the index and the item.
//
//	io> list(4, 5, 6) foreach(i, v, (i .. ": " .. v) println)
//	0: 4
//	1: 5
//	2: 6
func ListForeach(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	kn, vn, hkn, hvn, ev := ForeachArgs(msg)
	if ev == nil {
		return vm.RaiseError(&MessageError{Err: ErrInvalidArgumentType, Msg: msg, Detail: "foreach requires 1, 2, or 3 arguments"})
	}
	result := vm.Nil
	for k := 0; k < len(target.Value.([]*Object)); k++ {
		v := target.Value.([]*Object)[k]
		r, stop := vm.eachItem(locals, ev, kn, vn, hkn, hvn, vm.NewNumber(float64(k)), v)
		r, stop, done := loopStop(r, stop)
		result = r
		if done {
			return result, stop
		}
	}
	return result, NoStop
}

// eachItem evaluates one step of a foreach-style loop. If there is no value
// name, the message is sent to the item.
func (vm *VM) eachItem(locals *Object, ev *Message, kn, vn string, hkn, hvn bool, k, v *Object) (*Object, Stop) {
	if !hvn {
		return ev.Send(vm, v, locals)
	}
	vm.SetSlot(locals, vn, v)
	if hkn {
		vm.SetSlot(locals, kn, k)
	}
	return ev.Eval(vm, locals)
}

// ListMap is a List method.
//
// map returns a new list containing the results of evaluating a message for
// each item.
func ListMap(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	kn, vn, hkn, hvn, ev := ForeachArgs(msg)
	if ev == nil {
		return vm.RaiseError(&MessageError{Err: ErrInvalidArgumentType, Msg: msg, Detail: "map requires 1, 2, or 3 arguments"})
	}
	l := target.Value.([]*Object)
	out := make([]*Object, 0, len(l))
	for k, v := range l {
		r, stop := vm.eachItem(locals, ev, kn, vn, hkn, hvn, vm.NewNumber(float64(k)), v)
		if stop != NoStop {
			return r, stop
		}
		out = append(out, r)
	}
	return vm.NewList(out...), NoStop
}

// ListSelect is a List method.
//
// select returns a new list containing the items for which a message
// evaluates to true.
func ListSelect(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	kn, vn, hkn, hvn, ev := ForeachArgs(msg)
	if ev == nil {
		return vm.RaiseError(&MessageError{Err: ErrInvalidArgumentType, Msg: msg, Detail: "select requires 1, 2, or 3 arguments"})
	}
	l := target.Value.([]*Object)
	out := make([]*Object, 0, len(l))
	for k, v := range l {
		r, stop := vm.eachItem(locals, ev, kn, vn, hkn, hvn, vm.NewNumber(float64(k)), v)
		if stop != NoStop {
			return r, stop
		}
		if vm.AsBool(r) {
			out = append(out, v)
		}
	}
	return vm.NewList(out...), NoStop
}

// ListPrepend is a List method.
//
// prepend adds items to the beginning of the list.
func ListPrepend(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	target.Value = append(append([]*Object(nil), args...), target.Value.([]*Object)...)
	return target, nil
}

// ListRemove is a List method.
//
// remove removes all occurrences of each argument from the list.
func ListRemove(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	l := target.Value.([]*Object)
	r := make([]*Object, 0, len(l))
outer:
	for _, v := range l {
		for _, x := range args {
			c, err := vm.CompareValues(v, x)
			if err != nil {
				return nil, err
			}
			if c == 0 {
				continue outer
			}
		}
		r = append(r, v)
	}
	target.Value = r
	return target, nil
}

// ListRemoveAt is a List method.
//
// removeAt removes the item at the given index and returns it.
func ListRemoveAt(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	l := target.Value.([]*Object)
	k, ok, err := vm.listIndex(l, args, "List removeAt")
	if err != nil || !ok {
		return vm.Nil, err
	}
	v := l[k]
	target.Value = append(l[:k:k], l[k+1:]...)
	return v, nil
}

// ListReverse is a List method.
//
// reverse returns a new list with the items of the receiver in reverse order.
func ListReverse(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	l := target.Value.([]*Object)
	r := make([]*Object, len(l))
	for i, v := range l {
		r[len(l)-1-i] = v
	}
	return vm.NewList(r...), nil
}

// ListSize is a List method.
//
// size is the number of items in the list.
func ListSize(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewNumber(float64(len(target.Value.([]*Object)))), nil
}

// ListSort is a List method.
//
// sort returns a new list with the items of the receiver in ascending order
// according to their compare methods. Equal items keep their relative order.
func ListSort(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	l := append([]*Object(nil), target.Value.([]*Object)...)
	if err := vm.sortObjects(l); err != nil {
		return nil, err
	}
	return vm.NewList(l...), nil
}

// ListSortInPlace is a List method.
//
// sortInPlace sorts the receiver's items and returns the receiver.
func ListSortInPlace(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	if err := vm.sortObjects(target.Value.([]*Object)); err != nil {
		return nil, err
	}
	return target, nil
}

// sortObjects sorts l stably using compare. The first error from compare
// stops further comparisons and is returned.
func (vm *VM) sortObjects(l []*Object) error {
	var err error
	sort.SliceStable(l, func(i, j int) bool {
		if err != nil {
			return false
		}
		var c int
		c, err = vm.CompareValues(l[i], l[j])
		return c < 0
	})
	return err
}
