package internal

/*
This file contains the implementation of slot lookups. Executing Io code
amounts to looking up a slot and then calling a function pointer, and it turns
out that the latter is cheap. Slots are the expensive part of the hot path.

Lookup order is the object's own slots, then each proto in list order, each
fully depth-first before the next. An ancestor reachable by several paths is
checked where the walk first reaches it, however deep, and skipped after that,
so diamonds and cycles terminate.
*/

import (
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// GetSlot checks obj and its ancestors in depth-first order without
// cycles for a slot, returning the slot value and the proto which had it.
// proto is nil if and only if the slot was not found.
func (vm *VM) GetSlot(obj *Object, slot string) (value, proto *Object) {
	if obj == nil {
		return nil, nil
	}
	// Check obj itself before using the graph traversal mechanisms.
	if v, ok := obj.slots[slot]; ok {
		return v, obj
	}
	return vm.getSlotAncestor(obj, slot)
}

// getSlotAncestor finds a slot on obj's ancestors.
func (vm *VM) getSlotAncestor(obj *Object, slot string) (value, proto *Object) {
	// No Io code runs during a lookup, so the VM's set and stack are never
	// in use by an outer walk.
	vm.protoSet.Reset()
	vm.protoSet.Add(obj.UniqueID())
	vm.pushProtos(obj)
	for len(vm.protoStack) > 0 {
		obj = vm.protoStack[len(vm.protoStack)-1]
		vm.protoStack = vm.protoStack[:len(vm.protoStack)-1]
		if !vm.protoSet.Add(obj.UniqueID()) {
			continue
		}
		if v, ok := obj.slots[slot]; ok {
			vm.protoStack = vm.protoStack[:0]
			return v, obj
		}
		vm.pushProtos(obj)
	}
	return nil, nil
}

// pushProtos pushes the unvisited protos of obj onto the proto stack in
// reverse order, so that the first proto is on top. A proto may be pushed
// more than once; it is marked visited when popped.
func (vm *VM) pushProtos(obj *Object) {
	ps := vm.protosOf(obj)
	for i := len(ps) - 1; i >= 0; i-- {
		if !vm.protoSet.Contains(ps[i].UniqueID()) {
			vm.protoStack = append(vm.protoStack, ps[i])
		}
	}
}

// GetLocalSlot checks only obj's own slots for a slot.
func (vm *VM) GetLocalSlot(obj *Object, slot string) (value *Object, ok bool) {
	if obj == nil {
		return nil, false
	}
	value, ok = obj.slots[slot]
	return value, ok
}

// GetAllSlots returns a copy of all slots on obj.
func (vm *VM) GetAllSlots(obj *Object) Slots {
	slots := make(Slots, len(obj.slots))
	for k, v := range obj.slots {
		slots[k] = v
	}
	return slots
}

// SlotNames returns the sorted names of obj's own slots.
func (vm *VM) SlotNames(obj *Object) []string {
	names := make([]string, 0, len(obj.slots))
	for k := range obj.slots {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetSlot sets the value of a slot on obj, creating it if it does not exist.
func (vm *VM) SetSlot(obj *Object, slot string, value *Object) {
	if obj.slots == nil {
		obj.slots = Slots{}
	}
	obj.slots[slot] = value
}

// SetSlots sets the values of multiple slots on obj.
func (vm *VM) SetSlots(obj *Object, slots Slots) {
	for slot, value := range slots {
		vm.SetSlot(obj, slot, value)
	}
}

// UpdateSlot sets the value of a slot on obj, which must already be visible
// from obj. If it is not, the result is a *SlotError. Locals objects that do
// not own the slot pass the update along to the scope they were created in.
func (vm *VM) UpdateSlot(obj *Object, slot string, value *Object) error {
	for obj.tag == LocalsTag {
		if _, ok := obj.slots[slot]; ok {
			break
		}
		if len(obj.protos) == 0 {
			break
		}
		obj = obj.protos[0]
	}
	if _, proto := vm.GetSlot(obj, slot); proto == nil {
		return &SlotError{Type: vm.TypeName(obj), Slot: slot}
	}
	vm.SetSlot(obj, slot, value)
	return nil
}

// NewSlot sets a slot on obj and creates a setter method for it. For a slot
// named name, the setter is named setName. The setter takes one argument,
// updates the slot on its receiver, and returns the receiver.
func (vm *VM) NewSlot(obj *Object, slot string, value *Object) {
	vm.SetSlot(obj, slot, value)
	vm.SetSlot(obj, SetterName(slot), vm.setterMethod(slot))
}

// SetterName returns the name of the setter that newSlot creates for slot.
func SetterName(slot string) string {
	return "set" + cases.Title(language.Und, cases.NoLower).String(slot)
}

// setterMethod creates the method used as a setter for slot:
//
//	method(value, self updateSlot("slot", value); self)
func (vm *VM) setterMethod(slot string) *Object {
	body := vm.IdentMessage("self")
	upd := vm.IdentMessage("updateSlot", vm.StringMessage(slot), vm.IdentMessage("value"))
	semi := vm.TerminatorMessage(true)
	body.SetNext(upd)
	upd.SetNext(semi)
	semi.SetNext(vm.IdentMessage("self"))
	return vm.NewMethod(body, "value")
}

// RemoveSlot removes slots from obj's local slots, if they are present.
func (vm *VM) RemoveSlot(obj *Object, slots ...string) {
	for _, slot := range slots {
		delete(obj.slots, slot)
	}
}

// RemoveAllSlots removes all slots from obj in a single operation.
func (vm *VM) RemoveAllSlots(obj *Object) {
	obj.slots = nil
}
