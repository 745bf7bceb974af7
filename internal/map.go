package internal

import (
	"context"
	"sort"
)

// tagMap is the Tag type for Map objects.
type tagMap struct{}

// Activate returns self.
func (tagMap) Activate(vm *VM, self, target, locals, context *Object, msg *Message) (*Object, Stop) {
	return self, NoStop
}

// CloneValue creates a shallow copy of the map.
func (tagMap) CloneValue(value interface{}) interface{} {
	m := value.(map[string]*Object)
	r := make(map[string]*Object, len(m))
	for k, v := range m {
		r[k] = v
	}
	return r
}

// String returns "Map".
func (tagMap) String() string {
	return "Map"
}

// MapTag is the Tag for Map objects. Activate returns self. CloneValue creates
// a shallow copy of the parent's map value.
var MapTag tagMap

// NewMap creates a new Map object with a copy of the given value.
func (vm *VM) NewMap(value map[string]*Object) *Object {
	return vm.primitive(MapTag.CloneValue(value), MapTag)
}

func (vm *VM) initMap() {
	slots := Slots{
		"at":       vm.NewHostFunction(MapAt, MapTag),
		"atPut":    vm.NewHostFunction(MapAtPut, MapTag),
		"foreach":  vm.NewCFunction(MapForeach, MapTag),
		"hasKey":   vm.NewHostFunction(MapHasKey, MapTag),
		"keys":     vm.NewHostFunction(MapKeys, MapTag),
		"removeAt": vm.NewHostFunction(MapRemoveAt, MapTag),
		"size":     vm.NewHostFunction(MapSize, MapTag),
		"type":     vm.NewString("Map"),
		"values":   vm.NewHostFunction(MapValues, MapTag),
	}
	vm.coreInstall("Map", slots, map[string]*Object{}, MapTag)
}

// sortedKeys returns the keys of m in order.
func sortedKeys(m map[string]*Object) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MapAt is a Map method.
//
// at returns the value at the given key, or nil if the key is not present.
func MapAt(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	k, err := vm.StringArg(args, 0, "Map at")
	if err != nil {
		return nil, err
	}
	if v, ok := target.Value.(map[string]*Object)[k]; ok {
		return v, nil
	}
	return vm.Nil, nil
}

// MapAtPut is a Map method.
//
// atPut sets the value at the given key.
func MapAtPut(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	k, err := vm.StringArg(args, 0, "Map atPut")
	if err != nil {
		return nil, err
	}
	target.Value.(map[string]*Object)[k] = vm.argOrNil(args, 1)
	return target, nil
}

// MapForeach is a Map method.
//
// foreach evaluates a message for each key and value in the map, in key order.
func MapForeach(vm *VM, target, locals *Object, msg *Message) (*Object, Stop) {
	kn, vn, hkn, hvn, ev := ForeachArgs(msg)
	if ev == nil {
		return vm.RaiseError(&MessageError{Err: ErrInvalidArgumentType, Msg: msg, Detail: "foreach requires 1, 2, or 3 arguments"})
	}
	m := target.Value.(map[string]*Object)
	result := vm.Nil
	for _, k := range sortedKeys(m) {
		v, ok := m[k]
		if !ok {
			continue
		}
		r, stop := vm.eachItem(locals, ev, kn, vn, hkn, hvn, vm.NewString(k), v)
		r, stop, done := loopStop(r, stop)
		result = r
		if done {
			return result, stop
		}
	}
	return result, NoStop
}

// MapHasKey is a Map method.
//
// hasKey returns true if the key is present.
func MapHasKey(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	k, err := vm.StringArg(args, 0, "Map hasKey")
	if err != nil {
		return nil, err
	}
	_, ok := target.Value.(map[string]*Object)[k]
	return vm.IoBool(ok), nil
}

// MapKeys is a Map method.
//
// keys returns a sorted list of the keys in the map.
func MapKeys(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	keys := sortedKeys(target.Value.(map[string]*Object))
	l := make([]*Object, len(keys))
	for i, k := range keys {
		l[i] = vm.NewString(k)
	}
	return vm.NewList(l...), nil
}

// MapRemoveAt is a Map method.
//
// removeAt removes a key.
func MapRemoveAt(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	k, err := vm.StringArg(args, 0, "Map removeAt")
	if err != nil {
		return nil, err
	}
	delete(target.Value.(map[string]*Object), k)
	return target, nil
}

// MapSize is a Map method.
//
// size returns the number of keys in the map.
func MapSize(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewNumber(float64(len(target.Value.(map[string]*Object)))), nil
}

// MapValues is a Map method.
//
// values returns a list of the values in the map, in key order.
func MapValues(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	m := target.Value.(map[string]*Object)
	keys := sortedKeys(m)
	l := make([]*Object, len(keys))
	for i, k := range keys {
		l[i] = m[k]
	}
	return vm.NewList(l...), nil
}
