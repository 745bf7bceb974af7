package internal

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"
)

// StringTag is the tag for String objects. Strings are immutable.
const StringTag = BasicTag("String")

// NewString creates a String object with a given value.
func (vm *VM) NewString(value string) *Object {
	return vm.primitive(value, StringTag)
}

func (vm *VM) initString() {
	slots := Slots{
		"..":          vm.NewHostFunction(StringConcat, StringTag),
		"<":           vm.NewHostFunction(StringLess, StringTag),
		"asLowercase": vm.NewHostFunction(StringAsLowercase, StringTag),
		"asNumber":    vm.NewHostFunction(StringAsNumber, StringTag),
		"asString":    vm.NewHostFunction(StringAsString, StringTag),
		"asUppercase": vm.NewHostFunction(StringAsUppercase, StringTag),
		"at":          vm.NewHostFunction(StringAt, StringTag),
		"compare":     vm.NewHostFunction(StringCompare, StringTag),
		"size":        vm.NewHostFunction(StringSize, StringTag),
		"type":        vm.NewString("String"),
	}
	vm.coreInstall("String", slots, "", StringTag)
}

// StringConcat is a String method.
//
// .. concatenates the receiver with the string representation of the argument.
func StringConcat(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	s, err := vm.AsString(vm.argOrNil(args, 0))
	if err != nil {
		return nil, err
	}
	return vm.NewString(target.Value.(string) + s), nil
}

// StringLess is a String method.
//
// < compares strings lexicographically.
func StringLess(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	s, err := vm.StringArg(args, 0, "String <")
	if err != nil {
		return nil, err
	}
	return vm.IoBool(target.Value.(string) < s), nil
}

// StringAsLowercase is a String method.
func StringAsLowercase(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewString(strings.ToLower(target.Value.(string))), nil
}

// StringAsUppercase is a String method.
func StringAsUppercase(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewString(strings.ToUpper(target.Value.(string))), nil
}

// StringAsNumber is a String method.
//
// asNumber parses the string as a number, returning nil if it is not one.
func StringAsNumber(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	s := strings.TrimSpace(target.Value.(string))
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return vm.NewNumber(f), nil
	}
	if n, err := strconv.ParseInt(s, 0, 64); err == nil {
		return vm.NewNumber(float64(n)), nil
	}
	return vm.Nil, nil
}

// StringAsString is a String method.
//
// asString returns the receiver.
func StringAsString(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return target, nil
}

// StringAt is a String method.
//
// at returns the character at the given index as a string, or nil if the index
// is out of bounds. Indices count runes.
func StringAt(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	n, err := vm.NumberArg(args, 0, "String at")
	if err != nil {
		return nil, err
	}
	i := int(n)
	if i < 0 {
		return vm.Nil, nil
	}
	for _, r := range target.Value.(string) {
		if i == 0 {
			return vm.NewString(string(r)), nil
		}
		i--
	}
	return vm.Nil, nil
}

// StringCompare is a String method.
//
// compare orders strings lexicographically. Non-strings compare by identity.
func StringCompare(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	other := vm.argOrNil(args, 0)
	s, ok := other.Value.(string)
	if !ok || other.tag != StringTag {
		return vm.NewNumber(float64(compareIDs(target, other))), nil
	}
	return vm.NewNumber(float64(strings.Compare(target.Value.(string), s))), nil
}

// StringSize is a String method.
//
// size returns the number of characters in the string.
func StringSize(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	return vm.NewNumber(float64(utf8.RuneCountInString(target.Value.(string)))), nil
}
