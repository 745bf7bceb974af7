package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"
)

// AssignKind is the slot operation an assignment operator performs.
type AssignKind int

// Assignment kinds.
const (
	// NewSlot creates a slot and a setter for it.
	NewSlot AssignKind = iota
	// SetSlot creates or replaces a slot.
	SetSlot
	// UpdateSlot replaces a slot that must already exist.
	UpdateSlot
)

var assignMethods = [...]string{"newSlot", "setSlot", "updateSlot"}

// Method returns the name of the message an assignment of this kind becomes.
func (k AssignKind) Method() string {
	if k < NewSlot || k > UpdateSlot {
		return fmt.Sprintf("AssignKind(%d)", int(k))
	}
	return assignMethods[k]
}

// String returns the method name.
func (k AssignKind) String() string {
	return k.Method()
}

// MarshalText encodes k as its method name.
func (k AssignKind) MarshalText() ([]byte, error) {
	if k < NewSlot || k > UpdateSlot {
		return nil, fmt.Errorf("invalid assignment kind %d", int(k))
	}
	return []byte(assignMethods[k]), nil
}

// UnmarshalText decodes a method name.
func (k *AssignKind) UnmarshalText(text []byte) error {
	for i, m := range assignMethods {
		if string(text) == m {
			*k = AssignKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown assignment kind %q", text)
}

// UnmarshalYAML decodes a method name.
func (k *AssignKind) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return k.UnmarshalText([]byte(s))
}

// OpTable holds the operators the resolver rewrites. A table is not modified
// while a resolution uses it; changes are made on copies.
type OpTable struct {
	// Operators maps infix operator names to precedences. Lower precedences
	// bind more tightly. All operators are left-associative.
	Operators map[string]int `yaml:"operators" toml:"operators"`
	// Assign maps assignment operator names to the slot operations they
	// perform.
	Assign map[string]AssignKind `yaml:"assign" toml:"assign"`
}

// DefaultOpTable returns a new copy of the standard operator table.
func DefaultOpTable() *OpTable {
	return &OpTable{
		Operators: map[string]int{
			"?":      0,
			"@":      0,
			"@@":     0,
			"**":     1,
			"%":      2,
			"*":      2,
			"/":      2,
			"+":      3,
			"-":      3,
			"<<":     4,
			">>":     4,
			"<":      5,
			"<=":     5,
			">":      5,
			">=":     5,
			"!=":     6,
			"==":     6,
			"&":      7,
			"^":      8,
			"|":      9,
			"&&":     10,
			"and":    10,
			"or":     11,
			"||":     11,
			"..":     12,
			"%=":     13,
			"&=":     13,
			"*=":     13,
			"+=":     13,
			"-=":     13,
			"/=":     13,
			"<<=":    13,
			">>=":    13,
			"^=":     13,
			"|=":     13,
			"return": 14,
		},
		Assign: map[string]AssignKind{
			"::=": NewSlot,
			":=":  SetSlot,
			"=":   UpdateSlot,
		},
	}
}

// Clone returns a copy of the table.
func (t *OpTable) Clone() *OpTable {
	r := &OpTable{
		Operators: make(map[string]int, len(t.Operators)),
		Assign:    make(map[string]AssignKind, len(t.Assign)),
	}
	for k, v := range t.Operators {
		r.Operators[k] = v
	}
	for k, v := range t.Assign {
		r.Assign[k] = v
	}
	return r
}

// Validate checks that the table's precedences are non-negative and its
// assignment kinds are known, and that no name is both an operator and an
// assignment.
func (t *OpTable) Validate() error {
	for name, prec := range t.Operators {
		if name == "" {
			return fmt.Errorf("operator table: empty operator name")
		}
		if prec < 0 {
			return fmt.Errorf("operator table: operator %q has negative precedence %d", name, prec)
		}
		if _, ok := t.Assign[name]; ok {
			return fmt.Errorf("operator table: %q is both an operator and an assignment", name)
		}
	}
	for name, kind := range t.Assign {
		if name == "" {
			return fmt.Errorf("operator table: empty assignment operator name")
		}
		if kind < NewSlot || kind > UpdateSlot {
			return fmt.Errorf("operator table: assignment %q has invalid kind %d", name, int(kind))
		}
	}
	return nil
}

// ReadOpTable decodes an operator table from r. format is "yaml" or "toml".
// Decoded tables are validated.
func ReadOpTable(r io.Reader, format string) (*OpTable, error) {
	var t OpTable
	switch strings.ToLower(format) {
	case "yaml", "yml":
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if err := yaml.UnmarshalStrict(b, &t); err != nil {
			return nil, fmt.Errorf("operator table: %w", err)
		}
	case "toml":
		md, err := toml.NewDecoder(r).Decode(&t)
		if err != nil {
			return nil, fmt.Errorf("operator table: %w", err)
		}
		if und := md.Undecoded(); len(und) > 0 {
			return nil, fmt.Errorf("operator table: unknown key %s", und[0])
		}
	default:
		return nil, fmt.Errorf("operator table: unknown format %q", format)
	}
	if t.Operators == nil {
		t.Operators = map[string]int{}
	}
	if t.Assign == nil {
		t.Assign = map[string]AssignKind{}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadOpTable reads an operator table from a file, choosing the format from
// its extension.
func LoadOpTable(path string) (*OpTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadOpTable(f, strings.TrimPrefix(filepath.Ext(path), "."))
}

// OpTableTag is the tag for OperatorTable objects.
const OpTableTag = BasicTag("OperatorTable")

func (vm *VM) initOpTable() {
	slots := Slots{
		"addAssignOperator": vm.NewHostFunction(OperatorTableAddAssignOperator, nil),
		"addOperator":       vm.NewHostFunction(OperatorTableAddOperator, nil),
		"assignOperators":   vm.NewHostFunction(OperatorTableAssignOperators, nil),
		"operators":         vm.NewHostFunction(OperatorTableOperators, nil),
		"type":              vm.NewString("OperatorTable"),
	}
	vm.coreInstall("OperatorTable", slots, nil, OpTableTag)
}

// OperatorTableAddOperator is an OperatorTable method.
//
// addOperator adds an operator with the given precedence to the table used by
// subsequent parses.
func OperatorTableAddOperator(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	name, err := vm.StringArg(args, 0, "OperatorTable addOperator")
	if err != nil {
		return nil, err
	}
	prec, err := vm.NumberArg(args, 1, "OperatorTable addOperator")
	if err != nil {
		return nil, err
	}
	t := vm.Operators.Clone()
	delete(t.Assign, name)
	t.Operators[name] = int(prec)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	vm.Operators = t
	return target, nil
}

// OperatorTableAddAssignOperator is an OperatorTable method.
//
// addAssignOperator adds an assignment operator that becomes the given slot
// method, one of newSlot, setSlot, or updateSlot.
func OperatorTableAddAssignOperator(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	name, err := vm.StringArg(args, 0, "OperatorTable addAssignOperator")
	if err != nil {
		return nil, err
	}
	method, err := vm.StringArg(args, 1, "OperatorTable addAssignOperator")
	if err != nil {
		return nil, err
	}
	var kind AssignKind
	if err := kind.UnmarshalText([]byte(method)); err != nil {
		return nil, err
	}
	t := vm.Operators.Clone()
	delete(t.Operators, name)
	t.Assign[name] = kind
	vm.Operators = t
	return target, nil
}

// OperatorTableOperators is an OperatorTable method.
//
// operators returns a Map of operator names to precedences.
func OperatorTableOperators(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	m := make(map[string]*Object, len(vm.Operators.Operators))
	for k, v := range vm.Operators.Operators {
		m[k] = vm.NewNumber(float64(v))
	}
	return vm.primitive(m, MapTag), nil
}

// OperatorTableAssignOperators is an OperatorTable method.
//
// assignOperators returns a Map of assignment operator names to slot methods.
func OperatorTableAssignOperators(ctx context.Context, vm *VM, target *Object, args []*Object) (*Object, error) {
	m := make(map[string]*Object, len(vm.Operators.Assign))
	for k, v := range vm.Operators.Assign {
		m[k] = vm.NewString(v.Method())
	}
	return vm.primitive(m, MapTag), nil
}
