package internal

/*
Operator shuffling turns the flat chains produced by the parser into nested
sends. It works in place on the linked messages rather than building a
separate tree.

Each chain is handled in stages. Argument chains are shuffled first. Then
terminators are normalized, assignment operators are rewritten into slot
messages, and infix operators are nested by precedence. Finally, group
boundaries are spliced out and return arity is checked.

Infix operators are processed from the tightest precedence to the loosest,
and from left to right within a precedence. Each operator takes as its only
argument the run of messages following it, up to the next terminator, group
boundary, or operator that has not been processed yet. Operators that already
have arguments are ordinary messages, so shuffling a shuffled chain changes
nothing.
*/

import (
	"sort"
	"weak"
)

// OpShuffle resolves assignment and infix operators in a message chain using
// the VM's operator table. The chain is modified in place; the head message is
// never replaced.
func (vm *VM) OpShuffle(m *Message) error {
	return vm.OpShuffleWith(m, vm.Operators)
}

// OpShuffleWith resolves assignment and infix operators in a message chain
// using the given table.
func (vm *VM) OpShuffleWith(m *Message, table *OpTable) error {
	if m == nil {
		return nil
	}
	s := shuffler{vm: vm, t: table}
	if err := s.chain(m); err != nil {
		vm.log.Debugf("shuffle: %v", err)
		return err
	}
	return nil
}

type shuffler struct {
	vm *VM
	t  *OpTable
}

// chain shuffles one chain and, recursively, its arguments.
func (s *shuffler) chain(m *Message) error {
	for x := m; x != nil; x = x.Next {
		for _, arg := range x.Args {
			if err := s.chain(arg); err != nil {
				return err
			}
		}
	}
	normalize(m)
	if err := s.assignments(m); err != nil {
		return err
	}
	s.operators(m)
	spliceBoundaries(m)
	for x := m; x != nil; x = x.Next {
		if x.Memo == nil && x.Text == "return" && len(x.Args) > 1 {
			return &MessageError{Err: ErrReturnArity, Msg: x}
		}
	}
	return nil
}

// absorbNext replaces m's contents with those of its successor, removing the
// successor from the chain. m keeps its own previous link.
func absorbNext(m *Message) {
	n := m.Next
	prev := m.prev
	*m = *n
	m.prev = prev
	m.SetNext(n.Next)
}

// normalize collapses adjacent terminators, upgrading to a hard terminator if
// either is hard, drops leading terminators, and trims trailing soft ones.
func normalize(m *Message) {
	for m.IsTerminator() && m.Next != nil {
		absorbNext(m)
	}
	for x := m; x != nil; x = x.Next {
		for x.IsTerminator() && x.Next != nil && x.Next.IsTerminator() {
			if x.Next.IsHardTerminator() {
				x.Text = ";"
			}
			x.SetNext(x.Next.Next)
		}
	}
	last := m.Last()
	for last != m && last.IsTerminator() && !last.IsHardTerminator() {
		p := last.Prev()
		p.Next = nil
		last = p
	}
}

// assignments rewrites each assignment operator in the chain. For name := value
// rest, name becomes setSlot("name", value rest), and the statement's other
// messages move into the argument.
func (s *shuffler) assignments(m *Message) error {
	for x := m; x != nil; x = x.Next {
		if x.Memo != nil || x.boundary {
			continue
		}
		kind, ok := s.t.Assign[x.Text]
		if !ok {
			continue
		}
		name := x.Prev()
		if name == nil || name.IsTerminator() || name.boundary {
			return &MessageError{Err: ErrParseStructure, Msg: x, Detail: "no slot name for " + x.Text}
		}
		if name.Memo != nil {
			return &MessageError{Err: ErrParseStructure, Msg: name, Detail: "cannot assign to literal " + name.Text}
		}
		if len(name.Args) > 0 {
			return &MessageError{Err: ErrParseStructure, Msg: name, Detail: "cannot assign to " + name.Text + " with arguments"}
		}
		var value *Message
		switch len(x.Args) {
		case 0:
			value = x.Next
			if value.IsTerminator() {
				return &MessageError{Err: ErrParseStructure, Msg: x, Detail: "no value for " + x.Text}
			}
		case 1:
			// name :=(value) rest assigns the group followed by the rest.
			value = &Message{Text: "", Args: x.Args, Label: x.Label, Line: x.Line, Col: x.Col}
			value.SetNext(x.Next)
		default:
			return &MessageError{Err: ErrParseStructure, Msg: x, Detail: x.Text + " takes one value"}
		}
		last := value
		for !last.Next.IsTerminator() {
			last = last.Next
		}
		after := last.Next
		last.Next = nil
		value.prev = weak.Pointer[Message]{}
		lit := s.vm.StringMessage(name.Text)
		lit.Label, lit.Line, lit.Col = name.Label, name.Line, name.Col
		name.Text = kind.Method()
		name.SetArgs(lit, value)
		name.SetNext(after)
		if err := s.chain(value); err != nil {
			return err
		}
		x = name
	}
	return nil
}

// operators nests infix operators by precedence.
func (s *shuffler) operators(m *Message) {
	var ops []*Message
	pending := make(map[*Message]bool)
	for x := m; x != nil; x = x.Next {
		if x.Memo != nil || x.boundary || len(x.Args) > 0 {
			continue
		}
		if _, ok := s.t.Operators[x.Text]; ok {
			ops = append(ops, x)
			pending[x] = true
		}
	}
	if len(ops) == 0 {
		return
	}
	sort.SliceStable(ops, func(i, j int) bool {
		return s.t.Operators[ops[i].Text] < s.t.Operators[ops[j].Text]
	})
	for _, op := range ops {
		delete(pending, op)
		arg := op.Next
		if arg.IsTerminator() || arg.boundary {
			continue
		}
		last := arg
		for n := last.Next; !n.IsTerminator() && !n.boundary && !pending[n]; n = last.Next {
			last = n
		}
		op.SetNext(last.Next)
		last.Next = nil
		arg.prev = weak.Pointer[Message]{}
		op.SetArgs(arg)
	}
}

// spliceBoundaries removes group boundary markers from the chain.
func spliceBoundaries(m *Message) {
	for m.boundary && m.Next != nil {
		absorbNext(m)
	}
	for x := m; x != nil; x = x.Next {
		for x.Next != nil && x.Next.boundary {
			x.SetNext(x.Next.Next)
		}
	}
}
