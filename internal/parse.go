package internal

/*
This file is for converting lexer tokens into messages. If you're looking
for operator precedence parsing, check shuffle.go.
*/

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Parse converts Io source code into a message chain and resolves its
// operators. label names the source in error messages and message positions.
// If the source contains no messages, the result is nil.
func (vm *VM) Parse(source io.Reader, label string) (*Message, error) {
	msg, err := vm.ParseUnshuffled(source, label)
	if err != nil {
		return nil, err
	}
	if err := vm.OpShuffle(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ParseUnshuffled converts Io source code into a flat message chain without
// resolving operators.
func (vm *VM) ParseUnshuffled(source io.Reader, label string) (*Message, error) {
	tokens := make(chan token)
	go lex(bufio.NewReader(source), tokens)
	p := parser{vm: vm, tokens: tokens, label: label}
	defer func() {
		// Let the lexer finish if we stopped early.
		for range tokens {
		}
	}()
	_, msg, err := p.chain(nil)
	if err != nil {
		vm.log.Debugf("parse %s: %v", label, err)
		return nil, err
	}
	return msg, nil
}

type parser struct {
	vm     *VM
	tokens <-chan token
	label  string
	// last is the most recent token, for locating unexpected ends.
	last token
}

// closers maps open brackets to their closing counterparts.
var closers = map[string]string{"(": ")", "[": "]", "{": "}"}

// at sets the message's position from a token.
func (p *parser) at(m *Message, tok token) *Message {
	m.Label = p.label
	m.Line = tok.Line
	m.Col = tok.Col
	return m
}

// errorf creates a syntax error located at a token.
func (p *parser) errorf(tok token, format string, args ...interface{}) error {
	return &MessageError{
		Err:    ErrSyntax,
		Msg:    p.at(&Message{Text: tok.Value}, tok),
		Detail: fmt.Sprintf(format, args...),
	}
}

// chain parses messages up to the end of input or, if open is not nil, up to
// a comma or the bracket closing open. It returns the token that ended the
// chain and the chain itself, which is nil if there were no messages.
func (p *parser) chain(open *token) (end token, head *Message, err error) {
	var tail *Message
	add := func(m *Message) {
		if tail == nil {
			head = m
		} else {
			tail.SetNext(m)
		}
		tail = m
	}
	for tok := range p.tokens {
		p.last = tok
		switch tok.Kind {
		case badToken:
			return tok, nil, p.errorf(tok, "%v", tok.Err)
		case semiToken:
			if tail == nil || tail.IsTerminator() {
				// Empty statement.
				if tail != nil && tok.Value == ";" {
					tail.Text = ";"
				}
				continue
			}
			add(p.at(p.vm.TerminatorMessage(tok.Value == ";"), tok))
		case identToken:
			add(p.at(p.vm.IdentMessage(tok.Value), tok))
		case openToken:
			args, err := p.args(tok)
			if err != nil {
				return tok, nil, err
			}
			start := tail == nil || tail.IsTerminator()
			switch tok.Value {
			case "(":
				if !start && !tail.IsLiteral() && !tail.IsBoundary() && len(tail.Args) == 0 {
					// These are the arguments for the previous message.
					tail.Args = args
					continue
				}
				add(p.at(&Message{Args: args}, tok))
				if start {
					add(p.vm.BoundaryMessage())
				}
			case "[":
				add(p.at(p.vm.IdentMessage("squareBrackets", args...), tok))
			case "{":
				add(p.at(p.vm.IdentMessage("curlyBrackets", args...), tok))
			}
		case closeToken:
			if open == nil {
				return tok, nil, p.errorf(tok, "unexpected %s", tok.Value)
			}
			if want := closers[open.Value]; tok.Value != want {
				return tok, nil, p.errorf(tok, "expected %s to close %s at %d:%d, got %s", want, open.Value, open.Line, open.Col, tok.Value)
			}
			return tok, head, nil
		case commaToken:
			if open == nil {
				return tok, nil, p.errorf(tok, "comma outside of arguments")
			}
			return tok, head, nil
		case numberToken:
			f, err := strconv.ParseFloat(tok.Value, 64)
			if err != nil && !errors.Is(err, strconv.ErrRange) {
				return tok, nil, p.errorf(tok, "invalid numeric literal %s", tok.Value)
			}
			add(p.at(&Message{Text: tok.Value, Memo: p.vm.NewNumber(f)}, tok))
		case hexToken:
			x, err := strconv.ParseUint(tok.Value[2:], 16, 64)
			f := float64(x)
			if err != nil {
				if !errors.Is(err, strconv.ErrRange) {
					return tok, nil, p.errorf(tok, "invalid numeric literal %s", tok.Value)
				}
				f = math.Inf(1)
			}
			add(p.at(&Message{Text: tok.Value, Memo: p.vm.NewNumber(f)}, tok))
		case stringToken:
			s, err := strconv.Unquote(tok.Value)
			if err != nil {
				return tok, nil, p.errorf(tok, "invalid string literal %s", tok.Value)
			}
			add(p.at(&Message{Text: tok.Value, Memo: p.vm.NewString(s)}, tok))
		case triquoteToken:
			s := tok.Value[3 : len(tok.Value)-3]
			add(p.at(&Message{Text: tok.Value, Memo: p.vm.NewString(s)}, tok))
		}
	}
	if open != nil {
		return p.last, nil, p.errorf(*open, "unclosed %s", open.Value)
	}
	return p.last, head, nil
}

// args parses the comma-separated arguments following an open bracket.
func (p *parser) args(open token) ([]*Message, error) {
	var args []*Message
	for {
		end, msg, err := p.chain(&open)
		if err != nil {
			return nil, err
		}
		if end.Kind == commaToken {
			if msg == nil {
				return nil, p.errorf(end, "empty argument")
			}
			args = append(args, msg)
			continue
		}
		if msg == nil {
			if len(args) > 0 {
				return nil, p.errorf(end, "empty argument")
			}
			return nil, nil
		}
		return append(args, msg), nil
	}
}
