package internal

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// A token is a single lexical element.
type token struct {
	Kind  tokenKind
	Value string
	Err   error

	Line, Col int
}

type tokenKind int

const (
	badToken tokenKind = iota

	semiToken     // semicolon and newline
	identToken    // identifier or operator
	openToken     // open bracket: (, [, {
	closeToken    // close bracket: ), ], }
	commaToken    // comma
	numberToken   // number
	hexToken      // hexadecimal number
	stringToken   // "string"
	triquoteToken // """string"""
)

const eof rune = -1

// opChars are the characters that make up operators.
const opChars = "!$%&'*+-./:<=>?@\\^|~"

// lexer holds the state of a scan. Comments and horizontal space are consumed
// without producing tokens.
type lexer struct {
	src    *bufio.Reader
	tokens chan<- token
	err    error

	// buf holds the text of the token being scanned.
	buf []byte
	// last is the most recently read rune, or eof.
	last rune
	// line and col are the position of the next rune. pline and pcol are the
	// position of last. tline and tcol are where the current token starts.
	line, col   int
	pline, pcol int
	tline, tcol int
}

// stateFn is a lexer state. Each state scans some input, possibly sends a
// token, and returns the next state.
type stateFn func(*lexer) stateFn

// lex converts a source into a stream of tokens, closing the channel when the
// source is exhausted or an error occurs.
func lex(src *bufio.Reader, tokens chan<- token) {
	l := &lexer{src: src, tokens: tokens, line: 1, col: 1, tline: 1, tcol: 1}
	for state := lexAny; state != nil; {
		state = state(l)
	}
	close(tokens)
}

// next reads a rune into the token buffer.
func (l *lexer) next() rune {
	r, _, err := l.src.ReadRune()
	if err != nil {
		if err != io.EOF {
			l.err = err
		}
		l.last = eof
		return eof
	}
	l.last = r
	l.pline, l.pcol = l.line, l.col
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.buf = utf8.AppendRune(l.buf, r)
	return r
}

// backup unreads the last rune. It may be called only once per call to next.
func (l *lexer) backup() {
	if l.last == eof {
		return
	}
	l.src.UnreadRune()
	l.buf = l.buf[:len(l.buf)-utf8.RuneLen(l.last)]
	l.line, l.col = l.pline, l.pcol
	l.last = eof
}

// peek returns the next rune without consuming it.
func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// peekBytes returns up to n upcoming bytes without consuming them.
func (l *lexer) peekBytes(n int) []byte {
	b, _ := l.src.Peek(n)
	return b
}

// accept consumes the run of runes satisfying the predicate.
func (l *lexer) accept(pred func(rune) bool) {
	for {
		r := l.next()
		if r == eof {
			return
		}
		if !pred(r) {
			l.backup()
			return
		}
	}
}

// ignore discards the current token text and starts a new token.
func (l *lexer) ignore() {
	l.buf = l.buf[:0]
	l.tline, l.tcol = l.line, l.col
}

// emit sends the current token.
func (l *lexer) emit(kind tokenKind) {
	l.tokens <- token{Kind: kind, Value: string(l.buf), Line: l.tline, Col: l.tcol}
	l.ignore()
}

// errorf sends an error token and stops the scan.
func (l *lexer) errorf(format string, args ...interface{}) stateFn {
	l.tokens <- token{Kind: badToken, Value: string(l.buf), Err: fmt.Errorf(format, args...), Line: l.tline, Col: l.tcol}
	return nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\f' || r == '\v'
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F'
}

func isIdentStart(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r == '_' || r >= 0x80
}

func isIdent(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}

func isOp(r rune) bool {
	return r != eof && strings.ContainsRune(opChars, r)
}

// lexAny skips space and decides the next state from the first rune of a
// token.
func lexAny(l *lexer) stateFn {
	l.accept(isSpace)
	l.ignore()
	r := l.next()
	switch {
	case r == eof:
		if l.err != nil {
			return l.errorf("%w", l.err)
		}
		return nil
	case r == ';', r == '\n':
		l.emit(semiToken)
	case r == ',':
		l.emit(commaToken)
	case r == '(', r == '[', r == '{':
		l.emit(openToken)
	case r == ')', r == ']', r == '}':
		l.emit(closeToken)
	case r == '#':
		return lexLineComment
	case r == '/' && l.peek() == '/':
		return lexLineComment
	case r == '/' && l.peek() == '*':
		l.next()
		return lexBlockComment
	case r == '.' && isDigit(l.peek()):
		return lexNumber
	case isDigit(r):
		return lexNumber
	case isIdentStart(r):
		l.accept(isIdent)
		l.emit(identToken)
	case isOp(r):
		l.accept(isOp)
		l.emit(identToken)
	case r == '"':
		return lexString
	default:
		return l.errorf("invalid character %q", r)
	}
	return lexAny
}

// lexLineComment discards a # or // comment up to the end of the line.
func lexLineComment(l *lexer) stateFn {
	l.accept(func(r rune) bool { return r != '\n' })
	l.ignore()
	return lexAny
}

// lexBlockComment discards a /* */ comment. Block comments nest.
func lexBlockComment(l *lexer) stateFn {
	depth := 1
	var prev rune
	for depth > 0 {
		r := l.next()
		switch {
		case r == eof:
			return l.errorf("unterminated comment")
		case prev == '*' && r == '/':
			depth--
			r = 0
		case prev == '/' && r == '*':
			depth++
			r = 0
		}
		prev = r
	}
	l.ignore()
	return lexAny
}

// lexNumber scans a decimal or hexadecimal number. The first rune is already
// in the buffer.
func lexNumber(l *lexer) stateFn {
	if l.buf[0] == '0' {
		if r := l.peek(); r == 'x' || r == 'X' {
			l.next()
			l.accept(isHexDigit)
			if len(l.buf) == 2 {
				return l.errorf("invalid numeric literal %s", l.buf)
			}
			l.emit(hexToken)
			return lexAny
		}
	}
	l.accept(isDigit)
	if l.buf[0] != '.' && l.peek() == '.' {
		// A point is part of the number only if a digit follows it, so that
		// 1..2 is 1 .. 2.
		if b := l.peekBytes(2); len(b) == 2 && isDigit(rune(b[1])) {
			l.next()
			l.accept(isDigit)
		}
	}
	if r := l.peek(); r == 'e' || r == 'E' {
		b := l.peekBytes(3)
		switch {
		case len(b) >= 2 && isDigit(rune(b[1])):
			l.next()
		case len(b) == 3 && (b[1] == '+' || b[1] == '-') && isDigit(rune(b[2])):
			l.next()
			l.next()
		}
		l.accept(isDigit)
	}
	l.emit(numberToken)
	return lexAny
}

// lexString scans a monoquote or triquote string. The opening quote is
// already in the buffer.
func lexString(l *lexer) stateFn {
	if b := l.peekBytes(2); string(b) == `""` {
		l.next()
		l.next()
		return lexTriquote
	}
	for {
		switch l.next() {
		case eof:
			return l.errorf("unterminated string")
		case '\\':
			if l.next() == eof {
				return l.errorf("unterminated string")
			}
		case '"':
			l.emit(stringToken)
			return lexAny
		}
	}
}

// lexTriquote scans the remainder of a triquote string. Its contents are
// taken literally.
func lexTriquote(l *lexer) stateFn {
	for {
		if l.next() == eof {
			return l.errorf("unterminated string")
		}
		if len(l.buf) >= 6 && strings.HasSuffix(string(l.buf), `"""`) {
			l.emit(triquoteToken)
			return lexAny
		}
	}
}
