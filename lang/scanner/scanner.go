// Package scanner tokenizes source files for the parser to consume. It is a
// thin, interface-only collaborator (the spec treats tokenisation as out of
// scope for the core), adapted from the teacher's lang/scanner package: the
// same Init/Scan/error-handler shape and the same ErrorList accumulate-sort-
// render pattern as go/scanner.ErrorList, rebuilt against this language's own
// token.Position rather than go/token's.
package scanner

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vela-lang/velac/lang/token"
)

// Error is a single scanner or parser diagnostic tied to a source position.
type Error struct {
	Pos token.Position
	Msg string
}

func (e Error) Error() string {
	if e.Pos.Filename != "" {
		return e.Pos.String() + ": " + e.Msg
	}
	return e.Msg
}

// ErrorList accumulates Errors in the order they're reported; Sort puts them
// back into source order before Error()/Err() render them.
type ErrorList []*Error

// Add appends an error at pos to the list. Its signature matches the
// errHandler type Scanner.Init and parser.init expect, so it can be passed
// directly as `el.Add`.
func (el *ErrorList) Add(pos token.Position, msg string) {
	*el = append(*el, &Error{Pos: pos, Msg: msg})
}

func (el ErrorList) Len() int      { return len(el) }
func (el ErrorList) Swap(i, j int) { el[i], el[j] = el[j], el[i] }
func (el ErrorList) Less(i, j int) bool {
	pi, pj := el[i].Pos, el[j].Pos
	if pi.Filename != pj.Filename {
		return pi.Filename < pj.Filename
	}
	if pi.Line != pj.Line {
		return pi.Line < pj.Line
	}
	return pi.Column < pj.Column
}

// Sort orders the list by file, then line, then column.
func (el ErrorList) Sort() { sort.Sort(el) }

func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
}

// Err returns el as an error, or nil if el is empty.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// Value carries everything the parser needs about a single scanned token:
// its source text and, for literals, the decoded value.
type Value struct {
	Raw    string
	Pos    token.Pos
	Int    uint64
	Float  float64
	String string
}

// Scanner tokenizes a single source file.
type Scanner struct {
	file *token.File
	src  []byte
	err  func(token.Position, string)

	cur       rune
	off       int
	roff      int
	line, col int
}

// Init prepares the scanner to tokenize src, which must be the file's full
// source content.
func (s *Scanner) Init(file *token.File, src []byte, errHandler func(token.Position, string)) {
	s.file = file
	s.src = src
	s.err = errHandler
	s.off, s.roff = 0, 0
	s.line, s.col = 1, 0
	s.advance()
}

func (s *Scanner) pos() token.Pos {
	return token.MakePos(s.line, s.col)
}

func (s *Scanner) advance() {
	if s.roff >= len(s.src) {
		s.off = len(s.src)
		s.cur = -1
		return
	}
	s.off = s.roff
	r, w := rune(s.src[s.roff]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(s.src[s.roff:])
		if r == utf8.RuneError && w == 1 {
			s.error("illegal UTF-8 encoding")
		}
	}
	s.roff += w
	if s.cur == '\n' {
		s.line++
		s.col = 0
	}
	s.col++
	s.cur = r
}

func (s *Scanner) peek() byte {
	if s.roff < len(s.src) {
		return s.src[s.roff]
	}
	return 0
}

func (s *Scanner) error(msg string) {
	if s.err != nil {
		s.err(s.file.Position(s.pos()), msg)
	}
}

func (s *Scanner) errorf(format string, args ...any) {
	s.error(fmt.Sprintf(format, args...))
}

func (s *Scanner) advanceIf(b byte) bool {
	if s.cur == rune(b) {
		s.advance()
		return true
	}
	return false
}

func isLetter(r rune) bool { return r == '_' || unicode.IsLetter(r) }
func isDigit(r rune) bool  { return r >= '0' && r <= '9' }

// Scan returns the next token in the source file, filling v with its raw
// text and, for literals, its decoded value.
func (s *Scanner) Scan(v *Value) token.Token {
	s.skipSpace()
	pos := s.pos()

	switch {
	case s.cur < 0:
		*v = Value{Pos: pos}
		return token.EOF

	case isLetter(s.cur):
		lit := s.ident()
		*v = Value{Raw: lit, Pos: pos}
		if tok, ok := token.Keywords[lit]; ok {
			return tok
		}
		return token.IDENT

	case isDigit(s.cur) || (s.cur == '.' && isDigit(rune(s.peek()))):
		return s.number(v, pos)

	case s.cur == '"':
		lit, val := s.stringLit()
		*v = Value{Raw: lit, Pos: pos, String: val}
		return token.STRING

	case s.cur == '\'':
		lit, val := s.charLit()
		*v = Value{Raw: lit, Pos: pos, String: val}
		return token.CHAR
	}

	cur := s.cur
	s.advance()
	*v = Value{Pos: pos}
	switch cur {
	case '+':
		return token.PLUS
	case '-':
		if s.advanceIf('>') {
			return token.ARROW
		}
		return token.MINUS
	case '*':
		return token.STAR
	case '/':
		return token.SLASH
	case '%':
		return token.PERCENT
	case '&':
		if s.advanceIf('&') {
			return token.ANDAND
		}
		return token.AMPERSAND
	case '|':
		if s.advanceIf('|') {
			return token.OROR
		}
		return token.PIPE
	case '^':
		return token.CIRCUMFLEX
	case '~':
		return token.TILDE
	case '!':
		if s.advanceIf('=') {
			return token.NEQ
		}
		return token.BANG
	case '<':
		if s.advanceIf('<') {
			return token.LTLT
		}
		if s.advanceIf('=') {
			return token.LE
		}
		return token.LT
	case '>':
		if s.advanceIf('>') {
			return token.GTGT
		}
		if s.advanceIf('=') {
			return token.GE
		}
		return token.GT
	case '.':
		if s.cur == '.' && s.peek() == '.' {
			s.advance()
			s.advance()
			return token.DOTDOTDOT
		}
		return token.DOT
	case ',':
		return token.COMMA
	case ':':
		if s.advanceIf(':') {
			return token.COLONCOLON
		}
		if s.advanceIf('=') {
			return token.COLONEQ
		}
		return token.COLON
	case ';':
		return token.SEMI
	case '$':
		return token.DOLLAR
	case '(':
		return token.LPAREN
	case ')':
		return token.RPAREN
	case '[':
		return token.LBRACK
	case ']':
		return token.RBRACK
	case '{':
		return token.LBRACE
	case '}':
		return token.RBRACE
	case '=':
		if s.advanceIf('=') {
			return token.EQ
		}
		return token.ASSIGN
	default:
		s.errorf("unexpected character %#U", cur)
		return token.ILLEGAL
	}
}

func (s *Scanner) skipSpace() {
	for {
		switch s.cur {
		case ' ', '\t', '\r', '\n':
			s.advance()
		case '/':
			if s.peek() == '/' {
				for s.cur != '\n' && s.cur >= 0 {
					s.advance()
				}
				continue
			}
			return
		default:
			return
		}
	}
}

func (s *Scanner) ident() string {
	start := s.off
	for isLetter(s.cur) || isDigit(s.cur) {
		s.advance()
	}
	return string(s.src[start:s.off])
}

func (s *Scanner) number(v *Value, pos token.Pos) token.Token {
	start := s.off
	base := 10
	isFloat := false

	if s.cur == '0' && (s.peek() == 'x' || s.peek() == 'X') {
		s.advance()
		s.advance()
		base = 16
		for isHex(s.cur) {
			s.advance()
		}
	} else if s.cur == '0' && (s.peek() == 'b' || s.peek() == 'B') {
		s.advance()
		s.advance()
		base = 2
		for s.cur == '0' || s.cur == '1' {
			s.advance()
		}
	} else {
		for isDigit(s.cur) {
			s.advance()
		}
		if s.cur == '.' && isDigit(rune(s.peek())) {
			isFloat = true
			s.advance()
			for isDigit(s.cur) {
				s.advance()
			}
		}
		if s.cur == 'e' || s.cur == 'E' {
			isFloat = true
			s.advance()
			if s.cur == '+' || s.cur == '-' {
				s.advance()
			}
			for isDigit(s.cur) {
				s.advance()
			}
		}
	}

	lit := string(s.src[start:s.off])
	if isFloat {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			s.errorf("malformed float literal: %s", lit)
		}
		*v = Value{Raw: lit, Pos: pos, Float: f}
		return token.FLOAT
	}

	digits := lit
	switch base {
	case 16:
		digits = lit[2:]
	case 2:
		digits = lit[2:]
	}
	n, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		s.errorf("malformed integer literal: %s", lit)
	}
	*v = Value{Raw: lit, Pos: pos, Int: n}
	return token.INT
}

func isHex(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func (s *Scanner) stringLit() (raw, val string) {
	var sb strings.Builder
	start := s.off
	s.advance() // opening quote
	for s.cur != '"' {
		if s.cur < 0 || s.cur == '\n' {
			s.error("unterminated string literal")
			break
		}
		if s.cur == '\\' {
			s.advance()
			sb.WriteRune(s.escape())
			continue
		}
		sb.WriteRune(s.cur)
		s.advance()
	}
	s.advance() // closing quote
	return string(s.src[start:s.off]), sb.String()
}

func (s *Scanner) charLit() (raw, val string) {
	start := s.off
	s.advance() // opening quote
	var r rune
	if s.cur == '\\' {
		s.advance()
		r = s.escape()
	} else {
		r = s.cur
		s.advance()
	}
	if s.cur != '\'' {
		s.error("unterminated char literal")
	} else {
		s.advance()
	}
	return string(s.src[start:s.off]), string(r)
}

func (s *Scanner) escape() rune {
	cur := s.cur
	s.advance()
	switch cur {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	case '\\', '\'', '"':
		return cur
	default:
		s.errorf("unknown escape sequence \\%c", cur)
		return cur
	}
}
