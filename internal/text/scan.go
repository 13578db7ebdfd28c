// Package text reads the textual s-expression form of IR modules.
package text

import (
	"fmt"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	// tokSym is a bare symbol: node heads ("loop", "i64.const"), type
	// names and operator names.
	tokSym
	// tokName is a $-prefixed identifier, stored without the sigil.
	tokName
	tokNumber
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokSym:
		return "symbol"
	case tokName:
		return "name"
	case tokNumber:
		return "number"
	default:
		return "unknown token"
	}
}

type token struct {
	kind tokenKind
	text string
	line uint32
	col  uint32
}

type scanner struct {
	src  string
	off  int
	line int
	col  int
}

func newScanner(src string) *scanner {
	return &scanner{src: src, line: 1, col: 1}
}

func (s *scanner) pos() (uint32, uint32) {
	line, err := safecast.Conv[uint32](s.line)
	if err != nil {
		line = 0
	}
	col, err := safecast.Conv[uint32](s.col)
	if err != nil {
		col = 0
	}
	return line, col
}

func (s *scanner) advance() byte {
	c := s.src[s.off]
	s.off++
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return c
}

// skipSpace consumes whitespace and line comments (";" to end of line).
func (s *scanner) skipSpace() {
	for s.off < len(s.src) {
		switch s.src[s.off] {
		case ' ', '\t', '\r', '\n':
			s.advance()
		case ';':
			for s.off < len(s.src) && s.src[s.off] != '\n' {
				s.advance()
			}
		default:
			return
		}
	}
}

func isSymChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '.' || c == '_' || c == '-'
}

func isNumStart(c byte) bool {
	return c >= '0' && c <= '9' || c == '-' || c == '+'
}

func (s *scanner) next() (token, error) {
	s.skipSpace()
	line, col := s.pos()
	if s.off >= len(s.src) {
		return token{kind: tokEOF, line: line, col: col}, nil
	}
	c := s.src[s.off]
	switch {
	case c == '(':
		s.advance()
		return token{kind: tokLParen, line: line, col: col}, nil
	case c == ')':
		s.advance()
		return token{kind: tokRParen, line: line, col: col}, nil
	case c == '$':
		s.advance()
		start := s.off
		for s.off < len(s.src) && isSymChar(s.src[s.off]) {
			s.advance()
		}
		if s.off == start {
			return token{}, fmt.Errorf("%d:%d: empty name after '$'", line, col)
		}
		// Names compare by string identity; normalize so visually equal
		// labels resolve to the same construct.
		name := norm.NFC.String(s.src[start:s.off])
		return token{kind: tokName, text: name, line: line, col: col}, nil
	case isNumStart(c):
		start := s.off
		s.advance()
		for s.off < len(s.src) && (isSymChar(s.src[s.off]) || s.src[s.off] == '+') {
			s.advance()
		}
		return token{kind: tokNumber, text: s.src[start:s.off], line: line, col: col}, nil
	case isSymChar(c):
		start := s.off
		for s.off < len(s.src) && isSymChar(s.src[s.off]) {
			s.advance()
		}
		return token{kind: tokSym, text: s.src[start:s.off], line: line, col: col}, nil
	default:
		return token{}, fmt.Errorf("%d:%d: unexpected character %q", line, col, c)
	}
}
