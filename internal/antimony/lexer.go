package antimony

import (
	"fmt"
	"strconv"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokSep           // ';' or newline
	tokIdent
	tokNumber
	tokArrow // ->
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokEq
	tokColon
	tokDollar
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	num  float64
	line int
	col  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokSep:
		return "statement separator"
	case tokNumber:
		return fmt.Sprintf("number %g", t.num)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

type lexer struct {
	src  []rune
	pos  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src), line: 1, col: 1}
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

// next returns the next token, folding comments and horizontal whitespace.
func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) {
		r := l.peek()
		if r == ' ' || r == '\t' || r == '\r' {
			l.advance()
			continue
		}
		if r == '#' || (r == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/') {
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
			continue
		}
		break
	}

	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: l.line, col: l.col}, nil
	}

	line, col := l.line, l.col
	r := l.peek()

	switch {
	case r == '\n' || r == ';':
		l.advance()
		return token{kind: tokSep, text: string(r), line: line, col: col}, nil
	case r == '-':
		l.advance()
		if l.peek() == '>' {
			l.advance()
			return token{kind: tokArrow, text: "->", line: line, col: col}, nil
		}
		return token{kind: tokMinus, text: "-", line: line, col: col}, nil
	case r == '+':
		l.advance()
		return token{kind: tokPlus, text: "+", line: line, col: col}, nil
	case r == '*':
		l.advance()
		return token{kind: tokStar, text: "*", line: line, col: col}, nil
	case r == '/':
		l.advance()
		return token{kind: tokSlash, text: "/", line: line, col: col}, nil
	case r == '^':
		l.advance()
		return token{kind: tokCaret, text: "^", line: line, col: col}, nil
	case r == '=':
		l.advance()
		return token{kind: tokEq, text: "=", line: line, col: col}, nil
	case r == ':':
		l.advance()
		return token{kind: tokColon, text: ":", line: line, col: col}, nil
	case r == '$':
		l.advance()
		return token{kind: tokDollar, text: "$", line: line, col: col}, nil
	case r == '(':
		l.advance()
		return token{kind: tokLParen, text: "(", line: line, col: col}, nil
	case r == ')':
		l.advance()
		return token{kind: tokRParen, text: ")", line: line, col: col}, nil
	case r == ',':
		l.advance()
		return token{kind: tokComma, text: ",", line: line, col: col}, nil
	case unicode.IsDigit(r) || r == '.':
		return l.lexNumber(line, col)
	case unicode.IsLetter(r) || r == '_':
		start := l.pos
		for l.pos < len(l.src) {
			r := l.peek()
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				break
			}
			l.advance()
		}
		return token{kind: tokIdent, text: string(l.src[start:l.pos]), line: line, col: col}, nil
	}

	return token{}, ParseError{Line: line, Col: col, Message: fmt.Sprintf("unexpected character %q", r)}
}

func (l *lexer) lexNumber(line, col int) (token, error) {
	start := l.pos
	seenDot := false
	for l.pos < len(l.src) {
		r := l.peek()
		if unicode.IsDigit(r) {
			l.advance()
			continue
		}
		if r == '.' && !seenDot {
			seenDot = true
			l.advance()
			continue
		}
		if (r == 'e' || r == 'E') && l.pos+1 < len(l.src) {
			next := l.src[l.pos+1]
			if unicode.IsDigit(next) || next == '+' || next == '-' {
				l.advance()
				l.advance()
				continue
			}
		}
		break
	}
	text := string(l.src[start:l.pos])
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, ParseError{Line: line, Col: col, Message: fmt.Sprintf("malformed number %q", text)}
	}
	return token{kind: tokNumber, text: text, num: v, line: line, col: col}, nil
}
