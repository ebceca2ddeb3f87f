package pattern

import (
	"fmt"
	"go/token"
	"iter"
	"strconv"
	"unicode"
	"unicode/utf8"
)

type item struct {
	typ itemType
	val string
	pos token.Pos
}

type itemType int

const (
	itemError itemType = iota
	itemLeftParen
	itemRightParen
	itemLeftBracket
	itemRightBracket
	itemTypeName
	itemVariable
	itemAt
	itemColon
	itemBlank
	itemString
	itemEOF
)

func (typ itemType) String() string {
	switch typ {
	case itemError:
		return "ERROR"
	case itemLeftParen:
		return "("
	case itemRightParen:
		return ")"
	case itemLeftBracket:
		return "["
	case itemRightBracket:
		return "]"
	case itemTypeName:
		return "TYPE"
	case itemVariable:
		return "VAR"
	case itemAt:
		return "@"
	case itemColon:
		return ":"
	case itemBlank:
		return "_"
	case itemString:
		return "STRING"
	case itemEOF:
		return "EOF"
	default:
		return fmt.Sprintf("itemType(%d)", int(typ))
	}
}

// lex returns an iterator over the items of input. The last item is
// either itemEOF or itemError.
func lex(f *token.File, input string) iter.Seq[item] {
	return func(yield func(item) bool) {
		l := &lexer{f: f, input: input}
		for {
			it := l.next()
			if !yield(it) || it.typ == itemEOF || it.typ == itemError {
				return
			}
		}
	}
}

type lexer struct {
	f     *token.File
	input string
	pos   int
}

func (l *lexer) item(typ itemType, start int) item {
	return item{typ: typ, val: l.input[start:l.pos], pos: l.f.Pos(start)}
}

func (l *lexer) errorf(start int, format string, args ...interface{}) item {
	return item{typ: itemError, val: fmt.Sprintf(format, args...), pos: l.f.Pos(start)}
}

func (l *lexer) next() item {
	for l.pos < len(l.input) {
		r, w := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			break
		}
		l.pos += w
	}
	start := l.pos
	if l.pos >= len(l.input) {
		return item{typ: itemEOF, pos: l.f.Pos(len(l.input))}
	}

	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	switch r {
	case '(':
		l.pos += w
		return l.item(itemLeftParen, start)
	case ')':
		l.pos += w
		return l.item(itemRightParen, start)
	case '[':
		l.pos += w
		return l.item(itemLeftBracket, start)
	case ']':
		l.pos += w
		return l.item(itemRightBracket, start)
	case '@':
		l.pos += w
		return l.item(itemAt, start)
	case ':':
		l.pos += w
		return l.item(itemColon, start)
	case '"':
		return l.lexString(start)
	}

	if r == '_' || unicode.IsLetter(r) {
		for l.pos < len(l.input) {
			r, w := utf8.DecodeRuneInString(l.input[l.pos:])
			if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				break
			}
			l.pos += w
		}
		word := l.input[start:l.pos]
		switch {
		case word == "_":
			return l.item(itemBlank, start)
		case unicode.IsUpper(r):
			return l.item(itemTypeName, start)
		default:
			return l.item(itemVariable, start)
		}
	}

	return l.errorf(start, "unexpected character %q", r)
}

func (l *lexer) lexString(start int) item {
	l.pos++
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case '\\':
			l.pos += 2
		case '"':
			l.pos++
			s, err := strconv.Unquote(l.input[start:l.pos])
			if err != nil {
				return l.errorf(start, "invalid string %s: %s", l.input[start:l.pos], err)
			}
			return item{typ: itemString, val: s, pos: l.f.Pos(start)}
		default:
			l.pos++
		}
	}
	l.pos = len(l.input)
	return l.errorf(start, "unterminated string")
}
