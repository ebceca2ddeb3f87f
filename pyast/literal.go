package pyast

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var ErrMalformedLiteral = errors.New("malformed string literal")

// Quote returns a double-quoted Python string literal for s.
// Printable characters, including non-ASCII ones, are kept as they are.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			switch {
			case r < 0x80 && (r < 0x20 || r == 0x7f):
				fmt.Fprintf(&b, `\x%02x`, r)
			case unicode.IsPrint(r):
				b.WriteRune(r)
			case r <= 0xffff:
				fmt.Fprintf(&b, `\u%04x`, r)
			default:
				fmt.Fprintf(&b, `\U%08x`, r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Prefix returns the lower-cased prefix of the string literal raw,
// such as "r", "b" or "rb".
func Prefix(raw string) string {
	i := strings.IndexAny(raw, `'"`)
	if i < 0 {
		return ""
	}
	return strings.ToLower(raw[:i])
}

// Unquote decodes the Python string literal raw, which must be a text
// literal with an optional r or u prefix. Byte strings and f-strings
// are rejected.
//
// Named escapes (\N{...}) are kept verbatim.
func Unquote(raw string) (string, error) {
	prefix := Prefix(raw)
	for _, c := range prefix {
		if c != 'r' && c != 'u' {
			return "", fmt.Errorf("%w: unsupported prefix %q", ErrMalformedLiteral, raw[:len(prefix)])
		}
	}
	body := raw[len(prefix):]

	var quote string
	switch {
	case strings.HasPrefix(body, `"""`), strings.HasPrefix(body, `'''`):
		quote = body[:3]
	case strings.HasPrefix(body, `"`), strings.HasPrefix(body, `'`):
		quote = body[:1]
	default:
		return "", fmt.Errorf("%w: %q", ErrMalformedLiteral, raw)
	}
	if len(body) < 2*len(quote) || !strings.HasSuffix(body, quote) {
		return "", fmt.Errorf("%w: %q", ErrMalformedLiteral, raw)
	}
	body = body[len(quote) : len(body)-len(quote)]

	if strings.ContainsRune(prefix, 'r') || !strings.ContainsRune(body, '\\') {
		return body, nil
	}
	return unescape(body)
}

func unescape(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch c = s[i]; c {
		case '\n':
			// line continuation
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\\', '\'', '"':
			b.WriteByte(c)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, err := strconv.ParseUint(s[i:j], 8, 32)
			if err != nil {
				return "", fmt.Errorf("%w: %v", ErrMalformedLiteral, err)
			}
			b.WriteRune(rune(v))
			i = j - 1
		case 'x', 'u', 'U':
			n := map[byte]int{'x': 2, 'u': 4, 'U': 8}[c]
			if i+1+n > len(s) {
				return "", fmt.Errorf("%w: truncated \\%c escape", ErrMalformedLiteral, c)
			}
			v, err := strconv.ParseUint(s[i+1:i+1+n], 16, 32)
			if err != nil || v > unicode.MaxRune {
				return "", fmt.Errorf("%w: invalid \\%c escape", ErrMalformedLiteral, c)
			}
			b.WriteRune(rune(v))
			i += n
		default:
			b.WriteByte('\\')
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
