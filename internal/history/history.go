// Package history encodes review history sequences for tabular storage.
//
// The current encoding is versioned and length-prefixed:
//
//	v1[10:2026-10-14,5:hello]
//
// Each element is its byte length, a colon, and the raw bytes, so any text
// (commas, brackets, quotes, newlines) round-trips without escaping.
//
// Decode also accepts the list-literal form written by earlier tooling,
// e.g. ['2024-03-01', "it's"]. That form is read by a strict string-list
// parser; nothing is ever evaluated.
package history

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const v1Prefix = "v1["

// ErrMalformed is returned for values that are not a valid encoded list.
var ErrMalformed = errors.New("malformed history value")

// Encode returns the v1 encoding of items.
func Encode(items []string) string {
	var b strings.Builder
	b.WriteString(v1Prefix)
	for i, item := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(len(item)))
		b.WriteByte(':')
		b.WriteString(item)
	}
	b.WriteByte(']')
	return b.String()
}

// Decode parses a stored history value. An empty value decodes to an empty list.
func Decode(value string) ([]string, error) {
	switch {
	case strings.TrimSpace(value) == "":
		return []string{}, nil
	case strings.HasPrefix(value, v1Prefix):
		return decodeV1(value)
	case strings.HasPrefix(strings.TrimSpace(value), "["):
		return decodeLiteral(strings.TrimSpace(value))
	default:
		return nil, fmt.Errorf("%w: unknown encoding", ErrMalformed)
	}
}

func decodeV1(value string) ([]string, error) {
	body := value[len(v1Prefix):]
	items := []string{}
	if body == "]" {
		return items, nil
	}
	pos := 0
	for {
		colon := strings.IndexByte(body[pos:], ':')
		if colon <= 0 {
			return nil, fmt.Errorf("%w: missing length at offset %d", ErrMalformed, pos)
		}
		lenText := body[pos : pos+colon]
		for i := 0; i < len(lenText); i++ {
			if lenText[i] < '0' || lenText[i] > '9' {
				return nil, fmt.Errorf("%w: bad length %q", ErrMalformed, lenText)
			}
		}
		n, err := strconv.Atoi(lenText)
		if err != nil {
			return nil, fmt.Errorf("%w: bad length %q", ErrMalformed, lenText)
		}
		start := pos + colon + 1
		if n >= len(body)-start {
			return nil, fmt.Errorf("%w: truncated element", ErrMalformed)
		}
		end := start + n
		items = append(items, body[start:end])
		switch body[end] {
		case ',':
			pos = end + 1
		case ']':
			if end != len(body)-1 {
				return nil, fmt.Errorf("%w: trailing data", ErrMalformed)
			}
			return items, nil
		default:
			return nil, fmt.Errorf("%w: unexpected %q after element", ErrMalformed, body[end])
		}
	}
}

// decodeLiteral reads a bracketed list of quoted string literals.
func decodeLiteral(value string) ([]string, error) {
	p := literalParser{s: value}
	items, err := p.list()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformed)
	}
	return items, nil
}

type literalParser struct {
	s   string
	pos int
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

func (p *literalParser) list() ([]string, error) {
	items := []string{}
	if p.pos >= len(p.s) || p.s[p.pos] != '[' {
		return nil, fmt.Errorf("%w: expected '['", ErrMalformed)
	}
	p.pos++
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == ']' {
		p.pos++
		return items, nil
	}
	for {
		p.skipSpace()
		item, err := p.quoted()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		p.skipSpace()
		if p.pos >= len(p.s) {
			return nil, fmt.Errorf("%w: unterminated list", ErrMalformed)
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
			p.skipSpace()
			if p.pos < len(p.s) && p.s[p.pos] == ']' {
				p.pos++
				return items, nil
			}
		case ']':
			p.pos++
			return items, nil
		default:
			return nil, fmt.Errorf("%w: unexpected %q in list", ErrMalformed, p.s[p.pos])
		}
	}
}

func (p *literalParser) quoted() (string, error) {
	if p.pos >= len(p.s) {
		return "", fmt.Errorf("%w: expected string", ErrMalformed)
	}
	quote := p.s[p.pos]
	if quote != '\'' && quote != '"' {
		return "", fmt.Errorf("%w: expected quoted string", ErrMalformed)
	}
	p.pos++
	var b strings.Builder
	for p.pos < len(p.s) {
		ch := p.s[p.pos]
		switch {
		case ch == quote:
			p.pos++
			return b.String(), nil
		case ch == '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(ch)
			p.pos++
		}
	}
	return "", fmt.Errorf("%w: unterminated string", ErrMalformed)
}

func (p *literalParser) escape(b *strings.Builder) error {
	p.pos++
	if p.pos >= len(p.s) {
		return fmt.Errorf("%w: dangling escape", ErrMalformed)
	}
	ch := p.s[p.pos]
	p.pos++
	switch ch {
	case '\\', '\'', '"':
		b.WriteByte(ch)
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'x':
		return p.hexRune(b, 2)
	case 'u':
		return p.hexRune(b, 4)
	case 'U':
		return p.hexRune(b, 8)
	default:
		return fmt.Errorf("%w: unsupported escape \\%c", ErrMalformed, ch)
	}
	return nil
}

func (p *literalParser) hexRune(b *strings.Builder, digits int) error {
	if p.pos+digits > len(p.s) {
		return fmt.Errorf("%w: short hex escape", ErrMalformed)
	}
	v, err := strconv.ParseUint(p.s[p.pos:p.pos+digits], 16, 32)
	if err != nil {
		return fmt.Errorf("%w: bad hex escape", ErrMalformed)
	}
	r := rune(v)
	if !utf8.ValidRune(r) {
		return fmt.Errorf("%w: invalid code point", ErrMalformed)
	}
	p.pos += digits
	b.WriteRune(r)
	return nil
}
