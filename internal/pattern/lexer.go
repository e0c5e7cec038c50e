package pattern

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedPattern indicates a pattern that could not be tokenised.
var ErrMalformedPattern = errors.New("malformed pattern")

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
	tokComma
	tokPath
	tokOperator
	tokKeyword
	tokString
	tokNumber
	tokBool
	tokTyped // t'...', h'...', b'...'
)

type token struct {
	kind tokenKind
	text string
	// objectType and property are set for tokPath.
	objectType string
	property   string
	pos        int
}

// keywords are the pattern words that are never values or paths.
var keywords = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "FOLLOWEDBY": true,
	"LIKE": true, "MATCHES": true, "IN": true, "EXISTS": true,
	"ISSUBSET": true, "ISSUPERSET": true,
	"WITHIN": true, "SECONDS": true, "REPEATS": true, "TIMES": true,
	"START": true, "STOP": true,
}

type lexer struct {
	src string
	pos int
}

func tokenize(src string) ([]token, error) {
	lx := &lexer{src: src}
	var tokens []token
	depth := 0
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokLBracket, tokLParen:
			depth++
		case tokRBracket, tokRParen:
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced %q at %d", ErrMalformedPattern, tok.text, tok.pos)
			}
		}
		tokens = append(tokens, tok)
		if tok.kind == tokEOF {
			break
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced brackets", ErrMalformedPattern)
	}
	return tokens, nil
}

func (lx *lexer) next() (token, error) {
	lx.skipSpace()
	start := lx.pos
	if lx.pos >= len(lx.src) {
		return token{kind: tokEOF, pos: start}, nil
	}

	c := lx.src[lx.pos]
	switch {
	case c == '[':
		lx.pos++
		return token{kind: tokLBracket, text: "[", pos: start}, nil
	case c == ']':
		lx.pos++
		return token{kind: tokRBracket, text: "]", pos: start}, nil
	case c == '(':
		lx.pos++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case c == ')':
		lx.pos++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case c == ',':
		lx.pos++
		return token{kind: tokComma, text: ",", pos: start}, nil
	case c == '\'':
		s, err := lx.quoted()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: s, pos: start}, nil
	case strings.IndexByte("=!<>", c) >= 0:
		return lx.operator()
	case c == '-' || c == '+' || isDigit(c):
		return lx.number(), nil
	case isIdentStart(c):
		return lx.word()
	}
	return token{}, fmt.Errorf("%w: unexpected %q at %d", ErrMalformedPattern, c, start)
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.src) && strings.IndexByte(" \t\r\n", lx.src[lx.pos]) >= 0 {
		lx.pos++
	}
}

// quoted reads a single-quoted literal starting at the opening quote,
// resolving \' and \\ escapes.
func (lx *lexer) quoted() (string, error) {
	start := lx.pos
	lx.pos++ // opening quote
	var b strings.Builder
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch c {
		case '\\':
			if lx.pos+1 >= len(lx.src) {
				return "", fmt.Errorf("%w: dangling escape at %d", ErrMalformedPattern, lx.pos)
			}
			b.WriteByte(lx.src[lx.pos+1])
			lx.pos += 2
		case '\'':
			lx.pos++
			return b.String(), nil
		default:
			b.WriteByte(c)
			lx.pos++
		}
	}
	return "", fmt.Errorf("%w: unterminated string at %d", ErrMalformedPattern, start)
}

func (lx *lexer) operator() (token, error) {
	start := lx.pos
	two := ""
	if lx.pos+1 < len(lx.src) {
		two = lx.src[lx.pos : lx.pos+2]
	}
	switch two {
	case "!=", "<=", ">=":
		lx.pos += 2
		return token{kind: tokOperator, text: two, pos: start}, nil
	}
	c := lx.src[lx.pos]
	if c == '!' {
		return token{}, fmt.Errorf("%w: unexpected '!' at %d", ErrMalformedPattern, start)
	}
	lx.pos++
	return token{kind: tokOperator, text: string(c), pos: start}, nil
}

func (lx *lexer) number() token {
	start := lx.pos
	lx.pos++
	for lx.pos < len(lx.src) && (isDigit(lx.src[lx.pos]) || lx.src[lx.pos] == '.') {
		lx.pos++
	}
	return token{kind: tokNumber, text: lx.src[start:lx.pos], pos: start}
}

// word reads a keyword, boolean, typed literal or object path.
func (lx *lexer) word() (token, error) {
	start := lx.pos
	for lx.pos < len(lx.src) && isIdentChar(lx.src[lx.pos]) {
		lx.pos++
	}
	ident := lx.src[start:lx.pos]

	// Typed literals: t'2020-01-01T00:00:00Z', h'ff', b'AQID'.
	if len(ident) == 1 && strings.Contains("thb", ident) && lx.pos < len(lx.src) && lx.src[lx.pos] == '\'' {
		s, err := lx.quoted()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokTyped, text: s, pos: start}, nil
	}

	if lx.pos < len(lx.src) && lx.src[lx.pos] == ':' {
		lx.pos++
		prop, err := lx.propertyPath()
		if err != nil {
			return token{}, err
		}
		return token{
			kind:       tokPath,
			text:       lx.src[start:lx.pos],
			objectType: ident,
			property:   prop,
			pos:        start,
		}, nil
	}

	upper := strings.ToUpper(ident)
	switch {
	case upper == "TRUE" || upper == "FALSE":
		return token{kind: tokBool, text: strings.ToLower(ident), pos: start}, nil
	case keywords[upper]:
		return token{kind: tokKeyword, text: upper, pos: start}, nil
	}
	return token{}, fmt.Errorf("%w: unexpected word %q at %d", ErrMalformedPattern, ident, start)
}

// propertyPath reads the part of an object path after the colon:
// identifiers joined by dots, quoted keys, and list indexes.
func (lx *lexer) propertyPath() (string, error) {
	start := lx.pos
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case isIdentChar(c) || c == '.':
			lx.pos++
		case c == '\'':
			if _, err := lx.quoted(); err != nil {
				return "", err
			}
		case c == '[':
			end := strings.IndexByte(lx.src[lx.pos:], ']')
			if end < 0 {
				return "", fmt.Errorf("%w: unterminated index at %d", ErrMalformedPattern, lx.pos)
			}
			index := lx.src[lx.pos+1 : lx.pos+end]
			if index != "*" && !allDigits(index) {
				return "", fmt.Errorf("%w: bad index %q at %d", ErrMalformedPattern, index, lx.pos)
			}
			lx.pos += end + 1
		default:
			if lx.pos == start {
				return "", fmt.Errorf("%w: empty property at %d", ErrMalformedPattern, start)
			}
			return lx.src[start:lx.pos], nil
		}
	}
	if lx.pos == start {
		return "", fmt.Errorf("%w: empty property at %d", ErrMalformedPattern, start)
	}
	return lx.src[start:lx.pos], nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '-'
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
