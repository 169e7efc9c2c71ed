// Package selector checks format filter expressions before they are handed
// to the extractor. It understands the expression grammar well enough to
// reject malformed input early; choosing among formats is left to the
// extractor itself.
package selector

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Selector is a parsed format filter. Each element of Downloads is one
// comma-separated download request.
type Selector struct {
	Downloads []Fallback
}

// Fallback lists merge groups separated by "/". The extractor tries them in
// order until one yields formats.
type Fallback []MergeGroup

// MergeGroup is a list of StreamSpecs to be merged.
// E.g. "bestvideo+bestaudio" -> [StreamSpec(bestvideo), StreamSpec(bestaudio)]
type MergeGroup []*StreamSpec

// StreamSpec defines criteria for one stream: either a named base token
// (best, bv*, 137, mp4, ...) or a parenthesized sub-expression, followed by
// any number of bracketed filters.
type StreamSpec struct {
	Base    string
	Index   int // n in "best.n"; zero when absent
	Group   *Selector
	Filters []FormatFilter
}

// FormatFilter represents a single bracketed criteria (e.g. [height<=720]).
type FormatFilter struct {
	Key      string
	Op       string // =, !=, <, <=, >, >=, ^=, $=, *=, ~=
	Value    string
	Negate   bool // string comparison prefixed with "!"
	Optional bool // "?" after the operator; formats lacking the field pass
}

// SyntaxError reports where an expression stopped making sense.
type SyntaxError struct {
	Expr string
	Pos  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid format filter %q at offset %d: %s", e.Expr, e.Pos, e.Msg)
}

// indexedBase matches the best/worst family followed by ".N". Any other
// dotted token is a plain format id such as "hls-1.0".
var indexedBase = regexp.MustCompile(`^((?:best|worst|b|w)(?:video|audio|v|a)?\*?)\.(.*)$`)

var (
	numericOps = []string{"<=", ">=", "!=", "<", ">", "="}
	stringOps  = []string{"^=", "$=", "*=", "~="}
)

// Parse parses a format filter.
// Syntax: a+b/c,d with "(...)" grouping and "[key op value]" modifiers.
func Parse(s string) (*Selector, error) {
	p := &parser{src: s}
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("empty expression")
	}
	sel, err := p.parseList()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q", p.peek())
	}
	return sel, nil
}

// Validate reports whether s is a well-formed format filter.
func Validate(s string) error {
	_, err := Parse(s)
	return err
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Expr: p.src, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseList() (*Selector, error) {
	sel := &Selector{}
	for {
		fb, err := p.parseFallback()
		if err != nil {
			return nil, err
		}
		sel.Downloads = append(sel.Downloads, fb)
		p.skipSpace()
		if p.peek() != ',' {
			return sel, nil
		}
		p.pos++
	}
}

func (p *parser) parseFallback() (Fallback, error) {
	var fb Fallback
	for {
		group, err := p.parseMerge()
		if err != nil {
			return nil, err
		}
		fb = append(fb, group)
		p.skipSpace()
		if p.peek() != '/' {
			return fb, nil
		}
		p.pos++
	}
}

func (p *parser) parseMerge() (MergeGroup, error) {
	var group MergeGroup
	for {
		spec, err := p.parseSpec()
		if err != nil {
			return nil, err
		}
		group = append(group, spec)
		p.skipSpace()
		if p.peek() != '+' {
			return group, nil
		}
		p.pos++
	}
}

func (p *parser) parseSpec() (*StreamSpec, error) {
	p.skipSpace()
	spec := &StreamSpec{}

	switch c := p.peek(); {
	case c == '(':
		p.pos++
		group, err := p.parseList()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return nil, p.errorf("missing closing parenthesis")
		}
		p.pos++
		spec.Group = group
	case isTokenChar(c):
		start := p.pos
		for !p.eof() && (isTokenChar(p.peek()) || p.peek() == '.') {
			p.pos++
		}
		tok := p.src[start:p.pos]
		m := indexedBase.FindStringSubmatchIndex(tok)
		if m == nil {
			spec.Base = tok
			break
		}
		spec.Base = tok[:m[3]]
		n, err := parseIndex(tok[m[4]:])
		if err != nil {
			return nil, &SyntaxError{Expr: p.src, Pos: start + m[4], Msg: err.Error()}
		}
		spec.Index = n
	case c == '[':
		// A bare filter list applies to all formats, e.g. "[height<=480]".
	case p.eof():
		return nil, p.errorf("expected format, got end of expression")
	default:
		return nil, p.errorf("unexpected %q", c)
	}

	for p.peek() == '[' {
		f, err := p.parseFilter()
		if err != nil {
			return nil, err
		}
		spec.Filters = append(spec.Filters, f)
	}
	return spec, nil
}

func parseIndex(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("expected number after '.'")
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid format index %q", s)
	}
	return n, nil
}

func (p *parser) parseFilter() (FormatFilter, error) {
	open := p.pos
	end := closingBracket(p.src, open)
	if end == -1 {
		return FormatFilter{}, p.errorf("missing closing bracket")
	}
	f, err := parseModifier(p.src[open+1 : end])
	if err != nil {
		return FormatFilter{}, &SyntaxError{Expr: p.src, Pos: open + 1, Msg: err.Error()}
	}
	p.pos = end + 1
	return f, nil
}

// closingBracket returns the index of the "]" matching the "[" at open,
// skipping quoted values, or -1.
func closingBracket(s string, open int) int {
	var quote byte
	for i := open + 1; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ']':
			return i
		}
	}
	return -1
}

// parseModifier parses the inside of "[...]", e.g. "ext=mp4" or "height<720".
func parseModifier(s string) (FormatFilter, error) {
	s = strings.TrimSpace(s)
	keyEnd := 0
	for keyEnd < len(s) && isKeyChar(s[keyEnd]) {
		keyEnd++
	}
	key := s[:keyEnd]
	if key == "" {
		return FormatFilter{}, fmt.Errorf("missing field name in [%s]", s)
	}
	rest := strings.TrimLeft(s[keyEnd:], " ")

	f := FormatFilter{Key: key}
	if strings.HasPrefix(rest, "!") && !strings.HasPrefix(rest, "!=") {
		f.Negate = true
		rest = rest[1:]
	}

	op := matchOp(rest, f.Negate)
	if op == "" {
		return FormatFilter{}, fmt.Errorf("unknown operator in [%s]", s)
	}
	f.Op = op
	rest = rest[len(op):]
	if strings.HasPrefix(rest, "?") {
		f.Optional = true
		rest = rest[1:]
	}

	f.Value = unquote(strings.TrimSpace(rest))
	if f.Value == "" {
		return FormatFilter{}, fmt.Errorf("missing value in [%s]", s)
	}
	return f, nil
}

func matchOp(s string, negated bool) string {
	for _, op := range stringOps {
		if strings.HasPrefix(s, op) {
			return op
		}
	}
	if negated {
		// "!" only combines with string comparisons and plain equality.
		if strings.HasPrefix(s, "=") {
			return "="
		}
		return ""
	}
	for _, op := range numericOps {
		if strings.HasPrefix(s, op) {
			return op
		}
	}
	return ""
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func isTokenChar(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '_' || c == '-' || c == '*'
}

func isKeyChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
