package market

import (
	"errors"
	"fmt"
	"strings"
)

// Skill columns are serialized list/mapping literals, e.g.
//   ['Python', 'SQL']
//   {'Programming Languages': ['Python'], "Soft Skills": ['Communication']}
// Both single and double quoted strings are accepted.

type literalEntry struct {
	key   any
	value any
}

type literalDict []literalEntry

// literalScalar is any bare token (numbers, None, True); it never counts as a skill.
type literalScalar string

var errLiteral = errors.New("malformed literal")

// ParseSkillList parses a list literal of strings. Malformed input yields an empty list.
func ParseSkillList(raw string) []string {
	out := []string{}
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "[") {
		return out
	}

	v, err := parseLiteral(raw)
	if err != nil {
		return out
	}
	list, ok := v.([]any)
	if !ok {
		return out
	}
	return appendStrings(out, list)
}

// ParseSkillGraph parses a mapping literal of category -> list of strings.
// Malformed input yields an empty graph.
func ParseSkillGraph(raw string) SkillGraph {
	out := SkillGraph{}
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		return out
	}

	v, err := parseLiteral(raw)
	if err != nil {
		return out
	}
	dict, ok := v.(literalDict)
	if !ok {
		return out
	}

	for _, entry := range dict {
		name, ok := entry.key.(string)
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		skills := []string{}
		switch val := entry.value.(type) {
		case []any:
			skills = appendStrings(skills, val)
		case string:
			if s := strings.TrimSpace(val); s != "" {
				skills = append(skills, s)
			}
		}
		out = append(out, Category{Name: strings.TrimSpace(name), Skills: skills})
	}
	return out
}

func appendStrings(dst []string, values []any) []string {
	for _, v := range values {
		if s, ok := v.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				dst = append(dst, s)
			}
		}
	}
	return dst
}

func parseLiteral(raw string) (any, error) {
	p := &literalParser{src: raw}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("%w: trailing input at %d", errLiteral, p.pos)
	}
	return v, nil
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) peek() (byte, bool) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *literalParser) value() (any, error) {
	c, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("%w: unexpected end", errLiteral)
	}

	switch c {
	case '[', '(':
		return p.list()
	case '{':
		return p.dict()
	case '\'', '"':
		return p.str()
	default:
		return p.scalar()
	}
}

func (p *literalParser) list() (any, error) {
	closer := byte(']')
	if p.src[p.pos] == '(' {
		closer = ')'
	}
	p.pos++

	items := []any{}
	for {
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("%w: unterminated list", errLiteral)
		}
		if c == closer {
			p.pos++
			return items, nil
		}

		v, err := p.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)

		if err := p.separator(closer); err != nil {
			return nil, err
		}
	}
}

func (p *literalParser) dict() (any, error) {
	p.pos++

	dict := literalDict{}
	for {
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("%w: unterminated mapping", errLiteral)
		}
		if c == '}' {
			p.pos++
			return dict, nil
		}

		key, err := p.value()
		if err != nil {
			return nil, err
		}
		if c, ok := p.peek(); !ok || c != ':' {
			return nil, fmt.Errorf("%w: expected ':' at %d", errLiteral, p.pos)
		}
		p.pos++

		val, err := p.value()
		if err != nil {
			return nil, err
		}
		dict = append(dict, literalEntry{key: key, value: val})

		if err := p.separator('}'); err != nil {
			return nil, err
		}
	}
}

// separator consumes a ',' or leaves the closer in place for the caller.
func (p *literalParser) separator(closer byte) error {
	c, ok := p.peek()
	if !ok {
		return fmt.Errorf("%w: unexpected end", errLiteral)
	}
	switch c {
	case ',':
		p.pos++
		return nil
	case closer:
		return nil
	default:
		return fmt.Errorf("%w: unexpected %q at %d", errLiteral, c, p.pos)
	}
}

func (p *literalParser) str() (any, error) {
	quote := p.src[p.pos]
	p.pos++

	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.src):
			next := p.src[p.pos+1]
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(next)
			}
			p.pos += 2
		case c == quote:
			p.pos++
			return b.String(), nil
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return nil, fmt.Errorf("%w: unterminated string", errLiteral)
}

func (p *literalParser) scalar() (any, error) {
	start := p.pos
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ',', ']', '}', ')', ':', ' ', '\t', '\n', '\r':
			if p.pos == start {
				return nil, fmt.Errorf("%w: unexpected %q at %d", errLiteral, p.src[p.pos], p.pos)
			}
			return literalScalar(p.src[start:p.pos]), nil
		case '[', '{', '(', '\'', '"':
			return nil, fmt.Errorf("%w: unexpected %q at %d", errLiteral, p.src[p.pos], p.pos)
		}
		p.pos++
	}
	return literalScalar(p.src[start:]), nil
}
