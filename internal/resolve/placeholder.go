package resolve

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/nordvik-automation/modbus-core/internal/condition"
	"github.com/nordvik-automation/modbus-core/internal/template"
)

// placeholderPattern matches one "{{ expr }}" occurrence.
var placeholderPattern = regexp.MustCompile(`\{\{([^}]*)\}\}`)

// substituteString replaces every {{expr}} in s with the evaluated
// arithmetic result, formatted without trailing zeros. Strings without
// placeholders pass through untouched.
func substituteString(s string, ctx condition.Context) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}
	var firstErr error
	out := placeholderPattern.ReplaceAllStringFunc(s, func(m string) string {
		inner := placeholderPattern.FindStringSubmatch(m)[1]
		v, err := evalArith(inner, ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return m
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// resolveFloat evaluates a FloatOrExpr field in place on a working copy.
// Literal fields are returned unchanged.
func resolveFloat(f template.FloatOrExpr, ctx condition.Context) (template.FloatOrExpr, error) {
	if !f.IsExpr() {
		return f, nil
	}
	inner := f.Expr
	if m := placeholderPattern.FindStringSubmatch(inner); m != nil {
		inner = m[1]
	}
	v, err := evalArith(inner, ctx)
	if err != nil {
		return f, err
	}
	return template.Lit(v), nil
}

// ─── Arithmetic evaluator ──────────────────────────────────────────
//
// Placeholder expressions are arithmetic over context keys: + - * /,
// numeric literals, and the two-argument functions min and max.
// Referencing an undefined key is fatal (ErrUnknownPlaceholder): the
// template author expected a key the context does not carry, and a
// silently wrong number is worse than a failed setup.

type arithParser struct {
	src string
	pos int
	ctx condition.Context
}

func evalArith(expr string, ctx condition.Context) (float64, error) {
	p := &arithParser{src: expr, ctx: ctx}
	v, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return 0, fmt.Errorf("%w: trailing %q in %q", ErrBadPlaceholder, p.src[p.pos:], expr)
	}
	return v, nil
}

func (p *arithParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *arithParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *arithParser) parseSum() (float64, error) {
	v, err := p.parseProduct()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			rhs, err := p.parseProduct()
			if err != nil {
				return 0, err
			}
			v += rhs
		case '-':
			p.pos++
			rhs, err := p.parseProduct()
			if err != nil {
				return 0, err
			}
			v -= rhs
		default:
			return v, nil
		}
	}
}

func (p *arithParser) parseProduct() (float64, error) {
	v, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			v *= rhs
		case '/':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, fmt.Errorf("%w: division by zero", ErrBadPlaceholder)
			}
			v /= rhs
		default:
			return v, nil
		}
	}
}

func (p *arithParser) parseFactor() (float64, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		v, err := p.parseSum()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("%w: missing closing parenthesis", ErrBadPlaceholder)
		}
		p.pos++
		return v, nil

	case c == '-':
		p.pos++
		v, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		return -v, nil

	case c >= '0' && c <= '9' || c == '.':
		start := p.pos
		for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9' || p.src[p.pos] == '.') {
			p.pos++
		}
		f, err := strconv.ParseFloat(p.src[start:p.pos], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad number %q", ErrBadPlaceholder, p.src[start:p.pos])
		}
		return f, nil

	case unicode.IsLetter(rune(c)) || c == '_':
		start := p.pos
		for p.pos < len(p.src) {
			r := rune(p.src[p.pos])
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				break
			}
			p.pos++
		}
		name := p.src[start:p.pos]
		if name == "min" || name == "max" {
			return p.parseMinMax(name)
		}
		v, ok := p.ctx[name]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownPlaceholder, name)
		}
		n, ok := v.AsNumber()
		if !ok {
			return 0, fmt.Errorf("%w: key %q is not numeric", ErrBadPlaceholder, name)
		}
		return n, nil

	default:
		return 0, fmt.Errorf("%w: unexpected character %q", ErrBadPlaceholder, c)
	}
}

func (p *arithParser) parseMinMax(fn string) (float64, error) {
	if p.peek() != '(' {
		return 0, fmt.Errorf("%w: %s needs arguments", ErrBadPlaceholder, fn)
	}
	p.pos++
	a, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	if p.peek() != ',' {
		return 0, fmt.Errorf("%w: %s needs two arguments", ErrBadPlaceholder, fn)
	}
	p.pos++
	b, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	if p.peek() != ')' {
		return 0, fmt.Errorf("%w: missing closing parenthesis after %s", ErrBadPlaceholder, fn)
	}
	p.pos++
	if fn == "min" {
		return min(a, b), nil
	}
	return max(a, b), nil
}
