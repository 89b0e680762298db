package condition

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Eval parses and evaluates a boolean expression against the context.
//
// Failures are soft by design: a parse error or a malformed comparison
// returns an error the resolver uses to exclude one descriptor, never to
// abort resolution. Absent identifiers do not error at all; they follow
// the Absent semantics documented on the package.
func Eval(expr string, ctx Context) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return false, ErrEmptyExpression
	}
	toks, err := lex(expr)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrParse, err)
	}
	p := &parser{toks: toks, ctx: ctx}
	result, err := p.parseOr()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if p.cur().kind != tokEOF {
		return false, fmt.Errorf("%w: unexpected %q after expression", ErrParse, p.cur().text)
	}
	return result, nil
}

// ─── Lexer ─────────────────────────────────────────────────────────

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokOp       // == != >= <= < >
	tokLBracket // [
	tokRBracket // ]
	tokLParen   // (
	tokRParen   // )
	tokComma    // ,
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '[':
			toks = append(toks, token{kind: tokLBracket, text: "["})
			i++
		case c == ']':
			toks = append(toks, token{kind: tokRBracket, text: "]"})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, text: ","})
			i++
		case c == '=' || c == '!' || c == '<' || c == '>':
			op := string(c)
			if i+1 < len(src) && src[i+1] == '=' {
				op += "="
				i++
			}
			i++
			if op == "=" || op == "!" {
				return nil, fmt.Errorf("invalid operator %q", op)
			}
			toks = append(toks, token{kind: tokOp, text: op})
		case c == '\'' || c == '"':
			end := strings.IndexByte(src[i+1:], c)
			if end < 0 {
				return nil, fmt.Errorf("unterminated string literal")
			}
			toks = append(toks, token{kind: tokString, text: src[i+1 : i+1+end]})
			i += end + 2
		case c >= '0' && c <= '9' || c == '-' || c == '.':
			j := i + 1
			for j < len(src) && (src[j] >= '0' && src[j] <= '9' || src[j] == '.' || src[j] == 'e' || src[j] == 'E') {
				j++
			}
			f, err := strconv.ParseFloat(src[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", src[i:j])
			}
			toks = append(toks, token{kind: tokNumber, text: src[i:j], num: f})
			i = j
		case unicode.IsLetter(rune(c)) || c == '_':
			j := i + 1
			for j < len(src) && (unicode.IsLetter(rune(src[j])) || unicode.IsDigit(rune(src[j])) || src[j] == '_') {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: src[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q", c)
		}
	}
	toks = append(toks, token{kind: tokEOF})
	return toks, nil
}

// ─── Parser / evaluator ────────────────────────────────────────────

type parser struct {
	toks []token
	pos  int
	ctx  Context
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	p.pos++
	return t
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.cur().kind == tokIdent && p.cur().text == kw {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr() (bool, error) {
	result, err := p.parseAnd()
	if err != nil {
		return false, err
	}
	for p.acceptKeyword("or") {
		rhs, err := p.parseAnd()
		if err != nil {
			return false, err
		}
		result = result || rhs
	}
	return result, nil
}

func (p *parser) parseAnd() (bool, error) {
	result, err := p.parsePrimary()
	if err != nil {
		return false, err
	}
	for p.acceptKeyword("and") {
		rhs, err := p.parsePrimary()
		if err != nil {
			return false, err
		}
		result = result && rhs
	}
	return result, nil
}

func (p *parser) parsePrimary() (bool, error) {
	if p.cur().kind == tokLParen {
		p.next()
		result, err := p.parseOr()
		if err != nil {
			return false, err
		}
		if p.cur().kind != tokRParen {
			return false, fmt.Errorf("missing closing parenthesis")
		}
		p.next()
		return result, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (bool, error) {
	lhs, err := p.parseOperand()
	if err != nil {
		return false, err
	}

	switch {
	case p.cur().kind == tokOp:
		op := p.next().text
		rhs, err := p.parseOperand()
		if err != nil {
			return false, err
		}
		return compare(lhs, rhs, op), nil

	case p.acceptKeyword("in"):
		list, err := p.parseList()
		if err != nil {
			return false, err
		}
		return member(lhs, list), nil

	case p.acceptKeyword("not"):
		if !p.acceptKeyword("in") {
			return false, fmt.Errorf("expected \"in\" after \"not\"")
		}
		list, err := p.parseList()
		if err != nil {
			return false, err
		}
		// Absent is a member of nothing, so "not in" holds for it.
		if lhs.Kind == KindAbsent {
			return true, nil
		}
		return !member(lhs, list), nil

	default:
		return false, fmt.Errorf("expected comparison operator, got %q", p.cur().text)
	}
}

func (p *parser) parseOperand() (Value, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return Number(t.num), nil
	case tokString:
		return String(t.text), nil
	case tokIdent:
		switch t.text {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		case "and", "or", "in", "not":
			return Absent, fmt.Errorf("unexpected keyword %q", t.text)
		}
		if v, ok := p.ctx[t.text]; ok {
			return v, nil
		}
		return Absent, nil
	default:
		return Absent, fmt.Errorf("expected operand, got %q", t.text)
	}
}

func (p *parser) parseList() ([]Value, error) {
	if p.cur().kind != tokLBracket {
		return nil, fmt.Errorf("expected list literal, got %q", p.cur().text)
	}
	p.next()
	var list []Value
	if p.cur().kind == tokRBracket {
		p.next()
		return list, nil
	}
	for {
		v, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		list = append(list, v)
		if p.cur().kind == tokComma {
			p.next()
			continue
		}
		if p.cur().kind == tokRBracket {
			p.next()
			return list, nil
		}
		return nil, fmt.Errorf("expected \",\" or \"]\" in list, got %q", p.cur().text)
	}
}

// ─── Comparison semantics ──────────────────────────────────────────

// compare applies a comparison operator. Absent is false under every
// operator, including "!=".
func compare(a, b Value, op string) bool {
	if a.Kind == KindAbsent || b.Kind == KindAbsent {
		return false
	}

	an, aok := a.AsNumber()
	bn, bok := b.AsNumber()
	numeric := aok && bok && (a.Kind == KindNumber || b.Kind == KindNumber || a.Kind == KindBool || b.Kind == KindBool)

	if numeric {
		switch op {
		case "==":
			return an == bn
		case "!=":
			return an != bn
		case ">":
			return an > bn
		case ">=":
			return an >= bn
		case "<":
			return an < bn
		case "<=":
			return an <= bn
		}
		return false
	}

	as, bs := a.AsString(), b.AsString()
	switch op {
	case "==":
		return as == bs
	case "!=":
		return as != bs
	case ">":
		return as > bs
	case ">=":
		return as >= bs
	case "<":
		return as < bs
	case "<=":
		return as <= bs
	}
	return false
}

func member(v Value, list []Value) bool {
	for _, item := range list {
		if compare(v, item, "==") {
			return true
		}
	}
	return false
}
