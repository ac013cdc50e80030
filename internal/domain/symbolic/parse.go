package symbolic

import (
	"fmt"
	"math/big"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokX
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPow
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) describe() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.text)
}

func tokenize(src string) ([]token, error) {
	var toks []token
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || c == '.':
			start := i
			dot := false
			for i < len(src) && (isDigit(src[i]) || (src[i] == '.' && !dot)) {
				if src[i] == '.' {
					dot = true
				}
				i++
			}
			text := src[start:i]
			if text == "." {
				return nil, &SyntaxError{Pos: start, Msg: `unexpected "."`}
			}
			toks = append(toks, token{kind: tokNum, text: text, pos: start})
		case c == 'x':
			toks = append(toks, token{kind: tokX, text: "x", pos: i})
			i++
		case c == '*':
			if i+1 < len(src) && src[i+1] == '*' {
				toks = append(toks, token{kind: tokPow, text: "**", pos: i})
				i += 2
				continue
			}
			toks = append(toks, token{kind: tokStar, text: "*", pos: i})
			i++
		case c == '^':
			toks = append(toks, token{kind: tokPow, text: "^", pos: i})
			i++
		case c == '+':
			toks = append(toks, token{kind: tokPlus, text: "+", pos: i})
			i++
		case c == '-':
			toks = append(toks, token{kind: tokMinus, text: "-", pos: i})
			i++
		case c == '/':
			toks = append(toks, token{kind: tokSlash, text: "/", pos: i})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected %q", rune(c))}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

type parser struct {
	toks        []token
	pos         int
	maxExponent int
	maxDegree   int
}

// Parse reads an expression in x using Python operator precedence:
// ** (or ^) binds tighter than unary minus and is right associative,
// then * and /, then + and -.
func Parse(src string, opts ...Option) (Poly, error) {
	p := &parser{maxExponent: DefaultMaxExponent, maxDegree: DefaultMaxDegree}
	for _, opt := range opts {
		opt(p)
	}
	if strings.TrimSpace(src) == "" {
		return Poly{}, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}
	toks, err := tokenize(src)
	if err != nil {
		return Poly{}, err
	}
	p.toks = toks
	out, err := p.expr()
	if err != nil {
		return Poly{}, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return Poly{}, &SyntaxError{Pos: t.pos, Msg: "unexpected " + t.describe()}
	}
	return out, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expr() (Poly, error) {
	left, err := p.term()
	if err != nil {
		return Poly{}, err
	}
	for {
		switch p.peek().kind {
		case tokPlus:
			p.next()
			right, err := p.term()
			if err != nil {
				return Poly{}, err
			}
			left = left.Add(right)
		case tokMinus:
			p.next()
			right, err := p.term()
			if err != nil {
				return Poly{}, err
			}
			left = left.Sub(right)
		default:
			return left, nil
		}
	}
}

func (p *parser) term() (Poly, error) {
	left, err := p.unary()
	if err != nil {
		return Poly{}, err
	}
	for {
		switch p.peek().kind {
		case tokStar:
			p.next()
			right, err := p.unary()
			if err != nil {
				return Poly{}, err
			}
			if err := p.checkDegree(degreeBound(left) + degreeBound(right)); err != nil {
				return Poly{}, err
			}
			left = left.Mul(right)
		case tokSlash:
			t := p.next()
			right, err := p.unary()
			if err != nil {
				return Poly{}, err
			}
			left, err = left.Div(right)
			if err != nil {
				return Poly{}, fmt.Errorf("%w at position %d", err, t.pos)
			}
			if err := p.checkDegree(degreeBound(left)); err != nil {
				return Poly{}, err
			}
		default:
			return left, nil
		}
	}
}

func (p *parser) unary() (Poly, error) {
	switch p.peek().kind {
	case tokMinus:
		p.next()
		v, err := p.unary()
		if err != nil {
			return Poly{}, err
		}
		return v.Neg(), nil
	case tokPlus:
		p.next()
		return p.unary()
	default:
		return p.power()
	}
}

func (p *parser) power() (Poly, error) {
	base, err := p.primary()
	if err != nil {
		return Poly{}, err
	}
	if p.peek().kind != tokPow {
		return base, nil
	}
	op := p.next()
	exp, err := p.unary()
	if err != nil {
		return Poly{}, err
	}
	n, err := p.exponent(exp, op.pos)
	if err != nil {
		return Poly{}, err
	}
	if err := p.checkDegree(degreeBound(base) * abs(n)); err != nil {
		return Poly{}, err
	}
	out, err := base.Pow(n)
	if err != nil {
		return Poly{}, fmt.Errorf("%w at position %d", err, op.pos)
	}
	return out, nil
}

func (p *parser) exponent(exp Poly, pos int) (int, error) {
	if !exp.IsConst() {
		return 0, fmt.Errorf("%w at position %d", ErrExponent, pos)
	}
	c := exp.Coeff(0)
	if !c.IsInt() {
		return 0, fmt.Errorf("%w at position %d", ErrExponent, pos)
	}
	n := c.Num()
	if !n.IsInt64() || n.Int64() > int64(p.maxExponent) || n.Int64() < -int64(p.maxExponent) {
		return 0, fmt.Errorf("%w: |%s| > %d at position %d", ErrExponentRange, n, p.maxExponent, pos)
	}
	return int(n.Int64()), nil
}

func (p *parser) primary() (Poly, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		r, ok := parseDecimal(t.text)
		if !ok {
			return Poly{}, &SyntaxError{Pos: t.pos, Msg: "invalid number " + t.describe()}
		}
		return Const(r), nil
	case tokX:
		return X(), nil
	case tokLParen:
		v, err := p.expr()
		if err != nil {
			return Poly{}, err
		}
		if c := p.next(); c.kind != tokRParen {
			return Poly{}, &SyntaxError{Pos: c.pos, Msg: "expected \")\" but found " + c.describe()}
		}
		return v, nil
	default:
		return Poly{}, &SyntaxError{Pos: t.pos, Msg: "unexpected " + t.describe()}
	}
}

func (p *parser) checkDegree(d int) error {
	if d > p.maxDegree {
		return fmt.Errorf("%w: %d > %d", ErrDegreeRange, d, p.maxDegree)
	}
	return nil
}

// degreeBound is the largest absolute degree in p.
func degreeBound(p Poly) int {
	return max(abs(p.Degree()), abs(p.MinDegree()))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// parseDecimal reads "12", "1.5", ".5" or "5." exactly.
func parseDecimal(s string) (*big.Rat, bool) {
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")
	return new(big.Rat).SetString(s)
}
