// Package symbolic is a small exact computer-algebra engine for expressions
// in a single variable x.
//
// Values are Laurent polynomials (integer powers of x, possibly negative)
// with arbitrary-precision rational coefficients. That covers everything the
// math evaluator extracts from free text: sums, products, integer powers and
// division by monomials or exact polynomial factors.
package symbolic

import (
	"math/big"
	"sort"
)

// Poly is an immutable Laurent polynomial in x. The zero value is 0.
type Poly struct {
	// terms maps degree to a non-zero coefficient.
	terms map[int]*big.Rat
}

// Zero returns the zero polynomial.
func Zero() Poly { return Poly{} }

// Const returns the constant polynomial r.
func Const(r *big.Rat) Poly {
	p := Poly{terms: map[int]*big.Rat{}}
	p.add(0, r)
	return p
}

// Int returns the constant polynomial n.
func Int(n int64) Poly { return Const(new(big.Rat).SetInt64(n)) }

// X returns the polynomial x.
func X() Poly { return Monomial(big.NewRat(1, 1), 1) }

// Monomial returns c*x**deg.
func Monomial(c *big.Rat, deg int) Poly {
	p := Poly{terms: map[int]*big.Rat{}}
	p.add(deg, c)
	return p
}

func (p Poly) clone() Poly {
	out := Poly{terms: make(map[int]*big.Rat, len(p.terms))}
	for d, c := range p.terms {
		out.terms[d] = new(big.Rat).Set(c)
	}
	return out
}

// add accumulates c*x**deg in place. Only used on freshly built values.
func (p *Poly) add(deg int, c *big.Rat) {
	if c.Sign() == 0 {
		return
	}
	if p.terms == nil {
		p.terms = map[int]*big.Rat{}
	}
	if cur, ok := p.terms[deg]; ok {
		cur.Add(cur, c)
		if cur.Sign() == 0 {
			delete(p.terms, deg)
		}
		return
	}
	p.terms[deg] = new(big.Rat).Set(c)
}

// IsZero reports whether p is identically zero.
func (p Poly) IsZero() bool { return len(p.terms) == 0 }

// Len returns the number of non-zero terms.
func (p Poly) Len() int { return len(p.terms) }

// Coeff returns the coefficient of x**deg (a copy).
func (p Poly) Coeff(deg int) *big.Rat {
	if c, ok := p.terms[deg]; ok {
		return new(big.Rat).Set(c)
	}
	return new(big.Rat)
}

// Degrees returns the degrees present in p, highest first.
func (p Poly) Degrees() []int {
	ds := make([]int, 0, len(p.terms))
	for d := range p.terms {
		ds = append(ds, d)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ds)))
	return ds
}

// Degree returns the highest degree, or 0 for the zero polynomial.
func (p Poly) Degree() int {
	ds := p.Degrees()
	if len(ds) == 0 {
		return 0
	}
	return ds[0]
}

// MinDegree returns the lowest degree, or 0 for the zero polynomial.
func (p Poly) MinDegree() int {
	ds := p.Degrees()
	if len(ds) == 0 {
		return 0
	}
	return ds[len(ds)-1]
}

// IsConst reports whether p has no x-dependence.
func (p Poly) IsConst() bool {
	if p.IsZero() {
		return true
	}
	_, ok := p.terms[0]
	return ok && len(p.terms) == 1
}

// Equal reports whether p and q are the same polynomial.
func (p Poly) Equal(q Poly) bool { return p.Sub(q).IsZero() }

// Add returns p + q.
func (p Poly) Add(q Poly) Poly {
	out := p.clone()
	for d, c := range q.terms {
		out.add(d, c)
	}
	return out
}

// Neg returns -p.
func (p Poly) Neg() Poly {
	out := Poly{terms: make(map[int]*big.Rat, len(p.terms))}
	for d, c := range p.terms {
		out.terms[d] = new(big.Rat).Neg(c)
	}
	return out
}

// Sub returns p - q.
func (p Poly) Sub(q Poly) Poly { return p.Add(q.Neg()) }

// Mul returns p * q.
func (p Poly) Mul(q Poly) Poly {
	out := Poly{terms: map[int]*big.Rat{}}
	for dp, cp := range p.terms {
		for dq, cq := range q.terms {
			out.add(dp+dq, new(big.Rat).Mul(cp, cq))
		}
	}
	return out
}

// Scale returns r * p.
func (p Poly) Scale(r *big.Rat) Poly { return p.Mul(Const(r)) }

// shift returns p * x**k.
func (p Poly) shift(k int) Poly {
	out := Poly{terms: make(map[int]*big.Rat, len(p.terms))}
	for d, c := range p.terms {
		out.terms[d+k] = new(big.Rat).Set(c)
	}
	return out
}

// Pow returns p**n. Negative n is only defined for single-term p.
func (p Poly) Pow(n int) (Poly, error) {
	if n == 0 {
		return Int(1), nil
	}
	if n < 0 {
		if p.IsZero() {
			return Poly{}, ErrDivisionByZero
		}
		if p.Len() != 1 {
			return Poly{}, ErrNegativePower
		}
		d := p.Degree()
		inv := new(big.Rat).Inv(p.terms[d])
		return Monomial(ratPow(inv, -n), d*n), nil
	}
	if p.Len() == 1 {
		d := p.Degree()
		return Monomial(ratPow(p.terms[d], n), d*n), nil
	}
	result := Int(1)
	base := p
	for e := n; e > 0; e >>= 1 {
		if e&1 == 1 {
			result = result.Mul(base)
		}
		if e > 1 {
			base = base.Mul(base)
		}
	}
	return result, nil
}

func ratPow(r *big.Rat, n int) *big.Rat {
	num := new(big.Int).Exp(r.Num(), big.NewInt(int64(n)), nil)
	den := new(big.Int).Exp(r.Denom(), big.NewInt(int64(n)), nil)
	return new(big.Rat).SetFrac(num, den)
}

// Div returns p / q. q must be a monomial or divide p exactly.
func (p Poly) Div(q Poly) (Poly, error) {
	if q.IsZero() {
		return Poly{}, ErrDivisionByZero
	}
	if q.Len() == 1 {
		inv, err := q.Pow(-1)
		if err != nil {
			return Poly{}, err
		}
		return p.Mul(inv), nil
	}
	// Strip the powers of x from q so its constant term is non-zero, then
	// long-divide the shifted numerator.
	k := q.MinDegree()
	qs := q.shift(-k)
	ps := p.shift(-k)
	m := ps.MinDegree()
	ps = ps.shift(-m)
	quot, rem := longDivide(ps, qs)
	if !rem.IsZero() {
		return Poly{}, ErrInexactDivision
	}
	return quot.shift(m), nil
}

// longDivide divides polynomials with non-negative degrees.
func longDivide(num, den Poly) (quot, rem Poly) {
	quot = Poly{terms: map[int]*big.Rat{}}
	rem = num.clone()
	dd := den.Degree()
	lead := den.terms[dd]
	for !rem.IsZero() && rem.Degree() >= dd {
		rd := rem.Degree()
		c := new(big.Rat).Quo(rem.terms[rd], lead)
		quot.add(rd-dd, c)
		rem = rem.Sub(Monomial(c, rd-dd).Mul(den))
	}
	return quot, rem
}

// Diff returns dp/dx.
func (p Poly) Diff() Poly {
	out := Poly{terms: map[int]*big.Rat{}}
	for d, c := range p.terms {
		if d == 0 {
			continue
		}
		out.add(d-1, new(big.Rat).Mul(c, big.NewRat(int64(d), 1)))
	}
	return out
}

// Antiderivative is an indefinite integral: Poly + Log*log(x).
type Antiderivative struct {
	Poly Poly
	Log  *big.Rat
}

// Integrate returns the antiderivative of p with respect to x, without a
// constant of integration.
func (p Poly) Integrate() Antiderivative {
	out := Poly{terms: map[int]*big.Rat{}}
	logCoeff := new(big.Rat)
	for d, c := range p.terms {
		if d == -1 {
			logCoeff.Set(c)
			continue
		}
		out.add(d+1, new(big.Rat).Quo(c, big.NewRat(int64(d+1), 1)))
	}
	return Antiderivative{Poly: out, Log: logCoeff}
}

// Diff differentiates the antiderivative back to a Laurent polynomial.
func (a Antiderivative) Diff() Poly {
	out := a.Poly.Diff()
	if a.Log != nil && a.Log.Sign() != 0 {
		out = out.Add(Monomial(a.Log, -1))
	}
	return out
}
