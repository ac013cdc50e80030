package symbolic

import (
	"math/big"
	"strconv"
	"strings"
)

// String prints p in canonical form with the highest degree first, using
// ** for powers and rational coefficients: "2*x**3/3 - x + 1/(2*x)".
func (p Poly) String() string {
	if p.IsZero() {
		return "0"
	}
	parts := make([]string, 0, len(p.terms))
	for _, d := range p.Degrees() {
		parts = append(parts, formatTerm(p.terms[d], d))
	}
	return joinTerms(parts)
}

// String prints the polynomial part with log(x) placed between the
// non-negative and negative powers.
func (a Antiderivative) String() string {
	var parts []string
	logged := a.Log == nil || a.Log.Sign() == 0
	for _, d := range a.Poly.Degrees() {
		if d < 0 && !logged {
			parts = append(parts, formatFactor(a.Log, "log(x)"))
			logged = true
		}
		parts = append(parts, formatTerm(a.Poly.terms[d], d))
	}
	if !logged {
		parts = append(parts, formatFactor(a.Log, "log(x)"))
	}
	if len(parts) == 0 {
		return "0"
	}
	return joinTerms(parts)
}

func joinTerms(parts []string) string {
	var b strings.Builder
	for i, s := range parts {
		switch {
		case i == 0:
			b.WriteString(s)
		case strings.HasPrefix(s, "-"):
			b.WriteString(" - ")
			b.WriteString(s[1:])
		default:
			b.WriteString(" + ")
			b.WriteString(s)
		}
	}
	return b.String()
}

func formatTerm(c *big.Rat, deg int) string {
	switch {
	case deg == 0:
		return c.RatString()
	case deg > 0:
		return formatFactor(c, power(deg))
	}
	// c / x**k prints as num/(den*x**k).
	num := c.Num().String()
	den := power(-deg)
	if !c.IsInt() {
		den = "(" + c.Denom().String() + "*" + den + ")"
	}
	return num + "/" + den
}

// formatFactor prints c*f as f, -f, n*f, f/d or n*f/d.
func formatFactor(c *big.Rat, f string) string {
	num := c.Num()
	var s string
	switch {
	case num.IsInt64() && num.Int64() == 1:
		s = f
	case num.IsInt64() && num.Int64() == -1:
		s = "-" + f
	default:
		s = num.String() + "*" + f
	}
	if !c.IsInt() {
		s += "/" + c.Denom().String()
	}
	return s
}

func power(k int) string {
	if k == 1 {
		return "x"
	}
	return "x**" + strconv.Itoa(k)
}
