package symbolic

// Parser limits.
const (
	DefaultMaxExponent = 64
	DefaultMaxDegree   = 1024
)

// Option configures Parse.
type Option func(*parser)

// WithMaxExponent bounds the absolute value of literal exponents.
func WithMaxExponent(n int) Option {
	return func(p *parser) {
		if n > 0 {
			p.maxExponent = n
		}
	}
}

// WithMaxDegree bounds the absolute degree of any intermediate result.
func WithMaxDegree(n int) Option {
	return func(p *parser) {
		if n > 0 {
			p.maxDegree = n
		}
	}
}
