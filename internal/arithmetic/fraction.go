// Package arithmetic provides the exact rational and fixed-decimal tally and
// transfer-value primitives used by the counting engine. Floating point is
// never used: every quantity is either a big.Rat-backed Tally or a Fraction
// held unreduced so commission-style "n/d" display can be reproduced exactly.
package arithmetic

import (
	"fmt"
	"math/big"
	"strings"
)

// Fraction is a numerator/denominator pair that is NOT automatically reduced
// to lowest terms. Some rule-sets (federal pre-decimal) display transfer
// values exactly as the commission computed them, including an unreduced
// denominator; big.Rat would silently reduce that away, so transfer values
// are modelled with this type instead and only converted to big.Rat when a
// computation needs the underlying rational value.
type Fraction struct {
	Num *big.Int
	Den *big.Int
}

// NewFraction builds a Fraction from int64 numerator/denominator without
// reducing. A zero or negative denominator panics: fractions representing
// transfer values are always strictly positive in denominator.
func NewFraction(num, den int64) Fraction {
	if den <= 0 {
		panic("arithmetic: fraction denominator must be positive")
	}
	return Fraction{Num: big.NewInt(num), Den: big.NewInt(den)}
}

// One returns the unreduced fraction 1/1.
func One() Fraction {
	return Fraction{Num: big.NewInt(1), Den: big.NewInt(1)}
}

// FractionFromRat builds a Fraction from a big.Rat. Since big.Rat stores its
// terms already reduced, the result is reduced too; callers that need to
// preserve an unreduced numerator/denominator pair (e.g. a surplus
// computation before the final division) should use
// NewFractionFromBigInts instead.
func FractionFromRat(r *big.Rat) Fraction {
	return Fraction{Num: new(big.Int).Set(r.Num()), Den: new(big.Int).Set(r.Denom())}
}

// NewFractionFromBigInts builds a Fraction directly from the supplied
// numerator and denominator, copying them and leaving them unreduced.
func NewFractionFromBigInts(num, den *big.Int) Fraction {
	if den == nil || den.Sign() <= 0 {
		panic("arithmetic: fraction denominator must be positive")
	}
	return Fraction{Num: new(big.Int).Set(num), Den: new(big.Int).Set(den)}
}

// Rat returns the value of the fraction as a reduced big.Rat, suitable for
// arithmetic.
func (f Fraction) Rat() *big.Rat {
	return new(big.Rat).SetFrac(f.Num, f.Den)
}

// Reduced returns the fraction with its numerator and denominator divided by
// their greatest common divisor.
func (f Fraction) Reduced() Fraction {
	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(f.Num), new(big.Int).Abs(f.Den))
	if g.Sign() == 0 {
		return f
	}
	return Fraction{
		Num: new(big.Int).Quo(f.Num, g),
		Den: new(big.Int).Quo(f.Den, g),
	}
}

// Equal reports whether two fractions denote the same rational value,
// regardless of whether either is held in reduced form. It cross-multiplies
// rather than reducing both sides first.
func (f Fraction) Equal(o Fraction) bool {
	lhs := new(big.Int).Mul(f.Num, o.Den)
	rhs := new(big.Int).Mul(o.Num, f.Den)
	return lhs.Cmp(rhs) == 0
}

// IsOne reports whether the fraction denotes the value 1.
func (f Fraction) IsOne() bool {
	return f.Num.Cmp(f.Den) == 0
}

// Mul returns the unreduced product of two fractions.
func (f Fraction) Mul(o Fraction) Fraction {
	return Fraction{
		Num: new(big.Int).Mul(f.Num, o.Num),
		Den: new(big.Int).Mul(f.Den, o.Den),
	}
}

// Min returns the fraction with the smaller value.
func (f Fraction) Min(o Fraction) Fraction {
	if f.Rat().Cmp(o.Rat()) <= 0 {
		return f
	}
	return o
}

// ParseFraction is the inverse of String: it reads a bare integer or an
// "n/d" pair back into an unreduced Fraction, used when loading a transfer
// value out of a saved transcript.
func ParseFraction(s string) (Fraction, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) == 1 {
		n, ok := new(big.Int).SetString(parts[0], 10)
		if !ok {
			return Fraction{}, fmt.Errorf("arithmetic: cannot parse fraction literal %q", s)
		}
		return Fraction{Num: n, Den: big.NewInt(1)}, nil
	}
	num, ok1 := new(big.Int).SetString(parts[0], 10)
	den, ok2 := new(big.Int).SetString(parts[1], 10)
	if !ok1 || !ok2 || den.Sign() <= 0 {
		return Fraction{}, fmt.Errorf("arithmetic: cannot parse fraction literal %q", s)
	}
	return Fraction{Num: num, Den: den}, nil
}

// String renders the fraction the way a commission transcript does: a bare
// integer when the denominator is 1, otherwise "n/d" using the stored
// (possibly unreduced) numerator and denominator.
func (f Fraction) String() string {
	if f.Den.Cmp(big.NewInt(1)) == 0 {
		return f.Num.String()
	}
	return fmt.Sprintf("%s/%s", f.Num.String(), f.Den.String())
}
