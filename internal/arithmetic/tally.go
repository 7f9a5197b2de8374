package arithmetic

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind selects the precision family a rule profile counts in. The engine is
// parameterised by Kind so the same state-machine code produces integer,
// six-decimal fixed, or exact-rational transcripts depending on which rule
// profile is active.
type Kind int

const (
	// KindInteger is used by federal pre-decimal and ACT pre-2020 rules: all
	// counts are whole numbers, rounding down goes toward negative infinity.
	KindInteger Kind = iota
	// KindFixedSixDP scales counts by 10^6 (ACT 2020/2021/2024, NSW 2021).
	KindFixedSixDP
	// KindRational keeps every tally as an exact rational with no rounding
	// except at output boundaries the rule defines explicitly.
	KindRational
)

// String implements fmt.Stringer for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFixedSixDP:
		return "fixed-6dp"
	case KindRational:
		return "rational"
	default:
		return "unknown"
	}
}

// RoundingDirection selects which primitive ApplyRounding uses to collapse a
// rational computation down to the tally's Kind. Ordinarily rules round
// down; ACT2020's documented bug rounds to nearest instead.
type RoundingDirection int

const (
	// RoundDirectionDown floors toward negative infinity (the default for all rules).
	RoundDirectionDown RoundingDirection = iota
	// RoundDirectionNearest rounds half away from zero. Reproduces the
	// ACT2020 rounding bug.
	RoundDirectionNearest
)

var sixDPScale = big.NewInt(1_000_000)

// Tally is an exact rational quantity: a candidate's vote tally, paper
// count, or any other additive quantity tracked by the engine. The
// underlying big.Rat is always kept reduced; unlike TransferValue, tallies
// never need unreduced display.
type Tally struct {
	r *big.Rat
}

// Zero returns the additive identity.
func Zero() Tally { return Tally{r: new(big.Rat)} }

// FromInt64 builds an integral tally.
func FromInt64(n int64) Tally { return Tally{r: new(big.Rat).SetInt64(n)} }

// FromRat builds a tally directly from a rational value, typically the
// result of a KindRational computation that should not be rounded.
func FromRat(r *big.Rat) Tally { return Tally{r: new(big.Rat).Set(r)} }

// Rat exposes the underlying rational value for arithmetic that the
// arithmetic package does not otherwise provide.
func (t Tally) Rat() *big.Rat {
	if t.r == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(t.r)
}

func (t Tally) safe() *big.Rat {
	if t.r == nil {
		return new(big.Rat)
	}
	return t.r
}

// Add returns t + o.
func (t Tally) Add(o Tally) Tally {
	return Tally{r: new(big.Rat).Add(t.safe(), o.safe())}
}

// Sub returns t - o.
func (t Tally) Sub(o Tally) Tally {
	return Tally{r: new(big.Rat).Sub(t.safe(), o.safe())}
}

// Cmp compares t and o the way big.Rat.Cmp does.
func (t Tally) Cmp(o Tally) int {
	return t.safe().Cmp(o.safe())
}

// Sign returns -1, 0, or +1.
func (t Tally) Sign() int {
	return t.safe().Sign()
}

// IsZero reports whether the tally is exactly zero.
func (t Tally) IsZero() bool {
	return t.safe().Sign() == 0
}

// MulFraction multiplies the tally's value (treated as a paper count) by a
// transfer-value fraction and returns the exact rational product, before any
// rounding has been applied. This is the core of every surplus/exclusion
// sub-transfer: `papers * transfer_value`.
func (t Tally) MulFraction(f Fraction) *big.Rat {
	product := new(big.Rat).Mul(t.safe(), f.Rat())
	return product
}

// ApplyRounding collapses an exact rational computation down to the
// precision Kind selects, in the direction RoundingDirection selects.
// KindRational performs no rounding at all: rational rule-sets round only
// at output boundaries the rule defines explicitly.
func ApplyRounding(kind Kind, dir RoundingDirection, value *big.Rat) Tally {
	switch kind {
	case KindRational:
		return Tally{r: new(big.Rat).Set(value)}
	case KindFixedSixDP:
		return Tally{r: roundScaled(value, sixDPScale, dir)}
	default: // KindInteger
		return Tally{r: roundScaled(value, big.NewInt(1), dir)}
	}
}

func roundScaled(value *big.Rat, scale *big.Int, dir RoundingDirection) *big.Rat {
	scaledRat := new(big.Rat).Mul(value, new(big.Rat).SetInt(scale))
	var scaledInt *big.Int
	switch dir {
	case RoundDirectionNearest:
		scaledInt = roundHalfAwayFromZero(scaledRat)
	default:
		scaledInt = floor(scaledRat)
	}
	return new(big.Rat).SetFrac(scaledInt, scale)
}

// floor truncates toward negative infinity (big.Rat.Quo truncates toward
// zero, so negative non-integral values need an explicit adjustment — the
// rule-17/18 style "rounding loss may be negative" paths rely on true floor
// semantics).
func floor(r *big.Rat) *big.Int {
	q := new(big.Int).Quo(r.Num(), r.Denom())
	if r.Sign() < 0 {
		rem := new(big.Int).Rem(r.Num(), r.Denom())
		if rem.Sign() != 0 {
			q.Sub(q, big.NewInt(1))
		}
	}
	return q
}

func roundHalfAwayFromZero(r *big.Rat) *big.Int {
	abs := new(big.Rat).Abs(r)
	rounded := floor(new(big.Rat).Add(abs, big.NewRat(1, 2)))
	if r.Sign() < 0 {
		rounded.Neg(rounded)
	}
	return rounded
}

// QuotaFloor computes the Droop quota floor(total/(vacancies+1)) + 1.
func QuotaFloor(total Tally, vacancies int) Tally {
	denom := big.NewInt(int64(vacancies + 1))
	divided := new(big.Rat).Quo(total.safe(), new(big.Rat).SetInt(denom))
	floored := floor(divided)
	return Tally{r: new(big.Rat).SetInt(new(big.Int).Add(floored, big.NewInt(1)))}
}

// QuotaExact computes the Droop quota without flooring the division:
// total/(vacancies+1) + 1, kept as an exact rational.
func QuotaExact(total Tally, vacancies int) Tally {
	denom := big.NewInt(int64(vacancies + 1))
	divided := new(big.Rat).Quo(total.safe(), new(big.Rat).SetInt(denom))
	return Tally{r: new(big.Rat).Add(divided, big.NewRat(1, 1))}
}

// IntString renders an integral tally (Kind == KindInteger) as a base-10
// string. It panics if the tally is not integral, which would indicate an
// engine bug (a non-integer value escaped rounding).
func (t Tally) IntString() string {
	r := t.safe()
	if r.IsInt() {
		return r.Num().String()
	}
	panic("arithmetic: IntString called on non-integral tally")
}

// DecimalString renders a tally scaled by 10^6 (Kind == KindFixedSixDP) as a
// fixed-point decimal string such as "345.288272", using shopspring/decimal
// for the base-10 formatting. It panics if the tally is not a multiple of
// 10^-6, which would indicate a rounding bug upstream.
func (t Tally) DecimalString() string {
	r := t.safe()
	scaledNum := new(big.Int).Mul(r.Num(), sixDPScale)
	scaledRat := new(big.Rat).SetFrac(scaledNum, r.Denom())
	if !scaledRat.IsInt() {
		panic("arithmetic: DecimalString called on a value not a multiple of 1e-6")
	}
	d := decimal.NewFromBigInt(scaledRat.Num(), -6)
	return d.String()
}

// RationalString renders an exact rational tally (Kind == KindRational) the
// same way a TransferValue fraction would be rendered: "n/d" or "n".
func (t Tally) RationalString() string {
	r := t.safe()
	return Fraction{Num: new(big.Int).Set(r.Num()), Den: new(big.Int).Set(r.Denom())}.String()
}

// FormatByKind renders the tally using the file format's convention for
// each arithmetic Kind: a bare JSON number string for integers, a fixed
// decimal string for six-dp fixed tallies, and an "n/d" rational string
// otherwise. Negative values are always returned as strings, matching the
// ballot file contract regardless of Kind.
func (t Tally) FormatByKind(kind Kind) string {
	switch kind {
	case KindFixedSixDP:
		return t.DecimalString()
	case KindRational:
		return t.RationalString()
	default:
		return t.IntString()
	}
}

// ParseByKind is the inverse of FormatByKind, used when loading transcripts.
func ParseByKind(kind Kind, s string) (Tally, error) {
	s = strings.TrimSpace(s)
	switch kind {
	case KindRational:
		return parseFractionString(s)
	case KindFixedSixDP:
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Tally{}, err
		}
		coeff := d.Coefficient()
		exp := d.Exponent()
		// Normalise to a value scaled by 1e6: num/den = coeff * 10^exp.
		num := new(big.Int).Set(coeff)
		den := big.NewInt(1)
		if exp >= 0 {
			num.Mul(num, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
		} else {
			den.Exp(big.NewInt(10), big.NewInt(int64(-exp)), nil)
		}
		return Tally{r: new(big.Rat).SetFrac(num, den)}, nil
	default:
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return Tally{}, &ParseError{Kind: kind, Input: s}
		}
		return Tally{r: new(big.Rat).SetInt(n)}, nil
	}
}

func parseFractionString(s string) (Tally, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) == 1 {
		n, ok := new(big.Int).SetString(parts[0], 10)
		if !ok {
			return Tally{}, &ParseError{Kind: KindRational, Input: s}
		}
		return Tally{r: new(big.Rat).SetInt(n)}, nil
	}
	num, ok1 := new(big.Int).SetString(parts[0], 10)
	den, ok2 := new(big.Int).SetString(parts[1], 10)
	if !ok1 || !ok2 || den.Sign() == 0 {
		return Tally{}, &ParseError{Kind: KindRational, Input: s}
	}
	return Tally{r: new(big.Rat).SetFrac(num, den)}, nil
}

// ParseError reports a malformed numeric literal encountered while decoding
// a ballot or transcript file.
type ParseError struct {
	Kind  Kind
	Input string
}

func (e *ParseError) Error() string {
	return "arithmetic: cannot parse " + e.Kind.String() + " literal " + e.Input
}
