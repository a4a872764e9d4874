// Package scalar provides the fixed-point decimal type used for every
// externally-reported metric in the analytics engine.
package scalar

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultPrecision is the fractional precision used when a caller does not
// pin one explicitly.
const DefaultPrecision = 4

// D is a fixed-point decimal value. It wraps decimal.Decimal, which carries
// arbitrary-precision (well beyond 28 significant digits) integer coefficients
// internally, so the "at least 28 significant digits" requirement is met by
// construction.
type D struct {
	v decimal.Decimal
}

// Zero is the additive identity.
var Zero = D{v: decimal.Zero}

// NewFromInt builds a D from an integer.
func NewFromInt(i int64) D { return D{v: decimal.NewFromInt(i)} }

// NewFromFloat builds a D from a float64. Callers should only cross this
// boundary at the edge of a local floating-point computation (fourth root,
// exponential decay) that spec §3 permits, immediately rounding the result
// back with Round.
func NewFromFloat(f float64) D { return D{v: decimal.NewFromFloat(f)} }

// MustParse parses a decimal literal, panicking on malformed input. Intended
// for constants, not for external input.
func MustParse(s string) D {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("scalar: invalid literal %q: %v", s, err))
	}
	return D{v: d}
}

// Parse parses a decimal literal from external input.
func Parse(s string) (D, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return D{}, fmt.Errorf("scalar: parse %q: %w", s, err)
	}
	return D{v: d}, nil
}

func (d D) Add(o D) D { return D{v: d.v.Add(o.v)} }
func (d D) Sub(o D) D { return D{v: d.v.Sub(o.v)} }
func (d D) Mul(o D) D { return D{v: d.v.Mul(o.v)} }

// Div divides d by o, returning false if o is zero rather than panicking or
// silently producing infinity.
func (d D) Div(o D) (D, bool) {
	if o.v.IsZero() {
		return D{}, false
	}
	return D{v: d.v.DivRound(o.v, 34)}, true
}

func (d D) Neg() D { return D{v: d.v.Neg()} }

func (d D) Cmp(o D) int    { return d.v.Cmp(o.v) }
func (d D) Equal(o D) bool { return d.v.Equal(o.v) }
func (d D) IsZero() bool   { return d.v.IsZero() }
func (d D) IsNeg() bool    { return d.v.IsNegative() }
func (d D) IsPos() bool    { return d.v.IsPositive() }

func (d D) GreaterThan(o D) bool      { return d.v.GreaterThan(o.v) }
func (d D) GreaterOrEqual(o D) bool   { return d.v.GreaterThanOrEqual(o.v) }
func (d D) LessThan(o D) bool         { return d.v.LessThan(o.v) }
func (d D) LessThanOrEqual(o D) bool  { return d.v.LessThanOrEqual(o.v) }

// Round rounds to the given number of fractional digits using banker's
// rounding (round-half-to-even), per spec §3.
func (d D) Round(places int32) D { return D{v: d.v.RoundBank(places)} }

// RoundDefault rounds to DefaultPrecision fractional digits.
func (d D) RoundDefault() D { return d.Round(DefaultPrecision) }

// Float64 converts to float64. Only for boundary crossings (logging,
// plotting, feeding a floating-point-only numerical routine); never for
// building another D from the result without rounding back explicitly.
func (d D) Float64() float64 {
	f, _ := d.v.Float64()
	return f
}

// String renders the decimal in canonical form.
func (d D) String() string { return d.v.String() }

// Min returns the smaller of a and b.
func Min(a, b D) D {
	if a.LessThanOrEqual(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b D) D {
	if a.GreaterOrEqual(b) {
		return a
	}
	return b
}

// Sum adds a slice of D values, returning Zero for an empty slice.
func Sum(vs []D) D {
	total := Zero
	for _, v := range vs {
		total = total.Add(v)
	}
	return total
}

// Mean returns the arithmetic mean, or Zero for an empty slice.
func Mean(vs []D) D {
	if len(vs) == 0 {
		return Zero
	}
	return divOrZero(Sum(vs), NewFromInt(int64(len(vs))))
}

func divOrZero(a, b D) D {
	if r, ok := a.Div(b); ok {
		return r
	}
	return Zero
}

func (d D) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.v.String())
}

func (d *D) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// fall back to numeric literal for callers that emit bare numbers
		var f float64
		if err2 := json.Unmarshal(b, &f); err2 != nil {
			return err
		}
		d.v = decimal.NewFromFloat(f)
		return nil
	}
	parsed, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("scalar: unmarshal %q: %w", s, err)
	}
	d.v = parsed
	return nil
}
