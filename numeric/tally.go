// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package numeric

import (
	"fmt"

	safemath "github.com/auspol/stv/utils/math"
)

// Tally is the running vote count a candidate or the quota is measured in.
// A rules profile's TallyType decides which implementation is in play for
// a given count: IntTally for jurisdictions that use whole votes, or
// DecimalTally for jurisdictions whose transfer values carry fractional
// votes out to a fixed number of decimal digits.
type Tally interface {
	// Add returns the sum of this tally and another, erroring on overflow.
	Add(Tally) (Tally, error)
	// Sub returns this tally minus another, erroring if it would go
	// negative (negative results are represented via SignedTally).
	Sub(Tally) (Tally, error)
	// Cmp compares two tallies of the same concrete type, returning
	// -1, 0 or 1.
	Cmp(Tally) int
	// IsZero reports whether the tally is exactly zero.
	IsZero() bool
	// String renders the tally for transcript output.
	String() string
}

// IntTally is a whole-vote tally backed by an overflow-checked uint64.
type IntTally uint64

// NewIntTally constructs an IntTally from a non-negative count.
func NewIntTally(v uint64) IntTally { return IntTally(v) }

func (t IntTally) Add(o Tally) (Tally, error) {
	ot, ok := o.(IntTally)
	if !ok {
		return nil, fmt.Errorf("numeric: cannot add %T to IntTally", o)
	}
	sum, err := safemath.Add64(uint64(t), uint64(ot))
	if err != nil {
		return nil, fmt.Errorf("numeric: IntTally overflow: %w", err)
	}
	return IntTally(sum), nil
}

func (t IntTally) Sub(o Tally) (Tally, error) {
	ot, ok := o.(IntTally)
	if !ok {
		return nil, fmt.Errorf("numeric: cannot subtract %T from IntTally", o)
	}
	diff, err := safemath.Sub64(uint64(t), uint64(ot))
	if err != nil {
		return nil, fmt.Errorf("numeric: IntTally underflow: %w", err)
	}
	return IntTally(diff), nil
}

func (t IntTally) Cmp(o Tally) int {
	ot := o.(IntTally)
	switch {
	case t < ot:
		return -1
	case t > ot:
		return 1
	default:
		return 0
	}
}

func (t IntTally) IsZero() bool    { return t == 0 }
func (t IntTally) String() string  { return fmt.Sprintf("%d", uint64(t)) }
func (t IntTally) Uint64() uint64  { return uint64(t) }

// DecimalTally is a fixed-precision-decimal tally: an integer count of
// units of 10^-Scale votes. It is the Go stand-in for ConcreteSTV's
// FixedPrecisionDecimal<SCALE>, which Go cannot express as a const generic
// parameter (see DESIGN.md's Open Questions) — the scale is instead fixed
// once per rules profile and carried on every DecimalTally it produces.
type DecimalTally struct {
	Units uint64
	Scale int
}

// NewDecimalTally constructs a DecimalTally of units*10^-scale votes.
func NewDecimalTally(units uint64, scale int) DecimalTally {
	return DecimalTally{Units: units, Scale: scale}
}

func (t DecimalTally) sameScale(o DecimalTally) error {
	if t.Scale != o.Scale {
		return fmt.Errorf("numeric: mismatched DecimalTally scales %d and %d", t.Scale, o.Scale)
	}
	return nil
}

func (t DecimalTally) Add(o Tally) (Tally, error) {
	ot, ok := o.(DecimalTally)
	if !ok {
		return nil, fmt.Errorf("numeric: cannot add %T to DecimalTally", o)
	}
	if err := t.sameScale(ot); err != nil {
		return nil, err
	}
	sum, err := safemath.Add64(t.Units, ot.Units)
	if err != nil {
		return nil, fmt.Errorf("numeric: DecimalTally overflow: %w", err)
	}
	return DecimalTally{Units: sum, Scale: t.Scale}, nil
}

func (t DecimalTally) Sub(o Tally) (Tally, error) {
	ot, ok := o.(DecimalTally)
	if !ok {
		return nil, fmt.Errorf("numeric: cannot subtract %T from DecimalTally", o)
	}
	if err := t.sameScale(ot); err != nil {
		return nil, err
	}
	diff, err := safemath.Sub64(t.Units, ot.Units)
	if err != nil {
		return nil, fmt.Errorf("numeric: DecimalTally underflow: %w", err)
	}
	return DecimalTally{Units: diff, Scale: t.Scale}, nil
}

func (t DecimalTally) Cmp(o Tally) int {
	ot := o.(DecimalTally)
	switch {
	case t.Units < ot.Units:
		return -1
	case t.Units > ot.Units:
		return 1
	default:
		return 0
	}
}

func (t DecimalTally) IsZero() bool { return t.Units == 0 }

func (t DecimalTally) String() string {
	scale := pow10(t.Scale)
	whole := int64(t.Units) / scale
	frac := int64(t.Units) % scale
	if t.Scale == 0 {
		return fmt.Sprintf("%d", whole)
	}
	return fmt.Sprintf("%d.%0*d", whole, t.Scale, frac)
}

// SignedTally pairs a magnitude with a sign, used to represent rounding
// residuals and other quantities a count engine must track that can
// legitimately go negative even though the underlying Tally type cannot.
type SignedTally struct {
	Negative  bool
	Magnitude Tally
}

// NewSignedTally wraps a non-negative magnitude with an explicit sign.
func NewSignedTally(negative bool, magnitude Tally) SignedTally {
	return SignedTally{Negative: negative, Magnitude: magnitude}
}

// Add returns the signed sum of two signed tallies of the same underlying
// magnitude type.
func (s SignedTally) Add(o SignedTally) (SignedTally, error) {
	if s.Negative == o.Negative {
		sum, err := s.Magnitude.Add(o.Magnitude)
		if err != nil {
			return SignedTally{}, err
		}
		return SignedTally{Negative: s.Negative, Magnitude: sum}, nil
	}
	// Opposite signs: subtract the smaller magnitude from the larger and
	// take the sign of the larger.
	switch s.Magnitude.Cmp(o.Magnitude) {
	case 0:
		zero, err := s.Magnitude.Sub(s.Magnitude)
		if err != nil {
			return SignedTally{}, err
		}
		return SignedTally{Negative: false, Magnitude: zero}, nil
	case 1:
		diff, err := s.Magnitude.Sub(o.Magnitude)
		if err != nil {
			return SignedTally{}, err
		}
		return SignedTally{Negative: s.Negative, Magnitude: diff}, nil
	default:
		diff, err := o.Magnitude.Sub(s.Magnitude)
		if err != nil {
			return SignedTally{}, err
		}
		return SignedTally{Negative: o.Negative, Magnitude: diff}, nil
	}
}

func (s SignedTally) String() string {
	if s.Negative && !s.Magnitude.IsZero() {
		return "-" + s.Magnitude.String()
	}
	return s.Magnitude.String()
}
