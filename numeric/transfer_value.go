// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package numeric provides the exact-rational and fixed-precision-decimal
// arithmetic that every tally in an STV count is built from. Nothing here
// knows about candidates, ballots or rules profiles; it is the numeric
// kernel the rest of the module is built on.
package numeric

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrNonPositiveDenominator is returned by NewTransferValue when the
// supplied denominator is zero or negative.
var ErrNonPositiveDenominator = errors.New("numeric: denominator must be positive")

// TransferValue is an exact rational number in the closed interval [0, 1],
// represented as a normalized numerator/denominator pair. It never loses
// precision on its own: only the methods that name their rounding
// (MulRounding*, MulScaledRoundingDown*, RoundToDecimalDigits and
// RoundDownToDecimalDigits) discard any.
type TransferValue struct {
	r *big.Rat
}

// One is the transfer value used for a first-preference parcel.
func One() TransferValue {
	return TransferValue{r: big.NewRat(1, 1)}
}

// Zero is the transfer value of an empty parcel.
func Zero() TransferValue {
	return TransferValue{r: big.NewRat(0, 1)}
}

// NewTransferValue builds a transfer value from an explicit numerator and
// denominator, normalizing the fraction. The denominator must be positive.
func NewTransferValue(num, den int64) (TransferValue, error) {
	if den <= 0 {
		return TransferValue{}, ErrNonPositiveDenominator
	}
	return TransferValue{r: big.NewRat(num, den)}, nil
}

// FromSurplus computes the transfer value of a surplus distribution:
// surplus / ballotsBeingDistributed. A zero or negative denominator is
// a programmer error (there can be no surplus distribution with no
// ballots), so it panics rather than returning an error.
func FromSurplus(surplus int64, ballotsBeingDistributed int64) TransferValue {
	if ballotsBeingDistributed <= 0 {
		panic(fmt.Sprintf("numeric: FromSurplus called with non-positive ballot count %d", ballotsBeingDistributed))
	}
	return TransferValue{r: big.NewRat(surplus, ballotsBeingDistributed)}
}

// MulTV returns the exact product of two transfer values — used when a
// parcel held at less than full value has its own further surplus ratio
// applied to it.
func (t TransferValue) MulTV(o TransferValue) TransferValue {
	return TransferValue{r: new(big.Rat).Mul(t.r, o.r)}
}

// IsOne reports whether this transfer value is exactly 1.
func (t TransferValue) IsOne() bool {
	return t.r.Cmp(big.NewRat(1, 1)) == 0
}

// IsZero reports whether this transfer value is exactly 0.
func (t TransferValue) IsZero() bool {
	return t.r.Sign() == 0
}

// Cmp compares two transfer values, returning -1, 0 or 1.
func (t TransferValue) Cmp(o TransferValue) int {
	return t.r.Cmp(o.r)
}

// Mul returns the exact product of this transfer value and a ballot-paper
// count, as an exact rational — no rounding is applied.
func (t TransferValue) Mul(papers int64) *big.Rat {
	return new(big.Rat).Mul(t.r, big.NewRat(papers, 1))
}

// MulRoundingDown returns floor(t * papers), the conventional rule for
// computing how many votes (as an integer tally) a parcel contributes.
func (t TransferValue) MulRoundingDown(papers int64) int64 {
	return ratFloor(t.Mul(papers))
}

// MulRoundingDownAndRemainder returns both floor(t*papers) and the
// fractional remainder that was discarded, expressed as a *big.Rat so
// callers needing exact residual bookkeeping (rounding-error tallies) can
// use it directly.
func (t TransferValue) MulRoundingDownAndRemainder(papers int64) (int64, *big.Rat) {
	product := t.Mul(papers)
	whole := ratFloor(product)
	remainder := new(big.Rat).Sub(product, big.NewRat(whole, 1))
	return whole, remainder
}

// MulRoundingNearest returns round(t * papers), rounding half away from
// zero. The count engine does not call it: profiles whose
// TransferValueRounding is TVRoundNearest round the transfer value itself
// with RoundToDecimalDigits.
func (t TransferValue) MulRoundingNearest(papers int64) int64 {
	product := t.Mul(papers)
	half := big.NewRat(1, 2)
	shifted := new(big.Rat).Add(product, half)
	return ratFloor(shifted)
}

// MulScaledRoundingDown returns floor(t * papers * 10^scaleDigits),
// i.e. the contribution of a parcel to a DecimalTally measured in units
// of 10^-scaleDigits votes.
func (t TransferValue) MulScaledRoundingDown(papers int64, scaleDigits int) int64 {
	scaled := new(big.Rat).Mul(t.Mul(papers), big.NewRat(pow10(scaleDigits), 1))
	return ratFloor(scaled)
}

// MulScaledRoundingDownAndRemainder is MulScaledRoundingDown's
// remainder-preserving counterpart: it returns floor(t*papers*10^scaleDigits)
// together with the fractional part (in units of one scaled tally unit)
// that was discarded, so a caller can bank the loss rather than drop it.
func (t TransferValue) MulScaledRoundingDownAndRemainder(papers int64, scaleDigits int) (int64, *big.Rat) {
	scaled := new(big.Rat).Mul(t.Mul(papers), big.NewRat(pow10(scaleDigits), 1))
	whole := ratFloor(scaled)
	remainder := new(big.Rat).Sub(scaled, big.NewRat(whole, 1))
	return whole, remainder
}

// NumBallotPapersToGetThisTV returns the smallest ballot-paper count n such
// that floor(t*n) >= target, or an error if the transfer value is zero and
// target is nonzero (no finite n would do). margin.ChooseVotes uses it to
// invert a transfer-value multiplication when taking votes from a parcel.
func (t TransferValue) NumBallotPapersToGetThisTV(target int64) (int64, error) {
	if t.IsZero() {
		if target == 0 {
			return 0, nil
		}
		return 0, errors.New("numeric: zero transfer value cannot produce a nonzero tally")
	}
	// n is the smallest integer with floor(t*n) >= target, i.e. n >= target/t.
	n := new(big.Rat).Quo(big.NewRat(target, 1), t.r)
	candidate := ratCeil(n)
	for t.MulRoundingDown(candidate) < target {
		candidate++
	}
	return candidate, nil
}

// RoundToDecimalDigits rounds the transfer value to the given number of
// decimal digits, rounding half away from zero, returning a new
// TransferValue over a power-of-ten denominator.
func (t TransferValue) RoundToDecimalDigits(digits int) TransferValue {
	scale := pow10(digits)
	scaled := new(big.Rat).Mul(t.r, big.NewRat(scale, 1))
	half := big.NewRat(1, 2)
	if scaled.Sign() < 0 {
		half = new(big.Rat).Neg(half)
	}
	rounded := ratFloor(new(big.Rat).Add(scaled, half))
	return TransferValue{r: big.NewRat(rounded, scale)}
}

// RoundDownToDecimalDigits truncates the transfer value to the given
// number of decimal digits without rounding up, as used for rules
// profiles whose TransferValueRounding is TVRoundDown.
func (t TransferValue) RoundDownToDecimalDigits(digits int) TransferValue {
	scale := pow10(digits)
	scaled := new(big.Rat).Mul(t.r, big.NewRat(scale, 1))
	truncated := ratFloor(scaled)
	return TransferValue{r: big.NewRat(truncated, scale)}
}

// String renders the transfer value as "num/den" for transcript
// serialization — see StringSerializedRational.
func (t TransferValue) String() string {
	return t.r.RatString()
}

// StringSerializedRational parses the "num/den" form produced by String
// back into a TransferValue, for transcript deserialization.
func StringSerializedRational(s string) (TransferValue, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return TransferValue{}, fmt.Errorf("numeric: invalid rational %q", s)
	}
	if r.Sign() < 0 {
		return TransferValue{}, fmt.Errorf("numeric: transfer value %q is negative", s)
	}
	return TransferValue{r: r}, nil
}

func ratFloor(r *big.Rat) int64 {
	q := new(big.Int).Quo(r.Num(), r.Denom())
	if r.Sign() < 0 {
		rem := new(big.Int).Mul(q, r.Denom())
		if rem.Cmp(r.Num()) != 0 {
			q.Sub(q, big.NewInt(1))
		}
	}
	return q.Int64()
}

func ratCeil(r *big.Rat) int64 {
	f := ratFloor(r)
	check := new(big.Rat).Sub(r, big.NewRat(f, 1))
	if check.Sign() > 0 {
		return f + 1
	}
	return f
}

func pow10(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
