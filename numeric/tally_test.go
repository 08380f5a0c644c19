// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package numeric

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntTallyArithmetic(t *testing.T) {
	a := NewIntTally(10)
	b := NewIntTally(3)

	sum, err := a.Add(b)
	require.NoError(t, err)
	require.Equal(t, IntTally(13), sum)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	require.Equal(t, IntTally(7), diff)

	_, err = b.Sub(a)
	require.Error(t, err)
}

func TestDecimalTallyArithmetic(t *testing.T) {
	a := NewDecimalTally(1_000_000, 6) // 1.000000
	b := NewDecimalTally(333_333, 6)   // 0.333333

	sum, err := a.Add(b)
	require.NoError(t, err)
	require.Equal(t, "1.333333", sum.String())

	_, err = a.Add(NewIntTally(1))
	require.Error(t, err)
}

func TestSignedTallyAdd(t *testing.T) {
	pos := NewSignedTally(false, NewIntTally(5))
	neg := NewSignedTally(true, NewIntTally(3))

	sum, err := pos.Add(neg)
	require.NoError(t, err)
	require.Equal(t, "2", sum.String())

	sum2, err := neg.Add(pos)
	require.NoError(t, err)
	require.Equal(t, "2", sum2.String())

	equalMag, err := pos.Add(NewSignedTally(true, NewIntTally(5)))
	require.NoError(t, err)
	require.Equal(t, "0", equalMag.String())
}
