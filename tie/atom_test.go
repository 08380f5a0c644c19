// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package tie

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTieAtom(t *testing.T) {
	a, err := ParseTieAtom("1,2/3:5:exclusion")
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, a.GroupA)
	require.Equal(t, []int{3}, a.GroupB)
	require.Equal(t, 5, a.AtCount)
	require.Equal(t, "exclusion", a.Usage)
	require.Equal(t, "1,2/3:5:exclusion", a.String())
}

func TestParseTieAtomMalformed(t *testing.T) {
	_, err := ParseTieAtom("1,2/3:5")
	require.Error(t, err)

	_, err = ParseTieAtom("1,2:5:exclusion")
	require.Error(t, err)

	_, err = ParseTieAtom("x,2/3:5:exclusion")
	require.Error(t, err)

	_, err = ParseTieAtom("1,2/3:notanumber:exclusion")
	require.Error(t, err)
}
