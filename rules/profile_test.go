// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package rules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresetsVerify(t *testing.T) {
	presets := []Profile{
		ACT2021(), ACTPre2020(), ACT2020(), WA2008(),
		NSWrandomLC(), NSWECrandomLGE2012(),
		FederalPre2021(), FederalPost2021(),
	}
	for _, p := range presets {
		require.NoErrorf(t, p.Verify(), "preset %s should verify", p.Name)
	}
}

func TestVerifyRejectsBadDecimalDigits(t *testing.T) {
	p := NSWrandomLC()
	p.DecimalDigits = 0
	require.ErrorIs(t, p.Verify(), ErrProfileInvalid)
}

func TestByName(t *testing.T) {
	p, ok := ByName("WA2008")
	require.True(t, ok)
	require.Equal(t, "WA2008", p.Name)

	_, ok = ByName("Nonexistent")
	require.False(t, ok)
}

func TestCountNameDefault(t *testing.T) {
	p := WA2008()
	require.Equal(t, "Count 3", p.CountName(3, 0))
	require.Equal(t, "Count 3.1", p.CountName(3, 1))
}

func TestHasShortcut(t *testing.T) {
	p := ACT2021()
	require.True(t, p.HasShortcut(ShortcutRemainingEqualsVacancies))
	require.False(t, p.HasShortcut(ShortcutOneVacancyHighestTally))
}
