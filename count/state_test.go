// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package count

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/auspol/stv/ballot"
	"github.com/auspol/stv/rules"
	"github.com/auspol/stv/tie"
)

func candidates(n int) []ballot.Candidate {
	out := make([]ballot.Candidate, n)
	for i := range out {
		out[i] = ballot.Candidate{Index: i, Name: string(rune('A' + i))}
	}
	return out
}

func btl(prefs []int, n int) ballot.BTLVote {
	return ballot.BTLVote{Candidates: prefs, N: n}
}

// TestFirstPreferencesElectOverQuota runs a single-vacancy count where one
// candidate already holds a first-preference majority.
func TestFirstPreferencesElectOverQuota(t *testing.T) {
	data := &ballot.ElectionData{
		Candidates: candidates(3),
		Vacancies:  1,
		BTL: []ballot.BTLVote{
			btl([]int{0, 1}, 6),
			btl([]int{1, 0}, 2),
			btl([]int{2, 0}, 2),
		},
	}
	profile := rules.WA2008()
	tr, err := Run(data, profile, tie.DeterministicOracle{})
	require.NoError(t, err)
	require.Equal(t, []int{0}, tr.Elected)
	require.Equal(t, "6", tr.Metadata.Quota)
}

// TestSurplusDistributesToSecondPreference checks that an elected
// candidate's surplus flows to continuing candidates at the correct
// transfer value, with all-papers surplus distribution.
func TestSurplusDistributesToSecondPreference(t *testing.T) {
	data := &ballot.ElectionData{
		Candidates: candidates(3),
		Vacancies:  2,
		BTL: []ballot.BTLVote{
			btl([]int{0, 1}, 8),
			btl([]int{1}, 1),
			btl([]int{2}, 1),
		},
	}
	// total = 10, vacancies = 2, quota = 10/3 + 1 = 4
	profile := rules.WA2008()
	tr, err := Run(data, profile, tie.DeterministicOracle{})
	require.NoError(t, err)
	require.Contains(t, tr.Elected, 0)
	require.Len(t, tr.Counts, 2) // first count elects 0 with surplus; second count distributes it
	last := tr.Counts[len(tr.Counts)-1]
	tally1, ok := last.CandidateTallyAt(1)
	require.True(t, ok)
	require.NotEqual(t, "0", tally1)
}

// TestExclusionMovesLowestCandidatesVotes runs a three-candidate, one
// vacancy count where no candidate reaches quota on first preferences,
// forcing an exclusion.
func TestExclusionMovesLowestCandidatesVotes(t *testing.T) {
	data := &ballot.ElectionData{
		Candidates: candidates(3),
		Vacancies:  1,
		BTL: []ballot.BTLVote{
			btl([]int{0, 2}, 4),
			btl([]int{1, 2}, 4),
			btl([]int{2, 0}, 1),
		},
	}
	profile := rules.WA2008()
	tr, err := Run(data, profile, tie.DeterministicOracle{})
	require.NoError(t, err)
	require.Len(t, tr.Elected, 1)
	require.True(t, tr.Elected[0] == 0 || tr.Elected[0] == 1)
}

// TestShortcutRemainingEqualsVacancies checks that ACT2021's shortcut
// elects every remaining continuing candidate once their number equals
// the vacancies left, without requiring each to individually reach quota.
func TestShortcutRemainingEqualsVacancies(t *testing.T) {
	data := &ballot.ElectionData{
		Candidates: candidates(3),
		Vacancies:  2,
		BTL: []ballot.BTLVote{
			btl([]int{0, 1, 2}, 5),
			btl([]int{1, 0, 2}, 3),
			btl([]int{2, 0, 1}, 2),
		},
	}
	profile := rules.ACT2021()
	tr, err := Run(data, profile, tie.DeterministicOracle{})
	require.NoError(t, err)
	require.Len(t, tr.Elected, 2)
}

func TestDroopQuota(t *testing.T) {
	require.Equal(t, 4, DroopQuota(10, 2))
	require.Equal(t, 6, DroopQuota(10, 1))
}

func TestRunRequiresOracle(t *testing.T) {
	data := &ballot.ElectionData{Candidates: candidates(2), Vacancies: 1, BTL: []ballot.BTLVote{btl([]int{0}, 1)}}
	_, err := Run(data, rules.WA2008(), nil)
	require.ErrorIs(t, err, ErrNoOracle)
}
