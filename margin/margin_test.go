// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package margin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/auspol/stv/ballot"
	"github.com/auspol/stv/count"
	"github.com/auspol/stv/retroscope"
	"github.com/auspol/stv/rules"
	"github.com/auspol/stv/tie"
	"github.com/auspol/stv/transcript"
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

func newOracle() tie.Oracle { return tie.DeterministicOracle{} }

// TestPairwiseSwapFormula checks the ceil((from-to)/2)+1 formula against
// spec.md's testable example: a 50-vote margin must be bridged by at
// most 26 votes.
func TestPairwiseSwapFormula(t *testing.T) {
	row := transcript.CountRow{
		Major: 5,
		Candidates: []transcript.CandidateCountEntry{
			{Candidate: 0, Tally: "150"},
			{Candidate: 1, Tally: "100"},
		},
	}
	changes, err := PairwiseSwap(row, 0, 1)
	require.NoError(t, err)
	require.Len(t, changes.Changes, 1)
	require.Equal(t, int64(26), changes.Changes[0].Amount)
	require.NotNil(t, changes.Changes[0].From)
	require.Equal(t, 0, *changes.Changes[0].From)
	require.Equal(t, 1, changes.Changes[0].To)
}

// TestAdditionOnlyFormula checks the difference+1 addition formula.
func TestAdditionOnlyFormula(t *testing.T) {
	row := transcript.CountRow{
		Candidates: []transcript.CandidateCountEntry{
			{Candidate: 0, Tally: "150"},
			{Candidate: 1, Tally: "100"},
		},
	}
	changes, err := AdditionOnly(row, 0, 1)
	require.NoError(t, err)
	require.Len(t, changes.Changes, 1)
	require.Nil(t, changes.Changes[0].From)
	require.Equal(t, int64(51), changes.Changes[0].Amount)
}

func TestTallyUnitsStripsDecimalPoint(t *testing.T) {
	v, err := tallyUnits("12.3400")
	require.NoError(t, err)
	require.Equal(t, int64(123400), v)
}

// TestNextLowestContinuingSkipsExcluded picks the lowest-tallying
// candidate still continuing, ignoring the one already excluded this
// count.
func TestNextLowestContinuingSkipsExcluded(t *testing.T) {
	row := transcript.CountRow{
		Candidates: []transcript.CandidateCountEntry{
			{Candidate: 0, Tally: "10", Action: transcript.ActionExcluded},
			{Candidate: 1, Tally: "20"},
			{Candidate: 2, Tally: "15"},
		},
	}
	c, ok := nextLowestContinuing(row, 0)
	require.True(t, ok)
	require.Equal(t, 2, c)
}

func TestHighestNonWinnerAndLowestWinner(t *testing.T) {
	row := transcript.CountRow{
		Candidates: []transcript.CandidateCountEntry{
			{Candidate: 0, Tally: "40", Action: transcript.ActionElected},
			{Candidate: 1, Tally: "30"},
			{Candidate: 2, Tally: "35"},
		},
	}
	highest, lowest, ok := highestNonWinnerAndLowestWinner(row, []int{0})
	require.True(t, ok)
	require.Equal(t, 2, highest)
	require.Equal(t, 0, lowest)
}

// TestChooseVotesTakesFromFirstPreferencePile builds a retroscope that
// has only replayed a candidate's first-preference count (before any
// surplus has moved) and checks ChooseVotes can select exactly the
// papers needed from that single pile.
func TestChooseVotesTakesFromFirstPreferencePile(t *testing.T) {
	data := &ballot.ElectionData{
		Candidates: candidates(3),
		Vacancies:  2,
		BTL: []ballot.BTLVote{
			btl([]int{0, 1}, 8),
			btl([]int{1}, 1),
			btl([]int{2}, 1),
		},
	}
	profile := rules.WA2008()
	tr, err := count.Run(data, profile, newOracle())
	require.NoError(t, err)
	require.Len(t, tr.Counts, 2)

	arena, err := ballot.ResolveATLVotes(data)
	require.NoError(t, err)

	retro, err := retroscope.Replay(data, arena, &transcript.Transcript{Counts: tr.Counts[:1]}, nil)
	require.NoError(t, err)

	cv := New(retro, 0, Options{AllowATL: true, AllowFirstPreference: true})
	require.Equal(t, int64(8), cv.VotesAvailable())

	taken, got := cv.Take(4)
	require.Equal(t, int64(4), got)
	require.Len(t, taken, 1)
	require.Equal(t, retroscope.VoteIndex(0), taken[0].Group)
	require.Equal(t, 4, taken[0].Papers)
	require.Equal(t, "1", taken[0].TV.String())
}

// TestApplyRedirectsBallotsToNewPreference checks that Apply builds a
// perturbed ElectionData moving a chosen parcel's papers to a new
// preference immediately after the candidate they currently sit with.
func TestApplyRedirectsBallotsToNewPreference(t *testing.T) {
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
	tr, err := count.Run(data, profile, newOracle())
	require.NoError(t, err)

	arena, err := ballot.ResolveATLVotes(data)
	require.NoError(t, err)

	retro, err := retroscope.Replay(data, arena, &transcript.Transcript{Counts: tr.Counts[:1]}, nil)
	require.NoError(t, err)

	from := 0
	changes := VoteChanges{Changes: []VoteChange{{From: &from, To: 1, Amount: 2}}}
	perturbed, err := Apply(data, retro, changes, Options{AllowATL: true, AllowFirstPreference: true})
	require.NoError(t, err)

	require.Equal(t, 2, perturbed.BTL[0].N)
	require.Len(t, perturbed.BTL, 4)
	last := perturbed.BTL[3]
	require.Equal(t, 2, last.N)
	require.Equal(t, []int{0, 1, 2}, last.Candidates)

	// The original data must be untouched.
	require.Equal(t, 4, data.BTL[0].N)
	require.Len(t, data.BTL, 3)
}

// TestFindOutcomeChangesOnCloseElection runs the full search on a small
// election with a narrow exclusion margin and checks it completes
// without error and, if it reports any change, that the change's
// magnitude is a small positive number of ballot papers.
func TestFindOutcomeChangesOnCloseElection(t *testing.T) {
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
	opts := SearchOptions{
		ChooseVotes: Options{AllowATL: true, AllowFirstPreference: true},
		Workers:     2,
		NewOracle:   newOracle,
	}
	changes, err := FindOutcomeChanges(data, profile, opts)
	require.NoError(t, err)
	require.NotNil(t, changes)
	for _, c := range changes.Found {
		require.Greater(t, c.Changes.TotalAmount(), int64(0))
	}
}
