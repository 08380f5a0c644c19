// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package retroscope

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/auspol/stv/ballot"
	"github.com/auspol/stv/count"
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

// TestReplayFirstPreferencesOnly replays a count that elects its one
// candidate on first preferences alone, with no surplus to distribute.
func TestReplayFirstPreferencesOnly(t *testing.T) {
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
	tr, err := count.Run(data, profile, tie.DeterministicOracle{})
	require.NoError(t, err)
	require.Len(t, tr.Counts, 1)

	arena, err := ballot.ResolveATLVotes(data)
	require.NoError(t, err)

	rs, err := Replay(data, arena, tr, nil)
	require.NoError(t, err)
	require.Equal(t, 1, rs.Count())
	require.Equal(t, []int{0}, rs.Elected())
	require.False(t, rs.Continuing(0))
	require.True(t, rs.Continuing(1))
	require.True(t, rs.Continuing(2))

	// Vote index 2 is the btl([2,0],2) group: its first preference,
	// candidate 2, is still continuing, so it should still be in that
	// candidate's pile.
	c, ok := rs.CandidateOf(VoteIndex(2))
	require.True(t, ok)
	require.Equal(t, 2, c)
}

// TestReplaySurplusDistribution replays a count where the elected
// candidate's surplus flows on to a second preference at a fractional
// transfer value.
func TestReplaySurplusDistribution(t *testing.T) {
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
	tr, err := count.Run(data, profile, tie.DeterministicOracle{})
	require.NoError(t, err)
	require.Len(t, tr.Counts, 2)

	arena, err := ballot.ResolveATLVotes(data)
	require.NoError(t, err)

	rs, err := Replay(data, arena, tr, nil)
	require.NoError(t, err)
	require.Equal(t, 2, rs.Count())
	require.ElementsMatch(t, []int{0, 1}, rs.Elected())

	// Vote index 0 is the btl([0,1],8) group: its 8 ballots move, as one
	// parcel, from candidate 0's pile to candidate 1's on the surplus
	// count.
	c, ok := rs.CandidateOf(VoteIndex(0))
	require.True(t, ok)
	require.Equal(t, 1, c)

	tv, err := rs.TransferValueAt(2)
	require.NoError(t, err)
	require.Equal(t, "1/2", tv.String())
}

// TestReplayExclusion replays a count where the lowest candidate is
// excluded and their single ballot flows to its second preference,
// electing the destination candidate.
func TestReplayExclusion(t *testing.T) {
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
	tr, err := count.Run(data, profile, tie.DeterministicOracle{})
	require.NoError(t, err)
	require.Len(t, tr.Counts, 2)

	arena, err := ballot.ResolveATLVotes(data)
	require.NoError(t, err)

	rs, err := Replay(data, arena, tr, nil)
	require.NoError(t, err)
	require.Equal(t, []int{0}, rs.Elected())
	require.False(t, rs.Continuing(2))

	// Vote index 2 is the btl([2,0],1) group: once candidate 2 is
	// excluded its ballot moves to its second preference, candidate 0.
	c, ok := rs.CandidateOf(VoteIndex(2))
	require.True(t, ok)
	require.Equal(t, 0, c)
}

// TestApplyRejectsOutOfOrderRows checks that applying a row for a major
// count that skips ahead returns ErrOutOfOrder.
func TestApplyRejectsOutOfOrderRows(t *testing.T) {
	data := &ballot.ElectionData{
		Candidates: candidates(2),
		Vacancies:  1,
		BTL:        []ballot.BTLVote{btl([]int{0}, 1)},
	}
	arena, err := ballot.ResolveATLVotes(data)
	require.NoError(t, err)

	rs := New(data, arena, nil)
	err = rs.Apply(transcript.CountRow{Major: 2, TransferValue: "1"})
	require.ErrorIs(t, err, ErrOutOfOrder)
}
