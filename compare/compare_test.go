// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package compare

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/auspol/stv/ballot"
	"github.com/auspol/stv/rules"
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

// TestRunSameProfileTwiceHasNoDivergence checks that comparing a profile
// against itself, with a deterministic oracle, never reports a
// divergence — a sanity floor for the diff logic itself.
func TestRunSameProfileTwiceHasNoDivergence(t *testing.T) {
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
	result, err := Run(data, []rules.Profile{profile, profile}, Options{})
	require.NoError(t, err)
	require.Len(t, result.Runs, 2)
	require.Empty(t, result.Divergences)
}

// TestRunDifferentProfilesOnSimpleElectionAgree checks two profiles that
// share the same core STV rules (WA2008 and FederalPre2021, both plain
// single exclusion, no bulk exclusion) produce the same outcome on a
// simple election with no ties.
func TestRunDifferentProfilesOnSimpleElectionAgree(t *testing.T) {
	data := &ballot.ElectionData{
		Candidates: candidates(3),
		Vacancies:  1,
		BTL: []ballot.BTLVote{
			btl([]int{0, 2}, 4),
			btl([]int{1, 2}, 4),
			btl([]int{2, 0}, 1),
		},
	}
	result, err := Run(data, []rules.Profile{rules.WA2008(), rules.FederalPre2021()}, Options{})
	require.NoError(t, err)
	require.Len(t, result.Runs, 2)
	require.NoError(t, result.Runs[0].Err)
	require.NoError(t, result.Runs[1].Err)
	require.Equal(t, result.Runs[0].Transcript.Elected, result.Runs[1].Transcript.Elected)
}

func TestActionsOfCollectsOnlyDecisiveCandidates(t *testing.T) {
	row := transcript.CountRow{
		Candidates: []transcript.CandidateCountEntry{
			{Candidate: 0, Action: transcript.ActionElected},
			{Candidate: 1, Action: transcript.ActionNone},
			{Candidate: 2, Action: transcript.ActionExcluded},
		},
	}
	actions := actionsOf(row)
	require.Len(t, actions, 2)
	require.Equal(t, transcript.ActionElected, actions[0])
	require.Equal(t, transcript.ActionExcluded, actions[2])
}

func TestRowsDifferDetectsActionMismatch(t *testing.T) {
	a := transcript.CountRow{Major: 2, Candidates: []transcript.CandidateCountEntry{{Candidate: 0, Action: transcript.ActionElected}}}
	b := transcript.CountRow{Major: 2, Candidates: []transcript.CandidateCountEntry{{Candidate: 0, Action: transcript.ActionExcluded}}}
	_, differ := rowsDiffer(a, b)
	require.True(t, differ)
}
