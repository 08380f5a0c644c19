// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package ballot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleElection() *ElectionData {
	return &ElectionData{
		Candidates: []Candidate{
			{Index: 0, Name: "Alice"},
			{Index: 1, Name: "Bob"},
			{Index: 2, Name: "Carol"},
		},
		Parties: []Party{
			{Index: 0, Column: "A", Candidates: []int{0, 1}, ATLAllowed: true, Tickets: [][]int{{0, 1, 2}}},
		},
		BTL: []BTLVote{
			{Candidates: []int{2, 0, 1}, N: 10},
		},
		ATL: []ATLVote{
			{Parties: []int{0}, N: 20, Ticket: intPtr(0)},
		},
		Vacancies: 1,
	}
}

func intPtr(i int) *int { return &i }

func TestValidate(t *testing.T) {
	data := sampleElection()
	require.NoError(t, data.Validate())
	require.Equal(t, 30, data.TotalFormalBallots())
}

func TestValidateRejectsBadVacancies(t *testing.T) {
	data := sampleElection()
	data.Vacancies = 0
	require.Error(t, data.Validate())
}

func TestResolveATLVotesWithTicket(t *testing.T) {
	data := sampleElection()
	arena, err := ResolveATLVotes(data)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, arena.Sequence(0))
}

func TestFirstPreferenceVotes(t *testing.T) {
	data := sampleElection()
	arena, err := ResolveATLVotes(data)
	require.NoError(t, err)

	votes := FirstPreferenceVotes(data, arena)
	require.Len(t, votes, 2)

	continuing := map[int]bool{0: true, 1: true, 2: true}
	cand, ok := votes[0].Candidate(continuing)
	require.True(t, ok)
	require.Equal(t, 2, cand)
}

func TestPartiallyDistributedVoteNext(t *testing.T) {
	v := PartiallyDistributedVote{Prefs: []int{2, 0, 1}, N: 5}
	continuing := map[int]bool{0: true, 1: true} // 2 excluded
	cand, ok := v.Candidate(continuing)
	require.True(t, ok)
	require.Equal(t, 0, cand)

	next, ok := v.Next(continuing)
	require.True(t, ok)
	require.Equal(t, 2, next.Upto)

	require.True(t, next.Exhausted(map[int]bool{1: false, 0: false}))
}
