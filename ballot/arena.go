// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package ballot

import "fmt"

// Arena holds the fully-resolved below-the-line-equivalent preference
// sequence for every above-the-line vote in an election, computed once
// before the first count so the engine never has to re-resolve a ticket
// mid-count. "Resolution" means: given an ATL vote's party preference
// order and (if the jurisdiction uses group voting tickets) its selected
// ticket, expand it into a single ordered list of candidate indices.
type Arena struct {
	resolved [][]int // parallel to ElectionData.ATL
}

// ResolveATLVotes builds an Arena for every ATL vote in data. When a vote
// selects a registered ticket, that ticket's full candidate sequence is
// used verbatim. When it does not (optional preferential ATL voting,
// where the voter's own party-order numbering is followed group by
// group), the vote is expanded by walking the voter's party preference
// order and appending each party's candidates in registration order.
func ResolveATLVotes(data *ElectionData) (*Arena, error) {
	resolved := make([][]int, len(data.ATL))
	for i, v := range data.ATL {
		seq, err := resolveOne(data, v)
		if err != nil {
			return nil, fmt.Errorf("ballot: resolving ATL vote %d: %w", i, err)
		}
		resolved[i] = seq
	}
	return &Arena{resolved: resolved}, nil
}

func resolveOne(data *ElectionData, v ATLVote) ([]int, error) {
	if v.Ticket != nil {
		if len(v.Parties) == 0 {
			return nil, fmt.Errorf("ticketed ATL vote has no first party")
		}
		firstParty := v.Parties[0]
		if firstParty < 0 || firstParty >= len(data.Parties) {
			return nil, fmt.Errorf("party index %d out of range", firstParty)
		}
		tickets := data.Parties[firstParty].Tickets
		if *v.Ticket < 0 || *v.Ticket >= len(tickets) {
			return nil, fmt.Errorf("ticket index %d out of range for party %d", *v.Ticket, firstParty)
		}
		return tickets[*v.Ticket], nil
	}

	var seq []int
	for _, partyIdx := range v.Parties {
		if partyIdx < 0 || partyIdx >= len(data.Parties) {
			return nil, fmt.Errorf("party index %d out of range", partyIdx)
		}
		seq = append(seq, data.Parties[partyIdx].Candidates...)
	}
	return seq, nil
}

// Sequence returns the resolved below-the-line-equivalent preference list
// for the i'th ATL vote.
func (a *Arena) Sequence(i int) []int { return a.resolved[i] }

// FirstPreferenceVotes builds the set of PartiallyDistributedVote values
// representing the first count: every BTL vote at face value, and every
// ATL vote expanded via its resolved sequence.
func FirstPreferenceVotes(data *ElectionData, arena *Arena) []PartiallyDistributedVote {
	votes := make([]PartiallyDistributedVote, 0, len(data.BTL)+len(data.ATL))
	for _, v := range data.BTL {
		votes = append(votes, PartiallyDistributedVote{
			Upto:   0,
			N:      v.N,
			Prefs:  v.Candidates,
			Source: Source{WasATL: false},
		})
	}
	for i, v := range data.ATL {
		votes = append(votes, PartiallyDistributedVote{
			Upto:   0,
			N:      v.N,
			Prefs:  arena.Sequence(i),
			Source: Source{WasATL: true},
		})
	}
	return votes
}
