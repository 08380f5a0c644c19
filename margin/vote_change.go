// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package margin

import (
	"fmt"

	"github.com/auspol/stv/ballot"
	"github.com/auspol/stv/retroscope"
)

// VoteChange describes perturbing a baseline election by moving Amount
// tally units' worth of ballot papers from one candidate's pile to
// another's. From is nil for an addition: brand-new first-preference
// ballots for To, rather than ballots redirected from an existing pile.
type VoteChange struct {
	From   *int
	To     int
	Amount int64
}

// VoteChanges is a set of perturbations applied together as one trial.
type VoteChanges struct {
	Changes []VoteChange
}

// TotalAmount sums the Amount of every change, for ranking trials by
// overall magnitude.
func (vc VoteChanges) TotalAmount() int64 {
	var total int64
	for _, c := range vc.Changes {
		total += c.Amount
	}
	return total
}

func withAmount(c VoteChange, amount int64) VoteChange {
	c.Amount = amount
	return c
}

// Apply builds a perturbed copy of data by realizing every change in
// changes: for a redirect, it uses a ChooseVotes over retro to select
// specific ballots currently in From's pile and moves them to To's next
// preference; for an addition, it appends brand-new first-preference
// ballots for To. The original data is left untouched.
func Apply(data *ballot.ElectionData, retro *retroscope.Retroscope, changes VoteChanges, options Options) (*ballot.ElectionData, error) {
	perturbed := cloneElectionData(data)
	numBTL := retro.NumBTL()

	for _, change := range changes.Changes {
		if change.From == nil {
			perturbed.BTL = append(perturbed.BTL, ballot.BTLVote{
				Candidates: []int{change.To},
				N:          int(change.Amount),
			})
			continue
		}

		chooser := New(retro, *change.From, options)
		taken, _ := chooser.Take(change.Amount)
		for _, t := range taken {
			if err := redirect(perturbed, retro, numBTL, t, *change.From, change.To); err != nil {
				return nil, err
			}
		}
	}
	return perturbed, nil
}

func redirect(perturbed *ballot.ElectionData, retro *retroscope.Retroscope, numBTL int, t Taken, from, to int) error {
	prefs, _ := retro.Prefs(t.Group)
	newPrefs := redirectPrefs(prefs, from, to)

	if int(t.Group) < numBTL {
		i := int(t.Group)
		if t.Papers > perturbed.BTL[i].N {
			return fmt.Errorf("margin: taking %d papers from BTL group %d which only has %d", t.Papers, i, perturbed.BTL[i].N)
		}
		perturbed.BTL[i].N -= t.Papers
		perturbed.BTL = append(perturbed.BTL, ballot.BTLVote{Candidates: newPrefs, N: t.Papers})
		return nil
	}

	// An ATL group voting ticket cannot be partially redirected in place,
	// so the taken papers are unbundled into their resolved below-the-line
	// sequence instead, same as the rest of the ballot data they sit
	// alongside once chosen.
	i := int(t.Group) - numBTL
	if t.Papers > perturbed.ATL[i].N {
		return fmt.Errorf("margin: taking %d papers from ATL group %d which only has %d", t.Papers, i, perturbed.ATL[i].N)
	}
	perturbed.ATL[i].N -= t.Papers
	perturbed.BTL = append(perturbed.BTL, ballot.BTLVote{Candidates: newPrefs, N: t.Papers})
	return nil
}

// redirectPrefs returns prefs with to removed from wherever it already
// appears and reinserted immediately after from, so a ballot currently
// sitting with from as its current preference moves to to next.
func redirectPrefs(prefs []int, from, to int) []int {
	out := make([]int, 0, len(prefs)+1)
	inserted := false
	for _, p := range prefs {
		if p == to {
			continue
		}
		out = append(out, p)
		if p == from && !inserted {
			out = append(out, to)
			inserted = true
		}
	}
	if !inserted {
		out = append(out, to)
	}
	return out
}

func cloneElectionData(data *ballot.ElectionData) *ballot.ElectionData {
	out := &ballot.ElectionData{
		Candidates:  append([]ballot.Candidate{}, data.Candidates...),
		Parties:     append([]ballot.Party{}, data.Parties...),
		Informal:    data.Informal,
		Vacancies:   data.Vacancies,
		PreExcluded: append([]int{}, data.PreExcluded...),
	}
	out.BTL = make([]ballot.BTLVote, len(data.BTL))
	for i, v := range data.BTL {
		out.BTL[i] = ballot.BTLVote{Candidates: append([]int{}, v.Candidates...), N: v.N}
	}
	out.ATL = make([]ballot.ATLVote, len(data.ATL))
	copy(out.ATL, data.ATL)
	return out
}
