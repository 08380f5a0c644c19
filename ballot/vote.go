// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package ballot

// Source records where a parcel of votes being distributed originated:
// a first-preference BTL vote, a first-preference ATL vote (resolved to a
// BTL-equivalent preference sequence via a ticket), or a transfer from a
// prior count.
type Source struct {
	// FromCount is the count index the parcel was received from, or 0 for
	// a first-preference parcel.
	FromCount int
	// FromCandidate is the candidate whose surplus or exclusion produced
	// this parcel, meaningful only when FromCount > 0.
	FromCandidate int
	// WasATL records whether the original ballot was cast above the line.
	WasATL bool
}

// PartiallyDistributedVote is one ballot paper's full preference list,
// together with a cursor (Upto) recording how far into that list the
// count has already progressed, and the group size N of identical ballots
// it represents.
type PartiallyDistributedVote struct {
	Upto   int
	N      int
	Prefs  []int
	Source Source
}

// Exhausted reports whether this vote has no further usable preference,
// i.e. every preference at or beyond Upto names a candidate who is not in
// continuing.
func (v PartiallyDistributedVote) Exhausted(continuing map[int]bool) bool {
	for i := v.Upto; i < len(v.Prefs); i++ {
		if continuing[v.Prefs[i]] {
			return false
		}
	}
	return true
}

// Candidate returns the continuing candidate this vote currently names,
// advancing past any preferences for candidates no longer in continuing.
// The second return value is false if the vote is exhausted.
func (v PartiallyDistributedVote) Candidate(continuing map[int]bool) (int, bool) {
	for i := v.Upto; i < len(v.Prefs); i++ {
		if continuing[v.Prefs[i]] {
			return v.Prefs[i], true
		}
	}
	return 0, false
}

// Next advances the vote past its current candidate, returning the
// updated vote with Upto moved just beyond that preference, and a second
// return value reporting whether a continuing candidate was found at all.
func (v PartiallyDistributedVote) Next(continuing map[int]bool) (PartiallyDistributedVote, bool) {
	for i := v.Upto; i < len(v.Prefs); i++ {
		if continuing[v.Prefs[i]] {
			return PartiallyDistributedVote{
				Upto:   i + 1,
				N:      v.N,
				Prefs:  v.Prefs,
				Source: v.Source,
			}, true
		}
	}
	return v, false
}

// IsATL reports whether the original ballot was cast above the line.
func (v PartiallyDistributedVote) IsATL() bool { return v.Source.WasATL }
