// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ballot holds the static election data an STV count runs over:
// candidates, parties, and the above-the-line/below-the-line votes cast
// for them. It has no notion of quota, rounds or transfer values — those
// live in numeric, pile and count.
package ballot

import "fmt"

// Candidate is one contestant for a vacancy.
type Candidate struct {
	Index           int
	Name            string
	Party           *int // index into ElectionData.Parties, nil if independent
	PositionInParty *int // ticket position, used for exclusion-order tie-breaks
}

// Party is a registered group fielding one or more candidates.
type Party struct {
	Index      int
	Column     string // the ballot-paper column letter/number
	Candidates []int  // candidate indices, in ticket order
	ATLAllowed bool
	// Tickets holds one or more above-the-line preference sequences the
	// party has registered (group voting ticket jurisdictions allow more
	// than one). Each entry is a full preference list over candidate
	// indices across all parties, not just this party's own candidates.
	Tickets [][]int
}

// ATLVote is a group of identical above-the-line ballots.
type ATLVote struct {
	Parties []int // preference order over party indices
	N       int
	// Ticket selects which of the chosen first party's registered tickets
	// this group follows, or nil if the jurisdiction has no group voting
	// tickets and ATL votes are resolved purely by party preference order.
	Ticket *int
}

// BTLVote is a group of identical below-the-line ballots.
type BTLVote struct {
	Candidates []int // preference order over candidate indices
	N          int
}

// ElectionData is everything a count engine needs to know about an
// election before it runs the first count.
type ElectionData struct {
	Candidates  []Candidate
	Parties     []Party
	ATL         []ATLVote
	BTL         []BTLVote
	Informal    int
	Vacancies   int
	PreExcluded []int // candidates excluded before counting begins (e.g. withdrawn)
}

// NumCandidates returns the number of candidates contesting the election.
func (e *ElectionData) NumCandidates() int { return len(e.Candidates) }

// TotalFormalBallots returns the number of formal ballot papers across
// both ATL and BTL votes, used to compute the Droop quota.
func (e *ElectionData) TotalFormalBallots() int {
	total := 0
	for _, v := range e.ATL {
		total += v.N
	}
	for _, v := range e.BTL {
		total += v.N
	}
	return total
}

// Validate checks the election data for internal consistency: candidate
// and party indices in range, vacancies positive and achievable, and no
// duplicate preferences within a single vote's list.
func (e *ElectionData) Validate() error {
	if e.Vacancies <= 0 {
		return fmt.Errorf("ballot: vacancies must be positive, got %d", e.Vacancies)
	}
	if e.Vacancies > len(e.Candidates) {
		return fmt.Errorf("ballot: %d vacancies but only %d candidates", e.Vacancies, len(e.Candidates))
	}
	for i, c := range e.Candidates {
		if c.Index != i {
			return fmt.Errorf("ballot: candidate at position %d has Index %d", i, c.Index)
		}
		if c.Party != nil && (*c.Party < 0 || *c.Party >= len(e.Parties)) {
			return fmt.Errorf("ballot: candidate %d references out-of-range party %d", i, *c.Party)
		}
	}
	for i, p := range e.Parties {
		if p.Index != i {
			return fmt.Errorf("ballot: party at position %d has Index %d", i, p.Index)
		}
	}
	for vi, v := range e.BTL {
		if err := validatePreferenceList(v.Candidates, len(e.Candidates)); err != nil {
			return fmt.Errorf("ballot: BTL vote %d: %w", vi, err)
		}
		if v.N < 0 {
			return fmt.Errorf("ballot: BTL vote %d has negative count %d", vi, v.N)
		}
	}
	for vi, v := range e.ATL {
		if err := validatePreferenceList(v.Parties, len(e.Parties)); err != nil {
			return fmt.Errorf("ballot: ATL vote %d: %w", vi, err)
		}
		if v.N < 0 {
			return fmt.Errorf("ballot: ATL vote %d has negative count %d", vi, v.N)
		}
	}
	return nil
}

func validatePreferenceList(prefs []int, bound int) error {
	seen := make(map[int]bool, len(prefs))
	for _, p := range prefs {
		if p < 0 || p >= bound {
			return fmt.Errorf("preference %d out of range [0,%d)", p, bound)
		}
		if seen[p] {
			return fmt.Errorf("duplicate preference %d", p)
		}
		seen[p] = true
	}
	return nil
}
