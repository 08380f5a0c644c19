// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package tie

import (
	"fmt"
	"math/big"

	"github.com/auspol/stv/rules"
)

// HistoryTallies is a function supplying a candidate's rendered tally
// string at a historical count, used by countback methods to walk
// backwards through a transcript without depending on the transcript
// package's internal layout. count.State implements this directly over
// its in-progress transcript.
type HistoryTallies func(count int, candidate int) (string, bool)

// Countback resolves a tie by walking backwards through prior counts
// looking for a discriminating difference in tally among the tied
// candidates, per the method the rules profile selects for the given
// situation. It never falls back to randomness itself: if no
// discriminator is found back to count 1, it returns an error, and the
// caller (count.State) is responsible for consulting the configured
// fallback oracle instead.
func Countback(method rules.TieBreakMethod, history HistoryTallies, atCount int, candidates []int) (Decision, error) {
	if len(candidates) < 2 {
		return Decision{}, fmt.Errorf("tie: countback requires at least two candidates")
	}

	for count := atCount - 1; count >= 1; count-- {
		tallies := make(map[int]string, len(candidates))
		for _, c := range candidates {
			t, ok := history(count, c)
			if !ok {
				// candidate had no tally at this count (not yet
				// continuing); skip this count for discrimination
				// purposes.
				continue
			}
			tallies[c] = t
		}
		if len(tallies) < len(candidates) {
			continue
		}

		switch method {
		case rules.TieByCountbackAnyDifference:
			if winner, ok := lowestByDistinctTally(candidates, tallies); ok {
				return Decision{Winner: winner, Description: fmt.Sprintf("countback (any-difference) discriminated at count %d", count)}, nil
			}
		case rules.TieByCountbackAllDifferent:
			if allDistinct(candidates, tallies) {
				if winner, ok := lowestByDistinctTally(candidates, tallies); ok {
					return Decision{Winner: winner, Description: fmt.Sprintf("countback (all-different) discriminated at count %d", count)}, nil
				}
			}
		default:
			return Decision{}, fmt.Errorf("tie: countback does not support method %d", method)
		}
	}

	return Decision{}, fmt.Errorf("tie: countback exhausted history without a discriminator among %v", candidates)
}

// lowestByDistinctTally finds the candidate with the strictly lowest
// tally among those whose tally differs from at least one other
// candidate's, returning false if all tallies are equal.
func lowestByDistinctTally(candidates []int, tallies map[int]string) (int, bool) {
	allSame := true
	first := tallies[candidates[0]]
	for _, c := range candidates[1:] {
		if tallies[c] != first {
			allSame = false
			break
		}
	}
	if allSame {
		return 0, false
	}

	lowest := candidates[0]
	for _, c := range candidates[1:] {
		if tallyLess(tallies[c], tallies[lowest]) {
			lowest = c
		}
	}
	return lowest, true
}

func allDistinct(candidates []int, tallies map[int]string) bool {
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if seen[tallies[c]] {
			return false
		}
		seen[tallies[c]] = true
	}
	return true
}

// tallyLess compares two rendered tally strings (integer or fixed-point
// decimal, as produced by numeric.Tally.String) by numeric value, not
// lexicographically — "9" must compare less than "10".
func tallyLess(a, b string) bool {
	ra, aok := new(big.Rat).SetString(a)
	rb, bok := new(big.Rat).SetString(b)
	if !aok || !bok {
		return a < b
	}
	return ra.Cmp(rb) < 0
}
