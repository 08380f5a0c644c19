// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package margin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/auspol/stv/transcript"
)

// tallyUnits parses a rendered numeric.Tally string into a plain integer
// count of its smallest unit, by stripping the decimal point. Every
// DecimalTally.String value under one profile zero-pads to the same
// fixed Scale, so this is safe for direct magnitude comparison within a
// single count row.
func tallyUnits(s string) (int64, error) {
	return strconv.ParseInt(strings.Replace(s, ".", "", 1), 10, 64)
}

func tallyAt(row transcript.CountRow, candidate int) (int64, error) {
	s, ok := row.CandidateTallyAt(candidate)
	if !ok {
		return 0, fmt.Errorf("margin: candidate %d has no tally in count %d", candidate, row.Major)
	}
	return tallyUnits(s)
}

// PairwiseSwap proposes moving enough ballots from the higher-tallying
// candidate to the lower-tallying one to flip their order at this count:
// ceil((tallyFrom-tallyTo)/2) + 1 votes.
func PairwiseSwap(row transcript.CountRow, from, to int) (VoteChanges, error) {
	tf, err := tallyAt(row, from)
	if err != nil {
		return VoteChanges{}, err
	}
	tt, err := tallyAt(row, to)
	if err != nil {
		return VoteChanges{}, err
	}
	diff := tf - tt
	if diff < 0 {
		diff = -diff
	}
	amount := (diff+1)/2 + 1
	f := from
	return VoteChanges{Changes: []VoteChange{{From: &f, To: to, Amount: amount}}}, nil
}

// AdditionOnly proposes adding enough brand-new first-preference ballots
// for to to raise it strictly above from, without taking any away.
func AdditionOnly(row transcript.CountRow, from, to int) (VoteChanges, error) {
	tf, err := tallyAt(row, from)
	if err != nil {
		return VoteChanges{}, err
	}
	tt, err := tallyAt(row, to)
	if err != nil {
		return VoteChanges{}, err
	}
	diff := tf - tt
	if diff < 0 {
		diff = 0
	}
	return VoteChanges{Changes: []VoteChange{{To: to, Amount: diff + 1}}}, nil
}
