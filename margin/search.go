// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package margin

import (
	"runtime"
	"sync"

	"github.com/auspol/stv/ballot"
	"github.com/auspol/stv/count"
	"github.com/auspol/stv/metrics"
	"github.com/auspol/stv/retroscope"
	"github.com/auspol/stv/rules"
	"github.com/auspol/stv/tie"
	"github.com/auspol/stv/transcript"
)

// SearchOptions bundles the knobs FindOutcomeChanges needs beyond which
// ballots ChooseVotes may select.
type SearchOptions struct {
	ChooseVotes Options
	// Workers bounds how many perturbation trials run concurrently.
	// Zero uses runtime.GOMAXPROCS(0).
	Workers int
	// NewOracle builds a fresh tie.Oracle for one trial. Each trial owns
	// its own count.State and must not share mutable tie-break state
	// with any other trial running concurrently.
	NewOracle func() tie.Oracle
	// TrialsRun, if non-nil, is incremented once per perturbation trial
	// (every count.Run call Optimise's binary search performs), so a
	// host embedding this engine can scrape how much search work a
	// FindOutcomeChanges call actually did.
	TrialsRun metrics.Counter
}

// FindOutcomeChanges runs a baseline count, then at every count whose row
// marks any candidate elected or excluded proposes a pairwise-swap and
// an addition-only perturbation, optimises each by binary search, and
// keeps, per count, the smaller of those that actually flip the outcome.
// Row actions are cumulative (see transcript.CandidateAction), so every
// count from the first election or exclusion onward is examined, and the
// exclusion perturbation is tried only at counts where exactly one
// candidate has been excluded so far. Trials
// run across a bounded worker pool; each worker replays its own
// Retroscope truncated to its count, so no mutable state is shared
// between goroutines.
func FindOutcomeChanges(data *ballot.ElectionData, profile rules.Profile, opts SearchOptions) (*ElectionChanges, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	arena, err := ballot.ResolveATLVotes(data)
	if err != nil {
		return nil, err
	}
	tr, err := count.Run(data, profile, opts.NewOracle())
	if err != nil {
		return nil, err
	}
	baseline := outcomeOf(tr)

	var decisive []int
	for i, row := range tr.Counts {
		if hasDecision(row) {
			decisive = append(decisive, i)
		}
	}

	results := make([]*Change, len(decisive))
	errs := make([]error, len(decisive))
	sem := make(chan struct{}, opts.Workers)
	var wg sync.WaitGroup
	for idx, rowIdx := range decisive {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx, rowIdx int) {
			defer wg.Done()
			defer func() { <-sem }()

			truncated := &transcript.Transcript{Counts: tr.Counts[:rowIdx+1]}
			retro, err := retroscope.Replay(data, arena, truncated, data.PreExcluded)
			if err != nil {
				errs[idx] = err
				return
			}
			change, err := evaluateCount(data, retro, profile, opts, tr.Counts[rowIdx], baseline)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx] = change
		}(idx, rowIdx)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	out := &ElectionChanges{}
	for i, c := range results {
		if c != nil {
			out.Add(tr.Counts[decisive[i]].Major, c.Changes)
		}
	}
	out.Sort()
	return out, nil
}

func hasDecision(row transcript.CountRow) bool {
	for _, c := range row.Candidates {
		if c.Action != transcript.ActionNone {
			return true
		}
	}
	return false
}

func evaluateCount(data *ballot.ElectionData, retro *retroscope.Retroscope, profile rules.Profile, opts SearchOptions, row transcript.CountRow, baseline Outcome) (*Change, error) {
	var excluded, elected []int
	for _, c := range row.Candidates {
		switch c.Action {
		case transcript.ActionExcluded:
			excluded = append(excluded, c.Candidate)
		case transcript.ActionElected:
			elected = append(elected, c.Candidate)
		}
	}

	if len(excluded) == 1 {
		target := excluded[0]
		runnerUp, ok := nextLowestContinuing(row, target)
		if !ok {
			return nil, nil
		}
		return tryPerturbations(data, retro, profile, opts, row, runnerUp, target, baseline)
	}

	if len(elected) > 0 {
		highestNonWinner, lowestWinner, ok := highestNonWinnerAndLowestWinner(row, elected)
		if !ok {
			return nil, nil
		}
		return tryPerturbations(data, retro, profile, opts, row, lowestWinner, highestNonWinner, baseline)
	}

	return nil, nil
}

func tryPerturbations(data *ballot.ElectionData, retro *retroscope.Retroscope, profile rules.Profile, opts SearchOptions, row transcript.CountRow, from, to int, baseline Outcome) (*Change, error) {
	var best *VoteChanges

	if swap, err := PairwiseSwap(row, from, to); err == nil {
		optimised, err := Optimise(data, retro, profile, opts.NewOracle, swap, baseline, opts.TrialsRun)
		if err != nil {
			return nil, err
		}
		if optimised != nil {
			best = optimised
		}
	}

	if addition, err := AdditionOnly(row, from, to); err == nil {
		optimised, err := Optimise(data, retro, profile, opts.NewOracle, addition, baseline, opts.TrialsRun)
		if err != nil {
			return nil, err
		}
		if optimised != nil && (best == nil || optimised.TotalAmount() < best.TotalAmount()) {
			best = optimised
		}
	}

	if best == nil {
		return nil, nil
	}
	return &Change{Count: row.Major, Changes: *best}, nil
}

func nextLowestContinuing(row transcript.CountRow, exclude int) (int, bool) {
	best := -1
	var bestTally int64
	for _, c := range row.Candidates {
		if c.Action != transcript.ActionNone || c.Candidate == exclude {
			continue
		}
		v, err := tallyUnits(c.Tally)
		if err != nil {
			continue
		}
		if best == -1 || v < bestTally {
			best, bestTally = c.Candidate, v
		}
	}
	return best, best != -1
}

func highestNonWinnerAndLowestWinner(row transcript.CountRow, elected []int) (int, int, bool) {
	highestNonWinner, lowestWinner := -1, -1
	var highestTally, lowestTally int64
	electedSet := make(map[int]bool, len(elected))
	for _, c := range elected {
		electedSet[c] = true
	}
	for _, c := range row.Candidates {
		v, err := tallyUnits(c.Tally)
		if err != nil {
			continue
		}
		if c.Action == transcript.ActionNone && (highestNonWinner == -1 || v > highestTally) {
			highestNonWinner, highestTally = c.Candidate, v
		}
		if electedSet[c.Candidate] && (lowestWinner == -1 || v < lowestTally) {
			lowestWinner, lowestTally = c.Candidate, v
		}
	}
	return highestNonWinner, lowestWinner, highestNonWinner != -1 && lowestWinner != -1
}
