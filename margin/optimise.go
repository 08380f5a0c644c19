// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package margin

import (
	"github.com/auspol/stv/ballot"
	"github.com/auspol/stv/count"
	"github.com/auspol/stv/metrics"
	"github.com/auspol/stv/retroscope"
	"github.com/auspol/stv/rules"
	"github.com/auspol/stv/tie"
	"github.com/auspol/stv/transcript"
)

// Outcome is the part of a count's result that a perturbation either
// changes or doesn't: who is elected, in order.
type Outcome struct {
	Elected []int
}

func outcomeOf(tr *transcript.Transcript) Outcome {
	return Outcome{Elected: append([]int{}, tr.Elected...)}
}

// Equal reports whether two outcomes elect the same candidates in the
// same order.
func (o Outcome) Equal(other Outcome) bool {
	if len(o.Elected) != len(other.Elected) {
		return false
	}
	for i := range o.Elected {
		if o.Elected[i] != other.Elected[i] {
			return false
		}
	}
	return true
}

func tryAmount(data *ballot.ElectionData, retro *retroscope.Retroscope, profile rules.Profile, oracle tie.Oracle, change VoteChange, amount int64, baseline Outcome, trialsRun metrics.Counter) (bool, error) {
	if trialsRun != nil {
		trialsRun.Inc()
	}
	perturbed, err := Apply(data, retro, VoteChanges{Changes: []VoteChange{withAmount(change, amount)}}, Options{AllowATL: true, AllowFirstPreference: true})
	if err != nil {
		return false, err
	}
	tr, err := count.Run(perturbed, profile, oracle)
	if err != nil {
		return false, err
	}
	return !outcomeOf(tr).Equal(baseline), nil
}

// Optimise takes a single-change VoteChanges believed to flip the
// outcome — typically the output of PairwiseSwap or AdditionOnly, which
// compute a magnitude sufficient but not necessarily minimal to do so —
// and binary-searches downward for the smallest Amount that still flips
// it, re-running the count engine once per trial. It returns nil if the
// proposed change, at full magnitude, does not flip the outcome at all.
// trialsRun, if non-nil, is incremented once per count.Run call.
func Optimise(data *ballot.ElectionData, retro *retroscope.Retroscope, profile rules.Profile, newOracle func() tie.Oracle, changes VoteChanges, baseline Outcome, trialsRun metrics.Counter) (*VoteChanges, error) {
	if len(changes.Changes) != 1 {
		// Multi-change perturbations (the Rust original's "leveling"
		// search) are not produced by this package's builders, so there
		// is nothing to optimise across more than one change.
		return &changes, nil
	}
	change := changes.Changes[0]
	if change.Amount < 1 {
		return nil, nil
	}

	flips, err := tryAmount(data, retro, profile, newOracle(), change, change.Amount, baseline, trialsRun)
	if err != nil {
		return nil, err
	}
	if !flips {
		return nil, nil
	}

	lo, hi := int64(1), change.Amount
	for lo < hi {
		mid := lo + (hi-lo)/2
		ok, err := tryAmount(data, retro, profile, newOracle(), change, mid, baseline, trialsRun)
		if err != nil {
			return nil, err
		}
		if ok {
			hi = mid
		} else {
			lo = mid + 1
		}
	}

	best := withAmount(change, lo)
	return &VoteChanges{Changes: []VoteChange{best}}, nil
}
