// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package compare runs one ElectionData through several rules.Profiles
// and reports where their transcripts diverge — the "comparison of
// rulesets" facility of spec.md §5, distinct from (and not to be
// confused with) comparing against an external jurisdiction's official
// distribution-of-preferences record, which is out of scope.
package compare

import (
	"fmt"

	"github.com/luxfi/log"

	stvlog "github.com/auspol/stv/log"

	"github.com/auspol/stv/ballot"
	"github.com/auspol/stv/count"
	"github.com/auspol/stv/rules"
	"github.com/auspol/stv/tie"
	"github.com/auspol/stv/transcript"
)

// Run is one profile's outcome within a comparison.
type Run struct {
	Profile    rules.Profile
	Transcript *transcript.Transcript
	Err        error
}

// Divergence records the first count at which two runs' elected or
// excluded candidates stop matching, or the first count one run reaches
// that the other never does.
type Divergence struct {
	A, B  string // profile names
	Count int    // major count the divergence first appears at, or -1 if only the final elected sets differ
	Note  string
}

// Result is the outcome of comparing data across several rules profiles.
type Result struct {
	Runs        []Run
	Divergences []Divergence
}

// Options controls a comparison run.
type Options struct {
	NewOracle func() tie.Oracle
	Logger    log.Logger
}

// Run executes data under every given profile and diffs the resulting
// transcripts pairwise, reporting every divergence found.
func Run(data *ballot.ElectionData, profiles []rules.Profile, opts Options) (*Result, error) {
	logger := stvlog.OrDefault(opts.Logger)
	newOracle := opts.NewOracle
	if newOracle == nil {
		newOracle = func() tie.Oracle { return tie.DeterministicOracle{} }
	}

	result := &Result{}
	for _, profile := range profiles {
		logger.Info(fmt.Sprintf("compare: running profile %s", profile.Name))
		tr, err := count.Run(data, profile, newOracle())
		result.Runs = append(result.Runs, Run{Profile: profile, Transcript: tr, Err: err})
		if err != nil {
			logger.Warn(fmt.Sprintf("compare: profile %s failed: %v", profile.Name, err))
		}
	}

	for i := 0; i < len(result.Runs); i++ {
		for j := i + 1; j < len(result.Runs); j++ {
			result.Divergences = append(result.Divergences, diff(result.Runs[i], result.Runs[j])...)
		}
	}
	return result, nil
}

func diff(a, b Run) []Divergence {
	if a.Err != nil || b.Err != nil {
		return []Divergence{{
			A: a.Profile.Name, B: b.Profile.Name, Count: -1,
			Note: "one or both runs failed, see Run.Err",
		}}
	}

	n := len(a.Transcript.Counts)
	if len(b.Transcript.Counts) < n {
		n = len(b.Transcript.Counts)
	}
	for i := 0; i < n; i++ {
		rowA, rowB := a.Transcript.Counts[i], b.Transcript.Counts[i]
		if note, differ := rowsDiffer(rowA, rowB); differ {
			return []Divergence{{
				A: a.Profile.Name, B: b.Profile.Name, Count: rowA.Major,
				Note: note,
			}}
		}
	}
	if len(a.Transcript.Counts) != len(b.Transcript.Counts) {
		longer := a.Transcript.Counts
		if len(b.Transcript.Counts) > len(longer) {
			longer = b.Transcript.Counts
		}
		return []Divergence{{
			A: a.Profile.Name, B: b.Profile.Name, Count: longer[n].Major,
			Note: fmt.Sprintf("%d counts vs %d", len(a.Transcript.Counts), len(b.Transcript.Counts)),
		}}
	}

	if !sameElected(a.Transcript.Elected, b.Transcript.Elected) {
		return []Divergence{{
			A: a.Profile.Name, B: b.Profile.Name, Count: -1,
			Note: fmt.Sprintf("elected %v vs %v", a.Transcript.Elected, b.Transcript.Elected),
		}}
	}
	return nil
}

func rowsDiffer(a, b transcript.CountRow) (string, bool) {
	actionsA := actionsOf(a)
	actionsB := actionsOf(b)
	if len(actionsA) != len(actionsB) {
		return fmt.Sprintf("count %d: %d decisive candidates vs %d", a.Major, len(actionsA), len(actionsB)), true
	}
	for c, act := range actionsA {
		if actionsB[c] != act {
			return fmt.Sprintf("count %d: candidate %d action %v vs %v", a.Major, c, act, actionsB[c]), true
		}
	}
	return "", false
}

func actionsOf(row transcript.CountRow) map[int]transcript.CandidateAction {
	out := make(map[int]transcript.CandidateAction)
	for _, c := range row.Candidates {
		if c.Action != transcript.ActionNone {
			out[c.Candidate] = c.Action
		}
	}
	return out
}

func sameElected(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
