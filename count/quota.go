// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package count is the STV distribution-of-preferences engine: the
// state machine that takes an ballot.ElectionData and a rules.Profile and
// produces a transcript.Transcript. It is deliberately single-goroutine
// and performs no I/O (spec.md §5) — every decision it cannot make on its
// own is delegated to a tie.Oracle supplied by the caller.
package count

// DroopQuota computes the standard Droop quota: floor(totalFormal /
// (vacancies + 1)) + 1.
func DroopQuota(totalFormal, vacancies int) int {
	return totalFormal/(vacancies+1) + 1
}
