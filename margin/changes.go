// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package margin

import "sort"

// Change is one accepted, minimized perturbation: the count it would
// alter and the VoteChanges needed to do so.
type Change struct {
	Count   int
	Changes VoteChanges
}

// ElectionChanges collects the perturbations found across a baseline
// transcript's decisive counts, for margin-of-victory reporting.
type ElectionChanges struct {
	Found []Change
}

// Add records a perturbation found at the given major count.
func (e *ElectionChanges) Add(count int, changes VoteChanges) {
	e.Found = append(e.Found, Change{Count: count, Changes: changes})
}

// Sort orders Found by ascending total magnitude: the smallest, and
// therefore most concerning, manipulation first.
func (e *ElectionChanges) Sort() {
	sort.SliceStable(e.Found, func(i, j int) bool {
		return e.Found[i].Changes.TotalAmount() < e.Found[j].Changes.TotalAmount()
	})
}
