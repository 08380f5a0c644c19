// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package numeric

import "math/big"

// SetAsideResult is the outcome of NumBallotPapersToSetAside: how many
// ballot papers of a parcel are "set aside" (treated as exhausted for
// transfer-value purposes) under the NSW largest-remainder rule, plus
// whether a tie in the remainder comparison had to be broken.
type SetAsideResult struct {
	SetAside   int64
	WasTied    bool
	TiedGroups [][]int64 // candidate indices grouped by equal remainder, for oracle consultation
}

// NumBallotPapersToSetAside implements the NSW "largest remainder" rule for
// deciding how many ballot papers in a parcel of transferable papers are
// set aside rather than passed on at full value, given a parcel of size
// totalPapers that must be split among continuing candidates in proportion
// to priorPapers (their share of the vote being distributed).
//
// emulateLegacyFloatBug reproduces the historical NSWEC behaviour of
// performing this computation in 32-bit floating point rather than exact
// rational arithmetic, which occasionally assigns the remainder ballot to
// the wrong candidate when two remainders are extremely close. When false
// (the modern and default behaviour) the computation is exact.
func NumBallotPapersToSetAside(priorPapers []int64, totalPapers int64, emulateLegacyFloatBug bool) SetAsideResult {
	n := len(priorPapers)
	sumPrior := int64(0)
	for _, p := range priorPapers {
		sumPrior += p
	}
	if sumPrior == 0 {
		return SetAsideResult{SetAside: totalPapers}
	}

	whole := make([]int64, n)
	remainders := make([]*big.Rat, n)
	allocated := int64(0)
	for i, p := range priorPapers {
		share := new(big.Rat).Mul(big.NewRat(p, 1), big.NewRat(totalPapers, sumPrior))
		if emulateLegacyFloatBug {
			share = legacyFloatRoundTrip(share)
		}
		w := ratFloor(share)
		whole[i] = w
		remainders[i] = new(big.Rat).Sub(share, big.NewRat(w, 1))
		allocated += w
	}

	remaining := totalPapers - allocated
	if remaining <= 0 {
		return SetAsideResult{SetAside: totalPapers - allocated}
	}

	// The `remaining` leftover papers are not handed out here: all of them
	// are returned as SetAside. The remainders are ordered only to report
	// which positions tie on them.
	order := argsortDescending(remainders)
	tiedGroups := groupTies(order, remainders)

	return SetAsideResult{
		SetAside:   totalPapers - allocated,
		WasTied:    len(tiedGroups) > 0 && anyGroupLargerThanOne(tiedGroups, remaining),
		TiedGroups: tiedGroups,
	}
}

// legacyFloatRoundTrip reproduces the ConcreteSTV-documented NSWEC bug of
// performing the ratio in 32-bit float precision before using it as an
// exact rational again, by round-tripping the rational through a float32.
func legacyFloatRoundTrip(r *big.Rat) *big.Rat {
	f64, _ := r.Float64()
	f32 := float32(f64)
	return new(big.Rat).SetFloat64(float64(f32))
}

func argsortDescending(remainders []*big.Rat) []int {
	idx := make([]int, len(remainders))
	for i := range idx {
		idx[i] = i
	}
	// simple insertion sort: these slices are candidate-count sized, never large
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && remainders[idx[j]].Cmp(remainders[idx[j-1]]) > 0; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
	return idx
}

func groupTies(order []int, remainders []*big.Rat) [][]int64 {
	var groups [][]int64
	i := 0
	for i < len(order) {
		j := i + 1
		group := []int64{int64(order[i])}
		for j < len(order) && remainders[order[j]].Cmp(remainders[order[i]]) == 0 {
			group = append(group, int64(order[j]))
			j++
		}
		if len(group) > 1 {
			groups = append(groups, group)
		}
		i = j
	}
	return groups
}

func anyGroupLargerThanOne(groups [][]int64, remaining int64) bool {
	return len(groups) > 0 && remaining > 0
}
