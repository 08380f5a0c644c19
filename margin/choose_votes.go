// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package margin implements the outcome-change search: given a baseline
// transcript, propose small perturbations to the ballots (pairwise swaps,
// additions) and find the minimum magnitude that flips who is elected or
// excluded at a given count, by re-running the count engine on perturbed
// ballot data (spec.md §4.9).
package margin

import (
	"sort"

	"github.com/auspol/stv/numeric"
	"github.com/auspol/stv/retroscope"
)

// Options controls which of a candidate's ballots ChooseVotes is
// permitted to select for a perturbation.
type Options struct {
	// AllowATL permits selecting above-the-line vote groups. When an ATL
	// group is taken it is unbundled into its resolved below-the-line
	// equivalent sequence, since a group voting ticket itself cannot be
	// partially redirected.
	AllowATL bool
	// AllowFirstPreference permits selecting ballots still sitting on
	// their very first preference (those that arrived at count 1).
	AllowFirstPreference bool
}

// Taken is a slice of one vote group's ballot papers selected to realize
// part of a VoteChange.
type Taken struct {
	Group  retroscope.VoteIndex
	Papers int
	TV     numeric.TransferValue
}

type pickGroup struct {
	index     retroscope.VoteIndex
	remaining int
}

type pickSource struct {
	tv     numeric.TransferValue
	groups []pickGroup
}

// ChooseVotes selects specific ballot papers currently sitting in one
// candidate's pile, preferring high-transfer-value parcels first and
// below-the-line votes over above-the-line ones within a parcel — the
// same preference ConcreteSTV's ChooseVotes applies, so perturbations
// disturb the fewest, most "certain" ballots possible.
type ChooseVotes struct {
	sources []pickSource
}

// New builds a ChooseVotes over the ballots currently sitting in
// candidate's pile, per retro, snapshotting their counts and preference
// lists immediately so the result remains valid even if retro is later
// advanced further (each goroutine in a parallel outcome search owns an
// independent Retroscope, but this snapshot lets a ChooseVotes be reused
// across several binary-search trials without re-deriving it each time).
func New(retro *retroscope.Retroscope, candidate int, options Options) *ChooseVotes {
	piles := retro.PilesOf(candidate)
	numBTL := retro.NumBTL()

	counts := make([]int, 0, len(piles))
	for count := range piles {
		counts = append(counts, count)
	}
	sort.Slice(counts, func(i, j int) bool {
		a, _ := retro.TransferValueAt(counts[i])
		b, _ := retro.TransferValueAt(counts[j])
		return a.Cmp(b) > 0
	})

	cv := &ChooseVotes{}
	for _, count := range counts {
		if count == 1 && !options.AllowFirstPreference {
			continue
		}
		tv, err := retro.TransferValueAt(count)
		if err != nil || tv.IsZero() {
			continue
		}
		groups := append([]retroscope.VoteIndex{}, piles[count]...)
		sort.Slice(groups, func(i, j int) bool {
			iBTL := int(groups[i]) < numBTL
			jBTL := int(groups[j]) < numBTL
			if iBTL != jBTL {
				return iBTL
			}
			return groups[i] < groups[j]
		})

		var pg []pickGroup
		for _, g := range groups {
			if !options.AllowATL && int(g) >= numBTL {
				continue
			}
			n := papersIn(retro, g, numBTL)
			if n > 0 {
				pg = append(pg, pickGroup{index: g, remaining: n})
			}
		}
		if len(pg) > 0 {
			cv.sources = append(cv.sources, pickSource{tv: tv, groups: pg})
		}
	}
	return cv
}

func papersIn(retro *retroscope.Retroscope, vi retroscope.VoteIndex, numBTL int) int {
	data := retro.Data()
	if int(vi) < numBTL {
		return data.BTL[int(vi)].N
	}
	return data.ATL[int(vi)-numBTL].N
}

// VotesAvailable returns the total tally units this candidate's pile
// could contribute, under this ChooseVotes' options, if taken entirely.
func (c *ChooseVotes) VotesAvailable() int64 {
	var total int64
	for _, src := range c.sources {
		papers := 0
		for _, g := range src.groups {
			papers += g.remaining
		}
		total += src.tv.MulRoundingDown(int64(papers))
	}
	return total
}

// Take selects ballot papers, highest transfer value first, until at
// least wanted tally units have been gathered or every available ballot
// has been taken, returning what was actually taken and the tally units
// it contributes. It mutates the ChooseVotes in place: ballots taken by
// one call are not offered again by a later one.
func (c *ChooseVotes) Take(wanted int64) ([]Taken, int64) {
	var taken []Taken
	var got int64
	for si := range c.sources {
		src := &c.sources[si]
		if got >= wanted {
			break
		}
		for gi := range src.groups {
			if got >= wanted {
				break
			}
			g := &src.groups[gi]
			if g.remaining == 0 {
				continue
			}
			need := wanted - got
			papers, err := src.tv.NumBallotPapersToGetThisTV(need)
			if err != nil || papers <= 0 {
				papers = int64(g.remaining)
			}
			if papers > int64(g.remaining) {
				papers = int64(g.remaining)
			}
			contribution := src.tv.MulRoundingDown(papers)
			taken = append(taken, Taken{Group: g.index, Papers: int(papers), TV: src.tv})
			g.remaining -= int(papers)
			got += contribution
		}
	}
	return taken, got
}
