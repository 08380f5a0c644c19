// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tie resolves the moments spec.md §4.7 describes where an STV
// count cannot proceed without an external or algorithmic decision: which
// candidate to exclude when several share the lowest tally, which to
// elect when several share the highest, and so on. The consultation
// protocol here — a one-shot request keyed by the tied candidates,
// answered either from a pre-supplied resolution or a deterministic
// fallback — is modelled on the teacher's poll.Set/poll.Poll request
// bookkeeping, generalized from a repeated network round to a single
// lookup against prior counts or an operator-supplied table.
package tie

import (
	"fmt"
	"sort"

	"github.com/auspol/stv/rules"
	"github.com/auspol/stv/utils/sampler"
)

// Situation bundles the rules.TieSituation being resolved with the
// specific candidates tied in it, forming the oracle's request key.
type Situation struct {
	Kind       rules.TieSituation
	Candidates []int // the tied candidates, ascending order
	AtCount    int   // the count index the tie arose at
}

// Key returns a canonical string key for this situation, used as the map
// key for pre-supplied resolutions. Its "kind@count:[ids]" form is not
// the tie-atom grammar that ParseTieAtom reads.
func (s Situation) Key() string {
	sorted := append([]int{}, s.Candidates...)
	sort.Ints(sorted)
	return fmt.Sprintf("%d@%d:%v", s.Kind, s.AtCount, sorted)
}

// Decision is the result of resolving a tie: which single candidate was
// picked, and a human-auditable description recorded into the
// transcript's CountRow.TieBreak field.
type Decision struct {
	Winner      int
	Description string
}

// Oracle decides a single winner among a set of tied candidates. The
// count engine consults it for a tie that the profile's countback method,
// if any, leaves unsettled, so that margin search and retroscope can both
// reproduce and perturb historical decisions.
type Oracle interface {
	Resolve(Situation) (Decision, error)
}

// PreSuppliedOracle answers from a fixed table of resolutions keyed by
// Situation.Key, falling back to a wrapped Oracle for anything not in
// the table.
type PreSuppliedOracle struct {
	Resolutions map[string]int // Situation.Key() -> winning candidate
	Fallback    Oracle
}

// NewPreSuppliedOracle builds a PreSuppliedOracle with the given
// resolution table and fallback.
func NewPreSuppliedOracle(resolutions map[string]int, fallback Oracle) *PreSuppliedOracle {
	return &PreSuppliedOracle{Resolutions: resolutions, Fallback: fallback}
}

func (o *PreSuppliedOracle) Resolve(s Situation) (Decision, error) {
	if winner, ok := o.Resolutions[s.Key()]; ok {
		return Decision{Winner: winner, Description: fmt.Sprintf("pre-supplied resolution for %s", s.Key())}, nil
	}
	if o.Fallback == nil {
		return Decision{}, fmt.Errorf("tie: no pre-supplied resolution for %s and no fallback oracle", s.Key())
	}
	return o.Fallback.Resolve(s)
}

// DeterministicOracle always picks the lowest candidate index among those
// tied, a stable and fully reproducible fallback used by jurisdictions
// whose countback rule exhausts without a discriminator (a situation
// spec.md treats as a last resort, not a primary tie-break method).
type DeterministicOracle struct{}

func (DeterministicOracle) Resolve(s Situation) (Decision, error) {
	if len(s.Candidates) == 0 {
		return Decision{}, fmt.Errorf("tie: cannot resolve an empty tie")
	}
	winner := s.Candidates[0]
	for _, c := range s.Candidates[1:] {
		if c < winner {
			winner = c
		}
	}
	return Decision{Winner: winner, Description: "deterministic lowest-index fallback"}, nil
}

// SeededOracle breaks ties with a seeded pseudorandom draw, implementing
// the "resolve by lot" rule several jurisdictions (WA, NSW) use. The draw
// is reproducible: the same seed and the same tied set always produce
// the same winner, which is essential for retroscope and margin search
// to be able to replay a historical count exactly.
type SeededOracle struct {
	seed int64
}

// NewSeededOracle builds a SeededOracle from a rules.Profile's
// RandomTieSeed.
func NewSeededOracle(seed int64) *SeededOracle {
	return &SeededOracle{seed: seed}
}

func (o *SeededOracle) Resolve(s Situation) (Decision, error) {
	if len(s.Candidates) == 0 {
		return Decision{}, fmt.Errorf("tie: cannot resolve an empty tie")
	}
	sorted := append([]int{}, s.Candidates...)
	sort.Ints(sorted)

	// Combine the profile seed with the situation key so that distinct
	// ties in the same count draw independent, still-reproducible values.
	u := sampler.NewDeterministicUniform(o.seed ^ int64(stableHash(s.Key())))
	if err := u.Initialize(len(sorted)); err != nil {
		return Decision{}, fmt.Errorf("tie: initializing sampler: %w", err)
	}
	drawn, ok := u.Sample(1)
	if !ok || len(drawn) == 0 {
		return Decision{}, fmt.Errorf("tie: sampler failed to draw a winner")
	}
	winner := sorted[drawn[0]]
	return Decision{Winner: winner, Description: fmt.Sprintf("resolved by lot (seed %d)", o.seed)}, nil
}

func stableHash(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// TracingOracle wraps another Oracle, recording every consultation made
// through it for later inspection.
type TracingOracle struct {
	Inner Oracle
	Trace []Situation
}

// NewTracingOracle wraps inner in a TracingOracle.
func NewTracingOracle(inner Oracle) *TracingOracle {
	return &TracingOracle{Inner: inner}
}

func (o *TracingOracle) Resolve(s Situation) (Decision, error) {
	o.Trace = append(o.Trace, s)
	return o.Inner.Resolve(s)
}
