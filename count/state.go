// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package count

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/auspol/stv/ballot"
	"github.com/auspol/stv/numeric"
	"github.com/auspol/stv/pile"
	"github.com/auspol/stv/rules"
	"github.com/auspol/stv/tie"
	"github.com/auspol/stv/transcript"
)

// Sentinel errors, in the style of the teacher's config.ErrParametersInvalid
// family (see SPEC_FULL.md §7).
var (
	ErrNoOracle          = errors.New("count: a tie.Oracle is required")
	ErrInvariantViolated = errors.New("count: internal invariant violated")
)

// State is one run of the count engine: the single-goroutine, I/O-free
// state machine spec.md §4.5 and §5 describe. It owns the evolving pile
// of every continuing candidate, the running tallies, and the transcript
// being built up as it goes. State itself never logs and never reports
// progress (spec.md §7); callers instrument it from the outside via the
// returned transcript. Run takes no metrics registry.
type State struct {
	data    *ballot.ElectionData
	profile rules.Profile
	oracle  tie.Oracle

	quota int

	continuing map[int]bool
	elected    []int
	excluded   map[int]bool

	tallies map[int]numeric.Tally
	piles   map[int]*pile.Store

	exhausted numeric.SignedTally
	rounding  numeric.SignedTally

	// roundingResidual banks the exact fractional loss from every
	// rounded-down transfer-value contribution,
	// in units of one tally unit (a whole vote, or one 10^-DecimalDigits
	// unit for a DecimalTally profile). Whenever it crosses a whole unit,
	// accountRoundingRemainder converts that unit into a credited Tally,
	// per RoundDownSurplusFractionToCandidate.
	roundingResidual *big.Rat

	tr         *transcript.Transcript
	majorCount int

	// tallyHistory records, per recorded count row, the rendered tally
	// string of every candidate that was not excluded before counting, so tie.Countback can walk
	// backwards without reaching into the transcript's row layout.
	tallyHistory []map[int]string

	// pendingTieBreaks accumulates tie-resolution descriptions between
	// calls to recordCount, so a tie resolved while deciding this count's
	// outcome (e.g. the order of simultaneous election) lands on the row
	// recordCount is about to create, regardless of whether the election
	// was decided before or after that row was built.
	pendingTieBreaks []string
}

// Run executes a complete STV count and returns its transcript. oracle
// must not be nil — every tie that the profile's countback method (if
// any) cannot settle is resolved by consulting it (package tie).
func Run(data *ballot.ElectionData, profile rules.Profile, oracle tie.Oracle) (*transcript.Transcript, error) {
	if oracle == nil {
		return nil, ErrNoOracle
	}
	if err := profile.Verify(); err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	s, err := newState(data, profile, oracle)
	if err != nil {
		return nil, err
	}
	if err := s.run(); err != nil {
		return nil, err
	}
	return s.tr, nil
}

func newState(data *ballot.ElectionData, profile rules.Profile, oracle tie.Oracle) (*State, error) {
	total := data.TotalFormalBallots()

	s := &State{
		data:             data,
		profile:          profile,
		oracle:           oracle,
		continuing:       make(map[int]bool, len(data.Candidates)),
		excluded:         make(map[int]bool),
		tallies:          make(map[int]numeric.Tally, len(data.Candidates)),
		piles:            make(map[int]*pile.Store, len(data.Candidates)),
		roundingResidual: new(big.Rat),
		tr: &transcript.Transcript{
			Metadata: transcript.Metadata{
				RulesProfileName: profile.Name,
				Vacancies:        data.Vacancies,
				TotalFormal:      total,
			},
		},
	}
	s.exhausted = numeric.NewSignedTally(false, s.zeroTally())
	s.rounding = numeric.NewSignedTally(false, s.zeroTally())

	preExcluded := make(map[int]bool, len(data.PreExcluded))
	for _, c := range data.PreExcluded {
		preExcluded[c] = true
	}
	for _, c := range data.Candidates {
		if preExcluded[c.Index] {
			s.excluded[c.Index] = true
			continue
		}
		s.continuing[c.Index] = true
		s.tallies[c.Index] = s.zeroTally()
		s.piles[c.Index] = pile.NewStore(profile.PileProvenancePolicy)
	}
	return s, nil
}

func (s *State) zeroTally() numeric.Tally {
	if s.profile.TallyType == rules.TallyDecimal {
		return numeric.NewDecimalTally(0, s.profile.DecimalDigits)
	}
	return numeric.NewIntTally(0)
}

func (s *State) contribution(tv numeric.TransferValue, papers int) numeric.Tally {
	if s.profile.TallyType == rules.TallyDecimal {
		return numeric.NewDecimalTally(uint64(tv.MulScaledRoundingDown(int64(papers), s.profile.DecimalDigits)), s.profile.DecimalDigits)
	}
	return numeric.NewIntTally(uint64(tv.MulRoundingDown(int64(papers))))
}

// contributionWithRemainder is contribution's remainder-preserving
// counterpart: it reports both the rounded-down tally contribution and
// the fractional loss that rounding discarded, in tally units, so the
// caller can bank it via accountRoundingRemainder instead of dropping it.
func (s *State) contributionWithRemainder(tv numeric.TransferValue, papers int) (numeric.Tally, *big.Rat) {
	if s.profile.TallyType == rules.TallyDecimal {
		whole, remainder := tv.MulScaledRoundingDownAndRemainder(int64(papers), s.profile.DecimalDigits)
		return numeric.NewDecimalTally(uint64(whole), s.profile.DecimalDigits), remainder
	}
	whole, remainder := tv.MulRoundingDownAndRemainder(int64(papers))
	return numeric.NewIntTally(uint64(whole)), remainder
}

func (s *State) wholeTally(units int64) numeric.Tally {
	if s.profile.TallyType == rules.TallyDecimal {
		return numeric.NewDecimalTally(uint64(units), s.profile.DecimalDigits)
	}
	return numeric.NewIntTally(uint64(units))
}

// creditContribution credits dest's tally with the rounded-down
// contribution of papers ballot papers at transfer value tv, and banks
// the rounding remainder against source — the candidate whose pile is
// being distributed. This is the single path every transfer of votes
// goes through, so RoundDownSurplusFractionToCandidate and the
// "rounding" pseudo-candidate tally both reflect every rounding loss
// incurred across the whole count, not just surplus distributions.
func (s *State) creditContribution(dest, source int, tv numeric.TransferValue, papers int) error {
	contribution, remainder := s.contributionWithRemainder(tv, papers)
	sum, err := s.tallies[dest].Add(contribution)
	if err != nil {
		return fmt.Errorf("count: tally overflow crediting candidate %d: %w", dest, err)
	}
	s.tallies[dest] = sum
	return s.accountRoundingRemainder(source, remainder)
}

// accountRoundingRemainder banks a fractional rounding loss into
// s.roundingResidual, crediting a whole tally unit to either source's own
// tally (RoundDownSurplusFractionToCandidate) or the "rounding"
// pseudo-candidate (the default) each time the bank crosses one.
func (s *State) accountRoundingRemainder(source int, remainder *big.Rat) error {
	if remainder.Sign() == 0 {
		return nil
	}
	s.roundingResidual.Add(s.roundingResidual, remainder)
	whole := ratFloorLocal(s.roundingResidual)
	if whole == 0 {
		return nil
	}
	s.roundingResidual.Sub(s.roundingResidual, new(big.Rat).SetInt64(whole))

	credit := s.wholeTally(whole)
	if s.profile.RoundDownSurplusFractionToCandidate {
		sum, err := s.tallies[source].Add(credit)
		if err != nil {
			return fmt.Errorf("count: crediting rounding remainder to candidate %d: %w", source, err)
		}
		s.tallies[source] = sum
		return nil
	}
	sum, err := s.rounding.Add(numeric.NewSignedTally(whole < 0, credit))
	if err != nil {
		return fmt.Errorf("count: accumulating rounding tally: %w", err)
	}
	s.rounding = sum
	return nil
}

func ratFloorLocal(r *big.Rat) int64 {
	q := new(big.Int).Quo(r.Num(), r.Denom())
	if r.Sign() < 0 {
		rem := new(big.Int).Mul(q, r.Denom())
		if rem.Cmp(r.Num()) != 0 {
			q.Sub(q, big.NewInt(1))
		}
	}
	return q.Int64()
}

func (s *State) run() error {
	arena, err := ballot.ResolveATLVotes(s.data)
	if err != nil {
		return err
	}

	if err := s.firstCount(arena); err != nil {
		return err
	}

	for len(s.elected) < s.data.Vacancies {
		if len(s.continuing) == 0 {
			break
		}

		candidate, hasSurplus := s.candidateWithUndistributedSurplus()

		if !hasSurplus {
			// Axis 12–14's default scheduling: shortcuts are checked here
			// only once a quota pass has left no surplus outstanding and
			// no exclusion is yet underway.
			if s.tryShortcuts(momentAfterQuotaCheck) {
				continue
			}
		}

		if hasSurplus {
			if s.deferSurplus(candidate) {
				if err := s.excludeLowest(); err != nil {
					return err
				}
				continue
			}
			if err := s.distributeSurplus(candidate); err != nil {
				return err
			}
			continue
		}

		if err := s.excludeLowest(); err != nil {
			return err
		}
	}

	return s.checkInvariants()
}

// firstCount builds the initial per-candidate piles from first
// preferences and records Count 1. The Droop quota is computed here,
// after first-preference exhaustion is known, rather than in newState,
// so ExhaustedVotesCountForQuota can exclude first-round-exhausted
// papers from the quota's denominator.
func (s *State) firstCount(arena *ballot.Arena) error {
	votes := ballot.FirstPreferenceVotes(s.data, arena)

	continuingSet := s.continuingSet()
	firstRoundExhausted := 0
	for _, v := range votes {
		cand, ok := v.Candidate(continuingSet)
		if !ok {
			firstRoundExhausted += v.N
			s.exhausted, _ = s.exhausted.Add(numeric.NewSignedTally(false, s.contribution(numeric.One(), v.N)))
			continue
		}
		advanced, _ := v.Next(continuingSet)
		s.piles[cand].Add(0, 0, 0, numeric.One(), []ballot.PartiallyDistributedVote{advanced}, false)
	}

	quotaBase := s.tr.Metadata.TotalFormal
	if !s.profile.ExhaustedVotesCountForQuota {
		quotaBase -= firstRoundExhausted
	}
	s.quota = DroopQuota(quotaBase, s.data.Vacancies)
	s.tr.Metadata.Quota = fmt.Sprintf("%d", s.quota)

	for c := range s.continuing {
		papers := s.piles[c].NumBallots()
		contribution := s.contribution(numeric.One(), papers)
		sum, err := s.tallies[c].Add(contribution)
		if err != nil {
			return fmt.Errorf("count: first count tally overflow for candidate %d: %w", c, err)
		}
		s.tallies[c] = sum
	}

	s.majorCount = 1
	if err := s.electAnyOverQuota(); err != nil {
		return err
	}
	s.recordCount("first_preferences", nil, s.majorCount, numeric.One(), votesTotal(votes), votesTotal(votes), 0, 0)
	return nil
}

func votesTotal(votes []ballot.PartiallyDistributedVote) int {
	total := 0
	for _, v := range votes {
		total += v.N
	}
	return total
}

func (s *State) continuingSet() map[int]bool {
	out := make(map[int]bool, len(s.continuing))
	for c := range s.continuing {
		out[c] = true
	}
	return out
}

// electAnyOverQuota elects every continuing candidate whose tally has
// reached or passed quota, highest tally first, resolving ties for the
// order of election via the oracle.
func (s *State) electAnyOverQuota() error {
	var overQuota []int
	for c := range s.continuing {
		if !s.below(s.tallies[c], s.quota) {
			overQuota = append(overQuota, c)
		}
	}
	if len(overQuota) == 0 {
		return nil
	}

	order, err := s.orderByTallyDescending(overQuota, rules.TieForElection)
	if err != nil {
		return err
	}
	for _, c := range order {
		if len(s.elected) >= s.data.Vacancies {
			break
		}
		s.elect(c)
	}
	return nil
}

func (s *State) below(t numeric.Tally, quota int) bool {
	return t.Cmp(s.contribution(numeric.One(), quota)) < 0
}

func (s *State) elect(c int) {
	s.elected = append(s.elected, c)
	delete(s.continuing, c)
}

// candidateWithUndistributedSurplus returns an elected candidate whose
// pile still holds ballots that have not yet been distributed, if any,
// preferring the one holding the most ballot papers (not the largest
// surplus); ties go to the lowest candidate index, without consulting
// the oracle.
func (s *State) candidateWithUndistributedSurplus() (int, bool) {
	var withSurplus []int
	for _, c := range s.elected {
		if s.piles[c] != nil && s.piles[c].NumBallots() > 0 {
			withSurplus = append(withSurplus, c)
		}
	}
	if len(withSurplus) == 0 {
		return 0, false
	}
	sort.Ints(withSurplus)
	best := withSurplus[0]
	for _, c := range withSurplus[1:] {
		if s.piles[c].NumBallots() > s.piles[best].NumBallots() {
			best = c
		}
	}
	return best, true
}

// totalPendingSurplusTally sums, in whole-vote terms, the surplus over
// quota of every elected candidate whose pile still awaits distribution —
// used by both deferSurplus (axis 15) and the top-few-overwhelming
// shortcut (axis 14), each of which needs to know how much outstanding
// surplus could still move before the outcome is locked in.
func (s *State) totalPendingSurplusTally() numeric.Tally {
	sum := s.zeroTally()
	for _, c := range s.elected {
		store, ok := s.piles[c]
		if !ok {
			continue
		}
		if store.NumBallots() == 0 {
			continue
		}
		surplus := s.surplusVotes(c)
		if surplus == 0 {
			continue
		}
		if v, err := sum.Add(s.contribution(numeric.One(), int(surplus))); err == nil {
			sum = v
		}
	}
	return sum
}

// deferSurplus implements axis 15: an elected candidate's surplus is
// deferred in favour of exclusion when the sum of every undistributed
// surplus is still less than the tally gap between the two lowest
// continuing candidates, since no such surplus could change who gets
// excluded next regardless of how it is eventually distributed.
func (s *State) deferSurplus(candidate int) bool {
	if !s.profile.DeferSurplusIfPossible || len(s.continuing) < 2 {
		return false
	}

	ascending := make([]int, 0, len(s.continuing))
	for c := range s.continuing {
		ascending = append(ascending, c)
	}
	sort.Slice(ascending, func(i, j int) bool {
		return s.tallies[ascending[i]].Cmp(s.tallies[ascending[j]]) < 0
	})

	gap, err := s.tallies[ascending[1]].Sub(s.tallies[ascending[0]])
	if err != nil {
		return false
	}
	return s.totalPendingSurplusTally().Cmp(gap) < 0
}

// distributeSurplus hands an elected candidate's surplus pile on to
// continuing candidates at the appropriate transfer value.
func (s *State) distributeSurplus(candidate int) error {
	store := s.piles[candidate]
	totalHeld := store.NumBallots()
	surplusInt := s.surplusVotes(candidate)
	if surplusInt <= 0 {
		// Tally already at or below quota: nothing to distribute.
		s.piles[candidate] = pile.NewStore(s.profile.PileProvenancePolicy)
		return nil
	}

	parcels := store.TakeAll()

	continuingSet := s.continuingSet()
	continuingHeld := 0
	for _, p := range parcels {
		for _, v := range p.Votes {
			if !v.Exhausted(continuingSet) {
				continuingHeld += v.N
			}
		}
	}

	bonus := 0
	if s.profile.SurplusTransferMethod == rules.SurplusLastParcelOnly {
		selected, bonusDenom := lastParcelOnly(parcels, s.profile.LastParcelUse)
		bonus = bonusDenom
		selectedSet := make(map[*pile.Parcel]bool, len(selected))
		for _, p := range selected {
			selectedSet[p] = true
		}
		// Any parcel not selected for distribution is returned to the
		// elected candidate's own pile verbatim, under its original
		// provenance, since only the designated parcel(s) move under
		// this rule.
		for _, p := range parcels {
			if !selectedSet[p] {
				s.piles[candidate].AddParcel(p.Provenance, p)
			}
		}
		parcels = selected
	}
	s.majorCount++

	distributed := 0
	papersSetAside := 0
	lastTV := numeric.One()
	var err error
	for _, parcel := range parcels {
		denom := continuingHeld
		total := totalHeld
		if bonus != 0 {
			// The "+1 bonus" 2012 NSWEC bug: the transfer-value ratio's
			// ballot-paper denominator is inflated by one without any
			// change to the ballot papers actually moved.
			denom += bonus
			total += bonus
		}
		newTV := s.surplusTransferValue(surplusInt, parcel, total, denom)
		lastTV = newTV

		byDest := make(map[int][]ballot.PartiallyDistributedVote)
		exhaustedHere := 0
		for _, v := range parcel.Votes {
			cand, ok := v.Candidate(continuingSet)
			if !ok {
				exhaustedHere += v.N
				continue
			}
			advanced, _ := v.Next(continuingSet)
			byDest[cand] = append(byDest[cand], advanced)
			distributed += v.N
		}

		var setAsideHere int
		byDest, setAsideHere, err = s.applySetAside(byDest, newTV)
		if err != nil {
			return err
		}
		papersSetAside += setAsideHere

		if exhaustedHere > 0 {
			s.exhausted, err = s.exhausted.Add(numeric.NewSignedTally(false, s.contribution(newTV, exhaustedHere)))
			if err != nil {
				return fmt.Errorf("count: accumulating exhausted tally: %w", err)
			}
		}

		for dest, votes := range byDest {
			s.piles[dest].Add(s.majorCount, candidate, s.majorCount, newTV, votes, true)
			papers := 0
			for _, v := range votes {
				papers += v.N
			}
			if err := s.creditContribution(dest, candidate, newTV, papers); err != nil {
				return err
			}
		}
	}

	if err := s.electAnyOverQuota(); err != nil {
		return err
	}
	s.recordCount("surplus", []int{candidate}, s.majorCount, lastTV, totalHeld, distributed, papersSetAside, 0)
	return nil
}

// surplusVotes returns a candidate's surplus over quota, in whole votes,
// clamped to zero. For a DecimalTally profile the fractional part of the
// tally is dropped for the purposes of the transfer-value ratio only —
// the tally itself retains full precision.
func (s *State) surplusVotes(candidate int) int64 {
	switch t := s.tallies[candidate].(type) {
	case numeric.IntTally:
		surplus := int64(t) - int64(s.quota)
		if surplus < 0 {
			return 0
		}
		return surplus
	case numeric.DecimalTally:
		scale := int64(1)
		for i := 0; i < t.Scale; i++ {
			scale *= 10
		}
		surplus := int64(t.Units)/scale - int64(s.quota)
		if surplus < 0 {
			return 0
		}
		return surplus
	default:
		return 0
	}
}

// surplusTransferValue computes the transfer value for one parcel of an
// elected candidate's pile being distributed, per axis 4: the ratio's
// denominator is either every ballot the candidate holds or only those
// still naming a continuing candidate, and either variant may be capped
// at the parcel's own incoming transfer value so the ratio can only
// discount a parcel further, never inflate it. The result is then
// rounded per axis 7 (TransferValueRounding).
func (s *State) surplusTransferValue(surplusVotes int64, parcel *pile.Parcel, totalHeld, continuingHeld int) numeric.TransferValue {
	denom := totalHeld
	switch s.profile.TransferValueMethod {
	case rules.TVMethodSurplusOverContinuingBallots, rules.TVMethodSurplusOverContinuingBallotsCapped:
		denom = continuingHeld
	}
	if denom <= 0 {
		return numeric.Zero()
	}

	ratio := numeric.FromSurplus(surplusVotes, int64(denom))
	tv := ratio.MulTV(parcel.TransferValue)

	switch s.profile.TransferValueMethod {
	case rules.TVMethodSurplusOverTotalBallotsCapped, rules.TVMethodSurplusOverContinuingBallotsCapped:
		if tv.Cmp(parcel.TransferValue) > 0 {
			tv = parcel.TransferValue
		}
	}

	return s.roundTransferValue(tv)
}

func (s *State) roundTransferValue(tv numeric.TransferValue) numeric.TransferValue {
	switch s.profile.TransferValueRounding {
	case rules.TVExact:
		return tv
	case rules.TVRoundNearest:
		if s.profile.DecimalDigits > 0 {
			return tv.RoundToDecimalDigits(s.profile.DecimalDigits)
		}
		return tv
	default: // rules.TVRoundDown
		if s.profile.DecimalDigits > 0 {
			return tv.RoundDownToDecimalDigits(s.profile.DecimalDigits)
		}
		return tv
	}
}

// lastParcelOnly reduces a set of parcels to the ones the profile's
// LastParcelUse selects, returning them plus a "+1 bonus" adjustment to
// apply to the transfer-value ratio's denominator (nonzero only for
// LastParcelPlusPriorSurplusParcelsWithBonus, the 2012 NSWEC bug
// emulation).
func lastParcelOnly(parcels []*pile.Parcel, use rules.LastParcelUse) ([]*pile.Parcel, int) {
	if len(parcels) <= 1 {
		return parcels, 0
	}
	switch use {
	case rules.LastParcelHighestValue:
		return []*pile.Parcel{highestValueParcel(parcels)}, 0
	case rules.LastParcelPlusPriorSurplusParcels, rules.LastParcelPlusPriorSurplusParcelsWithBonus:
		recent := mostRecentParcel(parcels)
		selected := []*pile.Parcel{recent}
		for _, p := range parcels {
			if p == recent {
				continue
			}
			if p.FromSurplus {
				selected = append(selected, p)
			}
		}
		bonus := 0
		if use == rules.LastParcelPlusPriorSurplusParcelsWithBonus {
			bonus = 1
		}
		return selected, bonus
	default: // rules.LastParcelMostRecent
		return []*pile.Parcel{mostRecentParcel(parcels)}, 0
	}
}

// mostRecentParcel returns the parcel whose provenance names the highest
// origin count — the one that arrived latest.
func mostRecentParcel(parcels []*pile.Parcel) *pile.Parcel {
	best := parcels[0]
	for _, p := range parcels[1:] {
		if p.Provenance.OriginCount > best.Provenance.OriginCount {
			best = p
		}
	}
	return best
}

func highestValueParcel(parcels []*pile.Parcel) *pile.Parcel {
	best := parcels[0]
	for _, p := range parcels[1:] {
		if p.TransferValue.Cmp(best.TransferValue) > 0 {
			best = p
		}
	}
	return best
}

// applySetAside implements the NSW largest-remainder set-aside rule
// (axis with UseSetAsideForATLSurplus): when a parcel containing
// above-the-line votes is split among several continuing destinations,
// numeric.NumBallotPapersToSetAside decides how many of its ballot
// papers cannot be assigned a whole share and are instead set aside
// rather than passed on; they are not added to the exhausted tally,
// only counted in the row's PapersSetAside. Returns the trimmed
// destination map and how many papers were set aside.
func (s *State) applySetAside(byDest map[int][]ballot.PartiallyDistributedVote, tv numeric.TransferValue) (map[int][]ballot.PartiallyDistributedVote, int, error) {
	if !s.profile.UseSetAsideForATLSurplus || len(byDest) == 0 {
		return byDest, 0, nil
	}

	hasATL := false
	for _, votes := range byDest {
		for _, v := range votes {
			if v.IsATL() {
				hasATL = true
				break
			}
		}
		if hasATL {
			break
		}
	}
	if !hasATL {
		return byDest, 0, nil
	}

	dests := make([]int, 0, len(byDest))
	for d := range byDest {
		dests = append(dests, d)
	}
	sort.Ints(dests)

	prior := make([]int64, len(dests))
	total := int64(0)
	for i, d := range dests {
		papers := int64(papersIn(byDest[d]))
		prior[i] = papers
		total += papers
	}

	result := numeric.NumBallotPapersToSetAside(prior, total, s.profile.EmulateNSWLegacyFloatBug)
	if result.SetAside <= 0 {
		return byDest, 0, nil
	}

	if result.WasTied {
		var group []int
		for _, g := range result.TiedGroups {
			for _, idx := range g {
				group = append(group, dests[int(idx)])
			}
		}
		if len(group) > 1 {
			_, description, err := s.pickOne(group, rules.TieForSetAsideAllocation)
			if err != nil {
				return nil, 0, err
			}
			s.recordTieBreak(description)
		}
	}

	// Remove ballot papers from the destination(s) holding the most
	// papers first, so the largest-remainder rounding never drives a
	// smaller destination negative.
	order := append([]int{}, dests...)
	sort.Slice(order, func(i, j int) bool {
		return papersIn(byDest[order[i]]) > papersIn(byDest[order[j]])
	})

	toRemove := result.SetAside
	removed := int64(0)
	for _, d := range order {
		if removed >= toRemove {
			break
		}
		votes := byDest[d]
		var kept []ballot.PartiallyDistributedVote
		for _, v := range votes {
			if removed >= toRemove {
				kept = append(kept, v)
				continue
			}
			take := toRemove - removed
			if take >= int64(v.N) {
				removed += int64(v.N)
				continue
			}
			kept = append(kept, ballot.PartiallyDistributedVote{Upto: v.Upto, N: v.N - int(take), Prefs: v.Prefs, Source: v.Source})
			removed += take
		}
		if len(kept) == 0 {
			delete(byDest, d)
		} else {
			byDest[d] = kept
		}
	}
	return byDest, int(removed), nil
}

func papersIn(votes []ballot.PartiallyDistributedVote) int {
	n := 0
	for _, v := range votes {
		n += v.N
	}
	return n
}
