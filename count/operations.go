// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package count

import (
	"fmt"
	"sort"
	"strings"

	"github.com/auspol/stv/ballot"
	"github.com/auspol/stv/numeric"
	"github.com/auspol/stv/rules"
	"github.com/auspol/stv/tie"
	"github.com/auspol/stv/transcript"
)

func joinDescriptions(descriptions []string) string {
	return strings.Join(descriptions, "; ")
}

// orderByTallyDescending sorts candidates by tally descending, ordering
// any group of exactly-equal tallies via resolveTieGroup: countback first
// where the profile selects it, then the oracle.
func (s *State) orderByTallyDescending(candidates []int, situation rules.TieSituation) ([]int, error) {
	sort.Slice(candidates, func(i, j int) bool {
		return s.tallies[candidates[i]].Cmp(s.tallies[candidates[j]]) > 0
	})

	// Resolve groups of exactly-equal tally by consulting the tie
	// machinery, preserving relative order of distinct-tally groups.
	out := make([]int, 0, len(candidates))
	i := 0
	for i < len(candidates) {
		j := i + 1
		for j < len(candidates) && s.tallies[candidates[j]].Cmp(s.tallies[candidates[i]]) == 0 {
			j++
		}
		group := append([]int{}, candidates[i:j]...)
		if len(group) > 1 {
			ordered, err := s.resolveTieGroup(group, situation)
			if err != nil {
				return nil, err
			}
			out = append(out, ordered...)
		} else {
			out = append(out, group...)
		}
		i = j
	}
	return out, nil
}

// resolveTieGroup orders a group of candidates tied on tally, trying
// countback first (unless the profile requests a direct oracle
// consultation for this situation) and consulting the oracle only when
// countback cannot discriminate.
func (s *State) resolveTieGroup(group []int, situation rules.TieSituation) ([]int, error) {
	remaining := append([]int{}, group...)
	var ordered []int

	for len(remaining) > 1 {
		winner, description, err := s.pickOne(remaining, situation)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, winner)
		s.recordTieBreak(description)

		next := make([]int, 0, len(remaining)-1)
		for _, c := range remaining {
			if c != winner {
				next = append(next, c)
			}
		}
		remaining = next
	}
	if len(remaining) == 1 {
		ordered = append(ordered, remaining[0])
	}
	return ordered, nil
}

// recordTieBreak buffers a tie-resolution description for the next row
// recordCount creates; see State.pendingTieBreaks.
func (s *State) recordTieBreak(description string) {
	s.pendingTieBreaks = append(s.pendingTieBreaks, description)
}

func (s *State) pickOne(group []int, situation rules.TieSituation) (int, string, error) {
	method := s.profile.TieMethodFor(situation)
	if method == rules.TieByCountbackAnyDifference || method == rules.TieByCountbackAllDifferent {
		decision, err := tie.Countback(method, s.history, s.majorCount, group)
		if err == nil {
			return decision.Winner, decision.Description, nil
		}
		// Countback exhausted without a discriminator: fall through to
		// the configured oracle.
	}

	sit := tie.Situation{Kind: situation, Candidates: group, AtCount: s.majorCount}
	decision, err := s.oracle.Resolve(sit)
	if err != nil {
		return 0, "", fmt.Errorf("count: resolving tie among %v: %w", group, err)
	}
	return decision.Winner, decision.Description, nil
}

// history implements tie.HistoryTallies over this State's recorded
// tally history.
func (s *State) history(count, candidate int) (string, bool) {
	if count < 1 || count > len(s.tallyHistory) {
		return "", false
	}
	v, ok := s.tallyHistory[count-1][candidate]
	return v, ok
}

// shortcutMoment names the two independent points in the count loop at
// which axes 12–14 allow an election shortcut to be checked: right
// after the engine has determined who would be excluded next (but
// before moving any papers), or after a full quota pass has left no
// surplus outstanding. A profile's ShortcutSchedule decides, per
// shortcut, which of these (if either) it fires at.
type shortcutMoment int

const (
	momentAfterExclusionDetermined shortcutMoment = iota
	momentAfterQuotaCheck
)

// scheduleMoment reports whether a shortcut scheduled for sched should
// be tried at moment. ScheduleNever always reports false at both
// moments — it never falls through to a default that could misfire.
func scheduleMoment(sched rules.ShortcutSchedule, moment shortcutMoment) bool {
	switch sched {
	case rules.ScheduleAfterExclusionDetermined:
		return moment == momentAfterExclusionDetermined
	case rules.ScheduleAfterQuotaCheck:
		return moment == momentAfterQuotaCheck
	default: // rules.ScheduleNever
		return false
	}
}

// tryShortcuts checks every election shortcut the profile enables that
// is scheduled for moment, applying the first one whose condition
// holds. It returns true if it changed the count state, in which case
// the caller should loop again rather than proceed with whatever it was
// about to do (distribute a surplus, or move excluded papers).
func (s *State) tryShortcuts(moment shortcutMoment) bool {
	remainingVacancies := s.data.Vacancies - len(s.elected)
	if remainingVacancies <= 0 {
		return false
	}

	for _, sc := range s.profile.ElectionShortcuts {
		if !scheduleMoment(s.profile.ScheduleFor(sc), moment) {
			continue
		}
		switch sc {
		case rules.ShortcutRemainingEqualsVacancies:
			if s.applyShortcutRemainingEqualsVacancies(remainingVacancies) {
				return true
			}
		case rules.ShortcutOneVacancyHighestTally:
			if s.applyShortcutOneVacancyHighestTally(remainingVacancies) {
				return true
			}
		case rules.ShortcutTopFewOverwhelming:
			if s.applyShortcutTopFewOverwhelming(remainingVacancies) {
				return true
			}
		}
	}
	return false
}

// applyShortcutRemainingEqualsVacancies is rule 12 (spec.md §4.5.4):
// once exactly as many candidates remain continuing as there are seats
// left, every one of them is elected without a further count.
func (s *State) applyShortcutRemainingEqualsVacancies(remainingVacancies int) bool {
	if len(s.continuing) != remainingVacancies {
		return false
	}
	candidates := make([]int, 0, len(s.continuing))
	for c := range s.continuing {
		candidates = append(candidates, c)
	}
	sort.Ints(candidates)
	for _, c := range candidates {
		s.elect(c)
	}
	s.recordCount("shortcut-remaining-equals-vacancies", nil, s.majorCount, numeric.One(), 0, 0, 0, 0)
	return true
}

// applyShortcutOneVacancyHighestTally is rule 13, "just two standing"
// (spec.md §4.5.4): it applies only with exactly one seat left AND
// exactly two candidates still continuing — with three or more
// continuing, a third candidate could still overtake the second on
// preferences, so the shortcut must not fire.
func (s *State) applyShortcutOneVacancyHighestTally(remainingVacancies int) bool {
	if remainingVacancies != 1 || len(s.continuing) != 2 {
		return false
	}
	candidates := make([]int, 0, 2)
	for c := range s.continuing {
		candidates = append(candidates, c)
	}
	order, err := s.orderByTallyDescending(candidates, rules.TieForElection)
	if err != nil || len(order) == 0 {
		return false
	}
	s.elect(order[0])
	s.recordCount("shortcut-one-vacancy-highest-tally", nil, s.majorCount, numeric.One(), 0, 0, 0, 0)
	return true
}

// applyShortcutTopFewOverwhelming is rule 14, "top few overwhelming"
// (spec.md §4.5.4): the remainingVacancies continuing candidates with
// the highest tallies are elected directly, without waiting for each to
// individually reach quota, once no combination of every vote not yet
// in one of their piles — every other continuing candidate's tally plus
// any surplus still undistributed — could lift a lower candidate past
// the weakest of the leading group.
func (s *State) applyShortcutTopFewOverwhelming(remainingVacancies int) bool {
	if len(s.continuing) <= remainingVacancies {
		return false
	}
	if s.profile.TopFewOverwhelmingRequireExactlyOne && remainingVacancies != 1 {
		return false
	}

	ascending := make([]int, 0, len(s.continuing))
	for c := range s.continuing {
		ascending = append(ascending, c)
	}
	sort.Slice(ascending, func(i, j int) bool {
		return s.tallies[ascending[i]].Cmp(s.tallies[ascending[j]]) < 0
	})
	top := ascending[len(ascending)-remainingVacancies:]
	rest := ascending[:len(ascending)-remainingVacancies]

	pool := s.totalPendingSurplusTally()
	for _, c := range rest {
		sum, err := pool.Add(s.tallies[c])
		if err != nil {
			return false
		}
		pool = sum
	}

	lowestTop := s.tallies[top[0]]
	for _, c := range top[1:] {
		if s.tallies[c].Cmp(lowestTop) < 0 {
			lowestTop = s.tallies[c]
		}
	}
	if pool.Cmp(lowestTop) >= 0 {
		// Everything still outside the leading group could in principle
		// still lift a trailing candidate past the weakest leader: the
		// shortcut cannot safely fire yet.
		return false
	}

	order, err := s.orderByTallyDescending(append([]int{}, top...), rules.TieForElection)
	if err != nil {
		return false
	}
	for _, c := range order {
		s.elect(c)
	}
	s.recordCount("shortcut-top-few-overwhelming", nil, s.majorCount, numeric.One(), 0, 0, 0, 0)
	return true
}

// excludeLowest removes the continuing candidate(s) with the lowest
// tally and redistributes their piles, applying bulk exclusion when the
// profile enables it.
func (s *State) excludeLowest() error {
	if len(s.continuing) == 0 {
		return fmt.Errorf("%w: excludeLowest called with no continuing candidates", ErrInvariantViolated)
	}

	toExclude, err := s.chooseExclusionGroup()
	if err != nil {
		return err
	}

	// Axis 12–14 scheduling: some shortcuts are checked right here, once
	// the engine knows who would be excluded next but before any papers
	// actually move, rather than only after a later quota pass.
	if s.tryShortcuts(momentAfterExclusionDetermined) {
		return nil
	}

	s.majorCount++
	continuingSet := s.continuingSet()
	for _, c := range toExclude {
		delete(continuingSet, c)
	}

	distributed := 0
	considered := 0
	for _, c := range toExclude {
		parcels := s.piles[c].TakeAll()
		if s.profile.ExclusionParcelOrder == rules.ExclusionParcelByOriginCountAscending {
			sort.SliceStable(parcels, func(i, j int) bool {
				return parcels[i].Provenance.OriginCount < parcels[j].Provenance.OriginCount
			})
		}
		for _, parcel := range parcels {
			considered += parcel.NumBallots
			byDest := make(map[int][]ballot.PartiallyDistributedVote)
			exhaustedHere := 0
			for _, v := range parcel.Votes {
				dest, ok := v.Candidate(continuingSet)
				if !ok {
					exhaustedHere += v.N
					continue
				}
				advanced, _ := v.Next(continuingSet)
				byDest[dest] = append(byDest[dest], advanced)
				distributed += v.N
			}
			if exhaustedHere > 0 {
				var err2 error
				s.exhausted, err2 = s.exhausted.Add(numeric.NewSignedTally(false, s.contribution(parcel.TransferValue, exhaustedHere)))
				if err2 != nil {
					return fmt.Errorf("count: accumulating exhausted tally: %w", err2)
				}
			}
			for dest, votes := range byDest {
				s.piles[dest].Add(s.majorCount, c, s.majorCount, parcel.TransferValue, votes, false)
				papers := 0
				for _, v := range votes {
					papers += v.N
				}
				if err := s.creditContribution(dest, c, parcel.TransferValue, papers); err != nil {
					return err
				}
			}
		}
		delete(s.continuing, c)
		s.excluded[c] = true
	}

	// Resolve any elections this exclusion produces before recording the
	// row, so the row's Candidates/tr.Elected reflect them immediately
	// rather than one count late.
	if err := s.electAnyOverQuota(); err != nil {
		return err
	}
	s.recordCount("exclusion", toExclude, s.majorCount, numeric.One(), considered, distributed, 0, 0)
	return nil
}

// chooseExclusionGroup returns the candidate(s) to exclude this count:
// the single lowest-tally continuing candidate, or, when bulk exclusion
// is enabled, every continuing candidate whose combined tally is less
// than the next-lowest continuing candidate's tally.
func (s *State) chooseExclusionGroup() ([]int, error) {
	candidates := make([]int, 0, len(s.continuing))
	for c := range s.continuing {
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return s.tallies[candidates[i]].Cmp(s.tallies[candidates[j]]) < 0
	})

	if s.profile.ExclusionOrder != rules.ExclusionBulkBelowSurplus || len(candidates) < 2 {
		lowestGroup := s.lowestTallyGroup(candidates)
		if len(lowestGroup) == 1 {
			return lowestGroup, nil
		}
		winner, description, err := s.pickOne(lowestGroup, rules.TieForExclusion)
		if err != nil {
			return nil, err
		}
		s.recordTieBreak(description)
		return []int{winner}, nil
	}

	return s.bulkExclusionGroup(candidates)
}

func (s *State) lowestTallyGroup(sortedAscending []int) []int {
	if len(sortedAscending) == 0 {
		return nil
	}
	lowest := s.tallies[sortedAscending[0]]
	group := []int{sortedAscending[0]}
	for _, c := range sortedAscending[1:] {
		if s.tallies[c].Cmp(lowest) == 0 {
			group = append(group, c)
		} else {
			break
		}
	}
	return group
}

// bulkExclusionGroup returns the longest prefix of the ascending-tally
// candidate list whose cumulative tally is still less than the next
// candidate's tally — the standard "bulk exclusion" shortcut several
// Australian Senate-style counts use to skip several single exclusions
// at once. The highest-tally candidate, having no next candidate, is
// never part of the group.
func (s *State) bulkExclusionGroup(sortedAscending []int) ([]int, error) {
	cumulative := s.zeroTally()
	best := 0
	for i, c := range sortedAscending {
		if i+1 >= len(sortedAscending) {
			break
		}
		sum, err := cumulative.Add(s.tallies[c])
		if err != nil {
			return nil, fmt.Errorf("count: bulk exclusion cumulative tally overflow: %w", err)
		}
		cumulative = sum
		if cumulative.Cmp(s.tallies[sortedAscending[i+1]]) < 0 {
			best = i + 1
		}
	}
	group := append([]int{}, sortedAscending[:best]...)
	if len(group) == 0 {
		group = []int{sortedAscending[0]}
	}
	if s.profile.SortExclusionsByTieBreak {
		sort.Ints(group)
	}
	return group, nil
}

// recordCount appends a new transcript row summarizing one count. reason
// classifies why the count happened (see transcript.CountRow.Reason),
// from names the candidate(s) whose pile was distributed to produce it
// (nil for a first-preference count or a shortcut that elects
// directly), and papersSetAside is the number of ballot papers this
// count set aside under the NSW largest-remainder rule rather than
// passing on to a continuing candidate.
func (s *State) recordCount(reason string, from []int, major int, tv numeric.TransferValue, considered, distributed, papersSetAside, minor int) {
	entries := make([]transcript.CandidateCountEntry, 0, len(s.continuing)+len(s.elected))
	for c, t := range s.tallies {
		action := transcript.ActionNone
		if s.isElected(c) {
			action = transcript.ActionElected
		} else if s.excluded[c] {
			action = transcript.ActionExcluded
		}
		entries = append(entries, transcript.CandidateCountEntry{Candidate: c, Tally: t.String(), Action: action})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Candidate < entries[j].Candidate })

	row := transcript.CountRow{
		Major:             major,
		Minor:             minor,
		Name:              s.profile.CountName(major, minor),
		Reason:            reason,
		DistributedFrom:   from,
		TransferValue:     tv.String(),
		PapersConsidered:  considered,
		PapersDistributed: distributed,
		PapersSetAside:    papersSetAside,
		ExhaustedTally:    s.exhausted.String(),
		RoundingTally:     s.rounding.String(),
	}
	if reason != "" && reason != "first_preferences" {
		row.Name = fmt.Sprintf("%s (%s)", row.Name, reason)
	}
	if len(s.pendingTieBreaks) > 0 {
		row.TieBreak = joinDescriptions(s.pendingTieBreaks)
		s.pendingTieBreaks = nil
	}
	row.Candidates = entries
	s.tr.AppendCount(row)
	s.tr.Elected = append([]int{}, s.elected...)

	snapshot := make(map[int]string, len(s.tallies))
	for c, t := range s.tallies {
		snapshot[c] = t.String()
	}
	s.tallyHistory = append(s.tallyHistory, snapshot)
}

func (s *State) isElected(c int) bool {
	for _, e := range s.elected {
		if e == c {
			return true
		}
	}
	return false
}

// checkInvariants validates spec.md §8's cross-cutting invariants once
// the count has finished: no more candidates were elected than there
// were vacancies, and elected-or-excluded accounts for every candidate
// that is no longer continuing.
func (s *State) checkInvariants() error {
	if len(s.elected) > s.data.Vacancies {
		return fmt.Errorf("%w: elected %d candidates but only %d vacancies", ErrInvariantViolated, len(s.elected), s.data.Vacancies)
	}
	seen := make(map[int]bool, len(s.elected))
	for _, c := range s.elected {
		if seen[c] {
			return fmt.Errorf("%w: candidate %d elected more than once", ErrInvariantViolated, c)
		}
		seen[c] = true
	}
	for _, cand := range s.data.Candidates {
		c := cand.Index
		if !s.continuing[c] && !seen[c] && !s.excluded[c] {
			return fmt.Errorf("%w: candidate %d is neither continuing, elected nor excluded", ErrInvariantViolated, c)
		}
	}
	return nil
}
