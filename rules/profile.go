// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rules defines the jurisdiction-specific decision surface a
// count engine is parameterized by: a Profile is a record of orthogonal
// pure decision values, never a subclass hierarchy, so a new jurisdiction
// is a new Profile literal rather than a new type. Modelled on the
// teacher's config.Parameters (a flat, Verify()-checked configuration
// struct) but restructured around STV's axes instead of snowball
// consensus's K/Alpha/Beta.
package rules

import (
	"errors"
	"fmt"

	"github.com/auspol/stv/pile"
)

// TallyType selects whether this jurisdiction counts in whole votes or
// fixed-precision decimal votes.
type TallyType int

const (
	TallyInt TallyType = iota
	TallyDecimal
)

// TransferValueMethod selects the ratio used to compute a surplus's
// outgoing transfer value: the denominator of surplus/papers, and
// whether the result is capped at the value the surplus-holding
// candidate's parcel last arrived at.
type TransferValueMethod int

const (
	// TVMethodSurplusOverTotalBallots divides the surplus by every
	// ballot paper the elected candidate holds, continuing or not (the
	// ACT/federal convention).
	TVMethodSurplusOverTotalBallots TransferValueMethod = iota
	// TVMethodSurplusOverContinuingBallots divides the surplus by only
	// the ballots still naming a continuing candidate, excluding
	// already-exhausted papers from the denominator.
	TVMethodSurplusOverContinuingBallots
	// TVMethodSurplusOverTotalBallotsCapped is
	// TVMethodSurplusOverTotalBallots, capped at the transfer value the
	// parcel arrived with: the ratio can discount a parcel's value
	// further but never inflate it.
	TVMethodSurplusOverTotalBallotsCapped
	// TVMethodSurplusOverContinuingBallotsCapped is
	// TVMethodSurplusOverContinuingBallots, capped the same way. This
	// is the variant that actually matters: when continuing ballots are
	// fewer than total ballots held, the uncapped ratio can exceed the
	// parcel's incoming value, which this cap prevents.
	TVMethodSurplusOverContinuingBallotsCapped
)

// TransferValueRounding selects the rounding direction applied once a
// transfer value has been computed, when the profile limits transfer
// values to DecimalDigits decimal places.
type TransferValueRounding int

const (
	// TVRoundDown rounds down to DecimalDigits.
	TVRoundDown TransferValueRounding = iota
	// TVRoundNearest rounds to nearest instead of down.
	TVRoundNearest
	// TVExact keeps the transfer value as an exact rational with no
	// rounding at all (used by jurisdictions with no legislated decimal
	// digit limit).
	TVExact
)

// SurplusTransferMethod selects which ballots move when a candidate's
// surplus is distributed.
type SurplusTransferMethod int

const (
	// SurplusAllPapers inspects every paper in the elected candidate's
	// pile (Senate-style).
	SurplusAllPapers SurplusTransferMethod = iota
	// SurplusLastParcelOnly inspects only the parcel that pushed the
	// candidate over quota (last-bundle rule).
	SurplusLastParcelOnly
)

// LastParcelUse further refines SurplusLastParcelOnly: which parcel(s)
// "the last parcel" rule actually selects.
type LastParcelUse int

const (
	// LastParcelMostRecent selects the most recently received parcel
	// regardless of value.
	LastParcelMostRecent LastParcelUse = iota
	// LastParcelHighestValue selects the parcel of highest transfer
	// value instead.
	LastParcelHighestValue
	// LastParcelPlusPriorSurplusParcels selects the most recently
	// received parcel plus every other parcel in the pile that itself
	// arrived from a surplus distribution (not an exclusion): such
	// parcels haven't had their value "used up" by an intervening
	// exclusion, so they travel with the last parcel rather than being
	// left behind.
	LastParcelPlusPriorSurplusParcels
	// LastParcelPlusPriorSurplusParcelsWithBonus is
	// LastParcelPlusPriorSurplusParcels with a "+1 bonus" added to the
	// ballot-paper denominator used for the transfer-value ratio,
	// reproducing a documented 2012 NSW local government elections bug.
	LastParcelPlusPriorSurplusParcelsWithBonus
)

// ExclusionOrder selects how candidates are chosen for exclusion when
// more than one is below quota and elimination is required.
type ExclusionOrder int

const (
	// ExclusionLowestTallyFirst excludes the single lowest-tally
	// continuing candidate each time.
	ExclusionLowestTallyFirst ExclusionOrder = iota
	// ExclusionBulkBelowSurplus excludes, in one count, every candidate
	// whose combined tally is less than the tally of the next-lowest
	// continuing candidate (a "bulk exclusion" shortcut).
	ExclusionBulkBelowSurplus
)

// ExclusionParcelOrder selects the order an excluded candidate's parcels
// are processed in during exclusion.
type ExclusionParcelOrder int

const (
	// ExclusionParcelByTransferValueDescending processes the
	// highest-value parcel first (the conventional order).
	ExclusionParcelByTransferValueDescending ExclusionParcelOrder = iota
	// ExclusionParcelByOriginCountAscending processes parcels in the
	// order they arrived at the excluded candidate, oldest first.
	ExclusionParcelByOriginCountAscending
)

// ElectionShortcut names a rule permitting the engine to elect or finish
// before every vacancy has been filled by reaching quota individually.
type ElectionShortcut int

const (
	// ShortcutNone disables all shortcuts: every candidate must reach
	// quota or be the last one standing.
	ShortcutNone ElectionShortcut = iota
	// ShortcutRemainingEqualsVacancies elects all continuing candidates
	// once their number equals the number of remaining vacancies.
	ShortcutRemainingEqualsVacancies
	// ShortcutOneVacancyHighestTally elects the higher-tally candidate
	// of exactly two continuing candidates once exactly one vacancy
	// remains, without requiring quota ("just two standing").
	ShortcutOneVacancyHighestTally
	// ShortcutTopFewOverwhelming elects the top k continuing candidates
	// (k bounded by the number of remaining vacancies, or always 1 when
	// TopFewOverwhelmingRequireExactlyOne is set) once their combined
	// tally cannot be overtaken by everyone else plus any undistributed
	// surplus.
	ShortcutTopFewOverwhelming
)

// ShortcutSchedule selects when an election-shortcut clause is checked,
// independently per shortcut.
type ShortcutSchedule int

const (
	// ScheduleNever disables the check regardless of whether the
	// shortcut appears in ElectionShortcuts.
	ScheduleNever ShortcutSchedule = iota
	// ScheduleAfterExclusionDetermined checks immediately after the
	// engine has decided which candidate(s) to exclude, but before
	// their papers are transferred — a shortcut firing here replaces
	// the planned exclusion.
	ScheduleAfterExclusionDetermined
	// ScheduleAfterQuotaCheck checks after a quota-crossing pass with no
	// surplus left outstanding and no exclusion underway — the default.
	ScheduleAfterQuotaCheck
)

// TieSituation enumerates the five distinct moments a rules profile may
// need a tie-breaking decision.
type TieSituation int

const (
	TieForExclusion TieSituation = iota
	TieForElection
	TieForSurplusOrder
	TieForBulkExclusionBoundary
	// TieForSetAsideAllocation resolves which candidate(s) cede a
	// rounding-remainder ballot paper under the NSW largest-remainder
	// set-aside rule.
	TieForSetAsideAllocation
)

// CountNameFunc renders a (major, minor) count index pair as the
// jurisdiction's conventional display string, e.g. "Count 3" or
// "Count 3.1". See DESIGN.md's Open Questions.
type CountNameFunc func(major, minor int) string

// Profile is the full set of ~20 orthogonal decision axes a count engine
// consults. Every field is a plain value or function, never a type that
// requires a jurisdiction-specific subclass.
type Profile struct {
	Name string

	TallyType             TallyType
	DecimalDigits         int // meaningful when TallyType == TallyDecimal
	TransferValueMethod   TransferValueMethod
	TransferValueRounding TransferValueRounding
	SurplusTransferMethod SurplusTransferMethod
	LastParcelUse         LastParcelUse
	PileProvenancePolicy  pile.ProvenancePolicy
	ExclusionOrder        ExclusionOrder
	ExclusionParcelOrder  ExclusionParcelOrder
	ElectionShortcuts     []ElectionShortcut

	// ShortcutSchedule maps each enabled election shortcut to when it is
	// checked; a shortcut absent from this map (but present in
	// ElectionShortcuts) defaults to ScheduleAfterQuotaCheck.
	ShortcutSchedule map[ElectionShortcut]ShortcutSchedule
	// TopFewOverwhelmingRequireExactlyOne restricts
	// ShortcutTopFewOverwhelming to the single-candidate case.
	TopFewOverwhelmingRequireExactlyOne bool

	// DeferSurplusIfPossible defers distributing an elected candidate's
	// surplus while the sum of every undistributed surplus is still
	// less than the tally gap between the two lowest continuing
	// candidates — since no such surplus could change who is excluded
	// next regardless of how it's distributed.
	DeferSurplusIfPossible bool
	// SortExclusionsByTieBreak, when bulk-excluding, sorts the excluded
	// group itself by the tie-break order.
	SortExclusionsByTieBreak bool
	// RoundDownSurplusFractionToCandidate: true credits a rounded-down
	// transfer's fractional remainder to the distributing candidate's
	// own tally once it accumulates to a whole unit; false (default)
	// credits it to the "rounding" pseudo-candidate instead.
	RoundDownSurplusFractionToCandidate bool

	// ExhaustedVotesCountForQuota includes ballots that exhaust at the
	// first count in the quota's denominator. Most jurisdictions do;
	// set false to exclude them.
	ExhaustedVotesCountForQuota bool

	// Tie-resolution methods, one per situation; nil means "delegate to
	// the default countback method".
	TieResolution map[TieSituation]TieBreakMethod

	// EmulateNSWLegacyFloatBug reproduces the NSWEC's historical 32-bit
	// float rounding bug in the set-aside calculation (see
	// numeric.NumBallotPapersToSetAside).
	EmulateNSWLegacyFloatBug bool

	// UseSetAsideForATLSurplus applies the NSW largest-remainder set-aside
	// rule to surplus distributions arising from group voting tickets.
	UseSetAsideForATLSurplus bool

	// CountNameFormat renders count indices for the transcript; defaults
	// to "Count %d" / "Count %d.%d" via DefaultCountNameFormat if nil.
	CountNameFormat CountNameFunc

	// RandomTieSeed is a seed carried with the profile. No code in this
	// module reads it: count.Run uses the oracle it is given, and
	// tie.NewSeededOracle takes its seed as an explicit argument.
	RandomTieSeed int64
}

// TieBreakMethod selects how a tie is broken when the oracle has no
// pre-supplied resolution for it.
type TieBreakMethod int

const (
	// TieByCountbackAnyDifference resolves the tie by looking back
	// through prior counts until ANY difference in tally is found
	// (ConcreteSTV's AnyDifferenceIsADiscriminator).
	TieByCountbackAnyDifference TieBreakMethod = iota
	// TieByCountbackAllDifferent requires every candidate's tally at the
	// examined historical count to be pairwise distinct before it counts
	// as a discriminator (RequireHistoricalCountsToBeAllDifferent).
	TieByCountbackAllDifferent
	// TieByRandomLot skips countback and hands the tie straight to the
	// oracle passed to count.Run (tie.SeededOracle draws by lot).
	TieByRandomLot
)

var (
	ErrProfileInvalid = errors.New("rules: invalid profile")
)

// Verify checks the profile for internal consistency, in the style of
// the teacher's config.Parameters.Verify.
func (p *Profile) Verify() error {
	if p.TallyType == TallyDecimal && p.DecimalDigits <= 0 {
		return fmt.Errorf("%w: DecimalDigits must be positive for TallyDecimal profile %q", ErrProfileInvalid, p.Name)
	}
	if p.SurplusTransferMethod == SurplusLastParcelOnly &&
		(p.LastParcelUse < LastParcelMostRecent || p.LastParcelUse > LastParcelPlusPriorSurplusParcelsWithBonus) {
		return fmt.Errorf("%w: invalid LastParcelUse for profile %q", ErrProfileInvalid, p.Name)
	}
	for _, s := range p.ElectionShortcuts {
		if s < ShortcutNone || s > ShortcutTopFewOverwhelming {
			return fmt.Errorf("%w: unknown election shortcut %d in profile %q", ErrProfileInvalid, s, p.Name)
		}
	}
	return nil
}

// CountName renders a count index using the profile's CountNameFormat,
// falling back to the default "Count N" / "Count N.M" convention.
func (p *Profile) CountName(major, minor int) string {
	if p.CountNameFormat != nil {
		return p.CountNameFormat(major, minor)
	}
	return DefaultCountNameFormat(major, minor)
}

// DefaultCountNameFormat is the fallback count-naming convention: "Count
// N" for a whole count, "Count N.M" when a count is split into
// sub-counts (e.g. one sub-count per parcel of a surplus distribution).
func DefaultCountNameFormat(major, minor int) string {
	if minor == 0 {
		return fmt.Sprintf("Count %d", major)
	}
	return fmt.Sprintf("Count %d.%d", major, minor)
}

// HasShortcut reports whether the profile enables the given election
// shortcut.
func (p *Profile) HasShortcut(s ElectionShortcut) bool {
	for _, e := range p.ElectionShortcuts {
		if e == s {
			return true
		}
	}
	return false
}

// ScheduleFor returns the configured checking schedule for a shortcut,
// defaulting to ScheduleAfterQuotaCheck if unset.
func (p *Profile) ScheduleFor(s ElectionShortcut) ShortcutSchedule {
	if p.ShortcutSchedule == nil {
		return ScheduleAfterQuotaCheck
	}
	if v, ok := p.ShortcutSchedule[s]; ok {
		return v
	}
	return ScheduleAfterQuotaCheck
}

// TieMethodFor returns the tie-break method configured for a situation,
// defaulting to TieByCountbackAnyDifference if unset.
func (p *Profile) TieMethodFor(s TieSituation) TieBreakMethod {
	if p.TieResolution == nil {
		return TieByCountbackAnyDifference
	}
	if m, ok := p.TieResolution[s]; ok {
		return m
	}
	return TieByCountbackAnyDifference
}
