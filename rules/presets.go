// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package rules

import "github.com/auspol/stv/pile"

// The preset names match the stable strings used in transcript metadata
// and external callers (spec.md §6). Rule values are drawn from
// ConcreteSTV's per-jurisdiction modules (act/, federal/, nsw/, sa/,
// vic/, wa/), reading only their declared rule values, never their file
// parsers — the jurisdiction-specific file parser itself is explicitly
// out of scope.

// ACT2021 is the ACT Legislative Assembly's rules from the 2020 count
// method onward: exact rational transfer values, last-bundle surplus
// transfer, and the "remaining == vacancies" election shortcut.
func ACT2021() Profile {
	return Profile{
		Name:                        "ACT2021",
		TallyType:                   TallyInt,
		TransferValueMethod:         TVMethodSurplusOverTotalBallots,
		TransferValueRounding:       TVExact,
		SurplusTransferMethod:       SurplusLastParcelOnly,
		LastParcelUse:               LastParcelMostRecent,
		PileProvenancePolicy:        pile.PartitionByWhenTVCreated,
		ExclusionOrder:              ExclusionLowestTallyFirst,
		ExclusionParcelOrder:        ExclusionParcelByTransferValueDescending,
		ElectionShortcuts:           []ElectionShortcut{ShortcutRemainingEqualsVacancies},
		SortExclusionsByTieBreak:    false,
		ExhaustedVotesCountForQuota: true,
		TieResolution: map[TieSituation]TieBreakMethod{
			TieForExclusion: TieByCountbackAllDifferent,
			TieForElection:  TieByCountbackAllDifferent,
		},
	}
}

// ACTPre2020 is the ACT's rules before the 2020 reform: the same general
// shape as ACT2021 but with all-papers surplus transfer.
func ACTPre2020() Profile {
	p := ACT2021()
	p.Name = "ACTPre2020"
	p.SurplusTransferMethod = SurplusAllPapers
	return p
}

// ACT2020 is the transitional 2020 count. It carries exactly ACT2021's
// rule values; only the name differs.
func ACT2020() Profile {
	p := ACT2021()
	p.Name = "ACT2020"
	return p
}

// WA2008 is Western Australia's Legislative Council rules: whole-vote
// tallies, all-papers surplus transfer, and no election shortcuts (every
// candidate must individually reach quota or be the last remaining).
func WA2008() Profile {
	return Profile{
		Name:                        "WA2008",
		TallyType:                   TallyInt,
		TransferValueMethod:         TVMethodSurplusOverTotalBallots,
		TransferValueRounding:       TVRoundDown,
		DecimalDigits:               0,
		SurplusTransferMethod:       SurplusAllPapers,
		PileProvenancePolicy:        pile.PartitionSingleBucket,
		ExclusionOrder:              ExclusionLowestTallyFirst,
		ExclusionParcelOrder:        ExclusionParcelByTransferValueDescending,
		ElectionShortcuts:           nil,
		ExhaustedVotesCountForQuota: true,
		TieResolution: map[TieSituation]TieBreakMethod{
			TieForExclusion: TieByRandomLot,
			TieForElection:  TieByRandomLot,
		},
	}
}

// NSWrandomLC is the NSW Legislative Council rules: decimal tallies to
// six digits, largest-remainder set-aside surplus distribution, and the
// "resolve ties by lot" rule throughout. It uses the "just two standing"
// shortcut, checked after each quota pass with no surplus outstanding.
func NSWrandomLC() Profile {
	return Profile{
		Name:                        "NSWrandomLC",
		TallyType:                   TallyDecimal,
		DecimalDigits:               6,
		TransferValueMethod:         TVMethodSurplusOverTotalBallots,
		TransferValueRounding:       TVRoundDown,
		SurplusTransferMethod:       SurplusAllPapers,
		PileProvenancePolicy:        pile.PartitionByOriginCount,
		ExclusionOrder:              ExclusionLowestTallyFirst,
		ExclusionParcelOrder:        ExclusionParcelByTransferValueDescending,
		ElectionShortcuts:           []ElectionShortcut{ShortcutOneVacancyHighestTally},
		ShortcutSchedule:            map[ElectionShortcut]ShortcutSchedule{ShortcutOneVacancyHighestTally: ScheduleAfterQuotaCheck},
		UseSetAsideForATLSurplus:    true,
		EmulateNSWLegacyFloatBug:    false,
		ExhaustedVotesCountForQuota: true,
		TieResolution: map[TieSituation]TieBreakMethod{
			TieForExclusion:          TieByRandomLot,
			TieForElection:           TieByRandomLot,
			TieForSurplusOrder:       TieByRandomLot,
			TieForSetAsideAllocation: TieByRandomLot,
		},
	}
}

// NSWECrandomLGE2012 reproduces the 2012 NSW local government elections
// rules precisely, including the documented 32-bit floating point
// rounding bug in the set-aside calculation and the "+1 bonus" transfer
// value denominator bug in the last-parcel-plus-surplus-parcels surplus
// rule that election used.
func NSWECrandomLGE2012() Profile {
	p := NSWrandomLC()
	p.Name = "NSWECrandomLGE2012"
	p.EmulateNSWLegacyFloatBug = true
	p.SurplusTransferMethod = SurplusLastParcelOnly
	p.LastParcelUse = LastParcelPlusPriorSurplusParcelsWithBonus
	return p
}

// FederalPre2021 is the Commonwealth Senate's rules before the 2021
// legislative amendment: bulk exclusion disabled, last-bundle surplus
// transfer by highest transfer value.
func FederalPre2021() Profile {
	return Profile{
		Name:                        "FederalPre2021",
		TallyType:                   TallyInt,
		TransferValueMethod:         TVMethodSurplusOverTotalBallots,
		TransferValueRounding:       TVRoundDown,
		DecimalDigits:               0,
		SurplusTransferMethod:       SurplusLastParcelOnly,
		LastParcelUse:               LastParcelHighestValue,
		PileProvenancePolicy:        pile.PartitionByWhenTVCreated,
		ExclusionOrder:              ExclusionLowestTallyFirst,
		ExclusionParcelOrder:        ExclusionParcelByTransferValueDescending,
		ElectionShortcuts:           []ElectionShortcut{ShortcutRemainingEqualsVacancies},
		ExhaustedVotesCountForQuota: true,
		TieResolution: map[TieSituation]TieBreakMethod{
			TieForExclusion: TieByCountbackAnyDifference,
			TieForElection:  TieByCountbackAnyDifference,
		},
	}
}

// FederalPost2021 is the Commonwealth Senate's current rules: as
// FederalPre2021 but with bulk exclusion enabled, exclusion-group sorting
// by tie-break order, and exclusion parcels processed oldest-first
// instead of highest-value-first.
func FederalPost2021() Profile {
	p := FederalPre2021()
	p.Name = "FederalPost2021"
	p.ExclusionOrder = ExclusionBulkBelowSurplus
	p.ExclusionParcelOrder = ExclusionParcelByOriginCountAscending
	p.SortExclusionsByTieBreak = true
	return p
}

// ByName looks up a named preset, for callers (e.g. compare.Run, the
// transcript metadata round-trip) that only have the stable string.
func ByName(name string) (Profile, bool) {
	for _, ctor := range []func() Profile{
		ACT2021, ACTPre2020, ACT2020, WA2008,
		NSWrandomLC, NSWECrandomLGE2012,
		FederalPre2021, FederalPost2021,
	} {
		p := ctor()
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}
