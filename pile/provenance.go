// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pile holds the ballot groups sitting with a continuing
// candidate between counts, partitioned by provenance according to the
// rules profile's PileProvenancePolicy, and keyed within each provenance
// bucket by transfer value so a later surplus or exclusion can hand out
// the right parcels at the right value.
package pile

import "fmt"

// ProvenancePolicy selects how finely piles are split by the count they
// arrived in, mirroring ConcreteSTV's HowSplitByCountNumber.
type ProvenancePolicy int

const (
	// PartitionSingleBucket keeps every pile a candidate holds in one
	// bucket regardless of when it arrived (DoNotSplitByCountNumber).
	PartitionSingleBucket ProvenancePolicy = iota
	// PartitionByOriginCount splits piles by the exact count they were
	// received in (FullySplitByCountNumber).
	PartitionByOriginCount
	// PartitionFirstCountVsRest distinguishes only first-preference
	// papers from everything received afterwards (SplitFirstCount).
	PartitionFirstCountVsRest
	// PartitionByWhenTVCreated splits by the count in which the
	// transfer value of the parcel was created, which may differ from
	// the count the parcel itself arrived in when a candidate's surplus
	// is distributed over more than one count (SplitByWhenTransferValueWasCreated).
	PartitionByWhenTVCreated
)

// ProvenanceKey identifies a bucket of piles sharing a provenance under
// the active ProvenancePolicy.
type ProvenanceKey struct {
	Policy        ProvenancePolicy
	OriginCount   int // meaningful for PartitionByOriginCount and PartitionByWhenTVCreated
	IsFirstCount  bool
	CandidateFrom int // the excluded/elected candidate the parcel transferred from, 0 for first preferences
}

// KeyFor computes the ProvenanceKey for a parcel arriving from fromCount
// (0 for first preferences), under the given policy. tvCreatedAtCount is
// the count the parcel's transfer value was established at; for
// first-preference parcels and plain exclusions this equals fromCount.
func KeyFor(policy ProvenancePolicy, fromCount int, candidateFrom int, tvCreatedAtCount int) ProvenanceKey {
	switch policy {
	case PartitionSingleBucket:
		return ProvenanceKey{Policy: policy}
	case PartitionByOriginCount:
		return ProvenanceKey{Policy: policy, OriginCount: fromCount, CandidateFrom: candidateFrom}
	case PartitionFirstCountVsRest:
		return ProvenanceKey{Policy: policy, IsFirstCount: fromCount == 0}
	case PartitionByWhenTVCreated:
		return ProvenanceKey{Policy: policy, OriginCount: tvCreatedAtCount, CandidateFrom: candidateFrom}
	default:
		panic(fmt.Sprintf("pile: unknown provenance policy %d", policy))
	}
}
