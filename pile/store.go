// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package pile

import (
	"sort"

	"github.com/auspol/stv/ballot"
	"github.com/auspol/stv/numeric"
	bagutil "github.com/auspol/stv/utils/bag"
)

// tvKey is the map key used for a transfer value within a provenance
// bucket; transfer values compare by value, not by identity, so piles are
// keyed on their canonical string form.
type tvKey string

// Parcel is one group of ballots of uniform transfer value sitting within
// a single provenance bucket.
type Parcel struct {
	TransferValue numeric.TransferValue
	Votes         []ballot.PartiallyDistributedVote
	NumBallots    int

	// Provenance is the bucket key this parcel was filed under, carried on
	// the parcel itself (not just the store) so a LastParcelUse or
	// ExclusionParcelOrder decision can inspect where and when it arrived
	// after the parcel has already left the store via TakeAll.
	Provenance ProvenanceKey
	// FromSurplus reports whether this parcel arrived via a surplus
	// distribution rather than an exclusion or first preferences — the
	// "prior surplus parcel" LastParcelUse variants need to tell the two
	// apart.
	FromSurplus bool
}

// Store holds every pile currently sitting with one candidate, organised
// first by provenance key and then by transfer value within each key.
type Store struct {
	policy  ProvenancePolicy
	buckets map[ProvenanceKey]map[tvKey]*Parcel
	// order is the set of provenance keys seen so far. ProvenanceKeys
	// reads it via List() and sorts the result by field, so iteration
	// order never depends on Go's randomized map order regardless of
	// what order List() itself returns them in — required by spec.md's
	// determinism invariant.
	order bagutil.Bag[ProvenanceKey]
}

// NewStore creates an empty pile store using the given partition policy.
func NewStore(policy ProvenancePolicy) *Store {
	return &Store{
		policy:  policy,
		buckets: make(map[ProvenanceKey]map[tvKey]*Parcel),
		order:   bagutil.New[ProvenanceKey](),
	}
}

// Add places votes of the given transfer value into the bucket identified
// by (fromCount, candidateFrom, tvCreatedAtCount) under the store's
// policy, merging with any existing parcel of the same transfer value.
// fromSurplus records whether this parcel arrived from a surplus
// distribution, for LastParcelUse's surplus-parcel variants.
func (s *Store) Add(fromCount, candidateFrom, tvCreatedAtCount int, tv numeric.TransferValue, votes []ballot.PartiallyDistributedVote, fromSurplus bool) {
	key := KeyFor(s.policy, fromCount, candidateFrom, tvCreatedAtCount)
	bucket := s.bucketFor(key)

	numBallots := 0
	for _, v := range votes {
		numBallots += v.N
	}

	k := tvKey(tv.String())
	if existing, ok := bucket[k]; ok {
		existing.Votes = append(existing.Votes, votes...)
		existing.NumBallots += numBallots
		existing.FromSurplus = existing.FromSurplus || fromSurplus
		return
	}
	bucket[k] = &Parcel{
		TransferValue: tv,
		Votes:         append([]ballot.PartiallyDistributedVote{}, votes...),
		NumBallots:    numBallots,
		Provenance:    key,
		FromSurplus:   fromSurplus,
	}
}

// AddParcel reinserts an existing parcel verbatim under its own
// provenance key, rather than recomputing one — used when a surplus
// distribution sets aside parcels it didn't select (LastParcelUse), so
// their original arrival provenance is preserved instead of being
// reported as newly arrived.
func (s *Store) AddParcel(key ProvenanceKey, p *Parcel) {
	bucket := s.bucketFor(key)
	k := tvKey(p.TransferValue.String())
	if existing, ok := bucket[k]; ok {
		existing.Votes = append(existing.Votes, p.Votes...)
		existing.NumBallots += p.NumBallots
		existing.FromSurplus = existing.FromSurplus || p.FromSurplus
		return
	}
	bucket[k] = p
}

func (s *Store) bucketFor(key ProvenanceKey) map[tvKey]*Parcel {
	bucket, ok := s.buckets[key]
	if !ok {
		bucket = make(map[tvKey]*Parcel)
		s.buckets[key] = bucket
		s.order.Add(key)
	}
	return bucket
}

// ProvenanceKeys returns every provenance key currently holding at least
// one parcel, in a stable, deterministic order (sorted by field so the
// order never depends on map iteration).
func (s *Store) ProvenanceKeys() []ProvenanceKey {
	keys := s.order.List()
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Policy != b.Policy {
			return a.Policy < b.Policy
		}
		if a.OriginCount != b.OriginCount {
			return a.OriginCount < b.OriginCount
		}
		if a.IsFirstCount != b.IsFirstCount {
			return !a.IsFirstCount
		}
		return a.CandidateFrom < b.CandidateFrom
	})
	return keys
}

// Parcels returns every parcel within a provenance bucket, sorted by
// transfer value descending (the conventional order for distributing
// piles: most valuable parcels first).
func (s *Store) Parcels(key ProvenanceKey) []*Parcel {
	bucket := s.buckets[key]
	parcels := make([]*Parcel, 0, len(bucket))
	for _, p := range bucket {
		parcels = append(parcels, p)
	}
	sort.Slice(parcels, func(i, j int) bool {
		return parcels[i].TransferValue.Cmp(parcels[j].TransferValue) > 0
	})
	return parcels
}

// AllParcels returns every parcel across every provenance bucket, in the
// deterministic order given by ProvenanceKeys then transfer value.
func (s *Store) AllParcels() []*Parcel {
	var all []*Parcel
	for _, key := range s.ProvenanceKeys() {
		all = append(all, s.Parcels(key)...)
	}
	return all
}

// NumBallots returns the total ballot-paper count held across every
// parcel in the store.
func (s *Store) NumBallots() int {
	total := 0
	for _, p := range s.AllParcels() {
		total += p.NumBallots
	}
	return total
}

// TakeAll empties the store and returns every parcel it held, in
// deterministic order. Used when a candidate is elected or excluded and
// their entire pile must be distributed.
func (s *Store) TakeAll() []*Parcel {
	all := s.AllParcels()
	s.buckets = make(map[ProvenanceKey]map[tvKey]*Parcel)
	s.order = bagutil.New[ProvenanceKey]()
	return all
}
