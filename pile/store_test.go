// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package pile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/auspol/stv/ballot"
	"github.com/auspol/stv/numeric"
)

func TestStoreAddAndProvenanceKeys(t *testing.T) {
	s := NewStore(PartitionByOriginCount)

	votesA := []ballot.PartiallyDistributedVote{{N: 10, Prefs: []int{0, 1}}}
	votesB := []ballot.PartiallyDistributedVote{{N: 5, Prefs: []int{0, 1}}}

	s.Add(0, 0, 0, numeric.One(), votesA, false)
	s.Add(1, 2, 1, numeric.FromSurplus(1, 3), votesB, true)

	require.Equal(t, 15, s.NumBallots())
	keys := s.ProvenanceKeys()
	require.Len(t, keys, 2)
}

func TestStoreMergesSameTransferValue(t *testing.T) {
	s := NewStore(PartitionSingleBucket)
	votes1 := []ballot.PartiallyDistributedVote{{N: 3, Prefs: []int{0}}}
	votes2 := []ballot.PartiallyDistributedVote{{N: 4, Prefs: []int{0}}}

	s.Add(0, 0, 0, numeric.One(), votes1, false)
	s.Add(1, 1, 1, numeric.One(), votes2, false)

	keys := s.ProvenanceKeys()
	require.Len(t, keys, 1)
	parcels := s.Parcels(keys[0])
	require.Len(t, parcels, 1)
	require.Equal(t, 7, parcels[0].NumBallots)
}

func TestStoreTakeAllEmptiesStore(t *testing.T) {
	s := NewStore(PartitionSingleBucket)
	s.Add(0, 0, 0, numeric.One(), []ballot.PartiallyDistributedVote{{N: 1}}, false)
	parcels := s.TakeAll()
	require.Len(t, parcels, 1)
	require.Equal(t, 0, s.NumBallots())
}

func TestParcelsOrderedByTransferValueDescending(t *testing.T) {
	s := NewStore(PartitionSingleBucket)
	s.Add(0, 0, 0, numeric.FromSurplus(1, 4), []ballot.PartiallyDistributedVote{{N: 1}}, true)
	s.Add(1, 0, 0, numeric.One(), []ballot.PartiallyDistributedVote{{N: 1}}, false)

	parcels := s.Parcels(ProvenanceKey{Policy: PartitionSingleBucket})
	require.Len(t, parcels, 2)
	require.True(t, parcels[0].TransferValue.IsOne())
}

func TestParcelRetainsProvenanceAndSurplusFlag(t *testing.T) {
	s := NewStore(PartitionByOriginCount)
	s.Add(3, 7, 3, numeric.FromSurplus(1, 2), []ballot.PartiallyDistributedVote{{N: 2}}, true)

	parcels := s.AllParcels()
	require.Len(t, parcels, 1)
	require.True(t, parcels[0].FromSurplus)
	require.Equal(t, 3, parcels[0].Provenance.OriginCount)
	require.Equal(t, 7, parcels[0].Provenance.CandidateFrom)
}

func TestAddParcelPreservesOriginalProvenance(t *testing.T) {
	s := NewStore(PartitionByOriginCount)
	key := ProvenanceKey{Policy: PartitionByOriginCount, OriginCount: 2, CandidateFrom: 5}
	p := &Parcel{TransferValue: numeric.One(), Votes: []ballot.PartiallyDistributedVote{{N: 4}}, NumBallots: 4, Provenance: key, FromSurplus: true}

	s.AddParcel(key, p)
	require.Equal(t, 4, s.NumBallots())
	got := s.AllParcels()
	require.Len(t, got, 1)
	require.Equal(t, key, got[0].Provenance)
}
