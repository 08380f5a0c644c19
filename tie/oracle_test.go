// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package tie

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/auspol/stv/rules"
)

func TestDeterministicOracle(t *testing.T) {
	o := DeterministicOracle{}
	d, err := o.Resolve(Situation{Kind: rules.TieForExclusion, Candidates: []int{5, 2, 8}})
	require.NoError(t, err)
	require.Equal(t, 2, d.Winner)
}

func TestPreSuppliedOracleFallsBack(t *testing.T) {
	s := Situation{Kind: rules.TieForExclusion, Candidates: []int{1, 2}, AtCount: 3}
	o := NewPreSuppliedOracle(map[string]int{}, DeterministicOracle{})
	d, err := o.Resolve(s)
	require.NoError(t, err)
	require.Equal(t, 1, d.Winner)

	o2 := NewPreSuppliedOracle(map[string]int{s.Key(): 2}, DeterministicOracle{})
	d2, err := o2.Resolve(s)
	require.NoError(t, err)
	require.Equal(t, 2, d2.Winner)
}

func TestSeededOracleIsReproducible(t *testing.T) {
	s := Situation{Kind: rules.TieForElection, Candidates: []int{4, 9, 1}, AtCount: 2}
	o1 := NewSeededOracle(42)
	o2 := NewSeededOracle(42)

	d1, err := o1.Resolve(s)
	require.NoError(t, err)
	d2, err := o2.Resolve(s)
	require.NoError(t, err)
	require.Equal(t, d1.Winner, d2.Winner)
}

func TestTracingOracleRecordsConsultations(t *testing.T) {
	o := NewTracingOracle(DeterministicOracle{})
	s := Situation{Kind: rules.TieForExclusion, Candidates: []int{3, 1}}
	_, err := o.Resolve(s)
	require.NoError(t, err)
	require.Len(t, o.Trace, 1)
	require.Equal(t, s.Key(), o.Trace[0].Key())
}

func TestCountbackAnyDifference(t *testing.T) {
	history := func(count, candidate int) (string, bool) {
		data := map[int]map[int]string{
			1: {1: "10", 2: "10"},
			2: {1: "12", 2: "11"},
		}
		v, ok := data[count][candidate]
		return v, ok
	}
	d, err := Countback(rules.TieByCountbackAnyDifference, history, 3, []int{1, 2})
	require.NoError(t, err)
	require.Equal(t, 2, d.Winner)
}

func TestCountbackExhaustsWithoutDiscriminator(t *testing.T) {
	history := func(count, candidate int) (string, bool) {
		return "10", true
	}
	_, err := Countback(rules.TieByCountbackAnyDifference, history, 2, []int{1, 2})
	require.Error(t, err)
}
