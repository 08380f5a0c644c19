// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendCountAndLookup(t *testing.T) {
	tr := &Transcript{Metadata: Metadata{RulesProfileName: "WA2008", Vacancies: 1, Quota: "11"}}
	tr.AppendCount(CountRow{
		Major: 1,
		Name:  "Count 1",
		Candidates: []CandidateCountEntry{
			{Candidate: 0, Tally: "10"},
			{Candidate: 1, Tally: "20"},
		},
	})

	row, ok := tr.CountIndex(1, 0)
	require.True(t, ok)
	require.Equal(t, "Count 1", row.Name)

	tally, ok := row.CandidateTallyAt(1)
	require.True(t, ok)
	require.Equal(t, "20", tally)

	_, ok = row.CandidateTallyAt(99)
	require.False(t, ok)
}

func TestMarshalRoundTrip(t *testing.T) {
	tr := &Transcript{
		Metadata: Metadata{RulesProfileName: "ACT2021", Vacancies: 2, Quota: "100", TotalFormal: 299},
		Elected:  []int{3, 7},
	}
	tr.AppendCount(CountRow{Major: 1, Name: "Count 1", TransferValue: "1/1"})

	data, err := tr.Marshal()
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, tr.Metadata, got.Metadata)
	require.Equal(t, tr.Elected, got.Elected)
	require.Len(t, got.Counts, 1)
}
