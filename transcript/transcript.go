// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transcript is the immutable, append-only record an STV count
// produces: one CountRow per count (or sub-count), plus the metadata
// needed to reproduce it (rules profile name, quota, vacancies). It is
// the DoP — distribution-of-preferences transcript — spec.md §3 and §4.6
// describe.
package transcript

import (
	"fmt"

	"github.com/auspol/stv/codec"
)

// CandidateAction records a candidate's status as of a count. A
// candidate elected or excluded at some count carries that action in
// that row and in every later row, so a single row does not by itself
// say which candidates were decided at that count.
type CandidateAction int

const (
	ActionNone CandidateAction = iota
	ActionElected
	ActionExcluded
)

// CandidateCountEntry is one candidate's tally and status after a count.
type CandidateCountEntry struct {
	Candidate int             `json:"candidate"`
	Tally     string          `json:"tally"` // rendered via numeric.Tally.String
	Action    CandidateAction `json:"action"`
}

// CountRow is one row of the transcript: the state of the count after
// processing one count (or sub-count) of a parcel.
type CountRow struct {
	Major int    `json:"major"`
	Minor int    `json:"minor"`
	Name  string `json:"name"`

	// Reason classifies why this count happened: "first_preferences",
	// "surplus", "exclusion", or one of the election-shortcut reasons.
	// retroscope uses it, together with DistributedFrom, to know whose
	// pile this row's parcel(s) came from without re-running the count.
	Reason string `json:"reason"`
	// DistributedFrom lists the candidate(s) whose pile was distributed
	// to produce this row; empty for a first-preference count or a
	// shortcut that elects directly without distributing a pile.
	DistributedFrom []int `json:"distributed_from,omitempty"`

	// TransferValue, PapersConsidered, PapersDistributed and
	// PapersSetAside describe the parcel that produced this row: at what
	// transfer value, how many ballot papers were considered, how many of
	// them actually moved, and how many were set aside.
	TransferValue      string `json:"transfer_value"`
	PapersConsidered   int    `json:"papers_considered"`
	PapersDistributed  int    `json:"papers_distributed"`
	PapersSetAside     int    `json:"papers_set_aside"`

	Candidates []CandidateCountEntry `json:"candidates"`

	// ExhaustedTally and RoundingTally track ballots that ran out of
	// preferences, and the cumulative residual from rounding down
	// fractional transfer values, respectively — both are
	// numeric.SignedTally rendered as strings.
	ExhaustedTally string `json:"exhausted_tally"`
	RoundingTally  string `json:"rounding_tally"`

	// TieBreak records a human-auditable description of a tie
	// resolution consulted during this count, empty if none occurred.
	TieBreak string `json:"tie_break,omitempty"`
}

// Metadata describes the election and rules profile a transcript was
// produced under.
type Metadata struct {
	RulesProfileName string `json:"rules_profile"`
	Vacancies        int    `json:"vacancies"`
	Quota            string `json:"quota"`
	TotalFormal      int    `json:"total_formal"`
}

// Transcript is the complete, ordered record of an STV count.
type Transcript struct {
	Metadata Metadata   `json:"metadata"`
	Counts   []CountRow `json:"counts"`
	Elected  []int      `json:"elected"`
}

// AppendCount appends a new row to the transcript. Transcripts are
// append-only by convention: nothing in this package ever mutates or
// removes an existing row.
func (t *Transcript) AppendCount(row CountRow) {
	t.Counts = append(t.Counts, row)
}

// CountIndex locates a row by its (major, minor) count index.
func (t *Transcript) CountIndex(major, minor int) (CountRow, bool) {
	for _, row := range t.Counts {
		if row.Major == major && row.Minor == minor {
			return row, true
		}
	}
	return CountRow{}, false
}

// Marshal serializes the transcript via the shared codec envelope.
func (t *Transcript) Marshal() ([]byte, error) {
	return codec.Codec.Marshal(codec.CurrentVersion, t)
}

// Unmarshal deserializes a transcript previously produced by Marshal.
func Unmarshal(data []byte) (*Transcript, error) {
	var t Transcript
	version, err := codec.Codec.Unmarshal(data, &t)
	if err != nil {
		return nil, fmt.Errorf("transcript: unmarshal: %w", err)
	}
	if version != codec.CurrentVersion {
		return nil, fmt.Errorf("transcript: unsupported codec version %d", version)
	}
	return &t, nil
}

// CandidateTallyAt returns a candidate's rendered tally string at a given
// count row, or false if the candidate has no entry in that row. Rows
// written by count.Run list every candidate not excluded before counting
// began, elected and excluded candidates included.
func (row CountRow) CandidateTallyAt(candidate int) (string, bool) {
	for _, c := range row.Candidates {
		if c.Candidate == candidate {
			return c.Tally, true
		}
	}
	return "", false
}
