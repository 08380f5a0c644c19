// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package retroscope answers, for any completed or partial transcript,
// the question "whose pile is this ballot paper sitting in at count N,
// and at what transfer value did it arrive there?" without re-running
// the count engine. It replays a transcript.Transcript's rows in order
// against the original ballot.ElectionData, reconstructing per-ballot
// pile membership incrementally — the same role ConcreteSTV's
// Retroscope plays for its audit tooling.
package retroscope

import (
	"errors"
	"fmt"

	"github.com/auspol/stv/ballot"
	"github.com/auspol/stv/numeric"
	"github.com/auspol/stv/transcript"
)

// PileStatus records whether a ballot paper is sitting in a continuing
// candidate's pile, has been set aside, or has exhausted its preferences
// entirely. Replay moves whole piles (see update), so it never leaves a
// vote SetAside.
type PileStatus int

const (
	InPile PileStatus = iota
	SetAside
	Exhausted
)

// VoteIndex addresses one ballot-paper group: indices [0, len(BTL)) name
// a BTL vote directly; indices [len(BTL), len(BTL)+len(ATL)) name an ATL
// vote, offset by the BTL count.
type VoteIndex int

type voteStatus struct {
	status      PileStatus
	countArrived int
	upto        int
	prefs       []int
}

// Retroscope is a replayed view of an STV count's pile assignments as of
// the last row Apply was given.
type Retroscope struct {
	data   *ballot.ElectionData
	votes  []voteStatus
	numBTL int

	continuing map[int]bool
	elected    []int

	count int

	// transferValues[i] is the transfer value in effect for count i
	// (1-indexed to match transcript.CountRow.Major; index 0 unused).
	transferValues []numeric.TransferValue

	// pilesByCandidate[c][count] is the set of votes added to candidate
	// c's pile during that count.
	pilesByCandidate []map[int][]VoteIndex
}

// ErrOutOfOrder is returned by Apply when a row is applied before the
// previous one, or skips a count.
var ErrOutOfOrder = errors.New("retroscope: counts must be applied in order without skipping any")

// New builds a Retroscope for data, with ineligible candidates (e.g.
// those pre-excluded before counting began) absent from the continuing
// set from the start.
func New(data *ballot.ElectionData, arena *ballot.Arena, ineligible []int) *Retroscope {
	r := &Retroscope{
		data:       data,
		numBTL:     len(data.BTL),
		continuing: make(map[int]bool, len(data.Candidates)),
		count:      0,
	}

	r.votes = make([]voteStatus, 0, len(data.BTL)+len(data.ATL))
	for _, v := range data.BTL {
		r.votes = append(r.votes, voteStatus{status: InPile, prefs: v.Candidates})
	}
	for i := range data.ATL {
		r.votes = append(r.votes, voteStatus{status: InPile, prefs: arena.Sequence(i)})
	}

	ineligibleSet := make(map[int]bool, len(ineligible))
	for _, c := range ineligible {
		ineligibleSet[c] = true
	}
	for _, c := range data.Candidates {
		if !ineligibleSet[c.Index] {
			r.continuing[c.Index] = true
		}
	}

	r.pilesByCandidate = make([]map[int][]VoteIndex, len(data.Candidates))
	for i := range r.pilesByCandidate {
		r.pilesByCandidate[i] = make(map[int][]VoteIndex)
	}
	r.transferValues = make([]numeric.TransferValue, 1) // index 0 unused
	return r
}

// Count returns the last count index applied.
func (r *Retroscope) Count() int { return r.count }

// Continuing reports whether a candidate is still continuing as of the
// last applied count.
func (r *Retroscope) Continuing(c int) bool { return r.continuing[c] }

// Elected returns every candidate elected as of the last applied count,
// in order of election.
func (r *Retroscope) Elected() []int { return append([]int{}, r.elected...) }

// TransferValueAt returns the transfer value ballots arrived at during
// the given count.
func (r *Retroscope) TransferValueAt(count int) (numeric.TransferValue, error) {
	if count < 1 || count >= len(r.transferValues) {
		return numeric.TransferValue{}, fmt.Errorf("retroscope: no transfer value recorded for count %d", count)
	}
	return r.transferValues[count], nil
}

// Apply advances the Retroscope by one transcript row, in major-count
// order. minor rows (sub-counts of a single major count sharing the same
// parcel move) are folded into the major count they belong to; only the
// first row seen for a given major triggers a pile update, since every
// minor row of one major count shares the same set of newly-excluded
// candidates and the same destination set.
func (r *Retroscope) Apply(row transcript.CountRow) error {
	if row.Major != r.count+1 {
		if row.Major == r.count && row.Minor > 0 {
			// A further sub-count of the major count already applied;
			// nothing more to do for pile membership bookkeeping.
			return nil
		}
		return fmt.Errorf("%w: expected major count %d, got %d", ErrOutOfOrder, r.count+1, row.Major)
	}
	r.count = row.Major

	tv, err := numeric.StringSerializedRational(row.TransferValue)
	if err != nil {
		return fmt.Errorf("retroscope: parsing transfer value for count %d: %w", row.Major, err)
	}
	r.transferValues = append(r.transferValues, tv)

	// Candidates excluded this count must already be absent from
	// r.continuing before their pile is redistributed below, or a vote
	// would see its own just-excluded candidate as still continuing and
	// fail to advance past it — mirroring count.State.excludeLowest,
	// which deletes from its local continuing set before redistributing.
	for _, entry := range row.Candidates {
		if entry.Action == transcript.ActionExcluded {
			delete(r.continuing, entry.Candidate)
		}
	}

	switch row.Reason {
	case "first_preferences":
		r.firstPreferences()
	case "surplus", "exclusion":
		r.update(row.DistributedFrom)
	default:
		// Election shortcuts move no pile; only the continuing/elected
		// sets change, applied below from row.Candidates.
	}

	for _, entry := range row.Candidates {
		if entry.Action == transcript.ActionElected && !r.isElected(entry.Candidate) {
			delete(r.continuing, entry.Candidate)
			r.elected = append(r.elected, entry.Candidate)
		}
	}
	return nil
}

func (r *Retroscope) isElected(c int) bool {
	for _, e := range r.elected {
		if e == c {
			return true
		}
	}
	return false
}

// firstPreferences distributes every vote to its first continuing
// preference.
func (r *Retroscope) firstPreferences() {
	going := make([][]VoteIndex, len(r.data.Candidates))
	for i := range r.votes {
		r.advance(VoteIndex(i), going)
	}
	r.commit(going)
}

// update moves every vote currently sitting in one of froms' piles for
// the count just completed on to the next continuing preference.
func (r *Retroscope) update(froms []int) {
	going := make([][]VoteIndex, len(r.data.Candidates))
	for _, from := range froms {
		pile := r.pilesByCandidate[from]
		for fromCount, indices := range pile {
			for _, vi := range indices {
				r.advance(vi, going)
			}
			delete(pile, fromCount)
		}
		// Every origin count of from's pile was moved above, so this loop
		// finds nothing: a last-parcel surplus method that moves only part
		// of a pile is not reproduced, and no vote is marked SetAside.
		for _, indices := range pile {
			for _, vi := range indices {
				r.votes[vi].status = SetAside
			}
		}
	}
	r.commit(going)
}

func (r *Retroscope) advance(vi VoteIndex, going [][]VoteIndex) {
	v := &r.votes[vi]
	v.countArrived = r.count
	if v.status != InPile {
		return
	}
	for v.upto < len(v.prefs) && !r.continuing[v.prefs[v.upto]] {
		v.upto++
	}
	if v.upto == len(v.prefs) {
		v.status = Exhausted
		return
	}
	dest := v.prefs[v.upto]
	going[dest] = append(going[dest], vi)
}

func (r *Retroscope) commit(going [][]VoteIndex) {
	for candidate, votes := range going {
		if len(votes) > 0 {
			r.pilesByCandidate[candidate][r.count] = votes
		}
	}
}

// CandidateOf returns the candidate whose pile a vote currently sits in,
// or false if it has been set aside or exhausted.
func (r *Retroscope) CandidateOf(vi VoteIndex) (int, bool) {
	v := r.votes[vi]
	if v.status != InPile || v.upto >= len(v.prefs) {
		return 0, false
	}
	return v.prefs[v.upto], true
}

// StatusOf returns a vote's current pile status and the count it last
// moved at.
func (r *Retroscope) StatusOf(vi VoteIndex) (PileStatus, int) {
	v := r.votes[vi]
	return v.status, v.countArrived
}

// IsATL reports whether a vote index names an ATL vote.
func (r *Retroscope) IsATL(vi VoteIndex) bool { return int(vi) >= r.numBTL }

// NumVotes returns the total number of BTL-plus-ATL vote groups tracked.
func (r *Retroscope) NumVotes() int { return len(r.votes) }

// PilesOf returns the vote groups currently sitting in a candidate's pile,
// keyed by the count they arrived at — margin.ChooseVotes uses this to
// find ballots to perturb, preferring high-transfer-value origin counts.
func (r *Retroscope) PilesOf(candidate int) map[int][]VoteIndex {
	return r.pilesByCandidate[candidate]
}

// Prefs returns a vote's full preference list and its current cursor.
func (r *Retroscope) Prefs(vi VoteIndex) ([]int, int) {
	v := r.votes[vi]
	return v.prefs, v.upto
}

// Data returns the election data this Retroscope was built from.
func (r *Retroscope) Data() *ballot.ElectionData { return r.data }

// NumBTL returns the number of BTL vote groups — VoteIndex values below
// this are BTL, at or above it are ATL, offset by this count.
func (r *Retroscope) NumBTL() int { return r.numBTL }

// Replay builds a Retroscope and applies every row of tr in order,
// returning the fully-replayed state.
func Replay(data *ballot.ElectionData, arena *ballot.Arena, tr *transcript.Transcript, ineligible []int) (*Retroscope, error) {
	r := New(data, arena, ineligible)
	seenMajor := make(map[int]bool)
	for _, row := range tr.Counts {
		if seenMajor[row.Major] && row.Minor > 0 {
			continue
		}
		seenMajor[row.Major] = true
		if err := r.Apply(row); err != nil {
			return nil, err
		}
	}
	return r, nil
}
