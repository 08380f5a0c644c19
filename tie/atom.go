// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package tie

import (
	"fmt"
	"strconv"
	"strings"
)

// TieAtom is one parsed entry of the tie-atom grammar spec.md §6
// describes: "c1,c2/c3,c4:N:Usage" — the candidates tied on one side of a
// countback comparison, the candidates tied on the other, the count
// index N the tie arose at, and a free-form usage/situation label.
// ParseTieAtom and String convert between that text and this struct;
// nothing here turns an atom into a PreSuppliedOracle resolution.
type TieAtom struct {
	GroupA  []int
	GroupB  []int
	AtCount int
	Usage   string
}

// ParseTieAtom parses one "c1,c2/c3,c4:N:Usage" string.
func ParseTieAtom(s string) (TieAtom, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return TieAtom{}, fmt.Errorf("tie: malformed tie atom %q: expected 3 colon-separated fields", s)
	}
	groupsPart, countPart, usage := parts[0], parts[1], parts[2]

	groups := strings.SplitN(groupsPart, "/", 2)
	if len(groups) != 2 {
		return TieAtom{}, fmt.Errorf("tie: malformed tie atom %q: expected a single '/' separating the two groups", s)
	}

	groupA, err := parseCandidateList(groups[0])
	if err != nil {
		return TieAtom{}, fmt.Errorf("tie: malformed tie atom %q: group A: %w", s, err)
	}
	groupB, err := parseCandidateList(groups[1])
	if err != nil {
		return TieAtom{}, fmt.Errorf("tie: malformed tie atom %q: group B: %w", s, err)
	}

	count, err := strconv.Atoi(countPart)
	if err != nil {
		return TieAtom{}, fmt.Errorf("tie: malformed tie atom %q: count %q is not an integer", s, countPart)
	}
	if usage == "" {
		return TieAtom{}, fmt.Errorf("tie: malformed tie atom %q: usage label is empty", s)
	}

	return TieAtom{GroupA: groupA, GroupB: groupB, AtCount: count, Usage: usage}, nil
}

func parseCandidateList(s string) ([]int, error) {
	fields := strings.Split(s, ",")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("candidate %q is not an integer", f)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("candidate list is empty")
	}
	return out, nil
}

// String renders the tie atom back into its canonical grammar form.
func (a TieAtom) String() string {
	return fmt.Sprintf("%s/%s:%d:%s", joinInts(a.GroupA), joinInts(a.GroupB), a.AtCount, a.Usage)
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}
