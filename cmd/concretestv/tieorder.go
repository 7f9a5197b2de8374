package main

import (
	"sort"

	"concretestv/internal/decision"
)

// explicitOrderOracle breaks a tie using a single operator-supplied
// increasing-favour ordering (the CLI's --tie flag), rather than the
// per-purpose favoured/disfavoured resolutions a ballot file can carry.
// Candidates absent from Order keep their relative countback order and are
// placed before (less favoured than) every candidate Order does mention.
type explicitOrderOracle struct {
	Order    []int
	Fallback decision.Oracle
}

func (o explicitOrderOracle) Break(tied []int, purpose decision.Purpose) ([]int, string, error) {
	rank := make(map[int]int, len(o.Order))
	for i, c := range o.Order {
		rank[c] = i
	}

	mentioned := make([]int, 0, len(tied))
	unmentioned := make([]int, 0, len(tied))
	for _, c := range tied {
		if _, ok := rank[c]; ok {
			mentioned = append(mentioned, c)
		} else {
			unmentioned = append(unmentioned, c)
		}
	}
	if len(mentioned) == 0 {
		if o.Fallback != nil {
			return o.Fallback.Break(tied, purpose)
		}
		return nil, "", decision.ErrUnresolvedTie
	}

	sort.Slice(mentioned, func(i, j int) bool { return rank[mentioned[i]] < rank[mentioned[j]] })
	ordering := append(unmentioned, mentioned...)
	return ordering, "explicit-tie-flag", nil
}
