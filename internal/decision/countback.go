package decision

import (
	"sort"

	"concretestv/internal/arithmetic"
)

// CountBackMode selects how the count-back tie-break inspects tally history
// to discriminate among a tied set of candidates. The three modes reproduce
// genuinely different legislative readings, not a single algorithm with a
// boolean flag.
type CountBackMode int

const (
	// RequireAllDistinct only resolves a tied set at a prior count where
	// every member's tally differs from every other member's — federal
	// pre-2021 practice.
	RequireAllDistinct CountBackMode = iota
	// AnyDifference splits a tied set at the most recent prior count where
	// any two members differ, grouping by value at that count, and does not
	// recurse further into any sub-group that is still tied — AEC2013
	// practice.
	AnyDifference
	// Recursive splits a tied set the same way AnyDifference does, but then
	// recurses into every remaining tied sub-group using progressively
	// earlier counts until either singletons remain or history is
	// exhausted — Federal2021 practice.
	Recursive
)

// Snapshot is one count's recorded tally for every candidate, keyed by
// candidate id.
type Snapshot map[int]arithmetic.Tally

// Groups is an ordering of candidates from least to most favoured, with
// members of the same inner slice still tied against each other. A fully
// resolved ordering has one candidate per group.
type Groups [][]int

// Resolved reports whether every group has exactly one member.
func (g Groups) Resolved() bool {
	for _, grp := range g {
		if len(grp) != 1 {
			return false
		}
	}
	return true
}

// Flatten returns every candidate in increasing-favour order, ignoring group
// boundaries. Only meaningful once Resolved.
func (g Groups) Flatten() []int {
	var out []int
	for _, grp := range g {
		out = append(out, grp...)
	}
	return out
}

// ResolveCountBack applies mode to candidates using history, the
// chronological (earliest-first) sequence of per-count tally snapshots.
// The result is ordered from least to most favoured (the first group is the
// weakest — the exclusion candidate, if unresolved further, is drawn from
// here).
func ResolveCountBack(candidates []int, history []Snapshot, mode CountBackMode) Groups {
	switch mode {
	case RequireAllDistinct:
		return resolveRequireAllDistinct(candidates, history)
	case Recursive:
		return resolveRecursive(candidates, history, true)
	default: // AnyDifference
		return resolveRecursive(candidates, history, false)
	}
}

func resolveRequireAllDistinct(candidates []int, history []Snapshot) Groups {
	for i := len(history) - 1; i >= 0; i-- {
		snap := history[i]
		if allDistinct(candidates, snap) {
			return sortedSingletons(candidates, snap)
		}
	}
	return Groups{append([]int(nil), candidates...)}
}

func allDistinct(candidates []int, snap Snapshot) bool {
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		key := snap[c].RationalString()
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}

func sortedSingletons(candidates []int, snap Snapshot) Groups {
	sorted := append([]int(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return snap[sorted[i]].Cmp(snap[sorted[j]]) < 0
	})
	groups := make(Groups, 0, len(sorted))
	for _, c := range sorted {
		groups = append(groups, []int{c})
	}
	return groups
}

// resolveRecursive implements both AnyDifference (recurse=false) and
// Recursive (recurse=true): split the tied set at the most recent count with
// any difference, grouping by equal value; if recurse is set, repeat on
// every resulting group of size > 1 using the counts strictly before the
// split point.
func resolveRecursive(candidates []int, history []Snapshot, recurse bool) Groups {
	if len(candidates) <= 1 {
		return Groups{append([]int(nil), candidates...)}
	}
	for i := len(history) - 1; i >= 0; i-- {
		snap := history[i]
		if !anyDifference(candidates, snap) {
			continue
		}
		groups := splitByValue(candidates, snap)
		if !recurse {
			return groups
		}
		var out Groups
		remaining := history[:i]
		for _, grp := range groups {
			if len(grp) == 1 {
				out = append(out, grp)
				continue
			}
			out = append(out, resolveRecursive(grp, remaining, true)...)
		}
		return out
	}
	return Groups{append([]int(nil), candidates...)}
}

func anyDifference(candidates []int, snap Snapshot) bool {
	if len(candidates) == 0 {
		return false
	}
	first := snap[candidates[0]]
	for _, c := range candidates[1:] {
		if snap[c].Cmp(first) != 0 {
			return true
		}
	}
	return false
}

func splitByValue(candidates []int, snap Snapshot) Groups {
	sorted := append([]int(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return snap[sorted[i]].Cmp(snap[sorted[j]]) < 0
	})
	var groups Groups
	i := 0
	for i < len(sorted) {
		j := i + 1
		for j < len(sorted) && snap[sorted[j]].Cmp(snap[sorted[i]]) == 0 {
			j++
		}
		groups = append(groups, append([]int(nil), sorted[i:j]...))
		i = j
	}
	return groups
}
