package engine

import (
	"sort"

	"concretestv/internal/arithmetic"
	"concretestv/internal/countstate"
	"concretestv/internal/rules"
)

// bulkExclusionSet extends the single lowest continuing candidate (order[0])
// into the federal 273(13) bulk-exclusion group: repeatedly fold in the next
// lowest candidate while the accumulated tally of the group still cannot
// reach the tally of the next candidate above it, i.e. no combination of
// their votes could ever overtake the candidate currently above the group.
func bulkExclusionSet(order []int, tallyOf func(int) arithmetic.Tally) []int {
	if len(order) == 0 {
		return nil
	}
	group := []int{order[0]}
	total := tallyOf(order[0])
	for i := 1; i < len(order)-1; i++ {
		// order[i] joins the group only if the group's combined tally,
		// including order[i], still cannot reach the tally of the candidate
		// immediately above it. The last candidate never joins: there is
		// nobody above to compare against.
		combined := total.Add(tallyOf(order[i]))
		if combined.Cmp(tallyOf(order[i+1])) >= 0 {
			break
		}
		group = append(group, order[i])
		total = combined
	}
	return group
}

// chooseExclusionSet returns the candidate(s) to exclude this iteration:
// the lowest continuing candidate alone, or the bulk-exclusion group,
// according to profile.BulkExclusion. order is continuing candidates
// sorted lowest tally first (ties broken by the caller's tie-break pass).
func chooseExclusionSet(profile rules.Profile, order []int, tallyOf func(int) arithmetic.Tally) []int {
	if profile.BulkExclusion == rules.BulkExclusionOn && profile.BulkExclusionSupported {
		return bulkExclusionSet(order, tallyOf)
	}
	if len(order) == 0 {
		return nil
	}
	return order[:1]
}

// sortedHoldingsOldestFirst returns c's parcels ordered by the count they
// were acquired at (earliest first), the order in which an excluded
// candidate's ballots must be transferred.
func sortedHoldingsOldestFirst(holdings []countstate.Parcel) []countstate.Parcel {
	out := append([]countstate.Parcel(nil), holdings...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OriginCount < out[j].OriginCount })
	return out
}
