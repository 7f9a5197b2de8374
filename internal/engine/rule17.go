package engine

import (
	"sort"

	"concretestv/internal/arithmetic"
	"concretestv/internal/rules"
)

// negligibleSurplusMargin returns the gap between the two lowest continuing
// candidates' tallies: the largest a surplus could be without being able to
// change which of them is excluded next, if it were redistributed. false is
// returned when fewer than two continuing candidates remain.
func (e *Engine) negligibleSurplusMargin() (arithmetic.Tally, bool) {
	continuing := e.state.ContinuingCandidates()
	if len(continuing) < 2 {
		return arithmetic.Tally{}, false
	}
	tallies := make([]arithmetic.Tally, len(continuing))
	for i, c := range continuing {
		tallies[i] = e.state.Tally[c]
	}
	sort.Slice(tallies, func(i, j int) bool { return tallies[i].Cmp(tallies[j]) < 0 })
	return tallies[1].Sub(tallies[0]), true
}

// isNegligibleSurplus reports whether surplus is too small to change which
// continuing candidate is excluded next, the federal rule-17 trigger for
// deferring a distribution until after the exclusion.
func (e *Engine) isNegligibleSurplus(surplus arithmetic.Tally) bool {
	margin, ok := e.negligibleSurplusMargin()
	if !ok {
		return false
	}
	return surplus.Cmp(margin) <= 0
}

// selectPendingSurplus picks which pending surplus, if any, to distribute
// this step, honouring profile.Rule17. Rule17Off and
// Rule17AfterSurplusDistributions always take the largest pending surplus
// (the latter needs no extra deferral: by construction the largest
// remaining surplus has already waited behind every larger one).
// Rule17AfterExclusions additionally defers a negligible surplus — one that
// could not change who is excluded next — behind the upcoming exclusion,
// leaving it pending so the next step() call (after that exclusion has run)
// reconsiders it against the narrowed continuing field.
func (e *Engine) selectPendingSurplus() (int, bool) {
	best, ok := e.largestPendingSurplus()
	if !ok {
		return 0, false
	}
	if e.profile.Rule17 != rules.Rule17AfterExclusions {
		return best, true
	}
	if !e.isNegligibleSurplus(e.state.PendingSurpluses[best].Surplus) {
		return best, true
	}
	if _, ok := e.negligibleSurplusMargin(); !ok {
		return best, true // no exclusion possible to defer behind
	}
	return 0, false
}
