package engine

import (
	"sort"

	"concretestv/internal/arithmetic"
	"concretestv/internal/countstate"
	"concretestv/internal/rules"
	"concretestv/internal/transcript"
)

// checkEarlyWin applies the NSW clause 11(2)/11(3) cannot-be-overtaken
// checks the profile enables. It only ever runs between counts (it is
// called from checkTermination, never mid-exclusion or mid-surplus). It
// reports done=true when the elections it performs fill every vacancy.
func (e *Engine) checkEarlyWin() (bool, error) {
	if e.profile.EarlyWin == rules.EarlyWinOff {
		return false, nil
	}
	remaining := e.state.VacanciesTotal - e.state.VacanciesFilled
	if remaining <= 0 {
		return false, nil
	}
	continuing := e.state.ContinuingCandidates()
	if len(continuing) <= remaining {
		return false, nil // the rule 11(1) analogue already covers this
	}
	if e.profile.EarlyWin == rules.EarlyWinLeadingCandidate && remaining != 1 {
		return false, nil
	}

	sorted := append([]int(nil), continuing...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return e.state.Tally[sorted[i]].Cmp(e.state.Tally[sorted[j]]) > 0
	})

	limit := remaining
	if e.profile.EarlyWin == rules.EarlyWinLeadingCandidate {
		limit = 1
	}

	surpluses := arithmetic.Zero()
	for _, ps := range e.state.PendingSurpluses {
		surpluses = surpluses.Add(ps.Surplus)
	}

	// Find the deepest cut j <= limit where the candidate at rank j still
	// strictly exceeds everything below the cut plus every undistributed
	// surplus. A tie at the boundary lands the tied candidate below the
	// cut, so it can never be elected by this check.
	winners := 0
	for j := 1; j <= limit; j++ {
		lower := surpluses
		for _, c := range sorted[j:] {
			lower = lower.Add(e.state.Tally[c])
		}
		if e.state.Tally[sorted[j-1]].Cmp(lower) > 0 {
			winners = j
		}
	}
	if winners == 0 {
		return false, nil
	}

	why := "leading candidate cannot be overtaken"
	if winners > 1 {
		why = "leading candidates cannot be overtaken"
	}
	entries := make([]transcript.ElectedEntry, 0, winners)
	for _, c := range sorted[:winners] {
		e.state.SetStatus(c, countstate.Elected)
		entries = append(entries, transcript.ElectedEntry{Who: c, Why: why})
	}
	if _, err := e.appendCount(transcript.Count{
		Status:          e.statusSnapshot(),
		Elected:         entries,
		ReasonCompleted: true,
	}); err != nil {
		return false, err
	}
	e.recordHistory()
	return e.state.VacanciesFilled >= e.state.VacanciesTotal, nil
}
