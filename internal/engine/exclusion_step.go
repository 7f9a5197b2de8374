package engine

import (
	"concretestv/internal/arithmetic"
	"concretestv/internal/countstate"
	"concretestv/internal/decision"
	"concretestv/internal/rules"
	"concretestv/internal/transcript"
)

// exclude runs one full exclusion: choosing the candidate(s) to exclude
// (singly or in bulk), transferring their parcels oldest-first, and
// re-checking for newly-elected candidates after every sub-transfer.
func (e *Engine) exclude() error {
	continuing := e.state.ContinuingCandidates()
	order, err := e.tieBreakErr(continuing, decision.PurposeExclude)
	if err != nil {
		return err
	}
	// order is increasing-favour; the least favoured candidate(s) are
	// excluded, so it is already ascending-tally for bulk grouping.
	ascending := append([]int(nil), order...)

	excludeSet := chooseExclusionSet(e.profile, ascending, func(c int) arithmetic.Tally { return e.state.Tally[c] })
	if len(excludeSet) == 0 {
		return nil
	}

	for _, c := range excludeSet {
		e.state.SetStatus(c, countstate.Excluded)
	}

	if e.shortCircuitOnExclusionTarget() {
		// AEC2019-timing rule 18 analogue: once the exclusion target is
		// determined, the candidates left continuing exactly fill the
		// remaining vacancies, so none of the excluded candidate's ballots
		// need transferring. Record the exclusion as a row with no portion;
		// the next step's termination check elects the survivors.
		if _, err := e.appendCount(transcript.Count{
			Reason:          transcript.Reason{Elimination: excludeSet},
			Status:          e.statusSnapshot(),
			NotContinuing:   excludeSet,
			ReasonCompleted: true,
		}); err != nil {
			return err
		}
		e.recordHistory()
		return nil
	}

	truncated := false
	for _, c := range excludeSet {
		if truncated {
			break
		}
		holdings := sortedHoldingsOldestFirst(e.state.Holdings(c))
		for pi, parcel := range holdings {
			// Consume this parcel only; parcels not yet transferred stay
			// credited to c so the conservation invariant holds after every
			// sub-transfer, and a rule-18 truncation leaves them in place.
			e.state.ReplaceHoldings(c, holdings[pi+1:])
			e.state.RecomputeFromHoldings(c)

			countIndex := e.rec.Len()
			roundExhausted := e.profile.RoundExhaustedDuringExclusion
			result := distribute(e.table, parcel.Refs, parcel.TransferValue.Value, countIndex, e.profile, roundExhausted, e.state.StatusOf)
			// The parcel's held value is what leaves c, and it may already
			// carry rounding applied at the count that created it; anything
			// of it not received or exhausted is this sub-transfer's loss.
			result.roundingLoss = parcel.Value().Sub(receivedValue(result)).Sub(result.exhaustedValue)
			e.applyDistribution(result)

			if _, err := e.appendCount(transcript.Count{
				Reason: transcript.Reason{Elimination: excludeSet},
				Portion: &transcript.Portion{
					TransferValue:        parcel.TransferValue,
					PapersCameFromCounts: []int{parcel.OriginCount},
				},
				Status:          e.statusSnapshot(),
				NotContinuing:   excludeSet,
				ReasonCompleted: true,
			}); err != nil {
				return err
			}
			e.recordHistory()

			before := e.state.VacanciesFilled
			if err := e.electReachingQuota(countIndex); err != nil {
				return err
			}
			if e.shouldTruncateAfterElection(before) {
				truncated = true
				break
			}
		}
	}
	return nil
}

// shortCircuitOnExclusionTarget reports whether the remainder of a
// just-determined exclusion can be skipped entirely because the candidates
// still continuing exactly fill the remaining vacancies. Only profiles with
// Rule18AfterDeterminingExclusionTarget timing fire this check here; the
// AfterElection timing waits for a candidate to actually reach quota
// mid-transfer (see shouldTruncateAfterElection).
func (e *Engine) shortCircuitOnExclusionTarget() bool {
	if e.profile.Rule18 != rules.Rule18AfterDeterminingExclusionTarget {
		return false
	}
	continuing := len(e.state.ContinuingCandidates())
	remaining := e.state.VacanciesTotal - e.state.VacanciesFilled
	return continuing > 0 && continuing <= remaining
}

func (e *Engine) shouldTruncateAfterElection(vacanciesFilledBefore int) bool {
	if e.profile.Rule18 == rules.Rule18Never {
		return false
	}
	if e.state.VacanciesFilled <= vacanciesFilledBefore {
		return false
	}
	return e.state.VacanciesFilled >= e.state.VacanciesTotal
}
