package engine

import (
	"math/big"
	"sort"

	"concretestv/internal/arithmetic"
	"concretestv/internal/countstate"
	"concretestv/internal/rules"
	"concretestv/internal/transcript"
)

// distributeSurplus pops the pending surplus at idx and distributes it,
// dispatching to the single-pass (federal/ACT) or per-transfer-value (NSW
// 2021) algorithm per profile.SurplusMethod.
func (e *Engine) distributeSurplus(idx int) error {
	ps := e.state.PendingSurpluses[idx]
	e.state.PendingSurpluses = append(e.state.PendingSurpluses[:idx], e.state.PendingSurpluses[idx+1:]...)

	if e.profile.SurplusMethod == rules.SurplusWeightedInclusivePerTV {
		return e.distributeSurplusPerTV(ps.Candidate, ps.Surplus)
	}
	return e.distributeSurplusSinglePass(ps.Candidate, ps.Surplus)
}

// distributeSurplusSinglePass implements inclusive Gregory (federal) and
// last-parcel Gregory (ACT): one transfer value computed from the whole
// relevant parcel set, applied in a single count row.
func (e *Engine) distributeSurplusSinglePass(candidate int, surplus arithmetic.Tally) error {
	holdings := e.state.Holdings(candidate)
	parcels := parcelsForSurplus(e.profile, holdings)
	set := gatherSurplusSet(parcels)
	tv := newTransferValue(e.profile, surplus, set)

	countIndex := e.rec.Len()
	result := distribute(e.table, set.refs, tv, countIndex, e.profile, false, e.state.StatusOf)
	// The candidate releases exactly the surplus; whatever of it was not
	// received or exhausted — per-candidate truncation, or an ACT transfer
	// value capped below surplus/papers — is lost to rounding.
	result.roundingLoss = surplus.Sub(receivedValue(result)).Sub(result.exhaustedValue)
	e.applyDistribution(result)
	e.retainQuota(candidate, parcels, holdings)

	fromCounts := sortedCountKeys(set.fromCounts)
	if _, err := e.appendCount(transcript.Count{
		Reason: transcript.Reason{ExcessDistribution: &candidate},
		Portion: &transcript.Portion{
			TransferValue:        arithmetic.NewTransferValue(tv),
			PapersCameFromCounts: fromCounts,
		},
		CreatedTransferValue: &transcript.CreatedTransferValue{
			TransferValue:     arithmetic.NewTransferValue(tv),
			Surplus:           surplus,
			BallotsConsidered: set.papers,
			ContinuingBallots: set.papers - result.exhaustedPapers,
		},
		Status:          e.statusSnapshot(),
		ReasonCompleted: true,
	}); err != nil {
		return err
	}
	e.recordHistory()
	return e.electReachingQuota(countIndex)
}

// distributeSurplusPerTV implements the NSW 2021 style: one sub-transfer
// per distinct transfer value the candidate holds, processed in descending
// transfer-value order, each its own count row.
func (e *Engine) distributeSurplusPerTV(candidate int, surplus arithmetic.Tally) error {
	holdings := e.state.Holdings(candidate)
	groups := groupByDescendingTV(holdings)
	remainingSurplus := surplus
	candidateTotal := e.state.Tally[candidate]
	remaining := append([]countstate.Parcel(nil), holdings...)

	for _, group := range groups {
		if remainingSurplus.Sign() <= 0 {
			break
		}
		set := gatherSurplusSet(group)
		fraction := surplusFraction(remainingSurplus, candidateTotal, e.aggregateExhaustedForSurplusFraction(), e.profile)
		tv := fraction.Mul(set.originalTV.Value)
		if one := arithmetic.One(); one.Rat().Cmp(tv.Rat()) < 0 {
			tv = one
		}

		countIndex := e.rec.Len()
		result := distribute(e.table, set.refs, tv, countIndex, e.profile, false, e.state.StatusOf)

		// The sub-transfer's parcels leave the candidate at the new value;
		// the candidate's tally drops by exactly what arrived elsewhere
		// (received, exhausted, or lost to rounding), keeping conservation
		// after every row. The quota retained is settled after the loop.
		released := receivedValue(result).Add(result.exhaustedValue).Add(result.roundingLoss)
		remaining = withoutGroup(remaining, group)
		tallyBefore := e.state.Tally[candidate]
		e.state.ReplaceHoldings(candidate, remaining)
		e.state.RecomputeFromHoldings(candidate)
		e.state.Tally[candidate] = tallyBefore.Sub(released)
		e.applyDistribution(result)

		fromCounts := sortedCountKeys(set.fromCounts)
		if _, err := e.appendCount(transcript.Count{
			Reason: transcript.Reason{ExcessDistribution: &candidate},
			Portion: &transcript.Portion{
				TransferValue:        arithmetic.NewTransferValue(tv),
				PapersCameFromCounts: fromCounts,
			},
			CreatedTransferValue: &transcript.CreatedTransferValue{
				TransferValue:         arithmetic.NewTransferValue(tv),
				Surplus:               remainingSurplus,
				BallotsConsidered:     set.papers,
				ContinuingBallots:     set.papers - result.exhaustedPapers,
				OriginalTransferValue: &set.originalTV,
			},
			Status:          e.statusSnapshot(),
			ReasonCompleted: true,
		}); err != nil {
			return err
		}
		e.recordHistory()
		if err := e.electReachingQuota(countIndex); err != nil {
			return err
		}

		transferred := new(big.Rat).Mul(tv.Rat(), big.NewRat(int64(set.papers), 1))
		remainingSurplus = remainingSurplus.Sub(arithmetic.FromRat(transferred))
	}

	// Settle the quota the candidate retains: whatever the sub-transfers
	// left above (or, under the literal fraction reading, below) quota is
	// rounding gain/loss, not votes held.
	residual := e.state.Tally[candidate].Sub(e.state.Quota)
	e.state.ReplaceHoldings(candidate, nil)
	e.state.RecomputeFromHoldings(candidate)
	e.state.Tally[candidate] = e.state.Quota
	e.state.AddRoundingLoss(residual)
	return nil
}

// withoutGroup removes the parcels of one transfer-value group from a
// holding list, comparing by identity of the underlying ref slices (a
// parcel appears in exactly one group).
func withoutGroup(remaining []countstate.Parcel, group []countstate.Parcel) []countstate.Parcel {
	out := remaining[:0:0]
	for _, p := range remaining {
		drop := false
		for _, g := range group {
			if len(p.Refs) == len(g.Refs) && len(p.Refs) > 0 && &p.Refs[0] == &g.Refs[0] {
				drop = true
				break
			}
			if len(p.Refs) == 0 && len(g.Refs) == 0 && p.OriginCount == g.OriginCount && p.TransferValue.SameAs(g.TransferValue) {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, p)
		}
	}
	return out
}

// aggregateExhaustedForSurplusFraction returns the exhausted-value reading
// profile.AggregateExhaustedAcrossSubTransfers selects for a per-TV surplus
// sub-transfer's fraction denominator: the value-weighted running exhausted
// tally ("sum at transfer values"), or the raw exhausted paper count
// regardless of the transfer value each arrived at ("count at arrival
// transfer").
func (e *Engine) aggregateExhaustedForSurplusFraction() arithmetic.Tally {
	if e.profile.AggregateExhaustedAcrossSubTransfers {
		return e.state.ExhaustedTally
	}
	return arithmetic.FromInt64(e.state.ExhaustedPapers)
}

// surplusFraction computes surplus / (candidate total - aggregate exhausted
// value), the NSW 2021 ratio applied to each sub-transfer's original
// transfer value. A denominator of exactly zero (every vote exhausted)
// makes the sub-transfer zero under either reading. Otherwise the capped
// profile clamps any fraction above 1 — or below 0, which a negative
// denominator produces — back to 1, while the literal profile applies the
// fraction exactly as clause 7(4)(a) computes it.
func surplusFraction(surplus, candidateTotal, aggregateExhausted arithmetic.Tally, profile rules.Profile) arithmetic.Fraction {
	denom := candidateTotal.Sub(aggregateExhausted)
	if denom.Sign() == 0 {
		return arithmetic.NewFraction(0, 1)
	}
	ratioRat := new(big.Rat).Quo(surplus.Rat(), denom.Rat())
	ratio := arithmetic.NewFractionFromBigInts(ratioRat.Num(), ratioRat.Denom())
	if !profile.NegativeRoundingLossAllowed {
		if one := arithmetic.One(); ratio.Rat().Sign() < 0 || one.Rat().Cmp(ratio.Rat()) < 0 {
			return one
		}
	}
	return ratio
}

// retainQuota updates candidate's holdings/tally after a single-pass
// surplus distribution: inclusive Gregory consumes every parcel that fed
// the distribution, last-parcel Gregory consumes only the last one. The
// candidate's tally is fixed at quota, the value it is defined to retain,
// rather than recomputed from the (now incomplete) remaining holdings.
func (e *Engine) retainQuota(candidate int, consumed, original []countstate.Parcel) {
	remaining := original[:len(original)-len(consumed)]
	e.state.ReplaceHoldings(candidate, remaining)
	e.state.RecomputeFromHoldings(candidate)
	e.state.Tally[candidate] = e.state.Quota
}

func (e *Engine) applyDistribution(result distributionResult) {
	for _, c := range sortedCandidateKeys(result.receiving) {
		e.state.AddParcel(c, result.receiving[c])
	}
	e.state.AddExhausted(result.exhaustedValue, int64(result.exhaustedPapers))
	e.state.AddRoundingLoss(result.roundingLoss)
}

func sortedCountKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sortInts(out)
	return out
}

func sortedCandidateKeys(m map[int]countstate.Parcel) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sortInts(out)
	return out
}

// groupByDescendingTV groups holdings by their transfer value, one group per
// distinct value, ordered from highest to lowest transfer value.
func groupByDescendingTV(holdings []countstate.Parcel) [][]countstate.Parcel {
	var order []arithmetic.Fraction
	byValue := map[string][]countstate.Parcel{}
	for _, p := range holdings {
		key := p.TransferValue.Value.String()
		if _, ok := byValue[key]; !ok {
			order = append(order, p.TransferValue.Value)
		}
		byValue[key] = append(byValue[key], p)
	}
	sortFractionsDescending(order)
	groups := make([][]countstate.Parcel, 0, len(order))
	for _, f := range order {
		groups = append(groups, byValue[f.String()])
	}
	return groups
}

func sortInts(s []int) { sort.Ints(s) }

func sortFractionsDescending(fs []arithmetic.Fraction) {
	sort.SliceStable(fs, func(i, j int) bool { return fs[i].Rat().Cmp(fs[j].Rat()) > 0 })
}
