package engine

import (
	"math/big"
	"sort"

	"concretestv/internal/arithmetic"
	"concretestv/internal/ballot"
	"concretestv/internal/countstate"
	"concretestv/internal/rules"
)

// distributionResult is what a single sub-transfer (one transfer value
// applied to one set of ballot references) produces: new parcels per
// receiving candidate, the exhausted papers/value it generated, and the
// rounding loss against the exact (unrounded) value transferred.
type distributionResult struct {
	receiving     map[int]countstate.Parcel
	exhaustedPapers int
	exhaustedValue  arithmetic.Tally
	roundingLoss    arithmetic.Tally
}

// roundTV applies the Rule Profile's transfer-value rounding to tv, only
// relevant for NSW-style six-decimal-place transfer values; federal/ACT
// keep the exact fraction.
func roundTV(profile rules.Profile, tv arithmetic.Fraction) arithmetic.Fraction {
	if profile.TVRounding != rules.TVRoundSixDP {
		return tv
	}
	rounded := arithmetic.ApplyRounding(arithmetic.KindFixedSixDP, arithmetic.RoundDirectionDown, tv.Rat())
	return arithmetic.FractionFromRat(rounded.Rat())
}

// distribute applies transfer value tv to every ballot reference in refs,
// originating at count countIndex, advancing each to its next continuing
// preference (per status) or to exhausted. roundExhausted applies the
// ACT2020 "round exhausted to an integer during exclusions" bug when set.
func distribute(
	table *ballot.Table,
	refs []countstate.BallotRef,
	tv arithmetic.Fraction,
	countIndex int,
	profile rules.Profile,
	roundExhausted bool,
	status func(int) countstate.Status,
) distributionResult {
	tv = roundTV(profile, tv)
	trackOrigin := profile.TVRounding == rules.TVPreserveOriginIdentity
	receivingRefs := map[int][]countstate.BallotRef{}

	exhaustedRat := new(big.Rat)
	exhaustedPapers := 0

	for _, ref := range refs {
		b := table.Ballots[ref.BallotIndex]
		res := advance(ref, b, status)
		if res.exhausted {
			exhaustedPapers += ref.Count
			contribution := new(big.Rat).Mul(big.NewRat(int64(ref.Count), 1), tv.Rat())
			exhaustedRat.Add(exhaustedRat, contribution)
			continue
		}
		receivingRefs[res.candidate] = append(receivingRefs[res.candidate], res.ref)
	}

	exactTotal := new(big.Rat).Set(exhaustedRat)
	roundedTotal := new(big.Rat)

	receiving := map[int]countstate.Parcel{}
	candidateIDs := make([]int, 0, len(receivingRefs))
	for c := range receivingRefs {
		candidateIDs = append(candidateIDs, c)
	}
	sort.Ints(candidateIDs)

	for _, c := range candidateIDs {
		crefs := receivingRefs[c]
		papers := countstate.Papers(crefs)
		exact := new(big.Rat).Mul(big.NewRat(int64(papers), 1), tv.Rat())
		exactTotal.Add(exactTotal, exact)
		rounded := arithmetic.ApplyRounding(profile.VoteRoundingKind, voteRoundDirection(profile), exact)
		roundedTotal.Add(roundedTotal, rounded.Rat())
		roundedVal := rounded
		receiving[c] = countstate.Parcel{
			Refs:          crefs,
			TransferValue: buildTransferValue(tv, countIndex, trackOrigin),
			OriginCount:   countIndex,
			RoundedValue:  &roundedVal,
		}
	}

	exhaustedValue := arithmetic.FromRat(exhaustedRat)
	if roundExhausted {
		exhaustedValue = arithmetic.ApplyRounding(arithmetic.KindInteger, arithmetic.RoundDirectionDown, exhaustedRat)
	}
	roundedTotal.Add(roundedTotal, exhaustedValue.Rat())

	roundingLoss := arithmetic.FromRat(new(big.Rat).Sub(exactTotal, roundedTotal))

	return distributionResult{
		receiving:       receiving,
		exhaustedPapers: exhaustedPapers,
		exhaustedValue:  exhaustedValue,
		roundingLoss:    roundingLoss,
	}
}

// receivedValue sums the (rounded) values of every parcel a distribution
// handed to a receiving candidate.
func receivedValue(result distributionResult) arithmetic.Tally {
	total := arithmetic.Zero()
	for _, p := range result.receiving {
		total = total.Add(p.Value())
	}
	return total
}

func voteRoundDirection(profile rules.Profile) arithmetic.RoundingDirection {
	if profile.VoteRounding == rules.VoteRoundNearest {
		return arithmetic.RoundDirectionNearest
	}
	return arithmetic.RoundDirectionDown
}

func buildTransferValue(tv arithmetic.Fraction, countIndex int, trackOrigin bool) arithmetic.TransferValue {
	if trackOrigin {
		return arithmetic.NewTrackedTransferValue(tv, countIndex)
	}
	return arithmetic.NewTransferValue(tv)
}
