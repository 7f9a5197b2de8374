package engine

import (
	"math/big"

	"concretestv/internal/arithmetic"
	"concretestv/internal/countstate"
	"concretestv/internal/rules"
)

// surplusSet collects every ballot reference a single-pass (inclusive or
// last-parcel Gregory) surplus distribution redistributes, along with the
// papers it represents and which prior counts they arrived from, for the
// transcript's portion.papers_came_from_counts.
type surplusSet struct {
	refs       []countstate.BallotRef
	papers     int
	fromCounts map[int]struct{}
	originalTV arithmetic.TransferValue
}

// parcelsForSurplus selects which of c's parcels a surplus distribution
// redistributes, per profile.SurplusMethod: every parcel for inclusive
// Gregory, only the most recently acquired one for last-parcel Gregory.
func parcelsForSurplus(profile rules.Profile, parcels []countstate.Parcel) []countstate.Parcel {
	if profile.SurplusMethod == rules.SurplusLastParcelGregory && len(parcels) > 0 {
		return parcels[len(parcels)-1:]
	}
	return parcels
}

func gatherSurplusSet(parcels []countstate.Parcel) surplusSet {
	s := surplusSet{fromCounts: map[int]struct{}{}}
	for _, p := range parcels {
		s.refs = append(s.refs, p.Refs...)
		s.papers += p.Papers()
		s.fromCounts[p.OriginCount] = struct{}{}
		s.originalTV = p.TransferValue
	}
	return s
}

// newTransferValue computes TV_new for a single-pass surplus distribution:
// min(1, surplus/papers) for inclusive Gregory, min(original_TV,
// surplus/papers) for last-parcel Gregory.
func newTransferValue(profile rules.Profile, surplus arithmetic.Tally, set surplusSet) arithmetic.Fraction {
	if set.papers == 0 {
		return arithmetic.NewFraction(0, 1)
	}
	ratioRat := new(big.Rat).Quo(surplus.Rat(), new(big.Rat).SetInt64(int64(set.papers)))
	ratio := arithmetic.NewFractionFromBigInts(ratioRat.Num(), ratioRat.Denom())

	if profile.SurplusMethod == rules.SurplusLastParcelGregory {
		return ratio.Min(set.originalTV.Value)
	}
	return ratio.Min(arithmetic.One())
}
