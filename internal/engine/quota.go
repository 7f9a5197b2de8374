package engine

import (
	"concretestv/internal/arithmetic"
	"concretestv/internal/rules"
)

// computeQuota applies profile's quota formula to the first-preference
// total and the number of vacancies. It is called once, when Run starts;
// the quota is not recomputed as the count proceeds, so
// QuotaRecomputePerCount yields the same fixed floor quota as
// QuotaDroopFloor.
func computeQuota(profile rules.Profile, total arithmetic.Tally, vacancies int) arithmetic.Tally {
	switch profile.QuotaFormula {
	case rules.QuotaDroopExact:
		return arithmetic.QuotaExact(total, vacancies)
	default: // QuotaDroopFloor, QuotaRecomputePerCount (same formula, computed once)
		return arithmetic.QuotaFloor(total, vacancies)
	}
}
