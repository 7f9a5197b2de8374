// Package rules defines the Rule Profile: a flat record of enumerated
// switches that parameterises the counting engine. Rule-sets are data, not
// a class hierarchy — the engine is a pure function of one Profile value,
// so a new jurisdiction's quirks are added as a new literal, never a new
// engine code path.
package rules

import (
	"concretestv/internal/arithmetic"
	"concretestv/internal/decision"
)

// QuotaFormula selects how the quota is computed from first preferences.
type QuotaFormula int

const (
	QuotaDroopFloor   QuotaFormula = iota // floor(V/(s+1)) + 1
	QuotaDroopExact                       // V/(s+1) + 1, no floor
	QuotaRecomputePerCount                // casual-vacancy: the engine computes it once with the floor formula; it is not recomputed per count
)

// SurplusMethod selects the algorithm used to distribute an elected
// candidate's surplus across continuing candidates.
type SurplusMethod int

const (
	SurplusInclusiveGregory         SurplusMethod = iota // federal: single transfer value across the whole parcel set
	SurplusLastParcelGregory                              // ACT: only the last-received parcel is inspected
	SurplusWeightedInclusivePerTV                         // NSW 2021: one sub-transfer per distinct transfer value held
)

// TVRounding selects how a newly-created transfer value is rounded/handled.
type TVRounding int

const (
	TVExact                  TVRounding = iota // held as an unreduced exact rational
	TVRoundSixDP                               // rounded to six decimal places
	TVPreserveOriginIdentity                   // ACT2020 bug: equal-value TVs from different origin counts compare unequal
)

// VoteRounding selects the rounding direction applied when multiplying
// papers by a transfer value to produce a whole/fixed-point vote count.
type VoteRounding int

const (
	VoteRoundDown    VoteRounding = iota
	VoteRoundNearest                 // ACT2020 bug
)

// BulkExclusionMode selects whether multiple lowest candidates may be
// excluded in a single combined count.
type BulkExclusionMode int

const (
	BulkExclusionOff BulkExclusionMode = iota
	BulkExclusionOn
	BulkExclusionManualOnly // operator must supply --exclude explicitly
)

// Rule17Timing selects when the "defer exclusion of candidates with very
// small tallies" analogue applies, if at all.
type Rule17Timing int

const (
	Rule17Off Rule17Timing = iota
	Rule17AfterExclusions
	Rule17AfterSurplusDistributions
)

// Rule18Timing selects when the engine checks whether enough candidates are
// already determined to short-circuit (truncate) the remainder of an
// in-progress exclusion.
type Rule18Timing int

const (
	Rule18Never Rule18Timing = iota
	Rule18AfterElection
	Rule18AfterDeterminingExclusionTarget
)

// EarlyWinMode selects which (if any) of the NSW clause 11(2)/11(3)
// cannot-be-overtaken checks the engine applies between counts. Neither
// check ever fires mid-exclusion or mid-surplus.
type EarlyWinMode int

const (
	// EarlyWinOff disables both checks; candidates are elected only by
	// reaching quota or by the rule 11(1) all-remaining-fill analogue.
	EarlyWinOff EarlyWinMode = iota
	// EarlyWinLeadingCandidate is the clause 11(2) reading: with one
	// vacancy left, the leading continuing candidate is elected as soon as
	// their tally exceeds every other continuing tally plus all
	// undistributed surpluses combined.
	EarlyWinLeadingCandidate
	// EarlyWinLeadingGroup is the clause 11(3) reading: whenever the
	// candidates ranked above some cut, no more of them than there are
	// remaining vacancies, cannot be overtaken because the lowest of them
	// exceeds everyone below plus undistributed surpluses, all of them are
	// elected in tally order (using the deepest such cut).
	EarlyWinLeadingGroup
)

// Profile is the complete set of switches the engine consults. The
// multi-way switches are enumerated sum types so that illegal combinations
// are unrepresentable rather than merely undocumented; the remaining
// on/off switches are plain bools.
type Profile struct {
	Name string

	TallyKind arithmetic.Kind

	QuotaFormula QuotaFormula

	SurplusMethod    SurplusMethod
	TVRounding       TVRounding
	VoteRounding     VoteRounding
	VoteRoundingKind arithmetic.Kind

	BulkExclusion BulkExclusionMode
	Rule17        Rule17Timing
	Rule18        Rule18Timing
	EarlyWin      EarlyWinMode

	CountBackMode decision.CountBackMode

	// AggregateExhaustedAcrossSubTransfers selects which exhausted-value
	// reading a per-transfer-value (NSW 2021 style) surplus sub-transfer's
	// fraction denominator subtracts: true sums exhausted ballots at the
	// transfer value each was exhausted at; false counts exhausted papers
	// at face value regardless of the transfer value they arrived at.
	AggregateExhaustedAcrossSubTransfers bool

	// NegativeRoundingLossAllowed selects the literal reading of a
	// per-transfer-value surplus fraction: true applies the fraction exactly
	// as computed, even when it is negative or above 1; false replaces any
	// fraction below 0 or above 1 with 1.
	NegativeRoundingLossAllowed bool

	// RoundExhaustedDuringExclusion rounds exhausted ballots to a whole
	// number mid-exclusion rather than carrying the exact fraction forward
	// (ACT2020 bug).
	RoundExhaustedDuringExclusion bool

	// ContinueSurplusAfterSeatsFilled continues an in-progress surplus
	// distribution to completion even after every vacancy is filled,
	// rather than truncating it (ACT2020 bug).
	ContinueSurplusAfterSeatsFilled bool

	// BulkExclusionSupported being false makes the engine ignore
	// BulkExclusion=On and exclude one candidate at a time; the combination
	// is not reported as an error.
	BulkExclusionSupported bool
}
