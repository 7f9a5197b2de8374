package rules

import (
	"fmt"
	"sort"

	"concretestv/internal/arithmetic"
	"concretestv/internal/decision"
)

// federalBase is the common skeleton every federal Senate-era profile is
// derived from; each named variant below copies it and overrides only the
// switches that actually changed between amendments.
var federalBase = Profile{
	TallyKind:                           arithmetic.KindInteger,
	QuotaFormula:                        QuotaDroopFloor,
	SurplusMethod:                       SurplusInclusiveGregory,
	TVRounding:                          TVExact,
	VoteRounding:                        VoteRoundDown,
	VoteRoundingKind:                    arithmetic.KindInteger,
	BulkExclusion:                       BulkExclusionOn,
	BulkExclusionSupported:              true,
	Rule17:                              Rule17AfterExclusions,
	Rule18:                              Rule18Never,
	CountBackMode:                       decision.RequireAllDistinct,
	AggregateExhaustedAcrossSubTransfers: true,
}

// AEC2013 is the profile the Australian Electoral Commission used to count
// the 2013 and 2014 federal Senate elections: bulk exclusion on, no rule 18
// short-circuit, count-back requires full separation before resolving a
// tie.
var AEC2013 = withName(federalBase, "AEC2013")

// AEC2016 drops bulk exclusion — the 2016 count software excluded one
// candidate at a time — and adopts the "any difference" count-back reading
// rather than requiring full separation.
var AEC2016 = withName(override(federalBase, func(p *Profile) {
	p.BulkExclusion = BulkExclusionOff
	p.CountBackMode = decision.AnyDifference
}), "AEC2016")

// AEC2019 additionally adopts the rule-18 analogue: once enough candidates
// are determined after an exclusion target is identified, the remainder of
// that exclusion's transfers is skipped.
var AEC2019 = withName(override(federalBase, func(p *Profile) {
	p.BulkExclusion = BulkExclusionOff
	p.CountBackMode = decision.AnyDifference
	p.Rule18 = Rule18AfterDeterminingExclusionTarget
}), "AEC2019")

// FederalPost2021Manual reverts bulk exclusion to manual-only, matching the
// hand-count procedure used when automated bulk exclusion is disabled by
// the returning officer.
var FederalPost2021Manual = withName(override(federalBase, func(p *Profile) {
	p.BulkExclusion = BulkExclusionManualOnly
	p.CountBackMode = decision.AnyDifference
	p.Rule18 = Rule18AfterDeterminingExclusionTarget
}), "FederalPost2021Manual")

// Federal2021 is the amended federal Senate count: full recursive
// count-back (splitting tied sub-groups against progressively earlier
// counts) replaces the any-difference reading.
var Federal2021 = withName(override(federalBase, func(p *Profile) {
	p.BulkExclusion = BulkExclusionOff
	p.CountBackMode = decision.Recursive
	p.Rule18 = Rule18AfterDeterminingExclusionTarget
}), "Federal2021")

// ACTPre2020 counts the ACT Legislative Assembly using last-parcel Gregory
// surplus distribution and exact integer arithmetic, with no bulk
// exclusion (the Assembly's five- and seven-member electorates never
// required it in this era).
var ACTPre2020 = withName(Profile{
	TallyKind:                           arithmetic.KindInteger,
	QuotaFormula:                        QuotaDroopFloor,
	SurplusMethod:                       SurplusLastParcelGregory,
	TVRounding:                          TVExact,
	VoteRounding:                        VoteRoundDown,
	VoteRoundingKind:                    arithmetic.KindInteger,
	BulkExclusion:                       BulkExclusionOff,
	BulkExclusionSupported:              false,
	Rule17:                              Rule17Off,
	Rule18:                              Rule18Never,
	CountBackMode:                       decision.RequireAllDistinct,
	AggregateExhaustedAcrossSubTransfers: true,
}, "ACTPre2020")

// ACT2020 reproduces the four documented software bugs in the ACT Electoral
// Commission's 2020 count: round-to-nearest instead of round-down,
// transfer values from different origin counts comparing unequal even when
// numerically equal, integer rounding of exhausted ballots mid-exclusion,
// and continuing a surplus distribution to completion even after every
// vacancy is filled. Tallies and transferred votes are held to six decimal
// places; the transfer values themselves are not rounded to six decimal
// places, since TVRounding carries the origin-identity setting.
var ACT2020 = withName(override(ACTPre2020, func(p *Profile) {
	p.TallyKind = arithmetic.KindFixedSixDP
	p.TVRounding = TVPreserveOriginIdentity
	p.VoteRounding = VoteRoundNearest
	p.VoteRoundingKind = arithmetic.KindFixedSixDP
	p.RoundExhaustedDuringExclusion = true
	p.ContinueSurplusAfterSeatsFilled = true
}), "ACT2020")

// ACT2021 is the corrected ACT profile: pure rational arithmetic throughout
// and round-down only, fixing all four ACT2020 bugs.
var ACT2021 = withName(override(ACTPre2020, func(p *Profile) {
	p.TallyKind = arithmetic.KindRational
	p.TVRounding = TVExact
	p.VoteRounding = VoteRoundDown
	p.VoteRoundingKind = arithmetic.KindRational
}), "ACT2021")

// NSWLocalGov2021 counts NSW local government elections using
// weighted-inclusive Gregory with a per-transfer-value sub-transfer for
// every distinct transfer value a candidate holds, rather than a single
// blended value for the whole parcel.
var NSWLocalGov2021 = withName(Profile{
	TallyKind:                           arithmetic.KindFixedSixDP,
	QuotaFormula:                        QuotaDroopFloor,
	SurplusMethod:                       SurplusWeightedInclusivePerTV,
	TVRounding:                          TVRoundSixDP,
	VoteRounding:                        VoteRoundDown,
	VoteRoundingKind:                    arithmetic.KindFixedSixDP,
	BulkExclusion:                       BulkExclusionOn,
	BulkExclusionSupported:              true,
	Rule17:                              Rule17AfterSurplusDistributions,
	Rule18:                              Rule18AfterElection,
	EarlyWin:                            EarlyWinLeadingGroup,
	CountBackMode:                       decision.AnyDifference,
	AggregateExhaustedAcrossSubTransfers: true,
	ContinueSurplusAfterSeatsFilled:      true,
}, "NSWLocalGov2021")

// NSWLocalGov2021Literal is the byte-literal reading of clause 7(4)(a) of
// the NSW local government regulation: a sub-transfer's surplus fraction is
// applied exactly as computed, even when that yields a negative fraction
// (or one above 1) and so a negative final tally for the candidates who
// receive it. NSWLocalGov2021 instead caps the fraction at 1; the regulation is
// genuinely ambiguous, so both readings ship as separate profiles.
var NSWLocalGov2021Literal = withName(override(NSWLocalGov2021, func(p *Profile) {
	p.NegativeRoundingLossAllowed = true
}), "NSWLocalGov2021Literal")

// NSWLegislativeCouncil counts the NSW Legislative Council's single
// state-wide electorate: same surplus method and rounding as local
// government, but full recursive count-back and no bulk exclusion (the
// Council's 21 vacancies make bulk exclusion too consequential to
// automate).
var NSWLegislativeCouncil = withName(override(NSWLocalGov2021, func(p *Profile) {
	p.BulkExclusion = BulkExclusionOff
	p.BulkExclusionSupported = false
	p.CountBackMode = decision.Recursive
}), "NSWLegislativeCouncil")

// Vic2018 counts the Victorian Legislative Council: federal-style inclusive
// Gregory with a single transfer value, but no bulk exclusion and the
// any-difference count-back reading the VEC's software applies.
var Vic2018 = withName(override(federalBase, func(p *Profile) {
	p.BulkExclusion = BulkExclusionOff
	p.BulkExclusionSupported = false
	p.Rule17 = Rule17Off
	p.CountBackMode = decision.AnyDifference
}), "Vic2018")

// WA2021 counts the Western Australian Legislative Council, which kept the
// federal inclusive-Gregory procedure (bulk exclusion included) but never
// adopted the rule-18 short-circuit.
var WA2021 = withName(override(federalBase, func(p *Profile) {
	p.CountBackMode = decision.AnyDifference
}), "WA2021")

func withName(p Profile, name string) Profile {
	p.Name = name
	return p
}

func override(base Profile, fn func(*Profile)) Profile {
	p := base
	fn(&p)
	return p
}

// registry is populated by init so that By looks up the same Profile values
// exported above, rather than maintaining the name/value association twice.
var registry map[string]Profile

func init() {
	registry = map[string]Profile{}
	for _, p := range []Profile{
		AEC2013, AEC2016, AEC2019, FederalPost2021Manual, Federal2021,
		ACTPre2020, ACT2020, ACT2021,
		NSWLocalGov2021, NSWLocalGov2021Literal, NSWLegislativeCouncil,
		Vic2018, WA2021,
	} {
		registry[p.Name] = p
	}
}

// ErrUnknownProfile is returned by By when name does not match a registered
// rule profile.
type ErrUnknownProfile struct{ Name string }

func (e ErrUnknownProfile) Error() string {
	return fmt.Sprintf("rules: unknown rule profile %q", e.Name)
}

// By looks up a registered Profile by its name, as supplied on the CLI.
func By(name string) (Profile, error) {
	p, ok := registry[name]
	if !ok {
		return Profile{}, ErrUnknownProfile{Name: name}
	}
	return p, nil
}

// Names returns every registered profile name, sorted for stable CLI help
// output.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
