package rules

import "testing"

func TestByReturnsRegisteredProfile(t *testing.T) {
	p, err := By("AEC2019")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "AEC2019" {
		t.Fatalf("expected AEC2019, got %s", p.Name)
	}
	if p.Rule18 != Rule18AfterDeterminingExclusionTarget {
		t.Fatalf("expected rule 18 timing to be set for AEC2019")
	}
}

func TestByUnknownProfile(t *testing.T) {
	_, err := By("NotARule")
	if err == nil {
		t.Fatalf("expected error for unknown profile")
	}
}

func TestACT2020CarriesAllFourDocumentedBugs(t *testing.T) {
	p := ACT2020
	if p.VoteRounding != VoteRoundNearest {
		t.Fatalf("expected round-to-nearest bug")
	}
	if p.TVRounding != TVPreserveOriginIdentity {
		t.Fatalf("expected origin-identity bug")
	}
	if !p.RoundExhaustedDuringExclusion {
		t.Fatalf("expected exhausted-rounding bug")
	}
	if !p.ContinueSurplusAfterSeatsFilled {
		t.Fatalf("expected continue-after-filled bug")
	}
}

func TestACT2021FixesAllFourBugs(t *testing.T) {
	p := ACT2021
	if p.VoteRounding != VoteRoundDown {
		t.Fatalf("expected round-down")
	}
	if p.TVRounding != TVExact {
		t.Fatalf("expected exact transfer values")
	}
	if p.RoundExhaustedDuringExclusion {
		t.Fatalf("did not expect exhausted-rounding bug")
	}
	if p.ContinueSurplusAfterSeatsFilled {
		t.Fatalf("did not expect continue-after-filled bug")
	}
}

func TestNamesIsSortedAndComplete(t *testing.T) {
	names := Names()
	if len(names) != 13 {
		t.Fatalf("expected 13 registered profiles, got %d: %v", len(names), names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("expected sorted names, got %v", names)
		}
	}
}

func TestBulkExclusionUnsupportedOnACT(t *testing.T) {
	if ACTPre2020.BulkExclusionSupported {
		t.Fatalf("ACT pre-2020 has no bulk exclusion analogue")
	}
}

func TestNSWProfilesEnableEarlyWinChecks(t *testing.T) {
	for _, p := range []Profile{NSWLocalGov2021, NSWLocalGov2021Literal, NSWLegislativeCouncil} {
		if p.EarlyWin != EarlyWinLeadingGroup {
			t.Fatalf("%s: expected the clause 11(3) early-win check, got %v", p.Name, p.EarlyWin)
		}
	}
	if AEC2019.EarlyWin != EarlyWinOff {
		t.Fatalf("federal profiles have no early-win analogue")
	}
}

func TestVicAndWAProfilesAreFederalStyle(t *testing.T) {
	if Vic2018.SurplusMethod != SurplusInclusiveGregory || WA2021.SurplusMethod != SurplusInclusiveGregory {
		t.Fatalf("expected inclusive Gregory for Vic2018 and WA2021")
	}
	if Vic2018.BulkExclusion != BulkExclusionOff {
		t.Fatalf("Vic2018 never bulk-excludes")
	}
	if WA2021.BulkExclusion != BulkExclusionOn {
		t.Fatalf("WA2021 kept federal bulk exclusion")
	}
	if Vic2018.Rule18 != Rule18Never || WA2021.Rule18 != Rule18Never {
		t.Fatalf("neither Vic2018 nor WA2021 adopted the rule-18 short-circuit")
	}
}

func TestNSWLocalGov2021LiteralDiffersFromCappedOnFractionCap(t *testing.T) {
	if NSWLocalGov2021.NegativeRoundingLossAllowed {
		t.Fatalf("expected NSWLocalGov2021 to cap the surplus fraction at 1")
	}
	if !NSWLocalGov2021Literal.NegativeRoundingLossAllowed {
		t.Fatalf("expected NSWLocalGov2021Literal to allow the literal (uncapped) surplus fraction")
	}
	capped := NSWLocalGov2021
	capped.NegativeRoundingLossAllowed = true
	literal := NSWLocalGov2021Literal
	literal.Name = capped.Name
	if capped != literal {
		t.Fatalf("expected the two profiles to differ only in NegativeRoundingLossAllowed")
	}
}
