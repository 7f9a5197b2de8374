package engine

import (
	"testing"

	"concretestv/internal/arithmetic"
	"concretestv/internal/ballot"
	"concretestv/internal/decision"
	"concretestv/internal/rules"
	"concretestv/internal/transcript"
)

// End-to-end counts over small hand-checkable elections, one per rule
// behaviour that distinguishes real jurisdictions: the worked five-candidate
// example, bulk exclusion, rule-18 short-circuit timing, the NSW surplus
// fraction cap, the ACT 2020 rounding bugs, and the clause 11(2)/11(3)
// early-win checks.

func donkeyPositions(n int) map[int]int {
	m := make(map[int]int, n)
	for i := 0; i < n; i++ {
		m[i] = i
	}
	return m
}

func mustRun(t *testing.T, table *ballot.Table, profile rules.Profile, numCandidates, vacancies int, positions map[int]int) transcriptResult {
	t.Helper()
	e := New(table, profile, numCandidates, vacancies, nil, positions, "")
	tr, err := e.Run()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", profile.Name, err)
	}
	return transcriptResult{tr.Elected, tr}
}

type transcriptResult struct {
	elected []int
	tr      transcript.Transcript
}

func wantInt(t *testing.T, got arithmetic.Tally, want int64, what string) {
	t.Helper()
	if got.Cmp(arithmetic.FromInt64(want)) != 0 {
		t.Fatalf("%s: expected %d, got %s", what, want, got.RationalString())
	}
}

func wantElected(t *testing.T, got, want []int, profile string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: expected elected %v, got %v", profile, want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s: expected elected %v, got %v", profile, want, got)
		}
	}
}

// Candidates 0=C1, 1=C2, 2=A1, 3=A2, 4=P1: 240 ballots, 3 vacancies,
// quota 61. C1 and A1 are elected on first preferences; their surpluses of
// 49 distribute 49 to C2 and 44/4 to A2/P1 (rounding down, one vote lost);
// excluding P1 sends 10 first-preference votes to A2, exhausts 10, then
// sends 4 more at the reduced transfer value; A2 finishes on 58 and takes
// the last seat once C2 is excluded.
func simpleExampleTable() *ballot.Table {
	return &ballot.Table{
		Ballots: []ballot.Expanded{
			{Preferences: []int{0, 1}, Multiplicity: 110},
			{Preferences: []int{2, 3}, Multiplicity: 100},
			{Preferences: []int{2, 4, 3}, Multiplicity: 10},
			{Preferences: []int{4, 3}, Multiplicity: 10},
			{Preferences: []int{4}, Multiplicity: 10},
		},
	}
}

func TestSimpleExampleFullDistribution(t *testing.T) {
	res := mustRun(t, simpleExampleTable(), rules.AEC2013, 5, 3, donkeyPositions(5))
	tr := res.tr

	wantInt(t, tr.Quota.Quota, 61, "quota")
	wantElected(t, res.elected, []int{0, 2, 3}, "AEC2013")
	if len(tr.Counts) != 7 {
		t.Fatalf("expected 7 count rows, got %d", len(tr.Counts))
	}

	// The two first-preference winners tie at 110; electing them in order
	// needed the fallback oracle, and that decision rides on the next row.
	if len(tr.Counts[1].Decisions) != 1 {
		t.Fatalf("expected the elect-order tie decision on count 2, got %d decisions", len(tr.Counts[1].Decisions))
	}
	if tr.Counts[1].Reason.ExcessDistribution == nil || *tr.Counts[1].Reason.ExcessDistribution != 0 {
		t.Fatalf("expected count 2 to distribute candidate 0's surplus")
	}

	// A1's surplus: 44 to A2, 4 to P1, 1 vote lost to rounding.
	wantInt(t, tr.Counts[2].Status.Tallies[3], 44, "A2 after A1 surplus")
	wantInt(t, tr.Counts[2].Status.Tallies[4], 24, "P1 after A1 surplus")
	wantInt(t, tr.Counts[2].Status.Rounding, 1, "rounding loss after surpluses")

	// P1's exclusion, first-preference parcel first: 10 to A2, 10 exhaust.
	wantInt(t, tr.Counts[3].Status.Tallies[3], 54, "A2 after P1 first parcel")
	wantInt(t, tr.Counts[3].Status.Exhausted, 10, "exhausted after P1 first parcel")

	// Then the reduced-value parcel: 4 more to A2.
	wantInt(t, tr.Counts[4].Status.Tallies[3], 58, "A2 after P1 second parcel")

	// C2's exclusion exhausts its 49 transferred votes, and A2 takes the
	// final seat without reaching quota.
	if len(tr.Counts[5].Reason.Elimination) != 1 || tr.Counts[5].Reason.Elimination[0] != 1 {
		t.Fatalf("expected count 6 to exclude candidate 1, got %v", tr.Counts[5].Reason.Elimination)
	}
	wantInt(t, tr.Counts[5].Status.Exhausted, 59, "exhausted after C2 exclusion")
	if len(tr.Counts[6].Elected) != 1 || tr.Counts[6].Elected[0].Who != 3 {
		t.Fatalf("expected candidate 3 elected on the final count, got %v", tr.Counts[6].Elected)
	}
	wantInt(t, tr.Counts[6].Status.Tallies[3], 58, "A2 final tally")
}

// Candidates 0..4 with tallies 20/16/10/4/3 and one vacancy: the two
// lowest cannot together reach the third-lowest, so AEC2013 excludes them
// in one combined elimination while AEC2016 takes them one at a time. The
// winner is the same either way.
func bulkExclusionTable() *ballot.Table {
	return &ballot.Table{
		Ballots: []ballot.Expanded{
			{Preferences: []int{0}, Multiplicity: 20},
			{Preferences: []int{1}, Multiplicity: 16},
			{Preferences: []int{2}, Multiplicity: 10},
			{Preferences: []int{3}, Multiplicity: 4},
			{Preferences: []int{4}, Multiplicity: 3},
		},
	}
}

func TestBulkExclusionCombinesTrailingCandidates(t *testing.T) {
	bulk := mustRun(t, bulkExclusionTable(), rules.AEC2013, 5, 1, donkeyPositions(5))
	single := mustRun(t, bulkExclusionTable(), rules.AEC2016, 5, 1, donkeyPositions(5))

	wantElected(t, bulk.elected, []int{0}, "AEC2013")
	wantElected(t, single.elected, []int{0}, "AEC2016")

	sawBulk := false
	for _, c := range bulk.tr.Counts {
		if len(c.Reason.Elimination) == 2 {
			sawBulk = true
			if c.Reason.Elimination[0] != 4 || c.Reason.Elimination[1] != 3 {
				t.Fatalf("expected candidates 4 and 3 excluded together, got %v", c.Reason.Elimination)
			}
		}
	}
	if !sawBulk {
		t.Fatalf("AEC2013 never produced a bulk exclusion")
	}
	for _, c := range single.tr.Counts {
		if len(c.Reason.Elimination) > 1 {
			t.Fatalf("AEC2016 must exclude one candidate at a time, got %v", c.Reason.Elimination)
		}
	}
}

// Candidates 0..3, 3 vacancies: candidate 0 is elected on first
// preferences and its surplus exhausts entirely; excluding candidate 3
// leaves exactly two continuing candidates for the two remaining seats.
// AEC2016 transfers the excluded ballots first, pushing candidate 2 over
// quota before candidate 1 is elected; AEC2019's short-circuit skips the
// transfer and elects the survivors in standing-tally order instead, so the
// election order flips.
func rule18Table() *ballot.Table {
	return &ballot.Table{
		Ballots: []ballot.Expanded{
			{Preferences: []int{0}, Multiplicity: 40},
			{Preferences: []int{1}, Multiplicity: 12},
			{Preferences: []int{2}, Multiplicity: 10},
			{Preferences: []int{3, 2}, Multiplicity: 9},
		},
	}
}

func TestRule18TimingChangesElectionOrder(t *testing.T) {
	noShortCircuit := mustRun(t, rule18Table(), rules.AEC2016, 4, 3, donkeyPositions(4))
	shortCircuit := mustRun(t, rule18Table(), rules.AEC2019, 4, 3, donkeyPositions(4))

	wantElected(t, noShortCircuit.elected, []int{0, 2, 1}, "AEC2016")
	wantElected(t, shortCircuit.elected, []int{0, 1, 2}, "AEC2019")

	// The AEC2019 elimination row must carry no portion: the excluded
	// candidate's ballots were never transferred.
	for _, c := range shortCircuit.tr.Counts {
		if len(c.Reason.Elimination) > 0 && c.Portion != nil {
			t.Fatalf("AEC2019 short-circuit should not transfer the excluded candidate's parcels")
		}
	}
}

// Candidates 0=X, 1=Y, 2=Z plus pre-excluded 3=W, 2 vacancies, 75 formal
// ballots, quota 26. W's 40 exhaust at the first count; X is elected on 30
// with a surplus of 4, and the per-transfer-value surplus fraction is
// 4/(30-40) = -2/5. The literal clause 7(4)(a) reading applies it as
// computed, driving Y to -2 and Z to -5 and electing Y on a negative
// tally; the capped reading clamps the fraction to 1 and elects Z instead.
func negativeTallyTable() *ballot.Table {
	return &ballot.Table{
		Ballots: []ballot.Expanded{
			{Preferences: []int{3}, Multiplicity: 40},
			{Preferences: []int{0, 1}, Multiplicity: 10},
			{Preferences: []int{0, 2}, Multiplicity: 20},
			{Preferences: []int{1}, Multiplicity: 2},
			{Preferences: []int{2}, Multiplicity: 3},
		},
	}
}

func runNegativeTally(t *testing.T, profile rules.Profile) transcriptResult {
	t.Helper()
	e := New(negativeTallyTable(), profile, 4, 2, nil, donkeyPositions(4), "")
	e.PreExclude([]int{3})
	tr, err := e.Run()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", profile.Name, err)
	}
	return transcriptResult{tr.Elected, tr}
}

func TestNSWSurplusFractionLiteralElectsNegativeTally(t *testing.T) {
	literal := runNegativeTally(t, rules.NSWLocalGov2021Literal)
	capped := runNegativeTally(t, rules.NSWLocalGov2021)

	wantElected(t, literal.elected, []int{0, 1}, "NSWLocalGov2021Literal")
	wantElected(t, capped.elected, []int{0, 2}, "NSWLocalGov2021")

	final := literal.tr.Counts[len(literal.tr.Counts)-1]
	if final.Status.Tallies[1].Sign() >= 0 {
		t.Fatalf("expected candidate 1 elected on a negative tally, got %s", final.Status.Tallies[1].RationalString())
	}
	wantInt(t, final.Status.Tallies[1], -2, "literal final tally of candidate 1")

	cappedFinal := capped.tr.Counts[len(capped.tr.Counts)-1]
	wantInt(t, cappedFinal.Status.Tallies[2], 23, "capped final tally of candidate 2")
}

// Candidates 0..2, 2 vacancies, 106 ballots, quota 36. Candidate 0 is
// elected on 70 with a surplus of 34 over a single 70-paper parcel, so the
// transfer value is 17/35 and the products 40*17/35 and 30*17/35 fall
// either side of a rounding boundary: ACT2021 keeps them as exact
// rationals while ACT2020 rounds to six decimal places to nearest, pushing
// candidate 2's share up a millionth. ACT2020 also keeps distributing the
// second winner's surplus after every seat is filled, so its transcript is
// one count longer.
func actDivergenceTable() *ballot.Table {
	return &ballot.Table{
		Ballots: []ballot.Expanded{
			{Preferences: []int{0, 1}, Multiplicity: 40},
			{Preferences: []int{0, 2}, Multiplicity: 30},
			{Preferences: []int{1}, Multiplicity: 20},
			{Preferences: []int{2}, Multiplicity: 16},
		},
	}
}

func TestACT2020BugsDivergeFromACT2021(t *testing.T) {
	buggy := mustRun(t, actDivergenceTable(), rules.ACT2020, 3, 2, donkeyPositions(3))
	fixed := mustRun(t, actDivergenceTable(), rules.ACT2021, 3, 2, donkeyPositions(3))

	wantElected(t, buggy.elected, []int{0, 1}, "ACT2020")
	wantElected(t, fixed.elected, []int{0, 1}, "ACT2021")

	if got := buggy.tr.Counts[1].Status.Tallies[1].DecimalString(); got != "39.428571" {
		t.Fatalf("ACT2020: expected candidate 1 on 39.428571 (round to nearest, down), got %s", got)
	}
	if got := buggy.tr.Counts[1].Status.Tallies[2].DecimalString(); got != "30.571429" {
		t.Fatalf("ACT2020: expected candidate 2 on 30.571429 (round to nearest, up), got %s", got)
	}
	if got := fixed.tr.Counts[1].Status.Tallies[1].RationalString(); got != "276/7" {
		t.Fatalf("ACT2021: expected candidate 1 on exactly 276/7, got %s", got)
	}
	if got := fixed.tr.Counts[1].Status.Tallies[2].RationalString(); got != "214/7" {
		t.Fatalf("ACT2021: expected candidate 2 on exactly 214/7, got %s", got)
	}

	// ACT2021 stops the moment both seats are filled; ACT2020 first drains
	// the second winner's surplus into the exhausted pile.
	if len(fixed.tr.Counts) != 2 {
		t.Fatalf("ACT2021: expected 2 counts, got %d", len(fixed.tr.Counts))
	}
	if len(buggy.tr.Counts) != 3 {
		t.Fatalf("ACT2020: expected 3 counts, got %d", len(buggy.tr.Counts))
	}
	if got := buggy.tr.Counts[2].Status.Exhausted.DecimalString(); got != "3.428571" {
		t.Fatalf("ACT2020: expected the trailing surplus to exhaust 3.428571 votes, got %s", got)
	}
}

// Candidates 0..3, 3 vacancies, 165 ballots, quota 42. Candidate 1 holds a
// mix of full-value first preferences and reduced-value transferred papers
// when its surplus of 46 is distributed; inclusive Gregory blends all 130
// papers at the single new transfer value 23/65 regardless of what each
// paper was worth before.
func blendedTransferTable() *ballot.Table {
	return &ballot.Table{
		Ballots: []ballot.Expanded{
			{Preferences: []int{0, 1, 2}, Multiplicity: 100},
			{Preferences: []int{1, 2}, Multiplicity: 30},
			{Preferences: []int{2}, Multiplicity: 20},
			{Preferences: []int{3}, Multiplicity: 15},
		},
	}
}

func TestInclusiveGregoryBlendsParcelsAtOneTransferValue(t *testing.T) {
	res := mustRun(t, blendedTransferTable(), rules.AEC2013, 4, 3, donkeyPositions(4))
	tr := res.tr

	wantElected(t, res.elected, []int{0, 1, 2}, "AEC2013")
	if len(tr.Counts) != 3 {
		t.Fatalf("expected 3 counts, got %d", len(tr.Counts))
	}

	ctv := tr.Counts[2].CreatedTransferValue
	if ctv == nil {
		t.Fatalf("expected a created transfer value on count 3")
	}
	if got := ctv.TransferValue.String(); got != "23/65" {
		t.Fatalf("expected blended transfer value 23/65, got %s", got)
	}
	if ctv.BallotsConsidered != 130 {
		t.Fatalf("expected all 130 papers considered, got %d", ctv.BallotsConsidered)
	}
	wantInt(t, tr.Counts[2].Status.Tallies[2], 66, "candidate 2 after the blended transfer")

	fromCounts := tr.Counts[2].Portion.PapersCameFromCounts
	if len(fromCounts) != 2 || fromCounts[0] != 0 || fromCounts[1] != 1 {
		t.Fatalf("expected papers from counts [0 1], got %v", fromCounts)
	}
}

// Candidates 0..4, 2 vacancies, 45 ballots, quota 16. After two exhausting
// exclusions the leaders sit on 14 and 13 against a combined 9 below them
// with no surpluses pending: the clause 11(3) check elects both below
// quota, where a federal count must exclude once more and fall back to the
// all-remaining-fill rule.
func earlyWinTable() *ballot.Table {
	return &ballot.Table{
		Ballots: []ballot.Expanded{
			{Preferences: []int{0}, Multiplicity: 14},
			{Preferences: []int{1}, Multiplicity: 13},
			{Preferences: []int{2}, Multiplicity: 5},
			{Preferences: []int{3}, Multiplicity: 4},
			{Preferences: []int{4}, Multiplicity: 9},
		},
	}
}

func TestEarlyWinElectsLeadersThatCannotBeOvertaken(t *testing.T) {
	nsw := mustRun(t, earlyWinTable(), rules.NSWLocalGov2021, 5, 2, donkeyPositions(5))
	federal := mustRun(t, earlyWinTable(), rules.AEC2013, 5, 2, donkeyPositions(5))

	wantElected(t, nsw.elected, []int{0, 1}, "NSWLocalGov2021")
	wantElected(t, federal.elected, []int{0, 1}, "AEC2013")

	// NSW stops one exclusion earlier: first preferences, two exclusions,
	// then the early-win row; the federal count needs a third exclusion
	// before the remaining two fill the remaining seats.
	if len(nsw.tr.Counts) != 4 {
		t.Fatalf("NSW: expected 4 counts, got %d", len(nsw.tr.Counts))
	}
	if len(federal.tr.Counts) != 5 {
		t.Fatalf("federal: expected 5 counts, got %d", len(federal.tr.Counts))
	}

	final := nsw.tr.Counts[len(nsw.tr.Counts)-1]
	if len(final.Elected) != 2 {
		t.Fatalf("expected both leaders elected on the early-win row, got %v", final.Elected)
	}
	for _, e := range final.Elected {
		if final.Status.Tallies[e.Who].Cmp(nsw.tr.Quota.Quota) >= 0 {
			t.Fatalf("expected candidate %d elected below quota", e.Who)
		}
	}
}

// A knife-edge single-vacancy count where one extra above-the-line ballot
// flips the winner: without it candidates 0 and 1 tie and the fallback
// oracle sends the seat to 0; with one ballot expanding through parties
// [2 1 0] the tie never forms and candidate 1 wins.
func atlFlipData(extra bool) *ballot.Data {
	parties := []ballot.Party{
		{ColumnID: 0, Name: "P", ATLAllowed: true, Candidates: []int{0}},
		{ColumnID: 1, Name: "O", ATLAllowed: true, Candidates: []int{1}},
		{ColumnID: 2, Name: "G", ATLAllowed: true, Candidates: []int{2}},
	}
	d := &ballot.Data{
		Metadata: ballot.Metadata{
			Candidates: []ballot.Candidate{{Name: "P1"}, {Name: "O1"}, {Name: "G1"}},
			Parties:    parties,
			Vacancies:  1,
		},
		ATL: []ballot.ATLVote{
			{Parties: []int{0}, N: 5},
			{Parties: []int{1}, N: 5},
			{Parties: []int{2}, N: 3},
		},
	}
	if extra {
		d.ATL = append(d.ATL, ballot.ATLVote{Parties: []int{2, 1, 0}, N: 1})
	}
	return d
}

func TestSameInputsAndSeedProduceIdenticalTranscripts(t *testing.T) {
	fingerprint := func() string {
		e := New(simpleExampleTable(), rules.AEC2013, 5, 3, decision.SeededOracle{Seed: 7}, nil, "")
		tr, err := e.Run()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		fp, err := transcript.Fingerprint(tr, arithmetic.KindInteger)
		if err != nil {
			t.Fatalf("fingerprint: %v", err)
		}
		return fp
	}
	if a, b := fingerprint(), fingerprint(); a != b {
		t.Fatalf("expected identical transcript fingerprints, got %s and %s", a, b)
	}
}

func TestOneAboveTheLineBallotChangesWinner(t *testing.T) {
	rule := ballot.FormalityRule{MinPreferences: 1, AllowPartialBelowMinimum: true}

	runATL := func(extra bool) []int {
		table, err := ballot.BuildTable(atlFlipData(extra), rule, nil)
		if err != nil {
			t.Fatalf("build table: %v", err)
		}
		res := mustRun(t, table, rules.AEC2013, 3, 1, donkeyPositions(3))
		return res.elected
	}

	wantElected(t, runATL(false), []int{0}, "without the extra ballot")
	wantElected(t, runATL(true), []int{1}, "with the extra ballot")
}
