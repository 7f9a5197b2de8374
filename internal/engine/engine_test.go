package engine

import (
	"testing"

	"concretestv/internal/arithmetic"
	"concretestv/internal/ballot"
	"concretestv/internal/rules"
)

func threeCandidateTable() *ballot.Table {
	return &ballot.Table{
		Ballots: []ballot.Expanded{
			{Preferences: []int{0}, Multiplicity: 5},
			{Preferences: []int{1}, Multiplicity: 3},
			{Preferences: []int{2}, Multiplicity: 2},
		},
	}
}

func TestEngineElectsOnFirstPreferencesThenByExclusion(t *testing.T) {
	table := threeCandidateTable()
	e := New(table, rules.AEC2013, 3, 2, nil, nil, "")
	tr, err := e.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tr.Elected) != 2 || tr.Elected[0] != 0 || tr.Elected[1] != 1 {
		t.Fatalf("expected [0 1] elected in that order, got %v", tr.Elected)
	}
	if tr.Quota.Quota.Cmp(arithmetic.FromInt64(4)) != 0 {
		t.Fatalf("expected quota 4, got %s", tr.Quota.Quota.RationalString())
	}
}

func TestEngineConservesBallotsAcrossCounts(t *testing.T) {
	table := threeCandidateTable()
	e := New(table, rules.AEC2013, 3, 2, nil, nil, "")
	tr, err := e.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := tr.Counts[len(tr.Counts)-1]
	total := last.Status.Exhausted
	for _, v := range last.Status.Tallies {
		total = total.Add(v)
	}
	total = total.Add(last.Status.Rounding)
	if total.Cmp(arithmetic.FromInt64(10)) != 0 {
		t.Fatalf("expected conservation to 10 formal ballots, got %s", total.RationalString())
	}
}

func TestEngineTwoCandidateMajorityElectsImmediately(t *testing.T) {
	table := &ballot.Table{
		Ballots: []ballot.Expanded{
			{Preferences: []int{0}, Multiplicity: 6},
			{Preferences: []int{1, 0}, Multiplicity: 4},
		},
	}
	e := New(table, rules.AEC2013, 2, 1, nil, nil, "")
	tr, err := e.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tr.Elected) != 1 || tr.Elected[0] != 0 {
		t.Fatalf("expected candidate 0 elected, got %v", tr.Elected)
	}
}

func TestEnginePreExcludeFlowsFirstPreferenceToNextContinuing(t *testing.T) {
	table := &ballot.Table{
		Ballots: []ballot.Expanded{
			{Preferences: []int{0, 1}, Multiplicity: 5},
			{Preferences: []int{1}, Multiplicity: 3},
			{Preferences: []int{2}, Multiplicity: 2},
		},
	}
	e := New(table, rules.AEC2013, 3, 2, nil, nil, "")
	e.PreExclude([]int{0})
	tr, err := e.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := tr.Counts[0]
	if first.Status.Tallies[0].Sign() != 0 {
		t.Fatalf("expected pre-excluded candidate 0 to receive no votes, got %s", first.Status.Tallies[0].RationalString())
	}
	if first.Status.Tallies[1].Cmp(arithmetic.FromInt64(8)) != 0 {
		t.Fatalf("expected candidate 1 to receive the pre-excluded ballots' next preference, got %s", first.Status.Tallies[1].RationalString())
	}
}

func TestEngineUnresolvedTieWithoutOracleErrors(t *testing.T) {
	table := &ballot.Table{
		Ballots: []ballot.Expanded{
			{Preferences: []int{0}, Multiplicity: 3},
			{Preferences: []int{1}, Multiplicity: 3},
			{Preferences: []int{2}, Multiplicity: 3},
		},
	}
	e := New(table, rules.AEC2013, 3, 1, nil, nil, "")
	_, err := e.Run()
	if err == nil {
		t.Fatalf("expected an unresolved-tie error when all three candidates tie forever with no oracle")
	}
}
