package ballot

import "testing"

func TestExpandBTLTruncatesAtDuplicate(t *testing.T) {
	rule := FormalityRule{MinPreferences: 1, OnViolation: TruncateBeforeViolation}
	exp, err := ExpandBTL(BTLVote{Candidates: []int{2, 0, 0, 1}, N: 5}, rule)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{2, 0}
	if !equalInts(exp.Preferences, want) {
		t.Fatalf("got %v want %v", exp.Preferences, want)
	}
	if exp.Multiplicity != 5 {
		t.Fatalf("multiplicity not preserved: %d", exp.Multiplicity)
	}
}

func TestExpandBTLRejectsEntirely(t *testing.T) {
	rule := FormalityRule{MinPreferences: 1, OnViolation: RejectEntirely}
	_, err := ExpandBTL(BTLVote{Candidates: []int{2, 0, 0, 1}, N: 5}, rule)
	if err == nil {
		t.Fatalf("expected rejection")
	}
}

func TestExpandBTLBelowMinimum(t *testing.T) {
	rule := FormalityRule{MinPreferences: 3, OnViolation: TruncateBeforeViolation}
	_, err := ExpandBTL(BTLVote{Candidates: []int{2, 0}, N: 1}, rule)
	if err != ErrBelowMinimumPreferences {
		t.Fatalf("expected ErrBelowMinimumPreferences, got %v", err)
	}
}

func TestExpandATLConcatenatesPartiesInOrder(t *testing.T) {
	parties := []Party{
		{ColumnID: 0, Candidates: []int{3, 1}},
		{ColumnID: 1, Candidates: []int{2, 0}},
	}
	rule := FormalityRule{MinPreferences: 1, OnViolation: TruncateBeforeViolation}
	exp, err := ExpandATL(ATLVote{Parties: []int{1, 0}, N: 1}, parties, PositionOrder, rule)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{2, 0, 3, 1}
	if !equalInts(exp.Preferences, want) {
		t.Fatalf("got %v want %v", exp.Preferences, want)
	}
}

func TestExpandATLGroupTicket(t *testing.T) {
	parties := []Party{
		{ColumnID: 0, Candidates: []int{0, 1}, Tickets: [][]int{{1, 0}}},
	}
	rule := FormalityRule{MinPreferences: 1, OnViolation: TruncateBeforeViolation}
	exp, err := ExpandATL(ATLVote{Parties: []int{0}, N: 1}, parties, GroupTicket(0), rule)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{1, 0}
	if !equalInts(exp.Preferences, want) {
		t.Fatalf("got %v want %v (group ticket should override position order)", exp.Preferences, want)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
