package countstate

import (
	"testing"

	"concretestv/internal/arithmetic"
)

func TestAddParcelUpdatesTallyAndPapers(t *testing.T) {
	s := New(3, 1)
	p := Parcel{
		Refs:          []BallotRef{{BallotIndex: 0, Count: 10}},
		TransferValue: arithmetic.FullValue(),
	}
	s.AddParcel(0, p)
	if s.Papers[0] != 10 {
		t.Fatalf("expected 10 papers, got %d", s.Papers[0])
	}
	if s.Tally[0].Cmp(arithmetic.FromInt64(10)) != 0 {
		t.Fatalf("expected tally 10, got %s", s.Tally[0].RationalString())
	}
}

func TestSetStatusTransitionsOnce(t *testing.T) {
	s := New(2, 1)
	s.SetStatus(0, Elected)
	if s.StatusOf(0) != Elected {
		t.Fatalf("expected elected")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on double transition")
		}
	}()
	s.SetStatus(0, Excluded)
}

func TestContinuingCandidatesExcludesSettled(t *testing.T) {
	s := New(3, 1)
	s.SetStatus(1, Excluded)
	got := s.ContinuingCandidates()
	want := []int{0, 2}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v want %v", got, want)
	}
}
