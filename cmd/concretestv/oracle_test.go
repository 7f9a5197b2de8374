package main

import "testing"

func TestParseOrderingAcceptsAPermutation(t *testing.T) {
	got, err := parseOrdering(" 2, 0 ,1", []int{0, 1, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{2, 0, 1}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestParseOrderingRejectsWrongLength(t *testing.T) {
	if _, err := parseOrdering("0,1", []int{0, 1, 2}); err == nil {
		t.Fatalf("expected an error for a short ordering")
	}
}

func TestParseOrderingRejectsNonPermutation(t *testing.T) {
	if _, err := parseOrdering("0,1,1", []int{0, 1, 2}); err == nil {
		t.Fatalf("expected an error for a non-permutation")
	}
}

func TestParseOrderingRejectsGarbage(t *testing.T) {
	if _, err := parseOrdering("a,b,c", []int{0, 1, 2}); err == nil {
		t.Fatalf("expected an error for non-numeric input")
	}
}
