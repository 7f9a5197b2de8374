package engineerr

import (
	"errors"
	"strings"
	"testing"
)

func TestInvariantErrorCarriesStateDump(t *testing.T) {
	err := NewInvariant(4, "vote conservation", "quota=61 vacancies=2/2\n")
	if !strings.Contains(err.Error(), "count 4") {
		t.Fatalf("expected error message to name the offending count, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "vote conservation") {
		t.Fatalf("expected error message to name the violated invariant, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "quota=61") {
		t.Fatalf("expected error message to embed the state dump, got %q", err.Error())
	}
}

func TestInvariantUnwrapsAsAnInvariant(t *testing.T) {
	var wrapped error = NewInvariant(0, "x", "y")
	var target *Invariant
	if !errors.As(wrapped, &target) {
		t.Fatalf("expected errors.As to recover an *Invariant")
	}
	if target.Count != 0 {
		t.Fatalf("expected count 0, got %d", target.Count)
	}
}
