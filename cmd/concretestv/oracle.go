package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"concretestv/internal/decision"
)

// interactiveOracle prompts the operator on the controlling terminal for a
// tied group's increasing-favour ordering when no explicit resolution and no
// PRNG seed were supplied. Grounded on cmd/internal/passphrase.Source's
// term.IsTerminal / prompt-on-stderr pattern, adapted from a once-cached
// secret read to a per-tie interactive prompt.
type interactiveOracle struct {
	in  *bufio.Scanner
	fd  int
}

// newInteractiveOracle builds an oracle that reads from stdin, refusing to
// prompt when stdin is not an interactive terminal so a batch invocation
// never blocks waiting for input that will never arrive.
func newInteractiveOracle() *interactiveOracle {
	return &interactiveOracle{in: bufio.NewScanner(os.Stdin), fd: int(os.Stdin.Fd())}
}

func (o *interactiveOracle) Break(tied []int, purpose decision.Purpose) ([]int, string, error) {
	if !term.IsTerminal(o.fd) {
		return nil, "", fmt.Errorf("concretestv: unresolved %s tie among %v and no terminal available for an interactive decision", purpose, tied)
	}

	fmt.Fprintf(os.Stderr, "Unresolved %s tie among candidates %v.\n", purpose, tied)
	fmt.Fprintf(os.Stderr, "Enter the candidates in increasing-favour order (least favoured first), comma-separated: ")
	if !o.in.Scan() {
		if err := o.in.Err(); err != nil {
			return nil, "", fmt.Errorf("concretestv: reading tie resolution: %w", err)
		}
		return nil, "", fmt.Errorf("concretestv: no tie resolution supplied")
	}

	ordering, err := parseOrdering(o.in.Text(), tied)
	if err != nil {
		return nil, "", err
	}
	return ordering, "interactive", nil
}

// parseOrdering validates that the operator's comma-separated input is
// exactly a permutation of tied, rejecting typos, omissions, and candidates
// outside the tied group.
func parseOrdering(input string, tied []int) ([]int, error) {
	fields := strings.Split(input, ",")
	ordering := make([]int, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("concretestv: %q is not a candidate id", f)
		}
		ordering = append(ordering, n)
	}

	want := make(map[int]int, len(tied))
	for _, c := range tied {
		want[c]++
	}
	got := make(map[int]int, len(ordering))
	for _, c := range ordering {
		got[c]++
	}
	if len(ordering) != len(tied) {
		return nil, fmt.Errorf("concretestv: expected %d candidates, got %d", len(tied), len(ordering))
	}
	for c, n := range want {
		if got[c] != n {
			return nil, fmt.Errorf("concretestv: entered ordering is not a permutation of the tied candidates %v", tied)
		}
	}
	return ordering, nil
}
