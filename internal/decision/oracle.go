// Package decision resolves any choice the tally itself cannot: count-back
// tie-breaking, and — failing that — an external tie oracle. The oracle
// never observes ballots, only candidate identities and the purpose of the
// decision, so a transcript recording its choices is enough to replay a
// commission's decisions exactly.
package decision

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

// Purpose names why a tie-break is being requested.
type Purpose int

const (
	PurposeExclude Purpose = iota
	PurposeElectOrder
	PurposeSurplusOrder
	PurposeOther
)

func (p Purpose) String() string {
	switch p {
	case PurposeExclude:
		return "exclude"
	case PurposeElectOrder:
		return "elect-order"
	case PurposeSurplusOrder:
		return "surplus-order"
	default:
		return "other"
	}
}

// ErrUnresolvedTie is returned when no oracle decision and no PRNG seed are
// available to break a tie; the engine halts and surfaces this to the CLI
// for operator intervention.
var ErrUnresolvedTie = errors.New("decision: unresolved tie, no oracle available")

// Record captures everything needed to replay a tie resolution exactly: the
// purpose, the count-back groups consulted, the method used to break any
// remaining ties, and the final increasing-favour ordering chosen.
type Record struct {
	Purpose     Purpose
	Consulted   Groups
	Method      string // e.g. "countback", "explicit", "explicit-tie-flag", "prng", "interactive", "reverse-donkey"
	Chosen      []int
}

// Oracle breaks a still-tied group (every member equally favoured after
// count-back) into a strict increasing-favour order.
type Oracle interface {
	Break(tied []int, purpose Purpose) (ordering []int, method string, err error)
}

// TieResolution is the minimal shape of a ballot-file tie resolution the
// ExplicitOracle consults; it mirrors ballot.TieResolution without importing
// the ballot package, keeping decision free of a dependency on ballot
// encoding.
type TieResolution struct {
	Favoured    []int
	Disfavoured []int
}

// ExplicitOracle replays commission decisions recorded in the ballot file:
// Resolutions is consulted in order, and the first entry whose Favoured and
// Disfavoured sets, restricted to the tied group, are both non-empty and
// together cover every tied candidate determines the order (every Favoured
// candidate ranked above every Disfavoured one, each side in id order). An
// entry that leaves any tied candidate unmentioned is skipped.
type ExplicitOracle struct {
	Resolutions []TieResolution
	Fallback    Oracle // consulted if no resolution fully determines the tied group
}

func (o ExplicitOracle) Break(tied []int, purpose Purpose) ([]int, string, error) {
	set := make(map[int]struct{}, len(tied))
	for _, c := range tied {
		set[c] = struct{}{}
	}
	for _, res := range o.Resolutions {
		favoured := intersect(res.Favoured, set)
		disfavoured := intersect(res.Disfavoured, set)
		if len(favoured) == 0 || len(disfavoured) == 0 {
			continue
		}
		if len(favoured)+len(disfavoured) != len(tied) {
			continue // only a full bipartition of this tied group is usable
		}
		ordering := append(append([]int{}, disfavoured...), favoured...)
		return ordering, "explicit", nil
	}
	if o.Fallback != nil {
		return o.Fallback.Break(tied, purpose)
	}
	return nil, "", ErrUnresolvedTie
}

func intersect(candidates []int, set map[int]struct{}) []int {
	var out []int
	for _, c := range candidates {
		if _, ok := set[c]; ok {
			out = append(out, c)
		}
	}
	sort.Ints(out)
	return out
}

// SeededOracle deterministically shuffles a tied group using a seeded PRNG,
// reproducing the same ordering for the same seed and tied set every run.
type SeededOracle struct {
	Seed int64
}

func (o SeededOracle) Break(tied []int, _ Purpose) ([]int, string, error) {
	ordering := append([]int(nil), tied...)
	sort.Ints(ordering) // canonicalise before shuffling so seed determinism doesn't depend on caller's slice order
	src := rand.New(rand.NewSource(o.Seed ^ seedMix(ordering)))
	src.Shuffle(len(ordering), func(i, j int) { ordering[i], ordering[j] = ordering[j], ordering[i] })
	return ordering, "prng", nil
}

// seedMix folds the tied candidate set into the seed so that different tied
// groups within the same run do not draw identical shuffles from the PRNG.
func seedMix(candidates []int) int64 {
	var h int64 = 1469598103934665603
	for _, c := range candidates {
		h ^= int64(c)
		h *= 1099511628211
	}
	return h
}

// ReverseDonkeyOracle breaks ties by reversed ballot-paper position: the
// candidate drawn last on the ballot paper (the "donkey vote" beneficiary)
// is treated as least favoured: the deterministic fallback used when no
// PRNG seed and no explicit decision are available.
type ReverseDonkeyOracle struct {
	Position map[int]int // candidate -> ballot position
}

func (o ReverseDonkeyOracle) Break(tied []int, _ Purpose) ([]int, string, error) {
	ordering := append([]int(nil), tied...)
	sort.SliceStable(ordering, func(i, j int) bool {
		return o.Position[ordering[i]] > o.Position[ordering[j]]
	})
	return ordering, "reverse-donkey", nil
}

// Resolve applies count-back first, then consults oracle for any group that
// remains tied, producing a fully resolved increasing-favour ordering and
// the Record needed to reproduce it.
func Resolve(candidates []int, history []Snapshot, mode CountBackMode, purpose Purpose, oracle Oracle) ([]int, Record, error) {
	groups := ResolveCountBack(candidates, history, mode)
	record := Record{Purpose: purpose, Consulted: groups, Method: "countback"}

	if groups.Resolved() {
		record.Chosen = groups.Flatten()
		return record.Chosen, record, nil
	}

	var resolved Groups
	lastMethod := "countback"
	for _, grp := range groups {
		if len(grp) == 1 {
			resolved = append(resolved, grp)
			continue
		}
		if oracle == nil {
			return nil, record, fmt.Errorf("%w: candidates %v (%s)", ErrUnresolvedTie, grp, purpose)
		}
		ordering, method, err := oracle.Break(grp, purpose)
		if err != nil {
			return nil, record, fmt.Errorf("decision: %s tie among %v: %w", purpose, grp, err)
		}
		lastMethod = method
		for _, c := range ordering {
			resolved = append(resolved, []int{c})
		}
	}
	record.Method = lastMethod
	record.Chosen = resolved.Flatten()
	return record.Chosen, record, nil
}
