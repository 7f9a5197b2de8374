package ballot

import (
	"errors"
	"fmt"
)

// ViolationAction selects what happens to a preference list once a formality
// violation (gap or duplicate) is found: either the list is truncated to the
// preferences before the violation, or the whole ballot is rejected as
// informal.
type ViolationAction int

const (
	// TruncateBeforeViolation keeps every preference strictly before the
	// gap/duplicate and discards the rest.
	TruncateBeforeViolation ViolationAction = iota
	// RejectEntirely discards the whole ballot when any violation is found.
	RejectEntirely
)

// FormalityRule is the subset of a Rule Profile that governs how a raw
// preference list is cut down to a formal expanded preference list.
type FormalityRule struct {
	// MinPreferences is the minimum number of unique formal preferences a
	// ballot must carry to be counted at all.
	MinPreferences int
	// OnViolation selects truncate-before vs reject-entirely at the first
	// gap or duplicate.
	OnViolation ViolationAction
	// AllowPartialBelowMinimum, when true, keeps a truncated ballot even if
	// it fell short of MinPreferences after truncation, as long as it has at
	// least one preference (some rule-sets accept partial formality).
	AllowPartialBelowMinimum bool
}

// ErrNoFormalPreferences is returned when a ballot has zero usable
// preferences after expansion and cut-off.
var ErrNoFormalPreferences = errors.New("ballot: no formal preferences")

// ErrBelowMinimumPreferences is returned when RejectEntirely (or a
// truncation that falls below MinPreferences without AllowPartialBelowMinimum)
// leaves too few preferences to be formal.
var ErrBelowMinimumPreferences = errors.New("ballot: below minimum preferences")

// Expanded is one ballot's finite, duplicate-free, gap-free candidate
// preference list together with its multiplicity and optional vote-type
// tag. It is immutable once produced.
type Expanded struct {
	Preferences  []int
	Multiplicity int
	VoteType     string
}

// cutoff walks raw, a sequence of candidate ids possibly containing
// duplicates, and returns the formal prefix per rule. "Gap" in the strict
// electoral sense (a below-the-line voter skipping a preference number)
// cannot be observed once ballots already carry resolved candidate ids
// rather than raw preference numbers, so here a "gap" is modelled as a
// sentinel negative id a parser may have inserted for a skipped number;
// candidate ids are always >= 0 in a valid Data file, so only duplicates are
// possible in practice. Both are handled identically: first violation stops
// the scan.
func cutoff(raw []int, rule FormalityRule) ([]int, error) {
	seen := make(map[int]struct{}, len(raw))
	var out []int
	violated := false
	for _, c := range raw {
		if c < 0 {
			violated = true
			break
		}
		if _, dup := seen[c]; dup {
			violated = true
			break
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	if violated && rule.OnViolation == RejectEntirely {
		return nil, ErrBelowMinimumPreferences
	}

	if len(out) == 0 {
		return nil, ErrNoFormalPreferences
	}
	if len(out) < rule.MinPreferences && !rule.AllowPartialBelowMinimum {
		return nil, ErrBelowMinimumPreferences
	}
	return out, nil
}

// ExpandBTL expands a below-the-line ballot: it already names candidates
// directly, so expansion is just the formality cut-off.
func ExpandBTL(vote BTLVote, rule FormalityRule) (*Expanded, error) {
	prefs, err := cutoff(vote.Candidates, rule)
	if err != nil {
		return nil, err
	}
	return &Expanded{Preferences: prefs, Multiplicity: vote.N}, nil
}

// TicketSelector resolves, for a given party, the ordered candidate sequence
// an ATL vote for that party expands to. GroupTicket selects ticket index
// ticketIdx (pre-2016 federal group voting tickets); Position order ignores
// tickets and uses the party's Candidates slice directly.
type TicketSelector func(party Party) []int

// PositionOrder is the default TicketSelector: candidates in the party's
// declared (ballot position) order.
func PositionOrder(party Party) []int {
	return party.Candidates
}

// GroupTicket returns a TicketSelector that expands a party via its ticketIdx'th
// group voting ticket. A party with no ticket at that index contributes no
// preferences (an absent ticket is not itself a formality violation at this
// layer, and position order is not substituted).
func GroupTicket(ticketIdx int) TicketSelector {
	return func(party Party) []int {
		if ticketIdx >= 0 && ticketIdx < len(party.Tickets) {
			return party.Tickets[ticketIdx]
		}
		return nil
	}
}

// ExpandATL expands an above-the-line ballot by concatenating the candidate
// lists of the named parties, in the order the voter named them, via the
// supplied selector, then applying the formality cut-off to the
// concatenated candidate sequence.
func ExpandATL(vote ATLVote, parties []Party, selector TicketSelector, rule FormalityRule) (*Expanded, error) {
	if selector == nil {
		selector = PositionOrder
	}
	byColumn := make(map[int]Party, len(parties))
	for _, p := range parties {
		byColumn[p.ColumnID] = p
	}

	var raw []int
	for _, col := range vote.Parties {
		party, ok := byColumn[col]
		if !ok {
			return nil, fmt.Errorf("ballot: unknown party column %d", col)
		}
		raw = append(raw, selector(party)...)
	}

	prefs, err := cutoff(raw, rule)
	if err != nil {
		return nil, err
	}
	return &Expanded{Preferences: prefs, Multiplicity: vote.N}, nil
}

// Table is the immutable expanded-ballot table consumed by the engine: every
// formal ballot, above- or below-the-line, reduced to a plain candidate
// preference list and a multiplicity. DeclaredInformal carries the ballot
// file's own declared Informal count and RejectedByRule the multiplicities
// rejected as informal during expansion, so callers can distinguish
// "informal per the file" from "rejected by this rule-set's formality cut-off".
type Table struct {
	Ballots         []Expanded
	DeclaredInformal int
	RejectedByRule   int
}

// BuildTable expands every ATL and BTL vote in d using rule and, for ATL
// votes, selector. Ballots that fail the formality cut-off are counted in
// RejectedByRule and otherwise dropped.
func BuildTable(d *Data, rule FormalityRule, selector TicketSelector) (*Table, error) {
	t := &Table{DeclaredInformal: d.Informal}
	for i, v := range d.ATL {
		exp, err := ExpandATL(v, d.Metadata.Parties, selector, rule)
		if err != nil {
			t.RejectedByRule += v.N
			continue
		}
		exp.VoteType = VoteTypeFor(d.ATLTypes, i)
		t.Ballots = append(t.Ballots, *exp)
	}
	for i, v := range d.BTL {
		exp, err := ExpandBTL(v, rule)
		if err != nil {
			t.RejectedByRule += v.N
			continue
		}
		exp.VoteType = VoteTypeFor(d.BTLTypes, i)
		t.Ballots = append(t.Ballots, *exp)
	}
	return t, nil
}

// TotalFormalBallots sums the multiplicities of every expanded ballot.
func (t *Table) TotalFormalBallots() int {
	total := 0
	for _, b := range t.Ballots {
		total += b.Multiplicity
	}
	return total
}
