package countstate

import (
	"fmt"
	"strings"

	"concretestv/internal/arithmetic"
)

// Status is the lifecycle stage of a candidate: continuing, elected, or
// excluded. A candidate transitions exactly once out of Continuing.
type Status int

const (
	Continuing Status = iota
	Elected
	Excluded
)

func (s Status) String() string {
	switch s {
	case Elected:
		return "elected"
	case Excluded:
		return "excluded"
	default:
		return "continuing"
	}
}

// PendingSurplus records an elected candidate's outstanding surplus awaiting
// distribution. CountAcquired is the count at which the candidate most
// crossed the quota; it breaks ties between pending surpluses — an earlier-count
// pending surplus is distributed before a later-count one.
type PendingSurplus struct {
	Candidate     int
	Surplus       arithmetic.Tally
	CountAcquired int
}

// State is the mutable per-candidate tally and paper-count state the engine
// threads through every count. It never revises a transcript record once
// written; State itself is the working state the next record is derived
// from.
type State struct {
	NumCandidates int

	Tally  []arithmetic.Tally
	Papers []int64

	ExhaustedTally  arithmetic.Tally
	ExhaustedPapers int64
	RoundingLoss    arithmetic.Tally

	status []Status

	Elected  []int
	Excluded []int

	holdings [][]Parcel // index by candidate, oldest parcel first.

	PendingSurpluses []PendingSurplus

	Quota           arithmetic.Tally
	VacanciesFilled int
	VacanciesTotal  int
}

// New allocates a zeroed State for n candidates and the given number of
// vacancies.
func New(n, vacancies int) *State {
	s := &State{
		NumCandidates:  n,
		Tally:          make([]arithmetic.Tally, n),
		Papers:         make([]int64, n),
		status:         make([]Status, n),
		holdings:       make([][]Parcel, n),
		VacanciesTotal: vacancies,
	}
	for i := range s.Tally {
		s.Tally[i] = arithmetic.Zero()
	}
	s.ExhaustedTally = arithmetic.Zero()
	s.RoundingLoss = arithmetic.Zero()
	s.Quota = arithmetic.Zero()
	return s
}

// StatusOf returns candidate c's current lifecycle status.
func (s *State) StatusOf(c int) Status { return s.status[c] }

// SetStatus transitions candidate c. It panics if c has already left
// Continuing, since a candidate may only transition once.
func (s *State) SetStatus(c int, status Status) {
	if s.status[c] != Continuing {
		panic(fmt.Sprintf("countstate: candidate %d already %s, cannot transition to %s", c, s.status[c], status))
	}
	s.status[c] = status
	switch status {
	case Elected:
		s.Elected = append(s.Elected, c)
		s.VacanciesFilled++
	case Excluded:
		s.Excluded = append(s.Excluded, c)
	}
}

// ContinuingCandidates returns the ids of every candidate still neither
// elected nor excluded.
func (s *State) ContinuingCandidates() []int {
	var out []int
	for c := 0; c < s.NumCandidates; c++ {
		if s.status[c] == Continuing {
			out = append(out, c)
		}
	}
	return out
}

// Holdings returns candidate c's parcels, oldest-acquired first.
func (s *State) Holdings(c int) []Parcel {
	return s.holdings[c]
}

// AddParcel appends a newly-received parcel to candidate c's holdings and
// adds its value to c's tally/papers.
func (s *State) AddParcel(c int, p Parcel) {
	s.holdings[c] = append(s.holdings[c], p)
	s.Tally[c] = s.Tally[c].Add(p.Value())
	s.Papers[c] += int64(p.Papers())
}

// ReplaceHoldings overwrites candidate c's entire parcel list; callers must
// also call RecomputeFromHoldings to keep Tally/Papers consistent.
func (s *State) ReplaceHoldings(c int, parcels []Parcel) {
	s.holdings[c] = parcels
}

// RecomputeFromHoldings recomputes candidate c's tally and paper count from
// its current holdings. Used after a parcel is removed/added outside of
// AddParcel (e.g. an excluded candidate's holdings are drained to zero).
func (s *State) RecomputeFromHoldings(c int) {
	total := arithmetic.Zero()
	papers := int64(0)
	for _, p := range s.holdings[c] {
		total = total.Add(p.Value())
		papers += int64(p.Papers())
	}
	s.Tally[c] = total
	s.Papers[c] = papers
}

// AddExhausted records ballots with no further continuing preference.
func (s *State) AddExhausted(tally arithmetic.Tally, papers int64) {
	s.ExhaustedTally = s.ExhaustedTally.Add(tally)
	s.ExhaustedPapers += papers
}

// AddRoundingLoss accumulates votes lost (or, where the rule allows, gained)
// to rounding in a sub-transfer.
func (s *State) AddRoundingLoss(delta arithmetic.Tally) {
	s.RoundingLoss = s.RoundingLoss.Add(delta)
}

// TotalTally sums every continuing/elected/excluded candidate's tally plus
// exhausted plus rounding loss, the quantity that must always equal the
// total formal ballots (sign conventions are rule-defined).
func (s *State) TotalTally() arithmetic.Tally {
	total := s.ExhaustedTally.Add(s.RoundingLoss)
	for _, t := range s.Tally {
		total = total.Add(t)
	}
	return total
}

// DebugDump renders the full state as a diagnostic string for use when an
// engine invariant is violated: an invariant failure aborts with a state
// dump rather than failing silently.
func (s *State) DebugDump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "quota=%s vacancies=%d/%d\n", s.Quota.RationalString(), s.VacanciesFilled, s.VacanciesTotal)
	for c := 0; c < s.NumCandidates; c++ {
		fmt.Fprintf(&b, "  candidate %d: status=%s tally=%s papers=%d parcels=%d\n",
			c, s.status[c], s.Tally[c].RationalString(), s.Papers[c], len(s.holdings[c]))
	}
	fmt.Fprintf(&b, "  exhausted: tally=%s papers=%d\n", s.ExhaustedTally.RationalString(), s.ExhaustedPapers)
	fmt.Fprintf(&b, "  rounding loss: %s\n", s.RoundingLoss.RationalString())
	fmt.Fprintf(&b, "  pending surpluses: %+v\n", s.PendingSurpluses)
	return b.String()
}
