// Package countstate holds the mutable per-candidate tally and paper-count
// state, the ordered parcels each candidate holds, and the pending-surplus
// queue the engine consults each iteration of its main loop.
package countstate

import "concretestv/internal/arithmetic"

// BallotRef references a subset of one expanded ballot's multiplicity by
// index into the engine's immutable ballot table, rather than copying the
// preference list itself. Count is how many individual ballot papers of that
// expanded ballot this reference carries; it is always <= the ballot's full
// multiplicity, since a ballot's papers can be split across parcels as they
// exhaust at different preferences or attract different transfer values.
type BallotRef struct {
	BallotIndex int
	Count       int

	// FromPosition is the index, into the ballot's expanded preference
	// list, of the preference that assigned this ballot to its current
	// holder. Advancing the ballot to its next continuing preference
	// resumes scanning at FromPosition+1, never from the start.
	FromPosition int
}

// Papers sums the Count of a slice of BallotRefs.
func Papers(refs []BallotRef) int {
	total := 0
	for _, r := range refs {
		total += r.Count
	}
	return total
}

// Parcel is an immutable record of ballots held by a candidate at a single
// transfer value, tagged with the count at which they were acquired.
// Parcels are never mutated once created: redistribution consumes a parcel
// from the holder's list and produces new parcels for each receiving
// candidate (or contributes to the exhausted pile).
type Parcel struct {
	Refs                  []BallotRef
	TransferValue         arithmetic.TransferValue
	OriginCount           int
	OriginalTransferValue *arithmetic.TransferValue

	// RoundedValue is the vote count actually recorded for this parcel,
	// after the Rule Profile's vote-rounding direction and kind were
	// applied at the count that created it. It is nil only for parcels
	// that were never rounded (a transfer value of exactly 1, as at first
	// preferences, where exact and rounded coincide). The difference
	// between Value() and RoundedValue is where rounding loss comes from.
	RoundedValue *arithmetic.Tally
}

// Papers returns the number of ballot papers in the parcel.
func (p Parcel) Papers() int {
	return Papers(p.Refs)
}

// Value returns the vote count this parcel contributes to its holder's
// tally: the Rule-Profile-rounded value recorded when the parcel was
// created, or the exact papers * transfer value product if no rounding was
// ever applied to it.
func (p Parcel) Value() arithmetic.Tally {
	if p.RoundedValue != nil {
		return *p.RoundedValue
	}
	return p.ExactValue()
}

// ExactValue returns papers * transfer value as an exact rational,
// ignoring any rounding applied when the parcel was created.
func (p Parcel) ExactValue() arithmetic.Tally {
	return arithmetic.FromRat(arithmetic.FromInt64(int64(p.Papers())).MulFraction(p.TransferValue.Value))
}
