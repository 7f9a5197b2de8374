package arithmetic

import "fmt"

// TransferValue is the rational weight applied to every ballot in a parcel
// during a distribution. Most rule-sets compare transfer values purely by
// numerical value; ACT2020 has a documented bug where two surpluses that
// happen to produce the same value are nonetheless treated as distinct
// parcels because the clause that created them tags the transfer value with
// the count that produced it. TrackOrigin encodes that flag per-value so the
// Count State layer can decide whether to merge parcels.
type TransferValue struct {
	Value       Fraction
	OriginCount int
	TrackOrigin bool
}

// NewTransferValue builds a transfer value with no origin tracking.
func NewTransferValue(f Fraction) TransferValue {
	return TransferValue{Value: f}
}

// NewTrackedTransferValue builds a transfer value that participates in
// "preserve origin identity" equality, per ACT2020's documented bug.
func NewTrackedTransferValue(f Fraction, originCount int) TransferValue {
	return TransferValue{Value: f, OriginCount: originCount, TrackOrigin: true}
}

// FullValue is the transfer value of 1, applied to first preferences.
func FullValue() TransferValue {
	return TransferValue{Value: One()}
}

// SameAs reports whether two transfer values should be treated as
// interchangeable for the purpose of merging parcels. Under ordinary rules
// this is exact numerical equality; when either value tracks its origin
// count, equality additionally requires the origin counts to match.
func (t TransferValue) SameAs(o TransferValue) bool {
	if !t.Value.Equal(o.Value) {
		return false
	}
	if t.TrackOrigin || o.TrackOrigin {
		return t.OriginCount == o.OriginCount
	}
	return true
}

// String renders the transfer value as the transcript format expects:
// "n/d" or "1".
func (t TransferValue) String() string {
	return t.Value.String()
}

// GoString supports %#v debugging output.
func (t TransferValue) GoString() string {
	if t.TrackOrigin {
		return fmt.Sprintf("TransferValue{%s, origin=%d}", t.Value.String(), t.OriginCount)
	}
	return fmt.Sprintf("TransferValue{%s}", t.Value.String())
}
