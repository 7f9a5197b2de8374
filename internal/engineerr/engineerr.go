// Package engineerr collects the engine's fatal, programming-bug-class
// errors: invariant violations that abort the count with a diagnostic
// state dump rather than being handled as ordinary input or configuration
// errors. A single wrapping type rather than bare sentinels, since every
// instance needs to carry the state dump that produced it.
package engineerr

import "fmt"

// Invariant reports that a Count State or transcript invariant the engine
// depends on for correctness no longer holds. It is never expected to occur
// for a correctly implemented Rule Profile; its presence indicates a bug in
// the engine, not bad input data.
type Invariant struct {
	// Count is the 0-indexed count row being constructed when the
	// violation was detected, or -1 if detected before the first count.
	Count int
	// Message names which invariant failed, e.g. "vote conservation".
	Message string
	// StateDump is CountState.DebugDump() at the moment of failure.
	StateDump string
}

func (e *Invariant) Error() string {
	return fmt.Sprintf("engine: invariant violated at count %d: %s\n%s", e.Count, e.Message, e.StateDump)
}

// NewInvariant builds an Invariant error, capturing the offending count and
// a diagnostic dump of the current state.
func NewInvariant(count int, message, stateDump string) *Invariant {
	return &Invariant{Count: count, Message: message, StateDump: stateDump}
}
