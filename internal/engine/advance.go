// Package engine is the rule-parameterised counting engine: the state
// machine that turns an expanded ballot table, a Rule Profile, and a tie
// Oracle into a Transcript. It is deliberately the only package that
// branches on rules.Profile fields — countstate, arithmetic, ballot,
// decision and transcript stay rule-agnostic.
package engine

import (
	"concretestv/internal/ballot"
	"concretestv/internal/countstate"
)

// advanceResult is where a single ballot reference lands after searching
// for its next continuing preference.
type advanceResult struct {
	ref       countstate.BallotRef
	candidate int  // valid only if !exhausted
	exhausted bool
}

// advance scans b's preference list, starting just after ref's current
// position, for the next candidate status reports as continuing. A
// preference naming an elected or excluded candidate is skipped silently —
// that is how a later preference "flows through" a candidate who has
// already left the count.
func advance(ref countstate.BallotRef, b ballot.Expanded, status func(int) countstate.Status) advanceResult {
	for i := ref.FromPosition + 1; i < len(b.Preferences); i++ {
		c := b.Preferences[i]
		if status(c) == countstate.Continuing {
			return advanceResult{
				ref:       countstate.BallotRef{BallotIndex: ref.BallotIndex, Count: ref.Count, FromPosition: i},
				candidate: c,
			}
		}
	}
	return advanceResult{ref: ref, exhausted: true}
}
