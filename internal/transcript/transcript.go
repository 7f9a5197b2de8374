// Package transcript defines the append-only record of a count: the
// sequence of count rows the engine emits, and the file format ("legislated
// arithmetic in, auditable JSON out") a transcript is saved in. Once
// appended, a count row is never revised — the engine derives its next
// decision from countstate.State, not by rewriting history.
package transcript

import (
	"concretestv/internal/arithmetic"
	"concretestv/internal/decision"
)

// Reason names why a count row exists.
type Reason struct {
	FirstPreferenceCount bool
	ExcessDistribution   *int // candidate id, if this row distributes a surplus
	Elimination          []int // candidate ids, if this row excludes one or more candidates
}

// Portion describes the parcels a count row processed: the transfer value
// applied and which earlier counts' parcels fed it.
type Portion struct {
	TransferValue         arithmetic.TransferValue
	WhenTVCreated         *int
	PapersCameFromCounts  []int
}

// CreatedTransferValue records how a new transfer value was derived, when
// this count row creates one (a surplus distribution, or an NSW-style
// sub-transfer).
type CreatedTransferValue struct {
	TransferValue          arithmetic.TransferValue
	Surplus                arithmetic.Tally
	BallotsConsidered      int
	ContinuingBallots      int
	OriginalTransferValue  *arithmetic.TransferValue
	MultipliedTransferValue *arithmetic.TransferValue
	ExcludedExhaustedTally *arithmetic.Tally
}

// Status is the per-candidate tally/papers snapshot recorded at this count.
type Status struct {
	Tallies       []arithmetic.Tally
	Papers        []int64
	Exhausted     arithmetic.Tally
	ExhaustedPapers int64
	Rounding      arithmetic.Tally
}

// ElectedEntry records one candidate elected in this count row, and why.
type ElectedEntry struct {
	Who int
	Why string // "reached quota", "rule 11(1): fills remaining vacancies", etc.
}

// Count is one row of the transcript: the atomic unit the engine appends.
type Count struct {
	Reason              Reason
	Portion             *Portion
	CreatedTransferValue *CreatedTransferValue
	Status              Status
	SetAsideForQuota    *Status
	Elected             []ElectedEntry
	NotContinuing       []int
	ReasonCompleted     bool
	Decisions           []decision.Record
}

// Quota is the transcript's quota block.
type Quota struct {
	Quota     arithmetic.Tally
	Papers    int64
	Vacancies int
}

// Transcript is the full per-election record: the quota block, every count
// row in strict count order, and the final elected set.
type Transcript struct {
	RunID       string
	RuleProfile string
	Quota       Quota
	Counts      []Count
	Elected     []int
}

// Recorder accumulates Counts append-only; the engine never revises a row
// once Append returns.
type Recorder struct {
	t Transcript
}

// NewRecorder starts a Recorder for the given rule profile and quota block.
// runID stamps the transcript with a stable identifier (typically a
// google/uuid value minted by the CLI) so two invocations over the same
// ballot file can be told apart in logs and output paths; the engine itself
// never generates one, preserving its purity as a function of its inputs.
func NewRecorder(ruleProfile string, quota Quota, runID string) *Recorder {
	return &Recorder{t: Transcript{RuleProfile: ruleProfile, Quota: quota, RunID: runID}}
}

// Append adds a new count row. Rows are numbered implicitly by their
// position (1-indexed in output, 0-indexed in this slice).
func (r *Recorder) Append(c Count) int {
	r.t.Counts = append(r.t.Counts, c)
	return len(r.t.Counts) - 1
}

// Finish records the final elected set (in election order) and returns the
// completed, immutable Transcript.
func (r *Recorder) Finish(elected []int) Transcript {
	r.t.Elected = append([]int(nil), elected...)
	return r.t
}

// Len reports how many count rows have been appended so far.
func (r *Recorder) Len() int { return len(r.t.Counts) }

// CountAt returns the row at the given 0-indexed count, for engine code
// that needs to amend still-open bookkeeping (e.g. provisional exhausted
// papers) before the next Append — never to revise a historical decision.
func (r *Recorder) CountAt(i int) *Count { return &r.t.Counts[i] }
