package engine

import (
	"fmt"

	"concretestv/internal/arithmetic"
	"concretestv/internal/ballot"
	"concretestv/internal/countstate"
	"concretestv/internal/decision"
	"concretestv/internal/engineerr"
	"concretestv/internal/rules"
	"concretestv/internal/transcript"
)

// Engine is the rule-parameterised counting engine: a pure function, given
// its inputs, from (ballot table, rule profile, tie oracle) to a
// Transcript. It holds no state beyond a single Run invocation.
type Engine struct {
	table     *ballot.Table
	profile   rules.Profile
	oracle    decision.Oracle
	positions map[int]int // candidate -> ballot-paper position, for reverse-donkey fallback
	runID     string

	state   *countstate.State
	rec     *transcript.Recorder
	history []decision.Snapshot

	// pendingDecisions holds the tie resolutions made since the last count
	// row was appended; appendCount drains it into the row, so every "EC
	// decision needed" lands on the count it influenced.
	pendingDecisions []decision.Record
}

// New constructs an Engine ready to Run a single count. runID stamps the
// resulting Transcript (see transcript.NewRecorder); callers with no
// particular run identity to record may pass "".
func New(table *ballot.Table, profile rules.Profile, numCandidates, vacancies int, oracle decision.Oracle, positions map[int]int, runID string) *Engine {
	return &Engine{
		table:     table,
		profile:   profile,
		oracle:    oracle,
		positions: positions,
		runID:     runID,
		state:     countstate.New(numCandidates, vacancies),
	}
}

// ErrUnresolvedTie is returned (wrapping decision.ErrUnresolvedTie) when the
// engine cannot break a tie and halts.
var ErrUnresolvedTie = decision.ErrUnresolvedTie

// PreExclude marks candidates excluded before the count begins (the CLI's
// --exclude flag and a ballot file's metadata.excluded), so rule-profiles
// that support manually forcing a candidate out before counting starts
// (e.g. a withdrawn candidate) never parcel a first-preference ballot to
// them. It must be called before Run. Candidates already elected or
// excluded, or out of range, are left untouched.
func (e *Engine) PreExclude(candidates []int) {
	for _, c := range candidates {
		if c < 0 || c >= e.state.NumCandidates {
			continue
		}
		if e.state.StatusOf(c) == countstate.Continuing {
			e.state.SetStatus(c, countstate.Excluded)
		}
	}
}

// Run executes the full state machine: S0 Setup, S1 First Preferences, S2
// Main Loop, to Done, and returns the completed Transcript.
func (e *Engine) Run() (transcript.Transcript, error) {
	total := arithmetic.FromInt64(int64(e.table.TotalFormalBallots()))
	quota := computeQuota(e.profile, total, e.state.VacanciesTotal)
	e.state.Quota = quota
	e.rec = transcript.NewRecorder(e.profile.Name, transcript.Quota{
		Quota:     quota,
		Papers:    int64(e.table.TotalFormalBallots()),
		Vacancies: e.state.VacanciesTotal,
	}, e.runID)

	if err := e.firstPreferences(); err != nil {
		return transcript.Transcript{}, err
	}

	for {
		done, err := e.step()
		if err != nil {
			return transcript.Transcript{}, err
		}
		if done {
			break
		}
	}

	return e.rec.Finish(e.state.Elected), nil
}

// firstPreferences is S1: every formal ballot is parcelled at its first
// preference, quota is checked, and the first count row is appended.
func (e *Engine) firstPreferences() error {
	byCandidate := map[int][]countstate.BallotRef{}
	for i, b := range e.table.Ballots {
		c, ok := e.firstContinuingPreference(b.Preferences)
		if !ok {
			e.state.AddExhausted(arithmetic.FromInt64(int64(b.Multiplicity)), int64(b.Multiplicity))
			continue
		}
		byCandidate[c] = append(byCandidate[c], countstate.BallotRef{BallotIndex: i, Count: b.Multiplicity})
	}
	for c, refs := range byCandidate {
		e.state.AddParcel(c, countstate.Parcel{
			Refs:          refs,
			TransferValue: arithmetic.FullValue(),
			OriginCount:   0,
		})
	}

	if _, err := e.appendCount(transcript.Count{
		Reason:          transcript.Reason{FirstPreferenceCount: true},
		Status:          e.statusSnapshot(),
		ReasonCompleted: true,
	}); err != nil {
		return err
	}
	e.recordHistory()

	return e.electReachingQuota(0)
}

// firstContinuingPreference returns the first preference on prefs that has
// not been pre-excluded, since a first-preference ballot for a withdrawn
// (PreExclude'd) candidate must flow to the voter's next usable preference
// rather than being parcelled to a candidate no longer in the count.
func (e *Engine) firstContinuingPreference(prefs []int) (int, bool) {
	for _, c := range prefs {
		if e.state.StatusOf(c) == countstate.Continuing {
			return c, true
		}
	}
	return 0, false
}

// step runs a single main-loop iteration: one termination check, one
// surplus distribution, or one exclusion. It reports done=true once the
// engine reaches the Done state.
func (e *Engine) step() (bool, error) {
	done, err := e.checkTermination()
	if err != nil {
		return false, err
	}
	if done {
		return true, nil
	}

	if c, ok := e.selectPendingSurplus(); ok {
		if err := e.distributeSurplus(c); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := e.exclude(); err != nil {
		return false, err
	}
	return false, nil
}

// checkTermination applies the vacancies-filled, rule 11(1)-equivalent and
// (where the profile enables them) clause 11(2)/11(3) early-win checks. It
// never fires mid-exclusion/mid-surplus, only between counts.
func (e *Engine) checkTermination() (bool, error) {
	if e.state.VacanciesFilled >= e.state.VacanciesTotal &&
		(!e.profile.ContinueSurplusAfterSeatsFilled || len(e.state.PendingSurpluses) == 0) {
		return true, nil
	}

	continuing := e.state.ContinuingCandidates()
	remaining := e.state.VacanciesTotal - e.state.VacanciesFilled
	if len(continuing) > 0 && len(continuing) <= remaining {
		order, _ := e.tieBreak(continuing, decision.PurposeElectOrder)
		entries := make([]transcript.ElectedEntry, 0, len(order))
		for i := len(order) - 1; i >= 0; i-- {
			c := order[i]
			e.state.SetStatus(c, countstate.Elected)
			entries = append(entries, transcript.ElectedEntry{Who: c, Why: "remaining continuing candidates fill remaining vacancies"})
		}
		if _, err := e.appendCount(transcript.Count{
			Status:          e.statusSnapshot(),
			Elected:         entries,
			ReasonCompleted: true,
		}); err != nil {
			return false, err
		}
		e.recordHistory()
		return true, nil
	}

	return e.checkEarlyWin()
}

// largestPendingSurplus selects the next surplus to distribute: largest
// value first, earlier-count pending surpluses before later-count ones
// when tied, per the federal 273(19) analogue.
func (e *Engine) largestPendingSurplus() (int, bool) {
	if len(e.state.PendingSurpluses) == 0 {
		return 0, false
	}
	best := 0
	for i := 1; i < len(e.state.PendingSurpluses); i++ {
		p, b := e.state.PendingSurpluses[i], e.state.PendingSurpluses[best]
		if p.Surplus.Cmp(b.Surplus) > 0 {
			best = i
		} else if p.Surplus.Cmp(b.Surplus) == 0 && p.CountAcquired < b.CountAcquired {
			best = i
		}
	}
	return best, true
}

// electReachingQuota elects, in descending-tally tie-broken order, every
// continuing candidate whose tally has reached quota, recording a pending
// surplus for each.
func (e *Engine) electReachingQuota(countAcquired int) error {
	var reaching []int
	for _, c := range e.state.ContinuingCandidates() {
		if e.state.Tally[c].Cmp(e.state.Quota) >= 0 {
			reaching = append(reaching, c)
		}
	}
	if len(reaching) == 0 {
		return nil
	}
	order, err := e.tieBreakErr(reaching, decision.PurposeElectOrder)
	if err != nil {
		return err
	}
	for i := len(order) - 1; i >= 0; i-- {
		c := order[i]
		e.state.SetStatus(c, countstate.Elected)
		surplus := e.state.Tally[c].Sub(e.state.Quota)
		if surplus.Sign() > 0 {
			e.state.PendingSurpluses = append(e.state.PendingSurpluses, countstate.PendingSurplus{
				Candidate: c, Surplus: surplus, CountAcquired: countAcquired,
			})
		}
	}
	return nil
}

// recordHistory snapshots every candidate's current tally for count-back
// tie-breaking at a future count.
func (e *Engine) recordHistory() {
	snap := make(decision.Snapshot, e.state.NumCandidates)
	for c := 0; c < e.state.NumCandidates; c++ {
		snap[c] = e.state.Tally[c]
	}
	e.history = append(e.history, snap)
}

func (e *Engine) statusSnapshot() transcript.Status {
	return transcript.Status{
		Tallies:         append([]arithmetic.Tally(nil), e.state.Tally...),
		Papers:          append([]int64(nil), e.state.Papers...),
		Exhausted:       e.state.ExhaustedTally,
		ExhaustedPapers: e.state.ExhaustedPapers,
		Rounding:        e.state.RoundingLoss,
	}
}

// appendCount appends a count row, then checks the vote-conservation
// invariant that must hold after every count: every formal ballot is
// accounted for as a continuing tally, an exhausted paper, or rounding
// loss. A violation indicates an engine bug, not bad input, so it is
// reported as an *engineerr.Invariant carrying a diagnostic state dump
// rather than folded into the ordinary input/configuration error paths.
func (e *Engine) appendCount(c transcript.Count) (int, error) {
	c.Decisions = append(c.Decisions, e.pendingDecisions...)
	e.pendingDecisions = nil
	idx := e.rec.Append(c)
	if err := e.checkInvariants(idx); err != nil {
		return idx, err
	}
	return idx, nil
}

func (e *Engine) checkInvariants(count int) error {
	total := arithmetic.FromInt64(int64(e.table.TotalFormalBallots()))
	if e.state.TotalTally().Cmp(total) != 0 {
		return engineerr.NewInvariant(count, "vote conservation: sum(tally)+exhausted+rounding != total formal ballots", e.state.DebugDump())
	}
	return nil
}

// tieBreak resolves candidates into increasing-favour order, panicking
// never, returning the best-effort countback order if no oracle can
// resolve a remaining tie (callers that must fail loudly use tieBreakErr).
func (e *Engine) tieBreak(candidates []int, purpose decision.Purpose) ([]int, decision.Record) {
	order, rec, err := decision.Resolve(candidates, e.history, e.profile.CountBackMode, purpose, e.oracleOrFallback())
	if err != nil {
		return rec.Consulted.Flatten(), rec
	}
	e.noteDecision(rec)
	return order, rec
}

func (e *Engine) tieBreakErr(candidates []int, purpose decision.Purpose) ([]int, error) {
	order, rec, err := decision.Resolve(candidates, e.history, e.profile.CountBackMode, purpose, e.oracleOrFallback())
	if err != nil {
		return nil, fmt.Errorf("engine: count %d: %w", e.rec.Len(), err)
	}
	e.noteDecision(rec)
	return order, nil
}

// noteDecision queues a tie resolution for the next count row, but only
// when the count-back alone could not resolve it: a decision the tallies
// fully determine needs no record to replay, whereas one that consulted
// the oracle is an "EC decision needed" the transcript must carry.
func (e *Engine) noteDecision(rec decision.Record) {
	if rec.Method == "countback" {
		return
	}
	e.pendingDecisions = append(e.pendingDecisions, rec)
}

// oracleOrFallback returns the configured Oracle; when none is configured
// and ballot positions are known it substitutes a deterministic
// reverse-donkey oracle, so a count run without an oracle still gets a
// reproducible answer rather than an aborted count.
func (e *Engine) oracleOrFallback() decision.Oracle {
	if e.oracle != nil {
		return e.oracle
	}
	if e.positions != nil {
		return decision.ReverseDonkeyOracle{Position: e.positions}
	}
	return nil
}
