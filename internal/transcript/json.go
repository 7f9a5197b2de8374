package transcript

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"concretestv/internal/arithmetic"
	"concretestv/internal/decision"
)

// encoding/json is used for the transcript file format, not an ecosystem
// serialisation library: the wire schema is a bespoke mix of decimal
// strings, bare-integer numbers, and rational "n/d" strings chosen per
// field by the Rule Profile's tally Kind, which no general-purpose Go JSON
// library models directly. Hand-rolled MarshalJSON methods below produce
// exactly that schema.

// jsonTally renders a Tally per kind: JSON number for integer tallies,
// decimal string for fixed-six-dp tallies, and rational "n/d" string for
// exact-rational tallies. A negative value is always rendered as a string
// regardless of kind, per spec's "negative rounding loss always as
// strings" rule.
func jsonTally(t arithmetic.Tally, kind arithmetic.Kind) interface{} {
	if t.Sign() < 0 {
		return t.FormatByKind(kind)
	}
	if kind == arithmetic.KindInteger {
		return json.RawMessage(t.IntString())
	}
	return t.FormatByKind(kind)
}

// jsonStatusBlock is one of the two sibling blocks (tallies, papers) a
// count row's status carries: a per-candidate array plus the matching
// exhausted/rounding pair, each rendered per its own unit (vote tallies per
// jsonTally's kind-dependent schema; paper counts always bare integers).
type jsonStatusBlock struct {
	Candidate interface{} `json:"candidate"`
	Exhausted interface{} `json:"exhausted"`
	Rounding  interface{} `json:"rounding"`
}

type jsonStatus struct {
	Tallies jsonStatusBlock `json:"tallies"`
	Papers  jsonStatusBlock `json:"papers"`
}

func toJSONStatus(s Status, kind arithmetic.Kind) jsonStatus {
	tallies := make([]interface{}, len(s.Tallies))
	for i, t := range s.Tallies {
		tallies[i] = jsonTally(t, kind)
	}
	papers := make([]interface{}, len(s.Papers))
	for i, p := range s.Papers {
		papers[i] = p
	}
	return jsonStatus{
		Tallies: jsonStatusBlock{
			Candidate: tallies,
			Exhausted: jsonTally(s.Exhausted, kind),
			Rounding:  jsonTally(s.Rounding, kind),
		},
		Papers: jsonStatusBlock{
			Candidate: papers,
			Exhausted: s.ExhaustedPapers,
			Rounding:  int64(0),
		},
	}
}

type jsonReason struct {
	FirstPreferenceCount bool  `json:"FirstPreferenceCount,omitempty"`
	ExcessDistribution   *int  `json:"ExcessDistribution,omitempty"`
	Elimination          []int `json:"Elimination,omitempty"`
}

type jsonDecision struct {
	Purpose          string  `json:"purpose"`
	Method           string  `json:"method"`
	IncreasingFavour [][]int `json:"increasing_favour"`
	Chosen           []int   `json:"chosen,omitempty"`
}

type jsonElected struct {
	Who int    `json:"who"`
	Why string `json:"why"`
}

type jsonPortion struct {
	TransferValue        string `json:"transfer_value"`
	WhenTVCreated         *int  `json:"when_tv_created"`
	PapersCameFromCounts []int  `json:"papers_came_from_counts"`
}

type jsonCreatedTV struct {
	TransferValue           string      `json:"transfer_value"`
	Surplus                 interface{} `json:"surplus"`
	BallotsConsidered        int         `json:"ballots_considered"`
	ContinuingBallots        int         `json:"continuing_ballots"`
	OriginalTransferValue    string      `json:"original_transfer_value,omitempty"`
	MultipliedTransferValue  string      `json:"multiplied_transfer_value,omitempty"`
	ExcludedExhaustedTally   interface{} `json:"excluded_exhausted_tally,omitempty"`
}

type jsonCount struct {
	Reason           jsonReason     `json:"reason"`
	Portion          *jsonPortion   `json:"portion,omitempty"`
	CreatedTV        *jsonCreatedTV `json:"created_transfer_value,omitempty"`
	Status           jsonStatus     `json:"status"`
	SetAsideForQuota *jsonStatus    `json:"set_aside_for_quota,omitempty"`
	Elected          []jsonElected  `json:"elected"`
	NotContinuing    []int          `json:"not_continuing"`
	ReasonCompleted  bool           `json:"reason_completed"`
	Decisions        []jsonDecision `json:"decisions"`
}

type jsonQuota struct {
	Quota     interface{} `json:"quota"`
	Papers    int64       `json:"papers"`
	Vacancies int         `json:"vacancies"`
}

type jsonTranscript struct {
	RunID       string      `json:"run_id,omitempty"`
	RuleProfile string      `json:"rule_profile"`
	Quota       jsonQuota   `json:"quota"`
	Counts      []jsonCount `json:"counts"`
	Elected     []int       `json:"elected"`
}

// parseJSONTally parses a jsonTally-shaped value still in its decoded-but-
// untyped form (json.Unmarshal into interface{} yields float64 for bare
// numbers, string for everything else) into a Tally of the given Kind.
func parseJSONTally(kind arithmetic.Kind, raw interface{}) (arithmetic.Tally, error) {
	switch v := raw.(type) {
	case float64:
		return arithmetic.ParseByKind(kind, strconv.FormatFloat(v, 'f', -1, 64))
	case json.Number:
		return arithmetic.ParseByKind(kind, v.String())
	case string:
		return arithmetic.ParseByKind(kind, v)
	default:
		return arithmetic.Tally{}, fmt.Errorf("transcript: unexpected tally encoding %T", raw)
	}
}

func parseJSONStatusBlock(block jsonStatusBlock, kind arithmetic.Kind) (Status, error) {
	var st Status
	raws, ok := block.Candidate.([]interface{})
	if !ok {
		return Status{}, fmt.Errorf("transcript: status candidate field is not an array")
	}
	st.Tallies = make([]arithmetic.Tally, len(raws))
	for i, r := range raws {
		t, err := parseJSONTally(kind, r)
		if err != nil {
			return Status{}, fmt.Errorf("transcript: candidate[%d]: %w", i, err)
		}
		st.Tallies[i] = t
	}
	ex, err := parseJSONTally(kind, block.Exhausted)
	if err != nil {
		return Status{}, fmt.Errorf("transcript: exhausted: %w", err)
	}
	st.Exhausted = ex
	ro, err := parseJSONTally(kind, block.Rounding)
	if err != nil {
		return Status{}, fmt.Errorf("transcript: rounding: %w", err)
	}
	st.Rounding = ro
	return st, nil
}

// fromJSONStatus is the inverse of toJSONStatus: it merges the tallies and
// papers blocks back into a single Status, recovering the integer papers
// array and exhausted-papers count from the papers block's JSON numbers.
func fromJSONStatus(js jsonStatus, kind arithmetic.Kind) (Status, error) {
	st, err := parseJSONStatusBlock(js.Tallies, kind)
	if err != nil {
		return Status{}, err
	}
	rawPapers, ok := js.Papers.Candidate.([]interface{})
	if !ok {
		return Status{}, fmt.Errorf("transcript: papers candidate field is not an array")
	}
	st.Papers = make([]int64, len(rawPapers))
	for i, p := range rawPapers {
		n, ok := p.(float64)
		if !ok {
			return Status{}, fmt.Errorf("transcript: papers[%d] is not a number", i)
		}
		st.Papers[i] = int64(n)
	}
	exPapers, ok := js.Papers.Exhausted.(float64)
	if !ok {
		return Status{}, fmt.Errorf("transcript: papers exhausted field is not a number")
	}
	st.ExhaustedPapers = int64(exPapers)
	return st, nil
}

// UnmarshalJSON is the inverse of MarshalJSON, parsing every Tally back
// from its kind-dependent wire representation. kind must match the Kind
// the transcript was originally marshaled with; callers typically recover
// it from the Rule Profile named in the transcript's rule_profile field.
func UnmarshalJSON(b []byte, kind arithmetic.Kind) (Transcript, error) {
	var jt jsonTranscript
	if err := json.Unmarshal(b, &jt); err != nil {
		return Transcript{}, fmt.Errorf("transcript: unmarshal: %w", err)
	}
	quota, err := parseJSONTally(kind, jt.Quota.Quota)
	if err != nil {
		return Transcript{}, fmt.Errorf("transcript: quota: %w", err)
	}
	out := Transcript{
		RunID:       jt.RunID,
		RuleProfile: jt.RuleProfile,
		Quota: Quota{
			Quota:     quota,
			Papers:    jt.Quota.Papers,
			Vacancies: jt.Quota.Vacancies,
		},
		Elected: append([]int(nil), jt.Elected...),
	}
	for i, jc := range jt.Counts {
		c, err := fromJSONCount(jc, kind)
		if err != nil {
			return Transcript{}, fmt.Errorf("transcript: count %d: %w", i, err)
		}
		out.Counts = append(out.Counts, c)
	}
	return out, nil
}

func parseTransferValue(s string) (arithmetic.TransferValue, error) {
	f, err := arithmetic.ParseFraction(s)
	if err != nil {
		return arithmetic.TransferValue{}, err
	}
	return arithmetic.NewTransferValue(f), nil
}

// parsePurpose inverts decision.Purpose.String(); an unrecognised or empty
// string (e.g. a transcript written before purpose was serialised) falls
// back to PurposeOther rather than failing the whole load.
func parsePurpose(s string) decision.Purpose {
	switch s {
	case "exclude":
		return decision.PurposeExclude
	case "elect-order":
		return decision.PurposeElectOrder
	case "surplus-order":
		return decision.PurposeSurplusOrder
	default:
		return decision.PurposeOther
	}
}

func fromJSONCount(jc jsonCount, kind arithmetic.Kind) (Count, error) {
	status, err := fromJSONStatus(jc.Status, kind)
	if err != nil {
		return Count{}, err
	}
	c := Count{
		Reason: Reason{
			FirstPreferenceCount: jc.Reason.FirstPreferenceCount,
			ExcessDistribution:   jc.Reason.ExcessDistribution,
			Elimination:          append([]int(nil), jc.Reason.Elimination...),
		},
		Status:          status,
		NotContinuing:   append([]int(nil), jc.NotContinuing...),
		ReasonCompleted: jc.ReasonCompleted,
	}
	for _, e := range jc.Elected {
		c.Elected = append(c.Elected, ElectedEntry{Who: e.Who, Why: e.Why})
	}
	for _, d := range jc.Decisions {
		groups := make(decision.Groups, len(d.IncreasingFavour))
		for i, g := range d.IncreasingFavour {
			groups[i] = append([]int(nil), g...)
		}
		c.Decisions = append(c.Decisions, decision.Record{
			Purpose:   parsePurpose(d.Purpose),
			Consulted: groups,
			Method:    d.Method,
			Chosen:    append([]int(nil), d.Chosen...),
		})
	}
	if jc.Portion != nil {
		tv, err := parseTransferValue(jc.Portion.TransferValue)
		if err != nil {
			return Count{}, fmt.Errorf("portion: %w", err)
		}
		c.Portion = &Portion{
			TransferValue:        tv,
			WhenTVCreated:        jc.Portion.WhenTVCreated,
			PapersCameFromCounts: append([]int(nil), jc.Portion.PapersCameFromCounts...),
		}
	}
	if jc.CreatedTV != nil {
		jctv := jc.CreatedTV
		tv, err := parseTransferValue(jctv.TransferValue)
		if err != nil {
			return Count{}, fmt.Errorf("created_transfer_value: %w", err)
		}
		surplus, err := parseJSONTally(kind, jctv.Surplus)
		if err != nil {
			return Count{}, fmt.Errorf("created_transfer_value.surplus: %w", err)
		}
		ctv := &CreatedTransferValue{
			TransferValue:     tv,
			Surplus:           surplus,
			BallotsConsidered: jctv.BallotsConsidered,
			ContinuingBallots: jctv.ContinuingBallots,
		}
		if jctv.OriginalTransferValue != "" {
			orig, err := parseTransferValue(jctv.OriginalTransferValue)
			if err != nil {
				return Count{}, fmt.Errorf("created_transfer_value.original_transfer_value: %w", err)
			}
			ctv.OriginalTransferValue = &orig
		}
		if jctv.MultipliedTransferValue != "" {
			mult, err := parseTransferValue(jctv.MultipliedTransferValue)
			if err != nil {
				return Count{}, fmt.Errorf("created_transfer_value.multiplied_transfer_value: %w", err)
			}
			ctv.MultipliedTransferValue = &mult
		}
		if jctv.ExcludedExhaustedTally != nil {
			eet, err := parseJSONTally(kind, jctv.ExcludedExhaustedTally)
			if err != nil {
				return Count{}, fmt.Errorf("created_transfer_value.excluded_exhausted_tally: %w", err)
			}
			ctv.ExcludedExhaustedTally = &eet
		}
		c.CreatedTransferValue = ctv
	}
	if jc.SetAsideForQuota != nil {
		st, err := fromJSONStatus(*jc.SetAsideForQuota, kind)
		if err != nil {
			return Count{}, fmt.Errorf("set_aside_for_quota: %w", err)
		}
		c.SetAsideForQuota = &st
	}
	return c, nil
}

// MarshalJSON renders t using the bespoke number schema spec'd for a
// transcript file, formatting every Tally according to kind.
func MarshalJSON(t Transcript, kind arithmetic.Kind) ([]byte, error) {
	out := jsonTranscript{
		RunID:       t.RunID,
		RuleProfile: t.RuleProfile,
		Quota: jsonQuota{
			Quota:     jsonTally(t.Quota.Quota, kind),
			Papers:    t.Quota.Papers,
			Vacancies: t.Quota.Vacancies,
		},
		Elected: append([]int(nil), t.Elected...),
	}
	for _, c := range t.Counts {
		out.Counts = append(out.Counts, toJSONCount(c, kind))
	}
	return json.MarshalIndent(out, "", "  ")
}

func toJSONCount(c Count, kind arithmetic.Kind) jsonCount {
	jc := jsonCount{
		Reason: jsonReason{
			FirstPreferenceCount: c.Reason.FirstPreferenceCount,
			ExcessDistribution:   c.Reason.ExcessDistribution,
			Elimination:          c.Reason.Elimination,
		},
		Status:          toJSONStatus(c.Status, kind),
		NotContinuing:   append([]int(nil), c.NotContinuing...),
		ReasonCompleted: c.ReasonCompleted,
	}
	if c.Portion != nil {
		jc.Portion = &jsonPortion{
			TransferValue:        c.Portion.TransferValue.String(),
			WhenTVCreated:        c.Portion.WhenTVCreated,
			PapersCameFromCounts: append([]int(nil), c.Portion.PapersCameFromCounts...),
		}
	}
	if c.CreatedTransferValue != nil {
		ctv := c.CreatedTransferValue
		jctv := &jsonCreatedTV{
			TransferValue:     ctv.TransferValue.String(),
			Surplus:           jsonTally(ctv.Surplus, kind),
			BallotsConsidered: ctv.BallotsConsidered,
			ContinuingBallots: ctv.ContinuingBallots,
		}
		if ctv.OriginalTransferValue != nil {
			jctv.OriginalTransferValue = ctv.OriginalTransferValue.String()
		}
		if ctv.MultipliedTransferValue != nil {
			jctv.MultipliedTransferValue = ctv.MultipliedTransferValue.String()
		}
		if ctv.ExcludedExhaustedTally != nil {
			jctv.ExcludedExhaustedTally = jsonTally(*ctv.ExcludedExhaustedTally, kind)
		}
		jc.CreatedTV = jctv
	}
	if c.SetAsideForQuota != nil {
		st := toJSONStatus(*c.SetAsideForQuota, kind)
		jc.SetAsideForQuota = &st
	}
	for _, e := range c.Elected {
		jc.Elected = append(jc.Elected, jsonElected{Who: e.Who, Why: e.Why})
	}
	for _, d := range c.Decisions {
		group := make([][]int, len(d.Consulted))
		for i, g := range d.Consulted {
			group[i] = append([]int(nil), g...)
		}
		jc.Decisions = append(jc.Decisions, jsonDecision{
			Purpose:          d.Purpose.String(),
			Method:           d.Method,
			IncreasingFavour: group,
			Chosen:           append([]int(nil), d.Chosen...),
		})
	}
	sort.Ints(jc.NotContinuing)
	return jc
}
