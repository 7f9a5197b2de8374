package ballot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Load reads and validates a ".stv" ballot file. Ballot files round-trip
// losslessly through Load/Save: the decoded Data, re-encoded, produces the
// same JSON document modulo field ordering.
func Load(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ballot: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a ballot Data document from r.
func Decode(r io.Reader) (*Data, error) {
	var d Data
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("ballot: decode: %w", err)
	}
	if err := validate(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Save writes d to path as indented JSON.
func Save(path string, d *Data) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ballot: create %s: %w", path, err)
	}
	defer f.Close()
	return Encode(f, d)
}

// Encode writes d to w as indented JSON.
func Encode(w io.Writer, d *Data) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// validate checks the structural invariants of a loaded ballot file:
// out-of-range candidate/party indices, inconsistent vacancies, and
// duplicate candidates.
func validate(d *Data) error {
	n := len(d.Metadata.Candidates)
	if n == 0 {
		return fmt.Errorf("ballot: no candidates declared")
	}
	if d.Metadata.Vacancies <= 0 || d.Metadata.Vacancies > n {
		return fmt.Errorf("ballot: vacancies %d inconsistent with %d candidates", d.Metadata.Vacancies, n)
	}

	names := make(map[string]struct{}, n)
	for i, c := range d.Metadata.Candidates {
		if _, dup := names[c.Name]; dup {
			return fmt.Errorf("ballot: duplicate candidate name %q", c.Name)
		}
		names[c.Name] = struct{}{}
		if c.Party != nil {
			if !partyExists(d.Metadata.Parties, *c.Party) {
				return fmt.Errorf("ballot: candidate %d references unknown party %d", i, *c.Party)
			}
		}
	}

	for _, p := range d.Metadata.Parties {
		for _, ci := range p.Candidates {
			if ci < 0 || ci >= n {
				return fmt.Errorf("ballot: party %q references out-of-range candidate index %d", p.Name, ci)
			}
		}
	}

	for i, v := range d.BTL {
		for _, ci := range v.Candidates {
			if ci < 0 || ci >= n {
				return fmt.Errorf("ballot: btl vote %d references out-of-range candidate index %d", i, ci)
			}
		}
		if v.N < 0 {
			return fmt.Errorf("ballot: btl vote %d has negative multiplicity", i)
		}
	}
	for i, v := range d.ATL {
		for _, col := range v.Parties {
			if !partyExists(d.Metadata.Parties, col) {
				return fmt.Errorf("ballot: atl vote %d references unknown party %d", i, col)
			}
		}
		if v.N < 0 {
			return fmt.Errorf("ballot: atl vote %d has negative multiplicity", i)
		}
	}

	for _, exIdx := range d.Metadata.Excluded {
		if exIdx < 0 || exIdx >= n {
			return fmt.Errorf("ballot: pre-excluded candidate index %d out of range", exIdx)
		}
	}

	return nil
}

func partyExists(parties []Party, col int) bool {
	for _, p := range parties {
		if p.ColumnID == col {
			return true
		}
	}
	return false
}
