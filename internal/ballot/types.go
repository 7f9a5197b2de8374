// Package ballot models candidates, parties, ballots, and election metadata,
// and expands above-the-line party votes into candidate preference lists.
package ballot

// Candidate is a stable integer identity within one election. Position is
// the candidate's physical order on the ballot paper, used only by the
// reverse-donkey tie-break fallback.
type Candidate struct {
	ID       int    `json:"-"`
	Name     string `json:"name"`
	Party    *int   `json:"party,omitempty"`
	Position int    `json:"position,omitempty"`
}

// Party is an ordered list of candidates a voter can elect to support as a
// single above-the-line preference. Tickets holds historical group-voting
// tickets (pre-2016 federal Senate): each ticket is one further ordering of
// Candidates that a voter's ATL vote can be expanded through instead of
// Candidates' natural (position) order.
type Party struct {
	ColumnID     int      `json:"column_id"`
	Name         string   `json:"name"`
	Abbreviation string   `json:"abbreviation,omitempty"`
	ATLAllowed   bool     `json:"atl_allowed"`
	Candidates   []int    `json:"candidates"`
	Tickets      [][]int  `json:"tickets,omitempty"`
}

// TieResolution is an explicit commission decision supplied so a transcript
// can be replayed exactly: the engine favours Favoured over Disfavoured
// whenever the two together make up exactly a tied candidate set, whatever
// the tie's purpose. CameUpIn is carried in the file but is not consulted
// when a tie is broken.
type TieResolution struct {
	Favoured    []int   `json:"favoured"`
	Disfavoured []int   `json:"disfavoured"`
	CameUpIn    *string `json:"came_up_in,omitempty"`
}

// Metadata carries everything about an election that is not itself a vote:
// the candidate and party rolls, the number of seats, and any tie
// resolutions or forced exclusions supplied to replay a commission's
// distribution of preferences exactly.
type Metadata struct {
	Year          string          `json:"year,omitempty"`
	Authority     string          `json:"authority,omitempty"`
	Name          string          `json:"name,omitempty"`
	Electorate    string          `json:"electorate,omitempty"`
	Comment       string          `json:"comment,omitempty"`
	Modifications string          `json:"modifications,omitempty"`
	Candidates    []Candidate     `json:"candidates"`
	Parties       []Party         `json:"parties,omitempty"`
	Vacancies     int             `json:"vacancies"`
	TieResolutions []TieResolution `json:"tie_resolutions,omitempty"`
	Excluded      []int           `json:"excluded,omitempty"`
	Enrolment     *int            `json:"enrolment,omitempty"`
}

// ATLVote is an above-the-line ballot: a sequence of party column indices
// with the number of identical ballots collapsed into N.
type ATLVote struct {
	Parties []int `json:"parties"`
	N       int   `json:"n"`
}

// BTLVote is a below-the-line ballot: a sequence of candidate indices with
// the number of identical ballots collapsed into N.
type BTLVote struct {
	Candidates []int `json:"candidates"`
	N          int   `json:"n"`
}

// VoteTypeRange tags a contiguous slice of the ATL or BTL vote list (by
// index) with a vote-type label such as "iVote", enabling later slicing of
// the transcript by how a ballot was cast.
type VoteTypeRange struct {
	VoteType            string `json:"vote_type"`
	FirstIndexInclusive int    `json:"first_index_inclusive"`
	LastIndexExclusive  int    `json:"last_index_exclusive"`
}

// Data is the full contents of a ".stv" ballot file: election metadata plus
// the above-the-line and below-the-line vote lists and the count of
// informal ballots.
type Data struct {
	Metadata  Metadata        `json:"metadata"`
	ATL       []ATLVote       `json:"atl"`
	BTL       []BTLVote       `json:"btl"`
	ATLTypes  []VoteTypeRange `json:"atl_types,omitempty"`
	BTLTypes  []VoteTypeRange `json:"btl_types,omitempty"`
	Informal  int             `json:"informal"`
}

// CandidateCount returns the number of candidates standing.
func (d *Data) CandidateCount() int {
	return len(d.Metadata.Candidates)
}

// VoteTypeFor resolves the vote-type tag, if any, covering the given index
// into either the ATL or BTL vote list.
func VoteTypeFor(ranges []VoteTypeRange, index int) string {
	for _, r := range ranges {
		if index >= r.FirstIndexInclusive && index < r.LastIndexExclusive {
			return r.VoteType
		}
	}
	return ""
}
