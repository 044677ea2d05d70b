// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the patent-rank pipeline:
// credentials, document references and records, ranked results, and config.
package types

// Placeholders substituted when a biblio response lacks a field.
const (
	TitleUnavailable    = "(titolo non disponibile)"
	AbstractUnavailable = "(abstract non disponibile)"
)

// Credentials is an OPS client identifier and secret. It is used once per
// search action to obtain an access token and is never persisted.
type Credentials struct {
	ClientID     string `json:"-" yaml:"-"`
	ClientSecret string `json:"-" yaml:"-"`
}

// IsComplete reports whether both the identifier and the secret are set.
func (c Credentials) IsComplete() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// DocumentReference identifies one patent publication.
type DocumentReference struct {
	// Country is the two-letter office code (e.g. "EP", "WO").
	Country string `json:"country" yaml:"country"`

	// Number is the publication number without country or kind.
	Number string `json:"number" yaml:"number"`

	// Kind is the publication kind code (e.g. "A1", "B1").
	Kind string `json:"kind" yaml:"kind"`
}

// String returns the epodoc key, e.g. "EP1000000A1".
func (r DocumentReference) String() string {
	return r.Country + r.Number + r.Kind
}

// IsZero reports whether the reference carries no number.
func (r DocumentReference) IsZero() bool {
	return r.Number == ""
}

// DocumentRecord holds the bibliographic fields fetched for a reference.
// Title and Abstract hold placeholder text when the source lacked them.
type DocumentRecord struct {
	Reference DocumentReference `json:"reference" yaml:"reference"`
	Title     string            `json:"title" yaml:"title"`
	Abstract  string            `json:"abstract" yaml:"abstract"`

	HasTitle    bool `json:"-" yaml:"-"`
	HasAbstract bool `json:"-" yaml:"-"`
}

// RankedResult is one row of the final table.
type RankedResult struct {
	Reference DocumentReference `json:"reference" yaml:"reference"`
	Title     string            `json:"title" yaml:"title"`
	Abstract  string            `json:"abstract" yaml:"abstract"`

	// Score is the cosine similarity to the question, rounded to 4 decimals.
	Score float64 `json:"score" yaml:"score"`
}

// SearchReport is the outcome of one search action.
type SearchReport struct {
	Question string `json:"question" yaml:"question"`

	// Candidates is the number of references the search returned.
	Candidates int `json:"candidates" yaml:"candidates"`

	// WithAbstract is the number of candidates that had an abstract.
	WithAbstract int `json:"with_abstract" yaml:"with_abstract"`

	// Warning is set instead of Results when no candidate had an abstract.
	Warning string `json:"warning,omitempty" yaml:"warning,omitempty"`

	Results []RankedResult `json:"results" yaml:"results"`
}
