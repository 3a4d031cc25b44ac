// Package document defines the result entry returned by searches, the
// caller-assigned document status and the predicates that filter results.
package document

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Status is the caller-assigned classification of a document. The engine
// never changes it.
type Status int

const (
	StatusActual Status = iota
	StatusIrrelevant
	StatusBanned
	StatusRemoved
)

var statusNames = [...]string{
	StatusActual:     "ACTUAL",
	StatusIrrelevant: "IRRELEVANT",
	StatusBanned:     "BANNED",
	StatusRemoved:    "REMOVED",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
	return statusNames[s]
}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	return s >= StatusActual && s <= StatusRemoved
}

// ParseStatus accepts a status name in any case.
func ParseStatus(name string) (Status, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range statusNames {
		if n == upper {
			return Status(i), nil
		}
	}
	return 0, apperrors.InvalidArgumentf("unknown document status %q", name)
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, apperrors.InvalidArgumentf("unknown document status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Document is one search result. Relevance is computed per query and never
// stored with the document.
type Document struct {
	ID        int     `json:"document_id" yaml:"document_id"`
	Relevance float64 `json:"relevance" yaml:"relevance"`
	Rating    int     `json:"rating" yaml:"rating"`
}

func (d Document) String() string {
	return fmt.Sprintf("{ document_id = %d, relevance = %s, rating = %d }",
		d.ID, strconv.FormatFloat(d.Relevance, 'g', 6, 64), d.Rating)
}

// Predicate filters candidate documents by id, status and rating.
type Predicate func(id int, status Status, rating int) bool

// ByStatus matches documents whose status equals s.
func ByStatus(s Status) Predicate {
	return func(_ int, status Status, _ int) bool {
		return status == s
	}
}

// Actual matches documents with StatusActual. A nil Predicate means the same.
func Actual() Predicate {
	return ByStatus(StatusActual)
}

// OrActual returns p, or Actual() when p is nil.
func OrActual(p Predicate) Predicate {
	if p == nil {
		return Actual()
	}
	return p
}
