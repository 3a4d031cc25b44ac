package index

import "github.com/Adithya-Monish-Kumar-K/search-server/internal/document"

// DocInfo is the per-document metadata kept next to the term maps.
type DocInfo struct {
	Rating int
	Status document.Status
}

// Postings maps document ids to the term frequency of one term.
type Postings map[int]float64
