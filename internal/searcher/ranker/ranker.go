// Package ranker scores documents against a parsed query with TF-IDF and
// orders the candidates into a top-k result list.
package ranker

import (
	"math"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
)

// Index is the read side of the document index used for scoring.
type Index interface {
	Len() int
	Postings(term string) (index.Postings, bool)
	Info(id int) (index.DocInfo, bool)
}

// FindAll returns every document matching at least one plus word, none of
// the minus words, and pred. Relevance is the sum of idf*tf over plus words
// with idf = ln(documents / documents containing the word). The result
// order is unspecified.
func FindAll(idx Index, q *parser.Query, pred document.Predicate) []document.Document {
	pred = document.OrActual(pred)
	relevance := make(map[int]float64)

	for _, word := range q.Plus {
		postings, ok := idx.Postings(word)
		if !ok {
			continue
		}
		idf := InverseDocumentFrequency(idx.Len(), len(postings))
		for id, tf := range postings {
			relevance[id] += idf * tf
		}
	}

	for _, word := range q.Minus {
		postings, ok := idx.Postings(word)
		if !ok {
			continue
		}
		for id := range postings {
			delete(relevance, id)
		}
	}

	result := make([]document.Document, 0, len(relevance))
	for id, rel := range relevance {
		info, ok := idx.Info(id)
		if !ok || !pred(id, info.Status, info.Rating) {
			continue
		}
		result = append(result, document.Document{
			ID:        id,
			Relevance: rel,
			Rating:    info.Rating,
		})
	}
	return result
}

// InverseDocumentFrequency returns ln(total/containing).
func InverseDocumentFrequency(total, containing int) float64 {
	return math.Log(float64(total) / float64(containing))
}

// Top sorts docs in place by relevance descending, treating relevances
// closer than epsilon as equal and falling back to rating descending then
// id ascending. It returns at most limit documents; limit <= 0 keeps all.
func Top(docs []document.Document, epsilon float64, limit int) []document.Document {
	slices.SortFunc(docs, func(a, b document.Document) int {
		if math.Abs(a.Relevance-b.Relevance) >= epsilon {
			if a.Relevance > b.Relevance {
				return -1
			}
			return 1
		}
		if a.Rating != b.Rating {
			if a.Rating > b.Rating {
				return -1
			}
			return 1
		}
		return a.ID - b.ID
	})
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs
}
