// Package index holds the forward and inverted term-frequency maps of the
// engine. It performs no validation and no locking; the engine validates
// every mutation and hosts serialize access.
package index

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
)

// MemoryIndex keeps, for every live document, term -> TF (forward) and, for
// every term, document -> TF (inverted). A term is present in the inverted
// map only while some live document contains it.
type MemoryIndex struct {
	forward  map[int]map[string]float64
	inverted map[string]Postings
	info     map[int]DocInfo
	ids      *roaring64.Bitmap
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		forward:  make(map[int]map[string]float64),
		inverted: make(map[string]Postings),
		info:     make(map[int]DocInfo),
		ids:      roaring64.New(),
	}
}

// Add indexes words for a new document id. Each word adds 1/len(words) to
// its term frequency, so repeated words accumulate.
func (m *MemoryIndex) Add(id int, words []string, status document.Status, rating int) {
	tf := make(map[string]float64, len(words))
	if len(words) > 0 {
		inv := 1.0 / float64(len(words))
		for _, w := range words {
			tf[w] += inv
		}
	}
	for term, freq := range tf {
		postings, ok := m.inverted[term]
		if !ok {
			postings = make(Postings)
			m.inverted[term] = postings
		}
		postings[id] = freq
	}
	m.forward[id] = tf
	m.info[id] = DocInfo{Rating: rating, Status: status}
	m.ids.Add(uint64(id))
}

// Remove erases every trace of id and reports whether it was present.
func (m *MemoryIndex) Remove(id int) bool {
	tf, ok := m.forward[id]
	if !ok {
		return false
	}
	emptied := make([]string, 0)
	for term := range tf {
		postings := m.inverted[term]
		delete(postings, id)
		if len(postings) == 0 {
			emptied = append(emptied, term)
		}
	}
	for _, term := range emptied {
		delete(m.inverted, term)
	}
	delete(m.forward, id)
	delete(m.info, id)
	m.ids.Remove(uint64(id))
	return true
}

func (m *MemoryIndex) Has(id int) bool {
	_, ok := m.forward[id]
	return ok
}

// Len returns the number of live documents.
func (m *MemoryIndex) Len() int {
	return len(m.forward)
}

// TermCount returns the number of distinct terms in the inverted map.
func (m *MemoryIndex) TermCount() int {
	return len(m.inverted)
}

// Frequencies returns the forward map of id. The map is owned by the index
// and must not be modified.
func (m *MemoryIndex) Frequencies(id int) (map[string]float64, bool) {
	tf, ok := m.forward[id]
	return tf, ok
}

// Postings returns the documents containing term. The map is owned by the
// index and must not be modified.
func (m *MemoryIndex) Postings(term string) (Postings, bool) {
	p, ok := m.inverted[term]
	return p, ok
}

func (m *MemoryIndex) Info(id int) (DocInfo, bool) {
	info, ok := m.info[id]
	return info, ok
}

// IDs yields live document ids in ascending order.
func (m *MemoryIndex) IDs() iter.Seq[int] {
	return func(yield func(int) bool) {
		it := m.ids.Iterator()
		for it.HasNext() {
			if !yield(int(it.Next())) {
				return
			}
		}
	}
}

// IDAt returns the i-th smallest live id.
func (m *MemoryIndex) IDAt(i int) (int, bool) {
	if i < 0 || i >= m.Len() {
		return 0, false
	}
	id, err := m.ids.Select(uint64(i))
	if err != nil {
		return 0, false
	}
	return int(id), true
}
