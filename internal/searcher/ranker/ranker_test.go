package ranker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
)

func buildIndex() *index.MemoryIndex {
	idx := index.NewMemoryIndex()
	idx.Add(0, []string{"white", "cat", "fashionable", "collar"}, document.StatusActual, 2)
	idx.Add(1, []string{"fluffy", "cat", "fluffy", "tail"}, document.StatusActual, 5)
	idx.Add(2, []string{"groomed", "dog", "expressive", "eyes"}, document.StatusActual, -1)
	idx.Add(3, []string{"groomed", "starling", "eugene"}, document.StatusBanned, 9)
	return idx
}

func parse(t *testing.T, q string) *parser.Query {
	t.Helper()
	query, err := parser.Parse(q, tokenizer.StopWords{})
	require.NoError(t, err)
	return query
}

func byID(docs []document.Document) map[int]document.Document {
	out := make(map[int]document.Document, len(docs))
	for _, d := range docs {
		out[d.ID] = d
	}
	return out
}

func TestFindAllScoresTFIDF(t *testing.T) {
	docs := byID(FindAll(buildIndex(), parse(t, "fluffy groomed cat"), nil))

	require.Len(t, docs, 3)
	fluffyIDF := math.Log(4.0 / 1)
	catIDF := math.Log(4.0 / 2)
	groomedIDF := math.Log(4.0 / 2)

	assert.InDelta(t, fluffyIDF*0.5+catIDF*0.25, docs[1].Relevance, 1e-9)
	assert.InDelta(t, catIDF*0.25, docs[0].Relevance, 1e-9)
	assert.InDelta(t, groomedIDF*0.25, docs[2].Relevance, 1e-9)
	assert.Equal(t, 5, docs[1].Rating)
	assert.NotContains(t, docs, 3, "banned document filtered by the default predicate")
}

func TestFindAllMinusIsHardExclusion(t *testing.T) {
	docs := byID(FindAll(buildIndex(), parse(t, "fluffy cat -tail"), nil))
	assert.NotContains(t, docs, 1)
	assert.Contains(t, docs, 0)
}

func TestFindAllUnknownWords(t *testing.T) {
	assert.Empty(t, FindAll(buildIndex(), parse(t, "parrot -hamster"), nil))
}

func TestFindAllPredicate(t *testing.T) {
	docs := FindAll(buildIndex(), parse(t, "groomed"), document.ByStatus(document.StatusBanned))
	require.Len(t, docs, 1)
	assert.Equal(t, 3, docs[0].ID)

	even := func(id int, _ document.Status, _ int) bool { return id%2 == 0 }
	docs = FindAll(buildIndex(), parse(t, "groomed"), even)
	require.Len(t, docs, 1)
	assert.Equal(t, 2, docs[0].ID)
}

func TestTopOrdering(t *testing.T) {
	docs := []document.Document{
		{ID: 1, Relevance: 0.5, Rating: 1},
		{ID: 2, Relevance: 0.5 + 1e-7, Rating: 7},
		{ID: 3, Relevance: 0.9, Rating: 0},
		{ID: 4, Relevance: 0.5, Rating: 7},
		{ID: 5, Relevance: 0.1, Rating: 100},
	}
	got := Top(docs, 1e-6, 10)
	ids := make([]int, len(got))
	for i, d := range got {
		ids[i] = d.ID
	}
	assert.Equal(t, []int{3, 2, 4, 1, 5}, ids)
}

func TestTopTruncates(t *testing.T) {
	docs := make([]document.Document, 8)
	for i := range docs {
		docs[i] = document.Document{ID: i, Relevance: float64(i)}
	}
	got := Top(docs, 1e-6, 5)
	require.Len(t, got, 5)
	assert.Equal(t, 7, got[0].ID)
	assert.Equal(t, 3, got[4].ID)

	assert.Len(t, Top(nil, 1e-6, 5), 0)
}

func TestInverseDocumentFrequency(t *testing.T) {
	assert.Equal(t, 0.0, InverseDocumentFrequency(3, 3))
	assert.InDelta(t, math.Log(2), InverseDocumentFrequency(4, 2), 1e-12)
}
