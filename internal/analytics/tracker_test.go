package analytics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

func newEngine(t *testing.T) *indexer.Engine {
	t.Helper()
	e, err := indexer.NewEngine(config.EngineConfig{StopWords: []string{"and", "in", "at"}})
	require.NoError(t, err)
	docs := []string{
		"curly cat curly tail",
		"curly dog and fancy collar",
		"big cat fancy collar ",
		"big dog sparrow Eugene",
		"big dog sparrow Vasiliy",
	}
	for i, text := range docs {
		require.NoError(t, e.AddDocument(i+1, text, document.StatusActual, []int{1, 2, 3}))
	}
	return e
}

func TestRequestTrackerEvictsOldest(t *testing.T) {
	tracker, err := NewRequestTracker(newEngine(t), DefaultWindow)
	require.NoError(t, err)

	for range 1439 {
		docs, err := tracker.AddFindRequest("empty request", nil)
		require.NoError(t, err)
		require.Empty(t, docs)
	}
	assert.Equal(t, 1439, tracker.NoResultRequests())

	docs, err := tracker.AddFindRequest("curly dog", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, docs)
	assert.Equal(t, 1439, tracker.NoResultRequests(), "window just filled, nothing evicted")

	_, err = tracker.AddFindRequest("big collar", nil)
	require.NoError(t, err)
	assert.Equal(t, 1438, tracker.NoResultRequests())

	_, err = tracker.AddFindRequest("sparrow", nil)
	require.NoError(t, err)
	assert.Equal(t, 1437, tracker.NoResultRequests())

	stats := tracker.Snapshot()
	assert.Equal(t, Stats{
		Window:           1440,
		Recorded:         1440,
		NoResultRequests: 1437,
		TotalRequests:    1442,
		TotalNoResult:    1439,
	}, stats)
}

func TestRequestTrackerSmallWindow(t *testing.T) {
	tracker, err := NewRequestTracker(newEngine(t), 3)
	require.NoError(t, err)

	sequence := []struct {
		noResult bool
		want     int
	}{
		{true, 1},
		{false, 1},
		{true, 2},
		{true, 2},  // evicts the first true
		{false, 2}, // evicts false
		{false, 1}, // evicts true
		{false, 0},
	}
	for i, step := range sequence {
		tracker.Record(step.noResult)
		assert.Equal(t, step.want, tracker.NoResultRequests(), fmt.Sprintf("step %d", i))
	}
	assert.Equal(t, 3, tracker.Snapshot().Recorded)
}

func TestRequestTrackerSkipsFailedSearches(t *testing.T) {
	tracker, err := NewRequestTracker(newEngine(t), 10)
	require.NoError(t, err)

	_, err = tracker.AddFindRequest("cat --dog", nil)
	require.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
	assert.Equal(t, 0, tracker.Snapshot().Recorded)
	assert.Equal(t, int64(0), tracker.Snapshot().TotalRequests)
}

func TestRequestTrackerPassesPredicate(t *testing.T) {
	tracker, err := NewRequestTracker(newEngine(t), 10)
	require.NoError(t, err)

	docs, err := tracker.AddFindRequest("big", func(id int, _ document.Status, _ int) bool { return id == 4 })
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 4, docs[0].ID)

	docs, err = tracker.AddFindRequest("big", document.ByStatus(document.StatusBanned))
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 1, tracker.NoResultRequests())
}

func TestNewRequestTrackerWindow(t *testing.T) {
	tracker, err := NewRequestTracker(newEngine(t), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultWindow, tracker.Snapshot().Window)

	_, err = NewRequestTracker(newEngine(t), -5)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
}
