// Package analytics tracks how many of the most recent search requests
// returned nothing, and persists periodic snapshots of those statistics.
package analytics

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// DefaultWindow is one request per minute of a day.
const DefaultWindow = 1440

// Finder is the search operation wrapped by a RequestTracker.
type Finder interface {
	FindTopDocuments(query string, pred document.Predicate) ([]document.Document, error)
}

// Stats is a point-in-time view of a RequestTracker.
type Stats struct {
	Window           int   `json:"window"`
	Recorded         int   `json:"recorded"`
	NoResultRequests int   `json:"no_result_requests"`
	TotalRequests    int64 `json:"total_requests"`
	TotalNoResult    int64 `json:"total_no_result"`
}

// Snapshot is a Stats value captured at a point in time.
type Snapshot struct {
	Stats      Stats     `json:"stats"`
	CapturedAt time.Time `json:"captured_at"`
}

// StatsSource supplies tracker statistics. Implementations must be safe for
// concurrent use.
type StatsSource interface {
	TrackerStats() Stats
}

// RequestTracker keeps a sliding window of the last Window requests and
// counts those that returned no documents. It is not safe for concurrent
// use.
type RequestTracker struct {
	finder   Finder
	window   []bool
	head     int
	size     int
	noResult int

	totalRequests int64
	totalNoResult int64
}

// NewRequestTracker wraps finder with a window of the given capacity. A
// zero window selects DefaultWindow.
func NewRequestTracker(finder Finder, window int) (*RequestTracker, error) {
	if window == 0 {
		window = DefaultWindow
	}
	if window < 0 {
		return nil, apperrors.InvalidArgumentf("tracker window must be positive, got %d", window)
	}
	return &RequestTracker{
		finder: finder,
		window: make([]bool, window),
	}, nil
}

// AddFindRequest runs the search and records whether it came back empty.
// Failed searches are not recorded.
func (t *RequestTracker) AddFindRequest(query string, pred document.Predicate) ([]document.Document, error) {
	docs, err := t.finder.FindTopDocuments(query, pred)
	if err != nil {
		return nil, err
	}
	t.Record(len(docs) == 0)
	return docs, nil
}

// Record adds a request served elsewhere, such as from a cache, to the
// window. The oldest entry is evicted once the window is full.
func (t *RequestTracker) Record(noResult bool) {
	if t.size == len(t.window) {
		if t.window[t.head] {
			t.noResult--
		}
		t.window[t.head] = noResult
		t.head = (t.head + 1) % len(t.window)
	} else {
		t.window[(t.head+t.size)%len(t.window)] = noResult
		t.size++
	}
	if noResult {
		t.noResult++
		t.totalNoResult++
	}
	t.totalRequests++
}

// NoResultRequests returns how many requests in the window returned nothing.
func (t *RequestTracker) NoResultRequests() int {
	return t.noResult
}

func (t *RequestTracker) Snapshot() Stats {
	return Stats{
		Window:           len(t.window),
		Recorded:         t.size,
		NoResultRequests: t.noResult,
		TotalRequests:    t.totalRequests,
		TotalNoResult:    t.totalNoResult,
	}
}
