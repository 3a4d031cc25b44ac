// Package store persists periodic RequestTracker snapshots to PostgreSQL.
// Only statistics are stored; the search index itself stays in memory.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/postgres"
)

const schema = `CREATE TABLE IF NOT EXISTS request_tracker_snapshots (
    id          BIGSERIAL PRIMARY KEY,
    no_result   INTEGER NOT NULL,
    recorded    INTEGER NOT NULL,
    data        JSONB NOT NULL,
    captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Store persists tracker snapshots in the request_tracker_snapshots table.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "tracker-store"),
	}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating snapshot table: %w", err)
	}
	return nil
}

// SaveSnapshot persists stats with the current time.
func (s *Store) SaveSnapshot(ctx context.Context, stats analytics.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling tracker stats: %w", err)
	}
	_, err = s.db.DB.ExecContext(ctx,
		`INSERT INTO request_tracker_snapshots (no_result, recorded, data, captured_at) VALUES ($1, $2, $3, $4)`,
		stats.NoResultRequests, stats.Recorded, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving tracker snapshot: %w", err)
	}
	s.logger.Debug("tracker snapshot saved",
		"no_result_requests", stats.NoResultRequests,
		"recorded", stats.Recorded,
	)
	return nil
}

// LatestSnapshot returns the newest snapshot, or nil if none exist.
func (s *Store) LatestSnapshot(ctx context.Context) (*analytics.Snapshot, error) {
	var (
		data       []byte
		capturedAt time.Time
	)
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data, captured_at FROM request_tracker_snapshots ORDER BY captured_at DESC, id DESC LIMIT 1`,
	).Scan(&data, &capturedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest tracker snapshot: %w", err)
	}
	snap := &analytics.Snapshot{CapturedAt: capturedAt}
	if err := json.Unmarshal(data, &snap.Stats); err != nil {
		return nil, fmt.Errorf("unmarshaling tracker snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns up to limit snapshots, newest first. A
// non-positive limit means 10.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]analytics.Snapshot, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT data, captured_at FROM request_tracker_snapshots ORDER BY captured_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tracker snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]analytics.Snapshot, 0, limit)
	for rows.Next() {
		var (
			data []byte
			snap analytics.Snapshot
		)
		if err := rows.Scan(&data, &snap.CapturedAt); err != nil {
			return nil, fmt.Errorf("scanning tracker snapshot row: %w", err)
		}
		if err := json.Unmarshal(data, &snap.Stats); err != nil {
			s.logger.Warn("skipping corrupt tracker snapshot", "error", err)
			continue
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// StartPeriodicSave snapshots src every interval until ctx is cancelled,
// then writes one final snapshot. The returned channel closes when the
// goroutine exits.
func (s *Store) StartPeriodicSave(ctx context.Context, src analytics.StatsSource, interval time.Duration) <-chan struct{} {
	s.logger.Info("periodic tracker snapshot started", "interval", interval)
	return RunPeriodic(ctx, src, interval, s.SaveSnapshot, s.logger)
}

// RunPeriodic calls save with src's stats on every tick and once more on
// shutdown with a fresh five-second deadline.
func RunPeriodic(
	ctx context.Context,
	src analytics.StatsSource,
	interval time.Duration,
	save func(context.Context, analytics.Stats) error,
	logger *slog.Logger,
) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := save(ctx, src.TrackerStats()); err != nil {
					logger.Error("periodic tracker snapshot failed", "error", err)
				}
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := save(shutdownCtx, src.TrackerStats()); err != nil {
					logger.Error("final tracker snapshot failed", "error", err)
				}
				return
			}
		}
	}()
	return done
}
