// Package store defines storage interfaces for persisting suggestion
// snapshots between runs and exporting tick history to disk.
package store

import (
	"context"
	"time"

	"stockdash/internal/api"
)

// Snapshot is the persisted output of a completed suggestion scan: the
// per-ticker analyses in scan order plus the time the scan finished.
type Snapshot struct {
	Analyses  []api.AnalysisData
	LastFetch time.Time
}

// SnapshotStore persists and retrieves suggestion snapshots. Save replaces
// the previous snapshot wholesale.
type SnapshotStore interface {
	// SaveSnapshot replaces the stored snapshot with snap.
	SaveSnapshot(ctx context.Context, snap Snapshot) error

	// LoadSnapshot returns the stored snapshot. A store that has never been
	// written returns an empty Snapshot and ok false.
	LoadSnapshot(ctx context.Context) (Snapshot, bool, error)
}

// TickStore persists and retrieves OHLCV tick history.
type TickStore interface {
	// WriteTicks persists a batch of ticks to storage.
	WriteTicks(ctx context.Context, window api.TickWindow, ticks []api.Tick) error

	// ReadTicks returns all stored ticks for the given symbol and window.
	ReadTicks(ctx context.Context, symbol string, window api.TickWindow) ([]api.Tick, error)

	// ListSymbols returns all distinct symbols with stored ticks for window.
	ListSymbols(ctx context.Context, window api.TickWindow) ([]string, error)
}
