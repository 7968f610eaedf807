// Package aggregator runs the "what to buy" scan: fetch the stock universe,
// then fetch every ticker's analysis one at a time, publishing progressive
// results. Completed scans are cached in memory with a short TTL and
// persisted so a restart inside the TTL window skips the scan entirely.
package aggregator

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"stockdash/internal/api"
	"stockdash/internal/store"
)

// Phase is the scan lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetchingList
	PhaseFetchingAnalyses
	PhaseReady
	PhaseRefreshing
)

// String returns the phase name for logs and the status line.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetchingList:
		return "fetching list"
	case PhaseFetchingAnalyses:
		return "fetching analyses"
	case PhaseReady:
		return "ready"
	case PhaseRefreshing:
		return "refreshing"
	}
	return "unknown"
}

// Client is the slice of the gateway client the aggregator needs.
type Client interface {
	ListStocks(ctx context.Context) ([]string, error)
	GetAnalysis(ctx context.Context, ticker string) (*api.AnalysisData, error)
}

// Progress reports how far a running scan has gotten.
type Progress struct {
	Done  int
	Total int
}

// SortKey selects the result ordering.
type SortKey int

const (
	SortByTicker SortKey = iota
	SortByTickerDesc
	SortByScoreAsc
	SortByScoreDesc

	numSortKeys
)

// Next cycles to the following sort key, wrapping after the last one.
func (k SortKey) Next() SortKey { return (k + 1) % numSortKeys }

// Aggregator owns the scan state machine. All exported methods are safe for
// concurrent use; Refresh itself must not be called concurrently with
// another Refresh.
type Aggregator struct {
	client Client
	snaps  store.SnapshotStore // may be nil
	ttl    time.Duration
	log    *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	phase     Phase
	analyses  []api.AnalysisData
	progress  Progress
	lastFetch time.Time
	lastErr   string
}

// New returns an idle Aggregator. snaps may be nil to disable persistence.
// cacheMinutes is clamped by config before it gets here.
func New(client Client, snaps store.SnapshotStore, cacheMinutes int, log *slog.Logger) *Aggregator {
	return &Aggregator{
		client: client,
		snaps:  snaps,
		ttl:    time.Duration(cacheMinutes) * time.Minute,
		log:    log,
		now:    time.Now,
	}
}

// Restore loads the persisted snapshot, if any, and marks the aggregator
// ready when the snapshot is still inside the TTL window. A stale snapshot
// is still loaded so the screen has something to show while the first scan
// replaces it.
func (a *Aggregator) Restore(ctx context.Context) error {
	if a.snaps == nil {
		return nil
	}
	snap, ok, err := a.snaps.LoadSnapshot(ctx)
	if err != nil {
		return err
	}
	if !ok || len(snap.Analyses) == 0 {
		return nil
	}

	a.mu.Lock()
	a.analyses = snap.Analyses
	a.lastFetch = snap.LastFetch
	a.phase = PhaseReady
	a.mu.Unlock()

	a.log.Info("restored suggestion snapshot",
		"tickers", len(snap.Analyses), "fetched_at", snap.LastFetch)
	return nil
}

// CacheValid reports whether the current results can be served without a
// scan: a completed fetch exists, it produced data, and the TTL has not
// elapsed.
func (a *Aggregator) CacheValid() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cacheValidLocked()
}

func (a *Aggregator) cacheValidLocked() bool {
	if a.lastFetch.IsZero() || len(a.analyses) == 0 {
		return false
	}
	return a.now().Before(a.lastFetch.Add(a.ttl))
}

// TimeToExpiry returns how long the cache remains valid, zero when it is
// already invalid.
func (a *Aggregator) TimeToExpiry() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.cacheValidLocked() {
		return 0
	}
	return a.lastFetch.Add(a.ttl).Sub(a.now())
}

// Refresh runs a scan. When force is false and the cache is still valid the
// scan is skipped. A forced refresh discards the previous results before
// fetching; an automatic refresh keeps them visible until the new scan
// lands. onProgress may be nil; it is called after the universe is known and
// again after each ticker settles, including tickers whose analysis fetch
// failed.
func (a *Aggregator) Refresh(ctx context.Context, force bool, onProgress func(Progress)) error {
	a.mu.Lock()
	if !force && a.cacheValidLocked() {
		a.mu.Unlock()
		return nil
	}
	refreshing := len(a.analyses) > 0 && !force
	if force {
		a.analyses = nil
		a.lastFetch = time.Time{}
	}
	if refreshing {
		a.phase = PhaseRefreshing
	} else {
		a.phase = PhaseFetchingList
	}
	a.progress = Progress{}
	a.lastErr = ""
	a.mu.Unlock()

	tickers, err := a.client.ListStocks(ctx)
	if err != nil {
		a.fail("listing stocks: " + err.Error())
		return err
	}

	a.mu.Lock()
	if !refreshing {
		a.phase = PhaseFetchingAnalyses
	}
	a.progress = Progress{Total: len(tickers)}
	a.mu.Unlock()
	a.report(onProgress)

	var results []api.AnalysisData
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			a.fail("scan cancelled")
			return err
		}
		data, err := a.client.GetAnalysis(ctx, ticker)
		if err != nil {
			a.log.Warn("analysis fetch failed", "ticker", ticker, "error", err)
		} else {
			results = append(results, *data)
			if !refreshing {
				// Progressive results: show each analysis as it lands.
				a.mu.Lock()
				a.analyses = append(a.analyses, *data)
				a.mu.Unlock()
			}
		}
		a.mu.Lock()
		a.progress.Done++
		a.mu.Unlock()
		a.report(onProgress)
	}

	fetched := a.now()
	a.mu.Lock()
	a.analyses = results
	a.lastFetch = fetched
	a.phase = PhaseReady
	a.mu.Unlock()

	a.log.Info("scan complete", "tickers", len(tickers), "analyses", len(results))

	if a.snaps != nil {
		snap := store.Snapshot{Analyses: results, LastFetch: fetched}
		if err := a.snaps.SaveSnapshot(ctx, snap); err != nil {
			a.log.Warn("persisting snapshot failed", "error", err)
		}
	}
	return nil
}

func (a *Aggregator) fail(msg string) {
	a.mu.Lock()
	a.lastErr = msg
	if len(a.analyses) > 0 {
		a.phase = PhaseReady
	} else {
		a.phase = PhaseIdle
	}
	a.mu.Unlock()
}

func (a *Aggregator) report(onProgress func(Progress)) {
	if onProgress == nil {
		return
	}
	a.mu.Lock()
	p := a.progress
	a.mu.Unlock()
	onProgress(p)
}

// Phase returns the current lifecycle state.
func (a *Aggregator) Phase() Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

// Progress returns how far the running scan has gotten.
func (a *Aggregator) Progress() Progress {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.progress
}

// Err returns the last scan error message, empty if none.
func (a *Aggregator) Err() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// LastFetch returns when the last completed scan finished, zero if never.
func (a *Aggregator) LastFetch() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastFetch
}

// Results returns the current analyses ordered by key.
func (a *Aggregator) Results(key SortKey) []api.AnalysisData {
	a.mu.Lock()
	out := make([]api.AnalysisData, len(a.analyses))
	copy(out, a.analyses)
	a.mu.Unlock()

	switch key {
	case SortByTicker:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Ticker) < strings.ToLower(out[j].Ticker)
		})
	case SortByTickerDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Ticker) > strings.ToLower(out[j].Ticker)
		})
	case SortByScoreAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].TotalScore < out[j].TotalScore
		})
	case SortByScoreDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].TotalScore > out[j].TotalScore
		})
	}
	return out
}
