package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"stockdash/internal/api"
)

func TestSnapshotRoundTrip(t *testing.T) {
	db, err := NewSQLiteStore(filepath.Join(t.TempDir(), "stockdash.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, ok, err := db.LoadSnapshot(ctx); err != nil || ok {
		t.Fatalf("fresh store should have no snapshot, ok=%v err=%v", ok, err)
	}

	snap := Snapshot{
		Analyses: []api.AnalysisData{
			{
				Ticker:          "MSFT",
				FinalSuggestion: api.SuggestionBuy,
				TotalScore:      0.72,
				Breakdown: api.Breakdown{
					TA:        api.TechnicalAnalysis{Score: 0.8, Marker: "sma", Value: 412.5, Explanation: "above 50-day"},
					Sentiment: api.Sentiment{Score: 0.6, Articles: []api.Article{{Title: "earnings beat", SentimentLabel: "positive", SentimentScore: 0.9}}},
				},
				Weights: api.Weights{TA: 0.5, Sentiment: 0.3, Fundamentals: 0.2},
			},
			{Ticker: "AAPL", FinalSuggestion: api.SuggestionHold, TotalScore: 0.41},
		},
		LastFetch: time.Date(2025, 8, 30, 10, 0, 0, 0, time.UTC),
	}
	if err := db.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, ok, err := db.LoadSnapshot(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadSnapshot: ok=%v err=%v", ok, err)
	}
	if !got.LastFetch.Equal(snap.LastFetch) {
		t.Errorf("last fetch mismatch: got %v want %v", got.LastFetch, snap.LastFetch)
	}
	if len(got.Analyses) != 2 {
		t.Fatalf("expected 2 analyses, got %d", len(got.Analyses))
	}
	// Scan order must survive persistence.
	if got.Analyses[0].Ticker != "MSFT" || got.Analyses[1].Ticker != "AAPL" {
		t.Errorf("order not preserved: %s, %s", got.Analyses[0].Ticker, got.Analyses[1].Ticker)
	}
	first := got.Analyses[0]
	if first.FinalSuggestion != api.SuggestionBuy || first.TotalScore != 0.72 {
		t.Errorf("unexpected analysis %+v", first)
	}
	if first.Breakdown.TA.Marker != "sma" || len(first.Breakdown.Sentiment.Articles) != 1 {
		t.Errorf("breakdown not round-tripped: %+v", first.Breakdown)
	}
	if first.Weights.TA != 0.5 {
		t.Errorf("weights not round-tripped: %+v", first.Weights)
	}
}

func TestSnapshotSaveReplacesWholesale(t *testing.T) {
	db, err := NewSQLiteStore(filepath.Join(t.TempDir(), "stockdash.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	err = db.SaveSnapshot(ctx, Snapshot{
		Analyses: []api.AnalysisData{
			{Ticker: "AAPL"}, {Ticker: "MSFT"}, {Ticker: "NVDA"},
		},
		LastFetch: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	later := time.Now().UTC().Add(time.Minute)
	err = db.SaveSnapshot(ctx, Snapshot{
		Analyses:  []api.AnalysisData{{Ticker: "TSLA", FinalSuggestion: api.SuggestionSell}},
		LastFetch: later,
	})
	if err != nil {
		t.Fatalf("second SaveSnapshot: %v", err)
	}

	got, ok, err := db.LoadSnapshot(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadSnapshot: ok=%v err=%v", ok, err)
	}
	if len(got.Analyses) != 1 || got.Analyses[0].Ticker != "TSLA" {
		t.Fatalf("old rows survived replace: %+v", got.Analyses)
	}
	if !got.LastFetch.Equal(later) {
		t.Errorf("last fetch not updated: got %v want %v", got.LastFetch, later)
	}
}

func TestParquetTickPath(t *testing.T) {
	ps := NewParquetStore("/data")

	got := ps.tickPath("aapl", api.WindowMonth)
	want := filepath.Join("/data", "ticks", "month", "AAPL.parquet")
	if got != want {
		t.Errorf("tickPath mismatch:\n  got  %s\n  want %s", got, want)
	}
}

func TestParquetWriteReadTicks(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	ticks := []api.Tick{
		{Symbol: "AAPL", Timestamp: "2025-08-29T14:30:00Z", Open: 230, High: 232, Low: 229, Close: 231, Volume: 1000, Interval: 5},
		{Symbol: "AAPL", Timestamp: "2025-08-29T14:35:00Z", Open: 231, High: 233, Low: 230, Close: 232, Volume: 800, Interval: 5},
		{Symbol: "AAPL", Timestamp: "not-a-time", Close: 1},
	}
	if err := ps.WriteTicks(ctx, api.WindowDay, ticks); err != nil {
		t.Fatalf("WriteTicks: %v", err)
	}

	got, err := ps.ReadTicks(ctx, "AAPL", api.WindowDay)
	if err != nil {
		t.Fatalf("ReadTicks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 ticks (malformed timestamp dropped), got %d", len(got))
	}
	if got[0].Timestamp != "2025-08-29T14:30:00Z" || got[0].Close != 231 {
		t.Errorf("unexpected first tick %+v", got[0])
	}

	// Overlapping rewrite dedups by timestamp and keeps the newer values.
	update := []api.Tick{
		{Symbol: "AAPL", Timestamp: "2025-08-29T14:35:00Z", Open: 231, High: 234, Low: 230, Close: 233.5, Volume: 900, Interval: 5},
		{Symbol: "AAPL", Timestamp: "2025-08-29T14:40:00Z", Open: 233, High: 235, Low: 232, Close: 234, Volume: 700, Interval: 5},
	}
	if err := ps.WriteTicks(ctx, api.WindowDay, update); err != nil {
		t.Fatalf("WriteTicks update: %v", err)
	}
	got, err = ps.ReadTicks(ctx, "AAPL", api.WindowDay)
	if err != nil {
		t.Fatalf("ReadTicks after update: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 merged ticks, got %d", len(got))
	}
	if got[1].Close != 233.5 {
		t.Errorf("dedup should prefer incoming record, got close %v", got[1].Close)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Timestamp >= got[i].Timestamp {
			t.Errorf("ticks not sorted: %s before %s", got[i-1].Timestamp, got[i].Timestamp)
		}
	}
}

func TestParquetReadMissingSymbol(t *testing.T) {
	ps := NewParquetStore(t.TempDir())

	got, err := ps.ReadTicks(context.Background(), "ZZZZ", api.WindowWeek)
	if err != nil {
		t.Fatalf("ReadTicks missing symbol: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no ticks, got %d", len(got))
	}
}

func TestParquetListSymbols(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	syms, err := ps.ListSymbols(ctx, api.WindowDay)
	if err != nil || syms != nil {
		t.Fatalf("empty store: syms=%v err=%v", syms, err)
	}

	for _, sym := range []string{"MSFT", "AAPL"} {
		err := ps.WriteTicks(ctx, api.WindowDay, []api.Tick{
			{Symbol: sym, Timestamp: "2025-08-29T14:30:00Z", Close: 1},
		})
		if err != nil {
			t.Fatalf("WriteTicks %s: %v", sym, err)
		}
	}

	syms, err = ps.ListSymbols(ctx, api.WindowDay)
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(syms) != 2 || syms[0] != "AAPL" || syms[1] != "MSFT" {
		t.Fatalf("unexpected symbols %v", syms)
	}
}
