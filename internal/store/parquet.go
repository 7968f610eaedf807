package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"stockdash/internal/api"
)

// Compile-time interface check.
var _ TickStore = (*ParquetStore)(nil)

// ParquetStore implements TickStore using Parquet files on disk. Each
// symbol+window combination produces one file at:
//
//	<DataDir>/ticks/<window>/<SYMBOL>.parquet
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// TickRecord is the Parquet schema for tick data.
type TickRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
	Interval  int32   `parquet:"interval"`
}

// WriteTicks writes ticks to Parquet files grouped by symbol, merging with
// any existing file for the symbol and deduplicating by (symbol, timestamp).
// Ticks with malformed timestamps are skipped.
func (s *ParquetStore) WriteTicks(_ context.Context, window api.TickWindow, ticks []api.Tick) error {
	if len(ticks) == 0 {
		return nil
	}

	groups := make(map[string][]TickRecord)
	for _, t := range ticks {
		ts := t.Time()
		if ts.IsZero() {
			continue
		}
		groups[t.Symbol] = append(groups[t.Symbol], TickRecord{
			Symbol:    t.Symbol,
			Timestamp: ts.UnixMilli(),
			Open:      t.Open,
			High:      t.High,
			Low:       t.Low,
			Close:     t.Close,
			Volume:    t.Volume,
			Interval:  int32(t.Interval),
		})
	}

	for symbol, records := range groups {
		path := s.tickPath(symbol, window)

		existing, _ := readParquetFile[TickRecord](path)
		merged := mergeTickRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing ticks for %s/%s: %w", symbol, window, err)
		}
	}
	return nil
}

// ReadTicks reads all stored ticks for the given symbol and window, sorted
// by timestamp.
func (s *ParquetStore) ReadTicks(_ context.Context, symbol string, window api.TickWindow) ([]api.Tick, error) {
	records, err := readParquetFile[TickRecord](s.tickPath(symbol, window))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	ticks := make([]api.Tick, 0, len(records))
	for _, r := range records {
		ticks = append(ticks, api.Tick{
			Symbol:    r.Symbol,
			Timestamp: time.UnixMilli(r.Timestamp).UTC().Format(time.RFC3339),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
			Interval:  int(r.Interval),
		})
	}
	return ticks, nil
}

// ListSymbols lists all symbols that have tick data for the given window.
func (s *ParquetStore) ListSymbols(_ context.Context, window api.TickWindow) ([]string, error) {
	dir := filepath.Join(s.DataDir, "ticks", string(window))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".parquet") {
			continue
		}
		symbols = append(symbols, strings.TrimSuffix(name, ".parquet"))
	}
	sort.Strings(symbols)
	return symbols, nil
}

// tickPath returns the filesystem path for a tick Parquet file.
func (s *ParquetStore) tickPath(symbol string, window api.TickWindow) string {
	return filepath.Join(s.DataDir, "ticks", string(window), strings.ToUpper(symbol)+".parquet")
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeTickRecords deduplicates records by (symbol, timestamp), preferring
// new records over existing ones. Results are sorted by timestamp.
func mergeTickRecords(existing, incoming []TickRecord) []TickRecord {
	type key struct {
		symbol string
		ts     int64
	}
	seen := make(map[key]TickRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Symbol, r.Timestamp}] = r
	}
	for _, r := range incoming {
		seen[key{r.Symbol, r.Timestamp}] = r
	}

	merged := make([]TickRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
