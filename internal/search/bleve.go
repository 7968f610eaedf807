package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
)

// BleveEngine indexes the stock universe in an in-memory bleve index and
// ranks matches: exact symbol first, then prefix, then infix.
type BleveEngine struct {
	index   bleve.Index
	symbols map[string]string // lowercase -> original casing
}

type symbolDoc struct {
	Symbol string `json:"symbol"`
}

// NewBleveEngine builds a memory-only index over symbols.
func NewBleveEngine(symbols []string) (*BleveEngine, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}

	originals := make(map[string]string, len(symbols))
	batch := index.NewBatch()
	for _, sym := range symbols {
		ls := strings.ToLower(sym)
		originals[ls] = sym
		if err := batch.Index(ls, symbolDoc{Symbol: ls}); err != nil {
			index.Close()
			return nil, fmt.Errorf("indexing %s: %w", sym, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		index.Close()
		return nil, fmt.Errorf("executing batch: %w", err)
	}
	return &BleveEngine{index: index, symbols: originals}, nil
}

// Search returns matching symbols in relevance order. An empty query
// returns nothing; callers show the full universe themselves.
func (e *BleveEngine) Search(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	exact := bleve.NewTermQuery(q)
	exact.SetField("symbol")
	exact.SetBoost(10.0)

	prefix := bleve.NewPrefixQuery(q)
	prefix.SetField("symbol")
	prefix.SetBoost(5.0)

	infix := bleve.NewWildcardQuery("*" + q + "*")
	infix.SetField("symbol")
	infix.SetBoost(2.0)

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(exact, prefix, infix))
	req.Size = 50

	res, err := e.index.Search(req)
	if err != nil {
		return nil
	}

	out := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if sym, ok := e.symbols[hit.ID]; ok {
			out = append(out, sym)
		}
	}
	return out
}

// Close releases the index.
func (e *BleveEngine) Close() error {
	return e.index.Close()
}
