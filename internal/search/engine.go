// Package search provides symbol lookup over the stock universe for the
// picker screen.
package search

import "strings"

// Engine matches a query against the stock universe and returns symbols in
// relevance order.
type Engine interface {
	Search(query string) []string
	Close() error
}

// InMemoryEngine is a plain substring scanner, used as the fallback when
// the index cannot be built.
type InMemoryEngine struct {
	symbols []string
}

// NewInMemoryEngine returns a scanner over the given symbols.
func NewInMemoryEngine(symbols []string) *InMemoryEngine {
	return &InMemoryEngine{symbols: symbols}
}

// Search returns symbols containing the query, prefix matches first.
func (e *InMemoryEngine) Search(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]string(nil), e.symbols...)
	}
	var prefix, contains []string
	for _, sym := range e.symbols {
		ls := strings.ToLower(sym)
		switch {
		case strings.HasPrefix(ls, q):
			prefix = append(prefix, sym)
		case strings.Contains(ls, q):
			contains = append(contains, sym)
		}
	}
	return append(prefix, contains...)
}

// Close is a no-op for the in-memory scanner.
func (e *InMemoryEngine) Close() error { return nil }
