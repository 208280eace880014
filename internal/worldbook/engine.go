package worldbook

import (
	"context"
)

// Engine answers list, get and search calls for one worldbook. The policy
// and listing detail are fixed at construction so each persona deployment
// can choose its own.
type Engine struct {
	store    *Store
	policy   Policy
	detailed bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithPolicy selects the search scoring policy. The default is PolicyEntry.
func WithPolicy(p Policy) EngineOption {
	return func(e *Engine) { e.policy = p }
}

// WithDetailedSummaries adds keys and chunk counts to listings.
func WithDetailedSummaries(enabled bool) EngineOption {
	return func(e *Engine) { e.detailed = enabled }
}

// NewEngine creates an Engine over store.
func NewEngine(store *Store, opts ...EngineOption) *Engine {
	e := &Engine{store: store, policy: PolicyEntry}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the configured search policy.
func (e *Engine) Policy() Policy { return e.policy }

// Detailed reports whether listings include keys and chunk counts.
func (e *Engine) Detailed() bool { return e.detailed }

// Store returns the backing store.
func (e *Engine) Store() *Store { return e.store }

// ListEntries loads the document and summarizes its entries.
func (e *Engine) ListEntries(ctx context.Context) ([]Summary, error) {
	doc, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return ListEntries(doc, e.detailed), nil
}

// GetEntry loads the document and returns the entry with the given id.
func (e *Engine) GetEntry(ctx context.Context, id string) (Entry, error) {
	doc, err := e.store.Load(ctx)
	if err != nil {
		return Entry{}, err
	}
	return GetEntry(doc, id)
}

// Search loads the document and runs a search with the configured policy.
func (e *Engine) Search(ctx context.Context, query string, topK int) (*SearchResult, error) {
	doc, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Search(doc, query, topK, e.policy)
}
