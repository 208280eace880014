package worldbook

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"personamcp/internal/logging"
	"personamcp/internal/source"
)

// LoadObserver is told about every load attempt that reached the source.
type LoadObserver func(src string, err error)

// Store produces the Document behind one persona's worldbook.
//
// With caching enabled the first successful load is kept for the life of
// the Store and never invalidated; failed loads are not cached. Without
// caching every Load re-reads the source.
type Store struct {
	locator  source.Locator
	cache    bool
	logger   *logging.AppLogger
	observer LoadObserver

	mu  sync.Mutex
	doc *Document
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCache keeps the first successfully loaded document.
func WithCache(enabled bool) StoreOption {
	return func(s *Store) { s.cache = enabled }
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger *logging.AppLogger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithLoadObserver registers a callback invoked after each source read.
func WithLoadObserver(fn LoadObserver) StoreOption {
	return func(s *Store) { s.observer = fn }
}

// NewStore creates a Store reading from loc.
func NewStore(loc source.Locator, opts ...StoreOption) *Store {
	s := &Store{locator: loc}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Source names the backing document.
func (s *Store) Source() string {
	if s.locator == nil {
		return "<none>"
	}
	return s.locator.String()
}

// Cached reports whether the store keeps its document after the first load.
func (s *Store) Cached() bool {
	return s.cache
}

// Load returns the document, reading and parsing the source unless a cached
// copy exists. Errors wrap ErrSourceUnavailable or ErrMalformedDocument.
func (s *Store) Load(ctx context.Context) (*Document, error) {
	if !s.cache {
		return s.read(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc != nil {
		return s.doc, nil
	}

	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	s.doc = doc
	return doc, nil
}

func (s *Store) read(ctx context.Context) (*Document, error) {
	start := time.Now()

	doc, err := s.parseSource(ctx)
	s.notify(err)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("Worldbook load failed", "source", s.Source(), "error", err)
		}
		return nil, err
	}

	if s.logger != nil {
		s.logger.Debug("Worldbook loaded", "source", s.Source(), "entries", doc.Len())
		s.logger.LogPerformance("worldbook_load", start)
	}
	return doc, nil
}

func (s *Store) parseSource(ctx context.Context) (*Document, error) {
	data, err := source.ReadAll(ctx, s.locator)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		var de *decodeError
		if errors.As(err, &de) && s.logger != nil {
			s.logger.Debug("Worldbook decode error", "source", s.Source(), "error", de.cause)
		}
		return nil, fmt.Errorf("parsing %s: %w", s.Source(), err)
	}
	return doc, nil
}

func (s *Store) notify(err error) {
	if s.observer != nil {
		s.observer(s.Source(), err)
	}
}
