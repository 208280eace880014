package persona

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"personamcp/internal/logging"
)

// ErrUnknownPersona is returned by Registry.Get for ids that were never
// configured.
var ErrUnknownPersona = errors.New("unknown persona")

// preloadLimit bounds concurrent file reads during Open.
const preloadLimit = 4

// Registry holds every configured persona in configuration order. Each
// persona owns an independent worldbook store and engine, so one persona
// can query a sibling's knowledge base through the same interface.
type Registry struct {
	order    []string
	personas map[string]*Persona
}

// Open builds a persona for every bundle, rejecting duplicate ids, then
// reads persona frontmatter and warms cached worldbooks concurrently.
// Preload failures are logged and left for the first call to report again;
// only context cancellation aborts Open.
func Open(ctx context.Context, root string, bundles []Bundle, logger *logging.AppLogger, opts ...Option) (*Registry, error) {
	if logger == nil {
		logger = logging.GetDefault()
	}
	start := time.Now()

	reg := &Registry{personas: make(map[string]*Persona, len(bundles))}
	opts = append([]Option{WithLogger(logger)}, opts...)

	for _, b := range bundles {
		if _, dup := reg.personas[b.ID]; dup {
			return nil, fmt.Errorf("duplicate persona id %q", b.ID)
		}
		p, err := New(root, b, opts...)
		if err != nil {
			return nil, err
		}
		reg.order = append(reg.order, b.ID)
		reg.personas[b.ID] = p
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadLimit)
	for _, id := range reg.order {
		p := reg.personas[id]
		g.Go(func() error {
			return p.preload(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("Personas loaded", "count", len(reg.order), "root", root)
	logger.LogPerformance("registry_open", start)
	return reg, nil
}

func (p *Persona) preload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.Refresh(ctx); err != nil {
		p.logger.Warn("Persona file not readable", "error", err)
	}

	if p.engine != nil && p.engine.Store().Cached() {
		if _, err := p.engine.Store().Load(ctx); err != nil {
			p.logger.Warn("Worldbook preload failed", "error", err)
		}
	}

	return ctx.Err()
}

// Get returns the persona with the given id.
func (r *Registry) Get(id string) (*Persona, error) {
	p, ok := r.personas[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPersona, id)
	}
	return p, nil
}

// IDs returns persona ids in configuration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Personas returns personas in configuration order.
func (r *Registry) Personas() []*Persona {
	out := make([]*Persona, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.personas[id])
	}
	return out
}

// Len returns the number of personas.
func (r *Registry) Len() int { return len(r.order) }
