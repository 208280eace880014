package main

import (
	"context"
	"fmt"

	"personamcp/internal/config"
	"personamcp/internal/logging"
	"personamcp/internal/metrics"
	"personamcp/internal/persona"
	"personamcp/internal/repository"
	"personamcp/internal/worldbook"
)

// app is everything a command needs once the config is loaded and the
// bundle repository is ready.
type app struct {
	cfg      *config.Config
	logger   *logging.AppLogger
	metrics  *metrics.Metrics
	root     string
	registry *persona.Registry
}

// newLogger builds the process logger. The --log-level flag wins over the
// config; DEBUG in the environment wins over both.
func newLogger(cfg *config.Config) (*logging.AppLogger, error) {
	logger := logging.NewAppLogger()
	if logger.IsDebug() {
		return logger, nil
	}

	level := logLevel
	if level == "" && cfg != nil {
		level = cfg.LogLevel
	}
	if level != "" {
		if err := logger.SetLevel(level); err != nil {
			return nil, err
		}
	}
	return logger, nil
}

// openApp loads the config, prepares the repository and opens the registry.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	src, err := repository.NewSource(cfg.Repository)
	if err != nil {
		return nil, fmt.Errorf("repository: %w", err)
	}
	root, err := src.Prepare(logger)
	if err != nil {
		return nil, fmt.Errorf("preparing repository: %w", err)
	}

	m := metrics.New()
	reg, err := persona.Open(ctx, root, cfg.Personas, logger, persona.WithLoadObserver(m.ObserveLoad))
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		root:     root,
		registry: reg,
	}, nil
}

// worldbook returns the engine of persona id, failing when the persona has
// no worldbook configured.
func (a *app) worldbook(id string) (*persona.Persona, *worldbook.Engine, error) {
	p, err := a.registry.Get(id)
	if err != nil {
		return nil, nil, err
	}
	engine := p.Worldbook()
	if engine == nil {
		return nil, nil, fmt.Errorf("persona %q has no worldbook configured", id)
	}
	return p, engine, nil
}
