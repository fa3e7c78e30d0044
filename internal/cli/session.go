package cli

import (
	"context"
	"io"

	"github.com/lcatools/flowlink/internal/refdata"
	"github.com/lcatools/flowlink/internal/resolver"
)

// session bundles what a resolving command needs: the open reference
// database and a resolver built over it.
type session struct {
	cfg      Config
	store    *refdata.SQLite
	resolver *resolver.Resolver
}

// openSession loads the config, opens the reference database and builds a
// session resolver (unit index + mapping cache).
func openSession(ctx context.Context, opts *RootOptions, stderr io.Writer) (*session, error) {
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	store, err := refdata.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	resolverOpts := []resolver.Option{
		resolver.WithLogger(opts.Logger(stderr)),
	}
	if cfg.MinScore > 0 {
		resolverOpts = append(resolverOpts, resolver.WithMinScore(cfg.MinScore))
	}

	r, err := resolver.Create(ctx, store, cfg.MappingFile, resolverOpts...)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &session{cfg: cfg, store: store, resolver: r}, nil
}

// Close releases the session's database handle.
func (s *session) Close() error {
	return s.store.Close()
}
