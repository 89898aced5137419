package knowledge

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/config"
)

// Base bundles a knowledge store with the detector and supplier built on it.
type Base struct {
	Store    Store
	Detector *Detector
	Cache    *Cache
	Supplier *Supplier
}

// Open builds the knowledge base described by cfg. With a KuzuPath the
// KuzuDB store is used, falling back to memory in builds without cgo. With a
// SeedFile the seed is applied first. The detector merges the built-in
// table with every domain the store knows.
func Open(ctx context.Context, cfg config.Knowledge, log *zap.Logger) (*Base, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var st Store = NewMemStore()
	if cfg.KuzuPath != "" {
		ks, err := OpenKuzu(cfg.KuzuPath)
		switch {
		case errors.Is(err, ErrKuzuUnavailable):
			log.Warn("kuzu unavailable, using in-memory knowledge base", zap.String("path", cfg.KuzuPath))
		case err != nil:
			return nil, fmt.Errorf("knowledge: open: %w", err)
		default:
			st = ks
		}
	}

	if cfg.SeedFile != "" {
		seed, err := LoadSeed(cfg.SeedFile)
		if err != nil {
			st.Close()
			return nil, err
		}
		n, err := seed.Apply(ctx, st)
		if err != nil {
			st.Close()
			return nil, err
		}
		log.Info("knowledge seed applied", zap.String("file", cfg.SeedFile), zap.Int("snippets", n))
	}

	known, err := st.Domains(ctx)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("knowledge: open: %w", err)
	}
	det := NewDetector(MergeDomains(DefaultDomains, known))
	cache := NewCache(st, cfg.CacheTTL)

	return &Base{
		Store:    st,
		Detector: det,
		Cache:    cache,
		Supplier: NewSupplier(det, cache, cfg.MaxSnippets, log.Named("knowledge")),
	}, nil
}

// Close closes the underlying store.
func (b *Base) Close() error {
	if b == nil || b.Store == nil {
		return nil
	}
	return b.Store.Close()
}
