package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/config"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/judge"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/knowledge"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/llm"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/orchestrator"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/store"
)

// app holds the components every long-running command needs.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	knowledge *knowledge.Base
	store     store.Store
	judge     *judge.Service
}

// buildOptions adjust how newApp wires the judge service.
type buildOptions struct {
	// provider replaces the configured model provider when set.
	provider llm.Provider
	reporter *orchestrator.Reporter
}

// newApp opens the knowledge base and result store and builds the judge
// service. A missing API key is not fatal: requests then fail with a
// configuration error instead.
func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger, bo buildOptions) (*app, error) {
	provider := bo.provider
	if provider == nil {
		p, err := llm.New(ctx, cfg.LLM)
		switch {
		case errors.Is(err, llm.ErrNoCredentials):
			log.Warn("no API key configured, judgments will fail until one is set",
				zap.String("provider", cfg.LLM.Provider))
		case err != nil:
			return nil, fmt.Errorf("aibu: %w", err)
		default:
			provider = p
		}
	}

	kb, err := knowledge.Open(ctx, cfg.Knowledge, log)
	if err != nil {
		return nil, fmt.Errorf("aibu: %w", err)
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		kb.Close()
		return nil, fmt.Errorf("aibu: %w", err)
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithPolicy(orchestrator.PolicyFromConfig(cfg.Retry)),
		orchestrator.WithLogger(log.Named("orchestrator")),
	}
	if bo.reporter != nil {
		orchOpts = append(orchOpts, orchestrator.WithReporter(bo.reporter))
	}

	svc, err := judge.New(orchestrator.New(provider, orchOpts...),
		judge.WithSupplier(kb.Supplier),
		judge.WithStore(st, cfg.Store.TTL),
		judge.WithTimeout(cfg.LLM.Timeout),
		judge.WithLogger(log.Named("judge")),
	)
	if err != nil {
		st.Close()
		kb.Close()
		return nil, fmt.Errorf("aibu: %w", err)
	}

	if provider != nil {
		log.Info("model provider ready", zap.String("provider", provider.Name()))
	}
	return &app{cfg: cfg, log: log, knowledge: kb, store: st, judge: svc}, nil
}

// Close releases the store and the knowledge base.
func (a *app) Close() error {
	return errors.Join(a.store.Close(), a.knowledge.Close())
}
