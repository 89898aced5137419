package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/config"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/server"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/store"
)

// purgeInterval is how often expired results are removed.
const purgeInterval = 15 * time.Minute

func newServeCmd(gf *globalFlags) *cobra.Command {
	var (
		addr      string
		storePath string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(gf, func(c *config.Config) {
				setIf(&c.Server.Addr, addr)
				setIf(&c.Store.Path, storePath)
			})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&storePath, "store", "", "SQLite file for saved results (default: in memory)")
	return cmd
}

// runServe serves HTTP and purges expired results until ctx ends.
func runServe(ctx context.Context, cfg *config.Config) error {
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := newApp(ctx, cfg, log, buildOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(a.judge, cfg.Server, log.Named("http"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx) })
	g.Go(func() error { return store.RunPurger(gctx, a.store, purgeInterval, log.Named("store")) })
	return g.Wait()
}
