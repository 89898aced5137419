package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/mcptools"
)

func newServeMCPCmd(gf *globalFlags) *cobra.Command {
	var httpAddr string
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Expose judge and get_result as MCP tools (stdio by default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(gf, nil)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, log, buildOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			if httpAddr != "" {
				return mcptools.RunHTTP(ctx, a.judge, httpAddr)
			}
			return mcptools.RunStdio(ctx, a.judge)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "serve over streamable HTTP on this address instead of stdio")
	return cmd
}
