package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/config"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/knowledge"
)

func newSeedCmd(gf *globalFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load reference snippets from a YAML file into the knowledge base",
		Long: "Load reference snippets from a YAML file into the knowledge base.\n" +
			"With --kuzu the snippets persist; without it the file is only validated.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(gf, func(c *config.Config) {
				// Seeding is explicit here, not applied at open.
				c.Knowledge.SeedFile = ""
			})
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			seed, err := knowledge.LoadSeed(file)
			if err != nil {
				return err
			}

			kb, err := knowledge.Open(cmd.Context(), cfg.Knowledge, log)
			if err != nil {
				return err
			}
			defer kb.Close()

			n, err := seed.Apply(cmd.Context(), kb.Store)
			if err != nil {
				return err
			}
			stats, err := kb.Store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Applied %d snippets from %s\n", n, file)
			fmt.Fprintf(out, "Knowledge base: %d domains, %d snippets\n", stats.DomainCount, stats.SnippetCount)
			if cfg.Knowledge.KuzuPath == "" {
				fmt.Fprintln(out, "No --kuzu path given; nothing was persisted.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "seed YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
