package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/config"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/logging"
)

// globalFlags are shared by every subcommand and override file and
// environment settings when set.
type globalFlags struct {
	ConfigFile string
	Provider   string
	Model      string
	LogLevel   string
	SeedFile   string
	KuzuPath   string
}

func newRootCmd() *cobra.Command {
	var gf globalFlags

	root := &cobra.Command{
		Use:           "aibu",
		Short:         "Three-persona verdicts on whether you are being unreasonable",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&gf.ConfigFile, "config", "", "path to a config file (default: ./aibu.yml if present)")
	pf.StringVar(&gf.Provider, "provider", "", "model provider: gemini or openai")
	pf.StringVar(&gf.Model, "model", "", "model name")
	pf.StringVar(&gf.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&gf.SeedFile, "seed", "", "knowledge seed YAML applied at startup")
	pf.StringVar(&gf.KuzuPath, "kuzu", "", "path to a KuzuDB knowledge base")

	root.AddCommand(
		newServeCmd(&gf),
		newJudgeCmd(&gf),
		newSeedCmd(&gf),
		newServeMCPCmd(&gf),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the config file, applies the environment and then the
// flags, fills defaults and validates.
func loadConfig(gf *globalFlags, override func(*config.Config)) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if gf.ConfigFile != "" {
		cfg, err = config.LoadFile(gf.ConfigFile)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv(os.LookupEnv)

	setIf(&cfg.LLM.Provider, gf.Provider)
	setIf(&cfg.LLM.Model, gf.Model)
	setIf(&cfg.Logging.Level, gf.LogLevel)
	setIf(&cfg.Knowledge.SeedFile, gf.SeedFile)
	setIf(&cfg.Knowledge.KuzuPath, gf.KuzuPath)
	if override != nil {
		override(cfg)
	}

	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger. Commands that write results to stdout
// keep logs on stderr.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, fmt.Errorf("aibu: %w", err)
	}
	return log, nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
