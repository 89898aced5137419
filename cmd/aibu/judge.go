package main

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/judge"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/judgment"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/llm"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/orchestrator"
)

// demoReply is the canned model reply used by --dry-run.
//
//go:embed testdata/demo.json
var demoReply string

type judgeFlags struct {
	Context string
	Query   string
	JSON    bool
	DryRun  bool
	Verbose bool
}

func newJudgeCmd(gf *globalFlags) *cobra.Command {
	var jf judgeFlags
	cmd := &cobra.Command{
		Use:   "judge",
		Short: "Judge a single situation from the command line",
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

			var bo buildOptions
			if jf.DryRun {
				bo.provider = llm.NewScripted(llm.Reply(demoReply))
			}
			stopReporter := func() {}
			if jf.Verbose {
				var wg sync.WaitGroup
				bo.reporter = orchestrator.NewReporter()
				events := bo.reporter.Subscribe()
				errOut := cmd.ErrOrStderr()
				wg.Add(1)
				go func() {
					defer wg.Done()
					for e := range events {
						fmt.Fprintln(errOut, orchestrator.FormatEvent(e))
					}
				}()
				stopReporter = func() {
					bo.reporter.Close()
					wg.Wait()
				}
			}

			a, err := newApp(cmd.Context(), cfg, log, bo)
			if err != nil {
				stopReporter()
				return err
			}
			defer a.Close()

			v, jerr := a.judge.Judge(cmd.Context(), judge.Input{Context: jf.Context, Query: jf.Query})
			stopReporter()
			if jerr != nil {
				return errors.New(jerr.Message)
			}

			out := cmd.OutOrStdout()
			if jf.JSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(v.Result)
			}
			printVerdict(out, v)
			return nil
		},
	}
	cmd.Flags().StringVar(&jf.Context, "context", "", "the situation, in your own words")
	cmd.Flags().StringVar(&jf.Query, "query", "", "the question to judge")
	cmd.Flags().BoolVar(&jf.JSON, "json", false, "print the raw result as JSON")
	cmd.Flags().BoolVar(&jf.DryRun, "dry-run", false, "use a canned model reply instead of calling a provider")
	cmd.Flags().BoolVarP(&jf.Verbose, "verbose", "v", false, "print each generation attempt to stderr")
	_ = cmd.MarkFlagRequired("context")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

// printVerdict renders a verdict for a terminal.
func printVerdict(w io.Writer, v *judge.Verdict) {
	r := v.Result
	fmt.Fprintf(w, "%s\n\n", r.Paraphrase)
	for _, p := range r.Personas {
		fmt.Fprintf(w, "%s: %s\n", p.Name, verdictLabel(p.Verdict))
		fmt.Fprintf(w, "  %s\n", p.Rationale)
		for _, k := range p.KeyPoints {
			fmt.Fprintf(w, "  - %s\n", k)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Summary: %s\n", r.Summary)

	if len(v.Snippets) > 0 {
		fmt.Fprintln(w, "\nReferences:")
		for i, s := range v.Snippets {
			fmt.Fprintf(w, "  [%d] %s - %s\n", i+1, s.Title, s.URL)
		}
	}
	if v.ID != "" {
		fmt.Fprintf(w, "\nResult ID: %s\n", v.ID)
	}
}

// verdictLabel answers the question "am I being unreasonable?".
func verdictLabel(v judgment.Verdict) string {
	switch v {
	case judgment.VerdictYes:
		return "Yes, you are being unreasonable"
	case judgment.VerdictNo:
		return "No, you are not being unreasonable"
	case judgment.VerdictPartially:
		return "Partially"
	}
	return strings.TrimSpace(string(v))
}
