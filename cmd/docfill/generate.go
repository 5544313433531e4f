// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docfill/internal/backend"
	"github.com/pdiddy/docfill/internal/fill"
	"github.com/pdiddy/docfill/internal/ledger"
)

var generateCmd = &cobra.Command{
	Use:   "generate <source>",
	Short: "Generate the body of every section of a document outline",
	Long: `Generate reads the headings of <source> (.md, .docx, .yaml), writes one
paragraph per section with the configured backend, and saves the filled
document. A heading may request a length with a trailing "(N)", for example
"Background (500)"; the default is 1000 words.

Sections that fail to generate get a placeholder paragraph and the run
continues. The run is recorded in the ledger so placeholders can be revised
later.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, l, err := setup(cmd)
	if err != nil {
		return err
	}

	var b backend.Backend
	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		b = backend.DryRun()
		cfg.Ledger.Enabled = false
	} else {
		b, err = backend.New(cfg.Backend, l)
		if err != nil {
			return err
		}
	}

	var led *ledger.Ledger
	if cfg.Ledger.Enabled {
		led, err = ledger.Open(cfg.Ledger.Dir)
		if err != nil {
			l.Warn("run ledger unavailable, continuing without it", "dir", cfg.Ledger.Dir, "err", err)
		} else {
			defer led.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := fill.NewRunner(cfg, fill.RunnerOptions{
		Backend:  b,
		Ledger:   led,
		Logger:   l,
		Progress: os.Stderr,
	})
	res, err := runner.Run(ctx, args[0])
	if err != nil {
		return err
	}

	s := res.Summary
	fmt.Fprintf(os.Stdout, "Wrote %s: %d section(s) generated, %d placeholder(s)\n",
		res.Output, s.Generated(), s.Failed())
	if s.Failed() > 0 {
		fmt.Fprintf(os.Stdout, "Placeholders: %s\n", strings.Join(s.FailedTitles(), ", "))
	}
	if led != nil {
		fmt.Fprintf(os.Stdout, "Run ID: %s\n", res.ID)
	}
	return nil
}

func init() {
	generateCmd.Flags().String("backend", "", "backend kind: ollama or langchain")
	generateCmd.Flags().String("provider", "", "langchain provider: ollama, openai, anthropic")
	generateCmd.Flags().String("model", "", "model identifier")
	generateCmd.Flags().String("endpoint", "", "backend endpoint URL")
	generateCmd.Flags().String("api-key", "", "backend API key (default: from the secrets directory)")
	generateCmd.Flags().Duration("timeout", 0, "timeout for a single generation call")
	generateCmd.Flags().Int("retries", 0, "retries on transient backend failures")
	generateCmd.Flags().String("reference", "", "primary reference file")
	generateCmd.Flags().String("reference-dir", "", "folder of auxiliary reference files")
	generateCmd.Flags().String("pattern", "", "glob selecting files in --reference-dir (default *.txt)")
	generateCmd.Flags().StringP("output", "o", "", "output file (default: <output-dir>/<source>-filled.<ext>)")
	generateCmd.Flags().String("output-dir", "", "directory for output documents")
	generateCmd.Flags().String("format", "", "output format: markdown, latex or docx")
	generateCmd.Flags().String("prompt-file", "", "prompt template file")
	generateCmd.Flags().String("sentinel", "", "placeholder text for sections that fail")
	generateCmd.Flags().Int("workers", 0, "concurrent generation calls")
	generateCmd.Flags().Bool("no-ledger", false, "do not record the run")
	generateCmd.Flags().Bool("dry-run", false, "write the prompts instead of calling the backend")

	rootCmd.AddCommand(generateCmd)
}
