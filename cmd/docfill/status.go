// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docfill/internal/ledger"
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "List recorded runs or show the placeholders of one run",
	Long: `Status reads the run ledger. Without arguments it lists recent runs with
their generated and placeholder counts. With a run ID it lists the sections of
that run that still hold the placeholder text.

Use --export with a run ID to print the whole run as YAML.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	led, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer led.Close()

	ctx := context.Background()
	if len(args) == 0 {
		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := led.Runs(ctx, limit)
		if err != nil {
			return err
		}
		return formatRuns(runs)
	}

	if export, _ := cmd.Flags().GetBool("export"); export {
		return led.ExportYAML(ctx, args[0], os.Stdout)
	}

	run, _, err := led.Run(ctx, args[0])
	if err != nil {
		return err
	}
	pending, err := led.Pending(ctx, run.ID)
	if err != nil {
		return err
	}
	return formatPending(run, pending)
}

func formatRuns(runs []ledger.Run) error {
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-19s  %-30s  %9s  %12s\n",
		"Run", "Started", "Source", "Generated", "Placeholders")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 116))
	for _, r := range runs {
		source := r.Source
		if len(source) > 30 {
			source = "..." + source[len(source)-27:]
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-19s  %-30s  %9d  %12d\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), source, r.Generated, r.Failed)
	}
	fmt.Fprintf(os.Stdout, "\n%d run(s)\n", len(runs))
	return nil
}

func formatPending(run ledger.Run, pending []ledger.Section) error {
	fmt.Fprintf(os.Stdout, "Run %s\n  source: %s\n  output: %s\n  model:  %s\n\n",
		run.ID, run.Source, run.Output, run.Model)
	if len(pending) == 0 {
		fmt.Println("All sections generated.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-4s  %-5s  %s\n", "Seq", "Level", "Section")
	for _, s := range pending {
		fmt.Fprintf(os.Stdout, "%-4d  %-5d  %s%s\n", s.Seq, s.Level, strings.Repeat("  ", max(s.Level-1, 0)), s.Title)
	}
	fmt.Fprintf(os.Stdout, "\n%d placeholder(s); regenerate with: docfill revise --run %s --section <seq>\n", len(pending), run.ID)
	return nil
}

func init() {
	statusCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	statusCmd.Flags().Bool("export", false, "print the run as YAML")

	rootCmd.AddCommand(statusCmd)
}
