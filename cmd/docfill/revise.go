// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docfill/internal/backend"
	"github.com/pdiddy/docfill/internal/fill"
)

var reviseCmd = &cobra.Command{
	Use:   "revise",
	Short: "Regenerate one section of a recorded run",
	Long: `Revise regenerates a section of a recorded run, optionally guided by
reviewer feedback, updates the ledger and rewrites the run's output document.
--section takes a sequence number from "docfill status <run-id>" or a section
title. With --pending every placeholder section of the run is regenerated.`,
	RunE: runRevise,
}

func runRevise(cmd *cobra.Command, args []string) error {
	section, _ := cmd.Flags().GetString("section")
	pendingOnly, _ := cmd.Flags().GetBool("pending")
	if section == "" && !pendingOnly {
		return errors.New("--section or --pending is required")
	}

	cfg, l, err := setup(cmd)
	if err != nil {
		return err
	}
	led, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer led.Close()

	b, err := backend.New(cfg.Backend, l)
	if err != nil {
		return err
	}

	runID, _ := cmd.Flags().GetString("run")
	feedback, _ := cmd.Flags().GetString("feedback")
	runner := fill.NewRunner(cfg, fill.RunnerOptions{Backend: b, Ledger: led, Logger: l, Progress: os.Stderr})
	ctx := context.Background()

	targets := []string{section}
	if pendingOnly {
		if runID == "" {
			latest, err := led.Latest(ctx)
			if err != nil {
				return err
			}
			runID = latest.ID
		}
		pending, err := led.Pending(ctx, runID)
		if err != nil {
			return err
		}
		targets = targets[:0]
		for _, s := range pending {
			targets = append(targets, strconv.Itoa(s.Seq))
		}
	}

	failed := 0
	for _, target := range targets {
		s, err := runner.Revise(ctx, fill.ReviseRequest{RunID: runID, Section: target, Feedback: feedback})
		if err != nil {
			if !pendingOnly {
				return err
			}
			l.Warn("section not revised", "section", target, "err", err)
			failed++
			continue
		}
		fmt.Fprintf(os.Stdout, "Revised %q\n", s.Title)
	}
	if failed > 0 {
		return fmt.Errorf("%d section(s) could not be revised", failed)
	}
	return nil
}

func init() {
	reviseCmd.Flags().String("run", "", "run ID (default: latest run)")
	reviseCmd.Flags().String("section", "", "section sequence number or title")
	reviseCmd.Flags().String("feedback", "", "reviewer feedback for the new text")
	reviseCmd.Flags().Bool("pending", false, "regenerate every placeholder section")
	reviseCmd.Flags().String("model", "", "model identifier")
	reviseCmd.Flags().String("backend", "", "backend kind: ollama or langchain")
	reviseCmd.Flags().String("provider", "", "langchain provider: ollama, openai, anthropic")
	reviseCmd.Flags().String("reference", "", "primary reference file")
	reviseCmd.Flags().String("reference-dir", "", "folder of auxiliary reference files")

	rootCmd.AddCommand(reviseCmd)
}
