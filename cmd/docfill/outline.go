// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docfill/internal/fill"
	"github.com/pdiddy/docfill/internal/outline"
)

var outlineCmd = &cobra.Command{
	Use:   "outline <source>",
	Short: "Print the heading outline of a document without generating",
	Long: `Outline extracts the heading tree of <source> and prints it with the
requested word count of every section. Use --yaml to print a YAML outline that
"docfill generate" accepts as a source.`,
	Args: cobra.ExactArgs(1),
	RunE: runOutline,
}

func runOutline(cmd *cobra.Command, args []string) error {
	cfg, l, err := setup(cmd)
	if err != nil {
		return err
	}

	runner := fill.NewRunner(cfg, fill.RunnerOptions{Fs: afero.NewReadOnlyFs(afero.NewOsFs()), Logger: l})
	root, err := runner.Outline(args[0])
	if err != nil {
		return err
	}

	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(map[string]any{"sections": root.Children})
	}

	fmt.Print(outline.Render(root))
	fmt.Printf("\n%d section(s)\n", outline.Count(root))
	return nil
}

func init() {
	outlineCmd.Flags().Bool("yaml", false, "print the outline as YAML")

	rootCmd.AddCommand(outlineCmd)
}
