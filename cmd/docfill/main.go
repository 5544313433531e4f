// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docfill CLI. docfill reads the
// heading outline of a document, asks a language model backend to write
// every section, and saves the filled document.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docfill/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from the secrets directory at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the docfill CLI.
var rootCmd = &cobra.Command{
	Use:   "docfill",
	Short: "Fill a document outline with generated section text",
	Long: `docfill reads a source document (Markdown, Word .docx or a YAML outline),
extracts its heading hierarchy, and generates the body of every section with a
language model backend (a local Ollama server or a langchaingo provider).

Sections are grounded in reference material: lines of a primary reference file
and of an auxiliary folder that mention the section title are added to the
prompt. Sections that cannot be generated get a placeholder paragraph; use
"docfill status" to find them and "docfill revise" to regenerate them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(afero.NewOsFs(), dir, nil)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./docfill.yaml or ~/.config/docfill/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of API key files")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json, auto")
}

func initConfig() {
	// A missing .env file is normal.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docfill")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docfill"))
		}
	}

	setDefaults(viper.GetViper())
	viper.SetEnvPrefix("DOCFILL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
