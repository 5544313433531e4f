// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docfill/internal/ledger"
	"github.com/pdiddy/docfill/internal/logger"
	"github.com/pdiddy/docfill/pkg/types"
)

// setDefaults registers every configuration key so environment variables
// (DOCFILL_BACKEND_MODEL, ...) resolve even without a config file.
func setDefaults(v *viper.Viper) {
	d := types.DefaultPipelineConfig()

	v.SetDefault("backend.kind", string(d.Backend.Kind))
	v.SetDefault("backend.provider", d.Backend.Provider)
	v.SetDefault("backend.model", d.Backend.Model)
	v.SetDefault("backend.endpoint", d.Backend.Endpoint)
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.timeout", d.Backend.Timeout)
	v.SetDefault("backend.max_retries", d.Backend.MaxRetries)

	v.SetDefault("references.primary", "")
	v.SetDefault("references.auxiliary_dir", "")
	v.SetDefault("references.pattern", d.References.Pattern)

	v.SetDefault("output.path", "")
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.format", string(d.Output.Format))

	v.SetDefault("generation.prompt_template", "")
	v.SetDefault("generation.prompt_file", "")
	v.SetDefault("generation.sentinel", "")
	v.SetDefault("generation.workers", d.Generation.Workers)

	v.SetDefault("ledger.enabled", d.Ledger.Enabled)
	v.SetDefault("ledger.dir", d.Ledger.Dir)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// loadConfig resolves the pipeline configuration: defaults, then config
// file and environment (through v), then the command's flags, then the
// stored API key for the selected provider.
func loadConfig(v *viper.Viper, cmd *cobra.Command) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}

	applyFlags(cmd, &cfg)

	provider := cfg.Backend.Provider
	if cfg.Backend.Kind == types.BackendOllama {
		provider = "ollama"
	}
	cfg.Backend.APIKey = loadedSecrets.Default(cfg.Backend.APIKey, provider)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyFlags overrides cfg with every flag the user set explicitly.
// Commands only define the flags that make sense for them.
func applyFlags(cmd *cobra.Command, cfg *types.PipelineConfig) {
	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}

	var kind, format string
	str("backend", &kind)
	if kind != "" {
		cfg.Backend.Kind = types.BackendKind(kind)
	}
	str("provider", &cfg.Backend.Provider)
	str("model", &cfg.Backend.Model)
	str("endpoint", &cfg.Backend.Endpoint)
	str("api-key", &cfg.Backend.APIKey)
	if flags.Lookup("timeout") != nil && flags.Changed("timeout") {
		cfg.Backend.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Lookup("retries") != nil && flags.Changed("retries") {
		cfg.Backend.MaxRetries, _ = flags.GetInt("retries")
	}

	str("reference", &cfg.References.Primary)
	str("reference-dir", &cfg.References.AuxiliaryDir)
	str("pattern", &cfg.References.Pattern)

	str("output", &cfg.Output.Path)
	str("output-dir", &cfg.Output.Dir)
	str("format", &format)
	if format != "" {
		cfg.Output.Format = types.OutputFormat(format)
	}

	str("prompt-file", &cfg.Generation.PromptFile)
	str("sentinel", &cfg.Generation.Sentinel)
	if flags.Lookup("workers") != nil && flags.Changed("workers") {
		cfg.Generation.Workers, _ = flags.GetInt("workers")
	}
	if flags.Lookup("no-ledger") != nil && flags.Changed("no-ledger") {
		if off, _ := flags.GetBool("no-ledger"); off {
			cfg.Ledger.Enabled = false
		}
	}

	str("log-level", &cfg.Log.Level)
	str("log-format", &cfg.Log.Format)
}

// setup loads the configuration and builds the stderr logger.
func setup(cmd *cobra.Command) (types.PipelineConfig, *log.Logger, error) {
	cfg, err := loadConfig(viper.GetViper(), cmd)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger.New(cfg.Log, os.Stderr), nil
}

// openLedger opens the configured ledger directory.
func openLedger(cfg types.PipelineConfig) (*ledger.Ledger, error) {
	if !cfg.Ledger.Enabled {
		return nil, fmt.Errorf("the run ledger is disabled (ledger.enabled: false)")
	}
	return ledger.Open(cfg.Ledger.Dir)
}
