// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// BackendKind selects the generation backend implementation.
type BackendKind string

const (
	// BackendOllama posts {model, prompt} straight to an Ollama-style endpoint.
	BackendOllama BackendKind = "ollama"

	// BackendLangchain goes through a langchaingo provider client.
	BackendLangchain BackendKind = "langchain"
)

// BackendConfig holds the generation service settings. It is read once at
// construction; backends keep their own copy.
type BackendConfig struct {
	// Kind is ollama or langchain.
	Kind BackendKind `json:"kind" yaml:"kind" mapstructure:"kind" validate:"required,oneof=ollama langchain"`

	// Provider picks the langchaingo client: ollama, openai or anthropic.
	// Ignored for the ollama kind.
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty" mapstructure:"provider" validate:"omitempty,oneof=ollama openai anthropic"`

	// Model is the model identifier (e.g. "llama3.2").
	Model string `json:"model" yaml:"model" mapstructure:"model" validate:"required"`

	// Endpoint is the service URL. Empty selects the provider default.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint" validate:"omitempty,url"`

	// APIKey is the optional authentication key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Timeout bounds a single generation call (default 2m).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// MaxRetries is the number of retries on transient failures (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0,lte=10"`
}

// ReferenceConfig locates the background material for section lookups.
type ReferenceConfig struct {
	// Primary is the main reference file. Optional.
	Primary string `json:"primary,omitempty" yaml:"primary,omitempty" mapstructure:"primary"`

	// AuxiliaryDir holds supplementary reference files. Optional.
	AuxiliaryDir string `json:"auxiliary_dir,omitempty" yaml:"auxiliary_dir,omitempty" mapstructure:"auxiliary_dir"`

	// Pattern selects files inside AuxiliaryDir (default "*.txt").
	Pattern string `json:"pattern" yaml:"pattern" mapstructure:"pattern"`
}

// OutputFormat selects the output document format.
type OutputFormat string

const (
	OutputMarkdown OutputFormat = "markdown"
	OutputLaTeX    OutputFormat = "latex"
	OutputDocx     OutputFormat = "docx"
)

// Extension returns the file extension for the format, including the dot.
func (f OutputFormat) Extension() string {
	switch f {
	case OutputLaTeX:
		return ".tex"
	case OutputDocx:
		return ".docx"
	default:
		return ".md"
	}
}

// OutputConfig controls where and how the filled document is written.
type OutputConfig struct {
	// Path is the output file. Empty derives <Dir>/<source-slug><ext>.
	Path string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`

	// Dir is the directory used when Path is empty (default "output").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Format is markdown, latex or docx.
	Format OutputFormat `json:"format" yaml:"format" mapstructure:"format" validate:"required,oneof=markdown latex docx"`
}

// GenerationConfig holds the prompt and traversal settings.
type GenerationConfig struct {
	// PromptTemplate overrides the built-in prompt template.
	PromptTemplate string `json:"prompt_template,omitempty" yaml:"prompt_template,omitempty" mapstructure:"prompt_template"`

	// PromptFile reads the prompt template from a file.
	PromptFile string `json:"prompt_file,omitempty" yaml:"prompt_file,omitempty" mapstructure:"prompt_file"`

	// Sentinel replaces the built-in no-content placeholder.
	Sentinel string `json:"sentinel,omitempty" yaml:"sentinel,omitempty" mapstructure:"sentinel"`

	// Workers is the number of concurrent generation calls (default 1).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers" validate:"gte=1,lte=32"`
}

// LedgerConfig controls the SQLite run ledger.
type LedgerConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Dir     string `json:"dir" yaml:"dir" mapstructure:"dir" validate:"required_if=Enabled true"`
}

// LogConfig selects log level and format (text, json or auto).
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"omitempty,oneof=text json auto"`
}

// PipelineConfig groups every setting of one docfill run.
type PipelineConfig struct {
	Backend    BackendConfig    `json:"backend" yaml:"backend" mapstructure:"backend"`
	References ReferenceConfig  `json:"references" yaml:"references" mapstructure:"references"`
	Output     OutputConfig     `json:"output" yaml:"output" mapstructure:"output"`
	Generation GenerationConfig `json:"generation" yaml:"generation" mapstructure:"generation"`
	Ledger     LedgerConfig     `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultPipelineConfig returns the settings used when nothing is configured.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Backend: BackendConfig{
			Kind:       BackendOllama,
			Provider:   "ollama",
			Model:      "llama3.2",
			Timeout:    2 * time.Minute,
			MaxRetries: 2,
		},
		References: ReferenceConfig{Pattern: "*.txt"},
		Output:     OutputConfig{Dir: "output", Format: OutputMarkdown},
		Generation: GenerationConfig{Workers: 1},
		Ledger:     LedgerConfig{Enabled: true, Dir: ".docfill"},
		Log:        LogConfig{Level: "info", Format: "auto"},
	}
}

var validate = validator.New()

// Validate checks field constraints on the whole configuration.
func (c PipelineConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
