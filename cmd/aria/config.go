// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"os"
	"path/filepath"

	"github.com/zydee3/aria/internal/errors"
	"gopkg.in/yaml.v3"
)

// Config is the project-level configuration persisted at
// .aria/config.yaml. It is created by "aria init" and read by every
// other subcommand that needs to know how to talk to an LLM or
// embedding service.
type Config struct {
	// Debug sets the log level to debug for the index and embed
	// subcommands; the other subcommands log at warn level regardless.
	Debug bool `yaml:"debug"`

	// LLM configures the summary-generation provider.
	LLM LLMConfig `yaml:"llm"`

	// Features toggles optional pipeline stages.
	Features FeaturesConfig `yaml:"features"`

	// Embeddings configures the embedding-generation stage.
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
}

// LLMConfig configures the provider used to generate function and type
// summaries.
type LLMConfig struct {
	// Provider selects the summary backend: "openai", "anthropic", or
	// "none" to disable summary generation outright.
	Provider string `yaml:"provider"`

	// APIKey authenticates against Provider. May also be supplied via
	// the ARIA_LLM_API_KEY environment variable, which takes
	// precedence over a value stored on disk.
	APIKey string `yaml:"api_key,omitempty"`

	// Model is the provider-specific model identifier.
	Model string `yaml:"model"`

	// BatchSize is the number of functions summarized per request.
	BatchSize int `yaml:"batch_size"`

	// Parallel is the number of concurrent summary requests in flight.
	Parallel int `yaml:"parallel"`
}

// FeaturesConfig toggles optional pipeline stages. Both default to
// disabled (false); a project turns a stage on by setting it to true
// together with the matching Provider/ServiceURL.
type FeaturesConfig struct {
	// Summaries enables LLM-backed summary generation.
	Summaries bool `yaml:"summaries"`

	// Embeddings enables embedding generation and semantic search.
	Embeddings bool `yaml:"embeddings"`
}

// EmbeddingsConfig configures the embedding-generation stage.
type EmbeddingsConfig struct {
	// ServiceURL is the base URL of an HTTP embedding service. May also
	// be supplied via ARIA_EMBEDDINGS_SERVICE_URL.
	ServiceURL string `yaml:"service_url"`

	// Model is the service-specific embedding model identifier.
	Model string `yaml:"model"`

	// BatchSize is the number of functions embedded per request.
	BatchSize int `yaml:"batch_size"`
}

const configFileName = "config.yaml"

// DefaultConfig returns the configuration written by "aria init" when
// the user accepts every default.
func DefaultConfig() *Config {
	return &Config{
		Debug: false,
		LLM: LLMConfig{
			Provider:  "none",
			Model:     "gpt-4o-mini",
			BatchSize: 20,
			Parallel:  4,
		},
		Features: FeaturesConfig{
			Summaries:  false,
			Embeddings: false,
		},
		Embeddings: EmbeddingsConfig{
			ServiceURL: "http://localhost:8081",
			Model:      "text-embedding-3-small",
			BatchSize:  32,
		},
	}
}

// ConfigDir returns the state directory for a project rooted at dir.
func ConfigDir(dir string) string {
	return filepath.Join(dir, ".aria")
}

// ConfigPath returns the path to the config document for a project
// rooted at dir.
func ConfigPath(dir string) string {
	return filepath.Join(ConfigDir(dir), configFileName)
}

// LoadConfig reads and parses the config document at configPath,
// applying environment-variable overrides on top of the stored values.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewConfigError(
				"Cannot find aria configuration",
				"no config.yaml exists at "+configPath,
				"run 'aria init' in this repository first",
				err,
			)
		}
		return nil, errors.NewConfigError(
			"Cannot read aria configuration",
			err.Error(),
			"check file permissions on "+configPath,
			err,
		)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError(
			"Cannot parse aria configuration",
			err.Error(),
			"fix the YAML syntax in "+configPath+" or re-run 'aria init'",
			err,
		)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// SaveConfig marshals cfg as YAML and writes it to configPath, creating
// the parent directory if necessary.
func SaveConfig(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return errors.NewConfigError(
			"Cannot create aria state directory",
			err.Error(),
			"check permissions on "+filepath.Dir(configPath),
			err,
		)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewInternalError(
			"Cannot serialize aria configuration",
			err.Error(),
			"this is a bug, please report it",
			err,
		)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.NewConfigError(
			"Cannot write aria configuration",
			err.Error(),
			"check file permissions on "+configPath,
			err,
		)
	}
	return nil
}

// configDir derives a project's root directory from the path to its
// config document (.../.aria/config.yaml), i.e. the grandparent of
// configPath.
func configDir(configPath string) string {
	return filepath.Dir(filepath.Dir(configPath))
}

// embeddingPaths returns the three sibling paths the embedding store is
// persisted across: the index file, the binary vector file, and the
// sidecar dimension file LoadEmbeddingStore needs to validate the binary
// file's size.
func embeddingPaths(rootDir string) (idxPath, binPath, dimPath string) {
	dir := ConfigDir(rootDir)
	return filepath.Join(dir, "embeddings.idx"), filepath.Join(dir, "embeddings.bin"), filepath.Join(dir, "embeddings.dim")
}

// findConfigFile walks up from the current working directory looking
// for a .aria/config.yaml, the same way git locates .git.
func findConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", errors.NewInternalError(
			"Cannot determine current directory",
			err.Error(),
			"this is a bug, please report it",
			err,
		)
	}

	for {
		candidate := ConfigPath(dir)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.NewConfigError(
				"No aria project found",
				"no .aria/config.yaml in this directory or any parent",
				"run 'aria init' to create one",
				nil,
			)
		}
		dir = parent
	}
}

// applyEnvOverrides layers environment variables over values loaded
// from disk. Environment variables take precedence since they are
// typically set for a single invocation (CI, a one-off script) and
// should not require editing the checked-in config.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ARIA_LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("ARIA_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("ARIA_EMBEDDINGS_SERVICE_URL"); v != "" {
		c.Embeddings.ServiceURL = v
	}
	if os.Getenv("ARIA_DEBUG") != "" {
		c.Debug = true
	}
}
