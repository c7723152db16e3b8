// Package config holds the persisted settings for the faf toolchain:
// token budgets, compression, priority overrides, and the embedding
// provider endpoint. Configuration is stored as YAML under ~/.faf.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Wolfe-Jam/faf-go/pkg/fafb"
)

// Preset names for the built-in token budgets.
const (
	PresetMinimal  = "minimal"
	PresetStandard = "standard"
	PresetFull     = "full"
)

// Embedding configures the provider used to build embedding layers.
type Embedding struct {
	BaseURL    string `yaml:"base_url,omitempty"`
	Model      string `yaml:"model,omitempty"`
	Dimensions int    `yaml:"dimensions,omitempty"`
}

// Config is the on-disk configuration.
type Config struct {
	// Budget is an explicit token budget for partial loads. Zero means
	// the preset decides.
	Budget int `yaml:"budget,omitempty"`
	// Preset selects a built-in budget: minimal, standard or full.
	Preset string `yaml:"preset,omitempty"`
	// TokenModel selects the tokenizer used for exact token counts.
	TokenModel string `yaml:"token_model,omitempty"`
	// Compress enables compression of large compiled sections.
	Compress bool `yaml:"compress,omitempty"`
	// CompressionLevel is the zstd level. Zero uses the default.
	CompressionLevel int `yaml:"compression_level,omitempty"`
	// Priorities overrides section priorities by canonical name.
	Priorities map[string]uint8 `yaml:"priorities,omitempty"`
	// Embedding configures the embedding provider.
	Embedding Embedding `yaml:"embedding,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Preset:   PresetStandard,
		Compress: true,
	}
}

// DefaultPath returns the default configuration location, ~/.faf/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, ".faf", "config.yaml"), nil
}

// Load reads the configuration at path. A missing file yields the
// defaults rather than an error.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks field ranges and section name references.
func (c *Config) Validate() error {
	switch c.Preset {
	case "", PresetMinimal, PresetStandard, PresetFull:
	default:
		return fmt.Errorf("config: unknown preset %q", c.Preset)
	}
	if c.Budget < 0 {
		return fmt.Errorf("config: negative budget %d", c.Budget)
	}
	if c.CompressionLevel < 0 {
		return fmt.Errorf("config: negative compression level %d", c.CompressionLevel)
	}
	for name := range c.Priorities {
		if _, ok := fafb.SectionTypeByName(name); !ok {
			return fmt.Errorf("config: unknown section %q in priorities", name)
		}
	}
	if d := c.Embedding.Dimensions; d < 0 || d > fafb.MaxEmbeddingDim {
		return fmt.Errorf("config: embedding dimensions %d outside 0-%d", d, fafb.MaxEmbeddingDim)
	}
	return nil
}

// BudgetTokens resolves the effective token budget. An explicit budget
// wins over the preset.
func (c *Config) BudgetTokens() int {
	if c.Budget > 0 {
		return c.Budget
	}
	switch c.Preset {
	case PresetMinimal:
		return fafb.BudgetMinimal
	case PresetFull:
		return fafb.BudgetFull
	default:
		return fafb.BudgetStandard
	}
}

// Policy converts the priority overrides to a section policy. Sections
// not named keep their built-in tiers.
func (c *Config) Policy() (fafb.Policy, error) {
	p := make(fafb.Policy, len(c.Priorities))
	for name, prio := range c.Priorities {
		t, ok := fafb.SectionTypeByName(name)
		if !ok {
			return nil, fmt.Errorf("config: unknown section %q in priorities", name)
		}
		p[t] = fafb.Priority(prio)
	}
	return p, nil
}

// CompileOptions translates the configuration into compiler options.
func (c *Config) CompileOptions() ([]fafb.CompileOption, error) {
	var opts []fafb.CompileOption
	if len(c.Priorities) > 0 {
		p, err := c.Policy()
		if err != nil {
			return nil, err
		}
		opts = append(opts, fafb.WithPolicy(p))
	}
	if c.Compress {
		if c.CompressionLevel > 0 {
			opts = append(opts, fafb.WithCompressionLevel(c.CompressionLevel))
		} else {
			opts = append(opts, fafb.WithCompression())
		}
	}
	return opts, nil
}

// Save writes the configuration atomically, creating the directory if
// needed.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("config: create config directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("config: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("config: rename %s: %w", path, err)
	}
	return nil
}
