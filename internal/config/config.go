// Package config loads daemon configuration. Missing file means defaults;
// invalid YAML is an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// OpenAIConfig configures the OpenAI-compatible classifier provider.
type OpenAIConfig struct {
	APIURL string `yaml:"api_url"`
	// APIKeyEnv names the environment variable holding the key; the key
	// itself never lives in the config file.
	APIKeyEnv      string `yaml:"api_key_env"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// BedrockConfig configures the Bedrock classifier provider.
type BedrockConfig struct {
	Region  string `yaml:"region"`
	ModelID string `yaml:"model_id"`
}

// StabilityConfig tunes the streaming-completion detection.
type StabilityConfig struct {
	IntervalMS int `yaml:"interval_ms"`
	Samples    int `yaml:"samples"`
	SettleMS   int `yaml:"settle_ms"`
}

// Config holds all daemon parameters.
type Config struct {
	DataDir  string `yaml:"data_dir"`
	Provider string `yaml:"provider"` // "openai" or "bedrock"

	OpenAI  OpenAIConfig  `yaml:"openai"`
	Bedrock BedrockConfig `yaml:"bedrock"`

	AugmentTimeoutSeconds int             `yaml:"augment_timeout_seconds"`
	Stability             StabilityConfig `yaml:"stability"`

	BridgeAddr string `yaml:"bridge_addr"`

	// Site selects the host-page selector set; SitesPath points at optional
	// selector overrides.
	Site      string `yaml:"site"`
	SitesPath string `yaml:"sites_path"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	dataDir := ".janus"
	if err == nil {
		dataDir = filepath.Join(home, ".janus")
	}
	return &Config{
		DataDir:  dataDir,
		Provider: "openai",
		OpenAI: OpenAIConfig{
			APIURL:         "http://localhost:11434/v1/chat/completions",
			APIKeyEnv:      "JANUS_API_KEY",
			Model:          "llama3.1:8b",
			TimeoutSeconds: 60,
		},
		Bedrock: BedrockConfig{
			Region:  "us-east-1",
			ModelID: "anthropic.claude-3-haiku-20240307-v1:0",
		},
		AugmentTimeoutSeconds: 10,
		Stability: StabilityConfig{
			IntervalMS: 500,
			Samples:    3,
			SettleMS:   300,
		},
		BridgeAddr: "127.0.0.1:8713",
		Site:       "chatgpt",
	}
}

// Load reads configuration from a YAML file. Empty path falls back to
// <data dir>/config.yaml. Missing file returns defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = filepath.Join(cfg.DataDir, "config.yaml")
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	if cfg.Provider != "openai" && cfg.Provider != "bedrock" {
		return nil, fmt.Errorf("config: unknown provider %q", cfg.Provider)
	}
	return cfg, nil
}

// Timeout returns the request timeout as a duration.
func (c OpenAIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// APIKey resolves the OpenAI provider key from the environment.
func (c *Config) APIKey() string {
	if c.OpenAI.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.OpenAI.APIKeyEnv)
}

// AugmentTimeout returns the augmentor timeout as a duration.
func (c *Config) AugmentTimeout() time.Duration {
	return time.Duration(c.AugmentTimeoutSeconds) * time.Second
}

// StabilityInterval returns the sampling interval as a duration.
func (c *Config) StabilityInterval() time.Duration {
	return time.Duration(c.Stability.IntervalMS) * time.Millisecond
}

// StabilitySettle returns the settle delay as a duration.
func (c *Config) StabilitySettle() time.Duration {
	return time.Duration(c.Stability.SettleMS) * time.Millisecond
}
