package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultPollingInterval is used when the configured interval is missing or
// not positive.
const DefaultPollingInterval = 60 * time.Second

// DefaultModel is the completion model used when none is configured.
const DefaultModel = "claude-3-5-sonnet-latest"

// Config represents the application configuration. It doubles as the
// credential store: tokens live in the TOML file or in FIGSYNC_* environment
// variables, never anywhere the engine manages itself.
type Config struct {
	General struct {
		Trigger  string `koanf:"trigger"`
		Interval int    `koanf:"interval"`
		Model    string `koanf:"model"`
		Prompt   string `koanf:"prompt"`
	} `koanf:"general"`

	Figma struct {
		Token     string   `koanf:"token"`
		Documents []string `koanf:"documents"`
	} `koanf:"figma"`

	Anthropic struct {
		Key string `koanf:"key"`
	} `koanf:"anthropic"`

	Ledger struct {
		Path      string `koanf:"path"`
		Retention int    `koanf:"retention"`
	} `koanf:"ledger"`
}

// LoadConfig loads the configuration from a file, falling back to default
// locations, then applies FIGSYNC_* environment overrides.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"general.trigger":  "@ai",
		"general.interval": 60,
		"general.model":    DefaultModel,
		"ledger.path":      "figsync.db",
		"ledger.retention": 500,
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./figsync.toml", "$HOME/.figsync.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix FIGSYNC_
	k.Load(env.Provider("FIGSYNC_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "FIGSYNC_")), "_", ".", -1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# figsync configuration

[general]
# Comments containing this phrase (case-insensitive) get an AI reply.
trigger = "@ai"
# Seconds between polling cycles.
interval = 60
model = "claude-3-5-sonnet-latest"
# prompt = "Optional system prompt override"

[figma]
# Personal access token, or set FIGSYNC_FIGMA_TOKEN.
token = ""
# File keys to watch, from figma.com/file/<key>/...
documents = []

[anthropic]
# API key, or set FIGSYNC_ANTHROPIC_KEY.
key = ""

[ledger]
path = "figsync.db"
retention = 500
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if strings.TrimSpace(config.General.Trigger) == "" {
		return fmt.Errorf("trigger phrase is required")
	}

	for _, doc := range config.Figma.Documents {
		if strings.TrimSpace(doc) == "" {
			return fmt.Errorf("figma document keys must not be empty")
		}
	}

	if config.Ledger.Retention < 0 {
		return fmt.Errorf("ledger retention must not be negative")
	}

	return nil
}

// Trigger returns the configured trigger phrase.
func (c *Config) Trigger() string {
	return c.General.Trigger
}

// PollingInterval returns the polling cadence, falling back to the default
// when the configured value is missing or not positive.
func (c *Config) PollingInterval() time.Duration {
	if c.General.Interval <= 0 {
		return DefaultPollingInterval
	}
	return time.Duration(c.General.Interval) * time.Second
}

// Documents returns the monitored file keys in configuration order.
func (c *Config) Documents() []string {
	return c.Figma.Documents
}

// Model returns the completion model name.
func (c *Config) Model() string {
	if c.General.Model == "" {
		return DefaultModel
	}
	return c.General.Model
}

// SystemPrompt returns the optional system prompt override; empty means the
// built-in prompt is used.
func (c *Config) SystemPrompt() string {
	return c.General.Prompt
}

// FigmaToken returns the Figma personal access token.
func (c *Config) FigmaToken() string {
	return c.Figma.Token
}

// AnthropicKey returns the Anthropic API key.
func (c *Config) AnthropicKey() string {
	return c.Anthropic.Key
}

// HasCredentials reports whether both service credentials are present.
func (c *Config) HasCredentials() bool {
	return c.FigmaToken() != "" && c.AnthropicKey() != ""
}
