// ABOUTME: Configuration loading and parsing for coven-swarm
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config represents the complete coven-swarm configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Inference InferenceConfig `yaml:"inference" toml:"inference"`
	Engine    EngineConfig    `yaml:"engine" toml:"engine"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Chat      ChatConfig      `yaml:"chat" toml:"chat"`
	Matrix    MatrixConfig    `yaml:"matrix" toml:"matrix"`
	Discord   DiscordConfig   `yaml:"discord" toml:"discord"`
	Agents    []AgentConfig   `yaml:"agents" toml:"agents"`
	Swarm     SwarmConfig     `yaml:"swarm" toml:"swarm"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// InferenceConfig selects and tunes the model backend
type InferenceConfig struct {
	Provider          string `yaml:"provider" toml:"provider"` // ollama, openai
	BaseURL           string `yaml:"base_url" toml:"base_url"`
	Model             string `yaml:"model" toml:"model"`
	APIKey            string `yaml:"api_key" toml:"api_key"`
	ContextWindow     int    `yaml:"context_window" toml:"context_window"`
	MaxAttempts       int    `yaml:"max_attempts" toml:"max_attempts"`
	RequestsPerMinute int    `yaml:"requests_per_minute" toml:"requests_per_minute"`

	Timeout    time.Duration `yaml:"-" toml:"-"`
	RetryDelay time.Duration `yaml:"-" toml:"-"`

	// Raw string values for unmarshaling
	TimeoutRaw    string `yaml:"timeout" toml:"timeout"`
	RetryDelayRaw string `yaml:"retry_delay" toml:"retry_delay"`
}

// EngineConfig holds pass engine limits
type EngineConfig struct {
	// MaxBackground caps concurrent long-running calls per pass; 0 is unlimited.
	MaxBackground int `yaml:"max_background" toml:"max_background"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// ChatConfig configures the local chat app
type ChatConfig struct {
	ChannelID  string        `yaml:"channel_id" toml:"channel_id"`
	EchoWindow time.Duration `yaml:"-" toml:"-"`

	EchoWindowRaw string `yaml:"echo_window" toml:"echo_window"`
}

// MatrixConfig holds Matrix bridge configuration
type MatrixConfig struct {
	Enabled     bool   `yaml:"enabled" toml:"enabled"`
	Homeserver  string `yaml:"homeserver" toml:"homeserver"`
	UserID      string `yaml:"user_id" toml:"user_id"`
	AccessToken string `yaml:"access_token" toml:"access_token"`
	RoomID      string `yaml:"room_id" toml:"room_id"`
	DeviceID    string `yaml:"device_id" toml:"device_id"`

	// Encryption enables E2EE. RecoveryKey, if set, verifies the device for
	// cross-signing. CryptoDir defaults to the database directory.
	Encryption  bool   `yaml:"encryption" toml:"encryption"`
	RecoveryKey string `yaml:"recovery_key" toml:"recovery_key"`
	CryptoDir   string `yaml:"crypto_dir" toml:"crypto_dir"`
}

// DiscordConfig holds Discord bridge configuration
type DiscordConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Token     string `yaml:"token" toml:"token"`
	ChannelID string `yaml:"channel_id" toml:"channel_id"`
}

// AgentConfig describes one agent in the swarm
type AgentConfig struct {
	Name               string        `yaml:"name" toml:"name"`
	BaseInstructions   string        `yaml:"base_instructions" toml:"base_instructions"`
	InitialInstruction string        `yaml:"initial_instruction" toml:"initial_instruction"`
	Apps               []string      `yaml:"apps" toml:"apps"`
	Load               []string      `yaml:"load" toml:"load"`
	Persona            PersonaConfig `yaml:"persona" toml:"persona"`
	PreInference       []CallConfig  `yaml:"pre_inference" toml:"pre_inference"`
	PostInference      []CallConfig  `yaml:"post_inference" toml:"post_inference"`
}

// PersonaConfig seeds an agent's persona on first start. ID assigns a
// persona that is already stored and wins over Name and Description.
type PersonaConfig struct {
	ID          string `yaml:"id" toml:"id"`
	Name        string `yaml:"name" toml:"name"`
	Description string `yaml:"description" toml:"description"`
}

// CallConfig is a configured pre- or post-inference tool call
type CallConfig struct {
	ToolsetID string         `yaml:"toolset_id" toml:"toolset_id"`
	Name      string         `yaml:"name" toml:"name"`
	Arguments map[string]any `yaml:"arguments" toml:"arguments"`
}

// SwarmConfig controls the orchestrator loop
type SwarmConfig struct {
	// Passes is the number of rounds to run; 0 runs until cancelled.
	Passes    int           `yaml:"passes" toml:"passes"`
	PassDelay time.Duration `yaml:"-" toml:"-"`

	PassDelayRaw string `yaml:"pass_delay" toml:"pass_delay"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Files ending in .toml are decoded as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expandedData, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// DefaultPath returns the config location: $COVEN_SWARM_CONFIG, else
// $XDG_CONFIG_HOME/coven/swarm.yaml, else ~/.config/coven/swarm.yaml.
func DefaultPath() string {
	if p := os.Getenv("COVEN_SWARM_CONFIG"); p != "" {
		return p
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "coven", "swarm.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "swarm.yaml"
	}
	return filepath.Join(home, ".config", "coven", "swarm.yaml")
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Inference.Provider == "" {
		c.Inference.Provider = "ollama"
	}
	if c.Inference.Timeout == 0 {
		c.Inference.Timeout = 2 * time.Minute
	}
	if c.Inference.MaxAttempts == 0 {
		c.Inference.MaxAttempts = 3
	}
	if c.Inference.RetryDelay == 0 {
		c.Inference.RetryDelay = time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Chat.ChannelID == "" {
		c.Chat.ChannelID = "1"
	}
	if c.Chat.EchoWindow == 0 {
		c.Chat.EchoWindow = time.Minute
	}
	if c.Matrix.CryptoDir == "" && c.Database.Path != "" && c.Database.Path != ":memory:" {
		c.Matrix.CryptoDir = filepath.Dir(c.Database.Path)
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Inference.Provider {
	case "ollama":
	case "openai":
		if c.Inference.APIKey == "" {
			return fmt.Errorf("inference.api_key is required for provider openai")
		}
	default:
		return fmt.Errorf("inference.provider %q is not one of ollama, openai", c.Inference.Provider)
	}
	if c.Inference.Model == "" {
		return fmt.Errorf("inference.model is required")
	}
	if c.Inference.MaxAttempts < 0 {
		return fmt.Errorf("inference.max_attempts must not be negative")
	}
	if c.Inference.RequestsPerMinute < 0 {
		return fmt.Errorf("inference.requests_per_minute must not be negative")
	}
	if c.Engine.MaxBackground < 0 {
		return fmt.Errorf("engine.max_background must not be negative")
	}
	if c.Swarm.Passes < 0 {
		return fmt.Errorf("swarm.passes must not be negative")
	}

	if c.Matrix.Enabled {
		if c.Matrix.Homeserver == "" || c.Matrix.UserID == "" || c.Matrix.AccessToken == "" {
			return fmt.Errorf("matrix.homeserver, matrix.user_id and matrix.access_token are required when matrix is enabled")
		}
		if c.Matrix.RoomID == "" {
			return fmt.Errorf("matrix.room_id is required when matrix is enabled")
		}
		if c.Matrix.Encryption && c.Matrix.CryptoDir == "" {
			return fmt.Errorf("matrix.crypto_dir is required when matrix encryption is enabled")
		}
	}
	if c.Discord.Enabled {
		if c.Discord.Token == "" {
			return fmt.Errorf("discord.token is required when discord is enabled")
		}
		if c.Discord.ChannelID == "" {
			return fmt.Errorf("discord.channel_id is required when discord is enabled")
		}
	}

	if len(c.Agents) == 0 {
		return fmt.Errorf("at least one agent is required")
	}
	seen := make(map[string]bool, len(c.Agents))
	for i, a := range c.Agents {
		if a.Name == "" {
			return fmt.Errorf("agents[%d].name is required", i)
		}
		if seen[a.Name] {
			return fmt.Errorf("agents[%d].name %q is duplicated", i, a.Name)
		}
		seen[a.Name] = true
		if a.BaseInstructions == "" {
			return fmt.Errorf("agents[%d].base_instructions is required", i)
		}
		for _, calls := range [][]CallConfig{a.PreInference, a.PostInference} {
			for j, call := range calls {
				if call.ToolsetID == "" || call.Name == "" {
					return fmt.Errorf("agents[%d] call %d needs toolset_id and name", i, j)
				}
			}
		}
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"inference.timeout", cfg.Inference.TimeoutRaw, &cfg.Inference.Timeout},
		{"inference.retry_delay", cfg.Inference.RetryDelayRaw, &cfg.Inference.RetryDelay},
		{"chat.echo_window", cfg.Chat.EchoWindowRaw, &cfg.Chat.EchoWindow},
		{"swarm.pass_delay", cfg.Swarm.PassDelayRaw, &cfg.Swarm.PassDelay},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}
