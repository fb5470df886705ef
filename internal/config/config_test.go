// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults, and validation

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	configContent := `
database:
  path: "./test.db"

inference:
  provider: "ollama"
  model: "llama3.2"
  timeout: "30s"
  retry_delay: "250ms"
  max_attempts: 5
  requests_per_minute: 20

engine:
  max_background: 2

logging:
  level: "debug"
  format: "json"

chat:
  channel_id: "lobby"
  echo_window: "90s"

swarm:
  passes: 3
  pass_delay: "2s"

agents:
  - name: "alice"
    base_instructions: "be nice"
    initial_instruction: "say hi"
    apps: ["chat", "memory_manager"]
    load: ["chat"]
    persona:
      name: "Alice"
      description: "curious"
    pre_inference:
      - toolset_id: "chat"
        name: "read_chat"
        arguments:
          limit: 5
    post_inference:
      - toolset_id: "memory_manager"
        name: "extract_memories"
`
	cfg, err := Load(writeConfig(t, "config.yaml", configContent))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Inference.Timeout != 30*time.Second {
		t.Errorf("Inference.Timeout = %v, want 30s", cfg.Inference.Timeout)
	}
	if cfg.Inference.RetryDelay != 250*time.Millisecond {
		t.Errorf("Inference.RetryDelay = %v, want 250ms", cfg.Inference.RetryDelay)
	}
	if cfg.Inference.MaxAttempts != 5 {
		t.Errorf("Inference.MaxAttempts = %d, want 5", cfg.Inference.MaxAttempts)
	}
	if cfg.Inference.RequestsPerMinute != 20 {
		t.Errorf("Inference.RequestsPerMinute = %d, want 20", cfg.Inference.RequestsPerMinute)
	}
	if cfg.Engine.MaxBackground != 2 {
		t.Errorf("Engine.MaxBackground = %d, want 2", cfg.Engine.MaxBackground)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want debug/json", cfg.Logging)
	}
	if cfg.Chat.ChannelID != "lobby" || cfg.Chat.EchoWindow != 90*time.Second {
		t.Errorf("Chat = %+v, want lobby/90s", cfg.Chat)
	}
	if cfg.Swarm.Passes != 3 || cfg.Swarm.PassDelay != 2*time.Second {
		t.Errorf("Swarm = %+v, want 3/2s", cfg.Swarm)
	}

	if len(cfg.Agents) != 1 {
		t.Fatalf("len(Agents) = %d, want 1", len(cfg.Agents))
	}
	a := cfg.Agents[0]
	if a.Name != "alice" || a.InitialInstruction != "say hi" {
		t.Errorf("Agent = %+v", a)
	}
	if len(a.Apps) != 2 || a.Load[0] != "chat" {
		t.Errorf("Apps = %v, Load = %v", a.Apps, a.Load)
	}
	if a.Persona.Name != "Alice" {
		t.Errorf("Persona.Name = %q, want Alice", a.Persona.Name)
	}
	if len(a.PreInference) != 1 || a.PreInference[0].Name != "read_chat" {
		t.Fatalf("PreInference = %+v", a.PreInference)
	}
	if got := a.PreInference[0].Arguments["limit"]; got != 5 {
		t.Errorf("PreInference[0].Arguments[limit] = %v, want 5", got)
	}
	if len(a.PostInference) != 1 || a.PostInference[0].ToolsetID != "memory_manager" {
		t.Errorf("PostInference = %+v", a.PostInference)
	}
}

func TestLoad_TOML(t *testing.T) {
	configContent := `
[database]
path = "./swarm.db"

[inference]
provider = "openai"
model = "gpt-4o-mini"
api_key = "sk-test"
timeout = "45s"

[swarm]
passes = 1

[[agents]]
name = "bob"
base_instructions = "be terse"
apps = ["chat"]

[[agents.pre_inference]]
toolset_id = "chat"
name = "read_chat"
arguments = { limit = 3 }
`
	cfg, err := Load(writeConfig(t, "swarm.toml", configContent))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Inference.Provider != "openai" || cfg.Inference.APIKey != "sk-test" {
		t.Errorf("Inference = %+v", cfg.Inference)
	}
	if cfg.Inference.Timeout != 45*time.Second {
		t.Errorf("Inference.Timeout = %v, want 45s", cfg.Inference.Timeout)
	}
	if len(cfg.Agents) != 1 || cfg.Agents[0].Name != "bob" {
		t.Fatalf("Agents = %+v", cfg.Agents)
	}
	pre := cfg.Agents[0].PreInference
	if len(pre) != 1 || pre[0].Name != "read_chat" {
		t.Fatalf("PreInference = %+v", pre)
	}
	if got := pre[0].Arguments["limit"]; got != int64(3) {
		t.Errorf("Arguments[limit] = %v (%T), want 3", got, got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	configContent := `
database:
  path: "./test.db"
inference:
  model: "llama3.2"
agents:
  - name: "a"
    base_instructions: "x"
`
	cfg, err := Load(writeConfig(t, "config.yaml", configContent))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Inference.Provider != "ollama" {
		t.Errorf("Inference.Provider = %q, want ollama", cfg.Inference.Provider)
	}
	if cfg.Inference.Timeout != 2*time.Minute {
		t.Errorf("Inference.Timeout = %v, want 2m", cfg.Inference.Timeout)
	}
	if cfg.Inference.MaxAttempts != 3 {
		t.Errorf("Inference.MaxAttempts = %d, want 3", cfg.Inference.MaxAttempts)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v, want info/text", cfg.Logging)
	}
	if cfg.Chat.ChannelID != "1" || cfg.Chat.EchoWindow != time.Minute {
		t.Errorf("Chat = %+v, want 1/1m", cfg.Chat)
	}
	if cfg.Swarm.Passes != 0 {
		t.Errorf("Swarm.Passes = %d, want 0", cfg.Swarm.Passes)
	}
	if cfg.Matrix.CryptoDir != "." {
		t.Errorf("Matrix.CryptoDir = %q, want database directory", cfg.Matrix.CryptoDir)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_SWARM_DB", "/tmp/from-env.db")
	t.Setenv("TEST_SWARM_KEY", "sk-from-env")

	configContent := `
database:
  path: "${TEST_SWARM_DB}"
inference:
  provider: "openai"
  model: "gpt-4o-mini"
  api_key: "${TEST_SWARM_KEY}"
agents:
  - name: "a"
    base_instructions: "x"
`
	cfg, err := Load(writeConfig(t, "config.yaml", configContent))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/from-env.db" {
		t.Errorf("Database.Path = %q, want /tmp/from-env.db", cfg.Database.Path)
	}
	if cfg.Inference.APIKey != "sk-from-env" {
		t.Errorf("Inference.APIKey = %q, want sk-from-env", cfg.Inference.APIKey)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("EXPAND_A", "alpha")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single", "${EXPAND_A}", "alpha"},
		{"embedded", "x-${EXPAND_A}-y", "x-alpha-y"},
		{"unset", "${EXPAND_UNSET_VAR}", ""},
		{"no vars", "plain", "plain"},
		{"bare dollar untouched", "$EXPAND_A", "$EXPAND_A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandEnvVars(tt.input); got != tt.want {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configContent := `
database:
  path: "./test.db"
inference:
  model: "m"
  timeout: "soon"
agents:
  - name: "a"
    base_instructions: "x"
`
	_, err := Load(writeConfig(t, "config.yaml", configContent))
	if err == nil {
		t.Fatal("Load() expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "inference.timeout") {
		t.Errorf("error = %v, want mention of inference.timeout", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
	if !strings.Contains(err.Error(), "reading config file") {
		t.Errorf("error = %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "config.yaml", "database: [unclosed"))
	if err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("error = %v", err)
	}
}

func validConfig() *Config {
	return &Config{
		Database:  DatabaseConfig{Path: "./test.db"},
		Inference: InferenceConfig{Provider: "ollama", Model: "m"},
		Agents:    []AgentConfig{{Name: "a", BaseInstructions: "x"}},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing database", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"unknown provider", func(c *Config) { c.Inference.Provider = "llamafile" }, "inference.provider"},
		{"openai without key", func(c *Config) { c.Inference.Provider = "openai" }, "inference.api_key"},
		{"missing model", func(c *Config) { c.Inference.Model = "" }, "inference.model"},
		{"negative background", func(c *Config) { c.Engine.MaxBackground = -1 }, "engine.max_background"},
		{"negative passes", func(c *Config) { c.Swarm.Passes = -1 }, "swarm.passes"},
		{"no agents", func(c *Config) { c.Agents = nil }, "at least one agent"},
		{"unnamed agent", func(c *Config) { c.Agents[0].Name = "" }, "agents[0].name"},
		{"duplicate agent", func(c *Config) {
			c.Agents = append(c.Agents, AgentConfig{Name: "a", BaseInstructions: "y"})
		}, "duplicated"},
		{"missing base instructions", func(c *Config) { c.Agents[0].BaseInstructions = "" }, "base_instructions"},
		{"incomplete call", func(c *Config) {
			c.Agents[0].PreInference = []CallConfig{{ToolsetID: "chat"}}
		}, "needs toolset_id and name"},
		{"matrix without room", func(c *Config) {
			c.Matrix = MatrixConfig{Enabled: true, Homeserver: "https://h", UserID: "@u:h", AccessToken: "t"}
		}, "matrix.room_id"},
		{"matrix encryption without crypto dir", func(c *Config) {
			c.Matrix = MatrixConfig{Enabled: true, Homeserver: "https://h", UserID: "@u:h", AccessToken: "t", RoomID: "!r:h", Encryption: true}
		}, "matrix.crypto_dir"},
		{"discord without token", func(c *Config) {
			c.Discord = DiscordConfig{Enabled: true, ChannelID: "c"}
		}, "discord.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv("COVEN_SWARM_CONFIG", "/etc/swarm.toml")
		if got := DefaultPath(); got != "/etc/swarm.toml" {
			t.Errorf("DefaultPath() = %q", got)
		}
	})

	t.Run("xdg", func(t *testing.T) {
		t.Setenv("COVEN_SWARM_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "/xdg")
		if got := DefaultPath(); got != filepath.Join("/xdg", "coven", "swarm.yaml") {
			t.Errorf("DefaultPath() = %q", got)
		}
	})
}

func TestWriteExample(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "swarm.yaml")

	if err := WriteExample(path); err != nil {
		t.Fatalf("WriteExample() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(example) error = %v", err)
	}
	if len(cfg.Agents) != 2 {
		t.Errorf("len(Agents) = %d, want 2", len(cfg.Agents))
	}

	err = WriteExample(path)
	if !errors.Is(err, ErrConfigExists) {
		t.Errorf("second WriteExample() error = %v, want ErrConfigExists", err)
	}
}

func TestWriteExampleTOML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "swarm.toml")

	if err := WriteExample(path); err != nil {
		t.Fatalf("WriteExample() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(example) error = %v", err)
	}
	if len(cfg.Agents) != 2 || cfg.Agents[0].Name != "alice" {
		t.Fatalf("Agents = %+v", cfg.Agents)
	}
	if cfg.Swarm.PassDelay != 5*time.Second {
		t.Errorf("Swarm.PassDelay = %v, want 5s", cfg.Swarm.PassDelay)
	}
	if got := cfg.Agents[0].PreInference[1].Arguments["limit"]; got != int64(10) {
		t.Errorf("Arguments[limit] = %v (%T), want 10", got, got)
	}
}
