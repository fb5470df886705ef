// ABOUTME: Starter configuration written by `coven-swarm init`
// ABOUTME: Refuses to overwrite an existing file

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by WriteExample when the target file is already present.
var ErrConfigExists = errors.New("config file already exists")

// Example is a minimal working configuration with two agents sharing the chat app.
const Example = `# coven-swarm configuration
database:
  path: "${HOME}/.local/share/coven/swarm.db"

inference:
  provider: "ollama"          # ollama, openai
  base_url: "http://localhost:11434"
  model: "llama3.2"
  api_key: "${OPENAI_API_KEY}"
  timeout: "2m"
  max_attempts: 3
  retry_delay: "1s"
  requests_per_minute: 0      # 0 disables throttling

engine:
  max_background: 4           # 0 is unlimited

logging:
  level: "info"               # debug, info, warn, error
  format: "text"              # text, json

chat:
  channel_id: "1"
  echo_window: "1m"

matrix:
  enabled: false
  homeserver: "https://matrix.org"
  user_id: "@swarm:matrix.org"
  access_token: "${MATRIX_ACCESS_TOKEN}"
  room_id: "!room:matrix.org"
  encryption: false           # end-to-end encryption, keys kept next to the database
  recovery_key: "${MATRIX_RECOVERY_KEY}"

discord:
  enabled: false
  token: "${DISCORD_TOKEN}"
  channel_id: ""

swarm:
  passes: 0                   # 0 runs until interrupted
  pass_delay: "5s"

agents:
  - name: "alice"
    base_instructions: |
      You are a helpful member of a small team chatting in a shared channel.
      Keep replies short.
    initial_instruction: "Introduce yourself in the chat."
    apps: ["chat", "memory_manager", "persona"]
    load: ["chat", "memory_manager"]
    persona:
      name: "Alice"
      description: "A curious engineer who likes asking questions."
    pre_inference:
      - toolset_id: "persona"
        name: "get_persona_string"
      - toolset_id: "chat"
        name: "read_chat"
        arguments: {limit: 10}
      - toolset_id: "memory_manager"
        name: "get_recent_memories"
    post_inference:
      - toolset_id: "memory_manager"
        name: "extract_memories"

  - name: "bob"
    base_instructions: |
      You are a helpful member of a small team chatting in a shared channel.
      Keep replies short.
    initial_instruction: "Greet whoever is in the chat."
    apps: ["chat", "memory_manager", "persona"]
    load: ["chat"]
    # persona.id reuses a stored persona instead of creating one
    persona:
      name: "Bob"
      description: "A laconic operator who answers precisely."
    pre_inference:
      - toolset_id: "persona"
        name: "get_persona_string"
      - toolset_id: "chat"
        name: "read_chat"
`

// WriteExample writes Example to path, creating parent directories.
// A .toml path gets the same configuration encoded as TOML.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", path, ErrConfigExists)
	}

	data := []byte(Example)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing example config: %w", err)
		}
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("encoding example config: %w", err)
		}
		data = buf.Bytes()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
