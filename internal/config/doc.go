// Package config handles configuration loading for coven-swarm.
//
// # Overview
//
// Configuration is loaded from YAML files, or TOML when the path ends in
// .toml, with environment variable expansion. Missing optional values get
// defaults and the result is validated.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from COVEN_SWARM_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/coven/swarm.yaml
//  3. ~/.config/coven/swarm.yaml
//
// # Environment Variable Expansion
//
//	inference:
//	  api_key: "${OPENAI_API_KEY}"
//
// Unset variables expand to the empty string.
//
// # Duration Parsing
//
// inference.timeout, inference.retry_delay, chat.echo_window and
// swarm.pass_delay use Go's time.ParseDuration syntax ("30s", "2m").
//
// # Agents
//
//	agents:
//	  - name: "alice"
//	    base_instructions: "You are a helpful teammate."
//	    apps: ["chat", "memory_manager"]
//	    load: ["chat"]
//	    pre_inference:
//	      - toolset_id: "chat"
//	        name: "read_chat"
//	        arguments: {limit: 10}
//
// See Example for a complete starter file.
//
// # Usage
//
//	cfg, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
