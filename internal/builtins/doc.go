// Package builtins provides the apps shipped with coven-swarm.
//
// # Overview
//
// Each app is a tools.Provider built on tools.Toolset. Tools marked hidden
// are not in the model's catalog; they are meant for configured
// pre-inference and post-inference calls.
//
// # Apps
//
// Chat (chat):
//
//   - send_message: post to the shared channel (exposed)
//   - read_chat: recent channel history (hidden)
//
// Memory (memory_manager):
//
//   - remember, recall: store and search memories (exposed)
//   - get_recent_memories: newest memories (hidden)
//   - extract_memories: model-driven extraction from the next instruction
//     (hidden, long-running)
//
// Persona (persona):
//
//   - create_persona: store a persona and record persona_id (hidden)
//   - set_persona: assign a stored persona by id (hidden)
//   - get_persona_string: "You are NAME. DESCRIPTION" (hidden)
//
// Matrix (matrix) and Discord (discord) bridge one room or channel each:
//
//   - send_matrix_message / send_discord_message (exposed)
//   - read_matrix_messages / read_discord_messages (hidden)
//
// Bridges buffer inbound messages in a bounded inbox while Run is active.
// Redelivered events are recognised by id and dropped. The Matrix bridge
// can run with end-to-end encryption; keys live in a per-user SQLite store.
//
// # Echo Suppression
//
// The chat app drops an identical message from the same user inside the
// configured echo window and reports that nothing was sent.
package builtins
