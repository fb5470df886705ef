// Package inference talks to the language model.
//
// # Overview
//
// A Client takes an ordered message sequence and a JSON schema describing
// the expected reply, and returns the raw reply text. Two backends exist:
//
//	Ollama - chat endpoint with the schema passed as the "format" field
//	OpenAI - chat completions in JSON-object mode, schema in the prompt
//
// # Wrappers
//
// Retrying re-issues a request when the transport fails or the reply is
// rejected by its Validator, up to MaxAttempts. RateLimited spaces requests
// with a token bucket. Both wrap any Client and can be stacked.
package inference
