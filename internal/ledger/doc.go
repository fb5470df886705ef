// Package ledger tracks the lifecycle of an agent's tool calls.
//
// # Overview
//
// A Ledger holds three collections:
//
//	Pending   - calls handed to the background, not yet resolved
//	Standing  - results shown to the model once, then cleared
//	Completed - results shown every pass until explicitly removed
//
// Pending entries are unique by tools.Key: adding a call whose identity is
// already pending is a no-op that reports false.
//
// A Ledger is not safe for concurrent use. The pass engine is its only
// writer.
package ledger
