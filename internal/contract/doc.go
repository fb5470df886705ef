// Package contract holds tests that pin the persisted surface of coven-swarm.
//
// The SQLite schema outlives any single release: agent run state written
// today is resumed by tomorrow's binary. The tests here fail when a table,
// column or index the store relies on disappears or is renamed.
package contract
