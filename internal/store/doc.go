// Package store provides persistent storage for the swarm using SQLite.
//
// # Architecture
//
// The store package uses small interfaces, one per concern:
//
//   - AgentStateStore: serialized agent run state, listed by recency
//   - ChatStore: chat channel history
//   - MemoryStore: per-agent memories with substring search
//   - PersonaStore: personas agents play
//
// Store combines them. SQLiteStore implements Store in a single struct;
// MockStore is an in-memory implementation for tests.
//
// # Timestamps
//
// Times are stored as fixed-width UTC strings so that ordering by the
// text column orders by time. Ties are broken by insertion order.
//
// # Usage
//
//	s, err := store.NewSQLiteStore("/var/lib/coven/swarm.db")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
// ":memory:" opens a private in-memory database, handy in tests.
package store
