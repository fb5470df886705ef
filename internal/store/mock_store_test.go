// ABOUTME: Tests that MockStore behaves like SQLiteStore for the paths tests rely on
// ABOUTME: Runs the same scenarios against both implementations

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreImplementationsAgree(t *testing.T) {
	impls := map[string]func(t *testing.T) Store{
		"sqlite": func(t *testing.T) Store { return newTestStore(t) },
		"mock":   func(t *testing.T) Store { return NewMockStore() },
	}

	for name, newStore := range impls {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()
			base := time.Now().UTC().Add(-time.Hour)

			t.Run("agent state", func(t *testing.T) {
				require.NoError(t, s.SaveAgentState(ctx, "a", []byte("1")))
				require.NoError(t, s.SaveAgentState(ctx, "b", []byte("2")))

				got, err := s.GetAgentState(ctx, "a")
				require.NoError(t, err)
				assert.Equal(t, []byte("1"), got)

				ids, err := s.ListAgentIDs(ctx, 1)
				require.NoError(t, err)
				assert.Len(t, ids, 1)

				_, err = s.GetAgentState(ctx, "zzz")
				assert.ErrorIs(t, err, ErrNotFound)

				require.NoError(t, s.DeleteAgentState(ctx, "b"))
				assert.ErrorIs(t, s.DeleteAgentState(ctx, "b"), ErrNotFound)
			})

			t.Run("chat paging", func(t *testing.T) {
				for i := 0; i < 4; i++ {
					require.NoError(t, s.SaveChatMessage(ctx, &ChatMessage{
						ID:        fmt.Sprintf("%s-%d", name, i),
						ChannelID: "general",
						UserName:  "bob",
						Content:   fmt.Sprintf("m%d", i),
						CreatedAt: base.Add(time.Duration(i) * time.Second),
					}))
				}

				page, err := s.GetChatMessages(ctx, "general", 2, 1)
				require.NoError(t, err)
				require.Len(t, page, 2)
				assert.Equal(t, "m1", page[0].Content)
				assert.Equal(t, "m2", page[1].Content)
			})

			t.Run("memories", func(t *testing.T) {
				for i, content := range []string{"Tea with Bob", "cold river", "bob again"} {
					require.NoError(t, s.SaveMemory(ctx, &Memory{
						ID:        fmt.Sprintf("%s-mem-%d", name, i),
						AgentID:   "agent",
						Content:   content,
						CreatedAt: base.Add(time.Duration(i) * time.Second),
					}))
				}

				found, err := s.SearchMemories(ctx, "agent", "bob", 0)
				require.NoError(t, err)
				require.Len(t, found, 2)
				assert.Equal(t, "bob again", found[0].Content)

				recent, err := s.GetRecentMemories(ctx, "agent", 1)
				require.NoError(t, err)
				require.Len(t, recent, 1)
				assert.Equal(t, "bob again", recent[0].Content)
			})

			t.Run("personas", func(t *testing.T) {
				require.NoError(t, s.SavePersona(ctx, &Persona{ID: "p", Name: "Ada", Description: "d", CreatedAt: base}))
				got, err := s.GetPersona(ctx, "p")
				require.NoError(t, err)
				assert.Equal(t, "Ada", got.Name)

				_, err = s.GetPersona(ctx, "missing")
				assert.ErrorIs(t, err, ErrNotFound)
			})
		})
	}
}
