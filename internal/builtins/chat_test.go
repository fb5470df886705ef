// ABOUTME: Tests for the chat app.
// ABOUTME: Covers sending, echo suppression and history formatting.

package builtins

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/coven-swarm/internal/tools"
)

func TestChatCatalog(t *testing.T) {
	chat := NewChat(openTestStore(t), "1", time.Minute, nil)

	send := catalogEntry(t, chat, "send_message")
	assert.True(t, send.ExposeToAgent)
	assert.False(t, send.IsLongRunning)
	assert.Equal(t, ChatToolsetID, send.ToolsetID)

	read := catalogEntry(t, chat, "read_chat")
	assert.False(t, read.ExposeToAgent, "read_chat is a pre-inference tool")
}

func TestChatSendAndRead(t *testing.T) {
	s := openTestStore(t)
	chat := NewChat(s, "lobby", time.Minute, nil)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	chat.now = func() time.Time { return base }

	state := tools.NewMemoryState("agent-1")
	state.SetAppKey(PersonaNameKey, "Alice")

	res := invoke(t, chat, state, "send_message", map[string]any{"message": "hello"})
	require.False(t, res.HasError(), res.Text())
	assert.Equal(t, "Message sent to channel lobby", res.Text())

	chat.now = func() time.Time { return base.Add(time.Minute) }
	res = invoke(t, chat, state, "send_message", map[string]any{"user_name": "Bob", "message": "hi alice"})
	require.False(t, res.HasError(), res.Text())

	chat.now = func() time.Time { return base.Add(5 * time.Minute) }
	res = invoke(t, chat, state, "read_chat", nil)
	require.False(t, res.HasError(), res.Text())
	assert.Equal(t, "Chat History:\nAlice(5 minutes ago): hello\nBob(4 minutes ago): hi alice\n", res.Text())

	t.Run("limit and offset", func(t *testing.T) {
		res := invoke(t, chat, state, "read_chat", map[string]any{"limit": 1, "offset": 1})
		assert.Equal(t, "Chat History:\nAlice(5 minutes ago): hello\n", res.Text())
	})

	t.Run("other channel is isolated", func(t *testing.T) {
		other := NewChat(s, "elsewhere", time.Minute, nil)
		res := invoke(t, other, state, "read_chat", nil)
		assert.Equal(t, "Chat History:\n(no messages)\n", res.Text())
	})
}

func TestChatFallsBackToAgentID(t *testing.T) {
	s := openTestStore(t)
	chat := NewChat(s, "1", time.Minute, nil)

	res := invoke(t, chat, tools.NewMemoryState("agent-7"), "send_message", map[string]any{"message": "ping"})
	require.False(t, res.HasError(), res.Text())

	msgs, err := s.GetChatMessages(context.Background(), "1", 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "agent-7", msgs[0].UserName)
}

func TestChatEchoSuppression(t *testing.T) {
	s := openTestStore(t)
	chat := NewChat(s, "1", time.Hour, nil)
	state := tools.NewMemoryState("agent-1")

	first := invoke(t, chat, state, "send_message", map[string]any{"user_name": "Alice", "message": "same"})
	require.False(t, first.HasError())

	second := invoke(t, chat, state, "send_message", map[string]any{"user_name": "Alice", "message": "same"})
	require.False(t, second.HasError(), "a dropped echo is not an error")
	assert.True(t, strings.HasPrefix(second.Text(), "Message not sent"))

	t.Run("different user is not an echo", func(t *testing.T) {
		res := invoke(t, chat, state, "send_message", map[string]any{"user_name": "Bob", "message": "same"})
		assert.Equal(t, "Message sent to channel 1", res.Text())
	})

	msgs, err := s.GetChatMessages(context.Background(), "1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestChatSendRequiresMessage(t *testing.T) {
	chat := NewChat(openTestStore(t), "1", time.Minute, nil)
	res := invoke(t, chat, tools.NewMemoryState("a"), "send_message", map[string]any{"message": "  "})
	require.True(t, res.HasError())
	assert.Equal(t, "Error: message is required", res.Text())
}

func TestInbox(t *testing.T) {
	b := newInbox(3)
	for i, content := range []string{"a", "b", "c", "d"} {
		assert.True(t, b.push("", InboundMessage{Sender: "u", Content: content, At: time.Unix(int64(i), 0)}))
	}

	assert.Equal(t, 3, b.len())

	all := b.recent(0)
	require.Len(t, all, 3)
	assert.Equal(t, "b", all[0].Content, "oldest message dropped when full")

	last := b.recent(2)
	require.Len(t, last, 2)
	assert.Equal(t, "c", last[0].Content)
	assert.Equal(t, "d", last[1].Content)
}

func TestInboxDropsRedelivery(t *testing.T) {
	b := newInbox(10)
	assert.True(t, b.push("evt-1", InboundMessage{Content: "one"}))
	assert.False(t, b.push("evt-1", InboundMessage{Content: "one again"}))
	assert.True(t, b.push("evt-2", InboundMessage{Content: "two"}))
	assert.Equal(t, 2, b.len())
}

func TestAgo(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC)
	assert.Equal(t, "0 minutes ago", ago(now, now.Add(time.Minute)))
	assert.Equal(t, "1 minute ago", ago(now, now.Add(-90*time.Second)))
	assert.Equal(t, "10 minutes ago", ago(now, now.Add(-10*time.Minute)))
}
