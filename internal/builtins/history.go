// ABOUTME: Shared formatting for message histories and the bounded inbound buffer
// ABOUTME: Used by the chat app and the Matrix and Discord bridges

package builtins

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// defaultInboxSize bounds how many inbound bridge messages are kept.
const defaultInboxSize = 100

// redeliveryWindow is how long an inbound event id is remembered.
const redeliveryWindow = 10 * time.Minute

// InboundMessage is a message received from an external room or channel.
type InboundMessage struct {
	Sender  string
	Content string
	At      time.Time
}

// inbox keeps the most recent inbound messages, dropping the oldest when full.
// Events redelivered by the remote side are recognised by id and dropped.
type inbox struct {
	mu       sync.Mutex
	messages []InboundMessage
	capacity int
	seen     *expirable.LRU[string, struct{}]
}

func newInbox(capacity int) *inbox {
	if capacity <= 0 {
		capacity = defaultInboxSize
	}
	return &inbox{
		capacity: capacity,
		seen:     expirable.NewLRU[string, struct{}](capacity*2, nil, redeliveryWindow),
	}
}

// push buffers msg unless eventID was already seen. An empty eventID is
// never treated as a duplicate. Reports whether msg was buffered.
func (b *inbox) push(eventID string, msg InboundMessage) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if eventID != "" {
		if b.seen.Contains(eventID) {
			return false
		}
		b.seen.Add(eventID, struct{}{})
	}

	if len(b.messages) == b.capacity {
		copy(b.messages, b.messages[1:])
		b.messages = b.messages[:len(b.messages)-1]
	}
	b.messages = append(b.messages, msg)
	return true
}

// recent returns up to limit of the newest messages, oldest first.
func (b *inbox) recent(limit int) []InboundMessage {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := 0
	if limit > 0 && len(b.messages) > limit {
		start = len(b.messages) - limit
	}
	out := make([]InboundMessage, len(b.messages)-start)
	copy(out, b.messages[start:])
	return out
}

func (b *inbox) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

// formatHistory renders messages as "title:" followed by one
// "user(N minutes ago): content" line per message.
func formatHistory(title string, messages []InboundMessage, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString(":\n")
	if len(messages) == 0 {
		sb.WriteString("(no messages)\n")
		return sb.String()
	}
	for _, m := range messages {
		fmt.Fprintf(&sb, "%s(%s): %s\n", m.Sender, ago(now, m.At), m.Content)
	}
	return sb.String()
}

func ago(now, at time.Time) string {
	minutes := int(now.Sub(at) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	if minutes == 1 {
		return "1 minute ago"
	}
	return fmt.Sprintf("%d minutes ago", minutes)
}

// truncate shortens a string to the given max rune count, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
