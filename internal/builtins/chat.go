// ABOUTME: Chat app: agents post to and read from a shared channel.
// ABOUTME: Repeated identical messages inside the echo window are dropped.

package builtins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/2389/coven-swarm/internal/store"
	"github.com/2389/coven-swarm/internal/tools"
)

// ChatToolsetID is the toolset id of the chat app.
const ChatToolsetID = "chat"

// PersonaNameKey is the app key holding the agent's display name.
const PersonaNameKey = "persona_name"

const (
	defaultChatLimit = 10
	echoCacheSize    = 256
)

// Chat is the shared-channel chat app.
type Chat struct {
	*tools.Toolset

	store     store.ChatStore
	channelID string
	window    time.Duration
	echoes    *expirable.LRU[string, struct{}]
	now       func() time.Time
	logger    *slog.Logger
}

// NewChat creates the chat app posting to channelID.
// echoWindow is how long an identical message from the same user is suppressed.
func NewChat(s store.ChatStore, channelID string, echoWindow time.Duration, logger *slog.Logger) *Chat {
	if logger == nil {
		logger = slog.Default()
	}
	if echoWindow <= 0 {
		echoWindow = time.Minute
	}

	c := &Chat{
		store:     s,
		channelID: channelID,
		window:    echoWindow,
		echoes:    expirable.NewLRU[string, struct{}](echoCacheSize, nil, echoWindow),
		now:       time.Now,
		logger:    logger.With("component", "chat"),
	}

	c.Toolset = tools.NewToolset(tools.Identity{
		ToolsetID:   ChatToolsetID,
		DisplayName: "Chat",
		Description: "Talk with the other members of the channel.",
	},
		tools.Tool{
			Entry: tools.CatalogEntry{
				Name:        "send_message",
				Description: "sends a message to the chat channel.",
				Arguments: []tools.Argument{
					{Name: "user_name", Type: "string", Description: "the name to post as, defaults to your persona name"},
					{Name: "message", Type: "string", Description: "the message to send"},
				},
				ExposeToAgent: true,
			},
			Handler: c.SendMessage,
		},
		tools.Tool{
			Entry: tools.CatalogEntry{
				Name:        "read_chat",
				Description: "reads the most recent chat messages.",
				Arguments: []tools.Argument{
					{Name: "limit", Type: "integer", Description: "how many messages to read, default 10"},
					{Name: "offset", Type: "integer", Description: "how many of the newest messages to skip"},
				},
			},
			Handler: c.ReadChat,
		},
	)
	return c
}

type sendMessageInput struct {
	UserName string `json:"user_name"`
	Message  string `json:"message"`
}

func (c *Chat) SendMessage(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
	var in sendMessageInput
	if err := tools.DecodeInput(input, &in); err != nil {
		return "", err
	}
	if strings.TrimSpace(in.Message) == "" {
		return "", errors.New("message is required")
	}

	user := in.UserName
	if user == "" {
		user = state.AppKey(PersonaNameKey)
	}
	if user == "" {
		user = state.AgentID()
	}

	echoKey := user + "\x00" + in.Message
	if c.echoes.Contains(echoKey) {
		c.logger.Debug("dropping repeated message", "user", user, "content", truncate(in.Message, 50))
		return fmt.Sprintf("Message not sent: you already sent this message in the last %s", c.window), nil
	}

	msg := &store.ChatMessage{
		ID:        uuid.New().String(),
		ChannelID: c.channelID,
		UserName:  user,
		Content:   in.Message,
		CreatedAt: c.now(),
	}
	if err := c.store.SaveChatMessage(ctx, msg); err != nil {
		return "", fmt.Errorf("saving chat message: %w", err)
	}
	c.echoes.Add(echoKey, struct{}{})

	c.logger.Info("chat message sent", "channel", c.channelID, "user", user, "content", truncate(in.Message, 50))
	return fmt.Sprintf("Message sent to channel %s", c.channelID), nil
}

type readChatInput struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func (c *Chat) ReadChat(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
	var in readChatInput
	if err := tools.DecodeInput(input, &in); err != nil {
		return "", err
	}
	if in.Limit <= 0 {
		in.Limit = defaultChatLimit
	}
	if in.Offset < 0 {
		in.Offset = 0
	}

	msgs, err := c.store.GetChatMessages(ctx, c.channelID, in.Limit, in.Offset)
	if err != nil {
		return "", fmt.Errorf("reading chat: %w", err)
	}

	lines := make([]InboundMessage, len(msgs))
	for i, m := range msgs {
		lines[i] = InboundMessage{Sender: m.UserName, Content: m.Content, At: m.CreatedAt}
	}
	return formatHistory("Chat History", lines, c.now()), nil
}
