// ABOUTME: Discord bridge app: buffers channel messages and sends replies
// ABOUTME: Same shape as the Matrix bridge, backed by a discordgo session

package builtins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/2389/coven-swarm/internal/tools"
)

// DiscordToolsetID is the toolset id of the Discord bridge.
const DiscordToolsetID = "discord"

// discordMessageLimit is Discord's maximum message length in characters.
const discordMessageLimit = 2000

type discordSendFunc func(channelID, content string) error

// Discord bridges one Discord channel into the swarm.
type Discord struct {
	*tools.Toolset

	session   *discordgo.Session
	send      discordSendFunc
	channelID string
	selfID    string
	inbox     *inbox
	logger    *slog.Logger
}

// NewDiscord creates a bot session for channelID. Call Run to connect.
func NewDiscord(token, channelID string, logger *slog.Logger) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	send := func(channelID, content string) error {
		_, err := session.ChannelMessageSend(channelID, content)
		return err
	}

	d := newDiscord(send, channelID, logger)
	d.session = session
	return d, nil
}

func newDiscord(send discordSendFunc, channelID string, logger *slog.Logger) *Discord {
	if logger == nil {
		logger = slog.Default()
	}

	d := &Discord{
		send:      send,
		channelID: channelID,
		inbox:     newInbox(defaultInboxSize),
		logger:    logger.With("component", "discord"),
	}

	d.Toolset = tools.NewToolset(tools.Identity{
		ToolsetID:   DiscordToolsetID,
		DisplayName: "Discord",
		Description: "Talk with people in the Discord channel.",
	},
		tools.Tool{
			Entry: tools.CatalogEntry{
				Name:          "send_discord_message",
				Description:   "sends a message to the Discord channel.",
				Arguments:     []tools.Argument{{Name: "message", Type: "string", Description: "the message to send"}},
				ExposeToAgent: true,
			},
			Handler: d.SendMessage,
		},
		tools.Tool{
			Entry: tools.CatalogEntry{
				Name:        "read_discord_messages",
				Description: "reads recent messages from the Discord channel.",
				Arguments:   []tools.Argument{{Name: "limit", Type: "integer", Description: "how many messages to read, default 10"}},
			},
			Handler: d.ReadMessages,
		},
	)
	return d
}

// Run opens the gateway connection and blocks until ctx is cancelled.
func (d *Discord) Run(ctx context.Context) error {
	if d.session == nil {
		return errors.New("discord session not configured")
	}

	d.session.AddHandler(d.handleMessageCreate)
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("opening discord session: %w", err)
	}
	if d.session.State != nil && d.session.State.User != nil {
		d.selfID = d.session.State.User.ID
	}
	d.logger.Info("discord bridge running", "channel", d.channelID)

	<-ctx.Done()
	d.logger.Info("shutting down discord bridge")
	if err := d.session.Close(); err != nil {
		return fmt.Errorf("closing discord session: %w", err)
	}
	return nil
}

// handleMessageCreate buffers messages from other users in the bridged channel.
func (d *Discord) handleMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil {
		return
	}
	if m.ChannelID != d.channelID || m.Author.ID == d.selfID || m.Author.Bot {
		return
	}
	if m.Content == "" {
		return
	}

	at := m.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	msg := InboundMessage{Sender: m.Author.Username, Content: m.Content, At: at}
	if !d.inbox.push(m.ID, msg) {
		d.logger.Debug("dropping redelivered message", "message_id", m.ID)
		return
	}
	d.logger.Debug("received message",
		"channel", m.ChannelID,
		"sender", m.Author.Username,
		"content", truncate(m.Content, 50),
	)
}

func (d *Discord) SendMessage(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
	var in bridgeSendInput
	if err := tools.DecodeInput(input, &in); err != nil {
		return "", err
	}
	if strings.TrimSpace(in.Message) == "" {
		return "", errors.New("message is required")
	}

	if err := d.send(d.channelID, truncate(in.Message, discordMessageLimit-3)); err != nil {
		return "", fmt.Errorf("sending discord message: %w", err)
	}

	d.logger.Info("sending response", "channel", d.channelID, "length", len(in.Message))
	return fmt.Sprintf("Message sent to Discord channel %s", d.channelID), nil
}

func (d *Discord) ReadMessages(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
	var in bridgeReadInput
	if err := tools.DecodeInput(input, &in); err != nil {
		return "", err
	}
	if in.Limit <= 0 {
		in.Limit = defaultChatLimit
	}
	return formatHistory("Discord Messages", d.inbox.recent(in.Limit), time.Now()), nil
}
