// ABOUTME: Matrix bridge app: buffers room messages and sends markdown replies
// ABOUTME: Outgoing messages carry goldmark-rendered HTML as formatted_body

package builtins

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/2389/coven-swarm/internal/tools"
)

// MatrixToolsetID is the toolset id of the Matrix bridge.
const MatrixToolsetID = "matrix"

// networkTimeout is the timeout for Matrix API calls.
const networkTimeout = 30 * time.Second

// MatrixOptions configures NewMatrix.
type MatrixOptions struct {
	Homeserver  string
	UserID      string
	AccessToken string
	RoomID      string
	DeviceID    string

	// Encryption turns on E2EE with keys stored under CryptoDir.
	Encryption  bool
	RecoveryKey string
	CryptoDir   string
}

type matrixSendFunc func(ctx context.Context, roomID id.RoomID, content *event.MessageEventContent) error

// Matrix bridges one Matrix room into the swarm.
type Matrix struct {
	*tools.Toolset

	client *mautrix.Client
	opts   MatrixOptions
	send   matrixSendFunc
	roomID id.RoomID
	selfID id.UserID
	inbox  *inbox
	logger *slog.Logger
}

// NewMatrix connects a client for the configured room. Call Run to start syncing.
func NewMatrix(opts MatrixOptions, logger *slog.Logger) (*Matrix, error) {
	client, err := mautrix.NewClient(opts.Homeserver, id.UserID(opts.UserID), opts.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("creating matrix client: %w", err)
	}
	client.DeviceID = id.DeviceID(opts.DeviceID)

	send := func(ctx context.Context, roomID id.RoomID, content *event.MessageEventContent) error {
		_, err := client.SendMessageEvent(ctx, roomID, event.EventMessage, content)
		return err
	}

	m := newMatrix(send, id.RoomID(opts.RoomID), id.UserID(opts.UserID), logger)
	m.client = client
	m.opts = opts
	return m, nil
}

func newMatrix(send matrixSendFunc, roomID id.RoomID, selfID id.UserID, logger *slog.Logger) *Matrix {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Matrix{
		send:   send,
		roomID: roomID,
		selfID: selfID,
		inbox:  newInbox(defaultInboxSize),
		logger: logger.With("component", "matrix"),
	}

	m.Toolset = tools.NewToolset(tools.Identity{
		ToolsetID:   MatrixToolsetID,
		DisplayName: "Matrix",
		Description: "Talk with people in the Matrix room.",
	},
		tools.Tool{
			Entry: tools.CatalogEntry{
				Name:          "send_matrix_message",
				Description:   "sends a markdown message to the Matrix room.",
				Arguments:     []tools.Argument{{Name: "message", Type: "string", Description: "the message to send"}},
				ExposeToAgent: true,
			},
			Handler: m.SendMessage,
		},
		tools.Tool{
			Entry: tools.CatalogEntry{
				Name:        "read_matrix_messages",
				Description: "reads recent messages from the Matrix room.",
				Arguments:   []tools.Argument{{Name: "limit", Type: "integer", Description: "how many messages to read, default 10"}},
			},
			Handler: m.ReadMessages,
		},
	)
	return m
}

// Run syncs with the homeserver until ctx is cancelled.
func (m *Matrix) Run(ctx context.Context) error {
	if m.client == nil {
		return errors.New("matrix client not configured")
	}

	syncer, ok := m.client.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return fmt.Errorf("unexpected syncer type: %T", m.client.Syncer)
	}
	syncer.OnEventType(event.EventMessage, m.handleMessageEvent)

	if m.opts.Encryption {
		helper, err := setupMatrixCrypto(ctx, m.client, m.opts.RecoveryKey, m.opts.CryptoDir, m.logger)
		if err != nil {
			return fmt.Errorf("setting up encryption: %w", err)
		}
		defer func() {
			if err := helper.Close(); err != nil {
				m.logger.Warn("closing crypto helper", "error", err)
			}
		}()
	}

	m.logger.Info("starting matrix bridge",
		"room", m.roomID.String(),
		"user_id", m.selfID.String(),
		"encryption", m.opts.Encryption,
	)

	err := m.client.SyncWithContext(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("matrix sync failed: %w", err)
	}
	m.logger.Info("shutting down matrix bridge")
	return nil
}

// handleMessageEvent buffers text messages from other users in the bridged room.
func (m *Matrix) handleMessageEvent(ctx context.Context, evt *event.Event) {
	if evt.RoomID != m.roomID || evt.Sender == m.selfID {
		return
	}

	content, ok := evt.Content.Parsed.(*event.MessageEventContent)
	if !ok || content.MsgType != event.MsgText || content.Body == "" {
		return
	}

	msg := InboundMessage{
		Sender:  evt.Sender.String(),
		Content: content.Body,
		At:      time.UnixMilli(evt.Timestamp),
	}
	if !m.inbox.push(evt.ID.String(), msg) {
		m.logger.Debug("dropping redelivered event", "event_id", evt.ID.String())
		return
	}
	m.logger.Debug("received message",
		"room", evt.RoomID.String(),
		"sender", evt.Sender.String(),
		"content", truncate(content.Body, 50),
	)
}

type bridgeSendInput struct {
	Message string `json:"message"`
}

func (m *Matrix) SendMessage(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
	var in bridgeSendInput
	if err := tools.DecodeInput(input, &in); err != nil {
		return "", err
	}
	if strings.TrimSpace(in.Message) == "" {
		return "", errors.New("message is required")
	}

	content := &event.MessageEventContent{
		MsgType: event.MsgText,
		Body:    in.Message,
	}
	var html bytes.Buffer
	if err := goldmark.Convert([]byte(in.Message), &html); err != nil {
		m.logger.Warn("failed to convert markdown", "error", err)
	} else {
		content.Format = event.FormatHTML
		content.FormattedBody = strings.TrimSpace(html.String())
	}

	sendCtx, cancel := context.WithTimeout(ctx, networkTimeout)
	defer cancel()
	if err := m.send(sendCtx, m.roomID, content); err != nil {
		return "", fmt.Errorf("sending matrix message: %w", err)
	}

	m.logger.Info("sending response", "room", m.roomID.String(), "length", len(in.Message))
	return fmt.Sprintf("Message sent to Matrix room %s", m.roomID), nil
}

type bridgeReadInput struct {
	Limit int `json:"limit"`
}

func (m *Matrix) ReadMessages(ctx context.Context, state tools.AgentState, input json.RawMessage) (string, error) {
	var in bridgeReadInput
	if err := tools.DecodeInput(input, &in); err != nil {
		return "", err
	}
	if in.Limit <= 0 {
		in.Limit = defaultChatLimit
	}
	return formatHistory("Matrix Messages", m.inbox.recent(in.Limit), time.Now()), nil
}
