// Package telegram provides Telegram MTProto client wrapper.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/blockedby/infocompass/internal/logger"
	"github.com/blockedby/infocompass/internal/models"
)

// MaxHistoryLimit is the largest page MessagesGetHistory returns.
const MaxHistoryLimit = 100

// resolve errors that mean "there is no such public channel"
var notFoundErrors = []string{
	"USERNAME_NOT_OCCUPIED",
	"USERNAME_INVALID",
	"CHANNEL_PRIVATE",
	"CHANNEL_INVALID",
}

// Client wraps the Manager's connection and provides high-level telegram operations.
type Client struct {
	manager     *Manager
	rateLimiter *RateLimiter
	log         *logger.Logger
}

// NewClient creates a new telegram client wrapper using the Manager.
func NewClient(manager *Manager, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Get()
	}
	return &Client{
		manager:     manager,
		rateLimiter: DefaultRateLimiter(),
		log:         log,
	}
}

// Connect ensures the shared connection is active and authorized.
func (c *Client) Connect(ctx context.Context) error {
	return c.manager.Connect(ctx)
}

// GetStatus returns the current status of the telegram client.
func (c *Client) GetStatus() Status {
	return c.manager.GetStatus()
}

// API returns the raw tg.Client for direct API calls.
func (c *Client) API() (*tg.Client, error) {
	proto := c.manager.GetClient()
	if proto == nil {
		return nil, ErrNotConnected
	}
	return proto.API(), nil
}

// NormalizeUsername turns "@name", "name" or a t.me link into a bare username.
func NormalizeUsername(identifier string) string {
	s := strings.TrimSpace(identifier)
	for _, prefix := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, prefix)
	}
	for _, prefix := range []string{"t.me/s/", "t.me/", "telegram.me/"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimPrefix(s, "@")
	if i := strings.IndexAny(s, "/?"); i >= 0 {
		s = s[:i]
	}
	return s
}

// ResolveChannel resolves a channel identifier to Channel info.
// Unknown, private and non-channel identifiers yield ErrChannelNotFound.
func (c *Client) ResolveChannel(ctx context.Context, identifier string) (*Channel, error) {
	username := NormalizeUsername(identifier)
	if username == "" || strings.HasPrefix(username, "+") || username == "joinchat" {
		return nil, fmt.Errorf("%w: %q is not a public channel username", ErrChannelNotFound, identifier)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	api, err := c.API()
	if err != nil {
		return nil, err
	}

	c.log.Debug().Str("username", username).Msg("telegram: resolving channel username")
	resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
		Username: username,
	})
	if err != nil {
		c.observe(err)
		if tgerr.Is(err, notFoundErrors...) {
			return nil, fmt.Errorf("%w: %s: %v", ErrChannelNotFound, username, err)
		}
		return nil, fmt.Errorf("resolve username %s: %w", username, err)
	}

	for _, chat := range resolved.Chats {
		if ch, ok := chat.(*tg.Channel); ok {
			return &Channel{
				ID:         ch.ID,
				AccessHash: ch.AccessHash,
				Username:   username,
				Title:      ch.Title,
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: %s is not a channel", ErrChannelNotFound, username)
}

// ChannelExists checks if channel username exists and is accessible
func (c *Client) ChannelExists(ctx context.Context, identifier string) (bool, error) {
	_, err := c.ResolveChannel(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrChannelNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetHistory fetches one page of messages, newest first.
// offsetID: start below this message id (0 = newest messages)
// limit: max number of messages to fetch (max 100)
func (c *Client) GetHistory(ctx context.Context, channel *Channel, offsetID int, limit int) ([]Message, error) {
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	api, err := c.API()
	if err != nil {
		return nil, err
	}

	c.log.Debug().Int64("channel_id", channel.ID).Int("offset_id", offsetID).Int("limit", limit).Msg("telegram: calling MessagesGetHistory API")
	history, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer: &tg.InputPeerChannel{
			ChannelID:  channel.ID,
			AccessHash: channel.AccessHash,
		},
		OffsetID: offsetID,
		Limit:    limit,
	})
	if err != nil {
		c.observe(err)
		return nil, fmt.Errorf("get history: %w", err)
	}

	return extractMessages(history, channel), nil
}

func (c *Client) observe(err error) {
	if wait, ok := c.rateLimiter.ObserveError(err); ok {
		c.log.Warn().Dur("wait", wait).Msg("telegram: FLOOD_WAIT received, delaying next request")
	}
}

// extractMessages converts telegram message response to our Message type
func extractMessages(messagesClass tg.MessagesMessagesClass, channel *Channel) []Message {
	var raw []tg.MessageClass

	switch h := messagesClass.(type) {
	case *tg.MessagesChannelMessages:
		raw = h.Messages
	case *tg.MessagesMessagesSlice:
		raw = h.Messages
	case *tg.MessagesMessages:
		raw = h.Messages
	}

	messages := make([]Message, 0, len(raw))
	for _, msg := range raw {
		if m, ok := parseMessage(msg, channel); ok {
			messages = append(messages, m)
		}
	}
	return messages
}

// parseMessage converts a single telegram message. Service messages are
// kept with empty text so paging offsets keep advancing.
func parseMessage(msg tg.MessageClass, channel *Channel) (Message, bool) {
	switch m := msg.(type) {
	case *tg.Message:
		out := Message{
			ID:        m.ID,
			ChannelID: channel.ID,
			Text:      m.Message,
			Date:      time.Unix(int64(m.Date), 0).UTC(),
			Views:     m.Views,
			Forwards:  m.Forwards,
			Media:     mediaKind(m.Media),
		}
		if replies, ok := m.GetReplies(); ok {
			out.Replies = replies.Replies
		}
		return out, true
	case *tg.MessageService:
		return Message{
			ID:        m.ID,
			ChannelID: channel.ID,
			Date:      time.Unix(int64(m.Date), 0).UTC(),
			Media:     models.MediaNone,
		}, true
	default:
		return Message{}, false
	}
}

func mediaKind(media tg.MessageMediaClass) models.MediaKind {
	switch media.(type) {
	case nil:
		return models.MediaNone
	case *tg.MessageMediaPhoto:
		return models.MediaPhoto
	case *tg.MessageMediaDocument:
		return models.MediaDocument
	default:
		return models.MediaOther
	}
}
