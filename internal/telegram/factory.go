package telegram

import (
	"context"
	"fmt"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"gorm.io/gorm"

	"github.com/blockedby/infocompass/internal/config"
)

// NewPersistentClient creates a gotgproto client from an already authorized
// session: the configured session string when present, otherwise the
// session stored in db. A session the server no longer accepts fails with
// gotgproto's ErrSessionUnauthorized instead of prompting for a phone number.
// The client lives until ctx is done or Stop is called.
func NewPersistentClient(ctx context.Context, cfg *config.Config, db *gorm.DB) (*gotgproto.Client, error) {
	// gotgproto replaces an already canceled context with a background one
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := &gotgproto.ClientOpts{
		Context:          ctx,
		DisableCopyright: true,
		NoAutoAuth:       true,
	}

	if cfg.TGSessionStr != "" {
		opts.Session = sessionMaker.StringSession(cfg.TGSessionStr)
		opts.InMemory = true
	} else {
		opts.Session = sessionMaker.SqlSession(db.Dialector)
	}

	client, err := gotgproto.NewClient(
		cfg.TGApiID,
		cfg.TGApiHash,
		gotgproto.ClientTypePhone(""), // empty = use session
		opts,
	)
	if err != nil {
		if client != nil {
			client.Stop()
		}
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}

	return client, nil
}

// LoginBundle contains a raw td/telegram client used for interactive logins.
// The resulting session is captured in Storage and later handed to gotgproto.
type LoginBundle struct {
	Client     *telegram.Client
	Dispatcher tg.UpdateDispatcher
	Storage    *session.StorageMemory
}

// NewLoginClient creates a raw td/telegram client with in-memory session storage.
// Unlike gotgproto's NewClient, this does NOT attempt interactive CLI auth.
func NewLoginClient(cfg *config.Config) (*LoginBundle, error) {
	memStorage := &session.StorageMemory{}
	dispatcher := tg.NewUpdateDispatcher()

	client := telegram.NewClient(cfg.TGApiID, cfg.TGApiHash, telegram.Options{
		SessionStorage: memStorage,
		UpdateHandler:  &dispatcher,
	})

	return &LoginBundle{
		Client:     client,
		Dispatcher: dispatcher,
		Storage:    memStorage,
	}, nil
}
