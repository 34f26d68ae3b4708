// Package fetcher retrieves a bounded, time-windowed set of text messages
// from a single channel.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blockedby/infocompass/internal/logger"
	"github.com/blockedby/infocompass/internal/models"
	"github.com/blockedby/infocompass/internal/telegram"
)

// ErrFetch wraps every fetch failure other than authentication and
// channel resolution.
var ErrFetch = errors.New("fetch failed")

const (
	// PaceEvery is how many collected messages trigger a pacing pause.
	PaceEvery = 10
	// DefaultPause is the pacing pause length.
	DefaultPause = time.Second
)

// Source is the channel client the fetcher reads from.
type Source interface {
	Connect(ctx context.Context) error
	ResolveChannel(ctx context.Context, identifier string) (*telegram.Channel, error)
	GetHistory(ctx context.Context, channel *telegram.Channel, offsetID int, limit int) ([]telegram.Message, error)
}

// Pacer inserts the courtesy delay between batches of collected messages.
type Pacer interface {
	Pause(ctx context.Context) error
}

// SleepPacer pauses for a fixed duration.
type SleepPacer time.Duration

// Pause blocks for the configured duration or until ctx is done.
func (p SleepPacer) Pause(ctx context.Context) error {
	if p <= 0 {
		return nil
	}
	timer := time.NewTimer(time.Duration(p))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fetcher collects recent text messages from channels.
type Fetcher struct {
	source Source
	pacer  Pacer
	now    func() time.Time
	log    *logger.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithPacer replaces the default one-second pacer.
func WithPacer(p Pacer) Option {
	return func(f *Fetcher) { f.pacer = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// New creates a fetcher over source.
func New(source Source, log *logger.Logger, opts ...Option) *Fetcher {
	if log == nil {
		log = logger.Get()
	}
	f := &Fetcher{
		source: source,
		pacer:  SleepPacer(DefaultPause),
		now:    time.Now,
		log:    log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns up to maxCount text-bearing messages posted within the last
// daysBack days, in the order the platform returns them (newest first).
// Messages without text are skipped and do not count against maxCount.
// The shared connection is left open.
func (f *Fetcher) Fetch(ctx context.Context, identifier string, maxCount, daysBack int) ([]models.ChannelMessage, error) {
	messages := []models.ChannelMessage{}
	if maxCount <= 0 {
		return messages, nil
	}

	log := f.log.Channel(identifier)

	if err := f.source.Connect(ctx); err != nil {
		if errors.Is(err, telegram.ErrAuthenticationRequired) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: connect: %w", ErrFetch, err)
	}

	channel, err := f.source.ResolveChannel(ctx, identifier)
	if err != nil {
		if errors.Is(err, telegram.ErrChannelNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: resolve %s: %w", ErrFetch, identifier, err)
	}

	since := f.now().AddDate(0, 0, -daysBack)
	log.Info().Time("since", since).Int("limit", maxCount).Msg("fetching messages")

	offsetID := 0
	for {
		page, err := f.source.GetHistory(ctx, channel, offsetID, telegram.MaxHistoryLimit)
		if err != nil {
			return nil, fmt.Errorf("%w: history of %s: %w", ErrFetch, identifier, err)
		}
		if len(page) == 0 {
			break
		}

		for _, msg := range page {
			if msg.Date.Before(since) {
				log.Info().Int("count", len(messages)).Msg("reached end of time window")
				return messages, nil
			}
			if msg.Text == "" {
				continue
			}

			messages = append(messages, toChannelMessage(msg))
			if len(messages) == maxCount {
				log.Info().Int("count", len(messages)).Msg("reached message limit")
				return messages, nil
			}
			if len(messages)%PaceEvery == 0 {
				if err := f.pacer.Pause(ctx); err != nil {
					return nil, fmt.Errorf("%w: %w", ErrFetch, err)
				}
			}
		}

		next := page[len(page)-1].ID
		if offsetID != 0 && next >= offsetID {
			break
		}
		offsetID = next
	}

	log.Info().Int("count", len(messages)).Msg("history exhausted")
	return messages, nil
}

func toChannelMessage(msg telegram.Message) models.ChannelMessage {
	kind := msg.Media
	if kind == "" {
		kind = models.MediaNone
	}
	return models.ChannelMessage{
		ID:           msg.ID,
		Timestamp:    msg.Date,
		Text:         msg.Text,
		ViewCount:    msg.Views,
		ForwardCount: msg.Forwards,
		ReplyCount:   msg.Replies,
		HasMedia:     kind != models.MediaNone,
		MediaKind:    kind,
	}
}
