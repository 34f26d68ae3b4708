// Package pipeline runs fetch, persist, summarize and persist for a single
// channel, and the same sequence over a list of channels.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blockedby/infocompass/internal/logger"
	"github.com/blockedby/infocompass/internal/models"
	"github.com/blockedby/infocompass/internal/telegram"
)

// Stage names a step of the channel pipeline.
type Stage string

// Pipeline stages, in execution order.
const (
	StageFetch           Stage = "fetch"
	StagePersistMessages Stage = "persist_messages"
	StageSummarize       Stage = "summarize"
	StagePersistSummary  Stage = "persist_summary"
)

// StageError reports the stage at which a channel run failed.
type StageError struct {
	Channel string
	Stage   Stage
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Channel, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves messages for one channel.
type Fetcher interface {
	Fetch(ctx context.Context, identifier string, maxCount, daysBack int) ([]models.ChannelMessage, error)
}

// Store persists messages and summaries.
type Store interface {
	SaveMessages(msgs []models.ChannelMessage, channel string) (string, error)
	SaveSummary(summary, channel string) (string, error)
}

// Summarizer produces a digest of messages.
type Summarizer interface {
	Summarize(ctx context.Context, msgs []models.ChannelMessage, customPrompt string) (string, error)
}

// DigestEvent is published after a channel digest has been written.
type DigestEvent struct {
	RunID        uuid.UUID `json:"run_id"`
	Channel      string    `json:"channel"`
	MessagesFile string    `json:"messages_file"`
	SummaryFile  string    `json:"summary_file"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// EventPublisher announces finished digests.
type EventPublisher interface {
	PublishDigestReady(ctx context.Context, event DigestEvent) error
}

// ProgressFunc is called after each channel of a batch with its 1-based position.
type ProgressFunc func(index, total int, channel string, result *models.ChannelResult)

// Options are the per-run parameters shared by every channel of a batch.
type Options struct {
	MaxCount     int
	DaysBack     int
	CustomPrompt string
}

// DefaultOptions returns the defaults of the command line: 100 messages from the last day.
func DefaultOptions() Options {
	return Options{MaxCount: 100, DaysBack: 1}
}

// Pipeline wires the channel run stages together.
type Pipeline struct {
	fetcher    Fetcher
	store      Store
	summarizer Summarizer
	publisher  EventPublisher
	progress   ProgressFunc
	log        *logger.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPublisher publishes a DigestEvent after every finished channel.
func WithPublisher(p EventPublisher) Option {
	return func(pl *Pipeline) { pl.publisher = p }
}

// WithProgress reports batch progress.
func WithProgress(fn ProgressFunc) Option {
	return func(pl *Pipeline) { pl.progress = fn }
}

// New creates a pipeline.
func New(fetcher Fetcher, store Store, summarizer Summarizer, log *logger.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = logger.Get()
	}
	p := &Pipeline{
		fetcher:    fetcher,
		store:      store,
		summarizer: summarizer,
		log:        log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type runIDKey struct{}

// WithRunID attaches a run ID to ctx. Events and logs of that run carry it.
func WithRunID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run ID attached to ctx, or uuid.Nil.
func RunID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(runIDKey{}).(uuid.UUID)
	return id
}

// Process runs the pipeline for one channel. A channel that cannot be
// resolved or has no messages in the window yields an empty result and a
// nil error. Any other failure aborts the run with a *StageError.
func (p *Pipeline) Process(ctx context.Context, channel string, opts Options) (*models.ChannelResult, error) {
	runID := RunID(ctx)
	if runID == uuid.Nil {
		runID = uuid.New()
		ctx = WithRunID(ctx, runID)
	}
	log := p.log.Channel(channel)
	log.Logger = log.With().Str("run_id", runID.String()).Logger()

	msgs, err := p.fetcher.Fetch(ctx, channel, opts.MaxCount, opts.DaysBack)
	if err != nil {
		if errors.Is(err, telegram.ErrChannelNotFound) {
			log.Warn().Err(err).Msg("channel not accessible, check the name is correct and public")
			return &models.ChannelResult{}, nil
		}
		return nil, p.fail(log, channel, StageFetch, err)
	}
	if len(msgs) == 0 {
		log.Info().Msg("no messages in window")
		return &models.ChannelResult{}, nil
	}
	log.Info().Int("count", len(msgs)).Msg("messages fetched")

	messagesFile, err := p.store.SaveMessages(msgs, channel)
	if err != nil {
		return nil, p.fail(log, channel, StagePersistMessages, err)
	}

	summary, err := p.summarizer.Summarize(ctx, msgs, opts.CustomPrompt)
	if err != nil {
		return nil, p.fail(log, channel, StageSummarize, err)
	}

	summaryFile, err := p.store.SaveSummary(summary, channel)
	if err != nil {
		return nil, p.fail(log, channel, StagePersistSummary, err)
	}

	log.Info().Str("messages_file", messagesFile).Str("summary_file", summaryFile).Msg("channel processed")

	if p.publisher != nil {
		event := DigestEvent{
			RunID:        runID,
			Channel:      channel,
			MessagesFile: messagesFile,
			SummaryFile:  summaryFile,
			MessageCount: len(msgs),
			CreatedAt:    time.Now().UTC(),
		}
		if err := p.publisher.PublishDigestReady(ctx, event); err != nil {
			log.Warn().Err(err).Msg("failed to publish digest event")
		}
	}

	return &models.ChannelResult{
		MessagesFile: messagesFile,
		SummaryFile:  summaryFile,
		Summary:      summary,
	}, nil
}

func (p *Pipeline) fail(log *logger.Logger, channel string, stage Stage, err error) error {
	log.Error().Err(err).Str("stage", string(stage)).Msg("channel pipeline failed")
	return &StageError{Channel: channel, Stage: stage, Err: err}
}

// ProcessAll runs Process for each channel in order, one at a time. A failing
// channel is recorded with its error and the batch moves on. When ctx is
// canceled the remaining channels are left out of the result.
func (p *Pipeline) ProcessAll(ctx context.Context, channels []string, opts Options) *models.BatchResult {
	results := models.NewBatchResult()
	if len(channels) == 0 {
		p.log.Warn().Msg("no channels configured")
		return results
	}

	runID := uuid.New()
	ctx = WithRunID(ctx, runID)
	log := p.log.With().Str("run_id", runID.String()).Logger()
	log.Info().Int("channels", len(channels)).Msg("batch started")

	for i, channel := range channels {
		if ctx.Err() != nil {
			log.Warn().Int("remaining", len(channels)-i).Msg("batch interrupted")
			break
		}

		res, err := p.Process(ctx, channel, opts)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				log.Warn().Str("channel", channel).Msg("batch interrupted")
				break
			}
			res = &models.ChannelResult{Error: err.Error()}
		}
		results.Set(channel, *res)

		if p.progress != nil {
			p.progress(i+1, len(channels), channel, res)
		}
	}

	log.Info().
		Int("succeeded", len(results.Succeeded())).
		Int("empty", len(results.Empty())).
		Int("failed", len(results.Failed())).
		Msg("batch finished")

	return results
}
