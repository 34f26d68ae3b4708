package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/blockedby/infocompass/internal/config"
	"github.com/blockedby/infocompass/internal/fetcher"
	"github.com/blockedby/infocompass/internal/llm"
	"github.com/blockedby/infocompass/internal/logger"
	"github.com/blockedby/infocompass/internal/models"
	"github.com/blockedby/infocompass/internal/nats"
	"github.com/blockedby/infocompass/internal/pipeline"
	"github.com/blockedby/infocompass/internal/publisher"
	"github.com/blockedby/infocompass/internal/storage"
	"github.com/blockedby/infocompass/internal/summarizer"
	"github.com/blockedby/infocompass/internal/telegram"
)

// Runner runs the channel pipeline.
type Runner interface {
	Process(ctx context.Context, channel string, opts pipeline.Options) (*models.ChannelResult, error)
	ProcessAll(ctx context.Context, channels []string, opts pipeline.Options) *models.BatchResult
}

// ChannelChecker resolves channels without fetching history.
type ChannelChecker interface {
	Connect(ctx context.Context) error
	GetStatus() telegram.Status
	ChannelExists(ctx context.Context, identifier string) (bool, error)
}

// Runtime holds everything a command needs. Close releases the Telegram
// connection and the session database.
type Runtime struct {
	Config   *config.Config
	Log      *logger.Logger
	Telegram *telegram.Manager
	Checker  ChannelChecker
	Pipeline Runner

	client  *telegram.Client
	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// OpenRuntime builds the full pipeline. Replaced in tests.
var OpenRuntime = openRuntime

// OpenTelegram builds only the Telegram side. Replaced in tests.
var OpenTelegram = func(_ context.Context) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateTelegram(); err != nil {
		return nil, err
	}
	return openTelegram(cfg)
}

func openTelegram(cfg *config.Config) (*Runtime, error) {
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log := logger.Get()

	db, err := telegram.OpenSessionDB(cfg.TGSessionFile)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Config: cfg, Log: log}
	rt.closers = append(rt.closers, func() {
		if err := telegram.CloseSessionDB(db); err != nil {
			log.Warn().Err(err).Msg("failed to close session database")
		}
	})

	tgLog := log.Component("telegram")
	mgr := telegram.NewManager(cfg, db, tgLog)
	mgr.SetPrompter(stdinPrompter())
	rt.Telegram = mgr
	rt.closers = append(rt.closers, mgr.Close)

	rt.client = telegram.NewClient(mgr, tgLog)
	rt.Checker = rt.client
	return rt, nil
}

func openRuntime(ctx context.Context) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var prompt *llm.PromptConfig
	if cfg.PromptFile != "" {
		if prompt, err = llm.LoadPrompt(cfg.PromptFile); err != nil {
			return nil, err
		}
	}

	rt, err := openTelegram(cfg)
	if err != nil {
		return nil, err
	}
	log := rt.Log

	store := storage.New(cfg.DataDir, log.Component("storage"))
	if err := store.EnsureDir(); err != nil {
		rt.Close()
		return nil, err
	}

	f := fetcher.New(rt.client, log.Component("fetcher"), fetcher.WithPacer(fetcher.SleepPacer(cfg.FetchPause)))

	llmClient := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		APIKey:      cfg.LLMAPIKey,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: float32(cfg.LLMTemperature),
		Timeout:     secondsDuration(cfg.LLMTimeoutSec),
	})
	sum := summarizer.New(llmClient, prompt, cfg.SummaryLanguage, log.Component("summarizer"))

	opts := []pipeline.Option{pipeline.WithProgress(printProgress(os.Stderr))}
	if cfg.NatsURL != "" {
		if pub, closeFn, err := openPublisher(ctx, cfg.NatsURL); err != nil {
			log.Warn().Err(err).Msg("nats unavailable, digest events disabled")
		} else {
			opts = append(opts, pipeline.WithPublisher(pub))
			rt.closers = append(rt.closers, closeFn)
		}
	}

	rt.Pipeline = pipeline.New(f, store, sum, log.Component("pipeline"), opts...)
	return rt, nil
}

func openPublisher(ctx context.Context, url string) (pipeline.EventPublisher, func(), error) {
	nc, err := nats.New(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	if err := nc.EnsureDigestStream(ctx); err != nil {
		nc.Close()
		return nil, nil, err
	}
	return publisher.NewNATSPublisher(nc), nc.Close, nil
}

func secondsDuration(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func printProgress(w io.Writer) pipeline.ProgressFunc {
	return func(index, total int, channel string, result *models.ChannelResult) {
		fmt.Fprintf(w, "[%d/%d] %s %s\n", index, total, channel, statusLabel(result))
	}
}
