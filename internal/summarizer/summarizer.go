// Package summarizer turns a list of channel messages into a digest using
// a chat completion model.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blockedby/infocompass/internal/llm"
	"github.com/blockedby/infocompass/internal/logger"
	"github.com/blockedby/infocompass/internal/models"
)

// ErrSummarization wraps failed or empty completions.
var ErrSummarization = errors.New("summarization failed")

// Completer is the chat completion call the summarizer depends on.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Summarizer builds prompts from messages and asks the model for a digest.
type Summarizer struct {
	completer Completer
	prompt    *llm.PromptConfig
	language  string
	log       *logger.Logger
}

// New creates a summarizer. A nil prompt selects llm.DefaultPrompt.
func New(completer Completer, prompt *llm.PromptConfig, language string, log *logger.Logger) *Summarizer {
	if prompt == nil {
		prompt = llm.DefaultPrompt()
	}
	if language == "" {
		language = "English"
	}
	if log == nil {
		log = logger.Get()
	}
	return &Summarizer{
		completer: completer,
		prompt:    prompt,
		language:  language,
		log:       log,
	}
}

// BuildBody renders one paragraph per text-bearing message, in the given order.
func BuildBody(msgs []models.ChannelMessage) string {
	parts := make([]string, 0, len(msgs))
	for i, m := range msgs {
		if m.Text == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("Message %d (%s):\n%s", i+1, m.Timestamp.Format(time.RFC3339), m.Text))
	}
	return strings.Join(parts, "\n\n")
}

// BuildPrompt returns the system and user prompts for msgs. A custom prompt
// replaces the template and is followed by the message body.
func (s *Summarizer) BuildPrompt(msgs []models.ChannelMessage, customPrompt string) (system, user string) {
	body := BuildBody(msgs)
	if customPrompt != "" {
		return "", customPrompt + "\n\n" + body
	}
	return s.prompt.System, s.prompt.BuildUserPrompt(body, s.language)
}

// Summarize makes a single completion request for msgs.
func (s *Summarizer) Summarize(ctx context.Context, msgs []models.ChannelMessage, customPrompt string) (string, error) {
	system, user := s.BuildPrompt(msgs, customPrompt)

	start := time.Now()
	s.log.Info().Int("messages", len(msgs)).Bool("custom_prompt", customPrompt != "").Msg("generating summary")

	text, err := s.completer.Complete(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSummarization, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: model returned no text", ErrSummarization)
	}

	s.log.Info().Dur("took", time.Since(start)).Int("chars", len(text)).Msg("summary generated")
	return text, nil
}
