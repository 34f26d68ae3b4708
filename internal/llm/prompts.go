package llm

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// Placeholders substituted into prompt templates.
const (
	MessagesPlaceholder = "{{MESSAGES}}"
	LanguagePlaceholder = "{{LANGUAGE}}"
)

// PromptConfig represents a prompt loaded from an XML file.
// It contains the system prompt and the user prompt template.
type PromptConfig struct {
	XMLName xml.Name `xml:"prompt"`
	System  string   `xml:"system"`
	User    string   `xml:"user"`
}

const defaultSystemPrompt = `You are an analyst who writes concise digests of Telegram channels.`

const defaultUserPrompt = `Summarize and analyze the following Telegram channel messages.

Tasks:
1. Extract the main topics and key information
2. Analyze trends and the most important content
3. Identify notable news, events or discussions
4. Give a short, clear summary

Messages:
{{MESSAGES}}

Answer in {{LANGUAGE}}, formatted, and include:
- Main topics
- Key facts
- Notable events and news
- Overall trend`

// DefaultPrompt returns the built-in digest prompt.
func DefaultPrompt() *PromptConfig {
	return &PromptConfig{
		System: defaultSystemPrompt,
		User:   defaultUserPrompt,
	}
}

// LoadPrompt reads and parses a prompt configuration from an XML file.
func LoadPrompt(filepath string) (*PromptConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("read prompt file: %w", err)
	}

	var config PromptConfig
	if err := xml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse prompt xml: %w", err)
	}
	if !strings.Contains(config.User, MessagesPlaceholder) {
		return nil, fmt.Errorf("prompt file %s: user template has no %s placeholder", filepath, MessagesPlaceholder)
	}

	config.System = strings.TrimSpace(config.System)
	config.User = strings.TrimSpace(config.User)
	return &config, nil
}

// BuildUserPrompt fills the user template with the message digest and the answer language.
func (p *PromptConfig) BuildUserPrompt(messages, language string) string {
	return strings.NewReplacer(
		MessagesPlaceholder, messages,
		LanguagePlaceholder, language,
	).Replace(p.User)
}
