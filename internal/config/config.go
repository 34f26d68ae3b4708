// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultLLMBaseURL is the OpenAI-compatible endpoint of the Gemini API.
const DefaultLLMBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// Config holds all application configuration.
type Config struct {
	// telegram
	TGApiID       int
	TGApiHash     string
	TGPhone       string
	TGSessionStr  string
	TGSessionFile string
	Channels      []string
	ChannelsFile  string

	// llm
	LLMBaseURL      string
	LLMModel        string
	LLMAPIKey       string
	LLMMaxTokens    int
	LLMTemperature  float64
	LLMTimeoutSec   int
	SummaryLanguage string
	PromptFile      string

	// fetching and output
	DataDir    string
	FetchPause time.Duration

	// optional event bus
	NatsURL string

	// scheduling
	Schedule string

	// logging
	LogLevel string
	LogFile  string
}

// ValidationError reports every required variable that is missing.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Missing, ", ")
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// a missing .env is fine, the environment may already be populated
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		TGApiID:         getEnvInt("TELEGRAM_API_ID", 0),
		TGApiHash:       getEnv("TELEGRAM_API_HASH", ""),
		TGPhone:         getEnv("TELEGRAM_PHONE", ""),
		TGSessionStr:    getEnv("TELEGRAM_SESSION_STRING", ""),
		TGSessionFile:   getEnv("TELEGRAM_SESSION_FILE", "infocompass_session.db"),
		Channels:        ParseChannels(getEnv("TELEGRAM_CHANNELS", "")),
		ChannelsFile:    getEnv("CHANNELS_FILE", ""),
		LLMBaseURL:      getEnv("LLM_BASE_URL", DefaultLLMBaseURL),
		LLMModel:        getEnv("LLM_MODEL", "gemini-2.0-flash-lite"),
		LLMAPIKey:       getEnv("GEMINI_API_KEY", ""),
		LLMMaxTokens:    getEnvInt("LLM_MAX_TOKENS", 2048),
		LLMTemperature:  getEnvFloat("LLM_TEMPERATURE", 0.3),
		LLMTimeoutSec:   getEnvInt("LLM_TIMEOUT_SECONDS", 120),
		SummaryLanguage: getEnv("SUMMARY_LANGUAGE", "English"),
		PromptFile:      getEnv("PROMPT_FILE", ""),
		DataDir:         getEnv("DATA_DIR", "data"),
		FetchPause:      time.Duration(getEnvInt("FETCH_PAUSE_MS", 1000)) * time.Millisecond,
		NatsURL:         getEnv("NATS_URL", ""),
		Schedule:        getEnv("SCHEDULE", "0 8 * * *"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         getEnv("LOG_FILE", "infocompass.log"),
	}

	if cfg.ChannelsFile != "" {
		extra, err := LoadChannelsFile(cfg.ChannelsFile)
		if err != nil {
			return nil, err
		}
		cfg.Channels = mergeChannels(cfg.Channels, extra)
	}

	return cfg, nil
}

// Validate checks that every credential needed to talk to Telegram and
// the summarization API is present.
func (c *Config) Validate() error {
	return c.validate(true)
}

// ValidateTelegram checks only the Telegram credentials, for commands that
// never call the summarization API.
func (c *Config) ValidateTelegram() error {
	return c.validate(false)
}

func (c *Config) validate(withLLM bool) error {
	var missing []string
	if c.TGApiID == 0 {
		missing = append(missing, "TELEGRAM_API_ID")
	}
	if c.TGApiHash == "" {
		missing = append(missing, "TELEGRAM_API_HASH")
	}
	if withLLM && c.LLMAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// ParseChannels splits a comma separated channel list, dropping blanks.
func ParseChannels(raw string) []string {
	var out []string
	for _, ch := range strings.Split(raw, ",") {
		if ch = strings.TrimSpace(ch); ch != "" {
			out = append(out, ch)
		}
	}
	return out
}

type channelsFile struct {
	Channels []string `yaml:"channels"`
}

// LoadChannelsFile reads a YAML document of the form `channels: [...]`.
func LoadChannelsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read channels file: %w", err)
	}

	var f channelsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse channels file %s: %w", path, err)
	}

	var out []string
	for _, ch := range f.Channels {
		if ch = strings.TrimSpace(ch); ch != "" {
			out = append(out, ch)
		}
	}
	return out, nil
}

// mergeChannels appends extra to base keeping the first occurrence of each channel.
func mergeChannels(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, ch := range append(append([]string{}, base...), extra...) {
		if seen[ch] {
			continue
		}
		seen[ch] = true
		out = append(out, ch)
	}
	return out
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
