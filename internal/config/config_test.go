package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	t.Setenv("DATA_DIR", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("LLM_BASE_URL", "")
	t.Setenv("TELEGRAM_CHANNELS", "")
	t.Setenv("CHANNELS_FILE", "")
	t.Setenv("FETCH_PAUSE_MS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "gemini-2.0-flash-lite", cfg.LLMModel)
	assert.Equal(t, DefaultLLMBaseURL, cfg.LLMBaseURL)
	assert.Equal(t, time.Second, cfg.FetchPause)
	assert.Empty(t, cfg.Channels)
}

func TestConfig_FromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_API_ID", "12345")
	t.Setenv("TELEGRAM_API_HASH", "hash")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("TELEGRAM_CHANNELS", " @alpha, @beta ,,")
	t.Setenv("CHANNELS_FILE", "")
	t.Setenv("DATA_DIR", "/custom/path")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12345, cfg.TGApiID)
	assert.Equal(t, []string{"@alpha", "@beta"}, cfg.Channels)
	assert.Equal(t, "/custom/path", cfg.DataDir)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ChannelsFileMerged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("channels:\n  - \"@beta\"\n  - \"@gamma\"\n  - \"  \"\n"), 0o644))

	t.Setenv("TELEGRAM_CHANNELS", "@alpha,@beta")
	t.Setenv("CHANNELS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"@alpha", "@beta", "@gamma"}, cfg.Channels)
}

func TestConfig_ChannelsFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("channels: [unclosed"), 0o644))

	t.Setenv("CHANNELS_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestConfig_ValidateListsMissing(t *testing.T) {
	cfg := &Config{TGApiHash: "hash"}

	err := cfg.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"TELEGRAM_API_ID", "GEMINI_API_KEY"}, verr.Missing)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestConfig_ValidateTelegramIgnoresLLMKey(t *testing.T) {
	cfg := &Config{TGApiID: 1, TGApiHash: "hash"}

	assert.NoError(t, cfg.ValidateTelegram())
	assert.Error(t, cfg.Validate())
}

func TestParseChannels(t *testing.T) {
	assert.Nil(t, ParseChannels(""))
	assert.Equal(t, []string{"@a"}, ParseChannels("@a"))
	assert.Equal(t, []string{"@a", "b"}, ParseChannels("@a, ,b"))
}

func TestWriteEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	err := WriteEnvFile(path, map[string]string{
		"TELEGRAM_API_ID":   "1",
		"TELEGRAM_API_HASH": "h",
		"GEMINI_API_KEY":    "k",
		"TELEGRAM_PHONE":    "",
		"TELEGRAM_CHANNELS": "@alpha,@beta",
	})
	require.NoError(t, err)

	got, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "1", got["TELEGRAM_API_ID"])
	assert.Equal(t, "@alpha,@beta", got["TELEGRAM_CHANNELS"])
	_, hasPhone := got["TELEGRAM_PHONE"]
	assert.False(t, hasPhone)
}

func TestWriteEnvFile_MissingRequired(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	err := WriteEnvFile(path, map[string]string{"TELEGRAM_API_ID": "1"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"TELEGRAM_API_HASH", "GEMINI_API_KEY"}, verr.Missing)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
