package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOptions_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	l, err := NewWithOptions(Options{Level: "debug", File: path})
	require.NoError(t, err)

	l.Channel("@alpha").Info().Str("stage", "fetch").Msg("fetched")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"channel":"@alpha"`)
	assert.Contains(t, string(data), `"stage":"fetch"`)
}

func TestNewWithOptions_LevelFilter(t *testing.T) {
	var buf bytes.Buffer

	l, err := NewWithOptions(Options{Level: "warn", Console: &buf})
	require.NoError(t, err)

	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewWithOptions_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer

	l, err := NewWithOptions(Options{Level: "loud", Console: &buf})
	require.NoError(t, err)

	l.Debug().Msg("debug line")
	l.Info().Msg("info line")

	assert.NotContains(t, buf.String(), "debug line")
	assert.Contains(t, buf.String(), "info line")
}

func TestGet_NopWhenUninitialized(t *testing.T) {
	prev := Global
	Global = nil
	defer func() { Global = prev }()

	assert.NotPanics(t, func() {
		Get().Info().Msg("dropped")
	})
}

func TestInit_SetsGlobal(t *testing.T) {
	prev := Global
	defer func() { Global = prev }()

	require.NoError(t, Init("debug", filepath.Join(t.TempDir(), "app.log")))
	assert.NotNil(t, Global)
	assert.Same(t, Global, Get())
}
