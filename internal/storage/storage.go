// Package storage writes fetched messages and generated summaries to the
// local data directory.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/blockedby/infocompass/internal/logger"
	"github.com/blockedby/infocompass/internal/models"
)

// ErrPersistence wraps every failure to read or write a local file.
var ErrPersistence = errors.New("persistence failed")

const (
	// FileTimeLayout is the timestamp embedded in file names.
	FileTimeLayout = "20060102_150405"
	// HeaderTimeLayout is the timestamp written into summary headers.
	HeaderTimeLayout = "2006-01-02 15:04:05"

	// how many suffixes to try before giving up on a name
	maxCollisions = 1000
)

var unsafeChars = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

// Store saves files under a single directory. Files are never overwritten.
type Store struct {
	dir string
	now func() time.Time
	log *logger.Logger
}

// New creates a store rooted at dir. The directory is not created; call EnsureDir.
func New(dir string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Get()
	}
	return &Store{dir: dir, now: time.Now, log: log}
}

// WithClock replaces time.Now, used for file names and summary headers.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// EnsureDir creates the output directory if it doesn't exist.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("%w: create data directory %s: %w", ErrPersistence, s.dir, err)
	}
	return nil
}

const fallbackChannelName = "channel"

// ChannelName turns a channel identifier into a file name fragment:
// the leading @ is dropped and path-unsafe characters become underscores.
// An identifier with nothing left after that becomes "channel".
func ChannelName(identifier string) string {
	name := strings.TrimPrefix(strings.TrimSpace(identifier), "@")
	name = unsafeChars.Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	if name == "" {
		return fallbackChannelName
	}
	return name
}

// SaveMessages writes msgs as an indented JSON array and returns the file path.
func (s *Store) SaveMessages(msgs []models.ChannelMessage, channel string) (string, error) {
	if msgs == nil {
		msgs = []models.ChannelMessage{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(msgs); err != nil {
		return "", fmt.Errorf("%w: encode messages: %w", ErrPersistence, err)
	}

	base := fmt.Sprintf("%s_%s", ChannelName(channel), s.now().Format(FileTimeLayout))
	path, err := s.create(base, ".json", buf.Bytes())
	if err != nil {
		return "", err
	}

	s.log.Channel(channel).Info().Str("path", path).Int("count", len(msgs)).Msg("messages saved")
	return path, nil
}

// SaveSummary writes summary as a Markdown document with a header and
// returns the file path.
func (s *Store) SaveSummary(summary, channel string) (string, error) {
	now := s.now()
	name := ChannelName(channel)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s channel summary\n\n", name)
	fmt.Fprintf(&b, "Generated at: %s\n\n", now.Format(HeaderTimeLayout))
	b.WriteString("---\n\n")
	b.WriteString(summary)

	base := fmt.Sprintf("%s_summary_%s", name, now.Format(FileTimeLayout))
	path, err := s.create(base, ".md", []byte(b.String()))
	if err != nil {
		return "", err
	}

	s.log.Channel(channel).Info().Str("path", path).Msg("summary saved")
	return path, nil
}

// LoadMessages reads a messages file written by SaveMessages.
func LoadMessages(path string) ([]models.ChannelMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrPersistence, path, err)
	}

	var msgs []models.ChannelMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrPersistence, path, err)
	}
	return msgs, nil
}

// writeFile is replaced in tests to simulate a full disk.
var writeFile = func(f *os.File, data []byte) error {
	_, err := f.Write(data)
	return err
}

// create writes data to a new file named base+ext, appending _1, _2, ...
// to base while the name is taken.
func (s *Store) create(base, ext string, data []byte) (string, error) {
	for i := 0; i < maxCollisions; i++ {
		name := base
		if i > 0 {
			name += "_" + strconv.Itoa(i)
		}
		path := filepath.Join(s.dir, name+ext)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: create %s: %w", ErrPersistence, path, err)
		}

		if err := writeFile(f, data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("%w: write %s: %w", ErrPersistence, path, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("%w: close %s: %w", ErrPersistence, path, err)
		}
		return path, nil
	}
	return "", fmt.Errorf("%w: no free file name for %s%s", ErrPersistence, base, ext)
}
