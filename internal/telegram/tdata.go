package telegram

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gotd/td/session/tdesktop"
)

// DefaultTDataPath returns where Telegram Desktop keeps its data on this OS.
func DefaultTDataPath() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Telegram Desktop", "tdata")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Telegram Desktop", "tdata")
	default:
		return filepath.Join(home, ".local", "share", "TelegramDesktop", "tdata")
	}
}

// NormalizeTDataPath appends the tdata folder when path points at the
// Telegram Desktop installation directory.
func NormalizeTDataPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultTDataPath()
	}
	if filepath.Base(path) != "tdata" {
		return filepath.Join(path, "tdata")
	}
	return path
}

// TDataAccounts returns how many accounts the tdata folder holds.
func TDataAccounts(path string) (int, error) {
	accounts, err := tdesktop.Read(path, nil)
	if err != nil {
		return 0, fmt.Errorf("read tdata %s: %w", path, err)
	}
	return len(accounts), nil
}
