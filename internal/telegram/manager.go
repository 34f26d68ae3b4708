package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/celestix/gotgproto"
	gotgprotoerrors "github.com/celestix/gotgproto/errors"
	"github.com/gotd/td/session"
	"github.com/gotd/td/session/tdesktop"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/auth/qrlogin"
	"gorm.io/gorm"

	"github.com/blockedby/infocompass/internal/config"
	"github.com/blockedby/infocompass/internal/logger"
)

// Status represents the Telegram client status.
type Status string

// Status constants define the possible states of the Telegram client.
const (
	StatusDisconnected Status = "DISCONNECTED"
	StatusReady        Status = "READY"
	StatusUnauthorized Status = "UNAUTHORIZED"
	StatusError        Status = "ERROR"
)

// ClientFactory is a function that creates an authorized telegram client.
type ClientFactory func(ctx context.Context, cfg *config.Config, db *gorm.DB) (*gotgproto.Client, error)

// LoginClientFactory is a function that creates a raw telegram client for interactive logins.
type LoginClientFactory func(cfg *config.Config) (*LoginBundle, error)

// Manager owns the single shared Telegram connection. It is created lazily
// by Connect, reused by every channel fetch and released by Close.
type Manager struct {
	client *gotgproto.Client
	db     *gorm.DB
	cfg    *config.Config
	log    *logger.Logger

	status Status
	mu     sync.RWMutex

	// serializes Connect and the login flows
	connectMu sync.Mutex

	prompter           Prompter
	clientFactory      ClientFactory
	loginClientFactory LoginClientFactory

	loginInProgress atomic.Bool
}

// NewManager creates a new Telegram Manager. db stores the session.
func NewManager(cfg *config.Config, db *gorm.DB, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Get()
	}
	return &Manager{
		db:                 db,
		cfg:                cfg,
		log:                log,
		status:             StatusDisconnected,
		clientFactory:      NewPersistentClient,
		loginClientFactory: NewLoginClient,
	}
}

// SetClientFactory allows overriding the client creation logic (e.g. for testing).
func (m *Manager) SetClientFactory(f ClientFactory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clientFactory = f
}

// SetLoginClientFactory allows overriding the login client creation logic (e.g. for testing).
func (m *Manager) SetLoginClientFactory(f LoginClientFactory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginClientFactory = f
}

// SetPrompter enables interactive phone login. Without a prompter a missing
// session always fails with ErrAuthenticationRequired.
func (m *Manager) SetPrompter(p Prompter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompter = p
}

// GetStatus returns the current Telegram client status.
func (m *Manager) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// GetClient returns the underlying Telegram client, nil before Connect.
func (m *Manager) GetClient() *gotgproto.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

// Connect makes sure an authorized connection is active. It is a no-op
// when already connected. Without a stored session it runs the phone login
// when a phone number and a prompter are available, and fails with
// ErrAuthenticationRequired otherwise.
func (m *Manager) Connect(ctx context.Context) error {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	if m.GetClient() != nil {
		return nil
	}

	m.mu.RLock()
	factory := m.clientFactory
	prompter := m.prompter
	m.mu.RUnlock()

	if m.cfg.TGSessionStr == "" && !HasSession(m.db) {
		if m.cfg.TGPhone == "" || prompter == nil {
			m.log.Warn().Msg("telegram: no session and no phone number, cannot log in")
			m.setStatus(StatusUnauthorized)
			return fmt.Errorf("%w: set TELEGRAM_PHONE or run `infocompass login`", ErrAuthenticationRequired)
		}

		m.log.Info().Msg("telegram: no stored session, starting phone login")
		if err := m.loginPhone(ctx, prompter); err != nil {
			m.setStatus(StatusUnauthorized)
			return err
		}
	}

	m.log.Info().Msg("telegram: connecting")
	client, err := factory(ctx, m.cfg, m.db)
	if err != nil {
		if errors.Is(err, gotgprotoerrors.ErrSessionUnauthorized) || auth.IsUnauthorized(err) {
			m.setStatus(StatusUnauthorized)
			return fmt.Errorf("%w: stored session rejected, run `infocompass login`: %v", ErrAuthenticationRequired, err)
		}
		if ctx.Err() != nil {
			m.setStatus(StatusDisconnected)
			return ctx.Err()
		}
		m.setStatus(StatusError)
		return fmt.Errorf("connect telegram: %w", err)
	}

	m.mu.Lock()
	m.client = client
	m.status = StatusReady
	m.mu.Unlock()

	m.log.Info().Msg("telegram: client is ready")
	return nil
}

// LoginPhone runs the code (and 2FA) login for the configured phone number
// and stores the resulting session.
func (m *Manager) LoginPhone(ctx context.Context) error {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	m.mu.RLock()
	prompter := m.prompter
	m.mu.RUnlock()

	if m.cfg.TGPhone == "" || prompter == nil {
		return fmt.Errorf("%w: phone login needs TELEGRAM_PHONE and an interactive terminal", ErrAuthenticationRequired)
	}
	return m.loginPhone(ctx, prompter)
}

func (m *Manager) loginPhone(ctx context.Context, prompter Prompter) error {
	flow := auth.NewFlow(terminalAuth{phone: m.cfg.TGPhone, prompter: prompter}, auth.SendCodeOptions{})

	return m.runLogin(ctx, func(ctx context.Context, bundle *LoginBundle) error {
		if err := bundle.Client.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("phone auth: %w", err)
		}
		m.log.Info().Msg("telegram: phone login succeeded")
		return nil
	})
}

// LoginQR runs the QR login flow, calling onQRCode for every token the
// server issues. It blocks until the code is scanned or ctx is canceled.
func (m *Manager) LoginQR(ctx context.Context, onQRCode func(url string)) error {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	return m.runLogin(ctx, func(ctx context.Context, bundle *LoginBundle) error {
		qr := bundle.Client.QR()
		loggedIn := qrlogin.OnLoginToken(&bundle.Dispatcher)

		_, err := qr.Auth(ctx, loggedIn, func(_ context.Context, token qrlogin.Token) error {
			m.log.Info().Msg("telegram: QR token generated")
			onQRCode(token.URL())
			return nil
		})
		if err != nil {
			return fmt.Errorf("QR auth: %w", err)
		}
		m.log.Info().Msg("telegram: QR login succeeded")
		return nil
	})
}

// runLogin connects a raw login client, runs authorize and stores the
// captured session in the session database.
func (m *Manager) runLogin(ctx context.Context, authorize func(ctx context.Context, bundle *LoginBundle) error) error {
	if !m.loginInProgress.CompareAndSwap(false, true) {
		return errors.New("login already in progress")
	}
	defer m.loginInProgress.Store(false)

	m.mu.RLock()
	factory := m.loginClientFactory
	m.mu.RUnlock()

	bundle, err := factory(m.cfg)
	if err != nil {
		return fmt.Errorf("create login client: %w", err)
	}

	var data *session.Data
	err = bundle.Client.Run(ctx, func(ctx context.Context) error {
		if err := authorize(ctx, bundle); err != nil {
			return err
		}

		loader := session.Loader{Storage: bundle.Storage}
		var loadErr error
		data, loadErr = loader.Load(ctx)
		return loadErr
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return context.Canceled
		}
		return fmt.Errorf("%w: %v", ErrAuthenticationRequired, err)
	}

	if err := SaveSession(m.db, data); err != nil {
		return err
	}
	m.log.Info().Msg("telegram: session saved")
	return nil
}

// ImportTData copies the session of a Telegram Desktop account into the
// session database. index selects the account when tdata holds several.
func (m *Manager) ImportTData(tdataPath string, index int) error {
	accounts, err := tdesktop.Read(tdataPath, nil)
	if err != nil {
		return fmt.Errorf("read tdata %s: %w", tdataPath, err)
	}
	if len(accounts) == 0 {
		return fmt.Errorf("no accounts found in %s", tdataPath)
	}
	if index < 0 || index >= len(accounts) {
		return fmt.Errorf("account index %d out of range (found %d)", index+1, len(accounts))
	}

	data, err := session.TDesktopSession(accounts[index])
	if err != nil {
		return fmt.Errorf("convert tdata session: %w", err)
	}

	if err := SaveSession(m.db, data); err != nil {
		return err
	}
	m.log.Info().Str("path", tdataPath).Msg("telegram: imported telegram desktop session")
	return nil
}

// ExportSession connects and returns the current session as a string
// suitable for TELEGRAM_SESSION_STRING.
func (m *Manager) ExportSession(ctx context.Context) (string, error) {
	if err := m.Connect(ctx); err != nil {
		return "", err
	}
	s, err := m.GetClient().ExportStringSession()
	if err != nil {
		return "", fmt.Errorf("export session: %w", err)
	}
	return s, nil
}

// Close stops the Telegram client. Safe to call more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		m.log.Info().Msg("telegram: disconnecting")
		m.client.Stop()
		m.client = nil
	}
	m.status = StatusDisconnected
}
