package telegram

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/celestix/gotgproto"
	gotgprotoerrors "github.com/celestix/gotgproto/errors"
	"github.com/gotd/td/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/blockedby/infocompass/internal/config"
)

type stubPrompter struct {
	answers []string
	asked   []string
}

func (p *stubPrompter) Prompt(label string) (string, error) {
	p.asked = append(p.asked, label)
	if len(p.answers) == 0 {
		return "", errors.New("no more answers")
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func countingFactory(calls *int, err error) ClientFactory {
	return func(ctx context.Context, cfg *config.Config, db *gorm.DB) (*gotgproto.Client, error) {
		*calls++
		if err != nil {
			return nil, err
		}
		return &gotgproto.Client{}, nil
	}
}

func TestManager_Connect_NoSessionNoPhone(t *testing.T) {
	m := newTestManager(t, &config.Config{TGApiID: 1, TGApiHash: "h"})
	calls := 0
	m.SetClientFactory(countingFactory(&calls, nil))

	err := m.Connect(context.Background())

	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Equal(t, StatusUnauthorized, m.GetStatus())
	assert.Zero(t, calls, "client must not be created without a session")
}

func TestManager_Connect_PhoneWithoutPrompter(t *testing.T) {
	m := newTestManager(t, &config.Config{TGApiID: 1, TGApiHash: "h", TGPhone: "+100"})
	calls := 0
	m.SetClientFactory(countingFactory(&calls, nil))

	err := m.Connect(context.Background())

	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Zero(t, calls)
}

func TestManager_Connect_SessionStringReusesConnection(t *testing.T) {
	m := newTestManager(t, &config.Config{TGApiID: 1, TGApiHash: "h", TGSessionStr: "session"})
	calls := 0
	m.SetClientFactory(countingFactory(&calls, nil))

	require.NoError(t, m.Connect(context.Background()))
	require.NoError(t, m.Connect(context.Background()))

	assert.Equal(t, 1, calls)
	assert.Equal(t, StatusReady, m.GetStatus())
	assert.NotNil(t, m.GetClient())
}

func TestManager_Connect_StoredSession(t *testing.T) {
	m := newTestManager(t, &config.Config{TGApiID: 1, TGApiHash: "h"})
	require.NoError(t, SaveSession(m.db, &session.Data{DC: 2, Addr: "1.2.3.4:443", AuthKey: []byte("key")}))
	calls := 0
	m.SetClientFactory(countingFactory(&calls, nil))

	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestManager_Connect_FactoryError(t *testing.T) {
	m := newTestManager(t, &config.Config{TGApiID: 1, TGApiHash: "h", TGSessionStr: "session"})
	calls := 0
	m.SetClientFactory(countingFactory(&calls, errors.New("dial failed")))

	err := m.Connect(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial failed")
	assert.Equal(t, StatusError, m.GetStatus())
	assert.Nil(t, m.GetClient())
}

func TestManager_Connect_RejectedSessionNeedsLogin(t *testing.T) {
	m := newTestManager(t, &config.Config{TGApiID: 1, TGApiHash: "h", TGSessionStr: "session"})
	calls := 0
	m.SetClientFactory(countingFactory(&calls, fmt.Errorf("auth: %w", gotgprotoerrors.ErrSessionUnauthorized)))

	err := m.Connect(context.Background())

	require.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Contains(t, err.Error(), "infocompass login")
	assert.Equal(t, StatusUnauthorized, m.GetStatus())
	assert.Nil(t, m.GetClient())
}

func TestManager_Connect_Canceled(t *testing.T) {
	m := newTestManager(t, &config.Config{TGApiID: 1, TGApiHash: "h", TGSessionStr: "session"})
	m.SetClientFactory(NewPersistentClient)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- m.Connect(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, StatusDisconnected, m.GetStatus())
		assert.Nil(t, m.GetClient())
	case <-time.After(2 * time.Second):
		t.Fatal("Connect did not return after ctx was canceled")
	}
}

func TestManager_Connect_PhoneLoginFactoryError(t *testing.T) {
	m := newTestManager(t, &config.Config{TGApiID: 1, TGApiHash: "h", TGPhone: "+100"})
	m.SetPrompter(&stubPrompter{})
	calls := 0
	m.SetClientFactory(countingFactory(&calls, nil))
	m.SetLoginClientFactory(func(cfg *config.Config) (*LoginBundle, error) {
		return nil, errors.New("factory reached")
	})

	err := m.Connect(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "factory reached")
	assert.Zero(t, calls)
	assert.Equal(t, StatusUnauthorized, m.GetStatus())
}

func TestManager_LoginQR_FactoryError(t *testing.T) {
	m := newTestManager(t, &config.Config{TGApiID: 1, TGApiHash: "h"})
	m.SetLoginClientFactory(func(cfg *config.Config) (*LoginBundle, error) {
		return nil, errors.New("factory reached")
	})

	var receivedURL string
	err := m.LoginQR(context.Background(), func(url string) { receivedURL = url })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "factory reached")
	assert.Empty(t, receivedURL)
}

func TestManager_ImportTData_MissingPath(t *testing.T) {
	m := newTestManager(t, &config.Config{})

	err := m.ImportTData(t.TempDir()+"/nope", 0)
	assert.Error(t, err)
	assert.False(t, HasSession(m.db))
}

func TestManager_Close_Graceful(t *testing.T) {
	m := newTestManager(t, &config.Config{})

	assert.NotPanics(t, func() {
		m.Close()
		m.Close()
	})
	assert.Equal(t, StatusDisconnected, m.GetStatus())
}

func TestTerminalAuth(t *testing.T) {
	p := &stubPrompter{answers: []string{" 12345 \n", "secret\n"}}
	a := terminalAuth{phone: "+100", prompter: p}
	ctx := context.Background()

	phone, err := a.Phone(ctx)
	require.NoError(t, err)
	assert.Equal(t, "+100", phone)

	code, err := a.Code(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "12345", code)

	pwd, err := a.Password(ctx)
	require.NoError(t, err)
	assert.Equal(t, "secret", pwd)

	_, err = a.SignUp(ctx)
	assert.Error(t, err)
	assert.Len(t, p.asked, 2)
}
