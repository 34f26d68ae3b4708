package telegram

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/celestix/gotgproto/storage"
	"github.com/gotd/td/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToGotgprotoSession_RoundTrip(t *testing.T) {
	input := &session.Data{
		DC:      2,
		Addr:    "1.2.3.4:443",
		AuthKey: []byte("test-key-32-bytes-long-abc-12345"),
	}

	sess, err := ConvertToGotgprotoSession(input)
	require.NoError(t, err)
	assert.Equal(t, storage.LatestVersion, sess.Version)

	var output session.Data
	require.NoError(t, json.Unmarshal(sess.Data, &output))
	assert.Equal(t, input.DC, output.DC)
	assert.Equal(t, input.Addr, output.Addr)
	assert.Equal(t, input.AuthKey, output.AuthKey)
}

func TestConvertToGotgprotoSession_Nil(t *testing.T) {
	_, err := ConvertToGotgprotoSession(nil)
	assert.Error(t, err)
}

func TestSaveSession_Upserts(t *testing.T) {
	db, err := OpenSessionDB(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	defer CloseSessionDB(db)

	assert.False(t, HasSession(db))

	require.NoError(t, SaveSession(db, &session.Data{DC: 1}))
	require.NoError(t, SaveSession(db, &session.Data{DC: 4}))

	assert.True(t, HasSession(db))

	var count int64
	require.NoError(t, db.Table("sessions").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
