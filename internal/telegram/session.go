package telegram

import (
	"encoding/json"
	"fmt"

	"github.com/celestix/gotgproto/storage"
	"github.com/glebarez/sqlite"
	"github.com/gotd/td/session"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenSessionDB opens (creating if needed) the sqlite file holding the
// gotgproto session.
func OpenSessionDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open session db %s: %w", path, err)
	}
	return db, nil
}

// CloseSessionDB releases the underlying sql connection.
func CloseSessionDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HasSession reports whether the session table holds a stored session.
// A missing table counts as no session.
func HasSession(db *gorm.DB) bool {
	if db == nil {
		return false
	}
	var count int64
	if err := db.Table("sessions").Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

// SaveSession stores gotd session data where gotgproto's SqlSession finds it.
func SaveSession(db *gorm.DB, data *session.Data) error {
	sess, err := ConvertToGotgprotoSession(data)
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(&storage.Session{}); err != nil {
		return fmt.Errorf("migrate session table: %w", err)
	}

	// Version is the primary key, so Save upserts the single row.
	if err := db.Save(sess).Error; err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// ConvertToGotgprotoSession converts gotd session.Data to gotgproto storage.Session.
// gotgproto expects the raw JSON bytes of session.Data in its storage.Session.Data field.
func ConvertToGotgprotoSession(data *session.Data) (*storage.Session, error) {
	if data == nil {
		return nil, fmt.Errorf("session data is nil")
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal session data: %w", err)
	}

	return &storage.Session{
		Version: storage.LatestVersion,
		Data:    dataJSON,
	}, nil
}
