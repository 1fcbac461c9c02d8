package state

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store using an embedded SQLite database. It is a
// drop-in replacement for FileStore behind the same interface.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at dbPath, creating it and its schema
// if needed.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single active writer by contract
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS channels (
		channel_id INTEGER PRIMARY KEY,
		last_message_id INTEGER NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS counters (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// LastMessageID returns the watermark for a channel, or 0 when absent or
// unreadable.
func (s *SQLiteStore) LastMessageID(channelID int64) int64 {
	var id int64
	err := s.db.QueryRow(`
		SELECT last_message_id FROM channels WHERE channel_id = ?
	`, channelID).Scan(&id)
	if err != nil {
		return 0
	}
	return id
}

// SetLastMessageID overwrites the watermark for a channel.
func (s *SQLiteStore) SetLastMessageID(channelID, messageID int64) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO channels (channel_id, last_message_id, updated_at)
		VALUES (?, ?, ?)
	`, channelID, messageID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set watermark: %w", err)
	}
	return nil
}

// IncrementDelivered adds n to the lifetime delivered-signal counter.
func (s *SQLiteStore) IncrementDelivered(n int) error {
	_, err := s.db.Exec(`
		INSERT INTO counters (name, value) VALUES ('total_processed', ?)
		ON CONFLICT(name) DO UPDATE SET value = value + excluded.value
	`, n)
	if err != nil {
		return fmt.Errorf("failed to increment counter: %w", err)
	}
	return nil
}

// DeliveredCount returns the lifetime delivered-signal counter.
func (s *SQLiteStore) DeliveredCount() int64 {
	var value int64
	err := s.db.QueryRow(`
		SELECT value FROM counters WHERE name = 'total_processed'
	`).Scan(&value)
	if err != nil {
		return 0
	}
	return value
}

// Channels returns the watermark for every known channel.
func (s *SQLiteStore) Channels() map[int64]int64 {
	channels := make(map[int64]int64)

	rows, err := s.db.Query(`SELECT channel_id, last_message_id FROM channels`)
	if err != nil {
		return channels
	}
	defer rows.Close()

	for rows.Next() {
		var channelID, messageID int64
		if err := rows.Scan(&channelID, &messageID); err != nil {
			continue
		}
		channels[channelID] = messageID
	}

	return channels
}

// Reset clears the watermark for one channel, or all channels when
// channelID is 0.
func (s *SQLiteStore) Reset(channelID int64) error {
	var err error
	if channelID == 0 {
		_, err = s.db.Exec(`DELETE FROM channels`)
	} else {
		_, err = s.db.Exec(`DELETE FROM channels WHERE channel_id = ?`, channelID)
	}
	if err != nil {
		return fmt.Errorf("failed to reset watermark: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
