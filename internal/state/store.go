// Package state provides watermark persistence for incremental runs.
package state

import (
	"github.com/rs/zerolog"
)

// Store tracks the last processed message ID per channel plus a lifetime
// counter of delivered signals. Implementations assume a single active
// writer; concurrent pipeline runs against the same store will race.
type Store interface {
	// LastMessageID returns the last processed message ID for a channel,
	// or 0 when no prior state exists. A read failure degrades to 0.
	LastMessageID(channelID int64) int64

	// SetLastMessageID overwrites the watermark for a channel. The caller
	// is responsible for only passing values >= the previous watermark.
	SetLastMessageID(channelID, messageID int64) error

	// IncrementDelivered adds n to the lifetime delivered-signal counter.
	IncrementDelivered(n int) error

	// DeliveredCount returns the lifetime delivered-signal counter.
	DeliveredCount() int64

	// Channels returns the watermark for every known channel.
	Channels() map[int64]int64

	// Reset clears the watermark for one channel, or for all channels when
	// channelID is 0. The lifetime counter is preserved.
	Reset(channelID int64) error

	// Close releases underlying resources.
	Close() error
}

// Open creates a Store for the configured backend.
func Open(backend, path string, logger zerolog.Logger) (Store, error) {
	if backend == "sqlite" {
		return NewSQLiteStore(path)
	}
	return NewFileStore(path, logger), nil
}
