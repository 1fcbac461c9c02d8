package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
)

// fileState is the on-disk layout of the watermark file.
type fileState struct {
	Channels       map[string]channelState `json:"channels"`
	TotalProcessed int64                   `json:"total_processed"`
}

type channelState struct {
	LastMessageID int64 `json:"last_message_id"`
}

// FileStore persists watermarks in a single JSON file, rewritten wholesale
// on every update. An unreadable or corrupt file degrades to empty state so
// the next run performs a full implicit rescan instead of crashing.
type FileStore struct {
	path   string
	logger zerolog.Logger
}

// NewFileStore creates a store backed by the JSON file at path. The file is
// created lazily on first write.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger,
	}
}

func (s *FileStore) load() fileState {
	st := fileState{Channels: make(map[string]channelState)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.path).
				Msg("Could not read state file, using empty state")
		}
		return st
	}

	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).
			Msg("Could not parse state file, using empty state")
		return fileState{Channels: make(map[string]channelState)}
	}
	if st.Channels == nil {
		st.Channels = make(map[string]channelState)
	}
	return st
}

func (s *FileStore) save(st fileState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0644)
}

func channelKey(channelID int64) string {
	return strconv.FormatInt(channelID, 10)
}

// LastMessageID returns the watermark for a channel, or 0 when absent.
func (s *FileStore) LastMessageID(channelID int64) int64 {
	st := s.load()
	return st.Channels[channelKey(channelID)].LastMessageID
}

// SetLastMessageID overwrites the watermark for a channel.
func (s *FileStore) SetLastMessageID(channelID, messageID int64) error {
	st := s.load()
	st.Channels[channelKey(channelID)] = channelState{LastMessageID: messageID}
	return s.save(st)
}

// IncrementDelivered adds n to the lifetime delivered-signal counter.
func (s *FileStore) IncrementDelivered(n int) error {
	st := s.load()
	st.TotalProcessed += int64(n)
	return s.save(st)
}

// DeliveredCount returns the lifetime delivered-signal counter.
func (s *FileStore) DeliveredCount() int64 {
	return s.load().TotalProcessed
}

// Channels returns the watermark for every known channel.
func (s *FileStore) Channels() map[int64]int64 {
	st := s.load()
	channels := make(map[int64]int64, len(st.Channels))
	for key, ch := range st.Channels {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		channels[id] = ch.LastMessageID
	}
	return channels
}

// Reset clears the watermark for one channel, or all channels when
// channelID is 0.
func (s *FileStore) Reset(channelID int64) error {
	st := s.load()
	if channelID == 0 {
		st.Channels = make(map[string]channelState)
	} else {
		delete(st.Channels, channelKey(channelID))
	}
	return s.save(st)
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
