// Package models provides domain models for the signal harvesting pipeline.
package models

import (
	"fmt"
	"time"
)

// TransactionType represents the direction of a disclosed trade.
type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

// MaxRawMessageLen is the maximum number of characters of original message
// text retained on a signal. Longer text is truncated silently.
const MaxRawMessageLen = 500

// Message represents a single channel message pulled from the source.
// IDs are unique per channel and strictly increasing over the channel's
// history, though not necessarily contiguous.
type Message struct {
	ID   int64
	Text string
	Date time.Time
}

// Channel represents a resolved message-source channel.
type Channel struct {
	ID    int64
	Title string
}

// Signal represents a validated trading disclosure extracted from a message.
// A Signal is only ever constructed with a non-empty ticker and a
// transaction type of BUY or SELL; anything else is "no signal".
type Signal struct {
	Ticker          string
	PoliticianName  string
	TransactionType TransactionType
	AmountRange     string
	SignalDate      string // ISO date, YYYY-MM-DD
	Confidence      float64
	RawMessage      string
}

// Validate checks the construction invariants of a signal.
func (s *Signal) Validate() error {
	if s.Ticker == "" {
		return fmt.Errorf("signal has empty ticker")
	}
	if s.TransactionType != TransactionBuy && s.TransactionType != TransactionSell {
		return fmt.Errorf("invalid transaction type: %s (must be BUY or SELL)", s.TransactionType)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("confidence %.3f out of range [0, 1]", s.Confidence)
	}
	if s.SignalDate == "" {
		return fmt.Errorf("signal has empty date")
	}
	if len([]rune(s.RawMessage)) > MaxRawMessageLen {
		return fmt.Errorf("raw message exceeds %d characters", MaxRawMessageLen)
	}
	return nil
}
