package models

import (
	"strings"
	"testing"
)

func validSignal() *Signal {
	return &Signal{
		Ticker:          "AAPL",
		PoliticianName:  "Nancy Pelosi",
		TransactionType: TransactionBuy,
		AmountRange:     "$1M-$5M",
		SignalDate:      "2024-03-14",
		Confidence:      0.9,
		RawMessage:      "Pelosi bought some calls",
	}
}

func TestSignalValidate(t *testing.T) {
	if err := validSignal().Validate(); err != nil {
		t.Fatalf("Valid signal rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Signal)
	}{
		{"empty ticker", func(s *Signal) { s.Ticker = "" }},
		{"unknown transaction type", func(s *Signal) { s.TransactionType = "HOLD" }},
		{"empty transaction type", func(s *Signal) { s.TransactionType = "" }},
		{"confidence above one", func(s *Signal) { s.Confidence = 1.2 }},
		{"negative confidence", func(s *Signal) { s.Confidence = -0.1 }},
		{"empty date", func(s *Signal) { s.SignalDate = "" }},
		{"oversized raw message", func(s *Signal) { s.RawMessage = strings.Repeat("x", MaxRawMessageLen+1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := validSignal()
			tt.mutate(sig)
			if err := sig.Validate(); err == nil {
				t.Error("Expected a validation error")
			}
		})
	}
}

func TestSignalValidateBoundaries(t *testing.T) {
	sig := validSignal()
	sig.Confidence = 0
	if err := sig.Validate(); err != nil {
		t.Errorf("Confidence 0 rejected: %v", err)
	}
	sig.Confidence = 1
	if err := sig.Validate(); err != nil {
		t.Errorf("Confidence 1 rejected: %v", err)
	}

	sig.RawMessage = strings.Repeat("x", MaxRawMessageLen)
	if err := sig.Validate(); err != nil {
		t.Errorf("Raw message at the cap rejected: %v", err)
	}

	sig.TransactionType = TransactionSell
	if err := sig.Validate(); err != nil {
		t.Errorf("SELL rejected: %v", err)
	}
}
