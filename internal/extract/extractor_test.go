package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/bluzername/telegram-financial-harvester/internal/errors"
	"github.com/bluzername/telegram-financial-harvester/internal/models"
)

// fakeLLM returns a canned response or error without a network call.
type fakeLLM struct {
	resp string
	err  error
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return f.resp, f.err
}

var testSentAt = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

func newTestExtractor(resp string) *Extractor {
	return New(&fakeLLM{resp: resp}, zerolog.Nop())
}

func TestExtractCleanSignal(t *testing.T) {
	resp := `{
		"is_signal": true,
		"ticker": "AAPL",
		"politician_name": "Nancy Pelosi",
		"transaction_type": "BUY",
		"amount_range": "$1M-$5M",
		"signal_date": "2024-03-14",
		"confidence": 0.9
	}`
	e := newTestExtractor(resp)

	sig, err := e.Extract(context.Background(), "Pelosi bought AAPL calls", testSentAt)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if sig == nil {
		t.Fatal("Expected a signal, got nil")
	}
	if sig.Ticker != "AAPL" {
		t.Errorf("Ticker = %q, want AAPL", sig.Ticker)
	}
	if sig.PoliticianName != "Nancy Pelosi" {
		t.Errorf("PoliticianName = %q, want Nancy Pelosi", sig.PoliticianName)
	}
	if sig.TransactionType != models.TransactionBuy {
		t.Errorf("TransactionType = %q, want BUY", sig.TransactionType)
	}
	if sig.AmountRange != "$1M-$5M" {
		t.Errorf("AmountRange = %q, want $1M-$5M", sig.AmountRange)
	}
	if sig.SignalDate != "2024-03-14" {
		t.Errorf("SignalDate = %q, want 2024-03-14", sig.SignalDate)
	}
	if sig.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", sig.Confidence)
	}
	if sig.RawMessage != "Pelosi bought AAPL calls" {
		t.Errorf("RawMessage = %q, want the original text", sig.RawMessage)
	}
	if err := sig.Validate(); err != nil {
		t.Errorf("Extracted signal failed validation: %v", err)
	}
}

func TestExtractFencedResponse(t *testing.T) {
	resp := "Here is the extraction:\n```json\n" +
		`{"is_signal": true, "ticker": "MSFT", "transaction_type": "SELL", "confidence": 0.7}` +
		"\n```\nLet me know if you need anything else."
	e := newTestExtractor(resp)

	sig, err := e.Extract(context.Background(), "some message", testSentAt)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if sig == nil {
		t.Fatal("Expected a signal from fenced response, got nil")
	}
	if sig.Ticker != "MSFT" || sig.TransactionType != models.TransactionSell {
		t.Errorf("Got %s/%s, want MSFT/SELL", sig.Ticker, sig.TransactionType)
	}
}

func TestExtractNonSignal(t *testing.T) {
	e := newTestExtractor(`{"is_signal": false}`)

	sig, err := e.Extract(context.Background(), "good morning everyone", testSentAt)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if sig != nil {
		t.Errorf("Expected nil signal for a non-signal message, got %+v", sig)
	}
}

func TestExtractMalformedResponse(t *testing.T) {
	e := newTestExtractor("I cannot help with that request.")

	sig, err := e.Extract(context.Background(), "whatever", testSentAt)
	if sig != nil {
		t.Errorf("Expected nil signal, got %+v", sig)
	}
	if !errors.Is(err, apperrors.ErrMalformedResponse) {
		t.Errorf("Expected ErrMalformedResponse, got %v", err)
	}
}

func TestExtractLLMError(t *testing.T) {
	wantErr := errors.New("upstream unavailable")
	e := New(&fakeLLM{err: wantErr}, zerolog.Nop())

	sig, err := e.Extract(context.Background(), "whatever", testSentAt)
	if sig != nil {
		t.Errorf("Expected nil signal, got %+v", sig)
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected the LLM error to pass through, got %v", err)
	}
}

func TestExtractValidation(t *testing.T) {
	tests := []struct {
		name    string
		resp    string
		wantNil bool
		check   func(t *testing.T, sig *models.Signal)
	}{
		{
			name:    "missing ticker rejects",
			resp:    `{"is_signal": true, "transaction_type": "BUY"}`,
			wantNil: true,
		},
		{
			name:    "whitespace ticker rejects",
			resp:    `{"ticker": "   ", "transaction_type": "BUY"}`,
			wantNil: true,
		},
		{
			name: "lowercase ticker is uppercased",
			resp: `{"ticker": " aapl ", "transaction_type": "BUY"}`,
			check: func(t *testing.T, sig *models.Signal) {
				if sig.Ticker != "AAPL" {
					t.Errorf("Ticker = %q, want AAPL", sig.Ticker)
				}
			},
		},
		{
			name:    "unknown transaction type rejects",
			resp:    `{"ticker": "AAPL", "transaction_type": "HOLD"}`,
			wantNil: true,
		},
		{
			name:    "missing transaction type rejects",
			resp:    `{"ticker": "AAPL"}`,
			wantNil: true,
		},
		{
			name: "lowercase transaction type is normalized",
			resp: `{"ticker": "AAPL", "transaction_type": "sell"}`,
			check: func(t *testing.T, sig *models.Signal) {
				if sig.TransactionType != models.TransactionSell {
					t.Errorf("TransactionType = %q, want SELL", sig.TransactionType)
				}
			},
		},
		{
			name: "missing date falls back to message timestamp",
			resp: `{"ticker": "AAPL", "transaction_type": "BUY"}`,
			check: func(t *testing.T, sig *models.Signal) {
				if sig.SignalDate != "2024-03-15" {
					t.Errorf("SignalDate = %q, want 2024-03-15", sig.SignalDate)
				}
			},
		},
		{
			name: "missing confidence defaults",
			resp: `{"ticker": "AAPL", "transaction_type": "BUY"}`,
			check: func(t *testing.T, sig *models.Signal) {
				if sig.Confidence != 0.5 {
					t.Errorf("Confidence = %v, want 0.5", sig.Confidence)
				}
			},
		},
		{
			name: "string confidence is parsed",
			resp: `{"ticker": "AAPL", "transaction_type": "BUY", "confidence": "0.8"}`,
			check: func(t *testing.T, sig *models.Signal) {
				if sig.Confidence != 0.8 {
					t.Errorf("Confidence = %v, want 0.8", sig.Confidence)
				}
			},
		},
		{
			name: "unparsable confidence defaults",
			resp: `{"ticker": "AAPL", "transaction_type": "BUY", "confidence": "very high"}`,
			check: func(t *testing.T, sig *models.Signal) {
				if sig.Confidence != 0.5 {
					t.Errorf("Confidence = %v, want 0.5", sig.Confidence)
				}
			},
		},
		{
			name: "confidence above one is clamped",
			resp: `{"ticker": "AAPL", "transaction_type": "BUY", "confidence": 1.5}`,
			check: func(t *testing.T, sig *models.Signal) {
				if sig.Confidence != 1 {
					t.Errorf("Confidence = %v, want 1", sig.Confidence)
				}
			},
		},
		{
			name: "negative confidence is clamped",
			resp: `{"ticker": "AAPL", "transaction_type": "BUY", "confidence": -0.2}`,
			check: func(t *testing.T, sig *models.Signal) {
				if sig.Confidence != 0 {
					t.Errorf("Confidence = %v, want 0", sig.Confidence)
				}
			},
		},
		{
			name:    "explicit non-signal wins over populated fields",
			resp:    `{"is_signal": false, "ticker": "AAPL", "transaction_type": "BUY"}`,
			wantNil: true,
		},
		{
			name:    "null response carries no signal",
			resp:    `null`,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExtractor(tt.resp)
			sig, err := e.Extract(context.Background(), "message text", testSentAt)
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if tt.wantNil {
				if sig != nil {
					t.Errorf("Expected nil signal, got %+v", sig)
				}
				return
			}
			if sig == nil {
				t.Fatal("Expected a signal, got nil")
			}
			if tt.check != nil {
				tt.check(t, sig)
			}
		})
	}
}

func TestExtractTruncatesRawMessage(t *testing.T) {
	long := strings.Repeat("ü", 600)
	e := newTestExtractor(`{"ticker": "AAPL", "transaction_type": "BUY"}`)

	sig, err := e.Extract(context.Background(), long, testSentAt)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if sig == nil {
		t.Fatal("Expected a signal, got nil")
	}
	if got := len([]rune(sig.RawMessage)); got != models.MaxRawMessageLen {
		t.Errorf("RawMessage length = %d runes, want %d", got, models.MaxRawMessageLen)
	}
	if !strings.HasPrefix(long, sig.RawMessage) {
		t.Error("Truncated raw message is not a prefix of the original")
	}
}

func TestBuildPromptEmbedsMessage(t *testing.T) {
	prompt := buildPrompt("Pelosi bought NVDA", "2024-03-15T14:30:00Z")
	if !strings.Contains(prompt, "Pelosi bought NVDA") {
		t.Error("Prompt does not contain the message text")
	}
	if !strings.Contains(prompt, "2024-03-15T14:30:00Z") {
		t.Error("Prompt does not contain the message timestamp")
	}
}
