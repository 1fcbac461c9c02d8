package extract

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/bluzername/telegram-financial-harvester/internal/errors"
	"github.com/bluzername/telegram-financial-harvester/internal/models"
)

// defaultConfidence is assigned when the model omits a confidence value or
// reports one that cannot be parsed as a number.
const defaultConfidence = 0.5

// fencedJSON matches a JSON object inside a markdown code fence. Models
// sometimes wrap their answer despite being told not to.
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// payload is the decoded shape of one extraction response. The model either
// declares the message a non-signal or emits a candidate record. Absent
// fields stay at their zero value so validation can tell missing from empty.
type payload struct {
	IsSignal        *bool       `json:"is_signal"`
	Ticker          string      `json:"ticker"`
	PoliticianName  string      `json:"politician_name"`
	TransactionType string      `json:"transaction_type"`
	AmountRange     string      `json:"amount_range"`
	SignalDate      string      `json:"signal_date"`
	Confidence      interface{} `json:"confidence"`
}

// Extractor turns one raw message into zero-or-one validated trading signal
// using a remote LLM call.
type Extractor struct {
	llm    LLMClient
	logger zerolog.Logger
}

// New creates a new Extractor.
func New(llm LLMClient, logger zerolog.Logger) *Extractor {
	return &Extractor{
		llm:    llm,
		logger: logger,
	}
}

// Extract runs one message through the model and validates the result.
// A nil signal with a nil error means the message is not a trading signal.
// A non-nil error is always per-message and recoverable: the caller skips
// the message and continues the batch.
func (e *Extractor) Extract(ctx context.Context, text string, sentAt time.Time) (*models.Signal, error) {
	prompt := buildPrompt(text, sentAt.UTC().Format(time.RFC3339))

	resp, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	p, err := decodePayload(strings.TrimSpace(resp))
	if err != nil {
		e.logger.Warn().
			Str("payload", truncate(resp, 200)).
			Msg("Could not parse extraction response as JSON")
		return nil, err
	}

	return buildSignal(p, text, sentAt), nil
}

// decodePayload decodes the model response. It first tries the full text as
// JSON, then falls back to a fenced code block containing a JSON object.
func decodePayload(resp string) (*payload, error) {
	var p payload
	if err := json.Unmarshal([]byte(resp), &p); err == nil {
		return &p, nil
	}

	if m := fencedJSON.FindStringSubmatch(resp); m != nil {
		if err := json.Unmarshal([]byte(m[1]), &p); err == nil {
			return &p, nil
		}
	}

	return nil, apperrors.ErrMalformedResponse
}

// buildSignal applies the validation pipeline to a decoded payload, in
// order, short-circuiting to nil on the first disqualifier. No partial
// records are ever produced.
func buildSignal(p *payload, text string, sentAt time.Time) *models.Signal {
	if p.IsSignal != nil && !*p.IsSignal {
		return nil
	}

	ticker := strings.ToUpper(strings.TrimSpace(p.Ticker))
	if ticker == "" {
		return nil
	}

	txType := models.TransactionType(strings.ToUpper(strings.TrimSpace(p.TransactionType)))
	if txType != models.TransactionBuy && txType != models.TransactionSell {
		return nil
	}

	signalDate := strings.TrimSpace(p.SignalDate)
	if signalDate == "" {
		// Calendar-date prefix of the message timestamp.
		signalDate = sentAt.UTC().Format("2006-01-02")
	}

	return &models.Signal{
		Ticker:          ticker,
		PoliticianName:  p.PoliticianName,
		TransactionType: txType,
		AmountRange:     p.AmountRange,
		SignalDate:      signalDate,
		Confidence:      coerceConfidence(p.Confidence),
		RawMessage:      truncate(text, models.MaxRawMessageLen),
	}
}

// coerceConfidence normalizes the model-reported confidence to a float in
// [0, 1]. Absent or unparsable values default to 0.5; out-of-range numbers
// are clamped.
func coerceConfidence(v interface{}) float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return defaultConfidence
		}
		f = parsed
	default:
		return defaultConfidence
	}

	if math.IsNaN(f) {
		return defaultConfidence
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// truncate returns at most n characters of s.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
