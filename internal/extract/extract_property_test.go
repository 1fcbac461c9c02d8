package extract

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/bluzername/telegram-financial-harvester/internal/models"
)

// Property: For any numeric confidence the model reports, the extracted
// confidence is always within [0, 1]. Out-of-range numbers are clamped
// instead of disqualifying the signal.
func TestProperty_ConfidenceAlwaysInRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("numeric confidence is clamped to [0, 1]", prop.ForAll(
		func(raw float64) bool {
			got := coerceConfidence(raw)
			if got < 0 || got > 1 {
				return false
			}
			switch {
			case raw < 0:
				return got == 0
			case raw > 1:
				return got == 1
			default:
				return got == raw
			}
		},
		gen.Float64Range(-1e6, 1e6),
	))

	properties.Property("string confidence parses to the same clamped value", prop.ForAll(
		func(raw float64) bool {
			got := coerceConfidence(strconv.FormatFloat(raw, 'f', 6, 64))
			return got >= 0 && got <= 1
		},
		gen.Float64Range(-1e6, 1e6),
	))

	properties.TestingRun(t)
}

// Property: Any payload that clears validation produces a signal that
// passes Validate, with the ticker normalized and the raw message capped.
// A payload flagged as a non-signal never produces one.
func TestProperty_ProducedSignalsAreValid(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	tickerGen := gen.AlphaString().SuchThat(func(s string) bool {
		return strings.TrimSpace(s) != ""
	})
	txGen := gen.OneConstOf("BUY", "SELL", "buy", "sell", " Buy ", "Sell ")

	properties.Property("built signals validate", prop.ForAll(
		func(ticker, tx, text string, conf float64) bool {
			p := &payload{Ticker: ticker, TransactionType: tx, Confidence: conf}
			sig := buildSignal(p, text, testSentAt)
			if sig == nil {
				return false
			}
			if sig.Ticker != strings.ToUpper(strings.TrimSpace(ticker)) {
				return false
			}
			return sig.Validate() == nil
		},
		tickerGen, txGen, gen.AnyString(), gen.Float64Range(-2, 2),
	))

	properties.Property("explicit non-signal never builds", prop.ForAll(
		func(ticker string) bool {
			no := false
			p := &payload{IsSignal: &no, Ticker: ticker, TransactionType: "BUY"}
			return buildSignal(p, "text", testSentAt) == nil
		},
		tickerGen,
	))

	properties.Property("raw message never exceeds the cap", prop.ForAll(
		func(n int) bool {
			text := strings.Repeat("é", n)
			p := &payload{Ticker: "AAPL", TransactionType: "BUY"}
			sig := buildSignal(p, text, testSentAt)
			if sig == nil {
				return false
			}
			want := n
			if want > models.MaxRawMessageLen {
				want = models.MaxRawMessageLen
			}
			return len([]rune(sig.RawMessage)) == want
		},
		gen.IntRange(0, 2000),
	))

	properties.Property("missing date falls back to the message day", prop.ForAll(
		func(sec int64) bool {
			at := time.Unix(sec, 0)
			p := &payload{Ticker: "AAPL", TransactionType: "BUY"}
			sig := buildSignal(p, "text", at)
			return sig != nil && sig.SignalDate == at.UTC().Format("2006-01-02")
		},
		gen.Int64Range(0, 4102444800),
	))

	properties.TestingRun(t)
}
