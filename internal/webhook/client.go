// Package webhook delivers extracted signals to the downstream endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/bluzername/telegram-financial-harvester/internal/errors"
	"github.com/bluzername/telegram-financial-harvester/internal/logging"
	"github.com/bluzername/telegram-financial-harvester/internal/models"
)

// sourceTag identifies this system in every delivered payload.
const sourceTag = "TELEGRAM"

// Status classifies the outcome of one delivery attempt.
type Status string

const (
	StatusDelivered Status = "DELIVERED"
	StatusDuplicate Status = "DUPLICATE"
	StatusFailed    Status = "FAILED"
)

// Outcome is the result of delivering a single signal. Outcomes are never
// persisted; they are aggregated into run-level counts only.
type Outcome struct {
	Status     Status
	StatusCode int
	Reason     string
}

// BatchResult aggregates delivery outcomes across one batch.
type BatchResult struct {
	Total      int
	Delivered  int
	Duplicates int
	Failed     int
	Errors     []*apperrors.DeliveryError
}

// Client submits signals to the configured webhook endpoint. The endpoint
// is the authority on duplicate detection; the client performs no local
// dedup and no retries.
type Client struct {
	url    string
	apiKey string
	client *http.Client
	logger zerolog.Logger
}

// NewClient creates a new webhook client with a bounded request timeout.
func NewClient(url, apiKey string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Send delivers a single signal and classifies the response:
// 200 is Delivered, 409 is Duplicate, everything else is Failed.
func (c *Client) Send(ctx context.Context, signal *models.Signal) Outcome {
	payload := map[string]interface{}{
		"api_key":          c.apiKey,
		"ticker":           signal.Ticker,
		"politician_name":  signal.PoliticianName,
		"transaction_type": string(signal.TransactionType),
		"amount_range":     signal.AmountRange,
		"signal_date":      signal.SignalDate,
		"source":           sourceTag,
		"raw_message":      signal.RawMessage,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: fmt.Sprintf("marshaling payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: fmt.Sprintf("creating request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "TelegramHarvester/1.0")

	start := time.Now()
	resp, err := c.client.Do(req)
	logging.LogAPICall(c.logger, http.MethodPost, c.url, time.Since(start), err)
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: err.Error()}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Outcome{Status: StatusDelivered, StatusCode: resp.StatusCode}
	case http.StatusConflict:
		return Outcome{Status: StatusDuplicate, StatusCode: resp.StatusCode}
	default:
		return Outcome{
			Status:     StatusFailed,
			StatusCode: resp.StatusCode,
			Reason:     failureReason(resp),
		}
	}
}

// failureReason pulls the error message out of a failure response body,
// falling back to the HTTP status.
func failureReason(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(data) > 0 {
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			return body.Error
		}
	}
	return fmt.Sprintf("webhook returned status %d", resp.StatusCode)
}

// SendBatch delivers signals one at a time in input order, accumulating
// counts. A failure for one signal never stops the rest of the batch.
func (c *Client) SendBatch(ctx context.Context, signals []*models.Signal) *BatchResult {
	result := &BatchResult{Total: len(signals)}

	for _, signal := range signals {
		outcome := c.Send(ctx, signal)
		logging.LogDelivery(c.logger, signal.Ticker, string(outcome.Status), outcome.StatusCode)

		switch outcome.Status {
		case StatusDelivered:
			result.Delivered++
		case StatusDuplicate:
			result.Duplicates++
		default:
			result.Failed++
			result.Errors = append(result.Errors,
				apperrors.NewDeliveryError(signal.Ticker, outcome.StatusCode, outcome.Reason))
		}
	}

	return result
}
