// Package telegram pulls channel messages through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/bluzername/telegram-financial-harvester/internal/errors"
	"github.com/bluzername/telegram-financial-harvester/internal/logging"
	"github.com/bluzername/telegram-financial-harvester/internal/models"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	updatesPerPage = 100
)

// Source reads channel posts through the Telegram Bot API. The bot must be
// a member of the target channel to see its posts.
type Source struct {
	token   string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewSource creates a source authenticated by the numeric API ID and hash
// pair, which joined with a colon form the bot token.
func NewSource(apiID, apiHash string, logger zerolog.Logger) *Source {
	return &Source{
		token:   apiID + ":" + apiHash,
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// apiResponse is the envelope every Bot API method answers with.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
}

// apiError is a non-OK answer from the Bot API.
type apiError struct {
	Code        int
	Description string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("telegram API error %d: %s", e.Code, e.Description)
}

// chat is the subset of the Bot API chat object the source needs.
type chat struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// update is the subset of the Bot API update object the source needs.
type update struct {
	UpdateID    int64    `json:"update_id"`
	ChannelPost *message `json:"channel_post"`
}

type message struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date"`
	Text      string `json:"text"`
	Caption   string `json:"caption"`
	Chat      chat   `json:"chat"`
}

// text returns the message text, falling back to the media caption.
func (m *message) text() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// redact scrubs the bot token from text. Transport errors embed the
// request URL, which carries the token.
func (s *Source) redact(text string) string {
	return strings.ReplaceAll(text, s.token, logging.MaskSecret(s.token))
}

func (s *Source) call(ctx context.Context, method string, params, result interface{}) error {
	url := fmt.Sprintf("%s/bot%s/%s", s.baseURL, s.token, method)

	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshaling %s params: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		err = errors.New(s.redact(err.Error()))
	}
	logging.LogAPICall(s.logger, http.MethodPost, method, time.Since(start), err)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrConnectionFailed, err.Error())
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if !api.OK {
		return &apiError{Code: api.ErrorCode, Description: api.Description}
	}
	if result != nil {
		return json.Unmarshal(api.Result, result)
	}
	return nil
}

// ResolveChannel maps a channel ID to its chat entity. A missing or
// forbidden chat is reported as ErrChannelAccess so callers can terminate
// the run without partial work.
func (s *Source) ResolveChannel(ctx context.Context, channelID int64) (*models.Channel, error) {
	var c chat
	err := s.call(ctx, "getChat", map[string]interface{}{"chat_id": channelID}, &c)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) &&
			(apiErr.Code == http.StatusForbidden || apiErr.Code == http.StatusBadRequest) {
			return nil, apperrors.NewSourceError("getChat", channelID, apperrors.ErrChannelAccess)
		}
		return nil, apperrors.NewSourceError("getChat", channelID, err)
	}

	return &models.Channel{ID: c.ID, Title: c.Title}, nil
}

// Messages streams the channel's posts with ID > minID to fn in ascending
// ID order, paging through pending updates. Iteration stops early when fn
// returns false. Posts without text are passed through unchanged; skipping
// them is the caller's concern.
func (s *Source) Messages(ctx context.Context, channelID, minID int64, fn func(models.Message) bool) error {
	var offset int64

	for {
		var updates []update
		params := map[string]interface{}{
			"offset":          offset,
			"limit":           updatesPerPage,
			"timeout":         0,
			"allowed_updates": []string{"channel_post"},
		}
		if err := s.call(ctx, "getUpdates", params, &updates); err != nil {
			return apperrors.NewSourceError("getUpdates", channelID, err)
		}
		if len(updates) == 0 {
			return nil
		}

		for _, u := range updates {
			offset = u.UpdateID + 1

			post := u.ChannelPost
			if post == nil || post.Chat.ID != channelID || post.MessageID <= minID {
				continue
			}

			msg := models.Message{
				ID:   post.MessageID,
				Text: post.text(),
				Date: time.Unix(post.Date, 0).UTC(),
			}
			if !fn(msg) {
				return nil
			}
		}
	}
}
