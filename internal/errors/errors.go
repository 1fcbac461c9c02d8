// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrMissingCredentials = errors.New("missing required credentials")
	ErrChannelAccess      = errors.New("no access to channel")
	ErrAuthFailed         = errors.New("authentication failed")
	ErrRateLimited        = errors.New("rate limited")
	ErrConnectionFailed   = errors.New("connection failed")
	ErrTimeout            = errors.New("operation timed out")
	ErrMalformedResponse  = errors.New("malformed extraction response")
	ErrStateCorrupt       = errors.New("state file corrupt")
	ErrConfigInvalid      = errors.New("invalid configuration")
)

// ExtractError represents a per-message extraction failure. It is always
// recoverable: the pipeline skips the message and continues the batch.
type ExtractError struct {
	MessageID int64
	Stage     string
	Err       error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract error [message %d] %s: %v", e.MessageID, e.Stage, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// NewExtractError creates a new ExtractError.
func NewExtractError(messageID int64, stage string, err error) *ExtractError {
	return &ExtractError{
		MessageID: messageID,
		Stage:     stage,
		Err:       err,
	}
}

// DeliveryError represents a failed webhook delivery for one signal.
type DeliveryError struct {
	Ticker     string
	StatusCode int
	Reason     string
}

func (e *DeliveryError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("delivery error [%s] status %d: %s", e.Ticker, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("delivery error [%s]: %s", e.Ticker, e.Reason)
}

// NewDeliveryError creates a new DeliveryError.
func NewDeliveryError(ticker string, statusCode int, reason string) *DeliveryError {
	return &DeliveryError{
		Ticker:     ticker,
		StatusCode: statusCode,
		Reason:     reason,
	}
}

// SourceError represents an error from the message-source API.
type SourceError struct {
	Op        string
	ChannelID int64
	Err       error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source error [%s] channel %d: %v", e.Op, e.ChannelID, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError creates a new SourceError.
func NewSourceError(op string, channelID int64, err error) *SourceError {
	return &SourceError{
		Op:        op,
		ChannelID: channelID,
		Err:       err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
