// Package pipeline orchestrates a harvesting run end to end: watermark
// resolution, message collection, signal extraction, delivery, and the
// final watermark commit.
package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/bluzername/telegram-financial-harvester/internal/errors"
	"github.com/bluzername/telegram-financial-harvester/internal/logging"
	"github.com/bluzername/telegram-financial-harvester/internal/models"
	"github.com/bluzername/telegram-financial-harvester/internal/state"
	"github.com/bluzername/telegram-financial-harvester/internal/webhook"
)

const (
	collectProgressEvery = 50
	extractProgressEvery = 10
)

// MessageSource resolves the target channel and streams its posts.
type MessageSource interface {
	ResolveChannel(ctx context.Context, channelID int64) (*models.Channel, error)
	Messages(ctx context.Context, channelID, minID int64, fn func(models.Message) bool) error
}

// Extractor turns one message into a signal, or nil when it carries none.
type Extractor interface {
	Extract(ctx context.Context, text string, sentAt time.Time) (*models.Signal, error)
}

// Deliverer posts a batch of signals downstream.
type Deliverer interface {
	SendBatch(ctx context.Context, signals []*models.Signal) *webhook.BatchResult
}

// Progress receives run milestones for display. Calls happen inline with
// the run; implementations must be cheap and, when the run uses more than
// one worker, safe for concurrent use.
type Progress interface {
	// Collected fires periodically while messages are being gathered.
	Collected(count int)
	// Extracted fires periodically while messages are being parsed.
	Extracted(done, total int)
	// SignalFound fires once per extracted signal.
	SignalFound(messageID int64, sig *models.Signal)
	// Preview fires once per signal that a dry run withheld.
	Preview(sig *models.Signal)
}

type nopProgress struct{}

func (nopProgress) Collected(int)                     {}
func (nopProgress) Extracted(int, int)                {}
func (nopProgress) SignalFound(int64, *models.Signal) {}
func (nopProgress) Preview(*models.Signal)            {}

// Options control a single run.
type Options struct {
	ChannelID int64
	FullScan  bool
	DryRun    bool
	Limit     int
	Workers   int
	Progress  Progress
}

// Summary is the outcome of one run. Errors counts delivery failures only;
// extraction failures are logged and skipped without affecting the count.
type Summary struct {
	Channel       string
	TotalMessages int
	SignalsFound  int
	SignalsSent   int
	Duplicates    int
	Errors        int
	Failures      []*apperrors.DeliveryError
}

// Pipeline wires a message source, an extractor, a deliverer, and the
// watermark store into one runnable unit.
type Pipeline struct {
	source    MessageSource
	extractor Extractor
	deliverer Deliverer
	store     state.Store
	logger    zerolog.Logger
}

// New creates a pipeline from its four collaborators.
func New(source MessageSource, extractor Extractor, deliverer Deliverer, store state.Store, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		source:    source,
		extractor: extractor,
		deliverer: deliverer,
		store:     store,
		logger:    logger,
	}
}

// Run executes one harvesting pass. Source failures before extraction
// abort the run; extraction and delivery failures never do. The watermark
// advances only on live incremental runs that collected something.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Summary, error) {
	progress := opts.Progress
	if progress == nil {
		progress = nopProgress{}
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	logger := logging.WithChannel(p.logger, opts.ChannelID)

	var startID int64
	if !opts.FullScan {
		startID = p.store.LastMessageID(opts.ChannelID)
	}

	channel, err := p.source.ResolveChannel(ctx, opts.ChannelID)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("channel", channel.Title).
		Int64("start_id", startID).
		Bool("full_scan", opts.FullScan).
		Bool("dry_run", opts.DryRun).
		Msg("starting run")

	messages, maxID, err := p.collect(ctx, opts, startID, progress)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Channel: channel.Title, TotalMessages: len(messages)}
	if len(messages) == 0 {
		logger.Info().Msg("no new messages")
		return summary, nil
	}

	signals := p.extract(ctx, opts, messages, progress)
	summary.SignalsFound = len(signals)

	if len(signals) > 0 {
		if opts.DryRun {
			for _, sig := range signals {
				progress.Preview(sig)
			}
		} else {
			result := p.deliverer.SendBatch(ctx, signals)
			summary.SignalsSent = result.Delivered
			summary.Duplicates = result.Duplicates
			summary.Errors = result.Failed
			summary.Failures = result.Errors

			if result.Delivered > 0 {
				if err := p.store.IncrementDelivered(result.Delivered); err != nil {
					logger.Warn().Err(err).Msg("updating delivered counter")
				}
			}
		}
	}

	if !opts.FullScan && !opts.DryRun && maxID > startID {
		if err := p.store.SetLastMessageID(opts.ChannelID, maxID); err != nil {
			logger.Error().Err(err).Msg("saving watermark")
		} else {
			logging.LogWatermark(logger, opts.ChannelID, maxID)
		}
	}

	logger.Info().
		Int("messages", summary.TotalMessages).
		Int("signals", summary.SignalsFound).
		Int("sent", summary.SignalsSent).
		Int("duplicates", summary.Duplicates).
		Int("errors", summary.Errors).
		Msg("run complete")

	return summary, nil
}

// collect gathers messages newer than startID in ascending order, skipping
// posts with no text. The returned maxID covers collected messages only,
// so a commit never skips past text we did not process.
func (p *Pipeline) collect(ctx context.Context, opts Options, startID int64, progress Progress) ([]models.Message, int64, error) {
	var messages []models.Message
	maxID := startID

	err := p.source.Messages(ctx, opts.ChannelID, startID, func(msg models.Message) bool {
		if msg.Text == "" {
			return true
		}
		messages = append(messages, msg)
		if msg.ID > maxID {
			maxID = msg.ID
		}
		if len(messages)%collectProgressEvery == 0 {
			progress.Collected(len(messages))
		}
		return opts.Limit <= 0 || len(messages) < opts.Limit
	})
	if err != nil {
		return nil, 0, err
	}
	return messages, maxID, nil
}

// extract runs the extractor over every collected message with a bounded
// worker pool, preserving message order in the result. A failed extraction
// drops its message and nothing else.
func (p *Pipeline) extract(ctx context.Context, opts Options, messages []models.Message, progress Progress) []*models.Signal {
	results := make([]*models.Signal, len(messages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	var done atomic.Int64
	for i, msg := range messages {
		i, msg := i, msg
		g.Go(func() error {
			sig, err := p.extractor.Extract(gctx, msg.Text, msg.Date)
			if err != nil {
				p.logger.Warn().
					Int64("message_id", msg.ID).
					Err(err).
					Msg("extraction failed")
			} else if sig != nil {
				results[i] = sig
				logging.LogSignal(p.logger, msg.ID, sig.Ticker, string(sig.TransactionType), sig.Confidence)
				progress.SignalFound(msg.ID, sig)
			}

			n := int(done.Add(1))
			if n%extractProgressEvery == 0 || n == len(messages) {
				progress.Extracted(n, len(messages))
			}
			return nil
		})
	}
	_ = g.Wait()

	signals := make([]*models.Signal, 0, len(messages))
	for _, sig := range results {
		if sig != nil {
			signals = append(signals, sig)
		}
	}
	return signals
}
