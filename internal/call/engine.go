// Package call runs call campaigns: a bounded series of call attempts
// ending in a pickup or a failure notification.
package call

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"alert-monitor/internal/logging"
	"alert-monitor/internal/metrics"
	"alert-monitor/internal/models"
	"alert-monitor/internal/notify"
	"alert-monitor/internal/voice"
)

// Line is the call transport.
type Line interface {
	Request(ctx context.Context, to string) (id string, state voice.State, err error)
	Status(ctx context.Context, id string) (voice.State, error)
	Hangup(ctx context.Context, id string) error
}

// Options holds the fixed campaign parameters.
type Options struct {
	Recipient     string
	MaxRetries    int
	RetryInterval time.Duration
	CallTimeout   time.Duration
	PollInterval  time.Duration
}

// Engine places calls and runs campaigns. It is not safe for concurrent campaigns.
type Engine struct {
	line     Line
	notifier notify.Notifier
	opts     Options
	logger   *logging.Logger
	metrics  *metrics.Metrics

	// sleep waits for d and reports false if ctx ended first.
	sleep func(ctx context.Context, d time.Duration) bool
}

// NewEngine creates an Engine. notifier receives the failure message.
func NewEngine(line Line, notifier notify.Notifier, opts Options, logger *logging.Logger, m *metrics.Metrics) *Engine {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	return &Engine{
		line:     line,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
		metrics:  m,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Run executes one campaign. Cancelling ctx never aborts the attempt in
// progress; it only skips the remaining retries. The failure notification
// is still sent when nobody answered.
func (e *Engine) Run(ctx context.Context) models.CampaignResult {
	result := models.CampaignResult{ID: uuid.NewString()}
	log := e.logger.WithField("campaign_id", result.ID)
	attemptCtx := context.WithoutCancel(ctx)

	log.WithField("max_retries", e.opts.MaxRetries).Info("Starting call campaign")
	for attempt := 1; attempt <= e.opts.MaxRetries; attempt++ {
		outcome, err := e.PlaceCall(attemptCtx)
		rec := models.CallAttempt{AttemptNumber: attempt, Outcome: outcome}
		if err != nil {
			rec.Err = err.Error()
		}
		result.Attempts = append(result.Attempts, rec)
		e.metrics.CallAttempt(string(outcome))

		entry := log.WithFields(logrus.Fields{"attempt": attempt, "outcome": outcome})
		if err != nil {
			entry = entry.WithError(err)
		}
		if outcome == models.CallAnswered {
			entry.Info("Call answered")
			result.Answered = true
			e.metrics.CampaignFinished("answered")
			return result
		}
		entry.Warn("Call not answered")

		if attempt < e.opts.MaxRetries {
			log.Infof("Waiting %s before next attempt", e.opts.RetryInterval)
			if !e.sleep(ctx, e.opts.RetryInterval) {
				log.Warn("Shutdown requested, skipping remaining call attempts")
				result.Interrupted = true
				break
			}
		}
	}

	log.Error("All call attempts exhausted")
	e.metrics.CampaignFinished("exhausted")
	if err := e.notifier.Notify(attemptCtx, notify.Failure()); err != nil {
		e.metrics.Notified("failure", "error")
		log.WithError(err).Error("Failed to send failure notification")
	} else {
		e.metrics.Notified("failure", "sent")
	}
	return result
}

// PlaceCall makes one call attempt and waits up to CallTimeout for a pickup.
// A session that is still open is hung up before returning.
func (e *Engine) PlaceCall(ctx context.Context) (models.CallOutcome, error) {
	id, state, err := e.line.Request(ctx, e.opts.Recipient)
	if err != nil {
		return models.CallFailedToInitiate, err
	}

	open := true
	defer func() {
		if !open {
			return
		}
		if err := e.line.Hangup(ctx, id); err != nil {
			e.logger.WithField("call_id", id).WithError(err).Warn("Failed to hang up call")
		}
	}()

	if state == voice.Accepted {
		return models.CallAnswered, nil
	}
	if state == voice.Discarded {
		open = false
		return models.CallTimedOut, nil
	}

	polls := int((e.opts.CallTimeout + e.opts.PollInterval - 1) / e.opts.PollInterval)
	for i := 0; i < polls; i++ {
		if !e.sleep(ctx, e.opts.PollInterval) {
			break
		}
		state, err := e.line.Status(ctx, id)
		if err != nil {
			e.logger.WithField("call_id", id).WithError(err).Debug("Call status poll failed")
			continue
		}
		switch state {
		case voice.Accepted:
			return models.CallAnswered, nil
		case voice.Discarded:
			open = false
			return models.CallTimedOut, nil
		}
	}
	return models.CallTimedOut, nil
}
