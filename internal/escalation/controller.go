// Package escalation runs the poll cycle and decides how to alert the
// responsible person about each new stream item.
package escalation

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"alert-monitor/internal/classifier"
	"alert-monitor/internal/cursor"
	"alert-monitor/internal/logging"
	"alert-monitor/internal/metrics"
	"alert-monitor/internal/models"
	"alert-monitor/internal/notify"
	"alert-monitor/internal/stream"
)

// State of the controller.
type State int32

const (
	Idle State = iota
	Escalating
)

func (s State) String() string {
	if s == Escalating {
		return "escalating"
	}
	return "idle"
}

// Campaigner runs a call campaign. Implemented by *call.Engine.
type Campaigner interface {
	Run(ctx context.Context) models.CampaignResult
}

// History stores escalation records. Implemented by *db.DB.
type History interface {
	CreateEscalation(ctx context.Context, r models.EscalationRecord) error
}

// Publisher receives live events. Implemented by the api websocket hub.
type Publisher interface {
	Publish(ev models.Event)
}

// Deps are the controller's collaborators. Calls, History, Publisher and
// Metrics are optional.
type Deps struct {
	Source     stream.Source
	Cursor     *cursor.Store
	Classifier classifier.Classifier
	Notifier   notify.Notifier
	Calls      Campaigner
	History    History
	Publisher  Publisher
	Metrics    *metrics.Metrics
	Logger     *logging.Logger
}

type Options struct {
	City          string
	FetchLimit    int
	CheckInterval time.Duration
}

// Controller is the Idle/Escalating state machine driving the poll cycle.
type Controller struct {
	Deps
	opts  Options
	state atomic.Int32
}

func New(deps Deps, opts Options) *Controller {
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = 20
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = time.Minute
	}
	return &Controller{Deps: deps, opts: opts}
}

// State reports whether an escalation is in progress.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Run ticks immediately, then waits CheckInterval after each completed
// cycle until ctx is cancelled. Cycles never overlap.
func (c *Controller) Run(ctx context.Context) {
	c.Logger.WithFields(logrus.Fields{
		"city":     c.opts.City,
		"interval": c.opts.CheckInterval,
	}).Info("Monitoring started")

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			c.Logger.Info("Monitoring stopped")
			return
		case <-timer.C:
			if err := c.Tick(ctx); err != nil {
				c.Logger.WithError(err).Error("Poll cycle failed")
			}
			timer.Reset(c.opts.CheckInterval)
		}
	}
}

// Tick runs one poll cycle. While escalating the cycle is skipped entirely.
func (c *Controller) Tick(ctx context.Context) error {
	if c.State() == Escalating {
		c.Logger.Info("Skipping poll cycle, escalation in progress")
		c.Metrics.CycleSkipped()
		c.publish(models.Event{Type: models.EventCycleSkipped})
		return nil
	}

	start := time.Now()
	defer func() { c.Metrics.ObserveCycle(time.Since(start)) }()

	items, err := c.fetchNew(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		c.Logger.Debug("No new messages")
		return nil
	}
	c.Logger.WithField("count", len(items)).Info("New messages found")
	c.Metrics.Fetched(len(items))

	assessments := c.Classifier.Classify(ctx, items)
	if len(assessments) != len(items) {
		return fmt.Errorf("%w: %s returned %d assessments for %d items",
			models.ErrClassification, c.Classifier.Name(), len(assessments), len(items))
	}

	for i, a := range assessments {
		item := items[i]
		c.Metrics.Assessed(string(a.Level))
		c.publish(models.Event{Type: models.EventAssessment, ItemID: item.ID, Assessment: &assessments[i]})
		c.Logger.WithFields(logrus.Fields{
			"item_id":    item.ID,
			"level":      a.Level,
			"confidence": a.Confidence,
			"reason":     a.Reason,
		}).Info("Message assessed")

		if a.NeedCall {
			c.escalate(ctx, item, a)
			break // one critical response per cycle
		}
		if a.NeedMessage {
			c.warn(ctx, item, a)
		}
	}
	return nil
}

// fetchNew reads items after the cursor, marks each one seen as it is read
// and returns the unseen ones in chronological order.
func (c *Controller) fetchNew(ctx context.Context) ([]models.StreamItem, error) {
	items, err := c.Source.FetchSince(ctx, c.Cursor.LastSeenID(), c.opts.FetchLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch new messages: %v", models.ErrTransport, err)
	}

	var fresh []models.StreamItem
	var newest *int64
	for _, item := range items {
		if newest == nil || item.ID > *newest {
			id := item.ID
			newest = &id
		}
		last := c.Cursor.LastSeenID()
		if (last == nil || item.ID > *last) && !c.Cursor.IsSeen(item.ID) {
			fresh = append(fresh, item)
			c.persisted(c.Cursor.RecordSeen(ctx, item.ID))
		}
	}
	if newest != nil {
		c.persisted(c.Cursor.AdvanceCursorTo(ctx, *newest))
	}

	for i, j := 0, len(fresh)-1; i < j; i, j = i+1, j-1 {
		fresh[i], fresh[j] = fresh[j], fresh[i]
	}
	return fresh, nil
}

func (c *Controller) persisted(err error) {
	if err == nil {
		return
	}
	c.Metrics.PersistenceFailed()
	c.Logger.WithError(err).Error("Failed to persist cursor")
}

// escalate sends the detail message and runs the call campaign. The state
// returns to Idle whatever happens. Shutdown never drops the detail message;
// it only cuts the campaign short (see call.Engine.Run).
func (c *Controller) escalate(ctx context.Context, item models.StreamItem, a models.ThreatAssessment) {
	c.state.Store(int32(Escalating))
	c.Metrics.SetEscalating(true)
	log := c.Logger.WithField("item_id", item.ID)
	log.Warn("Critical threat, starting escalation")
	c.publish(models.Event{Type: models.EventEscalationStarted, ItemID: item.ID, Assessment: &a})

	var result *models.CampaignResult
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Escalation panicked: %v", r)
		}
		c.state.Store(int32(Idle))
		c.Metrics.SetEscalating(false)
		c.publish(models.Event{Type: models.EventEscalationEnded, ItemID: item.ID, Campaign: result})
		log.Info("Escalation finished, resuming monitoring")
	}()

	sendCtx := context.WithoutCancel(ctx)
	c.send(sendCtx, item, a, "critical", notify.Critical(c.opts.City, item, a))

	if c.Calls == nil {
		log.Warn("Voice calls disabled, critical threat sent as message only")
		return
	}
	res := c.Calls.Run(ctx)
	result = &res

	rec := models.NewEscalationRecord(item.ID, a.Level, models.KindCall)
	rec.Attempts = len(res.Attempts)
	rec.Status = models.StatusExhausted
	if res.Answered {
		rec.Status = models.StatusAnswered
	}
	if n := len(res.Attempts); n > 0 {
		rec.LastError = res.Attempts[n-1].Err
	}
	c.record(sendCtx, rec)
}

func (c *Controller) warn(ctx context.Context, item models.StreamItem, a models.ThreatAssessment) {
	c.Logger.WithFields(logrus.Fields{"item_id": item.ID, "level": a.Level}).Info("Threat detected, sending warning")
	c.send(ctx, item, a, "warning", notify.Warning(c.opts.City, item, a))
}

func (c *Controller) send(ctx context.Context, item models.StreamItem, a models.ThreatAssessment, kind string, msg notify.Message) {
	rec := models.NewEscalationRecord(item.ID, a.Level, models.KindMessage)
	rec.Attempts = 1
	rec.Status = models.StatusSent

	if err := c.Notifier.Notify(ctx, msg); err != nil {
		c.Metrics.Notified(kind, "error")
		c.Logger.WithField("item_id", item.ID).WithError(err).Error("Failed to send notification")
		rec.Status = models.StatusFailed
		rec.LastError = err.Error()
	} else {
		c.Metrics.Notified(kind, "sent")
	}
	c.record(ctx, rec)
}

func (c *Controller) record(ctx context.Context, rec models.EscalationRecord) {
	if c.History == nil {
		return
	}
	if err := c.History.CreateEscalation(ctx, rec); err != nil {
		c.Logger.WithField("item_id", rec.ItemID).WithError(err).Warn("Failed to record escalation")
	}
}

func (c *Controller) publish(ev models.Event) {
	if c.Publisher == nil {
		return
	}
	ev.At = time.Now()
	c.Publisher.Publish(ev)
}

// Status is a point-in-time view of the controller for the status API.
type Status struct {
	State      string `json:"state"`
	City       string `json:"city"`
	LastSeenID *int64 `json:"last_seen_id"`
	SeenCount  int    `json:"seen_count"`
	Classifier string `json:"classifier"`
}

func (c *Controller) Status() Status {
	return Status{
		State:      c.State().String(),
		City:       c.opts.City,
		LastSeenID: c.Cursor.LastSeenID(),
		SeenCount:  c.Cursor.SeenCount(),
		Classifier: c.Classifier.Name(),
	}
}
