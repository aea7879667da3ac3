package call

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alert-monitor/internal/logging"
	"alert-monitor/internal/metrics"
	"alert-monitor/internal/models"
	"alert-monitor/internal/notify"
	"alert-monitor/internal/voice"
)

// scriptedLine answers the call on attempt answerOn (0 means never).
type scriptedLine struct {
	answerOn   int
	failOn     map[int]bool
	discard    bool
	requests   int
	statusHits int
	hangups    []string
}

func (l *scriptedLine) Request(ctx context.Context, to string) (string, voice.State, error) {
	l.requests++
	if l.failOn[l.requests] {
		return "", voice.Requested, errors.New("no route")
	}
	return "call-" + to, voice.Waiting, nil
}

func (l *scriptedLine) Status(ctx context.Context, id string) (voice.State, error) {
	l.statusHits++
	if l.requests == l.answerOn {
		return voice.Accepted, nil
	}
	if l.discard {
		return voice.Discarded, nil
	}
	return voice.Waiting, nil
}

func (l *scriptedLine) Hangup(ctx context.Context, id string) error {
	l.hangups = append(l.hangups, id)
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (n *recordingNotifier) Notify(ctx context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return nil
}

func (n *recordingNotifier) Name() string { return "recording" }

func newTestEngine(line Line, n notify.Notifier, m *metrics.Metrics) (*Engine, *[]time.Duration) {
	e := NewEngine(line, n, Options{
		Recipient:     "+380",
		MaxRetries:    3,
		RetryInterval: 2 * time.Minute,
		CallTimeout:   40 * time.Second,
		PollInterval:  10 * time.Second,
	}, logging.Discard(), m)
	var waits []time.Duration
	e.sleep = func(ctx context.Context, d time.Duration) bool {
		waits = append(waits, d)
		return ctx.Err() == nil
	}
	return e, &waits
}

func countWaits(waits []time.Duration, d time.Duration) int {
	n := 0
	for _, w := range waits {
		if w == d {
			n++
		}
	}
	return n
}

func TestRun_NeverAnswered(t *testing.T) {
	line := &scriptedLine{}
	n := &recordingNotifier{}
	m := metrics.New(prometheus.NewRegistry())
	e, waits := newTestEngine(line, n, m)

	res := e.Run(context.Background())

	assert.False(t, res.Answered)
	assert.Equal(t, 3, line.requests)
	require.Len(t, res.Attempts, 3)
	for i, a := range res.Attempts {
		assert.Equal(t, i+1, a.AttemptNumber)
		assert.Equal(t, models.CallTimedOut, a.Outcome)
	}
	require.Len(t, n.msgs, 1)
	assert.Equal(t, notify.FailureText, n.msgs[0].Text)
	assert.Equal(t, 2, countWaits(*waits, 2*time.Minute))
	assert.Len(t, line.hangups, 3)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Campaigns.WithLabelValues("exhausted")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CallAttempts.WithLabelValues("timed_out")))
}

func TestRun_AnsweredOnSecondAttempt(t *testing.T) {
	line := &scriptedLine{answerOn: 2}
	n := &recordingNotifier{}
	e, waits := newTestEngine(line, n, nil)

	res := e.Run(context.Background())

	assert.True(t, res.Answered)
	assert.Equal(t, 2, line.requests)
	assert.Empty(t, n.msgs)
	assert.Equal(t, 1, countWaits(*waits, 2*time.Minute))
	assert.Equal(t, models.CallAnswered, res.Attempts[1].Outcome)
	assert.Len(t, line.hangups, 2)
}

func TestRun_InitiationFailureConsumesRetry(t *testing.T) {
	line := &scriptedLine{answerOn: 3, failOn: map[int]bool{1: true}}
	n := &recordingNotifier{}
	e, _ := newTestEngine(line, n, nil)

	res := e.Run(context.Background())

	assert.True(t, res.Answered)
	require.Len(t, res.Attempts, 3)
	assert.Equal(t, models.CallFailedToInitiate, res.Attempts[0].Outcome)
	assert.Equal(t, "no route", res.Attempts[0].Err)
	assert.Equal(t, models.CallTimedOut, res.Attempts[1].Outcome)
	// No session was opened for the failed attempt.
	assert.Len(t, line.hangups, 2)
}

func TestPlaceCall_PollsUntilTimeout(t *testing.T) {
	line := &scriptedLine{}
	e, waits := newTestEngine(line, &recordingNotifier{}, nil)

	outcome, err := e.PlaceCall(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.CallTimedOut, outcome)
	assert.Equal(t, 4, line.statusHits)
	assert.Equal(t, 4, countWaits(*waits, 10*time.Second))
	assert.Equal(t, []string{"call-+380"}, line.hangups)
}

func TestPlaceCall_DiscardedSessionIsNotHungUp(t *testing.T) {
	line := &scriptedLine{discard: true}
	e, _ := newTestEngine(line, &recordingNotifier{}, nil)

	outcome, err := e.PlaceCall(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.CallTimedOut, outcome)
	assert.Equal(t, 1, line.statusHits)
	assert.Empty(t, line.hangups)
}

func TestRun_ShutdownSkipsRemainingAttempts(t *testing.T) {
	line := &scriptedLine{}
	n := &recordingNotifier{}
	e, _ := newTestEngine(line, n, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := e.Run(ctx)

	// The first attempt still completes its full pickup wait.
	assert.Equal(t, 1, line.requests)
	assert.Equal(t, 4, line.statusHits)
	assert.True(t, res.Interrupted)
	assert.False(t, res.Answered)
	require.Len(t, n.msgs, 1)
}
