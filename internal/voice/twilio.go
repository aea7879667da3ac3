// Package voice places alert calls through Twilio.
package voice

import (
	"context"
	"fmt"
	"html"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"alert-monitor/internal/models"
)

// State is the transport view of one call session.
type State int

const (
	Requested State = iota
	Waiting
	Accepted
	Discarded
)

func (s State) String() string {
	switch s {
	case Requested:
		return "requested"
	case Waiting:
		return "waiting"
	case Accepted:
		return "accepted"
	case Discarded:
		return "discarded"
	}
	return "unknown"
}

// DefaultSpeech is read to the recipient when they pick up.
const DefaultSpeech = "Увага! Критична загроза для вашого міста. Негайно прямуйте в укриття."

type callAPI interface {
	CreateCall(params *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error)
	FetchCall(sid string, params *twilioApi.FetchCallParams) (*twilioApi.ApiV2010Call, error)
	UpdateCall(sid string, params *twilioApi.UpdateCallParams) (*twilioApi.ApiV2010Call, error)
}

// Line is a Twilio-backed call line.
type Line struct {
	api     callAPI
	from    string
	speech  string
	timeout int
	// answered tracks sessions that reached in-progress, so a later
	// "completed" is read as a finished answered call.
	answered map[string]bool
}

// Options configures a Line.
type Options struct {
	From string
	// RingTimeout is how long Twilio lets the phone ring, in seconds.
	RingTimeout int
	Speech      string
}

// NewLine returns a Line using the given Twilio client.
func NewLine(client *twilio.RestClient, opts Options) *Line {
	return newLine(client.Api, opts)
}

func newLine(api callAPI, opts Options) *Line {
	if opts.Speech == "" {
		opts.Speech = DefaultSpeech
	}
	if opts.RingTimeout <= 0 {
		opts.RingTimeout = 40
	}
	return &Line{
		api:      api,
		from:     opts.From,
		speech:   opts.Speech,
		timeout:  opts.RingTimeout,
		answered: make(map[string]bool),
	}
}

// Request starts a call to the recipient.
func (l *Line) Request(ctx context.Context, to string) (string, State, error) {
	if err := ctx.Err(); err != nil {
		return "", Requested, fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	params := &twilioApi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(l.from)
	params.SetTwiml(l.twiml())
	params.SetTimeout(l.timeout)

	call, err := l.api.CreateCall(params)
	if err != nil {
		return "", Requested, fmt.Errorf("%w: failed to call %s: %v", models.ErrTransport, to, err)
	}
	if call.Sid == nil {
		return "", Requested, fmt.Errorf("%w: call to %s returned no sid", models.ErrTransport, to)
	}
	return *call.Sid, l.track(*call.Sid, call.Status), nil
}

// Status polls the current state of a call.
func (l *Line) Status(ctx context.Context, id string) (State, error) {
	if err := ctx.Err(); err != nil {
		return Waiting, fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	call, err := l.api.FetchCall(id, &twilioApi.FetchCallParams{})
	if err != nil {
		return Waiting, fmt.Errorf("%w: failed to fetch call %s: %v", models.ErrTransport, id, err)
	}
	return l.track(id, call.Status), nil
}

// Hangup ends the call session.
func (l *Line) Hangup(ctx context.Context, id string) error {
	params := &twilioApi.UpdateCallParams{}
	params.SetStatus("completed")
	_, err := l.api.UpdateCall(id, params)
	delete(l.answered, id)
	if err != nil {
		return fmt.Errorf("%w: failed to hang up call %s: %v", models.ErrTransport, id, err)
	}
	return nil
}

func (l *Line) track(id string, status *string) State {
	s := ""
	if status != nil {
		s = *status
	}
	state := MapStatus(s, l.answered[id])
	if s == "in-progress" {
		l.answered[id] = true
	}
	return state
}

func (l *Line) twiml() string {
	return fmt.Sprintf(`<Response><Say language="uk-UA">%s</Say><Pause length="1"/><Say language="uk-UA">%s</Say></Response>`,
		html.EscapeString(l.speech), html.EscapeString(l.speech))
}

// MapStatus converts a Twilio call status into a line State.
// wasAnswered reports whether the call was seen in progress earlier.
func MapStatus(status string, wasAnswered bool) State {
	switch status {
	case "queued", "initiated", "ringing", "":
		return Waiting
	case "in-progress":
		return Accepted
	case "completed":
		if wasAnswered {
			return Accepted
		}
		return Discarded
	default: // busy, failed, no-answer, canceled
		return Discarded
	}
}
