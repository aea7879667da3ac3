package voice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"alert-monitor/internal/models"
)

type fakeCalls struct {
	createErr error
	statuses  []string
	created   []*twilioApi.CreateCallParams
	hungUp    []string
}

func strPtr(s string) *string { return &s }

func (f *fakeCalls) CreateCall(params *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error) {
	f.created = append(f.created, params)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &twilioApi.ApiV2010Call{Sid: strPtr("CA1"), Status: strPtr("queued")}, nil
}

func (f *fakeCalls) FetchCall(sid string, params *twilioApi.FetchCallParams) (*twilioApi.ApiV2010Call, error) {
	s := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return &twilioApi.ApiV2010Call{Sid: strPtr(sid), Status: strPtr(s)}, nil
}

func (f *fakeCalls) UpdateCall(sid string, params *twilioApi.UpdateCallParams) (*twilioApi.ApiV2010Call, error) {
	f.hungUp = append(f.hungUp, sid)
	return &twilioApi.ApiV2010Call{Sid: strPtr(sid), Status: params.Status}, nil
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		status   string
		answered bool
		want     State
	}{
		{"queued", false, Waiting},
		{"initiated", false, Waiting},
		{"ringing", false, Waiting},
		{"in-progress", false, Accepted},
		{"completed", true, Accepted},
		{"completed", false, Discarded},
		{"busy", false, Discarded},
		{"no-answer", false, Discarded},
		{"failed", false, Discarded},
		{"canceled", false, Discarded},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, MapStatus(tt.status, tt.answered))
		})
	}
}

func TestLine_RequestPollHangup(t *testing.T) {
	api := &fakeCalls{statuses: []string{"ringing", "in-progress", "completed"}}
	line := newLine(api, Options{From: "+1000", RingTimeout: 30})

	id, state, err := line.Request(context.Background(), "+380")
	require.NoError(t, err)
	assert.Equal(t, "CA1", id)
	assert.Equal(t, Waiting, state)
	require.Len(t, api.created, 1)
	assert.Equal(t, "+380", *api.created[0].To)
	assert.Equal(t, 30, *api.created[0].Timeout)
	assert.Contains(t, *api.created[0].Twiml, "<Say")

	for _, want := range []State{Waiting, Accepted, Accepted} {
		state, err = line.Status(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, state)
	}

	require.NoError(t, line.Hangup(context.Background(), id))
	assert.Equal(t, []string{"CA1"}, api.hungUp)
}

func TestLine_RequestFailureIsTransportError(t *testing.T) {
	line := newLine(&fakeCalls{createErr: errors.New("21215 geo permission")}, Options{From: "+1"})

	_, _, err := line.Request(context.Background(), "+380")
	assert.ErrorIs(t, err, models.ErrTransport)
}
