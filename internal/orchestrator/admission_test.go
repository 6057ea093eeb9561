package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"roadmapper/internal/jules"
	"roadmapper/internal/tests/mocks"
)

func TestCheckQueue(t *testing.T) {
	cases := []struct {
		name     string
		sessions []jules.Session
		err      error
		want     QueueStatus
	}{
		{name: "empty", want: QueueSafe},
		{name: "running only", sessions: []jules.Session{{State: "RUNNING"}, {State: "COMPLETED"}}, want: QueueSafe},
		{name: "one queued", sessions: []jules.Session{{State: "COMPLETED"}, {State: "queued"}}, want: QueueBusy},
		{name: "unknown states ignored", sessions: []jules.Session{{State: "SOMETHING_NEW"}}, want: QueueSafe},
		{name: "listing fails open", err: assert.AnError, want: QueueSafe},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			agent := &mocks.JulesClientMock{
				ListSessionsFunc: func(ctx context.Context, apiKey string) ([]jules.Session, error) {
					assert.Equal(t, "key", apiKey)
					return tc.sessions, tc.err
				},
			}
			assert.Equal(t, tc.want, CheckQueue(context.Background(), agent, "key", nil))
		})
	}
}

func TestQueueStatus_String(t *testing.T) {
	assert.Equal(t, "busy", QueueBusy.String())
	assert.Equal(t, "safe", QueueSafe.String())
}
