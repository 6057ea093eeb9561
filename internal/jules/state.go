package jules

import (
	"errors"
	"fmt"
	"strings"
)

// State is the lifecycle state the Jules API reports for a session.
type State string

const (
	StateUnspecified          State = "STATE_UNSPECIFIED"
	StateQueued               State = "QUEUED"
	StatePlanning             State = "PLANNING"
	StateRunning              State = "RUNNING"
	StateInProgress           State = "IN_PROGRESS"
	StatePaused               State = "PAUSED"
	StateAwaitingPlanApproval State = "AWAITING_PLAN_APPROVAL"
	StateAwaitingUserFeedback State = "AWAITING_USER_FEEDBACK"
	StateCompleted            State = "COMPLETED"
	StateFailed               State = "FAILED"
	StateCancelled            State = "CANCELLED"
	StateError                State = "ERROR"
)

var ErrUnknownState = errors.New("unknown session state")

var knownStates = map[State]struct{}{
	StateUnspecified:          {},
	StateQueued:               {},
	StatePlanning:             {},
	StateRunning:              {},
	StateInProgress:           {},
	StatePaused:               {},
	StateAwaitingPlanApproval: {},
	StateAwaitingUserFeedback: {},
	StateCompleted:            {},
	StateFailed:               {},
	StateCancelled:            {},
	StateError:                {},
}

// ParseState maps a raw state string onto the closed set above. An empty
// string is STATE_UNSPECIFIED; anything unrecognized is ErrUnknownState.
func ParseState(raw string) (State, error) {
	s := State(strings.ToUpper(strings.TrimSpace(raw)))
	if s == "" {
		return StateUnspecified, nil
	}
	if _, ok := knownStates[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, raw)
	}
	return s, nil
}

// IsAwaiting reports whether the session is blocked on a human.
func (s State) IsAwaiting() bool {
	return s == StateAwaitingPlanApproval || s == StateAwaitingUserFeedback
}

// IsFailed reports whether the session ended without producing work.
func (s State) IsFailed() bool {
	return s == StateFailed || s == StateCancelled || s == StateError
}
