package orchestrator

import "errors"

var (
	// ErrConfiguration marks a unit of work skipped because a credential or
	// source repository is missing. It resumes once configured.
	ErrConfiguration = errors.New("orchestrator: roadmap not configured")
	// ErrTransient marks an agent call that failed or timed out; the unit of
	// work is retried on the next cadence tick.
	ErrTransient = errors.New("orchestrator: agent unavailable")
	// ErrParse marks agent output that held no decodable JSON object.
	ErrParse = errors.New("orchestrator: malformed agent output")
	// ErrTimeout marks an ideation session that stayed pending too long.
	ErrTimeout = errors.New("orchestrator: idea session timed out")

	ErrDiscoveryTimeout = errors.New("orchestrator: discovery timed out waiting for the agent")
	ErrUnknownCadence   = errors.New("orchestrator: unknown cadence")
	ErrQueueBusy        = errors.New("orchestrator: agent queue is busy")
	ErrNoSession        = errors.New("orchestrator: feature has no agent session")
	ErrAlreadyAssigned  = errors.New("orchestrator: feature already has an agent session")
	ErrNotAssignable    = errors.New("orchestrator: feature status cannot be assigned")
)
