package mocks

import (
	"context"

	"roadmapper/internal/jules"
)

type JulesClientMock struct {
	CreateSessionFunc  func(ctx context.Context, apiKey string, req jules.CreateSessionRequest) (*jules.Session, error)
	GetSessionFunc     func(ctx context.Context, apiKey, sessionID string) (*jules.Session, error)
	ListActivitiesFunc func(ctx context.Context, apiKey, sessionID string) ([]jules.Activity, error)
	SendMessageFunc    func(ctx context.Context, apiKey, sessionID, text string) error
	VotePlanFunc       func(ctx context.Context, apiKey, sessionID string, action jules.PlanAction) error
	DeleteSessionFunc  func(ctx context.Context, apiKey, sessionID string) error
	ListSessionsFunc   func(ctx context.Context, apiKey string) ([]jules.Session, error)
}

func (m *JulesClientMock) CreateSession(ctx context.Context, apiKey string, req jules.CreateSessionRequest) (*jules.Session, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, apiKey, req)
	}
	return &jules.Session{Name: "sessions/mock", ID: "mock", State: string(jules.StateQueued)}, nil
}

func (m *JulesClientMock) GetSession(ctx context.Context, apiKey, sessionID string) (*jules.Session, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, apiKey, sessionID)
	}
	return &jules.Session{Name: "sessions/" + sessionID, ID: sessionID}, nil
}

func (m *JulesClientMock) ListActivities(ctx context.Context, apiKey, sessionID string) ([]jules.Activity, error) {
	if m.ListActivitiesFunc != nil {
		return m.ListActivitiesFunc(ctx, apiKey, sessionID)
	}
	return []jules.Activity{}, nil
}

func (m *JulesClientMock) SendMessage(ctx context.Context, apiKey, sessionID, text string) error {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, apiKey, sessionID, text)
	}
	return nil
}

func (m *JulesClientMock) VotePlan(ctx context.Context, apiKey, sessionID string, action jules.PlanAction) error {
	if m.VotePlanFunc != nil {
		return m.VotePlanFunc(ctx, apiKey, sessionID, action)
	}
	return nil
}

func (m *JulesClientMock) DeleteSession(ctx context.Context, apiKey, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, apiKey, sessionID)
	}
	return nil
}

func (m *JulesClientMock) ListSessions(ctx context.Context, apiKey string) ([]jules.Session, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx, apiKey)
	}
	return []jules.Session{}, nil
}
