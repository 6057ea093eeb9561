package jules

import "strings"

type AutomationMode string

const (
	AutomationUnspecified  AutomationMode = "AUTOMATION_MODE_UNSPECIFIED"
	AutomationAutoCreatePR AutomationMode = "AUTO_CREATE_PR"
)

// PlanAction is the vote cast on a proposed plan.
type PlanAction string

const (
	PlanApprove PlanAction = "approve"
)

// CreateSessionRequest describes a new agent engagement.
type CreateSessionRequest struct {
	Prompt          string
	Source          string
	StartingBranch  string
	Title           string
	AutomationMode  AutomationMode
	RequireApproval bool
}

type createSessionBody struct {
	Prompt              string         `json:"prompt"`
	SourceContext       sourceContext  `json:"sourceContext"`
	Title               string         `json:"title,omitempty"`
	RequirePlanApproval bool           `json:"requirePlanApproval"`
	AutomationMode      AutomationMode `json:"automationMode,omitempty"`
}

type sourceContext struct {
	Source            string             `json:"source"`
	GithubRepoContext *githubRepoContext `json:"githubRepoContext,omitempty"`
}

type githubRepoContext struct {
	StartingBranch string `json:"startingBranch"`
}

type Session struct {
	Name    string   `json:"name"`
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	State   string   `json:"state"`
	URL     string   `json:"url"`
	Outputs []Output `json:"outputs"`
}

type Output struct {
	PullRequest *PullRequest `json:"pullRequest,omitempty"`
}

type PullRequest struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PullRequestURL returns the first pull request URL among the outputs.
func (s *Session) PullRequestURL() (string, bool) {
	for _, out := range s.Outputs {
		if out.PullRequest != nil && strings.TrimSpace(out.PullRequest.URL) != "" {
			return out.PullRequest.URL, true
		}
	}
	return "", false
}

type listSessionsResponse struct {
	Sessions      []Session `json:"sessions"`
	NextPageToken string    `json:"nextPageToken"`
}

// Activity is one entry of a session's history. Only the fields the engine
// reads are decoded.
type Activity struct {
	Name          string         `json:"name"`
	Originator    string         `json:"originator"`
	Description   string         `json:"description"`
	CreateTime    string         `json:"createTime"`
	AgentMessaged *AgentMessaged `json:"agentMessaged,omitempty"`
	AgentActivity *AgentActivity `json:"agentActivity,omitempty"`
}

type AgentMessaged struct {
	AgentMessage string `json:"agentMessage"`
}

type AgentActivity struct {
	Message string `json:"message"`
}

// AgentMessage returns the text the agent authored in this activity, if any.
func (a Activity) AgentMessage() (string, bool) {
	if a.AgentMessaged != nil && a.AgentMessaged.AgentMessage != "" {
		return a.AgentMessaged.AgentMessage, true
	}
	if a.AgentActivity != nil && a.AgentActivity.Message != "" {
		return a.AgentActivity.Message, true
	}
	return "", false
}

// LatestAgentMessage scans activities newest-last and returns the most recent
// agent-authored message.
func LatestAgentMessage(activities []Activity) (string, bool) {
	for i := len(activities) - 1; i >= 0; i-- {
		if msg, ok := activities[i].AgentMessage(); ok {
			return msg, true
		}
	}
	return "", false
}

type listActivitiesResponse struct {
	Activities    []Activity `json:"activities"`
	NextPageToken string     `json:"nextPageToken"`
}
