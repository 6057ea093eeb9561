package models

import (
	"strings"
	"time"
)

type FeatureKind string

const (
	KindFeature FeatureKind = "Feature"
	KindBug     FeatureKind = "Bug"
)

// ParseFeatureKind normalizes free-form kind strings coming from the agent.
// ok is false when s names neither kind.
func ParseFeatureKind(s string) (FeatureKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "feature":
		return KindFeature, true
	case "bug":
		return KindBug, true
	}
	return "", false
}

type FeatureStatus string

const (
	StatusIdeas      FeatureStatus = "Ideas"
	StatusIdeaPassed FeatureStatus = "Idea Passed"
	StatusBugs       FeatureStatus = "Bugs"
	StatusDoing      FeatureStatus = "Doing"
	StatusDone       FeatureStatus = "Done"
	StatusError      FeatureStatus = "Error"
	StatusArchived   FeatureStatus = "Archived"
)

// featureTransitions lists the manual moves allowed from each status.
// Archived is reachable from every non-terminal status.
var featureTransitions = map[FeatureStatus][]FeatureStatus{
	StatusIdeas:      {StatusIdeaPassed, StatusBugs, StatusArchived},
	StatusIdeaPassed: {StatusDoing, StatusIdeas, StatusArchived},
	StatusBugs:       {StatusDoing, StatusIdeas, StatusArchived},
	StatusDoing:      {StatusDone, StatusError, StatusArchived},
	StatusDone:       {StatusArchived},
	StatusError:      {StatusIdeaPassed, StatusBugs, StatusArchived},
}

// CanTransition reports whether a feature may move from one status to another.
func CanTransition(from, to FeatureStatus) bool {
	for _, s := range featureTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave s.
func (s FeatureStatus) IsTerminal() bool {
	return s == StatusArchived
}

func ParseFeatureStatus(s string) (FeatureStatus, bool) {
	st := FeatureStatus(strings.TrimSpace(s))
	if st.IsTerminal() {
		return st, true
	}
	if _, ok := featureTransitions[st]; ok {
		return st, true
	}
	return "", false
}

type Feature struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	RoadmapID   uint          `gorm:"index;not null" json:"roadmapId"`
	Title       string        `gorm:"size:512;not null" json:"title"`
	Explanation string        `gorm:"type:text" json:"explanation"`
	Kind        FeatureKind   `gorm:"size:16;not null;default:Feature" json:"kind"`
	Status      FeatureStatus `gorm:"size:32;not null;index" json:"status"`
	AIGenerated bool          `gorm:"not null;default:false" json:"aiGenerated"`
	SessionID   *string       `gorm:"size:255;index" json:"sessionId,omitempty"`
	// AgentStatus remembers the last external state annotated on the feature
	// so awaiting notices are not repeated every cycle.
	AgentStatus    string           `gorm:"size:64" json:"agentStatus,omitempty"`
	PullRequestURL *string          `gorm:"size:1024" json:"pullRequestUrl,omitempty"`
	Tags           []FeatureTag     `gorm:"constraint:OnDelete:CASCADE" json:"tags"`
	Comments       []FeatureComment `gorm:"constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

type FeatureTag struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	FeatureID uint   `gorm:"index;not null" json:"-"`
	Tag       string `gorm:"size:128;not null" json:"tag"`
}

type FeatureComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FeatureID uint      `gorm:"index;not null" json:"featureId"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasSession reports whether the feature holds a remote session reference.
func (f *Feature) HasSession() bool {
	return f.SessionID != nil && *f.SessionID != ""
}

// Session returns the session reference or "".
func (f *Feature) Session() string {
	if f.SessionID == nil {
		return ""
	}
	return *f.SessionID
}

// TagNames returns the tag strings in stored order.
func (f *Feature) TagNames() []string {
	names := make([]string, 0, len(f.Tags))
	for _, t := range f.Tags {
		names = append(names, t.Tag)
	}
	return names
}

// NewTags builds tag rows from plain strings, dropping blanks.
func NewTags(tags []string) []FeatureTag {
	var out []FeatureTag
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, FeatureTag{Tag: t})
	}
	return out
}
