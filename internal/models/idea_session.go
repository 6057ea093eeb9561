package models

import "time"

type IdeaSessionStatus string

const (
	IdeaSessionPending   IdeaSessionStatus = "Pending"
	IdeaSessionCompleted IdeaSessionStatus = "Completed"
	IdeaSessionError     IdeaSessionStatus = "Error"
)

// IdeaSession tracks one ideation session launched against the agent until
// its ideas are parsed into features.
type IdeaSession struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	RoadmapID   uint              `gorm:"index;not null" json:"roadmapId"`
	SessionID   string            `gorm:"size:255;not null;uniqueIndex" json:"sessionId"`
	Status      IdeaSessionStatus `gorm:"size:16;not null;index" json:"status"`
	PromptTitle string            `gorm:"size:255" json:"promptTitle"`
	Note        string            `gorm:"type:text" json:"note,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}
