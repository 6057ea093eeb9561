package models

import "time"

// RoadmapSettings is a single-row table (ID=1) of site-wide orchestration settings.
type RoadmapSettings struct {
	ID             uint   `gorm:"primaryKey"`
	StartingBranch string `gorm:"not null;default:main"`
	WebhookSecret  string `gorm:"size:128" json:"-"`
	UpdatedAt      time.Time
}
