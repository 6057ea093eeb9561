package models

import (
	"strings"
	"time"
)

// Classification categories the prompt constructor reads.
const (
	CategoryStack      = "Stack"
	CategoryPlatform   = "Platform"
	CategoryDependency = "Dependency"
)

type Roadmap struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	Title            string `gorm:"size:255;not null" json:"title"`
	SourceRepository string `gorm:"size:512" json:"sourceRepository"`
	// AgentCredential is the roadmap-level Jules API key. Empty falls back
	// to the site-level default.
	AgentCredential string                  `gorm:"size:512" json:"-"`
	Description     string                  `gorm:"type:text" json:"description"`
	// No column default: an explicit false must survive insert.
	Active          bool                    `gorm:"not null" json:"active"`
	RequireApproval bool                    `gorm:"not null;default:false" json:"requireApproval"`
	Classifications []RoadmapClassification `gorm:"constraint:OnDelete:CASCADE" json:"classifications"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

type RoadmapClassification struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	RoadmapID uint   `gorm:"index;not null" json:"roadmapId"`
	Category  string `gorm:"size:64;not null" json:"category"`
	Value     string `gorm:"size:255;not null" json:"value"`
}

// ClassificationValues returns the values filed under category, in stored order.
func (r *Roadmap) ClassificationValues(category string) []string {
	var values []string
	for _, c := range r.Classifications {
		if strings.EqualFold(c.Category, category) {
			values = append(values, c.Value)
		}
	}
	return values
}

// HasClassification reports whether any classification already carries value.
func (r *Roadmap) HasClassification(value string) bool {
	for _, c := range r.Classifications {
		if c.Value == value {
			return true
		}
	}
	return false
}

// NeedsDiscovery reports whether the roadmap still lacks the context the
// discovery flow fills in.
func (r *Roadmap) NeedsDiscovery() bool {
	return strings.TrimSpace(r.Description) == "" || len(r.Classifications) == 0
}
