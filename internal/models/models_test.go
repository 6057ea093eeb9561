package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoadmapNeedsDiscovery(t *testing.T) {
	described := []RoadmapClassification{{Category: CategoryStack, Value: "Go"}}

	assert.True(t, (&Roadmap{}).NeedsDiscovery())
	assert.True(t, (&Roadmap{Description: "  ", Classifications: described}).NeedsDiscovery())
	assert.True(t, (&Roadmap{Description: "An online shop."}).NeedsDiscovery())
	assert.False(t, (&Roadmap{Description: "An online shop.", Classifications: described}).NeedsDiscovery())
}

func TestRoadmapHasClassification(t *testing.T) {
	r := &Roadmap{Classifications: []RoadmapClassification{
		{Category: CategoryStack, Value: "Go"},
		{Category: "Tech", Value: "Docker"},
	}}

	assert.True(t, r.HasClassification("Docker"))
	assert.False(t, r.HasClassification("docker"))
	assert.False(t, r.HasClassification("React"))
	assert.Equal(t, []string{"Go"}, r.ClassificationValues("stack"))
}

func TestFeatureStatusTransitions(t *testing.T) {
	assert.True(t, StatusArchived.IsTerminal())
	for _, s := range []FeatureStatus{StatusIdeas, StatusIdeaPassed, StatusBugs, StatusDoing, StatusDone, StatusError} {
		assert.False(t, s.IsTerminal(), s)
		assert.True(t, CanTransition(s, StatusArchived), s)
	}
	assert.False(t, CanTransition(StatusArchived, StatusIdeas))
	assert.True(t, CanTransition(StatusDoing, StatusError))
	assert.False(t, CanTransition(StatusIdeas, StatusDone))

	st, ok := ParseFeatureStatus(" Archived ")
	assert.True(t, ok)
	assert.Equal(t, StatusArchived, st)
	_, ok = ParseFeatureStatus("Shipped")
	assert.False(t, ok)
}
