package orchestrator

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"roadmapper/internal/models"
)

// Idea is one backlog suggestion extracted from agent output.
type Idea struct {
	Title       string   `json:"title"`
	Explanation string   `json:"explanation"`
	Kind        string   `json:"type,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ParseIdeas extracts the "ideas" array from the outermost JSON object in
// text. Prose around the object is ignored; any failure yields no ideas.
func ParseIdeas(text string) []Idea {
	ideas, err := decodeIdeas(text)
	if err != nil {
		return nil
	}
	return ideas
}

// decodeIdeas separates "no JSON object at all" (ErrParse) from a valid
// object that simply carries no ideas.
func decodeIdeas(text string) ([]Idea, error) {
	obj, err := outermostObject(text)
	if err != nil {
		return nil, err
	}
	return ideasFrom(obj.Get("ideas")), nil
}

func outermostObject(text string) (gjson.Result, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return gjson.Result{}, fmt.Errorf("%w: no JSON object in agent message", ErrParse)
	}
	span := text[start : end+1]
	if !gjson.Valid(span) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON object in agent message", ErrParse)
	}
	return gjson.Parse(span), nil
}

func ideasFrom(list gjson.Result) []Idea {
	if !list.IsArray() {
		return nil
	}
	var ideas []Idea
	list.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		title := strings.TrimSpace(item.Get("title").String())
		if title == "" {
			return true
		}
		idea := Idea{
			Title:       title,
			Explanation: strings.TrimSpace(item.Get("explanation").String()),
			Kind:        strings.TrimSpace(item.Get("type").String()),
		}
		if idea.Kind == "" {
			idea.Kind = strings.TrimSpace(item.Get("kind").String())
		}
		tags := item.Get("tags")
		switch {
		case tags.IsArray():
			for _, t := range tags.Array() {
				if s := strings.TrimSpace(t.String()); s != "" {
					idea.Tags = append(idea.Tags, s)
				}
			}
		case tags.Type == gjson.String:
			for _, t := range strings.Split(tags.String(), ",") {
				if s := strings.TrimSpace(t); s != "" {
					idea.Tags = append(idea.Tags, s)
				}
			}
		}
		ideas = append(ideas, idea)
		return true
	})
	return ideas
}

// InferKind guesses an idea's kind from the title of the template that
// produced it: any title mentioning "bug" yields bugs. Titles such as
// "Debugging tools" are misread; ideas that carry an explicit type win.
func InferKind(promptTitle string) models.FeatureKind {
	if strings.Contains(strings.ToLower(promptTitle), "bug") {
		return models.KindBug
	}
	return models.KindFeature
}

// ResolveKind prefers the kind the agent stated over the inferred one.
func (i Idea) ResolveKind(promptTitle string) models.FeatureKind {
	if k, ok := models.ParseFeatureKind(i.Kind); ok {
		return k
	}
	return InferKind(promptTitle)
}

// Feature converts the idea into a fresh AI-generated backlog item.
func (i Idea) Feature(roadmapID uint, promptTitle string) models.Feature {
	return models.Feature{
		RoadmapID:   roadmapID,
		Title:       i.Title,
		Explanation: i.Explanation,
		Kind:        i.ResolveKind(promptTitle),
		Status:      models.StatusIdeas,
		AIGenerated: true,
		Tags:        models.NewTags(i.Tags),
	}
}
