package orchestrator

import (
	"strings"

	"roadmapper/internal/models"
)

const (
	defaultStack      = "Unknown"
	defaultPlatform   = "Web"
	defaultDependency = "None specific"
	defaultTags       = "General"
	noDescription     = "No description provided."
	noDetails         = "No details provided."

	tagGuidelinesMarker = "{tag_guidelines}"
	descriptionPreamble = "Roadmap Description:"

	fallbackBuildingDirective = "\n\nIMPORTANT: IMPLEMENTATION MODE. Please implement the requested changes."
	buildingDirective         = "\n\nIMPORTANT: IMPLEMENTATION MODE. Please implement the requested changes. You may create a Pull Request."
	planningInstruction       = "\n\nIMPORTANT: This session is for brainstorming/ideation only. Do NOT write code. Do NOT create a Pull Request. " +
		"Provide the output as a single JSON object of the form {\"ideas\": [...]} where every idea has 'title', 'explanation' and 'type' fields and an optional 'tags' list."
	exclusionHeader = "\n\nCONTEXT - EXISTING ITEMS (DO NOT SUGGEST THESE):\n"
)

type tagGuideline struct {
	key  string
	text string
}

// tagCatalog is matched in this order for every feature tag.
var tagCatalog = []tagGuideline{
	{"Frontend", "Frontend: Use the project's established UI/Component library (as defined in Stack). Ensure responsiveness and accessibility."},
	{"UI", "UI: Focus on visual fidelity, spacing, and typography to match the premium design system."},
	{"UX", "UX: Implement smooth interactions, loading states, and error handling for a seamless user experience."},
	{"Backend", "Backend: ensure safe data handling, efficient queries, and strict type safety."},
	{"Database", "Database: Maintain schema consistency. Use transactions for mutations."},
	{"Security", "Security: Sanitize all inputs. Check permissions. Do not expose sensitive data."},
	{"API", "API: Follow the existing API patterns (REST/RPC). Handle errors gracefully."},
	{"Mobile", "Mobile: Optimize for touch targets and platform-specific guidelines (iOS/Android)."},
}

// RoadmapContext is the slice of a roadmap the prompt constructor reads.
type RoadmapContext struct {
	Description string
	Stack       []string
	Platform    []string
	Dependency  []string
}

func ContextFor(r *models.Roadmap) RoadmapContext {
	if r == nil {
		return RoadmapContext{}
	}
	return RoadmapContext{
		Description: r.Description,
		Stack:       r.ClassificationValues(models.CategoryStack),
		Platform:    r.ClassificationValues(models.CategoryPlatform),
		Dependency:  r.ClassificationValues(models.CategoryDependency),
	}
}

// BuildPrompt renders the instruction sent to the agent for one feature. It
// reads nothing but its arguments, so equal inputs give equal output.
func BuildPrompt(templates []models.PromptTemplate, rc RoadmapContext, feature *models.Feature, mode models.PromptMode) string {
	title, explanation, kind := "", "", models.KindFeature
	var tags []string
	if feature != nil {
		title, explanation = feature.Title, feature.Explanation
		if feature.Kind != "" {
			kind = feature.Kind
		}
		tags = feature.TagNames()
	}
	details := explanation
	if strings.TrimSpace(details) == "" {
		details = noDetails
	}

	tpl, ok := selectTemplate(templates, kind, mode)
	if !ok {
		out := "Task: " + title + "\nDetails: " + details + "\nType: " + string(kind)
		if mode == models.ModeBuilding {
			out += fallbackBuildingDirective
		}
		return out
	}

	out := renderTemplate(tpl.Text, rc, tags)
	out += "\n\nTask: " + title + "\nDetails: " + details
	if mode == models.ModeBuilding {
		out += buildingDirective
	}
	return out
}

// IdeationPrompt renders a Planning template for a brainstorming session,
// listing the roadmap's existing items so the agent does not repeat them.
func IdeationPrompt(tpl models.PromptTemplate, rc RoadmapContext, existing []models.Feature) string {
	return renderTemplate(tpl.Text, rc, nil) + "\n" + ExclusionContext(tpl.Kind, existing) + "\n" + planningInstruction
}

// ExclusionContext lists the existing features of the template's kind: bugs
// for bug templates, everything else otherwise. Empty when nothing matches.
func ExclusionContext(kind models.FeatureKind, existing []models.Feature) string {
	bugs := kind == models.KindBug
	var b strings.Builder
	for _, f := range existing {
		if (f.Kind == models.KindBug) != bugs {
			continue
		}
		b.WriteString("- [")
		b.WriteString(string(f.Status))
		b.WriteString("] ")
		b.WriteString(f.Title)
		if f.Explanation != "" {
			b.WriteString(" (")
			b.WriteString(f.Explanation)
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return ""
	}
	return exclusionHeader + b.String()
}

func selectTemplate(templates []models.PromptTemplate, kind models.FeatureKind, mode models.PromptMode) (models.PromptTemplate, bool) {
	for _, t := range templates {
		if t.Kind == kind && t.Mode == mode {
			return t, true
		}
	}
	return models.PromptTemplate{}, false
}

func renderTemplate(text string, rc RoadmapContext, tags []string) string {
	text = strings.NewReplacer(
		"{stack}", joinOr(rc.Stack, defaultStack),
		"{platform}", joinOr(rc.Platform, defaultPlatform),
		"{dependency}", joinOr(rc.Dependency, defaultDependency),
		"{feature_tags}", joinOr(tags, defaultTags),
	).Replace(text)

	if !strings.Contains(text, descriptionPreamble) {
		desc := rc.Description
		if strings.TrimSpace(desc) == "" {
			desc = noDescription
		}
		text = descriptionPreamble + " " + desc + "\n\n" + text
	}

	guidelines := tagGuidelines(tags)
	switch {
	case len(guidelines) > 0 && strings.Contains(text, tagGuidelinesMarker):
		text = strings.ReplaceAll(text, tagGuidelinesMarker, strings.Join(guidelines, "\n"))
	case len(guidelines) > 0:
		text += "\n\nTargeted Guidelines:\n" + strings.Join(guidelines, "\n")
	default:
		text = strings.ReplaceAll(text, tagGuidelinesMarker, "")
	}
	return text
}

func tagGuidelines(tags []string) []string {
	var lines []string
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		for _, g := range tagCatalog {
			if strings.Contains(lower, strings.ToLower(g.key)) {
				lines = append(lines, "- "+g.text)
			}
		}
	}
	return lines
}

func joinOr(values []string, fallback string) string {
	var kept []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return fallback
	}
	return strings.Join(kept, ", ")
}
