package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yargevad/filepathx"
	"gopkg.in/yaml.v3"

	"roadmapper/internal/models"
	"roadmapper/internal/repositories"
)

type TemplateService interface {
	GetTemplate(ctx context.Context, id uint) (*models.PromptTemplate, error)
	ListTemplates(ctx context.Context) ([]models.PromptTemplate, error)
	CreateTemplate(ctx context.Context, t *models.PromptTemplate) (*models.PromptTemplate, error)
	UpdateTemplate(ctx context.Context, t *models.PromptTemplate) (*models.PromptTemplate, error)
	DeleteTemplate(ctx context.Context, id uint) error
	SeedDefaults(ctx context.Context) (int, error)
	LoadDir(ctx context.Context, dir string) (int, error)
}

type templateService struct {
	repo repositories.TemplateRepository
}

func NewTemplateService(repo repositories.TemplateRepository) TemplateService {
	return &templateService{repo: repo}
}

func (s *templateService) GetTemplate(ctx context.Context, id uint) (*models.PromptTemplate, error) {
	tmpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: get template %d: %w", id, err)
	}
	return tmpl, nil
}

func (s *templateService) ListTemplates(ctx context.Context) ([]models.PromptTemplate, error) {
	list, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: list templates: %w", err)
	}
	return list, nil
}

func (s *templateService) CreateTemplate(ctx context.Context, t *models.PromptTemplate) (*models.PromptTemplate, error) {
	if err := validateTemplate(t); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("service: create template: %w", err)
	}
	return t, nil
}

func (s *templateService) UpdateTemplate(ctx context.Context, t *models.PromptTemplate) (*models.PromptTemplate, error) {
	if err := validateTemplate(t); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("service: update template %d: %w", t.ID, err)
	}
	return t, nil
}

func (s *templateService) DeleteTemplate(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service: delete template %d: %w", id, err)
	}
	return nil
}

// SeedDefaults installs the stock templates when the table is empty and
// reports how many were added.
func (s *templateService) SeedDefaults(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("service: seed templates: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	added := 0
	for _, t := range DefaultTemplates() {
		t := t
		if err := s.repo.Create(ctx, &t); err != nil {
			return added, fmt.Errorf("service: seed template %q: %w", t.Title, err)
		}
		added++
	}
	return added, nil
}

// LoadDir upserts every template found in *.yaml / *.yml files below dir.
// A file may hold one template or a list of them.
func (s *templateService) LoadDir(ctx context.Context, dir string) (int, error) {
	var files []string
	for _, pattern := range []string{"**/*.yaml", "**/*.yml"} {
		matches, err := filepathx.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return 0, fmt.Errorf("service: glob %s: %w", dir, err)
		}
		files = append(files, matches...)
	}

	loaded := 0
	for _, file := range files {
		templates, err := readTemplateFile(file)
		if err != nil {
			return loaded, err
		}
		for i := range templates {
			if err := validateTemplate(&templates[i]); err != nil {
				return loaded, fmt.Errorf("%s: %w", file, err)
			}
			if err := s.repo.Upsert(ctx, &templates[i]); err != nil {
				return loaded, fmt.Errorf("service: load %s: %w", file, err)
			}
			loaded++
		}
	}
	return loaded, nil
}

func readTemplateFile(path string) ([]models.PromptTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []models.PromptTemplate
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var node yaml.Node
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if len(node.Content) == 0 {
			continue
		}
		if node.Content[0].Kind == yaml.SequenceNode {
			var list []models.PromptTemplate
			if err := node.Decode(&list); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			out = append(out, list...)
			continue
		}
		var one models.PromptTemplate
		if err := node.Decode(&one); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		out = append(out, one)
	}
	return out, nil
}

func validateTemplate(t *models.PromptTemplate) error {
	if t == nil {
		return invalid("template is required")
	}
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return invalid("template title is required")
	}
	if strings.TrimSpace(t.Text) == "" {
		return invalid("template text is required")
	}
	kind, ok := models.ParseFeatureKind(string(t.Kind))
	if !ok {
		return invalidf("template kind must be Feature or Bug, got %q", t.Kind)
	}
	t.Kind = kind
	switch strings.ToLower(string(t.Mode)) {
	case "", "planning":
		t.Mode = models.ModePlanning
	case "building":
		t.Mode = models.ModeBuilding
	default:
		return invalidf("template mode must be Planning or Building, got %q", t.Mode)
	}
	return nil
}

// DefaultTemplates returns the stock security and architecture templates.
func DefaultTemplates() []models.PromptTemplate {
	return []models.PromptTemplate{
		{
			Title: "Security Sentinel Scan",
			Kind:  models.KindBug,
			Mode:  models.ModePlanning,
			Text: "Act as Guardian, the security protector of the codebase. Your philosophy is 'Trust Nothing, Verify Everything.' " +
				"Scan the codebase and roadmap context for: 1) Hardcoded Secrets (API keys, passwords), 2) Injection risks (SQL/Shell), " +
				"3) Data Exposure (sensitive info in logs/errors), and 4) Auth & Access bypasses. Prioritize Critical vulnerabilities. " +
				"Output a list of potential bugs and vulnerabilities in JSON format.",
		},
		{
			Title: "Guardian Implementation Fix",
			Kind:  models.KindBug,
			Mode:  models.ModeBuilding,
			Text: "Act as Guardian. Your goal is to fix security vulnerabilities using a defense-in-depth approach. " +
				"Prioritize Critical issues (Secrets, Injection, Auth Bypass). Follow the PR format: 'Sentinel: [Severity] [Summary]'. " +
				"Explain the Vulnerability, Impact, and Fix. Always run tests/lint before reporting, and use established security libraries. " +
				"Trust Nothing, Verify Everything.",
		},
		{
			Title: "Lead Architect: Feature Ideation",
			Kind:  models.KindFeature,
			Mode:  models.ModePlanning,
			Text: "Act as a Senior Software Architect. The project stack is: {stack}. The dependencies are: {dependency}. " +
				"The platform contexts are: {platform}. Brainstorm feature ideas that add high value to the project roadmap based on " +
				"the current codebase and project status. Focus on modularity, scalability, and user impact. For each idea, you MUST " +
				"assign one or more of the following Tags: ['Frontend', 'Backend', 'UI', 'UX', 'Database', 'Security', 'API', 'Mobile']. " +
				"Provide output in JSON format.",
		},
		{
			Title: "Lead Architect: Implementation",
			Kind:  models.KindFeature,
			Mode:  models.ModeBuilding,
			Text: `Act as a Senior Engineer.
Project Stack: {stack}
Dependencies: {dependency}
Context Tags: {feature_tags}

Implementation Guidelines:
{tag_guidelines}

General Rules:
1. Follow existing project patterns (e.g., Vertical Slices).
2. Write clean, documented, and testable code.
3. Ensure no breaking changes to existing functionality.`,
		},
	}
}
