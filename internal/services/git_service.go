package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"roadmapper/internal/utils"
)

var (
	ErrNoSource          = errors.New("source repository is not set")
	ErrUnsupportedSource = errors.New("unsupported source repository")
)

var ownerRepoPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// GitService turns the many ways a roadmap may name its repository into the
// "sources/github/<owner>/<repo>" resource name the agent expects.
type GitService struct{}

func NewGitService() *GitService {
	return &GitService{}
}

// Open an existing repo
func (g *GitService) Open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// OriginURL returns the first URL of the "origin" remote of a local checkout.
func (g *GitService) OriginURL(path string) (string, error) {
	repo, err := g.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	remote, err := repo.Remote("origin")
	if err != nil {
		return "", fmt.Errorf("origin remote of %s: %w", path, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("origin remote of %s has no url", path)
	}
	return urls[0], nil
}

// ResolveSource accepts an agent resource name, an "owner/repo" shorthand, a
// GitHub https or ssh URL, or the path of a local checkout whose origin points
// at GitHub.
func (g *GitService) ResolveSource(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrNoSource
	}
	if strings.HasPrefix(ref, "sources/") {
		return ref, nil
	}
	if utils.HasGitRepo(ref) {
		origin, err := g.OriginURL(ref)
		if err != nil {
			return "", err
		}
		ref = origin
	} else if ownerRepoPattern.MatchString(ref) {
		return "sources/github/" + strings.TrimSuffix(ref, ".git"), nil
	}

	ep, err := transport.NewEndpoint(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnsupportedSource, ref, err)
	}
	if !strings.EqualFold(ep.Host, "github.com") && !strings.EqualFold(ep.Host, "www.github.com") {
		return "", fmt.Errorf("%w: %s: host %q", ErrUnsupportedSource, ref, ep.Host)
	}
	path := strings.TrimSuffix(strings.Trim(ep.Path, "/"), ".git")
	if !ownerRepoPattern.MatchString(path) {
		return "", fmt.Errorf("%w: %s: expected owner/repo, got %q", ErrUnsupportedSource, ref, path)
	}
	return "sources/github/" + path, nil
}
