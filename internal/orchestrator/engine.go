package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"roadmapper/internal/events"
	"roadmapper/internal/jules"
	"roadmapper/internal/models"
	"roadmapper/internal/repositories"
)

const (
	DefaultIdeaSessionTimeout = 30 * time.Minute
	DefaultDiscoveryAttempts  = 10
	DefaultDiscoveryInterval  = 3 * time.Second
	DefaultStartingBranch     = "main"
)

type Cadence string

const (
	CadenceFrequent Cadence = "frequent"
	CadenceHourly   Cadence = "hourly"
	CadenceDaily    Cadence = "daily"
)

func Cadences() []Cadence {
	return []Cadence{CadenceFrequent, CadenceHourly, CadenceDaily}
}

func ParseCadence(s string) (Cadence, error) {
	c := Cadence(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Cadences() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCadence, s)
}

// CredentialResolver yields the agent key for a roadmap, or "".
type CredentialResolver interface {
	Resolve(ctx context.Context, roadmap *models.Roadmap) string
}

// SourceResolver turns a roadmap's repository reference into the agent's
// source name.
type SourceResolver interface {
	ResolveSource(ref string) (string, error)
}

type Deps struct {
	Roadmaps     repositories.RoadmapRepository
	Features     repositories.FeatureRepository
	IdeaSessions repositories.IdeaSessionRepository
	Templates    repositories.TemplateRepository
	Settings     repositories.SettingsRepository
	Agent        jules.Client
	Credentials  CredentialResolver
	Sources      SourceResolver
	Logger       *slog.Logger
}

type Options struct {
	IdeaSessionTimeout time.Duration
	DiscoveryAttempts  int
	DiscoveryInterval  time.Duration
	StartingBranch     string
}

type Option func(*Engine)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSleeper replaces the wait between discovery polls.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) { e.sleep = sleep }
}

// Engine runs the cadence steps. It keeps no state between calls, so
// repeated or overlapping invocations rely on the existence checks each
// step makes before creating anything.
type Engine struct {
	roadmaps     repositories.RoadmapRepository
	features     repositories.FeatureRepository
	ideaSessions repositories.IdeaSessionRepository
	templates    repositories.TemplateRepository
	settings     repositories.SettingsRepository
	agent        jules.Client
	credentials  CredentialResolver
	sources      SourceResolver
	log          *slog.Logger
	opts         Options
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewEngine(deps Deps, opts Options, options ...Option) *Engine {
	if opts.IdeaSessionTimeout <= 0 {
		opts.IdeaSessionTimeout = DefaultIdeaSessionTimeout
	}
	if opts.DiscoveryAttempts <= 0 {
		opts.DiscoveryAttempts = DefaultDiscoveryAttempts
	}
	if opts.DiscoveryInterval <= 0 {
		opts.DiscoveryInterval = DefaultDiscoveryInterval
	}
	if strings.TrimSpace(opts.StartingBranch) == "" {
		opts.StartingBranch = DefaultStartingBranch
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		roadmaps:     deps.Roadmaps,
		features:     deps.Features,
		ideaSessions: deps.IdeaSessions,
		templates:    deps.Templates,
		settings:     deps.Settings,
		agent:        deps.Agent,
		credentials:  deps.Credentials,
		sources:      deps.Sources,
		log:          log.With("component", "orchestrator"),
		opts:         opts,
		now:          time.Now,
		sleep:        sleepContext,
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// Report counts what one cadence invocation did.
type Report struct {
	Cadence    Cadence   `json:"cadence,omitempty"`
	RunID      string    `json:"runId,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	Launched          int `json:"launched"`
	TrackersCompleted int `json:"trackersCompleted"`
	TrackersFailed    int `json:"trackersFailed"`
	TrackersTimedOut  int `json:"trackersTimedOut"`
	IdeasCreated      int `json:"ideasCreated"`
	Dispatched        int `json:"dispatched"`
	Completed         int `json:"completed"`
	Failed            int `json:"failed"`
	Annotated         int `json:"annotated"`
	Cleaned           int `json:"cleaned"`
	Skipped           int `json:"skipped"`
	Errors            int `json:"errors"`
}

func (r *Report) add(o Report) {
	r.Launched += o.Launched
	r.TrackersCompleted += o.TrackersCompleted
	r.TrackersFailed += o.TrackersFailed
	r.TrackersTimedOut += o.TrackersTimedOut
	r.IdeasCreated += o.IdeasCreated
	r.Dispatched += o.Dispatched
	r.Completed += o.Completed
	r.Failed += o.Failed
	r.Annotated += o.Annotated
	r.Cleaned += o.Cleaned
	r.Skipped += o.Skipped
	r.Errors += o.Errors
}

// Run executes every step bound to cadence. Step failures are logged and
// counted, never returned.
func (e *Engine) Run(ctx context.Context, cadence Cadence) (Report, error) {
	if _, err := ParseCadence(string(cadence)); err != nil {
		return Report{}, err
	}
	runID := events.NewRunID()
	ctx = events.WithRun(ctx, runID)
	report := Report{Cadence: cadence, RunID: runID, StartedAt: e.now()}
	e.logger(ctx).InfoContext(ctx, "cadence started", "cadence", cadence)

	switch cadence {
	case CadenceFrequent:
		report.add(e.PollIdeaSessions(ctx))
	case CadenceHourly:
		report.add(e.MonitorBuilds(ctx))
		report.add(e.CleanArchived(ctx))
	case CadenceDaily:
		report.add(e.LaunchIdeaSessions(ctx))
		report.add(e.DispatchBuilds(ctx))
	}

	report.FinishedAt = e.now()
	e.logger(ctx).InfoContext(ctx, "cadence finished",
		"cadence", cadence,
		"duration", report.FinishedAt.Sub(report.StartedAt),
		"launched", report.Launched,
		"dispatched", report.Dispatched,
		"errors", report.Errors,
	)
	return report, nil
}

func (e *Engine) logger(ctx context.Context) *slog.Logger {
	if id := events.RunFromContext(ctx); id != "" {
		return e.log.With("run_id", id)
	}
	return e.log
}

// agentTarget is what every agent call for a roadmap needs.
type agentTarget struct {
	apiKey string
	source string
}

func (e *Engine) target(ctx context.Context, r *models.Roadmap) (agentTarget, error) {
	key := ""
	if e.credentials != nil {
		key = strings.TrimSpace(e.credentials.Resolve(ctx, r))
	}
	if key == "" {
		return agentTarget{}, fmt.Errorf("%w: roadmap %d has no agent credential", ErrConfiguration, r.ID)
	}
	if strings.TrimSpace(r.SourceRepository) == "" {
		return agentTarget{}, fmt.Errorf("%w: roadmap %d has no source repository", ErrConfiguration, r.ID)
	}
	source := r.SourceRepository
	if e.sources != nil {
		resolved, err := e.sources.ResolveSource(r.SourceRepository)
		if err != nil {
			return agentTarget{}, fmt.Errorf("%w: roadmap %d: %w", ErrConfiguration, r.ID, err)
		}
		source = resolved
	}
	return agentTarget{apiKey: key, source: source}, nil
}

// credential resolves only the key, for calls on an existing session.
func (e *Engine) credential(ctx context.Context, r *models.Roadmap) string {
	if e.credentials == nil || r == nil {
		return ""
	}
	return strings.TrimSpace(e.credentials.Resolve(ctx, r))
}

func (e *Engine) startingBranch(ctx context.Context) string {
	if e.settings != nil {
		if s, err := e.settings.Get(ctx); err == nil && strings.TrimSpace(s.StartingBranch) != "" {
			return s.StartingBranch
		}
	}
	return e.opts.StartingBranch
}

// deleteSession is best effort: failures are logged and swallowed.
func (e *Engine) deleteSession(ctx context.Context, apiKey, sessionID string) {
	if apiKey == "" || sessionID == "" {
		return
	}
	if err := e.agent.DeleteSession(ctx, apiKey, sessionID); err != nil {
		e.logger(ctx).WarnContext(ctx, "delete agent session failed", "session", sessionID, "error", err)
	}
}

// roadmapCache memoizes roadmap lookups within one step.
type roadmapCache struct {
	repo  repositories.RoadmapRepository
	items map[uint]*models.Roadmap
}

func newRoadmapCache(repo repositories.RoadmapRepository) *roadmapCache {
	return &roadmapCache{repo: repo, items: map[uint]*models.Roadmap{}}
}

func (c *roadmapCache) get(ctx context.Context, id uint) (*models.Roadmap, error) {
	if r, ok := c.items[id]; ok {
		return r, nil
	}
	r, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.items[id] = r
	return r, nil
}

func transient(err error) error {
	if err == nil || errors.Is(err, ErrTransient) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
