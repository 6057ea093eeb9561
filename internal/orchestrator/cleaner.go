package orchestrator

import (
	"context"
	"fmt"

	"roadmapper/internal/events"
	"roadmapper/internal/models"
)

const noteCleanedUp = "Auto-Cleanup: Jules Session archived and deleted."

// CleanArchived releases the remote sessions of archived features. Features
// whose roadmap has no resolvable credential are left as they are.
func (e *Engine) CleanArchived(ctx context.Context) Report {
	var report Report
	log := e.logger(ctx).With("step", "cleanup")

	archived, err := e.features.ListArchivedWithSession(ctx)
	if err != nil {
		log.ErrorContext(ctx, "list archived features", "error", err)
		report.Errors++
		return report
	}

	cache := newRoadmapCache(e.roadmaps)
	for i := range archived {
		f := &archived[i]
		r, err := cache.get(ctx, f.RoadmapID)
		if err != nil {
			log.ErrorContext(ctx, "load roadmap", "feature", f.ID, "error", err)
			report.Errors++
			continue
		}
		apiKey := e.credential(ctx, r)
		if apiKey == "" {
			report.Skipped++
			continue
		}

		e.deleteSession(ctx, apiKey, f.Session())
		err = e.features.UpdateByID(ctx, f.ID, map[string]interface{}{
			"session_id":   nil,
			"agent_status": "",
		})
		if err != nil {
			log.ErrorContext(ctx, "clear session reference", "feature", f.ID, "error", err)
			report.Errors++
			continue
		}
		e.annotate(ctx, f.ID, noteCleanedUp)
		events.Emit(ctx, events.NewInfo(events.FeatureCleaned, noteCleanedUp).With("feature", fmt.Sprint(f.ID)))
		report.Cleaned++
	}
	return report
}

// ReleaseSession deletes the remote session f still references. The caller
// has already dropped the reference locally, so failures are only logged.
func (e *Engine) ReleaseSession(ctx context.Context, f *models.Feature) {
	if !f.HasSession() {
		return
	}
	r, err := e.roadmaps.Get(ctx, f.RoadmapID)
	if err != nil {
		e.logger(ctx).WarnContext(ctx, "release session: load roadmap", "feature", f.ID, "error", err)
		return
	}
	e.deleteSession(ctx, e.credential(ctx, r), f.Session())
}
