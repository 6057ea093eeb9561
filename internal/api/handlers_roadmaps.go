package api

import (
	"net/http"

	"roadmapper/internal/models"
	"roadmapper/internal/repositories"
	"roadmapper/internal/services"
)

type RoadmapHandler struct {
	roadmaps     services.RoadmapService
	features     services.FeatureService
	ideaSessions repositories.IdeaSessionRepository
	engine       Engine
}

func NewRoadmapHandler(roadmaps services.RoadmapService, features services.FeatureService, ideaSessions repositories.IdeaSessionRepository, engine Engine) *RoadmapHandler {
	return &RoadmapHandler{roadmaps: roadmaps, features: features, ideaSessions: ideaSessions, engine: engine}
}

type roadmapRequest struct {
	Title            string                         `json:"title"`
	SourceRepository string                         `json:"sourceRepository"`
	AgentCredential  *string                        `json:"agentCredential,omitempty"`
	Description      *string                        `json:"description,omitempty"`
	Active           *bool                          `json:"active,omitempty"`
	RequireApproval  *bool                          `json:"requireApproval,omitempty"`
	Classifications  []models.RoadmapClassification `json:"classifications,omitempty"`
}

func (req roadmapRequest) apply(r *models.Roadmap) {
	if req.Title != "" {
		r.Title = req.Title
	}
	if req.SourceRepository != "" {
		r.SourceRepository = req.SourceRepository
	}
	if req.AgentCredential != nil {
		r.AgentCredential = *req.AgentCredential
	}
	if req.Description != nil {
		r.Description = *req.Description
	}
	if req.Active != nil {
		r.Active = *req.Active
	}
	if req.RequireApproval != nil {
		r.RequireApproval = *req.RequireApproval
	}
}

type roadmapResponse struct {
	*models.Roadmap
	Readiness      string `json:"readiness"`
	NeedsDiscovery bool   `json:"needsDiscovery"`
}

func (h *RoadmapHandler) response(r *http.Request, roadmap *models.Roadmap) roadmapResponse {
	return roadmapResponse{
		Roadmap:        roadmap,
		Readiness:      h.roadmaps.Readiness(r.Context(), roadmap),
		NeedsDiscovery: roadmap.NeedsDiscovery(),
	}
}

// List handles GET /roadmaps
func (h *RoadmapHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.roadmaps.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create handles POST /roadmaps
func (h *RoadmapHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req roadmapRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	roadmap := &models.Roadmap{Active: true, Classifications: req.Classifications}
	req.apply(roadmap)

	created, err := h.roadmaps.Register(r.Context(), roadmap)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.response(r, created))
}

// Get handles GET /roadmaps/{id}
func (h *RoadmapHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid roadmap id")
		return
	}
	roadmap, err := h.roadmaps.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.response(r, roadmap))
}

// Update handles PATCH /roadmaps/{id}
func (h *RoadmapHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid roadmap id")
		return
	}
	var req roadmapRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	roadmap, err := h.roadmaps.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	req.apply(roadmap)
	updated, err := h.roadmaps.Update(r.Context(), roadmap)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.response(r, updated))
}

// Delete handles DELETE /roadmaps/{id}
func (h *RoadmapHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid roadmap id")
		return
	}
	if err := h.roadmaps.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Discover handles POST /roadmaps/{id}/discover. It blocks until the agent
// answers or the discovery window closes.
func (h *RoadmapHandler) Discover(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid roadmap id")
		return
	}
	if r.URL.Query().Get("force") != "true" {
		roadmap, err := h.roadmaps.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if !roadmap.NeedsDiscovery() {
			writeError(w, http.StatusConflict, "roadmap already has a description and classifications; pass force=true to run discovery anyway")
			return
		}
	}
	result, err := h.engine.Discover(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListFeatures handles GET /roadmaps/{id}/features
func (h *RoadmapHandler) ListFeatures(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid roadmap id")
		return
	}
	list, err := h.features.ListByRoadmap(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type featureRequest struct {
	Title       string   `json:"title"`
	Explanation string   `json:"explanation"`
	Kind        string   `json:"kind"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
}

// CreateFeature handles POST /roadmaps/{id}/features
func (h *RoadmapHandler) CreateFeature(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid roadmap id")
		return
	}
	var req featureRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if _, err := h.roadmaps.Get(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	feature := &models.Feature{
		RoadmapID:   id,
		Title:       req.Title,
		Explanation: req.Explanation,
		Kind:        models.FeatureKind(req.Kind),
		Tags:        models.NewTags(req.Tags),
	}
	if req.Kind != "" {
		if kind, ok := models.ParseFeatureKind(req.Kind); ok {
			feature.Kind = kind
		}
	}
	if req.Status != "" {
		status, ok := models.ParseFeatureStatus(req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown status "+req.Status)
			return
		}
		feature.Status = status
	}
	created, err := h.features.Create(r.Context(), feature)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListIdeaSessions handles GET /roadmaps/{id}/idea-sessions
func (h *RoadmapHandler) ListIdeaSessions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid roadmap id")
		return
	}
	list, err := h.ideaSessions.ListByRoadmap(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
