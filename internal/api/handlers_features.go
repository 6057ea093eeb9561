package api

import (
	"net/http"
	"strings"

	"roadmapper/internal/jules"
	"roadmapper/internal/models"
	"roadmapper/internal/services"
)

type FeatureHandler struct {
	features services.FeatureService
	engine   Engine
}

func NewFeatureHandler(features services.FeatureService, engine Engine) *FeatureHandler {
	return &FeatureHandler{features: features, engine: engine}
}

// Get handles GET /features/{id}
func (h *FeatureHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid feature id")
		return
	}
	f, err := h.features.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

type transitionRequest struct {
	Status string `json:"status"`
}

// Transition handles PATCH /features/{id}/status
func (h *FeatureHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid feature id")
		return
	}
	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	status, ok := models.ParseFeatureStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown status "+req.Status)
		return
	}
	f, err := h.features.Transition(r.Context(), id, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// Comments handles GET /features/{id}/comments
func (h *FeatureHandler) Comments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid feature id")
		return
	}
	list, err := h.features.Comments(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Assign handles POST /features/{id}/assign
func (h *FeatureHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid feature id")
		return
	}
	f, err := h.engine.AssignFeature(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

type messageRequest struct {
	Text string `json:"text"`
}

// Message handles POST /features/{id}/message
func (h *FeatureHandler) Message(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid feature id")
		return
	}
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if err := h.engine.SendMessage(r.Context(), id, req.Text); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

type planRequest struct {
	Action string `json:"action"`
}

// Plan handles POST /features/{id}/plan
func (h *FeatureHandler) Plan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid feature id")
		return
	}
	req := planRequest{Action: string(jules.PlanApprove)}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}
	if err := h.engine.VotePlan(r.Context(), id, jules.PlanAction(req.Action)); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
