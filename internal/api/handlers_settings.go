package api

import (
	"net/http"

	"roadmapper/internal/services"
)

type SettingsHandler struct {
	settings services.SettingsService
}

func NewSettingsHandler(settings services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

type settingsRequest struct {
	StartingBranch string `json:"startingBranch"`
}

// Get handles GET /settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Update handles PATCH /settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	s, err := h.settings.SetStartingBranch(r.Context(), req.StartingBranch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// RotateSecret handles POST /settings/webhook-secret. The new secret is
// only ever shown in this response.
func (h *SettingsHandler) RotateSecret(w http.ResponseWriter, r *http.Request) {
	secret, err := h.settings.RotateWebhookSecret(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"webhookSecret": secret})
}
