package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"roadmapper/internal/jules"
	"roadmapper/internal/orchestrator"
	"roadmapper/internal/repositories"
	"roadmapper/internal/services"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func pathID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var validation *services.ValidationError
	var apiErr *jules.APIError
	switch {
	case errors.As(err, &validation),
		errors.Is(err, jules.ErrUnsupportedPlanAction):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repositories.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repositories.ErrConflict),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, orchestrator.ErrAlreadyAssigned),
		errors.Is(err, orchestrator.ErrNotAssignable),
		errors.Is(err, orchestrator.ErrNoSession):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, orchestrator.ErrConfiguration):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, orchestrator.ErrQueueBusy):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, orchestrator.ErrDiscoveryTimeout):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, orchestrator.ErrTransient), errors.As(err, &apiErr):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
