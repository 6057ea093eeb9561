package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"roadmapper/internal/orchestrator"
)

// CadenceHandler triggers cadence runs from an external scheduler. A run
// still in progress makes a second trigger of the same cadence fail fast
// with 409; different cadences may overlap.
type CadenceHandler struct {
	engine Engine
	log    *slog.Logger
	locks  map[orchestrator.Cadence]*sync.Mutex
}

func NewCadenceHandler(engine Engine, log *slog.Logger) *CadenceHandler {
	locks := make(map[orchestrator.Cadence]*sync.Mutex)
	for _, c := range orchestrator.Cadences() {
		locks[c] = &sync.Mutex{}
	}
	return &CadenceHandler{engine: engine, log: log, locks: locks}
}

// Trigger handles POST /cadences/{cadence}
func (h *CadenceHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	cadence, err := orchestrator.ParseCadence(chi.URLParam(r, "cadence"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	lock := h.locks[cadence]
	if !lock.TryLock() {
		h.log.Warn("cadence already running, trigger refused", "cadence", cadence, "request_id", requestID(r))
		writeError(w, http.StatusConflict, "cadence "+string(cadence)+" is already running")
		return
	}
	defer lock.Unlock()

	report, err := h.engine.Run(r.Context(), cadence)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
