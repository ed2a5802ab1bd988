package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"honeytrap/internal/domain/models"
	"honeytrap/internal/domain/services"
	"honeytrap/internal/intel"
	"honeytrap/pkg/logger"
)

const maxAPIBodyBytes = 1 << 20

// IntelligenceHandler exposes extraction and session intelligence
type IntelligenceHandler struct {
	extractor services.Extractor
	sessions  SessionReader
	logger    *logger.Logger
}

// NewIntelligenceHandler creates a new IntelligenceHandler
func NewIntelligenceHandler(extractor services.Extractor, sessions SessionReader, log *logger.Logger) *IntelligenceHandler {
	if extractor == nil {
		extractor = intel.NewExtractor(log)
	}
	return &IntelligenceHandler{
		extractor: extractor,
		sessions:  sessions,
		logger:    log.WithComponent("intelligence"),
	}
}

// ExtractRequest is the body of POST /api/v1/extract
type ExtractRequest struct {
	Text string `json:"text"`
}

// MergeRequest is the body of POST /api/v1/merge
type MergeRequest struct {
	Aggregate intel.Record `json:"aggregate"`
	Record    intel.Record `json:"record"`
}

// Extract handles POST /api/v1/extract
func (h *IntelligenceHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAPIBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	respondJSON(w, http.StatusOK, h.extractor.Extract(req.Text))
}

// Merge handles POST /api/v1/merge
func (h *IntelligenceHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAPIBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	agg := intel.Merge(intel.Aggregate{Record: req.Aggregate}, req.Record)
	respondJSON(w, http.StatusOK, agg.Record)
}

// SessionIntelligence handles GET /api/v1/sessions/{id}/intelligence
func (h *IntelligenceHandler) SessionIntelligence(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	rec, err := h.sessions.SessionIntelligence(r.Context(), id)
	if err != nil {
		h.sessionError(w, id, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"sessionId":    id,
		"intelligence": rec,
	})
}

// SessionReport handles GET /api/v1/sessions/{id}/report
func (h *IntelligenceHandler) SessionReport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	report, err := h.sessions.SessionReport(r.Context(), id)
	if err != nil {
		h.sessionError(w, id, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *IntelligenceHandler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.sessions == nil {
		respondError(w, http.StatusServiceUnavailable, "session store not configured")
		return "", false
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "session id is required")
		return "", false
	}
	return id, true
}

func (h *IntelligenceHandler) sessionError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, models.ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	h.logger.Error().Err(err).Str("session_id", id).Msg("failed to load session")
	respondError(w, http.StatusInternalServerError, "failed to load session")
}
