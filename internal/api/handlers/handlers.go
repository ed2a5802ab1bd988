package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"honeytrap/internal/domain/models"
	"honeytrap/internal/domain/services"
	"honeytrap/internal/intel"
	"honeytrap/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health       *HealthHandler
	Honeypot     *HoneypotHandler
	Intelligence *IntelligenceHandler
}

// TurnHandler runs one honeypot conversation turn
type TurnHandler interface {
	HandleTurn(ctx context.Context, req *models.IncomingRequest) (models.AgentReply, error)
}

// SessionReader exposes the intelligence collected for a session
type SessionReader interface {
	SessionIntelligence(ctx context.Context, id string) (intel.Record, error)
	SessionReport(ctx context.Context, id string) (models.Report, error)
}

// ReadinessChecker runs dependency probes and returns failures by name
type ReadinessChecker interface {
	Results(ctx context.Context) map[string]error
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Turns     TurnHandler
	Sessions  SessionReader
	Extractor services.Extractor
	Readiness ReadinessChecker
	Version   string
	Logger    *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	return &Handlers{
		Health:       NewHealthHandler(deps.Readiness, deps.Version, deps.Logger),
		Honeypot:     NewHoneypotHandler(deps.Turns, deps.Logger),
		Intelligence: NewIntelligenceHandler(deps.Extractor, deps.Sessions, deps.Logger),
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
