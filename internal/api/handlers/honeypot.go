package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"honeytrap/internal/domain/models"
	"honeytrap/internal/domain/services"
	"honeytrap/pkg/logger"
)

// maxTurnBodyBytes bounds a single turn request
const maxTurnBodyBytes = 1 << 20

// HoneypotHandler serves conversation turns. It always answers 200 with a
// reply so the conversation platform never sees a failure.
type HoneypotHandler struct {
	turns  TurnHandler
	logger *logger.Logger
}

// NewHoneypotHandler creates a new HoneypotHandler
func NewHoneypotHandler(turns TurnHandler, log *logger.Logger) *HoneypotHandler {
	return &HoneypotHandler{
		turns:  turns,
		logger: log.WithComponent("honeypot-handler"),
	}
}

// Turn handles POST / and POST /honeypot
func (h *HoneypotHandler) Turn(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithRequestID(middleware.GetReqID(r.Context()))

	var req models.IncomingRequest
	body := http.MaxBytesReader(w, r.Body, maxTurnBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("unreadable turn request")
		respondJSON(w, http.StatusOK, models.NewAgentReply(services.TurnFailedReply))
		return
	}

	reply, err := h.turns.HandleTurn(r.Context(), &req)
	if err != nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("turn failed, sending fallback reply")
	}
	if reply.Reply == "" {
		reply = models.NewAgentReply(services.TurnFailedReply)
	}

	respondJSON(w, http.StatusOK, reply)
}
