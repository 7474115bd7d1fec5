package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"whatsapp-catat-hutang/internal/config"
	"whatsapp-catat-hutang/internal/engine"
	"whatsapp-catat-hutang/internal/service"
	"whatsapp-catat-hutang/pkg/logger"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	whatsappService *service.WhatsAppService
	engine          *engine.Engine
	config          *config.Config
	logger          *logger.Logger
	startTime       time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(waService *service.WhatsAppService, eng *engine.Engine, cfg *config.Config, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		whatsappService: waService,
		engine:          eng,
		config:          cfg,
		logger:          log,
		startTime:       time.Now(),
	}
}

// CheckHealth handles GET /health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	// Get WhatsApp connection status
	waStatus := h.whatsappService.GetConnectionStatus()

	// Calculate uptime
	uptime := time.Since(h.startTime)

	response := map[string]interface{}{
		"status":   "healthy",
		"whatsapp": waStatus,
		"parser": map[string]interface{}{
			"configured": h.config.Parser.URL != "",
			"threshold":  h.config.Parser.ConfidenceThreshold,
		},
		"speech": map[string]interface{}{
			"configured": h.config.Speech.URL != "",
			"enabled":    h.config.Bot.VoiceEnabled,
		},
		"responder": map[string]interface{}{
			"configured": h.config.Responder.URL != "",
		},
		"active_sessions": h.engine.ActiveSessions(),
		"uptime":          uptime.String(),
		"timestamp":       time.Now().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
