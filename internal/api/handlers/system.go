package handlers

import (
	"net/http"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/api/request"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/api/response"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/service"
)

// SystemHandler handles HTTP requests for system endpoints.
type SystemHandler struct {
	systemService *service.SystemService
}

// NewSystemHandler creates a new SystemHandler with the provided service dependency.
func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
	}
}

// Health handles GET requests for the service health check.
//
// Endpoint: GET /api/system/health
// Response: 200 OK when the database is reachable, 503 otherwise
func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	if err := h.systemService.Health(); err != nil {
		response.RespondError(w, http.StatusServiceUnavailable, "database unavailable", err.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// APIKeys handles GET requests reporting which provider keys are stored,
// without exposing the keys.
//
// Endpoint: GET /api/system/keys
// Response: 200 OK with APIKeyStatus
func (h *SystemHandler) APIKeys(w http.ResponseWriter, r *http.Request) {
	status, err := h.systemService.GetAPIKeyStatus(r.Context())
	if err != nil {
		respondServiceError(w, err, "failed to read api key status")
		return
	}
	response.RespondJSON(w, http.StatusOK, status)
}

// SetAPIKeys handles PUT requests to store provider API keys. Keys are
// encrypted at rest; omitted fields are left unchanged and empty strings
// remove the stored key.
//
// Endpoint: PUT /api/system/keys
// Response: 204 No Content
func (h *SystemHandler) SetAPIKeys(w http.ResponseWriter, r *http.Request) {
	var req request.SetAPIKeysRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.systemService.SetAPIKeys(r.Context(), req); err != nil {
		respondServiceError(w, err, "failed to store api keys")
		return
	}
	response.RespondJSON(w, http.StatusNoContent, nil)
}
