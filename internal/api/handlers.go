package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dimitryivaniuta/contactdir/internal/contact"
	"github.com/dimitryivaniuta/contactdir/internal/domain"
	"github.com/dimitryivaniuta/contactdir/internal/pkg/logger"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	contacts *contact.Service
}

// NewHandlers creates the handler set backed by the given contact service.
func NewHandlers(contacts *contact.Service) *Handlers {
	return &Handlers{contacts: contacts}
}

// HealthCheck returns basic liveness information.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service-layer errors onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contact.ErrNotFound):
		respondError(w, http.StatusNotFound, "contact not found")
	case errors.Is(err, domain.ErrInvalid):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("request failed", "error", err.Error())
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
