package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	apperrors "photometa-api/internal/errors"
	"photometa-api/internal/logger"
	"photometa-api/internal/services"
)

type Handler struct {
	metadata  *services.MetadataService
	subjects  services.SubjectStore
	locations services.LocationCache
	log       *logrus.Entry
}

func New(metadata *services.MetadataService, subjects services.SubjectStore, locations services.LocationCache) *Handler {
	return &Handler{
		metadata:  metadata,
		subjects:  subjects,
		locations: locations,
		log:       logger.Component("handlers"),
	}
}

// envelope is the response body of every non-health endpoint.
type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type message struct {
	Message string `json:"message"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.WithError(err).Error("Failed to encode response")
	}
}

func (h *Handler) writeSuccess(w http.ResponseWriter, status int, data any) {
	h.writeJSON(w, status, envelope{Success: true, Data: data})
}

func (h *Handler) writeFailure(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, envelope{Success: false, Data: message{Message: msg}})
}

// writeInternal logs err under ErrInternal and answers with a generic 500.
func (h *Handler) writeInternal(w http.ResponseWriter, entry *logrus.Entry, err error, msg string) {
	entry.WithError(fmt.Errorf("%w: %v", apperrors.ErrInternal, err)).Error(msg)
	h.writeFailure(w, http.StatusInternalServerError, "Internal server error")
}
