package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "photometa-api/internal/errors"
	"photometa-api/internal/models"
)

type subjectRequest struct {
	RelativePath string `json:"relativePath"`
	Title        string `json:"title"`
	Caption      string `json:"caption"`
	AltText      string `json:"altText"`
}

// HandleCreateSubject registers a media record.
//
//	@Summary		Register a media record
//	@Tags			subjects
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	envelope
//	@Failure		400	{object}	envelope
//	@Security		ApiKeyAuth
//	@Router			/subjects [post]
func (h *Handler) HandleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.RelativePath = strings.TrimLeft(strings.TrimSpace(req.RelativePath), "/")
	if req.RelativePath == "" {
		h.writeFailure(w, http.StatusBadRequest, "Missing relativePath")
		return
	}

	id, err := h.subjects.SaveSubject(r.Context(), &models.Subject{
		RelativePath: req.RelativePath,
		Title:        req.Title,
		Caption:      req.Caption,
		AltText:      req.AltText,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			h.writeFailure(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeInternal(w, h.log.WithField("relative_path", req.RelativePath), err, "Failed to save subject")
		return
	}

	h.writeSuccess(w, http.StatusCreated, map[string]string{"id": id})
}

// HandleListSubjects lists every media record.
func (h *Handler) HandleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.subjects.ListSubjects(r.Context())
	if err != nil {
		h.writeInternal(w, h.log, err, "Failed to list subjects")
		return
	}
	if subjects == nil {
		subjects = []*models.Subject{}
	}
	h.writeSuccess(w, http.StatusOK, subjects)
}

// HandleClearSubjectLocation drops the cached place name of one subject.
//
//	@Summary		Clear a cached location
//	@Tags			locations
//	@Param			id	path	string	true	"Subject id"
//	@Success		204
//	@Security		ApiKeyAuth
//	@Router			/subjects/{id}/location [delete]
func (h *Handler) HandleClearSubjectLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeFailure(w, http.StatusBadRequest, "Missing subject id")
		return
	}
	if err := h.locations.ClearLocation(r.Context(), id); err != nil {
		h.writeInternal(w, h.log.WithField("subject_id", id), err, "Failed to clear location")
		return
	}
	h.log.WithField("subject_id", id).Info("Cleared cached location")
	w.WriteHeader(http.StatusNoContent)
}

// HandleClearLocations drops every cached place name.
//
//	@Summary		Clear all cached locations
//	@Tags			locations
//	@Produce		json
//	@Success		200	{object}	map[string]int	"cleared: N"
//	@Security		ApiKeyAuth
//	@Router			/locations [delete]
func (h *Handler) HandleClearLocations(w http.ResponseWriter, r *http.Request) {
	n, err := h.locations.ClearAllLocations(r.Context())
	if err != nil {
		h.writeInternal(w, h.log, err, "Failed to clear locations")
		return
	}
	h.log.WithField("cleared", n).Info("Cleared cached locations")
	h.writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}
