package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "photometa-api/internal/errors"
	"photometa-api/internal/models"
)

const maxBodyBytes = 1 << 20

// HandleMetadata resolves an image URL and returns its display metadata.
//
//	@Summary		Get image metadata
//	@Description	Resolve an image URL to its original file and return normalised EXIF fields
//	@Tags			metadata
//	@Accept			json
//	@Produce		json
//	@Param			image_url	query		string	true	"Image URL, possibly resized"
//	@Success		200			{object}	envelope
//	@Failure		400			{object}	envelope
//	@Failure		404			{object}	envelope	"Image file not found"
//	@Failure		500			{object}	envelope
//	@Security		ApiKeyAuth
//	@Router			/metadata [get]
//	@Router			/metadata [post]
func (h *Handler) HandleMetadata(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	imageURL, err := imageURLParam(w, r)
	if err != nil {
		h.writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if imageURL == "" {
		h.writeFailure(w, http.StatusBadRequest, "Missing image_url parameter")
		return
	}

	result, err := h.metadata.GetMetadata(r.Context(), models.ImageReference(imageURL))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			h.log.WithField("image_url", imageURL).Info("Image file not found")
			h.writeFailure(w, http.StatusNotFound, "Image file not found")
		case errors.Is(err, apperrors.ErrInvalidInput):
			h.writeFailure(w, http.StatusBadRequest, "Invalid image_url parameter")
		default:
			h.writeInternal(w, h.log.WithField("image_url", imageURL), err, "Metadata lookup failed")
		}
		return
	}

	data := make(map[string]any)
	for k, v := range result.Metadata.Fields() {
		data[k] = v
	}
	data["debug"] = result.Debug

	h.log.WithFields(logrus.Fields{
		"image_url": imageURL,
		"fields":    len(data) - 1,
		"duration":  time.Since(start).String(),
	}).Info("Served metadata")

	h.writeSuccess(w, http.StatusOK, data)
}

// imageURLParam reads image_url from the query string, a form body or a JSON
// body, in that order.
func imageURLParam(w http.ResponseWriter, r *http.Request) (string, error) {
	if v := strings.TrimSpace(r.URL.Query().Get("image_url")); v != "" {
		return v, nil
	}
	if r.Method != http.MethodPost || r.Body == nil {
		return "", nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body struct {
			ImageURL string `json:"image_url"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
			return "", err
		}
		return strings.TrimSpace(body.ImageURL), nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return "", err
	}
	return strings.TrimSpace(r.PostFormValue("image_url")), nil
}
