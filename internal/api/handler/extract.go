package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iconidentify/vrok/internal/domain"
)

// maxRequestBody bounds the size of a POST /vrok body.
const maxRequestBody = 64 * 1024

// Extractor runs a metadata extraction for a location.
type Extractor interface {
	Extract(ctx context.Context, location string) (*domain.ExtractionResult, error)
}

// ExtractHandler handles metadata extraction requests.
type ExtractHandler struct {
	extractor Extractor
	logger    *slog.Logger
}

// NewExtractHandler creates a new extraction handler.
func NewExtractHandler(extractor Extractor, logger *slog.Logger) *ExtractHandler {
	return &ExtractHandler{
		extractor: extractor,
		logger:    logger,
	}
}

// ExtractRequest is the JSON request body for POST /vrok.
type ExtractRequest struct {
	VideoURL string `json:"videoUrl"`
}

// ExtractResponse is the JSON response for a successful extraction.
type ExtractResponse struct {
	Success  bool                  `json:"success"`
	FileType string                `json:"fileType"`
	Metadata *domain.MediaMetadata `json:"metadata"`
}

// ErrorResponse is the JSON response for a failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Extract handles POST /vrok
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		h.logger.Debug("invalid request body", "error", err)
		req.VideoURL = ""
	}

	h.logger.Info("trying for videoUrl", "url", req.VideoURL)

	if req.VideoURL == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrLocationRequired.Error())
		return
	}

	result, err := h.extractor.Extract(r.Context(), req.VideoURL)
	if err != nil {
		if errors.Is(err, domain.ErrLocationRequired) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		status := http.StatusInternalServerError
		message := err.Error()
		var extErr *domain.ExtractionError
		if errors.As(err, &extErr) {
			message = extErr.Reason()
			w.Header().Set("X-Extraction-ID", extErr.ID.String())
		}
		if domain.KindOf(err) == domain.KindValidation {
			status = http.StatusBadRequest
		}
		h.logger.Error("error fetching video metadata", "url", req.VideoURL, "error", err)
		h.writeError(w, status, message)
		return
	}

	w.Header().Set("X-Extraction-ID", result.ID.String())
	h.writeJSON(w, http.StatusOK, ExtractResponse{
		Success:  true,
		FileType: result.MediaType,
		Metadata: result.Metadata,
	})
}

func (h *ExtractHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *ExtractHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, ErrorResponse{
		Success: false,
		Message: message,
	})
}
