package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bogoseo/bogoseo/internal/log"
	outlinepkg "github.com/bogoseo/bogoseo/internal/outline"
)

// Synthesizer produces the outline for a topic.
type Synthesizer interface {
	Synthesize(ctx context.Context, topic string) (*outlinepkg.Result, error)
}

// OutlineHandler handles the outline synthesis endpoint.
type OutlineHandler struct {
	synthesizer Synthesizer
	logger      log.Logger
}

func NewOutlineHandler(synthesizer Synthesizer, logger log.Logger) *OutlineHandler {
	return &OutlineHandler{synthesizer: synthesizer, logger: logger}
}

// RegisterRoutes registers outline routes on the given mux.
func (h *OutlineHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/outline", h.handleSynthesize)
}

// OutlineRequest is the request body for POST /api/outline.
type OutlineRequest struct {
	Topic string `json:"topic"`
}

// OutlineResponse is the response body for POST /api/outline.
type OutlineResponse struct {
	Template string             `json:"template"`
	Outline  outlinepkg.Outline `json:"outline"`
}

func (h *OutlineHandler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req OutlineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	result, err := h.synthesizer.Synthesize(r.Context(), req.Topic)
	if err != nil {
		h.writeSynthesizeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, OutlineResponse{
		Template: result.Template,
		Outline:  result.Outline,
	})
}

func (h *OutlineHandler) writeSynthesizeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, outlinepkg.ErrEmptyTopic):
		writeError(w, http.StatusBadRequest, "EMPTY_TOPIC", "topic is required")
	case errors.Is(err, outlinepkg.ErrMalformedOutline):
		h.logger.Error("outline synthesis returned malformed outline", "error", err)
		writeError(w, http.StatusBadGateway, "MALFORMED_OUTLINE", "model returned an unusable outline")
	case errors.Is(err, outlinepkg.ErrUpstreamUnavailable):
		h.logger.Error("outline synthesis upstream failure", "error", err)
		writeError(w, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "model provider unavailable")
	default:
		h.logger.Error("outline synthesis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "outline synthesis failed")
	}
}
