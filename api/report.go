package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/firebase/genkit/go/genkit"

	"github.com/bogoseo/bogoseo/internal/log"
	"github.com/bogoseo/bogoseo/internal/report"
)

// ReportHandler handles report generation endpoints via the Genkit Flow.
//
// Endpoints:
//   - POST /api/report        - synchronous generation (JSON request/response)
//   - POST /api/report/stream - streaming generation (Server-Sent Events)
type ReportHandler struct {
	reportFlow *report.Flow
	logger     log.Logger
}

func NewReportHandler(flow *report.Flow, logger log.Logger) *ReportHandler {
	return &ReportHandler{reportFlow: flow, logger: logger}
}

// RegisterRoutes registers report routes on the given mux.
func (h *ReportHandler) RegisterRoutes(mux *http.ServeMux) {
	if h.reportFlow == nil {
		if h.logger != nil {
			h.logger.Warn("ReportHandler: reportFlow is nil, report endpoints not registered")
		}
		return
	}
	mux.Handle("POST /api/report", genkit.Handler(h.reportFlow))
	mux.HandleFunc("POST /api/report/stream", h.handleStream)
}

// handleStream generates a report over SSE.
//
// Request body: {"topic": "...", "outline": {...}}
//
// Each SSE message carries one report event, with the event type
// duplicated in the frame name and the JSON data:
//
//	event: section_title
//	data: {"type":"section_title","payload":"1.1. ..."}
//
// Event types: section_title, content, error (failed section), done
// (terminal, exactly once). Input validation happens before the stream
// starts, so invalid requests get a JSON 400 instead of an SSE error.
func (h *ReportHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	var input report.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if strings.TrimSpace(input.Topic) == "" {
		writeError(w, http.StatusBadRequest, "EMPTY_TOPIC", "topic is required")
		return
	}
	if input.Outline.TotalSections() == 0 {
		writeError(w, http.StatusBadRequest, "EMPTY_OUTLINE", "outline has no sections")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("streaming not supported")
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	h.logger.Info("report stream started", "topic", input.Topic)

	for streamValue, err := range h.reportFlow.Stream(ctx, input) {
		select {
		case <-ctx.Done():
			h.logger.Info("client disconnected", "topic", input.Topic)
			return
		default:
		}

		if err != nil {
			h.logger.Error("report stream failed", "error", err, "topic", input.Topic)
			h.writeEvent(w, flusher, report.Error("보고서 생성에 실패했습니다."))
			return
		}
		if streamValue.Done {
			// The done event was already streamed by the orchestrator.
			break
		}
		h.writeEvent(w, flusher, streamValue.Stream)
	}

	h.logger.Info("report stream completed", "topic", input.Topic)
}

// writeEvent writes one report event as an SSE frame.
func (h *ReportHandler) writeEvent(w http.ResponseWriter, flusher http.Flusher, ev report.Event) {
	data, _ := json.Marshal(ev)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	flusher.Flush()
}
