package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bogoseo/bogoseo/internal/export"
	"github.com/bogoseo/bogoseo/internal/log"
)

// ExportHandler encodes a generated report as a downloadable document.
type ExportHandler struct {
	logger log.Logger
}

func NewExportHandler(logger log.Logger) *ExportHandler {
	return &ExportHandler{logger: logger}
}

// RegisterRoutes registers export routes on the given mux.
func (h *ExportHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/export", h.handleExport)
}

// ExportRequest is the request body for POST /api/export. Format
// defaults to docx when empty.
type ExportRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Format  string `json:"format"`
}

func (h *ExportHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "EMPTY_CONTENT", "content is required")
		return
	}

	format := req.Format
	if format == "" {
		format = export.FormatDocx
	}
	contentType := export.ContentType(format)
	if contentType == "" {
		writeError(w, http.StatusBadRequest, "INVALID_FORMAT",
			fmt.Sprintf("unsupported format: %q", req.Format))
		return
	}

	doc := export.ParseContent(req.Title, req.Content)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="report.%s"`, format))

	if err := export.Export(w, format, doc); err != nil {
		// Headers are gone; all we can do is log and close.
		if !errors.Is(err, export.ErrInvalidFormat) {
			h.logger.Error("export failed", "format", format, "error", err)
		}
	}
}
