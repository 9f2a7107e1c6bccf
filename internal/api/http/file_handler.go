package http

import (
	"io"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"vacation-rental-backend/internal/logger"
)

// DownloadFile streams a stored document such as an invoice PDF
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	file, err := h.svc.Files.Open(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer file.Close()

	// Determine content type from file extension
	contentType := "application/octet-stream"
	switch filepath.Ext(key) {
	case ".pdf":
		contentType = "application/pdf"
	case ".xlsx":
		contentType = xlsxContentType
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "inline; filename=\""+filepath.Base(key)+"\"")
	w.Header().Set("Cache-Control", "private, max-age=3600")

	if _, err := io.Copy(w, file); err != nil {
		logger.Error("Failed to stream file", "key", key, "error", err)
	}
}
