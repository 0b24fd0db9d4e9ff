package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/testispark/testispark/internal/model"
	"github.com/testispark/testispark/internal/store"
)

// maxBodyBytes bounds JSON request bodies, including bulk imports.
const maxBodyBytes = 1 << 20

// NewHTTPHandler returns an http.Handler with all routes registered, wrapped
// in request logging and panic recovery.
func (s *Server) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /api/embed/{id}", cors(s.handleEmbed))
	mux.HandleFunc("OPTIONS /api/embed/{id}", cors(s.handleEmbed))
	mux.HandleFunc("GET /api/embed/{id}/html", cors(s.handleEmbedHTML))
	mux.HandleFunc("OPTIONS /api/embed/{id}/html", cors(s.handleEmbedHTML))
	mux.HandleFunc("POST /api/testimonials", s.handleSubmitTestimonial)
	mux.HandleFunc("GET /api/forms/{slug}", s.handleGetPublicForm)
	mux.HandleFunc("GET /wall/{slug}", s.handleWallPage)
	mux.HandleFunc("POST /api/lemonsqueezy/webhook", s.handleLemonSqueezyWebhook)
	mux.HandleFunc("POST /api/paddle/webhook", s.handlePaddleWebhook)
	mux.HandleFunc("GET /health", s.handleHealth)

	// Authenticated
	mux.HandleFunc("GET /api/widgets", s.requireAuth(s.handleListWidgets))
	mux.HandleFunc("POST /api/widgets", s.requireAuth(s.handleCreateWidget))
	mux.HandleFunc("GET /api/widgets/{id}", s.requireAuth(s.handleGetWidget))
	mux.HandleFunc("PUT /api/widgets/{id}", s.requireAuth(s.handleUpdateWidget))
	mux.HandleFunc("PATCH /api/widgets/{id}", s.requireAuth(s.handleUpdateWidget))
	mux.HandleFunc("DELETE /api/widgets/{id}", s.requireAuth(s.handleDeleteWidget))

	mux.HandleFunc("GET /api/testimonials", s.requireAuth(s.handleListTestimonials))
	mux.HandleFunc("PATCH /api/testimonials/{id}", s.requireAuth(s.handleUpdateTestimonial))
	mux.HandleFunc("DELETE /api/testimonials/{id}", s.requireAuth(s.handleDeleteTestimonial))
	mux.HandleFunc("POST /api/testimonials/import", s.requireAuth(s.handleImportTestimonials))
	mux.HandleFunc("POST /api/testimonials/import-twitter", s.requireAuth(s.handleImportTweet))
	mux.HandleFunc("GET /api/testimonials/export", s.requireAuth(s.handleExportCSV))
	mux.HandleFunc("POST /api/ai/summarize", s.requireAuth(s.handleSummarize))

	mux.HandleFunc("GET /api/forms", s.requireAuth(s.handleListForms))
	mux.HandleFunc("POST /api/forms", s.requireAuth(s.handleCreateForm))

	mux.HandleFunc("POST /api/crypto-payment", s.requireAuth(s.handleCryptoPayment))
	mux.HandleFunc("GET /api/billing/checkout", s.requireAuth(s.handleCheckout))
	mux.HandleFunc("GET /api/events/stream", s.requireAuth(s.handleEventStream))

	return RecoveryMiddleware(s.logger, LoggingMiddleware(s.logger, mux))
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON reads a JSON body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

// writeStoreError maps a store error to a response: missing rows become
// notFound, conflicts 409, validation failures 400, anything else 500.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var ve *model.ValidationError
	switch {
	case isNotFound(err):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
