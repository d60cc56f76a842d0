package screen

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/zombor/billsmart/internal/billing"
	"github.com/zombor/billsmart/internal/capture"
	"github.com/zombor/billsmart/internal/ledger"
	"github.com/zombor/billsmart/internal/recognition"
	"github.com/zombor/billsmart/internal/workflow"
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// jsonError writes {"error": message} with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// statusFor maps workflow errors onto HTTP status codes
func statusFor(err error) int {
	var recErr *recognition.Error
	var billErr *billing.Error

	switch {
	case errors.Is(err, workflow.ErrSubmitInProgress),
		errors.Is(err, workflow.ErrGenerateInProgress),
		errors.Is(err, workflow.ErrSuperseded),
		errors.Is(err, capture.ErrImageHeld),
		errors.Is(err, capture.ErrNoDevice):
		return http.StatusConflict
	case errors.Is(err, recognition.ErrNoImage),
		errors.Is(err, ledger.ErrIndexOutOfRange),
		errors.Is(err, ledger.ErrUnknownField),
		errors.Is(err, ledger.ErrNegativeValue),
		errors.Is(err, ledger.ErrNotWholeNumber),
		errors.Is(err, ledger.ErrCountTooLarge):
		return http.StatusBadRequest
	case errors.As(err, &recErr), errors.As(err, &billErr), errors.Is(err, capture.ErrCaptureFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeView responds with the current session snapshot
func (s *Server) writeView(w http.ResponseWriter, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(s.session.View()); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleStaticJS serves the JavaScript file
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}

// handleGetSession returns the session snapshot
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.writeView(w, http.StatusOK)
}

// handleGetImage returns the held image
func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	img := s.session.Image()
	if img == nil {
		jsonError(w, "No image captured", http.StatusNotFound)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", img.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.Write(img.Data)
}

// handleCapture takes a still frame from the resolved device
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	if _, err := s.session.Capture(r.Context()); err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	s.writeView(w, http.StatusCreated)
}

// handleRetake resets the session
func (s *Server) handleRetake(w http.ResponseWriter, r *http.Request) {
	s.session.Retake()
	s.writeView(w, http.StatusOK)
}

// handleSubmit sends the held image for recognition
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Submit(r.Context()); err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	s.writeView(w, http.StatusOK)
}

// handleEditItem changes the count or price of one row
func (s *Server) handleEditItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		jsonError(w, "Item index must be a number", http.StatusBadRequest)
		return
	}

	var req struct {
		Field string          `json:"field"`
		Value decimal.Decimal `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	field, err := ledger.ParseField(req.Field)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.session.Edit(index, field, req.Value); err != nil {
		slog.Warn("Error editing item", "index", index, "field", field, "error", err)
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	s.writeView(w, http.StatusOK)
}

// handleAddItem appends a manually entered row
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var item ledger.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if item.Name == "" {
		jsonError(w, "Item name required", http.StatusBadRequest)
		return
	}

	if err := s.session.AddItem(item); err != nil {
		slog.Warn("Error adding item", "name", item.Name, "error", err)
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	s.writeView(w, http.StatusCreated)
}

// handleGenerateBill generates and saves the bill for the current ledger
func (s *Server) handleGenerateBill(w http.ResponseWriter, r *http.Request) {
	if _, err := s.session.GenerateBill(r.Context()); err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	s.writeView(w, http.StatusCreated)
}
