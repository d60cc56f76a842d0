package billservice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/zombor/billsmart/internal/imaging"
	"github.com/zombor/billsmart/internal/ledger"
)

// BillIDHeader carries the generated bill's ID
const BillIDHeader = "X-Bill-ID"

// writeJSON encodes body with the given status
func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// jsonError writes {"error": message}
func jsonError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

// handleRoot answers the welcome message
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"BillSmart": "Welcome to BillSmart API"})
}

// handleProcessImage detects and prices the items in an uploaded image
func (s *Server) handleProcessImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		jsonError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		jsonError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file", http.StatusInternalServerError)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	contentType = imaging.NormalizeType(contentType)

	items, err := s.service.ProcessImage(r.Context(), data, contentType)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]ledger.Item{"items": items})
}

// handleGenerateBill renders a bill for the posted item array
func (s *Server) handleGenerateBill(w http.ResponseWriter, r *http.Request) {
	var items []ledger.Item
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bill, data, err := s.service.GenerateBill(items)
	if errors.Is(err, ErrNoItems) {
		jsonError(w, "No items provided", http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("Error generating bill", "error", err)
		jsonError(w, "Error generating bill", http.StatusInternalServerError)
		return
	}

	w.Header().Set(BillIDHeader, bill.ID)
	writePDF(w, "bill.pdf", data)
}

// handleDownloadBill returns a previously generated bill
func (s *Server) handleDownloadBill(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	data, err := s.service.GetBillFile(id)
	if errors.Is(err, ErrBillNotFound) {
		jsonError(w, "Bill not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Error reading bill", "id", id, "error", err)
		jsonError(w, "Bill not found", http.StatusNotFound)
		return
	}

	writePDF(w, fmt.Sprintf("Bill_%s.pdf", id), data)
}

// handleListBills returns all bill records
func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.service.ListBills()
	if err != nil {
		slog.Error("Error listing bills", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, bills)
}

func writePDF(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, strings.ReplaceAll(filename, `"`, "")))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
