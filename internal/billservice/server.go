package billservice

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// maxUploadSize bounds the multipart form for /process_image/
const maxUploadSize = int64(50 << 20)

// Server handles HTTP requests for the bill service
type Server struct {
	service *Service
	router  *mux.Router
}

// NewServer creates a new Server
func NewServer(service *Service) *Server {
	s := &Server{
		service: service,
		router:  mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

// corsMiddleware adds permissive CORS headers and answers preflight requests
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "*")
	w.Header().Set("Access-Control-Expose-Headers", "X-Bill-ID, Content-Disposition")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// registerRoutes registers all routes on the router
func (s *Server) registerRoutes() {
	s.router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	s.router.HandleFunc("/process_image/", s.handleProcessImage).Methods(http.MethodPost)
	s.router.HandleFunc("/generate_bill/", s.handleGenerateBill).Methods(http.MethodPost)
	s.router.HandleFunc("/download_bill/{id}", s.handleDownloadBill).Methods(http.MethodGet)
	s.router.HandleFunc("/bills/", s.handleListBills).Methods(http.MethodGet)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	corsMiddleware(s.router).ServeHTTP(w, r)
}
