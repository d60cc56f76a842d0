// Package screen serves the single operator screen and its JSON API.
package screen

import (
	"log/slog"
	"net/http"

	"github.com/zombor/billsmart/internal/workflow"
)

// Server handles HTTP requests for the billing screen
type Server struct {
	session *workflow.Session
	mux     *http.ServeMux
}

// NewServer creates a new Server with default mux
func NewServer(session *workflow.Session) *Server {
	return NewServerWithMux(session, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(session *workflow.Session, mux *http.ServeMux) *Server {
	s := &Server{
		session: session,
		mux:     mux,
	}
	s.registerRoutes()
	return s
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// registerRoutes registers all routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /static/app.js", s.handleStaticJS)

	s.mux.HandleFunc("GET /api/session", s.handleGetSession)
	s.mux.HandleFunc("GET /api/image", s.handleGetImage)
	s.mux.HandleFunc("POST /api/capture", s.handleCapture)
	s.mux.HandleFunc("POST /api/retake", s.handleRetake)
	s.mux.HandleFunc("POST /api/submit", s.handleSubmit)
	s.mux.HandleFunc("PATCH /api/items/{index}", s.handleEditItem)
	s.mux.HandleFunc("POST /api/items", s.handleAddItem)
	s.mux.HandleFunc("POST /api/bill", s.handleGenerateBill)

	// catch-all, registered last
	s.mux.HandleFunc("GET /index.html", s.handleIndex)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
}

// Handler is the mux wrapped with CORS handling
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// ServeHTTP implements http.Handler with the same CORS handling as Start
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Handler().ServeHTTP(w, r)
}
