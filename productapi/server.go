// Copyright (c) Microsoft. All rights reserved.

package productapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceVersion = "0.1.0"

// ProcessRequest is the JSON body for POST /process.
type ProcessRequest struct {
	Data string `json:"data"`
}

// ProcessResponse is the JSON body returned from POST /process.
type ProcessResponse struct {
	Original  string `json:"original"`
	Processed string `json:"processed"`
	Length    int    `json:"length"`
}

// HealthStatus is the JSON body returned from GET /health.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Server is the product API HTTP service.
type Server struct {
	service string
	logger  *slog.Logger
	mux     *http.ServeMux
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServiceName sets the service name reported by /health and the root
// endpoint.
func WithServiceName(name string) ServerOption {
	return func(s *Server) { s.service = name }
}

// WithLogger sets the logger used for request logging.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates the product API service.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		service: "api-server",
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /product-of-the-day", s.handleProductOfTheDay)
	mux.HandleFunc("POST /process", s.handleProcess)
	s.mux = mux
	return s
}

// Handler returns the HTTP handler for the service. Requests are wrapped in
// otelhttp so server spans are created and incoming trace context and baggage
// are extracted before the route handlers run.
func (s *Server) Handler() http.Handler {
	logged := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
		)
		s.mux.ServeHTTP(w, r)
	})
	return otelhttp.NewHandler(logged, "product-api")
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": s.service,
		"version": serviceVersion,
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatus{
		Status:  "healthy",
		Service: s.service,
	})
}

func (s *Server) handleProductOfTheDay(w http.ResponseWriter, r *http.Request) {
	product := ProductOfTheDay(time.Now())
	s.logger.InfoContext(r.Context(), "product of the day served",
		"product_id", product.ID,
	)
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.WarnContext(r.Context(), "bad process request", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	resp := ProcessResponse{
		Original:  req.Data,
		Processed: strings.ToUpper(req.Data),
		Length:    len(req.Data),
	}
	s.logger.InfoContext(r.Context(), "data processed", "length", resp.Length)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
