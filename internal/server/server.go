package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/voicedroplab/voicedrop/internal/service"
)

// Server is the local HTTP control surface: the same operations the CLI
// exposes, for UIs that drive voicedrop remotely.
type Server struct {
	service *service.Service
	port    int
}

// StartRequest is the JSON body of POST /api/record/start. All fields are
// raw form text; duration fields that fail to parse coerce to zero.
type StartRequest struct {
	Hours     string `json:"hours"`
	Minutes   string `json:"minutes"`
	FileName  string `json:"file_name"`
	ServerURL string `json:"server_url"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CheckResponse is the JSON response of GET /api/check.
type CheckResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// New creates a control server around the service.
func New(svc *service.Service, port int) *Server {
	return &Server{
		service: svc,
		port:    port,
	}
}

// Handler returns the control API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/record/start", s.handleRecordStart)
	mux.HandleFunc("POST /api/record/stop", s.handleRecordStop)
	mux.HandleFunc("GET /api/check", s.handleCheck)
	return mux
}

// Start blocks serving the control API on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("Control server listening", "addr", addr)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.GetStatus())
}

func (s *Server) handleRecordStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}

	if err := s.service.StartRecording(req.Hours, req.Minutes, req.FileName, req.ServerURL); err != nil {
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, s.service.GetStatus())
}

func (s *Server) handleRecordStop(w http.ResponseWriter, r *http.Request) {
	if err := s.service.StopRecording(); err != nil {
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, s.service.GetStatus())
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	serverURL := r.URL.Query().Get("server")
	if err := s.service.CheckServer(r.Context(), serverURL); err != nil {
		writeJSON(w, http.StatusOK, CheckResponse{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, CheckResponse{OK: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}
