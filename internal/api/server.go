// Package api exposes the chat router over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/llm"
)

// Answerer handles one chat question. Satisfied by *llm.Router.
type Answerer interface {
	Answer(ctx context.Context, userQuery string, membershipNbr *int64) (*llm.Answer, error)
}

// ChatRequest is the /api/chat request body.
type ChatRequest struct {
	UserQuery     string `json:"user_query"`
	MembershipNbr *int64 `json:"membership_nbr,omitempty"`
}

// ChatResponse is the /api/chat response body.
type ChatResponse struct {
	Answer        string `json:"answer"`
	Intent        string `json:"intent"`
	MembershipNbr *int64 `json:"membership_nbr,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server is the HTTP chat API server.
type Server struct {
	answerer Answerer
	srv      *http.Server
}

// NewServer creates a server listening on addr.
func NewServer(addr string, answerer Answerer) *Server {
	s := &Server{answerer: answerer}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the route table with logging middleware attached.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/ready", s.handleHealth)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	return withRequestLog(mux)
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	log.Info("Chat API listening", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.UserQuery) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user_query cannot be empty"})
		return
	}

	ans, err := s.answerer.Answer(r.Context(), req.UserQuery, req.MembershipNbr)
	if err != nil {
		log.Error("Chat request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to answer question"})
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Answer:        ans.Text,
		Intent:        string(ans.Intent),
		MembershipNbr: ans.MembershipNbr,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestLog tags each request with an id and logs its outcome.
func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.Info("Handled request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
