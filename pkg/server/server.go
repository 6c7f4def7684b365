// Package server exposes the pipeline over HTTP for the UI layer.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linksaudi/market-intelligence/pkg/pipeline"
	"github.com/linksaudi/market-intelligence/pkg/sessions"
	"github.com/linksaudi/market-intelligence/pkg/types"
	"github.com/linksaudi/market-intelligence/pkg/websearch"
)

// Server wires the domain engines into HTTP handlers.
type Server struct {
	market    *pipeline.Engine
	legal     *pipeline.Engine
	sessions  *sessions.Manager
	webSearch *websearch.Client
	logger    *slog.Logger
}

// New creates the HTTP server facade. webSearch may be nil when web
// enrichment is disabled.
func New(market, legal *pipeline.Engine, sessionManager *sessions.Manager, webSearch *websearch.Client) *Server {
	return &Server{
		market:    market,
		legal:     legal,
		sessions:  sessionManager,
		webSearch: webSearch,
		logger:    slog.Default().With("component", "http-server"),
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/market/query", s.handleQuery(s.market)).Methods(http.MethodPost)
	api.HandleFunc("/legal/query", s.handleQuery(s.legal)).Methods(http.MethodPost)
	api.HandleFunc("/legal/sessions", s.handleStartSession).Methods(http.MethodPost)
	api.HandleFunc("/legal/sessions", s.handleListSessions).Methods(http.MethodGet)
	api.HandleFunc("/legal/sessions/{id}/ask", s.handleAsk).Methods(http.MethodPost)
	api.HandleFunc("/legal/sessions/{id}", s.handleEndSession).Methods(http.MethodDelete)
	api.HandleFunc("/legal/websearch", s.handleWebSearch).Methods(http.MethodGet)
	return r
}

type queryRequest struct {
	Query            string              `json:"query"`
	Filters          types.SearchFilters `json:"filters"`
	IncludeCitations bool                `json:"include_citations"`
}

func (s *Server) handleQuery(engine *pipeline.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Query == "" {
			s.writeError(w, http.StatusBadRequest, "query is required")
			return
		}

		resp := engine.GenerateResponse(r.Context(), req.Query, req.Filters, req.IncludeCitations)
		s.writeJSON(w, http.StatusOK, resp)
	}
}

type startSessionRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	// Body is optional; an anonymous session is fine.
	_ = json.NewDecoder(r.Body).Decode(&req)

	id := s.sessions.StartSession(req.UserID)
	s.writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": id,
		"welcome":    sessions.WelcomeMessage,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.sessions.ListSessions(r.URL.Query().Get("user_id"))
	if err != nil {
		s.logger.Error("listing sessions failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not list sessions")
		return
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

type askRequest struct {
	Question string              `json:"question"`
	Filters  types.SearchFilters `json:"filters"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		s.writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	resp, err := s.sessions.Ask(r.Context(), sessionID, req.Question, req.Filters)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	summary, err := s.sessions.EndSession(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleWebSearch(w http.ResponseWriter, r *http.Request) {
	if s.webSearch == nil {
		s.writeError(w, http.StatusNotImplemented, "web search is disabled")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	results, err := s.webSearch.SearchLegal(ctx, query, r.URL.Query().Get("jurisdiction"))
	if err != nil {
		s.logger.Warn("web search failed", "query", query, "error", err)
		// Degrade to an empty list rather than an error page.
		results = []websearch.Result{}
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encoding response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
