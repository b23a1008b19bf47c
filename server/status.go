package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/brensch/tronio/store"
	"github.com/brensch/tronio/world"
)

// TraceLister lists recorded rounds.
type TraceLister interface {
	Rounds(ctx context.Context, limit int) ([]store.RoundSummary, error)
}

// Status serves read-only match information.
type Status struct {
	hub    *world.Hub
	traces TraceLister
}

func NewStatus(hub *world.Hub) *Status {
	return &Status{hub: hub}
}

// WithTraces enables GET /api/traces.
func (s *Status) WithTraces(t TraceLister) *Status {
	s.traces = t
	return s
}

type TracesResponse struct {
	Total  int                  `json:"total"`
	Rounds []store.RoundSummary `json:"rounds"`
}

type MatchesResponse struct {
	Total   int               `json:"total"`
	Matches []world.MatchInfo `json:"matches"`
}

// RegisterRoutes sets up the status routes on mux.
func (s *Status) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/matches", s.handleMatches)
	mux.HandleFunc("GET /api/matches/{id}", s.handleMatch)
	if s.traces != nil {
		mux.HandleFunc("GET /api/traces", s.handleTraces)
	}
	mux.HandleFunc("OPTIONS /api/", func(w http.ResponseWriter, r *http.Request) {
		withCORS(w)
	})
}

func (s *Status) handleMatches(w http.ResponseWriter, r *http.Request) {
	withCORS(w)
	ms := s.hub.Matches()
	writeJSON(w, MatchesResponse{Total: len(ms), Matches: ms})
}

func (s *Status) handleMatch(w http.ResponseWriter, r *http.Request) {
	withCORS(w)
	m, ok := s.hub.Match(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, m)
}

func (s *Status) handleTraces(w http.ResponseWriter, r *http.Request) {
	withCORS(w)
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	rounds, err := s.traces.Rounds(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, TracesResponse{Total: len(rounds), Rounds: rounds})
}

func withCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
