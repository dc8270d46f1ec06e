// internal/httpserver/routes_episodes.go
//
// Read-only views over recorded episodes:
//   - GET /episodes/leaderboard?limit= → highest returns across all sessions
//   - GET /episodes/stats              → count, mean, stddev, min, max of returns

package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

func (s *Server) mountEpisodes(r chi.Router) {
	r.Route("/episodes", func(r chi.Router) {
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/stats", s.handleStats)
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		http.Error(w, `{"error":"persistence_disabled"}`, http.StatusServiceUnavailable)
		return
	}
	rows, err := s.results.Leaderboard(r.Context(), queryLimit(r))
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"top": rows})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		http.Error(w, `{"error":"persistence_disabled"}`, http.StatusServiceUnavailable)
		return
	}
	st, err := s.results.Stats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("episode stats")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(st)
}
