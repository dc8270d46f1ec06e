// internal/httpserver/routes_daily.go
//
// HTTP routes for the "daily" mode.
// Exposes two endpoints under /daily:
//   - POST /daily/new         → open a session on today's shared game
//   - GET  /daily/leaderboard → best episodes for today (or ?date=YYYY-MM-DD)
//
// Every daily session of a date replays the same game: the engine seed is a
// keyed hash of the date and DAILY_SALT, and resets replay it too.
// Daily sessions always use the server's default strategies so returns are
// comparable across players.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/woodoku-env/internal/daily"
	"github.com/robalobadob/woodoku-env/internal/env"
	"github.com/robalobadob/woodoku-env/internal/results"
	"github.com/robalobadob/woodoku-env/internal/woodoku"
)

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", s.handleDailyNew)
		r.Get("/leaderboard", s.handleDailyLeaderboard)
	})
}

// handleDailyNew opens a session whose factory replays today's game.
func (s *Server) handleDailyNew(w http.ResponseWriter, r *http.Request) {
	date := daily.DateKey(time.Now())
	seed := daily.SeedForKey(date, s.cfg.DailySalt)

	res, err := s.openSession(r.Context(), env.Config{}, woodoku.NewFixedEngine(s.cat, seed), date)
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("open daily session")
		http.Error(w, `{"error":"invalid_config"}`, http.StatusInternalServerError)
		return
	}
	log.Info().Str("session", res.SessionID).Str("date", date).Msg("daily session opened")
	_ = json.NewEncoder(w).Encode(res)
}

// dailyLBRes is returned by /daily/leaderboard.
type dailyLBRes struct {
	Date string            `json:"date"`
	Top  []results.Episode `json:"top"`
}

// handleDailyLeaderboard returns the leaderboard for the given date (default today).
func (s *Server) handleDailyLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		http.Error(w, `{"error":"persistence_disabled"}`, http.StatusServiceUnavailable)
		return
	}
	date := daily.DateKey(time.Now())
	if q := r.URL.Query().Get("date"); q != "" {
		var err error
		if date, err = daily.ParseDateKey(q); err != nil {
			http.Error(w, `{"error":"bad_date"}`, http.StatusBadRequest)
			return
		}
	}
	rows, err := s.results.DailyLeaderboard(r.Context(), date, queryLimit(r))
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("daily leaderboard")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(dailyLBRes{Date: date, Top: rows})
}

// queryLimit reads ?limit=, clamped to [1, 100], default 20.
func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return 20
	}
	if n > 100 {
		return 100
	}
	return n
}
