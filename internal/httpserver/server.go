// internal/httpserver/server.go
//
// HTTP server wiring for the woodoku environment service.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Environment sessions: POST /env/new, then bearer-token gated
//     /env/reset, /env/step, /env/spec, DELETE /env and the /env/ws stream.
//   - Daily sessions and leaderboards: mounted under /daily.
//   - Episode results: /episodes/leaderboard, /episodes/stats.
//   - Best-effort persistence of finished episodes.
//
// Notes:
//   - Every adapter call runs under the owning session's lock (store.Session.Do).
//   - Persistence is optional; without a DB the results routes answer 503.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/woodoku-env/internal/config"
	"github.com/robalobadob/woodoku-env/internal/env"
	"github.com/robalobadob/woodoku-env/internal/episode"
	"github.com/robalobadob/woodoku-env/internal/results"
	"github.com/robalobadob/woodoku-env/internal/store"
	"github.com/robalobadob/woodoku-env/internal/woodoku"
)

// Server bundles router, session store, catalogue and results store.
type Server struct {
	r        *chi.Mux
	cfg      config.Config
	cat      *woodoku.Catalogue
	sessions store.Store
	results  *results.Store // nil when persistence is disabled
	tokens   tokenIssuer
}

// New constructs a Server, installs middleware, and registers routes.
// db may be nil.
func New(cfg config.Config, cat *woodoku.Catalogue, sessions store.Store, db *sql.DB) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		cfg:      cfg,
		cat:      cat,
		sessions: sessions,
		tokens:   tokenIssuer{secret: []byte(cfg.SessionSecret), ttl: cfg.SessionTTL},
	}
	if db != nil {
		s.results = results.NewStore(db)
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(jsonContentType)
	s.r.Use(cors(cfg.ClientOrigin))

	// long-lived stream; kept outside the request timeout
	s.r.Get("/env/ws", s.handleWebSocket)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"woodoku-env","endpoints":["/health","POST /env/new","POST /env/step","POST /env/reset","GET /env/spec","GET /env/ws","POST /daily/new"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		r.Post("/env/new", s.handleNewEnv)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Post("/env/reset", s.handleReset)
			r.Post("/env/step", s.handleStep)
			r.Get("/env/spec", s.handleSpec)
			r.Delete("/env", s.handleClose)
		})

		s.mountDaily(r)
		s.mountEpisodes(r)
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start serves HTTP on addr until ctx is cancelled, sweeping idle sessions
// in the background.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 10 * time.Second}

	go s.sweepLoop(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

func (s *Server) sweepLoop(ctx context.Context) {
	interval := s.cfg.SessionTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.sessions.Sweep(ctx, time.Now().Add(-s.cfg.SessionTTL)); n > 0 {
				log.Info().Int("sessions", n).Msg("swept idle sessions")
			}
		}
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------- ENV ---------------------------------------

// newEnvReq is the body of POST /env/new. Every field is optional.
type newEnvReq struct {
	ActionCodec string  `json:"actionCodec"`
	StateCodec  string  `json:"stateCodec"`
	Policy      string  `json:"policy"`
	Seed        *uint64 `json:"seed"`
}

// newEnvRes is returned by POST /env/new and POST /daily/new.
type newEnvRes struct {
	SessionID       string          `json:"sessionId"`
	Token           string          `json:"token"`
	ExpiresAt       time.Time       `json:"expiresAt"`
	Date            string          `json:"date,omitempty"`
	Config          env.Config      `json:"config"`
	ActionSpec      env.BoundedSpec `json:"actionSpec"`
	ObservationSpec env.BoundedSpec `json:"observationSpec"`
	TimeStep        env.TimeStep    `json:"timeStep"`
}

// stepRes is a TimeStep plus the episode bookkeeping after it.
type stepRes struct {
	env.TimeStep
	Counters episode.Counters `json:"counters"`
	Score    int              `json:"score"`
}

// specRes is returned by GET /env/spec.
type specRes struct {
	Config          env.Config       `json:"config"`
	ActionSpec      env.BoundedSpec  `json:"actionSpec"`
	ObservationSpec env.BoundedSpec  `json:"observationSpec"`
	Counters        episode.Counters `json:"counters"`
}

type stepReq struct {
	Action *int `json:"action"`
}

func (s *Server) handleNewEnv(w http.ResponseWriter, r *http.Request) {
	var req newEnvReq
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
			return
		}
	}
	seed := rand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}

	cfg := env.Config{ActionCodec: req.ActionCodec, StateCodec: req.StateCodec, Policy: req.Policy}
	res, err := s.openSession(r.Context(), cfg, woodoku.NewEngine(s.cat, seed), "")
	if err != nil {
		log.Debug().Err(err).Msg("new env")
		http.Error(w, `{"error":"invalid_config"}`, http.StatusBadRequest)
		return
	}
	log.Info().Str("session", res.SessionID).Str("actionCodec", res.Config.ActionCodec).
		Str("stateCodec", res.Config.StateCodec).Str("policy", res.Config.Policy).Msg("session opened")
	_ = json.NewEncoder(w).Encode(res)
}

// openSession builds an adapter over factory, stores it and signs its token.
func (s *Server) openSession(ctx context.Context, cfg env.Config, factory *woodoku.Engine, dailyDate string) (newEnvRes, error) {
	opts, err := cfg.Merge(s.cfg.Env).Options()
	if err != nil {
		return newEnvRes{}, err
	}
	a, err := env.New(factory, opts...)
	if err != nil {
		return newEnvRes{}, err
	}
	sess := store.NewSession(a, dailyDate)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return newEnvRes{}, err
	}
	tok, exp, err := s.tokens.sign(sess.ID)
	if err != nil {
		return newEnvRes{}, err
	}

	res := newEnvRes{SessionID: sess.ID, Token: tok, ExpiresAt: exp, Date: dailyDate}
	_ = sess.Do(func(a *env.Adapter) error {
		res.Config = a.Config()
		res.ActionSpec = a.ActionSpec()
		res.ObservationSpec = a.ObservationSpec()
		res.TimeStep = a.Reset()
		return nil
	})
	return res, nil
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	_ = json.NewEncoder(w).Encode(s.reset(sess))
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	var req stepReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if req.Action == nil {
		http.Error(w, `{"error":"missing_action"}`, http.StatusBadRequest)
		return
	}

	res, err := s.step(r.Context(), sessionFrom(r.Context()), *req.Action)
	switch {
	case errors.Is(err, env.ErrActionOutOfRange):
		http.Error(w, `{"error":"action_out_of_range"}`, http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, `{"error":"engine_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}

func (s *Server) handleSpec(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(s.spec(sessionFrom(r.Context())))
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := s.sessions.Delete(r.Context(), sess.ID); err != nil {
		http.Error(w, `{"error":"delete_failed"}`, http.StatusInternalServerError)
		return
	}
	log.Info().Str("session", sess.ID).Msg("session closed")
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// ----------------------- shared with the websocket -------------------------

type scorer interface{ Score() int }

func (s *Server) reset(sess *store.Session) stepRes {
	var res stepRes
	_ = sess.Do(func(a *env.Adapter) error {
		res = stepRes{TimeStep: a.Reset(), Counters: a.Counters()}
		return nil
	})
	return res
}

func (s *Server) step(ctx context.Context, sess *store.Session, action int) (stepRes, error) {
	var res stepRes
	err := sess.Do(func(a *env.Adapter) error {
		ts, err := a.Step(action)
		if err != nil {
			if !errors.Is(err, env.ErrActionOutOfRange) {
				log.Error().Err(err).Str("session", sess.ID).Int("action", action).Msg("step failed")
			}
			return err
		}
		res = stepRes{TimeStep: ts, Counters: a.Counters()}
		if g, ok := a.State().(scorer); ok {
			res.Score = g.Score()
		}
		if ts.Done {
			s.recordEpisode(ctx, sess, a, res.Score)
		}
		return nil
	})
	return res, err
}

func (s *Server) spec(sess *store.Session) specRes {
	var res specRes
	_ = sess.Do(func(a *env.Adapter) error {
		res = specRes{
			Config:          a.Config(),
			ActionSpec:      a.ActionSpec(),
			ObservationSpec: a.ObservationSpec(),
			Counters:        a.Counters(),
		}
		return nil
	})
	return res
}

// recordEpisode persists a finished episode. Failures are logged, not returned.
func (s *Server) recordEpisode(ctx context.Context, sess *store.Session, a *env.Adapter, score int) {
	if s.results == nil {
		return
	}
	c := a.Counters()
	names := a.Config()
	id, err := s.results.Insert(context.WithoutCancel(ctx), results.Episode{
		SessionID:    sess.ID,
		ActionCodec:  names.ActionCodec,
		StateCodec:   names.StateCodec,
		Policy:       names.Policy,
		Steps:        c.Step,
		Return:       c.Return,
		LegalMoves:   c.LegalMoves,
		IllegalMoves: c.IllegalMoves,
		Score:        score,
		DailyDate:    sess.DailyDate,
	})
	if err != nil {
		log.Warn().Err(err).Str("session", sess.ID).Msg("record episode")
		return
	}
	log.Debug().Str("session", sess.ID).Str("episode", id).Float64("return", c.Return).Msg("episode recorded")
}
