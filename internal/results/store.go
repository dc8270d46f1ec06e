// internal/results/store.go
//
// Episode results persistence.
// Responsibilities:
//   - Record finished episodes (return, moves, score, strategies used).
//   - Leaderboards: overall and per daily date, highest return first.
//   - Aggregate return statistics over every stored episode.

package results

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// Episode is one finished (or abandoned) episode.
type Episode struct {
	ID           string  `json:"id"`
	SessionID    string  `json:"sessionId"`
	ActionCodec  string  `json:"actionCodec"`
	StateCodec   string  `json:"stateCodec"`
	Policy       string  `json:"policy"`
	Steps        int     `json:"steps"`
	Return       float64 `json:"return"`
	LegalMoves   int     `json:"legalMoves"`
	IllegalMoves int     `json:"illegalMoves"`
	Score        int     `json:"score"`
	DailyDate    string  `json:"dailyDate,omitempty"`
	CreatedAt    string  `json:"createdAt,omitempty"`
}

// Store reads and writes the episodes table.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Insert stores e and returns its id, generating one when e.ID is empty.
func (s *Store) Insert(ctx context.Context, e Episode) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	var daily any
	if e.DailyDate != "" {
		daily = e.DailyDate
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO episodes
			(id, session_id, action_codec, state_codec, policy,
			 steps, return_value, legal_moves, illegal_moves, score, daily_date)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.SessionID, e.ActionCodec, e.StateCodec, e.Policy,
		e.Steps, e.Return, e.LegalMoves, e.IllegalMoves, e.Score, daily,
	)
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

// Leaderboard returns the best episodes overall.
// Ordered by return DESC, then steps ASC, then insertion order.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Episode, error) {
	return s.query(ctx, `WHERE 1=1`, limit)
}

// DailyLeaderboard is Leaderboard restricted to one daily date.
func (s *Store) DailyLeaderboard(ctx context.Context, date string, limit int) ([]Episode, error) {
	return s.query(ctx, `WHERE daily_date=?`, limit, date)
}

// Returns lists every stored return, oldest first.
func (s *Store) Returns(ctx context.Context) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT return_value FROM episodes ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Stats summarises every stored return.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	returns, err := s.Returns(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Summarize(returns), nil
}

func (s *Store) query(ctx context.Context, where string, limit int, args ...any) ([]Episode, error) {
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, action_codec, state_codec, policy, steps, return_value,
		       legal_moves, illegal_moves, score, COALESCE(daily_date,''), created_at
		FROM episodes `+where+`
		ORDER BY return_value DESC, steps ASC, rowid ASC
		LIMIT ?`, args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Episode, 0, limit)
	for rows.Next() {
		var e Episode
		if err := rows.Scan(&e.ID, &e.SessionID, &e.ActionCodec, &e.StateCodec, &e.Policy,
			&e.Steps, &e.Return, &e.LegalMoves, &e.IllegalMoves, &e.Score,
			&e.DailyDate, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
