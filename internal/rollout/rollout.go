// internal/rollout/rollout.go
//
// Random-policy evaluation runs.
// Responsibilities:
//   - Drive an env.Adapter for N episodes with a uniform-random action policy.
//   - Cap episode length and honour context cancellation between steps.
//   - Summarise returns and optionally record every episode.

package rollout

import (
	"context"
	"encoding/csv"
	"io"
	"math/rand/v2"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/woodoku-env/internal/env"
	"github.com/robalobadob/woodoku-env/internal/results"
)

// Recorder persists finished episodes; *results.Store satisfies it.
type Recorder interface {
	Insert(ctx context.Context, e results.Episode) (string, error)
}

// Config controls a run.
type Config struct {
	Episodes int
	MaxSteps int // per episode, 0 means unbounded
	Seed     uint64
	Recorder Recorder // optional
}

// Episode is one row of a run.
type Episode struct {
	Index   int
	Steps   int
	Return  float64
	Legal   int
	Illegal int
	Score   int
	Done    bool // false when MaxSteps cut the episode short
}

// Summary is the outcome of Run.
type Summary struct {
	Episodes []Episode
	Stats    results.Stats
}

// AverageReturn is the mean return over the run.
func (s Summary) AverageReturn() float64 { return s.Stats.Mean }

type scorer interface{ Score() int }

// Run plays cfg.Episodes episodes on a. On cancellation it returns the
// episodes completed so far together with ctx.Err().
func Run(ctx context.Context, a *env.Adapter, cfg Config) (Summary, error) {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1))
	names := a.Config()

	var sum Summary
	returns := make([]float64, 0, cfg.Episodes)
	for i := 0; i < cfg.Episodes; i++ {
		ep := Episode{Index: i}
		ts := a.Reset()
		for !ts.Done && (cfg.MaxSteps <= 0 || ep.Steps < cfg.MaxSteps) {
			if err := ctx.Err(); err != nil {
				sum.Stats = results.Summarize(returns)
				return sum, err
			}
			var err error
			ts, err = a.Step(rng.IntN(a.ActionSize()))
			if err != nil {
				sum.Stats = results.Summarize(returns)
				return sum, err
			}
			ep.Steps++
		}

		c := a.Counters()
		ep.Return = c.Return
		ep.Legal = c.LegalMoves
		ep.Illegal = c.IllegalMoves
		ep.Done = ts.Done
		if g, ok := a.State().(scorer); ok {
			ep.Score = g.Score()
		}
		sum.Episodes = append(sum.Episodes, ep)
		returns = append(returns, ep.Return)

		log.Debug().Int("episode", i).Int("steps", ep.Steps).Float64("return", ep.Return).Msg("rollout episode")

		if cfg.Recorder != nil {
			_, err := cfg.Recorder.Insert(ctx, results.Episode{
				SessionID:    "rollout",
				ActionCodec:  names.ActionCodec,
				StateCodec:   names.StateCodec,
				Policy:       names.Policy,
				Steps:        ep.Steps,
				Return:       ep.Return,
				LegalMoves:   ep.Legal,
				IllegalMoves: ep.Illegal,
				Score:        ep.Score,
			})
			if err != nil {
				log.Warn().Err(err).Int("episode", i).Msg("record rollout episode")
			}
		}
	}
	sum.Stats = results.Summarize(returns)
	return sum, nil
}

// WriteCSV writes one header row and one row per episode.
func WriteCSV(w io.Writer, eps []Episode) error {
	cw := csv.NewWriter(w)
	rows := [][]string{{"episode", "steps", "return", "legal", "illegal", "score", "done"}}
	for _, e := range eps {
		rows = append(rows, []string{
			strconv.Itoa(e.Index),
			strconv.Itoa(e.Steps),
			strconv.FormatFloat(e.Return, 'f', -1, 64),
			strconv.Itoa(e.Legal),
			strconv.Itoa(e.Illegal),
			strconv.Itoa(e.Score),
			strconv.FormatBool(e.Done),
		})
	}
	return cw.WriteAll(rows)
}
