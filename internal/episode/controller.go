// internal/episode/controller.go
//
// Episode bookkeeping for one environment.
// Responsibilities:
//   - Own the current engine state, the ended flag and the reward accumulator.
//   - Apply decoded moves in order against a candidate state.
//   - Commit the candidate and compute reward according to the Policy.
//   - Detect termination (engine game over or fail-fast abort).
//
// State machine: Active → Ended. Apply on an Ended controller resets it and
// discards the supplied moves, matching the framework convention that an
// action arriving after termination only signals a restart.
//
// Only errors wrapping engine.ErrIllegalMove are treated as illegal moves.
// Anything else the engine returns is a fault and is handed back to the caller
// with the held state untouched.

package episode

import (
	"fmt"

	"github.com/robalobadob/woodoku-env/internal/codec"
	"github.com/robalobadob/woodoku-env/internal/engine"
)

// Counters is the per-episode bookkeeping.
type Counters struct {
	Step         int     `json:"step"`
	Ended        bool    `json:"ended"`
	Return       float64 `json:"return"`
	LegalMoves   int     `json:"legalMoves"`
	IllegalMoves int     `json:"illegalMoves"`
}

// Transition is the outcome of one Apply.
type Transition struct {
	Observation codec.Observation
	Reward      float64
	Done        bool
	Restarted   bool // the call only reset a finished episode
	Aborted     bool // fail-fast stopped the step early
	Legal       int  // moves accepted by the engine this step
	Illegal     int  // moves rejected by the engine this step
}

// Controller runs episodes against an engine.Factory.
// Not safe for concurrent use.
type Controller struct {
	factory  engine.Factory
	encoder  codec.StateCodec
	policy   Policy
	state    engine.State
	counters Counters
}

// NewController returns a controller with a freshly reset episode.
func NewController(factory engine.Factory, encoder codec.StateCodec, policy Policy) *Controller {
	c := &Controller{factory: factory, encoder: encoder, policy: policy}
	c.Reset()
	return c
}

// Reset starts a new episode and returns its first observation.
func (c *Controller) Reset() codec.Observation {
	c.state = c.factory.NewState()
	c.counters = Counters{}
	return c.encoder.Encode(c.state)
}

// Apply plays moves against the held state.
func (c *Controller) Apply(moves []codec.Move) (Transition, error) {
	if c.counters.Ended {
		return Transition{Observation: c.Reset(), Restarted: true}, nil
	}

	candidate := c.state
	var legal, illegal int
	aborted := false
	for i, m := range moves {
		if candidate.GameOver() {
			break
		}
		next, err := candidate.PlayMove(m.Shape, m.Cell)
		if err != nil {
			if !engine.IsIllegal(err) {
				return Transition{}, fmt.Errorf("move %d (shape %d, cell %d): %w", i, m.Shape, m.Cell, err)
			}
			illegal++
			if c.policy == FailFast {
				aborted = true
				break
			}
			continue
		}
		candidate = next
		legal++
	}

	var reward float64
	switch c.policy {
	case AllOrNothing:
		if illegal == 0 {
			c.state = candidate
			reward = 1
		}
	case BestEffort:
		c.state = candidate
		reward = float64(legal - illegal)
	case FailFast:
		if aborted {
			reward = FailFastPenalty
			c.counters.Ended = true
		} else {
			c.state = candidate
			reward = 1
		}
	default:
		return Transition{}, fmt.Errorf("unsupported commit policy %v", c.policy)
	}

	if c.state.GameOver() {
		c.counters.Ended = true
	}
	c.counters.Step++
	c.counters.Return += reward
	c.counters.LegalMoves += legal
	c.counters.IllegalMoves += illegal

	return Transition{
		Observation: c.encoder.Encode(c.state),
		Reward:      reward,
		Done:        c.counters.Ended,
		Aborted:     aborted,
		Legal:       legal,
		Illegal:     illegal,
	}, nil
}

// State returns the held engine state.
func (c *Controller) State() engine.State { return c.state }

// Counters returns a copy of the episode bookkeeping.
func (c *Controller) Counters() Counters { return c.counters }

// Policy returns the commit policy in use.
func (c *Controller) Policy() Policy { return c.policy }

// Ended reports whether the episode has terminated.
func (c *Controller) Ended() bool { return c.counters.Ended }
