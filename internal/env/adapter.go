// internal/env/adapter.go
//
// Reset/step façade exposed to a reinforcement-learning loop.
// Composes:
//   - an ActionCodec (scalar → moves),
//   - an EpisodeController (moves → committed state, reward, termination),
//   - a StateCodec (state → observation),
// and reports the declared action/observation bounds.
//
// An Adapter is single-threaded; concurrent episodes need one Adapter each.

package env

import (
	"errors"
	"fmt"
	"math"

	"github.com/robalobadob/woodoku-env/internal/codec"
	"github.com/robalobadob/woodoku-env/internal/engine"
	"github.com/robalobadob/woodoku-env/internal/episode"
)

// ErrActionOutOfRange is returned by Step for a scalar outside the action spec.
var ErrActionOutOfRange = errors.New("action out of range")

// StepType marks where a TimeStep sits in its episode.
type StepType string

const (
	First StepType = "first"
	Mid   StepType = "mid"
	Last  StepType = "last"
)

// TimeStep is what Reset and Step hand back.
type TimeStep struct {
	StepType    StepType          `json:"stepType"`
	Observation codec.Observation `json:"observation"`
	Reward      float64           `json:"reward"`
	Done        bool              `json:"done"`
	Legal       int               `json:"legal"`
	Illegal     int               `json:"illegal"`
}

// BoundedSpec describes an array with inclusive per-element bounds.
// A scalar has an empty Shape and single-element Minimum/Maximum.
type BoundedSpec struct {
	Shape   []int   `json:"shape"`
	Minimum []int32 `json:"minimum"`
	Maximum []int32 `json:"maximum"`
}

// Adapter is the environment.
type Adapter struct {
	dims    engine.Dims
	actions codec.ActionCodec
	states  codec.StateCodec
	ctrl    *episode.Controller
}

// New builds an adapter over factory. Defaults: mixed-radix actions,
// unpacked observations, all-or-nothing commits.
func New(factory engine.Factory, opts ...Option) (*Adapter, error) {
	params := defaultParams()
	for _, opt := range opts {
		opt(params)
	}

	dims := factory.Dims()
	actions, err := codec.NewActionCodec(params.ActionCodec, dims)
	if err != nil {
		return nil, err
	}
	states, err := codec.NewStateCodec(params.StateCodec, dims)
	if err != nil {
		return nil, err
	}
	if int64(actions.Size())-1 > math.MaxInt32 {
		return nil, fmt.Errorf("action space %d does not fit the int32 action spec", actions.Size())
	}

	return &Adapter{
		dims:    dims,
		actions: actions,
		states:  states,
		ctrl:    episode.NewController(factory, states, params.Policy),
	}, nil
}

// ActionSpec returns the scalar action bounds [0, Size-1].
func (a *Adapter) ActionSpec() BoundedSpec {
	return BoundedSpec{
		Shape:   []int{},
		Minimum: []int32{0},
		Maximum: []int32{int32(a.actions.Size() - 1)},
	}
}

// ObservationSpec returns the observation length and per-dimension bounds.
func (a *Adapter) ObservationSpec() BoundedSpec {
	lo, hi := a.states.Bounds()
	return BoundedSpec{Shape: []int{a.states.Len()}, Minimum: lo, Maximum: hi}
}

// ActionSize is the number of scalar actions.
func (a *Adapter) ActionSize() int { return a.actions.Size() }

// Reset starts a new episode.
func (a *Adapter) Reset() TimeStep {
	return TimeStep{StepType: First, Observation: a.ctrl.Reset()}
}

// Step decodes action and advances the episode.
func (a *Adapter) Step(action int) (TimeStep, error) {
	if action < 0 || action >= a.actions.Size() {
		return TimeStep{}, fmt.Errorf("%w: %d not in [0, %d)", ErrActionOutOfRange, action, a.actions.Size())
	}
	tr, err := a.ctrl.Apply(a.actions.Decode(action))
	if err != nil {
		return TimeStep{}, err
	}

	ts := TimeStep{
		StepType:    Mid,
		Observation: tr.Observation,
		Reward:      tr.Reward,
		Done:        tr.Done,
		Legal:       tr.Legal,
		Illegal:     tr.Illegal,
	}
	switch {
	case tr.Restarted:
		ts.StepType = First
	case tr.Done:
		ts.StepType = Last
	}
	return ts, nil
}

// Decode exposes the move list behind a scalar action.
func (a *Adapter) Decode(action int) ([]codec.Move, error) {
	if action < 0 || action >= a.actions.Size() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrActionOutOfRange, action, a.actions.Size())
	}
	return a.actions.Decode(action), nil
}

// Counters returns the current episode bookkeeping.
func (a *Adapter) Counters() episode.Counters { return a.ctrl.Counters() }

// State returns the held engine state.
func (a *Adapter) State() engine.State { return a.ctrl.State() }

// Dims returns the engine geometry.
func (a *Adapter) Dims() engine.Dims { return a.dims }

// Config reports the strategy names in use.
func (a *Adapter) Config() Config {
	return Config{
		ActionCodec: a.actions.Name(),
		StateCodec:  a.states.Name(),
		Policy:      a.ctrl.Policy().String(),
	}
}
