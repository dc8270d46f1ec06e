package woodoku

import (
	"math/rand/v2"

	"github.com/robalobadob/woodoku-env/internal/engine"
)

// Engine hands out fresh games; it implements engine.Factory.
// Not safe for concurrent use: each environment owns its own Engine.
type Engine struct {
	cat   *Catalogue
	seeds *rand.Rand
	fixed bool
	seed  uint64
}

var _ engine.Factory = (*Engine)(nil)

// NewEngine returns a factory whose games draw successive seeds from seed.
func NewEngine(cat *Catalogue, seed uint64) *Engine {
	return &Engine{cat: cat, seeds: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewFixedEngine returns a factory that replays the same game on every reset.
// Used for daily sessions where every player gets an identical shape sequence.
func NewFixedEngine(cat *Catalogue, seed uint64) *Engine {
	return &Engine{cat: cat, fixed: true, seed: seed}
}

// Dims implements engine.Factory.
func (e *Engine) Dims() engine.Dims {
	return engine.Dims{
		BoardSize:       BoardSize,
		ShapesBatchSize: ShapesBatchSize,
		ShapeSize:       ShapeSize,
		ShapesCount:     e.cat.Len() + 1,
	}
}

// NewState implements engine.Factory.
func (e *Engine) NewState() engine.State {
	return e.NewGame()
}

// NewGame is NewState with the concrete type.
func (e *Engine) NewGame() *Game {
	if e.fixed {
		return New(e.cat, e.seed)
	}
	return New(e.cat, e.seeds.Uint64())
}
