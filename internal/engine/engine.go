// internal/engine/engine.go
//
// Contract between the environment core and a puzzle rules engine.
// The core never inspects rules directly; it only:
//   - reads board/shape snapshots from an immutable State,
//   - asks a State to play a move and receives either a new State or an error,
//   - asks a Factory for a fresh initial State at episode start.
//
// Legality failures are signalled by wrapping ErrIllegalMove. Any other error
// coming out of PlayMove is an engine fault and must not be treated as a move
// the player simply got wrong.

package engine

import "errors"

// ErrIllegalMove is wrapped by every legality failure returned from PlayMove.
var ErrIllegalMove = errors.New("illegal move")

// IsIllegal reports whether err is (or wraps) ErrIllegalMove.
func IsIllegal(err error) bool { return errors.Is(err, ErrIllegalMove) }

// Dims describes the fixed geometry of a game.
type Dims struct {
	BoardSize       int // cells on the board
	ShapesBatchSize int // shapes pending per batch
	ShapeSize       int // cells in one shape footprint
	ShapesCount     int // distinct shape ids, including the "placed" id 0
}

// State is an immutable snapshot of a game.
// Implementations must never mutate the receiver in PlayMove.
type State interface {
	// Board returns BoardSize cells, 1 = occupied.
	Board() []int
	// ShapesBatch returns ShapesBatchSize footprints; a placed slot is all zeros.
	ShapesBatch() [][]int
	// ShapeIDs returns one catalogue id per batch slot; 0 marks a placed slot.
	ShapeIDs() []int
	// GameOver is true once no pending shape fits anywhere.
	GameOver() bool
	// PlayMove places shape at cell and returns the resulting state.
	PlayMove(shape, cell int) (State, error)
}

// Factory creates initial states.
type Factory interface {
	Dims() Dims
	NewState() State
}
