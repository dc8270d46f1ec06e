// internal/woodoku/types.go
//
// Core type definitions for the woodoku engine.
// Defines:
//   - board/shape geometry constants.
//   - legality errors (all wrap engine.ErrIllegalMove).
//   - Game: an immutable snapshot of one game.

package woodoku

import (
	"errors"
	"fmt"

	"github.com/robalobadob/woodoku-env/internal/engine"
)

const (
	BoardSide       = 9
	BoardSize       = BoardSide * BoardSide // 81
	GridSide        = 3
	ShapeSide       = 5
	ShapeSize       = ShapeSide * ShapeSide // 25
	ShapesBatchSize = 3
)

// Legality failures. errors.Is(err, engine.ErrIllegalMove) holds for all of them.
var (
	ErrShapeIndex   = fmt.Errorf("%w: shape index out of range", engine.ErrIllegalMove)
	ErrShapeUsed    = fmt.Errorf("%w: shape already used", engine.ErrIllegalMove)
	ErrPosition     = fmt.Errorf("%w: position out of range", engine.ErrIllegalMove)
	ErrOutOfBoard   = fmt.Errorf("%w: shape out of range", engine.ErrIllegalMove)
	ErrOverlap      = fmt.Errorf("%w: shape overlapping", engine.ErrIllegalMove)
	ErrMoveSyntax   = fmt.Errorf("%w: malformed move", engine.ErrIllegalMove)
	ErrGameFinished = errors.New("woodoku: game is over")
)

// Game holds the state of a single woodoku game.
// A Game is never mutated after construction; Play returns a new value.
type Game struct {
	cat      *Catalogue
	board    []bool // BoardSize cells, row-major
	batch    []int  // catalogue id per slot, 0 once placed
	seed     uint64 // drives every batch draw of this game
	batchNo  uint64 // number of batches drawn so far
	score    int    // placed cells + cleared cells
	gameOver bool
}

var _ engine.State = (*Game)(nil)
