// internal/woodoku/engine.go
//
// Rules engine for a single woodoku game.
// Responsibilities:
//   - Create new games with a freshly drawn shapes batch.
//   - Validate and apply placements (index range, reuse, bounds, overlap).
//   - Clear full rows, columns and 3×3 grids after each placement.
//   - Redraw the batch once every slot is placed; detect game over.
//
// Notes:
//   - Batch draws are seeded from (game seed, batch number), so Play is a pure
//     function of its receiver and arguments.
//   - A move anchors the top-left corner of the shape's 5×5 box at the target cell.

package woodoku

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/robalobadob/woodoku-env/internal/engine"
)

// New constructs a game with an empty board and a batch drawn from seed.
func New(cat *Catalogue, seed uint64) *Game {
	g := &Game{
		cat:   cat,
		board: make([]bool, BoardSize),
		seed:  seed,
	}
	g.batch = g.drawBatch()
	g.batchNo = 1
	return g
}

// Play validates and applies one placement.
// Returns a new Game; the receiver is left untouched.
func (g *Game) Play(shapeIx, position int) (*Game, error) {
	if g.gameOver {
		return nil, ErrGameFinished
	}
	if shapeIx < 0 || shapeIx >= ShapesBatchSize {
		return nil, ErrShapeIndex
	}
	if position < 0 || position >= BoardSize {
		return nil, ErrPosition
	}
	shape, ok := g.cat.Shape(g.batch[shapeIx])
	if !ok {
		return nil, ErrShapeUsed
	}

	next := g.clone()
	placed, err := applyShape(next.board, shape.Cells, position)
	if err != nil {
		return nil, err
	}
	cleared := clearFull(next.board)
	next.score += placed + cleared

	next.batch[shapeIx] = 0
	if allPlaced(next.batch) {
		next.batch = next.drawBatch()
		next.batchNo++
	}
	next.gameOver = !next.anyPlaceable()
	return next, nil
}

// PlayMove implements engine.State.
func (g *Game) PlayMove(shape, cell int) (engine.State, error) {
	next, err := g.Play(shape, cell)
	if err != nil {
		return nil, err
	}
	return next, nil
}

// PlayMoveString applies a move written as "<shape><position>", e.g. "040".
func (g *Game) PlayMoveString(mv string) (*Game, error) {
	shapeIx, position, err := ParseMove(mv)
	if err != nil {
		return nil, err
	}
	return g.Play(shapeIx, position)
}

// ParseMove parses "<shape digit><position digits>".
// Spaces are ignored, so "0 40" and "040" are equivalent.
func ParseMove(mv string) (shapeIx, position int, err error) {
	mv = strings.ReplaceAll(strings.TrimSpace(mv), " ", "")
	if len(mv) < 2 {
		return 0, 0, ErrMoveSyntax
	}
	shapeIx, err = strconv.Atoi(mv[:1])
	if err != nil {
		return 0, 0, ErrMoveSyntax
	}
	position, err = strconv.Atoi(mv[1:])
	if err != nil || position < 0 {
		return 0, 0, ErrMoveSyntax
	}
	if shapeIx >= ShapesBatchSize {
		return 0, 0, ErrShapeIndex
	}
	if position >= BoardSize {
		return 0, 0, ErrPosition
	}
	return shapeIx, position, nil
}

// Board implements engine.State.
func (g *Game) Board() []int {
	out := make([]int, BoardSize)
	for i, filled := range g.board {
		if filled {
			out[i] = 1
		}
	}
	return out
}

// ShapesBatch implements engine.State. Placed slots read as all zeros.
func (g *Game) ShapesBatch() [][]int {
	out := make([][]int, ShapesBatchSize)
	for i, id := range g.batch {
		cells := make([]int, ShapeSize)
		if shape, ok := g.cat.Shape(id); ok {
			for j, filled := range shape.Cells {
				if filled {
					cells[j] = 1
				}
			}
		}
		out[i] = cells
	}
	return out
}

// ShapeIDs implements engine.State.
func (g *Game) ShapeIDs() []int {
	out := make([]int, len(g.batch))
	copy(out, g.batch)
	return out
}

// GameOver implements engine.State.
func (g *Game) GameOver() bool { return g.gameOver }

// Score returns placed plus cleared cells so far.
func (g *Game) Score() int { return g.score }

// String renders the board and the pending shapes.
func (g *Game) String() string {
	var sb strings.Builder
	for r := 0; r < BoardSide; r++ {
		if r > 0 && r%GridSide == 0 {
			sb.WriteString("------+-------+------\n")
		}
		for c := 0; c < BoardSide; c++ {
			if c > 0 && c%GridSide == 0 {
				sb.WriteString("| ")
			}
			if g.board[r*BoardSide+c] {
				sb.WriteString("# ")
			} else {
				sb.WriteString(". ")
			}
		}
		sb.WriteString("\n")
	}
	for i, id := range g.batch {
		name := "(placed)"
		if shape, ok := g.cat.Shape(id); ok {
			name = shape.Name
		}
		sb.WriteString(strconv.Itoa(i) + ": " + name + "\n")
	}
	return sb.String()
}

func (g *Game) clone() *Game {
	next := *g
	next.board = append([]bool(nil), g.board...)
	next.batch = append([]int(nil), g.batch...)
	return &next
}

// drawBatch picks ShapesBatchSize distinct shapes for batch number g.batchNo.
func (g *Game) drawBatch() []int {
	rng := rand.New(rand.NewPCG(g.seed, g.batchNo))
	perm := rng.Perm(g.cat.Len())
	batch := make([]int, ShapesBatchSize)
	for i := range batch {
		batch[i] = perm[i] + 1
	}
	return batch
}

// anyPlaceable reports whether some pending shape fits somewhere.
func (g *Game) anyPlaceable() bool {
	scratch := make([]bool, BoardSize)
	for _, id := range g.batch {
		shape, ok := g.cat.Shape(id)
		if !ok {
			continue
		}
		for pos := 0; pos < BoardSize; pos++ {
			copy(scratch, g.board)
			if _, err := applyShape(scratch, shape.Cells, pos); err == nil {
				return true
			}
		}
	}
	return false
}

// applyShape fills the cells covered by shape anchored at position.
// Returns the number of filled cells. board may be partially written on error.
func applyShape(board []bool, shape []bool, position int) (int, error) {
	row0, col0 := position/BoardSide, position%BoardSide
	indices := make([]int, 0, ShapeSize)
	for r := 0; r < ShapeSide; r++ {
		for c := 0; c < ShapeSide; c++ {
			if !shape[r*ShapeSide+c] {
				continue
			}
			br, bc := row0+r, col0+c
			if br >= BoardSide || bc >= BoardSide {
				return 0, ErrOutOfBoard
			}
			indices = append(indices, br*BoardSide+bc)
		}
	}
	for _, ix := range indices {
		if board[ix] {
			return 0, ErrOverlap
		}
		board[ix] = true
	}
	return len(indices), nil
}

// clearFull empties every full row, column and grid and returns how many
// distinct cells were cleared. Lines are detected before any cell is cleared.
func clearFull(board []bool) int {
	var groups [][]int
	groups = append(groups, fullRows(board)...)
	groups = append(groups, fullColumns(board)...)
	groups = append(groups, fullGrids(board)...)

	cleared := 0
	for _, group := range groups {
		for _, ix := range group {
			if board[ix] {
				board[ix] = false
				cleared++
			}
		}
	}
	return cleared
}

func fullRows(board []bool) [][]int {
	var out [][]int
	for r := 0; r < BoardSide; r++ {
		idx := make([]int, BoardSide)
		for c := range idx {
			idx[c] = r*BoardSide + c
		}
		if allSet(board, idx) {
			out = append(out, idx)
		}
	}
	return out
}

func fullColumns(board []bool) [][]int {
	var out [][]int
	for c := 0; c < BoardSide; c++ {
		idx := make([]int, BoardSide)
		for r := range idx {
			idx[r] = r*BoardSide + c
		}
		if allSet(board, idx) {
			out = append(out, idx)
		}
	}
	return out
}

func fullGrids(board []bool) [][]int {
	var out [][]int
	for gr := 0; gr < GridSide; gr++ {
		for gc := 0; gc < GridSide; gc++ {
			idx := make([]int, 0, GridSide*GridSide)
			for r := 0; r < GridSide; r++ {
				for c := 0; c < GridSide; c++ {
					idx = append(idx, (gr*GridSide+r)*BoardSide+gc*GridSide+c)
				}
			}
			if allSet(board, idx) {
				out = append(out, idx)
			}
		}
	}
	return out
}

func allSet(board []bool, idx []int) bool {
	for _, ix := range idx {
		if !board[ix] {
			return false
		}
	}
	return true
}

func allPlaced(batch []int) bool {
	for _, id := range batch {
		if id != 0 {
			return false
		}
	}
	return true
}
