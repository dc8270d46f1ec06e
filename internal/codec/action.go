// internal/codec/action.go
//
// Translation between a scalar action id and the compound move it stands for.
//
// Two strategies:
//   - MixedRadix:   one placement per pending shape. The scalar is read as
//                   ShapesBatchSize digits in base BoardSize, most significant
//                   first; digit i is the target cell for shape i.
//   - CrossProduct: one placement per step. The scalar indexes a precomputed,
//                   cell-major list of (cell, shape) pairs.
//
// Decode is only defined on [0, Size()); range checks belong to the caller.

package codec

import (
	"errors"
	"fmt"
	"math"

	"github.com/robalobadob/woodoku-env/internal/engine"
)

// Move places the pending shape at index Shape onto board cell Cell.
type Move struct {
	Shape int `json:"shape"`
	Cell  int `json:"cell"`
}

// ErrNotEncodable is returned when a move list is outside a codec's image.
var ErrNotEncodable = errors.New("moves not encodable")

// ActionCodec maps scalar actions to ordered move lists.
type ActionCodec interface {
	// Name is the configuration name of the strategy.
	Name() string
	// Size is the number of scalar actions.
	Size() int
	// Decode returns the moves for a in [0, Size()).
	Decode(a int) []Move
	// Encode is the inverse of Decode.
	Encode(moves []Move) (int, error)
}

const (
	MixedRadixName   = "mixed-radix"
	CrossProductName = "cross-product"
)

// NewActionCodec builds the strategy registered under name.
func NewActionCodec(name string, dims engine.Dims) (ActionCodec, error) {
	switch name {
	case MixedRadixName:
		return NewMixedRadix(dims.BoardSize, dims.ShapesBatchSize)
	case CrossProductName:
		return NewCrossProduct(dims.BoardSize, dims.ShapesBatchSize)
	default:
		return nil, fmt.Errorf("unknown action codec %q", name)
	}
}

// MixedRadix decodes one move per batch slot.
type MixedRadix struct {
	base   int
	digits int
	size   int
}

// NewMixedRadix returns a codec over boardSize^shapesBatchSize actions.
func NewMixedRadix(boardSize, shapesBatchSize int) (*MixedRadix, error) {
	if boardSize < 1 || shapesBatchSize < 1 {
		return nil, fmt.Errorf("mixed-radix: invalid dims %d^%d", boardSize, shapesBatchSize)
	}
	size := 1
	for i := 0; i < shapesBatchSize; i++ {
		if size > math.MaxInt/boardSize {
			return nil, fmt.Errorf("mixed-radix: %d^%d overflows int", boardSize, shapesBatchSize)
		}
		size *= boardSize
	}
	return &MixedRadix{base: boardSize, digits: shapesBatchSize, size: size}, nil
}

func (c *MixedRadix) Name() string { return MixedRadixName }
func (c *MixedRadix) Size() int    { return c.size }

// Decode writes digits from the least significant end, so index 0 is the
// most significant digit once the loop finishes.
func (c *MixedRadix) Decode(a int) []Move {
	moves := make([]Move, c.digits)
	for i := c.digits - 1; i >= 0; i-- {
		moves[i] = Move{Shape: i, Cell: a % c.base}
		a /= c.base
	}
	return moves
}

func (c *MixedRadix) Encode(moves []Move) (int, error) {
	if len(moves) != c.digits {
		return 0, fmt.Errorf("%w: want %d moves, got %d", ErrNotEncodable, c.digits, len(moves))
	}
	a := 0
	for i, m := range moves {
		if m.Shape != i || m.Cell < 0 || m.Cell >= c.base {
			return 0, fmt.Errorf("%w: move %d = %+v", ErrNotEncodable, i, m)
		}
		a = a*c.base + m.Cell
	}
	return a, nil
}

// CrossProduct decodes exactly one move per action.
type CrossProduct struct {
	shapes int
	pairs  []Move
}

// NewCrossProduct precomputes the cell-major (cell, shape) list.
func NewCrossProduct(boardSize, shapesBatchSize int) (*CrossProduct, error) {
	if boardSize < 1 || shapesBatchSize < 1 {
		return nil, fmt.Errorf("cross-product: invalid dims %dx%d", boardSize, shapesBatchSize)
	}
	pairs := make([]Move, 0, boardSize*shapesBatchSize)
	for cell := 0; cell < boardSize; cell++ {
		for shape := 0; shape < shapesBatchSize; shape++ {
			pairs = append(pairs, Move{Shape: shape, Cell: cell})
		}
	}
	return &CrossProduct{shapes: shapesBatchSize, pairs: pairs}, nil
}

func (c *CrossProduct) Name() string { return CrossProductName }
func (c *CrossProduct) Size() int    { return len(c.pairs) }

func (c *CrossProduct) Decode(a int) []Move {
	return []Move{c.pairs[a]}
}

func (c *CrossProduct) Encode(moves []Move) (int, error) {
	if len(moves) != 1 {
		return 0, fmt.Errorf("%w: want 1 move, got %d", ErrNotEncodable, len(moves))
	}
	m := moves[0]
	a := m.Cell*c.shapes + m.Shape
	if m.Shape < 0 || m.Shape >= c.shapes || a < 0 || a >= len(c.pairs) || c.pairs[a] != m {
		return 0, fmt.Errorf("%w: %+v", ErrNotEncodable, m)
	}
	return a, nil
}
