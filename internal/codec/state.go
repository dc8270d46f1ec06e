// internal/codec/state.go
//
// Packing of an engine snapshot into a fixed-length observation vector.
//
// Two strategies:
//   - Unpacked:  board cells followed by every shape's cells, one 0/1 per cell.
//   - BitPacked: the board as big-endian 27-bit words (last word right-padded
//                with zeros), followed by one catalogue id per batch slot.

package codec

import (
	"fmt"

	"github.com/robalobadob/woodoku-env/internal/engine"
)

// WordBits is the number of board cells packed into one observation word.
// 2^27 leaves headroom in an int32.
const WordBits = 27

// MaxWord is the largest value a packed board word can take.
const MaxWord = 1<<WordBits - 1

// Observation is the flat vector handed to the learner.
type Observation []int32

// StateCodec encodes engine snapshots.
type StateCodec interface {
	Name() string
	// Len is the observation length.
	Len() int
	// Encode packs s into a new observation of length Len().
	Encode(s engine.State) Observation
	// Bounds returns inclusive per-dimension minimum and maximum.
	Bounds() (min, max []int32)
}

const (
	UnpackedName  = "unpacked"
	BitPackedName = "bit-packed"
)

// NewStateCodec builds the strategy registered under name.
func NewStateCodec(name string, dims engine.Dims) (StateCodec, error) {
	switch name {
	case UnpackedName:
		return NewUnpacked(dims), nil
	case BitPackedName:
		return NewBitPacked(dims)
	default:
		return nil, fmt.Errorf("unknown state codec %q", name)
	}
}

// Unpacked concatenates raw cells.
type Unpacked struct {
	dims engine.Dims
}

func NewUnpacked(dims engine.Dims) *Unpacked { return &Unpacked{dims: dims} }

func (c *Unpacked) Name() string { return UnpackedName }

func (c *Unpacked) Len() int {
	return c.dims.BoardSize + c.dims.ShapesBatchSize*c.dims.ShapeSize
}

func (c *Unpacked) Encode(s engine.State) Observation {
	obs := make(Observation, 0, c.Len())
	for _, v := range s.Board() {
		obs = append(obs, int32(v))
	}
	for _, shape := range s.ShapesBatch() {
		for _, v := range shape {
			obs = append(obs, int32(v))
		}
	}
	return obs
}

func (c *Unpacked) Bounds() (min, max []int32) {
	min = make([]int32, c.Len())
	max = make([]int32, c.Len())
	for i := range max {
		max[i] = 1
	}
	return min, max
}

// BitPacked compresses the board and replaces shapes by their ids.
type BitPacked struct {
	dims  engine.Dims
	words int
}

func NewBitPacked(dims engine.Dims) (*BitPacked, error) {
	if dims.ShapesCount < 1 {
		return nil, fmt.Errorf("bit-packed: shapes count must be positive, got %d", dims.ShapesCount)
	}
	return &BitPacked{dims: dims, words: WordCount(dims.BoardSize)}, nil
}

func (c *BitPacked) Name() string { return BitPackedName }

func (c *BitPacked) Len() int { return c.words + c.dims.ShapesBatchSize }

func (c *BitPacked) Encode(s engine.State) Observation {
	obs := make(Observation, 0, c.Len())
	obs = append(obs, PackBoard(s.Board())...)
	for _, id := range s.ShapeIDs() {
		obs = append(obs, int32(id))
	}
	return obs
}

func (c *BitPacked) Bounds() (min, max []int32) {
	min = make([]int32, c.Len())
	max = make([]int32, c.Len())
	for i := range max {
		if i < c.words {
			max[i] = MaxWord
		} else {
			max[i] = int32(c.dims.ShapesCount - 1)
		}
	}
	return min, max
}

// WordCount returns ceil(boardSize / WordBits).
func WordCount(boardSize int) int {
	return (boardSize + WordBits - 1) / WordBits
}

// PackBoard groups cells into WordBits-wide words. The first cell of a group
// is the most significant bit; a short final group is padded on the right.
func PackBoard(cells []int) []int32 {
	words := make([]int32, WordCount(len(cells)))
	for w := range words {
		var word int32
		for b := 0; b < WordBits; b++ {
			word <<= 1
			if ix := w*WordBits + b; ix < len(cells) && cells[ix] != 0 {
				word |= 1
			}
		}
		words[w] = word
	}
	return words
}

// UnpackBoard reverses PackBoard, dropping the padding of the final word.
func UnpackBoard(words []int32, boardSize int) []int {
	cells := make([]int, boardSize)
	for ix := range cells {
		w, b := ix/WordBits, ix%WordBits
		if w >= len(words) {
			break
		}
		cells[ix] = int(words[w]>>(WordBits-1-b)) & 1
	}
	return cells
}
