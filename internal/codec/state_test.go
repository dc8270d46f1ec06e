package codec

import (
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/robalobadob/woodoku-env/internal/engine"
)

// snapshot is a read-only engine.State for encoding tests.
type snapshot struct {
	board  []int
	shapes [][]int
	ids    []int
}

func (s snapshot) Board() []int         { return s.board }
func (s snapshot) ShapesBatch() [][]int { return s.shapes }
func (s snapshot) ShapeIDs() []int      { return s.ids }
func (s snapshot) GameOver() bool       { return false }
func (s snapshot) PlayMove(int, int) (engine.State, error) {
	return nil, engine.ErrIllegalMove
}

var woodokuDims = engine.Dims{BoardSize: 81, ShapesBatchSize: 3, ShapeSize: 25, ShapesCount: 48}

func TestPackUnpackRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, size := range []int{1, 26, 27, 28, 54, 80, 81, 100} {
		for trial := 0; trial < 20; trial++ {
			cells := make([]int, size)
			for i := range cells {
				cells[i] = rng.IntN(2)
			}
			words := PackBoard(cells)
			if got, want := len(words), WordCount(size); got != want {
				t.Fatalf("size %d: %d words, want %d", size, got, want)
			}
			for i, w := range words {
				if w < 0 || w > MaxWord {
					t.Fatalf("size %d: word %d = %d out of [0, %d]", size, i, w, MaxWord)
				}
			}
			if got := UnpackBoard(words, size); !reflect.DeepEqual(got, cells) {
				t.Fatalf("size %d: UnpackBoard(PackBoard(x)) = %v, want %v", size, got, cells)
			}
		}
	}
}

func TestPackBoardBigEndianWithPadding(t *testing.T) {
	cells := make([]int, 28)
	cells[0] = 1  // MSB of word 0
	cells[26] = 1 // LSB of word 0
	cells[27] = 1 // first cell of word 1, followed by 26 padding zeros
	words := PackBoard(cells)
	want := []int32{1<<26 | 1, 1 << 26}
	if !reflect.DeepEqual(words, want) {
		t.Errorf("PackBoard() = %v, want %v", words, want)
	}
}

func TestUnpackedEncode(t *testing.T) {
	board := make([]int, 81)
	board[3], board[80] = 1, 1
	shapes := [][]int{make([]int, 25), make([]int, 25), make([]int, 25)}
	shapes[0][0], shapes[2][24] = 1, 1

	c := NewUnpacked(woodokuDims)
	obs := c.Encode(snapshot{board: board, shapes: shapes, ids: []int{1, 2, 3}})
	if got, want := len(obs), 81+3*25; got != want || c.Len() != want {
		t.Fatalf("len = %d (Len() %d), want %d", got, c.Len(), want)
	}
	for i, v := range obs {
		want := int32(0)
		switch i {
		case 3, 80, 81, 81 + 2*25 + 24:
			want = 1
		}
		if v != want {
			t.Errorf("obs[%d] = %d, want %d", i, v, want)
		}
	}
	lo, hi := c.Bounds()
	if lo[0] != 0 || hi[len(hi)-1] != 1 || len(lo) != c.Len() {
		t.Errorf("Bounds() = %v..%v", lo[:1], hi[len(hi)-1:])
	}
}

func TestBitPackedEncode(t *testing.T) {
	board := make([]int, 81)
	board[0] = 1
	c, err := NewBitPacked(woodokuDims)
	if err != nil {
		t.Fatal(err)
	}
	obs := c.Encode(snapshot{board: board, ids: []int{5, 0, 47}})
	want := Observation{1 << 26, 0, 0, 5, 0, 47}
	if !reflect.DeepEqual(obs, want) {
		t.Errorf("Encode() = %v, want %v", obs, want)
	}
	if c.Len() != 3+3 {
		t.Errorf("Len() = %d, want 6", c.Len())
	}
	lo, hi := c.Bounds()
	wantHi := []int32{MaxWord, MaxWord, MaxWord, 47, 47, 47}
	if !reflect.DeepEqual(hi, wantHi) || !reflect.DeepEqual(lo, make([]int32, 6)) {
		t.Errorf("Bounds() = %v, %v; want zeros, %v", lo, hi, wantHi)
	}
}

func TestBitPackedPartialBoard(t *testing.T) {
	dims := engine.Dims{BoardSize: 30, ShapesBatchSize: 1, ShapeSize: 4, ShapesCount: 3}
	c, err := NewStateCodec(BitPackedName, dims)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Len(); got != 2+1 {
		t.Errorf("Len() = %d, want 3", got)
	}
}

func TestNewStateCodecUnknown(t *testing.T) {
	if _, err := NewStateCodec("zip", woodokuDims); err == nil {
		t.Error("NewStateCodec(\"zip\") error = nil, want error")
	}
}
