package episode

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/robalobadob/woodoku-env/internal/codec"
	"github.com/robalobadob/woodoku-env/internal/engine"
)

var testDims = engine.Dims{BoardSize: 9, ShapesBatchSize: 3, ShapeSize: 1, ShapesCount: 2}

// rules scripts how fake states answer PlayMove.
type rules struct {
	illegal       map[codec.Move]bool
	fault         map[codec.Move]error
	gameOverAfter int // placements until game over, 0 = never
}

type fakeState struct {
	rules   *rules
	history []codec.Move
}

func (s *fakeState) Board() []int {
	board := make([]int, testDims.BoardSize)
	for _, m := range s.history {
		board[m.Cell] = 1
	}
	return board
}

func (s *fakeState) ShapesBatch() [][]int { return [][]int{{1}, {1}, {1}} }
func (s *fakeState) ShapeIDs() []int      { return []int{1, 1, 1} }

func (s *fakeState) GameOver() bool {
	return s.rules.gameOverAfter > 0 && len(s.history) >= s.rules.gameOverAfter
}

func (s *fakeState) PlayMove(shape, cell int) (engine.State, error) {
	m := codec.Move{Shape: shape, Cell: cell}
	if err, ok := s.rules.fault[m]; ok {
		return nil, err
	}
	if s.rules.illegal[m] {
		return nil, fmt.Errorf("%w: scripted", engine.ErrIllegalMove)
	}
	history := append(append([]codec.Move(nil), s.history...), m)
	return &fakeState{rules: s.rules, history: history}, nil
}

type fakeFactory struct {
	rules  *rules
	resets int
}

func (f *fakeFactory) Dims() engine.Dims { return testDims }

func (f *fakeFactory) NewState() engine.State {
	f.resets++
	return &fakeState{rules: f.rules}
}

func newTestController(t *testing.T, r *rules, p Policy) (*Controller, *fakeFactory) {
	t.Helper()
	f := &fakeFactory{rules: r}
	return NewController(f, codec.NewUnpacked(testDims), p), f
}

func history(s engine.State) []codec.Move {
	return s.(*fakeState).history
}

func threeMoves() []codec.Move {
	return []codec.Move{{Shape: 0, Cell: 0}, {Shape: 1, Cell: 4}, {Shape: 2, Cell: 8}}
}

func TestAllOrNothingIllegalMoveLeavesStateUnchanged(t *testing.T) {
	for k, bad := range threeMoves() {
		t.Run(fmt.Sprintf("illegal move %d", k), func(t *testing.T) {
			c, _ := newTestController(t, &rules{illegal: map[codec.Move]bool{bad: true}}, AllOrNothing)
			before := c.State()

			tr, err := c.Apply(threeMoves())
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if c.State() != before {
				t.Errorf("held state changed: history %v", history(c.State()))
			}
			if tr.Reward != 0 {
				t.Errorf("Reward = %v, want 0", tr.Reward)
			}
			if tr.Done {
				t.Error("Done = true, want false")
			}
			if tr.Legal != 2 || tr.Illegal != 1 {
				t.Errorf("Legal, Illegal = %d, %d; want 2, 1", tr.Legal, tr.Illegal)
			}
		})
	}
}

func TestAllOrNothingLegalStep(t *testing.T) {
	c, _ := newTestController(t, &rules{}, AllOrNothing)
	tr, err := c.Apply(threeMoves())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if tr.Reward != 1 {
		t.Errorf("Reward = %v, want 1", tr.Reward)
	}
	if got := history(c.State()); !reflect.DeepEqual(got, threeMoves()) {
		t.Errorf("history = %v, want %v", got, threeMoves())
	}
	if tr.Observation[0] != 1 || tr.Observation[4] != 1 || tr.Observation[8] != 1 {
		t.Errorf("Observation = %v, want cells 0, 4, 8 set", tr.Observation)
	}
}

func TestBestEffortRewardAndPartialCommit(t *testing.T) {
	moves := threeMoves()
	c, _ := newTestController(t, &rules{illegal: map[codec.Move]bool{moves[1]: true}}, BestEffort)

	tr, err := c.Apply(moves)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if tr.Reward != 1 {
		t.Errorf("Reward = %v, want 1", tr.Reward)
	}
	want := []codec.Move{moves[0], moves[2]}
	if got := history(c.State()); !reflect.DeepEqual(got, want) {
		t.Errorf("history = %v, want %v", got, want)
	}
}

func TestFailFastAbortsOnFirstIllegal(t *testing.T) {
	moves := threeMoves()
	c, _ := newTestController(t, &rules{illegal: map[codec.Move]bool{moves[1]: true}}, FailFast)
	before := c.State()

	tr, err := c.Apply(moves)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !tr.Done || !tr.Aborted {
		t.Errorf("Done, Aborted = %v, %v; want true, true", tr.Done, tr.Aborted)
	}
	if tr.Reward != FailFastPenalty {
		t.Errorf("Reward = %v, want %v", tr.Reward, FailFastPenalty)
	}
	if tr.Legal != 1 || tr.Illegal != 1 {
		t.Errorf("Legal, Illegal = %d, %d; want 1, 1 (move 2 never attempted)", tr.Legal, tr.Illegal)
	}
	if c.State() != before {
		t.Error("held state changed after fail-fast abort")
	}
}

func TestFailFastLegalStep(t *testing.T) {
	c, _ := newTestController(t, &rules{}, FailFast)
	tr, err := c.Apply(threeMoves())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if tr.Done || tr.Reward != 1 {
		t.Errorf("Done, Reward = %v, %v; want false, 1", tr.Done, tr.Reward)
	}
}

func TestStepAfterGameOverResets(t *testing.T) {
	c, f := newTestController(t, &rules{gameOverAfter: 2}, AllOrNothing)

	tr, err := c.Apply(threeMoves())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !tr.Done {
		t.Fatal("Done = false after game over")
	}
	if got := len(history(c.State())); got != 2 {
		t.Errorf("placements = %d, want 2 (no move after game over)", got)
	}
	if !c.Ended() {
		t.Error("Ended() = false")
	}

	tr, err = c.Apply(threeMoves())
	if err != nil {
		t.Fatalf("Apply after end: %v", err)
	}
	if !tr.Restarted || tr.Done || tr.Reward != 0 {
		t.Errorf("Restarted, Done, Reward = %v, %v, %v; want true, false, 0", tr.Restarted, tr.Done, tr.Reward)
	}
	if got := len(history(c.State())); got != 0 {
		t.Errorf("action was applied after restart: %d placements", got)
	}
	if f.resets != 2 {
		t.Errorf("factory resets = %d, want 2", f.resets)
	}
	if got := c.Counters(); got != (Counters{}) {
		t.Errorf("Counters() = %+v, want zero", got)
	}
}

func TestEngineFaultPropagates(t *testing.T) {
	errFault := errors.New("engine exploded")
	moves := threeMoves()
	c, _ := newTestController(t, &rules{fault: map[codec.Move]error{moves[1]: errFault}}, BestEffort)
	before := c.State()

	_, err := c.Apply(moves)
	if !errors.Is(err, errFault) {
		t.Fatalf("Apply() error = %v, want %v", err, errFault)
	}
	if c.State() != before {
		t.Error("held state changed after engine fault")
	}
	if got := c.Counters(); got.Step != 0 {
		t.Errorf("Counters().Step = %d, want 0", got.Step)
	}
}

func TestCountersAccumulate(t *testing.T) {
	moves := threeMoves()
	c, _ := newTestController(t, &rules{illegal: map[codec.Move]bool{moves[0]: true}}, BestEffort)

	for i := 0; i < 2; i++ {
		if _, err := c.Apply(moves); err != nil {
			t.Fatalf("Apply %d: %v", i, err)
		}
	}
	want := Counters{Step: 2, Return: 2, LegalMoves: 4, IllegalMoves: 2}
	if got := c.Counters(); got != want {
		t.Errorf("Counters() = %+v, want %+v", got, want)
	}
}

func TestParsePolicy(t *testing.T) {
	for _, p := range []Policy{AllOrNothing, BestEffort, FailFast} {
		got, err := ParsePolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePolicy(%q) = %v, %v; want %v", p.String(), got, err, p)
		}
	}
	if _, err := ParsePolicy("yolo"); err == nil {
		t.Error("ParsePolicy(\"yolo\") error = nil, want error")
	}
}
