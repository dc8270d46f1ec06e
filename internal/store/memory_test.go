package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/woodoku-env/internal/env"
	"github.com/robalobadob/woodoku-env/internal/woodoku"
)

func newAdapter(t *testing.T) *env.Adapter {
	t.Helper()
	cat, err := woodoku.DefaultCatalogue()
	if err != nil {
		t.Fatalf("DefaultCatalogue: %v", err)
	}
	a, err := env.New(woodoku.NewEngine(cat, 1))
	if err != nil {
		t.Fatalf("env.New: %v", err)
	}
	return a
}

func TestSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s := NewSession(newAdapter(t), "")

	if _, err := st.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get before Save error = %v, want ErrNotFound", err)
	}
	if err := st.Save(ctx, s); err != nil {
		t.Fatal(err)
	}
	got, err := st.Get(ctx, s.ID)
	if err != nil || got != s {
		t.Fatalf("Get() = %p, %v; want %p", got, err, s)
	}
	if err := st.Delete(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrNotFound", err)
	}
}

func TestSessionIDsUnique(t *testing.T) {
	a := newAdapter(t)
	if NewSession(a, "").ID == NewSession(a, "").ID {
		t.Error("two sessions share an ID")
	}
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	idle := NewSession(newAdapter(t), "")
	idle.lastUsed = time.Now().Add(-2 * time.Hour)
	busy := NewSession(newAdapter(t), "")
	_ = st.Save(ctx, idle)
	_ = st.Save(ctx, busy)

	if n := st.Sweep(ctx, time.Now().Add(-time.Hour)); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
	if _, err := st.Get(ctx, idle.ID); !errors.Is(err, ErrNotFound) {
		t.Error("idle session survived Sweep")
	}
	if _, err := st.Get(ctx, busy.ID); err != nil {
		t.Error("active session was swept")
	}
}

func TestDoSerialises(t *testing.T) {
	s := NewSession(newAdapter(t), "")
	var wg sync.WaitGroup
	var inside, maxInside int
	var mu sync.Mutex
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(func(a *env.Adapter) error {
				mu.Lock()
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				mu.Unlock()
				a.Reset()
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Errorf("max concurrent Do bodies = %d, want 1", maxInside)
	}
}
