package cleanup

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRegistry_RunExecutesAllActions(t *testing.T) {
	r := NewRegistry()

	var ran []string
	r.Register("a", func() error { ran = append(ran, "a"); return nil })
	r.Register("b", func() error { ran = append(ran, "b"); return nil })

	if err := r.Run(); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(ran) != 2 {
		t.Fatalf("expected 2 actions to run, got %d", len(ran))
	}
}

func TestRegistry_RunIsExactlyOnce(t *testing.T) {
	r := NewRegistry()

	var count atomic.Int32
	r.Register("counter", func() error { count.Add(1); return nil })

	if err := r.Run(); err != nil {
		t.Fatalf("first Run() failed: %v", err)
	}
	if err := r.Run(); err != nil {
		t.Fatalf("second Run() failed: %v", err)
	}
	if got := count.Load(); got != 1 {
		t.Errorf("action ran %d times, want 1", got)
	}
}

func TestRegistry_CollectsErrorsWithoutStopping(t *testing.T) {
	r := NewRegistry()

	errBoom := errors.New("boom")
	var secondRan bool
	r.Register("failing", func() error { return errBoom })
	r.Register("after", func() error { secondRan = true; return nil })

	err := r.Run()
	if !errors.Is(err, errBoom) {
		t.Errorf("Run() error %v does not wrap %v", err, errBoom)
	}
	if !secondRan {
		t.Error("action after a failing one did not run")
	}
}

func TestRegistry_ConcurrentRegistration(t *testing.T) {
	r := NewRegistry()

	const n = 64
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Register("ws", func() error { return nil })
		}()
	}
	wg.Wait()

	if got := r.Len(); got != n {
		t.Errorf("registered %d actions, want %d", got, n)
	}
	if err := r.Run(); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
}

func TestRegistry_LateRegistrationRunsImmediately(t *testing.T) {
	r := NewRegistry()
	if err := r.Run(); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	var ran bool
	r.Register("late", func() error { ran = true; return nil })
	if !ran {
		t.Error("action registered after drain did not run immediately")
	}
	if got := r.Len(); got != 0 {
		t.Errorf("drained registry holds %d pending actions, want 0", got)
	}
}

func TestRegistry_NilActionIgnored(t *testing.T) {
	r := NewRegistry()
	r.Register("nil", nil)
	if got := r.Len(); got != 0 {
		t.Errorf("nil action was registered, Len() = %d", got)
	}
}
