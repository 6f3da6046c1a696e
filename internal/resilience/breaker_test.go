package resilience

import (
	"errors"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream unavailable")

func fail(b *Breaker) error    { return b.Execute(func() error { return errUpstream }) }
func succeed(b *Breaker) error { return b.Execute(func() error { return nil }) }

func TestExecuteRunsWhileClosed(t *testing.T) {
	b := NewBreaker(3, time.Second)

	ran := false
	err := b.Execute(func() error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !ran {
		t.Fatal("call was not executed")
	}
}

func TestConsecutiveFailuresOpenTheCircuit(t *testing.T) {
	b := NewBreaker(3, time.Second)

	for i := 0; i < 3; i++ {
		if err := fail(b); !errors.Is(err, errUpstream) {
			t.Fatalf("call %d: err = %v, want upstream error passed through", i, err)
		}
	}

	if err := succeed(b); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want open circuit after threshold", err)
	}
}

func TestHalfOpenProbeClosesOnSuccess(t *testing.T) {
	now := time.Now()
	b := NewBreaker(2, time.Second)
	b.now = func() time.Time { return now }

	fail(b)
	fail(b)
	if err := succeed(b); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want rejection before the timeout", err)
	}

	now = now.Add(2 * time.Second)

	if err := succeed(b); err != nil {
		t.Fatalf("half-open probe: %v", err)
	}
	// The probe's success closes the circuit; the next failure starts a
	// fresh count instead of reopening immediately.
	if err := fail(b); !errors.Is(err, errUpstream) {
		t.Fatalf("err = %v, want upstream error through a closed circuit", err)
	}
}

func TestHalfOpenProbeFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker(2, time.Second)
	b.now = func() time.Time { return now }

	fail(b)
	fail(b)
	now = now.Add(2 * time.Second)

	if err := fail(b); !errors.Is(err, errUpstream) {
		t.Fatalf("probe err = %v", err)
	}
	if err := succeed(b); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want open circuit after a failed probe", err)
	}
}

func TestSuccessResetsTheFailureCount(t *testing.T) {
	b := NewBreaker(3, time.Second)

	fail(b)
	fail(b)
	succeed(b)
	fail(b)
	fail(b)

	if err := succeed(b); err != nil {
		t.Fatalf("err = %v, want closed circuit: the success wiped the earlier failures", err)
	}
}
