package shutdownqueue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestAddNilTaskIsNoop(t *testing.T) {
	t.Parallel()

	q := New()
	q.Add("nil", nil)

	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got %d tasks", q.Len())
	}

	err := q.Shutdown(t.Context())
	if err != nil {
		t.Fatalf("expected nil after adding nil task; got %v", err)
	}
}

func TestLIFOOrder(t *testing.T) {
	t.Parallel()

	q := New()

	var (
		orderMu sync.Mutex
		order   []string
	)

	makeTask := func(name string) Task {
		return func(ctx context.Context) error {
			orderMu.Lock()
			order = append(order, name)
			orderMu.Unlock()

			return nil
		}
	}

	q.Add("db", makeTask("db"))
	q.Add("server", makeTask("server"))
	q.Add("flush", makeTask("flush"))

	err := q.Shutdown(t.Context())
	if err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}

	want := []string{"flush", "server", "db"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Fatalf("order mismatch: got %v, want %v", order, want)
	}
}

func TestPanicRecoveryNamesTaskAndContinues(t *testing.T) {
	t.Parallel()

	q := New()

	var ranAfterPanic atomic.Bool

	q.Add("after", func(ctx context.Context) error {
		ranAfterPanic.Store(true)

		return nil
	})
	q.Add("exploding", func(ctx context.Context) error {
		panic("boom")
	})

	shErr := q.Shutdown(t.Context())
	if shErr == nil {
		t.Fatalf("expected aggregated error with panic; got nil")
	}

	if !strings.Contains(shErr.Error(), `panic in shutdown task "exploding": boom`) {
		t.Fatalf("expected panic message in error; got: %q", shErr.Error())
	}

	if !ranAfterPanic.Load() {
		t.Fatalf("expected tasks after the panic to still run")
	}
}

func TestEarlyCancelStopsDrain(t *testing.T) {
	t.Parallel()

	q := New()

	errA := errors.New("taskA")

	var ranB atomic.Bool

	gateReady := make(chan struct{})

	q.Add("a", func(ctx context.Context) error { return errA })
	q.Add("b", func(ctx context.Context) error {
		ranB.Store(true)

		return nil
	})
	q.Add("gate", func(ctx context.Context) error {
		close(gateReady)
		<-ctx.Done()

		return nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)

	go func() {
		errCh <- q.Shutdown(ctx)
	}()

	<-gateReady
	cancel()

	shErr := <-errCh
	if !errors.Is(shErr, context.Canceled) {
		t.Fatalf("expected errors.Is(err, context.Canceled); got: %v", shErr)
	}

	if ranB.Load() {
		t.Fatalf("expected task b not to run after cancel")
	}

	if errors.Is(shErr, errA) {
		t.Fatalf("did not expect joined error to include taskA")
	}
}

func TestShutdownRunsOnce(t *testing.T) {
	t.Parallel()

	q := New()

	var count atomic.Int32

	q.Add("count", func(ctx context.Context) error {
		count.Add(1)

		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 2; i++ {
		err := q.Shutdown(ctx)
		if err != nil {
			t.Fatalf("Shutdown #%d error: %v", i+1, err)
		}
	}

	if got := count.Load(); got != 1 {
		t.Fatalf("expected count=1; got %d", got)
	}

	q.Add("late", func(ctx context.Context) error { return nil })

	if q.Len() != 0 {
		t.Fatalf("task added after shutdown should be dropped")
	}
}

func TestTaskErrorsAreJoinedAndWrapped(t *testing.T) {
	t.Parallel()

	q := New()

	err1 := errors.New("alpha")
	err2 := errors.New("beta")

	q.Add("first", func(ctx context.Context) error { return err1 })
	q.Add("second", func(ctx context.Context) error { return err2 })

	shErr := q.Shutdown(t.Context())
	if !errors.Is(shErr, err1) || !errors.Is(shErr, err2) {
		t.Fatalf("expected joined error to contain both; got: %v", shErr)
	}

	s := shErr.Error()
	if !strings.Contains(s, "shutdown first: alpha") || !strings.Contains(s, "shutdown second: beta") {
		t.Fatalf("expected task names in error; got: %q", s)
	}
}
