package flexi

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunIO(t *testing.T) {
	t.Run("returns the result", func(t *testing.T) {
		got, err := runIO(context.Background(), func(context.Context) (int, error) { return 7, nil })
		if err != nil || got != 7 {
			t.Errorf("runIO() = %d, %v; want 7, nil", got, err)
		}
	})

	t.Run("returns the error", func(t *testing.T) {
		boom := errors.New("boom")
		if _, err := runIO(context.Background(), func(context.Context) (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Errorf("runIO() error = %v, want %v", err, boom)
		}
	})

	t.Run("does not start work for a cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		_, err := runIO(ctx, func(context.Context) (int, error) { called = true; return 0, nil })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("runIO() error = %v, want context.Canceled", err)
		}
		if called {
			t.Error("fn ran for an already-cancelled context")
		}
	})

	t.Run("cancelled caller stops waiting while work completes", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		started := make(chan struct{})
		release := make(chan struct{})
		finished := make(chan error, 1)

		go func() {
			<-started
			cancel()
		}()

		_, err := runIO(ctx, func(ioCtx context.Context) (int, error) {
			close(started)
			<-release
			finished <- ioCtx.Err()
			return 1, nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("runIO() error = %v, want context.Canceled", err)
		}

		close(release)
		select {
		case ioErr := <-finished:
			if ioErr != nil {
				t.Errorf("work context error = %v, want nil", ioErr)
			}
		case <-time.After(time.Second):
			t.Fatal("work did not finish after release")
		}
	})
}
