package flexi

import "context"

// runIO executes fn on a background goroutine and waits for its result.
//
// A caller whose ctx ends stops waiting and gets ctx.Err(), but fn keeps
// running against a context that is never cancelled, so the storage call
// finishes or fails on its own terms and no partial state is left behind.
func runIO[R any](ctx context.Context, fn func(ctx context.Context) (R, error)) (R, error) {
	var zero R
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		value R
		err   error
	}
	done := make(chan result, 1)
	ioCtx := context.WithoutCancel(ctx)

	go func() {
		v, err := fn(ioCtx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
