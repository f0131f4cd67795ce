package render

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Typesetter post-processes math in a rendered message once it is on screen.
type Typesetter interface {
	Typeset(ctx context.Context, html string) error
}

// NopTypesetter leaves math for the page to typeset.
type NopTypesetter struct{}

func (NopTypesetter) Typeset(context.Context, string) error { return nil }

// TypesetAsync runs t after delay on its own goroutine. Errors and panics
// are logged and never reach the caller.
func TypesetAsync(ctx context.Context, t Typesetter, html string, delay time.Duration) <-chan error {
	done := make(chan error, 1)
	if t == nil {
		done <- nil
		close(done)
		return done
	}

	go func() {
		defer close(done)
		var err error
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("typesetter panic: %v", rec)
			}
			if err != nil {
				log.Printf("[render] typeset failed: %v", err)
			}
			done <- err
		}()

		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				err = ctx.Err()
				return
			case <-timer.C:
			}
		}
		err = t.Typeset(ctx, html)
	}()
	return done
}
