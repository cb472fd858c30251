package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
)

// WithTimeout runs fn under a context cancelled after timeout. A
// non-positive timeout runs fn directly. When the budget runs out the error
// matches both apperrors.ErrTimeout and context.DeadlineExceeded; fn is
// expected to observe its context and return promptly.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(timeoutCtx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s: parent context cancelled: %w", name, ctx.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) || timeoutCtx.Err() != nil {
		return fmt.Errorf("%s: %w (limit: %v): %w", name, apperrors.ErrTimeout, timeout, context.DeadlineExceeded)
	}
	return err
}
