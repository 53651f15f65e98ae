package ocr

import (
	"context"
	"image"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

// retrying retries Recognize with exponential backoff. Terminate passes through.
type retrying struct {
	Engine
	retry retry.Retry[Result]
}

// WithRetry wraps e so each Recognize call is attempted up to attempts times.
// Attempts below two return e unchanged.
func WithRetry(e Engine, attempts int, initialDelay time.Duration) Engine {
	if attempts < 2 {
		return e
	}
	return &retrying{
		Engine: e,
		retry: retry.New[Result](retry.Config{
			MaxAttempts:   attempts,
			InitialDelay:  initialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    2.0,
		}),
	}
}

func (r *retrying) Recognize(ctx context.Context, img image.Image) (Result, error) {
	return r.retry.Do(ctx, func(ctx context.Context) (Result, error) {
		return r.Engine.Recognize(ctx, img)
	})
}
