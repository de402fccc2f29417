package ocr

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttled spaces calls to the wrapped extractor at least one delay apart.
// The first call goes through immediately.
type Throttled struct {
	inner   TextExtractor
	limiter *rate.Limiter
}

// Throttle wraps inner; a non-positive delay returns inner unchanged.
func Throttle(inner TextExtractor, delay time.Duration) TextExtractor {
	if delay <= 0 || inner == nil {
		return inner
	}
	return &Throttled{inner: inner, limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

func (t *Throttled) Extract(ctx context.Context, path string) (Result, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return Result{}, err
	}
	return t.inner.Extract(ctx, path)
}
