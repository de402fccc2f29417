package ocr

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingExtractor struct {
	calls []time.Time
}

func (c *countingExtractor) Extract(ctx context.Context, path string) (Result, error) {
	c.calls = append(c.calls, time.Now())
	return Result{Text: path}, nil
}

func TestThrottleSpacesCalls(t *testing.T) {
	inner := &countingExtractor{}
	ex := Throttle(inner, 60*time.Millisecond)

	for _, p := range []string{"a", "b", "c"} {
		res, err := ex.Extract(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, p, res.Text)
	}

	require.Len(t, inner.calls, 3)
	for i := 1; i < len(inner.calls); i++ {
		assert.GreaterOrEqual(t, inner.calls[i].Sub(inner.calls[i-1]), 50*time.Millisecond)
	}
}

func TestThrottleDisabledAndCancelled(t *testing.T) {
	inner := &countingExtractor{}
	assert.Same(t, inner, Throttle(inner, 0).(*countingExtractor))

	ex := Throttle(inner, time.Hour)
	_, err := ex.Extract(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ex.Extract(ctx, "second")
	require.Error(t, err)
	assert.Len(t, inner.calls, 1)
}
