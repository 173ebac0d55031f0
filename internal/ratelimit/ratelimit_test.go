package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWait_EnforcesGap(t *testing.T) {
	l := New(30*time.Millisecond, 30*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx))

	start := time.Now()
	require.NoError(t, l.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestWait_ContextCancelled(t *testing.T) {
	l := New(time.Second, time.Second)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx))
}

func TestNew_SwappedBounds(t *testing.T) {
	l := New(20*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, 20*time.Millisecond, l.delay())
}
