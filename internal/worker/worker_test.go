package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func TestPool(t *testing.T) {
	p := NewPool(3)
	var mu sync.Mutex
	count := 0
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Submit(ctx, func() {
			mu.Lock()
			count++
			mu.Unlock()
		}))
	}
	p.Stop()
	require.Equal(t, 5, count)
}

func TestPoolDefaultsToOneWorker(t *testing.T) {
	p := NewPool(0)
	done := false
	require.NoError(t, p.Submit(ctx, func() { done = true }))
	p.Stop()
	require.True(t, done)
}

func TestPoolSurvivesPanics(t *testing.T) {
	p := NewPool(1)
	ran := false
	require.NoError(t, p.Submit(ctx, func() { panic("boom") }))
	require.NoError(t, p.Submit(ctx, nil))
	require.NoError(t, p.Submit(ctx, func() { ran = true }))
	p.Stop()
	require.True(t, ran)
}

func TestSubmitAfterStop(t *testing.T) {
	p := NewPool(2)
	p.Stop()
	p.Stop()
	require.ErrorIs(t, p.Submit(ctx, func() {}), ErrStopped)
}

func TestSubmitGivesUpWhenContextEnds(t *testing.T) {
	p := NewPool(1)
	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(ctx, func() {
		close(started)
		<-release
	}))
	<-started
	// worker 忙碌中，佇列容量 1
	require.NoError(t, p.Submit(ctx, func() {}))

	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, p.Submit(timeout, func() {}), context.DeadlineExceeded)

	close(release)
	p.Stop()
}
