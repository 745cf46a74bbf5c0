package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastEngine(count *atomic.Uint64) *Engine {
	e := NewEngine()
	e.Interval = time.Millisecond
	e.OnTick = func() uint64 { return count.Add(1) }
	return e
}

func TestEngine_RunUntilCancelled(t *testing.T) {
	var count atomic.Uint64
	e := fastEngine(&count)
	var reports atomic.Uint64
	e.ReportEvery = 2
	e.OnReport = func(uint64) { reports.Add(1) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	require.Eventually(t, func() bool { return count.Load() >= 6 }, 2*time.Second, time.Millisecond)
	assert.True(t, e.Running())
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}
	assert.False(t, e.Running())
	assert.Positive(t, reports.Load())
	assert.Equal(t, count.Load(), e.Ticks())
}

func TestEngine_StopAndDoubleRun(t *testing.T) {
	var count atomic.Uint64
	e := fastEngine(&count)

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	require.Eventually(t, e.Running, time.Second, time.Millisecond)

	assert.ErrorIs(t, e.Run(context.Background()), ErrEngineRunning)

	e.Stop()
	e.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}
}

func TestEngine_PausedSkipsTicks(t *testing.T) {
	var count atomic.Uint64
	e := fastEngine(&count)
	var paused atomic.Bool
	paused.Store(true)
	e.Paused = paused.Load

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = e.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, count.Load())

	paused.Store(false)
	require.Eventually(t, func() bool { return count.Load() > 0 }, 2*time.Second, time.Millisecond)
}

func TestEngine_SpeedScalesPeriod(t *testing.T) {
	e := NewEngine()
	e.Interval = time.Second
	e.SetSpeed(4)
	assert.Equal(t, 250*time.Millisecond, e.period())
	e.SetSpeed(-1)
	assert.Zero(t, e.Speed())
	assert.Zero(t, e.period())
}
