package client

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStormGuard_TripOncePerEpisode(t *testing.T) {
	g := NewStormGuard(time.Millisecond)
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Trip() {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
	assert.True(t, g.Active())

	g.Recover()
	assert.False(t, g.Active())
	assert.True(t, g.Trip(), "a new episode starts after recovery")
}

func TestStormGuard_ScheduleRunsOnce(t *testing.T) {
	g := NewStormGuard(10 * time.Millisecond)
	var calls int32
	for i := 0; i < 3; i++ {
		g.Schedule(func() { atomic.AddInt32(&calls, 1) })
	}
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestStormGuard_ResetCancelsPendingRedirect(t *testing.T) {
	g := NewStormGuard(30 * time.Millisecond)
	var calls int32
	g.Trip()
	g.Schedule(func() { atomic.AddInt32(&calls, 1) })
	g.Reset()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.False(t, g.Active())
}

func TestStormGuard_FlushRunsPendingRedirectOnce(t *testing.T) {
	g := NewStormGuard(time.Hour)
	var calls int32
	g.Trip()
	g.Schedule(func() { atomic.AddInt32(&calls, 1) })

	g.Flush()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	g.Flush()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	g.Schedule(func() { atomic.AddInt32(&calls, 1) })
	g.Reset()
	g.Flush()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "reset cancels for good")
}
