package worker

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hirelab/crucible/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_ConcurrencyCeiling(t *testing.T) {
	pool := NewPool(2, 10)
	pool.Start()
	defer pool.Stop()

	var running, peak int32
	var wg sync.WaitGroup

	total := 6
	wg.Add(total)

	for i := 0; i < total; i++ {
		err := pool.Submit(Task{
			JobID: "job",
			Run: func() {
				defer wg.Done()
				current := atomic.AddInt32(&running, 1)
				for {
					max := atomic.LoadInt32(&peak)
					if current <= max || atomic.CompareAndSwapInt32(&peak, max, current) {
						break
					}
				}
				time.Sleep(50 * time.Millisecond)
				atomic.AddInt32(&running, -1)
			},
		})
		require.NoError(t, err)
	}

	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2), "must not exceed worker count")
	assert.Greater(t, atomic.LoadInt32(&peak), int32(0))
}

func TestPool_SubmitFullQueue(t *testing.T) {
	pool := NewPool(1, 1)
	pool.Start()
	defer pool.Stop()

	release := make(chan struct{})
	started := make(chan struct{})

	// Occupy the single worker.
	require.NoError(t, pool.Submit(Task{JobID: "blocker", Run: func() {
		close(started)
		<-release
	}}))
	<-started

	// Fill the queue slot.
	require.NoError(t, pool.Submit(Task{JobID: "queued", Run: func() {}}))

	// The next submission must be rejected, not block.
	err := pool.Submit(Task{JobID: "rejected", Run: func() {}})
	assert.True(t, errors.Is(err, model.ErrQueueFull))

	close(release)
}

func TestPool_StopDrainsQueuedTasks(t *testing.T) {
	pool := NewPool(1, 5)
	pool.Start()

	var done int32
	for i := 0; i < 3; i++ {
		require.NoError(t, pool.Submit(Task{JobID: "job", Run: func() {
			atomic.AddInt32(&done, 1)
		}}))
	}

	pool.Stop()

	assert.Equal(t, int32(3), atomic.LoadInt32(&done))

	// Submissions after Stop are rejected.
	err := pool.Submit(Task{JobID: "late", Run: func() {}})
	assert.True(t, errors.Is(err, model.ErrQueueFull))
}
