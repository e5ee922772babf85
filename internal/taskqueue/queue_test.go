package taskqueue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := NewQueue("test")
	require.NoError(t, q.Start())
	defer q.Stop()

	var mu sync.Mutex
	var order []int

	for i := 0; i < 5; i++ {
		i := i
		task := New(func() struct{} {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return struct{}{}
		})
		require.NoError(t, q.Enqueue(task, false, 0))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 5
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestQueueEnqueueRejectsExcessiveDelay(t *testing.T) {
	q := NewQueue("test")
	require.NoError(t, q.Start())
	defer q.Stop()

	task := New(func() struct{} { return struct{}{} })
	err := q.Enqueue(task, false, 11*time.Second)
	assert.ErrorIs(t, err, ErrDelayTooLarge)
}

func TestQueueEnqueueAfterStopRejected(t *testing.T) {
	q := NewQueue("test")
	require.NoError(t, q.Start())
	q.Stop()

	task := New(func() struct{} { return struct{}{} })
	err := q.Enqueue(task, false, 0)
	assert.ErrorIs(t, err, ErrStopped)
}

func TestQueueCancelPendingViaEnqueueFlag(t *testing.T) {
	q := NewQueue("test")
	require.NoError(t, q.Start())
	defer q.Stop()

	ran := make(chan struct{}, 1)
	blocker := New(func() struct{} {
		<-ran // block the worker so the delayed task below stays pending
		return struct{}{}
	})
	require.NoError(t, q.Enqueue(blocker, false, 0))

	delayed := New(func() struct{} { return struct{}{} })
	require.NoError(t, q.Enqueue(delayed, false, 5*time.Second))

	next := New(func() struct{} { return struct{}{} })
	require.NoError(t, q.Enqueue(next, true, 0))

	ran <- struct{}{}

	assert.True(t, delayed.IsCanceled())
}

func TestPeriodicTaskReschedules(t *testing.T) {
	q := NewQueue("test")
	require.NoError(t, q.Start())
	defer q.Stop()

	var count int
	var mu sync.Mutex
	var task *Task[struct{}]
	task = NewPeriodic(func() struct{} {
		mu.Lock()
		count++
		mu.Unlock()
		return struct{}{}
	}, 1000) // 1ms
	require.NoError(t, q.Enqueue(task, false, 0))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count >= 3
	}, time.Second, time.Millisecond)
}
