package search

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"catalog/internal/rbac/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// verifyNoLeaks runs after every later cleanup, including Queue.Close.
func verifyNoLeaks(t *testing.T) {
	t.Helper()
	ignore := goleak.IgnoreCurrent()
	t.Cleanup(func() { goleak.VerifyNone(t, ignore) })
}

func newTestQueue(t *testing.T, target Target, retry time.Duration) *Queue {
	t.Helper()
	q := NewQueue(target, QueueConfig{
		RetryInterval: retry,
		ProbeTimeout:  time.Second,
		Metrics:       NewMetrics(prometheus.NewRegistry()),
	})
	t.Cleanup(q.Close)
	return q
}

func indexOf(items []string, want string) int {
	for i, it := range items {
		if it == want {
			return i
		}
	}
	return -1
}

func TestQueueAppliesInOrderPerRecord(t *testing.T) {
	verifyNoLeaks(t)

	target := &fakeTarget{}
	q := newTestQueue(t, target, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				q.Enqueue(model.SyncOpUpdate, model.SearchableType, fmt.Sprintf("other-%d-%d", i, j))
			}
		}(i)
	}
	q.Enqueue(model.SyncOpCreate, model.SearchableType, "p1")
	q.Enqueue(model.SyncOpUpdate, model.SearchableType, "p1-v2")
	q.Enqueue(model.SyncOpDelete, model.SearchableType, "p1")
	wg.Wait()

	require.Eventually(t, func() bool { return len(target.snapshot()) == 53 }, 2*time.Second, 5*time.Millisecond)

	applied := target.snapshot()
	create := indexOf(applied, "upsert:p1")
	update := indexOf(applied, "upsert:p1-v2")
	del := indexOf(applied, "delete:p1")
	assert.True(t, create < update && update < del, "got %v", applied)
	assert.Equal(t, 0, q.Len())
}

func TestQueueDrainsOneEntryAtATime(t *testing.T) {
	verifyNoLeaks(t)

	target := &fakeTarget{delay: time.Millisecond}
	q := newTestQueue(t, target, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q.Enqueue(model.SyncOpCreate, model.SearchableType, i)
			q.Drain()
		}(i)
	}
	wg.Wait()

	require.Eventually(t, func() bool { return len(target.snapshot()) == 20 }, 2*time.Second, 5*time.Millisecond)
	target.mu.Lock()
	defer target.mu.Unlock()
	assert.Equal(t, 1, target.maxInFlight)
}

func TestQueueSkipsCycleWhileBackendDown(t *testing.T) {
	verifyNoLeaks(t)

	target := &fakeTarget{down: true}
	q := newTestQueue(t, target, 20*time.Millisecond)

	q.Enqueue(model.SyncOpCreate, model.SearchableType, "p1")
	q.Enqueue(model.SyncOpDelete, model.SearchableType, "p1")

	require.Eventually(t, func() bool {
		target.mu.Lock()
		defer target.mu.Unlock()
		return target.pings >= 2
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, target.snapshot())
	assert.Equal(t, 2, q.Len())

	status := q.Status(context.Background())
	assert.False(t, status.BackendAvailable)
	assert.Equal(t, 2, status.QueueLength)

	target.setDown(false)
	require.Eventually(t, func() bool { return len(target.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"upsert:p1", "delete:p1"}, target.snapshot())
	assert.True(t, q.Status(context.Background()).BackendAvailable)
}

func TestQueueRequeuesAtHeadOnBackendFailure(t *testing.T) {
	verifyNoLeaks(t)

	target := &fakeTarget{failUpserts: 2}
	q := newTestQueue(t, target, 10*time.Millisecond)

	q.Enqueue(model.SyncOpCreate, model.SearchableType, "a")
	q.Enqueue(model.SyncOpCreate, model.SearchableType, "b")

	require.Eventually(t, func() bool { return len(target.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"upsert:a", "upsert:b"}, target.snapshot())
}

func TestQueueDropsEntriesThatCanNeverApply(t *testing.T) {
	verifyNoLeaks(t)

	target := &fakeTarget{}
	q := newTestQueue(t, target, time.Hour)

	q.Enqueue(model.SyncOpCreate, model.SearchableType, nil)
	q.Enqueue("rename", model.SearchableType, "x")
	q.Enqueue(model.SyncOpCreate, model.SearchableType, "ok")

	require.Eventually(t, func() bool { return len(target.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"upsert:ok"}, target.snapshot())
	require.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestQueueReset(t *testing.T) {
	verifyNoLeaks(t)

	target := &fakeTarget{down: true}
	q := newTestQueue(t, target, time.Hour)

	q.Enqueue(model.SyncOpCreate, model.SearchableType, "p1")
	require.Eventually(t, func() bool {
		target.mu.Lock()
		defer target.mu.Unlock()
		return target.pings >= 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, q.Reset())
	assert.Equal(t, 0, q.Len())
	target.mu.Lock()
	assert.Equal(t, 1, target.reconnects)
	target.mu.Unlock()

	q.mu.Lock()
	assert.Nil(t, q.retry)
	q.mu.Unlock()
}

func TestQueueStaleRetryKeepsItsSuccessor(t *testing.T) {
	verifyNoLeaks(t)

	q := newTestQueue(t, &fakeTarget{}, time.Millisecond)

	q.mu.Lock()
	q.armRetryLocked()
	// the first timer fires and waits on the lock while its successor is armed
	time.Sleep(20 * time.Millisecond)
	q.retryInterval = time.Hour
	q.armRetryLocked()
	successor := q.retry
	q.mu.Unlock()

	time.Sleep(20 * time.Millisecond)

	q.mu.Lock()
	assert.Same(t, successor, q.retry)
	q.mu.Unlock()

	require.NoError(t, q.Reset())
	q.mu.Lock()
	assert.Nil(t, q.retry)
	q.mu.Unlock()
}

func TestQueueCloseStopsBackgroundWork(t *testing.T) {
	verifyNoLeaks(t)

	target := &fakeTarget{down: true}
	q := NewQueue(target, QueueConfig{RetryInterval: 5 * time.Millisecond})
	q.Enqueue(model.SyncOpCreate, model.SearchableType, "p1")
	time.Sleep(20 * time.Millisecond)

	q.Close()
	q.Close()

	q.Enqueue(model.SyncOpCreate, model.SearchableType, "late")
	assert.Equal(t, 1, q.Len())
}
