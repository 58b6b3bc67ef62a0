package tasks

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTasksWaitDrainsAll(t *testing.T) {
	ts := NewTasks()

	const n = 8
	var finished int32
	release := make(chan struct{})

	for i := 0; i < n; i++ {
		ts.Spawn("worker", func() {
			<-release
			atomic.AddInt32(&finished, 1)
		})
	}
	assert.Equal(t, n, ts.Running())

	done := make(chan struct{})
	go func() {
		ts.Wait()
		close(done)
	}()

	// Wait must not return while tasks are still running
	select {
	case <-done:
		t.Fatal("Wait returned before tasks finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after tasks finished")
	}
	assert.EqualValues(t, n, atomic.LoadInt32(&finished))
	assert.Equal(t, 0, ts.Running())
}

func TestTasksWaitEmpty(t *testing.T) {
	ts := NewTasks()
	// no tasks spawned; Wait returns immediately
	ts.Wait()
}
