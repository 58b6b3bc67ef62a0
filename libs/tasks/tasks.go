package tasks

import (
	"sync"
	"sync/atomic"

	"github.com/tendermint/tendermint/libs/log"
)

// Tasks tracks the background goroutines a node spawns so shutdown can block
// until every one of them has returned. Spawning and waiting may happen from
// different goroutines.
type Tasks struct {
	wg      sync.WaitGroup
	running int32

	mtx    sync.Mutex
	logger log.Logger
}

func NewTasks() *Tasks {
	return &Tasks{
		logger: log.NewNopLogger(),
	}
}

func (ts *Tasks) SetLogger(logger log.Logger) {
	ts.mtx.Lock()
	ts.logger = logger
	ts.mtx.Unlock()
}

// Spawn runs fn on its own goroutine and registers it with the drain set.
func (ts *Tasks) Spawn(name string, fn func()) {
	ts.wg.Add(1)
	atomic.AddInt32(&ts.running, 1)

	ts.mtx.Lock()
	logger := ts.logger
	ts.mtx.Unlock()
	logger.Debug("spawned task", "name", name)

	go func() {
		defer func() {
			atomic.AddInt32(&ts.running, -1)
			logger.Debug("task finished", "name", name)
			ts.wg.Done()
		}()
		fn()
	}()
}

// Wait blocks until every spawned task has finished.
func (ts *Tasks) Wait() {
	ts.wg.Wait()
}

// Running returns the number of tasks that have not finished yet.
func (ts *Tasks) Running() int {
	return int(atomic.LoadInt32(&ts.running))
}
