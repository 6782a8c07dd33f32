// Package workerpool runs small independent jobs on a fixed set of
// workers. Jobs are grouped into rooms; a room collects the results of
// the jobs submitted through it and can be waited on as a unit. The
// whole-library content loader uses a room per bulk load.
package workerpool

import (
	"fmt"
	"runtime"
	"sync"
)

type WorkerPool struct {
	config    Config
	taskQueue chan task
}

type Config struct {
	WorkerCount  int
	GlobalBuffer int
}

type task struct {
	run  func() interface{}
	room *Room
}

// Room collects the results of one batch of tasks.
type Room struct {
	resultChan chan interface{}
	wg         sync.WaitGroup
	wp         *WorkerPool
	closeOnce  sync.Once
}

func NewWorkerPool(config Config) *WorkerPool {
	if config.WorkerCount < 1 {
		config.WorkerCount = runtime.NumCPU() * 3
	}
	if config.GlobalBuffer < 1 {
		config.GlobalBuffer = 10000
	}

	wp := &WorkerPool{
		config:    config,
		taskQueue: make(chan task, config.GlobalBuffer),
	}

	for i := 0; i < config.WorkerCount; i++ {
		go wp.worker()
	}

	return wp
}

func (wp *WorkerPool) worker() {
	for t := range wp.taskQueue {
		t.room.resultChan <- t.run()
		t.room.wg.Done()
	}
}

// CreateRoom returns a room buffered for size results.
func (wp *WorkerPool) CreateRoom(size int) *Room {
	return &Room{
		resultChan: make(chan interface{}, size),
		wp:         wp,
	}
}

// NewTaskWaitForFreeSlot enqueues a job, blocking while the global queue
// is full.
func (ro *Room) NewTaskWaitForFreeSlot(job func() interface{}) {
	ro.wg.Add(1)
	ro.wp.taskQueue <- task{run: job, room: ro}
}

// NewTask enqueues a job, failing instead of blocking when either buffer
// is full.
func (ro *Room) NewTask(job func() interface{}) error {
	if len(ro.wp.taskQueue) == cap(ro.wp.taskQueue) {
		return fmt.Errorf("global task buffer is full")
	}
	if len(ro.resultChan) == cap(ro.resultChan) {
		return fmt.Errorf("room result buffer is full")
	}

	ro.NewTaskWaitForFreeSlot(job)
	return nil
}

// Collect waits for every task submitted so far and returns their
// results in completion order.
func (ro *Room) Collect() []interface{} {
	go ro.waitAndClose()

	results := make([]interface{}, 0)
	for result := range ro.resultChan {
		results = append(results, result)
	}
	return results
}

func (ro *Room) waitAndClose() {
	ro.wg.Wait()
	ro.closeOnce.Do(func() { close(ro.resultChan) })
}

// Close stops the pool's workers once queued tasks have drained.
func (wp *WorkerPool) Close() {
	close(wp.taskQueue)
}
