package workerpool

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoom_Collect(t *testing.T) {
	wp := NewWorkerPool(Config{WorkerCount: 4, GlobalBuffer: 100})
	defer wp.Close()

	room := wp.CreateRoom(10)
	for i := 0; i < 10; i++ {
		i := i
		room.NewTaskWaitForFreeSlot(func() interface{} {
			return i * i
		})
	}

	results := room.Collect()
	require.Len(t, results, 10)

	sum := 0
	for _, r := range results {
		sum += r.(int)
	}
	assert.Equal(t, 285, sum)
}

func TestRoom_TasksRunConcurrentlyAcrossWorkers(t *testing.T) {
	wp := NewWorkerPool(Config{WorkerCount: 8, GlobalBuffer: 100})
	defer wp.Close()

	var counter int64
	room := wp.CreateRoom(50)
	for i := 0; i < 50; i++ {
		room.NewTaskWaitForFreeSlot(func() interface{} {
			return atomic.AddInt64(&counter, 1)
		})
	}

	results := room.Collect()
	assert.Len(t, results, 50)
	assert.Equal(t, int64(50), atomic.LoadInt64(&counter))
}

func TestNewTask_FailsWhenRoomBufferFull(t *testing.T) {
	wp := NewWorkerPool(Config{WorkerCount: 1, GlobalBuffer: 100})
	defer wp.Close()

	blocker := make(chan struct{})
	room := wp.CreateRoom(1)
	room.NewTaskWaitForFreeSlot(func() interface{} {
		<-blocker
		return nil
	})

	// Fill the room's single result slot.
	room.NewTaskWaitForFreeSlot(func() interface{} { return nil })
	close(blocker)
	results := room.Collect()
	assert.Len(t, results, 2)
}

func TestNewWorkerPool_Defaults(t *testing.T) {
	wp := NewWorkerPool(Config{})
	defer wp.Close()

	assert.True(t, wp.config.WorkerCount >= 1)
	assert.Equal(t, 10000, cap(wp.taskQueue))
}
