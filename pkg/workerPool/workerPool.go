package workerpool

import (
	"errors"
	"runtime"
	"sync"
)

var ErrQueueFull = errors.New("global buffer is full, wait for some tasks to finish or increase the buffer size")

type WorkerPool struct {
	config    Config
	taskQueue chan Task
	workers   sync.WaitGroup
	closeOnce sync.Once
}

type Config struct {
	// WorkerCount defaults to runtime.NumCPU(); tasks are CPU bound.
	WorkerCount int
	// GlobalBuffer defaults to twice the worker count.
	GlobalBuffer int
}

// Room groups tasks so a caller can wait for exactly the tasks it submitted.
type Room struct {
	wg sync.WaitGroup
	wp *WorkerPool
}

type Task struct {
	run  func()
	room *Room
}

func NewWorkerPool(config Config) *WorkerPool {
	if config.WorkerCount < 1 {
		config.WorkerCount = runtime.NumCPU()
	}

	if config.GlobalBuffer < 1 {
		config.GlobalBuffer = config.WorkerCount * 2
	}

	wp := &WorkerPool{
		config:    config,
		taskQueue: make(chan Task, config.GlobalBuffer),
	}

	wp.workers.Add(config.WorkerCount)
	for i := 0; i < config.WorkerCount; i++ {
		go wp.Worker()
	}

	return wp
}

func (wp *WorkerPool) WorkerCount() int {
	return wp.config.WorkerCount
}

func (wp *WorkerPool) Worker() {
	defer wp.workers.Done()
	for t := range wp.taskQueue {
		t.run()
		t.room.wg.Done()
	}
}

// Close stops accepting tasks and waits until the workers drained the queue.
func (wp *WorkerPool) Close() {
	wp.closeOnce.Do(func() {
		close(wp.taskQueue)
	})
	wp.workers.Wait()
}

func (wp *WorkerPool) CreateRoom() *Room {
	return &Room{wp: wp}
}

// NewTaskWaitForFreeSlot blocks until the global queue has room for job.
func (ro *Room) NewTaskWaitForFreeSlot(job func()) {
	ro.wg.Add(1)
	ro.wp.taskQueue <- Task{run: job, room: ro}
}

// NewTask enqueues job or returns ErrQueueFull without blocking.
func (ro *Room) NewTask(job func()) error {
	ro.wg.Add(1)
	select {
	case ro.wp.taskQueue <- Task{run: job, room: ro}:
		return nil
	default:
		ro.wg.Done()
		return ErrQueueFull
	}
}

// Wait blocks until every task submitted to the room has run.
func (ro *Room) Wait() {
	ro.wg.Wait()
}
