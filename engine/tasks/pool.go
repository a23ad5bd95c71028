package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var ErrNoWorkers = fmt.Errorf("attempting to create task pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create task pool with a negative channel size")

// Task is a unit of background work. The context is cancelled when the pool
// shuts down.
type Task func(ctx context.Context)

// TaskResult pairs the id returned by SpawnWithResult with the payload the
// task produced.
type TaskResult struct {
	ID      uuid.UUID
	Payload interface{}
}

// Pool runs tasks on a fixed number of worker goroutines. Tasks may run in
// parallel and in any order; there is no ordering guarantee between two
// independently spawned tasks. A panic inside a task is a bug in that task
// and is not recovered here.
type Pool struct {
	numWorkers int
	taskQueue  chan Task
	results    chan TaskResult
	wg         sync.WaitGroup
	cancel     context.CancelFunc
}

func NewPool(numWorkers int, channelSize int) (*Pool, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		numWorkers: numWorkers,
		taskQueue:  make(chan Task, channelSize),
		results:    make(chan TaskResult, channelSize+1),
		cancel:     cancel,
	}

	p.start(ctx)

	return p, nil
}

func (p *Pool) start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.taskQueue {
				task(ctx)
			}
		}()
	}
}

// Shutdown stops intake, waits for in-flight tasks and cancels the pool
// context. Spawning after Shutdown is a programming error.
func (p *Pool) Shutdown() error {
	close(p.taskQueue)
	p.wg.Wait()
	p.cancel()
	return nil
}

// Submit queues the task for execution, blocking while the queue is full.
func (p *Pool) Submit(task Task) {
	p.taskQueue <- task
}

// SpawnTask queues the task without ever blocking the caller.
func (p *Pool) SpawnTask(task Task) {
	go p.Submit(task)
}

// SpawnWithResult runs the task in the background and pushes its payload,
// tagged with the returned id, onto the internal result queue once it
// completes. Results are drained with NextTaskResult.
func (p *Pool) SpawnWithResult(task func(ctx context.Context) interface{}) uuid.UUID {
	id := uuid.New()
	p.SpawnTask(func(ctx context.Context) {
		p.results <- TaskResult{
			ID:      id,
			Payload: task(ctx),
		}
	})
	return id
}

// NextTaskResult pops at most one completed task result without blocking.
// Systems that ingest background work call this during their update tick.
func (p *Pool) NextTaskResult() (TaskResult, bool) {
	select {
	case res := <-p.results:
		return res, true
	default:
		return TaskResult{}, false
	}
}

func (p *Pool) NumWorkers() int {
	return p.numWorkers
}
