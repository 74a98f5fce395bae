package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	"golang.org/x/sync/errgroup"
)

// Pool errors.
var (
	ErrQueueFull   = errors.New("generation queue is full")
	ErrPoolStopped = errors.New("generation pool is stopped")
)

// Task is a unit of background work.
type Task func()

// Pool runs tasks on a fixed number of workers fed from a bounded queue.
// Submit is the only hand-off point between a caller and the workers.
type Pool struct {
	tasks   chan Task
	group   *errgroup.Group
	cancel  context.CancelFunc
	stopped bool
	logger  general_i.Logger
	sync.RWMutex
}

// NewPool starts workers goroutines draining a queue of queueSize tasks.
func NewPool(ctx context.Context, workers, queueSize int, logger general_i.Logger) *Pool {
	workers = max(workers, 1)
	queueSize = max(queueSize, 0)

	ctx, cancel := context.WithCancel(ctx)
	group, ctx := errgroup.WithContext(ctx)
	p := &Pool{
		tasks:  make(chan Task, queueSize),
		group:  group,
		cancel: cancel,
		logger: logger,
	}

	for range workers {
		group.Go(func() error {
			return p.work(ctx)
		})
	}
	return p
}

// Submit queues t without blocking.
func (p *Pool) Submit(t Task) error {
	p.RLock()
	defer p.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.tasks <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop refuses new tasks, lets queued ones finish and waits for the workers.
func (p *Pool) Stop() error {
	p.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.tasks)
	}
	p.Unlock()

	err := p.group.Wait()
	p.cancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (p *Pool) work(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t, ok := <-p.tasks:
			if !ok {
				return nil
			}
			p.run(t)
		}
	}
}

func (p *Pool) run(t Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(fmt.Sprintf("generation task panicked: %v", r))
		}
	}()
	t()
}
