package soft

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/webgpunative/internal/native"
)

var errQueueDestroyed = errors.New("soft: queue destroyed")

// queue executes submitted work in order on a worker goroutine.
type queue struct {
	dev  *Device
	work chan func()
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

func newQueue(d *Device) *queue {
	q := &queue{
		dev:  d,
		work: make(chan func(), 16),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *queue) run() {
	defer close(q.done)
	for fn := range q.work {
		fn()
	}
}

func (q *queue) enqueue(fn func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errQueueDestroyed
	}
	q.work <- fn
	return nil
}

// Execute submits closed lists as one batch.
func (q *queue) Execute(lists []native.CommandList) error {
	batch := make([]*commandList, 0, len(lists))
	for i, l := range lists {
		cl, ok := l.(*commandList)
		if !ok || cl == nil {
			return fmt.Errorf("soft: command list %d: %w", i, errForeign)
		}
		if !cl.closed {
			return fmt.Errorf("soft: command list %d is not closed", i)
		}
		batch = append(batch, cl)
	}
	if err := q.dev.fault("Execute"); err != nil {
		return err
	}
	return q.enqueue(func() {
		for _, cl := range batch {
			cl.execute()
		}
	})
}

// Signal sets the fence once all earlier work has run.
func (q *queue) Signal(f native.Fence, value uint64) error {
	sf, ok := f.(*fence)
	if !ok || sf == nil {
		return errForeign
	}
	if err := q.dev.fault("Signal"); err != nil {
		return err
	}
	return q.enqueue(func() { sf.signal(value) })
}

// Destroy drains pending work and stops the worker.
func (q *queue) Destroy() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.work)
	q.mu.Unlock()
	<-q.done
}

type fence struct {
	mu    sync.Mutex
	cond  *sync.Cond
	value uint64
}

func newFence(initial uint64) *fence {
	f := &fence{value: initial}
	f.cond = sync.NewCond(&f.mu)
	return f
}

func (f *fence) signal(v uint64) {
	f.mu.Lock()
	if v > f.value {
		f.value = v
	}
	f.mu.Unlock()
	f.cond.Broadcast()
}

func (f *fence) Completed() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Wait blocks until the fence reaches v. There is no timeout.
func (f *fence) Wait(v uint64) error {
	f.mu.Lock()
	for f.value < v {
		f.cond.Wait()
	}
	f.mu.Unlock()
	return nil
}

func (f *fence) Destroy() {}
