// Package worker provides the single-consumer command queue that backs
// every gateway component (serial, xbee, tcp, router): one owned goroutine
// draining a buffered channel of closures in FIFO order.
package worker

import (
	"sync"

	"go.uber.org/zap"
)

// Command is a self-contained unit of work submitted to a Queue. It runs to
// completion on the queue's own goroutine; it never runs concurrently with
// any other command on the same queue.
type Command func()

const defaultCapacity = 64

// Queue is a single-consumer FIFO command dispatcher. The zero value is not
// usable; construct with New.
type Queue struct {
	log      *zap.SugaredLogger
	commands chan Command
	stopCh   chan struct{}
	done     chan struct{}

	mu      sync.Mutex
	running bool
}

// New creates a Queue that logs panics recovered from commands under log.
func New(log *zap.SugaredLogger) *Queue {
	return &Queue{log: log}
}

// Start spawns the worker goroutine. Calling Start while already running is
// a no-op; a Queue may be restarted after Stop.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.commands = make(chan Command, defaultCapacity)
	q.stopCh = make(chan struct{})
	q.done = make(chan struct{})
	q.running = true
	go q.loop(q.commands, q.stopCh, q.done)
}

// Stop signals shutdown, waits for the worker goroutine to exit, and leaves
// commands still queued unexecuted. Commands already in flight run to
// completion. Shutdown is signaled on a dedicated channel rather than by
// closing commands — Process never sends on a channel Stop might have
// closed out from under it, so Process can never panic no matter how it
// races with Stop.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	stopCh := q.stopCh
	done := q.done
	q.mu.Unlock()

	close(stopCh)
	<-done
}

// Process enqueues cmd for execution on the worker goroutine. It returns
// immediately and is safe to call from any goroutine. Once Stop has begun,
// Process silently drops the command.
func (q *Queue) Process(cmd Command) {
	q.mu.Lock()
	running := q.running
	commands := q.commands
	stopCh := q.stopCh
	q.mu.Unlock()
	if !running {
		return
	}
	select {
	case commands <- cmd:
	case <-stopCh:
		// Stop began between our running check and this send; drop.
	default:
		// Queue is momentarily full; never block the submitter on a slow
		// worker.
		q.log.Warnw("command queue full, dropping command")
	}
}

func (q *Queue) loop(commands chan Command, stopCh, done chan struct{}) {
	defer close(done)
	for {
		// Give stopCh priority so a command queued just before Stop began
		// is not executed after it: the spec requires commands to stop
		// running once Stop has been called, not merely once the queue
		// empties.
		select {
		case <-stopCh:
			return
		default:
		}
		select {
		case <-stopCh:
			return
		case cmd := <-commands:
			q.runOne(cmd)
		}
	}
}

func (q *Queue) runOne(cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Errorw("command panicked", "panic", r)
		}
	}()
	cmd()
}
