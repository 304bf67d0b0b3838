package queue

import (
	"context"
	"errors"
	"sync"
)

// DefaultCapacity is the capacity used by the console for both queues.
const DefaultCapacity = 512

// QuitTopic is the topic of the reserved stop entry.
const QuitTopic = "quit"

// ErrClosed is returned by Send and Receive once the queue is closed.
var ErrClosed = errors.New("queue: closed")

// Entry is a (topic, message) pair.
type Entry struct {
	Topic   string
	Message string
}

// Quit returns the reserved stop entry.
func Quit() Entry {
	return Entry{Topic: QuitTopic}
}

// IsQuit reports whether e is the reserved stop entry.
func (e Entry) IsQuit() bool {
	return e.Topic == QuitTopic
}

// Status is the result of a non-blocking receive.
type Status int

const (
	// Received means an entry was returned.
	Received Status = iota
	// Empty means nothing is buffered right now.
	Empty
	// Closed means the queue is closed and fully drained.
	Closed
)

func (s Status) String() string {
	switch s {
	case Received:
		return "received"
	case Empty:
		return "empty"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Queue is a bounded FIFO of entries. The zero value is not usable; call New.
type Queue struct {
	entries chan Entry
	done    chan struct{}
	once    sync.Once
}

// New creates a queue holding at most capacity entries.
// A capacity below 1 is raised to 1.
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		entries: make(chan Entry, capacity),
		done:    make(chan struct{}),
	}
}

// Send appends e, blocking while the queue is full.
//
// Returns ErrClosed if the queue is (or becomes) closed, or ctx.Err() if the
// context ends first.
func (q *Queue) Send(ctx context.Context, e Entry) error {
	// A closed queue must refuse entries even if there is room.
	select {
	case <-q.done:
		return ErrClosed
	default:
	}

	select {
	case q.entries <- e:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive removes the oldest entry, blocking until one is available.
//
// Returns ErrClosed once the queue is closed and drained, or ctx.Err() if
// the context ends first.
func (q *Queue) Receive(ctx context.Context) (Entry, error) {
	select {
	case e := <-q.entries:
		return e, nil
	case <-q.done:
		return q.drainAfterClose()
	case <-ctx.Done():
		return Entry{}, ctx.Err()
	}
}

// TryReceive removes the oldest entry without blocking.
func (q *Queue) TryReceive() (Entry, Status) {
	select {
	case e := <-q.entries:
		return e, Received
	default:
	}

	select {
	case <-q.done:
		if e, err := q.drainAfterClose(); err == nil {
			return e, Received
		}
		return Entry{}, Closed
	default:
		return Entry{}, Empty
	}
}

// drainAfterClose hands out entries that were buffered before Close.
func (q *Queue) drainAfterClose() (Entry, error) {
	select {
	case e := <-q.entries:
		return e, nil
	default:
		return Entry{}, ErrClosed
	}
}

// Close disconnects the queue. Blocked senders and receivers are released.
// It is safe to call Close more than once and from any goroutine.
func (q *Queue) Close() {
	q.once.Do(func() {
		close(q.done)
	})
}
