// Package queue provides the bounded FIFO used to move (topic, message)
// pairs between the console goroutine and the session goroutines.
//
// A Queue is a fixed-capacity channel with an explicit "disconnected" state:
//
//   - Send blocks while the queue is full, which is how a fast producer is
//     throttled to its consumer's pace.
//   - Receive blocks until an entry arrives, the queue is closed, or the
//     context is cancelled.
//   - TryReceive never blocks and distinguishes Empty from Closed.
//   - Close may be called from any goroutine, any number of times. Entries
//     already buffered are still delivered before Closed is reported.
//
// The reserved Quit entry is an in-band stop signal for a consumer loop.
package queue
