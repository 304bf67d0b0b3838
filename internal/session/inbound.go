package session

import (
	"context"
	"fmt"

	"github.com/nerrad567/mqttconsole/internal/queue"
)

// Inbound receives decoded messages from the session's callback.
//
// Deliver runs on the MQTT client's delivery goroutine. Implementations
// may block only in a bounded way.
type Inbound interface {
	Deliver(ctx context.Context, topic, message string) error
}

// Sender is the send side of a queue.
type Sender interface {
	Send(ctx context.Context, e queue.Entry) error
}

// Sink is where SinkInbound writes received messages.
type Sink interface {
	Received(label, topic, message string)
}

// QueueInbound forwards every message to a queue.
//
// Deliver blocks while the queue is full. A closed queue drops the message
// and reports the error.
type QueueInbound struct {
	Queue Sender
}

// Deliver sends (topic, message) to the queue.
func (q QueueInbound) Deliver(ctx context.Context, topic, message string) error {
	if err := q.Queue.Send(ctx, queue.Entry{Topic: topic, Message: message}); err != nil {
		return fmt.Errorf("forwarding message on %s: %w", topic, err)
	}
	return nil
}

// SinkInbound writes every message straight to a Sink under a label.
type SinkInbound struct {
	Sink  Sink
	Label string
}

// Deliver writes the message to the sink. It never blocks on a queue.
func (s SinkInbound) Deliver(_ context.Context, topic, message string) error {
	s.Sink.Received(s.Label, topic, message)
	return nil
}
