// Package session runs one console client identity.
//
// A Session owns one MQTT connection and bridges it to the console:
//
//	paho delivery goroutine -> handleMessage -> Inbound (queue or sink)
//	outbound queue -> RunPublisher -> Client.Publish
//
// The inbound callback never does more than decode the payload and hand it
// to its Inbound: QueueInbound performs a bounded, possibly blocking send
// (the backpressure point), SinkInbound writes one line to a Sink.
//
// RunPublisher is meant to run on its own goroutine. It stops without error
// when it receives the reserved quit entry, when its queue is closed, or
// when its context is cancelled. A publish failure stops it with an error.
//
// Connect, subscribe and publish failures are returned to the caller, which
// treats them as fatal for the goroutine that hit them. A RetryPolicy with
// MaxAttempts > 0 retries subscribe and publish with exponential backoff
// before giving up.
package session
