package session

import "errors"

// Sentinel errors for session operations.
var (
	// ErrConnect is returned when the session cannot connect to the broker.
	ErrConnect = errors.New("session: connect failed")

	// ErrSubscribe is returned when a subscription cannot be registered.
	ErrSubscribe = errors.New("session: subscribe failed")

	// ErrPublish is returned by RunPublisher when a publish fails.
	ErrPublish = errors.New("session: publish failed")

	// ErrDecode is returned by the inbound callback for payloads that are not UTF-8.
	ErrDecode = errors.New("session: payload is not valid UTF-8")

	// ErrNotStarted is returned when an operation needs a connected session.
	ErrNotStarted = errors.New("session: not started")
)
