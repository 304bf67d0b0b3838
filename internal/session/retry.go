package session

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nerrad567/mqttconsole/internal/infrastructure/mqtt"
)

// RetryPolicy controls how failed subscribe and publish calls are retried.
//
// The zero value performs no retries: the first error is final.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Do runs op, retrying transient failures per the policy.
//
// Validation errors from the mqtt package are never retried. notify, when
// non-nil, is called before each retry.
func (p RetryPolicy) Do(ctx context.Context, op func() error, notify func(err error, wait time.Duration)) error {
	if p.MaxAttempts <= 0 {
		return op()
	}

	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxAttempts)), ctx)

	return backoff.RetryNotify(func() error {
		err := op()
		if isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, notify)
}

// isPermanent reports errors that retrying cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, mqtt.ErrInvalidTopic) || errors.Is(err, mqtt.ErrInvalidQoS)
}
