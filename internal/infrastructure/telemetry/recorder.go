package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/mqttconsole/internal/infrastructure/config"
)

const (
	defaultConnectTimeout = 10 * time.Second

	defaultBatchSize     = 100
	defaultFlushInterval = 10

	millisecondsPerSecond = 1000
)

// Measurement names.
const (
	MeasurementMessages = "mqtt_messages"
	MeasurementSessions = "session_stats"
)

// Recorder writes traffic points to InfluxDB.
//
// All methods are safe for concurrent use. A nil *Recorder records nothing.
type Recorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI

	connected bool
	mu        sync.RWMutex

	onError func(err error)
}

// Connect pings InfluxDB and returns a Recorder using the batched write API.
//
// Returns ErrDisabled when cfg.Enabled is false and ErrConnectionFailed when
// the server does not answer a ping within the connect timeout.
func Connect(cfg config.InfluxDBConfig) (*Recorder, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}

	// #nosec G115 -- values validated above to be positive
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*millisecondsPerSecond),
	)

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	return newRecorder(client, client.WriteAPI(cfg.Org, cfg.Bucket)), nil
}

func newRecorder(client influxdb2.Client, writeAPI api.WriteAPI) *Recorder {
	r := &Recorder{
		client:    client,
		writeAPI:  writeAPI,
		connected: true,
	}
	go r.handleWriteErrors(writeAPI.Errors())
	return r
}

func (r *Recorder) handleWriteErrors(errorsCh <-chan error) {
	for err := range errorsCh {
		r.mu.RLock()
		callback := r.onError
		r.mu.RUnlock()

		if callback != nil {
			callback(err)
		}
	}
}

// SetOnError sets the callback for asynchronous write failures.
func (r *Recorder) SetOnError(callback func(err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onError = callback
}

// IsConnected reports whether the recorder is still accepting points.
func (r *Recorder) IsConnected() bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connected
}

// Close flushes pending points and closes the client. Safe to call twice.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	wasConnected := r.connected
	r.connected = false
	r.mu.Unlock()

	if !wasConnected {
		return nil
	}

	r.writeAPI.Flush()
	if r.client != nil {
		r.client.Close()
	}
	return nil
}
