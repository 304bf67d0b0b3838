package telemetry

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordMessage writes one message point. It never blocks on the network.
//
// direction is "inbound" or "outbound"; size is the payload length in bytes.
func (r *Recorder) RecordMessage(session, direction, topic string, size int) {
	if !r.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementMessages,
		map[string]string{
			"session":   session,
			"direction": direction,
		},
		map[string]interface{}{
			"topic": topic,
			"bytes": size,
			"count": 1,
		},
		time.Now(),
	)

	r.writeAPI.WritePoint(point)
}

// RecordSessionStats writes a session's final counters.
func (r *Recorder) RecordSessionStats(session string, published, received, dropped uint64) {
	if !r.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementSessions,
		map[string]string{
			"session": session,
		},
		map[string]interface{}{
			"published": published,
			"received":  received,
			"dropped":   dropped,
		},
		time.Now(),
	)

	r.writeAPI.WritePoint(point)
}
