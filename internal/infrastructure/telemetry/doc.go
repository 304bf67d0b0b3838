// Package telemetry records console traffic in InfluxDB.
//
// It wraps influxdb-client-go v2 with the non-blocking, batched write API.
// Every published or received message becomes one point:
//
//	mqtt_messages,session=client1,direction=outbound topic="client2/hello",bytes=8i,count=1i
//
// The topic is a field rather than a tag; topics are operator-typed and
// unbounded.
//
// # Usage
//
//	rec, err := telemetry.Connect(cfg.InfluxDB)
//	if errors.Is(err, telemetry.ErrDisabled) {
//	    // run without telemetry
//	}
//	defer rec.Close()
//
//	sess := session.New(sc, dial, in, session.WithRecorder(rec))
//
// Write errors arrive asynchronously and are passed to the SetOnError callback.
package telemetry
