// Package mqtt provides MQTT client connectivity for mqttconsole sessions.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions (wildcards are matched by the broker and paho)
//   - A default inbound handler installed before the connection opens
//
// Subscribing with a nil handler routes matches to the default handler, so
// a message matching several filters is handled once.
//
// Each console session owns exactly one Client. Inbound messages are handed
// to MessageHandler callbacks on paho's delivery goroutine; handler panics
// are recovered and logged, handler errors are logged.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, mqtt.NewClientID("client1"),
//	    func(topic string, payload []byte) error {
//	        fmt.Printf("%s: %s\n", topic, payload)
//	        return nil
//	    })
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.Publish("client1/foo", []byte("hello"), 1, false)
package mqtt
