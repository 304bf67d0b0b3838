package mqtt

import pahomqtt "github.com/eclipse/paho.mqtt.golang"

// Filter is one subscription pattern with the QoS to request for it.
type Filter struct {
	Topic string
	QoS   byte
}

// Subscribe asks the broker for messages matching topic.
//
// Topics can include MQTT wildcards ("all/#", "sensors/+/temp"); matching is
// done by the broker and paho, never by this package.
//
// A nil handler adds no route, so matching messages reach the handler given
// to Connect. paho calls every route whose filter matches, which means a
// non-nil handler on overlapping filters sees one delivery once per filter.
//
// Subscriptions are restored automatically after a reconnect.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.track(subscription{topic: topic, qos: qos, handler: handler})

	if err := wait(c.client.Subscribe(topic, qos, c.route(handler)), defaultAckTimeout, ErrSubscribeFailed, topic); err != nil {
		c.untrack(topic)
		return err
	}
	return nil
}

// route returns the paho callback for handler, or nil to leave delivery to
// the default publish handler.
func (c *Client) route(handler MessageHandler) pahomqtt.MessageHandler {
	if handler == nil {
		return nil
	}
	return c.wrapHandler(handler)
}

func (c *Client) track(sub subscription) {
	c.subMu.Lock()
	c.subscriptions[sub.topic] = sub
	c.subMu.Unlock()
}

func (c *Client) untrack(topic string) {
	c.subMu.Lock()
	delete(c.subscriptions, topic)
	c.subMu.Unlock()
}
