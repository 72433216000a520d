package mqtt

import (
	"fmt"
)

// maxPayloadSize caps outbound payloads at 1MB. Fleet snapshots and event
// envelopes are a few KB at most; anything near the cap indicates a bug
// upstream, and brokers commonly reject larger messages anyway.
const maxPayloadSize = 1 << 20

// Publish sends payload to topic at the given QoS level.
//
// Retained messages replace the broker's stored copy for the topic and are
// delivered to future subscribers immediately. The coordinator uses retention
// for state topics (printer state, system status) and never for events or
// dispatch traffic, which are only meaningful to subscribers present when
// they fire.
//
// The call blocks until the broker acknowledges, bounded by
// defaultPublishTimeout.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishString publishes a string payload.
func (c *Client) PublishString(topic string, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}

// PublishRetained publishes a retained message at the configured default QoS.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}
