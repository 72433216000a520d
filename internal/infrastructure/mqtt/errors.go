package mqtt

import "errors"

// Sentinel errors for bus operations, matched with errors.Is. Failures
// from the underlying paho client are wrapped in one of these.
var (
	// ErrNotConnected: the operation needs a live broker connection.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed: the initial broker connection did not come up.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed: a publish was rejected or timed out.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed: a subscription was rejected or timed out.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed: an unsubscribe was rejected or timed out.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS: QoS must be 0, 1 or 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic: topics must be non-empty.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)
