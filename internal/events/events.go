// Package events publishes Kiln lifecycle events to the MQTT bus.
//
// The Bus translates domain events (lock acquisitions, printer
// registration, fleet snapshots) into JSON envelopes and publishes them
// on the topics defined by the mqtt package. Publishing is best-effort:
// a broker outage drops events with a warning rather than failing the
// operation that produced them.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/codeofaxel/Kiln-sub005/internal/infrastructure/mqtt"
	"github.com/codeofaxel/Kiln-sub005/internal/statelock"
)

// Publisher is the transport the bus publishes through. *mqtt.Client
// satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger interface for optional logging support.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Envelope is the wire format shared by all bus events.
type Envelope struct {
	EventID   string      `json:"event_id"`
	Type      string      `json:"type"`
	Site      string      `json:"site,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Event type constants.
const (
	TypeLockAcquired        = "lock.acquired"
	TypeLockReleased        = "lock.released"
	TypeLockForceReleased   = "lock.force_released"
	TypePrinterRegistered   = "printer.registered"
	TypePrinterUnregistered = "printer.unregistered"
)

// Bus publishes domain events over MQTT.
type Bus struct {
	pub    Publisher
	topics mqtt.Topics
	site   string
	qos    byte
	logger Logger
}

// New creates a bus publishing through pub. Site tags every envelope and
// may be empty.
func New(pub Publisher, site string, qos byte) *Bus {
	return &Bus{
		pub:    pub,
		site:   site,
		qos:    qos,
		logger: noopLogger{},
	}
}

// SetLogger configures optional logging. Pass nil to restore the default
// no-op logger.
func (b *Bus) SetLogger(logger Logger) {
	if logger == nil {
		b.logger = noopLogger{}
		return
	}
	b.logger = logger
}

// LockAcquired publishes a lock acquisition event.
func (b *Bus) LockAcquired(rec statelock.StateVersion) {
	b.publish(b.topics.LockVersion(rec.DeviceID), TypeLockAcquired, rec)
}

// LockReleased publishes a lock release event. Forced releases are tagged
// with a distinct type so consumers can alert on them.
func (b *Bus) LockReleased(deviceID string, version uint64, forced bool) {
	eventType := TypeLockReleased
	if forced {
		eventType = TypeLockForceReleased
	}
	payload := map[string]interface{}{
		"device_id": deviceID,
		"version":   version,
	}
	b.publish(b.topics.LockReleased(deviceID), eventType, payload)
}

// PrinterRegistered publishes a registration event for a printer.
func (b *Bus) PrinterRegistered(printerID, backend string) {
	payload := map[string]interface{}{
		"printer_id": printerID,
		"backend":    backend,
	}
	b.publish(b.topics.PrinterRegistered(printerID), TypePrinterRegistered, payload)
}

// PrinterUnregistered publishes a removal event for a printer.
func (b *Bus) PrinterUnregistered(printerID string) {
	payload := map[string]interface{}{
		"printer_id": printerID,
	}
	b.publish(b.topics.PrinterUnregistered(printerID), TypePrinterUnregistered, payload)
}

// PublishFleetStatus publishes an aggregate fleet snapshot as a retained
// message so new subscribers see the latest snapshot immediately.
func (b *Bus) PublishFleetStatus(snapshot interface{}) {
	env := b.envelope("fleet.status", snapshot)
	data, err := json.Marshal(env)
	if err != nil {
		b.logger.Warn("marshalling fleet status failed", "error", err)
		return
	}
	if err := b.pub.Publish(b.topics.FleetStatus(), data, b.qos, true); err != nil {
		b.logger.Warn("publishing fleet status failed", "error", err)
	}
}

func (b *Bus) publish(topic, eventType string, payload interface{}) {
	env := b.envelope(eventType, payload)
	data, err := json.Marshal(env)
	if err != nil {
		b.logger.Warn("marshalling event failed", "type", eventType, "error", err)
		return
	}
	if err := b.pub.Publish(topic, data, b.qos, false); err != nil {
		b.logger.Warn("publishing event failed", "type", eventType, "topic", topic, "error", err)
	}
}

func (b *Bus) envelope(eventType string, payload interface{}) Envelope {
	return Envelope{
		EventID:   uuid.NewString(),
		Type:      eventType,
		Site:      b.site,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
