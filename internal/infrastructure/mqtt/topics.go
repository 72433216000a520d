package mqtt

import "fmt"

// Topic prefixes for the Kiln MQTT hierarchy.
//
// All topics live under a single root: kiln/{category}/...
// Fleet topics carry printer state and telemetry, lock topics carry
// state version events, and system topics carry service lifecycle.
const (
	// TopicPrefixRoot is the base for all Kiln topics.
	TopicPrefixRoot = "kiln"

	// TopicPrefixFleet is the base for fleet topics.
	TopicPrefixFleet = "kiln/fleet"

	// TopicPrefixLock is the base for state lock topics.
	TopicPrefixLock = "kiln/lock"

	// TopicPrefixScheduler is the base for dispatch request/response topics.
	TopicPrefixScheduler = "kiln/scheduler"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "kiln/system"
)

// Topics provides builders for Kiln MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.PrinterState("voron-01")
//	// Returns: "kiln/fleet/voron-01/state"
type Topics struct{}

// =============================================================================
// Fleet Topics
// =============================================================================

// PrinterState returns the topic for printer state snapshots.
//
// Example: kiln/fleet/voron-01/state
func (Topics) PrinterState(printerID string) string {
	return fmt.Sprintf("%s/%s/state", TopicPrefixFleet, printerID)
}

// PrinterTelemetry returns the topic for printer temperature telemetry.
//
// Example: kiln/fleet/voron-01/telemetry
func (Topics) PrinterTelemetry(printerID string) string {
	return fmt.Sprintf("%s/%s/telemetry", TopicPrefixFleet, printerID)
}

// PrinterRegistered returns the topic for printer registration events.
//
// Example: kiln/fleet/voron-01/registered
func (Topics) PrinterRegistered(printerID string) string {
	return fmt.Sprintf("%s/%s/registered", TopicPrefixFleet, printerID)
}

// PrinterUnregistered returns the topic for printer removal events.
//
// Example: kiln/fleet/voron-01/unregistered
func (Topics) PrinterUnregistered(printerID string) string {
	return fmt.Sprintf("%s/%s/unregistered", TopicPrefixFleet, printerID)
}

// FleetStatus returns the topic for aggregate fleet status snapshots.
//
// Example: kiln/fleet/status
func (Topics) FleetStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixFleet)
}

// =============================================================================
// Lock Topics
// =============================================================================

// LockVersion returns the topic for state version change events.
//
// Example: kiln/lock/voron-01/version
func (Topics) LockVersion(deviceID string) string {
	return fmt.Sprintf("%s/%s/version", TopicPrefixLock, deviceID)
}

// LockReleased returns the topic for lock release events.
//
// Example: kiln/lock/voron-01/released
func (Topics) LockReleased(deviceID string) string {
	return fmt.Sprintf("%s/%s/released", TopicPrefixLock, deviceID)
}

// =============================================================================
// Scheduler Topics
// =============================================================================

// SchedulerRequest returns the topic dispatch requests are received on.
//
// Example: kiln/scheduler/request
func (Topics) SchedulerRequest() string {
	return fmt.Sprintf("%s/request", TopicPrefixScheduler)
}

// SchedulerResponse returns the per-request topic dispatch recommendations
// are published to.
//
// Example: kiln/scheduler/response/req-42
func (Topics) SchedulerResponse(requestID string) string {
	return fmt.Sprintf("%s/response/%s", TopicPrefixScheduler, requestID)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic.
//
// Example: kiln/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemShutdown returns the shutdown signal topic.
//
// Example: kiln/system/shutdown
func (Topics) SystemShutdown() string {
	return fmt.Sprintf("%s/shutdown", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllPrinterStates returns a pattern matching all printer state topics.
//
// Pattern: kiln/fleet/+/state
func (Topics) AllPrinterStates() string {
	return fmt.Sprintf("%s/+/state", TopicPrefixFleet)
}

// AllPrinterTelemetry returns a pattern matching all telemetry topics.
//
// Pattern: kiln/fleet/+/telemetry
func (Topics) AllPrinterTelemetry() string {
	return fmt.Sprintf("%s/+/telemetry", TopicPrefixFleet)
}

// AllLockEvents returns a pattern matching all lock topics.
//
// Pattern: kiln/lock/+/+
func (Topics) AllLockEvents() string {
	return fmt.Sprintf("%s/+/+", TopicPrefixLock)
}

// AllTopics returns a pattern matching all Kiln topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: kiln/#
func (Topics) AllTopics() string {
	return "kiln/#"
}
