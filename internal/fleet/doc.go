// Package fleet provides the printer registry for Kiln.
//
// The registry is the central catalogue of every printer in a Kiln
// installation. It owns the name→adapter mapping and per-printer metadata,
// and provides fleet-wide status queries that degrade per printer rather
// than per call.
//
// # Key Types
//
//   - Adapter: the driver interface protocol bridges implement
//   - Registry: the thread-safe name→adapter map with fan-out queries
//   - StatusEntry: one printer's row in a fleet status snapshot
//   - Metadata: registry-owned site and tag information
//
// # Usage
//
//	registry := fleet.NewRegistry()
//	registry.SetLogger(log)
//
//	registry.Register("voron-01", adapter, "workshop", map[string]string{
//	    "enclosure": "yes",
//	})
//
//	// Fleet-wide snapshot: parallel fan-out, per-printer degradation
//	entries := registry.FleetStatus(ctx)
//
//	// Exclusive multi-step operations take the per-printer mutex
//	mu, err := registry.DeviceMutex("voron-01")
//
// # Concurrency
//
// The map lock is held only long enough to snapshot the fleet; adapter I/O
// always happens outside it in a bounded worker pool. Each printer query has
// its own timeout, and a fleet-wide call blocks the caller for at most the
// per-device timeout plus a fixed grace period.
//
// A printer whose query fails, panics, or times out appears in the snapshot
// as offline; fleet-wide queries never fail because of one bad printer. Only
// single-device operations on unknown names return ErrDeviceNotFound.
package fleet
