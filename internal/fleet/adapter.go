package fleet

import "context"

// Adapter is implemented by printer protocol drivers (OctoPrint, Moonraker,
// serial g-code, etc.). The registry never talks to hardware itself; it only
// fans queries out over registered adapters.
//
// Implementations must be safe for concurrent use: the registry calls State
// from multiple goroutines during fan-out queries.
//
// Backend and Capabilities are metadata accessors and must not perform I/O.
// State may block on the wire; it should honour ctx cancellation, but the
// registry enforces its own per-device timeout regardless, and recovers
// panics at the fan-out boundary.
type Adapter interface {
	// Backend returns a stable identifier for the driver implementation,
	// e.g. "octoprint" or "moonraker".
	Backend() string

	// State queries the printer for a current status snapshot.
	State(ctx context.Context) (Status, error)

	// Capabilities returns the printer's static hardware descriptor.
	Capabilities() Capabilities
}
