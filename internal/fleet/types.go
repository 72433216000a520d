package fleet

import "time"

// State represents the reported operational state of a printer.
type State string

// State constants.
const (
	StateIdle       State = "idle"
	StatePrinting   State = "printing"
	StatePaused     State = "paused"
	StateError      State = "error"
	StateOffline    State = "offline"
	StateBusy       State = "busy"
	StateCancelling State = "cancelling"
	StateUnknown    State = "unknown"
)

// AllStates returns all valid printer state values.
func AllStates() []State {
	return []State{
		StateIdle,
		StatePrinting,
		StatePaused,
		StateError,
		StateOffline,
		StateBusy,
		StateCancelling,
		StateUnknown,
	}
}

// IsValid reports whether s is a recognised state value.
func (s State) IsValid() bool {
	for _, v := range AllStates() {
		if s == v {
			return true
		}
	}
	return false
}

// Volume are build-chamber dimensions in millimetres.
type Volume struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Fits reports whether a part needing req fits within v on every axis.
func (v Volume) Fits(req Volume) bool {
	return v.X >= req.X && v.Y >= req.Y && v.Z >= req.Z
}

// Capabilities describes what a printer's hardware can do. It is a static
// descriptor supplied by the adapter, queried at runtime instead of relying
// on inheritance-style defaults.
type Capabilities struct {
	// Materials the printer can handle, e.g. "PLA", "PETG", "ABS".
	Materials []string `json:"materials"`

	// BuildVolume is the maximum printable volume in millimetres.
	BuildVolume Volume `json:"build_volume"`

	// NozzleSizes lists installed or available nozzle diameters in mm.
	NozzleSizes []float64 `json:"nozzle_sizes"`

	// Feature flags.
	CanPause          bool `json:"can_pause"`
	CanSetTemperature bool `json:"can_set_temperature"`
	HasHeatedBed      bool `json:"has_heated_bed"`
	HasCamera         bool `json:"has_camera"`
}

// Status is a point-in-time snapshot reported by an adapter's state query.
// Temperature fields are nil when the backend does not report them.
type Status struct {
	Connected bool `json:"connected"`

	State State `json:"state"`

	ToolTempActual *float64 `json:"tool_temp_actual,omitempty"`
	ToolTempTarget *float64 `json:"tool_temp_target,omitempty"`
	BedTempActual  *float64 `json:"bed_temp_actual,omitempty"`
	BedTempTarget  *float64 `json:"bed_temp_target,omitempty"`
}

// StatusEntry is one printer's row in a fleet-wide status snapshot.
// Entries are produced fresh on every fleet query and never cached.
type StatusEntry struct {
	Name    string `json:"name"`
	Backend string `json:"backend"`
	Site    string `json:"site"`

	Connected bool  `json:"connected"`
	State     State `json:"state"`

	ToolTempActual *float64 `json:"tool_temp_actual,omitempty"`
	ToolTempTarget *float64 `json:"tool_temp_target,omitempty"`
	BedTempActual  *float64 `json:"bed_temp_actual,omitempty"`
	BedTempTarget  *float64 `json:"bed_temp_target,omitempty"`
}

// Metadata holds registry-owned information about a printer.
// It is created on registration and mutated only via UpdateMetadata.
type Metadata struct {
	Site         string            `json:"site"`
	Tags         map[string]string `json:"tags,omitempty"`
	RegisteredAt time.Time         `json:"registered_at"`
}

// DeepCopy creates an independent copy of the Metadata.
// The tags map is cloned so modifications to the copy do not
// affect the registry's own record.
func (m *Metadata) DeepCopy() *Metadata {
	if m == nil {
		return nil
	}

	cpy := *m
	if m.Tags != nil {
		cpy.Tags = make(map[string]string, len(m.Tags))
		for k, v := range m.Tags {
			cpy.Tags[k] = v
		}
	}
	return &cpy
}
