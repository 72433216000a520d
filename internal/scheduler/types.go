package scheduler

import (
	"context"

	"github.com/codeofaxel/Kiln-sub005/internal/fleet"
)

// Strategy selects how candidate printers are ranked.
type Strategy string

// Strategy constants.
const (
	// StrategyRoundRobin returns every available printer, scored but
	// unsorted; rotation is the caller's responsibility. Job requirements
	// are ignored by contract.
	StrategyRoundRobin Strategy = "round_robin"

	// StrategyLeastLoaded sorts available printers by current load only.
	// Job requirements are ignored by contract.
	StrategyLeastLoaded Strategy = "least_loaded"

	// StrategyCapabilityMatched filters by hard requirements, then ranks
	// by score. This is the default.
	StrategyCapabilityMatched Strategy = "capability_matched"
)

// AllStrategies returns all valid strategy values.
func AllStrategies() []Strategy {
	return []Strategy{
		StrategyRoundRobin,
		StrategyLeastLoaded,
		StrategyCapabilityMatched,
	}
}

// PrinterCapabilities is one printer's row in a scheduling snapshot,
// combining the hardware descriptor with live availability and load.
// Built fresh per scheduling call, never persisted.
type PrinterCapabilities struct {
	PrinterID      string       `json:"printer_id"`
	Materials      []string     `json:"materials"`
	MaxBuildVolume fleet.Volume `json:"max_build_volume"`
	NozzleSizes    []float64    `json:"nozzle_sizes"`

	IsAvailable bool `json:"is_available"`

	// CurrentLoad is queue pressure in [0,1].
	CurrentLoad float64 `json:"current_load"`

	// EstimatedQueueWaitMinutes forecasts how long a new job would sit
	// queued behind the current backlog.
	EstimatedQueueWaitMinutes int `json:"estimated_queue_wait_minutes"`

	// SuccessRate in [0,1], historical or defaulted.
	SuccessRate float64 `json:"success_rate"`
}

// JobRequirements are the hard constraints of one unit of work. Every field
// is a filter; a zero value means "don't filter on this axis".
type JobRequirements struct {
	Material       string        `json:"material,omitempty"`
	MinBuildVolume *fleet.Volume `json:"min_build_volume,omitempty"`
	NozzleSize     *float64      `json:"nozzle_size,omitempty"`
}

// PrinterScore is an immutable scoring result. The weighted components are
// reported individually so rankings can be explained.
type PrinterScore struct {
	PrinterID        string  `json:"printer_id"`
	TotalScore       float64 `json:"total_score"`
	SuccessComponent float64 `json:"success_component"`
	LoadComponent    float64 `json:"load_component"`
	WaitComponent    float64 `json:"wait_component"`
}

// JobStatus is the lifecycle state of a queued job, as reported by the
// external queue.
type JobStatus string

// Job status constants.
const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusDone      JobStatus = "done"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job is the scheduler's view of one queued unit of work. An empty
// PrinterName marks the job as untargeted for fair-share load accounting.
type Job struct {
	ID          string    `json:"id"`
	PrinterName string    `json:"printer_name,omitempty"`
	Status      JobStatus `json:"status"`
}

// Queue is the external job queue consumed for backlog accounting.
type Queue interface {
	ListJobs(ctx context.Context, status JobStatus) ([]Job, error)
}

// PrinterRanking is one printer's measured historical success rate.
type PrinterRanking struct {
	PrinterName string  `json:"printer_name"`
	SuccessRate float64 `json:"success_rate"`
}

// SuccessRates is the optional historical-persistence collaborator. Lookup
// failures are swallowed and the default success rate retained.
type SuccessRates interface {
	PrinterRankings(ctx context.Context) ([]PrinterRanking, error)
}

// FleetSource is the registry view the scheduler consumes: a status
// snapshot for availability plus the adapter map for hardware descriptors.
type FleetSource interface {
	FleetStatus(ctx context.Context) []fleet.StatusEntry
	ListAll() map[string]fleet.Adapter
}
