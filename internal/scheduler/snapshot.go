package scheduler

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/codeofaxel/Kiln-sub005/internal/fleet"
)

// Load model constants.
const (
	// queueDepthSaturation is the queue depth at which a printer counts
	// as fully loaded.
	queueDepthSaturation = 10

	// minutesPerQueuedJob is the assumed average job duration for queue
	// wait forecasting.
	minutesPerQueuedJob = 30

	// DefaultSuccessRate is assumed for printers with no recorded history.
	DefaultSuccessRate = 0.8
)

// SnapshotOption adjusts how FleetCapabilities assembles its snapshot.
type SnapshotOption func(*snapshotOptions)

type snapshotOptions struct {
	defaultSuccessRate float64
}

// WithDefaultSuccessRate overrides the success rate assumed for printers
// with no recorded history. Rates outside [0,1] are ignored.
func WithDefaultSuccessRate(rate float64) SnapshotOption {
	return func(o *snapshotOptions) {
		if rate >= 0 && rate <= 1 {
			o.defaultSuccessRate = rate
		}
	}
}

// FleetCapabilities builds one PrinterCapabilities per registered printer by
// combining the fleet status snapshot (connected and idle means available),
// the queue backlog,
// and optional historical success rates.
//
// Queued jobs addressed to a printer count against that printer; untargeted
// jobs are spread over the whole fleet by ceiling division (fair share).
// A nil queue is treated as an empty backlog. rates may be nil; lookup
// failures are swallowed and the default retained.
// Results are sorted by printer id.
func FleetCapabilities(ctx context.Context, source FleetSource, queue Queue, rates SuccessRates, opts ...SnapshotOption) ([]PrinterCapabilities, error) {
	options := snapshotOptions{defaultSuccessRate: DefaultSuccessRate}
	for _, opt := range opts {
		opt(&options)
	}

	statuses := source.FleetStatus(ctx)
	if len(statuses) == 0 {
		return nil, nil
	}
	adapters := source.ListAll()

	var jobs []Job
	if queue != nil {
		var err error
		jobs, err = queue.ListJobs(ctx, JobStatusQueued)
		if err != nil {
			return nil, fmt.Errorf("listing queued jobs: %w", err)
		}
	}

	targeted := make(map[string]int)
	untargeted := 0
	for _, job := range jobs {
		if job.PrinterName == "" {
			untargeted++
		} else {
			targeted[job.PrinterName]++
		}
	}
	fairShare := int(math.Ceil(float64(untargeted) / float64(len(statuses))))

	successRates := lookupSuccessRates(ctx, rates)

	capabilities := make([]PrinterCapabilities, 0, len(statuses))
	for _, entry := range statuses {
		c := PrinterCapabilities{
			PrinterID:   entry.Name,
			IsAvailable: entry.Connected && entry.State == fleet.StateIdle,
			SuccessRate: options.defaultSuccessRate,
		}

		if adapter, ok := adapters[entry.Name]; ok {
			hw := adapter.Capabilities()
			c.Materials = hw.Materials
			c.MaxBuildVolume = hw.BuildVolume
			c.NozzleSizes = hw.NozzleSizes
		}

		depth := targeted[entry.Name] + fairShare
		c.CurrentLoad = math.Min(float64(depth)/queueDepthSaturation, 1.0)
		c.EstimatedQueueWaitMinutes = depth * minutesPerQueuedJob

		if rate, ok := successRates[entry.Name]; ok {
			c.SuccessRate = rate
		}

		capabilities = append(capabilities, c)
	}

	sort.Slice(capabilities, func(i, j int) bool {
		return capabilities[i].PrinterID < capabilities[j].PrinterID
	})
	return capabilities, nil
}

// lookupSuccessRates fetches historical rates, tolerating a nil collaborator
// and swallowing lookup failures.
func lookupSuccessRates(ctx context.Context, rates SuccessRates) map[string]float64 {
	if rates == nil {
		return nil
	}
	rankings, err := rates.PrinterRankings(ctx)
	if err != nil {
		return nil
	}
	out := make(map[string]float64, len(rankings))
	for _, r := range rankings {
		out[r.PrinterName] = r.SuccessRate
	}
	return out
}
