// Package scheduler turns a raw fleet and queue snapshot into ranked
// printer candidates for one job.
//
// The scheduler is a pure, stateless transform: every call builds a fresh
// capability snapshot from the registry and the external queue, filters
// candidates against the job's hard requirements, scores the survivors, and
// ranks them under the chosen strategy. Nothing is cached between calls.
//
// # Pipeline
//
//	caps, err := scheduler.FleetCapabilities(ctx, registry, queue, rates)
//	scores := scheduler.SelectBestPrinter(caps, scheduler.JobRequirements{
//	    Material:   "PETG",
//	    NozzleSize: &nozzle,
//	}, scheduler.StrategyCapabilityMatched)
//
// "No candidates" is an empty slice, never an error.
//
// # Strategies
//
// CapabilityMatched (the default) is the only strategy that honours job
// requirements. RoundRobin and LeastLoaded deliberately ignore them: they
// rank purely by availability and load, per their documented contract.
package scheduler
