package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/codeofaxel/Kiln-sub005/internal/scheduler"
)

// dispatchRequest asks for ranked printer recommendations for one job.
type dispatchRequest struct {
	RequestID    string                    `json:"request_id"`
	Strategy     scheduler.Strategy        `json:"strategy,omitempty"`
	Requirements scheduler.JobRequirements `json:"requirements"`
}

// dispatchResponse carries the ranking (or the failure) back to the
// requester on its response topic.
type dispatchResponse struct {
	RequestID string                   `json:"request_id"`
	Rankings  []scheduler.PrinterScore `json:"rankings,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// dispatchQoS is fixed at-least-once: a lost recommendation strands the
// requester waiting on its response topic.
const dispatchQoS = 1

// handleDispatchRequest answers one scheduling request with a ranked
// printer list built from the live fleet snapshot.
func (b *Bridge) handleDispatchRequest(_ string, payload []byte) error {
	var req dispatchRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("decoding dispatch request: %w", err)
	}
	if req.RequestID == "" {
		return fmt.Errorf("dispatch request missing request_id")
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = scheduler.StrategyCapabilityMatched
	}
	if !validStrategy(strategy) {
		return b.respond(dispatchResponse{
			RequestID: req.RequestID,
			Error:     fmt.Sprintf("unknown strategy %q", strategy),
		})
	}

	snapshot, err := scheduler.FleetCapabilities(b.ctx, b.registry, nil, b.rates,
		scheduler.WithDefaultSuccessRate(b.defaultSuccessRate))
	if err != nil {
		b.logger.Error("building dispatch snapshot failed", "request_id", req.RequestID, "error", err)
		return b.respond(dispatchResponse{
			RequestID: req.RequestID,
			Error:     "fleet snapshot unavailable",
		})
	}

	rankings := scheduler.SelectBestPrinter(snapshot, req.Requirements, strategy)
	b.logger.Debug("dispatch request answered",
		"request_id", req.RequestID,
		"strategy", strategy,
		"candidates", len(rankings),
	)
	return b.respond(dispatchResponse{
		RequestID: req.RequestID,
		Rankings:  rankings,
	})
}

// respond publishes a dispatch response on the request's response topic.
func (b *Bridge) respond(resp dispatchResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encoding dispatch response: %w", err)
	}
	if err := b.pub.Publish(b.topics.SchedulerResponse(resp.RequestID), data, dispatchQoS, false); err != nil {
		return fmt.Errorf("publishing dispatch response: %w", err)
	}
	return nil
}

func validStrategy(s scheduler.Strategy) bool {
	for _, v := range scheduler.AllStrategies() {
		if s == v {
			return true
		}
	}
	return false
}
