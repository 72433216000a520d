package bridge

import (
	"encoding/json"
	"testing"

	"github.com/codeofaxel/Kiln-sub005/internal/fleet"
	"github.com/codeofaxel/Kiln-sub005/internal/infrastructure/mqtt"
	"github.com/codeofaxel/Kiln-sub005/internal/scheduler"
)

func deliverRequest(t *testing.T, bus *fakeBus, req dispatchRequest) error {
	t.Helper()
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshalling request: %v", err)
	}
	topic := mqtt.Topics{}.SchedulerRequest()
	return bus.deliver(t, topic, topic, data)
}

func lastResponse(t *testing.T, bus *fakeBus) (string, dispatchResponse) {
	t.Helper()
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if len(bus.published) == 0 {
		t.Fatal("no response published")
	}
	msg := bus.published[len(bus.published)-1]
	var resp dispatchResponse
	if err := json.Unmarshal(msg.payload, &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return msg.topic, resp
}

// seedFleet registers two reporting printers: an idle voron and a busy mk4.
func seedFleet(t *testing.T, bus *fakeBus) {
	t.Helper()
	pattern := mqtt.Topics{}.AllPrinterStates()

	idle := vorenReport()
	if err := bus.deliver(t, pattern, "kiln/fleet/voron-01/state", reportPayload(t, idle)); err != nil {
		t.Fatalf("seeding voron-01: %v", err)
	}

	busy := vorenReport()
	busy.Status.State = fleet.StatePrinting
	busy.Capabilities.Materials = []string{"ABS"}
	if err := bus.deliver(t, pattern, "kiln/fleet/mk4-01/state", reportPayload(t, busy)); err != nil {
		t.Fatalf("seeding mk4-01: %v", err)
	}
}

func TestDispatch_RecommendsIdlePrinter(t *testing.T) {
	_, bus, _, _ := startTestBridge(t)
	seedFleet(t, bus)

	err := deliverRequest(t, bus, dispatchRequest{
		RequestID:    "req-1",
		Requirements: scheduler.JobRequirements{Material: "PLA"},
	})
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}

	topic, resp := lastResponse(t, bus)
	if want := (mqtt.Topics{}).SchedulerResponse("req-1"); topic != want {
		t.Errorf("response topic = %q, want %q", topic, want)
	}
	if resp.Error != "" {
		t.Fatalf("response error = %q", resp.Error)
	}
	if len(resp.Rankings) != 1 || resp.Rankings[0].PrinterID != "voron-01" {
		t.Errorf("rankings = %+v, want just the idle PLA printer", resp.Rankings)
	}
}

func TestDispatch_DefaultStrategyFiltersBusy(t *testing.T) {
	_, bus, _, _ := startTestBridge(t)
	seedFleet(t, bus)

	// No material filter: the busy mk4 still drops out on availability.
	if err := deliverRequest(t, bus, dispatchRequest{RequestID: "req-2"}); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	_, resp := lastResponse(t, bus)
	for _, score := range resp.Rankings {
		if score.PrinterID == "mk4-01" {
			t.Error("busy printer ranked by default strategy")
		}
	}
}

func TestDispatch_ConfiguredDefaultSuccessRate(t *testing.T) {
	b, bus, _, _ := startTestBridge(t)
	b.SetDispatch(nil, 0.5)
	seedFleet(t, bus)

	if err := deliverRequest(t, bus, dispatchRequest{RequestID: "req-3"}); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	_, resp := lastResponse(t, bus)
	if len(resp.Rankings) == 0 {
		t.Fatal("no rankings returned")
	}
	// With no recorded history the configured rate feeds the success
	// component directly: 0.5 * 0.4.
	if got := resp.Rankings[0].SuccessComponent; got != 0.2 {
		t.Errorf("success component = %v, want 0.2 from configured default", got)
	}
}

func TestDispatch_UnknownStrategy(t *testing.T) {
	_, bus, _, _ := startTestBridge(t)
	seedFleet(t, bus)

	err := deliverRequest(t, bus, dispatchRequest{
		RequestID: "req-4",
		Strategy:  scheduler.Strategy("psychic"),
	})
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}

	_, resp := lastResponse(t, bus)
	if resp.Error == "" {
		t.Error("response error empty for unknown strategy")
	}
	if len(resp.Rankings) != 0 {
		t.Errorf("rankings = %+v, want none on error", resp.Rankings)
	}
}

func TestDispatch_MissingRequestID(t *testing.T) {
	_, bus, _, _ := startTestBridge(t)

	topic := mqtt.Topics{}.SchedulerRequest()
	if err := bus.deliver(t, topic, topic, []byte(`{"strategy":"least_loaded"}`)); err == nil {
		t.Error("handler error = nil for request without id")
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if len(bus.published) != 0 {
		t.Errorf("published %d messages, want none without a request id", len(bus.published))
	}
}

func TestDispatch_MalformedRequest(t *testing.T) {
	_, bus, _, _ := startTestBridge(t)

	topic := mqtt.Topics{}.SchedulerRequest()
	if err := bus.deliver(t, topic, topic, []byte("{broken")); err == nil {
		t.Error("handler error = nil for malformed request")
	}
}
