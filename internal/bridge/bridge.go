// Package bridge connects the MQTT bus to the fleet core.
//
// Printer agents publish state reports on kiln/fleet/{id}/state; the
// bridge turns each reporting agent into a registered fleet adapter whose
// status queries answer from the last report. A retained empty payload is
// the agent's tombstone and unregisters the printer. The bridge also
// answers dispatch requests on kiln/scheduler/request with ranked printer
// recommendations, and honours remote shutdown on kiln/system/shutdown.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/codeofaxel/Kiln-sub005/internal/fleet"
	"github.com/codeofaxel/Kiln-sub005/internal/infrastructure/mqtt"
	"github.com/codeofaxel/Kiln-sub005/internal/scheduler"
)

// Logger defines the logging interface used by the Bridge.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Subscriber is the inbound half of the bus transport. *mqtt.Client
// satisfies it.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Publisher is the outbound half, used for dispatch responses.
// *mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Lifecycle receives registration events for publication. *events.Bus
// satisfies it; the bridge works without one.
type Lifecycle interface {
	PrinterRegistered(printerID, backend string)
	PrinterUnregistered(printerID string)
}

// defaultStaleAfter is how long after the last report an agent-backed
// printer still answers with its cached state before it reads as offline.
const defaultStaleAfter = 2 * time.Minute

// Bridge subscribes to the Kiln control topics and feeds the fleet core.
// Construct with New, configure with the setters, then call Start once the
// MQTT client is connected.
type Bridge struct {
	sub      Subscriber
	pub      Publisher
	registry *fleet.Registry
	topics   mqtt.Topics
	logger   Logger

	events             Lifecycle
	rates              scheduler.SuccessRates
	defaultSuccessRate float64
	staleAfter         time.Duration
	onShutdown         func()

	// ctx bounds handler-side work; set by Start.
	ctx context.Context

	mu     sync.Mutex
	agents map[string]*agentAdapter
}

// New creates a bridge feeding registry from the bus. sub and pub are
// usually the same *mqtt.Client.
func New(sub Subscriber, pub Publisher, registry *fleet.Registry) *Bridge {
	return &Bridge{
		sub:                sub,
		pub:                pub,
		registry:           registry,
		logger:             noopLogger{},
		defaultSuccessRate: scheduler.DefaultSuccessRate,
		staleAfter:         defaultStaleAfter,
		agents:             make(map[string]*agentAdapter),
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.logger = logger
}

// SetLifecycle configures registration event publication.
func (b *Bridge) SetLifecycle(events Lifecycle) {
	b.events = events
}

// SetDispatch configures the collaborators for answering dispatch
// requests: historical success rates (may be nil) and the success rate
// assumed for printers without history. Rates outside [0,1] keep the
// current default.
func (b *Bridge) SetDispatch(rates scheduler.SuccessRates, defaultSuccessRate float64) {
	b.rates = rates
	if defaultSuccessRate >= 0 && defaultSuccessRate <= 1 {
		b.defaultSuccessRate = defaultSuccessRate
	}
}

// SetStaleAfter adjusts how long cached agent reports stay fresh.
// Non-positive durations are ignored.
func (b *Bridge) SetStaleAfter(d time.Duration) {
	if d > 0 {
		b.staleAfter = d
	}
}

// SetOnShutdown registers the callback invoked when a remote shutdown
// command arrives on the system topic.
func (b *Bridge) SetOnShutdown(fn func()) {
	b.onShutdown = fn
}

// Start subscribes to the control topics. ctx bounds the work done inside
// message handlers and should span the daemon's lifetime.
func (b *Bridge) Start(ctx context.Context, qos byte) error {
	b.ctx = ctx

	if err := b.sub.Subscribe(b.topics.AllPrinterStates(), qos, b.handleStateReport); err != nil {
		return fmt.Errorf("subscribing to printer states: %w", err)
	}
	if err := b.sub.Subscribe(b.topics.SchedulerRequest(), qos, b.handleDispatchRequest); err != nil {
		return fmt.Errorf("subscribing to dispatch requests: %w", err)
	}
	if err := b.sub.Subscribe(b.topics.SystemShutdown(), qos, b.handleShutdown); err != nil {
		return fmt.Errorf("subscribing to shutdown topic: %w", err)
	}

	b.logger.Info("bridge started",
		"state_topic", b.topics.AllPrinterStates(),
		"dispatch_topic", b.topics.SchedulerRequest(),
	)
	return nil
}

// handleStateReport processes one agent report. The first report for a
// printer registers it; later reports refresh the cached state; an empty
// payload unregisters it.
func (b *Bridge) handleStateReport(topic string, payload []byte) error {
	printerID, err := printerIDFromTopic(topic)
	if err != nil {
		return err
	}

	if len(payload) == 0 {
		return b.removeAgent(printerID)
	}

	var rep stateReport
	if err := json.Unmarshal(payload, &rep); err != nil {
		return fmt.Errorf("decoding state report for %s: %w", printerID, err)
	}
	if rep.Status.State == "" {
		rep.Status.State = fleet.StateUnknown
	}
	if !rep.Status.State.IsValid() {
		return fmt.Errorf("state report for %s: unknown state %q", printerID, rep.Status.State)
	}

	b.mu.Lock()
	agent, known := b.agents[printerID]
	if !known {
		agent = newAgentAdapter(rep.Backend, b.staleAfter)
		b.agents[printerID] = agent
	}
	b.mu.Unlock()

	agent.update(rep)

	if !known {
		b.registry.Register(printerID, agent, rep.Site, rep.Tags)
		if b.events != nil {
			b.events.PrinterRegistered(printerID, agent.Backend())
		}
	}

	b.logger.Debug("agent state report", "printer", printerID, "state", rep.Status.State)
	return nil
}

// removeAgent handles an agent tombstone. Unknown printers are ignored so
// replayed retained tombstones stay harmless.
func (b *Bridge) removeAgent(printerID string) error {
	b.mu.Lock()
	_, known := b.agents[printerID]
	delete(b.agents, printerID)
	b.mu.Unlock()

	if !known {
		return nil
	}

	if err := b.registry.Unregister(printerID); err != nil && !errors.Is(err, fleet.ErrDeviceNotFound) {
		return err
	}
	if b.events != nil {
		b.events.PrinterUnregistered(printerID)
	}
	return nil
}

// handleShutdown reacts to a remote shutdown command.
func (b *Bridge) handleShutdown(_ string, _ []byte) error {
	b.logger.Info("shutdown command received on system topic")
	if b.onShutdown != nil {
		b.onShutdown()
	}
	return nil
}

// printerIDFromTopic extracts the printer id from a fleet state topic,
// e.g. kiln/fleet/voron-01/state.
func printerIDFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[2] == "" {
		return "", fmt.Errorf("bridge: malformed state topic %q", topic)
	}
	return parts[2], nil
}
