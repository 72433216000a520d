package mqtt

import (
	"strings"
	"sync"
	"testing"

	"github.com/codeofaxel/Kiln-sub005/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "kiln-test",
			TLS:      false,
		},
		Auth: config.MQTTAuthConfig{
			Username: "",
			Password: "",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// =============================================================================
// Zero-Value Client Tests
// =============================================================================

func TestCloseNil(t *testing.T) {
	client := &Client{}
	err := client.Close()
	if err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	client := &Client{}

	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

func TestSetLogger(t *testing.T) {
	client := &Client{}

	logger := &mockLogger{}
	client.SetLogger(logger)

	if client.getLogger() == nil {
		t.Error("getLogger() = nil after SetLogger()")
	}

	client.SetLogger(nil)

	if client.getLogger() != nil {
		t.Error("getLogger() should be nil after SetLogger(nil)")
	}
}

// =============================================================================
// Options Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 {
		t.Fatalf("Servers count = %d, want 1", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://127.0.0.1:1883" {
		t.Errorf("broker URL = %q, want tcp://127.0.0.1:1883", got)
	}
	if opts.ClientID != "kiln-test" {
		t.Errorf("ClientID = %q, want kiln-test", opts.ClientID)
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect should be enabled")
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	opts := buildClientOptions(cfg)

	if got := opts.Servers[0].Scheme; got != "ssl" {
		t.Errorf("broker scheme = %q, want ssl", got)
	}
	if opts.TLSConfig == nil {
		t.Fatal("TLSConfig should be set when TLS is enabled")
	}
}

func TestConfigureLWT(t *testing.T) {
	cfg := testConfig()
	opts := buildClientOptions(cfg)
	configureLWT(opts, cfg.Broker.ClientID)

	if !opts.WillEnabled {
		t.Fatal("will should be enabled")
	}
	if opts.WillTopic != "kiln/system/status" {
		t.Errorf("WillTopic = %q, want kiln/system/status", opts.WillTopic)
	}
	if !opts.WillRetained {
		t.Error("will should be retained")
	}
}

// =============================================================================
// Topics Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name: "PrinterState",
			builder: func() string {
				return Topics{}.PrinterState("voron-01")
			},
			expected: "kiln/fleet/voron-01/state",
		},
		{
			name: "PrinterTelemetry",
			builder: func() string {
				return Topics{}.PrinterTelemetry("voron-01")
			},
			expected: "kiln/fleet/voron-01/telemetry",
		},
		{
			name: "PrinterRegistered",
			builder: func() string {
				return Topics{}.PrinterRegistered("voron-01")
			},
			expected: "kiln/fleet/voron-01/registered",
		},
		{
			name: "PrinterUnregistered",
			builder: func() string {
				return Topics{}.PrinterUnregistered("voron-01")
			},
			expected: "kiln/fleet/voron-01/unregistered",
		},
		{
			name: "FleetStatus",
			builder: func() string {
				return Topics{}.FleetStatus()
			},
			expected: "kiln/fleet/status",
		},
		{
			name: "SchedulerRequest",
			builder: func() string {
				return Topics{}.SchedulerRequest()
			},
			expected: "kiln/scheduler/request",
		},
		{
			name: "SchedulerResponse",
			builder: func() string {
				return Topics{}.SchedulerResponse("req-42")
			},
			expected: "kiln/scheduler/response/req-42",
		},
		{
			name: "LockVersion",
			builder: func() string {
				return Topics{}.LockVersion("voron-01")
			},
			expected: "kiln/lock/voron-01/version",
		},
		{
			name: "LockReleased",
			builder: func() string {
				return Topics{}.LockReleased("voron-01")
			},
			expected: "kiln/lock/voron-01/released",
		},
		{
			name: "SystemStatus",
			builder: func() string {
				return Topics{}.SystemStatus()
			},
			expected: "kiln/system/status",
		},
		{
			name: "SystemShutdown",
			builder: func() string {
				return Topics{}.SystemShutdown()
			},
			expected: "kiln/system/shutdown",
		},
		{
			name: "AllPrinterStates",
			builder: func() string {
				return Topics{}.AllPrinterStates()
			},
			expected: "kiln/fleet/+/state",
		},
		{
			name: "AllPrinterTelemetry",
			builder: func() string {
				return Topics{}.AllPrinterTelemetry()
			},
			expected: "kiln/fleet/+/telemetry",
		},
		{
			name: "AllLockEvents",
			builder: func() string {
				return Topics{}.AllLockEvents()
			},
			expected: "kiln/lock/+/+",
		},
		{
			name: "AllTopics",
			builder: func() string {
				return Topics{}.AllTopics()
			},
			expected: "kiln/#",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.builder()
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}

// =============================================================================
// Payload Tests
// =============================================================================

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("kiln-core")
	if !containsAll(online, `"status":"online"`, `"client_id":"kiln-core"`) {
		t.Errorf("online payload missing fields: %s", online)
	}

	offline := buildOfflinePayload("kiln-core")
	if !containsAll(offline, `"status":"offline"`, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload missing fields: %s", offline)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// mockLogger implements Logger interface for testing.
type mockLogger struct {
	errors []string
	warns  []string
	mu     sync.Mutex
}

func (l *mockLogger) Error(msg string, args ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Warn(msg string, args ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}
