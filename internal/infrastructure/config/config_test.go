package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
site:
  id: "print-farm-01"
  name: "Basement Farm"
fleet:
  query_timeout: 5
  max_workers: 8
database:
  path: "/tmp/kiln-test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  enabled: true
  broker:
    host: "localhost"
    port: 1883
    client_id: "kiln-test"
  qos: 1
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "print-farm-01" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "print-farm-01")
	}
	if cfg.Fleet.QueryTimeout != 5 {
		t.Errorf("Fleet.QueryTimeout = %d, want 5", cfg.Fleet.QueryTimeout)
	}
	if cfg.Fleet.MaxWorkers != 8 {
		t.Errorf("Fleet.MaxWorkers = %d, want 8", cfg.Fleet.MaxWorkers)
	}
	if cfg.Database.Path != "/tmp/kiln-test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/kiln-test.db")
	}
	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	// Minimal config; everything else comes from defaults.
	content := `
site:
  id: "farm"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Fleet.QueryTimeout != 10 {
		t.Errorf("default Fleet.QueryTimeout = %d, want 10", cfg.Fleet.QueryTimeout)
	}
	if cfg.Fleet.MaxWorkers != 20 {
		t.Errorf("default Fleet.MaxWorkers = %d, want 20", cfg.Fleet.MaxWorkers)
	}
	if cfg.Scheduler.DefaultSuccessRate != 0.8 {
		t.Errorf("default Scheduler.DefaultSuccessRate = %v, want 0.8", cfg.Scheduler.DefaultSuccessRate)
	}
	if !cfg.Lock.Persist {
		t.Error("default Lock.Persist = false, want true")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "site: [unclosed"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty site id", func(c *Config) { c.Site.ID = "" }},
		{"zero query timeout", func(c *Config) { c.Fleet.QueryTimeout = 0 }},
		{"zero max workers", func(c *Config) { c.Fleet.MaxWorkers = 0 }},
		{"success rate above 1", func(c *Config) { c.Scheduler.DefaultSuccessRate = 1.5 }},
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"invalid qos", func(c *Config) { c.MQTT.QoS = 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected error, got nil")
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KILN_DATABASE_PATH", "/override/kiln.db")
	t.Setenv("KILN_MQTT_HOST", "broker.local")
	t.Setenv("KILN_FLEET_QUERY_TIMEOUT", "3")

	content := `
site:
  id: "farm"
database:
  path: "/file/kiln.db"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/override/kiln.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want env override", cfg.MQTT.Broker.Host)
	}
	if cfg.Fleet.QueryTimeout != 3 {
		t.Errorf("Fleet.QueryTimeout = %d, want 3 from env", cfg.Fleet.QueryTimeout)
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := defaultConfig()
	if got := cfg.QueryTimeout().Seconds(); got != 10 {
		t.Errorf("QueryTimeout() = %vs, want 10s", got)
	}
	if got := cfg.TelemetryInterval().Seconds(); got != 60 {
		t.Errorf("TelemetryInterval() = %vs, want 60s", got)
	}
}
