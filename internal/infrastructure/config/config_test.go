package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stonefield-labs/omnibridge/internal/bridges/omni"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
site:
  id: "test-site"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  enabled: true
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
controllers:
  - host: "192.168.1.50"
    port: 4369
    key_part1: "01-23-45-67-89-AB-CD-EF"
    key_part2: "FE-DC-BA-98-76-54-32-10"
refresh:
  update_interval: 250ms
  event_log_limit: 25
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}

	if len(cfg.Controllers) != 1 || cfg.Controllers[0].Address() != "192.168.1.50:4369" {
		t.Errorf("Controllers = %+v, want one controller at 192.168.1.50:4369", cfg.Controllers)
	}

	if cfg.Refresh.UpdateInterval != 250*time.Millisecond {
		t.Errorf("Refresh.UpdateInterval = %v, want 250ms", cfg.Refresh.UpdateInterval)
	}
}

func TestLoad_DefaultsControllerPort(t *testing.T) {
	content := `
controllers:
  - host: "192.168.1.50"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Controllers[0].Port != 4369 {
		t.Errorf("Controllers[0].Port = %d, want default 4369", cfg.Controllers[0].Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Site:     SiteConfig{ID: "site-001"},
			Database: DatabaseConfig{Path: "/data/omnibridge.db"},
			MQTT:     MQTTConfig{QoS: 1},
			Refresh:  RefreshConfig{UpdateInterval: 100 * time.Millisecond},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"missing site ID", func(c *Config) { c.Site.ID = "" }, true},
		{"missing database path", func(c *Config) { c.Database.Path = "" }, true},
		{"invalid QoS", func(c *Config) { c.MQTT.QoS = 3 }, true},
		{"zero update interval", func(c *Config) { c.Refresh.UpdateInterval = 0 }, true},
		{
			"influx enabled without url",
			func(c *Config) { c.InfluxDB = InfluxDBConfig{Enabled: true, Bucket: "omni"} },
			true,
		},
		{
			"controller with keystore lookup",
			func(c *Config) {
				c.Controllers = []omni.Config{{Host: "192.168.1.50", Port: 4369}}
			},
			false,
		},
		{
			"controller without host",
			func(c *Config) {
				c.Controllers = []omni.Config{{Port: 4369}}
			},
			true,
		},
		{
			"controller with bad key",
			func(c *Config) {
				c.Controllers = []omni.Config{{
					Host:     "192.168.1.50",
					Port:     4369,
					KeyPart1: "not-a-key",
					KeyPart2: "FE-DC-BA-98-76-54-32-10",
				}}
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("OMNIBRIDGE_DATABASE_PATH", "/custom/path.db")
	t.Setenv("OMNIBRIDGE_MQTT_HOST", "mqtt.example.com")
	t.Setenv("OMNIBRIDGE_MQTT_USERNAME", "testuser")
	t.Setenv("OMNIBRIDGE_MQTT_PASSWORD", "testpass")
	t.Setenv("OMNIBRIDGE_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Site.ID == "" {
		t.Error("defaultConfig should have non-empty Site.ID")
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.Refresh.FullRefreshSchedule == "" {
		t.Error("defaultConfig should have a full refresh schedule")
	}
}
