package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
logging:
  level: "debug"
  format: "text"
mqtt:
  broker:
    host: "broker.local"
    port: 8883
    tls: true
    client_id: "test-client"
  qos: 2
  topic_prefix: "plant"
planner:
  max_block_size: 60
  merge_tolerance: 4
devices:
  - name: "inverter"
    template: "templates/inverter.yaml"
    prefix: "inv1"
    slave_id: 3
    poll_interval: 10
    connection:
      mode: "tcp"
      address: "192.168.1.50:502"
      timeout: 5
    selections:
      selected_model: "SUN-6K-SG03LP1-EU"
      battery_config: "lithium"
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

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if !cfg.MQTT.Broker.TLS {
		t.Error("MQTT.Broker.TLS = false, want true")
	}
	if cfg.MQTT.QoS != 2 {
		t.Errorf("MQTT.QoS = %d, want 2", cfg.MQTT.QoS)
	}
	if cfg.Planner.MaxBlockSize != 60 {
		t.Errorf("Planner.MaxBlockSize = %d, want 60", cfg.Planner.MaxBlockSize)
	}
	if len(cfg.Devices) != 1 {
		t.Fatalf("len(Devices) = %d, want 1", len(cfg.Devices))
	}

	dev := cfg.Devices[0]
	if dev.SlaveID != 3 {
		t.Errorf("SlaveID = %d, want 3", dev.SlaveID)
	}
	if dev.Connection.Mode != "tcp" {
		t.Errorf("Connection.Mode = %q, want %q", dev.Connection.Mode, "tcp")
	}
	if dev.Selections["selected_model"] != "SUN-6K-SG03LP1-EU" {
		t.Errorf("Selections[selected_model] = %q", dev.Selections["selected_model"])
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	content := `
devices:
  - name: "meter"
    template: "templates/meter.yaml"
    poll_interval: 30
    connection:
      mode: "rtu"
      address: "/dev/ttyUSB0"
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

	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("default MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.TopicPrefix != "modbuscore" {
		t.Errorf("default MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "modbuscore")
	}
	if cfg.Planner.MaxBlockSize != 100 {
		t.Errorf("default Planner.MaxBlockSize = %d, want 100", cfg.Planner.MaxBlockSize)
	}
	if cfg.Planner.MergeTolerance != 2 {
		t.Errorf("default Planner.MergeTolerance = %d, want 2", cfg.Planner.MergeTolerance)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
mqtt:
  broker:
    host: "file-host"
devices:
  - name: "meter"
    template: "templates/meter.yaml"
    poll_interval: 30
    connection:
      mode: "tcp"
      address: "10.0.0.2:502"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("MODBUSCORE_MQTT_HOST", "env-host")
	t.Setenv("MODBUSCORE_MQTT_USERNAME", "env-user")
	t.Setenv("MODBUSCORE_MQTT_PASSWORD", "env-pass")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "env-host" {
		t.Errorf("MQTT.Broker.Host = %q, want env override %q", cfg.MQTT.Broker.Host, "env-host")
	}
	if cfg.MQTT.Auth.Username != "env-user" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "env-user")
	}
	if cfg.MQTT.Auth.Password != "env-pass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "env-pass")
	}
}

func TestValidate(t *testing.T) {
	validDevice := DeviceConfig{
		Name:         "inverter",
		Template:     "templates/inverter.yaml",
		PollInterval: 10,
		Connection:   ConnectionConfig{Mode: "tcp", Address: "10.0.0.2:502"},
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			modify:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "invalid qos",
			modify:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "block size too large",
			modify:  func(c *Config) { c.Planner.MaxBlockSize = 126 },
			wantErr: "max_block_size",
		},
		{
			name:    "negative tolerance",
			modify:  func(c *Config) { c.Planner.MergeTolerance = -1 },
			wantErr: "merge_tolerance",
		},
		{
			name:    "no devices",
			modify:  func(c *Config) { c.Devices = nil },
			wantErr: "at least one device",
		},
		{
			name:    "missing name",
			modify:  func(c *Config) { c.Devices[0].Name = "" },
			wantErr: "name is required",
		},
		{
			name:    "missing template",
			modify:  func(c *Config) { c.Devices[0].Template = "" },
			wantErr: "template is required",
		},
		{
			name:    "bad connection mode",
			modify:  func(c *Config) { c.Devices[0].Connection.Mode = "ascii" },
			wantErr: "mode must be tcp or rtu",
		},
		{
			name:    "missing address",
			modify:  func(c *Config) { c.Devices[0].Connection.Address = "" },
			wantErr: "address is required",
		},
		{
			name:    "zero poll interval",
			modify:  func(c *Config) { c.Devices[0].PollInterval = 0 },
			wantErr: "poll_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Devices = []DeviceConfig{validDevice}
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConnectionConfig_Timeout(t *testing.T) {
	c := ConnectionConfig{TimeoutSeconds: 5}
	if got := c.Timeout().Seconds(); got != 5 {
		t.Errorf("Timeout() = %vs, want 5s", got)
	}
}
