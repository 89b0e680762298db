package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the modbus core
// daemon. All configuration is loaded from YAML; secrets can be
// overridden by environment variables.
type Config struct {
	Logging LoggingConfig  `yaml:"logging"`
	MQTT    MQTTConfig     `yaml:"mqtt"`
	Planner PlannerConfig  `yaml:"planner"`
	Devices []DeviceConfig `yaml:"devices"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MQTTConfig contains MQTT broker connection settings for the state sink.
type MQTTConfig struct {
	Broker MQTTBrokerConfig `yaml:"broker"`
	Auth   MQTTAuthConfig   `yaml:"auth"`
	QoS    int              `yaml:"qos"`

	// TopicPrefix is the root of all published state topics.
	TopicPrefix string `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// PlannerConfig tunes register read planning for all devices.
type PlannerConfig struct {
	// MaxBlockSize caps the register count of one read transaction.
	MaxBlockSize int `yaml:"max_block_size"`

	// MergeTolerance is the largest register gap bridged when merging
	// neighbouring descriptors into one span.
	MergeTolerance int `yaml:"merge_tolerance"`
}

// DeviceConfig describes one device instance: which template it uses,
// how to reach it, and the user's dynamic-config selections.
type DeviceConfig struct {
	// Name identifies the device in logs and state topics.
	Name string `yaml:"name"`

	// Template is the path of the device template document.
	Template string `yaml:"template"`

	// Prefix overrides the template's default entity-id prefix.
	Prefix string `yaml:"prefix"`

	// SlaveID overrides the template's default slave id.
	SlaveID uint8 `yaml:"slave_id"`

	// Connection is the modbus endpoint for this device.
	Connection ConnectionConfig `yaml:"connection"`

	// PollInterval is the cycle period in seconds.
	PollInterval int `yaml:"poll_interval"`

	// Selections are the user's dynamic-config parameter values
	// (selected_model, firmware_version, connection_type, ...).
	Selections map[string]string `yaml:"selections"`
}

// ConnectionConfig contains modbus endpoint settings.
type ConnectionConfig struct {
	// Mode is "tcp" or "rtu".
	Mode string `yaml:"mode"`

	// Address is host:port for tcp, the serial device path for rtu.
	Address string `yaml:"address"`

	// Serial parameters, rtu only.
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"`
	StopBits int    `yaml:"stop_bits"`

	// TimeoutSeconds bounds each transaction.
	TimeoutSeconds int `yaml:"timeout"`
}

// Timeout returns the transaction timeout as a Duration.
func (c ConnectionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Interval returns the device's poll interval as a Duration.
func (d DeviceConfig) Interval() time.Duration {
	return time.Duration(d.PollInterval) * time.Second
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern MODBUSCORE_SECTION_KEY, for
// example MODBUSCORE_MQTT_PASSWORD.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "modbuscore",
			},
			QoS:         1,
			TopicPrefix: "modbuscore",
		},
		Planner: PlannerConfig{
			MaxBlockSize:   100,
			MergeTolerance: 2,
		},
	}
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MODBUSCORE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MODBUSCORE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MODBUSCORE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.Planner.MaxBlockSize < 1 || c.Planner.MaxBlockSize > 125 {
		errs = append(errs, "planner.max_block_size must be between 1 and 125")
	}
	if c.Planner.MergeTolerance < 0 {
		errs = append(errs, "planner.merge_tolerance must not be negative")
	}

	if len(c.Devices) == 0 {
		errs = append(errs, "at least one device is required")
	}
	for i, d := range c.Devices {
		where := fmt.Sprintf("devices[%d]", i)
		if d.Name == "" {
			errs = append(errs, where+".name is required")
		}
		if d.Template == "" {
			errs = append(errs, where+".template is required")
		}
		if d.Connection.Mode != "tcp" && d.Connection.Mode != "rtu" {
			errs = append(errs, where+".connection.mode must be tcp or rtu")
		}
		if d.Connection.Address == "" {
			errs = append(errs, where+".connection.address is required")
		}
		if d.PollInterval < 1 {
			errs = append(errs, where+".poll_interval must be at least 1 second")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
