// Modbus Core - Device Template Engine
//
// This is the main entry point for the Modbus Core daemon. It loads
// device templates, resolves each device's dynamic configuration,
// plans register reads, and publishes decoded state over MQTT.
//
// SIGHUP re-reads the configuration file and rebuilds every device
// instance in place; polling continues with the new instances.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nordvik-automation/modbus-core/internal/infrastructure/config"
	"github.com/nordvik-automation/modbus-core/internal/infrastructure/logging"
	"github.com/nordvik-automation/modbus-core/internal/infrastructure/mqtt"
	"github.com/nordvik-automation/modbus-core/internal/instance"
	"github.com/nordvik-automation/modbus-core/internal/plan"
	"github.com/nordvik-automation/modbus-core/internal/poller"
	"github.com/nordvik-automation/modbus-core/internal/template"
	"github.com/nordvik-automation/modbus-core/internal/transport"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// device bundles everything needed to poll one physical device and to
// rebuild its instance on reload.
type device struct {
	name   string
	poller *poller.Poller
	conn   *transport.Conn
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Modbus Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "devices", len(cfg.Devices))

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		mqttClient.Close()
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	sink := mqtt.NewStateSink(mqttClient)

	// Build one instance, connection, and poller per configured device
	devices := make([]*device, 0, len(cfg.Devices))
	defer func() {
		for _, dev := range devices {
			if closeErr := dev.conn.Close(); closeErr != nil {
				log.Error("error closing modbus connection", "device", dev.name, "error", closeErr)
			}
		}
	}()

	for i := range cfg.Devices {
		dev, buildErr := buildDevice(&cfg.Devices[i], cfg.Planner, sink, log)
		if buildErr != nil {
			return fmt.Errorf("device %q: %w", cfg.Devices[i].Name, buildErr)
		}
		devices = append(devices, dev)
		log.Info("device initialised",
			"device", dev.name,
			"template", cfg.Devices[i].Template,
			"reads", len(dev.poller.Instance().Reads()),
		)
	}

	// Start pollers
	var wg sync.WaitGroup
	for _, dev := range devices {
		wg.Add(1)
		go func(d *device) {
			defer wg.Done()
			if runErr := d.poller.Run(ctx); runErr != nil && ctx.Err() == nil {
				log.Error("poller stopped", "device", d.name, "error", runErr)
			}
		}(dev)
	}

	log.Info("initialisation complete, polling started")

	// Reload on SIGHUP until the shutdown signal arrives
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received, cleaning up")
			wg.Wait()
			log.Info("Modbus Core stopped")
			return nil
		case <-hup:
			log.Info("SIGHUP received, reloading configuration")
			if reloadErr := reload(configPath, cfg.Planner, devices, log); reloadErr != nil {
				log.Error("reload failed, keeping current instances", "error", reloadErr)
			}
		}
	}
}

// buildDevice loads the device's template, resolves its dynamic
// configuration, opens the modbus connection, and wires the poller.
func buildDevice(dc *config.DeviceConfig, pc config.PlannerConfig, sink poller.Sink, log *logging.Logger) (*device, error) {
	inst, err := buildInstance(dc, pc, log)
	if err != nil {
		return nil, err
	}

	conn, err := transport.Connect(transport.Config{
		Mode:     dc.Connection.Mode,
		Address:  dc.Connection.Address,
		BaudRate: dc.Connection.BaudRate,
		DataBits: dc.Connection.DataBits,
		Parity:   dc.Connection.Parity,
		StopBits: dc.Connection.StopBits,
		Timeout:  dc.Connection.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}

	p, err := poller.New(inst, conn, sink, dc.Interval())
	if err != nil {
		conn.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, err
	}
	p.SetLogger(log.With("device", dc.Name))

	return &device{name: dc.Name, poller: p, conn: conn}, nil
}

// plannerOptions converts the validated planner config into plan
// options. Config validation has already bounded max_block_size to
// 1..125 and merge_tolerance to >= 0, so the narrowing is safe.
func plannerOptions(pc config.PlannerConfig) plan.Options {
	return plan.Options{
		MaxBlockSize:   uint16(pc.MaxBlockSize),
		MergeTolerance: uint16(pc.MergeTolerance),
	}
}

// buildInstance resolves one device instance from its template and
// selections. Used at startup and again on every reload.
func buildInstance(dc *config.DeviceConfig, pc config.PlannerConfig, log *logging.Logger) (*instance.Instance, error) {
	tpl, err := template.Load(dc.Template)
	if err != nil {
		return nil, fmt.Errorf("loading template: %w", err)
	}

	inst, err := instance.New(tpl, dc.Selections, instance.Options{
		Prefix:  dc.Prefix,
		SlaveID: dc.SlaveID,
		Plan:    plannerOptions(pc),
		Logger:  log.With("device", dc.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("resolving instance: %w", err)
	}
	return inst, nil
}

// reload re-reads the configuration file and swaps a fresh instance
// into each running poller. Devices added or removed in the file are
// ignored until restart; connections are never reopened here.
func reload(configPath string, pc config.PlannerConfig, devices []*device, log *logging.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	byName := make(map[string]*config.DeviceConfig, len(cfg.Devices))
	for i := range cfg.Devices {
		byName[cfg.Devices[i].Name] = &cfg.Devices[i]
	}

	for _, dev := range devices {
		dc, ok := byName[dev.name]
		if !ok {
			log.Warn("device missing from reloaded config, keeping current instance", "device", dev.name)
			continue
		}
		inst, buildErr := buildInstance(dc, pc, log)
		if buildErr != nil {
			log.Error("rebuild failed, keeping current instance", "device", dev.name, "error", buildErr)
			continue
		}
		dev.poller.Swap(inst)
		log.Info("device instance reloaded", "device", dev.name, "reads", len(inst.Reads()))
	}
	return nil
}

// getConfigPath returns the configuration file path.
// Uses MODBUSCORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MODBUSCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
