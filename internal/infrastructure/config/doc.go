// Package config handles loading and validating the daemon's
// configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Sensitive values (broker credentials) should be set via environment
// variables rather than the file. Configuration is loaded once at
// startup; there is no runtime overhead after the initial load.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Devices[0].Name)
package config
