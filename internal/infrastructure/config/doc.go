// Package config handles loading and validating blueland configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// A missing config file is tolerated so the daemon starts with sensible
// defaults on a fresh desktop session; broker credentials and tokens for
// the optional MQTT/InfluxDB sinks should be supplied via environment
// variables rather than committed to the config file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Socket.Path)
package config
