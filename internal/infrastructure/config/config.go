package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for blueland.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	BlueZ     BlueZConfig     `yaml:"bluez"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Socket    SocketConfig    `yaml:"socket"`
	Obex      ObexConfig      `yaml:"obex"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// BlueZConfig contains settings for the BlueZ control-bus connection.
type BlueZConfig struct {
	// Adapter is the local adapter name (e.g. "hci0").
	Adapter string `yaml:"adapter"`

	// AgentPath is the D-Bus object path the pairing agent is exported at.
	AgentPath string `yaml:"agent_path"`
}

// DiscoveryConfig contains active-scan settings.
type DiscoveryConfig struct {
	// WindowSeconds is the length of a discovery window in seconds.
	// Default: 10
	WindowSeconds int `yaml:"window_seconds"`
}

// SocketConfig contains unix event-socket settings.
type SocketConfig struct {
	// Path is the filesystem path of the event socket.
	// Default: $XDG_RUNTIME_DIR/blueland/blueland.sock
	Path string `yaml:"path"`
}

// ObexConfig contains inbound/outbound object-push settings.
type ObexConfig struct {
	// Enabled controls whether the obex agent is registered at all.
	Enabled bool `yaml:"enabled"`

	// AutoAccept skips the prompt for inbound pushes and accepts every file.
	AutoAccept bool `yaml:"auto_accept"`

	// DownloadDir is where accepted inbound files are stored.
	// Default: the user's home directory.
	DownloadDir string `yaml:"download_dir"`

	// AgentPath is the D-Bus object path the obex agent is exported at.
	AgentPath string `yaml:"agent_path"`

	// RegisterAttempts bounds the registration retries against obexd,
	// which is D-Bus activated and may be slow to appear.
	// Default: 5
	RegisterAttempts int `yaml:"register_attempts"`

	// RegisterInitialDelay is the first retry delay in milliseconds;
	// subsequent delays double. Default: 500
	RegisterInitialDelay int `yaml:"register_initial_delay_ms"`
}

// MQTTConfig contains settings for the optional MQTT event mirror.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
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

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains settings for the optional RSSI telemetry sink.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// A missing config file is not an error: blueland is a desktop daemon and
// must start on a zero-config first run. Any other read failure, a parse
// failure, or a validation failure is fatal.
//
// Environment variables follow the pattern: BLUELAND_SECTION_KEY
// For example: BLUELAND_SOCKET_PATH, BLUELAND_MQTT_HOST
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Run on defaults.
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// DefaultSocketPath returns the per-user runtime path of the event socket.
// It honours XDG_RUNTIME_DIR and falls back to /run/user/<uid>.
func DefaultSocketPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = filepath.Join("/run/user", strconv.Itoa(os.Getuid()))
	}
	return filepath.Join(dir, "blueland", "blueland.sock")
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/tmp"
	}

	return &Config{
		BlueZ: BlueZConfig{
			Adapter:   "hci0",
			AgentPath: "/org/bluez/Blueland/Agent",
		},
		Discovery: DiscoveryConfig{
			WindowSeconds: 10,
		},
		Socket: SocketConfig{
			Path: DefaultSocketPath(),
		},
		Obex: ObexConfig{
			Enabled:              true,
			AutoAccept:           false,
			DownloadDir:          home,
			AgentPath:            "/org/bluez/Blueland/ObexAgent",
			RegisterAttempts:     5,
			RegisterInitialDelay: 500,
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "blueland",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		InfluxDB: InfluxDBConfig{
			Enabled:       false,
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: BLUELAND_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BLUELAND_ADAPTER"); v != "" {
		cfg.BlueZ.Adapter = v
	}
	if v := os.Getenv("BLUELAND_SOCKET_PATH"); v != "" {
		cfg.Socket.Path = v
	}
	if v := os.Getenv("BLUELAND_DOWNLOAD_DIR"); v != "" {
		cfg.Obex.DownloadDir = v
	}

	// MQTT
	if v := os.Getenv("BLUELAND_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("BLUELAND_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("BLUELAND_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("BLUELAND_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("BLUELAND_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.BlueZ.Adapter == "" {
		errs = append(errs, "bluez.adapter is required")
	}
	if !strings.HasPrefix(c.BlueZ.AgentPath, "/") {
		errs = append(errs, "bluez.agent_path must be an absolute D-Bus object path")
	}
	if c.Discovery.WindowSeconds <= 0 {
		errs = append(errs, "discovery.window_seconds must be positive")
	}
	if c.Socket.Path == "" {
		errs = append(errs, "socket.path is required")
	}
	if c.Obex.Enabled {
		if !strings.HasPrefix(c.Obex.AgentPath, "/") {
			errs = append(errs, "obex.agent_path must be an absolute D-Bus object path")
		}
		if c.Obex.RegisterAttempts <= 0 {
			errs = append(errs, "obex.register_attempts must be positive")
		}
	}
	if c.MQTT.Enabled {
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
	}
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set BLUELAND_INFLUXDB_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// DiscoveryWindow returns the discovery window length as a Duration.
func (c *Config) DiscoveryWindow() time.Duration {
	return time.Duration(c.Discovery.WindowSeconds) * time.Second
}

// ObexRegisterDelay returns the initial obexd registration retry delay.
func (c *Config) ObexRegisterDelay() time.Duration {
	return time.Duration(c.Obex.RegisterInitialDelay) * time.Millisecond
}
