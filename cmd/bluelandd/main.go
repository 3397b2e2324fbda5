// blueland - bluetooth pairing and device management daemon
//
// blueland sits between BlueZ on the system bus and desktop tooling on the
// session bus. It answers pairing and service authorization prompts as the
// default agent, exposes a small device management API as
// org.blueland.Frontend, streams device sightings over a unix socket, and
// handles OBEX file transfers in both directions.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"

	"github.com/blueland/blueland/internal/agent"
	"github.com/blueland/blueland/internal/bluez"
	"github.com/blueland/blueland/internal/broadcast"
	"github.com/blueland/blueland/internal/control"
	"github.com/blueland/blueland/internal/device"
	"github.com/blueland/blueland/internal/discovery"
	"github.com/blueland/blueland/internal/frontend"
	"github.com/blueland/blueland/internal/infrastructure/config"
	"github.com/blueland/blueland/internal/infrastructure/influxdb"
	"github.com/blueland/blueland/internal/infrastructure/logging"
	"github.com/blueland/blueland/internal/infrastructure/mqtt"
	"github.com/blueland/blueland/internal/obex"
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

// agentCapability tells bluetoothd what the agent can do. DisplayYesNo
// routes numeric-comparison confirmations here instead of keyboard entry.
const agentCapability = "DisplayYesNo"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting blueland",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Connect to BlueZ on the system bus
	bz, err := bluez.Connect(cfg.BlueZ.Adapter)
	if err != nil {
		return fmt.Errorf("connecting to bluez: %w", err)
	}
	defer func() {
		log.Info("closing system bus connection")
		if closeErr := bz.Close(); closeErr != nil {
			log.Error("error closing system bus", "error", closeErr)
		}
	}()
	bz.SetLogger(log)
	log.Info("bluez connected", "adapter", cfg.BlueZ.Adapter)

	// Device registry, enumerated from BlueZ's object tree
	registry := device.NewRegistry(bz)
	registry.SetLogger(log)

	// Unix socket event feed
	bcast := broadcast.New(cfg.Socket.Path)
	bcast.SetLogger(log)
	if err := bcast.Start(); err != nil {
		return fmt.Errorf("starting event socket: %w", err)
	}
	defer func() {
		log.Info("closing event socket")
		if closeErr := bcast.Close(); closeErr != nil {
			log.Error("error closing event socket", "error", closeErr)
		}
	}()

	// MQTT mirror (optional)
	var mirror *mqtt.Mirror
	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mirror = mqtt.NewMirror(mqttClient)
		log.Info("MQTT mirror connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT mirror disabled")
	}

	// RSSI telemetry (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Every observation fans out to the socket feed and, when enabled, the
	// MQTT mirror and the RSSI sink.
	registry.SetObserver(func(d device.Device) {
		bcast.Broadcast(broadcast.Event{
			Name: d.Name,
			Mac:  d.Address,
			Path: string(d.Path),
		})
		if mirror != nil {
			if err := mirror.DeviceObserved(d); err != nil {
				log.Warn("mirroring observation failed", "device", d.Display(), "error", err)
			}
		}
		if influxClient != nil && d.RSSI != nil {
			influxClient.WriteRSSI(d.Address, d.Name, *d.RSSI)
		}
	})

	// Feed live sightings into the registry while scans run
	if err := bz.WatchDeviceAdded(ctx, func(d device.Device) {
		registry.IngestObserved(d)
	}); err != nil {
		return fmt.Errorf("watching device signals: %w", err)
	}

	// Prime the registry with already-known devices; failure here only
	// delays the cache until the first discovery.
	if err := registry.Reconcile(ctx); err != nil {
		log.Warn("initial device reconcile failed", "error", err)
	} else {
		log.Info("device registry primed", "devices", registry.Count())
	}

	// Pairing agent on the system bus
	prompter := agent.NewZenityPrompter()
	prompter.SetLogger(log)

	pairAgent := agent.New(registry, prompter, log)
	agentPath := dbus.ObjectPath(cfg.BlueZ.AgentPath)
	if err := agent.Export(bz.Conn(), pairAgent, agentPath, bluez.AgentInterface); err != nil {
		return err
	}
	if err := bz.RegisterAgent(agentPath, agentCapability); err != nil {
		return fmt.Errorf("registering pairing agent: %w", err)
	}
	log.Info("pairing agent registered", "path", agentPath, "capability", agentCapability)

	// Session bus for the frontend and obexd
	session, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connecting to session bus: %w", err)
	}
	defer func() {
		log.Info("closing session bus connection")
		if closeErr := session.Close(); closeErr != nil {
			log.Error("error closing session bus", "error", closeErr)
		}
	}()

	controller := control.NewController(bz, registry)
	controller.SetLogger(log)

	scanner := discovery.NewScanner(bz, cfg.DiscoveryWindow())
	scanner.SetLogger(log)

	// File transfer through obexd (optional)
	var sender frontend.FileSender
	if cfg.Obex.Enabled {
		obexClient := obex.NewClient(session)
		obexClient.SetLogger(log)

		obexAgent := obex.NewAgent(obexClient, prompter, cfg.Obex.AutoAccept, cfg.Obex.DownloadDir, log)
		obexAgentPath := dbus.ObjectPath(cfg.Obex.AgentPath)
		if err := obex.Export(session, obexAgent, obexAgentPath); err != nil {
			return err
		}
		if err := obexClient.RegisterAgent(ctx, obexAgentPath, cfg.Obex.RegisterAttempts, cfg.ObexRegisterDelay()); err != nil {
			// Outbound pushes still work; only incoming authorization is lost.
			log.Warn("obex agent registration failed, incoming transfers disabled", "error", err)
		} else {
			log.Info("obex agent registered", "path", obexAgentPath, "download_dir", cfg.Obex.DownloadDir)
		}

		obexSender := obex.NewSender(obexClient, registry)
		obexSender.SetLogger(log)
		sender = obexSender
	} else {
		log.Info("obex disabled")
	}

	// Frontend service on the session bus
	svc := frontend.NewService(ctx, frontend.Options{
		Registry:   registry,
		Scanner:    scanner,
		Controller: controller,
		Sender:     sender,
		SocketPath: cfg.Socket.Path,
		Logger:     log,
	})
	if err := frontend.Export(session, svc); err != nil {
		return err
	}
	log.Info("frontend ready", "bus_name", frontend.BusName, "socket", cfg.Socket.Path)

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("blueland stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses BLUELAND_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("BLUELAND_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
