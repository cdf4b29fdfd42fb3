// Command ohbridge exposes openHAB items as HomeKit accessories.
//
// Every configured accessory is validated against its openHAB item at
// startup, then served over HAP, a diagnostic HTTP API and (optionally)
// MQTT command and state topics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/ohbridge/migrations"

	"github.com/nerrad567/ohbridge/internal/accessory"
	"github.com/nerrad567/ohbridge/internal/api"
	"github.com/nerrad567/ohbridge/internal/audit"
	"github.com/nerrad567/ohbridge/internal/events"
	"github.com/nerrad567/ohbridge/internal/homekit"
	"github.com/nerrad567/ohbridge/internal/infrastructure/config"
	"github.com/nerrad567/ohbridge/internal/infrastructure/database"
	"github.com/nerrad567/ohbridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/ohbridge/internal/infrastructure/logging"
	"github.com/nerrad567/ohbridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/ohbridge/internal/openhab"
)

// Version information, set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultTokenTTL = 24 * time.Hour

func main() {
	issueFor := flag.String("issue-token", "", "print an API token for `subject` and exit")
	ttl := flag.Duration("token-ttl", defaultTokenTTL, "lifetime of the token printed by -issue-token")
	flag.Parse()

	if *issueFor != "" {
		if err := issueToken(os.Stdout, config.PathFromEnv(), *issueFor, *ttl); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// issueToken signs a bearer token with the configured JWT secret.
func issueToken(w io.Writer, configPath, subject string, ttl time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	token, err := api.IssueToken(cfg.Security.JWT.Secret, subject, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

// run wires the bridge together and blocks until ctx is cancelled.
// Deferred Close calls unwind in reverse start order.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting ohbridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := config.PathFromEnv()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Database and audit trail
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)
	auditRepo := audit.NewSQLiteRepository(db.DB)

	// openHAB
	registry := openhab.New(cfg.OpenHAB)
	registry.SetLogger(log.Component("openhab"))
	if hcErr := registry.HealthCheck(ctx); hcErr != nil {
		log.Warn("openHAB not reachable, accessories may fail to build",
			"url", cfg.OpenHAB.BaseURL(), "error", hcErr)
	}

	mqttClient, err := connectMQTT(cfg.MQTT, log)
	if err != nil {
		return err
	}
	if mqttClient != nil {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
	}

	influxClient, err := connectInflux(cfg.InfluxDB, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
	}

	// Event fan-out
	dispatcher := events.NewDispatcher(events.DefaultQueueSize, events.NewAuditSink(auditRepo))
	dispatcher.SetLogger(log.Component("events"))
	if mqttClient != nil {
		dispatcher.AddSink(events.NewStateSink(mqttClient))
	}
	if influxClient != nil {
		dispatcher.AddSink(events.NewHistorySink(influxClient))
	}
	var hub *api.Hub
	if cfg.API.Enabled {
		hub = api.NewHub(cfg.WebSocket, log.Component("websocket"))
		dispatcher.AddSink(events.NewBroadcastSink(hub))
	}

	// Accessories
	accs, buildErrs := accessory.CreateAll(ctx, accessory.Deps{
		Registry:     registry,
		Sink:         dispatcher,
		Logger:       log.Component("accessory"),
		Manufacturer: cfg.Bridge.Manufacturer,
		Firmware:     version,
	}, accessoryConfigs(cfg.Accessories))
	recordConstruction(ctx, auditRepo, accs, buildErrs, log)
	index := accessory.NewIndex(accs)
	log.Info("accessories built", "created", index.Len(), "failed", len(buildErrs))

	var host *homekit.Host
	if cfg.Bridge.Enabled {
		var bindErrs []error
		host, bindErrs = homekit.NewHost(cfg.Bridge, version, index.All(), log.Component("homekit"))
		if len(bindErrs) > 0 {
			log.Warn("some accessories are not published to HomeKit", "skipped", len(bindErrs))
		}
		dispatcher.AddSink(host)
	} else {
		log.Info("HomeKit bridge disabled")
	}

	// The dispatcher outlives ctx so that events raised during shutdown
	// still reach sinks that are not yet closed.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatchDone := make(chan struct{})
	go func() {
		dispatcher.Run(dispatchCtx)
		close(dispatchDone)
	}()
	defer func() {
		stopDispatch()
		<-dispatchDone
		log.Info("event dispatcher stopped", "dropped", dispatcher.Dropped())
	}()

	if mqttClient != nil {
		commands := events.NewCommandHandler(index, log.Component("commands"))
		if subErr := mqttClient.Subscribe(commands.Topic(), byte(cfg.MQTT.QoS), commands.HandleMessage); subErr != nil {
			return fmt.Errorf("subscribing to command topics: %w", subErr)
		}
		log.Info("MQTT command topics subscribed", "topic", commands.Topic())
	}

	if cfg.API.Enabled {
		go hub.Run(ctx)

		checks := map[string]api.HealthChecker{
			"database": db,
			"openhab":  registry,
		}
		if mqttClient != nil {
			checks["mqtt"] = mqttClient
		}
		apiDeps := api.Deps{
			Config:      cfg.API,
			WS:          cfg.WebSocket,
			Security:    cfg.Security,
			Logger:      log.Component("api"),
			Accessories: index,
			AuditRepo:   auditRepo,
			Checks:      checks,
			Events:      dispatcher,
			Hub:         hub,
			Version:     version,
		}
		if influxClient != nil {
			checks["influxdb"] = influxClient
			apiDeps.History = influxClient
		}

		srv, apiErr := api.New(apiDeps)
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := srv.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		if cfg.Security.JWT.Secret == "" {
			log.Warn("security.jwt.secret not set, characteristic writes over the API are unauthenticated")
		}
	} else {
		log.Info("API disabled")
	}

	hapDone := make(chan error, 1)
	if host != nil {
		go func() { hapDone <- host.ListenAndServe(ctx) }()
		log.Info("HomeKit bridge serving",
			"name", cfg.Bridge.Name,
			"port", cfg.Bridge.Port,
			"accessories", host.Len(),
		)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, cleaning up")
	case hapErr := <-hapDone:
		if hapErr != nil && !errors.Is(hapErr, context.Canceled) {
			return fmt.Errorf("homekit: %w", hapErr)
		}
	}

	log.Info("ohbridge stopped")
	return nil
}

// connectMQTT returns nil when MQTT is disabled.
func connectMQTT(cfg config.MQTTConfig, log *logging.Logger) (*mqtt.Client, error) {
	if !cfg.Enabled {
		log.Info("MQTT disabled")
		return nil, nil
	}
	client, err := mqtt.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log.Component("mqtt"))
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
	)
	return client, nil
}

// connectInflux returns nil when InfluxDB is disabled.
func connectInflux(cfg config.InfluxDBConfig, log *logging.Logger) (*influxdb.Client, error) {
	if !cfg.Enabled {
		log.Info("InfluxDB disabled")
		return nil, nil
	}
	client, err := influxdb.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected", "url", cfg.URL, "org", cfg.Org, "bucket", cfg.Bucket)
	return client, nil
}

func accessoryConfigs(entries []config.AccessoryConfig) []accessory.Config {
	out := make([]accessory.Config, 0, len(entries))
	for _, e := range entries {
		out = append(out, accessory.Config{
			Kind:     accessory.Kind(e.Kind),
			Name:     e.Name,
			Item:     e.Item,
			Inverted: e.Inverted,
			Items:    e.Items,
		})
	}
	return out
}

// recordConstruction writes one audit entry per startup outcome.
func recordConstruction(ctx context.Context, repo audit.Repository, accs []accessory.Accessory, errs []error, log *logging.Logger) {
	for _, acc := range accs {
		info := acc.Info()
		entry := &audit.AuditLog{
			Action:    audit.ActionAccessoryCreated,
			Accessory: info.Name,
			Serial:    info.SerialNumber,
			Source:    "startup",
			Details:   map[string]any{"kind": string(info.Kind)},
		}
		if err := repo.Create(ctx, entry); err != nil {
			log.Warn("failed to record accessory creation", "name", info.Name, "error", err)
		}
	}
	for _, buildErr := range errs {
		entry := &audit.AuditLog{
			Action:  audit.ActionAccessoryFailed,
			Source:  "startup",
			Details: map[string]any{"error": buildErr.Error()},
		}
		var ce *accessory.ConstructionError
		if errors.As(buildErr, &ce) {
			entry.Accessory = ce.Name
			entry.Serial = accessory.SerialNumber(ce.Name)
			entry.Details["kind"] = string(ce.Kind)
		}
		if err := repo.Create(ctx, entry); err != nil {
			log.Warn("failed to record accessory failure", "error", err)
		}
	}
}
