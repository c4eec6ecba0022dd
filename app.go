package main

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/kwv/starchart/config"
	"github.com/kwv/starchart/fleet"
	"github.com/kwv/starchart/records"
	"github.com/kwv/starchart/relay"
	"github.com/kwv/starchart/traders"
)

// App holds the application state shared by every command.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Client  *traders.Client
	Store   records.Store
	Catalog *records.Catalog
	Tracker *fleet.AgentTracker

	// Publisher is nil until ConnectRelay finds a broker.
	Publisher *relay.Publisher

	relay *relay.Client
}

// AppOptions are the command-line switches that shape the App.
type AppOptions struct {
	// Offline keeps records in memory instead of MongoDB.
	Offline bool
}

// newLogger creates a logger with "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// NewApp connects the API client, its response cache and the record store.
// Without a Mongo connection string, or with Offline set, records live in
// memory for the life of the process.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger, opts AppOptions) (*App, error) {
	var cache traders.Cache = traders.NullCache{}
	if cfg.Redis.Addr != "" {
		rc, err := traders.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("Response cache disabled", "addr", cfg.Redis.Addr, "err", err)
		} else {
			cache = rc
		}
	}

	retry := traders.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.API.MaxAttempts

	client := traders.New(
		traders.WithBaseURL(cfg.API.BaseURL),
		traders.WithToken(cfg.API.Token),
		traders.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		traders.WithRetryPolicy(retry),
		traders.WithCache(cache, cfg.Redis.TTL),
		traders.WithLogger(logger),
	)

	var store records.Store
	switch {
	case opts.Offline:
		store = records.NewMemoryStore()
	case cfg.Mongo.URI == "":
		logger.Warn("DB_CONN_STRING not set, records are kept in memory")
		store = records.NewMemoryStore()
	default:
		ms, err := records.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, logger)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		store = ms
	}

	return newApp(ctx, cfg, logger, client, store)
}

// newApp wires already-built dependencies together and seeds the agent
// tracker from the store.
func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger, client *traders.Client, store records.Store) (*App, error) {
	catalog := records.NewCatalog(client, store, logger)
	catalog.Concurrency = cfg.API.Concurrency

	agents, err := store.AllAgents(ctx)
	if err != nil {
		return nil, err
	}
	tracker := fleet.NewAgentTracker()
	tracker.Load(agents)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Client:  client,
		Store:   store,
		Catalog: catalog,
		Tracker: tracker,
	}, nil
}

// ConnectRelay starts the MQTT connection when a broker is configured.
// It is safe to call more than once.
func (a *App) ConnectRelay() error {
	if a.Publisher != nil {
		return nil
	}
	rc, err := relay.Connect(a.Config.MQTT, a.Logger)
	if err != nil {
		return err
	}
	if rc == nil {
		return nil
	}
	a.relay = rc
	a.Publisher = relay.NewPublisher(rc.MQTT(), a.Config.MQTT.WithEnv().PublishPrefix, a.Logger)
	return nil
}

// Pilot returns a pilot flying ships through the app's client.
func (a *App) Pilot() *fleet.Pilot {
	return fleet.NewPilot(a.Client, a.Logger)
}

// Close releases every connection the app opened.
func (a *App) Close(ctx context.Context) error {
	if a.relay != nil {
		a.relay.Disconnect()
	}
	return errors.Join(a.Store.Close(ctx), a.Client.Close())
}
