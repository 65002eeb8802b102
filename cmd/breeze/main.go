package main

import (
	"flag"
	"fmt"
	stdlog "log"
	"os"

	_ "modernc.org/sqlite"

	"github.com/breezehq/breeze/internal/audit"
	"github.com/breezehq/breeze/internal/logger"
	"github.com/breezehq/breeze/internal/shutdown"
	"github.com/breezehq/breeze/pkg/apiclient"
	"github.com/breezehq/breeze/pkg/auth"
	"github.com/breezehq/breeze/pkg/config"
	"github.com/breezehq/breeze/pkg/httpd"
	"github.com/breezehq/breeze/pkg/mail"
	"github.com/breezehq/breeze/pkg/metrics"
	promexp "github.com/breezehq/breeze/pkg/metrics/prometheus"
	"github.com/breezehq/breeze/pkg/store/db"
	"github.com/breezehq/breeze/pkg/store/kv"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}

	configureLogging(cfg.Logging)

	fmt.Println("breeze - HTTP server engine")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	coord := shutdown.New()

	auditLog := audit.NewWriter(cfg.Audit.Path)

	kvStore, err := kv.Open(cfg.KV.Path, cfg.KV.InMemory)
	if err != nil {
		stdlog.Fatalf("Failed to open key-value store: %v", err)
	}
	coord.OnShutdown(func() {
		if err := kvStore.Close(); err != nil {
			logger.Error("Closing key-value store: %v", err)
		}
	})

	dbConn, err := db.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		stdlog.Fatalf("Failed to open database: %v", err)
	}
	coord.OnShutdown(func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("Closing database: %v", err)
		}
	})

	if err := dbConn.EnsureTable(db.Table{
		Name: "users",
		Columns: map[string]string{
			"name":     "TEXT NOT NULL UNIQUE",
			"password": "TEXT NOT NULL",
		},
	}); err != nil {
		stdlog.Fatalf("Failed to prepare schema: %v", err)
	}

	authn := auth.New(cfg.Auth.Secret, cfg.Auth.TokenTTL)

	var mailer *mail.Sender
	if cfg.Mail.Enabled {
		mailer, err = mail.New(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password)
		if err != nil {
			stdlog.Fatalf("Failed to configure mail sender: %v", err)
		}
		logger.Info("Mail delivery enabled via %s:%d", cfg.Mail.Host, cfg.Mail.Port)
	}

	api := apiclient.New(apiclient.Options{
		Name:        "breeze-api",
		Timeout:     cfg.API.Timeout,
		RetryMax:    cfg.API.RetryMax,
		TripAfter:   cfg.API.TripAfter,
		OpenTimeout: cfg.API.OpenTimeout,
	})
	coord.OnShutdown(api.Close)

	httpMetrics := metrics.NewNoop()
	registry := metrics.NewRegistry()
	if cfg.Metrics.Enabled {
		httpMetrics = promexp.NewHTTPMetrics(registry)
	}

	srv := httpd.NewServer(httpd.Options{
		Port:             cfg.Server.Port,
		Workers:          cfg.Server.Workers,
		QueueCapacity:    cfg.Server.QueueCapacity,
		LogRequestParams: cfg.Server.LogRequestParams,
		AuditLog:         auditLog,
		Metrics:          httpMetrics,
	})

	deps := routeDeps{
		kv:     kvStore,
		db:     dbConn,
		auth:   authn,
		mailer: mailer,
		api:    api,
		cfg:    cfg,
	}
	registerRoutes(srv, deps)
	if cfg.Metrics.Enabled {
		srv.Get("/metrics", promexp.Handler(registry))
	}

	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		if err := srv.Serve(coord.Context()); err != nil {
			logger.Error("Server error: %v", err)
			coord.RequestShutdown("server failed")
		}
	}()
	// Runs first among the cleanups: stores must outlive in-flight handlers.
	coord.OnShutdown(func() {
		srv.Stop()
		<-serveDone
	})

	logger.Info("breeze is running on port %d. Press Ctrl+C to stop.", cfg.Server.Port)
	coord.Wait()
	logger.Info("Shutdown complete")
}

// configureLogging applies level and output from configuration before
// anything else logs.
func configureLogging(cfg config.LoggingConfig) {
	logger.SetLevel(cfg.Level)

	switch cfg.Output {
	case "", "stdout":
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			stdlog.Fatalf("Failed to open log file %s: %v", cfg.Output, err)
		}
		logger.SetOutput(f)
	}
}
