package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/epicorbridge/pkg/audit"
	"mercator-hq/epicorbridge/pkg/bridge"
	"mercator-hq/epicorbridge/pkg/catalog"
	"mercator-hq/epicorbridge/pkg/config"
	"mercator-hq/epicorbridge/pkg/epicor"
	"mercator-hq/epicorbridge/pkg/gateway/handlers"
	securetls "mercator-hq/epicorbridge/pkg/security/tls"
	"mercator-hq/epicorbridge/pkg/server"
	"mercator-hq/epicorbridge/pkg/session"
	"mercator-hq/epicorbridge/pkg/telemetry/health"
	"mercator-hq/epicorbridge/pkg/telemetry/metrics"
	"mercator-hq/epicorbridge/pkg/telemetry/tracing"
)

const (
	healthCheckTimeout = 5 * time.Second
	auditBusyTimeout   = 5 * time.Second
	shutdownStepBudget = 10 * time.Second
	certExpiryMargin   = 7 * 24 * time.Hour
)

// app holds every long-lived component of a running gateway.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	tracer    *tracing.Tracer
	collector *metrics.Collector
	client    *epicor.Client
	manager   *session.Manager
	registry  *catalog.Registry
	server    *server.Server
	certs     *securetls.Reloader

	auditStore     *audit.Store
	auditRecorder  *audit.Recorder
	auditScheduler *audit.Scheduler
}

// newApp builds the component graph from cfg. Nothing is started. On
// error, whatever was already opened is released.
func newApp(cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracer = tracer

	a.collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	creds := epicor.CredentialsFromConfig(cfg.Epicor)
	a.client = epicor.NewClient(epicor.ClientConfigFromConfig(cfg.Epicor), logger)
	a.manager = session.NewManager(creds, a.client, session.NewStore(), session.Options{
		RenewalTimeout: cfg.Session.RenewalTimeout,
		Recorder:       a.collector,
		Logger:         logger,
	})

	cat, err := catalog.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	a.registry = catalog.NewRegistry(cat)

	var tlsConfig *tls.Config
	if tc := cfg.Server.TLS; tc.Enabled {
		certs, err := securetls.NewReloader(tc.CertFile, tc.KeyFile, tc.ReloadInterval, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
		}
		if tlsConfig, err = securetls.ServerConfig(certs, &cfg.Server.TLS); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
		a.certs = certs
	}

	observers := []bridge.Observer{a.collector}
	if cfg.Audit.Enabled {
		store, err := audit.Open(cfg.Audit.SQLitePath, auditBusyTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit store: %w", err)
		}
		a.auditStore = store
		a.auditRecorder = audit.NewRecorder(store, audit.RecorderConfigFrom(cfg.Audit), logger)
		a.auditScheduler = audit.NewScheduler(audit.NewPruner(store, cfg.Audit.RetentionDays, logger), cfg.Audit.PruneSchedule)
		a.collector.RegisterAuditDropped(a.auditRecorder.Dropped)
		observers = append(observers, a.auditRecorder)
	}

	proxy := bridge.NewProxy(creds, a.manager, a.client, bridge.Options{
		StrictStatus: cfg.Gateway.StrictStatus,
		Observers:    observers,
		Logger:       logger,
	})

	checker := health.New(healthCheckTimeout)
	checker.RegisterCheck("session", health.SessionCheck(a.manager), true)
	checker.RegisterCheck("epicor", health.UpstreamCheck(a.client.Health), false)
	checker.RegisterCheck("catalog", health.CatalogCheck(a.registry.Count), false)
	if a.certs != nil {
		checker.RegisterCheck("tls_certificate", health.CertificateCheck(a.certs.NotAfter, certExpiryMargin), false)
	}

	deps := server.Dependencies{
		Health:  checker,
		Metrics: a.collector,
		Tracer:  a.tracer,
		Build:   server.BuildInfo{Version: Version, Commit: GitCommit, BuildTime: BuildDate},
		Logger:  logger,
		TLS:     tlsConfig,
	}

	api := handlers.New(proxy, a.registry, handlers.Options{
		APIKeyParam:      cfg.Gateway.APIKeyParam,
		MaxBodyBytes:     cfg.Server.MaxBodyBytes,
		AllowPassthrough: cfg.Gateway.AllowPassthrough,
		Logger:           logger,
	})

	deps.API = api
	a.server = server.New(cfg, deps)

	return a, nil
}

// run starts the background tasks and serves until ctx is cancelled, then
// shuts everything down in reverse order.
func (a *app) run(ctx context.Context) error {
	defer a.close()

	if a.cfg.Gateway.WatchCatalog && a.cfg.Gateway.CatalogPath != "" {
		watcher, err := catalog.NewWatcher(a.cfg.Gateway.CatalogPath, a.registry, 0, a.logger)
		if err != nil {
			return fmt.Errorf("failed to create catalog watcher: %w", err)
		}
		watcher.OnReload = a.collector.RecordCatalogReload
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start catalog watcher: %w", err)
		}
		defer func() { _ = watcher.Stop() }()
	}

	if a.auditScheduler != nil {
		if err := a.auditScheduler.Start(ctx); err != nil {
			a.logger.Warn("failed to start audit retention scheduler", "error", err)
		} else {
			defer a.auditScheduler.Stop()
			if next := a.auditScheduler.NextRun(); next != nil {
				a.logger.Debug("audit retention scheduler started", "next_run", next)
			}
		}
	}

	if a.certs != nil {
		a.certs.Start(ctx)
	}

	renewer := a.manager.StartBackgroundRenewal(ctx, a.cfg.Session.RenewInterval)
	defer renewer.Stop()

	err := a.server.Start(ctx)

	// The renewer must be stopped before logging out, otherwise a tick
	// could log in again right after.
	renewer.Stop()
	if a.cfg.Session.LogoutOnShutdown {
		a.logout()
	}
	return err
}

func (a *app) logout() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownStepBudget)
	defer cancel()

	if err := a.manager.Logout(ctx); err != nil {
		a.logger.Warn("failed to log out of epicor", "error", err)
		return
	}
	a.logger.Info("logged out of epicor")
}

// close releases resources in reverse order of creation.
func (a *app) close() {
	var errs []error

	if a.auditRecorder != nil {
		errs = append(errs, a.auditRecorder.Close())
	}
	if a.auditStore != nil {
		errs = append(errs, a.auditStore.Close())
	}

	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownStepBudget)
		defer cancel()
		errs = append(errs, a.tracer.Shutdown(ctx))
	}

	if a.client != nil {
		a.client.CloseIdleConnections()
	}

	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("errors during shutdown", "error", err)
	}
}
