// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

// Package main is the entry point for the Stagewatch demo server.
//
// Stagewatch is a passive HTTP security event detection pipeline. This
// binary wires the inspection middleware around a small sample API to show
// the full pipeline running end to end.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load via Koanf v2 (defaults, YAML file, env)
//  2. Logging: global zerolog logger
//  3. Pattern registry: compiled threat signatures and User-Agent tiers
//  4. Audit store: in-memory or DuckDB persistence for forensic queries
//  5. Sinks: structured log, Prometheus, optional webhook and NATS,
//     composed behind an async bounded buffer
//  6. Inspector: the detection middleware itself
//  7. HTTP server: chi router with CORS, rate limiting, request IDs,
//     Prometheus instrumentation, and the inspector
//  8. Supervision: suture tree running the server and audit retention
//
// # Configuration
//
// All settings use the STAGEWATCH_ environment prefix, e.g.:
//
//	export STAGEWATCH_HTTP_PORT=8642
//	export STAGEWATCH_SLOW_REQUEST_THRESHOLD=5s
//	export STAGEWATCH_WEBHOOK_ENABLED=true
//	export STAGEWATCH_WEBHOOK_URL=https://hooks.example.com/security
//	export STAGEWATCH_NATS_ENABLED=true
//	export STAGEWATCH_NATS_URL=nats://localhost:4222
//	./stagewatch
//
// A YAML config file is read from ./config.yaml or /etc/stagewatch/, or the
// path in STAGEWATCH_CONFIG.
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, drains in-flight requests, flushes buffered
// events and audit records, then exits.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/duckdb/duckdb-go/v2" // registers the duckdb driver

	"github.com/tomtom215/stagewatch/internal/audit"
	"github.com/tomtom215/stagewatch/internal/config"
	"github.com/tomtom215/stagewatch/internal/inspector"
	"github.com/tomtom215/stagewatch/internal/logging"
	"github.com/tomtom215/stagewatch/internal/middleware"
	"github.com/tomtom215/stagewatch/internal/patterns"
	"github.com/tomtom215/stagewatch/internal/principal"
	"github.com/tomtom215/stagewatch/internal/secevent"
	"github.com/tomtom215/stagewatch/internal/sink"
	"github.com/tomtom215/stagewatch/internal/supervisor"
	"github.com/tomtom215/stagewatch/internal/supervisor/services"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Int("port", cfg.Server.Port).
		Msg("Starting Stagewatch")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := patterns.NewWithOptions(patterns.Options{
		ExtraAllowlist:      cfg.Inspector.ExtraUAAllowlist,
		ExtraScannerList:    cfg.Inspector.ExtraUAScanners,
		ExtraAutomationList: cfg.Inspector.ExtraUAAutomation,
		HealthPaths:         cfg.Inspector.HealthPaths,
	})

	// Audit persistence.
	auditStore, dbClose, err := buildAuditStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize audit store: %w", err)
	}
	if dbClose != nil {
		defer dbClose()
	}

	var auditLogger *audit.Logger
	if auditStore != nil {
		auditLogger = audit.NewLogger(auditStore, &audit.Config{
			Enabled:         cfg.Audit.Enabled,
			RetentionDays:   cfg.Audit.RetentionDays,
			CleanupInterval: cfg.Audit.CleanupInterval,
			BufferSize:      cfg.Audit.BufferSize,
		})
		defer func() {
			if err := auditLogger.Close(); err != nil {
				logging.Error().Err(err).Msg("Audit logger close failed")
			}
		}()
	}

	// Sink composition: every enabled destination behind one async buffer.
	eventSink, sinkClose, err := buildSinks(cfg, auditLogger)
	if err != nil {
		return fmt.Errorf("initialize sinks: %w", err)
	}
	defer sinkClose()

	insp := inspector.New(registry, eventSink, buildResolver(cfg), &inspector.Config{
		SlowRequestThreshold: cfg.Inspector.SlowRequestThreshold,
		SensitivePrefixes:    cfg.Inspector.SensitivePrefixes,
		ScanForms:            cfg.Inspector.ScanForms,
		MaxFormScanBytes:     cfg.Inspector.MaxFormScanBytes,
	})

	router := buildRouter(cfg, insp)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("build supervisor tree: %w", err)
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	if auditStore != nil {
		tree.AddPipelineService(services.NewRetentionService(
			auditStore, cfg.Audit.RetentionDays, cfg.Audit.CleanupInterval))
	}

	logging.Info().Str("addr", server.Addr).Msg("Stagewatch listening")
	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logging.Info().Msg("Stagewatch stopped")
	return nil
}

// buildAuditStore creates the configured audit backend. Returns a nil store
// when auditing is disabled; the returned closer is non-nil only for
// database-backed stores.
func buildAuditStore(ctx context.Context, cfg *config.Config) (audit.Store, func(), error) {
	if !cfg.Audit.Enabled {
		return nil, nil, nil
	}

	switch cfg.Audit.Store {
	case "duckdb":
		db, err := sql.Open("duckdb", cfg.Audit.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open duckdb at %s: %w", cfg.Audit.DatabasePath, err)
		}
		store := audit.NewDuckDBStore(db)
		if err := store.CreateTable(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, func() { _ = db.Close() }, nil
	default:
		return audit.NewMemoryStore(cfg.Audit.MemoryMaxRecords), nil, nil
	}
}

// buildSinks composes the event sink chain. The log and metrics sinks are
// always present; webhook, NATS, and audit persistence join when enabled.
// Everything sits behind an AsyncSink so the request path never waits on
// delivery.
func buildSinks(cfg *config.Config, auditLogger *audit.Logger) (*sink.AsyncSink, func(), error) {
	members := []secevent.Sink{
		sink.NewLogSink(),
		sink.NewMetricsSink(),
	}

	if cfg.Webhook.Enabled {
		members = append(members, sink.NewWebhookSink(sink.WebhookConfig{
			URL:           cfg.Webhook.URL,
			Headers:       cfg.Webhook.Headers,
			Enabled:       true,
			RatePerSecond: cfg.Webhook.RatePerSecond,
			Timeout:       cfg.Webhook.Timeout,
		}))
		logging.Info().Str("url", cfg.Webhook.URL).Msg("Webhook sink enabled")
	}

	var natsSink *sink.NATSSink
	if cfg.NATS.Enabled {
		var err error
		natsSink, err = sink.NewNATSSink(sink.NATSConfig{
			URL:           cfg.NATS.URL,
			EventTopic:    cfg.NATS.EventsTopic,
			AuditTopic:    cfg.NATS.AuditTopic,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
		}, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("connect NATS sink: %w", err)
		}
		members = append(members, natsSink)
		logging.Info().Str("url", cfg.NATS.URL).Msg("NATS sink enabled")
	}

	if auditLogger != nil {
		members = append(members, audit.NewSink(auditLogger))
	}

	async := sink.NewAsyncSink(sink.NewMultiSink(members...), cfg.Sink.BufferSize)

	closer := func() {
		if err := async.Close(); err != nil {
			logging.Error().Err(err).Msg("Async sink close failed")
		}
		if natsSink != nil {
			if err := natsSink.Close(); err != nil {
				logging.Error().Err(err).Msg("NATS sink close failed")
			}
		}
	}
	return async, closer, nil
}

// buildResolver assembles the principal resolution chain: context first
// (for apps whose auth middleware runs upstream), then JWT when a secret is
// configured.
func buildResolver(cfg *config.Config) principal.Resolver {
	chain := principal.Chain{principal.ContextResolver{}}
	if cfg.Security.JWTSecret != "" {
		chain = append(chain, principal.NewJWTResolver([]byte(cfg.Security.JWTSecret)))
	}
	return chain
}

// buildRouter assembles the middleware stack and sample routes. CORS and
// rate limiting are neighbors of the detector, not part of it: they run
// before the inspector and may reject traffic on their own terms.
func buildRouter(cfg *config.Config, insp *inspector.Inspector) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if !cfg.Security.RateLimitDisabled {
		r.Use(httprate.LimitByIP(cfg.Security.RateLimitReqs, cfg.Security.RateLimitWindow))
	}
	r.Use(insp.Middleware)

	r.Get("/health", healthHandler)
	r.Get("/ready", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	registerSampleRoutes(r, insp)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
