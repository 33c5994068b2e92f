// Package monitor wires the service together: patient store, rule engine,
// evaluation scheduler, ingestion sources, alert sinks, and the HTTP
// surface. It is the composition root below main.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vitalwatch/internal/config"
	"vitalwatch/internal/engine"
	"vitalwatch/internal/ingest"
	"vitalwatch/internal/logger"
	"vitalwatch/internal/middleware"
	"vitalwatch/internal/sched"
	"vitalwatch/internal/sim"
	"vitalwatch/internal/sink"
	"vitalwatch/internal/store"
)

// Monitor is the high-level coordinator for ingesting, evaluating, and alerting.
type Monitor struct {
	cfg        *config.Config
	store      *store.Store
	engine     *engine.Engine
	pool       *sched.Pool
	sinks      []sink.Sink
	kafkaSink  *sink.Kafka
	httpServer *http.Server
	wg         sync.WaitGroup
}

// New constructs a Monitor with given config.
func New(cfg *config.Config) *Monitor {
	st := store.New()
	return &Monitor{
		cfg:    cfg,
		store:  st,
		engine: engine.New(st, engine.DefaultEvaluators(cfg.Rules)),
	}
}

// Store exposes the patient store for external ingestion adapters.
func (m *Monitor) Store() *store.Store {
	return m.store
}

// Run starts background goroutines and blocks until context cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	log := logger.WithComponent("monitor")
	log.Info().Msg("monitor starting")

	if err := m.initSinks(); err != nil {
		log.Error().Err(err).Msg("failed to initialize sinks")
		return fmt.Errorf("failed to initialize sinks: %w", err)
	}

	if m.cfg.Sources.FileDir != "" {
		reader := ingest.NewFileReader(m.cfg.Sources.FileDir, m.store)
		n, err := reader.Load()
		if err != nil {
			log.Error().Err(err).Msg("failed to load file data")
			return fmt.Errorf("failed to load file data: %w", err)
		}
		log.Info().Int("records", n).Msg("historic data loaded")
	}

	m.initPool()
	m.pool.Start()

	m.initHTTPServer()

	// Start HTTP server in background
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		log.Info().Str("addr", m.cfg.HTTPAddr).Msg("starting HTTP server")
		if err := m.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Real-time websocket source
	if m.cfg.Sources.WebSocketURL != "" {
		reader := ingest.NewWSReader(m.cfg.Sources.WebSocketURL, m.store)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := reader.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("websocket reader exited")
			}
		}()
	}

	// Synthetic data generator
	if m.cfg.Sources.Simulate {
		generator := sim.New(m.store, m.cfg.Sources.SimulatePatients)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			generator.Run(ctx)
		}()
	}

	// Stats reporting goroutine
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.reportStats(ctx)
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	return m.shutdown()
}

// initSinks builds the alert sink list: console always, Kafka when configured
func (m *Monitor) initSinks() error {
	log := logger.WithComponent("monitor")

	m.sinks = []sink.Sink{sink.NewConsole()}

	if m.cfg.Kafka.Enabled() {
		kafkaSink, err := sink.NewKafka(m.cfg.Kafka)
		if err != nil {
			return err
		}
		m.kafkaSink = kafkaSink
		m.sinks = append(m.sinks, kafkaSink)
		log.Info().
			Strs("brokers", m.cfg.Kafka.Brokers).
			Str("topic", m.cfg.Kafka.Topic).
			Msg("kafka sink initialized")
	}

	return nil
}

// initPool initializes the evaluation pool
func (m *Monitor) initPool() {
	log := logger.WithComponent("monitor")
	m.pool = sched.NewPool(sched.Config{
		Engine:   m.engine,
		Store:    m.store,
		Sinks:    m.sinks,
		Interval: m.cfg.Evaluation.Interval,
		Workers:  m.cfg.Evaluation.Workers,
	})
	log.Info().Int("workers", m.cfg.Evaluation.Workers).Msg("evaluation pool initialized")
}

// initHTTPServer initializes the HTTP server with handlers
func (m *Monitor) initHTTPServer() {
	mux := http.NewServeMux()

	// Ingest handler (with middleware)
	ingestHandler := ingest.NewHandler(ingest.HandlerConfig{
		Store: m.store,
	})
	mux.Handle("/ingest", middleware.Chain(
		ingestHandler,
		middleware.Recovery,
		middleware.Logging,
	))

	// Health check
	mux.HandleFunc("/health", m.healthHandler)

	// Stats endpoint
	mux.HandleFunc("/stats", m.statsHandler)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	m.httpServer = &http.Server{
		Addr:         m.cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// shutdown performs graceful shutdown
func (m *Monitor) shutdown() error {
	log := logger.WithComponent("monitor")
	log.Info().Msg("initiating graceful shutdown")

	// 1. Stop accepting new HTTP requests
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info().Msg("stopping HTTP server")
	if err := m.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the evaluation pool (with timeout)
	done := make(chan struct{})
	go func() {
		m.pool.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("evaluation pool stopped gracefully")
	case <-time.After(15 * time.Second):
		log.Warn().Msg("evaluation pool shutdown timeout - forcing exit")
	}

	// 3. Close sinks
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			log.Error().Err(err).Str("sink", s.Name()).Msg("sink close error")
		}
	}

	// 4. Wait for all goroutines
	m.wg.Wait()

	log.Info().Msg("monitor stopped gracefully")
	return nil
}

// reportStats periodically logs statistics
func (m *Monitor) reportStats(ctx context.Context) {
	log := logger.WithComponent("monitor")
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := m.pool.Stats()

			evt := log.Info().
				Uint64("eval_passes", stats.Passes).
				Uint64("alerts_emitted", stats.Alerts).
				Uint64("sink_failures", stats.Failed).
				Int("patients", m.store.Len())

			if m.kafkaSink != nil {
				kafkaStats := m.kafkaSink.Stats()
				evt = evt.
					Uint64("kafka_published", kafkaStats.Published).
					Uint64("kafka_failed", kafkaStats.Failed)
			}

			evt.Msg("stats")
		}
	}
}

// healthHandler handles health check requests
func (m *Monitor) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if m.kafkaSink != nil {
		if err := m.kafkaSink.HealthCheck(ctx); err != nil {
			http.Error(w, fmt.Sprintf("unhealthy: %v", err), http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// statsHandler returns current statistics
func (m *Monitor) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats := m.pool.Stats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{
		"evaluation": {
			"passes": %d,
			"alerts": %d,
			"sink_failures": %d,
			"dropped_tasks": %d
		},
		"store": {
			"patients": %d
		}
	}`,
		stats.Passes,
		stats.Alerts,
		stats.Failed,
		stats.Dropped,
		m.store.Len(),
	)
}
