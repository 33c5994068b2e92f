// Package sched drives periodic alert evaluation: on every tick it
// dispatches one evaluation task per known patient to a worker pool and
// forwards resulting alerts to the configured sinks.
package sched

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"vitalwatch/internal/engine"
	"vitalwatch/internal/logger"
	"vitalwatch/internal/metrics"
	"vitalwatch/internal/sink"
	"vitalwatch/internal/store"
)

// Pool manages a pool of workers that evaluate patients on a fixed period
type Pool struct {
	engine   *engine.Engine
	store    *store.Store
	sinks    []sink.Sink
	interval time.Duration
	workers  int

	taskChan chan int
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc

	// Metrics
	passes  atomic.Uint64
	alerts  atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
}

// Config holds scheduler configuration
type Config struct {
	Engine   *engine.Engine
	Store    *store.Store
	Sinks    []sink.Sink
	Interval time.Duration
	Workers  int
}

// NewPool creates a new evaluation pool
func NewPool(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		engine:   cfg.Engine,
		store:    cfg.Store,
		sinks:    cfg.Sinks,
		interval: cfg.Interval,
		workers:  cfg.Workers,
		taskChan: make(chan int, 256),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the dispatch ticker and the evaluation workers
func (p *Pool) Start() {
	log := logger.WithComponent("sched")
	log.Info().
		Int("workers", p.workers).
		Dur("interval", p.interval).
		Msg("starting evaluation pool")

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.wg.Add(1)
	go p.dispatch()
}

// Stop gracefully stops the ticker and all workers
func (p *Pool) Stop() {
	log := logger.WithComponent("sched")
	log.Info().Msg("stopping evaluation pool")
	p.cancel()
	p.wg.Wait()
	log.Info().Msg("evaluation pool stopped")
}

// dispatch pushes every known patient id on each tick
func (p *Pool) dispatch() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			ids := p.store.AllPatientIDs()
			metrics.PatientsTracked.Set(float64(len(ids)))

			for _, id := range ids {
				select {
				case p.taskChan <- id:
				case <-p.ctx.Done():
					return
				default:
					// Queue full: the patient is picked up again next
					// tick, so dropping here only delays, never loses.
					p.dropped.Add(1)
				}
			}
		}
	}
}

// worker evaluates patients from the task channel
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	log := logger.WithComponent("sched_worker").With().Int("worker_id", id).Logger()

	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("worker panic recovered")
			metrics.PanicsRecovered.WithLabelValues("sched_worker").Inc()
		}
	}()

	log.Debug().Msg("worker started")
	defer log.Debug().Msg("worker stopped")

	for {
		select {
		case <-p.ctx.Done():
			return
		case patientID := <-p.taskChan:
			p.evaluatePatient(patientID)
		}
	}
}

// evaluatePatient runs one evaluation pass and delivers its alerts
func (p *Pool) evaluatePatient(patientID int) {
	alerts := p.engine.Evaluate(patientID)
	p.passes.Add(1)

	if len(alerts) == 0 {
		return
	}
	p.alerts.Add(uint64(len(alerts)))

	log := logger.WithComponent("sched")
	for _, alert := range alerts {
		for _, s := range p.sinks {
			ctx, cancel := context.WithTimeout(p.ctx, 10*time.Second)
			err := s.Publish(ctx, alert)
			cancel()

			if err != nil {
				p.failed.Add(1)
				log.Error().
					Err(err).
					Str("sink", s.Name()).
					Str("patient_id", alert.PatientID).
					Str("condition", alert.Condition).
					Msg("failed to deliver alert")
			}
		}
	}
}

// Stats returns scheduler statistics
func (p *Pool) Stats() Stats {
	return Stats{
		Passes:  p.passes.Load(),
		Alerts:  p.alerts.Load(),
		Failed:  p.failed.Load(),
		Dropped: p.dropped.Load(),
	}
}

// Stats holds evaluation pool counters
type Stats struct {
	Passes  uint64
	Alerts  uint64
	Failed  uint64
	Dropped uint64
}
