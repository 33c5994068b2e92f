// Package engine orchestrates rule evaluation: it applies a configured
// ordered list of evaluators to one patient's history and collects every
// concrete alert. Rules fail open — a fault in one evaluator is recovered,
// counted, and must never suppress the alerts of the remaining rules.
package engine

import (
	"runtime/debug"
	"time"

	"vitalwatch/internal/config"
	"vitalwatch/internal/logger"
	"vitalwatch/internal/metrics"
	"vitalwatch/internal/models"
	"vitalwatch/internal/rules"
	"vitalwatch/internal/store"
)

// Engine runs rule evaluators against the patient store.
type Engine struct {
	store      *store.Store
	evaluators []rules.Evaluator
}

// New creates an Engine with the given default evaluator list.
func New(st *store.Store, evaluators []rules.Evaluator) *Engine {
	return &Engine{
		store:      st,
		evaluators: evaluators,
	}
}

// DefaultEvaluators builds the standard clinical rule set from config
// thresholds, in evaluation order.
func DefaultEvaluators(cfg config.RulesConfig) []rules.Evaluator {
	return []rules.Evaluator{
		rules.NewThreshold(models.KindHeartRate, cfg.HeartRateMin, cfg.HeartRateMax),
		rules.NewThreshold(models.KindSystolic, cfg.SystolicMin, cfg.SystolicMax),
		rules.NewThreshold(models.KindDiastolic, cfg.DiastolicMin, cfg.DiastolicMax),
		rules.NewTrend(models.KindSystolic),
		rules.NewTrend(models.KindDiastolic),
		&rules.ECGPeak{
			Kind:       models.KindECG,
			WindowSize: cfg.ECGWindowSize,
			Multiplier: cfg.ECGMultiplier,
		},
		&rules.RapidDrop{
			Kind:          models.KindSaturation,
			DropThreshold: cfg.SaturationDrop,
			WindowMs:      cfg.SaturationDropWindowMs,
			LowThreshold:  cfg.SaturationLow,
		},
		rules.NewHypotensiveHypoxemia(),
		rules.NewManualEvent(),
	}
}

// Evaluate runs the engine's configured evaluator list for one patient.
func (e *Engine) Evaluate(patientID int) []models.Alert {
	return e.EvaluateWith(patientID, e.evaluators)
}

// EvaluateWith applies the given evaluators, in list order, to the
// patient's full history and returns every non-"none" alert. Output
// order mirrors evaluator order, not timestamp order. An evaluator that
// panics is logged, counted, and treated as "none"; the remaining
// evaluators still run.
func (e *Engine) EvaluateWith(patientID int, evaluators []rules.Evaluator) []models.Alert {
	start := time.Now()
	records := e.store.History(patientID)

	alerts := make([]models.Alert, 0, len(evaluators))
	for _, ev := range evaluators {
		alert, ok := e.runOne(ev, patientID, records)
		if !ok || alert.IsNone() {
			continue
		}
		metrics.AlertsTotal.WithLabelValues(ev.Name()).Inc()
		alerts = append(alerts, alert)
	}

	metrics.EvaluationsTotal.Inc()
	metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	return alerts
}

// runOne executes a single evaluator with panic recovery. The second
// return value is false when the evaluator faulted.
func (e *Engine) runOne(ev rules.Evaluator, patientID int, records []models.Record) (alert models.Alert, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log := logger.WithComponent("engine")
			log.Error().
				Str("rule", ev.Name()).
				Int("patient_id", patientID).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("evaluator panic recovered")
			metrics.EvaluatorFailures.WithLabelValues(ev.Name()).Inc()
			metrics.PanicsRecovered.WithLabelValues("engine").Inc()
			ok = false
		}
	}()

	return ev.Evaluate(patientID, records), true
}
