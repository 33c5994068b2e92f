// Package sim generates synthetic vital-sign data for local monitoring
// sessions and demos. The generator feeds the same ingestion boundary as
// the real readers, so the core cannot tell simulated data apart.
package sim

import (
	"context"
	"math"
	"math/rand"
	"time"

	"vitalwatch/internal/logger"
	"vitalwatch/internal/metrics"
	"vitalwatch/internal/models"
	"vitalwatch/internal/store"
)

const (
	// tickInterval is the period between generation rounds.
	tickInterval = time.Second

	// alertLambda approximates the rate of staff-triggered alerts per tick.
	alertLambda = 0.1
)

// patientState tracks the random-walk baselines for one synthetic patient.
type patientState struct {
	heartRate  float64
	systolic   float64
	diastolic  float64
	saturation float64
	alertOn    bool
}

// Generator produces synthetic measurements for a fixed set of patients.
type Generator struct {
	store    *store.Store
	rng      *rand.Rand
	patients []patientState
}

// New creates a generator for patientCount synthetic patients.
func New(st *store.Store, patientCount int) *Generator {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	patients := make([]patientState, patientCount)
	for i := range patients {
		patients[i] = patientState{
			heartRate:  60 + rng.Float64()*40,
			systolic:   110 + rng.Float64()*20,
			diastolic:  70 + rng.Float64()*15,
			saturation: 95 + float64(rng.Intn(6)),
		}
	}

	return &Generator{
		store:    st,
		rng:      rng,
		patients: patients,
	}
}

// Run generates one round of measurements per tick until ctx is cancelled.
func (g *Generator) Run(ctx context.Context) {
	log := logger.WithComponent("sim")
	log.Info().Int("patients", len(g.patients)).Msg("synthetic data generator started")

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("synthetic data generator stopped")
			return
		case <-ticker.C:
			now := time.Now().UnixMilli()
			for i := range g.patients {
				g.generate(i+1, &g.patients[i], now)
			}
		}
	}
}

// generate emits one sample of each vital for a patient.
func (g *Generator) generate(patientID int, st *patientState, now int64) {
	st.heartRate = clamp(st.heartRate+g.rng.Float64()*4-2, 40, 140)
	st.systolic = clamp(st.systolic+g.rng.Float64()*6-3, 70, 200)
	st.diastolic = clamp(st.diastolic+g.rng.Float64()*4-2, 45, 130)
	st.saturation = clamp(st.saturation+float64(g.rng.Intn(3)-1), 90, 100)

	g.record(models.Record{PatientID: patientID, Kind: models.KindHeartRate, Value: st.heartRate, Timestamp: now})
	g.record(models.Record{PatientID: patientID, Kind: models.KindSystolic, Value: st.systolic, Timestamp: now})
	g.record(models.Record{PatientID: patientID, Kind: models.KindDiastolic, Value: st.diastolic, Timestamp: now})
	g.record(models.Record{PatientID: patientID, Kind: models.KindSaturation, Value: st.saturation, Timestamp: now})
	g.record(models.Record{PatientID: patientID, Kind: models.KindECG, Value: g.ecgSample(), Timestamp: now})

	g.generateManual(patientID, st, now)
}

// ecgSample produces a baseline amplitude with the occasional spike.
func (g *Generator) ecgSample() float64 {
	v := 0.8 + g.rng.Float64()*0.4
	if g.rng.Float64() < 0.01 {
		v *= 3
	}
	return v
}

// generateManual toggles the staff-alert state: an active alert resolves
// with 90% probability per tick, a new one triggers per a Poisson
// approximation with rate alertLambda.
func (g *Generator) generateManual(patientID int, st *patientState, now int64) {
	if st.alertOn {
		if g.rng.Float64() < 0.9 {
			st.alertOn = false
			g.record(models.Record{
				PatientID: patientID,
				Kind:      models.KindManualEvent,
				Status:    "alert: resolved",
				Timestamp: now,
			})
		}
		return
	}

	p := -math.Expm1(-alertLambda)
	if g.rng.Float64() < p {
		st.alertOn = true
		g.record(models.Record{
			PatientID: patientID,
			Kind:      models.KindManualEvent,
			Status:    "alert: triggered",
			Timestamp: now,
		})
	}
}

func (g *Generator) record(rec models.Record) {
	outcome, err := g.store.Record(rec)
	metrics.IngestRecordsTotal.WithLabelValues("sim", outcome.String()).Inc()
	if outcome == store.OutcomeInvalid {
		log := logger.WithComponent("sim")
		log.Error().
			Err(err).
			Int("patient_id", rec.PatientID).
			Str("kind", string(rec.Kind)).
			Msg("generated invalid record")
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
