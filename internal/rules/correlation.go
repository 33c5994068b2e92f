package rules

import (
	"fmt"

	"vitalwatch/internal/models"
)

// DefaultProximityMs is the maximum gap between two correlated readings.
const DefaultProximityMs = 300_000

// CrossSignal correlates two measurement kinds: when a reading of KindA
// below ThresholdA and a reading of KindB below ThresholdB occur within
// ProximityMs of each other, a combined alert fires at the later of the
// two timestamps. The first qualifying pair under nested iteration order
// (outer KindA, inner KindB) wins.
type CrossSignal struct {
	Label string

	KindA      models.Kind
	ThresholdA float64
	LabelA     string

	KindB      models.Kind
	ThresholdB float64
	LabelB     string

	ProximityMs int64
}

// NewHypotensiveHypoxemia creates the combined low-blood-pressure plus
// low-oxygen rule: systolic below 90 and saturation below 92 within
// five minutes of each other.
func NewHypotensiveHypoxemia() *CrossSignal {
	return &CrossSignal{
		Label:       "Hypotensive Hypoxemia Alert",
		KindA:       models.KindSystolic,
		ThresholdA:  90.0,
		LabelA:      "BP",
		KindB:       models.KindSaturation,
		ThresholdB:  92.0,
		LabelB:      "O2",
		ProximityMs: DefaultProximityMs,
	}
}

func (c *CrossSignal) Name() string {
	return "cross_signal_" + string(c.KindA) + "_" + string(c.KindB)
}

func (c *CrossSignal) Evaluate(patientID int, records []models.Record) models.Alert {
	as := ofKind(records, c.KindA)
	bs := ofKind(records, c.KindB)

	for _, a := range as {
		if a.Value >= c.ThresholdA {
			continue
		}
		for _, b := range bs {
			if b.Value >= c.ThresholdB {
				continue
			}

			gap := a.Timestamp - b.Timestamp
			if gap < 0 {
				gap = -gap
			}
			if gap > c.ProximityMs {
				continue
			}

			ts := a.Timestamp
			if b.Timestamp > ts {
				ts = b.Timestamp
			}
			return models.Alert{
				PatientID: patientKey(patientID),
				Condition: fmt.Sprintf("%s: %s=%s, %s=%s", c.Label,
					c.LabelA, fmtValue(a.Value), c.LabelB, fmtValue(b.Value)),
				Timestamp: ts,
				Rule:      c.Name(),
			}
		}
	}

	return none(patientID)
}
