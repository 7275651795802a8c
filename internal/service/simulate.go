package service

import (
	"math/rand/v2"
	"time"

	"github.com/iliyamo/astra-care/internal/model"
)

// Simulation bounds.
const (
	MaxSimulationDays = 30
	firstReadingHour  = 6
	lastReadingHour   = 22
)

// SimulateVitals generates plausible demo readings for the days before
// now: 8 to 12 readings per day, two hours apart from 06:00 and capped at
// 22:00.  Stress trends down as the days approach now and fatigue grows
// through each day.
func SimulateVitals(astronautID string, days int, now time.Time, r *rand.Rand) []model.VitalsSample {
	var out []model.VitalsSample
	now = now.UTC()
	for offset := days; offset > 0; offset-- {
		day := now.AddDate(0, 0, -offset)
		y, m, d := day.Date()
		readings := 8 + r.IntN(5)
		for i := 0; i < readings; i++ {
			hour := min(firstReadingHour+2*i, lastReadingHour)
			ts := time.Date(y, m, d, hour, r.IntN(60), 0, 0, time.UTC)

			baseHR := 68 + r.NormFloat64()*8
			baseStress := 25 + r.NormFloat64()*12 + float64(offset)*1.5
			in := model.VitalsInput{
				AstronautID:  astronautID,
				HeartRate:    clamp(baseHR+r.NormFloat64()*5, 50, 120),
				HRV:          clamp(55+r.NormFloat64()*15, 20, 100),
				StressLevel:  clamp(baseStress, 0, 100),
				FatigueLevel: clamp(20+r.NormFloat64()*15+float64(hour-firstReadingHour)*2, 0, 100),
				Timestamp:    &ts,
				Source:       model.SourceSimulated,
			}
			v := ValidateVitals(in, 0.85+r.Float64()*0.15)
			out = append(out, model.VitalsSample{
				AstronautID:  astronautID,
				HeartRate:    in.HeartRate,
				HRV:          in.HRV,
				StressLevel:  in.StressLevel,
				FatigueLevel: in.FatigueLevel,
				Source:       in.Source,
				Confidence:   v.AdjustedConfidence,
				Validation:   v,
				Timestamp:    ts,
			})
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
