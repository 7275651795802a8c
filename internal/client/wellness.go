package client

import (
	"math"

	"github.com/iliyamo/astra-care/internal/model"
)

// NeutralWellness is shown before a subject has any vitals.
const NeutralWellness = 50

// Wellness is the dashboard's headline score.
type Wellness struct {
	Score   int
	Label   string
	HasData bool
}

// ComputeWellness scores the latest sample against the baseline.  Stress
// and fatigue weigh 40% and 30%, heart-rate deviation 30% (25 points per
// standard deviation, capped at 100).  With no sample it returns the
// neutral default.
func ComputeWellness(v *model.VitalsSample, b model.Baseline) Wellness {
	if v == nil {
		return Wellness{Score: NeutralWellness, Label: "no data"}
	}
	std := math.Max(b.HRStd, 1)
	hrPenalty := math.Min(100, math.Abs(v.HeartRate-b.HRBaseline)/std*25)
	load := 0.4*clampPercent(v.StressLevel) + 0.3*clampPercent(v.FatigueLevel) + 0.3*hrPenalty
	score := int(math.Round(100 - load))
	score = max(0, min(100, score))
	return Wellness{Score: score, Label: wellnessLabel(score), HasData: true}
}

func clampPercent(v float64) float64 { return math.Max(0, math.Min(100, v)) }

func wellnessLabel(score int) string {
	switch {
	case score >= 75:
		return "optimal"
	case score >= 50:
		return "stable"
	case score >= 30:
		return "strained"
	}
	return "critical"
}
