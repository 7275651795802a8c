// Package service holds the server-side health logic: sample validation,
// baselines, risk scoring, daily aggregation and demo data generation.
package service

import (
	"math"
	"slices"
	"time"

	"github.com/iliyamo/astra-care/internal/model"
)

// Accepted ranges for ingested samples.  Out-of-range values are stored
// but lower the sample's confidence.
const (
	MinHeartRate = 40
	MaxHeartRate = 200
	MaxHRV       = 200
	MaxPercent   = 100
)

// Escalation thresholds on the 0-100 risk scale.
const (
	escalatePreventive = 30
	escalateAdaptive   = 55
	escalateMedical    = 80

	maxRecommendations = 4
)

// ValidateVitals checks in against the accepted ranges.  Each issue scales
// the confidence down: 0.7 for heart rate, 0.8 for the others.
func ValidateVitals(in model.VitalsInput, confidence float64) model.Validation {
	v := model.Validation{Issues: []string{}, DataFreshness: "unknown"}
	if in.Timestamp != nil {
		v.DataFreshness = "current"
	}
	if in.HeartRate < MinHeartRate || in.HeartRate > MaxHeartRate {
		v.Issues = append(v.Issues, "Heart rate out of normal range")
		confidence *= 0.7
	}
	if in.HRV < 0 || in.HRV > MaxHRV {
		v.Issues = append(v.Issues, "HRV out of expected range")
		confidence *= 0.8
	}
	if in.StressLevel < 0 || in.StressLevel > MaxPercent {
		v.Issues = append(v.Issues, "Stress level should be 0-100")
		confidence *= 0.8
	}
	if in.FatigueLevel < 0 || in.FatigueLevel > MaxPercent {
		v.Issues = append(v.Issues, "Fatigue level should be 0-100")
		confidence *= 0.8
	}
	v.IsValid = len(v.Issues) == 0
	v.AdjustedConfidence = confidence
	return v
}

// ComputeBaseline derives a baseline from samples.  With fewer than
// model.MinBaselineSamples readings the population defaults are used.
func ComputeBaseline(astronautID string, samples []model.VitalsSample, now time.Time) model.Baseline {
	if len(samples) < model.MinBaselineSamples {
		b := model.DefaultBaseline(astronautID)
		b.DataPoints = len(samples)
		b.UpdatedAt = now
		return b
	}
	hr := make([]float64, len(samples))
	hrv := make([]float64, len(samples))
	stress := make([]float64, len(samples))
	fatigue := make([]float64, len(samples))
	for i, s := range samples {
		hr[i], hrv[i], stress[i], fatigue[i] = s.HeartRate, s.HRV, s.StressLevel, s.FatigueLevel
	}
	return model.Baseline{
		AstronautID:     astronautID,
		HRBaseline:      mean(hr),
		HRStd:           stddev(hr),
		HRVBaseline:     mean(hrv),
		HRVStd:          stddev(hrv),
		StressBaseline:  mean(stress),
		FatigueBaseline: mean(fatigue),
		DataPoints:      len(samples),
		IsDefault:       false,
		UpdatedAt:       now,
	}
}

// AnalyzeRisk scores a sample against the subject's baseline.  mc may be
// nil when no mission context was ever saved.
func AnalyzeRisk(s model.VitalsSample, b model.Baseline, mc *model.MissionContext) model.RiskAnalysis {
	factors := []model.AlertFactor{}
	risk := 0

	dev := math.Abs(s.HeartRate-b.HRBaseline) / math.Max(b.HRStd, 1)
	if dev > 2 {
		f := model.AlertFactor{
			Factor:         "heart_rate_deviation",
			Severity:       "moderate",
			Message:        "Heart rate significantly deviates from personal baseline",
			DeviationSigma: round(dev, 2),
		}
		risk += 20
		if dev >= 3 {
			f.Severity = "high"
			risk += 15
		}
		factors = append(factors, f)
	}

	if s.StressLevel > 70 {
		f := model.AlertFactor{Factor: "high_stress", Severity: "moderate", Message: "Elevated stress levels detected", Value: s.StressLevel}
		risk += 20
		if s.StressLevel >= 85 {
			f.Severity = "high"
			risk += 10
		}
		factors = append(factors, f)
	}

	if s.FatigueLevel > 65 {
		f := model.AlertFactor{Factor: "high_fatigue", Severity: "moderate", Message: "Significant fatigue indicators present", Value: s.FatigueLevel}
		risk += 15
		if s.FatigueLevel >= 80 {
			f.Severity = "high"
			risk += 10
		}
		factors = append(factors, f)
	}

	// stress is expected during demanding phases
	if mc != nil && (mc.MissionPhase == "eva" || mc.MissionPhase == "high-load") {
		risk = int(float64(risk) * 0.8)
	}

	level := 0
	switch {
	case risk >= escalateMedical:
		level = model.AlertLevelMedicalReview
	case risk >= escalateAdaptive:
		level = model.AlertLevelAdaptive
	case risk >= escalatePreventive:
		level = model.AlertLevelPreventive
	}

	return model.RiskAnalysis{
		RiskLevel:       min(risk, 100),
		RiskFactors:     factors,
		EscalationLevel: level,
		Recommendations: Recommendations(level),
	}
}

// Recommendations lists coping suggestions for an escalation level.
func Recommendations(level int) []string {
	if level == 0 {
		return []string{"All indicators within normal range. Continue monitoring."}
	}
	var out []string
	if level >= model.AlertLevelPreventive {
		out = append(out,
			"Try a short paced-breathing exercise (inhale 4, hold 7, exhale 8)",
			"Pause for grounding: name five things you can see around you")
	}
	if level >= model.AlertLevelAdaptive {
		out = append(out,
			"Plan a rest period within the next two hours",
			"Reduce workload where mission-critical tasks allow")
	}
	if level >= model.AlertLevelMedicalReview {
		out = append(out,
			"Flag for onboard medical review",
			"Contact mission control at the next communication window")
	}
	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out
}

// AlertMessage is the headline stored on an alert of the given level.
func AlertMessage(level int) string {
	switch level {
	case model.AlertLevelMedicalReview:
		return "Medical review recommended: multiple indicators well outside baseline"
	case model.AlertLevelAdaptive:
		return "Adaptive support recommended: sustained strain detected"
	default:
		return "Preventive check-in suggested: early signs of strain"
	}
}

// WindowStart is the first instant covered by an n-day timeline: midnight
// UTC n-1 days before now, so the window spans at most n calendar days.
func WindowStart(now time.Time, days int) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))
}

// DailyAverages buckets samples by UTC calendar day, oldest first, rounding
// each average to one decimal.  Samples before WindowStart(now, days) are
// ignored, so at most days buckets are returned.
func DailyAverages(samples []model.VitalsSample, days int, now time.Time) []model.TimelineBucket {
	start := WindowStart(now, days)
	type acc struct {
		n                        int
		hr, hrv, stress, fatigue float64
	}
	byDay := map[string]*acc{}
	var order []string
	for _, s := range samples {
		if s.Timestamp.Before(start) {
			continue
		}
		key := s.Timestamp.UTC().Format(time.DateOnly)
		a, ok := byDay[key]
		if !ok {
			a = &acc{}
			byDay[key] = a
			order = append(order, key)
		}
		a.n++
		a.hr += s.HeartRate
		a.hrv += s.HRV
		a.stress += s.StressLevel
		a.fatigue += s.FatigueLevel
	}
	slices.Sort(order)
	out := make([]model.TimelineBucket, 0, len(order))
	for _, day := range order {
		a := byDay[day]
		n := float64(a.n)
		out = append(out, model.TimelineBucket{
			Date:       day,
			AvgHR:      round(a.hr/n, 1),
			AvgHRV:     round(a.hrv/n, 1),
			AvgStress:  round(a.stress/n, 1),
			AvgFatigue: round(a.fatigue/n, 1),
		})
	}
	return out
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation.
func stddev(xs []float64) float64 {
	m := mean(xs)
	var sq float64
	for _, x := range xs {
		sq += (x - m) * (x - m)
	}
	return math.Sqrt(sq / float64(len(xs)))
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
