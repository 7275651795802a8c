package service

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/astra-care/internal/model"
)

func TestValidateVitals(t *testing.T) {
	v := ValidateVitals(model.VitalsInput{HeartRate: 75, HRV: 60, StressLevel: 40, FatigueLevel: 30}, 0.9)
	assert.True(t, v.IsValid)
	assert.Empty(t, v.Issues)
	assert.Equal(t, 0.9, v.AdjustedConfidence)
	assert.Equal(t, "unknown", v.DataFreshness)

	ts := time.Now()
	v = ValidateVitals(model.VitalsInput{HeartRate: 250, HRV: 60, StressLevel: 120, FatigueLevel: 30, Timestamp: &ts}, 1)
	assert.False(t, v.IsValid)
	assert.Len(t, v.Issues, 2)
	assert.InDelta(t, 0.56, v.AdjustedConfidence, 1e-9)
	assert.Equal(t, "current", v.DataFreshness)
}

func TestComputeBaseline(t *testing.T) {
	now := time.Now()
	few := []model.VitalsSample{{HeartRate: 90}, {HeartRate: 95}}
	b := ComputeBaseline("AST-001", few, now)
	assert.True(t, b.IsDefault)
	assert.Equal(t, 2, b.DataPoints)
	assert.Equal(t, float64(model.DefaultHRBaseline), b.HRBaseline)

	var samples []model.VitalsSample
	for _, hr := range []float64{60, 62, 64, 66, 68} {
		samples = append(samples, model.VitalsSample{HeartRate: hr, HRV: 50, StressLevel: 20, FatigueLevel: 10})
	}
	b = ComputeBaseline("AST-001", samples, now)
	assert.False(t, b.IsDefault)
	assert.Equal(t, 64.0, b.HRBaseline)
	assert.InDelta(t, 2.828, b.HRStd, 0.001)
	assert.Equal(t, 0.0, b.HRVStd)
	assert.Equal(t, 5, b.DataPoints)
}

func TestAnalyzeRisk(t *testing.T) {
	b := model.DefaultBaseline("AST-001")

	calm := AnalyzeRisk(model.VitalsSample{HeartRate: 72, StressLevel: 30, FatigueLevel: 20}, b, nil)
	assert.Equal(t, 0, calm.RiskLevel)
	assert.Equal(t, 0, calm.EscalationLevel)
	assert.Len(t, calm.Recommendations, 1)

	// 3.5 sigma heart rate, stress 90, fatigue 82: 35+30+25
	severe := AnalyzeRisk(model.VitalsSample{HeartRate: 105, StressLevel: 90, FatigueLevel: 82}, b, nil)
	assert.Equal(t, 90, severe.RiskLevel)
	assert.Equal(t, model.AlertLevelMedicalReview, severe.EscalationLevel)
	assert.Len(t, severe.RiskFactors, 3)
	assert.Equal(t, "high", severe.RiskFactors[0].Severity)
	assert.Equal(t, 3.5, severe.RiskFactors[0].DeviationSigma)
	assert.Len(t, severe.Recommendations, 4)

	// same sample during an EVA is softened to 72
	eva := model.DefaultMissionContext("AST-001")
	eva.MissionPhase = "eva"
	softened := AnalyzeRisk(model.VitalsSample{HeartRate: 105, StressLevel: 90, FatigueLevel: 82}, b, &eva)
	assert.Equal(t, 72, softened.RiskLevel)
	assert.Equal(t, model.AlertLevelAdaptive, softened.EscalationLevel)

	moderate := AnalyzeRisk(model.VitalsSample{HeartRate: 75, StressLevel: 75, FatigueLevel: 70}, b, nil)
	assert.Equal(t, 35, moderate.RiskLevel)
	assert.Equal(t, model.AlertLevelPreventive, moderate.EscalationLevel)
	assert.Equal(t, "moderate", moderate.RiskFactors[0].Severity)
}

func TestRecommendationsCapped(t *testing.T) {
	for level := 0; level <= 3; level++ {
		assert.LessOrEqual(t, len(Recommendations(level)), 4)
	}
	assert.Len(t, Recommendations(1), 2)
}

func TestDailyAveragesWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	at := func(daysAgo, hour int) time.Time {
		return time.Date(2026, 3, 10-daysAgo, hour, 0, 0, 0, time.UTC)
	}
	samples := []model.VitalsSample{
		{HeartRate: 99, Timestamp: at(7, 23)}, // outside a 7 day window
		{HeartRate: 70, HRV: 50, StressLevel: 30, FatigueLevel: 20, Timestamp: at(6, 8)},
		{HeartRate: 71, HRV: 51, StressLevel: 31, FatigueLevel: 21, Timestamp: at(6, 12)},
		{HeartRate: 80, HRV: 40, StressLevel: 40, FatigueLevel: 33.33, Timestamp: at(0, 9)},
	}
	buckets := DailyAverages(samples, 7, now)
	require.Len(t, buckets, 2)
	assert.Equal(t, "2026-03-04", buckets[0].Date)
	assert.Equal(t, 70.5, buckets[0].AvgHR)
	assert.Equal(t, "2026-03-10", buckets[1].Date)
	assert.Equal(t, 33.3, buckets[1].AvgFatigue)

	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), WindowStart(now, 7))
}

func TestDailyAveragesNeverExceedsWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	r := rand.New(rand.NewPCG(1, 2))
	samples := SimulateVitals("AST-001", 30, now, r)
	for _, days := range model.TimelineWindows {
		buckets := DailyAverages(samples, days, now)
		assert.LessOrEqual(t, len(buckets), days)
		for i := 1; i < len(buckets); i++ {
			assert.Less(t, buckets[i-1].Date, buckets[i].Date)
		}
	}
}

func TestSimulateVitals(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	samples := SimulateVitals("AST-002", 3, now, rand.New(rand.NewPCG(7, 7)))
	require.GreaterOrEqual(t, len(samples), 24)
	require.LessOrEqual(t, len(samples), 36)
	for _, s := range samples {
		assert.Equal(t, "AST-002", s.AstronautID)
		assert.Equal(t, model.SourceSimulated, s.Source)
		assert.True(t, s.Timestamp.Before(now))
		assert.GreaterOrEqual(t, s.Timestamp.Hour(), 6)
		assert.LessOrEqual(t, s.Timestamp.Hour(), 22)
		assert.GreaterOrEqual(t, s.HeartRate, 50.0)
		assert.LessOrEqual(t, s.HeartRate, 120.0)
		assert.GreaterOrEqual(t, s.Confidence, 0.85)
		assert.True(t, s.Validation.IsValid)
	}
}
