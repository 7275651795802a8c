package model

import "time"

// FacialDisclaimer is attached to every stored facial analysis.
const FacialDisclaimer = "All outputs are estimations, not medical diagnoses"

// VitalEstimates are the cardio-respiratory part of a facial analysis.
type VitalEstimates struct {
	HeartRate             *float64 `json:"heart_rate"`
	RespirationRate       *float64 `json:"respiration_rate"`
	HRVTrend              *float64 `json:"hrv_trend"`
	OxygenSaturationTrend *float64 `json:"oxygen_saturation_trend"`
	BloodPressureTrend    *string  `json:"blood_pressure_trend"`
}

// MentalIndicators are the affective part of a facial analysis.
type MentalIndicators struct {
	MoodState          *string  `json:"mood_state"`
	MentalStressIndex  *float64 `json:"mental_stress_index"`
	FatigueProbability *float64 `json:"fatigue_probability"`
	AlertnessLevel     *float64 `json:"alertness_level"`
	FacialTension      *float64 `json:"facial_tension"`
	PainLikelihood     *float64 `json:"pain_likelihood"`
}

// PhysicalIndicators are the ocular and hydration part of a facial analysis.
type PhysicalIndicators struct {
	BlinkRate       *float64 `json:"blink_rate"`
	EyeOpenness     *float64 `json:"eye_openness"`
	SkinHydration   *string  `json:"skin_hydration"`
	DehydrationRisk *float64 `json:"dehydration_risk"`
}

// FacialAnalysis is a stored biometric scan result.
type FacialAnalysis struct {
	ID                 string             `json:"id"`
	AstronautID        string             `json:"astronaut_id"`
	Timestamp          time.Time          `json:"timestamp"`
	VitalEstimates     VitalEstimates     `json:"vital_estimates"`
	MentalIndicators   MentalIndicators   `json:"mental_indicators"`
	PhysicalIndicators PhysicalIndicators `json:"physical_indicators"`
	ConfidenceScores   map[string]float64 `json:"confidence_scores"`
	Disclaimer         string             `json:"disclaimer"`
}

// FacialAnalysisInput is the flat body of POST /facial/analyze.
type FacialAnalysisInput struct {
	AstronautID            string             `json:"astronaut_id"`
	EstimatedHR            *float64           `json:"estimated_hr,omitempty"`
	RespirationRate        *float64           `json:"respiration_rate,omitempty"`
	HRVTrend               *float64           `json:"hrv_trend,omitempty"`
	OxygenSaturationTrend  *float64           `json:"oxygen_saturation_trend,omitempty"`
	BloodPressureTrend     *string            `json:"blood_pressure_trend,omitempty"`
	MoodState              *string            `json:"mood_state,omitempty"`
	MentalStressIndex      *float64           `json:"mental_stress_index,omitempty"`
	FatigueProbability     *float64           `json:"fatigue_probability,omitempty"`
	AlertnessLevel         *float64           `json:"alertness_level,omitempty"`
	FacialTension          *float64           `json:"facial_tension,omitempty"`
	PainLikelihood         *float64           `json:"pain_likelihood,omitempty"`
	BlinkRate              *float64           `json:"blink_rate,omitempty"`
	EyeOpenness            *float64           `json:"eye_openness,omitempty"`
	SkinHydrationIndicator *string            `json:"skin_hydration_indicator,omitempty"`
	DehydrationRisk        *float64           `json:"dehydration_risk,omitempty"`
	ConfidenceScores       map[string]float64 `json:"confidence_scores,omitempty"`
	Timestamp              *time.Time         `json:"timestamp,omitempty"`
}

// AnalysisSummary is the short digest returned after storing a scan.
type AnalysisSummary struct {
	Mood        *string  `json:"mood"`
	StressIndex *float64 `json:"stress_index"`
	Fatigue     *float64 `json:"fatigue"`
	Alertness   *float64 `json:"alertness"`
	HeartRate   *float64 `json:"heart_rate"`
}

// FacialAnalyzeResponse is returned by POST /facial/analyze.
type FacialAnalyzeResponse struct {
	Success               bool            `json:"success"`
	RecordID              string          `json:"record_id"`
	AnalysisSummary       AnalysisSummary `json:"analysis_summary"`
	IntegratedToDashboard bool            `json:"integrated_to_dashboard"`
}

// FacialHistory wraps GET /facial/history/{id}.
type FacialHistory struct {
	Records []FacialAnalysis `json:"records"`
}
