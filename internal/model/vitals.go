package model

import "time"

// Sample sources.
const (
	SourceManual    = "manual"
	SourceSensor    = "sensor"
	SourceSimulated = "simulated"
)

// Validation is the server's verdict on an ingested sample.
type Validation struct {
	IsValid            bool     `json:"is_valid"`
	Issues             []string `json:"issues"`
	AdjustedConfidence float64  `json:"adjusted_confidence"`
	DataFreshness      string   `json:"data_freshness,omitempty"`
}

// VitalsSample is one immutable health reading for a subject.  Newer
// samples supersede older ones; nothing ever mutates a stored sample.
type VitalsSample struct {
	ID           string     `json:"id"`
	AstronautID  string     `json:"astronaut_id"`
	HeartRate    float64    `json:"heart_rate"`
	HRV          float64    `json:"hrv"`
	StressLevel  float64    `json:"stress_level"`
	FatigueLevel float64    `json:"fatigue_level"`
	Source       string     `json:"source"`
	Confidence   float64    `json:"confidence"`
	Validation   Validation `json:"validation"`
	Timestamp    time.Time  `json:"timestamp"`
}

// VitalsInput is the body of POST /health/ingest.
type VitalsInput struct {
	AstronautID  string     `json:"astronaut_id"`
	HeartRate    float64    `json:"heart_rate"`
	HRV          float64    `json:"hrv"`
	StressLevel  float64    `json:"stress_level"`
	FatigueLevel float64    `json:"fatigue_level"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
	Confidence   *float64   `json:"confidence,omitempty"`
	Source       string     `json:"source,omitempty"`
}

// IngestResponse is returned by POST /health/ingest.
type IngestResponse struct {
	Success      bool         `json:"success"`
	RecordID     string       `json:"record_id"`
	Validation   Validation   `json:"validation"`
	RiskAnalysis RiskAnalysis `json:"risk_analysis"`
	AlertID      string       `json:"alert_id,omitempty"`
}

// TimelineBucket holds the daily averages for one calendar day (UTC).
type TimelineBucket struct {
	Date       string  `json:"date"`
	AvgHR      float64 `json:"avg_hr"`
	AvgHRV     float64 `json:"avg_hrv"`
	AvgStress  float64 `json:"avg_stress"`
	AvgFatigue float64 `json:"avg_fatigue"`
}

// Timeline is the response of GET /health/timeline/{id}.
type Timeline struct {
	Records       []VitalsSample   `json:"records"`
	DailyAverages []TimelineBucket `json:"daily_averages"`
	TotalRecords  int              `json:"total_records"`
}

// Lookback windows offered by the timeline view.
var TimelineWindows = []int{7, 14, 30}
