package model

import "time"

// Default baseline values used until a subject has enough samples.
const (
	DefaultHRBaseline      = 70
	DefaultHRStd           = 10
	DefaultHRVBaseline     = 50
	DefaultHRVStd          = 15
	DefaultStressBaseline  = 30
	DefaultFatigueBaseline = 25

	// MinBaselineSamples is the number of samples in the last seven days
	// required before a personal baseline replaces the defaults.
	MinBaselineSamples = 5
)

// Baseline is the per-subject rolling average of recent vitals.  It is
// owned by the server; the dashboard only reads it.
type Baseline struct {
	ID              string    `json:"id,omitempty"`
	AstronautID     string    `json:"astronaut_id"`
	HRBaseline      float64   `json:"hr_baseline"`
	HRStd           float64   `json:"hr_std"`
	HRVBaseline     float64   `json:"hrv_baseline"`
	HRVStd          float64   `json:"hrv_std"`
	StressBaseline  float64   `json:"stress_baseline"`
	FatigueBaseline float64   `json:"fatigue_baseline"`
	DataPoints      int       `json:"data_points"`
	IsDefault       bool      `json:"is_default"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StandardDeviations groups the spread of the two signals that carry one.
type StandardDeviations struct {
	HR  float64
	HRV float64
}

// StandardDeviations returns the heart rate and HRV spread.
func (b Baseline) StandardDeviations() StandardDeviations {
	return StandardDeviations{HR: b.HRStd, HRV: b.HRVStd}
}

// DefaultBaseline returns the population baseline for a subject.
func DefaultBaseline(astronautID string) Baseline {
	return Baseline{
		AstronautID:     astronautID,
		HRBaseline:      DefaultHRBaseline,
		HRStd:           DefaultHRStd,
		HRVBaseline:     DefaultHRVBaseline,
		HRVStd:          DefaultHRVStd,
		StressBaseline:  DefaultStressBaseline,
		FatigueBaseline: DefaultFatigueBaseline,
		IsDefault:       true,
	}
}

// RecalibrateResponse is returned by POST /baseline/recalibrate.
type RecalibrateResponse struct {
	Success  bool     `json:"success"`
	Baseline Baseline `json:"baseline"`
}
