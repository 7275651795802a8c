package client

import (
	"context"
	"fmt"

	"github.com/iliyamo/astra-care/internal/model"
)

// ValidationError names the first form field that failed a client check.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Reason) }

// Manual entry bounds.
var (
	ManualHeartRate = Range{40, 200}
	ManualHRV       = Range{0, 200}
	ManualPercent   = Range{0, 100}
)

// ManualVitals is the manual entry form.
type ManualVitals struct {
	HeartRate    float64
	HRV          float64
	StressLevel  float64
	FatigueLevel float64
}

// Validate range-checks every field.
func (m ManualVitals) Validate() error {
	checks := []struct {
		field string
		v     float64
		r     Range
	}{
		{"heart_rate", m.HeartRate, ManualHeartRate},
		{"hrv", m.HRV, ManualHRV},
		{"stress_level", m.StressLevel, ManualPercent},
		{"fatigue_level", m.FatigueLevel, ManualPercent},
	}
	for _, c := range checks {
		if !c.r.Contains(c.v) {
			return &ValidationError{Field: c.field, Reason: fmt.Sprintf("must be between %g and %g", c.r.Min, c.r.Max)}
		}
	}
	return nil
}

// Ingester stores a sample.
type Ingester interface {
	Ingest(ctx context.Context, in model.VitalsInput) (model.IngestResponse, error)
}

// VitalsForm submits manual samples.
type VitalsForm struct {
	api  Ingester
	sync *Synchronizer
	rep  *Reporter
}

func NewVitalsForm(api Ingester, s *Synchronizer, rep *Reporter) *VitalsForm {
	return &VitalsForm{api: api, sync: s, rep: rep}
}

// Submit validates m, ingests it as a manual sample and requests a resync.
// On failure the caller keeps the form populated for retry.
func (f *VitalsForm) Submit(ctx context.Context, m ManualVitals) (model.IngestResponse, error) {
	if err := m.Validate(); err != nil {
		return model.IngestResponse{}, err
	}
	subject := f.sync.Subject()
	if subject == "" {
		return model.IngestResponse{}, ErrNoSubject
	}
	resp, err := f.api.Ingest(ctx, model.VitalsInput{
		AstronautID:  subject,
		HeartRate:    m.HeartRate,
		HRV:          m.HRV,
		StressLevel:  m.StressLevel,
		FatigueLevel: m.FatigueLevel,
		Source:       model.SourceManual,
	})
	if err != nil {
		f.rep.Report(SeverityError, "vitals.submit", err, "subject", subject)
		return model.IngestResponse{}, err
	}
	f.sync.Refresh()
	return resp, nil
}
