package service

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"time"

	"github.com/iliyamo/astra-care/internal/model"
	"github.com/iliyamo/astra-care/internal/queue"
	"github.com/iliyamo/astra-care/internal/repository"
)

const (
	defaultConfidence = 0.9
	baselineWindow    = 7 * 24 * time.Hour
	alertListLimit    = 50
)

// Health ingests samples and derives everything computed from them.
type Health struct {
	Vitals    *repository.VitalsRepo
	Baselines *repository.BaselineRepo
	Contexts  *repository.ContextRepo
	Alerts    *repository.AlertRepo
	Facial    *repository.FacialRepo
	Publisher AlertPublisher // nil disables alert events

	Now  func() time.Time
	Rand *rand.Rand
}

func (h *Health) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

// Ingest validates and stores a sample, scores it and raises an alert when
// the escalation level is at least one.
func (h *Health) Ingest(ctx context.Context, in model.VitalsInput) (model.IngestResponse, error) {
	confidence := defaultConfidence
	if in.Confidence != nil {
		confidence = *in.Confidence
	}
	if in.Source == "" {
		in.Source = model.SourceManual
	}
	v := ValidateVitals(in, confidence)
	s := model.VitalsSample{
		AstronautID:  in.AstronautID,
		HeartRate:    in.HeartRate,
		HRV:          in.HRV,
		StressLevel:  in.StressLevel,
		FatigueLevel: in.FatigueLevel,
		Source:       in.Source,
		Confidence:   v.AdjustedConfidence,
		Validation:   v,
		Timestamp:    h.now(),
	}
	if in.Timestamp != nil {
		s.Timestamp = in.Timestamp.UTC()
	}
	if err := h.Vitals.Insert(ctx, &s); err != nil {
		return model.IngestResponse{}, err
	}

	risk, err := h.assess(ctx, s)
	if err != nil {
		return model.IngestResponse{}, err
	}
	resp := model.IngestResponse{Success: true, RecordID: s.ID, Validation: v, RiskAnalysis: risk}
	if risk.EscalationLevel > 0 {
		a, err := h.raise(ctx, s.AstronautID, risk)
		if err != nil {
			return model.IngestResponse{}, err
		}
		resp.AlertID = a.ID
	}
	return resp, nil
}

func (h *Health) assess(ctx context.Context, s model.VitalsSample) (model.RiskAnalysis, error) {
	b, err := h.Baseline(ctx, s.AstronautID)
	if err != nil {
		return model.RiskAnalysis{}, err
	}
	var mc *model.MissionContext
	switch got, err := h.Contexts.Get(ctx, s.AstronautID); {
	case err == nil:
		mc = &got
	case !errors.Is(err, repository.ErrNotFound):
		return model.RiskAnalysis{}, err
	}
	return AnalyzeRisk(s, b, mc), nil
}

func (h *Health) raise(ctx context.Context, astronautID string, risk model.RiskAnalysis) (model.Alert, error) {
	a := model.Alert{
		AstronautID:     astronautID,
		Level:           risk.EscalationLevel,
		Message:         AlertMessage(risk.EscalationLevel),
		Factors:         risk.RiskFactors,
		Recommendations: risk.Recommendations,
		CreatedAt:       h.now(),
	}
	if err := h.Alerts.Create(ctx, &a); err != nil {
		return model.Alert{}, err
	}
	if h.Publisher != nil {
		ev := queue.AlertRaisedEvent{AlertID: a.ID, AstronautID: a.AstronautID, Level: a.Level, Message: a.Message, RaisedAt: a.CreatedAt}
		if err := h.Publisher.PublishAlertRaised(ctx, ev); err != nil {
			log.Printf("health: alert %s not published: %v", a.ID, err)
		}
	}
	return a, nil
}

// Latest returns the newest sample or nil.
func (h *Health) Latest(ctx context.Context, astronautID string) (*model.VitalsSample, error) {
	return h.Vitals.Latest(ctx, astronautID)
}

// Timeline returns the samples and daily averages of the last days
// calendar days.
func (h *Health) Timeline(ctx context.Context, astronautID string, days int) (model.Timeline, error) {
	now := h.now()
	records, err := h.Vitals.Since(ctx, astronautID, WindowStart(now, days))
	if err != nil {
		return model.Timeline{}, err
	}
	return model.Timeline{
		Records:       records,
		DailyAverages: DailyAverages(records, days, now),
		TotalRecords:  len(records),
	}, nil
}

// Baseline returns the stored baseline, computing and storing one on
// first use.
func (h *Health) Baseline(ctx context.Context, astronautID string) (model.Baseline, error) {
	b, err := h.Baselines.Get(ctx, astronautID)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.Baseline{}, err
	}
	return h.Recalibrate(ctx, astronautID)
}

// Recalibrate recomputes the baseline from the last seven days.
func (h *Health) Recalibrate(ctx context.Context, astronautID string) (model.Baseline, error) {
	now := h.now()
	samples, err := h.Vitals.Since(ctx, astronautID, now.Add(-baselineWindow))
	if err != nil {
		return model.Baseline{}, err
	}
	b := ComputeBaseline(astronautID, samples, now)
	if err := h.Baselines.Upsert(ctx, &b); err != nil {
		return model.Baseline{}, err
	}
	return b, nil
}

// Simulate stores days of generated demo readings.  Demo data bypasses
// risk scoring so it never raises alerts.
func (h *Health) Simulate(ctx context.Context, astronautID string, days int) (model.SimulationResult, error) {
	r := h.Rand
	if r == nil {
		r = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed))
	}
	samples := SimulateVitals(astronautID, days, h.now(), r)
	if err := h.Vitals.InsertBatch(ctx, samples); err != nil {
		return model.SimulationResult{}, err
	}
	return model.SimulationResult{Success: true, RecordsCreated: len(samples)}, nil
}

// Context returns the saved mission context or the default one.
func (h *Health) Context(ctx context.Context, astronautID string) (model.MissionContext, error) {
	mc, err := h.Contexts.Get(ctx, astronautID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.DefaultMissionContext(astronautID), nil
	}
	return mc, err
}

// UpdateContext stores mc after validation by the caller.
func (h *Health) UpdateContext(ctx context.Context, mc model.MissionContext) (model.MissionContext, error) {
	mc.UpdatedAt = h.now()
	if err := h.Contexts.Upsert(ctx, mc); err != nil {
		return model.MissionContext{}, err
	}
	return mc, nil
}

// ListAlerts lists the subject's alerts filtered by status.
func (h *Health) ListAlerts(ctx context.Context, astronautID, status string) ([]model.Alert, error) {
	if status == "" {
		status = model.AlertActive
	}
	return h.Alerts.List(ctx, astronautID, status, alertListLimit)
}

// ActOnAlert moves an alert to action's status.  It reports false when
// the alert does not exist for the subject.
func (h *Health) ActOnAlert(ctx context.Context, a model.AlertAction, by string) (bool, error) {
	err := h.Alerts.SetStatus(ctx, a.AlertID, a.AstronautID, a.Action, by, h.now())
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Roster lists subjects with telemetry, or the default crew when empty.
func (h *Health) Roster(ctx context.Context) (model.Roster, error) {
	ids, err := h.Vitals.Subjects(ctx)
	if err != nil {
		return model.Roster{}, err
	}
	if len(ids) == 0 {
		ids = model.DefaultRoster
	}
	return model.Roster{Astronauts: ids}, nil
}

// Summary bundles every slice of a subject for the single-call dashboard.
func (h *Health) Summary(ctx context.Context, astronautID string) (model.DashboardSummary, error) {
	var (
		out model.DashboardSummary
		err error
	)
	if out.Health, err = h.Latest(ctx, astronautID); err != nil {
		return out, err
	}
	if out.Baseline, err = h.Baseline(ctx, astronautID); err != nil {
		return out, err
	}
	if out.Context, err = h.Context(ctx, astronautID); err != nil {
		return out, err
	}
	tl, err := h.Timeline(ctx, astronautID, 7)
	if err != nil {
		return out, err
	}
	out.Timeline = tl.DailyAverages
	if out.Alerts, err = h.ListAlerts(ctx, astronautID, model.AlertActive); err != nil {
		return out, err
	}
	if out.FacialAnalysis, err = h.LatestFacial(ctx, astronautID); err != nil {
		return out, err
	}
	out.Timestamp = h.now()
	return out, nil
}
