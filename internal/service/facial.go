package service

import (
	"context"

	"github.com/iliyamo/astra-care/internal/model"
)

const (
	mirrorDefaultHRV        = 50
	mirrorDefaultFatigue    = 30
	mirrorDefaultConfidence = 0.75
	facialHistoryLimit      = 50
)

// AnalyzeFacial stores a biometric scan.  When the scan carries a heart
// rate and a stress index a sensor vitals sample is mirrored so the scan
// shows up on the dashboard.
func (h *Health) AnalyzeFacial(ctx context.Context, in model.FacialAnalysisInput) (model.FacialAnalyzeResponse, error) {
	now := h.now()
	f := model.FacialAnalysis{
		AstronautID: in.AstronautID,
		Timestamp:   now,
		VitalEstimates: model.VitalEstimates{
			HeartRate:             in.EstimatedHR,
			RespirationRate:       in.RespirationRate,
			HRVTrend:              in.HRVTrend,
			OxygenSaturationTrend: in.OxygenSaturationTrend,
			BloodPressureTrend:    in.BloodPressureTrend,
		},
		MentalIndicators: model.MentalIndicators{
			MoodState:          in.MoodState,
			MentalStressIndex:  in.MentalStressIndex,
			FatigueProbability: in.FatigueProbability,
			AlertnessLevel:     in.AlertnessLevel,
			FacialTension:      in.FacialTension,
			PainLikelihood:     in.PainLikelihood,
		},
		PhysicalIndicators: model.PhysicalIndicators{
			BlinkRate:       in.BlinkRate,
			EyeOpenness:     in.EyeOpenness,
			SkinHydration:   in.SkinHydrationIndicator,
			DehydrationRisk: in.DehydrationRisk,
		},
		ConfidenceScores: in.ConfidenceScores,
		Disclaimer:       model.FacialDisclaimer,
	}
	if in.Timestamp != nil {
		f.Timestamp = in.Timestamp.UTC()
	}
	if f.ConfidenceScores == nil {
		f.ConfidenceScores = map[string]float64{}
	}
	if err := h.Facial.Insert(ctx, &f); err != nil {
		return model.FacialAnalyzeResponse{}, err
	}

	mirrored := false
	if in.EstimatedHR != nil && in.MentalStressIndex != nil {
		s := model.VitalsSample{
			AstronautID:  in.AstronautID,
			HeartRate:    *in.EstimatedHR,
			HRV:          deref(in.HRVTrend, mirrorDefaultHRV),
			StressLevel:  *in.MentalStressIndex,
			FatigueLevel: deref(in.FatigueProbability, mirrorDefaultFatigue),
			Source:       model.SourceSensor,
			Confidence:   mirrorDefaultConfidence,
			Timestamp:    now,
		}
		if c, ok := in.ConfidenceScores["overall"]; ok {
			s.Confidence = c
		}
		s.Validation = model.Validation{IsValid: true, Issues: []string{}, AdjustedConfidence: s.Confidence, DataFreshness: "current"}
		if err := h.Vitals.Insert(ctx, &s); err != nil {
			return model.FacialAnalyzeResponse{}, err
		}
		mirrored = true
	}

	return model.FacialAnalyzeResponse{
		Success:  true,
		RecordID: f.ID,
		AnalysisSummary: model.AnalysisSummary{
			Mood:        in.MoodState,
			StressIndex: in.MentalStressIndex,
			Fatigue:     in.FatigueProbability,
			Alertness:   in.AlertnessLevel,
			HeartRate:   in.EstimatedHR,
		},
		IntegratedToDashboard: mirrored,
	}, nil
}

// LatestFacial returns the newest scan or nil.
func (h *Health) LatestFacial(ctx context.Context, astronautID string) (*model.FacialAnalysis, error) {
	return h.Facial.Latest(ctx, astronautID)
}

// FacialHistory returns up to limit scans, newest first.
func (h *Health) FacialHistory(ctx context.Context, astronautID string, limit int) ([]model.FacialAnalysis, error) {
	if limit <= 0 || limit > facialHistoryLimit {
		limit = facialHistoryLimit
	}
	return h.Facial.History(ctx, astronautID, limit)
}

func deref(p *float64, d float64) float64 {
	if p == nil {
		return d
	}
	return *p
}
