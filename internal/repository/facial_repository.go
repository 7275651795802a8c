package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/astra-care/internal/model"
)

// FacialRepo stores biometric scan results.  The indicator groups are
// kept as one JSON document per row.
type FacialRepo struct{ DB *sql.DB }

func NewFacialRepo(db *sql.DB) *FacialRepo { return &FacialRepo{DB: db} }

type facialPayload struct {
	VitalEstimates     model.VitalEstimates     `json:"vital_estimates"`
	MentalIndicators   model.MentalIndicators   `json:"mental_indicators"`
	PhysicalIndicators model.PhysicalIndicators `json:"physical_indicators"`
	ConfidenceScores   map[string]float64       `json:"confidence_scores"`
	Disclaimer         string                   `json:"disclaimer"`
}

// Insert stores f and fills its ID.
func (r *FacialRepo) Insert(ctx context.Context, f *model.FacialAnalysis) error {
	f.ID = uuid.NewString()
	p, err := json.Marshal(facialPayload{
		VitalEstimates:     f.VitalEstimates,
		MentalIndicators:   f.MentalIndicators,
		PhysicalIndicators: f.PhysicalIndicators,
		ConfidenceScores:   f.ConfidenceScores,
		Disclaimer:         f.Disclaimer,
	})
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO facial_analysis (id, astronaut_id, payload, recorded_at, created_at) VALUES (?,?,?,?,?)",
		f.ID, f.AstronautID, string(p), micros(f.Timestamp), micros(time.Now()))
	return err
}

// Latest returns the newest analysis, or nil when there is none.
func (r *FacialRepo) Latest(ctx context.Context, astronautID string) (*model.FacialAnalysis, error) {
	out, err := r.History(ctx, astronautID, 1)
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return &out[0], nil
}

// History returns up to limit analyses, newest first.
func (r *FacialRepo) History(ctx context.Context, astronautID string, limit int) ([]model.FacialAnalysis, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, astronaut_id, payload, recorded_at FROM facial_analysis WHERE astronaut_id=? ORDER BY recorded_at DESC LIMIT ?",
		astronautID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.FacialAnalysis{}
	for rows.Next() {
		var (
			f          model.FacialAnalysis
			payload    string
			recordedAt int64
			p          facialPayload
		)
		if err := rows.Scan(&f.ID, &f.AstronautID, &payload, &recordedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, err
		}
		f.Timestamp = fromMicros(recordedAt)
		f.VitalEstimates = p.VitalEstimates
		f.MentalIndicators = p.MentalIndicators
		f.PhysicalIndicators = p.PhysicalIndicators
		f.ConfidenceScores = p.ConfidenceScores
		f.Disclaimer = p.Disclaimer
		out = append(out, f)
	}
	return out, rows.Err()
}
