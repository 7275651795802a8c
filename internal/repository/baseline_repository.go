package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/astra-care/internal/model"
)

// BaselineRepo stores one baseline row per subject.
type BaselineRepo struct{ DB *sql.DB }

func NewBaselineRepo(db *sql.DB) *BaselineRepo { return &BaselineRepo{DB: db} }

// Get returns the stored baseline or ErrNotFound.
func (r *BaselineRepo) Get(ctx context.Context, astronautID string) (model.Baseline, error) {
	var (
		b         model.Baseline
		updatedAt int64
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, astronaut_id, hr_baseline, hr_std, hrv_baseline, hrv_std, stress_baseline,
		        fatigue_baseline, data_points, is_default, updated_at
		   FROM baselines WHERE astronaut_id=?`, astronautID).
		Scan(&b.ID, &b.AstronautID, &b.HRBaseline, &b.HRStd, &b.HRVBaseline, &b.HRVStd,
			&b.StressBaseline, &b.FatigueBaseline, &b.DataPoints, &b.IsDefault, &updatedAt)
	if err != nil {
		return model.Baseline{}, notFound(err)
	}
	b.UpdatedAt = fromMicros(updatedAt)
	return b, nil
}

// Upsert replaces the subject's baseline.
func (r *BaselineRepo) Upsert(ctx context.Context, b *model.Baseline) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE baselines SET hr_baseline=?, hr_std=?, hrv_baseline=?, hrv_std=?, stress_baseline=?,
		        fatigue_baseline=?, data_points=?, is_default=?, updated_at=?
		  WHERE astronaut_id=?`,
		b.HRBaseline, b.HRStd, b.HRVBaseline, b.HRVStd, b.StressBaseline, b.FatigueBaseline,
		b.DataPoints, b.IsDefault, micros(b.UpdatedAt), b.AstronautID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO baselines (id, astronaut_id, hr_baseline, hr_std, hrv_baseline, hrv_std,
		        stress_baseline, fatigue_baseline, data_points, is_default, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		b.ID, b.AstronautID, b.HRBaseline, b.HRStd, b.HRVBaseline, b.HRVStd,
		b.StressBaseline, b.FatigueBaseline, b.DataPoints, b.IsDefault, micros(b.UpdatedAt))
	return err
}
