package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/astra-care/internal/model"
)

// VitalsRepo persists health samples.  Rows are append-only.
type VitalsRepo struct{ DB *sql.DB }

func NewVitalsRepo(db *sql.DB) *VitalsRepo { return &VitalsRepo{DB: db} }

const vitalsCols = "id,astronaut_id,heart_rate,hrv,stress_level,fatigue_level,source,confidence,validation,recorded_at"

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Insert stores s, assigning an ID when it has none.
func (r *VitalsRepo) Insert(ctx context.Context, s *model.VitalsSample) error {
	return insertVitals(ctx, r.DB, s)
}

// InsertBatch stores samples in one transaction.
func (r *VitalsRepo) InsertBatch(ctx context.Context, samples []model.VitalsSample) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for i := range samples {
		if err := insertVitals(ctx, tx, &samples[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertVitals(ctx context.Context, db execer, s *model.VitalsSample) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Validation.Issues == nil {
		s.Validation.Issues = []string{}
	}
	v, err := json.Marshal(s.Validation)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		"INSERT INTO health_data ("+vitalsCols+",created_at) VALUES (?,?,?,?,?,?,?,?,?,?,?)",
		s.ID, s.AstronautID, s.HeartRate, s.HRV, s.StressLevel, s.FatigueLevel,
		s.Source, s.Confidence, string(v), micros(s.Timestamp), micros(time.Now()))
	return err
}

// Latest returns the newest sample for a subject, or nil when there is none.
func (r *VitalsRepo) Latest(ctx context.Context, astronautID string) (*model.VitalsSample, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+vitalsCols+" FROM health_data WHERE astronaut_id=? ORDER BY recorded_at DESC LIMIT 1",
		astronautID)
	if err != nil {
		return nil, err
	}
	out, err := scanVitals(rows)
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return &out[0], nil
}

// Since returns samples recorded at or after since, oldest first.
func (r *VitalsRepo) Since(ctx context.Context, astronautID string, since time.Time) ([]model.VitalsSample, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+vitalsCols+" FROM health_data WHERE astronaut_id=? AND recorded_at>=? ORDER BY recorded_at ASC",
		astronautID, micros(since))
	if err != nil {
		return nil, err
	}
	return scanVitals(rows)
}

// Subjects lists every astronaut id with at least one sample.
func (r *VitalsRepo) Subjects(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT DISTINCT astronaut_id FROM health_data ORDER BY astronaut_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanVitals(rows *sql.Rows) ([]model.VitalsSample, error) {
	defer rows.Close()
	out := []model.VitalsSample{}
	for rows.Next() {
		var (
			s          model.VitalsSample
			validation string
			recordedAt int64
		)
		if err := rows.Scan(&s.ID, &s.AstronautID, &s.HeartRate, &s.HRV, &s.StressLevel, &s.FatigueLevel,
			&s.Source, &s.Confidence, &validation, &recordedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(validation), &s.Validation); err != nil {
			return nil, err
		}
		s.Timestamp = fromMicros(recordedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}
