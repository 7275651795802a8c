package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/astra-care/internal/model"
)

// ContextRepo stores the current mission context of each subject.
type ContextRepo struct{ DB *sql.DB }

func NewContextRepo(db *sql.DB) *ContextRepo { return &ContextRepo{DB: db} }

// Get returns the stored context or ErrNotFound.
func (r *ContextRepo) Get(ctx context.Context, astronautID string) (model.MissionContext, error) {
	var (
		m         model.MissionContext
		updatedAt int64
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT astronaut_id, mission_phase, time_of_day, work_cycle, days_since_launch, current_workload, updated_at
		   FROM mission_context WHERE astronaut_id=?`, astronautID).
		Scan(&m.AstronautID, &m.MissionPhase, &m.TimeOfDay, &m.WorkCycle, &m.DaysSinceLaunch, &m.CurrentWorkload, &updatedAt)
	if err != nil {
		return model.MissionContext{}, notFound(err)
	}
	m.UpdatedAt = fromMicros(updatedAt)
	return m, nil
}

// Upsert replaces the subject's context.
func (r *ContextRepo) Upsert(ctx context.Context, m model.MissionContext) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE mission_context SET mission_phase=?, time_of_day=?, work_cycle=?, days_since_launch=?,
		        current_workload=?, updated_at=?
		  WHERE astronaut_id=?`,
		m.MissionPhase, m.TimeOfDay, m.WorkCycle, m.DaysSinceLaunch, m.CurrentWorkload, micros(m.UpdatedAt), m.AstronautID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO mission_context (id, astronaut_id, mission_phase, time_of_day, work_cycle,
		        days_since_launch, current_workload, updated_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		uuid.NewString(), m.AstronautID, m.MissionPhase, m.TimeOfDay, m.WorkCycle,
		m.DaysSinceLaunch, m.CurrentWorkload, micros(m.UpdatedAt))
	return err
}
