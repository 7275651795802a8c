package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/astra-care/internal/model"
)

// AlertRepo persists alerts raised by risk analysis.
type AlertRepo struct{ DB *sql.DB }

func NewAlertRepo(db *sql.DB) *AlertRepo { return &AlertRepo{DB: db} }

const alertCols = "id,astronaut_id,level,message,factors,recommendations,status,created_at,acknowledged_at,acknowledged_by"

// StatusAll disables the status filter of List.
const StatusAll = "all"

// Create inserts a as an active alert and fills its ID and CreatedAt.
func (r *AlertRepo) Create(ctx context.Context, a *model.Alert) error {
	a.ID = uuid.NewString()
	a.Status = model.AlertActive
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.Factors == nil {
		a.Factors = []model.AlertFactor{}
	}
	factors, err := json.Marshal(a.Factors)
	if err != nil {
		return err
	}
	recs, err := json.Marshal(a.Recommendations)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO alerts ("+alertCols+") VALUES (?,?,?,?,?,?,?,?,?,?)",
		a.ID, a.AstronautID, a.Level, a.Message, string(factors), string(recs), a.Status,
		micros(a.CreatedAt), nullMicros(a.AcknowledgedAt), sql.NullString{})
	return err
}

// List returns a subject's alerts with the given status (or StatusAll),
// newest first, at most limit rows.
func (r *AlertRepo) List(ctx context.Context, astronautID, status string, limit int) ([]model.Alert, error) {
	q := "SELECT " + alertCols + " FROM alerts WHERE astronaut_id=?"
	args := []any{astronautID}
	if status != StatusAll {
		q += " AND status=?"
		args = append(args, status)
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Get returns one alert or ErrNotFound.
func (r *AlertRepo) Get(ctx context.Context, id string) (model.Alert, error) {
	a, err := scanAlert(r.DB.QueryRowContext(ctx, "SELECT "+alertCols+" FROM alerts WHERE id=?", id))
	return a, notFound(err)
}

// SetStatus moves an alert of astronautID to status.  ErrNotFound is
// returned when no such alert belongs to the subject.
func (r *AlertRepo) SetStatus(ctx context.Context, id, astronautID, status, by string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE alerts SET status=?, acknowledged_at=?, acknowledged_by=? WHERE id=? AND astronaut_id=?",
		status, micros(at), by, id, astronautID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface{ Scan(dest ...any) error }

func scanAlert(s scanner) (model.Alert, error) {
	var (
		a              model.Alert
		factors, recs  string
		createdAt      int64
		acknowledgedAt sql.NullInt64
		acknowledgedBy sql.NullString
	)
	if err := s.Scan(&a.ID, &a.AstronautID, &a.Level, &a.Message, &factors, &recs, &a.Status,
		&createdAt, &acknowledgedAt, &acknowledgedBy); err != nil {
		return model.Alert{}, err
	}
	if err := json.Unmarshal([]byte(factors), &a.Factors); err != nil {
		return model.Alert{}, err
	}
	if err := json.Unmarshal([]byte(recs), &a.Recommendations); err != nil {
		return model.Alert{}, err
	}
	a.CreatedAt = fromMicros(createdAt)
	a.AcknowledgedAt = fromNullMicros(acknowledgedAt)
	a.AcknowledgedBy = acknowledgedBy.String
	return a, nil
}
