package client

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/iliyamo/astra-care/internal/model"
)

// ContextField is one editable mission context field.
type ContextField int

const (
	FieldMissionPhase ContextField = iota
	FieldTimeOfDay
	FieldWorkCycle
	FieldDaysSinceLaunch
	FieldWorkload
)

// ContextFields lists the form fields in display order.
var ContextFields = []ContextField{FieldMissionPhase, FieldTimeOfDay, FieldWorkCycle, FieldDaysSinceLaunch, FieldWorkload}

func (f ContextField) String() string {
	switch f {
	case FieldMissionPhase:
		return "mission_phase"
	case FieldTimeOfDay:
		return "time_of_day"
	case FieldWorkCycle:
		return "work_cycle"
	case FieldDaysSinceLaunch:
		return "days_since_launch"
	case FieldWorkload:
		return "current_workload"
	}
	return "unknown"
}

// Options returns the allowed values of an enumerated field, nil for days.
func (f ContextField) Options() []string {
	switch f {
	case FieldMissionPhase:
		return model.MissionPhases
	case FieldTimeOfDay:
		return model.TimesOfDay
	case FieldWorkCycle:
		return model.WorkCycles
	case FieldWorkload:
		return model.Workloads
	}
	return nil
}

// ContextSaver commits a mission context.
type ContextSaver interface {
	UpdateContext(ctx context.Context, mc model.MissionContext) (model.MissionContext, error)
}

// MissionForm stages mission context edits locally until Save.
type MissionForm struct {
	api  ContextSaver
	sync *Synchronizer
	rep  *Reporter

	mu      sync.Mutex
	editing bool
	draft   model.MissionContext
}

func NewMissionForm(api ContextSaver, s *Synchronizer, rep *Reporter) *MissionForm {
	return &MissionForm{api: api, sync: s, rep: rep}
}

// Edit starts a draft from the synchronized context.
func (m *MissionForm) Edit() {
	mc := m.sync.Snapshot().Context
	m.mu.Lock()
	m.editing, m.draft = true, mc
	m.mu.Unlock()
}

func (m *MissionForm) Editing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.editing
}

// Draft returns the staged values.
func (m *MissionForm) Draft() model.MissionContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// Cancel discards the draft.
func (m *MissionForm) Cancel() {
	m.mu.Lock()
	m.editing, m.draft = false, model.MissionContext{}
	m.mu.Unlock()
}

// Set stages value for field after checking it.
func (m *MissionForm) Set(field ContextField, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.editing {
		return &ValidationError{Field: field.String(), Reason: "form is not being edited"}
	}
	if field == FieldDaysSinceLaunch {
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return &ValidationError{Field: field.String(), Reason: "must be a positive integer"}
		}
		m.draft.DaysSinceLaunch = n
		return nil
	}
	opts := field.Options()
	if opts == nil {
		return &ValidationError{Field: field.String(), Reason: "unknown field"}
	}
	if !slices.Contains(opts, value) {
		return &ValidationError{Field: field.String(), Reason: "not an allowed value"}
	}
	switch field {
	case FieldMissionPhase:
		m.draft.MissionPhase = value
	case FieldTimeOfDay:
		m.draft.TimeOfDay = value
	case FieldWorkCycle:
		m.draft.WorkCycle = value
	case FieldWorkload:
		m.draft.CurrentWorkload = value
	}
	return nil
}

// Cycle steps an enumerated field by delta through its options, or the
// day count by delta (never below one).
func (m *MissionForm) Cycle(field ContextField, delta int) error {
	d := m.Draft()
	if field == FieldDaysSinceLaunch {
		return m.Set(field, strconv.Itoa(max(1, d.DaysSinceLaunch+delta)))
	}
	opts := field.Options()
	if len(opts) == 0 {
		return &ValidationError{Field: field.String(), Reason: "unknown field"}
	}
	cur := map[ContextField]string{
		FieldMissionPhase: d.MissionPhase,
		FieldTimeOfDay:    d.TimeOfDay,
		FieldWorkCycle:    d.WorkCycle,
		FieldWorkload:     d.CurrentWorkload,
	}[field]
	i := slices.Index(opts, cur)
	next := ((i+delta)%len(opts) + len(opts)) % len(opts)
	return m.Set(field, opts[next])
}

// Save validates and commits the draft with one request.  A failed save
// keeps the draft for retry.
func (m *MissionForm) Save(ctx context.Context) error {
	m.mu.Lock()
	if !m.editing {
		m.mu.Unlock()
		return &ValidationError{Field: "form", Reason: "form is not being edited"}
	}
	draft := m.draft
	m.mu.Unlock()

	subject := m.sync.Subject()
	if subject == "" {
		return ErrNoSubject
	}
	draft.AstronautID = subject
	if field := draft.Validate(); field != "" {
		return &ValidationError{Field: field, Reason: "invalid value"}
	}
	saved, err := m.api.UpdateContext(ctx, draft)
	if err != nil {
		m.rep.Report(SeverityError, "mission.save", err, "subject", subject)
		return err
	}

	m.Cancel()
	m.sync.Invalidate(SliceContext)
	m.sync.Mutate(subject, func(sn *Snapshot) { sn.Context = saved })
	m.sync.Refresh()
	return nil
}
