package client

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/iliyamo/astra-care/internal/model"
)

// ErrUnknownAlert is returned for an alert id that is not on screen or
// that the server did not find.  No other alert is touched.
var ErrUnknownAlert = errors.New("unknown alert")

// AlertActor is the write side of the alerts API.
type AlertActor interface {
	ActOnAlert(ctx context.Context, act model.AlertAction) (bool, error)
}

// Alerts acknowledges, dismisses and escalates the alerts on screen.
type Alerts struct {
	api  AlertActor
	sync *Synchronizer
	rep  *Reporter
	now  func() time.Time
}

func NewAlerts(api AlertActor, s *Synchronizer, rep *Reporter) *Alerts {
	return &Alerts{api: api, sync: s, rep: rep, now: time.Now}
}

func (a *Alerts) Acknowledge(ctx context.Context, alertID string) error {
	return a.act(ctx, alertID, model.AlertAcknowledged)
}

func (a *Alerts) Dismiss(ctx context.Context, alertID string) error {
	return a.act(ctx, alertID, model.AlertDismissed)
}

func (a *Alerts) Escalate(ctx context.Context, alertID string) error {
	return a.act(ctx, alertID, model.AlertEscalated)
}

// act sends exactly one request and, on success, moves only the named
// alert to status in the local state.
func (a *Alerts) act(ctx context.Context, alertID, status string) error {
	snap := a.sync.Snapshot()
	if !slices.ContainsFunc(snap.Alerts, func(al model.Alert) bool { return al.ID == alertID }) {
		return ErrUnknownAlert
	}
	ok, err := a.api.ActOnAlert(ctx, model.AlertAction{AlertID: alertID, AstronautID: snap.Subject, Action: status})
	if err != nil {
		a.rep.Report(SeverityError, "alerts."+status, err, "alert", alertID)
		return err
	}
	if !ok {
		a.rep.Report(SeverityWarn, "alerts."+status, ErrUnknownAlert, "alert", alertID)
		return ErrUnknownAlert
	}

	at := a.now().UTC()
	a.sync.Invalidate(SliceAlerts)
	a.sync.Mutate(snap.Subject, func(sn *Snapshot) {
		for i := range sn.Alerts {
			if sn.Alerts[i].ID == alertID {
				sn.Alerts[i].Status = status
				sn.Alerts[i].AcknowledgedAt = &at
			}
		}
	})
	return nil
}
