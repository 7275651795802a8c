package client

import (
	"errors"
	"slices"
	"sync"

	"github.com/iliyamo/astra-care/internal/model"
)

// View is one of the dashboard's closed set of screens.
type View int

const (
	ViewDashboard View = iota
	ViewVitals
	ViewBiometricScan
	ViewTimeline
	ViewChat
	ViewAlerts
	ViewMissionContext
	ViewCrewOverview
	numViews
)

var viewNames = [numViews]string{
	"dashboard", "vitals", "biometricScan", "timeline", "chat", "alerts", "missionContext", "crewOverview",
}

func (v View) String() string {
	if !v.valid() {
		return "unknown"
	}
	return viewNames[v]
}

func (v View) valid() bool { return v >= 0 && v < numViews }

var (
	ErrUnknownView   = errors.New("unknown view")
	ErrViewForbidden = errors.New("view not available for this role")
)

// ParseView maps a view name to its View.
func ParseView(name string) (View, error) {
	if i := slices.Index(viewNames[:], name); i >= 0 {
		return View(i), nil
	}
	return 0, ErrUnknownView
}

// ViewRouter holds the current view.  Navigation is a pure state change
// and never triggers a fetch.
type ViewRouter struct {
	role func() string

	mu      sync.Mutex
	current View
	leave   map[View][]func()
}

// NewViewRouter starts on the dashboard.  role reports the session role.
func NewViewRouter(role func() string) *ViewRouter {
	return &ViewRouter{role: role, leave: map[View][]func(){}}
}

// Current returns the active view.
func (r *ViewRouter) Current() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Allowed reports whether the current role may open v.
func (r *ViewRouter) Allowed(v View) bool {
	if !v.valid() {
		return false
	}
	if v == ViewCrewOverview {
		return r.role != nil && r.role() == model.RoleSupervisor
	}
	return true
}

// Views lists the views the current role may open, in menu order.
func (r *ViewRouter) Views() []View {
	out := make([]View, 0, numViews)
	for v := View(0); v < numViews; v++ {
		if r.Allowed(v) {
			out = append(out, v)
		}
	}
	return out
}

// OnLeave registers fn to run whenever v stops being the current view.
// Views use it to discard drafts and release devices.
func (r *ViewRouter) OnLeave(v View, fn func()) {
	r.mu.Lock()
	r.leave[v] = append(r.leave[v], fn)
	r.mu.Unlock()
}

// Navigate switches to v.
func (r *ViewRouter) Navigate(v View) error {
	if !v.valid() {
		return ErrUnknownView
	}
	if !r.Allowed(v) {
		return ErrViewForbidden
	}
	r.switchTo(v)
	return nil
}

// Reset returns to the dashboard, unmounting the current view.
func (r *ViewRouter) Reset() { r.switchTo(ViewDashboard) }

func (r *ViewRouter) switchTo(v View) {
	r.mu.Lock()
	prev := r.current
	if prev == v {
		r.mu.Unlock()
		return
	}
	r.current = v
	hooks := slices.Clone(r.leave[prev])
	r.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}
