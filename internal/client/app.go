// Package client is the dashboard's data-sync and view-routing layer: the
// session, the API gateway, the polling synchronizer, the view router and
// the scan, chat, alert and form pipelines built on them.
package client

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/iliyamo/astra-care/internal/config"
	"github.com/iliyamo/astra-care/internal/model"
)

// ErrSubjectForbidden is returned when an astronaut selects another subject.
var ErrSubjectForbidden = errors.New("subject not available for this role")

// App owns every client component for one dashboard instance.
type App struct {
	Cfg      config.ClientConfig
	Reporter *Reporter
	Gateway  *Gateway
	API      API
	Session  *SessionStore
	Sync     *Synchronizer
	Views    *ViewRouter
	Chat     *Chat
	Scanner  *Scanner
	Alerts   *Alerts
	Mission  *MissionForm
	Vitals   *VitalsForm
	Demo     *Demo
	Stream   *AlertStream

	mu         sync.Mutex
	ctx        context.Context
	crew       []string
	userID     string
	streamFor  string
	streamStop context.CancelFunc
	runStream  func(ctx context.Context, subject string) error
}

// New wires the components.  store and cam may be nil: a nil store keeps
// the token in memory and a nil cam makes every consent fail.
func New(cfg config.ClientConfig, rep *Reporter, store TokenStore, cam Camera) *App {
	if rep == nil {
		rep = NewReporter(nil)
	}
	g := NewGateway(cfg.APIURL)
	api := API{G: g}
	sess := NewSessionStore(api, store, rep)
	g.Token = sess.Token
	g.OnUnauthorized = sess.InvalidateToken

	syn := NewSynchronizer(api, rep, cfg.PollInterval, cfg.TimelineDays)
	syn.SetGate(func() bool { return sess.Token() != "" })

	a := &App{
		Cfg:      cfg,
		Reporter: rep,
		Gateway:  g,
		API:      api,
		Session:  sess,
		Sync:     syn,
		Views:    NewViewRouter(sess.Role),
		Chat:     NewChat(api, syn, rep),
		Scanner:  NewScanner(cam, api, syn.Subject, cfg.ScanDelay, rep),
		Alerts:   NewAlerts(api, syn, rep),
		Mission:  NewMissionForm(api, syn, rep),
		Vitals:   NewVitalsForm(api, syn, rep),
		Demo:     NewDemo(api, syn, rep),
		Stream:   NewAlertStream(g, syn, rep),
		ctx:      context.Background(),
	}
	a.runStream = a.Stream.Run
	a.Views.OnLeave(ViewBiometricScan, a.Scanner.Stop)
	a.Views.OnLeave(ViewMissionContext, a.Mission.Cancel)
	sess.Subscribe(a.onSession)
	syn.Subscribe(a.onSnapshot)
	return a
}

// Start restores a stored session and runs the synchronizer until ctx
// ends.  It returns immediately.
func (a *App) Start(ctx context.Context) {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()
	go func() { _ = a.Sync.Run(ctx) }()
	a.Session.Restore(ctx)
}

// Close releases the camera and stops the alert stream.
func (a *App) Close() {
	a.Scanner.Stop()
	a.stopStream()
}

func (a *App) Login(ctx context.Context, email, password string) error {
	return a.Session.Login(ctx, email, password)
}

func (a *App) Register(ctx context.Context, req model.RegisterRequest) error {
	return a.Session.Register(ctx, req)
}

// Logout signs out and resets every per-user state.
func (a *App) Logout() error {
	err := a.Session.Logout()
	a.Views.Reset()
	a.Scanner.Stop()
	a.Sync.SetSubject("")
	a.mu.Lock()
	a.crew, a.userID = nil, ""
	a.mu.Unlock()
	a.stopStream()
	return err
}

// onSession follows session changes.  An invalidated session keeps the
// view, drafts and last snapshot in place; polling pauses through the
// synchronizer gate until someone signs in again.  When a different user
// signs in, the previous roster is dropped and a view the new role may not
// see falls back to the dashboard.
func (a *App) onSession(s Session) {
	if !s.Active() || s.User == nil {
		a.stopStream()
		return
	}
	a.mu.Lock()
	if a.userID != s.User.ID {
		a.crew = nil
	}
	a.userID = s.User.ID
	a.mu.Unlock()
	if !a.Views.Allowed(a.Views.Current()) {
		a.Views.Reset()
	}
	subject := a.Cfg.Subject
	if subject == "" || !canSelect(s.User, subject) {
		subject = s.User.AstronautID
	}
	if a.Sync.Subject() == subject {
		a.Sync.Refresh()
	} else {
		a.Sync.SetSubject(subject)
	}
	if s.User.Role != model.RoleAstronaut {
		go func() {
			if err := a.LoadCrew(a.context()); err != nil {
				a.Reporter.Report(SeverityWarn, "crew.load", err)
			}
		}()
	}
}

func (a *App) onSnapshot(snap Snapshot) {
	if !a.Cfg.Stream {
		return
	}
	want := snap.Subject
	if a.Session.Token() == "" {
		want = ""
	}
	a.mu.Lock()
	if a.streamFor == want {
		a.mu.Unlock()
		return
	}
	stop := a.streamStop
	a.streamFor, a.streamStop = "", nil
	var ctx context.Context
	if want != "" {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(a.ctx)
		a.streamFor, a.streamStop = want, cancel
	}
	a.mu.Unlock()

	if stop != nil {
		stop()
	}
	if ctx != nil {
		go func() { _ = a.runStream(ctx, want) }()
	}
}

func (a *App) stopStream() {
	a.mu.Lock()
	stop := a.streamStop
	a.streamFor, a.streamStop = "", nil
	a.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (a *App) context() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ctx
}

func canSelect(u *model.User, subject string) bool {
	return u.Role == model.RoleSupervisor || u.Role == model.RoleMedical || u.AstronautID == subject
}

// SelectSubject switches the dashboard to subject.
func (a *App) SelectSubject(subject string) error {
	u := a.Session.Current().User
	if u == nil || !canSelect(u, subject) {
		return ErrSubjectForbidden
	}
	a.Sync.SetSubject(subject)
	return nil
}

// LoadCrew fetches the roster shown in the crew overview.
func (a *App) LoadCrew(ctx context.Context) error {
	a.mu.Lock()
	owner := a.userID
	a.mu.Unlock()
	ids, err := a.API.Roster(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	if a.userID == owner {
		a.crew = ids
	}
	a.mu.Unlock()
	return nil
}

// Crew returns the last loaded roster.
func (a *App) Crew() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.crew)
}

// Wellness scores the current snapshot.
func (a *App) Wellness() Wellness {
	snap := a.Sync.Snapshot()
	return ComputeWellness(snap.Vitals, snap.Baseline)
}
