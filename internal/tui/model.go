// Package tui renders the dashboard in a terminal.  It only reads client
// state and calls client operations; every network call runs as a tea.Cmd.
package tui

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/iliyamo/astra-care/internal/client"
	"github.com/iliyamo/astra-care/internal/model"
)

const (
	tickInterval   = 500 * time.Millisecond
	demoDays       = 7
	requestTimeout = 60 * time.Second
)

type tickMsg time.Time

// doneMsg reports the outcome of an asynchronous operation.
type doneMsg struct {
	op  string
	err error
}

// Model is the bubbletea model for the whole dashboard.
type Model struct {
	app *client.App
	ctx context.Context

	width  int
	height int

	// login screen
	registering bool
	loginFocus  int
	login       []textinput.Model
	role        int

	// per-view cursors and inputs
	vitals      []textinput.Model
	vitalsFocus int
	chatInput   textinput.Model
	chatView    viewport.Model
	chatFollow  bool
	alertCursor int
	missionRow  int
	crewCursor  int

	busy   string
	status string
	failed bool
}

var roles = []string{model.RoleAstronaut, model.RoleSupervisor, model.RoleMedical}

// New builds the model; ctx bounds every operation it starts.
func New(ctx context.Context, app *client.App) Model {
	m := Model{
		app: app,
		ctx: ctx,
		login: []textinput.Model{
			newInput("Email", 120),
			newPassword("Password"),
			newInput("Full name", 80),
			newInput("Astronaut ID", 20),
		},
		vitals: []textinput.Model{
			newNumber("Heart rate (BPM)"),
			newNumber("HRV (ms)"),
			newNumber("Stress (0-100)"),
			newNumber("Fatigue (0-100)"),
		},
		chatInput:  newInput("Message", 500),
		chatView:   viewport.New(80, 12),
		chatFollow: true,
	}
	focusOnly(m.login, 0)
	focusOnly(m.vitals, 0)
	m.chatInput.Focus()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

// run wraps a client call as a command reporting op when done.
func (m Model) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, requestTimeout)
		defer cancel()
		return doneMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) start(op string, fn func(ctx context.Context) error) (Model, tea.Cmd) {
	m.busy, m.status, m.failed = op, op+"…", false
	return m, m.run(op, fn)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.chatView.Width = max(20, msg.Width-4)
		m.chatView.Height = max(3, msg.Height-12)
		return m, nil
	case tickMsg:
		return m, tick()
	case doneMsg:
		return m.finish(msg), nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.app.Session.Screen() == client.ScreenLogin {
			return m.updateLogin(msg)
		}
		return m.updateDashboard(msg)
	}
	return m, nil
}

func (m Model) finish(msg doneMsg) Model {
	if m.busy == msg.op {
		m.busy = ""
	}
	if msg.err != nil {
		m.status, m.failed = msg.op+" failed: "+describe(msg.err), true
		return m
	}
	m.status, m.failed = msg.op+" done", false
	switch msg.op {
	case "submit vitals":
		for i := range m.vitals {
			m.vitals[i].Reset()
		}
	case "sign in", "register":
		m.login[1].Reset()
	}
	return m
}

func describe(err error) string {
	var ve *client.ValidationError
	var re *client.RequestError
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &re):
		if re.Message != "" {
			return re.Message
		}
		return strconv.Itoa(re.Status)
	}
	return err.Error()
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fields := m.loginFields()
	onRole := m.registering && m.loginFocus == len(m.login)
	switch msg.String() {
	case "ctrl+r":
		m.registering = !m.registering
		return m.focusLogin(0), nil
	case "tab", "down":
		return m.focusLogin((m.loginFocus + 1) % fields), nil
	case "shift+tab", "up":
		return m.focusLogin((m.loginFocus + fields - 1) % fields), nil
	case "left", "right":
		if onRole {
			d := 1
			if msg.String() == "left" {
				d = len(roles) - 1
			}
			m.role = (m.role + d) % len(roles)
			return m, nil
		}
	case "enter":
		if m.busy != "" {
			return m, nil
		}
		email, pw := m.login[0].Value(), m.login[1].Value()
		if !m.registering {
			return m.start("sign in", func(ctx context.Context) error { return m.app.Login(ctx, email, pw) })
		}
		req := model.RegisterRequest{
			Email: email, Password: pw, FullName: m.login[2].Value(),
			AstronautID: m.login[3].Value(), Role: roles[m.role],
		}
		return m.start("register", func(ctx context.Context) error { return m.app.Register(ctx, req) })
	}
	if onRole {
		return m, nil
	}
	var cmd tea.Cmd
	m.login[m.loginFocus], cmd = m.login[m.loginFocus].Update(msg)
	return m, cmd
}

func (m Model) focusLogin(i int) Model {
	m.loginFocus = i
	focusOnly(m.login, i)
	return m
}

// loginFields counts the focusable rows: two for sign in, the four text
// fields plus the role selector for registration.
func (m Model) loginFields() int {
	if m.registering {
		return len(m.login) + 1
	}
	return 2
}

// textView reports whether the current view takes free text, in which case
// digits and letters go to the input instead of shortcuts.
func textView(v client.View) bool {
	return v == client.ViewVitals || v == client.ViewChat
}

func (m Model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	views := m.app.Views.Views()
	cur := m.app.Views.Current()
	switch msg.String() {
	case "tab", "shift+tab":
		i := indexOf(views, cur)
		if msg.String() == "tab" {
			i = (i + 1) % len(views)
		} else {
			i = (i + len(views) - 1) % len(views)
		}
		m.navigate(views[i])
		return m, nil
	case "ctrl+l":
		if err := m.app.Logout(); err != nil {
			m.status, m.failed = "sign out: "+describe(err), true
		}
		return m, nil
	case "ctrl+r":
		m.app.Sync.Refresh()
		m.status, m.failed = "refreshing", false
		return m, nil
	}
	if !textView(cur) {
		if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '8' {
			m.navigate(client.View(s[0] - '1'))
			return m, nil
		}
	}

	switch cur {
	case client.ViewDashboard:
		return m.updateOverview(msg)
	case client.ViewVitals:
		return m.updateVitals(msg)
	case client.ViewBiometricScan:
		return m.updateScan(msg)
	case client.ViewTimeline:
		return m.updateTimeline(msg)
	case client.ViewChat:
		return m.updateChat(msg)
	case client.ViewAlerts:
		return m.updateAlerts(msg)
	case client.ViewMissionContext:
		return m.updateMission(msg)
	case client.ViewCrewOverview:
		return m.updateCrew(msg)
	}
	return m, nil
}

func (m *Model) navigate(v client.View) {
	if err := m.app.Views.Navigate(v); err != nil {
		m.status, m.failed = v.String()+": "+err.Error(), true
		return
	}
	m.status, m.failed = "", false
}

func indexOf(views []client.View, v client.View) int {
	for i, x := range views {
		if x == v {
			return i
		}
	}
	return 0
}

func (m Model) updateOverview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "g" && m.busy == "" {
		return m.start("generate demo data", func(ctx context.Context) error {
			_, err := m.app.Demo.Generate(ctx, demoDays)
			return err
		})
	}
	return m, nil
}

func (m Model) updateVitals(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down":
		m.vitalsFocus = (m.vitalsFocus + 1) % len(m.vitals)
		focusOnly(m.vitals, m.vitalsFocus)
		return m, nil
	case "up":
		m.vitalsFocus = (m.vitalsFocus + len(m.vitals) - 1) % len(m.vitals)
		focusOnly(m.vitals, m.vitalsFocus)
		return m, nil
	case "enter":
		if m.busy != "" {
			return m, nil
		}
		var vals [4]float64
		for i, in := range m.vitals {
			v, err := strconv.ParseFloat(in.Value(), 64)
			if err != nil || in.Err != nil {
				m.status, m.failed, m.vitalsFocus = vitalsLabels[i]+": enter a number", true, i
				focusOnly(m.vitals, i)
				return m, nil
			}
			vals[i] = v
		}
		in := client.ManualVitals{HeartRate: vals[0], HRV: vals[1], StressLevel: vals[2], FatigueLevel: vals[3]}
		return m.start("submit vitals", func(ctx context.Context) error {
			_, err := m.app.Vitals.Submit(ctx, in)
			return err
		})
	}
	msg, ok := numericKey(msg)
	if !ok {
		return m, nil
	}
	var cmd tea.Cmd
	m.vitals[m.vitalsFocus], cmd = m.vitals[m.vitalsFocus].Update(msg)
	return m, cmd
}

var vitalsLabels = []string{"Heart rate", "HRV", "Stress", "Fatigue"}

func (m Model) updateScan(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sc := m.app.Scanner
	switch msg.String() {
	case "c":
		return m.start("camera", func(ctx context.Context) error { return sc.Consent(ctx) })
	case "s":
		if !sc.CanScan() {
			return m, nil
		}
		return m.start("scan", func(ctx context.Context) error {
			_, err := sc.Scan(ctx)
			return err
		})
	case "x":
		sc.Stop()
		m.status, m.failed = "camera released", false
	}
	return m, nil
}

func (m Model) updateTimeline(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "w" {
		days := m.app.Sync.Snapshot().TimelineDays
		ws := model.TimelineWindows
		next := ws[0]
		for i, d := range ws {
			if d == days {
				next = ws[(i+1)%len(ws)]
			}
		}
		m.app.Sync.SetTimelineDays(next)
	}
	return m, nil
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := m.chatInput.Value()
		if m.app.Chat.Sending() {
			return m, nil
		}
		m.chatInput.Reset()
		return m.start("send", func(ctx context.Context) error {
			_, err := m.app.Chat.Send(ctx, text)
			return err
		})
	case "pgup", "pgdown":
		m.chatView.SetContent(chatTranscript(m.app.Sync.Snapshot().Chat))
		if m.chatFollow {
			m.chatView.GotoBottom()
		}
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		m.chatFollow = m.chatView.AtBottom()
		return m, cmd
	}
	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

func (m Model) updateAlerts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	alerts := m.app.Sync.Snapshot().Alerts
	switch msg.String() {
	case "down":
		if m.alertCursor < len(alerts)-1 {
			m.alertCursor++
		}
		return m, nil
	case "up":
		if m.alertCursor > 0 {
			m.alertCursor--
		}
		return m, nil
	}
	if m.alertCursor >= len(alerts) {
		return m, nil
	}
	id := alerts[m.alertCursor].ID
	a := m.app.Alerts
	switch msg.String() {
	case "a":
		return m.start("acknowledge", func(ctx context.Context) error { return a.Acknowledge(ctx, id) })
	case "d":
		return m.start("dismiss", func(ctx context.Context) error { return a.Dismiss(ctx, id) })
	case "e":
		return m.start("escalate", func(ctx context.Context) error { return a.Escalate(ctx, id) })
	}
	return m, nil
}

func (m Model) updateMission(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := m.app.Mission
	if !form.Editing() {
		if msg.String() == "e" {
			form.Edit()
			m.missionRow = 0
		}
		return m, nil
	}
	rows := len(client.ContextFields)
	switch msg.String() {
	case "down":
		m.missionRow = (m.missionRow + 1) % rows
	case "up":
		m.missionRow = (m.missionRow + rows - 1) % rows
	case "left", "right":
		d := 1
		if msg.String() == "left" {
			d = -1
		}
		if err := form.Cycle(client.ContextFields[m.missionRow], d); err != nil {
			m.status, m.failed = describe(err), true
		}
	case "esc":
		form.Cancel()
		m.status, m.failed = "edit cancelled", false
	case "enter":
		return m.start("save mission context", form.Save)
	}
	return m, nil
}

func (m Model) updateCrew(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	crew := m.app.Crew()
	switch msg.String() {
	case "down":
		if m.crewCursor < len(crew)-1 {
			m.crewCursor++
		}
	case "up":
		if m.crewCursor > 0 {
			m.crewCursor--
		}
	case "r":
		return m.start("load crew", m.app.LoadCrew)
	case "enter":
		if m.crewCursor < len(crew) {
			if err := m.app.SelectSubject(crew[m.crewCursor]); err != nil {
				m.status, m.failed = describe(err), true
				return m, nil
			}
			m.navigate(client.ViewDashboard)
		}
	}
	return m, nil
}
