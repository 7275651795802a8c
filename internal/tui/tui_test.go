package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/astra-care/internal/client"
	"github.com/iliyamo/astra-care/internal/config"
	"github.com/iliyamo/astra-care/internal/model"
	"github.com/iliyamo/astra-care/internal/router/routertest"
)

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// press feeds msg to the model and runs any operation it starts.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	if done, ok := cmd().(doneMsg); ok {
		next, _ = m.Update(done)
		m = next.(Model)
	}
	return m
}

func typeText(t *testing.T, m Model, s string) Model {
	for _, r := range s {
		m = press(t, m, runes(string(r)))
	}
	return m
}

func newModel(t *testing.T, role, astronautID string) (*routertest.Server, Model) {
	t.Helper()
	srv := routertest.New(t, nil)
	srv.Register(t, "user@example.com", role, astronautID)
	app := client.New(config.ClientConfig{
		APIURL:       srv.API(),
		PollInterval: time.Hour,
		TimelineDays: 7,
		ScanDelay:    time.Millisecond,
	}, nil, &client.MemoryTokenStore{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	app.Start(ctx)
	return srv, New(ctx, app)
}

func signIn(t *testing.T, m Model) Model {
	t.Helper()
	m = typeText(t, m, "user@example.com")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "password-1")
	return press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestLoginScreen(t *testing.T) {
	_, m := newModel(t, model.RoleAstronaut, "AST-001")
	assert.Contains(t, m.View(), "Sign in")

	m = typeText(t, m, "user@example.com")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "wrong")
	assert.Contains(t, stripANSI(m.View()), "•••••")
	assert.NotContains(t, stripANSI(m.View()), "wrong")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.failed)
	assert.Equal(t, client.ScreenLogin, m.app.Session.Screen())

	m.login[1].Reset()
	m = typeText(t, m, "password-1")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, client.ScreenDashboard, m.app.Session.Screen())
	assert.Empty(t, m.login[1].Value())
	assert.Contains(t, m.View(), "Wellness")
}

func TestRegisterScreen(t *testing.T) {
	_, m := newModel(t, model.RoleAstronaut, "AST-001")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.True(t, m.registering)
	m = typeText(t, m, "sup@example.com")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "password-2")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "Flight Surgeon")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, model.RoleSupervisor, roles[m.role])

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, client.ScreenDashboard, m.app.Session.Screen())
	assert.Equal(t, model.RoleSupervisor, m.app.Session.Role())
	assert.True(t, m.app.Views.Allowed(client.ViewCrewOverview))
}

func TestNavigation(t *testing.T) {
	_, m := signInModel(t)
	m = press(t, m, runes("4"))
	assert.Equal(t, client.ViewTimeline, m.app.Views.Current())

	m = press(t, m, runes("w"))
	assert.Equal(t, 14, m.app.Sync.Snapshot().TimelineDays)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, client.ViewChat, m.app.Views.Current())

	// digits are text inside the chat view
	m = press(t, m, runes("1"))
	assert.Equal(t, client.ViewChat, m.app.Views.Current())
	assert.Equal(t, "1", m.chatInput.Value())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m = press(t, m, runes("8"))
	assert.Equal(t, client.ViewTimeline, m.app.Views.Current())
	assert.True(t, m.failed)
}

func signInModel(t *testing.T) (*routertest.Server, Model) {
	srv, m := newModel(t, model.RoleAstronaut, "AST-001")
	m = signIn(t, m)
	require.Equal(t, client.ScreenDashboard, m.app.Session.Screen())
	return srv, m
}

func TestManualVitals(t *testing.T) {
	_, m := signInModel(t)
	m = press(t, m, runes("2"))
	require.Equal(t, client.ViewVitals, m.app.Views.Current())

	m = typeText(t, m, "75")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = typeText(t, m, "6x0")
	assert.Equal(t, "60", m.vitals[1].Value())
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = typeText(t, m, "40")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.failed)
	assert.Equal(t, 3, m.vitalsFocus)

	m = typeText(t, m, "30")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, m.failed, m.status)
	assert.Empty(t, m.vitals[0].Value())
	require.Eventually(t, func() bool { return m.app.Sync.Snapshot().Vitals != nil }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 75.0, m.app.Sync.Snapshot().Vitals.HeartRate)
}

func TestOutOfRangeVitalsAreRejected(t *testing.T) {
	_, m := signInModel(t)
	m = press(t, m, runes("2"))
	for i, v := range []string{"250", "60", "40", "30"} {
		m.vitals[i].SetValue(v)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.failed)
	assert.Contains(t, m.status, "heart_rate")
}

func TestMissionEditing(t *testing.T) {
	_, m := signInModel(t)
	m = press(t, m, runes("7"))
	m = press(t, m, runes("e"))
	require.True(t, m.app.Mission.Editing())
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, "eva", m.app.Mission.Draft().MissionPhase)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, m.failed, m.status)
	assert.False(t, m.app.Mission.Editing())
	assert.Equal(t, "eva", m.app.Sync.Snapshot().Context.MissionPhase)
}

func TestLogoutReturnsToLogin(t *testing.T) {
	_, m := signInModel(t)
	m = press(t, m, runes("3"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Equal(t, client.ScreenLogin, m.app.Session.Screen())
	assert.Equal(t, client.ViewDashboard, m.app.Views.Current())
	assert.NotContains(t, m.View(), "Session expired")
}

func TestDemoDataFillsTimeline(t *testing.T) {
	_, m := signInModel(t)
	m = press(t, m, runes("g"))
	require.False(t, m.failed, m.status)
	require.Eventually(t, func() bool { return len(m.app.Sync.Snapshot().Timeline) > 0 }, 2*time.Second, 10*time.Millisecond)
	m = press(t, m, runes("4"))
	assert.Contains(t, m.View(), "Last 7 days")
}

func TestStatusLineShowsLatestProblem(t *testing.T) {
	_, m := signInModel(t)
	m.app.Reporter.Report(client.SeverityDebug, "stream.read", errors.New("eof"))
	assert.NotContains(t, m.View(), "stream.read")

	m.app.Reporter.Report(client.SeverityWarn, "crew.load", errors.New("connection reset"))
	assert.Contains(t, stripANSI(m.View()), "crew.load: connection reset")
}

func TestChatHistoryScrolls(t *testing.T) {
	_, m := signInModel(t)
	require.Eventually(t, func() bool { return !m.app.Sync.Snapshot().LastSync.IsZero() }, 2*time.Second, 10*time.Millisecond)
	reply := "ok"
	var history []model.ChatExchange
	for i := range 30 {
		history = append(history, model.ChatExchange{ID: fmt.Sprint(i), UserMessage: fmt.Sprintf("msg %02d", i), AssistantResponse: &reply})
	}
	require.True(t, m.app.Sync.Mutate(m.app.Sync.Subject(), func(sn *client.Snapshot) { sn.Chat = history }))

	m = press(t, m, tea.WindowSizeMsg{Width: 100, Height: 20})
	m = press(t, m, runes("5"))
	require.Equal(t, client.ViewChat, m.app.Views.Current())
	out := stripANSI(m.View())
	assert.Contains(t, out, "msg 29")
	assert.NotContains(t, out, "msg 00")

	for range 10 {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	}
	out = stripANSI(m.View())
	assert.Contains(t, out, "msg 00")
	assert.NotContains(t, out, "msg 29")
	assert.Empty(t, m.chatInput.Value())

	for range 10 {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	}
	assert.True(t, m.chatFollow)
	assert.Contains(t, stripANSI(m.View()), "msg 29")
}

func TestBar(t *testing.T) {
	assert.Equal(t, 10, len([]rune(stripANSI(bar(100)))))
	assert.Equal(t, 10, len([]rune(stripANSI(bar(-5)))))
}

func stripANSI(s string) string {
	out := make([]rune, 0, len(s))
	esc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			esc = true
		case esc && r == 'm':
			esc = false
		case !esc:
			out = append(out, r)
		}
	}
	return string(out)
}
