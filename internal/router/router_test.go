package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/astra-care/internal/middleware"
	"github.com/iliyamo/astra-care/internal/model"
	"github.com/iliyamo/astra-care/internal/router"
	"github.com/iliyamo/astra-care/internal/router/routertest"
)

func call(t *testing.T, method, url, token string, body, out any) int {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthIsPublic(t *testing.T) {
	srv := routertest.New(t, nil)
	var st model.SystemStatus
	assert.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.API()+"/health", "", nil, &st))
	assert.Equal(t, "healthy", st.Status)
}

func TestAuthFlow(t *testing.T) {
	srv := routertest.New(t, nil)
	reg := srv.Register(t, "ast1@example.com", model.RoleAstronaut, "AST-001")
	assert.Equal(t, "AST-001", reg.User.AstronautID)
	assert.Equal(t, "bearer", reg.TokenType)

	code := call(t, http.MethodPost, srv.API()+"/auth/register", "",
		model.RegisterRequest{Email: "AST1@example.com", Password: "x", FullName: "Dup"}, nil)
	assert.Equal(t, http.StatusConflict, code)

	code = call(t, http.MethodPost, srv.API()+"/auth/login", "",
		model.LoginRequest{Email: "ast1@example.com", Password: "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	var login model.AuthResponse
	code = call(t, http.MethodPost, srv.API()+"/auth/login", "",
		model.LoginRequest{Email: "ast1@example.com", Password: "password-1"}, &login)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, login.AccessToken)

	var me model.User
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.API()+"/auth/me", login.AccessToken, nil, &me))
	assert.Equal(t, "ast1@example.com", me.Email)
	assert.NotNil(t, me.LastLogin)

	assert.Equal(t, http.StatusUnauthorized, call(t, http.MethodGet, srv.API()+"/auth/me", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, http.MethodGet, srv.API()+"/auth/me", "garbage", nil, nil))
}

func TestSubjectAccess(t *testing.T) {
	srv := routertest.New(t, nil)
	ast := srv.Register(t, "a@example.com", model.RoleAstronaut, "AST-001")
	sup := srv.Register(t, "s@example.com", model.RoleSupervisor, "SUP-001")

	assert.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.API()+"/health/latest/AST-001", ast.AccessToken, nil, nil))
	assert.Equal(t, http.StatusForbidden, call(t, http.MethodGet, srv.API()+"/health/latest/AST-002", ast.AccessToken, nil, nil))
	assert.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.API()+"/health/latest/AST-002", sup.AccessToken, nil, nil))

	in := model.VitalsInput{AstronautID: "AST-002", HeartRate: 70, HRV: 50, StressLevel: 20, FatigueLevel: 20}
	assert.Equal(t, http.StatusForbidden, call(t, http.MethodPost, srv.API()+"/health/ingest", ast.AccessToken, in, nil))

	assert.Equal(t, http.StatusForbidden, call(t, http.MethodGet, srv.API()+"/astronauts", ast.AccessToken, nil, nil))
	var roster model.Roster
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.API()+"/astronauts", sup.AccessToken, nil, &roster))
	assert.Equal(t, model.DefaultRoster, roster.Astronauts)
}

func TestWritesForOtherSubjectsStoreNothing(t *testing.T) {
	srv := routertest.New(t, nil)
	ctx := context.Background()
	ast := srv.Register(t, "a@example.com", model.RoleAstronaut, "AST-001").AccessToken
	sup := srv.Register(t, "s@example.com", model.RoleSupervisor, "SUP-001").AccessToken

	raised, err := srv.Health.Ingest(ctx, model.VitalsInput{AstronautID: "AST-002", HeartRate: 110, HRV: 30, StressLevel: 90, FatigueLevel: 85})
	require.NoError(t, err)
	require.NotEmpty(t, raised.AlertID)
	before, err := srv.Health.Latest(ctx, "AST-002")
	require.NoError(t, err)

	hr, stress := 70.0, 20.0
	cases := []struct {
		name, method, path string
		body               any
	}{
		{"ingest", http.MethodPost, "/health/ingest", model.VitalsInput{AstronautID: "AST-002", HeartRate: 70, HRV: 50, StressLevel: 20, FatigueLevel: 20}},
		{"simulate", http.MethodPost, "/simulate/generate?astronaut_id=AST-002&days=3", nil},
		{"recalibrate", http.MethodPost, "/baseline/recalibrate?astronaut_id=AST-002", nil},
		{"acknowledge", http.MethodPost, "/alerts/acknowledge", model.AlertAction{AlertID: raised.AlertID, AstronautID: "AST-002", Action: model.AlertDismissed}},
		{"chat", http.MethodPost, "/chat/send", model.ChatRequest{AstronautID: "AST-002", Message: "hello"}},
		{"facial", http.MethodPost, "/facial/analyze", model.FacialAnalysisInput{AstronautID: "AST-002", EstimatedHR: &hr, MentalStressIndex: &stress}},
		{"context", http.MethodPost, "/context/update", model.MissionContext{AstronautID: "AST-002", MissionPhase: "eva", TimeOfDay: "night", WorkCycle: "rest", DaysSinceLaunch: 9, CurrentWorkload: "high"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, http.StatusForbidden, call(t, tc.method, srv.API()+tc.path, ast, tc.body, nil))
		})
	}

	latest, err := srv.Health.Latest(ctx, "AST-002")
	require.NoError(t, err)
	assert.Equal(t, before.ID, latest.ID)
	tl, err := srv.Health.Timeline(ctx, "AST-002", 7)
	require.NoError(t, err)
	assert.Equal(t, 1, tl.TotalRecords)

	alerts, err := srv.Health.ListAlerts(ctx, "AST-002", model.AlertActive)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, raised.AlertID, alerts[0].ID)

	facial, err := srv.Health.LatestFacial(ctx, "AST-002")
	require.NoError(t, err)
	assert.Nil(t, facial)

	mc, err := srv.Health.Context(ctx, "AST-002")
	require.NoError(t, err)
	assert.Equal(t, "transit", mc.MissionPhase)

	var history model.ChatHistory
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.API()+"/chat/history/AST-002", sup, nil, &history))
	assert.Empty(t, history.History)
}

func TestWritesWithoutSubjectAreRejected(t *testing.T) {
	srv := routertest.New(t, nil)
	sup := srv.Register(t, "s@example.com", model.RoleSupervisor, "SUP-001").AccessToken

	in := model.VitalsInput{HeartRate: 70, HRV: 50, StressLevel: 20, FatigueLevel: 20}
	assert.Equal(t, http.StatusBadRequest, call(t, http.MethodPost, srv.API()+"/health/ingest", sup, in, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, http.MethodPost, srv.API()+"/simulate/generate?days=2", sup, nil, nil))

	latest, err := srv.Health.Latest(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, latest)
	tl, err := srv.Health.Timeline(context.Background(), "", 7)
	require.NoError(t, err)
	assert.Zero(t, tl.TotalRecords)
}

func TestIngestRaisesAlertAndActions(t *testing.T) {
	srv := routertest.New(t, nil)
	tok := srv.Register(t, "a@example.com", model.RoleAstronaut, "AST-001").AccessToken

	var resp model.IngestResponse
	in := model.VitalsInput{AstronautID: "AST-001", HeartRate: 110, HRV: 30, StressLevel: 90, FatigueLevel: 85}
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, srv.API()+"/health/ingest", tok, in, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.RiskAnalysis.EscalationLevel)
	require.NotEmpty(t, resp.AlertID)

	var alerts model.AlertList
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.API()+"/alerts/AST-001", tok, nil, &alerts))
	require.Len(t, alerts.Alerts, 1)
	assert.Equal(t, resp.AlertID, alerts.Alerts[0].ID)

	assert.Equal(t, http.StatusBadRequest, call(t, http.MethodGet, srv.API()+"/alerts/AST-001?status=bogus", tok, nil, nil))

	var ok model.SuccessResponse
	act := model.AlertAction{AlertID: resp.AlertID, AstronautID: "AST-001", Action: model.AlertAcknowledged}
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, srv.API()+"/alerts/acknowledge", tok, act, &ok))
	assert.True(t, ok.Success)

	act.AlertID = "missing"
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, srv.API()+"/alerts/acknowledge", tok, act, &ok))
	assert.False(t, ok.Success)

	require.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.API()+"/alerts/AST-001", tok, nil, &alerts))
	assert.Empty(t, alerts.Alerts)
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.API()+"/alerts/AST-001?status=all", tok, nil, &alerts))
	require.Len(t, alerts.Alerts, 1)
	assert.Equal(t, model.AlertAcknowledged, alerts.Alerts[0].Status)
}

func TestSimulateAndTimeline(t *testing.T) {
	srv := routertest.New(t, nil)
	tok := srv.Register(t, "a@example.com", model.RoleAstronaut, "AST-001").AccessToken

	var sim model.SimulationResult
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, srv.API()+"/simulate/generate?astronaut_id=AST-001&days=3", tok, nil, &sim))
	assert.True(t, sim.Success)
	assert.Positive(t, sim.RecordsCreated)

	var tl model.Timeline
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.API()+"/health/timeline/AST-001?days=7", tok, nil, &tl))
	assert.Equal(t, len(tl.Records), tl.TotalRecords)
	assert.LessOrEqual(t, len(tl.DailyAverages), 7)
	assert.Equal(t, http.StatusBadRequest, call(t, http.MethodGet, srv.API()+"/health/timeline/AST-001?days=x", tok, nil, nil))

	var alerts model.AlertList
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.API()+"/alerts/AST-001?status=all", tok, nil, &alerts))
	assert.Empty(t, alerts.Alerts)
}

func TestContextAndChat(t *testing.T) {
	srv := routertest.New(t, nil)
	tok := srv.Register(t, "a@example.com", model.RoleAstronaut, "AST-001").AccessToken

	var mc model.MissionContext
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.API()+"/context/AST-001", tok, nil, &mc))
	assert.Equal(t, "transit", mc.MissionPhase)

	mc.MissionPhase = "eva"
	var upd model.ContextUpdateResponse
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, srv.API()+"/context/update", tok, mc, &upd))
	assert.Equal(t, "eva", upd.Context.MissionPhase)

	mc.MissionPhase = "lunch"
	assert.Equal(t, http.StatusBadRequest, call(t, http.MethodPost, srv.API()+"/context/update", tok, mc, nil))

	var chat model.ChatResponse
	req := model.ChatRequest{AstronautID: "AST-001", Message: "hello"}
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, srv.API()+"/chat/send", tok, req, &chat))
	assert.NotEmpty(t, chat.Response)
	assert.NotEmpty(t, chat.SessionID)

	req.Message = "   "
	assert.Equal(t, http.StatusBadRequest, call(t, http.MethodPost, srv.API()+"/chat/send", tok, req, nil))

	var hist model.ChatHistory
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.API()+"/chat/history/AST-001", tok, nil, &hist))
	require.Len(t, hist.History, 1)
	assert.Equal(t, "hello", hist.History[0].UserMessage)
}

func TestLimitersSeeCallerIdentity(t *testing.T) {
	var mu sync.Mutex
	var users, public []string
	record := func(into *[]string, key func(echo.Context) string) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				mu.Lock()
				*into = append(*into, key(c))
				mu.Unlock()
				return next(c)
			}
		}
	}
	srv := routertest.NewWithDeps(t, nil, func(d *router.Deps) {
		d.Limiter = record(&users, middleware.UserID)
		d.Public = record(&public, func(c echo.Context) string { return c.Path() })
	})
	a := srv.Register(t, "a@example.com", model.RoleAstronaut, "AST-001")
	b := srv.Register(t, "b@example.com", model.RoleAstronaut, "AST-002")

	require.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.API()+"/health/latest/AST-001", a.AccessToken, nil, nil))
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.API()+"/health/latest/AST-002", b.AccessToken, nil, nil))
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.API()+"/auth/me", a.AccessToken, nil, nil))
	require.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.API()+"/health", "", nil, nil))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{a.User.ID, b.User.ID, a.User.ID}, users)
	assert.Equal(t, []string{"/api/auth/register", "/api/auth/register", "/api/health"}, public)
}
