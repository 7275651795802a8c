package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iliyamo/astra-care/internal/model"
)

// API declares every endpoint as a thin function over Gateway.Do.
type API struct {
	G *Gateway
}

func subjectPath(prefix, subject string) string { return prefix + url.PathEscape(subject) }

func (a API) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	var out model.AuthResponse
	err := a.G.Do(ctx, Call{Method: http.MethodPost, Path: "/auth/login", Body: req, Anonymous: true}, &out)
	return out, err
}

func (a API) Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	var out model.AuthResponse
	err := a.G.Do(ctx, Call{Method: http.MethodPost, Path: "/auth/register", Body: req, Anonymous: true}, &out)
	return out, err
}

// Me fetches the profile behind the current token.
func (a API) Me(ctx context.Context) (model.User, error) {
	var out model.User
	err := a.G.Do(ctx, Call{Method: http.MethodGet, Path: "/auth/me"}, &out)
	return out, err
}

func (a API) UpdateProfile(ctx context.Context, p model.ProfileUpdate) (model.User, error) {
	var out model.User
	err := a.G.Do(ctx, Call{Method: http.MethodPut, Path: "/auth/profile", Body: p}, &out)
	return out, err
}

func (a API) Ingest(ctx context.Context, in model.VitalsInput) (model.IngestResponse, error) {
	var out model.IngestResponse
	err := a.G.Do(ctx, Call{Method: http.MethodPost, Path: "/health/ingest", Body: in}, &out)
	return out, err
}

// LatestVitals returns nil when the subject has no samples.
func (a API) LatestVitals(ctx context.Context, subject string) (*model.VitalsSample, error) {
	var out *model.VitalsSample
	err := a.G.Do(ctx, Call{Method: http.MethodGet, Path: subjectPath("/health/latest/", subject)}, &out)
	return out, err
}

func (a API) Timeline(ctx context.Context, subject string, days int) (model.Timeline, error) {
	var out model.Timeline
	q := url.Values{"days": {strconv.Itoa(days)}}
	err := a.G.Do(ctx, Call{Method: http.MethodGet, Path: subjectPath("/health/timeline/", subject), Query: q}, &out)
	return out, err
}

func (a API) Baseline(ctx context.Context, subject string) (model.Baseline, error) {
	var out model.Baseline
	err := a.G.Do(ctx, Call{Method: http.MethodGet, Path: subjectPath("/baseline/", subject)}, &out)
	return out, err
}

func (a API) Recalibrate(ctx context.Context, subject string) (model.RecalibrateResponse, error) {
	var out model.RecalibrateResponse
	q := url.Values{"astronaut_id": {subject}}
	err := a.G.Do(ctx, Call{Method: http.MethodPost, Path: "/baseline/recalibrate", Query: q}, &out)
	return out, err
}

func (a API) AnalyzeFacial(ctx context.Context, in model.FacialAnalysisInput) (model.FacialAnalyzeResponse, error) {
	var out model.FacialAnalyzeResponse
	err := a.G.Do(ctx, Call{Method: http.MethodPost, Path: "/facial/analyze", Body: in}, &out)
	return out, err
}

// LatestFacial returns nil when no scan was stored.
func (a API) LatestFacial(ctx context.Context, subject string) (*model.FacialAnalysis, error) {
	var out *model.FacialAnalysis
	err := a.G.Do(ctx, Call{Method: http.MethodGet, Path: subjectPath("/facial/latest/", subject)}, &out)
	return out, err
}

func (a API) FacialHistory(ctx context.Context, subject string, limit int) ([]model.FacialAnalysis, error) {
	var out model.FacialHistory
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	err := a.G.Do(ctx, Call{Method: http.MethodGet, Path: subjectPath("/facial/history/", subject), Query: q}, &out)
	return out.Records, err
}

func (a API) Context(ctx context.Context, subject string) (model.MissionContext, error) {
	var out model.MissionContext
	err := a.G.Do(ctx, Call{Method: http.MethodGet, Path: subjectPath("/context/", subject)}, &out)
	return out, err
}

func (a API) UpdateContext(ctx context.Context, mc model.MissionContext) (model.MissionContext, error) {
	var out model.ContextUpdateResponse
	err := a.G.Do(ctx, Call{Method: http.MethodPost, Path: "/context/update", Body: mc}, &out)
	return out.Context, err
}

// Alerts lists the subject's active alerts.
func (a API) Alerts(ctx context.Context, subject string) ([]model.Alert, error) {
	var out model.AlertList
	err := a.G.Do(ctx, Call{Method: http.MethodGet, Path: subjectPath("/alerts/", subject)}, &out)
	return out.Alerts, err
}

// ActOnAlert reports whether the server found and moved the alert.
func (a API) ActOnAlert(ctx context.Context, act model.AlertAction) (bool, error) {
	var out model.SuccessResponse
	err := a.G.Do(ctx, Call{Method: http.MethodPost, Path: "/alerts/acknowledge", Body: act}, &out)
	return out.Success, err
}

func (a API) SendChat(ctx context.Context, req model.ChatRequest) (model.ChatResponse, error) {
	var out model.ChatResponse
	err := a.G.Do(ctx, Call{Method: http.MethodPost, Path: "/chat/send", Body: req}, &out)
	return out, err
}

func (a API) ChatHistory(ctx context.Context, subject string) ([]model.ChatExchange, error) {
	var out model.ChatHistory
	err := a.G.Do(ctx, Call{Method: http.MethodGet, Path: subjectPath("/chat/history/", subject)}, &out)
	return out.History, err
}

func (a API) Simulate(ctx context.Context, subject string, days int) (model.SimulationResult, error) {
	var out model.SimulationResult
	q := url.Values{"astronaut_id": {subject}, "days": {strconv.Itoa(days)}}
	err := a.G.Do(ctx, Call{Method: http.MethodPost, Path: "/simulate/generate", Query: q}, &out)
	return out, err
}

func (a API) Roster(ctx context.Context) ([]string, error) {
	var out model.Roster
	err := a.G.Do(ctx, Call{Method: http.MethodGet, Path: "/astronauts"}, &out)
	return out.Astronauts, err
}

// Status checks that the server is reachable; it needs no session.
func (a API) Status(ctx context.Context) (model.SystemStatus, error) {
	var out model.SystemStatus
	err := a.G.Do(ctx, Call{Method: http.MethodGet, Path: "/health", Anonymous: true}, &out)
	return out, err
}

func (a API) Summary(ctx context.Context, subject string) (model.DashboardSummary, error) {
	var out model.DashboardSummary
	err := a.G.Do(ctx, Call{Method: http.MethodGet, Path: subjectPath("/dashboard/summary/", subject)}, &out)
	return out, err
}
