// Package routertest serves the full API over a throwaway sqlite database
// for end-to-end tests.
package routertest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/astra-care/internal/config"
	"github.com/iliyamo/astra-care/internal/database/dbtest"
	"github.com/iliyamo/astra-care/internal/handler"
	"github.com/iliyamo/astra-care/internal/llm"
	"github.com/iliyamo/astra-care/internal/model"
	"github.com/iliyamo/astra-care/internal/queue"
	"github.com/iliyamo/astra-care/internal/repository"
	"github.com/iliyamo/astra-care/internal/router"
	"github.com/iliyamo/astra-care/internal/service"
	"github.com/iliyamo/astra-care/internal/stream"
)

// Secret signs every token issued by the test server.
const Secret = "routertest-secret"

// Server is a running API plus direct access to its internals.
type Server struct {
	*httptest.Server
	Health *service.Health
	Hub    *stream.Hub
}

// API returns the API base, e.g. http://127.0.0.1:1234/api.
func (s *Server) API() string { return s.URL + "/api" }

type hubPublisher struct{ hub *stream.Hub }

func (p hubPublisher) PublishAlertRaised(_ context.Context, ev queue.AlertRaisedEvent) error {
	p.hub.Broadcast(ev.StreamEvent())
	return nil
}

// New starts a server.  chat may be nil, in which case the companion
// answers with its fallback reply.
func New(t testing.TB, chat llm.Client) *Server {
	t.Helper()
	return NewWithDeps(t, chat, nil)
}

// NewWithDeps is New with a hook that may adjust the router dependencies,
// for example to install limiter or cache middleware.
func NewWithDeps(t testing.TB, chat llm.Client, adjust func(*router.Deps)) *Server {
	t.Helper()
	db := dbtest.New(t)
	hub := stream.NewHub()
	vitals := repository.NewVitalsRepo(db)
	contexts := repository.NewContextRepo(db)
	health := &service.Health{
		Vitals:    vitals,
		Baselines: repository.NewBaselineRepo(db),
		Contexts:  contexts,
		Alerts:    repository.NewAlertRepo(db),
		Facial:    repository.NewFacialRepo(db),
		Publisher: hubPublisher{hub},
	}
	companion := &service.Companion{Chats: repository.NewChatRepo(db), Vitals: vitals, LLM: chat}
	cfg := config.Config{Env: "test", JWTSecret: Secret, AccessTTLMin: 60, BcryptCost: bcrypt.MinCost}

	deps := router.Deps{
		JWTSecret: Secret,
		Auth:      handler.NewAuthHandler(cfg, repository.NewUserRepo(db), contexts),
		Telemetry: handler.NewTelemetryHandler(health),
		Chat:      handler.NewChatHandler(companion),
		Hub:       hub,
	}
	if adjust != nil {
		adjust(&deps)
	}
	e := router.New(deps)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return &Server{Server: srv, Health: health, Hub: hub}
}

// Register creates an account through the API and returns its token and user.
func (s *Server) Register(t testing.TB, email, role, astronautID string) model.AuthResponse {
	t.Helper()
	body, err := json.Marshal(model.RegisterRequest{Email: email, Password: "password-1", FullName: "Test " + role, Role: role, AstronautID: astronautID})
	require.NoError(t, err)
	resp, err := http.Post(s.API()+"/auth/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out model.AuthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
