package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/astra-care/internal/client"
	"github.com/iliyamo/astra-care/internal/model"
)

func TestGatewayAttachesTokenAndDecodes(t *testing.T) {
	var gotAuth, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth, gotType = r.Header.Get("Authorization"), r.Header.Get("Content-Type")
		assert.Equal(t, "/api/health/latest/AST-001", r.URL.Path)
		w.Write([]byte("null"))
	}))
	defer srv.Close()

	g := client.NewGateway(srv.URL + "/api/")
	g.Token = func() string { return "tok" }
	v, err := client.API{G: g}.LatestVitals(context.Background(), "AST-001")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "application/json", gotType)
}

func TestGatewayAnonymousCallsCarryNoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid email or password"}`))
	}))
	defer srv.Close()

	hooked := false
	g := client.NewGateway(srv.URL)
	g.Token = func() string { return "tok" }
	g.OnUnauthorized = func(string) { hooked = true }
	_, err := client.API{G: g}.Login(context.Background(), model.LoginRequest{Email: "a", Password: "b"})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, client.StatusOf(err))
	assert.False(t, hooked)
}

func TestGatewayErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		msg    string
	}{
		{"error field", http.StatusBadRequest, `{"error":"invalid source"}`, "invalid source"},
		{"detail field", http.StatusNotFound, `{"detail":"not found"}`, "not found"},
		{"plain body", http.StatusBadGateway, `upstream down`, http.StatusText(http.StatusBadGateway)},
		{"empty body", http.StatusInternalServerError, ``, http.StatusText(http.StatusInternalServerError)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			err := client.NewGateway(srv.URL).Do(context.Background(), client.Call{Method: http.MethodGet, Path: "/x"}, nil)
			var re *client.RequestError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tc.status, re.Status)
			assert.Equal(t, tc.msg, re.Message)
			assert.Equal(t, "GET /x", re.Endpoint)
		})
	}
}

func TestGatewayUnauthorizedHookRunsBeforeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var rejected string
	g := client.NewGateway(srv.URL)
	g.Token = func() string { return "stale" }
	g.OnUnauthorized = func(tok string) { rejected = tok }

	err := g.Do(context.Background(), client.Call{Method: http.MethodGet, Path: "/alerts/AST-001"}, nil)
	require.Error(t, err)
	assert.Equal(t, "stale", rejected)
	assert.Equal(t, http.StatusUnauthorized, client.StatusOf(err))
}

func TestGatewayTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := client.NewGateway(url).Do(context.Background(), client.Call{Method: http.MethodGet, Path: "/health"}, nil)
	require.Error(t, err)
	assert.Zero(t, client.StatusOf(err))
}
