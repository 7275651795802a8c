package client_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/astra-care/internal/client"
	"github.com/iliyamo/astra-care/internal/config"
	"github.com/iliyamo/astra-care/internal/model"
	"github.com/iliyamo/astra-care/internal/router/routertest"
)

func testConfig(apiURL string) config.ClientConfig {
	return config.ClientConfig{
		APIURL:       apiURL,
		PollInterval: time.Hour,
		TimelineDays: 7,
		ScanDelay:    time.Millisecond,
	}
}

// signedIn starts a server, registers an astronaut for AST-001 and returns
// an App logged in as that user with AST-001 selected.
func signedIn(t *testing.T) (*routertest.Server, *client.App) {
	t.Helper()
	srv := routertest.New(t, nil)
	srv.Register(t, "ast@example.com", model.RoleAstronaut, "AST-001")
	app := client.New(testConfig(srv.API()), nil, &client.MemoryTokenStore{}, nil)
	require.NoError(t, app.Login(context.Background(), "ast@example.com", "password-1"))
	require.Equal(t, "AST-001", app.Sync.Subject())
	return srv, app
}

// fakeCamera records acquire and release.
type fakeCamera struct {
	mu     sync.Mutex
	err    error
	opens  int
	closes int
	open   bool
}

func (c *fakeCamera) Open(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.opens++
	c.open = true
	return nil
}

func (c *fakeCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	c.open = false
	return nil
}

func (c *fakeCamera) isOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}
