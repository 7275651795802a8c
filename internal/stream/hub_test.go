package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/astra-care/internal/model"
)

func dial(t *testing.T, srv *httptest.Server, subject string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?subject=" + subject
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHubRoutesEventsBySubject(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, r.URL.Query().Get("subject"))
	}))
	defer srv.Close()

	a := dial(t, srv, "AST-001")
	b := dial(t, srv, "AST-002")

	var ev model.StreamEvent
	require.NoError(t, a.ReadJSON(&ev))
	assert.Equal(t, model.EventWelcome, ev.Type)
	require.NoError(t, b.ReadJSON(&ev))
	assert.Equal(t, model.EventWelcome, ev.Type)

	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 10*time.Millisecond)
	hub.Broadcast(model.StreamEvent{Type: model.EventAlertRaised, AstronautID: "AST-001", AlertID: "a-1", Level: 2})

	require.NoError(t, a.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, a.ReadJSON(&ev))
	assert.Equal(t, model.EventAlertRaised, ev.Type)
	assert.Equal(t, "a-1", ev.AlertID)

	require.NoError(t, b.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	assert.Error(t, b.ReadJSON(&ev), "AST-002 must not see AST-001 alerts")

	_ = a.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
}
