package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iliyamo/astra-care/internal/model"
)

var errNoSession = errors.New("stream: no session")

const (
	streamMinBackoff = 2 * time.Second
	streamMaxBackoff = 30 * time.Second
)

// AlertStream listens on the server's alert websocket for one subject and
// turns every alert event into an out-of-band resync.
type AlertStream struct {
	g      *Gateway
	sync   *Synchronizer
	rep    *Reporter
	dialer *websocket.Dialer

	// OnEvent, when set, sees every event after the resync is requested.
	OnEvent func(model.StreamEvent)
}

func NewAlertStream(g *Gateway, s *Synchronizer, rep *Reporter) *AlertStream {
	return &AlertStream{g: g, sync: s, rep: rep, dialer: websocket.DefaultDialer}
}

// wsURL turns the API base into a websocket URL for subject.
func (a *AlertStream) wsURL(subject string) string {
	u := a.g.URL(subjectPath("/stream/", subject), nil)
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// Run keeps a connection for subject open until ctx ends, reconnecting
// with backoff.
func (a *AlertStream) Run(ctx context.Context, subject string) error {
	backoff := streamMinBackoff
	for {
		connected, err := a.listen(ctx, subject)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			backoff = streamMinBackoff
		}
		a.rep.Report(SeverityWarn, "stream.disconnected", err, "subject", subject, "retry_in", backoff.String())
		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		backoff = min(backoff*2, streamMaxBackoff)
	}
}

// listen serves one connection.  connected reports whether the dial
// succeeded.
func (a *AlertStream) listen(ctx context.Context, subject string) (connected bool, err error) {
	hdr := http.Header{}
	tok := a.g.token()
	if tok == "" {
		return false, errNoSession
	}
	hdr.Set("Authorization", "Bearer "+tok)

	conn, resp, err := a.dialer.DialContext(ctx, a.wsURL(subject), hdr)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized && a.g.OnUnauthorized != nil {
			a.g.OnUnauthorized(tok)
		}
		return false, fmt.Errorf("stream: dial: %w", err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var ev model.StreamEvent
		if err := conn.ReadJSON(&ev); err != nil {
			return true, fmt.Errorf("stream: read: %w", err)
		}
		if ev.Type == model.EventAlertRaised && ev.AstronautID == subject {
			a.sync.Refresh()
		}
		if a.OnEvent != nil {
			a.OnEvent(ev)
		}
	}
}
