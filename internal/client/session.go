package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/iliyamo/astra-care/internal/model"
)

// ErrAuthentication wraps every failed login or registration.
var ErrAuthentication = errors.New("authentication failed")

// Screen is the top-level surface: login without a token, dashboard with one.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenDashboard
)

func (s Screen) String() string {
	if s == ScreenDashboard {
		return "dashboard"
	}
	return "login"
}

// Session is a copy of the session state.  Token and User are either both
// set or both empty.
type Session struct {
	Token string
	User  *model.User
}

// Active reports whether a token is held.
func (s Session) Active() bool { return s.Token != "" }

// SessionStore owns the token and the signed-in user.
type SessionStore struct {
	api   API
	store TokenStore
	rep   *Reporter

	mu        sync.RWMutex
	token     string
	user      *model.User
	listeners []func(Session)
}

func NewSessionStore(api API, store TokenStore, rep *Reporter) *SessionStore {
	if store == nil {
		store = &MemoryTokenStore{}
	}
	return &SessionStore{api: api, store: store, rep: rep}
}

// Token returns the current bearer token or "".
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Current returns a copy of the session.
func (s *SessionStore) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *SessionStore) snapshotLocked() Session {
	out := Session{Token: s.token}
	if s.user != nil {
		u := *s.user
		out.User = &u
	}
	return out
}

// Screen derives the top-level surface from the token.
func (s *SessionStore) Screen() Screen {
	if s.Token() == "" {
		return ScreenLogin
	}
	return ScreenDashboard
}

// Role returns the signed-in user's role or "".
func (s *SessionStore) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Role
}

// Subscribe registers fn to run after every session change.
func (s *SessionStore) Subscribe(fn func(Session)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// set replaces the session and notifies listeners outside the lock.
func (s *SessionStore) set(token string, u *model.User) Session {
	s.mu.Lock()
	s.token, s.user = token, u
	snap := s.snapshotLocked()
	ls := append([]func(Session){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range ls {
		fn(snap)
	}
	return snap
}

// Login signs in.  On failure the previous session is left untouched.
func (s *SessionStore) Login(ctx context.Context, email, password string) error {
	resp, err := s.api.Login(ctx, model.LoginRequest{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		s.rep.Report(SeverityInfo, "session.login", err)
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	return s.adopt(resp)
}

// Register creates the account and signs in with it.
func (s *SessionStore) Register(ctx context.Context, req model.RegisterRequest) error {
	resp, err := s.api.Register(ctx, req)
	if err != nil {
		s.rep.Report(SeverityInfo, "session.register", err)
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	return s.adopt(resp)
}

func (s *SessionStore) adopt(resp model.AuthResponse) error {
	if resp.AccessToken == "" {
		return fmt.Errorf("%w: no token in response", ErrAuthentication)
	}
	u := resp.User
	s.set(resp.AccessToken, &u)
	if err := s.store.Save(resp.AccessToken); err != nil {
		s.rep.Report(SeverityWarn, "session.persist", err)
	}
	return nil
}

// Logout clears the token everywhere.  The in-memory session is cleared
// even when the durable copy cannot be removed.
func (s *SessionStore) Logout() error {
	s.set("", nil)
	if err := s.store.Clear(); err != nil {
		s.rep.Report(SeverityError, "session.logout", err)
		return err
	}
	return nil
}

// Restore runs once at startup.  A stored token is kept only when the
// profile fetch succeeds; any failure clears it without surfacing an
// error.  It reports whether a session is now active.
func (s *SessionStore) Restore(ctx context.Context) bool {
	tok, err := s.store.Load()
	if err != nil {
		s.rep.Report(SeverityWarn, "session.restore", err)
		_ = s.store.Clear()
		return false
	}
	if tok == "" {
		return false
	}
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()

	u, err := s.api.Me(ctx)
	if err != nil {
		s.rep.Report(SeverityWarn, "session.restore", err)
		s.set("", nil)
		if err := s.store.Clear(); err != nil {
			s.rep.Report(SeverityError, "session.restore", err)
		}
		return false
	}
	s.set(tok, &u)
	return true
}

// Invalidate drops the session in place after the server rejected the
// token.  Nothing else in memory is touched; listeners switch the screen
// back to login.
func (s *SessionStore) Invalidate() { s.invalidate("") }

// InvalidateToken invalidates only when tok is still the current token, so
// a late 401 for an earlier session cannot sign out a newer one.
func (s *SessionStore) InvalidateToken(tok string) {
	if tok == "" {
		return
	}
	s.invalidate(tok)
}

// invalidate compares and clears under one lock so concurrent 401s from
// the same batch notify listeners once.  An empty want matches any token.
func (s *SessionStore) invalidate(want string) {
	s.mu.Lock()
	if s.token == "" || (want != "" && s.token != want) {
		s.mu.Unlock()
		return
	}
	s.token, s.user = "", nil
	snap := s.snapshotLocked()
	ls := append([]func(Session){}, s.listeners...)
	s.mu.Unlock()

	s.rep.Report(SeverityWarn, "session.invalidated", nil)
	for _, fn := range ls {
		fn(snap)
	}
	if err := s.store.Clear(); err != nil {
		s.rep.Report(SeverityError, "session.invalidated", err)
	}
}
