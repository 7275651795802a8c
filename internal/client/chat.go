package client

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/astra-care/internal/model"
)

var (
	ErrEmptyMessage = errors.New("chat: empty message")
	ErrSendInFlight = errors.New("chat: a message is already being sent")
	ErrNoSubject    = errors.New("no subject selected")
)

// ChatSender is the write side of the chat API.
type ChatSender interface {
	SendChat(ctx context.Context, req model.ChatRequest) (model.ChatResponse, error)
}

// Chat shows a sent message at once and reconciles it with the reply.
// Sends are serialized: a second Send while one is in flight fails.
type Chat struct {
	api  ChatSender
	sync *Synchronizer
	rep  *Reporter
	now  func() time.Time

	mu       sync.Mutex
	sending  bool
	sessions map[string]string // subject -> server session id
}

func NewChat(api ChatSender, s *Synchronizer, rep *Reporter) *Chat {
	return &Chat{api: api, sync: s, rep: rep, now: time.Now, sessions: map[string]string{}}
}

// Sending reports whether a send is in flight.
func (c *Chat) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// Send appends a pending exchange, posts text and fills the exchange in
// with the reply.  On failure the pending exchange is removed again.
func (c *Chat) Send(ctx context.Context, text string) (model.ChatExchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.ChatExchange{}, ErrEmptyMessage
	}
	subject := c.sync.Subject()
	if subject == "" {
		return model.ChatExchange{}, ErrNoSubject
	}
	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return model.ChatExchange{}, ErrSendInFlight
	}
	c.sending = true
	session := c.sessions[subject]
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	corr := uuid.NewString()
	pending := model.ChatExchange{ID: corr, AstronautID: subject, SessionID: session, UserMessage: text, Timestamp: c.now().UTC()}
	c.sync.Invalidate(SliceChat)
	c.sync.Mutate(subject, func(sn *Snapshot) { sn.Chat = append(sn.Chat, pending) })

	resp, err := c.api.SendChat(ctx, model.ChatRequest{AstronautID: subject, Message: text, SessionID: session})
	if err != nil {
		c.sync.Mutate(subject, func(sn *Snapshot) {
			sn.Chat = slices.DeleteFunc(sn.Chat, func(e model.ChatExchange) bool { return e.ID == corr })
		})
		c.rep.Report(SeverityError, "chat.send", err, "subject", subject)
		return model.ChatExchange{}, err
	}

	c.mu.Lock()
	if resp.SessionID != "" {
		c.sessions[subject] = resp.SessionID
	}
	c.mu.Unlock()

	done := pending
	reply := resp.Response
	done.AssistantResponse = &reply
	done.SessionID = resp.SessionID
	if resp.MessageID != "" {
		done.ID = resp.MessageID
	}
	c.sync.Invalidate(SliceChat)
	c.sync.Mutate(subject, func(sn *Snapshot) {
		if i := slices.IndexFunc(sn.Chat, func(e model.ChatExchange) bool { return e.ID == corr }); i >= 0 {
			sn.Chat[i] = done
		}
	})
	return done, nil
}

// ReplaceHistory returns server history followed by the exchanges in
// current that are still pending.
func ReplaceHistory(current, server []model.ChatExchange) []model.ChatExchange {
	out := slices.Clone(server)
	for _, e := range current {
		if e.Pending() {
			out = append(out, e)
		}
	}
	return out
}
