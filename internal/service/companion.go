package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/astra-care/internal/llm"
	"github.com/iliyamo/astra-care/internal/model"
	"github.com/iliyamo/astra-care/internal/repository"
)

// ErrEmptyMessage is returned for a blank chat message.
var ErrEmptyMessage = errors.New("message must not be empty")

const (
	contextExchanges = 6
	historyLimit     = 50
	replyTimeout     = 30 * time.Second
)

const companionPrompt = `You are ASTRA, a psychological support companion for crew members on long-duration space missions.
Be warm, calm and concise: usually two to four sentences.
Acknowledge how the crew member feels, offer one concrete technique (breathing, grounding, rest planning, focus or sleep routines), and close with reassurance.
Never diagnose. If physical symptoms come up, suggest logging them in the health system.`

// FallbackReply is sent when the language model is unavailable.
const FallbackReply = "I'm here with you. Let's take a slow breath together: in for four counts, hold for seven, out for eight. " +
	"When you're ready, tell me a little more about what's on your mind."

// Companion answers chat messages with a language model, grounding each
// reply in the recent conversation and the subject's latest vitals.
type Companion struct {
	Chats  *repository.ChatRepo
	Vitals *repository.VitalsRepo
	LLM    llm.Client
	Now    func() time.Time
}

// SessionID is the default conversation id: one session per subject per
// UTC day.
func SessionID(astronautID string, now time.Time) string {
	return astronautID + "-" + now.UTC().Format("20060102")
}

// Send stores the exchange and returns the companion's reply.
func (c *Companion) Send(ctx context.Context, req model.ChatRequest) (model.ChatResponse, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return model.ChatResponse{}, ErrEmptyMessage
	}
	now := time.Now().UTC()
	if c.Now != nil {
		now = c.Now().UTC()
	}
	session := req.SessionID
	if session == "" {
		session = SessionID(req.AstronautID, now)
	}

	prior, err := c.Chats.Recent(ctx, req.AstronautID, session, contextExchanges)
	if err != nil {
		return model.ChatResponse{}, err
	}
	latest, err := c.Vitals.Latest(ctx, req.AstronautID)
	if err != nil {
		return model.ChatResponse{}, err
	}

	reply := c.reply(ctx, buildMessages(prior, latest, msg))
	ex := model.ChatExchange{
		AstronautID:       req.AstronautID,
		SessionID:         session,
		UserMessage:       msg,
		AssistantResponse: &reply,
		Timestamp:         now,
	}
	if err := c.Chats.Insert(ctx, &ex); err != nil {
		return model.ChatResponse{}, err
	}
	return model.ChatResponse{Response: reply, SessionID: session, MessageID: ex.ID}, nil
}

// History returns the subject's recent exchanges, oldest first, optionally
// limited to one session.
func (c *Companion) History(ctx context.Context, astronautID, sessionID string, limit int) ([]model.ChatExchange, error) {
	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}
	return c.Chats.Recent(ctx, astronautID, sessionID, limit)
}

func (c *Companion) reply(ctx context.Context, msgs []llm.Message) string {
	if c.LLM == nil {
		return FallbackReply
	}
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()
	out, err := c.LLM.Chat(ctx, msgs)
	if err != nil || strings.TrimSpace(out) == "" {
		log.Printf("companion: using fallback reply: %v", err)
		return FallbackReply
	}
	return out
}

func buildMessages(prior []model.ChatExchange, latest *model.VitalsSample, msg string) []llm.Message {
	system := companionPrompt
	if latest != nil {
		system += fmt.Sprintf("\n\nCurrent health context: HR=%.0f BPM, Stress=%.0f%%, Fatigue=%.0f%%",
			latest.HeartRate, latest.StressLevel, latest.FatigueLevel)
	}
	msgs := []llm.Message{{Role: "system", Content: system}}
	for _, ex := range prior {
		msgs = append(msgs, llm.Message{Role: "user", Content: ex.UserMessage})
		if ex.AssistantResponse != nil {
			msgs = append(msgs, llm.Message{Role: "assistant", Content: *ex.AssistantResponse})
		}
	}
	return append(msgs, llm.Message{Role: "user", Content: msg})
}
