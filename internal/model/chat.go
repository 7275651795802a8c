package model

import "time"

// ChatExchange is one user message and the companion's reply.  A nil
// AssistantResponse marks an exchange that is still waiting for the
// server; such exchanges only ever exist in the dashboard's memory.
type ChatExchange struct {
	ID                string    `json:"id"`
	AstronautID       string    `json:"astronaut_id,omitempty"`
	SessionID         string    `json:"session_id,omitempty"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse *string   `json:"assistant_response"`
	Timestamp         time.Time `json:"timestamp"`
}

// Pending reports whether the exchange is still awaiting a reply.
func (c ChatExchange) Pending() bool { return c.AssistantResponse == nil }

// ChatRequest is the body of POST /chat/send.
type ChatRequest struct {
	AstronautID string `json:"astronaut_id"`
	Message     string `json:"message"`
	SessionID   string `json:"session_id,omitempty"`
}

// ChatResponse is returned by POST /chat/send.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	MessageID string `json:"message_id"`
}

// ChatHistory wraps GET /chat/history/{id}.
type ChatHistory struct {
	History []ChatExchange `json:"history"`
}
