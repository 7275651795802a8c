package repository

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/astra-care/internal/model"
)

// ChatRepo stores companion conversations, one row per exchange.
type ChatRepo struct{ DB *sql.DB }

func NewChatRepo(db *sql.DB) *ChatRepo { return &ChatRepo{DB: db} }

// Insert stores a completed exchange and fills its ID and Timestamp.
func (r *ChatRepo) Insert(ctx context.Context, c *model.ChatExchange) error {
	c.ID = uuid.NewString()
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}
	var reply string
	if c.AssistantResponse != nil {
		reply = *c.AssistantResponse
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO chat_history (id, astronaut_id, session_id, user_message, assistant_response, created_at) VALUES (?,?,?,?,?,?)",
		c.ID, c.AstronautID, c.SessionID, c.UserMessage, reply, micros(c.Timestamp))
	return err
}

// Recent returns the subject's last limit exchanges, oldest first.  A
// non-empty sessionID narrows the result to that conversation.
func (r *ChatRepo) Recent(ctx context.Context, astronautID, sessionID string, limit int) ([]model.ChatExchange, error) {
	q := "SELECT id, astronaut_id, session_id, user_message, assistant_response, created_at FROM chat_history WHERE astronaut_id=?"
	args := []any{astronautID}
	if sessionID != "" {
		q += " AND session_id=?"
		args = append(args, sessionID)
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ChatExchange{}
	for rows.Next() {
		var (
			c         model.ChatExchange
			reply     string
			createdAt int64
		)
		if err := rows.Scan(&c.ID, &c.AstronautID, &c.SessionID, &c.UserMessage, &reply, &createdAt); err != nil {
			return nil, err
		}
		c.AssistantResponse = &reply
		c.Timestamp = fromMicros(createdAt)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}
