package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/astra-care/internal/model"
)

type recorder struct{ events []model.StreamEvent }

func (r *recorder) Broadcast(ev model.StreamEvent) { r.events = append(r.events, ev) }

func TestHandleMessage(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	body, err := json.Marshal(AlertRaisedEvent{AlertID: "a-1", AstronautID: "AST-001", Level: 3, Message: "Immediate attention", RaisedAt: at})
	require.NoError(t, err)

	var rec recorder
	require.NoError(t, HandleMessage(body, &rec))
	require.Len(t, rec.events, 1)
	assert.Equal(t, model.StreamEvent{
		Type: model.EventAlertRaised, AstronautID: "AST-001", AlertID: "a-1", Level: 3,
		Message: "Immediate attention", Timestamp: at,
	}, rec.events[0])
}

func TestHandleMessageRejects(t *testing.T) {
	var rec recorder
	assert.Error(t, HandleMessage([]byte("{not json"), &rec))
	assert.Error(t, HandleMessage([]byte(`{"alert_id":"a-1"}`), &rec))
	assert.Empty(t, rec.events)
}
