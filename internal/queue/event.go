// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/iliyamo/astra-care/internal/model"
)

// AlertQueueName is the durable queue alert events travel on.
const AlertQueueName = "alert.raised"

// AlertRaisedEvent is published when risk analysis opens a new alert.  It
// carries enough for the stream hub to notify dashboards without a
// database read.
type AlertRaisedEvent struct {
	AlertID     string    `json:"alert_id"`
	AstronautID string    `json:"astronaut_id"`
	Level       int       `json:"level"`
	Message     string    `json:"message"`
	RaisedAt    time.Time `json:"raised_at"`
}

// StreamEvent converts the event for the websocket stream.
func (e AlertRaisedEvent) StreamEvent() model.StreamEvent {
	return model.StreamEvent{
		Type:        model.EventAlertRaised,
		AstronautID: e.AstronautID,
		AlertID:     e.AlertID,
		Level:       e.Level,
		Message:     e.Message,
		Timestamp:   e.RaisedAt,
	}
}
