package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/astra-care/internal/queue"
)

// AlertPublisher announces newly raised alerts.
type AlertPublisher interface {
	PublishAlertRaised(ctx context.Context, ev queue.AlertRaisedEvent) error
}

// AMQPPublisher publishes alert events to the "alert.raised" queue.  When
// the broker cannot be reached the event is handed to Fallback directly so
// connected dashboards are still notified.
type AMQPPublisher struct {
	URL      string
	Fallback queue.Broadcaster
}

// PublishAlertRaised never panics; any error is logged and returned so the
// caller can choose to ignore it.  Messages are marked as persistent.
func (p *AMQPPublisher) PublishAlertRaised(ctx context.Context, ev queue.AlertRaisedEvent) error {
	err := p.publish(ctx, ev)
	if err != nil && p.Fallback != nil {
		log.Printf("rabbitmq: publish failed, broadcasting directly: %v", err)
		p.Fallback.Broadcast(ev.StreamEvent())
		return nil
	}
	return err
}

func (p *AMQPPublisher) publish(ctx context.Context, ev queue.AlertRaisedEvent) error {
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(3 * time.Second),
	})
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queue.AlertQueueName, // name
		true,                 // durable
		false,                // autoDelete
		false,                // exclusive
		false,                // noWait
		nil,                  // args
	); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx,
		"",                   // default exchange
		queue.AlertQueueName, // routing key = queue name
		false,                // mandatory
		false,                // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent, // store on disk
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}
