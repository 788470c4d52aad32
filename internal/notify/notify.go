// Package notify publishes application lifecycle events for the notification
// pipeline. Events go out on two channels: Redis pub/sub for the Gateway's
// SSE forward, and a durable RabbitMQ queue consumed by the mailer worker.
// Delivery is best-effort — callers log failures and never fail the
// triggering operation over them.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/streadway/amqp"
)

const (
	channelNewApplication = "EVENT_NEW_APPLICATION"
	channelStageChanged   = "EVENT_STAGE_CHANGED"

	notificationQueue = "notifications"
)

// Publisher fans lifecycle events out to Redis and RabbitMQ. The RabbitMQ
// connection is optional; when nil only Redis publishing happens.
type Publisher struct {
	rdb  *redis.Client
	conn *amqp.Connection
}

// NewPublisher returns a configured Publisher. conn may be nil.
func NewPublisher(rdb *redis.Client, conn *amqp.Connection) *Publisher {
	return &Publisher{rdb: rdb, conn: conn}
}

// NewApplication announces a freshly submitted application to the job owner.
func (p *Publisher) NewApplication(ctx context.Context, jobID, recipientID, applicantName, jobTitle string) error {
	return p.publish(ctx, channelNewApplication, map[string]string{
		"type":          channelNewApplication,
		"jobId":         jobID,
		"recipientId":   recipientID,
		"applicantName": applicantName,
		"message":       fmt.Sprintf("New application for %s from %s", jobTitle, applicantName),
	})
}

// StageChanged announces a stage transition to the applicant.
func (p *Publisher) StageChanged(ctx context.Context, applicationID, recipientID, newStage string) error {
	return p.publish(ctx, channelStageChanged, map[string]string{
		"type":          channelStageChanged,
		"applicationId": applicationID,
		"recipientId":   recipientID,
		"newStage":      newStage,
		"message":       fmt.Sprintf("Your application has moved to %s", newStage),
	})
}

// publish sends the event on every configured transport and reports all
// failures together. A failed transport does not stop the others.
func (p *Publisher) publish(ctx context.Context, channel string, payload map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	var errs []error
	if err := p.rdb.Publish(ctx, channel, body).Err(); err != nil {
		errs = append(errs, fmt.Errorf("redis publish %s: %w", channel, err))
	}
	if p.conn != nil {
		if err := p.enqueue(body); err != nil {
			errs = append(errs, fmt.Errorf("amqp enqueue: %w", err))
		}
	}
	return errors.Join(errs...)
}

// enqueue pushes the event onto the durable notifications queue. A channel is
// opened per publish; amqp channels are not safe for concurrent use.
func (p *Publisher) enqueue(body []byte) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(notificationQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	return ch.Publish("", notificationQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}
