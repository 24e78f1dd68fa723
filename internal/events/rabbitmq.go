package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/PepaPanda/uu-backend-project/internal/models"
)

// RabbitPublisher publishes notifications as persistent JSON messages to a
// durable queue on the default exchange.
type RabbitPublisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	log   *logrus.Logger
}

func NewRabbitPublisher(url, queue string, log *logrus.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &RabbitPublisher{conn: conn, ch: ch, queue: queue, log: log}, nil
}

func (p *RabbitPublisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func (p *RabbitPublisher) Publish(ctx context.Context, n models.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         n.Type,
			Body:         body,
		},
	)
}

// Notify publishes membership and invitation changes. Item churn stays on
// the websocket only.
func (p *RabbitPublisher) Notify(ctx context.Context, n models.Notification) {
	if !Durable(n.Type) {
		return
	}
	if err := p.Publish(ctx, n); err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"type":    n.Type,
			"list_id": n.ListID,
		}).Warn("failed to publish notification")
	}
}

// Durable reports whether notifications of type t are worth queueing for
// out-of-band consumers such as mailers.
func Durable(t string) bool {
	switch t {
	case models.NotificationInvitationSent,
		models.NotificationInvitationDropped,
		models.NotificationMemberAdded,
		models.NotificationMemberRemoved,
		models.NotificationListDeleted:
		return true
	}
	return false
}
