package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Foreman/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeStatusChanged MessageType = "assignment.status_changed"
	MessageTypeIssueReported MessageType = "issue.reported"
)

// Publisher публикует события lifecycle в RabbitMQ.
// Реализует engine.StatusPublisher.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// StatusChangedPayload — payload для события перехода статуса.
type StatusChangedPayload struct {
	AssignmentID    uuid.UUID               `json:"assignment_id"`
	WorkerID        uuid.UUID               `json:"worker_id"`
	ProjectID       uuid.UUID               `json:"project_id"`
	TaskID          uuid.UUID               `json:"task_id"`
	Date            time.Time               `json:"date"`
	Previous        domain.AssignmentStatus `json:"previous"`
	Status          domain.AssignmentStatus `json:"status"`
	Sequence        int                     `json:"sequence"`
	Priority        domain.Priority         `json:"priority"`
	ProgressPercent float64                 `json:"progress_percent"`
}

// IssueReportedPayload — payload для события о проблеме.
type IssueReportedPayload struct {
	IssueID      uuid.UUID        `json:"issue_id"`
	AssignmentID uuid.UUID        `json:"assignment_id"`
	WorkerID     uuid.UUID        `json:"worker_id"`
	Type         domain.IssueType `json:"type"`
	Priority     domain.Priority  `json:"priority"`
	Description  string           `json:"description"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishStatusChanged публикует событие перехода статуса assignment.
// Потребитель: Notifier.
func (p *Publisher) PublishStatusChanged(ctx context.Context, a *domain.Assignment, previous domain.AssignmentStatus) error {
	msg := &Message{
		ID:   uuid.New().String(),
		Type: MessageTypeStatusChanged,
		Payload: StatusChangedPayload{
			AssignmentID:    a.ID,
			WorkerID:        a.WorkerID,
			ProjectID:       a.ProjectID,
			TaskID:          a.TaskID,
			Date:            a.Date,
			Previous:        previous,
			Status:          a.Status,
			Sequence:        a.Sequence,
			Priority:        a.Priority,
			ProgressPercent: a.ProgressPercent,
		},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeAssignments, RoutingKeyStatus, msg)
}

// PublishIssueReported публикует событие о проблеме на площадке.
// Потребитель: Notifier.
func (p *Publisher) PublishIssueReported(ctx context.Context, issue *domain.Issue) error {
	msg := &Message{
		ID:   uuid.New().String(),
		Type: MessageTypeIssueReported,
		Payload: IssueReportedPayload{
			IssueID:      issue.ID,
			AssignmentID: issue.AssignmentID,
			WorkerID:     issue.WorkerID,
			Type:         issue.Type,
			Priority:     issue.Priority,
			Description:  issue.Description,
		},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeIssues, RoutingKeyReported, msg)
}
