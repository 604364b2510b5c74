package notifier

import (
	"context"
	"fmt"

	"github.com/shaiso/Foreman/internal/domain"
	"github.com/shaiso/Foreman/internal/mq"
)

// handleStatusChanged обрабатывает событие перехода статуса assignment.
func (n *Notifier) handleStatusChanged(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.StatusChangedPayload](&delivery.Message)
	if err != nil {
		n.logger.Error("failed to parse status_changed payload", "error", err)
		return err
	}

	n.logger.Debug("received status_changed event",
		"assignment_id", payload.AssignmentID,
		"previous", payload.Previous,
		"status", payload.Status,
	)

	// Супервайзера интересуют только терминальные и блокирующие переходы.
	switch payload.Status {
	case domain.StatusBlocked:
		return n.sink.Send(ctx, Notification{
			Kind:    "assignment_blocked",
			Subject: "assignment blocked",
			Fields: map[string]any{
				"assignment_id": payload.AssignmentID,
				"worker_id":     payload.WorkerID,
				"project_id":    payload.ProjectID,
				"task_id":       payload.TaskID,
				"previous":      string(payload.Previous),
			},
		})

	case domain.StatusCompleted:
		return n.sink.Send(ctx, Notification{
			Kind:    "assignment_completed",
			Subject: "assignment completed",
			Fields: map[string]any{
				"assignment_id":    payload.AssignmentID,
				"worker_id":        payload.WorkerID,
				"project_id":       payload.ProjectID,
				"task_id":          payload.TaskID,
				"progress_percent": payload.ProgressPercent,
			},
		})
	}

	return nil
}

// handleIssueReported обрабатывает событие о проблеме на площадке.
func (n *Notifier) handleIssueReported(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.IssueReportedPayload](&delivery.Message)
	if err != nil {
		n.logger.Error("failed to parse issue_reported payload", "error", err)
		return err
	}

	n.logger.Debug("received issue_reported event",
		"issue_id", payload.IssueID,
		"assignment_id", payload.AssignmentID,
		"priority", payload.Priority,
	)

	subject := fmt.Sprintf("issue reported: %s", payload.Type)
	if payload.Priority.IsBlocking() {
		subject = fmt.Sprintf("blocking issue reported: %s", payload.Type)
	}

	return n.sink.Send(ctx, Notification{
		Kind:    "issue_reported",
		Subject: subject,
		Fields: map[string]any{
			"issue_id":      payload.IssueID,
			"assignment_id": payload.AssignmentID,
			"worker_id":     payload.WorkerID,
			"type":          string(payload.Type),
			"priority":      string(payload.Priority),
			"description":   payload.Description,
		},
	})
}
