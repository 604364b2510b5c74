package notifier

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Foreman/internal/domain"
	"github.com/shaiso/Foreman/internal/mq"
)

// captureSink собирает отправленные уведомления.
type captureSink struct {
	sent []Notification
}

func (s *captureSink) Send(_ context.Context, n Notification) error {
	s.sent = append(s.sent, n)
	return nil
}

func newTestNotifier(sink Sink) *Notifier {
	return New(Config{
		Sink:   sink,
		Logger: slog.Default(),
	})
}

func statusDelivery(payload mq.StatusChangedPayload) *mq.Delivery {
	return &mq.Delivery{
		Message: mq.Message{
			ID:      uuid.New().String(),
			Type:    mq.MessageTypeStatusChanged,
			Payload: payload,
		},
	}
}

func TestHandleStatusChangedBlocked(t *testing.T) {
	sink := &captureSink{}
	n := newTestNotifier(sink)

	err := n.handleStatusChanged(context.Background(), statusDelivery(mq.StatusChangedPayload{
		AssignmentID: uuid.New(),
		WorkerID:     uuid.New(),
		Previous:     domain.StatusInProgress,
		Status:       domain.StatusBlocked,
	}))
	if err != nil {
		t.Fatalf("handleStatusChanged failed: %v", err)
	}

	if len(sink.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sink.sent))
	}
	if sink.sent[0].Kind != "assignment_blocked" {
		t.Errorf("kind = %q, want assignment_blocked", sink.sent[0].Kind)
	}
}

func TestHandleStatusChangedCompleted(t *testing.T) {
	sink := &captureSink{}
	n := newTestNotifier(sink)

	err := n.handleStatusChanged(context.Background(), statusDelivery(mq.StatusChangedPayload{
		AssignmentID:    uuid.New(),
		Previous:        domain.StatusInProgress,
		Status:          domain.StatusCompleted,
		ProgressPercent: 100,
	}))
	if err != nil {
		t.Fatalf("handleStatusChanged failed: %v", err)
	}

	if len(sink.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sink.sent))
	}
	if sink.sent[0].Kind != "assignment_completed" {
		t.Errorf("kind = %q, want assignment_completed", sink.sent[0].Kind)
	}
}

func TestHandleStatusChangedIgnoresStart(t *testing.T) {
	sink := &captureSink{}
	n := newTestNotifier(sink)

	err := n.handleStatusChanged(context.Background(), statusDelivery(mq.StatusChangedPayload{
		AssignmentID: uuid.New(),
		Previous:     domain.StatusQueued,
		Status:       domain.StatusInProgress,
	}))
	if err != nil {
		t.Fatalf("handleStatusChanged failed: %v", err)
	}

	if len(sink.sent) != 0 {
		t.Fatalf("expected no notifications for queued->in_progress, got %d", len(sink.sent))
	}
}

func TestHandleIssueReported(t *testing.T) {
	sink := &captureSink{}
	n := newTestNotifier(sink)

	delivery := &mq.Delivery{
		Message: mq.Message{
			ID:   uuid.New().String(),
			Type: mq.MessageTypeIssueReported,
			Payload: mq.IssueReportedPayload{
				IssueID:      uuid.New(),
				AssignmentID: uuid.New(),
				Type:         domain.IssueTypeSafety,
				Priority:     domain.PriorityCritical,
				Description:  "scaffolding damaged",
			},
		},
	}

	if err := n.handleIssueReported(context.Background(), delivery); err != nil {
		t.Fatalf("handleIssueReported failed: %v", err)
	}

	if len(sink.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sink.sent))
	}
	got := sink.sent[0]
	if got.Kind != "issue_reported" {
		t.Errorf("kind = %q, want issue_reported", got.Kind)
	}
	if got.Subject != "blocking issue reported: safety" {
		t.Errorf("subject = %q", got.Subject)
	}
}

func TestHandleIssueReportedLowPriority(t *testing.T) {
	sink := &captureSink{}
	n := newTestNotifier(sink)

	delivery := &mq.Delivery{
		Message: mq.Message{
			ID:   uuid.New().String(),
			Type: mq.MessageTypeIssueReported,
			Payload: mq.IssueReportedPayload{
				IssueID:  uuid.New(),
				Type:     domain.IssueTypeMaterial,
				Priority: domain.PriorityLow,
			},
		},
	}

	if err := n.handleIssueReported(context.Background(), delivery); err != nil {
		t.Fatalf("handleIssueReported failed: %v", err)
	}

	if len(sink.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sink.sent))
	}
	if sink.sent[0].Subject != "issue reported: material" {
		t.Errorf("subject = %q", sink.sent[0].Subject)
	}
}
