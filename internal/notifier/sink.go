package notifier

import (
	"context"
	"log/slog"
)

// Notification — уведомление для супервайзера.
type Notification struct {
	// Kind — вид уведомления (assignment_blocked, assignment_completed,
	// issue_reported).
	Kind string

	// Subject — короткий заголовок.
	Subject string

	// Fields — структурированные атрибуты события.
	Fields map[string]any
}

// Sink — канал доставки уведомлений.
//
// Реализация по умолчанию пишет в лог; push/SMS-доставка
// подключается своей реализацией Sink.
type Sink interface {
	Send(ctx context.Context, n Notification) error
}

// LogSink пишет уведомления в структурированный лог.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink создаёт LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Send пишет уведомление в лог.
func (s *LogSink) Send(_ context.Context, n Notification) error {
	attrs := make([]any, 0, 2+len(n.Fields)*2)
	attrs = append(attrs, "kind", n.Kind)
	for k, v := range n.Fields {
		attrs = append(attrs, k, v)
	}

	s.logger.Info(n.Subject, attrs...)
	return nil
}
