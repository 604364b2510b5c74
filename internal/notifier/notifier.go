package notifier

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shaiso/Foreman/internal/mq"
)

const defaultPrefetch = 5

// Notifier потребляет события lifecycle из RabbitMQ и отправляет
// уведомления супервайзерам.
//
// Notifier — stateless компонент системы, который:
//   - Слушает очередь assignments.status (переходы статусов)
//   - Слушает очередь issues.reported (проблемы на площадке)
//   - Отправляет уведомления через Sink (blocked, completed, critical issues)
//
// Несколько экземпляров могут потреблять из одних очередей.
type Notifier struct {
	conn *mq.Connection
	sink Sink

	statusConsumer *mq.Consumer
	issueConsumer  *mq.Consumer

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Notifier.
type Config struct {
	Conn *mq.Connection

	// Sink — куда отправлять уведомления (опционально; если nil —
	// используется LogSink).
	Sink Sink

	Logger *slog.Logger
}

// New создаёт новый Notifier.
func New(cfg Config) *Notifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sink := cfg.Sink
	if sink == nil {
		sink = NewLogSink(logger)
	}

	return &Notifier{
		conn:   cfg.Conn,
		sink:   sink,
		logger: logger,
	}
}

// Start запускает consumers для обеих очередей.
func (n *Notifier) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	n.cancelFunc = cancel

	n.statusConsumer = mq.NewConsumer(n.conn, n.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueAssignmentStatus),
		Handler:  n.handleStatusChanged,
		Prefetch: defaultPrefetch,
	})

	n.issueConsumer = mq.NewConsumer(n.conn, n.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueIssuesReported),
		Handler:  n.handleIssueReported,
		Prefetch: defaultPrefetch,
	})

	for _, consumer := range []*mq.Consumer{n.statusConsumer, n.issueConsumer} {
		c := consumer
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			if err := c.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				n.logger.Error("notifier consumer error", "error", err)
			}
		}()
	}

	n.logger.Info("notifier started")
	return nil
}

// Stop останавливает Notifier.
func (n *Notifier) Stop() {
	n.logger.Info("stopping notifier...")

	if n.cancelFunc != nil {
		n.cancelFunc()
	}
	if n.statusConsumer != nil {
		n.statusConsumer.Stop()
	}
	if n.issueConsumer != nil {
		n.issueConsumer.Stop()
	}

	n.wg.Wait()

	n.logger.Info("notifier stopped")
}
