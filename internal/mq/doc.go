// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация событий lifecycle
//   - consumer.go   — потребление событий из очередей
//
// Типы сообщений:
//   - assignment.status_changed — переход статуса assignment
//   - issue.reported            — работник сообщил о проблеме
//
// Exchanges:
//   - foreman.assignments — события assignments
//   - foreman.issues      — события issues
//   - foreman.dlq         — dead letter queue
package mq
