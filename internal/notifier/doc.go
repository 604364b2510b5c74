// Package notifier доставляет уведомления супервайзерам.
//
// Notifier слушает очереди assignments.status и issues.reported,
// фильтрует события (blocked, completed, reported issues) и отправляет
// уведомления через Sink.
//
// Структура:
//   - notifier.go — Notifier (Start/Stop, consumers)
//   - handlers.go — обработчики событий из очередей
//   - sink.go     — интерфейс Sink и LogSink по умолчанию
package notifier
