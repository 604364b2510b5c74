// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go            — Handler с DI (контроллер, репозитории, logger)
//   - routes.go             — регистрация маршрутов
//   - middleware.go         — middleware (logging, recovery)
//   - response.go           — унифицированные JSON-ответы и маппинг ошибок движка
//   - dto.go                — Data Transfer Objects (request/response)
//   - assignment_handler.go — обработчики назначений и lifecycle-операций
//   - project_handler.go    — обработчики projects, каталога задач, check-ins
//   - plan_handler.go       — обработчики recurring work plans
//
// API предоставляет REST endpoints для назначения задач, управления
// жизненным циклом assignments и повторяющимися планами.
package api
