// Package cli реализует инструмент командной строки Foreman.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Foreman API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для управления projects, assignments и work plans.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Foreman API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок. Контекст вызывающего передаётся в заголовках
// X-Worker-ID / X-Role.
//
//	client := cli.NewClient("http://localhost:8080", workerID, "supervisor")
//	projects, err := client.ListProjects()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: foreman assignment list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - project: list, create, show, tasks, add-task, checkin
//   - assignment: list, assign, show, start, progress, complete, remove, issue, photo
//   - plan: list, create, show, delete, enable, disable
//
// Каждая группа создаётся через фабричную функцию (NewAssignmentCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
