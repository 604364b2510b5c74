// Package engine реализует жизненный цикл assignments.
//
// Центральный компонент — LifecycleController: единственная точка входа
// для всех переходов статусов. Каждая операция загружает состояние через
// AssignmentStore, прогоняет гейты и атомарно фиксирует новое состояние
// через UpdateWithVersionCheck.
//
// Гейты:
//   - dependency.go — все зависимости должны быть completed
//   - sequence.go   — задачи работника в рамках проекта/дня идут по порядку
//   - geofence.go   — работник должен находиться в геозоне площадки
//
// Инварианты:
//   - progress_percent не убывает
//   - не более одного in_progress assignment на (worker, date)
//   - sequence непрерывен (1..N) среди нетерминальных assignments
//     для (worker, project, date)
package engine
