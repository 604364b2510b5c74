package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Foreman/internal/domain"
)

// IssueRepo — репозиторий тикетов о проблемах.
// Реализует engine.IssueTracker.
type IssueRepo struct {
	pool *pgxpool.Pool
}

// NewIssueRepo создаёт новый IssueRepo.
func NewIssueRepo(pool *pgxpool.Pool) *IssueRepo {
	return &IssueRepo{pool: pool}
}

// Create создаёт новый issue.
func (r *IssueRepo) Create(ctx context.Context, issue *domain.Issue) error {
	query := `
		INSERT INTO issues (id, assignment_id, worker_id, type, priority,
		                    description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		issue.ID,
		issue.AssignmentID,
		issue.WorkerID,
		issue.Type,
		issue.Priority,
		issue.Description,
		issue.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	return nil
}

// ListByAssignment возвращает issues по assignment в порядке создания.
func (r *IssueRepo) ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]domain.Issue, error) {
	query := `
		SELECT id, assignment_id, worker_id, type, priority, description, created_at
		FROM issues
		WHERE assignment_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	var issues []domain.Issue
	for rows.Next() {
		var issue domain.Issue
		err := rows.Scan(
			&issue.ID,
			&issue.AssignmentID,
			&issue.WorkerID,
			&issue.Type,
			&issue.Priority,
			&issue.Description,
			&issue.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}
