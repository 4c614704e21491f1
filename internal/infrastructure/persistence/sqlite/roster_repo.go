package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/obralink/portal-pagos/internal/application/port"
	"github.com/obralink/portal-pagos/internal/domain/statement"
)

// RosterRepository implements port.RosterRepository
type RosterRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRosterRepository creates a new roster repository
func NewRosterRepository(db *sql.DB, logger *zap.Logger) port.RosterRepository {
	return &RosterRepository{
		db:     db,
		logger: logger,
	}
}

// GetByProject retrieves the project's current approver roster in order
func (r *RosterRepository) GetByProject(ctx context.Context, projectID string) ([]statement.Approver, error) {
	query := `
		SELECT email, name, position
		FROM project_approvers
		WHERE project_id = ?
		ORDER BY position ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to get roster", zap.String("project_id", projectID), zap.Error(err))
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}
	defer rows.Close()

	var approvers []statement.Approver
	for rows.Next() {
		var a statement.Approver
		if err := rows.Scan(&a.Email, &a.Name, &a.Order); err != nil {
			return nil, fmt.Errorf("failed to scan roster entry: %w", err)
		}
		approvers = append(approvers, a)
	}
	return approvers, rows.Err()
}

// Replace swaps the project's roster for a new list. Only future send
// cycles see the change.
func (r *RosterRepository) Replace(ctx context.Context, projectID string, approvers []statement.Approver) error {
	exec := r.getExecutor(ctx)

	if _, err := exec.ExecContext(ctx, `DELETE FROM project_approvers WHERE project_id = ?`, projectID); err != nil {
		r.logger.Error("Failed to clear roster", zap.String("project_id", projectID), zap.Error(err))
		return fmt.Errorf("failed to clear roster: %w", err)
	}

	query := `INSERT INTO project_approvers (project_id, email, name, position) VALUES (?, ?, ?, ?)`
	for _, a := range approvers {
		if _, err := exec.ExecContext(ctx, query, projectID, a.Email, a.Name, a.Order); err != nil {
			r.logger.Error("Failed to insert roster entry",
				zap.String("project_id", projectID), zap.String("email", a.Email), zap.Error(err))
			return fmt.Errorf("failed to replace roster: %w", err)
		}
	}
	return nil
}

// getExecutor returns appropriate executor based on context
func (r *RosterRepository) getExecutor(ctx context.Context) executor {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Verify interface compliance
var _ port.RosterRepository = (*RosterRepository)(nil)
