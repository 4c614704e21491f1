package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/obralink/portal-pagos/internal/application/port"
	"github.com/obralink/portal-pagos/internal/domain/statement"
)

// StatementRepository implements port.StatementRepository
type StatementRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStatementRepository creates a new statement repository
func NewStatementRepository(db *sql.DB, logger *zap.Logger) port.StatementRepository {
	return &StatementRepository{
		db:     db,
		logger: logger,
	}
}

const statementColumns = `
	id, project_id, period_month, period_year, total, progress_percent,
	completed, expiry_date, status, created_at, updated_at
`

// Create inserts a new payment statement. The (project, period) pair is
// unique; a duplicate insert surfaces as a conflict.
func (r *StatementRepository) Create(ctx context.Context, st *statement.PaymentStatement) error {
	query := `
		INSERT INTO payment_statements (
			id, project_id, period_month, period_year, total, progress_percent,
			completed, expiry_date, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		st.ID,
		st.ProjectID,
		st.Period.Month,
		st.Period.Year,
		st.Total.String(),
		st.ProgressPercent,
		st.Completed,
		st.ExpiryDate,
		st.Status,
		st.CreatedAt,
		st.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create statement", zap.String("id", st.ID), zap.Error(err))
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: statement for project %s period %s already exists",
				statement.ErrConflict, st.ProjectID, st.Period)
		}
		return fmt.Errorf("failed to create statement: %w", err)
	}

	if len(st.RequiredApprovers) > 0 {
		if err := r.replaceApprovers(ctx, st.ID, st.RequiredApprovers); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a statement with its frozen approver list
func (r *StatementRepository) GetByID(ctx context.Context, id string) (*statement.PaymentStatement, error) {
	query := `SELECT` + statementColumns + `FROM payment_statements WHERE id = ?`

	st, err := r.scanStatement(r.getExecutor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get statement by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get statement: %w", err)
	}

	if err := r.loadApprovers(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// GetByProjectAndPeriod retrieves the single statement for a project month
func (r *StatementRepository) GetByProjectAndPeriod(ctx context.Context, projectID string, period statement.Period) (*statement.PaymentStatement, error) {
	query := `SELECT` + statementColumns + `
		FROM payment_statements
		WHERE project_id = ? AND period_year = ? AND period_month = ?
	`

	st, err := r.scanStatement(r.getExecutor(ctx).QueryRowContext(ctx, query, projectID, period.Year, period.Month))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get statement by period",
			zap.String("project_id", projectID), zap.String("period", period.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get statement: %w", err)
	}

	if err := r.loadApprovers(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// ListByProject retrieves all statements for a project, newest period first
func (r *StatementRepository) ListByProject(ctx context.Context, projectID string) ([]*statement.PaymentStatement, error) {
	query := `SELECT` + statementColumns + `
		FROM payment_statements
		WHERE project_id = ?
		ORDER BY period_year DESC, period_month DESC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to list statements", zap.String("project_id", projectID), zap.Error(err))
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	defer rows.Close()

	var statements []*statement.PaymentStatement
	for rows.Next() {
		st, err := r.scanStatement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan statement: %w", err)
		}
		statements = append(statements, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, st := range statements {
		if err := r.loadApprovers(ctx, st); err != nil {
			return nil, err
		}
	}
	return statements, nil
}

// UpdateStatus persists a status transition
func (r *StatementRepository) UpdateStatus(ctx context.Context, id string, status statement.Status) error {
	query := `UPDATE payment_statements SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update statement status", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update status: %w", err)
	}
	return r.requireRow(result, id)
}

// MarkOpen persists the reconciled opening: Pendiente with the completion
// flag cleared
func (r *StatementRepository) MarkOpen(ctx context.Context, id string) error {
	query := `
		UPDATE payment_statements
		SET status = ?, completed = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query, statement.StatusPendiente, id)
	if err != nil {
		r.logger.Error("Failed to mark statement open", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark statement open: %w", err)
	}
	return r.requireRow(result, id)
}

// UpdateFinancials persists total, progress and completion
func (r *StatementRepository) UpdateFinancials(ctx context.Context, id string, st *statement.PaymentStatement) error {
	query := `
		UPDATE payment_statements
		SET total = ?, progress_percent = ?, completed = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		st.Total.String(), st.ProgressPercent, st.Completed, id)
	if err != nil {
		r.logger.Error("Failed to update statement financials", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update financials: %w", err)
	}
	return r.requireRow(result, id)
}

// FreezeApprovers replaces the statement's approver list with the roster
// captured at send time
func (r *StatementRepository) FreezeApprovers(ctx context.Context, id string, approvers []statement.Approver) error {
	return r.replaceApprovers(ctx, id, approvers)
}

func (r *StatementRepository) replaceApprovers(ctx context.Context, statementID string, approvers []statement.Approver) error {
	exec := r.getExecutor(ctx)

	if _, err := exec.ExecContext(ctx, `DELETE FROM statement_approvers WHERE statement_id = ?`, statementID); err != nil {
		return fmt.Errorf("failed to clear approvers: %w", err)
	}

	query := `INSERT INTO statement_approvers (statement_id, email, name, position) VALUES (?, ?, ?, ?)`
	for _, a := range approvers {
		if _, err := exec.ExecContext(ctx, query, statementID, a.Email, a.Name, a.Order); err != nil {
			r.logger.Error("Failed to freeze approver",
				zap.String("statement_id", statementID), zap.String("email", a.Email), zap.Error(err))
			return fmt.Errorf("failed to freeze approvers: %w", err)
		}
	}
	return nil
}

func (r *StatementRepository) loadApprovers(ctx context.Context, st *statement.PaymentStatement) error {
	query := `
		SELECT email, name, position
		FROM statement_approvers
		WHERE statement_id = ?
		ORDER BY position ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, st.ID)
	if err != nil {
		return fmt.Errorf("failed to load approvers: %w", err)
	}
	defer rows.Close()

	var approvers []statement.Approver
	for rows.Next() {
		var a statement.Approver
		if err := rows.Scan(&a.Email, &a.Name, &a.Order); err != nil {
			return fmt.Errorf("failed to scan approver: %w", err)
		}
		approvers = append(approvers, a)
	}
	st.RequiredApprovers = approvers
	return rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *StatementRepository) scanStatement(row rowScanner) (*statement.PaymentStatement, error) {
	var st statement.PaymentStatement
	var total string

	err := row.Scan(
		&st.ID,
		&st.ProjectID,
		&st.Period.Month,
		&st.Period.Year,
		&total,
		&st.ProgressPercent,
		&st.Completed,
		&st.ExpiryDate,
		&st.Status,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	st.Total, err = decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored total %q: %w", total, err)
	}
	return &st, nil
}

func (r *StatementRepository) requireRow(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: statement %s", statement.ErrNotFound, id)
	}
	return nil
}

// getExecutor returns appropriate executor based on context
func (r *StatementRepository) getExecutor(ctx context.Context) executor {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Verify interface compliance
var _ port.StatementRepository = (*StatementRepository)(nil)
