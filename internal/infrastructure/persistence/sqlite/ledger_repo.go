package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/obralink/portal-pagos/internal/application/port"
	"github.com/obralink/portal-pagos/internal/domain/approval"
)

// LedgerRepository implements port.LedgerRepository
type LedgerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *sql.DB, logger *zap.Logger) port.LedgerRepository {
	return &LedgerRepository{
		db:     db,
		logger: logger,
	}
}

// SeedPending inserts fresh Pendiente entries for a statement cycle
func (r *LedgerRepository) SeedPending(ctx context.Context, entries []*approval.Entry) error {
	query := `
		INSERT INTO approval_entries (
			id, statement_id, approver_email, approver_name, status
		) VALUES (?, ?, ?, ?, ?)
	`

	exec := r.getExecutor(ctx)
	for _, e := range entries {
		_, err := exec.ExecContext(ctx, query,
			e.ID, e.StatementID, e.ApproverEmail, e.ApproverName, e.Status)
		if err != nil {
			r.logger.Error("Failed to seed ledger entry",
				zap.String("statement_id", e.StatementID),
				zap.String("approver", e.ApproverEmail),
				zap.Error(err))
			return fmt.Errorf("failed to seed ledger entry: %w", err)
		}
	}
	return nil
}

// GetByStatement retrieves every entry for a statement in approver order
func (r *LedgerRepository) GetByStatement(ctx context.Context, statementID string) ([]*approval.Entry, error) {
	query := `
		SELECT e.id, e.statement_id, e.approver_email, e.approver_name,
			e.status, e.decided_at, e.reason
		FROM approval_entries e
		LEFT JOIN statement_approvers a
			ON a.statement_id = e.statement_id AND a.email = e.approver_email
		WHERE e.statement_id = ?
		ORDER BY a.position ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, statementID)
	if err != nil {
		r.logger.Error("Failed to get ledger entries", zap.String("statement_id", statementID), zap.Error(err))
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*approval.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetEntry retrieves one approver's entry for a statement
func (r *LedgerRepository) GetEntry(ctx context.Context, statementID, approverEmail string) (*approval.Entry, error) {
	query := `
		SELECT id, statement_id, approver_email, approver_name,
			status, decided_at, reason
		FROM approval_entries
		WHERE statement_id = ? AND approver_email = ?
	`

	entry, err := scanEntry(r.getExecutor(ctx).QueryRowContext(ctx, query, statementID, approverEmail))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get ledger entry",
			zap.String("statement_id", statementID),
			zap.String("approver", approverEmail),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return entry, nil
}

// ClaimDecision records a decision with a compare-and-swap on the undecided
// row. Returns false when the entry was already decided by a concurrent
// writer or does not exist.
func (r *LedgerRepository) ClaimDecision(ctx context.Context, entryID string, decision approval.Decision, reason *string, decidedAt time.Time) (bool, error) {
	query := `
		UPDATE approval_entries
		SET status = ?, decided_at = ?, reason = ?
		WHERE id = ? AND decided_at IS NULL
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query, decision, decidedAt, reason, entryID)
	if err != nil {
		r.logger.Error("Failed to claim decision", zap.String("entry_id", entryID), zap.Error(err))
		return false, fmt.Errorf("failed to claim decision: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

// DeleteByStatement clears all entries ahead of a resubmission reseed
func (r *LedgerRepository) DeleteByStatement(ctx context.Context, statementID string) error {
	_, err := r.getExecutor(ctx).ExecContext(ctx,
		`DELETE FROM approval_entries WHERE statement_id = ?`, statementID)
	if err != nil {
		r.logger.Error("Failed to delete ledger entries", zap.String("statement_id", statementID), zap.Error(err))
		return fmt.Errorf("failed to delete ledger entries: %w", err)
	}
	return nil
}

func scanEntry(row rowScanner) (*approval.Entry, error) {
	var entry approval.Entry
	var decidedAt sql.NullTime
	var reason sql.NullString

	err := row.Scan(
		&entry.ID,
		&entry.StatementID,
		&entry.ApproverEmail,
		&entry.ApproverName,
		&entry.Status,
		&decidedAt,
		&reason,
	)
	if err != nil {
		return nil, err
	}

	if decidedAt.Valid {
		entry.DecidedAt = &decidedAt.Time
	}
	if reason.Valid {
		entry.Reason = &reason.String
	}
	return &entry, nil
}

// getExecutor returns appropriate executor based on context
func (r *LedgerRepository) getExecutor(ctx context.Context) executor {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Verify interface compliance
var _ port.LedgerRepository = (*LedgerRepository)(nil)
