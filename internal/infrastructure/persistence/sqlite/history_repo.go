package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/obralink/portal-pagos/internal/application/port"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends one transition record to the trail
func (r *HistoryRepository) Create(ctx context.Context, h *port.TransitionRecord) error {
	query := `
		INSERT INTO transition_history (
			statement_id, previous_status, new_status, actor_email, note, at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		h.StatementID,
		h.PreviousStatus,
		h.NewStatus,
		h.ActorEmail,
		h.Note,
		h.At,
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	h.ID = id
	return nil
}

// GetByStatement retrieves the transition trail for a statement, oldest first
func (r *HistoryRepository) GetByStatement(ctx context.Context, statementID string) ([]*port.TransitionRecord, error) {
	query := `
		SELECT id, statement_id, previous_status, new_status, actor_email, note, at
		FROM transition_history
		WHERE statement_id = ?
		ORDER BY at ASC, id ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, statementID)
	if err != nil {
		r.logger.Error("Failed to get history", zap.String("statement_id", statementID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var records []*port.TransitionRecord
	for rows.Next() {
		var record port.TransitionRecord
		err := rows.Scan(
			&record.ID,
			&record.StatementID,
			&record.PreviousStatus,
			&record.NewStatus,
			&record.ActorEmail,
			&record.Note,
			&record.At,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// getExecutor returns appropriate executor based on context
func (r *HistoryRepository) getExecutor(ctx context.Context) executor {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
