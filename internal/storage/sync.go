package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// GetPendingSyncBudgets returns approved budgets not yet written to the
// external ledger, oldest first.
func (r *SQLiteRepository) GetPendingSyncBudgets(ctx context.Context, limit int) ([]PendingSyncBudget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sequence_number, created_at
		FROM budgets
		WHERE deleted = 0 AND approved = 1 AND sync_status = 'pending'
		ORDER BY created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync budgets: %w", err)
	}
	defer rows.Close()

	pending := make([]PendingSyncBudget, 0)
	for rows.Next() {
		var p PendingSyncBudget
		if err := rows.Scan(&p.ID, &p.SequenceNumber, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending budget: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// MarkSynced records a successful ledger write.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET sync_status = 'synced', synced_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark budget synced: %w", err)
	}

	slog.InfoContext(ctx, "Budget marked as synced", "id", id)
	return nil
}

// MarkSyncError records a failed ledger write; the worker retries later.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET sync_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark budget sync error: %w", err)
	}

	slog.WarnContext(ctx, "Budget marked with sync error", "id", id)
	return nil
}

// ResetSyncErrors moves errored budgets back to pending for a retry sweep.
func (r *SQLiteRepository) ResetSyncErrors(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET sync_status = 'pending' WHERE sync_status = 'error'`)
	if err != nil {
		return 0, fmt.Errorf("reset sync errors: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
