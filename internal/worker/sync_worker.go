// Package worker mirrors accepted budgets into the shared ledger
// spreadsheet, driven by AMQP events with a polling safety net.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"preventivi/internal/amqp"
	"preventivi/internal/core"
	"preventivi/internal/storage"
)

// LedgerAppender writes one budget row to the shared ledger and returns
// a reference to the written row.
type LedgerAppender interface {
	AppendBudget(ctx context.Context, b core.Budget) (string, error)
}

// SyncWorker copies budgets from SQLite to the ledger spreadsheet
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	ledger    LedgerAppender
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, ledger LedgerAppender, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		ledger:    ledger,
		batchSize: batchSize,
	}
}

// HandleEvent processes a single budget event from AMQP. Every event
// kind triggers a re-sync of the budget row so the ledger reflects the
// latest status.
func (w *SyncWorker) HandleEvent(ctx context.Context, msg *amqp.BudgetEventMessage) error {
	slog.InfoContext(ctx, "Processing budget event",
		"id", msg.BudgetID,
		"event", msg.Event,
		"correlation_id", msg.CorrelationID)

	budget, err := w.storage.GetBudget(ctx, msg.BudgetID)
	if err != nil {
		return fmt.Errorf("get budget from storage: %w", err)
	}

	if err := w.syncBudgetToLedger(ctx, budget); err != nil {
		return fmt.Errorf("sync budget to ledger: %w", err)
	}

	return nil
}

// ProcessPending syncs any budgets that haven't reached the ledger yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncBudgets(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending budgets: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending budgets", "count", len(pending))

	for _, p := range pending {
		budget, err := w.storage.GetBudget(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get budget", "id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			continue
		}

		if err := w.syncBudgetToLedger(ctx, budget); err != nil {
			slog.ErrorContext(ctx, "Failed to sync budget", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck drains the pending backlog once at worker startup,
// recovering from missed AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncBudgets(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending budgets for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending budgets found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending budgets on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		budget, err := w.storage.GetBudget(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get budget for startup sync",
				"id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			errorCount++
			continue
		}

		if err := w.syncBudgetToLedger(ctx, budget); err != nil {
			slog.ErrorContext(ctx, "Failed to sync budget during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}

		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

// RetryFailed requeues budgets stuck in the error state and reports how
// many were reset.
func (w *SyncWorker) RetryFailed(ctx context.Context) (int64, error) {
	count, err := w.storage.ResetSyncErrors(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset sync errors: %w", err)
	}

	if count > 0 {
		slog.InfoContext(ctx, "Requeued failed budgets for sync", "count", count)
	}

	return count, nil
}

func (w *SyncWorker) syncBudgetToLedger(ctx context.Context, b core.Budget) error {
	if w.ledger == nil {
		slog.WarnContext(ctx, "No ledger configured, skipping sync", "id", b.ID)
		return nil
	}

	ref, err := w.ledger.AppendBudget(ctx, b)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, b.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", b.ID, "error", markErr)
		}
		return fmt.Errorf("append to ledger: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, b.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", b.ID, "error", err)
		// Don't return error here - the sync actually worked
	}

	slog.InfoContext(ctx, "Successfully synced budget",
		"id", b.ID,
		"sequence", b.SequenceNumber,
		"ledger_ref", ref,
		"client", b.ClientName,
		"total", b.TotalValue.String())

	return nil
}
