package services

import (
	"context"
	"fmt"
	"log/slog"

	"preventivi/internal/amqp"
	"preventivi/internal/core"
	"preventivi/internal/storage"
)

// BudgetService orchestrates budget operations across SQLite and AMQP
type BudgetService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewBudgetService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *BudgetService {
	return &BudgetService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateBudget validates the budget, freezes its total and saves it.
// The sequence number is assigned by storage; the caller's value is ignored.
func (s *BudgetService) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("validate budget: %w", err)
	}

	// Freeze the computed total. Later edits never touch it.
	b.TotalValue = b.Total()
	b.Approved = false
	b.Rejected = false

	saved, err := s.storage.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}

	// Publish async sync message (non-blocking)
	if err := s.publishEvent(ctx, saved.ID, amqp.EventBudgetCreated); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget created event",
			"id", saved.ID, "error", err)
		// Don't fail the request - budget is saved locally
	}

	return saved, nil
}

// GetBudget returns a single budget by internal ID.
func (s *BudgetService) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	return s.storage.GetBudget(ctx, id)
}

// ListBudgets returns budgets matching the filter, newest first.
func (s *BudgetService) ListBudgets(ctx context.Context, f storage.Filter) ([]core.Budget, error) {
	return s.storage.ListBudgets(ctx, f)
}

// UpdateBudget validates and rewrites an existing budget. The stored
// total stays at its creation-time value even when lines change.
func (s *BudgetService) UpdateBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("validate budget: %w", err)
	}

	if err := s.storage.UpdateBudget(ctx, b); err != nil {
		return fmt.Errorf("update budget: %w", err)
	}

	return nil
}

// ApproveBudget marks the budget approved and clears any rejection.
func (s *BudgetService) ApproveBudget(ctx context.Context, id int64) error {
	if err := s.storage.SetApproval(ctx, id, true, false); err != nil {
		return fmt.Errorf("approve budget: %w", err)
	}

	if err := s.publishEvent(ctx, id, amqp.EventBudgetApproved); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget approved event",
			"id", id, "error", err)
	}

	return nil
}

// RejectBudget marks the budget rejected and clears any approval.
func (s *BudgetService) RejectBudget(ctx context.Context, id int64) error {
	if err := s.storage.SetApproval(ctx, id, false, true); err != nil {
		return fmt.Errorf("reject budget: %w", err)
	}

	if err := s.publishEvent(ctx, id, amqp.EventBudgetRejected); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget rejected event",
			"id", id, "error", err)
	}

	return nil
}

// DeleteBudget soft deletes a budget. Its sequence number is never reused.
func (s *BudgetService) DeleteBudget(ctx context.Context, id int64) error {
	if err := s.storage.SoftDeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("soft delete budget: %w", err)
	}

	return nil
}

// IssueInvoice creates an invoice for an approved budget. The invoice
// amount is the frozen budget total.
func (s *BudgetService) IssueInvoice(ctx context.Context, budgetID int64) (core.Invoice, error) {
	b, err := s.storage.GetBudget(ctx, budgetID)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("load budget: %w", err)
	}

	if !b.Approved {
		return core.Invoice{}, core.ErrBudgetNotApproved
	}

	inv := core.Invoice{
		BudgetID: b.ID,
		Number:   fmt.Sprintf("FAT-%06d", b.SequenceNumber),
		Amount:   b.TotalValue,
	}

	saved, err := s.storage.CreateInvoice(ctx, inv)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("save invoice: %w", err)
	}

	return saved, nil
}

// ListInvoices returns every issued invoice, newest first.
func (s *BudgetService) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	return s.storage.ListInvoices(ctx)
}

// MarkInvoicePaid flags an issued invoice as settled.
func (s *BudgetService) MarkInvoicePaid(ctx context.Context, id int64) error {
	return s.storage.MarkInvoicePaid(ctx, id)
}

func (s *BudgetService) publishEvent(ctx context.Context, id int64, event string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping event", "event", event)
		return nil
	}

	return s.amqpClient.PublishBudgetEvent(ctx, id, event)
}

// Close closes both storage and AMQP connections
func (s *BudgetService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close budget service: %v", errs)
	}

	return nil
}
