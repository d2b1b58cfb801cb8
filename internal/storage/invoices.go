package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"preventivi/internal/core"
)

// CreateInvoice stores an invoice issued against a budget.
func (r *SQLiteRepository) CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	if inv.IssuedAt.IsZero() {
		inv.IssuedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO invoices (budget_id, number, amount, issued_at, paid)
		VALUES (?, ?, ?, ?, ?)`,
		inv.BudgetID, inv.Number, storeAmount(inv.Amount), inv.IssuedAt, inv.Paid,
	)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}

	inv.ID, err = res.LastInsertId()
	if err != nil {
		return core.Invoice{}, fmt.Errorf("invoice id: %w", err)
	}
	return inv, nil
}

// GetInvoiceForBudget returns the invoice issued for a budget, if any.
func (r *SQLiteRepository) GetInvoiceForBudget(ctx context.Context, budgetID int64) (core.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, budget_id, number, amount, issued_at, paid
		FROM invoices WHERE budget_id = ?`, budgetID)
	return scanInvoice(row)
}

// ListInvoices returns every invoice, newest first.
func (r *SQLiteRepository) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, budget_id, number, amount, issued_at, paid
		FROM invoices ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]core.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// MarkInvoicePaid flags an invoice as settled.
func (r *SQLiteRepository) MarkInvoicePaid(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE invoices SET paid = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark invoice %d paid: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrInvoiceNotFound
	}
	return nil
}

func scanInvoice(row rowScanner) (core.Invoice, error) {
	var (
		inv    core.Invoice
		amount string
	)
	err := row.Scan(&inv.ID, &inv.BudgetID, &inv.Number, &amount, &inv.IssuedAt, &inv.Paid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Invoice{}, core.ErrInvoiceNotFound
		}
		return core.Invoice{}, err
	}
	inv.Amount = core.ParseAmount(amount)
	return inv, nil
}
