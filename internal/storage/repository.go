// Package storage persists budgets, users and invoices on SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"preventivi/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

// User is an authenticated back-office account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	FullName     string
	CreatedAt    time.Time
}

// PendingSyncBudget is the minimal payload queued for ledger sync.
type PendingSyncBudget struct {
	ID             int64
	SequenceNumber int64
	CreatedAt      time.Time
}

// Filter narrows budget listings and reports.
type Filter struct {
	From   time.Time // inclusive, zero means unbounded
	To     time.Time // inclusive, zero means unbounded
	Status string    // "", "approved", "rejected" or "pending"
	Client string    // exact client name
	Vendor string    // vendor substring on any line
}

var ErrUserNotFound = errors.New("user not found")

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// storeAmount keeps the exact decimal representation in a TEXT column.
func storeAmount(a core.Amount) string {
	return a.Decimal().String()
}

// CreateBudget inserts a budget with its five lines and assigns the next
// sequence number inside the same transaction so numbers never collide.
func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Budget{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) + 1 FROM budgets`,
	).Scan(&seq); err != nil {
		return core.Budget{}, fmt.Errorf("next sequence number: %w", err)
	}

	b.SequenceNumber = seq
	b.CreatedAt = time.Now().UTC()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO budgets (
			sequence_number, client_name, client_email, design_fee,
			total_value, publication_date, approved, rejected, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.SequenceNumber, b.ClientName, b.ClientEmail, storeAmount(b.DesignFee),
		storeAmount(b.TotalValue), formatDate(b.PublicationDate),
		b.Approved, b.Rejected, b.Notes, b.CreatedAt,
	)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}

	b.ID, err = res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget id: %w", err)
	}

	for i, l := range b.Lines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO budget_lines (
				budget_id, position, vendor_name, unit_rate,
				format_multiplier, include_in_total
			) VALUES (?, ?, ?, ?, ?, ?)`,
			b.ID, i+1, l.VendorName, storeAmount(l.UnitRate),
			storeAmount(l.FormatMultiplier), l.IncludeInTotal,
		); err != nil {
			return core.Budget{}, fmt.Errorf("insert budget line %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Budget{}, fmt.Errorf("commit budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"id", b.ID,
		"sequence_number", b.SequenceNumber,
		"client_name", b.ClientName,
		"total_value", b.TotalValue.String())

	return b, nil
}

// GetBudget loads a single non-deleted budget with its lines.
func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, sequence_number, client_name, client_email, design_fee,
		       total_value, publication_date, approved, rejected, notes, created_at
		FROM budgets WHERE id = ? AND deleted = 0`, id)

	b, err := scanBudget(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Budget{}, core.ErrBudgetNotFound
		}
		return core.Budget{}, fmt.Errorf("get budget %d: %w", id, err)
	}

	if err := r.loadLines(ctx, &b); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

// ListBudgets returns non-deleted budgets matching the filter, newest
// sequence first, each with its lines loaded.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, f Filter) ([]core.Budget, error) {
	query := `
		SELECT id, sequence_number, client_name, client_email, design_fee,
		       total_value, publication_date, approved, rejected, notes, created_at
		FROM budgets WHERE deleted = 0`
	var args []any

	if !f.From.IsZero() {
		query += ` AND publication_date >= ?`
		args = append(args, formatDate(f.From))
	}
	if !f.To.IsZero() {
		query += ` AND publication_date <= ?`
		args = append(args, formatDate(f.To))
	}
	switch f.Status {
	case "approved":
		query += ` AND approved = 1`
	case "rejected":
		query += ` AND rejected = 1`
	case "pending":
		query += ` AND approved = 0 AND rejected = 0`
	}
	if f.Client != "" {
		query += ` AND client_name = ?`
		args = append(args, f.Client)
	}
	if f.Vendor != "" {
		query += ` AND EXISTS (
			SELECT 1 FROM budget_lines l
			WHERE l.budget_id = budgets.id AND l.vendor_name LIKE ?)`
		args = append(args, "%"+f.Vendor+"%")
	}
	query += ` ORDER BY sequence_number DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	budgets := make([]core.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}

	for i := range budgets {
		if err := r.loadLines(ctx, &budgets[i]); err != nil {
			return nil, err
		}
	}
	return budgets, nil
}

// UpdateBudget rewrites the editable fields of a budget. The stored
// total_value is left untouched: the total is a creation-time snapshot.
func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE budgets SET
			client_name = ?, client_email = ?, design_fee = ?,
			publication_date = ?, notes = ?
		WHERE id = ? AND deleted = 0`,
		b.ClientName, b.ClientEmail, storeAmount(b.DesignFee),
		formatDate(b.PublicationDate), b.Notes, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrBudgetNotFound
	}

	for i, l := range b.Lines {
		if _, err := tx.ExecContext(ctx, `
			UPDATE budget_lines SET
				vendor_name = ?, unit_rate = ?, format_multiplier = ?, include_in_total = ?
			WHERE budget_id = ? AND position = ?`,
			l.VendorName, storeAmount(l.UnitRate), storeAmount(l.FormatMultiplier),
			l.IncludeInTotal, b.ID, i+1,
		); err != nil {
			return fmt.Errorf("update budget line %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

// SetApproval records the approval decision for a budget.
func (r *SQLiteRepository) SetApproval(ctx context.Context, id int64, approved, rejected bool) error {
	if approved && rejected {
		return core.ErrConflictingStatus
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET approved = ?, rejected = ? WHERE id = ? AND deleted = 0`,
		approved, rejected, id,
	)
	if err != nil {
		return fmt.Errorf("set approval for budget %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrBudgetNotFound
	}
	return nil
}

// SoftDeleteBudget hides a budget from every listing without losing the row.
func (r *SQLiteRepository) SoftDeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET deleted = 1 WHERE id = ? AND deleted = 0`, id)
	if err != nil {
		return fmt.Errorf("soft delete budget %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrBudgetNotFound
	}
	slog.InfoContext(ctx, "Budget soft deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) loadLines(ctx context.Context, b *core.Budget) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT position, vendor_name, unit_rate, format_multiplier, include_in_total
		FROM budget_lines WHERE budget_id = ? ORDER BY position`, b.ID)
	if err != nil {
		return fmt.Errorf("load lines for budget %d: %w", b.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			position             int
			vendor, rate, factor string
			include              bool
		)
		if err := rows.Scan(&position, &vendor, &rate, &factor, &include); err != nil {
			return fmt.Errorf("scan budget line: %w", err)
		}
		if position < 1 || position > core.BudgetLines {
			continue
		}
		b.Lines[position-1] = core.PublicationLine{
			VendorName:       vendor,
			UnitRate:         core.ParseAmount(rate),
			FormatMultiplier: core.ParseAmount(factor),
			IncludeInTotal:   include,
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b                 core.Budget
		fee, total, pdate string
	)
	err := row.Scan(&b.ID, &b.SequenceNumber, &b.ClientName, &b.ClientEmail,
		&fee, &total, &pdate, &b.Approved, &b.Rejected, &b.Notes, &b.CreatedAt)
	if err != nil {
		return core.Budget{}, err
	}
	b.DesignFee = core.ParseAmount(fee)
	b.TotalValue = core.ParseAmount(total)
	b.PublicationDate = parseDate(pdate)
	return b, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(s string) time.Time {
	if strings.TrimSpace(s) == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
