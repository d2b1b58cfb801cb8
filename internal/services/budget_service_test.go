package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"preventivi/internal/core"
	"preventivi/internal/storage"
)

func newTestService(t *testing.T) *BudgetService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	svc := NewBudgetService(repo, nil)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func sampleBudget(client string) core.Budget {
	b := core.Budget{
		ClientName:      client,
		ClientEmail:     "ufficio@" + client + ".example",
		DesignFee:       core.ParseAmount("50.00"),
		PublicationDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	b.Lines[0] = core.PublicationLine{
		VendorName:       "Gazzetta",
		UnitRate:         core.ParseAmount("10.00"),
		FormatMultiplier: core.ParseAmount("2.0"),
		IncludeInTotal:   true,
	}
	return b
}

func TestCreateBudgetFreezesTotal(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateBudget(ctx, sampleBudget("acme"))
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}
	if got := created.TotalValue.String(); got != "70.00" {
		t.Fatalf("frozen total = %s, want 70.00", got)
	}

	// Raising the rate on an update must not move the stored total.
	created.Lines[0].UnitRate = core.ParseAmount("99.00")
	if err := svc.UpdateBudget(ctx, created); err != nil {
		t.Fatalf("update budget: %v", err)
	}

	got, err := svc.GetBudget(ctx, created.ID)
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	if got.TotalValue.String() != "70.00" {
		t.Fatalf("total after update = %s, want 70.00", got.TotalValue.String())
	}
	if got.Lines[0].UnitRate.String() != "99.00" {
		t.Fatalf("rate after update = %s, want 99.00", got.Lines[0].UnitRate.String())
	}
}

func TestCreateBudgetRejectsInvalid(t *testing.T) {
	svc := newTestService(t)

	b := sampleBudget("acme")
	b.ClientName = "   "
	if _, err := svc.CreateBudget(context.Background(), b); !errors.Is(err, core.ErrEmptyClientName) {
		t.Fatalf("expected ErrEmptyClientName, got %v", err)
	}
}

func TestApproveAndRejectBudget(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateBudget(ctx, sampleBudget("acme"))
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}

	if err := svc.ApproveBudget(ctx, created.ID); err != nil {
		t.Fatalf("approve budget: %v", err)
	}
	got, _ := svc.GetBudget(ctx, created.ID)
	if got.Status() != "approved" {
		t.Fatalf("status = %s, want approved", got.Status())
	}

	if err := svc.RejectBudget(ctx, created.ID); err != nil {
		t.Fatalf("reject budget: %v", err)
	}
	got, _ = svc.GetBudget(ctx, created.ID)
	if got.Status() != "rejected" {
		t.Fatalf("status = %s, want rejected", got.Status())
	}
	if got.Approved {
		t.Fatalf("rejection must clear approval")
	}
}

func TestIssueInvoice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateBudget(ctx, sampleBudget("acme"))
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}

	// Pending budgets cannot be invoiced.
	if _, err := svc.IssueInvoice(ctx, created.ID); !errors.Is(err, core.ErrBudgetNotApproved) {
		t.Fatalf("expected ErrBudgetNotApproved, got %v", err)
	}

	if err := svc.ApproveBudget(ctx, created.ID); err != nil {
		t.Fatalf("approve budget: %v", err)
	}

	inv, err := svc.IssueInvoice(ctx, created.ID)
	if err != nil {
		t.Fatalf("issue invoice: %v", err)
	}
	if inv.Number != "FAT-000001" {
		t.Fatalf("invoice number = %s, want FAT-000001", inv.Number)
	}
	if inv.Amount.String() != "70.00" {
		t.Fatalf("invoice amount = %s, want 70.00", inv.Amount.String())
	}

	if err := svc.MarkInvoicePaid(ctx, inv.ID); err != nil {
		t.Fatalf("mark invoice paid: %v", err)
	}
}

func TestDeleteBudget(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateBudget(ctx, sampleBudget("acme"))
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}

	if err := svc.DeleteBudget(ctx, created.ID); err != nil {
		t.Fatalf("delete budget: %v", err)
	}
	if _, err := svc.GetBudget(ctx, created.ID); !errors.Is(err, core.ErrBudgetNotFound) {
		t.Fatalf("expected ErrBudgetNotFound, got %v", err)
	}
}

func TestBudgetServiceCloseNilComponents(t *testing.T) {
	svc := &BudgetService{}
	if err := svc.Close(); err != nil {
		t.Fatalf("close with nil components: %v", err)
	}
}
