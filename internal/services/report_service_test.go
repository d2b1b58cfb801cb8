package services

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"preventivi/internal/core"
	"preventivi/internal/storage"
)

func newTestReportService(t *testing.T) (*ReportService, *BudgetService) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewReportService(repo), NewBudgetService(repo, nil)
}

func TestReportByClientOrdering(t *testing.T) {
	reports, budgets := newTestReportService(t)
	ctx := context.Background()

	small := sampleBudget("Acme Srl")
	if _, err := budgets.CreateBudget(ctx, small); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	big := sampleBudget("Zenith Spa")
	big.Lines[0].UnitRate = core.ParseAmount("75.00")
	if _, err := budgets.CreateBudget(ctx, big); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	groups, err := reports.ByClient(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("by client: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("group count = %d, want 2", len(groups))
	}
	if groups[0].ClientName != "Zenith Spa" {
		t.Fatalf("highest total first, got %s", groups[0].ClientName)
	}
	if groups[0].Total.String() != "200.00" {
		t.Fatalf("Zenith total = %s, want 200.00", groups[0].Total.String())
	}
}

func TestReportByVendorIgnoresGate(t *testing.T) {
	reports, budgets := newTestReportService(t)
	ctx := context.Background()

	b := sampleBudget("Acme Srl")
	b.Lines[1] = core.PublicationLine{
		VendorName:       "Corriere",
		UnitRate:         core.ParseAmount("30.00"),
		FormatMultiplier: core.ParseAmount("1.0"),
		IncludeInTotal:   false,
	}
	if _, err := budgets.CreateBudget(ctx, b); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	groups, err := reports.ByVendor(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("by vendor: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("vendor count = %d, want 2", len(groups))
	}
	for _, g := range groups {
		if g.VendorName == "Corriere" && g.Total.String() != "30.00" {
			t.Fatalf("excluded slot must keep its gross value in the vendor view, got %s", g.Total.String())
		}
	}
}

func TestExportCSVStartsWithBOM(t *testing.T) {
	reports, budgets := newTestReportService(t)
	ctx := context.Background()

	if _, err := budgets.CreateBudget(ctx, sampleBudget("Acme Srl")); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	for _, mode := range []core.ExportMode{core.ModeClients, core.ModeVendors} {
		out, err := reports.ExportCSV(ctx, mode, storage.Filter{})
		if err != nil {
			t.Fatalf("export %s: %v", mode, err)
		}
		if !bytes.HasPrefix(out, []byte("\xef\xbb\xbf")) {
			t.Fatalf("export %s missing UTF-8 BOM", mode)
		}
		if !strings.Contains(string(out), "Acme Srl") {
			t.Fatalf("export %s missing client name", mode)
		}
	}

	if _, err := reports.ExportCSV(ctx, core.ExportMode("bogus"), storage.Filter{}); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestExportExcelProducesWorkbook(t *testing.T) {
	reports, budgets := newTestReportService(t)
	ctx := context.Background()

	if _, err := budgets.CreateBudget(ctx, sampleBudget("Acme Srl")); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	for _, mode := range []core.ExportMode{core.ModeClients, core.ModeVendors} {
		out, err := reports.ExportExcel(ctx, mode, storage.Filter{})
		if err != nil {
			t.Fatalf("export %s: %v", mode, err)
		}
		// xlsx files are zip archives.
		if !bytes.HasPrefix(out, []byte("PK")) {
			t.Fatalf("export %s is not a zip archive", mode)
		}
	}
}

func TestGenerateBudgetPDF(t *testing.T) {
	b := sampleBudget("Acme Srl")
	b.SequenceNumber = 123
	b.TotalValue = b.Total()
	b.Notes = "mezza pagina"

	out, err := GenerateBudgetPDF(b)
	if err != nil {
		t.Fatalf("generate pdf: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output is not a pdf")
	}
}

func TestSanitizeExcelCell(t *testing.T) {
	cases := map[string]string{
		"Acme":       "Acme",
		"=SUM(A1)":   "'=SUM(A1)",
		"+39 055 12": "'+39 055 12",
		"":           "",
	}
	for in, want := range cases {
		if got := sanitizeExcelCell(in); got != want {
			t.Fatalf("sanitizeExcelCell(%q) = %q, want %q", in, got, want)
		}
	}
}
