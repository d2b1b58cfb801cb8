package services

import (
	"context"
	"fmt"

	"preventivi/internal/core"
	"preventivi/internal/storage"
)

// ReportService builds consolidated views over stored budgets and
// renders them for download.
type ReportService struct {
	storage *storage.SQLiteRepository
}

func NewReportService(storage *storage.SQLiteRepository) *ReportService {
	return &ReportService{storage: storage}
}

// ByClient consolidates the budgets matching the filter per client.
func (s *ReportService) ByClient(ctx context.Context, f storage.Filter) ([]core.ClientGroup, error) {
	budgets, err := s.storage.ListBudgets(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	return core.ConsolidateByClient(budgets), nil
}

// ByVendor consolidates the budgets matching the filter per publication.
func (s *ReportService) ByVendor(ctx context.Context, f storage.Filter) ([]core.VendorGroup, error) {
	budgets, err := s.storage.ListBudgets(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	return core.ConsolidateByVendor(budgets), nil
}

// ExportCSV renders the requested consolidation as a CSV download.
// The returned bytes start with a UTF-8 BOM.
func (s *ReportService) ExportCSV(ctx context.Context, mode core.ExportMode, f storage.Filter) ([]byte, error) {
	switch mode {
	case core.ModeClients:
		groups, err := s.ByClient(ctx, f)
		if err != nil {
			return nil, err
		}
		return []byte(core.ExportClientsCSV(groups)), nil
	case core.ModeVendors:
		groups, err := s.ByVendor(ctx, f)
		if err != nil {
			return nil, err
		}
		return []byte(core.ExportVendorsCSV(groups)), nil
	default:
		return nil, fmt.Errorf("unknown export mode %q", mode)
	}
}

// ExportExcel renders the requested consolidation as an xlsx workbook.
func (s *ReportService) ExportExcel(ctx context.Context, mode core.ExportMode, f storage.Filter) ([]byte, error) {
	switch mode {
	case core.ModeClients:
		groups, err := s.ByClient(ctx, f)
		if err != nil {
			return nil, err
		}
		return GenerateClientsExcel(groups)
	case core.ModeVendors:
		groups, err := s.ByVendor(ctx, f)
		if err != nil {
			return nil, err
		}
		return GenerateVendorsExcel(groups)
	default:
		return nil, fmt.Errorf("unknown export mode %q", mode)
	}
}
