package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"preventivi/internal/core"
)

// excelStyles holds the style IDs shared by both workbook layouts.
type excelStyles struct {
	title   int
	header  int
	group   int
	detail  int
	summary int
}

func newExcelStyles(f *excelize.File) (excelStyles, error) {
	var s excelStyles
	var err error

	// Title style: bold, 14pt.
	s.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return s, fmt.Errorf("create title style: %w", err)
	}

	// Column header style: bold, white text, charcoal background, centered.
	s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#333333"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: thinBorders(),
	})
	if err != nil {
		return s, fmt.Errorf("create header style: %w", err)
	}

	// Group row style: bold.
	s.group, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return s, fmt.Errorf("create group style: %w", err)
	}

	// Detail row style.
	s.detail, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return s, fmt.Errorf("create detail style: %w", err)
	}

	// Summary label style: bold, right aligned.
	s.summary, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return s, fmt.Errorf("create summary style: %w", err)
	}

	return s, nil
}

// GenerateClientsExcel renders the per-client consolidation as an xlsx
// workbook: one bold row per client followed by its budgets, then a
// grand total.
func GenerateClientsExcel(groups []core.ClientGroup) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Riepilogo clienti"
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	columns := []string{"A", "B", "C", "D", "E"}
	widths := []float64{32, 14, 14, 14, 14}
	for i, col := range columns {
		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	styles, err := newExcelStyles(f)
	if err != nil {
		return nil, err
	}

	// Row 1: title merged across all columns.
	if err := f.MergeCell(sheetName, "A1", "E1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheetName, "A1", "Preventivi per cliente")
	f.SetCellStyle(sheetName, "A1", "E1", styles.title)

	// Row 3: column headers.
	headers := []string{"Cliente", "Preventivi", "Totale", "Grafica", "Stato"}
	for i, h := range headers {
		f.SetCellValue(sheetName, columns[i]+"3", h)
	}
	f.SetCellStyle(sheetName, "A3", "E3", styles.header)

	row := 4
	var grandTotal core.Amount
	for _, g := range groups {
		rowStr := fmt.Sprintf("%d", row)
		f.SetCellValue(sheetName, "A"+rowStr, sanitizeExcelCell(g.ClientName))
		f.SetCellValue(sheetName, "B"+rowStr, g.BudgetCount)
		f.SetCellValue(sheetName, "C"+rowStr, g.Total.String())
		f.SetCellValue(sheetName, "D"+rowStr, g.DesignFeeTotal.String())
		f.SetCellStyle(sheetName, "A"+rowStr, "E"+rowStr, styles.group)
		row++

		for _, b := range g.Budgets {
			rowStr = fmt.Sprintf("%d", row)
			f.SetCellValue(sheetName, "A"+rowStr, "  "+b.PaddedSequence())
			f.SetCellValue(sheetName, "B"+rowStr, formatExcelDate(b.PublicationDate))
			f.SetCellValue(sheetName, "C"+rowStr, b.TotalValue.String())
			f.SetCellValue(sheetName, "D"+rowStr, b.DesignFee.String())
			f.SetCellValue(sheetName, "E"+rowStr, statusText(b))
			f.SetCellStyle(sheetName, "A"+rowStr, "E"+rowStr, styles.detail)
			row++
		}

		grandTotal = grandTotal.Add(g.Total)
	}

	// Grand total after a blank row.
	row++
	rowStr := fmt.Sprintf("%d", row)
	f.SetCellValue(sheetName, "B"+rowStr, "Totale generale:")
	f.SetCellStyle(sheetName, "B"+rowStr, "B"+rowStr, styles.summary)
	f.SetCellValue(sheetName, "C"+rowStr, grandTotal.String())
	f.SetCellStyle(sheetName, "C"+rowStr, "C"+rowStr, styles.group)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}

	return buf.Bytes(), nil
}

// GenerateVendorsExcel renders the per-publication consolidation as an
// xlsx workbook. Every used slot appears, including those excluded from
// the budget total, so vendors see the full planned volume.
func GenerateVendorsExcel(groups []core.VendorGroup) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Riepilogo testate"
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	columns := []string{"A", "B", "C", "D", "E", "F"}
	widths := []float64{28, 12, 28, 12, 10, 14}
	for i, col := range columns {
		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	styles, err := newExcelStyles(f)
	if err != nil {
		return nil, err
	}

	if err := f.MergeCell(sheetName, "A1", "F1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheetName, "A1", "Uscite per testata")
	f.SetCellStyle(sheetName, "A1", "F1", styles.title)

	headers := []string{"Testata", "Numero", "Cliente", "Data", "Moduli", "Subtotale"}
	for i, h := range headers {
		f.SetCellValue(sheetName, columns[i]+"3", h)
	}
	f.SetCellStyle(sheetName, "A3", "F3", styles.header)

	row := 4
	for _, g := range groups {
		rowStr := fmt.Sprintf("%d", row)
		f.SetCellValue(sheetName, "A"+rowStr, sanitizeExcelCell(g.VendorName))
		f.SetCellValue(sheetName, "E"+rowStr, g.LineCount)
		f.SetCellValue(sheetName, "F"+rowStr, g.Total.String())
		f.SetCellStyle(sheetName, "A"+rowStr, "F"+rowStr, styles.group)
		row++

		for _, l := range g.Lines {
			rowStr = fmt.Sprintf("%d", row)
			f.SetCellValue(sheetName, "B"+rowStr, fmt.Sprintf("%06d", l.SequenceNumber))
			f.SetCellValue(sheetName, "C"+rowStr, sanitizeExcelCell(l.ClientName))
			f.SetCellValue(sheetName, "D"+rowStr, formatExcelDate(l.PublicationDate))
			f.SetCellValue(sheetName, "E"+rowStr, l.FormatMultiplier.String())
			f.SetCellValue(sheetName, "F"+rowStr, l.Subtotal.String())
			f.SetCellStyle(sheetName, "A"+rowStr, "F"+rowStr, styles.detail)
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}

	return buf.Bytes(), nil
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous
// leading characters with a single quote. Spreadsheet applications treat
// cells starting with =, +, - or @ as formulas.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

func formatExcelDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func statusText(b core.Budget) string {
	switch b.Status() {
	case "approved":
		return "approvato"
	case "rejected":
		return "rifiutato"
	default:
		return "in attesa"
	}
}
