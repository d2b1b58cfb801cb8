package core

import (
	"fmt"
	"strconv"
	"strings"
)

// ExportMode selects which consolidated view an export renders.
type ExportMode string

const (
	ModeClients ExportMode = "clients"
	ModeVendors ExportMode = "vendors"
)

// csvBOM is the UTF-8 byte order mark prepended to every export so that
// spreadsheet applications detect the encoding.
const csvBOM = "\uFEFF"

// csvSep is the field delimiter. Semicolons keep the files readable in
// locales where the comma is the decimal separator.
const csvSep = ";"

// quote wraps a free-text field in double quotes, doubling any embedded
// quote. Name fields are always quoted, even when they need no escaping,
// so columns stay stable across exports.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func yesNo(v bool) string {
	if v {
		return "si"
	}
	return "no"
}

// ExportClientsCSV renders the client consolidation as CSV text: a
// summary section with one row per client, a blank line, then a detail
// section with one row per budget. Amounts use two decimals with a dot
// separator. Empty input still yields both section headers.
func ExportClientsCSV(groups []ClientGroup) string {
	var sb strings.Builder
	sb.WriteString(csvBOM)

	writeRow(&sb, "Cliente", "Preventivi", "Totale", "Totale grafica")
	for _, g := range groups {
		writeRow(&sb, quote(g.ClientName), itoa(g.BudgetCount), g.Total.String(), g.DesignFeeTotal.String())
	}
	sb.WriteString("\r\n")

	writeRow(&sb, "Numero", "Cliente", "Data", "Stato", "Grafica", "Totale")
	for _, g := range groups {
		for _, b := range g.Budgets {
			writeRow(&sb,
				b.PaddedSequence(),
				quote(b.ClientName),
				b.PublicationDate.Format("2006-01-02"),
				statusLabel(b),
				b.DesignFee.String(),
				b.TotalValue.String(),
			)
		}
	}
	return sb.String()
}

// ExportVendorsCSV renders the vendor consolidation as CSV text, with
// the same two-section layout as the client export.
func ExportVendorsCSV(groups []VendorGroup) string {
	var sb strings.Builder
	sb.WriteString(csvBOM)

	writeRow(&sb, "Testata", "Uscite", "Totale")
	for _, g := range groups {
		writeRow(&sb, quote(g.VendorName), itoa(g.LineCount), g.Total.String())
	}
	sb.WriteString("\r\n")

	writeRow(&sb, "Testata", "Numero", "Cliente", "Data", "Approvato", "Tariffa", "Moduli", "Subtotale")
	for _, g := range groups {
		for _, l := range g.Lines {
			writeRow(&sb,
				quote(g.VendorName),
				formatSequence(l.SequenceNumber),
				quote(l.ClientName),
				l.PublicationDate.Format("2006-01-02"),
				yesNo(l.Approved),
				l.UnitRate.String(),
				l.FormatMultiplier.String(),
				l.Subtotal.String(),
			)
		}
	}
	return sb.String()
}

func writeRow(sb *strings.Builder, fields ...string) {
	sb.WriteString(strings.Join(fields, csvSep))
	sb.WriteString("\r\n")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func formatSequence(n int64) string {
	return fmt.Sprintf("%06d", n)
}

func statusLabel(b Budget) string {
	switch {
	case b.Approved:
		return "approvato"
	case b.Rejected:
		return "rifiutato"
	default:
		return "in attesa"
	}
}
