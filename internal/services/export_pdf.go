package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	mcore "github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"preventivi/internal/core"
)

// GenerateBudgetPDF renders a single budget as a printable quote
// document and returns the raw PDF bytes.
func GenerateBudgetPDF(b core.Budget) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	addBudgetHeader(m, b)
	addLineTableHeader(m)
	for _, l := range b.Lines {
		if !l.Used() {
			continue
		}
		addLineRow(m, l)
	}
	addBudgetSummary(m, b)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}

	return doc.GetBytes(), nil
}

func addBudgetHeader(m mcore.Maroto, b core.Budget) {
	gray := &props.Color{Red: 80, Green: 80, Blue: 80}

	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(fmt.Sprintf("Preventivo n. %s", b.PaddedSequence()), props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(
				text.New(fmt.Sprintf("Cliente: %s", b.ClientName), props.Text{
					Size:  9,
					Align: align.Left,
					Color: gray,
				}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("Data uscita: %s", formatExcelDate(b.PublicationDate)), props.Text{
					Size:  9,
					Align: align.Right,
					Color: gray,
				}),
			),
		),
	)

	if b.ClientEmail != "" {
		m.AddRows(
			row.New(6).Add(
				col.New(12).Add(
					text.New(b.ClientEmail, props.Text{
						Size:  9,
						Align: align.Left,
						Color: gray,
					}),
				),
			),
		)
	}

	// Spacer
	m.AddRows(row.New(4))
}

func addLineTableHeader(m mcore.Maroto) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left

	headerCell := props.Cell{BackgroundColor: headerBg}

	m.AddRows(
		row.New(8).Add(
			col.New(5).Add(
				text.New("Testata", headerTextLeft),
			).WithStyle(&headerCell),
			col.New(2).Add(
				text.New("Tariffa", headerText),
			).WithStyle(&headerCell),
			col.New(2).Add(
				text.New("Moduli", headerText),
			).WithStyle(&headerCell),
			col.New(1).Add(
				text.New("Incl.", headerText),
			).WithStyle(&headerCell),
			col.New(2).Add(
				text.New("Subtotale", headerText),
			).WithStyle(&headerCell),
		),
	)
}

func addLineRow(m mcore.Maroto, l core.PublicationLine) {
	baseText := props.Text{Size: 8, Align: align.Center}
	leftText := baseText
	leftText.Align = align.Left
	rightText := baseText
	rightText.Align = align.Right

	included := "si"
	subtotal := l.GrossValue().String()
	var cellStyle *props.Cell
	if !l.IncludeInTotal {
		included = "no"
		// Excluded slots still appear, grayed, with no value in the
		// subtotal column.
		subtotal = ""
		bg := &props.Color{Red: 245, Green: 245, Blue: 245}
		cellStyle = &props.Cell{BackgroundColor: bg}
	}

	colVendor := col.New(5).Add(text.New(l.VendorName, leftText))
	colRate := col.New(2).Add(text.New(l.UnitRate.String(), rightText))
	colMult := col.New(2).Add(text.New(l.FormatMultiplier.String(), rightText))
	colIncl := col.New(1).Add(text.New(included, baseText))
	colSub := col.New(2).Add(text.New(subtotal, rightText))

	if cellStyle != nil {
		colVendor = colVendor.WithStyle(cellStyle)
		colRate = colRate.WithStyle(cellStyle)
		colMult = colMult.WithStyle(cellStyle)
		colIncl = colIncl.WithStyle(cellStyle)
		colSub = colSub.WithStyle(cellStyle)
	}

	m.AddRows(row.New(7).Add(colVendor, colRate, colMult, colIncl, colSub))
}

func addBudgetSummary(m mcore.Maroto, b core.Budget) {
	m.AddRows(row.New(6))

	summaryBg := &props.Color{Red: 240, Green: 240, Blue: 240}
	summaryCell := &props.Cell{BackgroundColor: summaryBg}

	labelStyle := props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Align: align.Right,
	}
	valueStyle := labelStyle

	m.AddRows(
		row.New(8).Add(
			col.New(9).Add(
				text.New("Grafica", labelStyle),
			).WithStyle(summaryCell),
			col.New(3).Add(
				text.New(b.DesignFee.String(), valueStyle),
			).WithStyle(summaryCell),
		),
	)

	m.AddRows(
		row.New(8).Add(
			col.New(9).Add(
				text.New("Totale", labelStyle),
			).WithStyle(summaryCell),
			col.New(3).Add(
				text.New(b.TotalValue.String(), valueStyle),
			).WithStyle(summaryCell),
		),
	)

	if b.Notes != "" {
		m.AddRows(row.New(4))
		m.AddRows(
			row.New(8).Add(
				col.New(12).Add(
					text.New("Note: "+b.Notes, props.Text{
						Size:  8,
						Align: align.Left,
						Color: &props.Color{Red: 80, Green: 80, Blue: 80},
					}),
				),
			),
		)
	}
}
