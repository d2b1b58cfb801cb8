package core

import (
	"sort"
	"time"
)

type (
	// ClientGroup aggregates every budget issued to one client.
	// Client names are matched exactly, including case.
	ClientGroup struct {
		ClientName     string
		BudgetCount    int
		Total          Amount
		DesignFeeTotal Amount
		Budgets        []Budget
	}

	// VendorLine is one publication slot flattened into a vendor report,
	// carrying enough of the parent budget to be read standalone.
	VendorLine struct {
		ClientName       string
		SequenceNumber   int64
		PublicationDate  time.Time
		Approved         bool
		UnitRate         Amount
		FormatMultiplier Amount
		Subtotal         Amount
	}

	// VendorGroup aggregates every used publication slot for one vendor.
	VendorGroup struct {
		VendorName string
		LineCount  int
		Total      Amount
		Lines      []VendorLine
	}
)

// ConsolidateByClient groups budgets by exact client name and totals the
// snapshot value of each group. Groups are sorted by total, highest
// first; ties keep first-encounter order. An empty input yields an
// empty (non-nil) slice.
func ConsolidateByClient(budgets []Budget) []ClientGroup {
	index := make(map[string]int)
	groups := make([]ClientGroup, 0)
	for _, b := range budgets {
		i, ok := index[b.ClientName]
		if !ok {
			i = len(groups)
			index[b.ClientName] = i
			groups = append(groups, ClientGroup{ClientName: b.ClientName})
		}
		g := &groups[i]
		g.BudgetCount++
		g.Total = g.Total.Add(b.TotalValue)
		g.DesignFeeTotal = g.DesignFeeTotal.Add(b.DesignFee)
		g.Budgets = append(g.Budgets, b)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Total.Cmp(groups[j].Total) > 0
	})
	return groups
}

// ConsolidateByVendor flattens every used publication slot into vendor
// groups. The inclusion flag does not gate this view: a slot excluded
// from its budget total still shows the vendor what would run with them.
// Groups are sorted by total, highest first; an empty input yields an
// empty (non-nil) slice.
func ConsolidateByVendor(budgets []Budget) []VendorGroup {
	index := make(map[string]int)
	groups := make([]VendorGroup, 0)
	for _, b := range budgets {
		for _, l := range b.Lines {
			if !l.Used() {
				continue
			}
			i, ok := index[l.VendorName]
			if !ok {
				i = len(groups)
				index[l.VendorName] = i
				groups = append(groups, VendorGroup{VendorName: l.VendorName})
			}
			g := &groups[i]
			value := l.GrossValue()
			g.LineCount++
			g.Total = g.Total.Add(value)
			g.Lines = append(g.Lines, VendorLine{
				ClientName:       b.ClientName,
				SequenceNumber:   b.SequenceNumber,
				PublicationDate:  b.PublicationDate,
				Approved:         b.Approved,
				UnitRate:         l.UnitRate,
				FormatMultiplier: l.FormatMultiplier,
				Subtotal:         value,
			})
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Total.Cmp(groups[j].Total) > 0
	})
	return groups
}
