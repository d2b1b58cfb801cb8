package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// BudgetLines is the fixed number of publication slots on a budget.
// Unused slots keep an empty vendor name and do not contribute value.
const BudgetLines = 5

type (
	// PublicationLine is one newspaper slot on a budget: the publication
	// it runs in, the base rate and the size multiplier for the chosen
	// format, plus the flag that gates it in or out of the total.
	PublicationLine struct {
		VendorName       string `json:"vendor_name"`
		UnitRate         Amount `json:"unit_rate"`
		FormatMultiplier Amount `json:"format_multiplier"`
		IncludeInTotal   bool   `json:"include_in_total"`
	}

	// Budget is a customer quote: client identity, the five publication
	// slots, the design-service fee and the snapshot of the computed
	// total taken when the budget was created.
	Budget struct {
		ID              int64               `json:"id"`
		SequenceNumber  int64               `json:"sequence_number"`
		ClientName      string              `json:"client_name"`
		ClientEmail     string              `json:"client_email"`
		Lines           [BudgetLines]PublicationLine `json:"lines"`
		DesignFee       Amount              `json:"design_fee"`
		TotalValue      Amount              `json:"total_value"`
		PublicationDate time.Time           `json:"publication_date"`
		Approved        bool                `json:"approved"`
		Rejected        bool                `json:"rejected"`
		Notes           string              `json:"notes"`
		CreatedAt       time.Time           `json:"created_at"`
	}

	// Invoice is issued against an approved budget.
	Invoice struct {
		ID       int64     `json:"id"`
		BudgetID int64     `json:"budget_id"`
		Number   string    `json:"number"`
		Amount   Amount    `json:"amount"`
		IssuedAt time.Time `json:"issued_at"`
		Paid     bool      `json:"paid"`
	}
)

var (
	// ErrInvalidBudget wraps every Validate failure so callers can treat
	// the whole family as bad input without matching each cause.
	ErrInvalidBudget = errors.New("invalid budget")

	ErrEmptyClientName    = errors.New("empty client name")
	ErrInvalidEmail       = errors.New("invalid client email")
	ErrNoIncludedLines    = errors.New("no publication line included in total")
	ErrConflictingStatus  = errors.New("budget cannot be both approved and rejected")
	ErrBudgetNotApproved  = errors.New("budget is not approved")
	ErrBudgetNotFound     = errors.New("budget not found")
	ErrInvoiceNotFound    = errors.New("invoice not found")
)

// Used reports whether the slot carries a publication.
func (l PublicationLine) Used() bool {
	return strings.TrimSpace(l.VendorName) != ""
}

// GrossValue is the slot value before the inclusion gate:
// unit rate times format multiplier.
func (l PublicationLine) GrossValue() Amount {
	return l.UnitRate.Mul(l.FormatMultiplier)
}

// Subtotal is the slot contribution to the budget total. Lines not
// flagged for inclusion contribute zero regardless of their values.
func (l PublicationLine) Subtotal() Amount {
	if !l.IncludeInTotal {
		return Amount{}
	}
	return l.GrossValue()
}

// Total computes the budget value from its current lines: the sum of
// included subtotals plus the design fee. Callers that need the value
// frozen at creation time read TotalValue instead; edits after creation
// never rewrite the snapshot.
func (b Budget) Total() Amount {
	total := b.DesignFee
	for _, l := range b.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// IncludedLines counts the slots gated into the total.
func (b Budget) IncludedLines() int {
	n := 0
	for _, l := range b.Lines {
		if l.IncludeInTotal {
			n++
		}
	}
	return n
}

// Status renders the approval state as a single word.
func (b Budget) Status() string {
	switch {
	case b.Approved:
		return "approved"
	case b.Rejected:
		return "rejected"
	default:
		return "pending"
	}
}

// PaddedSequence formats the sequence number as the six-digit document
// number printed on quotes and exports, e.g. 000123.
func (b Budget) PaddedSequence() string {
	return fmt.Sprintf("%06d", b.SequenceNumber)
}

// Validate checks the budget for bad input. Every failure wraps
// ErrInvalidBudget. A line included in the total without a vendor name
// is valid: it counts toward the total and simply never appears in the
// by-vendor view.
func (b Budget) Validate() error {
	if err := b.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBudget, err)
	}
	return nil
}

func (b Budget) validate() error {
	if strings.TrimSpace(b.ClientName) == "" {
		return ErrEmptyClientName
	}
	if len(b.ClientName) > 200 {
		return errors.New("client name too long (max 200 characters)")
	}
	if e := strings.TrimSpace(b.ClientEmail); e != "" {
		at := strings.Index(e, "@")
		if at <= 0 || at == len(e)-1 {
			return ErrInvalidEmail
		}
	}
	if b.Approved && b.Rejected {
		return ErrConflictingStatus
	}
	if b.IncludedLines() == 0 {
		return ErrNoIncludedLines
	}
	for i, l := range b.Lines {
		if l.UnitRate.IsNegative() || l.FormatMultiplier.IsNegative() {
			return fmt.Errorf("line %d has a negative value", i+1)
		}
	}
	if b.DesignFee.IsNegative() {
		return errors.New("negative design fee")
	}
	return nil
}
