// Package ledger provides the debtor document model: debtors, installments,
// the flattened row view and payment summaries, plus the JSON wire format
// stored in the remote gist.
package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateDebtor is returned when a debtor name is already taken.
	ErrDuplicateDebtor = errors.New("debtor already registered")

	// ErrDebtorNotFound is returned when no debtor matches a name.
	ErrDebtorNotFound = errors.New("debtor not found")

	// ErrInstallmentNotFound is returned when no installment matches a due date.
	ErrInstallmentNotFound = errors.New("installment not found")

	// ErrInvalidDate is returned for dates that are not valid YYYY-MM-DD calendar dates.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidAmount is returned for amounts that are not positive numbers.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidName is returned for empty debtor names.
	ErrInvalidName = errors.New("invalid debtor name")

	// ErrInvalidInstallmentCount is returned when a schedule has fewer than one
	// or more than MaxInstallments installments.
	ErrInvalidInstallmentCount = errors.New("invalid installment count")

	// ErrDuplicateDueDate is returned when a debtor would own two installments due on the same date.
	ErrDuplicateDueDate = errors.New("duplicate installment due date")

	// ErrMalformedDocument is returned when stored content is not a debtor list.
	ErrMalformedDocument = errors.New("malformed document")
)

// Installment represents a single scheduled payment.
type Installment struct {
	Amount  decimal.Decimal
	DueDate Date
	Paid    bool
}

// NewInstallment creates an unpaid installment after validating the amount.
func NewInstallment(amount decimal.Decimal, dueDate Date) (Installment, error) {
	if err := ValidateAmount(amount); err != nil {
		return Installment{}, err
	}
	if dueDate.IsZero() {
		return Installment{}, fmt.Errorf("%w: missing due date", ErrInvalidDate)
	}
	return Installment{Amount: amount, DueDate: dueDate}, nil
}

// Debtor represents a named party owing one or more installments.
type Debtor struct {
	Name         string
	Installments []Installment
}

// NewDebtor creates a debtor with a normalized name.
func NewDebtor(name string, installments ...Installment) (Debtor, error) {
	normalized, err := NormalizeName(name)
	if err != nil {
		return Debtor{}, err
	}
	if installments == nil {
		installments = []Installment{}
	}
	return Debtor{Name: normalized, Installments: installments}, nil
}

// InstallmentIndex returns the index of the installment due on date, or -1.
func (d *Debtor) InstallmentIndex(date Date) int {
	return d.NthInstallmentIndex(date, 0)
}

// NthInstallmentIndex returns the index of the n-th (from zero) installment
// due on date, or -1.
func (d *Debtor) NthInstallmentIndex(date Date, n int) int {
	for i, inst := range d.Installments {
		if !inst.DueDate.Equal(date) {
			continue
		}
		if n == 0 {
			return i
		}
		n--
	}
	return -1
}

// HasDueDate reports whether the debtor already owns an installment due on date.
func (d *Debtor) HasDueDate(date Date) bool {
	return d.InstallmentIndex(date) >= 0
}

// AddedDuplicateDueDate returns a due date that after holds more than once and
// more often than before. Duplicates already present in before are ignored.
func AddedDuplicateDueDate(before, after *Debtor) (Date, bool) {
	was := dueDateCounts(before)
	now := dueDateCounts(after)
	for _, inst := range after.Installments {
		key := inst.DueDate.String()
		if now[key] > 1 && now[key] > was[key] {
			return inst.DueDate, true
		}
	}
	return Date{}, false
}

func dueDateCounts(d *Debtor) map[string]int {
	counts := make(map[string]int)
	if d == nil {
		return counts
	}
	for _, inst := range d.Installments {
		counts[inst.DueDate.String()]++
	}
	return counts
}

// NormalizeName trims a debtor name and rejects empty names.
func NormalizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	return trimmed, nil
}

// SameName compares debtor names case-insensitively.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// MaxInstallments caps a generated schedule at fifty years of monthly payments.
const MaxInstallments = 600

// Schedule generates count unpaid installments of the same amount, the i-th
// due 30*i days after firstDue.
func Schedule(count int, amount decimal.Decimal, firstDue Date) ([]Installment, error) {
	if count < 1 || count > MaxInstallments {
		return nil, fmt.Errorf("%w: %d, expected 1 to %d", ErrInvalidInstallmentCount, count, MaxInstallments)
	}

	installments := make([]Installment, 0, count)
	for i := 0; i < count; i++ {
		inst, err := NewInstallment(amount, firstDue.AddDays(30*i))
		if err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}
	return installments, nil
}
