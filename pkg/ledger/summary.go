package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Period selects installments by due year and month. Zero fields match everything.
type Period struct {
	Year  int
	Month time.Month
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d Date) bool {
	if p.Year != 0 && d.Year() != p.Year {
		return false
	}
	if p.Month != 0 && d.Month() != p.Month {
		return false
	}
	return true
}

// MonthTotal aggregates paid and open amounts due in one calendar month.
type MonthTotal struct {
	Year  int
	Month time.Month
	Paid  decimal.Decimal
	Open  decimal.Decimal
}

// DebtorTotal aggregates one debtor's installments.
type DebtorTotal struct {
	Name    string
	Paid    decimal.Decimal
	Open    decimal.Decimal
	Overdue decimal.Decimal
	NextDue Date // earliest unpaid installment due on or after today; zero if none
}

// Summary is the dashboard view of a document for a period.
type Summary struct {
	Period    Period
	TotalPaid decimal.Decimal
	TotalOpen decimal.Decimal
	Total     decimal.Decimal
	Months    []MonthTotal
	Debtors   []DebtorTotal
}

// Summarize aggregates the installments due inside period. Overdue amounts
// are unpaid installments due before today.
func Summarize(doc Document, period Period, today Date) Summary {
	s := Summary{
		Period:    period,
		TotalPaid: decimal.Zero,
		TotalOpen: decimal.Zero,
	}
	months := make(map[[2]int]*MonthTotal)

	for _, d := range doc {
		dt := DebtorTotal{Name: d.Name, Paid: decimal.Zero, Open: decimal.Zero, Overdue: decimal.Zero}
		matched := false

		for _, inst := range d.Installments {
			if !period.Contains(inst.DueDate) {
				continue
			}
			matched = true

			key := [2]int{inst.DueDate.Year(), int(inst.DueDate.Month())}
			mt, ok := months[key]
			if !ok {
				mt = &MonthTotal{Year: key[0], Month: time.Month(key[1]), Paid: decimal.Zero, Open: decimal.Zero}
				months[key] = mt
			}

			if inst.Paid {
				s.TotalPaid = s.TotalPaid.Add(inst.Amount)
				dt.Paid = dt.Paid.Add(inst.Amount)
				mt.Paid = mt.Paid.Add(inst.Amount)
				continue
			}

			s.TotalOpen = s.TotalOpen.Add(inst.Amount)
			dt.Open = dt.Open.Add(inst.Amount)
			mt.Open = mt.Open.Add(inst.Amount)

			if inst.DueDate.Before(today) {
				dt.Overdue = dt.Overdue.Add(inst.Amount)
			} else if dt.NextDue.IsZero() || inst.DueDate.Before(dt.NextDue) {
				dt.NextDue = inst.DueDate
			}
		}

		if matched {
			s.Debtors = append(s.Debtors, dt)
		}
	}

	s.Total = s.TotalPaid.Add(s.TotalOpen)

	s.Months = make([]MonthTotal, 0, len(months))
	for _, mt := range months {
		s.Months = append(s.Months, *mt)
	}
	sort.Slice(s.Months, func(i, j int) bool {
		if s.Months[i].Year != s.Months[j].Year {
			return s.Months[i].Year < s.Months[j].Year
		}
		return s.Months[i].Month < s.Months[j].Month
	})

	return s
}
