package api

import (
	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/report"
)

// SummaryResponse is the GET /api/summary body.
type SummaryResponse struct {
	Period    string          `json:"period"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	TotalOpen decimal.Decimal `json:"total_open"`
	Total     decimal.Decimal `json:"total"`
	Months    []MonthJSON     `json:"months"`
	Debtors   []DebtorJSON    `json:"debtors"`
}

// MonthJSON is one month of a summary.
type MonthJSON struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Label string          `json:"label"`
	Paid  decimal.Decimal `json:"paid"`
	Open  decimal.Decimal `json:"open"`
}

// DebtorJSON is one debtor of a summary.
type DebtorJSON struct {
	Name    string          `json:"name"`
	Paid    decimal.Decimal `json:"paid"`
	Open    decimal.Decimal `json:"open"`
	Overdue decimal.Decimal `json:"overdue"`
	NextDue string          `json:"next_due,omitempty"`
}

func newSummaryResponse(s ledger.Summary) SummaryResponse {
	resp := SummaryResponse{
		Period:    report.PeriodLabel(s.Period),
		TotalPaid: s.TotalPaid,
		TotalOpen: s.TotalOpen,
		Total:     s.Total,
		Months:    make([]MonthJSON, 0, len(s.Months)),
		Debtors:   make([]DebtorJSON, 0, len(s.Debtors)),
	}
	for _, m := range s.Months {
		resp.Months = append(resp.Months, MonthJSON{
			Year:  m.Year,
			Month: int(m.Month),
			Label: report.MonthName(m.Month),
			Paid:  m.Paid,
			Open:  m.Open,
		})
	}
	for _, d := range s.Debtors {
		resp.Debtors = append(resp.Debtors, DebtorJSON{
			Name:    d.Name,
			Paid:    d.Paid,
			Open:    d.Open,
			Overdue: d.Overdue,
			NextDue: d.NextDue.String(),
		})
	}
	return resp
}
