package ledger

import "github.com/shopspring/decimal"

// Row is one installment flattened with its owning debtor's name, as shown
// in a tabular editor.
type Row struct {
	Name    string          `json:"nome"`
	Amount  decimal.Decimal `json:"valor"`
	DueDate Date            `json:"vencimento"`
	Paid    bool            `json:"paga"`
}

// Rows flattens the document in debtor order, then installment order.
func Rows(doc Document) []Row {
	rows := make([]Row, 0, doc.InstallmentCount())
	for _, d := range doc {
		for _, inst := range d.Installments {
			rows = append(rows, Row{
				Name:    d.Name,
				Amount:  inst.Amount,
				DueDate: inst.DueDate,
				Paid:    inst.Paid,
			})
		}
	}
	return rows
}

// FilterRows keeps the rows of one debtor. An empty name keeps every row.
func FilterRows(rows []Row, name string) []Row {
	if name == "" {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if SameName(r.Name, name) {
			out = append(out, r)
		}
	}
	return out
}

// Modified reports whether any mutable field (amount, due date, paid)
// differs between r and edited.
func (r Row) Modified(edited Row) bool {
	return !r.Amount.Equal(edited.Amount) ||
		!r.DueDate.Equal(edited.DueDate) ||
		r.Paid != edited.Paid
}
