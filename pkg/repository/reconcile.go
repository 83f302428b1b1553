package repository

import (
	"context"
	"fmt"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/db"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
)

// edit is one changed row resolved against the fresh document.
type edit struct {
	debtor int
	index  int
	row    ledger.Row
}

// Reconcile applies the changes between original and edited rows to a freshly
// fetched document and writes it back in one call. Rows are matched to
// installments by debtor name and original due date, so the rows may cover
// only part of the document. It returns the number of rows applied.
func (r *Repository) Reconcile(ctx context.Context, original, edited []ledger.Row) (int, error) {
	if len(original) != len(edited) {
		return 0, fmt.Errorf("%w: %d original, %d edited", ErrRowCountMismatch, len(original), len(edited))
	}

	var changed []int
	for i := range original {
		if !ledger.SameName(original[i].Name, edited[i].Name) {
			return 0, fmt.Errorf("%w: row %d %q became %q", ErrImmutableName, i+1, original[i].Name, edited[i].Name)
		}
		if !original[i].Modified(edited[i]) {
			continue
		}
		if err := ledger.ValidateAmount(edited[i].Amount); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		if edited[i].DueDate.IsZero() {
			return 0, fmt.Errorf("row %d: %w: missing due date", i+1, ledger.ErrInvalidDate)
		}
		changed = append(changed, i)
	}
	if len(changed) == 0 {
		return 0, nil
	}

	doc, err := r.fetch(ctx)
	if err != nil {
		return 0, err
	}

	// Resolve every target before touching any, so that edits which swap due
	// dates still find their installments.
	edits := make([]edit, 0, len(changed))
	for _, i := range changed {
		row := original[i]
		d := doc.IndexOf(row.Name)
		if d < 0 {
			return 0, fmt.Errorf("%w: %s", ledger.ErrDebtorNotFound, row.Name)
		}
		idx := doc[d].NthInstallmentIndex(row.DueDate, occurrence(original, i))
		if idx < 0 {
			return 0, fmt.Errorf("%w: %s has nothing due %s", ledger.ErrInstallmentNotFound, doc[d].Name, row.DueDate)
		}
		edits = append(edits, edit{debtor: d, index: idx, row: edited[i]})
	}

	before := doc.Clone()
	touched := make(map[int]bool, len(edits))
	for _, e := range edits {
		inst := &doc[e.debtor].Installments[e.index]
		inst.Amount = e.row.Amount
		inst.DueDate = e.row.DueDate
		inst.Paid = e.row.Paid
		touched[e.debtor] = true
	}

	for d := range touched {
		if date, dup := ledger.AddedDuplicateDueDate(&before[d], &doc[d]); dup {
			return 0, fmt.Errorf("%w: %s would have more than one installment due %s", ledger.ErrDuplicateDueDate, doc[d].Name, date)
		}
	}

	debtor := ""
	if first := original[changed[0]].Name; allSameDebtor(original, changed) {
		debtor = doc[doc.IndexOf(first)].Name
	}

	if err := r.commit(ctx, db.OpReconcile, debtor, doc); err != nil {
		return 0, err
	}
	return len(edits), nil
}

// occurrence counts the rows before i with the same debtor and due date, so
// that repeated due dates map to installments in document order.
func occurrence(rows []ledger.Row, i int) int {
	n := 0
	for _, r := range rows[:i] {
		if ledger.SameName(r.Name, rows[i].Name) && r.DueDate.Equal(rows[i].DueDate) {
			n++
		}
	}
	return n
}

func allSameDebtor(rows []ledger.Row, indexes []int) bool {
	for _, i := range indexes[1:] {
		if !ledger.SameName(rows[i].Name, rows[indexes[0]].Name) {
			return false
		}
	}
	return true
}
