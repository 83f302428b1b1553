// Package sheet exchanges installment rows with spreadsheet editors through
// xlsx workbooks. A hidden sheet keeps the rows as exported so that the
// edits can be reconciled later.
package sheet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
)

const (
	// EditSheet is the visible sheet users edit.
	EditSheet = "Parcelas"

	// OriginalSheet is the hidden snapshot of the exported rows.
	OriginalSheet = "_original"
)

var header = []interface{}{"Nome", "Valor", "Vencimento", "Paga"}

var columns = []string{"A", "B", "C", "D"}

// ErrMissingSheet is returned when a workbook lacks one of the two sheets.
var ErrMissingSheet = errors.New("sheet not found in workbook")

// CellError points at the cell that failed to parse.
type CellError struct {
	Sheet  string
	Row    int
	Column string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("%s!%s%d: %v", e.Sheet, e.Column, e.Row, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}

// Export writes rows to a new workbook at path.
func Export(path string, rows []ledger.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", EditSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(OriginalSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	for _, name := range []string{EditSheet, OriginalSheet} {
		if err := writeRows(f, name, rows); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(EditSheet, "A", "A", 28); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(EditSheet, "B", "C", 14); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetSheetVisible(OriginalSheet, false); err != nil {
		return fmt.Errorf("failed to hide sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows []ledger.Row) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{r.Name, amountCell(r.Amount), r.DueDate.String(), r.Paid}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	return nil
}

// amountCell returns a number when it reads back as the same decimal, and the
// exact text otherwise.
func amountCell(d decimal.Decimal) interface{} {
	f := d.InexactFloat64()
	if decimal.NewFromFloat(f).Equal(d) {
		return f
	}
	return d.String()
}

// Load reads the exported snapshot and the edited rows back from path.
func Load(path string) (original, edited []ledger.Row, err error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	original, err = readRows(f, OriginalSheet)
	if err != nil {
		return nil, nil, err
	}
	edited, err = readRows(f, EditSheet)
	if err != nil {
		return nil, nil, err
	}
	return original, edited, nil
}

func readRows(f *excelize.File, sheet string) ([]ledger.Row, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingSheet, sheet)
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Row
	line := 0
	for rows.Next() {
		line++
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read %s row %d: %w", sheet, line, err)
		}
		if line == 1 || blank(cols) {
			continue
		}

		row, err := parseRow(sheet, line, cols)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseRow(sheet string, line int, cols []string) (ledger.Row, error) {
	for len(cols) < len(columns) {
		cols = append(cols, "")
	}
	cellErr := func(col int, err error) error {
		return &CellError{Sheet: sheet, Row: line, Column: columns[col], Err: err}
	}

	name, err := ledger.NormalizeName(cols[0])
	if err != nil {
		return ledger.Row{}, cellErr(0, err)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(cols[1]))
	if err != nil {
		amount, err = ledger.ParseAmount(cols[1])
		if err != nil {
			return ledger.Row{}, cellErr(1, err)
		}
	}

	due, err := parseDue(cols[2])
	if err != nil {
		return ledger.Row{}, cellErr(2, err)
	}

	paid, err := parsePaid(cols[3])
	if err != nil {
		return ledger.Row{}, cellErr(3, err)
	}

	return ledger.Row{Name: name, Amount: amount, DueDate: due, Paid: paid}, nil
}

// parseDue accepts the exported text form and Excel date serials, which
// appear when an editor converts the column to dates.
func parseDue(s string) (ledger.Date, error) {
	due, err := ledger.ParseDate(s)
	if err == nil {
		return due, nil
	}

	serial, convErr := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if convErr != nil {
		return ledger.Date{}, err
	}
	t, convErr := excelize.ExcelDateToTime(serial, false)
	if convErr != nil {
		return ledger.Date{}, err
	}
	return ledger.DateOf(t), nil
}

func parsePaid(s string) (bool, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return false, nil
	case "sim", "s":
		return true, nil
	case "não", "nao", "n":
		return false, nil
	}
	return strconv.ParseBool(s)
}

func blank(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
