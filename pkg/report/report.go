// Package report renders documents and summaries as Brazilian Portuguese
// text tables.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// FormatBRL formats an amount as Brazilian reais, e.g. "R$ 1.234,56".
func FormatBRL(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	return sign + "R$ " + printer.Sprintf("%.2f", rounded.InexactFloat64())
}

// MonthName returns the Portuguese name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// PeriodLabel describes a period, e.g. "Março de 2024", "2024" or "Todos".
func PeriodLabel(p ledger.Period) string {
	switch {
	case p.Year != 0 && p.Month != 0:
		return fmt.Sprintf("%s de %d", MonthName(p.Month), p.Year)
	case p.Year != 0:
		return fmt.Sprintf("%d", p.Year)
	case p.Month != 0:
		return MonthName(p.Month)
	}
	return "Todos"
}

// WriteSummary writes the totals, the per-month table and the per-debtor table.
func WriteSummary(w io.Writer, s ledger.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Período:\t%s\n", PeriodLabel(s.Period))
	fmt.Fprintf(tw, "Recebido:\t%s\n", FormatBRL(s.TotalPaid))
	fmt.Fprintf(tw, "A receber:\t%s\n", FormatBRL(s.TotalOpen))
	fmt.Fprintf(tw, "Total:\t%s\n", FormatBRL(s.Total))

	if len(s.Months) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Mês\tRecebido\tA receber")
		for _, m := range s.Months {
			fmt.Fprintf(tw, "%s/%d\t%s\t%s\n", MonthName(m.Month), m.Year, FormatBRL(m.Paid), FormatBRL(m.Open))
		}
	}

	if len(s.Debtors) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Devedor\tRecebido\tA receber\tEm atraso\tPróximo vencimento")
		for _, d := range s.Debtors {
			next := "-"
			if !d.NextDue.IsZero() {
				next = d.NextDue.String()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Name, FormatBRL(d.Paid), FormatBRL(d.Open), FormatBRL(d.Overdue), next)
		}
	}

	return tw.Flush()
}

// WriteRows writes one line per installment.
func WriteRows(w io.Writer, rows []ledger.Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "Nome\tValor\tVencimento\tPaga")
	for _, r := range rows {
		paid := "não"
		if r.Paid {
			paid = "sim"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, FormatBRL(r.Amount), r.DueDate, paid)
	}

	return tw.Flush()
}
