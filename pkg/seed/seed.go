// Package seed imports debtors from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
)

// Entry describes one debtor and its installment schedule.
type Entry struct {
	Name         string `yaml:"name"`
	Installments int    `yaml:"installments"`
	Amount       string `yaml:"amount"`
	FirstDue     string `yaml:"first_due"`
}

// File is the root of a seed file.
type File struct {
	Debtors []Entry `yaml:"debtors"`
}

// Registrar registers one debtor. *repository.Repository satisfies it.
type Registrar interface {
	RegisterDebtor(ctx context.Context, name string, count int, amount decimal.Decimal, firstDue string) error
}

// Result lists what Apply did.
type Result struct {
	Registered []string
	Skipped    []string
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate checks every entry without touching any store.
func (f *File) Validate() error {
	seen := make(map[string]int, len(f.Debtors))
	for i, e := range f.Debtors {
		pos := i + 1

		name, err := ledger.NormalizeName(e.Name)
		if err != nil {
			return fmt.Errorf("debtor #%d: %w", pos, err)
		}
		if prev, ok := seen[normalizedKey(name)]; ok {
			return fmt.Errorf("debtor #%d: %w: %q repeats debtor #%d", pos, ledger.ErrDuplicateDebtor, name, prev)
		}
		seen[normalizedKey(name)] = pos

		if e.Installments < 1 || e.Installments > ledger.MaxInstallments {
			return fmt.Errorf("debtor %q: %w: %d", name, ledger.ErrInvalidInstallmentCount, e.Installments)
		}
		if _, err := ledger.ParseAmount(e.Amount); err != nil {
			return fmt.Errorf("debtor %q: %w", name, err)
		}
		if _, err := ledger.ParseDate(e.FirstDue); err != nil {
			return fmt.Errorf("debtor %q: %w", name, err)
		}
	}
	return nil
}

// Apply registers every entry in order. Debtors that already exist are
// skipped and reported; any other failure stops the import.
func Apply(ctx context.Context, repo Registrar, file *File, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	result := &Result{}
	for _, e := range file.Debtors {
		amount, err := ledger.ParseAmount(e.Amount)
		if err != nil {
			return result, fmt.Errorf("debtor %q: %w", e.Name, err)
		}

		err = repo.RegisterDebtor(ctx, e.Name, e.Installments, amount, e.FirstDue)
		switch {
		case errors.Is(err, ledger.ErrDuplicateDebtor):
			logger.Warn("debtor already registered, skipping", "debtor", e.Name)
			result.Skipped = append(result.Skipped, e.Name)
		case err != nil:
			return result, fmt.Errorf("debtor %q: %w", e.Name, err)
		default:
			logger.Info("debtor imported", "debtor", e.Name, "installments", e.Installments)
			result.Registered = append(result.Registered, e.Name)
		}
	}
	return result, nil
}

func normalizedKey(name string) string {
	return strings.ToLower(name)
}
