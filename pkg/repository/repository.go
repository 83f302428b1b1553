// Package repository implements the debtor operations as fetch, mutate and
// write cycles over the whole document.
//
// The repository keeps no document between calls. Two overlapping cycles
// race and the later write wins for the whole document; the revision of each
// write is logged and recorded so that a lost update can be traced.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/db"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
)

// Store reads and overwrites the whole document.
type Store interface {
	Fetch(ctx context.Context) (ledger.Document, error)
	Replace(ctx context.Context, doc ledger.Document) error
}

// Recorder receives one entry per committed write.
type Recorder interface {
	Record(ctx context.Context, e db.Entry) error
}

// Repository runs debtor operations against a Store.
type Repository struct {
	store   Store
	logger  *slog.Logger
	history Recorder
	now     func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// WithHistory records every committed write.
func WithHistory(rec Recorder) Option {
	return func(r *Repository) {
		r.history = rec
	}
}

// WithClock overrides the time source used for history entries.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// New creates a Repository.
func New(store Store, opts ...Option) *Repository {
	r := &Repository{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FetchAll returns the current document.
func (r *Repository) FetchAll(ctx context.Context) (ledger.Document, error) {
	return r.fetch(ctx)
}

// RegisterDebtor adds a debtor with count unpaid installments of amount, the
// i-th due 30*i days after firstDue.
func (r *Repository) RegisterDebtor(ctx context.Context, name string, count int, amount decimal.Decimal, firstDue string) error {
	name, err := ledger.NormalizeName(name)
	if err != nil {
		return err
	}
	date, err := ledger.ParseDate(firstDue)
	if err != nil {
		return err
	}
	schedule, err := ledger.Schedule(count, amount, date)
	if err != nil {
		return err
	}

	doc, err := r.fetch(ctx)
	if err != nil {
		return err
	}

	if existing, ok := doc.FindByName(name); ok {
		return fmt.Errorf("%w: %s", ledger.ErrDuplicateDebtor, existing.Name)
	}

	debtor, err := ledger.NewDebtor(name, schedule...)
	if err != nil {
		return err
	}

	return r.commit(ctx, db.OpRegisterDebtor, name, append(doc, debtor))
}

// AddInstallment appends one unpaid installment to a debtor.
func (r *Repository) AddInstallment(ctx context.Context, name string, amount decimal.Decimal, dueDate string) error {
	date, err := ledger.ParseDate(dueDate)
	if err != nil {
		return err
	}
	inst, err := ledger.NewInstallment(amount, date)
	if err != nil {
		return err
	}

	doc, err := r.fetch(ctx)
	if err != nil {
		return err
	}

	debtor, ok := doc.FindByName(name)
	if !ok {
		return fmt.Errorf("%w: %s", ledger.ErrDebtorNotFound, name)
	}
	if debtor.HasDueDate(date) {
		return fmt.Errorf("%w: %s already has an installment due %s", ledger.ErrDuplicateDueDate, debtor.Name, date)
	}
	debtor.Installments = append(debtor.Installments, inst)

	return r.commit(ctx, db.OpAddInstallment, debtor.Name, doc)
}

// RemoveDebtor removes every debtor matching name case-insensitively.
func (r *Repository) RemoveDebtor(ctx context.Context, name string) error {
	doc, err := r.fetch(ctx)
	if err != nil {
		return err
	}

	kept := make(ledger.Document, 0, len(doc))
	for _, d := range doc {
		if !ledger.SameName(d.Name, name) {
			kept = append(kept, d)
		}
	}
	if len(kept) == len(doc) {
		return fmt.Errorf("%w: %s", ledger.ErrDebtorNotFound, name)
	}

	return r.commit(ctx, db.OpRemoveDebtor, name, kept)
}

// RemoveInstallment removes the installments of a debtor due on dueDate.
func (r *Repository) RemoveInstallment(ctx context.Context, name, dueDate string) error {
	date, err := ledger.ParseDate(dueDate)
	if err != nil {
		return err
	}

	doc, err := r.fetch(ctx)
	if err != nil {
		return err
	}

	debtor, ok := doc.FindByName(name)
	if !ok {
		return fmt.Errorf("%w: %s", ledger.ErrDebtorNotFound, name)
	}

	kept := make([]ledger.Installment, 0, len(debtor.Installments))
	for _, inst := range debtor.Installments {
		if !inst.DueDate.Equal(date) {
			kept = append(kept, inst)
		}
	}
	if len(kept) == len(debtor.Installments) {
		return fmt.Errorf("%w: %s has nothing due %s", ledger.ErrInstallmentNotFound, debtor.Name, date)
	}
	debtor.Installments = kept

	return r.commit(ctx, db.OpRemoveInstallment, debtor.Name, doc)
}

// Restore overwrites the store with doc, for example a snapshot.
func (r *Repository) Restore(ctx context.Context, doc ledger.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	return r.commit(ctx, db.OpRestore, "", doc)
}

func (r *Repository) fetch(ctx context.Context) (ledger.Document, error) {
	doc, err := r.store.Fetch(ctx)
	if err != nil {
		r.logger.Error("failed to fetch document", "error", err)
		return nil, &FetchError{Err: err}
	}
	if doc == nil {
		doc = ledger.Document{}
	}
	return doc, nil
}

// commit validates and writes doc, then records the write.
func (r *Repository) commit(ctx context.Context, op db.Operation, debtor string, doc ledger.Document) error {
	content, err := doc.Marshal()
	if err != nil {
		return err
	}

	opID := uuid.NewString()
	if err := r.store.Replace(ctx, doc); err != nil {
		r.logger.Error("failed to write document", "op_id", opID, "operation", op, "error", err)
		return &WriteError{Err: err}
	}

	entry := db.Entry{
		OpID:         opID,
		Operation:    op,
		Debtor:       debtor,
		Revision:     ledger.Revision(content),
		Debtors:      len(doc),
		Installments: doc.InstallmentCount(),
		RecordedAt:   r.now(),
	}
	r.logger.Info("document written",
		"op_id", entry.OpID,
		"operation", entry.Operation,
		"debtor", entry.Debtor,
		"revision", entry.Revision,
		"debtors", entry.Debtors,
		"installments", entry.Installments,
	)

	if r.history != nil {
		// The write already happened; a history failure must not report it as failed.
		if err := r.history.Record(ctx, entry); err != nil {
			r.logger.Warn("failed to record write history", "op_id", entry.OpID, "error", err)
		}
	}
	return nil
}
