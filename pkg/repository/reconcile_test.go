package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
)

func rowsOf(t *testing.T, repo *Repository, name string) []ledger.Row {
	t.Helper()

	doc, err := repo.FetchAll(context.Background())
	require.NoError(t, err)
	return ledger.FilterRows(ledger.Rows(doc), name)
}

func copyRows(rows []ledger.Row) []ledger.Row {
	return append([]ledger.Row(nil), rows...)
}

func TestReconcileMarksPaid(t *testing.T) {
	store := newMemoryStore(bobAndCarla)
	repo := New(store)

	original := rowsOf(t, repo, "Bob")
	edited := copyRows(original)
	edited[0].Paid = true

	n, err := repo.Reconcile(context.Background(), original, edited)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	want := canonical(`[
  {"nome": "Bob", "parcelas": [
    {"valor": 100, "vencimento": "2024-01-01", "paga": true},
    {"valor": 100, "vencimento": "2024-02-01", "paga": false}
  ]},
  {"nome": "Carla", "parcelas": [
    {"valor": 59.9, "vencimento": "2024-01-15", "paga": true}
  ]}
]`)
	assert.Equal(t, want, store.bytes())
	assert.Equal(t, 1, store.replaces)
}

func TestReconcileFilteredViewKeepsOtherDebtors(t *testing.T) {
	store := newMemoryStore(bobAndCarla)
	repo := New(store)

	original := rowsOf(t, repo, "Carla")
	edited := copyRows(original)
	edited[0].Amount = decimal.RequireFromString("65")
	edited[0].Paid = false

	_, err := repo.Reconcile(context.Background(), original, edited)
	require.NoError(t, err)

	doc, err := repo.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, doc, 2)

	bob, _ := doc.FindByName("Bob")
	assert.Len(t, bob.Installments, 2)

	carla, _ := doc.FindByName("Carla")
	assert.Equal(t, "65", carla.Installments[0].Amount.String())
	assert.False(t, carla.Installments[0].Paid)
}

func TestReconcileUsesFreshDocument(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(bobAndCarla)
	repo := New(store)

	original := rowsOf(t, repo, "Bob")

	// Another session adds a debtor after the view was read.
	require.NoError(t, repo.RegisterDebtor(ctx, "Dora", 1, decimal.NewFromInt(30), "2024-04-01"))

	edited := copyRows(original)
	edited[1].Paid = true
	_, err := repo.Reconcile(ctx, original, edited)
	require.NoError(t, err)

	doc, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	_, ok := doc.FindByName("Dora")
	assert.True(t, ok)
	bob, _ := doc.FindByName("Bob")
	assert.True(t, bob.Installments[1].Paid)
}

func TestReconcileChangesDueDate(t *testing.T) {
	store := newMemoryStore(bobAndCarla)
	repo := New(store)

	original := rowsOf(t, repo, "Bob")
	edited := copyRows(original)
	edited[0].DueDate = ledger.MustParseDate("2024-01-10")

	_, err := repo.Reconcile(context.Background(), original, edited)
	require.NoError(t, err)

	doc, err := repo.FetchAll(context.Background())
	require.NoError(t, err)
	bob, _ := doc.FindByName("Bob")
	assert.Equal(t, "2024-01-10", bob.Installments[0].DueDate.String())
	assert.Equal(t, "2024-02-01", bob.Installments[1].DueDate.String())
}

func TestReconcileSwapsDueDates(t *testing.T) {
	store := newMemoryStore(bobAndCarla)
	repo := New(store)

	original := rowsOf(t, repo, "Bob")
	edited := copyRows(original)
	edited[0].DueDate, edited[1].DueDate = original[1].DueDate, original[0].DueDate
	edited[0].Amount = decimal.NewFromInt(120)

	n, err := repo.Reconcile(context.Background(), original, edited)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	doc, err := repo.FetchAll(context.Background())
	require.NoError(t, err)
	bob, _ := doc.FindByName("Bob")
	assert.Equal(t, "2024-02-01", bob.Installments[0].DueDate.String())
	assert.Equal(t, "120", bob.Installments[0].Amount.String())
	assert.Equal(t, "2024-01-01", bob.Installments[1].DueDate.String())
}

func TestReconcileNoChanges(t *testing.T) {
	store := newMemoryStore(bobAndCarla)
	repo := New(store)

	original := rowsOf(t, repo, "")
	fetches := store.fetches

	n, err := repo.Reconcile(context.Background(), original, copyRows(original))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, fetches, store.fetches)
	assert.Equal(t, 0, store.replaces)
}

func TestReconcileRejections(t *testing.T) {
	bob := []ledger.Row{
		{Name: "Bob", Amount: decimal.NewFromInt(100), DueDate: ledger.MustParseDate("2024-01-01")},
		{Name: "Bob", Amount: decimal.NewFromInt(100), DueDate: ledger.MustParseDate("2024-02-01")},
	}

	tests := []struct {
		name    string
		orig    []ledger.Row
		edit    func([]ledger.Row) []ledger.Row
		wantErr error
	}{
		{
			name:    "row count mismatch",
			orig:    bob,
			edit:    func(r []ledger.Row) []ledger.Row { return r[:1] },
			wantErr: ErrRowCountMismatch,
		},
		{
			name: "renamed debtor",
			orig: bob,
			edit: func(r []ledger.Row) []ledger.Row {
				r[0].Name = "Robert"
				return r
			},
			wantErr: ErrImmutableName,
		},
		{
			name: "zero amount",
			orig: bob,
			edit: func(r []ledger.Row) []ledger.Row {
				r[1].Amount = decimal.Zero
				return r
			},
			wantErr: ledger.ErrInvalidAmount,
		},
		{
			name: "colliding due dates",
			orig: bob,
			edit: func(r []ledger.Row) []ledger.Row {
				r[0].DueDate = r[1].DueDate
				return r
			},
			wantErr: ledger.ErrDuplicateDueDate,
		},
		{
			name: "installment deleted meanwhile",
			orig: []ledger.Row{{Name: "Bob", Amount: decimal.NewFromInt(100), DueDate: ledger.MustParseDate("2023-12-01")}},
			edit: func(r []ledger.Row) []ledger.Row {
				r[0].Paid = true
				return r
			},
			wantErr: ledger.ErrInstallmentNotFound,
		},
		{
			name: "debtor deleted meanwhile",
			orig: []ledger.Row{{Name: "Zed", Amount: decimal.NewFromInt(5), DueDate: ledger.MustParseDate("2024-01-01")}},
			edit: func(r []ledger.Row) []ledger.Row {
				r[0].Paid = true
				return r
			},
			wantErr: ledger.ErrDebtorNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore(bobAndCarla)
			before := store.bytes()

			_, err := New(store).Reconcile(context.Background(), tt.orig, tt.edit(copyRows(tt.orig)))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, store.replaces)
			assert.Equal(t, before, store.bytes())
		})
	}
}

func TestReconcileWriteFailure(t *testing.T) {
	store := newMemoryStore(bobAndCarla)
	repo := New(store)

	original := rowsOf(t, repo, "Bob")
	edited := copyRows(original)
	edited[0].Paid = true

	store.writeErr = errUnavailable
	_, err := repo.Reconcile(context.Background(), original, edited)
	assert.ErrorIs(t, err, ErrWrite)
}
