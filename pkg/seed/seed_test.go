package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/filestore"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/repository"
)

const sampleSeed = `debtors:
  - name: Alice
    installments: 3
    amount: "150.00"
    first_due: 2024-01-10
  - name: Bruno
    installments: 1
    amount: 80,5
    first_due: "2024-02-01"
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	file, err := Load(writeSeed(t, sampleSeed))
	require.NoError(t, err)
	require.Len(t, file.Debtors, 2)

	assert.Equal(t, Entry{Name: "Alice", Installments: 3, Amount: "150.00", FirstDue: "2024-01-10"}, file.Debtors[0])
	assert.Equal(t, "80,5", file.Debtors[1].Amount)
}

func TestLoadRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"bad date", "debtors:\n  - {name: A, installments: 1, amount: '1', first_due: 2024-13-01}\n", ledger.ErrInvalidDate},
		{"bad amount", "debtors:\n  - {name: A, installments: 1, amount: '-1', first_due: 2024-01-01}\n", ledger.ErrInvalidAmount},
		{"zero installments", "debtors:\n  - {name: A, installments: 0, amount: '1', first_due: 2024-01-01}\n", ledger.ErrInvalidInstallmentCount},
		{"too many installments", "debtors:\n  - {name: A, installments: 1000000000000, amount: '1', first_due: 2024-01-01}\n", ledger.ErrInvalidInstallmentCount},
		{"huge amount", "debtors:\n  - {name: A, installments: 1, amount: '1e50000000', first_due: 2024-01-01}\n", ledger.ErrInvalidAmount},
		{"missing name", "debtors:\n  - {installments: 1, amount: '1', first_due: 2024-01-01}\n", ledger.ErrInvalidName},
		{
			"repeated name",
			"debtors:\n  - {name: Ana, installments: 1, amount: '1', first_due: 2024-01-01}\n  - {name: ANA, installments: 1, amount: '1', first_due: 2024-01-01}\n",
			ledger.ErrDuplicateDebtor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeSeed(t, tt.content))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeSeed(t, "debtors: [\n"))
	assert.Error(t, err)
}

func TestApplySkipsExistingDebtors(t *testing.T) {
	ctx := context.Background()
	store := filestore.New(filepath.Join(t.TempDir(), "dados.json"))
	require.NoError(t, store.Init())
	repo := repository.New(store)

	require.NoError(t, repo.RegisterDebtor(ctx, "alice", 1, decimal.NewFromInt(10), "2023-12-01"))

	file, err := Load(writeSeed(t, sampleSeed))
	require.NoError(t, err)

	result, err := Apply(ctx, repo, file, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bruno"}, result.Registered)
	assert.Equal(t, []string{"Alice"}, result.Skipped)

	doc, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, doc, 2)

	alice, _ := doc.FindByName("Alice")
	assert.Len(t, alice.Installments, 1, "existing debtor must not be touched")

	bruno, _ := doc.FindByName("Bruno")
	require.Len(t, bruno.Installments, 1)
	assert.Equal(t, "80.5", bruno.Installments[0].Amount.String())
}

type failingRegistrar struct {
	calls int
}

func (f *failingRegistrar) RegisterDebtor(ctx context.Context, name string, count int, amount decimal.Decimal, firstDue string) error {
	f.calls++
	return errors.New("store unavailable")
}

func TestApplyStopsOnFailure(t *testing.T) {
	file, err := Load(writeSeed(t, sampleSeed))
	require.NoError(t, err)

	reg := &failingRegistrar{}
	result, err := Apply(context.Background(), reg, file, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, reg.calls)
	assert.Empty(t, result.Registered)
}
