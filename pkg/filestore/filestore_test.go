package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
)

func TestFetchMissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "dados.json"))

	doc, err := s.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrDocumentMissing)
	assert.Nil(t, doc)
}

func TestInitAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "data", "dados.json"))

	require.NoError(t, s.Init())
	doc, err := s.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc)

	inst, err := ledger.NewInstallment(decimal.RequireFromString("12.34"), ledger.MustParseDate("2024-07-01"))
	require.NoError(t, err)
	ana, err := ledger.NewDebtor("Ana", inst)
	require.NoError(t, err)
	require.NoError(t, s.Replace(ctx, ledger.Document{ana}))

	// Init must not clobber an existing document.
	require.NoError(t, s.Init())

	got, err := s.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "12.34", got[0].Installments[0].Amount.String())

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestReplaceRejectsInvalidDocument(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "dados.json"))
	require.NoError(t, s.Init())

	err := s.Replace(ctx, ledger.Document{{Name: ""}})
	assert.ErrorIs(t, err, ledger.ErrInvalidName)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestFetchMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dados.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := New(path).Fetch(context.Background())
	assert.ErrorIs(t, err, ledger.ErrMalformedDocument)
}
