package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/filestore"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/overdue"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/repository"
)

const bobDocument = `[
  {"nome": "Bob", "parcelas": [
    {"valor": 100, "vencimento": "2024-01-01", "paga": false},
    {"valor": 100, "vencimento": "2024-02-01", "paga": false}
  ]},
  {"nome": "Carla", "parcelas": [
    {"valor": 50, "vencimento": "2024-01-20", "paga": true}
  ]}
]`

type testServer struct {
	server *httptest.Server
	store  *filestore.Store
}

func setupTestServer(t *testing.T, content string, opts ...HandlerOption) *testServer {
	t.Helper()

	store := filestore.New(filepath.Join(t.TempDir(), "dados.json"))
	doc, err := ledger.ParseDocument([]byte(content))
	require.NoError(t, err)
	require.NoError(t, store.Replace(context.Background(), doc))

	h := NewHandler(repository.New(store), nil, opts...)
	h.now = func() time.Time { return time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC) }

	server := httptest.NewServer(NewRouter(h))
	t.Cleanup(server.Close)
	return &testServer{server: server, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *testServer) document(t *testing.T) ledger.Document {
	t.Helper()

	doc, err := s.store.Fetch(context.Background())
	require.NoError(t, err)
	return doc
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	s := setupTestServer(t, "[]")
	resp := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListDebtors(t *testing.T) {
	s := setupTestServer(t, bobDocument)

	resp := s.do(t, http.MethodGet, "/api/debtors", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc ledger.Document
	decodeBody(t, resp, &doc)
	require.Len(t, doc, 2)
	assert.Equal(t, "Bob", doc[0].Name)
}

func TestRegisterDebtor(t *testing.T) {
	s := setupTestServer(t, bobDocument)

	resp := s.do(t, http.MethodPost, "/api/debtors", map[string]interface{}{
		"name": "Dora", "installments": 2, "amount": "75.5", "first_due": "2024-03-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var debtor ledger.Debtor
	decodeBody(t, resp, &debtor)
	assert.Equal(t, "Dora", debtor.Name)
	require.Len(t, debtor.Installments, 2)
	assert.Equal(t, "2024-03-31", debtor.Installments[1].DueDate.String())

	resp = s.do(t, http.MethodPost, "/api/debtors", map[string]interface{}{
		"name": "dora", "installments": 1, "amount": 10, "first_due": "2024-03-01",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var errResp ErrorResponse
	decodeBody(t, resp, &errResp)
	assert.Equal(t, "conflict", errResp.Error)
	assert.NotEmpty(t, errResp.ErrorDescription)
}

func TestRegisterDebtorValidation(t *testing.T) {
	s := setupTestServer(t, "[]")

	tests := []map[string]interface{}{
		{"name": "Dora", "installments": 2, "amount": "75", "first_due": "2024-02-30"},
		{"name": "Dora", "installments": 0, "amount": "75", "first_due": "2024-02-01"},
		{"name": "Dora", "installments": 1, "amount": "0", "first_due": "2024-02-01"},
		{"name": "", "installments": 1, "amount": "1", "first_due": "2024-02-01"},
	}

	for _, body := range tests {
		resp := s.do(t, http.MethodPost, "/api/debtors", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %v", body)
	}
	assert.Empty(t, s.document(t))
}

func TestInvalidJSONBody(t *testing.T) {
	s := setupTestServer(t, "[]")

	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/api/debtors", bytes.NewBufferString("{"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInstallmentEndpoints(t *testing.T) {
	s := setupTestServer(t, bobDocument)

	resp := s.do(t, http.MethodPost, "/api/debtors/bob/installments", map[string]interface{}{
		"amount": "100", "due_date": "2024-03-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/debtors/Zed/installments", map[string]interface{}{
		"amount": "100", "due_date": "2024-03-01",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(t, http.MethodDelete, "/api/debtors/Bob/installments/2024-01-01", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = s.do(t, http.MethodDelete, "/api/debtors/Bob/installments/2024-01-01", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	bob, ok := s.document(t).FindByName("Bob")
	require.True(t, ok)
	require.Len(t, bob.Installments, 2)
	assert.Equal(t, "2024-02-01", bob.Installments[0].DueDate.String())
	assert.Equal(t, "2024-03-01", bob.Installments[1].DueDate.String())
}

func TestRemoveDebtor(t *testing.T) {
	s := setupTestServer(t, bobDocument)

	resp := s.do(t, http.MethodDelete, "/api/debtors/CARLA", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = s.do(t, http.MethodDelete, "/api/debtors/Carla", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, ok := s.document(t).FindByName("carla")
	assert.False(t, ok)
}

func TestRowsAndReconcile(t *testing.T) {
	s := setupTestServer(t, bobDocument)

	resp := s.do(t, http.MethodGet, "/api/rows?debtor=bob", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rows []ledger.Row
	decodeBody(t, resp, &rows)
	require.Len(t, rows, 2)

	edited := append([]ledger.Row(nil), rows...)
	edited[0].Paid = true

	resp = s.do(t, http.MethodPost, "/api/rows/reconcile", ReconcileRequest{Original: rows, Edited: edited})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result ReconcileResponse
	decodeBody(t, resp, &result)
	assert.Equal(t, 1, result.Changed)

	doc := s.document(t)
	bob, _ := doc.FindByName("Bob")
	assert.True(t, bob.Installments[0].Paid)
	assert.False(t, bob.Installments[1].Paid)
	carla, _ := doc.FindByName("Carla")
	assert.Len(t, carla.Installments, 1)

	resp = s.do(t, http.MethodPost, "/api/rows/reconcile", ReconcileRequest{Original: rows, Edited: edited[:1]})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSummary(t *testing.T) {
	s := setupTestServer(t, bobDocument)

	resp := s.do(t, http.MethodGet, "/api/summary?year=2024&month=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary SummaryResponse
	decodeBody(t, resp, &summary)
	assert.Equal(t, "Janeiro de 2024", summary.Period)
	assert.Equal(t, "50", summary.TotalPaid.String())
	assert.Equal(t, "100", summary.TotalOpen.String())
	require.Len(t, summary.Months, 1)
	assert.Equal(t, "Janeiro", summary.Months[0].Label)
	require.Len(t, summary.Debtors, 2)
	assert.Equal(t, "100", summary.Debtors[0].Overdue.String())

	resp = s.do(t, http.MethodGet, "/api/summary?month=13", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOverdue(t *testing.T) {
	var notified atomic.Int32
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		notified.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(webhook.Close)

	s := setupTestServer(t, bobDocument, WithNotifier(overdue.NewNotifier(webhook.URL, nil)))

	resp := s.do(t, http.MethodGet, "/api/overdue", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result overdue.Result
	decodeBody(t, resp, &result)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, "Bob", result.Items[0].Debtor)
	assert.Equal(t, 14, result.Items[0].DaysLate)
	assert.False(t, result.NotificationSent)
	assert.Zero(t, notified.Load())

	resp = s.do(t, http.MethodPost, "/api/overdue/check", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &result)
	assert.True(t, result.NotificationSent)
	assert.Equal(t, int32(1), notified.Load())
}

func TestOverdueWebhookFailure(t *testing.T) {
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(webhook.Close)

	s := setupTestServer(t, bobDocument, WithNotifier(overdue.NewNotifier(webhook.URL, nil)))

	resp := s.do(t, http.MethodPost, "/api/overdue/check", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var errResp ErrorResponse
	decodeBody(t, resp, &errResp)
	assert.Equal(t, "notification_failed", errResp.Error)
}

type brokenStore struct{}

func (brokenStore) Fetch(ctx context.Context) (ledger.Document, error) {
	return nil, errors.New("gist unreachable")
}

func (brokenStore) Replace(ctx context.Context, doc ledger.Document) error {
	return errors.New("gist unreachable")
}

func TestStoreFailureIsBadGateway(t *testing.T) {
	server := httptest.NewServer(NewRouter(NewHandler(repository.New(brokenStore{}), nil)))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/api/debtors")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var errResp ErrorResponse
	decodeBody(t, resp, &errResp)
	assert.Equal(t, "store_unavailable", errResp.Error)
}

func TestStatusOfPrefersStoreFailures(t *testing.T) {
	err := &repository.FetchError{Err: ledger.ErrDuplicateDebtor}
	status, code := statusOf(err)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "store_unavailable", code)
}
