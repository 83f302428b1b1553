package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/debt-tracker/emulator/store"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/api"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/db"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/gist"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/repository"
)

const (
	testToken  = "ghp_integration"
	testLogin  = "integration"
	testGistID = "debts"
)

// newGistStore opens an emulator store holding one token and an empty
// debtor document.
func newGistStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "gists.db"))
	if err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	if err := st.PutToken(testToken, testLogin); err != nil {
		t.Fatalf("Failed to store token: %v", err)
	}
	if _, err := st.CreateGist(testGistID, testLogin, "debts", map[string]string{gist.DefaultFilename: "[]"}); err != nil {
		t.Fatalf("Failed to create gist: %v", err)
	}
	return st
}

// newRepository connects a repository to the emulator at gistURL and records
// writes in a fresh history database.
func newRepository(t *testing.T, gistURL string) (*repository.Repository, *db.History) {
	t.Helper()

	client, err := gist.NewClient(context.Background(), gist.ClientConfig{
		APIURL:  gistURL,
		Token:   testToken,
		GistID:  testGistID,
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to connect to gist: %v", err)
	}

	conn, err := db.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Failed to open history: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})

	history := db.NewHistory(conn)
	return repository.New(client, repository.WithHistory(history)), history
}

// ScheduleBuilder provides helper methods for building dashboard requests.
type ScheduleBuilder struct {
	firstDue string
}

// NewScheduleBuilder creates a builder whose schedules start on firstDue.
func NewScheduleBuilder(firstDue string) *ScheduleBuilder {
	return &ScheduleBuilder{firstDue: firstDue}
}

// Debtor creates a registration request for count installments of amount.
func (b *ScheduleBuilder) Debtor(name string, count int, amount string) api.RegisterDebtorRequest {
	return api.RegisterDebtorRequest{
		Name:         name,
		Installments: count,
		Amount:       decimal.RequireFromString(amount),
		FirstDue:     b.firstDue,
	}
}

// Installment creates a request for one extra installment.
func (b *ScheduleBuilder) Installment(amount, dueDate string) api.AddInstallmentRequest {
	return api.AddInstallmentRequest{
		Amount:  decimal.RequireFromString(amount),
		DueDate: dueDate,
	}
}

// GenerateDateSequence generates due dates spaced like a registered schedule.
func GenerateDateSequence(start time.Time, count int) []string {
	dates := make([]string, count)
	for i := 0; i < count; i++ {
		dates[i] = start.AddDate(0, 0, 30*i).Format("2006-01-02")
	}
	return dates
}

func doRequest(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()

	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status %d, got %d: %s", want, resp.StatusCode, string(body))
	}
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}
