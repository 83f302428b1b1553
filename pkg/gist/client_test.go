package gist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/debt-tracker/emulator/api"
	"github.com/shunichi-ikebuchi/debt-tracker/emulator/store"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
)

const (
	testToken  = "ghp_test"
	testGistID = "debts"
)

func newEmulator(t *testing.T, opts api.Options, content string) (*httptest.Server, *store.Store) {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "gists.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.PutToken(testToken, "tester"))
	_, err = st.CreateGist(testGistID, "tester", "", map[string]string{DefaultFilename: content})
	require.NoError(t, err)

	server := httptest.NewServer(api.NewRouter(st, opts))
	t.Cleanup(server.Close)
	return server, st
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()

	c, err := NewClient(context.Background(), ClientConfig{
		APIURL: server.URL,
		Token:  testToken,
		GistID: testGistID,
	})
	require.NoError(t, err)
	return c
}

func TestNewClientAuthentication(t *testing.T) {
	server, _ := newEmulator(t, api.Options{}, "[]")

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(failing.Close)

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name   string
		url    string
		token  string
		reason AuthFailureReason
	}{
		{"empty token", server.URL, "", ReasonInvalidCredential},
		{"token with whitespace", server.URL, "ghp bad", ReasonInvalidCredential},
		{"token with control character", server.URL, "ghp\nbad", ReasonInvalidCredential},
		{"rejected token", server.URL, "ghp_unknown", ReasonInvalidCredential},
		{"server error", failing.URL, testToken, ReasonConnectionFailure},
		{"unreachable", closedURL, testToken, ReasonConnectionFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(context.Background(), ClientConfig{
				APIURL: tt.url,
				Token:  tt.token,
				GistID: testGistID,
			})
			require.Error(t, err)

			var authErr *AuthenticationError
			require.True(t, errors.As(err, &authErr), "expected *AuthenticationError, got %T", err)
			assert.Equal(t, tt.reason, authErr.Reason)
			assert.Equal(t, tt.reason == ReasonInvalidCredential, IsInvalidCredential(err))
		})
	}
}

func TestNewClientRequiresGistID(t *testing.T) {
	server, _ := newEmulator(t, api.Options{}, "[]")

	_, err := NewClient(context.Background(), ClientConfig{APIURL: server.URL, Token: testToken})
	assert.ErrorIs(t, err, ErrMissingGistID)
}

func TestNewClientLogin(t *testing.T) {
	server, _ := newEmulator(t, api.Options{}, "[]")

	c := newTestClient(t, server)
	assert.Equal(t, "tester", c.Login())
	assert.Equal(t, testGistID, c.GistID())
}

func TestFetchAndReplace(t *testing.T) {
	server, st := newEmulator(t, api.Options{}, "[]")
	c := newTestClient(t, server)
	ctx := context.Background()

	doc, err := c.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc)

	schedule, err := ledger.Schedule(2, decimal.RequireFromString("150.25"), ledger.MustParseDate("2024-03-01"))
	require.NoError(t, err)
	bob, err := ledger.NewDebtor("Bob", schedule...)
	require.NoError(t, err)

	require.NoError(t, c.Replace(ctx, ledger.Document{bob}))

	got, err := c.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bob", got[0].Name)
	require.Len(t, got[0].Installments, 2)
	assert.Equal(t, "150.25", got[0].Installments[0].Amount.String())
	assert.Equal(t, "2024-03-31", got[0].Installments[1].DueDate.String())

	stored, err := st.GetGist(testGistID)
	require.NoError(t, err)
	want, err := ledger.Document{bob}.Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(want), stored.Files[DefaultFilename].Content)
}

func TestReplaceKeepsOtherFiles(t *testing.T) {
	server, st := newEmulator(t, api.Options{}, "[]")
	other := "notes"
	_, err := st.UpdateGist(testGistID, map[string]*string{"README.md": &other})
	require.NoError(t, err)

	c := newTestClient(t, server)
	require.NoError(t, c.Replace(context.Background(), ledger.Document{}))

	stored, err := st.GetGist(testGistID)
	require.NoError(t, err)
	assert.Equal(t, "notes", stored.Files["README.md"].Content)
	assert.Equal(t, "[]", stored.Files[DefaultFilename].Content)
}

func TestFetchFollowsRawURL(t *testing.T) {
	content := `[{"nome": "Ana", "parcelas": [{"valor": 10, "vencimento": "2024-05-10", "paga": true}]}]`
	server, _ := newEmulator(t, api.Options{TruncateAt: 8}, content)
	c := newTestClient(t, server)

	doc, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, doc, 1)
	assert.True(t, doc[0].Installments[0].Paid)
}

func TestFetchFailures(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		server, st := newEmulator(t, api.Options{}, "[]")
		_, err := st.UpdateGist(testGistID, map[string]*string{DefaultFilename: nil})
		require.NoError(t, err)

		_, err = newTestClient(t, server).Fetch(context.Background())
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("malformed content", func(t *testing.T) {
		server, _ := newEmulator(t, api.Options{}, `{"nome": "Bob"}`)

		doc, err := newTestClient(t, server).Fetch(context.Background())
		assert.ErrorIs(t, err, ledger.ErrMalformedDocument)
		assert.Nil(t, doc)
	})

	t.Run("missing gist", func(t *testing.T) {
		server, st := newEmulator(t, api.Options{}, "[]")
		c := newTestClient(t, server)
		require.NoError(t, st.DeleteGist(testGistID))

		_, err := c.Fetch(context.Background())
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	})
}
