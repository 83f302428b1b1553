package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shunichi-ikebuchi/debt-tracker/emulator/store"
)

const testToken = "test-token"

type testClient struct {
	server *httptest.Server
	store  *store.Store
}

func setupTestServer(t *testing.T, opts Options) *testClient {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "gists.db"))
	if err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	if err := st.PutToken(testToken, "tester"); err != nil {
		t.Fatalf("Failed to register token: %v", err)
	}

	server := httptest.NewServer(NewRouter(st, opts))
	t.Cleanup(server.Close)

	return &testClient{server: server, store: st}
}

func (c *testClient) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.server.URL+path, reader)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestAuthentication(t *testing.T) {
	c := setupTestServer(t, Options{})

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"unknown token", "nope", http.StatusUnauthorized},
		{"valid token", testToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := c.do(t, http.MethodGet, "/user", tt.token, nil)
			if resp.StatusCode != tt.status {
				t.Errorf("GET /user status = %d, expected %d", resp.StatusCode, tt.status)
			}
		})
	}

	resp := c.do(t, http.MethodGet, "/user", testToken, nil)
	var user userResponse
	decode(t, resp, &user)
	if user.Login != "tester" {
		t.Errorf("login = %q, expected tester", user.Login)
	}
}

func TestGistRoundTrip(t *testing.T) {
	c := setupTestServer(t, Options{})

	resp := c.do(t, http.MethodPost, "/gists", testToken, createGistRequest{
		Description: "data",
		Files:       map[string]fileRequest{"dados.json": {Content: "[]"}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /gists status = %d, expected 201", resp.StatusCode)
	}
	var created gistResponse
	decode(t, resp, &created)

	content := `[{"nome":"Ana","parcelas":[]}]`
	resp = c.do(t, http.MethodPatch, "/gists/"+created.ID, testToken, updateGistRequest{
		Files: map[string]*fileRequest{"dados.json": {Content: content}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PATCH status = %d, expected 200", resp.StatusCode)
	}

	resp = c.do(t, http.MethodGet, "/gists/"+created.ID, testToken, nil)
	var got gistResponse
	decode(t, resp, &got)

	file := got.Files["dados.json"]
	if file.Content != content {
		t.Errorf("content = %q, expected %q", file.Content, content)
	}
	if file.Truncated {
		t.Error("file should not be truncated")
	}
	if file.Size != len(content) {
		t.Errorf("size = %d, expected %d", file.Size, len(content))
	}
}

func TestGetMissingGist(t *testing.T) {
	c := setupTestServer(t, Options{})

	resp := c.do(t, http.MethodGet, "/gists/unknown", testToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, expected 404", resp.StatusCode)
	}

	var errResp ErrorResponse
	decode(t, resp, &errResp)
	if errResp.Message != "Not Found" {
		t.Errorf("message = %q, expected Not Found", errResp.Message)
	}
}

func TestTruncatedContentServedRaw(t *testing.T) {
	c := setupTestServer(t, Options{TruncateAt: 4})

	content := "0123456789"
	if _, err := c.store.CreateGist("big", "tester", "", map[string]string{"dados.json": content}); err != nil {
		t.Fatalf("CreateGist() error = %v", err)
	}

	resp := c.do(t, http.MethodGet, "/gists/big", testToken, nil)
	var got gistResponse
	decode(t, resp, &got)

	file := got.Files["dados.json"]
	if !file.Truncated {
		t.Fatal("file should be truncated")
	}
	if file.Content != "0123" {
		t.Errorf("inline content = %q, expected 0123", file.Content)
	}

	raw, err := http.Get(file.RawURL)
	if err != nil {
		t.Fatalf("GET raw_url failed: %v", err)
	}
	defer raw.Body.Close()

	body, err := io.ReadAll(raw.Body)
	if err != nil {
		t.Fatalf("Failed to read raw body: %v", err)
	}
	if string(body) != content {
		t.Errorf("raw content = %q, expected %q", body, content)
	}
}
