package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
)

const (
	// DefaultAPIURL is the public GitHub REST endpoint.
	DefaultAPIURL = "https://api.github.com"

	// DefaultFilename is the gist file holding the debtor document.
	DefaultFilename = "dados.json"

	apiVersion = "2022-11-28"
)

// ClientConfig represents the configuration for the gist client.
type ClientConfig struct {
	APIURL   string
	Token    string
	GistID   string
	Filename string
	Timeout  time.Duration // Default: 30 seconds
	Logger   *slog.Logger
}

// Client reads and overwrites one JSON file inside a gist.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	gistID     string
	filename   string
	login      string
	logger     *slog.Logger
}

// NewClient creates a client and verifies the token with GET /user.
// Credential problems are reported as *AuthenticationError.
func NewClient(ctx context.Context, config ClientConfig) (*Client, error) {
	if err := checkToken(config.Token); err != nil {
		return nil, &AuthenticationError{Reason: ReasonInvalidCredential, Err: err}
	}
	if strings.TrimSpace(config.GistID) == "" {
		return nil, ErrMissingGistID
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	baseURL := strings.TrimRight(config.APIURL, "/")
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	filename := config.Filename
	if filename == "" {
		filename = DefaultFilename
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:  baseURL,
		token:    config.Token,
		gistID:   config.GistID,
		filename: filename,
		logger:   logger,
	}

	if err := c.authenticate(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Login returns the account name the token belongs to.
func (c *Client) Login() string {
	return c.login
}

// GistID returns the configured store identifier.
func (c *Client) GistID() string {
	return c.gistID
}

// authenticate verifies the token once, at construction.
func (c *Client) authenticate(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return &AuthenticationError{Reason: ReasonConnectionFailure, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &AuthenticationError{Reason: ReasonConnectionFailure, Err: fmt.Errorf("failed to make request: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &AuthenticationError{Reason: ReasonInvalidCredential, Err: c.parseError(resp)}
	case resp.StatusCode != http.StatusOK:
		return &AuthenticationError{Reason: ReasonConnectionFailure, Err: c.parseError(resp)}
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return &AuthenticationError{Reason: ReasonConnectionFailure, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	c.login = user.Login
	c.logger.Debug("authenticated with gist API", "login", user.Login)
	return nil
}

// Fetch retrieves and parses the document file. It never returns an empty
// document in place of a failure.
func (c *Client) Fetch(ctx context.Context) (ledger.Document, error) {
	content, err := c.fetchContent(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := ledger.ParseDocument([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", c.filename, err)
	}

	c.logger.Debug("fetched document", "gist_id", c.gistID, "debtors", len(doc))
	return doc, nil
}

// Replace overwrites the document file in a single PATCH call.
func (c *Client) Replace(ctx context.Context, doc ledger.Document) error {
	content, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	payload, err := json.Marshal(UpdateRequest{
		Files: map[string]FileContent{
			c.filename: {Content: string(content)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPatch, c.gistURL(), bytes.NewReader(payload))
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}

	c.logger.Debug("replaced document", "gist_id", c.gistID, "revision", ledger.Revision(content))
	return nil
}

// fetchContent returns the raw text of the document file, following raw_url
// when the API truncated the inline content.
func (c *Client) fetchContent(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.gistURL(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.parseError(resp)
	}

	var g Gist
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	file, ok := g.Files[c.filename]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, c.filename)
	}

	if file.Truncated {
		if file.RawURL == "" {
			return "", fmt.Errorf("%s is truncated and has no raw_url", c.filename)
		}
		return c.fetchRaw(ctx, file.RawURL)
	}

	return file.Content, nil
}

func (c *Client) fetchRaw(ctx context.Context, rawURL string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.parseError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read raw content: %w", err)
	}
	return string(body), nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) gistURL() string {
	return fmt.Sprintf("%s/gists/%s", c.baseURL, url.PathEscape(c.gistID))
}

// parseError parses an error response from the API.
func (c *Client) parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "failed to read error response"}
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	switch {
	case errResp.Message != "":
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Message}
	case errResp.ErrorDescription != "":
		return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("%s - %s", errResp.Error, errResp.ErrorDescription)}
	default:
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}
}

// checkToken rejects empty tokens and tokens that cannot be sent in a header.
func checkToken(token string) error {
	if token == "" {
		return errors.New("token is empty")
	}
	if strings.ContainsFunc(token, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) {
		return errors.New("token is malformed")
	}
	return nil
}
