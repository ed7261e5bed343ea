// Package remotefile implements ports.ContentStore against a remote
// versioned-file HTTP API: GET returns body plus an opaque version token,
// writes and deletes must present the token last observed for the path.
package remotefile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/lightouch/insights/internal/domain"
	"github.com/lightouch/insights/internal/ports"
)

var segmentExpr = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Client talks to the versioned-file API over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.ContentStore = (*Client)(nil)

// NewClient wires an HTTP client; a nil client gets a 20s timeout default.
func NewClient(baseURL, token string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
		logger:     logger,
	}
}

type fileResponse struct {
	Body    string `json:"body"`
	Version string `json:"version"`
}

type writeRequest struct {
	Body    string `json:"body"`
	Version string `json:"version,omitempty"`
}

type deleteRequest struct {
	Version string `json:"version"`
}

type treeResponse struct {
	Entries []struct {
		Name string `json:"name"`
		Dir  bool   `json:"dir"`
	} `json:"entries"`
}

// Read fetches the document at path together with its current version token.
func (c *Client) Read(ctx context.Context, path string) (domain.Document, error) {
	if err := validatePath(path); err != nil {
		return domain.Document{}, err
	}

	var file fileResponse
	if err := c.do(ctx, http.MethodGet, "/files/"+path, nil, &file); err != nil {
		return domain.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return domain.Document{Body: file.Body, Version: file.Version}, nil
}

// Create writes a new document; an existing path fails with ErrConflict.
func (c *Client) Create(ctx context.Context, path, body string) (string, error) {
	if err := validatePath(path); err != nil {
		return "", err
	}

	var file fileResponse
	if err := c.do(ctx, http.MethodPut, "/files/"+path, writeRequest{Body: body}, &file); err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	return file.Version, nil
}

// Update overwrites an existing document; a stale expectedVersion fails
// with ErrConflict and leaves the stored body unchanged.
func (c *Client) Update(ctx context.Context, path, body, expectedVersion string) (string, error) {
	if err := validatePath(path); err != nil {
		return "", err
	}
	if expectedVersion == "" {
		return "", fmt.Errorf("update %s: missing version token: %w", path, domain.ErrInvalidRequest)
	}

	var file fileResponse
	if err := c.do(ctx, http.MethodPut, "/files/"+path, writeRequest{Body: body, Version: expectedVersion}, &file); err != nil {
		return "", fmt.Errorf("update %s: %w", path, err)
	}
	return file.Version, nil
}

// Delete removes the document, guarded by the same token check as Update.
func (c *Client) Delete(ctx context.Context, path, expectedVersion string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	if expectedVersion == "" {
		return fmt.Errorf("delete %s: missing version token: %w", path, domain.ErrInvalidRequest)
	}

	if err := c.do(ctx, http.MethodDelete, "/files/"+path, deleteRequest{Version: expectedVersion}, nil); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// Move publishes newBody at toPath and then removes fromPath. The remote
// API has no rename, so the two steps cannot be atomic. Once the create
// has succeeded the move is reported as successful even if the delete
// fails: the content is live at its destination and must not be
// mis-reported as lost. The dangling source copy is logged instead.
func (c *Client) Move(ctx context.Context, fromPath, toPath, newBody, expectedVersion string) error {
	if err := validatePath(fromPath); err != nil {
		return err
	}

	if _, err := c.Create(ctx, toPath, newBody); err != nil {
		return fmt.Errorf("move to %s: %w", toPath, err)
	}

	if err := c.Delete(ctx, fromPath, expectedVersion); err != nil {
		if c.logger != nil {
			c.logger.Warn("dangling source after move",
				"from", fromPath, "to", toPath, "error", err)
		}
	}
	return nil
}

// List returns the entries directly under dir.
func (c *Client) List(ctx context.Context, dir string) ([]ports.Entry, error) {
	if err := validatePath(dir); err != nil {
		return nil, err
	}

	var tree treeResponse
	if err := c.do(ctx, http.MethodGet, "/tree/"+dir, nil, &tree); err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	entries := make([]ports.Entry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		entries = append(entries, ports.Entry{Name: e.Name, IsDir: e.Dir})
	}
	return entries, nil
}

func (c *Client) do(ctx context.Context, method, apiPath string, payload, v any) error {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	endpoint := c.baseURL + apiPath

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if len(detail) > 0 {
			return fmt.Errorf("%s: %w", strings.TrimSpace(string(detail)), err)
		}
		return err
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError maps the remote status codes onto the shared error taxonomy.
// Transient errors are surfaced as-is and never retried here.
func statusError(code int) error {
	switch {
	case code < 300:
		return nil
	case code == http.StatusNotFound:
		return domain.ErrNotFound
	case code == http.StatusConflict || code == http.StatusPreconditionFailed:
		return domain.ErrConflict
	case code >= 500:
		return domain.ErrTransient
	default:
		return domain.ErrInvalidRequest
	}
}

// validatePath enforces the safe-path pattern before any network call:
// slash-separated segments of alphanumerics, dot, hyphen and underscore,
// with dot-only segments rejected.
func validatePath(path string) error {
	if path == "" || strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") {
		return fmt.Errorf("%q: %w", path, domain.ErrInvalidPath)
	}
	for _, segment := range strings.Split(path, "/") {
		if !segmentExpr.MatchString(segment) || strings.Trim(segment, ".") == "" {
			return fmt.Errorf("%q: %w", path, domain.ErrInvalidPath)
		}
	}
	return nil
}
