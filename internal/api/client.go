// Package api is the typed client for the torrentstream backend contract.
// Every call is JSON over HTTP under /api/v1; failures carry the
// server-reported error message verbatim when one is present.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"torrentstream/webclient/internal/domain"
)

const basePath = "/api/v1"

// genericErrorMessage is what the user sees when the backend fails without a
// usable {error} body.
const genericErrorMessage = "Something went wrong"

// Error is a non-2xx backend response.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return genericErrorMessage
}

// UserMessage is what the page shows for a failed call: the server-reported
// message verbatim when there is one, the generic fallback for transport
// failures and empty error bodies.
func UserMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return genericErrorMessage
}

// Client talks to one backend instance.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (timeouts, otel
// transport, test doubles).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if strings.TrimSpace(userAgent) != "" {
			c.userAgent = userAgent
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// AddTorrent creates a playback session for a magnet link (or an indexer URL
// the backend resolves to one) and returns the session id.
func (c *Client) AddTorrent(ctx context.Context, magnet string) (string, error) {
	var resp struct {
		SessionID string `json:"sessionId"`
	}
	body := map[string]string{"magnet": magnet}
	if err := c.doJSON(ctx, http.MethodPost, "/torrent/add", body, &resp); err != nil {
		return "", err
	}
	return resp.SessionID, nil
}

// ListFiles returns the file listing of an established session.
func (c *Client) ListFiles(ctx context.Context, sessionID string) ([]domain.TorrentFile, error) {
	var files []domain.TorrentFile
	if err := c.doJSON(ctx, http.MethodGet, "/torrent/"+url.PathEscape(sessionID), nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// StreamPath is the page-relative URL for one file of a session.
func StreamPath(sessionID string, fileIndex int) string {
	return fmt.Sprintf("%s/torrent/%s/stream/%d", basePath, sessionID, fileIndex)
}

// SubtitlePath is the page-relative URL for one subtitle file, with the
// forced VTT transcript suffix.
func SubtitlePath(sessionID string, fileIndex int) string {
	return fmt.Sprintf("%s/torrent/%s/stream/%d.vtt?format=vtt", basePath, sessionID, fileIndex)
}

// ConvertTorrent uploads a .torrent file (multipart field "torrent") and
// returns the equivalent magnet link.
func (c *Client) ConvertTorrent(ctx context.Context, filename string, contents io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("torrent", filename)
	if err != nil {
		return "", fmt.Errorf("build multipart form: %w", err)
	}
	if _, err := io.Copy(part, contents); err != nil {
		return "", fmt.Errorf("copy torrent file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finish multipart form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/torrent/convert", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp struct {
		Magnet string `json:"magnet"`
	}
	if err := c.send(req, &resp); err != nil {
		return "", err
	}
	return resp.Magnet, nil
}

// Search queries one provider through the backend proxy endpoint.
func (c *Client) Search(ctx context.Context, provider domain.SearchProvider, query string) ([]domain.SearchResult, error) {
	path := fmt.Sprintf("/%s/search?q=%s", provider, url.QueryEscape(query))
	var results []domain.SearchResult
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// TestProwlarr validates a primary-provider host/key pair against the live
// indexer without touching saved settings.
func (c *Client) TestProwlarr(ctx context.Context, host, apiKey string) error {
	body := map[string]string{"host": host, "apiKey": apiKey}
	return c.doJSON(ctx, http.MethodPost, "/prowlarr/test", body, nil)
}

// TestJackett validates a secondary-provider host/key pair.
func (c *Client) TestJackett(ctx context.Context, host, apiKey string) error {
	body := map[string]string{"host": host, "apiKey": apiKey}
	return c.doJSON(ctx, http.MethodPost, "/jackett/test", body, nil)
}

// TestProxy validates a proxy URL and returns the egress origin IP reported
// through it.
func (c *Client) TestProxy(ctx context.Context, proxyURL string) (string, error) {
	var resp struct {
		Origin string `json:"origin"`
	}
	body := map[string]string{"proxyUrl": proxyURL}
	if err := c.doJSON(ctx, http.MethodPost, "/proxy/test", body, &resp); err != nil {
		return "", err
	}
	return resp.Origin, nil
}

// GetSettings fetches the full settings snapshot.
func (c *Client) GetSettings(ctx context.Context) (domain.Settings, error) {
	var settings domain.Settings
	if err := c.doJSON(ctx, http.MethodGet, "/settings", nil, &settings); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

// SaveProxySettings persists the proxy group.
func (c *Client) SaveProxySettings(ctx context.Context, group domain.ProxySettings) error {
	return c.doJSON(ctx, http.MethodPost, "/settings/proxy", group, nil)
}

// SaveProwlarrSettings persists the primary-provider group.
func (c *Client) SaveProwlarrSettings(ctx context.Context, group domain.ProwlarrSettings) error {
	return c.doJSON(ctx, http.MethodPost, "/settings/prowlarr", group, nil)
}

// SaveJackettSettings persists the secondary-provider group.
func (c *Client) SaveJackettSettings(ctx context.Context, group domain.JackettSettings) error {
	return c.doJSON(ctx, http.MethodPost, "/settings/jackett", group, nil)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+basePath+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var serverErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(payload, &serverErr) == nil {
			apiErr.Message = serverErr.Error
		}
		return apiErr
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
