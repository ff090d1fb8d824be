package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tendant/simple-translate-pipeline/pkg/translate"
)

// Client is an HTTP client for triggering translation enqueues and querying
// record status.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new translate client.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewWithHTTPClient creates a new translate client with a custom HTTP client.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Translate enqueues translation tasks for one document.
func (c *Client) Translate(ctx context.Context, req translate.EnqueueRequest) (*translate.EnqueueResult, error) {
	var result translate.EnqueueResult
	if err := c.post(ctx, "/v1/translate", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TranslateCollection enqueues translation tasks for every document in a
// collection.
func (c *Client) TranslateCollection(ctx context.Context, req translate.CollectionEnqueueRequest) (*translate.EnqueueResult, error) {
	var result translate.EnqueueResult
	if err := c.post(ctx, "/v1/translate/collection", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Status returns the per-locale record status for one document.
func (c *Client) Status(ctx context.Context, collectionPath, documentID string, locales []string) (*translate.StatusResponse, error) {
	q := url.Values{}
	q.Set("collectionPath", collectionPath)
	q.Set("documentId", documentID)
	if len(locales) > 0 {
		q.Set("locales", strings.Join(locales, ","))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/status?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var status translate.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &status, nil
}

func (c *Client) post(ctx context.Context, path string, req any, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
