package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-values/pkg/simplevalues/api"
	"github.com/tendant/simple-values/pkg/simplevalues/invalidation"
)

// Client talks to a simple-values server over HTTP
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the API rooted at baseURL
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// GetValue fetches the converted value of a property
func (c *Client) GetValue(ctx context.Context, contentID uuid.UUID, alias string, preview bool) (*api.ValueResponse, error) {
	var resp api.ValueResponse
	path := fmt.Sprintf("/contents/%s/properties/%s", contentID, url.PathEscape(alias))
	if err := c.do(ctx, http.MethodGet, path, previewQuery(preview), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HasValue asks whether a property holds a meaningful value
func (c *Client) HasValue(ctx context.Context, contentID uuid.UUID, alias string, preview bool) (*api.HasValueResponse, error) {
	var resp api.HasValueResponse
	path := fmt.Sprintf("/contents/%s/properties/%s/has-value", contentID, url.PathEscape(alias))
	if err := c.do(ctx, http.MethodGet, path, previewQuery(preview), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DescribeProperty fetches converter and cache level of a property
func (c *Client) DescribeProperty(ctx context.Context, contentType, alias string) (*api.PropertyResponse, error) {
	var resp api.PropertyResponse
	path := fmt.Sprintf("/content-types/%s/properties/%s", url.PathEscape(contentType), url.PathEscape(alias))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Invalidate announces a publish event for a content item, content type or media item
func (c *Client) Invalidate(ctx context.Context, kind invalidation.Kind, target string) error {
	var path string
	switch kind {
	case invalidation.KindContent:
		path = "/contents/" + url.PathEscape(target) + "/invalidate"
	case invalidation.KindContentType:
		path = "/content-types/" + url.PathEscape(target) + "/invalidate"
	case invalidation.KindMedia:
		path = "/media/" + url.PathEscape(target) + "/invalidate"
	default:
		return fmt.Errorf("unknown invalidation kind %q", kind)
	}
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func previewQuery(preview bool) url.Values {
	if !preview {
		return nil
	}
	return url.Values{"preview": []string{strconv.FormatBool(preview)}}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body api.ErrorResponse
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &body) != nil {
			body.Error = strings.TrimSpace(string(data))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
