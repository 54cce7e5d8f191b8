// Package epic is an HTTP client for the upstream cloud storage and version
// endpoints. Responses are validated before they reach the ingest pipeline.
package epic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/simplyzetax/habanero/internal/models"
)

// Sentinel errors for upstream HTTP error classes.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstream            = errors.New("upstream error")
	ErrBadRequest          = errors.New("bad request")
)

const (
	systemFilesPath = "/fortnite/api/cloudstorage/system"
	versionPath     = "/fortnite/api/version"
)

// Client talks to the upstream game service API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a Client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

// ListSystemFiles fetches the cloud storage catalog listing. Every entry is
// validated; a malformed entry fails the whole listing rather than being
// silently dropped.
func (c *Client) ListSystemFiles(ctx context.Context, token string) ([]models.CatalogEntry, error) {
	body, err := c.get(ctx, token, systemFilesPath, classifyListStatus)
	if err != nil {
		return nil, err
	}

	var entries []models.CatalogEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("%w: parse cloud storage listing: %v", ErrBadRequest, err)
	}
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
	}
	return entries, nil
}

// FileContents fetches the raw contents of one catalog entry. An empty body
// is a valid result; callers treat it as nothing to ingest.
func (c *Client) FileContents(ctx context.Context, token, uniqueFilename string) (string, error) {
	path := systemFilesPath + "/" + url.PathEscape(uniqueFilename)
	body, err := c.get(ctx, token, path, func(resp *http.Response) error {
		return fmt.Errorf("%w: fetch cloud storage contents: %s", ErrBadRequest, resp.Status)
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Version fetches the upstream version descriptor.
func (c *Client) Version(ctx context.Context, token string) (models.VersionInfo, error) {
	body, err := c.get(ctx, token, versionPath, func(resp *http.Response) error {
		return fmt.Errorf("%w: fetch version: %s", ErrBadRequest, resp.Status)
	})
	if err != nil {
		return models.VersionInfo{}, err
	}

	var info models.VersionInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return models.VersionInfo{}, fmt.Errorf("%w: parse version response: %v", ErrBadRequest, err)
	}
	if err := info.Validate(); err != nil {
		return models.VersionInfo{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return info, nil
}

// get performs an authorized GET and returns the response body. On non-2xx
// the supplied classifier maps the response to a typed error.
func (c *Client) get(ctx context.Context, token, path string, classify func(*http.Response) error) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classify(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// classifyListStatus maps a non-2xx listing response to a typed error.
func classifyListStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: invalid or expired access token", ErrUnauthorized)
	case resp.StatusCode == http.StatusBadGateway || resp.StatusCode == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: cloud storage API is unavailable", ErrUpstreamUnavailable)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: cloud storage service error: %s", ErrUpstream, resp.Status)
	default:
		return fmt.Errorf("%w: fetch cloud storage listing: %s", ErrBadRequest, resp.Status)
	}
}
