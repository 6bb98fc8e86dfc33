// Package source reads pages and binary assets from the legacy site.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "migrador/dev"

	// maxAssetBytes caps in-memory asset downloads.
	maxAssetBytes = 100 << 20 // 100 MiB
)

// ErrPageNotFound indicates the legacy site returned 404 for a page.
var ErrPageNotFound = errors.New("legacy page not found")

// Client fetches content from the legacy site.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// ClientConfig configures the legacy site client.
type ClientConfig struct {
	HTTPClient *http.Client
	UserAgent  string
}

// NewClient creates a legacy site client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{httpClient: httpClient, userAgent: userAgent}
}

// FetchPage downloads a legacy page and returns its HTML.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrPageNotFound, pageURL)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read page body: %w", err)
	}
	return string(body), nil
}

// FetchAsset downloads a binary asset, following redirects. Returns the
// payload and the response content type.
func (c *Client) FetchAsset(ctx context.Context, assetURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch asset %s: unexpected status %d", assetURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read asset body: %w", err)
	}
	if len(body) == 0 {
		return nil, "", fmt.Errorf("asset %s is empty", assetURL)
	}
	if len(body) > maxAssetBytes {
		return nil, "", fmt.Errorf("asset %s exceeds %d bytes", assetURL, maxAssetBytes)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// AssetSize probes an asset's size with a HEAD request. Returns -1 when the
// server does not advertise a length.
func (c *Client) AssetSize(ctx context.Context, assetURL string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, assetURL, nil)
	if err != nil {
		return -1, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return -1, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return -1, fmt.Errorf("head %s: unexpected status %d", assetURL, resp.StatusCode)
	}
	length := strings.TrimSpace(resp.Header.Get("Content-Length"))
	if length == "" {
		return -1, nil
	}
	n, err := strconv.ParseInt(length, 10, 64)
	if err != nil {
		return -1, nil
	}
	return n, nil
}
