// Package liferay is an HTTP client for the Liferay headless-delivery API
// surface used by the migration: folder trees, documents, structured
// contents, site pages and the journal-content association endpoint.
package liferay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	defaultUserAgent   = "migrador/dev"
	maxErrorBodyBytes  = 1 << 20 // 1 MiB

	defaultMaxAttempts = 4
	retryBaseDelay     = 500 * time.Millisecond
	retryMaxDelay      = 8 * time.Second

	headlessBase    = "/o/headless-delivery/v1.0"
	associationPath = "/o/api-association-migrador/v1.0/journal-content/associate-article"
)

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("liferay resource not found")
)

// ClientConfig configures the Liferay HTTP client.
type ClientConfig struct {
	BaseURL  string
	Username string
	Password string
	SiteID   int64

	HTTPClient *http.Client
	UserAgent  string

	// RequestsPerSecond throttles outgoing calls. Zero disables throttling.
	RequestsPerSecond float64

	// Logf, when set, receives one line per HTTP round trip.
	Logf func(format string, args ...any)
}

// Client is an HTTP-backed Liferay API client.
type Client struct {
	baseURL    string
	username   string
	password   string
	siteID     int64
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	logf       func(format string, args ...any)

	maxAttempts int
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = strings.TrimSpace(e.Body)
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if msg == "" {
		msg = "request failed"
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, msg)
}

// NewClient creates a Liferay HTTP client.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	username := strings.TrimSpace(cfg.Username)
	password := strings.TrimSpace(cfg.Password)

	if baseURL == "" {
		return nil, errors.New("liferay base URL is required")
	}
	if username == "" {
		return nil, errors.New("liferay username is required")
	}
	if password == "" {
		return nil, errors.New("liferay password is required")
	}
	if cfg.SiteID <= 0 {
		return nil, errors.New("liferay site ID is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid liferay base URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultHTTPTimeout,
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

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 20)
	}

	return &Client{
		baseURL:     baseURL,
		username:    username,
		password:    password,
		siteID:      cfg.SiteID,
		httpClient:  httpClient,
		userAgent:   userAgent,
		limiter:     limiter,
		logf:        cfg.Logf,
		maxAttempts: defaultMaxAttempts,
	}, nil
}

// SiteID returns the configured site ID.
func (c *Client) SiteID() int64 { return c.siteID }

func (c *Client) folderCollectionPath(kind FolderKind, parentID int64) string {
	base := kind.basePath()
	if parentID == 0 {
		return fmt.Sprintf("%s/sites/%d/%s", headlessBase, c.siteID, base)
	}
	return fmt.Sprintf("%s/%s/%d/%s", headlessBase, base, parentID, base)
}

// ListFolders returns one page of folders under a parent. Parent zero lists
// the site root of the given tree.
func (c *Client) ListFolders(ctx context.Context, kind FolderKind, parentID int64, page, pageSize int) (FolderListResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))

	var payload listResponse[folderDTO]
	err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, c.folderCollectionPath(kind, parentID), query, nil)
	}, &payload)
	if err != nil {
		return FolderListResult{}, err
	}

	out := FolderListResult{
		Folders:    make([]Folder, 0, len(payload.Items)),
		Page:       payload.Page,
		PageSize:   payload.PageSize,
		TotalCount: payload.TotalCount,
	}
	if out.Page == 0 {
		out.Page = page
	}
	if out.PageSize == 0 {
		out.PageSize = pageSize
	}
	for _, item := range payload.Items {
		out.Folders = append(out.Folders, item.toModel(parentID))
	}
	return out, nil
}

// CreateFolder creates a folder under a parent. Parent zero creates at the
// site root.
func (c *Client) CreateFolder(ctx context.Context, kind FolderKind, parentID int64, name, description string) (Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Folder{}, errors.New("folder name is required")
	}

	body := map[string]any{"name": name}
	if strings.TrimSpace(description) != "" {
		body["description"] = description
	}

	var payload folderDTO
	err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, c.folderCollectionPath(kind, parentID), nil, body)
	}, &payload)
	if err != nil {
		return Folder{}, err
	}
	if payload.ID == 0 {
		return Folder{}, errors.New("create folder response missing id")
	}
	return payload.toModel(parentID), nil
}

// SearchStructuredContents finds records by exact title inside a folder.
// Folder zero searches at site scope.
func (c *Client) SearchStructuredContents(ctx context.Context, folderID int64, title string) ([]StructuredContent, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title is required")
	}

	var pathSuffix string
	if folderID == 0 {
		pathSuffix = fmt.Sprintf("%s/sites/%d/structured-contents", headlessBase, c.siteID)
	} else {
		pathSuffix = fmt.Sprintf("%s/structured-content-folders/%d/structured-contents", headlessBase, folderID)
	}

	query := url.Values{}
	query.Set("filter", fmt.Sprintf("title eq '%s'", strings.ReplaceAll(title, "'", `\'`)))
	query.Set("fields", "id,title,key,friendlyUrlPath")
	query.Set("page", "1")
	query.Set("pageSize", "5")

	var payload listResponse[structuredContentDTO]
	err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, pathSuffix, query, nil)
	}, &payload)
	if err != nil {
		return nil, err
	}

	out := make([]StructuredContent, 0, len(payload.Items))
	for _, item := range payload.Items {
		out = append(out, item.toModel())
	}
	return out, nil
}

// GetStructuredContent fetches one record by ID.
func (c *Client) GetStructuredContent(ctx context.Context, id int64) (StructuredContent, error) {
	if id <= 0 {
		return StructuredContent{}, errors.New("content ID is required")
	}

	var payload structuredContentDTO
	err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, fmt.Sprintf("%s/structured-contents/%d", headlessBase, id), nil, nil)
	}, &payload)
	if err != nil {
		if isHTTPStatus(err, http.StatusNotFound) {
			return StructuredContent{}, ErrNotFound
		}
		return StructuredContent{}, err
	}
	return payload.toModel(), nil
}

// CreateStructuredContent creates a record inside a folder.
func (c *Client) CreateStructuredContent(ctx context.Context, input ContentInput) (StructuredContent, error) {
	if input.StructureID <= 0 {
		return StructuredContent{}, errors.New("content structure ID is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return StructuredContent{}, errors.New("content title is required")
	}
	if len(input.Fields) == 0 {
		return StructuredContent{}, errors.New("content fields are required")
	}

	fields := make([]map[string]any, 0, len(input.Fields))
	for _, field := range input.Fields {
		fields = append(fields, field.payload())
	}
	body := map[string]any{
		"contentStructureId":        input.StructureID,
		"contentFields":             fields,
		"structuredContentFolderId": input.FolderID,
		"title":                     strings.TrimSpace(input.Title),
	}
	if strings.TrimSpace(input.FriendlyURLPath) != "" {
		body["friendlyUrlPath"] = input.FriendlyURLPath
	}

	var pathSuffix string
	if input.FolderID == 0 {
		pathSuffix = fmt.Sprintf("%s/sites/%d/structured-contents", headlessBase, c.siteID)
	} else {
		pathSuffix = fmt.Sprintf("%s/structured-content-folders/%d/structured-contents", headlessBase, input.FolderID)
	}

	var payload structuredContentDTO
	err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, pathSuffix, nil, body)
	}, &payload)
	if err != nil {
		return StructuredContent{}, err
	}
	if payload.ID == 0 {
		return StructuredContent{}, errors.New("create content response missing id")
	}
	return payload.toModel(), nil
}

// PatchStructuredContent replaces the content fields of an existing record.
func (c *Client) PatchStructuredContent(ctx context.Context, id int64, fields []ContentField) error {
	if id <= 0 {
		return errors.New("content ID is required")
	}
	if len(fields) == 0 {
		return errors.New("content fields are required")
	}

	payloadFields := make([]map[string]any, 0, len(fields))
	for _, field := range fields {
		payloadFields = append(payloadFields, field.payload())
	}
	body := map[string]any{"contentFields": payloadFields}

	err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPatch, fmt.Sprintf("%s/structured-contents/%d", headlessBase, id), nil, body)
	}, nil)
	if err != nil {
		if isHTTPStatus(err, http.StatusNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// SearchDocuments finds documents by exact title. Folder zero searches at
// site scope.
func (c *Client) SearchDocuments(ctx context.Context, folderID int64, title string) ([]Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("document title is required")
	}

	var pathSuffix string
	if folderID == 0 {
		pathSuffix = fmt.Sprintf("%s/sites/%d/documents", headlessBase, c.siteID)
	} else {
		pathSuffix = fmt.Sprintf("%s/document-folders/%d/documents", headlessBase, folderID)
	}

	query := url.Values{}
	query.Set("filter", fmt.Sprintf("title eq '%s'", strings.ReplaceAll(title, "'", `\'`)))
	query.Set("fields", "id,title,fileName,contentUrl")
	query.Set("page", "1")
	query.Set("pageSize", "1")

	var payload listResponse[documentDTO]
	err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, pathSuffix, query, nil)
	}, &payload)
	if err != nil {
		return nil, err
	}

	out := make([]Document, 0, len(payload.Items))
	for _, item := range payload.Items {
		out = append(out, item.toModel())
	}
	return out, nil
}

// GetDocument fetches one document by ID.
func (c *Client) GetDocument(ctx context.Context, id int64) (Document, error) {
	if id <= 0 {
		return Document{}, errors.New("document ID is required")
	}

	var payload documentDTO
	err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, fmt.Sprintf("%s/documents/%d", headlessBase, id), nil, nil)
	}, &payload)
	if err != nil {
		if isHTTPStatus(err, http.StatusNotFound) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return payload.toModel(), nil
}

// UploadDocument uploads a file as a new document. Uploads are not retried:
// a 409 means the file already exists and the caller resolves it by search.
func (c *Client) UploadDocument(ctx context.Context, input DocumentUploadInput) (Document, error) {
	filename := strings.TrimSpace(input.Filename)
	if filename == "" {
		return Document{}, errors.New("filename is required")
	}
	if len(input.Data) == 0 {
		return Document{}, errors.New("document data is empty")
	}

	var pathSuffix string
	if input.FolderID == 0 {
		pathSuffix = fmt.Sprintf("%s/sites/%d/documents", headlessBase, c.siteID)
	} else {
		pathSuffix = fmt.Sprintf("%s/document-folders/%d/documents", headlessBase, input.FolderID)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	filePart, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return Document{}, fmt.Errorf("create multipart file part: %w", err)
	}
	if _, err := filePart.Write(input.Data); err != nil {
		return Document{}, fmt.Errorf("write multipart payload: %w", err)
	}

	metadata := map[string]string{"title": filename}
	if strings.TrimSpace(input.Description) != "" {
		metadata["description"] = input.Description
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return Document{}, fmt.Errorf("marshal document metadata: %w", err)
	}
	if err := writer.WriteField("documentMetadata", string(metadataJSON)); err != nil {
		return Document{}, fmt.Errorf("write metadata part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Document{}, fmt.Errorf("close multipart payload: %w", err)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return Document{}, err
	}
	u.Path = path.Join(u.Path, pathSuffix)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body.Bytes()))
	if err != nil {
		return Document{}, err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Document{}, err
		}
	}

	var payload documentDTO
	if err := c.do(req, &payload); err != nil {
		return Document{}, err
	}
	if payload.ID == 0 {
		return Document{}, errors.New("upload document response missing id")
	}
	return payload.toModel(), nil
}

// SearchSitePages searches site pages by a free text term.
func (c *Client) SearchSitePages(ctx context.Context, term string) ([]SitePage, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.New("search term is required")
	}

	query := url.Values{}
	query.Set("search", term)
	query.Set("fields", "id,title,friendlyUrlPath")
	query.Set("page", "1")
	query.Set("pageSize", "20")

	var payload listResponse[sitePageDTO]
	err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, fmt.Sprintf("%s/sites/%d/site-pages", headlessBase, c.siteID), query, nil)
	}, &payload)
	if err != nil {
		return nil, err
	}

	out := make([]SitePage, 0, len(payload.Items))
	for _, item := range payload.Items {
		out = append(out, item.toModel())
	}
	return out, nil
}

// GetRenderedPage fetches the rendered HTML of a site page.
func (c *Client) GetRenderedPage(ctx context.Context, friendlyURLPath string) (string, error) {
	friendly := strings.Trim(strings.TrimSpace(friendlyURLPath), "/")
	if friendly == "" {
		return "", errors.New("friendly URL path is required")
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	u.Path = path.Join(u.Path, fmt.Sprintf("%s/sites/%d/site-pages/%s/rendered-page", headlessBase, c.siteID, friendly))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", c.userAgent)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read rendered page body: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if resp.StatusCode == http.StatusNotFound {
			return "", ErrNotFound
		}
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Method:     req.Method,
			URL:        req.URL.String(),
			Body:       truncateBody(bodyBytes),
		}
	}
	if c.logf != nil {
		c.logf("GET %s: status %d (%d bytes)", req.URL, resp.StatusCode, len(bodyBytes))
	}
	return string(bodyBytes), nil
}

// AssociateArticle binds an article to a journal-content portlet on a page.
func (c *Client) AssociateArticle(ctx context.Context, input AssociationInput) error {
	if input.Plid <= 0 {
		return errors.New("plid is required")
	}
	if strings.TrimSpace(input.PortletID) == "" {
		return errors.New("portlet ID is required")
	}
	if strings.TrimSpace(input.ArticleKey) == "" {
		return errors.New("article key is required")
	}

	query := url.Values{}
	query.Set("plid", strconv.FormatInt(input.Plid, 10))
	query.Set("portletId", input.PortletID)
	query.Set("articleId", input.ArticleKey)

	var payload associationResponse
	err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, associationPath, query, nil)
	}, &payload)
	if err != nil {
		return err
	}
	if !strings.EqualFold(payload.Status, "SUCCESS") {
		return fmt.Errorf("association returned status %q", payload.Status)
	}
	return nil
}

func (c *Client) newRequest(
	ctx context.Context,
	method string,
	pathSuffix string,
	query url.Values,
	body any,
) (*http.Request, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	u.Path = path.Join(u.Path, pathSuffix)

	if query != nil {
		q := u.Query()
		for key, vals := range query {
			for _, v := range vals {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if c.logf != nil {
		c.logf("%s %s: status %d", req.Method, req.URL, resp.StatusCode)
	}

	// Only error bodies are capped; successful payloads are read whole.
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     req.Method,
			URL:        req.URL.String(),
			Message:    decodeAPIErrorMessage(errBytes),
			Body:       truncateBody(errBytes),
		}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if out == nil || len(bodyBytes) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("decode response JSON: %w", err)
	}
	return nil
}

// doWithRetry rebuilds and replays the request on transient failures with
// exponential backoff. Definitive 4xx responses return immediately.
func (c *Client) doWithRetry(ctx context.Context, build func() (*http.Request, error), out any) error {
	delay := retryBaseDelay
	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > retryMaxDelay {
				delay = retryMaxDelay
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		req, err := build()
		if err != nil {
			return err
		}
		if err := c.do(req, out); err != nil {
			lastErr = err
			if IsTransient(err) {
				continue
			}
			return err
		}
		return nil
	}
	return lastErr
}

// IsTransient reports whether the error is worth retrying: throttling,
// server-side failures and transport errors.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// IsConflict reports whether the error is an HTTP 409.
func IsConflict(err error) bool {
	return isHTTPStatus(err, http.StatusConflict)
}

// IsClientRejection reports whether the remote definitively rejected the
// request (4xx other than 408, 409 and 429). These are never retried.
func IsClientRejection(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusRequestTimeout, http.StatusConflict, http.StatusTooManyRequests:
		return false
	}
	return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
}

func isHTTPStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

func decodeAPIErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"title", "message", "error", "reason"} {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func truncateBody(body []byte) string {
	const max = 2048
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
