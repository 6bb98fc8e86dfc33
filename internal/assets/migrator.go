package assets

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/liferay"
)

// maxAssetBytes rejects oversized downloads before fetching them.
const maxAssetBytes = 100 << 20

// Remote is the slice of the destination API the migrator needs.
type Remote interface {
	SearchDocuments(ctx context.Context, folderID int64, title string) ([]liferay.Document, error)
	UploadDocument(ctx context.Context, input liferay.DocumentUploadInput) (liferay.Document, error)
}

// LegacySource fetches assets from the legacy site.
type LegacySource interface {
	AssetSize(ctx context.Context, assetURL string) (int64, error)
	FetchAsset(ctx context.Context, assetURL string) ([]byte, string, error)
}

// FailureRecorder persists asset failures for later inspection.
type FailureRecorder interface {
	RecordAssetFailure(assetURL, pageURL, reason string) error
}

// Migrator uploads legacy assets once and answers repeat requests from
// its caches. Safe for concurrent use.
type Migrator struct {
	remote Remote
	source LegacySource
	ledger FailureRecorder

	mu         sync.Mutex
	byFilename map[string]string
	byURL      map[string]string
	failed     map[string]string
}

// NewMigrator creates an asset migrator. ledger may be nil.
func NewMigrator(remote Remote, source LegacySource, ledger FailureRecorder) *Migrator {
	return &Migrator{
		remote:     remote,
		source:     source,
		ledger:     ledger,
		byFilename: make(map[string]string),
		byURL:      make(map[string]string),
		failed:     make(map[string]string),
	}
}

// Eligible reports whether the migrator should handle the URL.
func (m *Migrator) Eligible(rawURL string) bool {
	return Eligible(rawURL)
}

// Migrate uploads one asset and returns its destination content URL.
// Results, positive and negative, are cached so each source URL is
// fetched at most once per run.
func (m *Migrator) Migrate(ctx context.Context, rawURL string, folderID int64, pageURL string) (string, error) {
	cleaned := CleanDocumentURL(resolveAgainst(strings.TrimSpace(rawURL), pageURL))
	filename := FilenameFromURL(cleaned)
	if filename == "" || filename == "." || filename == "/" {
		return "", fmt.Errorf("asset %s has no usable filename", rawURL)
	}

	m.mu.Lock()
	if dest, ok := m.byURL[cleaned]; ok {
		m.mu.Unlock()
		return dest, nil
	}
	if dest, ok := m.byFilename[cacheKey(filename, folderID)]; ok {
		m.byURL[cleaned] = dest
		m.mu.Unlock()
		return dest, nil
	}
	if reason, ok := m.failed[cleaned]; ok {
		m.mu.Unlock()
		return "", errors.New(reason)
	}
	m.mu.Unlock()

	dest, err := m.migrate(ctx, cleaned, filename, folderID, pageURL)
	if err != nil {
		m.recordFailure(cleaned, pageURL, err)
		return "", err
	}

	m.mu.Lock()
	m.byURL[cleaned] = dest
	m.byFilename[cacheKey(filename, folderID)] = dest
	m.mu.Unlock()
	return dest, nil
}

func (m *Migrator) migrate(ctx context.Context, assetURL, filename string, folderID int64, pageURL string) (string, error) {
	// An already migrated document wins over a fresh upload.
	if doc, ok, err := m.findExisting(ctx, folderID, filename); err != nil {
		return "", err
	} else if ok {
		return doc.ContentURL, nil
	}

	if size, err := m.source.AssetSize(ctx, assetURL); err == nil && size > maxAssetBytes {
		return "", fmt.Errorf("asset %s exceeds %d bytes (%d)", assetURL, int64(maxAssetBytes), size)
	}

	data, contentType, err := m.source.FetchAsset(ctx, assetURL)
	if err != nil {
		return "", fmt.Errorf("fetch asset: %w", err)
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc, err := m.remote.UploadDocument(ctx, liferay.DocumentUploadInput{
		FolderID:    folderID,
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
		Description: "Migrado de " + assetURL,
	})
	if err == nil {
		return doc.ContentURL, nil
	}
	if !liferay.IsConflict(err) {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}

	// A 409 means someone uploaded it between our search and the upload,
	// or under a percent-encoded name. Search again before giving up.
	if doc, ok, err := m.findExisting(ctx, folderID, filename); err == nil && ok {
		return doc.ContentURL, nil
	}
	encoded := url.QueryEscape(filename)
	if encoded != filename {
		if doc, ok, err := m.findExisting(ctx, folderID, encoded); err == nil && ok {
			return doc.ContentURL, nil
		}
	}
	if folderID != 0 {
		if doc, ok, err := m.findExisting(ctx, 0, filename); err == nil && ok {
			return doc.ContentURL, nil
		}
	}
	return "", fmt.Errorf("upload %s: conflict and no existing document found", filename)
}

// findExisting looks the filename up in the target folder, trying the
// Office extension aliases as well.
func (m *Migrator) findExisting(ctx context.Context, folderID int64, filename string) (liferay.Document, bool, error) {
	for _, variant := range SearchVariants(filename) {
		docs, err := m.remote.SearchDocuments(ctx, folderID, variant)
		if err != nil {
			if errors.Is(err, liferay.ErrNotFound) {
				continue
			}
			return liferay.Document{}, false, fmt.Errorf("search document %q: %w", variant, err)
		}
		for _, doc := range docs {
			if strings.EqualFold(doc.FileName, variant) || strings.EqualFold(doc.Title, variant) {
				return doc, true, nil
			}
		}
	}
	return liferay.Document{}, false, nil
}

func (m *Migrator) recordFailure(assetURL, pageURL string, cause error) {
	m.mu.Lock()
	m.failed[assetURL] = cause.Error()
	m.mu.Unlock()
	if m.ledger != nil {
		m.ledger.RecordAssetFailure(assetURL, pageURL, cause.Error())
	}
}

// FailedCount returns how many distinct assets failed this run.
func (m *Migrator) FailedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.failed)
}

func cacheKey(filename string, folderID int64) string {
	return fmt.Sprintf("%d/%s", folderID, strings.ToLower(filename))
}

// resolveAgainst makes a relative asset reference absolute using the page
// it appeared on. Absolute URLs pass through untouched.
func resolveAgainst(rawURL, pageURL string) string {
	ref, err := url.Parse(rawURL)
	if err != nil || ref.IsAbs() {
		return rawURL
	}
	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		return rawURL
	}
	return base.ResolveReference(ref).String()
}
