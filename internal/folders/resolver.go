package folders

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/liferay"
)

const listPageSize = 100

// Remote is the slice of the destination API the resolver needs.
type Remote interface {
	ListFolders(ctx context.Context, kind liferay.FolderKind, parentID int64, page, pageSize int) (liferay.FolderListResult, error)
	CreateFolder(ctx context.Context, kind liferay.FolderKind, parentID int64, name, description string) (liferay.Folder, error)
}

// FailureLedger persists folder creation failures between runs.
type FailureLedger interface {
	RecordFolderFailure(name string, kind string, parentID int64, hierarchy, reason string) error
	MarkFolderRetry(id int64) error
	DeleteFolderFailure(id int64) error
}

type folderKey struct {
	key      string
	parentID int64
	kind     liferay.FolderKind
}

// Resolver walks folder hierarchies on the destination, creating missing
// levels. Resolved ids are cached per (name, parent, kind); failures are
// never cached as successes.
type Resolver struct {
	remote Remote
	ledger FailureLedger

	mu  sync.Mutex
	ids map[folderKey]int64
}

// NewResolver creates a resolver. ledger may be nil.
func NewResolver(remote Remote, ledger FailureLedger) *Resolver {
	return &Resolver{remote: remote, ledger: ledger, ids: make(map[folderKey]int64)}
}

// Resolve walks the hierarchy levels plus the final title and returns
// the innermost folder id. A final title whose comparison key equals the
// last hierarchy level is not nested again; the last level's id is
// returned instead. A zero id with a non-nil error means the walk
// stopped; the caller decides whether the migration can continue.
func (r *Resolver) Resolve(ctx context.Context, kind liferay.FolderKind, hierarchy []string, finalTitle string) (int64, error) {
	levels := append([]string{}, hierarchy...)
	if title := strings.TrimSpace(finalTitle); title != "" {
		if len(levels) == 0 || ComparisonKey(levels[len(levels)-1]) != ComparisonKey(title) {
			levels = append(levels, title)
		}
	}
	if len(levels) == 0 {
		return 0, fmt.Errorf("empty folder hierarchy")
	}

	var parentID int64
	for _, level := range levels {
		id, err := r.resolveOne(ctx, kind, parentID, level, strings.Join(levels, " > "))
		if err != nil {
			return 0, err
		}
		parentID = id
	}
	return parentID, nil
}

// resolveOne finds or creates one level under parentID.
func (r *Resolver) resolveOne(ctx context.Context, kind liferay.FolderKind, parentID int64, rawName, hierarchy string) (int64, error) {
	name := CleanName(NormalizeTitle(rawName), maxNameLength(kind))
	key := folderKey{key: ComparisonKey(name), parentID: parentID, kind: kind}

	r.mu.Lock()
	if id, ok := r.ids[key]; ok {
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	if id, ok, err := r.find(ctx, kind, parentID, key.key); err != nil {
		return 0, err
	} else if ok {
		r.cache(key, id)
		return id, nil
	}

	folder, err := r.remote.CreateFolder(ctx, kind, parentID, name, "")
	if err == nil {
		r.cache(key, folder.ID)
		return folder.ID, nil
	}

	// Concurrent creation of the same level surfaces as a conflict; the
	// folder exists now, so list again.
	if liferay.IsConflict(err) {
		if id, ok, listErr := r.find(ctx, kind, parentID, key.key); listErr == nil && ok {
			r.cache(key, id)
			return id, nil
		}
	}

	if r.ledger != nil {
		r.ledger.RecordFolderFailure(name, string(kind), parentID, hierarchy, err.Error())
	}
	return 0, fmt.Errorf("create folder %q under %d: %w", name, parentID, err)
}

// find pages through the parent's children comparing folded names.
func (r *Resolver) find(ctx context.Context, kind liferay.FolderKind, parentID int64, foldedName string) (int64, bool, error) {
	page := 1
	for {
		result, err := r.remote.ListFolders(ctx, kind, parentID, page, listPageSize)
		if err != nil {
			return 0, false, fmt.Errorf("list folders under %d: %w", parentID, err)
		}
		for _, folder := range result.Folders {
			if ComparisonKey(folder.Name) == foldedName {
				return folder.ID, true, nil
			}
		}
		if !result.HasMore() {
			return 0, false, nil
		}
		page++
	}
}

func (r *Resolver) cache(key folderKey, id int64) {
	r.mu.Lock()
	r.ids[key] = id
	r.mu.Unlock()
}

func maxNameLength(kind liferay.FolderKind) int {
	if kind == liferay.FolderKindDocument {
		return maxDocumentFolderName
	}
	return maxJournalFolderName
}

// FolderFailure is one persisted creation failure.
type FolderFailure struct {
	ID         int64
	Name       string
	Kind       string
	ParentID   int64
	Hierarchy  string
	Reason     string
	RetryCount int
}

// FailureLister reads back persisted failures below a retry cap.
type FailureLister interface {
	ListFolderFailures(maxRetries int) ([]FolderFailure, error)
}

// RetryFailed sweeps the persisted failures, retrying creation. Entries
// that succeed are removed; the rest get their retry count bumped.
// Returns how many entries were resolved.
func (r *Resolver) RetryFailed(ctx context.Context, lister FailureLister, maxRetries int) (int, error) {
	if r.ledger == nil {
		return 0, fmt.Errorf("no failure ledger configured")
	}
	failures, err := lister.ListFolderFailures(maxRetries)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, failure := range failures {
		kind := liferay.FolderKind(failure.Kind)
		_, err := r.resolveOne(ctx, kind, failure.ParentID, failure.Name, failure.Hierarchy)
		if err != nil {
			r.ledger.MarkFolderRetry(failure.ID)
			continue
		}
		if err := r.ledger.DeleteFolderFailure(failure.ID); err != nil {
			return resolved, err
		}
		resolved++
	}
	return resolved, nil
}
