package folders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/liferay"
)

type fakeRemote struct {
	mu      sync.Mutex
	nextID  int64
	folders map[int64][]liferay.Folder // parentID -> children
	creates int
	lists   int
	failOn  map[string]error

	// hideUntilLists makes the first N listings come back empty, mimicking
	// a folder created concurrently between list and create.
	hideUntilLists int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{nextID: 100, folders: map[int64][]liferay.Folder{}, failOn: map[string]error{}}
}

func (f *fakeRemote) ListFolders(_ context.Context, _ liferay.FolderKind, parentID int64, page, pageSize int) (liferay.FolderListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.lists <= f.hideUntilLists {
		return liferay.FolderListResult{Page: page, PageSize: pageSize}, nil
	}
	children := f.folders[parentID]
	return liferay.FolderListResult{
		Folders:    children,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: len(children),
	}, nil
}

func (f *fakeRemote) CreateFolder(_ context.Context, _ liferay.FolderKind, parentID int64, name, _ string) (liferay.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if err, ok := f.failOn[name]; ok {
		return liferay.Folder{}, err
	}
	f.nextID++
	folder := liferay.Folder{ID: f.nextID, Name: name, ParentID: parentID}
	f.folders[parentID] = append(f.folders[parentID], folder)
	return folder, nil
}

type memoryLedger struct {
	mu       sync.Mutex
	failures []FolderFailure
	retries  int
	deletes  int
}

func (l *memoryLedger) RecordFolderFailure(name, kind string, parentID int64, hierarchy, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = append(l.failures, FolderFailure{
		ID:        int64(len(l.failures) + 1),
		Name:      name,
		Kind:      kind,
		ParentID:  parentID,
		Hierarchy: hierarchy,
		Reason:    reason,
	})
	return nil
}

func (l *memoryLedger) MarkFolderRetry(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.retries++
	return nil
}

func (l *memoryLedger) DeleteFolderFailure(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deletes++
	for i := range l.failures {
		if l.failures[i].ID == id {
			l.failures = append(l.failures[:i], l.failures[i+1:]...)
			break
		}
	}
	return nil
}

func (l *memoryLedger) ListFolderFailures(maxRetries int) ([]FolderFailure, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]FolderFailure, len(l.failures))
	copy(out, l.failures)
	return out, nil
}

func TestResolve_CreatesMissingLevels(t *testing.T) {
	remote := newFakeRemote()
	r := NewResolver(remote, nil)

	id, err := r.Resolve(context.Background(), liferay.FolderKindJournal, []string{"secretaria", "educação infantil"}, "creches")
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if id == 0 {
		t.Fatal("Resolve() returned zero id")
	}
	if remote.creates != 3 {
		t.Fatalf("creates = %d, want 3", remote.creates)
	}
	// Created names carry the Portuguese title casing, accents stripped.
	if got := remote.folders[0][0].Name; got != "Secretaria" {
		t.Fatalf("root folder name = %q, want Secretaria", got)
	}
}

func TestResolve_TitleEqualToLastLevelIsNotNested(t *testing.T) {
	remote := newFakeRemote()
	r := NewResolver(remote, nil)

	id, err := r.Resolve(context.Background(), liferay.FolderKindJournal, []string{"Educação"}, "educacao")
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if remote.creates != 1 {
		t.Fatalf("creates = %d, want 1 (no nested duplicate for equal comparison keys)", remote.creates)
	}
	if got := remote.folders[0][0].ID; id != got {
		t.Fatalf("id = %d, want %d (the last hierarchy level)", id, got)
	}
}

func TestResolve_ReusesExistingFolderByFoldedName(t *testing.T) {
	remote := newFakeRemote()
	remote.folders[0] = []liferay.Folder{{ID: 31, Name: "Educação"}}
	r := NewResolver(remote, nil)

	id, err := r.Resolve(context.Background(), liferay.FolderKindJournal, nil, "educacao")
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if id != 31 {
		t.Fatalf("id = %d, want 31 (existing folder)", id)
	}
	if remote.creates != 0 {
		t.Fatalf("creates = %d, want 0", remote.creates)
	}
}

func TestResolve_CachesResolvedIDs(t *testing.T) {
	remote := newFakeRemote()
	r := NewResolver(remote, nil)

	if _, err := r.Resolve(context.Background(), liferay.FolderKindJournal, nil, "Esportes"); err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	listsAfterFirst := remote.lists
	if _, err := r.Resolve(context.Background(), liferay.FolderKindJournal, nil, "Esportes"); err != nil {
		t.Fatalf("Resolve() second call unexpected error: %v", err)
	}
	if remote.lists != listsAfterFirst {
		t.Fatalf("second resolve listed again (%d lists, was %d)", remote.lists, listsAfterFirst)
	}
}

func TestResolve_KindsDoNotShareCache(t *testing.T) {
	remote := newFakeRemote()
	r := NewResolver(remote, nil)

	journalID, err := r.Resolve(context.Background(), liferay.FolderKindJournal, nil, "Esportes")
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	documentID, err := r.Resolve(context.Background(), liferay.FolderKindDocument, nil, "Esportes")
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if journalID == documentID {
		t.Fatalf("journal and document folders share id %d, want distinct", journalID)
	}
}

func TestResolve_FailureReturnsZeroAndRecordsLedger(t *testing.T) {
	remote := newFakeRemote()
	remote.failOn["Quebrada"] = errors.New("boom")
	ledger := &memoryLedger{}
	r := NewResolver(remote, ledger)

	id, err := r.Resolve(context.Background(), liferay.FolderKindJournal, nil, "quebrada")
	if err == nil {
		t.Fatal("Resolve() expected error, got nil")
	}
	if id != 0 {
		t.Fatalf("id = %d, want 0 on failure", id)
	}
	if len(ledger.failures) != 1 {
		t.Fatalf("ledger failures = %d, want 1", len(ledger.failures))
	}
	if ledger.failures[0].Name != "Quebrada" {
		t.Fatalf("recorded name = %q, want Quebrada", ledger.failures[0].Name)
	}
}

func TestResolve_ConflictFallsBackToListing(t *testing.T) {
	remote := newFakeRemote()
	conflict := &liferay.APIError{StatusCode: 409, Method: "POST", URL: "/folders"}
	remote.failOn["Duplicada"] = conflict
	remote.folders[0] = []liferay.Folder{{ID: 77, Name: "Duplicada"}}
	remote.hideUntilLists = 1
	r := NewResolver(remote, nil)

	id, err := r.Resolve(context.Background(), liferay.FolderKindJournal, nil, "duplicada")
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if id != 77 {
		t.Fatalf("id = %d, want 77 from conflict re-list", id)
	}
}

func TestRetryFailed_ResolvesAndCleansLedger(t *testing.T) {
	remote := newFakeRemote()
	ledger := &memoryLedger{}
	ledger.RecordFolderFailure("Pendente", string(liferay.FolderKindJournal), 0, "Raiz > Pendente", "boom")
	r := NewResolver(remote, ledger)

	resolved, err := r.RetryFailed(context.Background(), ledger, 3)
	if err != nil {
		t.Fatalf("RetryFailed() unexpected error: %v", err)
	}
	if resolved != 1 {
		t.Fatalf("resolved = %d, want 1", resolved)
	}
	if len(ledger.failures) != 0 {
		t.Fatalf("ledger still has %d failures, want 0", len(ledger.failures))
	}
}

func TestRetryFailed_FailureBumpsRetryCount(t *testing.T) {
	remote := newFakeRemote()
	remote.failOn["Pendente"] = errors.New("still broken")
	ledger := &memoryLedger{}
	ledger.RecordFolderFailure("Pendente", string(liferay.FolderKindJournal), 0, "", "boom")
	r := NewResolver(remote, ledger)

	resolved, err := r.RetryFailed(context.Background(), ledger, 3)
	if err != nil {
		t.Fatalf("RetryFailed() unexpected error: %v", err)
	}
	if resolved != 0 {
		t.Fatalf("resolved = %d, want 0", resolved)
	}
	if ledger.retries != 1 {
		t.Fatalf("retry marks = %d, want 1", ledger.retries)
	}
}
