// Package migrate orchestrates page migrations end to end: folder
// resolution, content extraction, decomposition, record creation, asset
// rewriting and portlet association.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/content"
	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/dedupe"
	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/liferay"
	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/source"
	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/tasks"
)

const (
	defaultConcurrency     = 20
	maxConcurrency         = 50
	defaultAssociationWait = 2 * time.Minute
	slugConflictRetries    = 3
)

// Remote is the slice of the destination API the orchestrator needs.
type Remote interface {
	SearchStructuredContents(ctx context.Context, folderID int64, title string) ([]liferay.StructuredContent, error)
	CreateStructuredContent(ctx context.Context, input liferay.ContentInput) (liferay.StructuredContent, error)
	PatchStructuredContent(ctx context.Context, id int64, fields []liferay.ContentField) error
	SearchSitePages(ctx context.Context, term string) ([]liferay.SitePage, error)
	GetRenderedPage(ctx context.Context, friendlyURLPath string) (string, error)
	AssociateArticle(ctx context.Context, input liferay.AssociationInput) error
}

// PageSource fetches legacy pages.
type PageSource interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
}

// FolderResolver resolves destination folder hierarchies.
type FolderResolver interface {
	Resolve(ctx context.Context, kind liferay.FolderKind, hierarchy []string, finalTitle string) (int64, error)
}

// AssetRewriter rewrites asset references inside migrated HTML.
type AssetRewriter interface {
	Rewrite(ctx context.Context, html string, folderID int64, pageURL string) (string, error)
}

// FailureRecorder persists page failures.
type FailureRecorder interface {
	RecordContentFailure(pageURL, title, hierarchy, reason string) error
}

// Options tunes a migration run.
type Options struct {
	ContentStructureID  int64
	CollapseStructureID int64
	TabStructureID      int64
	SourceDomain        string
	Concurrency         int
	AssociationTimeout  time.Duration
	Logf                func(format string, args ...any)
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	if o.Concurrency > maxConcurrency {
		o.Concurrency = maxConcurrency
	}
	if o.AssociationTimeout <= 0 {
		o.AssociationTimeout = defaultAssociationWait
	}
	if o.Logf == nil {
		o.Logf = func(string, ...any) {}
	}
	return o
}

// Migrator runs migration tasks against the destination.
type Migrator struct {
	remote     Remote
	src        PageSource
	resolver   FolderResolver
	rewriter   AssetRewriter
	classifier *content.Classifier
	index      *dedupe.Index
	ledger     FailureRecorder
	opts       Options

	slugs    *slugRegistry
	registry *taskRegistry
}

// NewMigrator wires an orchestrator. ledger may be nil.
func NewMigrator(remote Remote, src PageSource, resolver FolderResolver, rewriter AssetRewriter, index *dedupe.Index, ledger FailureRecorder, opts Options) *Migrator {
	return &Migrator{
		remote:     remote,
		src:        src,
		resolver:   resolver,
		rewriter:   rewriter,
		classifier: content.NewClassifier(),
		index:      index,
		ledger:     ledger,
		opts:       opts.withDefaults(),
		slugs:      newSlugRegistry(),
		registry:   &taskRegistry{},
	}
}

// lookupResult carries the parallel pre-flight lookups for one task.
type lookupResult struct {
	journalFolderID int64
	docFolderID     int64
	docFolderErr    error
	existing        *liferay.StructuredContent
}

// lookup resolves both folder trees in parallel, then searches for an
// existing record inside the resolved content folder. Only the journal
// folder is load bearing; a failed document folder disables asset
// placement, not the migration.
func (m *Migrator) lookup(ctx context.Context, task tasks.Task) (lookupResult, error) {
	var res lookupResult
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		id, err := m.resolver.Resolve(gctx, liferay.FolderKindJournal, task.Hierarchy, task.Title)
		if err != nil {
			return fmt.Errorf("resolve content folder: %w", err)
		}
		res.journalFolderID = id
		return nil
	})
	g.Go(func() error {
		id, err := m.resolver.Resolve(gctx, liferay.FolderKindDocument, task.Hierarchy, task.Title)
		res.docFolderID, res.docFolderErr = id, err
		return nil
	})
	if err := g.Wait(); err != nil {
		return lookupResult{}, err
	}

	// The title match is scoped to the content folder; a same-titled
	// record elsewhere on the site must not shadow this page.
	found, err := m.remote.SearchStructuredContents(ctx, res.journalFolderID, task.Title)
	if err != nil && !errors.Is(err, liferay.ErrNotFound) {
		return lookupResult{}, fmt.Errorf("search existing content: %w", err)
	}
	for i := range found {
		if strings.EqualFold(found[i].Title, task.Title) {
			res.existing = &found[i]
			break
		}
	}
	return res, nil
}

// migrateTask runs the full state machine for one page.
func (m *Migrator) migrateTask(ctx context.Context, task tasks.Task, stats *Stats) error {
	lookup, err := m.lookup(ctx, task)
	if err != nil {
		return err
	}
	if lookup.docFolderErr != nil {
		m.opts.Logf("document folder for %q unavailable, assets go to site scope: %v", task.Title, lookup.docFolderErr)
	}

	if lookup.existing != nil {
		m.opts.Logf("reusing existing article %s for %q", lookup.existing.Key, task.Title)
		m.scheduleAssociation(task, lookup.existing.Key, 0, stats)
		stats.addReused()
		return nil
	}

	html, err := m.src.FetchPage(ctx, task.SourceURL)
	if err != nil {
		return fmt.Errorf("fetch page: %w", err)
	}
	fragment, err := source.ExtractMainContent(html)
	if err != nil {
		return fmt.Errorf("extract content: %w", err)
	}
	cleaned, err := source.CleanContent(fragment)
	if err != nil {
		return fmt.Errorf("clean content: %w", err)
	}

	normalized := dedupe.NormalizeText(cleaned)
	if key, found, err := m.index.FindByText(normalized); err == nil && found {
		m.opts.Logf("body of %q matches already migrated article %s", task.Title, key)
		m.scheduleAssociation(task, key, 0, stats)
		stats.addReused()
		return nil
	}

	shape, err := m.classifier.Classify(cleaned)
	if err != nil {
		return fmt.Errorf("classify content: %w", err)
	}
	sections, err := content.Decompose(cleaned, shape)
	if err != nil {
		return fmt.Errorf("decompose content: %w", err)
	}

	var keys []string
	created := 0
	for i, section := range sections {
		record, n, err := m.createSection(ctx, task, section, lookup, sectionTitle(task, section, i, len(sections)))
		if err != nil {
			return err
		}
		created += n
		keys = append(keys, record.Key)
	}

	if len(keys) > 0 {
		m.index.Add(keys[0], task.Title, normalized)
	}
	// Each record of the decomposition takes the portlet slot matching
	// its section order.
	for slot, key := range keys {
		m.scheduleAssociation(task, key, slot, stats)
	}
	stats.addMigrated(created)
	return nil
}

// sectionTitle names one record. Plain sections take the page title;
// repeats get an ordinal so titles stay unique.
func sectionTitle(task tasks.Task, section content.Section, index, total int) string {
	title := strings.TrimSpace(section.Title)
	if title == "" || section.Type == content.SectionPlain {
		title = task.Title
	}
	if section.Type == content.SectionPlain && total > 1 && index > 0 {
		title = fmt.Sprintf("%s (%d)", title, index+1)
	}
	return title
}

// createSection persists one section, creating its children first so the
// parent can reference their keys. Returns the created record and how
// many records the subtree produced.
func (m *Migrator) createSection(ctx context.Context, task tasks.Task, section content.Section, lookup lookupResult, title string) (liferay.StructuredContent, int, error) {
	var childKeys []string
	created := 0
	for _, child := range section.Children {
		record, n, err := m.createSection(ctx, task, child, lookup, child.Title)
		if err != nil {
			return liferay.StructuredContent{}, created, err
		}
		childKeys = append(childKeys, record.Key)
		created += n
	}

	// Panels and tabs rewrite inline; the plain body is patched after
	// creation so a slow asset cannot hold up the record.
	body := section.HTML
	if section.Type != content.SectionPlain {
		rewritten, err := m.rewriter.Rewrite(ctx, body, lookup.docFolderID, task.SourceURL)
		if err == nil {
			body = rewritten
		} else {
			m.opts.Logf("asset rewrite for %q failed, keeping original references: %v", title, err)
		}
	}
	section.HTML = body

	input := liferay.ContentInput{
		StructureID: m.opts.structureID(section.Type),
		FolderID:    lookup.journalFolderID,
		Title:       title,
		Fields:      contentFields(section, childKeys),
	}

	record, err := m.createWithSlug(ctx, input)
	if err != nil {
		return liferay.StructuredContent{}, created, fmt.Errorf("create record %q: %w", title, err)
	}
	created++

	if section.Type == content.SectionPlain {
		rewritten, err := m.rewriter.Rewrite(ctx, section.HTML, lookup.docFolderID, task.SourceURL)
		if err != nil {
			m.opts.Logf("asset rewrite for %q failed, keeping original references: %v", title, err)
		} else if rewritten != section.HTML {
			patch := []liferay.ContentField{{Name: "content", Data: rewritten}}
			if err := m.remote.PatchStructuredContent(ctx, record.ID, patch); err != nil {
				m.opts.Logf("patch rewritten body of %q: %v", title, err)
			}
		}
	}
	return record, created, nil
}

// createWithSlug claims slug variants until creation stops conflicting.
func (m *Migrator) createWithSlug(ctx context.Context, input liferay.ContentInput) (liferay.StructuredContent, error) {
	base := Slugify(input.Title)
	var lastErr error
	for attempt := 0; attempt <= slugConflictRetries; attempt++ {
		input.FriendlyURLPath = m.slugs.Claim(base)
		record, err := m.remote.CreateStructuredContent(ctx, input)
		if err == nil {
			return record, nil
		}
		if !liferay.IsConflict(err) {
			return liferay.StructuredContent{}, err
		}
		lastErr = err
	}
	return liferay.StructuredContent{}, lastErr
}

// scheduleAssociation points one of the destination page's journal
// portlet slots at the article in a tracked background goroutine.
// Association failures never fail the page.
func (m *Migrator) scheduleAssociation(task tasks.Task, articleKey string, slot int, stats *Stats) {
	term := strings.TrimSpace(task.DestinationIdentifier)
	if term == "" {
		term = task.Title
	}
	m.registry.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.opts.AssociationTimeout)
		defer cancel()
		err := m.associate(ctx, term, articleKey, slot)
		if err != nil {
			m.opts.Logf("associate article %s with page %q slot %d: %v", articleKey, term, slot, err)
		}
		stats.addAssociation(err)
	})
}

func (m *Migrator) associate(ctx context.Context, term, articleKey string, slot int) error {
	pages, err := m.remote.SearchSitePages(ctx, term)
	if err != nil {
		return fmt.Errorf("search site pages: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no site page matches %q", term)
	}
	page := pages[0]
	for i := range pages {
		if strings.EqualFold(pages[i].Title, term) || strings.EqualFold(pages[i].FriendlyURLPath, "/"+Slugify(term)) {
			page = pages[i]
			break
		}
	}

	var portletIDs []string
	if rendered, err := m.remote.GetRenderedPage(ctx, page.FriendlyURLPath); err == nil {
		portletIDs = parsePortletIDs(rendered)
	}
	portletID := DefaultPortletID
	if slot >= 0 && slot < len(portletIDs) {
		portletID = portletIDs[slot]
	}

	return m.remote.AssociateArticle(ctx, liferay.AssociationInput{
		Plid:       page.ID,
		PortletID:  portletID,
		ArticleKey: articleKey,
	})
}
