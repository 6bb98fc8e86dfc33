// Package rewrite walks migrated HTML and swaps legacy asset references
// for their Liferay document URLs.
package rewrite

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// AssetMigrator migrates one asset and returns its destination URL.
// Migrate must be safe for concurrent use.
type AssetMigrator interface {
	Eligible(rawURL string) bool
	Migrate(ctx context.Context, rawURL string, folderID int64, pageURL string) (string, error)
}

var cssURLPattern = regexp.MustCompile(`url\(\s*['"]?([^'")]+)['"]?\s*\)`)

// presentational image attributes dropped after srcset candidates have
// been consulted.
var droppedImgAttrs = []string{"srcset", "sizes", "loading", "fetchpriority", "decoding"}

// Rewriter replaces asset references inside a fragment. A failed asset
// keeps its original reference so the page still renders.
type Rewriter struct {
	migrator     AssetMigrator
	sourceDomain string
}

// New creates a rewriter. sourceDomain, when set, turns same-domain
// absolute URLs into root-relative ones even when the asset itself is
// not migrated.
func New(migrator AssetMigrator, sourceDomain string) *Rewriter {
	return &Rewriter{migrator: migrator, sourceDomain: strings.TrimSpace(sourceDomain)}
}

// Rewrite processes the fragment in document order and returns the
// rewritten HTML. folderID is the destination document folder; zero
// means site scope.
func (r *Rewriter) Rewrite(ctx context.Context, html string, folderID int64, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	body := doc.Find("body")

	rewriteAttr := func(sel *goquery.Selection, attr string) {
		raw, ok := sel.Attr(attr)
		if !ok {
			return
		}
		sel.SetAttr(attr, r.rewriteURL(ctx, raw, folderID, pageURL))
	}

	body.Find("a[href]").Each(func(_ int, s *goquery.Selection) { rewriteAttr(s, "href") })
	body.Find("img").Each(func(_ int, s *goquery.Selection) {
		rewriteAttr(s, "src")
		rewriteAttr(s, "data-src")
		if srcset, ok := s.Attr("srcset"); ok {
			// The largest candidate may be the only working source.
			if candidate := bestSrcsetCandidate(srcset); candidate != "" {
				if _, hasSrc := s.Attr("src"); !hasSrc {
					s.SetAttr("src", r.rewriteURL(ctx, candidate, folderID, pageURL))
				}
			}
		}
		for _, attr := range droppedImgAttrs {
			s.RemoveAttr(attr)
		}
	})
	body.Find("link[href]").Each(func(_ int, s *goquery.Selection) { rewriteAttr(s, "href") })
	body.Find("script[src]").Each(func(_ int, s *goquery.Selection) { rewriteAttr(s, "src") })

	body.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		if !strings.Contains(style, "url(") {
			return
		}
		rewritten := cssURLPattern.ReplaceAllStringFunc(style, func(match string) string {
			groups := cssURLPattern.FindStringSubmatch(match)
			if len(groups) < 2 {
				return match
			}
			return "url('" + r.rewriteURL(ctx, groups[1], folderID, pageURL) + "')"
		})
		s.SetAttr("style", rewritten)
	})

	return body.Html()
}

// rewriteURL resolves one reference. Migration failures fall through to
// the same-domain relativization so the original target stays reachable.
func (r *Rewriter) rewriteURL(ctx context.Context, raw string, folderID int64, pageURL string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "mailto:") || strings.HasPrefix(trimmed, "tel:") || strings.HasPrefix(trimmed, "javascript:") || strings.HasPrefix(trimmed, "data:") {
		return raw
	}

	if r.migrator != nil && r.migrator.Eligible(trimmed) {
		migrated, err := r.migrator.Migrate(ctx, trimmed, folderID, pageURL)
		if err == nil && migrated != "" {
			return migrated
		}
	}
	return r.relativize(trimmed)
}

// relativize strips the scheme and host from same-domain absolute URLs.
func (r *Rewriter) relativize(raw string) string {
	if r.sourceDomain == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if !strings.EqualFold(u.Host, r.sourceDomain) {
		return raw
	}
	out := u.Path
	if out == "" {
		out = "/"
	}
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		out += "#" + u.Fragment
	}
	return out
}

// bestSrcsetCandidate returns the URL of the widest srcset entry.
func bestSrcsetCandidate(srcset string) string {
	best := ""
	bestWidth := -1
	for _, entry := range strings.Split(srcset, ",") {
		fields := strings.Fields(strings.TrimSpace(entry))
		if len(fields) == 0 {
			continue
		}
		width := 0
		if len(fields) > 1 {
			descriptor := fields[1]
			if strings.HasSuffix(descriptor, "w") {
				for _, ch := range strings.TrimSuffix(descriptor, "w") {
					if ch < '0' || ch > '9' {
						width = 0
						break
					}
					width = width*10 + int(ch-'0')
				}
			}
		}
		if width > bestWidth {
			bestWidth = width
			best = fields[0]
		}
	}
	return best
}
