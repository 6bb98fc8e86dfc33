package migrate

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9]+`)
	slugHyphens  = regexp.MustCompile(`-{2,}`)
	slugFoldForm = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slugify turns a title into a friendly URL path segment.
func Slugify(title string) string {
	folded, _, err := transform.String(slugFoldForm, strings.TrimSpace(title))
	if err != nil {
		folded = title
	}
	slug := strings.ToLower(folded)
	slug = slugInvalid.ReplaceAllString(slug, "-")
	slug = slugHyphens.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "conteudo"
	}
	return slug
}

// slugRegistry hands out unique slugs within one run, appending -2, -3
// and so on for repeats.
type slugRegistry struct {
	mu   sync.Mutex
	used map[string]int
}

func newSlugRegistry() *slugRegistry {
	return &slugRegistry{used: make(map[string]int)}
}

// Claim returns the next free variant of the slug.
func (r *slugRegistry) Claim(slug string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.used[slug]
	r.used[slug] = n + 1
	if n == 0 {
		return slug
	}
	return fmt.Sprintf("%s-%d", slug, n+1)
}
