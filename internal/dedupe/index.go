// Package dedupe keeps an in-memory index of migrated article bodies so
// pages with identical text reuse the existing article instead of
// creating a duplicate.
package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
)

type entry struct {
	Hash  string `json:"hash"`
	Title string `json:"title"`
}

// Index maps normalized body text to article keys. Safe for concurrent
// use.
type Index struct {
	mu    sync.Mutex
	index bleve.Index
}

// NewIndex creates an empty in-memory index.
func NewIndex() (*Index, error) {
	hashField := bleve.NewTextFieldMapping()
	hashField.Analyzer = keyword.Name
	hashField.Store = true

	titleField := bleve.NewTextFieldMapping()
	titleField.Store = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("hash", hashField)
	doc.AddFieldMappingsAt("title", titleField)

	mapping := bleve.NewIndexMapping()
	mapping.DefaultMapping = doc

	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("create dedupe index: %w", err)
	}
	return &Index{index: idx}, nil
}

// Add registers an article's normalized body under its key.
func (i *Index) Add(articleKey, title, normalizedText string) error {
	if strings.TrimSpace(normalizedText) == "" {
		return nil
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.index.Index(articleKey, entry{Hash: hashText(normalizedText), Title: title})
}

// FindByText returns the key of an article whose body matches the
// normalized text exactly.
func (i *Index) FindByText(normalizedText string) (string, bool, error) {
	if strings.TrimSpace(normalizedText) == "" {
		return "", false, nil
	}
	q := bleve.NewTermQuery(hashText(normalizedText))
	q.SetField("hash")
	req := bleve.NewSearchRequest(q)
	req.Size = 1

	i.mu.Lock()
	res, err := i.index.Search(req)
	i.mu.Unlock()
	if err != nil {
		return "", false, fmt.Errorf("search dedupe index: %w", err)
	}
	if len(res.Hits) == 0 {
		return "", false, nil
	}
	return res.Hits[0].ID, true, nil
}

// Close releases the index.
func (i *Index) Close() error {
	return i.index.Close()
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

var whitespace = strings.NewReplacer("\u00a0", " ")

// NormalizeText folds an HTML fragment down to comparable text: tags
// stripped, whitespace collapsed, lowercased.
func NormalizeText(html string) string {
	text := html
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		text = doc.Text()
	}
	text = whitespace.Replace(text)
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}
