// Package content classifies cleaned legacy HTML fragments and decomposes
// them into the ordered sections that become structured content records.
package content

import (
	"crypto/sha256"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Shape is the structural classification of a content fragment.
type Shape string

const (
	ShapePlain       Shape = "plain"
	ShapeTabbed      Shape = "tabbed"
	ShapeCollapsible Shape = "collapsible"
	ShapeMixed       Shape = "mixed"
)

const panelSelector = "div.panel, div.panel-default, div.panel-success"

// Classifier decides the shape of a fragment. Results are memoized by
// content hash; the memo is safe for concurrent use.
type Classifier struct {
	mu   sync.Mutex
	memo map[[sha256.Size]byte]Shape
}

// NewClassifier creates a classifier with an empty memo.
func NewClassifier() *Classifier {
	return &Classifier{memo: make(map[[sha256.Size]byte]Shape)}
}

// Classify returns the shape of the fragment. Tabs take precedence over
// panels; panels with sibling content classify as mixed.
func (c *Classifier) Classify(html string) (Shape, error) {
	key := sha256.Sum256([]byte(html))

	c.mu.Lock()
	if shape, ok := c.memo[key]; ok {
		c.mu.Unlock()
		return shape, nil
	}
	c.mu.Unlock()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	shape := classify(doc)

	c.mu.Lock()
	c.memo[key] = shape
	c.mu.Unlock()
	return shape, nil
}

func classify(doc *goquery.Document) Shape {
	if hasTabs(doc) {
		return ShapeTabbed
	}

	panels := accordionPanels(doc.Selection)
	buttons := collapseButtons(doc)
	if len(panels) == 0 && len(buttons) == 0 {
		return ShapePlain
	}

	if hasContentOutsidePanels(doc) {
		return ShapeMixed
	}
	return ShapeCollapsible
}

func hasTabs(doc *goquery.Document) bool {
	strip := doc.Find("ul.nav-tabs").First()
	if strip.Length() == 0 {
		return false
	}
	if strip.Find("li").Length() < 2 {
		return false
	}
	return doc.Find("div.tab-content").Length() > 0
}

// accordionPanels returns top-level panel blocks that exhibit an accordion
// shape: a heading paired with a collapse wrapper or body, or a titled
// header paired with a body.
func accordionPanels(root *goquery.Selection) []*goquery.Selection {
	var out []*goquery.Selection
	root.Find(panelSelector).Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(panelSelector).Length() > 0 {
			return
		}
		if isAccordion(s) {
			out = append(out, s)
		}
	})
	return out
}

func isAccordion(panel *goquery.Selection) bool {
	heading := panel.Find("div.panel-heading").Length() > 0
	collapse := panel.Find("div.panel-collapse").Length() > 0
	body := panel.Find("div.panel-body").Length() > 0
	title := panel.Find(".panel-title").Length() > 0

	if heading && (collapse || body) {
		return true
	}
	return title && body
}

// collapseButtons pairs button[data-toggle=collapse] triggers with their
// target blocks.
func collapseButtons(doc *goquery.Document) []buttonCollapse {
	var out []buttonCollapse
	doc.Find(`button[data-toggle="collapse"]`).Each(func(_ int, s *goquery.Selection) {
		target, _ := s.Attr("data-target")
		target = strings.TrimPrefix(strings.TrimSpace(target), "#")
		if target == "" {
			return
		}
		pane := doc.Find("div#" + target).First()
		if pane.Length() == 0 {
			return
		}
		out = append(out, buttonCollapse{button: s, pane: pane})
	})
	return out
}

type buttonCollapse struct {
	button *goquery.Selection
	pane   *goquery.Selection
}

// hasContentOutsidePanels reports whether meaningful content remains after
// removing every panel block and collapse trigger/target pair.
func hasContentOutsidePanels(doc *goquery.Document) bool {
	html, err := doc.Find("body").Html()
	if err != nil {
		return false
	}
	clone, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	clone.Find(panelSelector).Remove()
	for _, bc := range collapseButtons(clone) {
		bc.pane.Remove()
		bc.button.Remove()
	}
	clone.Find(`button[data-toggle="collapse"]`).Remove()

	if clone.Find("img, table, iframe").Length() > 0 {
		return true
	}
	text := strings.ReplaceAll(clone.Find("body").Text(), "\u00a0", " ")
	return strings.TrimSpace(text) != ""
}
