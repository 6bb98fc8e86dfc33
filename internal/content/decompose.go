package content

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SectionType distinguishes the record kinds a decomposition produces.
type SectionType string

const (
	SectionPlain SectionType = "plain"
	SectionPanel SectionType = "panel"
	SectionTab   SectionType = "tab"
)

// Section is one ordered decomposition unit. Panel sections may carry child
// sections extracted from nested accordions; a parent's HTML never contains
// its children's markup, and children are persisted before their parent.
type Section struct {
	Type     SectionType
	Title    string
	Color    string
	HTML     string
	Children []Section
}

var spacerDivPattern = regexp.MustCompile(`margin-top-\d+`)

// Decompose splits a fragment into ordered sections according to its shape.
// Plain fragments yield exactly one section holding the whole body.
func Decompose(html string, shape Shape) ([]Section, error) {
	switch shape {
	case ShapeTabbed:
		return decomposeTabs(html)
	case ShapeCollapsible, ShapeMixed:
		return decomposePanels(html)
	default:
		return []Section{{Type: SectionPlain, HTML: html}}, nil
	}
}

// decomposeTabs emits one section per tab, pairing each strip entry with
// its pane by href fragment. Entries without a pane are skipped.
func decomposeTabs(html string) ([]Section, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	strip := doc.Find("ul.nav-tabs").First()
	panes := doc.Find("div.tab-content").First()
	if strip.Length() == 0 || panes.Length() == 0 {
		return nil, fmt.Errorf("tabbed fragment missing tab strip or tab content")
	}

	var sections []Section
	strip.Find("li").Each(func(_ int, li *goquery.Selection) {
		link := li.Find("a").First()
		if link.Length() == 0 {
			return
		}
		paneID := strings.TrimPrefix(strings.TrimSpace(link.AttrOr("href", "")), "#")
		if paneID == "" {
			paneID = strings.TrimSpace(link.AttrOr("aria-controls", ""))
		}
		if paneID == "" {
			return
		}
		pane := panes.Find("div#" + paneID).First()
		if pane.Length() == 0 {
			return
		}

		title := strings.TrimSpace(link.Text())
		if title == "" {
			title = "Seção"
		}
		color := tabColor(link)

		sanitizeAttributes(pane)
		paneHTML, err := goquery.OuterHtml(pane)
		if err != nil {
			return
		}
		sections = append(sections, Section{
			Type:  SectionTab,
			Title: title,
			Color: color,
			HTML:  paneHTML,
		})
	})

	if len(sections) == 0 {
		return nil, fmt.Errorf("tabbed fragment produced no sections")
	}
	return sections, nil
}

func tabColor(link *goquery.Selection) string {
	style := strings.ToLower(link.AttrOr("style", ""))
	if strings.Contains(style, "background") {
		switch {
		case strings.Contains(style, "gray"), strings.Contains(style, "grey"):
			return ColorGray
		case strings.Contains(style, "green"):
			return ColorGreen
		case strings.Contains(style, "red"):
			return ColorRed
		}
	}
	return ColorBlue
}

// decomposePanels splits a collapsible or mixed fragment into a leading
// plain section, one section per panel, and a trailing plain section.
func decomposePanels(html string) ([]Section, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	body := doc.Find("body")

	// The cleaned fragment is usually one wrapper div; walk inside it so
	// content before and after the panels is not swallowed with them.
	root := body
	if children := body.Children(); children.Length() == 1 {
		only := children.First()
		if !only.Is(panelSelector) && !only.Is(`button[data-toggle="collapse"]`) {
			root = only
		}
	}

	// Panes consumed by a collapse button must not reappear as plain
	// sections when walked as siblings.
	consumedPanes := make(map[string]bool)
	for _, bc := range collapseButtons(doc) {
		if id, ok := bc.pane.Attr("id"); ok {
			consumedPanes[id] = true
		}
	}

	var leading, trailing []string
	var panelSections []Section
	seenPanel := false

	flushChild := func(child *goquery.Selection) error {
		childPanels := panelsWithin(child)
		buttons := buttonCollapsesWithin(doc, child)

		if len(childPanels) == 0 && len(buttons) == 0 {
			if !meaningfulNode(child) {
				return nil
			}
			outer, err := goquery.OuterHtml(child)
			if err != nil {
				return err
			}
			if seenPanel {
				trailing = append(trailing, outer)
			} else {
				leading = append(leading, outer)
			}
			return nil
		}

		for _, panel := range childPanels {
			section, err := buildPanelSection(panel)
			if err != nil {
				return err
			}
			if section != nil {
				panelSections = append(panelSections, *section)
			}
		}
		for _, bc := range buttons {
			section, err := buildButtonSection(bc)
			if err != nil {
				return err
			}
			if section != nil {
				panelSections = append(panelSections, *section)
			}
		}
		seenPanel = true
		return nil
	}

	var walkErr error
	root.Children().Each(func(_ int, child *goquery.Selection) {
		if walkErr != nil {
			return
		}
		if id, ok := child.Attr("id"); ok && consumedPanes[id] {
			return
		}
		walkErr = flushChild(child)
	})
	if walkErr != nil {
		return nil, walkErr
	}

	var sections []Section
	if len(leading) > 0 {
		sections = append(sections, Section{Type: SectionPlain, HTML: strings.Join(leading, "")})
	}
	sections = append(sections, panelSections...)
	if len(trailing) > 0 {
		sections = append(sections, Section{Type: SectionPlain, HTML: strings.Join(trailing, "")})
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("fragment produced no sections")
	}
	return sections, nil
}

func panelsWithin(sel *goquery.Selection) []*goquery.Selection {
	var out []*goquery.Selection
	if sel.Is(panelSelector) && isAccordion(sel) {
		return []*goquery.Selection{sel}
	}
	sel.Find(panelSelector).Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(panelSelector).Length() > 0 {
			return
		}
		if isAccordion(s) {
			out = append(out, s)
		}
	})
	return out
}

func buttonCollapsesWithin(doc *goquery.Document, sel *goquery.Selection) []buttonCollapse {
	var out []buttonCollapse
	buttons := sel.Find(`button[data-toggle="collapse"]`)
	if sel.Is(`button[data-toggle="collapse"]`) {
		buttons = buttons.AddSelection(sel)
	}
	buttons.Each(func(_ int, s *goquery.Selection) {
		target := strings.TrimPrefix(strings.TrimSpace(s.AttrOr("data-target", "")), "#")
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

// meaningfulNode reports whether a top-level node carries content worth a
// plain section. Whitespace, non-breaking spaces and spacer divs do not.
func meaningfulNode(sel *goquery.Selection) bool {
	if class := sel.AttrOr("class", ""); spacerDivPattern.MatchString(class) {
		return false
	}
	if sel.Find("img, table, iframe").Length() > 0 {
		return true
	}
	text := strings.ReplaceAll(sel.Text(), "\u00a0", " ")
	return strings.TrimSpace(text) != ""
}

// buildPanelSection turns one accordion panel into a section, extracting
// nested panels into child sections first.
func buildPanelSection(panel *goquery.Selection) (*Section, error) {
	heading := panel.Find("div.panel-heading").First()
	colorSource := heading
	if colorSource.Length() == 0 {
		colorSource = panel
	}
	color := panelColor(colorSource)

	var title string
	if heading.Length() > 0 {
		title = panelTitle(heading)
	} else {
		title = panelTitle(panel)
	}

	panelBody := panel.Find("div.panel-collapse div.panel-body").First()
	if panelBody.Length() == 0 {
		panelBody = panel.Find("div.panel-body").First()
	}
	if panelBody.Length() == 0 {
		return nil, nil
	}

	sanitizeAttributes(panelBody)
	bodyHTML, err := goquery.OuterHtml(panelBody)
	if err != nil {
		return nil, err
	}

	remaining, children, err := ExtractNestedPanels(bodyHTML, title)
	if err != nil {
		return nil, err
	}

	return &Section{
		Type:     SectionPanel,
		Title:    title,
		Color:    color,
		HTML:     remaining,
		Children: children,
	}, nil
}

func buildButtonSection(bc buttonCollapse) (*Section, error) {
	title := strings.TrimSpace(strings.ReplaceAll(bc.button.Text(), "⇵", ""))
	if title == "" {
		title = "Seção"
	}
	color := panelColor(bc.button)

	container := bc.pane.Find("div.well").First()
	if container.Length() == 0 {
		container = bc.pane
	}
	sanitizeAttributes(container)
	bodyHTML, err := goquery.OuterHtml(container)
	if err != nil {
		return nil, err
	}

	remaining, children, err := ExtractNestedPanels(bodyHTML, title)
	if err != nil {
		return nil, err
	}

	return &Section{
		Type:     SectionPanel,
		Title:    title,
		Color:    color,
		HTML:     remaining,
		Children: children,
	}, nil
}

// ExtractNestedPanels pulls accordion panels out of a panel body and
// returns the body without them plus one child section per nested panel,
// titled "{parent} - {child}". The input string is never mutated; callers
// get a rebuilt fragment.
func ExtractNestedPanels(bodyHTML, parentTitle string) (string, []Section, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(bodyHTML))
	if err != nil {
		return "", nil, err
	}
	body := doc.Find("body")

	nested := accordionPanels(body)
	if len(nested) == 0 {
		return bodyHTML, nil, nil
	}

	var children []Section
	for _, panel := range nested {
		section, err := buildPanelSection(panel)
		if err != nil {
			return "", nil, err
		}
		if section == nil {
			continue
		}
		section.Title = fmt.Sprintf("%s - %s", parentTitle, section.Title)
		children = append(children, *section)
	}
	for _, panel := range nested {
		panel.Remove()
	}

	remaining, err := body.Html()
	if err != nil {
		return "", nil, err
	}
	return remaining, children, nil
}
