package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Color tags carried by sections. The Liferay collapse structure stores the
// Portuguese labels; PortugueseColor maps on payload build.
const (
	ColorBlue  = "blue"
	ColorGreen = "green"
	ColorGray  = "gray"
	ColorRed   = "red"
)

// PortugueseColor returns the label the collapse structure expects.
func PortugueseColor(tag string) string {
	switch tag {
	case ColorGreen:
		return "Verde"
	case ColorGray:
		return "Cinza"
	case ColorRed:
		return "Vermelho"
	default:
		return "Azul"
	}
}

// panelColor resolves a color tag from panel/button classes and inline
// background styles. Default is blue.
func panelColor(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ColorBlue
	}

	parentClasses := strings.ToLower(sel.Parent().AttrOr("class", ""))
	if strings.Contains(parentClasses, "panel-success") {
		return ColorGreen
	}
	classes := strings.ToLower(sel.AttrOr("class", ""))
	if strings.Contains(classes, "panel-success") {
		return ColorGreen
	}

	style := strings.ToLower(sel.AttrOr("style", ""))
	if strings.Contains(style, "background") {
		switch {
		case strings.Contains(style, "gray"), strings.Contains(style, "grey"):
			return ColorGray
		case strings.Contains(style, "green"), strings.Contains(style, "#eaf2e9"):
			return ColorGreen
		case strings.Contains(style, "blue"), strings.Contains(style, "azul"):
			return ColorBlue
		}
	}

	switch {
	case strings.Contains(classes, "btn-primary"):
		return ColorBlue
	case strings.Contains(classes, "btn-success"):
		return ColorGreen
	case strings.Contains(classes, "btn-default"), strings.Contains(classes, "btn-secondary"):
		return ColorGray
	case strings.Contains(classes, "btn-danger"), strings.Contains(classes, "btn-warning"):
		return ColorRed
	}
	return ColorBlue
}

// panelTitle extracts a panel's title, preferring the structured title
// element and stripping the decorative arrow glyph.
func panelTitle(heading *goquery.Selection) string {
	title := heading.Find("p.panel-title").First()
	if title.Length() == 0 {
		title = heading.Find("h3, h4, p").First()
	}
	text := strings.TrimSpace(title.Text())
	text = strings.TrimSpace(strings.ReplaceAll(text, "⇵", ""))
	if text == "" {
		return "Seção"
	}
	return text
}

// allowedPanelAttrs is the attribute whitelist for panel body markup.
var allowedPanelAttrs = map[string]bool{
	"src":   true,
	"href":  true,
	"style": true,
	"class": true,
}

// sanitizeAttributes drops every attribute outside the whitelist from the
// selection's descendants.
func sanitizeAttributes(sel *goquery.Selection) {
	sel.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, node := range s.Nodes {
			kept := node.Attr[:0]
			for _, attr := range node.Attr {
				if allowedPanelAttrs[attr.Key] {
					kept = append(kept, attr)
				}
			}
			node.Attr = kept
		}
	})
}
