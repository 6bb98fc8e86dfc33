package source

import (
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// contentSelectors is the cascade of containers that hold a legacy page's
// main content, tried in order.
var contentSelectors = []string{
	"#conteudo",
	".corpo-principal",
	"div.col-md-8.col-md-offset-1.pull-right.col-xs-12",
	"div.col-md-8.col-md-offset-1.pull-right",
	"div.col-md-8.col-md-offset-1",
	"div.col-md-8",
}

var (
	bootstrapClassPattern = regexp.MustCompile(`^(col-\w+-\d+|col-\w+-offset-\d+|row|container|container-fluid|offset-.*|pull-.*|push-.*|col-xs-.*)$`)
	datePattern           = regexp.MustCompile(`\d{2}/\d{2}/\d{2}\s+às\s+\d{2}h\d{2}`)
	emailHrefPattern      = regexp.MustCompile(`^/[^/]+@[^/]+`)
	emptyTextPattern      = regexp.MustCompile(`^\s*(&nbsp;|\x{00a0})?\s*$`)
)

// ErrNoMainContent indicates none of the known containers matched.
var ErrNoMainContent = errors.New("no main content container found")

// ExtractMainContent selects the main content container of a legacy page.
// Pages matched by a grid-class selector lose their first heading, which
// duplicates the page title.
func ExtractMainContent(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	for i, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		// Index 0 is the #conteudo id selector; the rest are class based.
		if i > 0 {
			sel.Find("h1, h2, h3, h4").First().Remove()
		}
		out, err := goquery.OuterHtml(sel)
		if err != nil {
			return "", err
		}
		return out, nil
	}
	return "", ErrNoMainContent
}

// CleanContent removes publication dates, empty paragraphs, spacer divs and
// presentational image attributes, fixes bare e-mail hrefs and strips
// bootstrap grid classes from the root div.
func CleanContent(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	body := doc.Find("body")

	body.Find("div[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		if strings.Contains(style, "font-size:14px") && datePattern.MatchString(s.Text()) {
			s.Remove()
		}
	})

	body.Find("p").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() == 0 && emptyTextPattern.MatchString(s.Text()) {
			s.Remove()
		}
	})

	body.Find("div.margin-top-20").Remove()

	body.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if emailHrefPattern.MatchString(href) {
			s.SetAttr("href", "mailto:"+strings.TrimPrefix(href, "/"))
		}
	})

	for _, attr := range []string{"srcset", "sizes", "loading", "fetchpriority", "decoding"} {
		body.Find("img[" + attr + "]").RemoveAttr(attr)
	}

	stripBootstrapClasses(body.Children().First())

	return body.Html()
}

// stripBootstrapClasses removes grid classes from the root div so the
// migrated fragment does not inherit the legacy page layout.
func stripBootstrapClasses(root *goquery.Selection) {
	if root.Length() == 0 || !root.Is("div") {
		return
	}
	classes, ok := root.Attr("class")
	if !ok {
		return
	}
	kept := make([]string, 0)
	for _, class := range strings.Fields(classes) {
		if bootstrapClassPattern.MatchString(class) {
			continue
		}
		kept = append(kept, class)
	}
	if len(kept) == 0 {
		root.RemoveAttr("class")
		return
	}
	root.SetAttr("class", strings.Join(kept, " "))
}
