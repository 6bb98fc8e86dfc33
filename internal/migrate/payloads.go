package migrate

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/content"
	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/liferay"
)

// DefaultPortletID is the journal content portlet instance used when
// the destination page does not expose one.
const DefaultPortletID = "com_liferay_journal_content_web_portlet_JournalContentPortlet_INSTANCE_JournalCont_"

const journalPortletIDPrefix = "p_p_id_com_liferay_journal_content_web_portlet_JournalContentPortlet"

// contentFields builds the structure payload for one section. Child
// article keys arrive already created and are attached as repeated
// nested_article fields.
func contentFields(section content.Section, childKeys []string) []liferay.ContentField {
	switch section.Type {
	case content.SectionPanel:
		nested := []liferay.ContentField{
			{Name: "collapse_title", Data: section.Title},
			{
				Name:  "collapse_collor",
				Data:  content.PortugueseColor(section.Color),
				Value: section.Color,
			},
			{Name: "collapse_content", Data: section.HTML},
		}
		for _, key := range childKeys {
			nested = append(nested, liferay.ContentField{Name: "nested_article", Data: key})
		}
		return []liferay.ContentField{{Name: "collapse", Nested: nested}}

	case content.SectionTab:
		return []liferay.ContentField{{
			Name: "Tab",
			Nested: []liferay.ContentField{
				{Name: "tab_title", Data: section.Title},
				{Name: "tab_color", Data: content.PortugueseColor(section.Color), Value: section.Color},
				{Name: "tab_btn_color", Data: content.PortugueseColor(section.Color), Value: section.Color},
				{Name: "content", Data: section.HTML},
			},
		}}

	default:
		return []liferay.ContentField{{Name: "content", Data: section.HTML}}
	}
}

// structureID picks the structure for a section type.
func (o Options) structureID(t content.SectionType) int64 {
	switch t {
	case content.SectionPanel:
		return o.CollapseStructureID
	case content.SectionTab:
		return o.TabStructureID
	default:
		return o.ContentStructureID
	}
}

// parsePortletIDs finds the journal content portlet instance ids of a
// rendered page in document order. Element ids look like
// "p_p_id_<portlet>_INSTANCE_x_"; the wrapper prefix and trailing
// underscore are stripped.
func parsePortletIDs(renderedHTML string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(renderedHTML))
	if err != nil {
		return nil
	}
	var found []string
	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		if !strings.HasPrefix(id, journalPortletIDPrefix) {
			return
		}
		found = append(found, strings.TrimSuffix(strings.TrimPrefix(id, "p_p_id_"), "_"))
	})
	return found
}
