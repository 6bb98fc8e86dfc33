package liferay

// FolderKind selects between the two folder trees Liferay keeps per site.
type FolderKind string

const (
	// FolderKindJournal is the structured-content (web content) folder tree.
	FolderKindJournal FolderKind = "journal"
	// FolderKindDocument is the documents-and-media folder tree.
	FolderKindDocument FolderKind = "document"
)

func (k FolderKind) basePath() string {
	if k == FolderKindDocument {
		return "document-folders"
	}
	return "structured-content-folders"
}

// Folder is a structured-content or document folder.
type Folder struct {
	ID       int64
	Name     string
	ParentID int64
}

// FolderListResult is one page of a folder listing.
type FolderListResult struct {
	Folders    []Folder
	Page       int
	PageSize   int
	TotalCount int
}

// HasMore reports whether another page exists after this one.
func (r FolderListResult) HasMore() bool {
	if r.PageSize <= 0 {
		return false
	}
	return r.Page*r.PageSize < r.TotalCount
}

// Document is a documents-and-media entry.
type Document struct {
	ID         int64
	Title      string
	FileName   string
	ContentURL string
}

// StructuredContent is a created (or found) web content record.
type StructuredContent struct {
	ID              int64
	Key             string
	Title           string
	FriendlyURLPath string
}

// ContentField is one contentFields entry of a structured content payload.
// Nested groups (collapse panels, tabs) carry child fields and usually no
// value of their own.
type ContentField struct {
	Name   string
	Data   string
	Value  string
	Nested []ContentField
}

func (f ContentField) payload() map[string]any {
	out := map[string]any{"name": f.Name}
	if f.Data != "" || f.Value != "" || len(f.Nested) == 0 {
		value := map[string]any{"data": f.Data}
		if f.Value != "" {
			value["value"] = f.Value
		}
		out["contentFieldValue"] = value
	}
	if len(f.Nested) > 0 {
		nested := make([]map[string]any, 0, len(f.Nested))
		for _, child := range f.Nested {
			nested = append(nested, child.payload())
		}
		out["nestedContentFields"] = nested
	}
	return out
}

// ContentInput is the payload for creating a structured content record.
type ContentInput struct {
	StructureID     int64
	FolderID        int64
	Title           string
	FriendlyURLPath string
	Fields          []ContentField
}

// DocumentUploadInput is the payload for a multipart document upload.
// FolderID zero uploads at site scope.
type DocumentUploadInput struct {
	FolderID    int64
	Filename    string
	ContentType string
	Data        []byte
	Description string
}

// SitePage is a site page as returned by the site-pages listing.
type SitePage struct {
	ID              int64
	Title           string
	FriendlyURLPath string
}

// AssociationInput identifies one journal-content portlet association.
type AssociationInput struct {
	Plid       int64
	PortletID  string
	ArticleKey string
}

type listResponse[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}

// The parent folder key differs between the two trees, so the parent is
// filled in from the listing scope instead of the response body.
type folderDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (f folderDTO) toModel(parentID int64) Folder {
	return Folder{
		ID:       f.ID,
		Name:     f.Name,
		ParentID: parentID,
	}
}

type documentDTO struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	FileName   string `json:"fileName"`
	ContentURL string `json:"contentUrl"`
}

func (d documentDTO) toModel() Document {
	return Document{
		ID:         d.ID,
		Title:      d.Title,
		FileName:   d.FileName,
		ContentURL: d.ContentURL,
	}
}

type structuredContentDTO struct {
	ID              int64  `json:"id"`
	Key             string `json:"key"`
	Title           string `json:"title"`
	FriendlyURLPath string `json:"friendlyUrlPath"`
}

func (s structuredContentDTO) toModel() StructuredContent {
	return StructuredContent{
		ID:              s.ID,
		Key:             s.Key,
		Title:           s.Title,
		FriendlyURLPath: s.FriendlyURLPath,
	}
}

type sitePageDTO struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	FriendlyURLPath string `json:"friendlyUrlPath"`
}

func (p sitePageDTO) toModel() SitePage {
	return SitePage{
		ID:              p.ID,
		Title:           p.Title,
		FriendlyURLPath: p.FriendlyURLPath,
	}
}

type associationResponse struct {
	Status string `json:"status"`
}
