// Package assets migrates legacy files and images into Liferay document
// folders, deduplicating by filename and by source URL.
package assets

import (
	"net/url"
	"path"
	"strings"
)

const maxFilenameLength = 240

var invalidFilenameChars = `<>:"/\|?*`

// knownExtensions are the legacy upload extensions, longest first so
// CleanDocumentURL cuts at the right place.
var knownExtensions = []string{
	".docx", ".xlsx", ".pptx",
	".doc", ".xls", ".ppt",
	".pdf", ".odt", ".ods", ".odp",
	".jpeg", ".jpg", ".png", ".gif", ".webp", ".svg",
	".zip", ".rar", ".csv", ".txt", ".xml", ".mp3", ".mp4",
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// officeAliases maps modern Office extensions to the legacy ones the
// destination may already hold.
var officeAliases = map[string]string{
	".docx": ".doc",
	".xlsx": ".xls",
	".pptx": ".ppt",
}

// SanitizeFilename makes a name acceptable to the document repository:
// percent-decoding, invalid characters replaced and length capped.
func SanitizeFilename(name string) string {
	if decoded, err := url.QueryUnescape(name); err == nil {
		name = decoded
	}
	name = strings.TrimSpace(name)
	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || strings.ContainsRune(invalidFilenameChars, r) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	name = b.String()
	if len(name) > maxFilenameLength {
		ext := path.Ext(name)
		if len(ext) < maxFilenameLength {
			name = name[:maxFilenameLength-len(ext)] + ext
		} else {
			name = name[:maxFilenameLength]
		}
	}
	return name
}

// CleanDocumentURL truncates a URL at the first known file extension,
// dropping trailing garbage the legacy CMS appends. Idempotent.
func CleanDocumentURL(raw string) string {
	lower := strings.ToLower(raw)
	cut := -1
	for _, ext := range knownExtensions {
		idx := strings.Index(lower, ext)
		if idx < 0 {
			continue
		}
		end := idx + len(ext)
		if cut == -1 || end < cut {
			cut = end
		}
	}
	if cut == -1 {
		return raw
	}
	return raw[:cut]
}

// SearchVariants lists the filenames to try when looking for an already
// migrated document: the sanitized name plus its Office extension
// aliases in both directions.
func SearchVariants(filename string) []string {
	variants := []string{filename}
	ext := strings.ToLower(path.Ext(filename))
	base := strings.TrimSuffix(filename, path.Ext(filename))

	if alias, ok := officeAliases[ext]; ok {
		variants = append(variants, base+alias)
	}
	for modern, legacy := range officeAliases {
		if ext == legacy {
			variants = append(variants, base+modern)
		}
	}
	return variants
}

// Eligible reports whether a URL points at a migratable legacy asset.
// Only upload-area paths and recognized image extensions qualify, and
// external registry links never do.
func Eligible(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return false
	}
	if strings.Contains(lower, "sinj") {
		return false
	}

	if strings.Contains(lower, "/wp-content") ||
		strings.Contains(lower, "/wp-conteudo") ||
		strings.Contains(lower, ".df.gov.br/wp-") ||
		strings.Contains(lower, "/uploads/") {
		return true
	}

	cleaned := CleanDocumentURL(lower)
	return imageExtensions[path.Ext(cleaned)]
}

// FilenameFromURL extracts and sanitizes the file name of an asset URL.
func FilenameFromURL(raw string) string {
	cleaned := CleanDocumentURL(raw)
	if u, err := url.Parse(cleaned); err == nil && u.Path != "" {
		cleaned = u.Path
	}
	return SanitizeFilename(path.Base(cleaned))
}
