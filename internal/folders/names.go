// Package folders resolves destination folder hierarchies, creating
// missing levels and caching resolved ids.
package folders

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxJournalFolderName  = 95
	maxDocumentFolderName = 255

	fallbackFolderName = "pasta_sem_nome"
)

// lowercaseWords stay lowercase in Portuguese titles, except as the
// first word.
var lowercaseWords = map[string]bool{
	"de": true, "da": true, "do": true, "das": true, "dos": true,
	"e": true, "em": true,
}

// uppercaseWords are acronyms always written in capitals.
var uppercaseWords = map[string]bool{
	"df": true, "gdf": true, "sei": true, "cig": true,
}

var reservedNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true, "com5": true,
	"com6": true, "com7": true, "com8": true, "com9": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true, "lpt5": true,
	"lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
}

var (
	invalidFolderChars = regexp.MustCompile("[\\\\/:*?\"<>|!$%^&+]")
	controlChars       = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	multiSpace         = regexp.MustCompile(`\s{2,}`)
	multiHyphen        = regexp.MustCompile(`-{2,}`)
)

var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// stripMarks removes diacritics, leaving plain ASCII letters.
func stripMarks(s string) string {
	out, _, err := transform.String(asciiFold, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeTitle applies Portuguese title casing: connective words stay
// lowercase after the first word and known acronyms are capitalized.
func NormalizeTitle(name string) string {
	words := strings.Fields(strings.TrimSpace(name))
	for i, word := range words {
		lower := strings.ToLower(word)
		switch {
		case uppercaseWords[stripMarks(lower)]:
			words[i] = strings.ToUpper(word)
		case i > 0 && lowercaseWords[lower]:
			words[i] = lower
		default:
			words[i] = capitalize(lower)
		}
	}
	return strings.Join(words, " ")
}

func capitalize(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// CleanName makes a folder name acceptable to the destination: invalid
// characters become hyphens, control characters vanish and the result
// respects the per-kind length cap.
func CleanName(name string, maxLength int) string {
	name = stripMarks(strings.TrimSpace(name))
	name = controlChars.ReplaceAllString(name, "")
	name = invalidFolderChars.ReplaceAllString(name, "-")
	name = multiSpace.ReplaceAllString(name, " ")
	name = multiHyphen.ReplaceAllString(name, "-")
	name = strings.TrimRight(name, ".- ")
	name = strings.TrimSpace(name)

	if name == "" || reservedNames[strings.ToLower(name)] {
		return fallbackFolderName
	}
	if maxLength > 0 && len(name) > maxLength {
		const marker = "..."
		keep := maxLength - len(marker)
		if keep < 1 {
			keep = 1
		}
		for keep > 1 && !utf8.ValidString(name[:keep]) {
			keep--
		}
		name = strings.TrimRight(name[:keep], ".- ")
		if name == "" {
			return fallbackFolderName
		}
		name += marker
	}
	return name
}

// ComparisonKey folds a folder name for duplicate detection. Names that
// differ only in case or accents collide on purpose.
func ComparisonKey(name string) string {
	return strings.ToLower(strings.TrimSpace(stripMarks(name)))
}

// SplitHierarchy breaks a "Raiz > Nível 1 > Nível 2" path into levels,
// dropping the synthetic root markers.
func SplitHierarchy(raw string) []string {
	var levels []string
	for _, part := range strings.Split(raw, ">") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		folded := ComparisonKey(part)
		if folded == "raiz" || folded == "hierarquia" {
			continue
		}
		levels = append(levels, part)
	}
	return levels
}
