package corpus

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/poiesic/semsearch/core"
)

var datePath = regexp.MustCompile(`/(\d{4})/(\d{2})/(\d{2})/`)

// CleanText collapses every run of whitespace to a single space and trims
// both ends.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// RemoveDiacritics decomposes text (NFD) and drops every nonspacing mark,
// so tonal Yoruba such as "ọ̀" becomes "o". The result stays decomposed.
func RemoveDiacritics(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

// NormalizeQuery applies the same cleaning the corpus text went through
// before embedding.
func NormalizeQuery(query string) string {
	return RemoveDiacritics(CleanText(query))
}

// ExtractDate returns the year, month and day found in the path of rawURL.
// Each is nil when the path has no /YYYY/MM/DD/ segment.
func ExtractDate(rawURL string) (year, month, day *string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, nil
	}
	m := datePath.FindStringSubmatch(u.Path)
	if m == nil {
		return nil, nil, nil
	}
	return core.StringPtr(m[1]), core.StringPtr(m[2]), core.StringPtr(m[3])
}
