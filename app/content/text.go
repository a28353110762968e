package content

import (
	"net/url"
	"regexp"
	"strings"
)

const Ellipsis = "…"

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// NormalizeText collapses whitespace runs and truncates to maxLen runes,
// replacing the last kept rune with an ellipsis when the text is cut.
func NormalizeText(s string, maxLen int) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	if maxLen <= 0 {
		return ""
	}

	runes := []rune(collapsed)
	if len(runes) <= maxLen {
		return collapsed
	}

	return string(runes[:maxLen-1]) + Ellipsis
}

// StripHTML drops tag spans and collapses whitespace. Entities are left as-is,
// so the result must not be rendered as HTML.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}
	return strings.Join(strings.Fields(tagPattern.ReplaceAllString(html, " ")), " ")
}

// NormalizeURL returns the absolute URL without its fragment. Input that does
// not parse as an absolute URL is returned unchanged.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	u.Fragment = ""
	u.RawFragment = ""

	return u.String()
}

// HasArabic reports whether text contains a code point from the Arabic block.
func HasArabic(text string) bool {
	for _, r := range text {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}

// DetectLang maps text to "ar" when it carries Arabic script, "en" otherwise.
func DetectLang(text string) string {
	if HasArabic(text) {
		return "ar"
	}
	return "en"
}
