package textproc

import (
	"regexp"
	"strings"
)

var hashtagPattern = regexp.MustCompile(`#[\p{L}\p{Mn}\p{Nd}\p{Pc}]+`)

// ExtractHashtags returns every hashtag occurrence in text, lowercased, in order.
// Duplicates are kept; each occurrence counts.
func ExtractHashtags(text string) []string {
	matches := hashtagPattern.FindAllString(text, -1)
	for i, m := range matches {
		matches[i] = strings.ToLower(m)
	}
	return matches
}

// NormalizeHashtag trims and lowercases a user query and makes sure it starts with '#'.
func NormalizeHashtag(query string) string {
	h := strings.ToLower(strings.TrimSpace(query))
	if !strings.HasPrefix(h, "#") {
		h = "#" + h
	}
	return h
}

// HashtagFragment strips leading '#' and spaces, yielding the substring used for related lookups.
func HashtagFragment(hashtag string) string {
	return strings.TrimLeft(hashtag, "# ")
}
