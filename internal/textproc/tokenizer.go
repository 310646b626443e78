package textproc

import (
	"strings"
	"unicode"
)

// Tokenizer turns post text into the words counted by the statistics engine.
type Tokenizer struct {
	stops *Stoplist
}

func NewTokenizer(stops *Stoplist) *Tokenizer {
	if stops == nil {
		stops = NewStoplist(nil)
	}
	return &Tokenizer{stops: stops}
}

// Tokenize strips every rune that is not a letter, digit, '#' or whitespace,
// splits on whitespace and lowercases. Stopwords, the query hashtag and any
// other hashtag are dropped.
func (t *Tokenizer) Tokenize(text, hashtag string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '#' || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)

	hashtag = strings.ToLower(hashtag)

	var words []string
	for _, f := range strings.Fields(cleaned) {
		w := strings.ToLower(f)
		if w == hashtag || strings.HasPrefix(w, "#") || t.stops.Contains(w) {
			continue
		}
		words = append(words, w)
	}
	return words
}
