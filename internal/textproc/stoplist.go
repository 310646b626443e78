package textproc

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed stopwords.yaml
var defaultStopwordsYAML []byte

// Stoplist is a case-insensitive set of words excluded from word statistics.
type Stoplist struct {
	words map[string]struct{}
}

type stoplistFile struct {
	Terms []string `yaml:"terms"`
}

// ParseStoplist reads a YAML document of the form `terms: [...]`.
func ParseStoplist(data []byte) (*Stoplist, error) {
	var f stoplistFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse stoplist: %w", err)
	}
	return NewStoplist(f.Terms), nil
}

func NewStoplist(terms []string) *Stoplist {
	words := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			words[t] = struct{}{}
		}
	}
	return &Stoplist{words: words}
}

// DefaultStoplist returns the embedded English stoplist.
func DefaultStoplist() *Stoplist {
	sl, err := ParseStoplist(defaultStopwordsYAML)
	if err != nil {
		panic(err)
	}
	return sl
}

func (s *Stoplist) Contains(word string) bool {
	_, ok := s.words[strings.ToLower(word)]
	return ok
}

func (s *Stoplist) Len() int { return len(s.words) }
