// Package memstore is an in-memory implementation of the post and keyword
// repositories. Matching rules mirror the Postgres adapter so application tests
// can run against it.
package memstore

import (
	"cmp"
	"context"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/pscheid92/hashpulse/internal/domain"
)

// Posts keeps posts in insertion order.
type Posts struct {
	mu    sync.RWMutex
	posts []domain.Post
}

// Keywords keeps aggregates in insertion order with a case-insensitive hashtag index.
type Keywords struct {
	mu       sync.RWMutex
	keywords []domain.KeywordAggregate
	byTag    map[string]int
}

var (
	_ domain.PostRepository    = (*Posts)(nil)
	_ domain.KeywordRepository = (*Keywords)(nil)
)

func NewPosts() *Posts {
	return &Posts{}
}

func NewKeywords() *Keywords {
	return &Keywords{byTag: make(map[string]int)}
}

func (s *Posts) InsertMany(ctx context.Context, posts []domain.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append(s.posts, posts...)
	return nil
}

func (s *Posts) Find(ctx context.Context, filter domain.PostFilter, page domain.Page) ([]domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	match := postMatcher(filter)
	var out []domain.Post
	skipped := 0
	for _, p := range s.posts {
		if !match(p) {
			continue
		}
		if skipped < page.Skip {
			skipped++
			continue
		}
		out = append(out, p)
		if page.Take > 0 && len(out) == page.Take {
			break
		}
	}
	return out, nil
}

func (s *Posts) Count(ctx context.Context, filter domain.PostFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	match := postMatcher(filter)
	var n int64
	for _, p := range s.posts {
		if match(p) {
			n++
		}
	}
	return n, nil
}

func postMatcher(f domain.PostFilter) func(domain.Post) bool {
	var followed *regexp.Regexp
	if f.HashtagFollowedBySpace != "" {
		followed = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(f.HashtagFollowedBySpace) + `\s`)
	}
	return func(p domain.Post) bool {
		if f.Uploader != "" && p.Uploader != f.Uploader {
			return false
		}
		if f.Search != "" && !strings.Contains(p.Text, f.Search) && !strings.Contains(p.Name, f.Search) {
			return false
		}
		if f.HashtagContains != "" && !strings.Contains(p.Text, f.HashtagContains) {
			return false
		}
		if followed != nil && !followed.MatchString(p.Text) {
			return false
		}
		if f.Sentiment != "" && !strings.EqualFold(string(p.Sentiment), string(f.Sentiment)) {
			return false
		}
		return true
	}
}

func (s *Keywords) FindAll(ctx context.Context) ([]domain.KeywordAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.keywords), nil
}

func (s *Keywords) FindByHashtag(ctx context.Context, hashtag string) (*domain.KeywordAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, kw := range s.keywords {
		if kw.Hashtag == hashtag {
			return &kw, nil
		}
	}
	return nil, domain.ErrKeywordNotFound
}

func (s *Keywords) FindByHashtags(ctx context.Context, hashtags []string) ([]domain.KeywordAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.KeywordAggregate
	for _, h := range hashtags {
		if i, ok := s.byTag[strings.ToLower(h)]; ok {
			out = append(out, s.keywords[i])
		}
	}
	return out, nil
}

func (s *Keywords) FindRelated(ctx context.Context, fragment, exclude string, limit int) ([]domain.KeywordAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.KeywordAggregate
	for _, kw := range s.keywords {
		if len(out) == limit {
			break
		}
		if kw.Hashtag == exclude || !strings.Contains(kw.Hashtag, fragment) {
			continue
		}
		out = append(out, kw)
	}
	return out, nil
}

func (s *Keywords) List(ctx context.Context, q domain.KeywordQuery) ([]domain.KeywordAggregate, error) {
	s.mu.RLock()
	var matched []domain.KeywordAggregate
	for _, kw := range s.keywords {
		if q.Contains == "" || strings.Contains(kw.Hashtag, q.Contains) {
			matched = append(matched, kw)
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(matched, func(a, b domain.KeywordAggregate) int {
		c := cmp.Compare(a.Count, b.Count)
		if q.Order == domain.SortByCountDesc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.Hashtag, b.Hashtag)
	})

	start := min(q.Page.Skip, len(matched))
	end := len(matched)
	if q.Page.Take > 0 {
		end = min(start+q.Page.Take, end)
	}
	return matched[start:end], nil
}

func (s *Keywords) InsertMany(ctx context.Context, aggregates []domain.KeywordAggregate) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var conflicts []string
	for _, kw := range aggregates {
		key := strings.ToLower(kw.Hashtag)
		if _, exists := s.byTag[key]; exists {
			conflicts = append(conflicts, kw.Hashtag)
			continue
		}
		kw.Version = 1
		s.byTag[key] = len(s.keywords)
		s.keywords = append(s.keywords, kw)
	}
	return conflicts, nil
}

func (s *Keywords) UpdateMany(ctx context.Context, aggregates []domain.KeywordAggregate) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var conflicts []string
	for _, kw := range aggregates {
		i, ok := s.byTag[strings.ToLower(kw.Hashtag)]
		if !ok || s.keywords[i].ID != kw.ID || s.keywords[i].Version != kw.Version {
			conflicts = append(conflicts, kw.Hashtag)
			continue
		}
		kw.Version++
		s.keywords[i] = kw
	}
	return conflicts, nil
}
