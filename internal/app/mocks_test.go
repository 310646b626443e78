package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pscheid92/hashpulse/internal/domain"
)

// --- Mock implementations ---

type mockClassifier struct {
	classifyFn func(ctx context.Context, text string) (domain.Prediction, error)
}

func (m *mockClassifier) Classify(ctx context.Context, text string) (domain.Prediction, error) {
	if m.classifyFn != nil {
		return m.classifyFn(ctx, text)
	}
	return domain.Prediction{}, fmt.Errorf("not implemented")
}

// keywordClassifier labels a text positive when it contains "good", "great" or "love".
func keywordClassifier() *mockClassifier {
	return &mockClassifier{classifyFn: func(_ context.Context, text string) (domain.Prediction, error) {
		lower := strings.ToLower(text)
		positive := strings.Contains(lower, "good") || strings.Contains(lower, "great") || strings.Contains(lower, "love")
		return domain.Prediction{Positive: positive, Probability: 0.9, Score: 1.5}, nil
	}}
}

type mockKeywordRepo struct {
	findAllFn        func(ctx context.Context) ([]domain.KeywordAggregate, error)
	findByHashtagsFn func(ctx context.Context, hashtags []string) ([]domain.KeywordAggregate, error)
	insertManyFn     func(ctx context.Context, aggregates []domain.KeywordAggregate) ([]string, error)
	updateManyFn     func(ctx context.Context, aggregates []domain.KeywordAggregate) ([]string, error)
	findByHashtagFn  func(ctx context.Context, hashtag string) (*domain.KeywordAggregate, error)
	findRelatedFn    func(ctx context.Context, fragment, exclude string, limit int) ([]domain.KeywordAggregate, error)
	listFn           func(ctx context.Context, q domain.KeywordQuery) ([]domain.KeywordAggregate, error)
}

func (m *mockKeywordRepo) FindAll(ctx context.Context) ([]domain.KeywordAggregate, error) {
	if m.findAllFn != nil {
		return m.findAllFn(ctx)
	}
	return nil, nil
}

func (m *mockKeywordRepo) FindByHashtag(ctx context.Context, hashtag string) (*domain.KeywordAggregate, error) {
	if m.findByHashtagFn != nil {
		return m.findByHashtagFn(ctx, hashtag)
	}
	return nil, domain.ErrKeywordNotFound
}

func (m *mockKeywordRepo) FindByHashtags(ctx context.Context, hashtags []string) ([]domain.KeywordAggregate, error) {
	if m.findByHashtagsFn != nil {
		return m.findByHashtagsFn(ctx, hashtags)
	}
	return nil, nil
}

func (m *mockKeywordRepo) FindRelated(ctx context.Context, fragment, exclude string, limit int) ([]domain.KeywordAggregate, error) {
	if m.findRelatedFn != nil {
		return m.findRelatedFn(ctx, fragment, exclude, limit)
	}
	return nil, nil
}

func (m *mockKeywordRepo) List(ctx context.Context, q domain.KeywordQuery) ([]domain.KeywordAggregate, error) {
	if m.listFn != nil {
		return m.listFn(ctx, q)
	}
	return nil, nil
}

func (m *mockKeywordRepo) InsertMany(ctx context.Context, aggregates []domain.KeywordAggregate) ([]string, error) {
	if m.insertManyFn != nil {
		return m.insertManyFn(ctx, aggregates)
	}
	return nil, nil
}

func (m *mockKeywordRepo) UpdateMany(ctx context.Context, aggregates []domain.KeywordAggregate) ([]string, error) {
	if m.updateManyFn != nil {
		return m.updateManyFn(ctx, aggregates)
	}
	return nil, nil
}

type mockPostRepo struct {
	insertManyFn func(ctx context.Context, posts []domain.Post) error
	findFn       func(ctx context.Context, filter domain.PostFilter, page domain.Page) ([]domain.Post, error)
	countFn      func(ctx context.Context, filter domain.PostFilter) (int64, error)
}

func (m *mockPostRepo) InsertMany(ctx context.Context, posts []domain.Post) error {
	if m.insertManyFn != nil {
		return m.insertManyFn(ctx, posts)
	}
	return nil
}

func (m *mockPostRepo) Find(ctx context.Context, filter domain.PostFilter, page domain.Page) ([]domain.Post, error) {
	if m.findFn != nil {
		return m.findFn(ctx, filter, page)
	}
	return nil, nil
}

func (m *mockPostRepo) Count(ctx context.Context, filter domain.PostFilter) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, filter)
	}
	return 0, nil
}

type cacheKey struct {
	generation int64
	hashtag    string
}

// mockStatsCache mirrors the generation scheme of the Redis cache: Invalidate
// moves to a new generation and leaves older entries unreachable.
type mockStatsCache struct {
	mu           sync.Mutex
	generation   int64
	entries      map[cacheKey]*domain.StatisticsResult
	invalidated  int
	getErr       error
	invalidateFn func(ctx context.Context) error
}

func newMockStatsCache() *mockStatsCache {
	return &mockStatsCache{entries: make(map[cacheKey]*domain.StatisticsResult)}
}

func (m *mockStatsCache) Get(_ context.Context, hashtag string) (*domain.StatisticsResult, int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, 0, false, m.getErr
	}
	r, ok := m.entries[cacheKey{m.generation, hashtag}]
	return r, m.generation, ok, nil
}

func (m *mockStatsCache) Set(_ context.Context, generation int64, hashtag string, result *domain.StatisticsResult, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[cacheKey{generation, hashtag}] = result
	return nil
}

func (m *mockStatsCache) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	m.invalidated++
	m.generation++
	m.mu.Unlock()
	if m.invalidateFn != nil {
		return m.invalidateFn(ctx)
	}
	return nil
}

// current returns the entry visible to a Get for hashtag.
func (m *mockStatsCache) current(hashtag string) (*domain.StatisticsResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.entries[cacheKey{m.generation, hashtag}]
	return r, ok
}

// sliceReader feeds records from memory; err, when set, is returned at index errAt.
type sliceReader struct {
	records []domain.RawPost
	pos     int
	errAt   int
	err     error
}

func records(rs ...domain.RawPost) *sliceReader {
	return &sliceReader{records: rs, errAt: -1}
}

func (r *sliceReader) Next() (domain.RawPost, error) {
	if r.err != nil && r.pos == r.errAt {
		return domain.RawPost{}, r.err
	}
	if r.pos >= len(r.records) {
		return domain.RawPost{}, io.EOF
	}
	rec := r.records[r.pos]
	r.pos++
	return rec, nil
}
