package app

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pscheid92/hashpulse/internal/domain"
	apperrors "github.com/pscheid92/hashpulse/internal/platform/errors"
	"github.com/pscheid92/hashpulse/internal/textproc"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	topWordsLimit   = 5
	wordCountLimit  = 50
	sampleLimit     = 50
	relatedLimit    = 5
	seriesDateStyle = "2006-01-02"
)

// Statistics computes per-hashtag trends, discriminating words and related hashtags.
type Statistics struct {
	keywords  domain.KeywordRepository
	posts     domain.PostRepository
	cache     domain.StatisticsCache
	cacheTTL  time.Duration
	tokenizer *textproc.Tokenizer
	flights   singleflight.Group
}

// NewStatistics creates the statistics engine. cache may be nil.
func NewStatistics(keywords domain.KeywordRepository, posts domain.PostRepository, cache domain.StatisticsCache, cacheTTL time.Duration, tokenizer *textproc.Tokenizer) *Statistics {
	return &Statistics{
		keywords:  keywords,
		posts:     posts,
		cache:     cache,
		cacheTTL:  cacheTTL,
		tokenizer: tokenizer,
	}
}

// Stats answers a statistics query. An unknown hashtag is not an error: the result
// carries only related hashtags.
// Concurrent identical queries within one cache generation share one computation.
// A computed result is cached under the generation read before computing, or not
// at all when that read failed.
func (s *Statistics) Stats(ctx context.Context, query string) (*domain.StatisticsResult, error) {
	hashtag := textproc.NormalizeHashtag(query)

	var (
		generation int64
		cacheable  bool
	)
	if s.cache != nil {
		cached, gen, ok, err := s.cache.Get(ctx, hashtag)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "Statistics cache read failed", "hashtag", hashtag, "error", err)
		case ok:
			return cached, nil
		default:
			generation, cacheable = gen, true
		}
	}

	flight := strconv.FormatInt(generation, 10) + ":" + hashtag
	v, err, shared := s.flights.Do(flight, func() (any, error) {
		result, err := s.compute(ctx, hashtag)
		if err != nil {
			return nil, err
		}
		if cacheable {
			if err := s.cache.Set(ctx, generation, hashtag, result, s.cacheTTL); err != nil {
				slog.WarnContext(ctx, "Statistics cache write failed", "hashtag", hashtag, "error", err)
			}
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.DebugContext(ctx, "Statistics computation shared", "hashtag", hashtag)
	}
	return v.(*domain.StatisticsResult), nil
}

func (s *Statistics) compute(ctx context.Context, hashtag string) (*domain.StatisticsResult, error) {
	fragment := textproc.HashtagFragment(hashtag)

	keyword, err := s.keywords.FindByHashtag(ctx, hashtag)
	if errors.Is(err, domain.ErrKeywordNotFound) {
		related, err := s.keywords.FindRelated(ctx, fragment, "", relatedLimit)
		if err != nil {
			return nil, apperrors.InternalError("failed to find related hashtags", err)
		}
		return emptyResult(hashtag, related), nil
	}
	if err != nil {
		return nil, apperrors.InternalError("failed to look up hashtag", err)
	}

	var (
		posts   []domain.Post
		related []domain.KeywordAggregate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		posts, err = s.posts.Find(gctx, domain.PostFilter{HashtagFollowedBySpace: hashtag}, domain.Page{})
		return err
	})
	g.Go(func() (err error) {
		related, err = s.keywords.FindRelated(gctx, fragment, hashtag, relatedLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.InternalError("failed to load statistics inputs", err)
	}

	result := BuildStatistics(hashtag, posts, s.tokenizer)
	result.RelatedHashtags = hashtagNames(related)
	result.Keyword = keyword
	return result, nil
}

// BuildStatistics buckets posts per calendar date and sentiment and ranks the
// words of each sentiment. Posts whose created timestamp does not parse still
// contribute words and samples but no time bucket.
func BuildStatistics(hashtag string, posts []domain.Post, tokenizer *textproc.Tokenizer) *domain.StatisticsResult {
	result := emptyResult(hashtag, nil)

	byDate := make(map[string]*domain.DailySentiment)
	var dates []string
	wordCounts := map[domain.Sentiment]map[string]int64{
		domain.SentimentPositive: {},
		domain.SentimentNegative: {},
	}

	for _, p := range posts {
		positive := p.Sentiment == domain.SentimentPositive

		if t, err := dateparse.ParseAny(p.Created); err == nil {
			date := t.Format(seriesDateStyle)
			day, ok := byDate[date]
			if !ok {
				day = &domain.DailySentiment{Hashtag: hashtag, Date: date}
				byDate[date] = day
				dates = append(dates, date)
			}
			day.Count++
			if positive {
				day.Positive++
			} else {
				day.Negative++
			}
		}

		if len(result.Samples) < sampleLimit {
			result.Samples = append(result.Samples, p.Text)
		}

		bucket := wordCounts[domain.SentimentNegative]
		if positive {
			bucket = wordCounts[domain.SentimentPositive]
		}
		for _, w := range tokenizer.Tokenize(p.Text, hashtag) {
			bucket[w]++
		}
	}

	for _, d := range dates {
		result.Series = append(result.Series, *byDate[d])
	}

	result.PositiveWordCount = rankWords(wordCounts[domain.SentimentPositive], wordCountLimit)
	result.NegativeWordCount = rankWords(wordCounts[domain.SentimentNegative], wordCountLimit)
	result.TopPositiveWords = wordTexts(result.PositiveWordCount, topWordsLimit)
	result.TopNegativeWords = wordTexts(result.NegativeWordCount, topWordsLimit)
	return result
}

// rankWords orders by count descending, then word ascending.
func rankWords(counts map[string]int64, limit int) []domain.WordCount {
	ranked := make([]domain.WordCount, 0, len(counts))
	for w, n := range counts {
		ranked = append(ranked, domain.WordCount{Text: w, Value: n})
	}
	slices.SortFunc(ranked, func(a, b domain.WordCount) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.Text, b.Text)
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func wordTexts(words []domain.WordCount, limit int) []string {
	out := make([]string, 0, min(limit, len(words)))
	for _, w := range words[:min(limit, len(words))] {
		out = append(out, w.Text)
	}
	return out
}

func hashtagNames(kws []domain.KeywordAggregate) []string {
	names := make([]string, 0, len(kws))
	for _, kw := range kws {
		names = append(names, kw.Hashtag)
	}
	return names
}

func emptyResult(hashtag string, related []domain.KeywordAggregate) *domain.StatisticsResult {
	return &domain.StatisticsResult{
		Series:            []domain.DailySentiment{},
		Hashtag:           hashtag,
		TopPositiveWords:  []string{},
		TopNegativeWords:  []string{},
		RelatedHashtags:   hashtagNames(related),
		Samples:           []string{},
		PositiveWordCount: []domain.WordCount{},
		NegativeWordCount: []domain.WordCount{},
	}
}
