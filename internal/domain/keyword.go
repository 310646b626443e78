package domain

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// KeywordAggregate is the running per-hashtag tally.
// Count always equals PositiveCount + NegativeCount.
type KeywordAggregate struct {
	ID            uuid.UUID `json:"id"`
	Hashtag       string    `json:"hashTag"`
	Count         int64     `json:"count"`
	PositiveCount int64     `json:"positiveCount"`
	NegativeCount int64     `json:"negativeCount"`
	Retweets      int64     `json:"retweets"`
	Likes         int64     `json:"likes"`
	Version       int64     `json:"version"`
}

// HashtagDelta is what one ingestion batch contributes to a single hashtag.
type HashtagDelta struct {
	Occurrences int64
	Likes       int64
	Retweets    int64
	Positive    int64
	Negative    int64
}

// BatchDelta accumulates per-hashtag deltas in first-seen order.
type BatchDelta struct {
	order  []string
	deltas map[string]*HashtagDelta
}

func NewBatchDelta() *BatchDelta {
	return &BatchDelta{deltas: make(map[string]*HashtagDelta)}
}

// Add records one occurrence of hashtag for a post with the given engagement and sentiment.
func (b *BatchDelta) Add(hashtag string, likes, retweets int64, sentiment Sentiment) {
	d, ok := b.deltas[hashtag]
	if !ok {
		d = &HashtagDelta{}
		b.deltas[hashtag] = d
		b.order = append(b.order, hashtag)
	}
	d.Occurrences++
	d.Likes += likes
	d.Retweets += retweets
	if sentiment == SentimentPositive {
		d.Positive++
	} else {
		d.Negative++
	}
}

// Hashtags returns the hashtags in the order they were first added.
func (b *BatchDelta) Hashtags() []string {
	return append([]string(nil), b.order...)
}

func (b *BatchDelta) Get(hashtag string) (HashtagDelta, bool) {
	d, ok := b.deltas[hashtag]
	if !ok {
		return HashtagDelta{}, false
	}
	return *d, true
}

func (b *BatchDelta) Len() int { return len(b.order) }

// Subset returns a delta restricted to the given hashtags, keeping the original order.
func (b *BatchDelta) Subset(hashtags []string) *BatchDelta {
	want := make(map[string]struct{}, len(hashtags))
	for _, h := range hashtags {
		want[strings.ToLower(h)] = struct{}{}
	}
	out := NewBatchDelta()
	for _, h := range b.order {
		if _, ok := want[strings.ToLower(h)]; !ok {
			continue
		}
		d := *b.deltas[h]
		out.deltas[h] = &d
		out.order = append(out.order, h)
	}
	return out
}

// MergeResult splits merged aggregates into rows that already exist and rows to create.
type MergeResult struct {
	Updates []KeywordAggregate
	Inserts []KeywordAggregate
}

type EngagementDecision int

const (
	EngagementSkip EngagementDecision = iota
	EngagementCount
)

// Engagement is the parsed retweet/like counter pair of a record.
type Engagement struct {
	Retweets int64
	Likes    int64
}

// EvaluateEngagement decides whether a record's hashtags are tallied.
// Both counters must parse as 32-bit integers; otherwise the record is skipped.
func EvaluateEngagement(retweets, likes string) (Engagement, EngagementDecision) {
	rt, err := strconv.ParseInt(strings.TrimSpace(retweets), 10, 32)
	if err != nil {
		return Engagement{}, EngagementSkip
	}
	lk, err := strconv.ParseInt(strings.TrimSpace(likes), 10, 32)
	if err != nil {
		return Engagement{}, EngagementSkip
	}
	return Engagement{Retweets: rt, Likes: lk}, EngagementCount
}

type SortOrder int

const (
	SortByCountDesc SortOrder = iota
	SortByCountAsc
)

// KeywordQuery drives the keyword listings.
type KeywordQuery struct {
	Order    SortOrder
	Contains string
	Page     Page
}

type KeywordRepository interface {
	FindAll(ctx context.Context) ([]KeywordAggregate, error)
	// FindByHashtag returns ErrKeywordNotFound when no aggregate matches exactly.
	FindByHashtag(ctx context.Context, hashtag string) (*KeywordAggregate, error)
	FindByHashtags(ctx context.Context, hashtags []string) ([]KeywordAggregate, error)
	FindRelated(ctx context.Context, fragment, exclude string, limit int) ([]KeywordAggregate, error)
	List(ctx context.Context, q KeywordQuery) ([]KeywordAggregate, error)
	// InsertMany skips hashtags that already exist and returns them.
	InsertMany(ctx context.Context, aggregates []KeywordAggregate) (conflicts []string, err error)
	// UpdateMany applies each update only if the stored version still matches,
	// bumping it by one. Hashtags whose version moved are returned.
	UpdateMany(ctx context.Context, aggregates []KeywordAggregate) (conflicts []string, err error)
}
