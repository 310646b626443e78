package domain

import (
	"context"
	"time"
)

type DailySentiment struct {
	Hashtag  string `json:"hashTag"`
	Count    int64  `json:"count"`
	Positive int64  `json:"positive"`
	Negative int64  `json:"negative"`
	Date     string `json:"date"`
}

type WordCount struct {
	Text  string `json:"text"`
	Value int64  `json:"value"`
}

type StatisticsResult struct {
	Series            []DailySentiment  `json:"series"`
	Hashtag           string            `json:"hashTag"`
	TopPositiveWords  []string          `json:"topPositiveWords"`
	TopNegativeWords  []string          `json:"topNegativeWords"`
	RelatedHashtags   []string          `json:"relatedHashTags"`
	Keyword           *KeywordAggregate `json:"keyword"`
	Samples           []string          `json:"tweets"`
	PositiveWordCount []WordCount       `json:"positiveWordCount"`
	NegativeWordCount []WordCount       `json:"negativeWordCount"`
}

// StatisticsCache stores computed results per cache generation. Get reports a
// miss with ok=false and always returns the generation it looked in. Set stores
// under the generation the caller read before computing, so a result computed
// before an Invalidate never becomes visible in the newer generation.
type StatisticsCache interface {
	Get(ctx context.Context, hashtag string) (result *StatisticsResult, generation int64, ok bool, err error)
	Set(ctx context.Context, generation int64, hashtag string, result *StatisticsResult, ttl time.Duration) error
	// Invalidate starts a new generation, dropping every cached result.
	Invalidate(ctx context.Context) error
}
