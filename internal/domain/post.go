package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
)

// SentimentFromLabel maps the classifier's boolean label onto a Sentiment.
func SentimentFromLabel(positive bool) Sentiment {
	if positive {
		return SentimentPositive
	}
	return SentimentNegative
}

// ParseSentiment accepts "positive" or "negative" in any case.
func ParseSentiment(s string) (Sentiment, bool) {
	switch Sentiment(strings.ToLower(strings.TrimSpace(s))) {
	case SentimentPositive:
		return SentimentPositive, true
	case SentimentNegative:
		return SentimentNegative, true
	}
	return "", false
}

// RawPost is one decoded feed record. All fields are opaque text.
type RawPost struct {
	Name     string
	Text     string
	Location string
	Created  string
	Retweets string
	Likes    string
}

// Post is an ingested, classified post. Posts are never modified after insert.
type Post struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Text        string    `json:"tweet"`
	Location    string    `json:"location,omitempty"`
	Created     string    `json:"created,omitempty"`
	Sentiment   Sentiment `json:"sentiment"`
	Score       float64   `json:"score"`
	Probability float64   `json:"probability"`
	Retweets    string    `json:"retweets,omitempty"`
	Likes       string    `json:"likes,omitempty"`
	Uploader    string    `json:"uploader"`
	IngestedAt  time.Time `json:"ingestedAt"`
}

// RecordReader yields feed records in arrival order.
// Next returns io.EOF once the feed is exhausted.
type RecordReader interface {
	Next() (RawPost, error)
}

// PostFilter narrows a post query. Empty fields do not constrain.
type PostFilter struct {
	Uploader string
	// Search matches a substring of the post text or author name.
	Search string
	// HashtagContains matches any post whose text contains the fragment.
	HashtagContains string
	// HashtagFollowedBySpace matches the hashtag immediately followed by whitespace.
	HashtagFollowedBySpace string
	Sentiment              Sentiment
}

// Page bounds a listing. Take 0 means no limit.
type Page struct {
	Skip int
	Take int
}

type PostRepository interface {
	InsertMany(ctx context.Context, posts []Post) error
	Find(ctx context.Context, filter PostFilter, page Page) ([]Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
}
