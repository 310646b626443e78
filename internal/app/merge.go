package app

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pscheid92/hashpulse/internal/domain"
)

// MergeKeywords folds a batch delta into a snapshot of stored aggregates.
// Hashtags are matched case-insensitively. Matched aggregates keep their ID, stored
// hashtag text and snapshot version (the store bumps it on write); unmatched
// hashtags become new aggregates at version 1. Output follows the delta's order.
func MergeKeywords(snapshot []domain.KeywordAggregate, delta *domain.BatchDelta) domain.MergeResult {
	index := make(map[string]domain.KeywordAggregate, len(snapshot))
	for _, kw := range snapshot {
		key := strings.ToLower(kw.Hashtag)
		if _, dup := index[key]; !dup {
			index[key] = kw
		}
	}

	var res domain.MergeResult
	for _, hashtag := range delta.Hashtags() {
		d, _ := delta.Get(hashtag)

		existing, ok := index[strings.ToLower(hashtag)]
		if !ok {
			res.Inserts = append(res.Inserts, domain.KeywordAggregate{
				ID:            uuid.New(),
				Hashtag:       hashtag,
				Count:         d.Occurrences,
				PositiveCount: d.Positive,
				NegativeCount: d.Negative,
				Retweets:      d.Retweets,
				Likes:         d.Likes,
				Version:       1,
			})
			continue
		}

		existing.Count += d.Occurrences
		existing.PositiveCount += d.Positive
		existing.NegativeCount += d.Negative
		existing.Retweets += d.Retweets
		existing.Likes += d.Likes
		res.Updates = append(res.Updates, existing)
	}

	return res
}
