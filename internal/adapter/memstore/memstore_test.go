package memstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pscheid92/hashpulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kw(hashtag string, count int64) domain.KeywordAggregate {
	return domain.KeywordAggregate{ID: uuid.New(), Hashtag: hashtag, Count: count, PositiveCount: count, Version: 1}
}

func TestKeywords_InsertManyReportsExisting(t *testing.T) {
	ctx := context.Background()
	s := NewKeywords()

	conflicts, err := s.InsertMany(ctx, []domain.KeywordAggregate{kw("#go", 1), kw("#rust", 1)})
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	conflicts, err = s.InsertMany(ctx, []domain.KeywordAggregate{kw("#GO", 2), kw("#zig", 1)})
	require.NoError(t, err)
	assert.Equal(t, []string{"#GO"}, conflicts)

	all, err := s.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestKeywords_UpdateManyCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := NewKeywords()
	orig := kw("#go", 1)
	_, err := s.InsertMany(ctx, []domain.KeywordAggregate{orig})
	require.NoError(t, err)

	first := orig
	first.Count = 5
	conflicts, err := s.UpdateMany(ctx, []domain.KeywordAggregate{first})
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	// Second writer still holds version 1.
	stale := orig
	stale.Count = 9
	conflicts, err = s.UpdateMany(ctx, []domain.KeywordAggregate{stale})
	require.NoError(t, err)
	assert.Equal(t, []string{"#go"}, conflicts)

	got, err := s.FindByHashtag(ctx, "#go")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Count)
	assert.Equal(t, int64(2), got.Version)
}

func TestKeywords_FindByHashtagNotFound(t *testing.T) {
	_, err := NewKeywords().FindByHashtag(context.Background(), "#none")
	assert.ErrorIs(t, err, domain.ErrKeywordNotFound)
}

func TestKeywords_FindRelated(t *testing.T) {
	ctx := context.Background()
	s := NewKeywords()
	_, err := s.InsertMany(ctx, []domain.KeywordAggregate{
		kw("#happy", 1), kw("#happyday", 1), kw("#unhappy", 1), kw("#sad", 1),
	})
	require.NoError(t, err)

	related, err := s.FindRelated(ctx, "happy", "#happy", 5)
	require.NoError(t, err)

	var names []string
	for _, r := range related {
		names = append(names, r.Hashtag)
	}
	assert.Equal(t, []string{"#happyday", "#unhappy"}, names)

	limited, err := s.FindRelated(ctx, "happy", "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestKeywords_ListOrdersAndPages(t *testing.T) {
	ctx := context.Background()
	s := NewKeywords()
	_, err := s.InsertMany(ctx, []domain.KeywordAggregate{kw("#b", 2), kw("#a", 2), kw("#c", 7), kw("#d", 1)})
	require.NoError(t, err)

	desc, err := s.List(ctx, domain.KeywordQuery{Order: domain.SortByCountDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"#c", "#a", "#b", "#d"}, tags(desc))

	asc, err := s.List(ctx, domain.KeywordQuery{Order: domain.SortByCountAsc, Page: domain.Page{Skip: 1, Take: 2}})
	require.NoError(t, err)
	assert.Equal(t, []string{"#a", "#b"}, tags(asc))

	filtered, err := s.List(ctx, domain.KeywordQuery{Contains: "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"#c"}, tags(filtered))

	beyond, err := s.List(ctx, domain.KeywordQuery{Page: domain.Page{Skip: 10}})
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestPosts_FindFilters(t *testing.T) {
	ctx := context.Background()
	s := NewPosts()
	require.NoError(t, s.InsertMany(ctx, []domain.Post{
		{Name: "ann", Text: "#Go rocks", Sentiment: domain.SentimentPositive, Uploader: "u1"},
		{Name: "bob", Text: "tired of #go", Sentiment: domain.SentimentNegative, Uploader: "u2"},
		{Name: "cat", Text: "#golang\tis fine", Sentiment: domain.SentimentPositive, Uploader: "u1"},
	}))

	followed, err := s.Find(ctx, domain.PostFilter{HashtagFollowedBySpace: "#go"}, domain.Page{})
	require.NoError(t, err)
	require.Len(t, followed, 1)
	assert.Equal(t, "ann", followed[0].Name)

	contains, err := s.Count(ctx, domain.PostFilter{HashtagContains: "#go"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), contains)

	byUser, err := s.Find(ctx, domain.PostFilter{Uploader: "u1", Sentiment: "POSITIVE"}, domain.Page{Take: 1})
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, "ann", byUser[0].Name)

	search, err := s.Find(ctx, domain.PostFilter{Search: "bob"}, domain.Page{})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "tired of #go", search[0].Text)

	skipped, err := s.Find(ctx, domain.PostFilter{Uploader: "u1"}, domain.Page{Skip: 1})
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	assert.Equal(t, "cat", skipped[0].Name)
}

func tags(kws []domain.KeywordAggregate) []string {
	out := make([]string, 0, len(kws))
	for _, k := range kws {
		out = append(out, k.Hashtag)
	}
	return out
}
