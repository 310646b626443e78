package app

import (
	"context"
	"strings"

	"github.com/pscheid92/hashpulse/internal/domain"
	apperrors "github.com/pscheid92/hashpulse/internal/platform/errors"
	"golang.org/x/sync/errgroup"
)

// PostFacets are the optional criteria of a post search.
type PostFacets struct {
	Search    string
	Hashtag   string
	Sentiment string
}

// PostPage is one page of posts plus the total number of matches.
type PostPage struct {
	Posts []domain.Post `json:"tweets"`
	Total int64         `json:"totalTweets"`
}

// Posts serves post browsing.
type Posts struct {
	repo domain.PostRepository
}

func NewPosts(repo domain.PostRepository) *Posts {
	return &Posts{repo: repo}
}

// Search returns posts matching every non-empty facet.
func (p *Posts) Search(ctx context.Context, facets PostFacets, page domain.Page) (*PostPage, error) {
	filter := domain.PostFilter{
		Search:          strings.TrimSpace(facets.Search),
		HashtagContains: strings.TrimSpace(facets.Hashtag),
	}
	if s := strings.TrimSpace(facets.Sentiment); s != "" {
		sentiment, ok := domain.ParseSentiment(s)
		if !ok {
			return nil, apperrors.ValidationError("sentiment must be positive or negative").WithField("sentiment", s)
		}
		filter.Sentiment = sentiment
	}
	return p.page(ctx, filter, page)
}

// ByUploader returns the posts uploaded by one caller.
func (p *Posts) ByUploader(ctx context.Context, uploader string, page domain.Page) (*PostPage, error) {
	if uploader == "" {
		return nil, apperrors.ValidationError("uploader identity is required")
	}
	return p.page(ctx, domain.PostFilter{Uploader: uploader}, page)
}

func (p *Posts) page(ctx context.Context, filter domain.PostFilter, page domain.Page) (*PostPage, error) {
	page, err := normalizePage(page)
	if err != nil {
		return nil, err
	}

	var out PostPage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Total, err = p.repo.Count(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		out.Posts, err = p.repo.Find(gctx, filter, page)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.InternalError("failed to load posts", err)
	}
	if out.Posts == nil {
		out.Posts = []domain.Post{}
	}
	return &out, nil
}
