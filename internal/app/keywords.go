package app

import (
	"context"

	"github.com/pscheid92/hashpulse/internal/domain"
	apperrors "github.com/pscheid92/hashpulse/internal/platform/errors"
)

const (
	defaultTake = 10
	maxTake     = 500
)

// Keywords serves the keyword listings.
type Keywords struct {
	repo domain.KeywordRepository
}

func NewKeywords(repo domain.KeywordRepository) *Keywords {
	return &Keywords{repo: repo}
}

// Popular lists aggregates by count, most used first.
func (k *Keywords) Popular(ctx context.Context, contains string, page domain.Page) ([]domain.KeywordAggregate, error) {
	return k.list(ctx, domain.SortByCountDesc, contains, page)
}

// LeastPopular lists aggregates by count, least used first.
func (k *Keywords) LeastPopular(ctx context.Context, contains string, page domain.Page) ([]domain.KeywordAggregate, error) {
	return k.list(ctx, domain.SortByCountAsc, contains, page)
}

func (k *Keywords) All(ctx context.Context) ([]domain.KeywordAggregate, error) {
	kws, err := k.repo.FindAll(ctx)
	if err != nil {
		return nil, apperrors.InternalError("failed to list keywords", err)
	}
	return kws, nil
}

func (k *Keywords) list(ctx context.Context, order domain.SortOrder, contains string, page domain.Page) ([]domain.KeywordAggregate, error) {
	page, err := normalizePage(page)
	if err != nil {
		return nil, err
	}
	kws, err := k.repo.List(ctx, domain.KeywordQuery{Order: order, Contains: contains, Page: page})
	if err != nil {
		return nil, apperrors.InternalError("failed to list keywords", err)
	}
	return kws, nil
}

// normalizePage rejects negative bounds and applies the default and maximum page size.
func normalizePage(p domain.Page) (domain.Page, error) {
	if p.Skip < 0 {
		return p, apperrors.ValidationError("skip must not be negative").WithField("skip", p.Skip)
	}
	if p.Take < 0 {
		return p, apperrors.ValidationError("take must not be negative").WithField("take", p.Take)
	}
	if p.Take == 0 {
		p.Take = defaultTake
	}
	p.Take = min(p.Take, maxTake)
	return p, nil
}
