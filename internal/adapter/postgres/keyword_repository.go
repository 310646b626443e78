package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/hashpulse/internal/domain"
)

type KeywordRepo struct {
	pool *pgxpool.Pool
}

var _ domain.KeywordRepository = (*KeywordRepo)(nil)

func NewKeywordRepo(pool *pgxpool.Pool) *KeywordRepo {
	return &KeywordRepo{pool: pool}
}

const keywordSelect = `SELECT id, hashtag, count, positive_count, negative_count, retweets, likes, version FROM keywords`

func (r *KeywordRepo) FindAll(ctx context.Context) ([]domain.KeywordAggregate, error) {
	return r.query(ctx, keywordSelect+" ORDER BY seq")
}

func (r *KeywordRepo) FindByHashtag(ctx context.Context, hashtag string) (*domain.KeywordAggregate, error) {
	rows, err := r.pool.Query(ctx, keywordSelect+" WHERE hashtag = $1", hashtag)
	if err != nil {
		return nil, fmt.Errorf("failed to query keyword: %w", err)
	}

	kw, err := pgx.CollectExactlyOneRow(rows, scanKeyword)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrKeywordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan keyword: %w", err)
	}
	return &kw, nil
}

func (r *KeywordRepo) FindByHashtags(ctx context.Context, hashtags []string) ([]domain.KeywordAggregate, error) {
	if len(hashtags) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(hashtags))
	for i, h := range hashtags {
		lowered[i] = strings.ToLower(h)
	}
	return r.query(ctx, keywordSelect+" WHERE lower(hashtag) = ANY($1) ORDER BY seq", lowered)
}

func (r *KeywordRepo) FindRelated(ctx context.Context, fragment, exclude string, limit int) ([]domain.KeywordAggregate, error) {
	if limit <= 0 {
		return nil, nil
	}
	return r.query(ctx,
		keywordSelect+" WHERE strpos(hashtag, $1) > 0 AND hashtag <> $2 ORDER BY seq LIMIT $3",
		fragment, exclude, limit,
	)
}

// List orders by count then by hashtag in byte order so paging is stable.
func (r *KeywordRepo) List(ctx context.Context, q domain.KeywordQuery) ([]domain.KeywordAggregate, error) {
	var sb strings.Builder
	var args []any
	sb.WriteString(keywordSelect)
	if q.Contains != "" {
		args = append(args, q.Contains)
		sb.WriteString(" WHERE strpos(hashtag, $1) > 0")
	}
	if q.Order == domain.SortByCountAsc {
		sb.WriteString(` ORDER BY count ASC, hashtag COLLATE "C" ASC`)
	} else {
		sb.WriteString(` ORDER BY count DESC, hashtag COLLATE "C" ASC`)
	}
	if q.Page.Skip > 0 {
		args = append(args, q.Page.Skip)
		sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}
	if q.Page.Take > 0 {
		args = append(args, q.Page.Take)
		sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	return r.query(ctx, sb.String(), args...)
}

const insertKeywordSQL = `
INSERT INTO keywords (id, hashtag, count, positive_count, negative_count, retweets, likes, version)
VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
ON CONFLICT DO NOTHING`

// InsertMany creates new aggregates in one batch. A row that collides with an
// existing hashtag is skipped and reported back as a conflict.
func (r *KeywordRepo) InsertMany(ctx context.Context, aggregates []domain.KeywordAggregate) ([]string, error) {
	if len(aggregates) == 0 {
		return nil, nil
	}

	batch := &pgx.Batch{}
	for _, kw := range aggregates {
		batch.Queue(insertKeywordSQL, kw.ID, kw.Hashtag, kw.Count, kw.PositiveCount, kw.NegativeCount, kw.Retweets, kw.Likes)
	}
	return r.execBatch(ctx, batch, aggregates, "insert")
}

const updateKeywordSQL = `
UPDATE keywords
SET count = $3, positive_count = $4, negative_count = $5, retweets = $6, likes = $7, version = version + 1
WHERE id = $1 AND version = $2`

// UpdateMany writes each aggregate only if its stored version is unchanged.
func (r *KeywordRepo) UpdateMany(ctx context.Context, aggregates []domain.KeywordAggregate) ([]string, error) {
	if len(aggregates) == 0 {
		return nil, nil
	}

	batch := &pgx.Batch{}
	for _, kw := range aggregates {
		batch.Queue(updateKeywordSQL, kw.ID, kw.Version, kw.Count, kw.PositiveCount, kw.NegativeCount, kw.Retweets, kw.Likes)
	}
	return r.execBatch(ctx, batch, aggregates, "update")
}

func (r *KeywordRepo) execBatch(ctx context.Context, batch *pgx.Batch, aggregates []domain.KeywordAggregate, op string) (conflicts []string, err error) {
	br := r.pool.SendBatch(ctx, batch)
	defer func() {
		if cerr := br.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to %s keywords: %w", op, cerr)
		}
	}()

	for _, kw := range aggregates {
		tag, err := br.Exec()
		if err != nil {
			return nil, fmt.Errorf("failed to %s keyword %q: %w", op, kw.Hashtag, err)
		}
		if tag.RowsAffected() == 0 {
			conflicts = append(conflicts, kw.Hashtag)
		}
	}
	return conflicts, nil
}

func (r *KeywordRepo) query(ctx context.Context, sql string, args ...any) ([]domain.KeywordAggregate, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query keywords: %w", err)
	}

	keywords, err := pgx.CollectRows(rows, scanKeyword)
	if err != nil {
		return nil, fmt.Errorf("failed to scan keywords: %w", err)
	}
	return keywords, nil
}

func scanKeyword(row pgx.CollectableRow) (domain.KeywordAggregate, error) {
	var kw domain.KeywordAggregate
	err := row.Scan(&kw.ID, &kw.Hashtag, &kw.Count, &kw.PositiveCount, &kw.NegativeCount, &kw.Retweets, &kw.Likes, &kw.Version)
	return kw, err
}
