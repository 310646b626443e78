package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/hashpulse/internal/domain"
)

type PostRepo struct {
	pool *pgxpool.Pool
}

var _ domain.PostRepository = (*PostRepo)(nil)

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

var postColumns = []string{
	"id", "name", "text", "location", "created", "sentiment",
	"score", "probability", "retweets", "likes", "uploader", "ingested_at",
}

// InsertMany bulk-loads posts with COPY. Insertion order is preserved by the seq identity column.
func (r *PostRepo) InsertMany(ctx context.Context, posts []domain.Post) error {
	if len(posts) == 0 {
		return nil
	}

	rows := make([][]any, len(posts))
	for i, p := range posts {
		rows[i] = []any{
			p.ID, p.Name, p.Text, p.Location, p.Created, string(p.Sentiment),
			p.Score, p.Probability, p.Retweets, p.Likes, p.Uploader, p.IngestedAt,
		}
	}

	n, err := r.pool.CopyFrom(ctx, pgx.Identifier{"posts"}, postColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to insert posts: %w", err)
	}
	if int(n) != len(posts) {
		return fmt.Errorf("failed to insert posts: copied %d of %d rows", n, len(posts))
	}
	return nil
}

func (r *PostRepo) Find(ctx context.Context, filter domain.PostFilter, page domain.Page) ([]domain.Post, error) {
	where, args := postWhere(filter)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(postColumns, ", "))
	sb.WriteString(" FROM posts")
	sb.WriteString(where)
	sb.WriteString(" ORDER BY seq")
	if page.Skip > 0 {
		args = append(args, page.Skip)
		sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}
	if page.Take > 0 {
		args = append(args, page.Take)
		sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}

	posts, err := pgx.CollectRows(rows, scanPost)
	if err != nil {
		return nil, fmt.Errorf("failed to scan posts: %w", err)
	}
	return posts, nil
}

func (r *PostRepo) Count(ctx context.Context, filter domain.PostFilter) (int64, error) {
	where, args := postWhere(filter)

	var n int64
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM posts"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

func scanPost(row pgx.CollectableRow) (domain.Post, error) {
	var p domain.Post
	var sentiment string
	err := row.Scan(
		&p.ID, &p.Name, &p.Text, &p.Location, &p.Created, &sentiment,
		&p.Score, &p.Probability, &p.Retweets, &p.Likes, &p.Uploader, &p.IngestedAt,
	)
	p.Sentiment = domain.Sentiment(sentiment)
	return p, err
}

// postWhere builds the WHERE clause for a filter. strpos keeps substring
// matching literal, so LIKE wildcards in user input have no effect.
func postWhere(f domain.PostFilter) (string, []any) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Uploader != "" {
		conds = append(conds, "uploader = "+arg(f.Uploader))
	}
	if f.Search != "" {
		p := arg(f.Search)
		conds = append(conds, "(strpos(text, "+p+") > 0 OR strpos(name, "+p+") > 0)")
	}
	if f.HashtagContains != "" {
		conds = append(conds, "strpos(text, "+arg(f.HashtagContains)+") > 0")
	}
	if f.HashtagFollowedBySpace != "" {
		conds = append(conds, "text ~* "+arg(regexp.QuoteMeta(f.HashtagFollowedBySpace)+`\s`))
	}
	if f.Sentiment != "" {
		conds = append(conds, "lower(sentiment) = lower("+arg(string(f.Sentiment))+")")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
