package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/hashpulse/internal/adapter/metrics"
	"github.com/pscheid92/hashpulse/internal/domain"
	apperrors "github.com/pscheid92/hashpulse/internal/platform/errors"
	"github.com/pscheid92/hashpulse/internal/platform/retry"
	"github.com/pscheid92/hashpulse/internal/textproc"
	"golang.org/x/sync/errgroup"
)

const (
	mergeInitialBackoff = 10 * time.Millisecond
	mergeMaxBackoff     = 500 * time.Millisecond
)

// Ingestor runs the ingestion pipeline: decode, classify, extract hashtags,
// merge into the stored aggregates and persist.
type Ingestor struct {
	classifier  domain.Classifier
	posts       domain.PostRepository
	keywords    domain.KeywordRepository
	cache       domain.StatisticsCache
	clock       clockwork.Clock
	metrics     *metrics.IngestMetrics
	mergePolicy retry.Policy
}

// NewIngestor creates the ingestion service.
// cache and m may be nil. maxMergeAttempts bounds the re-merge rounds after a version conflict.
func NewIngestor(classifier domain.Classifier, posts domain.PostRepository, keywords domain.KeywordRepository, cache domain.StatisticsCache, clock clockwork.Clock, m *metrics.IngestMetrics, maxMergeAttempts int) *Ingestor {
	return &Ingestor{
		classifier: classifier,
		posts:      posts,
		keywords:   keywords,
		cache:      cache,
		clock:      clock,
		metrics:    m,
		mergePolicy: retry.Policy{
			MaxAttempts:    maxMergeAttempts,
			InitialBackoff: mergeInitialBackoff,
			MaxBackoff:     mergeMaxBackoff,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				slog.Debug("Retrying keyword merge", "attempt", attempt, "backoff", backoff, "error", err)
			},
		},
	}
}

// Ingest consumes every record, then persists the posts and the merged aggregates.
// Any decode or classifier failure aborts the call before anything is written.
// Re-ingesting the same records counts them again.
// The posts metric counts stored posts, including those of a batch whose
// aggregate writes failed.
func (i *Ingestor) Ingest(ctx context.Context, records domain.RecordReader, uploader string) (err error) {
	start := i.clock.Now()
	var posts []domain.Post
	stored, skipped := 0, 0
	defer func() {
		result := "success"
		if err != nil {
			result = "error"
		}
		i.metrics.ObserveBatch(result, stored, skipped, i.clock.Since(start))
	}()

	delta := domain.NewBatchDelta()
	for row := 1; ; row++ {
		raw, err := records.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return apperrors.ValidationError("invalid post record").WithField("row", row).Wrap(err)
		}

		post, err := i.classify(ctx, raw, uploader)
		if err != nil {
			return apperrors.ExternalError("failed to classify post", err).WithField("row", row)
		}
		posts = append(posts, post)

		engagement, decision := domain.EvaluateEngagement(raw.Retweets, raw.Likes)
		if decision == domain.EngagementSkip {
			skipped++
			continue
		}
		for _, hashtag := range textproc.ExtractHashtags(raw.Text) {
			delta.Add(hashtag, engagement.Likes, engagement.Retweets, post.Sentiment)
		}
	}

	if len(posts) == 0 {
		slog.DebugContext(ctx, "Empty feed, nothing to ingest", "uploader", uploader)
		return nil
	}

	stored, err = i.persist(ctx, posts, delta)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Feed ingested",
		"uploader", uploader,
		"posts", len(posts),
		"hashtags", delta.Len(),
		"engagement_skipped", skipped,
	)
	return nil
}

func (i *Ingestor) classify(ctx context.Context, raw domain.RawPost, uploader string) (domain.Post, error) {
	started := i.clock.Now()
	pred, err := i.classifier.Classify(ctx, raw.Text)
	i.metrics.ObserveClassify(i.clock.Since(started))
	if err != nil {
		return domain.Post{}, err
	}

	return domain.Post{
		ID:          uuid.New(),
		Name:        raw.Name,
		Text:        raw.Text,
		Location:    raw.Location,
		Created:     raw.Created,
		Sentiment:   domain.SentimentFromLabel(pred.Positive),
		Score:       pred.Score,
		Probability: pred.Probability,
		Retweets:    raw.Retweets,
		Likes:       raw.Likes,
		Uploader:    uploader,
		IngestedAt:  i.clock.Now(),
	}, nil
}

// persist merges the delta into one snapshot of all aggregates and issues the
// post insert, aggregate update and aggregate insert concurrently. The writes are
// independent: each runs to completion on ctx, and a failure in one neither
// cancels nor undoes the others. It returns the number of posts stored.
func (i *Ingestor) persist(ctx context.Context, posts []domain.Post, delta *domain.BatchDelta) (int, error) {
	snapshot, err := i.keywords.FindAll(ctx)
	if err != nil {
		return 0, apperrors.InternalError("failed to read keyword aggregates", err)
	}
	merged := MergeKeywords(snapshot, delta)

	// Posts may land even if a later step fails, so cached statistics go stale either way.
	defer i.invalidateCache(ctx)

	var (
		stored                           int
		updateConflicts, insertConflicts []string
		g                                errgroup.Group
	)
	g.Go(func() error {
		if err := i.posts.InsertMany(ctx, posts); err != nil {
			return fmt.Errorf("failed to insert posts: %w", err)
		}
		stored = len(posts)
		return nil
	})
	if len(merged.Updates) > 0 {
		g.Go(func() (err error) {
			updateConflicts, err = i.keywords.UpdateMany(ctx, merged.Updates)
			if err != nil {
				return fmt.Errorf("failed to update keyword aggregates: %w", err)
			}
			return nil
		})
	}
	if len(merged.Inserts) > 0 {
		g.Go(func() (err error) {
			insertConflicts, err = i.keywords.InsertMany(ctx, merged.Inserts)
			if err != nil {
				return fmt.Errorf("failed to insert keyword aggregates: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stored, apperrors.InternalError("failed to persist feed", err)
	}

	conflicts := append(updateConflicts, insertConflicts...)
	if len(conflicts) == 0 {
		return stored, nil
	}
	return stored, i.resolveConflicts(ctx, delta.Subset(conflicts))
}

// resolveConflicts re-reads the aggregates that moved underneath us, re-merges their
// share of the delta and writes again until every hashtag lands or attempts run out.
func (i *Ingestor) resolveConflicts(ctx context.Context, pending *domain.BatchDelta) error {
	i.metrics.AddMergeConflicts(pending.Len())

	err := retry.DoVoid(ctx, i.mergePolicy, classifyMergeError, func(attempt int) error {
		current, err := i.keywords.FindByHashtags(ctx, pending.Hashtags())
		if err != nil {
			return fmt.Errorf("failed to re-read keyword aggregates: %w", err)
		}
		merged := MergeKeywords(current, pending)

		var lost []string
		if len(merged.Updates) > 0 {
			c, err := i.keywords.UpdateMany(ctx, merged.Updates)
			if err != nil {
				return fmt.Errorf("failed to update keyword aggregates: %w", err)
			}
			lost = append(lost, c...)
		}
		if len(merged.Inserts) > 0 {
			c, err := i.keywords.InsertMany(ctx, merged.Inserts)
			if err != nil {
				return fmt.Errorf("failed to insert keyword aggregates: %w", err)
			}
			lost = append(lost, c...)
		}

		if len(lost) == 0 {
			return nil
		}
		pending = pending.Subset(lost)
		i.metrics.AddMergeConflicts(len(lost))
		return fmt.Errorf("%d hashtags still contended: %w", len(lost), domain.ErrVersionConflict)
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, domain.ErrVersionConflict) {
		slog.WarnContext(ctx, "Keyword merge gave up after concurrent updates",
			"hashtags", pending.Hashtags(), "error", err)
		return apperrors.ConflictError("keyword aggregates changed concurrently", err).
			WithField("hashtags", pending.Hashtags())
	}
	return apperrors.InternalError("failed to persist keyword aggregates", err)
}

func classifyMergeError(err error) retry.Action {
	if errors.Is(err, domain.ErrVersionConflict) {
		return retry.Retry
	}
	return retry.Stop
}

func (i *Ingestor) invalidateCache(ctx context.Context) {
	if i.cache == nil {
		return
	}
	// The request context may already be cancelled; invalidation must still happen.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := i.cache.Invalidate(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to invalidate statistics cache", "error", err)
	}
}
