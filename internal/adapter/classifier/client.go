// Package classifier is the HTTP client for the external sentiment model.
//
// Each call POSTs {"text": ...} to the configured endpoint and expects
// {"predictedLabel": bool, "probability": number, "score": number}. Transient
// failures are retried; sustained failures open a circuit breaker so an
// ingestion fails fast instead of waiting out every record.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pscheid92/hashpulse/internal/adapter/metrics"
	"github.com/pscheid92/hashpulse/internal/domain"
	"github.com/pscheid92/hashpulse/internal/platform/correlation"
	"github.com/pscheid92/hashpulse/internal/platform/retry"
	"github.com/pscheid92/hashpulse/internal/platform/version"
	"github.com/sony/gobreaker"
)

const (
	retryMaxAttempts      = 3
	retryInitialBackoff   = 100 * time.Millisecond
	retryMaxBackoff       = time.Second
	retryRateLimitBackoff = 2 * time.Second

	maxResponseBytes = 1 << 16
)

// StatusError is returned for a non-2xx classifier response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("classifier returned status %d: %s", e.StatusCode, e.Body)
}

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	PredictedLabel *bool   `json:"predictedLabel"`
	Probability    float64 `json:"probability"`
	Score          float64 `json:"score"`
}

type Client struct {
	endpoint string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	policy   retry.Policy
	metrics  *metrics.ClassifierMetrics
}

var _ domain.Classifier = (*Client)(nil)

// New creates a classifier client. m may be nil.
func New(endpoint string, timeout time.Duration, m *metrics.ClassifierMetrics) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		metrics:  m,
		policy: retry.Policy{
			MaxAttempts:      retryMaxAttempts,
			InitialBackoff:   retryInitialBackoff,
			MaxBackoff:       retryMaxBackoff,
			RateLimitBackoff: retryRateLimitBackoff,
		},
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "classifier",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// Client-side mistakes say nothing about classifier health.
			var se *StatusError
			if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests {
				return true
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
			if c.metrics != nil {
				c.metrics.BreakerState.Set(float64(to))
			}
		},
	})
	return c
}

func (c *Client) Classify(ctx context.Context, text string) (domain.Prediction, error) {
	p := c.policy
	p.OnRetry = func(attempt int, err error, backoff time.Duration) {
		slog.WarnContext(ctx, "Classifier call failed, retrying", "attempt", attempt, "backoff_seconds", backoff.Seconds(), "error", err)
	}

	pred, err := retry.Do(ctx, p, classifyError, func(int) (domain.Prediction, error) {
		v, err := c.breaker.Execute(func() (any, error) {
			return c.predict(ctx, text)
		})
		if err != nil {
			return domain.Prediction{}, err
		}
		return v.(domain.Prediction), nil
	})
	c.record(err)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("failed to classify text: %w", err)
	}
	return pred, nil
}

func (c *Client) predict(ctx context.Context, text string) (domain.Prediction, error) {
	body, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if id, ok := correlation.ID(ctx); ok {
		req.Header.Set(correlation.Header, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("classifier request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("failed to read classifier response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Prediction{}, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}

	var out predictResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return domain.Prediction{}, &retry.PermanentError{Err: fmt.Errorf("failed to decode classifier response: %w", err)}
	}
	if out.PredictedLabel == nil {
		return domain.Prediction{}, &retry.PermanentError{Err: errors.New("classifier response has no predictedLabel")}
	}

	return domain.Prediction{Positive: *out.PredictedLabel, Probability: out.Probability, Score: out.Score}, nil
}

func classifyError(err error) retry.Action {
	var perm *retry.PermanentError
	if errors.As(err, &perm) {
		return retry.Stop
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return retry.Stop
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Stop
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusTooManyRequests:
			return retry.After
		case se.StatusCode >= 500:
			return retry.Retry
		default:
			return retry.Stop
		}
	}
	return retry.Retry
}

func (c *Client) record(err error) {
	if c.metrics == nil {
		return
	}
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "circuit_open"
	default:
		var se *StatusError
		if errors.As(err, &se) {
			outcome = "status_" + strconv.Itoa(se.StatusCode)
		} else {
			outcome = "error"
		}
	}
	c.metrics.Requests.WithLabelValues(outcome).Inc()
}

// State reports the circuit breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}
