package redis

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/hashpulse/internal/adapter/metrics"
)

func TestNewClient_Connects(t *testing.T) {
	client := setupTestClient(t)
	require.NoError(t, client.Ping(context.Background()).Err())
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "not a url", nil)
	assert.Error(t, err)
}

func TestMetricsHook_RecordsCommands(t *testing.T) {
	_ = setupTestClient(t)
	ctx := context.Background()

	m := metrics.NewRedisMetrics(prometheus.NewRegistry())
	client, err := NewClient(ctx, testRedisURL, m)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	assert.ErrorIs(t, client.Get(ctx, "missing").Err(), goredis.Nil)

	_, err = client.Pipelined(ctx, func(p goredis.Pipeliner) error {
		p.Incr(ctx, "counter")
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.OpsTotal.WithLabelValues("set", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OpsTotal.WithLabelValues("get", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OpsTotal.WithLabelValues("pipeline", "success")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.OpsTotal.WithLabelValues("get", "error")))
}
