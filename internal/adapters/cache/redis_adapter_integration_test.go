//go:build integration

package cache_test

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicdesk/internal/adapters/cache"
	"github.com/zatekoja/clinicdesk/internal/domain/providers"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/clients/redis"
	"github.com/zatekoja/clinicdesk/pkg/config"
)

func TestRedisAdapter_Integration(t *testing.T) {
	host := os.Getenv("TEST_REDIS_HOST")
	if host == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}
	port := 6379
	if p, err := strconv.Atoi(os.Getenv("TEST_REDIS_PORT")); err == nil {
		port = p
	}

	ctx := context.Background()
	client, err := redis.NewClient(ctx, &config.RedisConfig{Host: host, Port: port}, zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	snapshots := cache.NewRedisAdapter(client, "clinicdesk:it:")

	_, err = snapshots.Get(ctx, "queue")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, snapshots.Set(ctx, "queue", []byte(`[{"id":"t1"}]`), time.Minute))
	got, err := snapshots.Get(ctx, "queue")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"t1"}]`, string(got))

	require.NoError(t, snapshots.Delete(ctx, "queue"))
	_, err = snapshots.Get(ctx, "queue")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}
