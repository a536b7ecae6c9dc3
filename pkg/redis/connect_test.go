package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/pkg/redis"
)

func TestConnect(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "redis://" + mr.Addr() + "/0",
		ConnectTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, redis.Healthcheck(client)(context.Background()))

	mr.SetError("LOADING")
	assert.ErrorIs(t, redis.Healthcheck(client)(context.Background()), redis.ErrHealthcheckFailed)
}

func TestConnect_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  redis.Config
		want error
	}{
		{"empty url", redis.Config{}, redis.ErrEmptyConnectionURL},
		{"bad scheme", redis.Config{ConnectionURL: "http://localhost:6379"}, redis.ErrFailedToParseRedisConnString},
		{
			"unreachable",
			redis.Config{
				ConnectionURL:  "redis://127.0.0.1:1/0",
				RetryAttempts:  1,
				RetryInterval:  10 * time.Millisecond,
				ConnectTimeout: 2 * time.Second,
			},
			redis.ErrRedisNotReady,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := redis.Connect(context.Background(), tt.cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
