package opensearch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/pkg/opensearch"
)

func fakeCluster(t *testing.T, status *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"cluster_name":"test","version":{"number":"2.11.0","distribution":"opensearch"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew(t *testing.T) {
	t.Parallel()

	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := fakeCluster(t, &status)

	client, err := opensearch.New(context.Background(), opensearch.Config{
		Addresses:    []string{srv.URL},
		DisableRetry: true,
	})
	require.NoError(t, err)

	check := opensearch.Healthcheck(client)
	assert.NoError(t, check(context.Background()))

	status.Store(http.StatusServiceUnavailable)
	assert.ErrorIs(t, check(context.Background()), opensearch.ErrHealthcheckFailed)
}

func TestNew_Unhealthy(t *testing.T) {
	t.Parallel()

	var status atomic.Int32
	status.Store(http.StatusUnauthorized)
	srv := fakeCluster(t, &status)

	_, err := opensearch.New(context.Background(), opensearch.Config{
		Addresses:    []string{srv.URL},
		DisableRetry: true,
	})
	assert.ErrorIs(t, err, opensearch.ErrHealthcheckFailed)
}
