package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/pkg/httpserver"
	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/requestid"
	"github.com/dmitrymomot/twofactor/pkg/secrets"
	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

func validApp() appConfig {
	return appConfig{
		Env:              "development",
		StoreDriver:      driverMemory,
		ThrottleDriver:   driverMemory,
		AuditDriver:      driverSlog,
		RoutePrefix:      "/2fa",
		QRCodeSize:       128,
		AttemptRetention: time.Hour,
		PruneInterval:    time.Minute,
		HealthTimeout:    time.Second,
	}
}

func TestAppConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*appConfig)
		wantErr bool
	}{
		{"defaults", func(*appConfig) {}, false},
		{"postgres redis opensearch", func(c *appConfig) {
			c.StoreDriver, c.ThrottleDriver, c.AuditDriver = driverPostgres, driverRedis, driverOpenSearch
		}, false},
		{"mongo", func(c *appConfig) { c.StoreDriver = driverMongo }, false},
		{"unknown store", func(c *appConfig) { c.StoreDriver = "sqlite" }, true},
		{"unknown throttle", func(c *appConfig) { c.ThrottleDriver = "memcached" }, true},
		{"unknown audit", func(c *appConfig) { c.AuditDriver = "kafka" }, true},
		{"relative prefix", func(c *appConfig) { c.RoutePrefix = "2fa" }, true},
		{"zero prune interval", func(c *appConfig) { c.PruneInterval = 0 }, true},
		{"zero retention", func(c *appConfig) { c.AttemptRetention = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validApp()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClientIPResolver(t *testing.T) {
	t.Parallel()

	app := validApp()
	app.TrustedProxies = []string{"10.0.0.0/8"}
	app.TrustedHeaders = []string{"X-Forwarded-For"}
	ips, err := clientIPResolver(app)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	req.Header.Set("X-Forwarded-For", "198.51.100.3")
	assert.Equal(t, "198.51.100.3", ips.IP(req))

	app.TrustedProxies = []string{"not-a-cidr/"}
	_, err = clientIPResolver(app)
	assert.Error(t, err)
}

func newTestService(t *testing.T, d *deps) *twofactor.Service {
	t.Helper()

	store, err := d.store(context.Background(), driverMemory)
	require.NoError(t, err)
	throttle, err := d.throttle(context.Background(), driverMemory, twofactor.DefaultConfig())
	require.NoError(t, err)
	auditLog, err := d.auditLogger(context.Background(), driverMemory)
	require.NoError(t, err)
	t.Cleanup(func() { d.close(context.Background()) })

	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	keys, err := secrets.NewStaticKeyProvider(1, key)
	require.NoError(t, err)

	svc, err := twofactor.New(store, secrets.NewCipher(keys), throttle, twofactor.WithAuditLogger(auditLog))
	require.NoError(t, err)
	return svc
}

func TestRouter(t *testing.T) {
	t.Parallel()

	d := &deps{log: logger.Discard()}
	svc := newTestService(t, d)
	ips, err := clientIPResolver(validApp())
	require.NoError(t, err)

	t.Run("healthz without checks", func(t *testing.T) {
		t.Parallel()
		h := newRouter(validApp(), logger.Discard(), svc, ips, nil)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(requestid.Header))
	})

	t.Run("healthz with failing check", func(t *testing.T) {
		t.Parallel()
		checks := []httpserver.Check{{Name: "postgres", Probe: func(context.Context) error { return errors.New("down") }}}
		h := newRouter(validApp(), logger.Discard(), svc, ips, checks)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("api mounted under prefix", func(t *testing.T) {
		t.Parallel()
		h := newRouter(validApp(), logger.Discard(), svc, ips, nil)

		req := httptest.NewRequest(http.MethodGet, "/2fa/status", nil)
		req.Header.Set("X-User-ID", "u-router")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `{"data":{"enabled":false`)
	})
}

func TestDeps_CloseRunsInReverse(t *testing.T) {
	t.Parallel()

	d := &deps{log: logger.Discard()}
	var order []int
	d.onClose(func(context.Context) error { order = append(order, 1); return nil })
	d.onClose(func(context.Context) error { order = append(order, 2); return errors.New("ignored") })
	d.onClose(func(context.Context) error { order = append(order, 3); return nil })

	d.close(context.Background())
	assert.Equal(t, []int{3, 2, 1}, order)
}
