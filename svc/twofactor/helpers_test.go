package twofactor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/pkg/audit"
	"github.com/dmitrymomot/twofactor/pkg/ratelimit"
	"github.com/dmitrymomot/twofactor/pkg/secrets"
	"github.com/dmitrymomot/twofactor/pkg/totp"
	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	// aligned to a 30-second step boundary
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc    *twofactor.Service
	store  *twofactor.MemoryStore
	events *audit.MemoryStorage
	clock  *fakeClock
	cipher *secrets.Cipher
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	cfg   twofactor.Config
	store twofactor.Store
}

func withConfig(fn func(*twofactor.Config)) fixtureOption {
	return func(c *fixtureConfig) { fn(&c.cfg) }
}

func withStore(s twofactor.Store) fixtureOption {
	return func(c *fixtureConfig) { c.store = s }
}

func newCipher(t *testing.T) *secrets.Cipher {
	t.Helper()
	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	provider, err := secrets.NewStaticKeyProvider(1, key)
	require.NoError(t, err)
	return secrets.NewCipher(provider)
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	fc := fixtureConfig{cfg: twofactor.DefaultConfig()}
	fc.cfg.Issuer = "Acme"
	for _, opt := range opts {
		opt(&fc)
	}

	memStore := twofactor.NewMemoryStore()
	store := fc.store
	if store == nil {
		store = memStore
	}

	clock := newFakeClock()
	limitStore := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = limitStore.Close() })

	throttle, err := twofactor.NewThrottle(limitStore, fc.cfg, ratelimit.WithClock(clock.Now))
	require.NoError(t, err)

	events := audit.NewMemoryStorage()
	cipher := newCipher(t)

	svc, err := twofactor.New(store, cipher, throttle,
		twofactor.WithConfig(fc.cfg),
		twofactor.WithClock(clock.Now),
		twofactor.WithAuditLogger(audit.NewLogger(events, audit.WithClock(clock.Now))),
	)
	require.NoError(t, err)

	return &fixture{svc: svc, store: memStore, events: events, clock: clock, cipher: cipher}
}

var alice = twofactor.Identity{UserID: "user-1", AccountName: "alice@example.com"}

// enable runs setup and setup verification and moves the clock to the next
// time step so the next TOTP code is not a replay.
func (f *fixture) enable(t *testing.T, id twofactor.Identity) ([]byte, []string) {
	t.Helper()
	ctx := context.Background()

	res, err := f.svc.Setup(ctx, id)
	require.NoError(t, err)

	secret, err := totp.DecodeSecret(res.Secret)
	require.NoError(t, err)

	_, err = f.svc.VerifySetup(ctx, id, totp.GenerateTOTP(secret, f.clock.Now()))
	require.NoError(t, err)

	f.clock.Advance(totp.Period * time.Second)
	return secret, res.BackupCodes
}

func (f *fixture) code(secret []byte) string {
	return totp.GenerateTOTP(secret, f.clock.Now())
}

// wrongCode returns a code outside every accepted window around now.
func (f *fixture) wrongCode(secret []byte) string {
	now := f.clock.Now()
	taken := map[string]bool{}
	for _, d := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
		taken[totp.GenerateTOTP(secret, now.Add(d))] = true
	}
	for _, c := range []string{"000000", "111111", "222222", "333333"} {
		if !taken[c] {
			return c
		}
	}
	panic("unreachable")
}

func (f *fixture) actions() []string {
	var out []string
	for _, e := range f.events.Events() {
		out = append(out, e.Action)
	}
	return out
}
