// Package storetest holds the behaviour every twofactor.Store must show.
// Store implementations call Run from their own tests.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

// AttemptLister is implemented by stores that can read attempts back.
type AttemptLister interface {
	ListAttempts(ctx context.Context, userID string, limit int) ([]twofactor.Attempt, error)
}

// Run exercises store. newStore must return an empty store, or one where
// user IDs produced by the suite do not collide with existing data.
func Run(t *testing.T, newStore func(t *testing.T) twofactor.Store) {
	t.Helper()

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetCredential(context.Background(), userID())
		assert.ErrorIs(t, err, twofactor.ErrNotFound)
	})

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		cred := pendingCredential(userID())

		require.NoError(t, s.CreatePending(ctx, cred))
		assert.Equal(t, int64(1), cred.Version)

		got, err := s.GetCredential(ctx, cred.UserID)
		require.NoError(t, err)
		assertCredential(t, cred, got)
	})

	t.Run("create replaces pending", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		id := userID()

		require.NoError(t, s.CreatePending(ctx, pendingCredential(id)))
		replacement := pendingCredential(id)
		replacement.SecretCiphertext = []byte("replacement-secret")
		require.NoError(t, s.CreatePending(ctx, replacement))
		assert.Equal(t, int64(2), replacement.Version)

		got, err := s.GetCredential(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []byte("replacement-secret"), got.SecretCiphertext)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("create refuses enabled", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		cred := pendingCredential(userID())
		require.NoError(t, s.CreatePending(ctx, cred))

		enable(cred)
		require.NoError(t, s.UpdateCredential(ctx, cred, 1))

		err := s.CreatePending(ctx, pendingCredential(cred.UserID))
		assert.ErrorIs(t, err, twofactor.ErrAlreadyEnabled)

		got, err := s.GetCredential(ctx, cred.UserID)
		require.NoError(t, err)
		assert.True(t, got.Enabled)
	})

	t.Run("update is compare and swap", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		cred := pendingCredential(userID())
		require.NoError(t, s.CreatePending(ctx, cred))

		enable(cred)
		require.NoError(t, s.UpdateCredential(ctx, cred, 1))
		assert.Equal(t, int64(2), cred.Version)

		stale := cred.Clone()
		stale.LastCounter = 999
		assert.ErrorIs(t, s.UpdateCredential(ctx, stale, 1), twofactor.ErrVersionConflict)

		got, err := s.GetCredential(ctx, cred.UserID)
		require.NoError(t, err)
		assertCredential(t, cred, got)

		missing := pendingCredential(userID())
		assert.ErrorIs(t, s.UpdateCredential(ctx, missing, 1), twofactor.ErrVersionConflict)
	})

	t.Run("concurrent updates", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		cred := pendingCredential(userID())
		require.NoError(t, s.CreatePending(ctx, cred))

		const writers = 6
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				next := cred.Clone()
				next.LastCounter = uint64(i + 1)
				err := s.UpdateCredential(ctx, next, 1)
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, twofactor.ErrVersionConflict)
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})

	t.Run("delete is compare and swap", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		cred := pendingCredential(userID())
		require.NoError(t, s.CreatePending(ctx, cred))

		assert.ErrorIs(t, s.DeleteCredential(ctx, cred.UserID, 7), twofactor.ErrVersionConflict)
		require.NoError(t, s.DeleteCredential(ctx, cred.UserID, 1))

		_, err := s.GetCredential(ctx, cred.UserID)
		assert.ErrorIs(t, err, twofactor.ErrNotFound)
		assert.ErrorIs(t, s.DeleteCredential(ctx, cred.UserID, 1), twofactor.ErrVersionConflict)

		// setup can start over
		require.NoError(t, s.CreatePending(ctx, pendingCredential(cred.UserID)))
	})

	t.Run("record attempts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		id := userID()
		now := time.Now().UTC().Truncate(time.Millisecond)

		for i, typ := range []twofactor.AttemptType{twofactor.AttemptSetup, twofactor.AttemptTOTPVerify} {
			require.NoError(t, s.RecordAttempt(ctx, twofactor.Attempt{
				ID:        uuid.NewString(),
				UserID:    id,
				Type:      typ,
				Success:   i == 0,
				IP:        "198.51.100.4",
				UserAgent: "storetest",
				CreatedAt: now.Add(time.Duration(i) * time.Second),
			}))
		}

		lister, ok := s.(AttemptLister)
		if !ok {
			return
		}
		got, err := lister.ListAttempts(ctx, id, 10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		// newest first
		assert.Equal(t, twofactor.AttemptTOTPVerify, got[0].Type)
		assert.False(t, got[0].Success)
		assert.Equal(t, "198.51.100.4", got[1].IP)
		assert.True(t, got[1].CreatedAt.Equal(now))
	})
}

func userID() string {
	return "storetest-" + uuid.NewString()
}

func pendingCredential(userID string) *twofactor.Credential {
	return &twofactor.Credential{
		UserID:           userID,
		SecretCiphertext: []byte("sealed-secret"),
		BackupCodes:      [][]byte{[]byte("sealed-code-1"), []byte("sealed-code-2")},
		CreatedAt:        time.Now().UTC().Truncate(time.Millisecond),
	}
}

func enable(cred *twofactor.Credential) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	cred.Enabled = true
	cred.VerifiedAt = &now
	cred.LastUsedAt = &now
	cred.LastCounter = 56_940_000
	cred.BackupCodes = cred.BackupCodes[1:]
}

func assertCredential(t *testing.T, want, got *twofactor.Credential) {
	t.Helper()
	assert.Equal(t, want.UserID, got.UserID)
	assert.Equal(t, want.SecretCiphertext, got.SecretCiphertext)
	assert.Equal(t, want.BackupCodes, got.BackupCodes)
	assert.Equal(t, want.Enabled, got.Enabled)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created at: want %s, got %s", want.CreatedAt, got.CreatedAt)
	assertTime(t, want.VerifiedAt, got.VerifiedAt)
	assertTime(t, want.LastUsedAt, got.LastUsedAt)
	assert.Equal(t, want.LastCounter, got.LastCounter)
	assert.Equal(t, want.Version, got.Version)
}

func assertTime(t *testing.T, want, got *time.Time) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got)
		return
	}
	if assert.NotNil(t, got) {
		assert.True(t, want.Equal(*got), "want %s, got %s", *want, *got)
	}
}
