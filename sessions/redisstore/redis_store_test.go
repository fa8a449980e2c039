package redisstore_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/enedis-gateway/internal/errors"
	"github.com/jrsteele09/enedis-gateway/sessions"
	"github.com/jrsteele09/enedis-gateway/sessions/redisstore"
	"github.com/stretchr/testify/require"
)

const keyPrefix = "enedis-gateway:session:"

type testFixture struct {
	store *redisstore.Store
	// mini is nil when REDIS_TEST_URL points at a real server.
	mini *miniredis.Miniredis
}

// setupTestFixture uses REDIS_TEST_URL when set (e.g. redis://localhost:6379/15) and an
// in-process miniredis otherwise.
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{}

	redisURL := os.Getenv("REDIS_TEST_URL")
	if redisURL == "" {
		f.mini = miniredis.RunT(t)
		redisURL = "redis://" + f.mini.Addr()
	}

	client, err := redisstore.Connect(context.Background(), redisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	f.store = redisstore.New(client)
	return f
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	sid := uuid.NewString()

	require.NoError(t, f.store.Save(ctx, sid, sessions.Session{State: "abc3", CreatedAt: time.Now().UTC()}, time.Minute))
	if f.mini != nil {
		require.True(t, f.mini.Exists(keyPrefix+sid))
		require.Equal(t, time.Minute, f.mini.TTL(keyPrefix+sid))
	}

	got, err := f.store.Get(ctx, sid)
	require.NoError(t, err)
	require.Equal(t, "abc3", got.State)

	got, err = f.store.Take(ctx, sid)
	require.NoError(t, err)
	require.Equal(t, "abc3", got.State)

	_, err = f.store.Take(ctx, sid)
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	_, err = f.store.Get(ctx, sid)
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestRedisStoreExpiry(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	if f.mini == nil {
		t.Skip("expiry is driven by miniredis time")
	}
	sid := uuid.NewString()

	require.NoError(t, f.store.Save(ctx, sid, sessions.Session{State: "abc0"}, time.Minute))
	f.mini.FastForward(2 * time.Minute)

	_, err := f.store.Take(ctx, sid)
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestRedisStoreTakeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	sid := uuid.NewString()
	require.NoError(t, f.store.Save(ctx, sid, sessions.Session{State: "abc1"}, time.Minute))

	const callers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.store.Take(ctx, sid); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := redisstore.Connect(context.Background(), "not a url")
	require.Error(t, err)
}
