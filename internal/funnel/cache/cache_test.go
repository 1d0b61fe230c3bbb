package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedValue struct {
	Name    string   `json:"name"`
	Score   int      `json:"score"`
	Entries []string `json:"entries"`
}

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// ==========================
// Key
// ==========================

func TestKey(t *testing.T) {
	a := Key("profile", "a luxury shop")
	b := Key("profile", "a luxury shop")
	c := Key("analysis", "a luxury shop")
	d := Key("profile", "a luxury", "shop")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Regexp(t, `^profile:[0-9a-f]{32}$`, a)
}

// ==========================
// RedisStore
// ==========================

func TestRedisStore_RoundTrip(t *testing.T) {
	mr, client := setupMiniredis(t)
	store := NewRedisStore(client, "funnel")
	ctx := context.Background()

	in := cachedValue{Name: "hero", Score: 9, Entries: []string{"a", "b"}}
	require.NoError(t, store.Set(ctx, "k1", in, time.Minute))
	assert.True(t, mr.Exists("funnel:k1"))

	var out cachedValue
	found, err := store.Get(ctx, "k1", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestRedisStore_Miss(t *testing.T) {
	_, client := setupMiniredis(t)
	store := NewRedisStore(client, "")

	var out cachedValue
	found, err := store.Get(context.Background(), "missing", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_Expiry(t *testing.T) {
	mr, client := setupMiniredis(t)
	store := NewRedisStore(client, "funnel")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "ttl", cachedValue{Name: "x"}, 5*time.Second))
	mr.FastForward(6 * time.Second)

	var out cachedValue
	found, err := store.Get(ctx, "ttl", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_Delete(t *testing.T) {
	mr, client := setupMiniredis(t)
	store := NewRedisStore(client, "funnel")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "gone", cachedValue{Name: "x"}, 0))
	require.NoError(t, store.Delete(ctx, "gone"))
	assert.False(t, mr.Exists("funnel:gone"))
}

func TestRedisStore_CorruptValue(t *testing.T) {
	mr, client := setupMiniredis(t)
	store := NewRedisStore(client, "")
	require.NoError(t, mr.Set("bad", "{not json"))

	var out cachedValue
	found, err := store.Get(context.Background(), "bad", &out)
	require.Error(t, err)
	assert.False(t, found)
	assert.NotErrorIs(t, err, ErrCacheUnavailable)
}

func TestRedisStore_BackendErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, "funnel")
	ctx := context.Background()

	mock.ExpectGet("funnel:k").SetErr(errors.New("connection refused"))
	var out cachedValue
	found, err := store.Get(ctx, "k", &out)
	assert.False(t, found)
	assert.ErrorIs(t, err, ErrCacheUnavailable)

	mock.ExpectSet("funnel:k", []byte(`{"name":"x","score":0,"entries":null}`), time.Minute).SetErr(errors.New("READONLY"))
	err = store.Set(ctx, "k", cachedValue{Name: "x"}, time.Minute)
	assert.ErrorIs(t, err, ErrCacheUnavailable)

	mock.ExpectDel("funnel:k").SetErr(errors.New("timeout"))
	err = store.Delete(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheUnavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_UnencodableValue(t *testing.T) {
	_, client := setupMiniredis(t)
	store := NewRedisStore(client, "")

	err := store.Set(context.Background(), "fn", func() {}, 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheUnavailable)
}

// ==========================
// MemoryStore
// ==========================

func TestMemoryStore_RoundTripReturnsCopies(t *testing.T) {
	store := NewMemoryStore(4)
	ctx := context.Background()

	in := cachedValue{Name: "faq", Entries: []string{"q1"}}
	require.NoError(t, store.Set(ctx, "k", in, 0))
	in.Entries[0] = "mutated"

	var out cachedValue
	found, err := store.Get(ctx, "k", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"q1"}, out.Entries)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(4)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", cachedValue{Name: "x"}, time.Minute))

	var out cachedValue
	found, _ := store.Get(ctx, "k", &out)
	assert.True(t, found)

	now = now.Add(2 * time.Minute)
	found, _ = store.Get(ctx, "k", &out)
	assert.False(t, found)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()

	t.Run("read refreshes recency", func(t *testing.T) {
		store := NewMemoryStore(2)
		require.NoError(t, store.Set(ctx, "a", 1, 0))
		require.NoError(t, store.Set(ctx, "b", 2, 0))

		var v int
		found, _ := store.Get(ctx, "a", &v)
		require.True(t, found)
		require.NoError(t, store.Set(ctx, "c", 3, 0))

		found, _ = store.Get(ctx, "a", &v)
		assert.True(t, found, "a was read after b and must survive")
		assert.Equal(t, 1, v)
		found, _ = store.Get(ctx, "b", &v)
		assert.False(t, found, "b is the least recently used entry")
		assert.Equal(t, 2, store.Len())
	})

	t.Run("overwrite refreshes recency", func(t *testing.T) {
		store := NewMemoryStore(2)
		require.NoError(t, store.Set(ctx, "a", 1, 0))
		require.NoError(t, store.Set(ctx, "b", 2, 0))
		require.NoError(t, store.Set(ctx, "a", 10, 0))
		require.NoError(t, store.Set(ctx, "c", 3, 0))

		var v int
		found, _ := store.Get(ctx, "a", &v)
		assert.True(t, found)
		assert.Equal(t, 10, v)
		found, _ = store.Get(ctx, "b", &v)
		assert.False(t, found)
		found, _ = store.Get(ctx, "c", &v)
		assert.True(t, found)
	})
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", 1, 0))
	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "never-set"))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore(16)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%20)
			_ = store.Set(ctx, key, i, time.Minute)
			var v int
			_, _ = store.Get(ctx, key, &v)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, store.Len(), 16)
}
