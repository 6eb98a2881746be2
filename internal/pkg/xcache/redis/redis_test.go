package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lib_store "github.com/eko/gocache/lib/v4/store"
	redis "github.com/redis/go-redis/v9"
)

// Test struct for JSON encoding/decoding.
type TestStruct struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestRedisStoreSetAndGetWithStruct(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	testValue := TestStruct{Name: "test", Value: 123}

	store := NewRedisStore[TestStruct](client)
	err := store.Set(ctx, "my-key", testValue)
	require.NoError(t, err)

	// Values are stored JSON-encoded.
	raw, err := mr.Get("my-key")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"test","value":123}`, raw)

	value, err := store.Get(ctx, "my-key")
	require.NoError(t, err)

	tv, ok := value.(TestStruct)
	assert.True(t, ok)
	assert.Equal(t, testValue, tv)
}

func TestRedisStoreGetWithTTL(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	testValue := TestStruct{Name: "test", Value: 123}
	ttlValue := 10 * time.Second

	store := NewRedisStore[TestStruct](client)
	err := store.Set(ctx, "my-key", testValue, lib_store.WithExpiration(ttlValue))
	require.NoError(t, err)

	value, ttl, err := store.GetWithTTL(ctx, "my-key")
	require.NoError(t, err)
	assert.Equal(t, ttlValue, ttl)

	tv, ok := value.(TestStruct)
	assert.True(t, ok)
	assert.Equal(t, testValue, tv)
}

func TestRedisStoreWithString(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	store := NewRedisStore[string](client)
	err := store.Set(ctx, "my-key", "test string")
	require.NoError(t, err)

	value, err := store.Get(ctx, "my-key")
	require.NoError(t, err)
	assert.Equal(t, "test string", value.(string))
}

func TestRedisStoreGetMissingKey(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	store := NewRedisStore[string](client)

	_, err := store.Get(ctx, "absent")
	assert.Error(t, err)
}

func TestRedisStoreDelete(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	store := NewRedisStore[int](client)
	require.NoError(t, store.Set(ctx, "my-key", 42))

	require.NoError(t, store.Delete(ctx, "my-key"))

	_, err := store.Get(ctx, "my-key")
	assert.Error(t, err)
}
