package repository_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/straye-as/minicrm/internal/repository"
	"github.com/straye-as/minicrm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns every KeyValueStore implementation on a fresh substrate
func backends(t *testing.T) map[string]repository.KeyValueStore {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]repository.KeyValueStore{
		"memory": repository.NewMemoryKeyValueStore(),
		"sql":    repository.NewSQLKeyValueStore(testutil.SetupSQLiteDB(t)),
		"redis":  repository.NewRedisKeyValueStore(client, "test:"),
	}
}

func TestKeyValueStore_GetMissing(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v, ok, err := kv.Get(context.Background(), "missing")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Empty(t, v)
		})
	}
}

func TestKeyValueStore_SetAndOverwrite(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, kv.Set(ctx, "leadList", `[]`))
			require.NoError(t, kv.Set(ctx, "leadList", `[{"email":"a@x.de"}]`))

			v, ok, err := kv.Get(ctx, "leadList")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[{"email":"a@x.de"}]`, v)
		})
	}
}

func TestKeyValueStore_SetMany(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, kv.Set(ctx, "counters", `{"inv_2024":1}`))
			require.NoError(t, kv.SetMany(ctx, map[string]string{
				"counters":         `{"inv_2024":2}`,
				"customerDataList": `[]`,
			}))

			v, _, err := kv.Get(ctx, "counters")
			require.NoError(t, err)
			assert.Equal(t, `{"inv_2024":2}`, v)
			v, ok, err := kv.Get(ctx, "customerDataList")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[]`, v)

			assert.NoError(t, kv.SetMany(ctx, nil))
		})
	}
}

func TestKeyValueStore_Delete(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, kv.Set(ctx, "a", "1"))
			require.NoError(t, kv.Set(ctx, "b", "2"))

			require.NoError(t, kv.Delete(ctx, "a", "never-set"))

			_, ok, err := kv.Get(ctx, "a")
			require.NoError(t, err)
			assert.False(t, ok)
			_, ok, err = kv.Get(ctx, "b")
			require.NoError(t, err)
			assert.True(t, ok)

			assert.NoError(t, kv.Delete(ctx))
		})
	}
}

func TestRedisKeyValueStore_Prefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	kv := repository.NewRedisKeyValueStore(client, "minicrm:")
	require.NoError(t, kv.SetMany(context.Background(), map[string]string{"highlightCustomerId": "C1"}))

	v, err := mr.Get("minicrm:highlightCustomerId")
	require.NoError(t, err)
	assert.Equal(t, "C1", v)
	assert.False(t, mr.Exists("highlightCustomerId"))
}
