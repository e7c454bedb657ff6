package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStoreFromClient(client)
}

func TestGetAbsentKey(t *testing.T) {
	s := newStore(t)
	v, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestSetNX(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	ok, err := s.SetNX(ctx, "url", "git_repo_id:1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetNX(ctx, "url", "git_repo_id:2")
	require.NoError(t, err)
	assert.False(t, ok, "second setnx must not overwrite")

	v, err := s.Get(ctx, "url")
	require.NoError(t, err)
	assert.Equal(t, "git_repo_id:1", v)
}

func TestIncr(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	n, err := s.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestFieldOperations(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetFields(ctx, "git_repo_id:1", map[string]any{
		"url":         "https://example.com/r.git",
		"total_files": 12,
	}))

	v, err := s.GetField(ctx, "git_repo_id:1", "url")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/r.git", v)

	v, err = s.GetField(ctx, "git_repo_id:1", "last_checkout")
	require.NoError(t, err)
	assert.Empty(t, v, "absent field reads as empty")

	all, err := s.GetAll(ctx, "git_repo_id:1")
	require.NoError(t, err)
	assert.Equal(t, "12", all["total_files"])

	require.NoError(t, s.DeleteField(ctx, "git_repo_id:1", "total_files"))
	v, err = s.GetField(ctx, "git_repo_id:1", "total_files")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestKeysAndDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetFields(ctx, "git_repo_id:1", map[string]any{"url": "a"}))
	require.NoError(t, s.SetFields(ctx, "git_repo_id:2", map[string]any{"url": "b"}))

	keys, err := s.Keys(ctx, "git_repo_id:*")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	require.NoError(t, s.Delete(ctx, "git_repo_id:1", "git_repo_id:2"))
	keys, err = s.Keys(ctx, "git_repo_id:*")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMultiGetAllPreservesOrder(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetFields(ctx, "git_repo_id:1", map[string]any{"url": "a"}))
	require.NoError(t, s.SetFields(ctx, "git_repo_id:3", map[string]any{"url": "c"}))

	records, err := s.MultiGetAll(ctx, []string{"git_repo_id:1", "git_repo_id:2", "git_repo_id:3"})
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "a", records[0]["url"])
	assert.Empty(t, records[1], "unknown record yields an empty map")
	assert.Equal(t, "c", records[2]["url"])
}
