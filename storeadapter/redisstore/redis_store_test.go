// Package redisstore_test validates the Redis-backed Store against an in-process miniredis
// Covers put-if-absent, put-if-version, delete-if-version, and get across the conflict/ok boundary
//
// redisstore_test 针对进程内 miniredis 验证 Redis 版 Store
// 覆盖 put-if-absent、put-if-version、delete-if-version 以及 get 在冲突/成功边界上的行为
package redisstore_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-xlan/dlm-go-suo/dlmerrors"
	"github.com/go-xlan/dlm-go-suo/storeadapter"
	"github.com/go-xlan/dlm-go-suo/storeadapter/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/yyle88/must"
	"github.com/yyle88/rese"
)

func newTestStore(t *testing.T) *redisstore.Store {
	miniRedis := rese.P1(miniredis.Run())
	t.Cleanup(miniRedis.Close)

	redisClient := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{miniRedis.Addr()},
	})
	must.Done(redisClient.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = redisClient.Close() })

	return redisstore.New(redisClient, "locks-table")
}

func TestPutIfAbsent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	record := storeadapter.Record{LockKey: "L", LeaseDuration: 20, VersionNumber: "v1", HostIdentifier: "h1"}
	require.NoError(t, store.PutIfAbsent(ctx, "L", record))

	err := store.PutIfAbsent(ctx, "L", record)
	require.ErrorIs(t, err, dlmerrors.ErrConflict)
}

func TestPutIfVersion(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	record := storeadapter.Record{LockKey: "L", LeaseDuration: 20, VersionNumber: "v1", HostIdentifier: "h1"}
	require.NoError(t, store.PutIfAbsent(ctx, "L", record))

	next := storeadapter.Record{LockKey: "L", LeaseDuration: 20, VersionNumber: "v2", HostIdentifier: "h1"}
	require.NoError(t, store.PutIfVersion(ctx, "L", next, "v1"))

	err := store.PutIfVersion(ctx, "L", next, "v1") // stale version now
	require.ErrorIs(t, err, dlmerrors.ErrConflict)

	got, err := store.Get(ctx, "L")
	require.NoError(t, err)
	require.Equal(t, "v2", got.VersionNumber)
}

func TestDeleteIfVersion(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	record := storeadapter.Record{LockKey: "L", LeaseDuration: 20, VersionNumber: "v1", HostIdentifier: "h1"}
	require.NoError(t, store.PutIfAbsent(ctx, "L", record))

	err := store.DeleteIfVersion(ctx, "L", "wrong-version")
	require.ErrorIs(t, err, dlmerrors.ErrConflict)

	require.NoError(t, store.DeleteIfVersion(ctx, "L", "v1"))

	got, err := store.Get(ctx, "L")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestGetAbsent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	got, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, got)
}
