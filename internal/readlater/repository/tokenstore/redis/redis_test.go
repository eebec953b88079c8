package redis_test

import (
	"context"
	"testing"

	"github.com/Leopold1975/readlater/internal/readlater/repository/tokenstore"
	tsredis "github.com/Leopold1975/readlater/internal/readlater/repository/tokenstore/redis"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	s := tsredis.New(rdb)

	_, err := s.Get(ctx, "auth_token")
	require.ErrorIs(t, err, tokenstore.ErrNotFound)

	require.NoError(t, s.Set(ctx, "auth_token", "tok"))
	require.True(t, mr.Exists("readlater:storage:auth_token"))

	v, err := s.Get(ctx, "auth_token")
	require.NoError(t, err)
	require.Equal(t, "tok", v)

	require.NoError(t, s.Delete(ctx, "auth_token"))

	_, err = s.Get(ctx, "auth_token")
	require.ErrorIs(t, err, tokenstore.ErrNotFound)
}
