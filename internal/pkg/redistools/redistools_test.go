package redistools_test

import (
	"context"
	"testing"
	"time"

	"github.com/Leopold1975/readlater/internal/pkg/config"
	"github.com/Leopold1975/readlater/internal/pkg/redistools"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := redistools.New(context.Background(), config.RedisCache{Addr: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, rdb.Close())
}

func TestNewUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := redistools.New(ctx, config.RedisCache{Addr: addr})
	require.Error(t, err)
}
