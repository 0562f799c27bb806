package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Dosada05/bolao-system/ranking"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (RankingCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRankingCache(client, ttl, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func sampleRanking() *ranking.Ranking {
	return &ranking.Ranking{
		Status:           ranking.StatusFinal,
		TotalMatches:     2,
		FinalizedMatches: 2,
		Entries: []ranking.Entry{
			{Position: 1, Name: "Ana", Phone: "11", Correct: 2, TotalEligible: 2, Accuracy: "100.0"},
		},
	}
}

func TestRedisRankingCache_RoundTripAndTTL(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, err := c.GetContest(ctx, 1)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.SetContest(ctx, 1, sampleRanking()))
	got, err := c.GetContest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, sampleRanking(), got)

	mr.FastForward(2 * time.Minute)
	_, err = c.GetContest(ctx, 1)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisRankingCache_InvalidateDropsGeneral(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.SetContest(ctx, 1, sampleRanking()))
	require.NoError(t, c.SetContest(ctx, 2, sampleRanking()))
	require.NoError(t, c.SetGeneral(ctx, sampleRanking()))

	require.NoError(t, c.Invalidate(ctx, 1))

	_, err := c.GetContest(ctx, 1)
	assert.ErrorIs(t, err, ErrMiss)
	_, err = c.GetGeneral(ctx)
	assert.ErrorIs(t, err, ErrMiss)
	_, err = c.GetContest(ctx, 2)
	assert.NoError(t, err)
}

func TestRedisRankingCache_CorruptedValueIsMiss(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set(contestKey(3), "{not json"))

	_, err := c.GetContest(context.Background(), 3)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestNoopRankingCache(t *testing.T) {
	c := NewNoopRankingCache()
	ctx := context.Background()

	require.NoError(t, c.SetContest(ctx, 1, sampleRanking()))
	_, err := c.GetContest(ctx, 1)
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, c.Invalidate(ctx, 1))
}
