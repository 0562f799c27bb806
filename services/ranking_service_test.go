package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/bolao-system/cache"
	"github.com/Dosada05/bolao-system/live"
	"github.com/Dosada05/bolao-system/models"
	"github.com/Dosada05/bolao-system/ranking"
	"github.com/Dosada05/bolao-system/repositories"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rankingNow = time.Date(2026, 6, 20, 18, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func contestSnapshot(contestID int, closeAt time.Time, results ...string) *repositories.ContestSnapshot {
	snap := &repositories.ContestSnapshot{
		Contest: &models.Contest{ID: contestID, PredictionsCloseAt: closeAt, Status: models.ContestStatusClosed},
	}
	for i, r := range results {
		m := &models.Match{ID: contestID*100 + i + 1, ContestID: contestID}
		if r != "" {
			m.Result = strPtr(r)
		}
		snap.Matches = append(snap.Matches, m)
	}
	return snap
}

func addPick(snap *repositories.ContestSnapshot, name, phone string, matchIdx int, raw string) {
	snap.Predictions = append(snap.Predictions, &models.Prediction{
		ContestID:        snap.Contest.ID,
		MatchID:          snap.Matches[matchIdx].ID,
		ParticipantName:  name,
		ParticipantPhone: phone,
		RawOutcome:       raw,
	})
}

func newTestRankingService(t *testing.T, snapshots repositories.SnapshotRepository, contests repositories.ContestRepository, hub Broadcaster) (*rankingService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewRankingService(snapshots, contests, cache.NewRedisRankingCache(client, time.Minute, discardLogger()), hub, discardLogger()).(*rankingService)
	svc.now = func() time.Time { return rankingNow }
	return svc, mr
}

func TestRankingService_ContestRanking_CachesResult(t *testing.T) {
	snap := contestSnapshot(1, rankingNow.Add(-time.Hour), "2x1", "")
	addPick(snap, "Ana", "11", 0, "1")
	addPick(snap, "Bia", "22", 0, "X")
	snapshots := &fakeSnapshots{load: func(int) (*repositories.ContestSnapshot, error) { return snap, nil }}

	svc, _ := newTestRankingService(t, snapshots, &fakeContestRepo{}, nil)

	got, err := svc.ContestRanking(context.Background(), 1, true)
	require.NoError(t, err)
	assert.Equal(t, ranking.StatusPartial, got.Status)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "Ana", got.Entries[0].Name)
	assert.Equal(t, 1, got.Entries[0].Correct)
	assert.NotEmpty(t, got.Entries[0].Matches)

	again, err := svc.ContestRanking(context.Background(), 1, false)
	require.NoError(t, err)
	assert.Equal(t, 1, snapshots.calls)
	require.Len(t, again.Entries, 2)
	assert.Nil(t, again.Entries[0].Matches)
}

func TestRankingService_ContestRanking_PendingWhileOpen(t *testing.T) {
	snap := contestSnapshot(1, rankingNow.Add(time.Hour), "", "")
	addPick(snap, "Ana", "11", 0, "1")
	snapshots := &fakeSnapshots{load: func(int) (*repositories.ContestSnapshot, error) { return snap, nil }}

	svc, _ := newTestRankingService(t, snapshots, &fakeContestRepo{}, nil)

	got, err := svc.ContestRanking(context.Background(), 1, false)
	require.NoError(t, err)
	assert.Equal(t, ranking.StatusPending, got.Status)
	assert.NotEmpty(t, got.Message)
	assert.Empty(t, got.Entries)
}

func TestRankingService_ContestRanking_PendingNotCachedAcrossClose(t *testing.T) {
	closeAt := rankingNow.Add(time.Minute)
	snap := contestSnapshot(2, closeAt, "", "")
	addPick(snap, "Ana", "11", 0, "1")
	snapshots := &fakeSnapshots{load: func(int) (*repositories.ContestSnapshot, error) { return snap, nil }}

	svc, mr := newTestRankingService(t, snapshots, &fakeContestRepo{}, nil)

	before, err := svc.ContestRanking(context.Background(), 2, false)
	require.NoError(t, err)
	assert.Equal(t, ranking.StatusPending, before.Status)
	assert.Empty(t, mr.Keys())

	svc.now = func() time.Time { return closeAt.Add(time.Minute) }
	after, err := svc.ContestRanking(context.Background(), 2, false)
	require.NoError(t, err)
	assert.Equal(t, ranking.StatusPartial, after.Status)
	require.Len(t, after.Entries, 1)
	assert.Equal(t, "Ana", after.Entries[0].Name)
	assert.Equal(t, 2, snapshots.calls)
}

func TestRankingService_ContestRanking_NotFound(t *testing.T) {
	snapshots := &fakeSnapshots{load: func(int) (*repositories.ContestSnapshot, error) {
		return nil, repositories.ErrContestNotFound
	}}
	svc, _ := newTestRankingService(t, snapshots, &fakeContestRepo{}, nil)

	_, err := svc.ContestRanking(context.Background(), 5, false)
	assert.ErrorIs(t, err, ErrContestNotFound)
}

func TestRankingService_Refresh_InvalidatesAndBroadcasts(t *testing.T) {
	snap := contestSnapshot(3, rankingNow.Add(-time.Hour), "")
	addPick(snap, "Ana", "11", 0, "2")
	snapshots := &fakeSnapshots{load: func(int) (*repositories.ContestSnapshot, error) { return snap, nil }}
	hub := &fakeBroadcaster{}

	svc, _ := newTestRankingService(t, snapshots, &fakeContestRepo{}, hub)

	first, err := svc.ContestRanking(context.Background(), 3, false)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Entries[0].Correct)

	snap.Matches[0].Result = strPtr("0x1")
	refreshed, err := svc.Refresh(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, ranking.StatusFinal, refreshed.Status)
	assert.Equal(t, 1, refreshed.Entries[0].Correct)
	assert.Nil(t, refreshed.Entries[0].Matches)

	require.Len(t, hub.sent, 1)
	assert.Equal(t, live.ContestRoom(3), hub.sent[0].room)
	msg, ok := hub.sent[0].message.(live.Message)
	require.True(t, ok)
	assert.Equal(t, live.MessageRankingUpdated, msg.Type)

	cached, err := svc.ContestRanking(context.Background(), 3, false)
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Entries[0].Correct)
	assert.Equal(t, 2, snapshots.calls)
}

func TestRankingService_GeneralRanking(t *testing.T) {
	snapA := contestSnapshot(1, rankingNow.Add(-48*time.Hour), "1", "2")
	addPick(snapA, "Ana", "11", 0, "1")
	addPick(snapA, "Ana", "11", 1, "2")
	addPick(snapA, "Bia", "22", 0, "1")

	snapB := contestSnapshot(2, rankingNow.Add(-time.Hour), "X")
	addPick(snapB, "Bia", "22", 0, "X")
	addPick(snapB, "Caio", "33", 0, "1")

	snapshots := &fakeSnapshots{load: func(id int) (*repositories.ContestSnapshot, error) {
		if id == 1 {
			return snapA, nil
		}
		return snapB, nil
	}}
	contests := &fakeContestRepo{list: func(filter repositories.ListContestsFilter) ([]*models.Contest, error) {
		if *filter.Status == models.ContestStatusFinished {
			return []*models.Contest{{ID: 1}}, nil
		}
		return []*models.Contest{{ID: 2}}, nil
	}}

	svc, mr := newTestRankingService(t, snapshots, contests, nil)

	got, err := svc.GeneralRanking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ranking.StatusFinal, got.Status)
	require.Len(t, got.Entries, 3)

	assert.Equal(t, "Ana", got.Entries[0].Name)
	assert.Equal(t, 2, got.Entries[0].Correct)
	assert.Equal(t, "Bia", got.Entries[1].Name)
	assert.Equal(t, 2, got.Entries[1].Correct)
	assert.Equal(t, 2, got.Entries[1].TotalEligible)
	assert.Equal(t, "Caio", got.Entries[2].Name)
	assert.Equal(t, 0, got.Entries[2].Correct)

	assert.True(t, mr.Exists("ranking:general"))
}
