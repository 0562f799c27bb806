package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/bolao-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContestService_CreateContest(t *testing.T) {
	repo := &fakeContestRepo{}
	svc := NewContestService(repo, &fakeMatchRepo{}, nil, discardLogger())

	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	input := CreateContestInput{
		Name:               "  Brasileirão R1 ",
		StartsAt:           start,
		PredictionsCloseAt: start.Add(24 * time.Hour),
		EndsAt:             start.Add(72 * time.Hour),
		TicketPriceCents:   1000,
	}

	contest, err := svc.CreateContest(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "Brasileirão R1", contest.Name)
	assert.Equal(t, models.ContestStatusDraft, contest.Status)
	assert.Len(t, repo.created, 1)

	bad := input
	bad.EndsAt = start
	_, err = svc.CreateContest(context.Background(), bad)
	assert.ErrorIs(t, err, ErrContestInvalidDates)

	bad = input
	bad.Name = "   "
	_, err = svc.CreateContest(context.Background(), bad)
	assert.ErrorIs(t, err, ErrContestNameRequired)

	bad = input
	bad.TicketPriceCents = -1
	_, err = svc.CreateContest(context.Background(), bad)
	assert.ErrorIs(t, err, ErrContestInvalidPrice)
}

func TestContestService_UpdateStatus(t *testing.T) {
	tests := []struct {
		name    string
		current models.ContestStatus
		next    models.ContestStatus
		matches int
		wantErr error
	}{
		{name: "open with matches", current: models.ContestStatusDraft, next: models.ContestStatusOpen, matches: 2},
		{name: "open without matches", current: models.ContestStatusDraft, next: models.ContestStatusOpen, wantErr: ErrContestHasNoMatches},
		{name: "close open contest", current: models.ContestStatusOpen, next: models.ContestStatusClosed},
		{name: "cancel closed contest", current: models.ContestStatusClosed, next: models.ContestStatusCancelled},
		{name: "reopen finished contest", current: models.ContestStatusFinished, next: models.ContestStatusOpen, wantErr: ErrContestInvalidStatusTransition},
		{name: "skip to finished", current: models.ContestStatusDraft, next: models.ContestStatusFinished, wantErr: ErrContestInvalidStatusTransition},
		{name: "unknown status", current: models.ContestStatusDraft, next: models.ContestStatus("archived"), wantErr: ErrContestInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var saved models.ContestStatus
			contests := &fakeContestRepo{
				getByID: func(id int) (*models.Contest, error) {
					return &models.Contest{ID: id, Status: tt.current}, nil
				},
				updateStatus: func(_ int, status models.ContestStatus) error {
					saved = status
					return nil
				},
			}
			matches := &fakeMatchRepo{listByContest: func(int) ([]*models.Match, error) {
				out := make([]*models.Match, tt.matches)
				for i := range out {
					out[i] = &models.Match{ID: i + 1}
				}
				return out, nil
			}}
			svc := NewContestService(contests, matches, nil, discardLogger())

			got, err := svc.UpdateStatus(context.Background(), 1, tt.next)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, saved)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.next, got.Status)
			assert.Equal(t, tt.next, saved)
		})
	}
}

func TestContestService_UpdateContest_PriceFixedAfterDraft(t *testing.T) {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	contests := &fakeContestRepo{getByID: func(id int) (*models.Contest, error) {
		return &models.Contest{
			ID: id, Name: "R1", Status: models.ContestStatusOpen, TicketPriceCents: 1000,
			StartsAt: start, PredictionsCloseAt: start.Add(time.Hour), EndsAt: start.Add(2 * time.Hour),
		}, nil
	}}
	svc := NewContestService(contests, &fakeMatchRepo{}, nil, discardLogger())

	price := int64(2000)
	_, err := svc.UpdateContest(context.Background(), 1, UpdateContestInput{TicketPriceCents: &price})
	assert.ErrorIs(t, err, ErrContestNotEditable)

	name := "R1 - final"
	got, err := svc.UpdateContest(context.Background(), 1, UpdateContestInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "R1 - final", got.Name)
}

func TestContestService_AutoUpdateStatuses(t *testing.T) {
	now := time.Date(2026, 7, 2, 12, 0, 0, 0, time.UTC)
	var gotNow time.Time
	contests := &fakeContestRepo{advance: func(at time.Time) (int64, int64, error) {
		gotNow = at
		return 1, 0, nil
	}}
	svc := NewContestService(contests, &fakeMatchRepo{}, nil, discardLogger())
	svc.(*contestService).now = func() time.Time { return now }

	require.NoError(t, svc.AutoUpdateStatuses(context.Background()))
	assert.Equal(t, now, gotNow)

	contests.advance = func(time.Time) (int64, int64, error) { return 0, 0, errors.New("db down") }
	assert.Error(t, svc.AutoUpdateStatuses(context.Background()))
}
