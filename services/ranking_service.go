package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/bolao-system/cache"
	"github.com/Dosada05/bolao-system/live"
	"github.com/Dosada05/bolao-system/models"
	"github.com/Dosada05/bolao-system/ranking"
	"github.com/Dosada05/bolao-system/repositories"
	"golang.org/x/sync/errgroup"
)

const generalRankingConcurrency = 4

type RankingService interface {
	ContestRanking(ctx context.Context, contestID int, withBreakdown bool) (*ranking.Ranking, error)
	GeneralRanking(ctx context.Context) (*ranking.Ranking, error)
	Refresh(ctx context.Context, contestID int) (*ranking.Ranking, error)
}

type rankingService struct {
	snapshots   repositories.SnapshotRepository
	contestRepo repositories.ContestRepository
	cache       cache.RankingCache
	hub         Broadcaster
	logger      *slog.Logger
	now         func() time.Time
}

func NewRankingService(
	snapshots repositories.SnapshotRepository,
	contestRepo repositories.ContestRepository,
	rankingCache cache.RankingCache,
	hub Broadcaster,
	logger *slog.Logger,
) RankingService {
	if rankingCache == nil {
		rankingCache = cache.NewNoopRankingCache()
	}
	return &rankingService{
		snapshots:   snapshots,
		contestRepo: contestRepo,
		cache:       rankingCache,
		hub:         hub,
		logger:      logger,
		now:         time.Now,
	}
}

// В кеше лежит рейтинг с поматчевой разбивкой, без неё отдаём копию.
func withoutBreakdown(r *ranking.Ranking) *ranking.Ranking {
	out := *r
	out.Entries = make([]ranking.Entry, len(r.Entries))
	for i, e := range r.Entries {
		e.Matches = nil
		out.Entries[i] = e
	}
	return &out
}

func (s *rankingService) ContestRanking(ctx context.Context, contestID int, withBreakdown bool) (*ranking.Ranking, error) {
	cached, err := s.cache.GetContest(ctx, contestID)
	switch {
	case err == nil:
		if withBreakdown {
			return cached, nil
		}
		return withoutBreakdown(cached), nil
	case !errors.Is(err, cache.ErrMiss):
		s.logger.WarnContext(ctx, "Ranking cache read failed", slog.Int("contest_id", contestID), slog.Any("error", err))
	}

	r, err := s.compute(ctx, contestID)
	if err != nil {
		return nil, err
	}
	s.store(ctx, contestID, r)
	if withBreakdown {
		return r, nil
	}
	return withoutBreakdown(r), nil
}

// store кладёт рейтинг в кеш. Pending не кешируется: он зависит от времени,
// а не от данных, и после закрытия приёма должен сразу смениться на partial.
func (s *rankingService) store(ctx context.Context, contestID int, r *ranking.Ranking) {
	if r.Status == ranking.StatusPending {
		return
	}
	if err := s.cache.SetContest(ctx, contestID, r); err != nil {
		s.logger.WarnContext(ctx, "Ranking cache write failed", slog.Int("contest_id", contestID), slog.Any("error", err))
	}
}

func (s *rankingService) compute(ctx context.Context, contestID int) (*ranking.Ranking, error) {
	snapshot, err := s.snapshots.LoadContest(ctx, contestID)
	if err != nil {
		return nil, mapContestRepoError(err)
	}
	in := toRankingInput(snapshot.Matches, snapshot.Predictions)
	r, err := ranking.Compute(in, ranking.Options{
		AllowPartial:  !s.now().Before(snapshot.Contest.PredictionsCloseAt),
		WithBreakdown: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute ranking for contest %d: %w", contestID, err)
	}
	return r, nil
}

func (s *rankingService) GeneralRanking(ctx context.Context) (*ranking.Ranking, error) {
	cached, err := s.cache.GetGeneral(ctx)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.WarnContext(ctx, "General ranking cache read failed", slog.Any("error", err))
	}

	var contests []*models.Contest
	for _, status := range []models.ContestStatus{models.ContestStatusClosed, models.ContestStatusFinished} {
		status := status
		list, err := s.contestRepo.List(ctx, repositories.ListContestsFilter{Status: &status})
		if err != nil {
			return nil, fmt.Errorf("failed to list %s contests: %w", status, err)
		}
		contests = append(contests, list...)
	}

	rankings := make([]*ranking.Ranking, len(contests))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(generalRankingConcurrency)
	for i, c := range contests {
		i, contestID := i, c.ID
		g.Go(func() error {
			r, err := s.ContestRanking(gCtx, contestID, false)
			if err != nil {
				return fmt.Errorf("contest %d: %w", contestID, err)
			}
			rankings[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	general := ranking.Merge(rankings...)
	if err := s.cache.SetGeneral(ctx, general); err != nil {
		s.logger.WarnContext(ctx, "General ranking cache write failed", slog.Any("error", err))
	}
	return general, nil
}

func (s *rankingService) Refresh(ctx context.Context, contestID int) (*ranking.Ranking, error) {
	if err := s.cache.Invalidate(ctx, contestID); err != nil {
		s.logger.WarnContext(ctx, "Ranking cache invalidation failed", slog.Int("contest_id", contestID), slog.Any("error", err))
	}
	r, err := s.compute(ctx, contestID)
	if err != nil {
		return nil, err
	}
	s.store(ctx, contestID, r)

	public := withoutBreakdown(r)
	if s.hub != nil {
		s.hub.BroadcastToRoom(live.ContestRoom(contestID), live.Message{
			Type:    live.MessageRankingUpdated,
			Payload: public,
			RoomID:  live.ContestRoom(contestID),
		})
	}
	s.logger.InfoContext(ctx, "Ranking refreshed",
		slog.Int("contest_id", contestID),
		slog.String("status", string(public.Status)),
		slog.Int("entries", len(public.Entries)),
	)
	return public, nil
}
