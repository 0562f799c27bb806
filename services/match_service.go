package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/bolao-system/models"
	"github.com/Dosada05/bolao-system/ranking"
	"github.com/Dosada05/bolao-system/repositories"
	"github.com/Dosada05/bolao-system/storage"
)

type CreateMatchInput struct {
	HomeTeam  string    `json:"home_team" validate:"required,max=80"`
	AwayTeam  string    `json:"away_team" validate:"required,max=80"`
	KickoffAt time.Time `json:"kickoff_at" validate:"required"`
}

type UpdateMatchInput struct {
	HomeTeam  *string    `json:"home_team,omitempty" validate:"omitempty,max=80"`
	AwayTeam  *string    `json:"away_team,omitempty" validate:"omitempty,max=80"`
	KickoffAt *time.Time `json:"kickoff_at,omitempty"`
}

type MatchService interface {
	CreateMatch(ctx context.Context, contestID int, input CreateMatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, id int) (*models.Match, error)
	ListMatches(ctx context.Context, contestID int) ([]*models.Match, error)
	UpdateMatch(ctx context.Context, id int, input UpdateMatchInput) (*models.Match, error)
	// SetResult сохраняет результат матча (код 1/X/2, устаревшие C/E/F или
	// счёт "2x1") и пересчитывает рейтинг конкурса.
	SetResult(ctx context.Context, id int, raw string) (*models.Match, error)
	ClearResult(ctx context.Context, id int) (*models.Match, error)
	UploadPhoto(ctx context.Context, id int, side models.MatchSide, reader io.Reader, contentType string) (*models.Match, error)
	DeleteMatch(ctx context.Context, id int) error
}

type matchService struct {
	matchRepo   repositories.MatchRepository
	contestRepo repositories.ContestRepository
	rankings    RankingRefresher
	uploader    storage.FileUploader
	logger      *slog.Logger
	now         func() time.Time
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	contestRepo repositories.ContestRepository,
	rankings RankingRefresher,
	uploader storage.FileUploader,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:   matchRepo,
		contestRepo: contestRepo,
		rankings:    rankings,
		uploader:    uploader,
		logger:      logger,
		now:         time.Now,
	}
}

func mapMatchRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchInUse):
		return ErrMatchInUse
	case errors.Is(err, repositories.ErrMatchContestInvalid):
		return ErrContestNotFound
	}
	return err
}

func (s *matchService) CreateMatch(ctx context.Context, contestID int, input CreateMatchInput) (*models.Match, error) {
	home, away := strings.TrimSpace(input.HomeTeam), strings.TrimSpace(input.AwayTeam)
	if home == "" || away == "" {
		return nil, ErrMatchTeamsRequired
	}

	contest, err := s.contestRepo.GetByID(ctx, nil, contestID)
	if err != nil {
		return nil, mapContestRepoError(err)
	}
	if contest.Status != models.ContestStatusDraft && contest.Status != models.ContestStatusOpen {
		return nil, fmt.Errorf("%w: matches can only be added while the contest is draft or open", ErrContestNotEditable)
	}

	match := &models.Match{
		ContestID: contestID,
		HomeTeam:  home,
		AwayTeam:  away,
		KickoffAt: input.KickoffAt,
	}
	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, mapMatchRepoError(err)
	}
	s.logger.InfoContext(ctx, "Match created", slog.Int("match_id", match.ID), slog.Int("contest_id", contestID))
	return match, nil
}

func (s *matchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	populateMatchPhotoURLsFunc(match, s.uploader)
	return match, nil
}

func (s *matchService) ListMatches(ctx context.Context, contestID int) ([]*models.Match, error) {
	if _, err := s.contestRepo.GetByID(ctx, nil, contestID); err != nil {
		return nil, mapContestRepoError(err)
	}
	matches, err := s.matchRepo.ListByContest(ctx, nil, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for contest %d: %w", contestID, err)
	}
	for _, m := range matches {
		populateMatchPhotoURLsFunc(m, s.uploader)
	}
	return matches, nil
}

func (s *matchService) UpdateMatch(ctx context.Context, id int, input UpdateMatchInput) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	if input.HomeTeam != nil {
		match.HomeTeam = strings.TrimSpace(*input.HomeTeam)
	}
	if input.AwayTeam != nil {
		match.AwayTeam = strings.TrimSpace(*input.AwayTeam)
	}
	if input.KickoffAt != nil {
		match.KickoffAt = *input.KickoffAt
	}
	if match.HomeTeam == "" || match.AwayTeam == "" {
		return nil, ErrMatchTeamsRequired
	}
	if err := s.matchRepo.Update(ctx, match); err != nil {
		return nil, mapMatchRepoError(err)
	}
	populateMatchPhotoURLsFunc(match, s.uploader)
	return match, nil
}

func (s *matchService) SetResult(ctx context.Context, id int, raw string) (*models.Match, error) {
	stored, outcome, err := ranking.NormalizeResult(raw)
	if err != nil {
		return nil, err
	}
	if !outcome.IsSet() {
		return nil, fmt.Errorf("%w: result is empty, use the clear operation instead", ErrValidationFailed)
	}

	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	if err := s.matchRepo.SetResult(ctx, id, &stored); err != nil {
		return nil, mapMatchRepoError(err)
	}
	match.Result = &stored

	s.logger.InfoContext(ctx, "Match result set",
		slog.Int("match_id", id),
		slog.Int("contest_id", match.ContestID),
		slog.String("result", stored),
	)
	s.refreshRanking(ctx, match.ContestID)
	populateMatchPhotoURLsFunc(match, s.uploader)
	return match, nil
}

func (s *matchService) ClearResult(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	if match.Result == nil {
		populateMatchPhotoURLsFunc(match, s.uploader)
		return match, nil
	}
	if err := s.matchRepo.SetResult(ctx, id, nil); err != nil {
		return nil, mapMatchRepoError(err)
	}
	s.logger.WarnContext(ctx, "Match result cleared",
		slog.Int("match_id", id),
		slog.Int("contest_id", match.ContestID),
		slog.String("previous_result", *match.Result),
	)
	match.Result = nil
	s.refreshRanking(ctx, match.ContestID)
	populateMatchPhotoURLsFunc(match, s.uploader)
	return match, nil
}

// refreshRanking не возвращает ошибку: результат уже сохранён, а рейтинг
// пересчитается при следующем чтении.
func (s *matchService) refreshRanking(ctx context.Context, contestID int) {
	if s.rankings == nil {
		return
	}
	if _, err := s.rankings.Refresh(ctx, contestID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to refresh ranking", slog.Int("contest_id", contestID), slog.Any("error", err))
	}
}

func (s *matchService) UploadPhoto(ctx context.Context, id int, side models.MatchSide, reader io.Reader, contentType string) (*models.Match, error) {
	if s.uploader == nil {
		return nil, ErrPhotoStorageDisabled
	}
	if side != models.SideHome && side != models.SideAway {
		return nil, ErrInvalidMatchSide
	}
	ext, err := storage.ExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPhotoType, contentType)
	}

	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	oldKey := match.HomePhotoKey
	if side == models.SideAway {
		oldKey = match.AwayPhotoKey
	}

	key := storage.MatchPhotoKey(id, string(side), ext, s.now())
	if _, err := s.uploader.Upload(ctx, key, contentType, reader); err != nil {
		return nil, fmt.Errorf("failed to upload match photo: %w", err)
	}

	if err := s.matchRepo.SetPhotoKey(ctx, id, side, &key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.ErrorContext(ctx, "Failed to delete orphaned photo", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, mapMatchRepoError(err)
	}

	if old := derefString(oldKey); old != "" && old != key {
		if err := s.uploader.Delete(ctx, old); err != nil {
			s.logger.WarnContext(ctx, "Failed to delete previous match photo", slog.String("key", old), slog.Any("error", err))
		}
	}

	if side == models.SideHome {
		match.HomePhotoKey = &key
	} else {
		match.AwayPhotoKey = &key
	}
	populateMatchPhotoURLsFunc(match, s.uploader)
	return match, nil
}

func (s *matchService) DeleteMatch(ctx context.Context, id int) error {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return mapMatchRepoError(err)
	}
	if err := s.matchRepo.Delete(ctx, id); err != nil {
		return mapMatchRepoError(err)
	}
	if s.uploader != nil {
		for _, key := range []*string{match.HomePhotoKey, match.AwayPhotoKey} {
			if k := derefString(key); k != "" {
				if err := s.uploader.Delete(ctx, k); err != nil {
					s.logger.WarnContext(ctx, "Failed to delete match photo", slog.String("key", k), slog.Any("error", err))
				}
			}
		}
	}
	s.logger.InfoContext(ctx, "Match deleted", slog.Int("match_id", id))
	return nil
}
