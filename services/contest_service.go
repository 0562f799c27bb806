package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/bolao-system/models"
	"github.com/Dosada05/bolao-system/repositories"
	"github.com/Dosada05/bolao-system/storage"
)

type CreateContestInput struct {
	Name               string    `json:"name" validate:"required,max=120"`
	Description        *string   `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartsAt           time.Time `json:"starts_at" validate:"required"`
	PredictionsCloseAt time.Time `json:"predictions_close_at" validate:"required"`
	EndsAt             time.Time `json:"ends_at" validate:"required"`
	TicketPriceCents   int64     `json:"ticket_price_cents" validate:"gte=0"`
}

type UpdateContestInput struct {
	Name               *string    `json:"name,omitempty" validate:"omitempty,max=120"`
	Description        *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartsAt           *time.Time `json:"starts_at,omitempty"`
	PredictionsCloseAt *time.Time `json:"predictions_close_at,omitempty"`
	EndsAt             *time.Time `json:"ends_at,omitempty"`
	TicketPriceCents   *int64     `json:"ticket_price_cents,omitempty" validate:"omitempty,gte=0"`
}

type ContestService interface {
	CreateContest(ctx context.Context, input CreateContestInput) (*models.Contest, error)
	GetContest(ctx context.Context, id int, withMatches bool) (*models.Contest, error)
	ListContests(ctx context.Context, filter repositories.ListContestsFilter) ([]*models.Contest, error)
	UpdateContest(ctx context.Context, id int, input UpdateContestInput) (*models.Contest, error)
	UpdateStatus(ctx context.Context, id int, status models.ContestStatus) (*models.Contest, error)
	DeleteContest(ctx context.Context, id int) error
	// AutoUpdateStatuses закрывает приём палпитов и завершает конкурсы по датам.
	AutoUpdateStatuses(ctx context.Context) error
}

type contestService struct {
	contestRepo repositories.ContestRepository
	matchRepo   repositories.MatchRepository
	uploader    storage.FileUploader
	logger      *slog.Logger
	now         func() time.Time
}

func NewContestService(
	contestRepo repositories.ContestRepository,
	matchRepo repositories.MatchRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) ContestService {
	return &contestService{
		contestRepo: contestRepo,
		matchRepo:   matchRepo,
		uploader:    uploader,
		logger:      logger,
		now:         time.Now,
	}
}

func mapContestRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrContestNotFound):
		return ErrContestNotFound
	case errors.Is(err, repositories.ErrContestNameConflict):
		return ErrContestNameConflict
	case errors.Is(err, repositories.ErrContestInUse):
		return ErrContestInUse
	}
	return err
}

func (s *contestService) CreateContest(ctx context.Context, input CreateContestInput) (*models.Contest, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrContestNameRequired
	}
	if input.TicketPriceCents < 0 {
		return nil, ErrContestInvalidPrice
	}
	if err := validateContestDates(input.StartsAt, input.PredictionsCloseAt, input.EndsAt); err != nil {
		return nil, err
	}

	contest := &models.Contest{
		Name:               name,
		Description:        input.Description,
		StartsAt:           input.StartsAt,
		PredictionsCloseAt: input.PredictionsCloseAt,
		EndsAt:             input.EndsAt,
		TicketPriceCents:   input.TicketPriceCents,
		Status:             models.ContestStatusDraft,
	}
	if err := s.contestRepo.Create(ctx, contest); err != nil {
		return nil, mapContestRepoError(err)
	}
	s.logger.InfoContext(ctx, "Contest created", slog.Int("contest_id", contest.ID), slog.String("name", contest.Name))
	return contest, nil
}

func (s *contestService) GetContest(ctx context.Context, id int, withMatches bool) (*models.Contest, error) {
	contest, err := s.contestRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapContestRepoError(err)
	}
	if withMatches {
		matches, err := s.matchRepo.ListByContest(ctx, nil, id)
		if err != nil {
			return nil, fmt.Errorf("failed to list matches for contest %d: %w", id, err)
		}
		for _, m := range matches {
			populateMatchPhotoURLsFunc(m, s.uploader)
		}
		contest.Matches = MatchesToInterface(matches)
	}
	return contest, nil
}

func (s *contestService) ListContests(ctx context.Context, filter repositories.ListContestsFilter) ([]*models.Contest, error) {
	if filter.Status != nil && !validContestStatus(*filter.Status) {
		return nil, ErrContestInvalidStatus
	}
	contests, err := s.contestRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list contests: %w", err)
	}
	return contests, nil
}

func (s *contestService) UpdateContest(ctx context.Context, id int, input UpdateContestInput) (*models.Contest, error) {
	contest, err := s.contestRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapContestRepoError(err)
	}
	if contest.Status == models.ContestStatusFinished || contest.Status == models.ContestStatusCancelled {
		return nil, ErrContestNotEditable
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrContestNameRequired
		}
		contest.Name = name
	}
	if input.Description != nil {
		contest.Description = input.Description
	}
	if input.StartsAt != nil {
		contest.StartsAt = *input.StartsAt
	}
	if input.PredictionsCloseAt != nil {
		contest.PredictionsCloseAt = *input.PredictionsCloseAt
	}
	if input.EndsAt != nil {
		contest.EndsAt = *input.EndsAt
	}
	if input.TicketPriceCents != nil {
		if *input.TicketPriceCents < 0 {
			return nil, ErrContestInvalidPrice
		}
		if contest.Status != models.ContestStatusDraft && *input.TicketPriceCents != contest.TicketPriceCents {
			return nil, fmt.Errorf("%w: ticket price is fixed once the contest is open", ErrContestNotEditable)
		}
		contest.TicketPriceCents = *input.TicketPriceCents
	}
	if err := validateContestDates(contest.StartsAt, contest.PredictionsCloseAt, contest.EndsAt); err != nil {
		return nil, err
	}

	if err := s.contestRepo.Update(ctx, contest); err != nil {
		return nil, mapContestRepoError(err)
	}
	return contest, nil
}

func (s *contestService) UpdateStatus(ctx context.Context, id int, status models.ContestStatus) (*models.Contest, error) {
	if !validContestStatus(status) {
		return nil, ErrContestInvalidStatus
	}
	contest, err := s.contestRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapContestRepoError(err)
	}
	if !isValidStatusTransition(contest.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrContestInvalidStatusTransition, contest.Status, status)
	}
	if contest.Status == status {
		return contest, nil
	}

	if status == models.ContestStatusOpen {
		matches, err := s.matchRepo.ListByContest(ctx, nil, id)
		if err != nil {
			return nil, fmt.Errorf("failed to list matches for contest %d: %w", id, err)
		}
		if len(matches) == 0 {
			return nil, ErrContestHasNoMatches
		}
	}

	if err := s.contestRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, mapContestRepoError(err)
	}
	s.logger.InfoContext(ctx, "Contest status changed",
		slog.Int("contest_id", id),
		slog.String("from", string(contest.Status)),
		slog.String("to", string(status)),
	)
	contest.Status = status
	return contest, nil
}

func (s *contestService) DeleteContest(ctx context.Context, id int) error {
	if err := s.contestRepo.Delete(ctx, id); err != nil {
		return mapContestRepoError(err)
	}
	s.logger.InfoContext(ctx, "Contest deleted", slog.Int("contest_id", id))
	return nil
}

func (s *contestService) AutoUpdateStatuses(ctx context.Context) error {
	closed, finished, err := s.contestRepo.AdvanceStatuses(ctx, s.now())
	if err != nil {
		return fmt.Errorf("failed to advance contest statuses: %w", err)
	}
	if closed > 0 || finished > 0 {
		s.logger.InfoContext(ctx, "Contest statuses advanced", slog.Int64("closed", closed), slog.Int64("finished", finished))
	}
	return nil
}
