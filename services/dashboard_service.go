package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/bolao-system/models"
	"github.com/Dosada05/bolao-system/repositories"
)

type DashboardService interface {
	GetStats(ctx context.Context) (models.DashboardStats, error)
}

type dashboardService struct {
	contestRepo    repositories.ContestRepository
	matchRepo      repositories.MatchRepository
	predictionRepo repositories.PredictionRepository
	paymentRepo    repositories.PaymentRepository
}

func NewDashboardService(
	contestRepo repositories.ContestRepository,
	matchRepo repositories.MatchRepository,
	predictionRepo repositories.PredictionRepository,
	paymentRepo repositories.PaymentRepository,
) DashboardService {
	return &dashboardService{
		contestRepo:    contestRepo,
		matchRepo:      matchRepo,
		predictionRepo: predictionRepo,
		paymentRepo:    paymentRepo,
	}
}

func (s *dashboardService) GetStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	var err error

	open := models.ContestStatusOpen
	if stats.ContestsTotal, err = s.contestRepo.Count(ctx, nil); err != nil {
		return stats, fmt.Errorf("failed to count contests: %w", err)
	}
	if stats.OpenContests, err = s.contestRepo.Count(ctx, &open); err != nil {
		return stats, fmt.Errorf("failed to count open contests: %w", err)
	}
	if stats.MatchesTotal, err = s.matchRepo.Count(ctx, false); err != nil {
		return stats, fmt.Errorf("failed to count matches: %w", err)
	}
	if stats.FinalizedMatches, err = s.matchRepo.Count(ctx, true); err != nil {
		return stats, fmt.Errorf("failed to count finalized matches: %w", err)
	}
	if stats.PredictionsTotal, err = s.predictionRepo.Count(ctx); err != nil {
		return stats, fmt.Errorf("failed to count predictions: %w", err)
	}
	if stats.Payments, err = s.paymentRepo.TotalsByStatus(ctx); err != nil {
		return stats, fmt.Errorf("failed to sum payments: %w", err)
	}
	return stats, nil
}
