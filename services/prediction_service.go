package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Dosada05/bolao-system/models"
	"github.com/Dosada05/bolao-system/ranking"
	"github.com/Dosada05/bolao-system/repositories"
	"github.com/Dosada05/bolao-system/utils"
)

// TxBeginner: *sql.DB или что-то, что открывает транзакции так же.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type SubmitTicketInput struct {
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone" validate:"required,max=40"`
	// Predictions: match_id -> исход (1, X, 2, C, E, F или счёт "2x1").
	Predictions map[int]string `json:"predictions" validate:"required,min=1"`
	UserID      *int           `json:"-"`
}

type PredictionService interface {
	SubmitTicket(ctx context.Context, contestID int, input SubmitTicketInput) (*models.Ticket, error)
	ListByParticipant(ctx context.Context, contestID int, name, phone string) (*models.Ticket, error)
}

type predictionService struct {
	db             TxBeginner
	predictionRepo repositories.PredictionRepository
	contestRepo    repositories.ContestRepository
	matchRepo      repositories.MatchRepository
	paymentRepo    repositories.PaymentRepository
	payments       PaymentService
	rankings       RankingRefresher
	logger         *slog.Logger
	now            func() time.Time
}

func NewPredictionService(
	db TxBeginner,
	predictionRepo repositories.PredictionRepository,
	contestRepo repositories.ContestRepository,
	matchRepo repositories.MatchRepository,
	paymentRepo repositories.PaymentRepository,
	payments PaymentService,
	rankings RankingRefresher,
	logger *slog.Logger,
) PredictionService {
	return &predictionService{
		db:             db,
		predictionRepo: predictionRepo,
		contestRepo:    contestRepo,
		matchRepo:      matchRepo,
		paymentRepo:    paymentRepo,
		payments:       payments,
		rankings:       rankings,
		logger:         logger,
		now:            time.Now,
	}
}

func mapPredictionRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrPredictionConflict):
		return ErrTicketConflict
	case errors.Is(err, repositories.ErrPredictionMatchInvalid):
		return ErrMatchNotInContest
	}
	return err
}

func (s *predictionService) SubmitTicket(ctx context.Context, contestID int, input SubmitTicketInput) (ticket *models.Ticket, err error) {
	name, phone := utils.NormalizeName(input.Name), utils.NormalizePhone(input.Phone)
	if name == "" || phone == "" {
		return nil, ErrParticipantRequired
	}

	contest, err := s.contestRepo.GetByID(ctx, nil, contestID)
	if err != nil {
		return nil, mapContestRepoError(err)
	}
	if !contest.PredictionsOpen(s.now()) {
		return nil, ErrPredictionsClosed
	}

	matches, err := s.matchRepo.ListByContest(ctx, nil, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for contest %d: %w", contestID, err)
	}
	inContest := make(map[int]bool, len(matches))
	for _, m := range matches {
		inContest[m.ID] = true
	}

	matchIDs := make([]int, 0, len(input.Predictions))
	for id := range input.Predictions {
		matchIDs = append(matchIDs, id)
	}
	sort.Ints(matchIDs)

	predictions := make([]*models.Prediction, 0, len(matchIDs))
	for _, matchID := range matchIDs {
		outcome, err := ranking.ParseOutcome(input.Predictions[matchID])
		if err != nil {
			return nil, err
		}
		if !outcome.IsSet() {
			continue
		}
		if !inContest[matchID] {
			return nil, fmt.Errorf("%w: match %d", ErrMatchNotInContest, matchID)
		}
		predictions = append(predictions, &models.Prediction{
			ContestID:        contestID,
			MatchID:          matchID,
			ParticipantName:  name,
			ParticipantPhone: phone,
			UserID:           input.UserID,
			RawOutcome:       string(outcome),
		})
	}
	if len(predictions) == 0 {
		return nil, ErrEmptyTicket
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	// txid выставленной в шлюзе оплаты: при откате её уже не отозвать
	var chargedTxID string
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.ErrorContext(ctx, "Ticket transaction rollback failed", slog.Any("error", rbErr))
			}
			if chargedTxID != "" {
				s.logger.ErrorContext(ctx, "Ticket transaction rolled back after PIX charge was created",
					slog.Int("contest_id", contestID),
					slog.String("txid", chargedTxID),
					slog.Any("error", err),
				)
			}
		}
	}()

	if removed, err := s.predictionRepo.DeleteStale(ctx, tx, contestID, name, phone); err != nil {
		return nil, err
	} else if removed > 0 {
		s.logger.InfoContext(ctx, "Stale unpaid predictions removed",
			slog.Int("contest_id", contestID),
			slog.Int64("removed", removed),
		)
	}

	exists, err := s.predictionRepo.ExistsForParticipant(ctx, tx, contestID, name, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing ticket: %w", err)
	}
	if exists {
		return nil, ErrTicketConflict
	}

	ticket = &models.Ticket{
		ContestID:        contestID,
		ParticipantName:  name,
		ParticipantPhone: phone,
	}
	if contest.TicketPriceCents > 0 {
		payment, err := s.payments.CreateCharge(ctx, tx, contest, name, phone)
		if err != nil {
			return nil, err
		}
		chargedTxID = payment.TxID
		ticket.Payment = payment
		for _, p := range predictions {
			p.PaymentID = &payment.ID
		}
	}

	if err := s.predictionRepo.CreateBatch(ctx, tx, predictions); err != nil {
		return nil, mapPredictionRepoError(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ticket: %w", err)
	}

	ticket.Predictions = make([]models.Prediction, len(predictions))
	for i, p := range predictions {
		ticket.Predictions[i] = *p
	}
	s.logger.InfoContext(ctx, "Ticket submitted",
		slog.Int("contest_id", contestID),
		slog.Int("predictions", len(predictions)),
		slog.Bool("with_payment", ticket.Payment != nil),
	)

	// Билет без оплаты сразу попадает в рейтинг.
	if ticket.Payment == nil && s.rankings != nil {
		if _, rErr := s.rankings.Refresh(ctx, contestID); rErr != nil {
			s.logger.ErrorContext(ctx, "Failed to refresh ranking", slog.Int("contest_id", contestID), slog.Any("error", rErr))
		}
	}
	return ticket, nil
}

func (s *predictionService) ListByParticipant(ctx context.Context, contestID int, name, phone string) (*models.Ticket, error) {
	name, phone = utils.NormalizeName(name), utils.NormalizePhone(phone)
	if name == "" || phone == "" {
		return nil, ErrParticipantRequired
	}
	if _, err := s.contestRepo.GetByID(ctx, nil, contestID); err != nil {
		return nil, mapContestRepoError(err)
	}

	predictions, err := s.predictionRepo.ListByParticipant(ctx, contestID, name, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	if len(predictions) == 0 {
		return nil, ErrNotFound
	}

	ticket := &models.Ticket{
		ContestID:        contestID,
		ParticipantName:  name,
		ParticipantPhone: phone,
		Predictions:      make([]models.Prediction, len(predictions)),
	}
	for i, p := range predictions {
		ticket.Predictions[i] = *p
	}
	if paymentID := predictions[0].PaymentID; paymentID != nil {
		payment, err := s.paymentRepo.GetByID(ctx, *paymentID)
		if err != nil {
			return nil, mapPaymentRepoError(err)
		}
		ticket.Payment = payment
	}
	return ticket, nil
}
