package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/bolao-system/models"
	"github.com/Dosada05/bolao-system/ranking"
	"github.com/Dosada05/bolao-system/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ticketNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type ticketFixture struct {
	svc         *predictionService
	mock        sqlmock.Sqlmock
	predictions *fakePredictionRepo
	payments    *fakePaymentRepo
	gateway     *fakeGateway
	refresher   *fakeRefresher
	contest     *models.Contest
}

func newTicketFixture(t *testing.T, price int64) *ticketFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	contest := &models.Contest{
		ID:                 10,
		Name:               "Copa",
		Status:             models.ContestStatusOpen,
		PredictionsCloseAt: ticketNow.Add(time.Hour),
		TicketPriceCents:   price,
	}
	contests := &fakeContestRepo{getByID: func(id int) (*models.Contest, error) {
		if id != contest.ID {
			return nil, repositories.ErrContestNotFound
		}
		c := *contest
		return &c, nil
	}}
	matches := &fakeMatchRepo{listByContest: func(int) ([]*models.Match, error) {
		return []*models.Match{{ID: 1, ContestID: 10}, {ID: 2, ContestID: 10}}, nil
	}}

	f := &ticketFixture{
		mock:        mock,
		predictions: &fakePredictionRepo{},
		payments:    newFakePaymentRepo(),
		gateway:     newFakeGateway(),
		refresher:   &fakeRefresher{},
		contest:     contest,
	}
	paymentSvc := newTestPaymentService(f.payments, f.gateway, f.refresher)
	f.svc = NewPredictionService(db, f.predictions, contests, matches, f.payments, paymentSvc, f.refresher, discardLogger()).(*predictionService)
	f.svc.now = func() time.Time { return ticketNow }
	return f
}

func TestPredictionService_SubmitTicket_Free(t *testing.T) {
	f := newTicketFixture(t, 0)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	ticket, err := f.svc.SubmitTicket(context.Background(), 10, SubmitTicketInput{
		Name:        "  Ana   Maria ",
		Phone:       "(11) 99999-0000",
		Predictions: map[int]string{2: "f", 1: "2x2"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Ana Maria", ticket.ParticipantName)
	assert.Equal(t, "11999990000", ticket.ParticipantPhone)
	assert.Nil(t, ticket.Payment)
	require.Len(t, ticket.Predictions, 2)
	assert.Equal(t, 1, ticket.Predictions[0].MatchID)
	assert.Equal(t, string(ranking.OutcomeDraw), ticket.Predictions[0].RawOutcome)
	assert.Equal(t, string(ranking.OutcomeAway), ticket.Predictions[1].RawOutcome)

	assert.Len(t, f.predictions.created, 2)
	assert.Equal(t, []int{10}, f.refresher.calls())
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestPredictionService_SubmitTicket_Paid(t *testing.T) {
	f := newTicketFixture(t, 1500)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	ticket, err := f.svc.SubmitTicket(context.Background(), 10, SubmitTicketInput{
		Name:        "Ana",
		Phone:       "11 5555",
		Predictions: map[int]string{1: "1", 2: ""},
	})
	require.NoError(t, err)

	require.NotNil(t, ticket.Payment)
	assert.Equal(t, int64(1500), ticket.Payment.AmountCents)
	require.Len(t, ticket.Predictions, 1)
	require.NotNil(t, ticket.Predictions[0].PaymentID)
	assert.Equal(t, ticket.Payment.ID, *ticket.Predictions[0].PaymentID)
	assert.Len(t, f.gateway.created, 1)
	// неоплаченный билет не пересчитывает рейтинг
	assert.Empty(t, f.refresher.calls())
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestPredictionService_SubmitTicket_Validation(t *testing.T) {
	tests := []struct {
		name    string
		contest int
		input   SubmitTicketInput
		mutate  func(c *models.Contest)
		wantErr error
	}{
		{
			name:    "missing phone",
			contest: 10,
			input:   SubmitTicketInput{Name: "Ana", Phone: "---", Predictions: map[int]string{1: "1"}},
			wantErr: ErrParticipantRequired,
		},
		{
			name:    "unknown contest",
			contest: 99,
			input:   SubmitTicketInput{Name: "Ana", Phone: "1", Predictions: map[int]string{1: "1"}},
			wantErr: ErrContestNotFound,
		},
		{
			name:    "closed by date",
			contest: 10,
			input:   SubmitTicketInput{Name: "Ana", Phone: "1", Predictions: map[int]string{1: "1"}},
			mutate:  func(c *models.Contest) { c.PredictionsCloseAt = ticketNow },
			wantErr: ErrPredictionsClosed,
		},
		{
			name:    "draft contest",
			contest: 10,
			input:   SubmitTicketInput{Name: "Ana", Phone: "1", Predictions: map[int]string{1: "1"}},
			mutate:  func(c *models.Contest) { c.Status = models.ContestStatusDraft },
			wantErr: ErrPredictionsClosed,
		},
		{
			name:    "invalid outcome",
			contest: 10,
			input:   SubmitTicketInput{Name: "Ana", Phone: "1", Predictions: map[int]string{1: "home"}},
			wantErr: ranking.ErrInvalidOutcome,
		},
		{
			name:    "match from another contest",
			contest: 10,
			input:   SubmitTicketInput{Name: "Ana", Phone: "1", Predictions: map[int]string{77: "1"}},
			wantErr: ErrMatchNotInContest,
		},
		{
			name:    "only blank picks",
			contest: 10,
			input:   SubmitTicketInput{Name: "Ana", Phone: "1", Predictions: map[int]string{1: " ", 2: ""}},
			wantErr: ErrEmptyTicket,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTicketFixture(t, 0)
			if tt.mutate != nil {
				tt.mutate(f.contest)
			}
			_, err := f.svc.SubmitTicket(context.Background(), tt.contest, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestPredictionService_SubmitTicket_DuplicateRollsBack(t *testing.T) {
	f := newTicketFixture(t, 0)
	f.predictions.exists = true
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.SubmitTicket(context.Background(), 10, SubmitTicketInput{
		Name: "Ana", Phone: "1", Predictions: map[int]string{1: "1"},
	})
	assert.ErrorIs(t, err, ErrTicketConflict)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestPredictionService_SubmitTicket_GatewayFailureRollsBack(t *testing.T) {
	f := newTicketFixture(t, 1000)
	f.gateway.err = errors.New("timeout")
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.SubmitTicket(context.Background(), 10, SubmitTicketInput{
		Name: "Ana", Phone: "1", Predictions: map[int]string{1: "1"},
	})
	assert.ErrorIs(t, err, ErrPaymentGateway)
	assert.Empty(t, f.predictions.created)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestPredictionService_SubmitTicket_BatchConflict(t *testing.T) {
	f := newTicketFixture(t, 0)
	f.predictions.createBatchErr = repositories.ErrPredictionConflict
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.SubmitTicket(context.Background(), 10, SubmitTicketInput{
		Name: "Ana", Phone: "1", Predictions: map[int]string{1: "1"},
	})
	assert.ErrorIs(t, err, ErrTicketConflict)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestPredictionService_SubmitTicket_RollbackAfterChargeLogsTxID(t *testing.T) {
	f := newTicketFixture(t, 1500)
	var logs bytes.Buffer
	f.svc.logger = slog.New(slog.NewJSONHandler(&logs, nil))
	f.predictions.createBatchErr = errors.New("connection reset")
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.SubmitTicket(context.Background(), 10, SubmitTicketInput{
		Name: "Ana", Phone: "1", Predictions: map[int]string{1: "1"},
	})
	require.Error(t, err)
	require.Len(t, f.gateway.created, 1)

	payment, err := f.payments.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotEmpty(t, payment.TxID)
	assert.Contains(t, logs.String(), "Ticket transaction rolled back after PIX charge was created")
	assert.Contains(t, logs.String(), `"txid":"`+payment.TxID+`"`)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestPredictionService_SubmitTicket_CommitFailureAfterChargeLogsTxID(t *testing.T) {
	f := newTicketFixture(t, 1500)
	var logs bytes.Buffer
	f.svc.logger = slog.New(slog.NewJSONHandler(&logs, nil))
	f.mock.ExpectBegin()
	f.mock.ExpectCommit().WillReturnError(errors.New("commit failed"))

	_, err := f.svc.SubmitTicket(context.Background(), 10, SubmitTicketInput{
		Name: "Ana", Phone: "1", Predictions: map[int]string{1: "1"},
	})
	require.Error(t, err)
	assert.Contains(t, logs.String(), "Ticket transaction rolled back after PIX charge was created")
	assert.Empty(t, f.refresher.calls())
}

func TestPredictionService_SubmitTicket_FreeRollbackLogsNoCharge(t *testing.T) {
	f := newTicketFixture(t, 0)
	var logs bytes.Buffer
	f.svc.logger = slog.New(slog.NewJSONHandler(&logs, nil))
	f.predictions.exists = true
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.SubmitTicket(context.Background(), 10, SubmitTicketInput{
		Name: "Ana", Phone: "1", Predictions: map[int]string{1: "1"},
	})
	assert.ErrorIs(t, err, ErrTicketConflict)
	assert.NotContains(t, logs.String(), "PIX charge was created")
}

func TestPredictionService_ListByParticipant(t *testing.T) {
	f := newTicketFixture(t, 1000)
	payment := pendingPayment("tx1", 10)
	require.NoError(t, f.payments.Create(context.Background(), nil, payment))

	f.predictions.listByParticipant = func(contestID int, name, phone string) ([]*models.Prediction, error) {
		if name != "Ana" || phone != "11" {
			return nil, nil
		}
		return []*models.Prediction{
			{ID: 1, ContestID: contestID, MatchID: 1, ParticipantName: name, ParticipantPhone: phone, RawOutcome: "1", PaymentID: &payment.ID},
		}, nil
	}

	ticket, err := f.svc.ListByParticipant(context.Background(), 10, " Ana ", "(11)")
	require.NoError(t, err)
	require.Len(t, ticket.Predictions, 1)
	require.NotNil(t, ticket.Payment)
	assert.Equal(t, "tx1", ticket.Payment.TxID)

	_, err = f.svc.ListByParticipant(context.Background(), 10, "Bia", "22")
	assert.ErrorIs(t, err, ErrNotFound)
}
