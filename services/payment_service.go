package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/bolao-system/live"
	"github.com/Dosada05/bolao-system/models"
	"github.com/Dosada05/bolao-system/pix"
	"github.com/Dosada05/bolao-system/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// reconcileConcurrency: сколько запросов к шлюзу идёт параллельно при сверке.
const reconcileConcurrency = 4

type PaymentService interface {
	// CreateCharge выставляет PIX-cobrança за билет и сохраняет платёж
	// через exec (обычно транзакцию отправки билета).
	CreateCharge(ctx context.Context, exec repositories.SQLExecutor, contest *models.Contest, name, phone string) (*models.Payment, error)
	GetPayment(ctx context.Context, id int) (*models.Payment, error)
	// PollPayment возвращает платёж, а ожидающий оплаты сначала сверяет со шлюзом.
	PollPayment(ctx context.Context, id int) (*models.Payment, error)
	ListPayments(ctx context.Context, filter repositories.ListPaymentsFilter) ([]*models.Payment, error)
	CheckStatus(ctx context.Context, id int) (*models.Payment, error)
	ForceStatus(ctx context.Context, id int, status models.PaymentStatus, reason string, adminID int) (*models.Payment, error)
	ReconcilePending(ctx context.Context) (*models.ReconcileReport, error)
	RecoverLost(ctx context.Context, from, to time.Time) (*models.ReconcileReport, error)
	VerifyWebhookSecret(provided string) error
	HandleWebhook(ctx context.Context, notification pix.Notification) (*models.ReconcileReport, error)
}

type paymentService struct {
	paymentRepo   repositories.PaymentRepository
	gateway       pix.Gateway
	rankings      RankingRefresher
	hub           Broadcaster
	expiration    time.Duration
	webhookSecret string
	logger        *slog.Logger
	now           func() time.Time
}

type PaymentServiceConfig struct {
	ChargeExpiration time.Duration
	WebhookSecret    string
}

func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	gateway pix.Gateway,
	rankings RankingRefresher,
	hub Broadcaster,
	cfg PaymentServiceConfig,
	logger *slog.Logger,
) PaymentService {
	return &paymentService{
		paymentRepo:   paymentRepo,
		gateway:       gateway,
		rankings:      rankings,
		hub:           hub,
		expiration:    cfg.ChargeExpiration,
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
		now:           time.Now,
	}
}

func mapPaymentRepoError(err error) error {
	if errors.Is(err, repositories.ErrPaymentNotFound) {
		return ErrPaymentNotFound
	}
	return err
}

func mapGatewayError(err error) error {
	if errors.Is(err, pix.ErrGatewayDisabled) {
		return ErrPaymentsDisabled
	}
	return fmt.Errorf("%w: %v", ErrPaymentGateway, err)
}

// newTxID: uuid без дефисов: 32 символа [0-9a-f], подходит под формат txid.
func newTxID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *paymentService) CreateCharge(ctx context.Context, exec repositories.SQLExecutor, contest *models.Contest, name, phone string) (*models.Payment, error) {
	if contest.TicketPriceCents <= 0 {
		return nil, fmt.Errorf("contest %d has no ticket price", contest.ID)
	}
	txid := newTxID()
	charge, err := s.gateway.CreateCharge(ctx, pix.ChargeRequest{
		TxID:        txid,
		AmountCents: contest.TicketPriceCents,
		Expiration:  s.expiration,
		Description: fmt.Sprintf("Bolão %s - %s", contest.Name, name),
	})
	if err != nil {
		return nil, mapGatewayError(err)
	}

	gatewayStatus := charge.Status
	payment := &models.Payment{
		TxID:             txid,
		ContestID:        contest.ID,
		ParticipantName:  name,
		ParticipantPhone: phone,
		AmountCents:      contest.TicketPriceCents,
		Status:           models.PaymentStatusPending,
		GatewayStatus:    &gatewayStatus,
		ExpiresAt:        s.now().Add(s.expiration),
	}
	if charge.CopyPaste != "" {
		copyPaste := charge.CopyPaste
		payment.PixCopyPaste = &copyPaste
	}
	if err := s.paymentRepo.Create(ctx, exec, payment); err != nil {
		return nil, fmt.Errorf("failed to store payment %s: %w", txid, err)
	}
	s.logger.InfoContext(ctx, "PIX charge created",
		slog.String("txid", txid),
		slog.Int("contest_id", contest.ID),
		slog.Int64("amount_cents", payment.AmountCents),
	)
	return payment, nil
}

func (s *paymentService) GetPayment(ctx context.Context, id int) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapPaymentRepoError(err)
	}
	return payment, nil
}

func (s *paymentService) PollPayment(ctx context.Context, id int) (*models.Payment, error) {
	payment, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentStatusPending {
		return payment, nil
	}
	checked, err := s.check(ctx, payment)
	if err != nil {
		// клиенту отдаём последнее известное состояние
		s.logger.WarnContext(ctx, "Payment status poll failed", slog.Int("payment_id", id), slog.Any("error", err))
		return payment, nil
	}
	return checked, nil
}

func (s *paymentService) ListPayments(ctx context.Context, filter repositories.ListPaymentsFilter) ([]*models.Payment, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrInvalidPaymentStatus
	}
	payments, err := s.paymentRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (s *paymentService) CheckStatus(ctx context.Context, id int) (*models.Payment, error) {
	payment, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.check(ctx, payment)
}

// check сверяет платёж со шлюзом. Оплаченные и возвращённые платежи
// статус от шлюза не меняет.
func (s *paymentService) check(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	now := s.now()
	charge, err := s.gateway.GetCharge(ctx, payment.TxID)
	if err != nil {
		if errors.Is(err, pix.ErrChargeNotFound) && payment.Status == models.PaymentStatusPending && !now.Before(payment.ExpiresAt) {
			return s.apply(ctx, payment, models.PaymentStatusExpired, nil)
		}
		return nil, mapGatewayError(err)
	}

	status, ok := pix.NormalizeStatus(charge.Status, payment.ExpiresAt, now)
	if !ok {
		return nil, fmt.Errorf("%w: unknown charge status %q for txid %s", ErrPaymentGateway, charge.Status, payment.TxID)
	}
	if payment.Status == models.PaymentStatusPaid || payment.Status == models.PaymentStatusRefunded {
		if status != payment.Status {
			s.logger.WarnContext(ctx, "Gateway status disagrees with settled payment",
				slog.Int("payment_id", payment.ID),
				slog.String("local", string(payment.Status)),
				slog.String("gateway", charge.Status),
			)
		}
		return payment, nil
	}
	gatewayStatus := charge.Status
	return s.apply(ctx, payment, status, &gatewayStatus)
}

func (s *paymentService) apply(ctx context.Context, payment *models.Payment, status models.PaymentStatus, gatewayStatus *string) (*models.Payment, error) {
	changed, err := s.paymentRepo.UpdateStatus(ctx, payment.ID, status, gatewayStatus)
	if err != nil {
		return nil, mapPaymentRepoError(err)
	}
	previous := payment.Status
	if !changed {
		return payment, nil
	}

	updated, err := s.paymentRepo.GetByID(ctx, payment.ID)
	if err != nil {
		return nil, mapPaymentRepoError(err)
	}
	s.logger.InfoContext(ctx, "Payment status changed",
		slog.Int("payment_id", payment.ID),
		slog.String("txid", payment.TxID),
		slog.String("from", string(previous)),
		slog.String("to", string(updated.Status)),
	)
	if previous != updated.Status {
		s.afterStatusChange(ctx, updated, previous)
	}
	return updated, nil
}

// paymentUpdate уходит в публичную комнату конкурса, поэтому без имени
// и телефона участника.
type paymentUpdate struct {
	PaymentID int                  `json:"payment_id"`
	Status    models.PaymentStatus `json:"status"`
}

// afterStatusChange рассылает новый статус в комнату конкурса и
// пересчитывает рейтинг, когда билет начинает или перестаёт учитываться.
func (s *paymentService) afterStatusChange(ctx context.Context, payment *models.Payment, previous models.PaymentStatus) {
	if s.hub != nil {
		room := live.ContestRoom(payment.ContestID)
		s.hub.BroadcastToRoom(room, live.Message{
			Type:    live.MessagePaymentUpdated,
			Payload: paymentUpdate{PaymentID: payment.ID, Status: payment.Status},
			RoomID:  room,
		})
	}
	if payment.Status != models.PaymentStatusPaid && previous != models.PaymentStatusPaid {
		return
	}
	if s.rankings == nil {
		return
	}
	if _, err := s.rankings.Refresh(ctx, payment.ContestID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to refresh ranking after payment change",
			slog.Int("payment_id", payment.ID),
			slog.Int("contest_id", payment.ContestID),
			slog.Any("error", err),
		)
	}
}

func (s *paymentService) ForceStatus(ctx context.Context, id int, status models.PaymentStatus, reason string, adminID int) (*models.Payment, error) {
	if !status.Valid() {
		return nil, ErrInvalidPaymentStatus
	}
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrValidationFailed)
	}
	payment, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.WarnContext(ctx, "Payment status forced by admin",
		slog.Int("payment_id", id),
		slog.Int("admin_id", adminID),
		slog.String("from", string(payment.Status)),
		slog.String("to", string(status)),
		slog.String("reason", reason),
	)
	return s.apply(ctx, payment, status, nil)
}

func (s *paymentService) ReconcilePending(ctx context.Context) (*models.ReconcileReport, error) {
	pending, err := s.paymentRepo.ListPending(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}

	report := &models.ReconcileReport{Checked: len(pending)}
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for _, p := range pending {
		p := p
		g.Go(func() error {
			updated, err := s.check(gCtx, p)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, ErrPaymentsDisabled) {
					return err
				}
				report.Failed++
				s.logger.WarnContext(gCtx, "Payment reconcile failed", slog.String("txid", p.TxID), slog.Any("error", err))
				return nil
			}
			if updated.Status != p.Status {
				report.Updated++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if report.Checked > 0 {
		s.logger.InfoContext(ctx, "Pending payments reconciled",
			slog.Int("checked", report.Checked),
			slog.Int("updated", report.Updated),
			slog.Int("failed", report.Failed),
		)
	}
	return report, nil
}

func (s *paymentService) RecoverLost(ctx context.Context, from, to time.Time) (*models.ReconcileReport, error) {
	if !from.Before(to) {
		return nil, ErrInvalidTimeWindow
	}
	received, err := s.gateway.ListReceived(ctx, from, to)
	if err != nil {
		return nil, mapGatewayError(err)
	}
	report, err := s.settleReceived(ctx, received)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Lost payments recovery finished",
		slog.Time("from", from),
		slog.Time("to", to),
		slog.Int("checked", report.Checked),
		slog.Int("updated", report.Updated),
		slog.Int("unmatched", len(report.Unmatched)),
	)
	return report, nil
}

func (s *paymentService) VerifyWebhookSecret(provided string) error {
	if s.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(s.webhookSecret)) != 1 {
		return ErrWebhookUnauthorized
	}
	return nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, notification pix.Notification) (*models.ReconcileReport, error) {
	received := make([]pix.Received, 0, len(notification.Pix))
	failed := 0
	for _, item := range notification.Pix {
		r, err := item.Received()
		if err != nil {
			failed++
			s.logger.WarnContext(ctx, "Malformed PIX notification item", slog.String("end_to_end_id", item.EndToEndID), slog.Any("error", err))
			continue
		}
		received = append(received, r)
	}
	report, err := s.settleReceived(ctx, received)
	if err != nil {
		return nil, err
	}
	report.Checked += failed
	report.Failed += failed
	return report, nil
}

// settleReceived отмечает оплаченными платежи, для которых пришёл PIX.
// Повторная обработка того же PIX ничего не меняет.
func (s *paymentService) settleReceived(ctx context.Context, received []pix.Received) (*models.ReconcileReport, error) {
	report := &models.ReconcileReport{Checked: len(received)}

	txids := make([]string, 0, len(received))
	for _, r := range received {
		if r.TxID != "" {
			txids = append(txids, r.TxID)
		}
	}
	known, err := s.paymentRepo.ListByTxIDs(ctx, txids)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments by txid: %w", err)
	}
	byTxID := make(map[string]*models.Payment, len(known))
	for _, p := range known {
		byTxID[p.TxID] = p
	}

	for _, r := range received {
		payment, ok := byTxID[r.TxID]
		if !ok {
			s.logger.WarnContext(ctx, "Received PIX without a matching payment",
				slog.String("txid", r.TxID),
				slog.String("end_to_end_id", r.EndToEndID),
				slog.Int64("amount_cents", r.AmountCents),
			)
			report.Unmatched = append(report.Unmatched, r.TxID)
			continue
		}
		if payment.Status == models.PaymentStatusPaid {
			continue
		}
		if r.AmountCents < payment.AmountCents {
			s.logger.ErrorContext(ctx, "Received PIX amount is below the charge",
				slog.String("txid", r.TxID),
				slog.Int64("expected_cents", payment.AmountCents),
				slog.Int64("received_cents", r.AmountCents),
			)
			report.Failed++
			continue
		}

		updated, changed, err := s.paymentRepo.MarkPaid(ctx, r.TxID, r.EndToEndID, r.PaidAt)
		if err != nil {
			report.Failed++
			s.logger.ErrorContext(ctx, "Failed to mark payment as paid", slog.String("txid", r.TxID), slog.Any("error", err))
			continue
		}
		if changed {
			report.Updated++
			s.logger.InfoContext(ctx, "Payment settled", slog.String("txid", r.TxID), slog.String("end_to_end_id", r.EndToEndID))
			s.afterStatusChange(ctx, updated, payment.Status)
			byTxID[r.TxID] = updated
		}
	}
	return report, nil
}
