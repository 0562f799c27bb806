package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/bolao-system/models"
	"github.com/lib/pq"
)

var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrPaymentTxIDConflict = errors.New("payment txid conflict")
)

type ListPaymentsFilter struct {
	Status    *models.PaymentStatus
	ContestID *int
	Limit     int
	Offset    int
}

type PaymentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, payment *models.Payment) error
	GetByID(ctx context.Context, id int) (*models.Payment, error)
	GetByTxID(ctx context.Context, txid string) (*models.Payment, error)
	ListByTxIDs(ctx context.Context, txids []string) ([]*models.Payment, error)
	List(ctx context.Context, filter ListPaymentsFilter) ([]*models.Payment, error)
	ListPending(ctx context.Context, createdBefore time.Time) ([]*models.Payment, error)
	// UpdateStatus меняет статус только если текущий статус отличается;
	// возвращает false, если изменений не было.
	UpdateStatus(ctx context.Context, id int, status models.PaymentStatus, gatewayStatus *string) (bool, error)
	// MarkPaid идемпотентно отмечает оплату по txid.
	MarkPaid(ctx context.Context, txid string, endToEndID string, paidAt time.Time) (*models.Payment, bool, error)
	TotalsByStatus(ctx context.Context) (map[models.PaymentStatus]models.PaymentStatusTotals, error)
}

type postgresPaymentRepository struct {
	db *sql.DB
}

func NewPostgresPaymentRepository(db *sql.DB) PaymentRepository {
	return &postgresPaymentRepository{db: db}
}

const paymentColumns = `id, txid, contest_id, participant_name, participant_phone, amount_cents, status,
	gateway_status, pix_copy_paste, end_to_end_id, expires_at, paid_at, created_at, updated_at`

func (r *postgresPaymentRepository) scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID, &p.TxID, &p.ContestID, &p.ParticipantName, &p.ParticipantPhone, &p.AmountCents, &p.Status,
		&p.GatewayStatus, &p.PixCopyPaste, &p.EndToEndID, &p.ExpiresAt, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresPaymentRepository) Create(ctx context.Context, exec SQLExecutor, payment *models.Payment) error {
	query := `
		INSERT INTO payments (txid, contest_id, participant_name, participant_phone, amount_cents, status,
		                      gateway_status, pix_copy_paste, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := executorOr(exec, r.db).QueryRowContext(ctx, query,
		payment.TxID, payment.ContestID, payment.ParticipantName, payment.ParticipantPhone, payment.AmountCents,
		payment.Status, payment.GatewayStatus, payment.PixCopyPaste, payment.ExpiresAt,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		if pqErr, ok := asPQError(err); ok && pqErr.Code == pqUniqueViolation && pqErr.Constraint == "payments_txid_key" {
			return ErrPaymentTxIDConflict
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *postgresPaymentRepository) GetByID(ctx context.Context, id int) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return r.scanPayment(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresPaymentRepository) GetByTxID(ctx context.Context, txid string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE txid = $1`
	return r.scanPayment(r.db.QueryRowContext(ctx, query, txid))
}

func (r *postgresPaymentRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*models.Payment, 0)
	for rows.Next() {
		p, errScan := r.scanPayment(rows)
		if errScan != nil {
			return nil, errScan
		}
		payments = append(payments, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *postgresPaymentRepository) ListByTxIDs(ctx context.Context, txids []string) ([]*models.Payment, error) {
	if len(txids) == 0 {
		return []*models.Payment{}, nil
	}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE txid = ANY($1)`
	return r.list(ctx, query, pq.Array(txids))
}

func (r *postgresPaymentRepository) List(ctx context.Context, filter ListPaymentsFilter) ([]*models.Payment, error) {
	var (
		qb         strings.Builder
		args       []interface{}
		conditions []string
	)
	qb.WriteString(`SELECT ` + paymentColumns + ` FROM payments`)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.ContestID != nil {
		args = append(args, *filter.ContestID)
		conditions = append(conditions, fmt.Sprintf("contest_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		qb.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	qb.WriteString(" ORDER BY created_at DESC, id DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		qb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		qb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}
	return r.list(ctx, qb.String(), args...)
}

func (r *postgresPaymentRepository) ListPending(ctx context.Context, createdBefore time.Time) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE status = 'pending' AND created_at <= $1 ORDER BY created_at ASC`
	return r.list(ctx, query, createdBefore)
}

func (r *postgresPaymentRepository) UpdateStatus(ctx context.Context, id int, status models.PaymentStatus, gatewayStatus *string) (bool, error) {
	query := `
		UPDATE payments SET
			status = $1,
			gateway_status = COALESCE($2, gateway_status),
			paid_at = CASE WHEN $1 = 'paid' THEN COALESCE(paid_at, NOW()) ELSE paid_at END,
			updated_at = NOW()
		WHERE id = $3 AND (status <> $1 OR gateway_status IS DISTINCT FROM COALESCE($2, gateway_status))`
	res, err := r.db.ExecContext(ctx, query, status, gatewayStatus, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		// отличаем "не найдено" от "нечего менять"
		if _, err := r.GetByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (r *postgresPaymentRepository) MarkPaid(ctx context.Context, txid string, endToEndID string, paidAt time.Time) (*models.Payment, bool, error) {
	query := `
		UPDATE payments SET
			status = 'paid', end_to_end_id = $2, paid_at = $3, updated_at = NOW()
		WHERE txid = $1 AND status <> 'paid'
		RETURNING ` + paymentColumns
	payment, err := r.scanPayment(r.db.QueryRowContext(ctx, query, txid, endToEndID, paidAt))
	if err == nil {
		return payment, true, nil
	}
	if !errors.Is(err, ErrPaymentNotFound) {
		return nil, false, err
	}
	// Либо уже оплачено, либо txid неизвестен.
	existing, err := r.GetByTxID(ctx, txid)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *postgresPaymentRepository) TotalsByStatus(ctx context.Context) (map[models.PaymentStatus]models.PaymentStatusTotals, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*), COALESCE(SUM(amount_cents), 0) FROM payments GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[models.PaymentStatus]models.PaymentStatusTotals)
	for rows.Next() {
		var (
			status models.PaymentStatus
			t      models.PaymentStatusTotals
		)
		if err := rows.Scan(&status, &t.Count, &t.AmountCents); err != nil {
			return nil, err
		}
		totals[status] = t
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return totals, nil
}
