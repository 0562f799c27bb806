package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/bolao-system/models"
)

var (
	ErrPredictionConflict     = errors.New("participant already has a prediction for this match")
	ErrPredictionMatchInvalid = errors.New("prediction match does not belong to the contest")
)

type PredictionRepository interface {
	// CreateBatch вставляет палпиты одного билета; вызывается внутри транзакции.
	CreateBatch(ctx context.Context, exec SQLExecutor, predictions []*models.Prediction) error
	ListByParticipant(ctx context.Context, contestID int, name, phone string) ([]*models.Prediction, error)
	// ListCountable возвращает палпиты, учитываемые в рейтинге: без оплаты
	// или с подтверждённой оплатой.
	ListCountable(ctx context.Context, exec SQLExecutor, contestID int) ([]*models.Prediction, error)
	ExistsForParticipant(ctx context.Context, exec SQLExecutor, contestID int, name, phone string) (bool, error)
	// DeleteStale удаляет палпиты участника, чья оплата истекла или отменена,
	// чтобы он мог отправить билет заново.
	DeleteStale(ctx context.Context, exec SQLExecutor, contestID int, name, phone string) (int64, error)
	CountByContest(ctx context.Context, contestID int) (int, error)
	Count(ctx context.Context) (int, error)
}

type postgresPredictionRepository struct {
	db *sql.DB
}

func NewPostgresPredictionRepository(db *sql.DB) PredictionRepository {
	return &postgresPredictionRepository{db: db}
}

const predictionColumns = `p.id, p.contest_id, p.match_id, p.participant_name, p.participant_phone, p.user_id, p.raw_outcome, p.payment_id, p.created_at`

func (r *postgresPredictionRepository) scanPrediction(row rowScanner) (*models.Prediction, error) {
	var p models.Prediction
	err := row.Scan(
		&p.ID, &p.ContestID, &p.MatchID, &p.ParticipantName, &p.ParticipantPhone,
		&p.UserID, &p.RawOutcome, &p.PaymentID, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresPredictionRepository) CreateBatch(ctx context.Context, exec SQLExecutor, predictions []*models.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}
	executor := executorOr(exec, r.db)
	query := `
		INSERT INTO predictions (contest_id, match_id, participant_name, participant_phone, user_id, raw_outcome, payment_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	for _, p := range predictions {
		err := executor.QueryRowContext(ctx, query,
			p.ContestID, p.MatchID, p.ParticipantName, p.ParticipantPhone, p.UserID, p.RawOutcome, p.PaymentID,
		).Scan(&p.ID, &p.CreatedAt)
		if err != nil {
			if pqErr, ok := asPQError(err); ok {
				switch {
				case pqErr.Code == pqUniqueViolation && pqErr.Constraint == "predictions_participant_match_key":
					return ErrPredictionConflict
				case pqErr.Code == pqForeignKeyViolation && pqErr.Constraint == "predictions_match_contest_fkey":
					return ErrPredictionMatchInvalid
				}
			}
			return fmt.Errorf("failed to create prediction for match %d: %w", p.MatchID, err)
		}
	}
	return nil
}

func (r *postgresPredictionRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Prediction, error) {
	rows, err := executorOr(exec, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	predictions := make([]*models.Prediction, 0)
	for rows.Next() {
		p, errScan := r.scanPrediction(rows)
		if errScan != nil {
			return nil, errScan
		}
		predictions = append(predictions, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return predictions, nil
}

func (r *postgresPredictionRepository) ListByParticipant(ctx context.Context, contestID int, name, phone string) ([]*models.Prediction, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM predictions p
		WHERE p.contest_id = $1 AND p.participant_name = $2 AND p.participant_phone = $3
		ORDER BY p.match_id ASC`
	return r.list(ctx, nil, query, contestID, name, phone)
}

func (r *postgresPredictionRepository) ListCountable(ctx context.Context, exec SQLExecutor, contestID int) ([]*models.Prediction, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM predictions p
		LEFT JOIN payments pay ON pay.id = p.payment_id
		WHERE p.contest_id = $1 AND (p.payment_id IS NULL OR pay.status = 'paid')
		ORDER BY p.id ASC`
	return r.list(ctx, exec, query, contestID)
}

func (r *postgresPredictionRepository) ExistsForParticipant(ctx context.Context, exec SQLExecutor, contestID int, name, phone string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM predictions p
			LEFT JOIN payments pay ON pay.id = p.payment_id
			WHERE p.contest_id = $1 AND p.participant_name = $2 AND p.participant_phone = $3
			  AND (pay.id IS NULL OR pay.status IN ('pending', 'paid'))
		)`
	var exists bool
	if err := executorOr(exec, r.db).QueryRowContext(ctx, query, contestID, name, phone).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *postgresPredictionRepository) DeleteStale(ctx context.Context, exec SQLExecutor, contestID int, name, phone string) (int64, error) {
	query := `
		DELETE FROM predictions p
		USING payments pay
		WHERE pay.id = p.payment_id
		  AND p.contest_id = $1 AND p.participant_name = $2 AND p.participant_phone = $3
		  AND pay.status IN ('expired', 'cancelled', 'refunded')`
	res, err := executorOr(exec, r.db).ExecContext(ctx, query, contestID, name, phone)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale predictions: %w", err)
	}
	return res.RowsAffected()
}

func (r *postgresPredictionRepository) CountByContest(ctx context.Context, contestID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM predictions WHERE contest_id = $1`, contestID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresPredictionRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM predictions`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
