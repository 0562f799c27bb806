package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/bolao-system/models"
)

var (
	ErrContestNotFound     = errors.New("contest not found")
	ErrContestNameConflict = errors.New("contest name conflict")
	ErrContestInUse        = errors.New("contest is referenced by predictions or payments")
)

type ListContestsFilter struct {
	Status *models.ContestStatus
	Limit  int
	Offset int
}

type ContestRepository interface {
	Create(ctx context.Context, contest *models.Contest) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Contest, error)
	List(ctx context.Context, filter ListContestsFilter) ([]*models.Contest, error)
	Update(ctx context.Context, contest *models.Contest) error
	UpdateStatus(ctx context.Context, id int, status models.ContestStatus) error
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context, status *models.ContestStatus) (int, error)
	// AdvanceStatuses переводит open→closed и closed→finished по датам.
	AdvanceStatuses(ctx context.Context, now time.Time) (closed int64, finished int64, err error)
}

type postgresContestRepository struct {
	db *sql.DB
}

func NewPostgresContestRepository(db *sql.DB) ContestRepository {
	return &postgresContestRepository{db: db}
}

const contestColumns = `id, name, description, starts_at, predictions_close_at, ends_at, ticket_price_cents, status, created_at`

func (r *postgresContestRepository) scanContest(row rowScanner) (*models.Contest, error) {
	var c models.Contest
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.StartsAt, &c.PredictionsCloseAt,
		&c.EndsAt, &c.TicketPriceCents, &c.Status, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *postgresContestRepository) Create(ctx context.Context, contest *models.Contest) error {
	query := `
		INSERT INTO contests (name, description, starts_at, predictions_close_at, ends_at, ticket_price_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		contest.Name, contest.Description, contest.StartsAt, contest.PredictionsCloseAt,
		contest.EndsAt, contest.TicketPriceCents, contest.Status,
	).Scan(&contest.ID, &contest.CreatedAt)
	if err != nil {
		if pqErr, ok := asPQError(err); ok && pqErr.Code == pqUniqueViolation && pqErr.Constraint == "contests_name_key" {
			return ErrContestNameConflict
		}
		return fmt.Errorf("failed to create contest: %w", err)
	}
	return nil
}

func (r *postgresContestRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Contest, error) {
	query := `SELECT ` + contestColumns + ` FROM contests WHERE id = $1`
	return r.scanContest(executorOr(exec, r.db).QueryRowContext(ctx, query, id))
}

func (r *postgresContestRepository) List(ctx context.Context, filter ListContestsFilter) ([]*models.Contest, error) {
	var (
		qb   strings.Builder
		args []interface{}
	)
	qb.WriteString(`SELECT ` + contestColumns + ` FROM contests`)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		qb.WriteString(fmt.Sprintf(" WHERE status = $%d", len(args)))
	}
	qb.WriteString(" ORDER BY predictions_close_at DESC, id DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		qb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		qb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}

	rows, err := r.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contests := make([]*models.Contest, 0)
	for rows.Next() {
		c, errScan := r.scanContest(rows)
		if errScan != nil {
			return nil, errScan
		}
		contests = append(contests, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return contests, nil
}

func (r *postgresContestRepository) Update(ctx context.Context, contest *models.Contest) error {
	query := `
		UPDATE contests SET
			name = $1, description = $2, starts_at = $3, predictions_close_at = $4,
			ends_at = $5, ticket_price_cents = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(ctx, query,
		contest.Name, contest.Description, contest.StartsAt, contest.PredictionsCloseAt,
		contest.EndsAt, contest.TicketPriceCents, contest.ID,
	)
	if err != nil {
		if pqErr, ok := asPQError(err); ok && pqErr.Code == pqUniqueViolation && pqErr.Constraint == "contests_name_key" {
			return ErrContestNameConflict
		}
		return err
	}
	return checkAffectedRows(result, ErrContestNotFound)
}

func (r *postgresContestRepository) UpdateStatus(ctx context.Context, id int, status models.ContestStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE contests SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrContestNotFound)
}

func (r *postgresContestRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM contests WHERE id = $1`, id)
	if err != nil {
		if pqErr, ok := asPQError(err); ok && pqErr.Code == pqForeignKeyViolation {
			return ErrContestInUse
		}
		return err
	}
	return checkAffectedRows(result, ErrContestNotFound)
}

func (r *postgresContestRepository) Count(ctx context.Context, status *models.ContestStatus) (int, error) {
	query := `SELECT COUNT(*) FROM contests`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresContestRepository) AdvanceStatuses(ctx context.Context, now time.Time) (int64, int64, error) {
	closedRes, err := r.db.ExecContext(ctx,
		`UPDATE contests SET status = 'closed' WHERE status = 'open' AND predictions_close_at <= $1`, now)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to close contests: %w", err)
	}
	closed, err := closedRes.RowsAffected()
	if err != nil {
		return 0, 0, err
	}

	finishedRes, err := r.db.ExecContext(ctx,
		`UPDATE contests SET status = 'finished' WHERE status = 'closed' AND ends_at <= $1`, now)
	if err != nil {
		return closed, 0, fmt.Errorf("failed to finish contests: %w", err)
	}
	finished, err := finishedRes.RowsAffected()
	if err != nil {
		return closed, 0, err
	}
	return closed, finished, nil
}
