package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/bolao-system/models"
)

var (
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchContestInvalid = errors.New("match contest conflict or invalid")
	ErrMatchInUse          = errors.New("match is referenced by predictions")
)

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByContest(ctx context.Context, exec SQLExecutor, contestID int) ([]*models.Match, error)
	Update(ctx context.Context, match *models.Match) error
	SetResult(ctx context.Context, id int, result *string) error
	SetPhotoKey(ctx context.Context, id int, side models.MatchSide, key *string) error
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context, finalizedOnly bool) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, contest_id, home_team, away_team, kickoff_at, result, home_photo_key, away_photo_key, created_at`

func (r *postgresMatchRepository) scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID, &m.ContestID, &m.HomeTeam, &m.AwayTeam, &m.KickoffAt,
		&m.Result, &m.HomePhotoKey, &m.AwayPhotoKey, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (contest_id, home_team, away_team, kickoff_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		match.ContestID, match.HomeTeam, match.AwayTeam, match.KickoffAt,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		if pqErr, ok := asPQError(err); ok && pqErr.Code == pqForeignKeyViolation {
			return ErrMatchContestInvalid
		}
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByContest(ctx context.Context, exec SQLExecutor, contestID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE contest_id = $1 ORDER BY kickoff_at ASC, id ASC`

	rows, err := executorOr(exec, r.db).QueryContext(ctx, query, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, errScan := r.scanMatch(rows)
		if errScan != nil {
			return nil, errScan
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, match *models.Match) error {
	query := `UPDATE matches SET home_team = $1, away_team = $2, kickoff_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, match.HomeTeam, match.AwayTeam, match.KickoffAt, match.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetResult(ctx context.Context, id int, result *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE matches SET result = $1 WHERE id = $2`, result, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetPhotoKey(ctx context.Context, id int, side models.MatchSide, key *string) error {
	var query string
	switch side {
	case models.SideHome:
		query = `UPDATE matches SET home_photo_key = $1 WHERE id = $2`
	case models.SideAway:
		query = `UPDATE matches SET away_photo_key = $1 WHERE id = $2`
	default:
		return fmt.Errorf("unknown match side %q", side)
	}
	res, err := r.db.ExecContext(ctx, query, key, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		if pqErr, ok := asPQError(err); ok && pqErr.Code == pqForeignKeyViolation {
			return ErrMatchInUse
		}
		return err
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Count(ctx context.Context, finalizedOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM matches`
	if finalizedOnly {
		query += ` WHERE result IS NOT NULL AND result <> ''`
	}
	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
