package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/bolao-system/models"
)

// ContestSnapshot: согласованный срез конкурса для расчёта рейтинга.
type ContestSnapshot struct {
	Contest     *models.Contest
	Matches     []*models.Match
	Predictions []*models.Prediction
}

type SnapshotRepository interface {
	// LoadContest читает конкурс, матчи и учитываемые палпиты в одной
	// REPEATABLE READ транзакции, так что результат и палпиты не расходятся.
	LoadContest(ctx context.Context, contestID int) (*ContestSnapshot, error)
}

type postgresSnapshotRepository struct {
	db          *sql.DB
	contests    ContestRepository
	matches     MatchRepository
	predictions PredictionRepository
}

func NewPostgresSnapshotRepository(db *sql.DB, contests ContestRepository, matches MatchRepository, predictions PredictionRepository) SnapshotRepository {
	return &postgresSnapshotRepository{
		db:          db,
		contests:    contests,
		matches:     matches,
		predictions: predictions,
	}
}

func (r *postgresSnapshotRepository) LoadContest(ctx context.Context, contestID int) (snap *ContestSnapshot, err error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	contest, err := r.contests.GetByID(ctx, tx, contestID)
	if err != nil {
		return nil, err
	}
	matches, err := r.matches.ListByContest(ctx, tx, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}
	predictions, err := r.predictions.ListCountable(ctx, tx, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load predictions: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot transaction: %w", err)
	}
	return &ContestSnapshot{Contest: contest, Matches: matches, Predictions: predictions}, nil
}
