package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/bolao-system/models"
	"github.com/Dosada05/bolao-system/ranking"
	"github.com/Dosada05/bolao-system/storage"
)

// RankingRefresher пересчитывает рейтинг конкурса после изменения данных,
// влияющих на него (результаты матчей, оплаты, новые билеты).
type RankingRefresher interface {
	Refresh(ctx context.Context, contestID int) (*ranking.Ranking, error)
}

// Broadcaster: то, что умеет разослать сообщение в комнату live-хаба.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func validateContestDates(start, closeAt, end time.Time) error {
	if start.IsZero() || closeAt.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: all dates are required", ErrContestInvalidDates)
	}
	if start.After(closeAt) {
		return fmt.Errorf("%w: starts_at (%s) is after predictions_close_at (%s)", ErrContestInvalidDates, start.Format(time.RFC3339), closeAt.Format(time.RFC3339))
	}
	if closeAt.After(end) {
		return fmt.Errorf("%w: predictions_close_at (%s) is after ends_at (%s)", ErrContestInvalidDates, closeAt.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

func isValidStatusTransition(current, next models.ContestStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.ContestStatus][]models.ContestStatus{
		models.ContestStatusDraft:     {models.ContestStatusOpen, models.ContestStatusCancelled},
		models.ContestStatusOpen:      {models.ContestStatusClosed, models.ContestStatusCancelled},
		models.ContestStatusClosed:    {models.ContestStatusFinished, models.ContestStatusCancelled},
		models.ContestStatusFinished:  {},
		models.ContestStatusCancelled: {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}

func validContestStatus(status models.ContestStatus) bool {
	switch status {
	case models.ContestStatusDraft, models.ContestStatusOpen, models.ContestStatusClosed,
		models.ContestStatusFinished, models.ContestStatusCancelled:
		return true
	}
	return false
}

func populateMatchPhotoURLsFunc(match *models.Match, uploader storage.FileUploader) {
	if match == nil || uploader == nil {
		return
	}
	if key := derefString(match.HomePhotoKey); key != "" {
		if url := uploader.GetPublicURL(key); url != "" {
			match.HomePhotoURL = &url
		}
	}
	if key := derefString(match.AwayPhotoKey); key != "" {
		if url := uploader.GetPublicURL(key); url != "" {
			match.AwayPhotoURL = &url
		}
	}
}

func MatchesToInterface(slice []*models.Match) []models.Match {
	if slice == nil {
		return []models.Match{}
	}
	result := make([]models.Match, len(slice))
	for i, ptr := range slice {
		if ptr != nil {
			result[i] = *ptr
		}
	}
	return result
}

func toRankingInput(matches []*models.Match, predictions []*models.Prediction) ranking.Input {
	in := ranking.Input{
		Matches:     make([]ranking.Match, 0, len(matches)),
		Predictions: make([]ranking.Prediction, 0, len(predictions)),
	}
	for _, m := range matches {
		in.Matches = append(in.Matches, ranking.Match{ID: m.ID, Result: derefString(m.Result)})
	}
	for _, p := range predictions {
		in.Predictions = append(in.Predictions, ranking.Prediction{
			Name:    p.ParticipantName,
			Phone:   p.ParticipantPhone,
			MatchID: p.MatchID,
			Raw:     p.RawOutcome,
		})
	}
	return in
}
