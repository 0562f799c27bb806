package models

import "time"

// ContestStatus соответствует ENUM contest_status в БД.
type ContestStatus string

const (
	ContestStatusDraft     ContestStatus = "draft"
	ContestStatusOpen      ContestStatus = "open"
	ContestStatusClosed    ContestStatus = "closed"
	ContestStatusFinished  ContestStatus = "finished"
	ContestStatusCancelled ContestStatus = "cancelled"
)

// Contest (concurso): период с набором матчей и сроком приёма палпитов.
type Contest struct {
	ID                 int           `json:"id" db:"id"`
	Name               string        `json:"name" db:"name"`
	Description        *string       `json:"description,omitempty" db:"description"`
	StartsAt           time.Time     `json:"starts_at" db:"starts_at"`
	PredictionsCloseAt time.Time     `json:"predictions_close_at" db:"predictions_close_at"`
	EndsAt             time.Time     `json:"ends_at" db:"ends_at"`
	TicketPriceCents   int64         `json:"ticket_price_cents" db:"ticket_price_cents"`
	Status             ContestStatus `json:"status" db:"status"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`

	Matches []Match `json:"matches,omitempty" db:"-"`
}

// PredictionsOpen reports whether a ticket can still be submitted at now.
func (c *Contest) PredictionsOpen(now time.Time) bool {
	return c.Status == ContestStatusOpen && now.Before(c.PredictionsCloseAt)
}
