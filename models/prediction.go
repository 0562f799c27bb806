package models

import "time"

// Prediction (palpite) одного участника на один матч.
type Prediction struct {
	ID               int       `json:"id" db:"id"`
	ContestID        int       `json:"contest_id" db:"contest_id"`
	MatchID          int       `json:"match_id" db:"match_id"`
	ParticipantName  string    `json:"participant_name" db:"participant_name"`
	ParticipantPhone string    `json:"participant_phone" db:"participant_phone"`
	UserID           *int      `json:"user_id,omitempty" db:"user_id"`
	RawOutcome       string    `json:"outcome" db:"raw_outcome"`
	PaymentID        *int      `json:"payment_id,omitempty" db:"payment_id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Ticket: набор палпитов участника в конкурсе вместе с оплатой.
type Ticket struct {
	ContestID        int          `json:"contest_id"`
	ParticipantName  string       `json:"participant_name"`
	ParticipantPhone string       `json:"participant_phone"`
	Predictions      []Prediction `json:"predictions"`
	Payment          *Payment     `json:"payment,omitempty"`
}
