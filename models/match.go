package models

import "time"

type MatchSide string

const (
	SideHome MatchSide = "home"
	SideAway MatchSide = "away"
)

// Match (jogo). Result хранит либо канонический код (1, X, 2), либо счёт
// вида "2x1"; nil: результат ещё неизвестен.
type Match struct {
	ID           int       `json:"id" db:"id"`
	ContestID    int       `json:"contest_id" db:"contest_id"`
	HomeTeam     string    `json:"home_team" db:"home_team"`
	AwayTeam     string    `json:"away_team" db:"away_team"`
	KickoffAt    time.Time `json:"kickoff_at" db:"kickoff_at"`
	Result       *string   `json:"result,omitempty" db:"result"`
	HomePhotoKey *string   `json:"-" db:"home_photo_key"`
	AwayPhotoKey *string   `json:"-" db:"away_photo_key"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	HomePhotoURL *string `json:"home_photo_url,omitempty" db:"-"`
	AwayPhotoURL *string `json:"away_photo_url,omitempty" db:"-"`
}
