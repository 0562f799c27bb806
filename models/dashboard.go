package models

type PaymentStatusTotals struct {
	Count       int   `json:"count"`
	AmountCents int64 `json:"amount_cents"`
}

type DashboardStats struct {
	ContestsTotal    int                                   `json:"contests_total"`
	OpenContests     int                                   `json:"open_contests"`
	MatchesTotal     int                                   `json:"matches_total"`
	FinalizedMatches int                                   `json:"finalized_matches"`
	PredictionsTotal int                                   `json:"predictions_total"`
	Payments         map[PaymentStatus]PaymentStatusTotals `json:"payments"`
}
