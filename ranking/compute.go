package ranking

import "fmt"

type Status string

const (
	StatusPending Status = "pending"
	StatusPartial Status = "partial"
	StatusFinal   Status = "final"
)

const pendingMessage = "ranking is not available yet: predictions are still open and no match has a result"

type Input struct {
	Matches     []Match
	Predictions []Prediction
}

type Options struct {
	// AllowPartial разрешает считать рейтинг, даже если ни один матч ещё
	// не завершён. Обычно true после закрытия приёма палпитов.
	AllowPartial bool
	// WithBreakdown включает поматчевую разбивку в каждую запись.
	WithBreakdown bool
}

type Ranking struct {
	Status           Status  `json:"status"`
	Message          string  `json:"message,omitempty"`
	TotalMatches     int     `json:"total_matches"`
	FinalizedMatches int     `json:"finalized_matches"`
	Entries          []Entry `json:"ranking"`
}

// Compute runs normalizer, aggregator, calculator and sorter over one
// contest snapshot.
func Compute(in Input, opts Options) (*Ranking, error) {
	finalized, err := Finalized(in.Matches)
	if err != nil {
		return nil, err
	}

	result := &Ranking{
		TotalMatches:     len(in.Matches),
		FinalizedMatches: len(finalized),
		Entries:          []Entry{},
	}

	if len(finalized) == 0 && !opts.AllowPartial {
		result.Status = StatusPending
		result.Message = pendingMessage
		return result, nil
	}

	if len(finalized) == len(in.Matches) && len(in.Matches) > 0 {
		result.Status = StatusFinal
	} else {
		result.Status = StatusPartial
	}

	participants := Aggregate(in.Predictions)
	entries := make([]Entry, 0, len(participants))
	for _, p := range participants {
		score, err := Calculate(p, finalized)
		if err != nil {
			return nil, fmt.Errorf("ranking: %w", err)
		}
		entry := Entry{
			Name:          p.Name,
			Phone:         p.Phone,
			Correct:       score.Correct,
			TotalEligible: score.TotalEligible,
			Accuracy:      score.Accuracy,
		}
		if opts.WithBreakdown {
			entry.Matches = score.Matches
		}
		entries = append(entries, entry)
	}

	Sort(entries)
	result.Entries = entries
	return result, nil
}
