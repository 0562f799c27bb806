package ranking

import (
	"fmt"
	"strings"
)

// Match is a contest match with its stored result (canonical code, score
// string or empty while unknown).
type Match struct {
	ID     int
	Result string
}

type FinalizedMatch struct {
	ID      int
	Outcome Outcome
}

type MatchScore struct {
	MatchID   int     `json:"match_id"`
	Predicted Outcome `json:"predicted"`
	Actual    Outcome `json:"actual"`
	Correct   bool    `json:"correct"`
}

type Score struct {
	Correct       int
	TotalEligible int
	Accuracy      string
	Matches       []MatchScore
}

// Finalized returns the matches whose result normalizes to a set outcome,
// in input order.
func Finalized(matches []Match) ([]FinalizedMatch, error) {
	finalized := make([]FinalizedMatch, 0, len(matches))
	for _, m := range matches {
		outcome, err := ParseOutcome(m.Result)
		if err != nil {
			return nil, fmt.Errorf("match %d result: %w", m.ID, err)
		}
		if outcome.IsSet() {
			finalized = append(finalized, FinalizedMatch{ID: m.ID, Outcome: outcome})
		}
	}
	return finalized, nil
}

// Calculate сравнивает палпиты участника с финальными исходами.
// Знаменатель: только те финальные матчи, на которые участник реально
// сделал палпит.
func Calculate(p *Participant, finalized []FinalizedMatch) (Score, error) {
	score := Score{Matches: make([]MatchScore, 0, len(finalized))}

	for _, m := range finalized {
		raw, ok := p.Picks[m.ID]
		predicted := OutcomeUnset
		if ok && strings.TrimSpace(raw) != "" {
			var err error
			predicted, err = ParseOutcome(raw)
			if err != nil {
				return Score{}, fmt.Errorf("prediction of %s for match %d: %w", p.Name, m.ID, err)
			}
			score.TotalEligible++
		}

		correct := predicted.IsSet() && predicted == m.Outcome
		if correct {
			score.Correct++
		}
		score.Matches = append(score.Matches, MatchScore{
			MatchID:   m.ID,
			Predicted: predicted,
			Actual:    m.Outcome,
			Correct:   correct,
		})
	}

	score.Accuracy = formatAccuracy(score.Correct, score.TotalEligible)
	return score, nil
}

func formatAccuracy(correct, eligible int) string {
	if eligible == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(correct)/float64(eligible)*100)
}
