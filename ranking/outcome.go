// Package ranking содержит чистую логику подсчёта рейтинга болао:
// нормализацию исходов, группировку палпитов по участникам, подсчёт
// угаданных матчей и сортировку.
package ranking

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Outcome: канонический исход матча.
type Outcome string

const (
	OutcomeUnset Outcome = ""
	OutcomeHome  Outcome = "1"
	OutcomeDraw  Outcome = "X"
	OutcomeAway  Outcome = "2"
)

func (o Outcome) IsSet() bool {
	return o != OutcomeUnset
}

var ErrInvalidOutcome = errors.New("invalid outcome")

// OutcomeError identifies the raw token that could not be normalized.
type OutcomeError struct {
	Value string
}

func (e *OutcomeError) Error() string {
	return fmt.Sprintf("invalid outcome %q: expected 1, X, 2, C, E, F or a score like 2x1", e.Value)
}

func (e *OutcomeError) Unwrap() error {
	return ErrInvalidOutcome
}

var scorePattern = regexp.MustCompile(`^(\d+)\s*[xX]\s*(\d+)$`)

// ParseOutcome приводит сырой токен к каноническому исходу.
// Легаси-коды: C (casa) = 1, E (empate) = X, F (fora) = 2.
// Пустой токен даёт OutcomeUnset без ошибки.
func ParseOutcome(raw string) (Outcome, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return OutcomeUnset, nil
	}

	switch strings.ToUpper(token) {
	case "1", "C":
		return OutcomeHome, nil
	case "X", "E":
		return OutcomeDraw, nil
	case "2", "F":
		return OutcomeAway, nil
	}

	home, away, ok := parseScore(token)
	if !ok {
		return OutcomeUnset, &OutcomeError{Value: raw}
	}
	return outcomeFromScore(home, away), nil
}

// NormalizeResult validates a match result token and returns the value to
// persist: a score string in "HxA" form when a score was given, the canonical
// code otherwise.
func NormalizeResult(raw string) (string, Outcome, error) {
	token := strings.TrimSpace(raw)
	if home, away, ok := parseScore(token); ok {
		return fmt.Sprintf("%dx%d", home, away), outcomeFromScore(home, away), nil
	}
	outcome, err := ParseOutcome(token)
	if err != nil {
		return "", OutcomeUnset, err
	}
	return string(outcome), outcome, nil
}

func parseScore(token string) (int, int, bool) {
	m := scorePattern.FindStringSubmatch(token)
	if m == nil {
		return 0, 0, false
	}
	home, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	away, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return home, away, true
}

func outcomeFromScore(home, away int) Outcome {
	switch {
	case home > away:
		return OutcomeHome
	case home < away:
		return OutcomeAway
	default:
		return OutcomeDraw
	}
}
