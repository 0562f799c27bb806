package ranking

// Merge строит общий рейтинг по нескольким конкурсам: угаданные и
// учтённые матчи суммируются по паре (имя, телефон). Рейтинги со статусом
// pending пропускаются.
func Merge(rankings ...*Ranking) *Ranking {
	merged := &Ranking{Status: StatusFinal, Entries: []Entry{}}
	byKey := make(map[participantKey]*Entry)
	order := make([]participantKey, 0)
	contributed := 0

	for _, r := range rankings {
		if r == nil || r.Status == StatusPending {
			continue
		}
		contributed++
		if r.Status != StatusFinal {
			merged.Status = StatusPartial
		}
		merged.TotalMatches += r.TotalMatches
		merged.FinalizedMatches += r.FinalizedMatches

		for _, e := range r.Entries {
			key := participantKey{name: e.Name, phone: e.Phone}
			acc, ok := byKey[key]
			if !ok {
				acc = &Entry{Name: e.Name, Phone: e.Phone}
				byKey[key] = acc
				order = append(order, key)
			}
			acc.Correct += e.Correct
			acc.TotalEligible += e.TotalEligible
		}
	}

	if contributed == 0 {
		merged.Status = StatusPending
		merged.Message = pendingMessage
		return merged
	}

	entries := make([]Entry, 0, len(order))
	for _, key := range order {
		e := byKey[key]
		e.Accuracy = formatAccuracy(e.Correct, e.TotalEligible)
		entries = append(entries, *e)
	}
	Sort(entries)
	merged.Entries = entries
	return merged
}
