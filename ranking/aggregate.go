package ranking

// Prediction: одна строка палпита в том виде, в каком её отдаёт хранилище.
type Prediction struct {
	Name    string
	Phone   string
	MatchID int
	Raw     string
}

// Participant groups every pick of one (name, phone) identity.
type Participant struct {
	Name  string
	Phone string
	Picks map[int]string // match ID -> raw outcome
}

type participantKey struct {
	name  string
	phone string
}

// Aggregate группирует палпиты по паре (имя, телефон).
// Повторный палпит на тот же матч перезаписывает предыдущий.
func Aggregate(predictions []Prediction) []*Participant {
	byKey := make(map[participantKey]*Participant)
	participants := make([]*Participant, 0)

	for _, p := range predictions {
		key := participantKey{name: p.Name, phone: p.Phone}
		participant, ok := byKey[key]
		if !ok {
			participant = &Participant{
				Name:  p.Name,
				Phone: p.Phone,
				Picks: make(map[int]string),
			}
			byKey[key] = participant
			participants = append(participants, participant)
		}
		participant.Picks[p.MatchID] = p.Raw
	}

	return participants
}
