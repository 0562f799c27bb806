package ranking

import "sort"

type Entry struct {
	Position      int          `json:"position"`
	Name          string       `json:"name"`
	Phone         string       `json:"phone"`
	Correct       int          `json:"correct_count"`
	TotalEligible int          `json:"total_eligible"`
	Accuracy      string       `json:"accuracy_percent"`
	Matches       []MatchScore `json:"matches,omitempty"`
}

// Sort orders entries by correct count desc, then name and phone asc
// (plain byte comparison), and assigns 1-based positions.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Correct != b.Correct {
			return a.Correct > b.Correct
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Phone < b.Phone
	})

	for i := range entries {
		entries[i].Position = i + 1
	}
}
