package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_Example(t *testing.T) {
	in := Input{
		Matches: []Match{{ID: 1, Result: "2x1"}, {ID: 2, Result: "0x0"}},
		Predictions: []Prediction{
			{Name: "Ana", Phone: "1", MatchID: 1, Raw: "C"},
			{Name: "Ana", Phone: "1", MatchID: 2, Raw: "E"},
			{Name: "Bo", Phone: "2", MatchID: 1, Raw: "F"},
		},
	}

	got, err := Compute(in, Options{AllowPartial: true})
	require.NoError(t, err)

	assert.Equal(t, StatusFinal, got.Status)
	assert.Equal(t, 2, got.TotalMatches)
	assert.Equal(t, 2, got.FinalizedMatches)
	require.Len(t, got.Entries, 2)

	ana := got.Entries[0]
	assert.Equal(t, 1, ana.Position)
	assert.Equal(t, "Ana", ana.Name)
	assert.Equal(t, 2, ana.Correct)
	assert.Equal(t, 2, ana.TotalEligible)
	assert.Equal(t, "100.0", ana.Accuracy)

	bo := got.Entries[1]
	assert.Equal(t, 2, bo.Position)
	assert.Equal(t, "Bo", bo.Name)
	assert.Equal(t, 0, bo.Correct)
	assert.Equal(t, 1, bo.TotalEligible)
	assert.Equal(t, "0.0", bo.Accuracy)
}

func TestCompute_EmptyPredictions(t *testing.T) {
	in := Input{Matches: []Match{{ID: 1, Result: "1"}}}

	got, err := Compute(in, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusFinal, got.Status)
	assert.NotNil(t, got.Entries)
	assert.Empty(t, got.Entries)
}

func TestCompute_PendingWhenOpenAndNothingFinalized(t *testing.T) {
	in := Input{
		Matches:     []Match{{ID: 1}, {ID: 2}},
		Predictions: []Prediction{{Name: "Ana", Phone: "1", MatchID: 1, Raw: "1"}},
	}

	got, err := Compute(in, Options{AllowPartial: false})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.NotEmpty(t, got.Message)
	assert.Empty(t, got.Entries)
}

func TestCompute_AllowPartialWithoutResults(t *testing.T) {
	in := Input{
		Matches:     []Match{{ID: 1}, {ID: 2}},
		Predictions: []Prediction{{Name: "Ana", Phone: "1", MatchID: 1, Raw: "1"}},
	}

	got, err := Compute(in, Options{AllowPartial: true})
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, got.Status)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, 0, got.Entries[0].TotalEligible)
	assert.Equal(t, "0.0", got.Entries[0].Accuracy)
}

func TestCompute_PartialResults(t *testing.T) {
	in := Input{
		Matches: []Match{{ID: 1, Result: "1x0"}, {ID: 2}},
		Predictions: []Prediction{
			{Name: "Ana", Phone: "1", MatchID: 1, Raw: "1"},
			{Name: "Ana", Phone: "1", MatchID: 2, Raw: "2"},
		},
	}

	got, err := Compute(in, Options{WithBreakdown: true})
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, got.Status)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, 1, got.Entries[0].Correct)
	assert.Equal(t, 1, got.Entries[0].TotalEligible)
	require.Len(t, got.Entries[0].Matches, 1)
	assert.Equal(t, MatchScore{MatchID: 1, Predicted: OutcomeHome, Actual: OutcomeHome, Correct: true}, got.Entries[0].Matches[0])
}

func TestCompute_TieBreakByName(t *testing.T) {
	in := Input{
		Matches: []Match{{ID: 1, Result: "X"}},
		Predictions: []Prediction{
			{Name: "carla", Phone: "3", MatchID: 1, Raw: "X"},
			{Name: "Bruno", Phone: "2", MatchID: 1, Raw: "E"},
			{Name: "Ana", Phone: "1", MatchID: 1, Raw: "0x0"},
			{Name: "Ana", Phone: "0", MatchID: 1, Raw: "1"},
		},
	}

	got, err := Compute(in, Options{})
	require.NoError(t, err)
	require.Len(t, got.Entries, 4)

	names := make([]string, 0, len(got.Entries))
	for i, e := range got.Entries {
		assert.Equal(t, i+1, e.Position)
		names = append(names, e.Name+"/"+e.Phone)
	}
	// ordinal compare: uppercase before lowercase
	assert.Equal(t, []string{"Ana/1", "Bruno/2", "carla/3", "Ana/0"}, names)
}

func TestCompute_Deterministic(t *testing.T) {
	in := Input{
		Matches: []Match{{ID: 1, Result: "2x2"}, {ID: 2, Result: "F"}},
		Predictions: []Prediction{
			{Name: "Zé", Phone: "9", MatchID: 1, Raw: "X"},
			{Name: "Ana", Phone: "1", MatchID: 2, Raw: "2"},
			{Name: "Bo", Phone: "2", MatchID: 1, Raw: "1"},
			{Name: "Bo", Phone: "2", MatchID: 2, Raw: "2"},
		},
	}

	first, err := Compute(in, Options{})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Compute(in, Options{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCompute_CorrectWithinEligibleAndLength(t *testing.T) {
	in := Input{
		Matches: []Match{{ID: 1, Result: "1"}, {ID: 2, Result: "2x0"}, {ID: 3, Result: "0x1"}},
		Predictions: []Prediction{
			{Name: "A", Phone: "1", MatchID: 1, Raw: "1"},
			{Name: "A", Phone: "1", MatchID: 3, Raw: "1"},
			{Name: "A", Phone: "2", MatchID: 2, Raw: "C"},
			{Name: "B", Phone: "1", MatchID: 1, Raw: ""},
			{Name: "C", Phone: "3", MatchID: 99, Raw: "X"},
		},
	}

	got, err := Compute(in, Options{})
	require.NoError(t, err)
	assert.Len(t, got.Entries, 4)
	for _, e := range got.Entries {
		assert.GreaterOrEqual(t, e.Correct, 0)
		assert.LessOrEqual(t, e.Correct, e.TotalEligible)
	}
}

func TestCompute_LaterPickOverridesEarlier(t *testing.T) {
	in := Input{
		Matches: []Match{{ID: 1, Result: "1"}},
		Predictions: []Prediction{
			{Name: "Ana", Phone: "1", MatchID: 1, Raw: "2"},
			{Name: "Ana", Phone: "1", MatchID: 1, Raw: "1"},
		},
	}

	got, err := Compute(in, Options{})
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, 1, got.Entries[0].Correct)
	assert.Equal(t, 1, got.Entries[0].TotalEligible)
}

func TestCompute_RejectsMalformedTokens(t *testing.T) {
	_, err := Compute(Input{Matches: []Match{{ID: 1, Result: "2-1"}}}, Options{})
	assert.ErrorIs(t, err, ErrInvalidOutcome)

	_, err = Compute(Input{
		Matches:     []Match{{ID: 1, Result: "1"}},
		Predictions: []Prediction{{Name: "Ana", Phone: "1", MatchID: 1, Raw: "casa"}},
	}, Options{})
	assert.ErrorIs(t, err, ErrInvalidOutcome)
}

func TestMerge(t *testing.T) {
	first := &Ranking{
		Status:           StatusFinal,
		TotalMatches:     2,
		FinalizedMatches: 2,
		Entries: []Entry{
			{Name: "Ana", Phone: "1", Correct: 2, TotalEligible: 2},
			{Name: "Bo", Phone: "2", Correct: 0, TotalEligible: 1},
		},
	}
	second := &Ranking{
		Status:           StatusPartial,
		TotalMatches:     3,
		FinalizedMatches: 1,
		Entries: []Entry{
			{Name: "Bo", Phone: "2", Correct: 1, TotalEligible: 1},
			{Name: "Cy", Phone: "3", Correct: 1, TotalEligible: 1},
		},
	}
	pending := &Ranking{Status: StatusPending, Entries: []Entry{}}

	got := Merge(first, second, pending, nil)

	assert.Equal(t, StatusPartial, got.Status)
	assert.Equal(t, 5, got.TotalMatches)
	assert.Equal(t, 3, got.FinalizedMatches)
	require.Len(t, got.Entries, 3)
	assert.Equal(t, Entry{Position: 1, Name: "Ana", Phone: "1", Correct: 2, TotalEligible: 2, Accuracy: "100.0"}, got.Entries[0])
	assert.Equal(t, Entry{Position: 2, Name: "Bo", Phone: "2", Correct: 1, TotalEligible: 2, Accuracy: "50.0"}, got.Entries[1])
	assert.Equal(t, Entry{Position: 3, Name: "Cy", Phone: "3", Correct: 1, TotalEligible: 1, Accuracy: "100.0"}, got.Entries[2])
}

func TestMerge_NothingToMerge(t *testing.T) {
	got := Merge(&Ranking{Status: StatusPending})
	assert.Equal(t, StatusPending, got.Status)
	assert.Empty(t, got.Entries)
}
