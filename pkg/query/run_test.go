package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunDistinguishesOutcomes(t *testing.T) {
	data := schedules()

	res := Run(data, Query{Key: Criteria{"route": Text("galle-kandy")}})
	require.Equal(t, OutcomeNoDataset, res.Outcome)
	require.Equal(t, "no dataset for this key", res.Outcome.Message())
	require.Empty(t, res.Records)

	res = Run(data, Query{
		Key:   Criteria{"route": Text("colombo-kandy")},
		Where: Criteria{"classes": AnyOf{Values: []string{"Sleeper"}}},
	})
	require.Equal(t, OutcomeTooNarrow, res.Outcome)
	require.Equal(t, "criteria too narrow", res.Outcome.Message())

	res = Run(data, Query{
		Key:   Criteria{"route": Text("Colombo-Kandy")},
		Where: Criteria{"classes": AnyOf{Values: []string{"Third Class"}}},
	})
	require.Equal(t, OutcomeMatched, res.Outcome)
	require.Empty(t, res.Outcome.Message())
	require.Equal(t, 2, res.Summary.Count)
}

func TestRunWhereJudgedAgainstFullTable(t *testing.T) {
	data := []Record{
		{"route": "x", "wifi": true},
		{"route": "y"},
	}
	res := Run(data, Query{
		Key:   Criteria{"route": Text("y")},
		Where: Criteria{"wifi": Exact{Value: true}},
	})
	require.Equal(t, OutcomeTooNarrow, res.Outcome)
	require.Empty(t, res.Records)
}

func TestRunEmptyDatasetIsNoDataset(t *testing.T) {
	res := Run(nil, Query{})
	require.Equal(t, OutcomeNoDataset, res.Outcome)
	require.NotNil(t, res.Records)
}

func TestSummarizeMeasure(t *testing.T) {
	res := Run(properties(), Query{
		Where:   Criteria{"type": Text("apartment")},
		Measure: "price",
	})
	require.Equal(t, OutcomeMatched, res.Outcome)
	require.Equal(t, Summary{Count: 2, Measure: "price", Total: 20500000, Min: 8000000, Max: 12500000}, res.Summary)
}

func TestSummarizeSkipsNonNumeric(t *testing.T) {
	s := Summarize([]Record{{"kg": 10}, {"kg": "n/a"}, {"kg": 4}}, "kg")
	require.Equal(t, Summary{Count: 3, Measure: "kg", Total: 14, Min: 4, Max: 10}, s)

	require.Equal(t, Summary{Count: 1}, Summarize([]Record{{"kg": 1}}, ""))
}
